package moderation

import (
	"testing"
	"time"

	"arenasrv/internal/arena"
	"arenasrv/internal/entity"
	"arenasrv/internal/vecmath"
)

func newTestArenaWithTank(id uint32, priv entity.Privilege) (*arena.Arena, *entity.Tank) {
	a := arena.New(arena.DefaultConfig("test"), nil)
	t := entity.NewTank(id, 0, "victim", vecmath.Vec2{}, priv)
	a.Tanks[id] = t
	return a, t
}

func TestDispatchIgnoresPlainChat(t *testing.T) {
	a, tank := newTestArenaWithTank(1, entity.Privilege{Kind: entity.PrivilegePlayer})
	h := NewHandler(DefaultRateLimitConfig())
	defer h.Stop()

	result, err := h.Dispatch(a, tank.ID, "hello there", time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Text != "" {
		t.Fatalf("expected no result for plain chat, got %q", result.Text)
	}
}

func TestDispatchRejectsInsufficientPrivilege(t *testing.T) {
	a, tank := newTestArenaWithTank(1, entity.Privilege{Kind: entity.PrivilegePlayer})
	h := NewHandler(DefaultRateLimitConfig())
	defer h.Stop()

	result, err := h.Dispatch(a, tank.ID, "/kick someone", time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Text != "insufficient privilege" {
		t.Fatalf("expected insufficient privilege message, got %q", result.Text)
	}
}

func TestDispatchKickConfirmsTarget(t *testing.T) {
	a, mod := newTestArenaWithTank(1, entity.Privilege{Kind: entity.PrivilegeModerator})
	victim := entity.NewTank(2, 0, "victim", vecmath.Vec2{}, entity.Privilege{Kind: entity.PrivilegePlayer})
	a.Tanks[2] = victim

	h := NewHandler(DefaultRateLimitConfig())
	defer h.Stop()

	result, err := h.Dispatch(a, mod.ID, "/kick victim", time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Text != "kicked victim" {
		t.Fatalf("expected kick confirmation, got %q", result.Text)
	}
}

func TestDispatchBanAddsFingerprintToBanlist(t *testing.T) {
	a, mod := newTestArenaWithTank(1, entity.Privilege{Kind: entity.PrivilegeModerator})
	victim := entity.NewTank(2, 0, "victim", vecmath.Vec2{}, entity.Privilege{Kind: entity.PrivilegePlayer})
	victim.Fingerprint = "fp-123"
	a.Tanks[2] = victim

	h := NewHandler(DefaultRateLimitConfig())
	defer h.Stop()

	if _, err := h.Dispatch(a, mod.ID, "/ban victim", time.Now()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !a.Banlist.Contains("fp-123") {
		t.Fatalf("expected fingerprint to be banned")
	}
}

func TestDispatchGodmodeTogglesInvincibility(t *testing.T) {
	a, tank := newTestArenaWithTank(1, entity.Privilege{Kind: entity.PrivilegeDeveloper})
	a.Ticks = 1000 // past the initial godmode cooldown window
	h := NewHandler(DefaultRateLimitConfig())
	defer h.Stop()

	if _, err := h.Dispatch(a, tank.ID, "/godmode", time.Now()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !tank.Invincible {
		t.Fatalf("expected godmode to enable invincibility")
	}
}

func TestDispatchRateLimitBlocksRapidCommands(t *testing.T) {
	cfg := RateLimitConfig{MaxPerWindow: 1, WindowDuration: time.Minute, CooldownDuration: time.Minute}
	a, tank := newTestArenaWithTank(1, entity.Privilege{Kind: entity.PrivilegeDeveloper})
	h := NewHandler(cfg)
	defer h.Stop()

	now := time.Now()
	if _, err := h.Dispatch(a, tank.ID, "/godmode", now); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	result, err := h.Dispatch(a, tank.ID, "/invisible", now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Text != "command rate limit exceeded" {
		t.Fatalf("expected second command within cooldown to be rate limited, got %q", result.Text)
	}
}

func TestDispatchBroadcastRequiresHostOrDeveloper(t *testing.T) {
	a, tank := newTestArenaWithTank(1, entity.Privilege{Kind: entity.PrivilegeModerator})
	h := NewHandler(DefaultRateLimitConfig())
	defer h.Stop()

	result, err := h.Dispatch(a, tank.ID, "/broadcast server restarting", time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Text != "insufficient privilege" {
		t.Fatalf("expected moderator to be rejected from broadcast, got %q", result.Text)
	}
}
