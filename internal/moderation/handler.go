package moderation

import (
	"fmt"
	"time"

	"arenasrv/internal/arena"
	"arenasrv/internal/entity"
)

// Result is what a command produced, destined for the issuing connection's
// message ring (§3 "messages ring") or, for Broadcast, every tank's ring.
type Result struct {
	Text      string
	Broadcast bool
}

// Handler dispatches parsed, rate-limited commands against arena state.
// Grounded on the teacher's internal/chat.Handler, replacing its Kick-API
// calls with direct arena-entity mutations under the caller's held lock.
type Handler struct {
	limiter *RateLimiter
}

func NewHandler(cfg RateLimitConfig) *Handler {
	return &Handler{limiter: NewRateLimiter(cfg)}
}

func (h *Handler) Stop() { h.limiter.Stop() }

// Dispatch executes a chat-opcode message for actorID. The caller must hold
// a.Lock() for the duration of this call, consistent with every other
// arena-mutating entry point (§5).
func (h *Handler) Dispatch(a *arena.Arena, actorID uint32, text string, now time.Time) (Result, error) {
	cmd, isCommand := Parse(text)
	if !isCommand {
		return Result{}, nil
	}

	actor, ok := a.Tanks[actorID]
	if !ok {
		return Result{}, fmt.Errorf("moderation: unknown actor %d", actorID)
	}

	if !h.limiter.Allow(actorID, now) {
		return Result{Text: "command rate limit exceeded"}, nil
	}

	if cmd.Type == CmdUnknown {
		return Result{Text: "unknown command"}, nil
	}

	if !Authorize(actor.Privilege, cmd) {
		return Result{Text: "insufficient privilege"}, nil
	}

	switch cmd.Type {
	case CmdLogin:
		return h.login(actor)
	case CmdLogout:
		return h.logout(actor)
	case CmdGodmode:
		return h.godmode(actor, a.Ticks, a.Config.TicksPerSecond)
	case CmdInvisible:
		return h.invisible(actor)
	case CmdKick:
		return h.kick(a, cmd)
	case CmdBan:
		return h.ban(a, cmd)
	case CmdSetScore:
		return h.setScore(a, cmd)
	case CmdBroadcast:
		return Result{Text: BroadcastText(cmd), Broadcast: true}, nil
	default:
		return Result{Text: "unknown command"}, nil
	}
}

func (h *Handler) login(actor *entity.Tank) (Result, error) {
	if actor.UserID == "" {
		return Result{Text: "not authenticated"}, nil
	}
	return Result{Text: "already logged in as " + actor.UserID}, nil
}

func (h *Handler) logout(actor *entity.Tank) (Result, error) {
	actor.UserID = ""
	actor.Privilege = entity.Privilege{Kind: entity.PrivilegePlayer}
	return Result{Text: "logged out"}, nil
}

func (h *Handler) godmode(actor *entity.Tank, ticks uint64, tps int) (Result, error) {
	if !actor.CanToggleGodMode(ticks, tps) {
		return Result{Text: "godmode on cooldown"}, nil
	}
	actor.Invincible = !actor.Invincible
	actor.LastGodmodeTick = ticks
	state := "disabled"
	if actor.Invincible {
		state = "enabled"
	}
	return Result{Text: "godmode " + state}, nil
}

func (h *Handler) invisible(actor *entity.Tank) (Result, error) {
	actor.Invisible = !actor.Invisible
	if actor.Invisible {
		actor.Opacity = -1
	} else {
		actor.Opacity = 1
	}
	state := "off"
	if actor.Invisible {
		state = "on"
	}
	return Result{Text: "invisible " + state}, nil
}

func findTankByName(a *arena.Arena, name string) (*entity.Tank, bool) {
	for _, t := range a.Tanks {
		if t.Name == name {
			return t, true
		}
	}
	return nil, false
}

func (h *Handler) kick(a *arena.Arena, cmd Command) (Result, error) {
	name, ok := Target(cmd)
	if !ok {
		return Result{Text: "usage: /kick <name>"}, nil
	}
	t, found := findTankByName(a, name)
	if !found {
		return Result{Text: "no such player: " + name}, nil
	}
	a.MarkForDeletion(t.ID)
	return Result{Text: "kicked " + name}, nil
}

func (h *Handler) ban(a *arena.Arena, cmd Command) (Result, error) {
	name, ok := Target(cmd)
	if !ok {
		return Result{Text: "usage: /ban <name>"}, nil
	}
	t, found := findTankByName(a, name)
	if !found {
		return Result{Text: "no such player: " + name}, nil
	}
	a.Banlist.Add(t.Fingerprint)
	a.MarkForDeletion(t.ID)
	return Result{Text: "banned " + name}, nil
}

func (h *Handler) setScore(a *arena.Arena, cmd Command) (Result, error) {
	name, ok := Target(cmd)
	if !ok {
		return Result{Text: "usage: /set_score <name> <value>"}, nil
	}
	value, ok := ScoreArg(cmd)
	if !ok {
		return Result{Text: "usage: /set_score <name> <value>"}, nil
	}
	t, found := findTankByName(a, name)
	if !found {
		return Result{Text: "no such player: " + name}, nil
	}
	t.Score = value
	return Result{Text: fmt.Sprintf("set %s's score to %.0f", name, value)}, nil
}
