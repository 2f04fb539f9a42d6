package netio

import (
	"testing"

	"arenasrv/internal/arena"
	"arenasrv/internal/catalog"
	"arenasrv/internal/entity"
	"arenasrv/internal/vecmath"
	"arenasrv/internal/wire"
)

func newHubTestTank(a *arena.Arena, id uint32, priv entity.Privilege) *entity.Tank {
	t := entity.NewTank(id, catalog.Basic.ID, "tester", vecmath.Vec2{}, priv)
	a.Tanks[id] = t
	return t
}

func TestHandleStatSpendsAvailablePoint(t *testing.T) {
	a := arena.New(arena.DefaultConfig("test"), nil)
	h := NewHub(a, DefaultHubConfig(), nil)
	tank := newHubTestTank(a, 1, entity.Privilege{Kind: entity.PrivilegePlayer})
	tank.StatPoints = 1

	s := wire.NewStream()
	s.WriteU8(uint8(wire.ServerBoundStat))
	s.WriteU8(uint8(wire.StatMaxHealth))

	c := &Connection{EntityID: 1}
	h.handleFrame(c, s.Bytes())

	if tank.Stats[wire.StatMaxHealth] != 1 || tank.StatPoints != 0 {
		t.Fatalf("expected stat point to be spent, got stats=%v points=%d", tank.Stats, tank.StatPoints)
	}
	if !tank.SendStatInfo {
		t.Fatalf("expected SendStatInfo to be set after a successful stat change")
	}
}

func TestHandleStatRejectedInRankedMode(t *testing.T) {
	cfg := arena.DefaultConfig("test")
	cfg.GameMode = arena.ModeRanked
	a := arena.New(cfg, nil)
	h := NewHub(a, DefaultHubConfig(), nil)
	tank := newHubTestTank(a, 1, entity.Privilege{Kind: entity.PrivilegePlayer})
	tank.StatPoints = 1

	s := wire.NewStream()
	s.WriteU8(uint8(wire.ServerBoundStat))
	s.WriteU8(uint8(wire.StatMaxHealth))

	c := &Connection{EntityID: 1}
	h.handleFrame(c, s.Bytes())

	if tank.StatPoints != 1 {
		t.Fatalf("expected Ranked mode to reject the stat spend, points=%d", tank.StatPoints)
	}
}

func TestHandleUpgradesSwitchesIdentity(t *testing.T) {
	a := arena.New(arena.DefaultConfig("test"), nil)
	h := NewHub(a, DefaultHubConfig(), nil)
	tank := newHubTestTank(a, 1, entity.Privilege{Kind: entity.PrivilegePlayer})

	s := wire.NewStream()
	s.WriteU8(uint8(wire.ServerBoundUpgrades))
	s.WriteU8(0) // Basic.Upgrades[0]

	c := &Connection{EntityID: 1}
	h.handleFrame(c, s.Bytes())

	if tank.IdentityID != catalog.Basic.Upgrades[0] {
		t.Fatalf("expected identity to switch to %d, got %d", catalog.Basic.Upgrades[0], tank.IdentityID)
	}
	if !tank.SendUpgradesInfo {
		t.Fatalf("expected SendUpgradesInfo to be set after a successful upgrade")
	}
}

func TestHandleArenaUpdateRequiresHostPrivilege(t *testing.T) {
	a := arena.New(arena.DefaultConfig("test"), nil)
	h := NewHub(a, DefaultHubConfig(), nil)
	newHubTestTank(a, 1, entity.Privilege{Kind: entity.PrivilegePlayer})
	originalSize := a.Config.ArenaSize

	s := wire.NewStream()
	s.WriteU8(uint8(wire.ServerBoundArenaUpdate))
	s.WriteF32(5000)
	s.WriteU32(200)
	s.WriteU8(0)
	s.WriteU8(1)
	s.WriteU8(1)
	s.WriteU8(1)
	s.WriteU8(0)
	s.WriteU8(0)

	c := &Connection{EntityID: 1}
	h.handleFrame(c, s.Bytes())

	if a.Config.ArenaSize != originalSize {
		t.Fatalf("expected non-host arena update to be ignored, got size %v", a.Config.ArenaSize)
	}
}

func TestHandleArenaUpdateAppliesHostChanges(t *testing.T) {
	a := arena.New(arena.DefaultConfig("test"), nil)
	h := NewHub(a, DefaultHubConfig(), nil)
	newHubTestTank(a, 1, entity.Privilege{Kind: entity.PrivilegeHost})

	s := wire.NewStream()
	s.WriteU8(uint8(wire.ServerBoundArenaUpdate))
	s.WriteF32(5000)
	s.WriteU32(200)
	s.WriteU8(0)   // bot_count, discarded
	s.WriteU8(0)   // disable_level_up = true
	s.WriteU8(1)   // disable_switch_tank = false
	s.WriteU8(1)   // disable_god_mode = false
	s.WriteU8(1)   // last_man_standing = true
	s.WriteU8(1)   // private = true

	c := &Connection{EntityID: 1}
	h.handleFrame(c, s.Bytes())

	if a.Config.ArenaSize != 5000 || a.Config.WantedShapeCount != 200 {
		t.Fatalf("expected host update to apply, got %+v", a.Config)
	}
	if !a.Config.DisabledFlags[0] || a.Config.DisabledFlags[1] || a.Config.DisabledFlags[2] {
		t.Fatalf("expected disabled flags [true,false,false], got %v", a.Config.DisabledFlags)
	}
	if a.Config.GameMode != arena.ModeLastManStanding {
		t.Fatalf("expected last_man_standing to switch game mode, got %v", a.Config.GameMode)
	}
	if !a.Config.Private {
		t.Fatalf("expected private to be set")
	}
}

func TestHandleClanCreateThenJoin(t *testing.T) {
	a := arena.New(arena.DefaultConfig("test"), nil)
	h := NewHub(a, DefaultHubConfig(), nil)
	newHubTestTank(a, 1, entity.Privilege{Kind: entity.PrivilegePlayer})
	applicant := newHubTestTank(a, 2, entity.Privilege{Kind: entity.PrivilegePlayer})

	create := wire.NewStream()
	create.WriteU8(uint8(wire.ServerBoundClan))
	create.WriteU8(uint8(wire.ClanCreate))
	create.WriteString("Reapers")
	h.handleFrame(&Connection{EntityID: 1}, create.Bytes())

	join := wire.NewStream()
	join.WriteU8(uint8(wire.ServerBoundClan))
	join.WriteU8(uint8(wire.ClanJoin))
	join.WriteU8(0)
	h.handleFrame(&Connection{EntityID: 2}, join.Bytes())

	if len(a.Clans[0].PendingInvites) != 1 || a.Clans[0].PendingInvites[0] != 2 {
		t.Fatalf("expected applicant 2 to be queued as pending, got %+v", a.Clans[0])
	}

	accept := wire.NewStream()
	accept.WriteU8(uint8(wire.ServerBoundClan))
	accept.WriteU8(uint8(wire.ClanAcceptDecline))
	accept.WriteU32(2)
	accept.WriteU8(1)
	h.handleFrame(&Connection{EntityID: 1}, accept.Bytes())

	if applicant.ClanSlot != 0 {
		t.Fatalf("expected applicant to join slot 0, got %d", applicant.ClanSlot)
	}
}
