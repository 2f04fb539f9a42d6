package arena

import (
	"testing"

	"arenasrv/internal/catalog"
	"arenasrv/internal/entity"
	"arenasrv/internal/vecmath"
)

func newNecromancerTank(a *Arena, id uint32) *entity.Tank {
	t := entity.NewTank(id, catalog.Necromancer.ID, "bones", vecmath.Vec2{}, entity.Privilege{Kind: entity.PrivilegePlayer})
	a.Tanks[id] = t
	return t
}

func newSquare(a *Arena, id uint32) *entity.Shape {
	s := entity.NewShape(id, entity.ShapeSquare, entity.ShinyNormal, vecmath.Vec2{}, 35, 65)
	a.Shapes[id] = s
	return s
}

func TestNecromancyDirectKillSpawnsDrone(t *testing.T) {
	a := New(DefaultConfig("test"), nil)
	necro := newNecromancerTank(a, 1)
	square := newSquare(a, 2)

	a.kill(square.ID, necro.ID)

	if len(necro.PendingSpawns) != 1 {
		t.Fatalf("expected a pending drone spawn, got %d", len(necro.PendingSpawns))
	}
	req := necro.PendingSpawns[0]
	if req.Kind != catalog.ProjectileNecromancerDrone || req.OwnerID != necro.ID {
		t.Fatalf("expected a necromancer drone owned by %d, got kind=%v owner=%d", necro.ID, req.Kind, req.OwnerID)
	}
	if square.Necromancy == nil || square.Necromancy.FromResurrectedDrone {
		t.Fatalf("expected a direct-kill carryover, got %+v", square.Necromancy)
	}
}

func TestNecromancyResurrectedDroneKillCreditsOwnerChain(t *testing.T) {
	a := New(DefaultConfig("test"), nil)
	necro := newNecromancerTank(a, 1)
	square := newSquare(a, 2)

	drone := entity.NewProjectile(3, entity.ProjectileSpawnRequest{
		OwnerID: necro.ID,
		Kind:    catalog.ProjectileNecromancerDrone,
	}, 999)
	drone.OwnedBy = []uint32{necro.ID}
	a.Projectiles[3] = drone

	a.kill(square.ID, drone.ID)

	if len(necro.PendingSpawns) != 1 {
		t.Fatalf("expected the kill to credit the owning Necromancer tank, got %d pending spawns", len(necro.PendingSpawns))
	}
	if square.Necromancy == nil || !square.Necromancy.FromResurrectedDrone || square.Necromancy.DroneOwnerChainRoot != necro.ID {
		t.Fatalf("expected carryover crediting the drone's owner chain root, got %+v", square.Necromancy)
	}
}

func TestNecromancyIgnoresNonNecromancerKiller(t *testing.T) {
	a := New(DefaultConfig("test"), nil)
	basic := entity.NewTank(1, catalog.Basic.ID, "plain", vecmath.Vec2{}, entity.Privilege{Kind: entity.PrivilegePlayer})
	a.Tanks[1] = basic
	square := newSquare(a, 2)

	a.kill(square.ID, basic.ID)

	if len(basic.PendingSpawns) != 0 {
		t.Fatalf("expected a non-Necromancer killer to never seed necromancy")
	}
	if square.Necromancy != nil {
		t.Fatalf("expected no carryover for a non-Necromancer kill")
	}
}

func TestNecromancyIgnoresUnresurrectedDrone(t *testing.T) {
	a := New(DefaultConfig("test"), nil)
	necro := newNecromancerTank(a, 1)
	square := newSquare(a, 2)

	plainDrone := entity.NewProjectile(3, entity.ProjectileSpawnRequest{
		OwnerID: necro.ID,
		Kind:    catalog.ProjectileDrone,
	}, 999)
	plainDrone.OwnedBy = []uint32{necro.ID}
	a.Projectiles[3] = plainDrone

	a.kill(square.ID, plainDrone.ID)

	if len(necro.PendingSpawns) != 0 {
		t.Fatalf("expected an ordinary drone kill to never seed necromancy")
	}
}
