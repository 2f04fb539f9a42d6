package arena

import (
	"math/rand"
	"testing"

	"arenasrv/internal/catalog"
	"arenasrv/internal/entity"
	"arenasrv/internal/vecmath"
)

func newRailgunTank(a *Arena, id uint32) *entity.Tank {
	t := entity.NewTank(id, catalog.Railgun.ID, "sniper", vecmath.Vec2{}, entity.Privilege{Kind: entity.PrivilegePlayer})
	a.Tanks[id] = t
	return t
}

// fireRailgunTick drives one tank's UpdateTurrets call, then drains whatever
// it queued into a.Projectiles the way Tick's pipeline would.
func fireRailgunTick(a *Arena, tank *entity.Tank, shootHeld bool) {
	rng := rand.New(rand.NewSource(1))
	tank.UpdateTurrets(rng, shootHeld, nil)
	var pending []pendingSpawn
	for _, req := range tank.PendingSpawns {
		pending = append(pending, pendingSpawn{req: req})
	}
	tank.PendingSpawns = nil
	a.realizeProjectileSpawns(pending)
}

func TestRealizeProjectileSpawnsPinsRailgunProjectile(t *testing.T) {
	a := New(DefaultConfig("test"), nil)
	tank := newRailgunTank(a, 1)

	fireRailgunTick(a, tank, true) // queues and realizes the initial charge-building spawn

	if tank.Turrets[0].Railgun.Pinned == 0 {
		t.Fatalf("expected realizeProjectileSpawns to pin the new projectile onto the firing turret")
	}
	if _, ok := a.Projectiles[tank.Turrets[0].Railgun.Pinned]; !ok {
		t.Fatalf("expected the pinned ID to resolve to a live projectile")
	}
}

func TestRailgunChargesAcrossTicksWithoutRefiring(t *testing.T) {
	a := New(DefaultConfig("test"), nil)
	tank := newRailgunTank(a, 1)

	fireRailgunTick(a, tank, true)
	pinnedID := tank.Turrets[0].Railgun.Pinned

	for i := 0; i < 3; i++ {
		fireRailgunTick(a, tank, true)
	}

	if len(a.Projectiles) != 1 {
		t.Fatalf("expected the pinned railgun to suppress re-fire across ticks, got %d live projectiles", len(a.Projectiles))
	}
	if tank.Turrets[0].Railgun.Pinned != pinnedID {
		t.Fatalf("expected the same projectile to stay pinned while charging")
	}
	if tank.Turrets[0].Railgun.Charges != 3 {
		t.Fatalf("expected 3 ticks of charge, got %d", tank.Turrets[0].Railgun.Charges)
	}
}

func TestResolveRailgunReleaseGrowsDamageAndPenetrationWithCharge(t *testing.T) {
	a := New(DefaultConfig("test"), nil)
	tank := newRailgunTank(a, 1)

	fireRailgunTick(a, tank, true)
	rg := tank.Turrets[0].Railgun
	baseRadius := a.Projectiles[rg.Pinned].Radius

	rg.Charges = rg.MaxCharges
	rg.HasShot = true
	a.resolveRailgunRelease(tank)

	released, ok := a.Projectiles[rg.Pinned]
	if !ok {
		t.Fatalf("expected the released projectile to still exist under its old pinned ID")
	}
	wantRadius := entity.RailgunRadius(baseRadius, rg.MaxCharges, rg.MaxCharges)
	if released.Radius != wantRadius {
		t.Fatalf("expected radius %v after full charge, got %v", wantRadius, released.Radius)
	}
	if released.DamageExertion != entity.RailgunDamageForRadius(wantRadius) {
		t.Fatalf("expected damage derived from the released radius, got %v", released.DamageExertion)
	}
	if mag := released.Velocity.Magnitude(); mag < railgunReleaseSpeed-0.01 || mag > railgunReleaseSpeed+0.01 {
		t.Fatalf("expected the release to impart muzzle speed %v, got %v", railgunReleaseSpeed, mag)
	}
	if rg.Pinned != 0 || rg.Charges != 0 || rg.HasShot {
		t.Fatalf("expected the turret to reset after release, got %+v", rg)
	}
}

func TestResolveRailgunReleaseNoopWithoutShot(t *testing.T) {
	a := New(DefaultConfig("test"), nil)
	tank := newRailgunTank(a, 1)
	tank.Turrets[0].Railgun = &entity.RailgunState{MaxCharges: 5, Pinned: 42, Charges: 2}

	a.resolveRailgunRelease(tank)

	if tank.Turrets[0].Railgun.Pinned != 42 {
		t.Fatalf("expected an unreleased charge to leave Pinned untouched")
	}
}
