package entity

import (
	"testing"

	"arenasrv/internal/catalog"
)

func TestUpdateRailgunTurretPinsOnFirstShootHold(t *testing.T) {
	ts := TurretState{Spec: &catalog.Railgun.Turrets[0], Railgun: &RailgunState{MaxCharges: 5}}
	tank := &Tank{Turrets: []TurretState{ts}}

	tank.updateRailgunTurret(0, true)

	rg := tank.Turrets[0].Railgun
	if rg.Pinned != 0 {
		t.Fatalf("expected Pinned to stay 0 until the arena realizes the spawn request, got %d", rg.Pinned)
	}
	if len(tank.PendingSpawns) != 1 || tank.PendingSpawns[0].Kind != catalog.ProjectileRailgun {
		t.Fatalf("expected a railgun spawn request to be queued, got %+v", tank.PendingSpawns)
	}
}

func TestUpdateRailgunTurretDoesNotRefireWhilePinned(t *testing.T) {
	ts := TurretState{Spec: &catalog.Railgun.Turrets[0], Railgun: &RailgunState{MaxCharges: 5, Pinned: 99}}
	tank := &Tank{Turrets: []TurretState{ts}}

	tank.updateRailgunTurret(0, true)

	if len(tank.PendingSpawns) != 0 {
		t.Fatalf("expected a pinned railgun to suppress re-fire, got %d pending spawns", len(tank.PendingSpawns))
	}
	if tank.Turrets[0].Railgun.Charges != 1 {
		t.Fatalf("expected the pinned charge to build by one tick, got %d", tank.Turrets[0].Railgun.Charges)
	}
}

func TestUpdateRailgunTurretReleasesAtMaxCharge(t *testing.T) {
	rg := &RailgunState{MaxCharges: 3, Pinned: 99, Charges: 2}
	ts := TurretState{Spec: &catalog.Railgun.Turrets[0], Railgun: rg}
	tank := &Tank{Turrets: []TurretState{ts}}

	tank.updateRailgunTurret(0, true)

	if !rg.HasShot {
		t.Fatalf("expected HasShot once charges reach MaxCharges")
	}
	if rg.Charges != 3 {
		t.Fatalf("expected charges to cap at MaxCharges, got %d", rg.Charges)
	}
}

func TestUpdateRailgunTurretReleasesOnShootRelease(t *testing.T) {
	rg := &RailgunState{MaxCharges: 5, Pinned: 99, Charges: 1}
	ts := TurretState{Spec: &catalog.Railgun.Turrets[0], Railgun: rg}
	tank := &Tank{Turrets: []TurretState{ts}}

	tank.updateRailgunTurret(0, false)

	if !rg.HasShot {
		t.Fatalf("expected releasing the trigger early to still fire a (weaker) shot")
	}
}

func TestRailgunRadiusScalesWithCharge(t *testing.T) {
	if got := RailgunRadius(6, 0, 5); got != 6 {
		t.Fatalf("expected an uncharged shot to keep the base radius, got %v", got)
	}
	if got := RailgunRadius(6, 5, 5); got != 12 {
		t.Fatalf("expected a fully charged shot to double the base radius, got %v", got)
	}
}

func TestRailgunDamagePenetrationRecoilFormulas(t *testing.T) {
	radius := 12.0
	if got := RailgunDamageForRadius(radius); got <= 0 || got >= radius {
		t.Fatalf("expected damage scaled down from radius, got %v", got)
	}
	if got := RailgunPenetrationForRadius(radius); got <= 0 || got >= radius {
		t.Fatalf("expected penetration scaled down from radius, got %v", got)
	}
	recoil := RailgunRecoilVelocity(radius, 0)
	if recoil.X >= 0 {
		t.Fatalf("expected recoil to push opposite the fire angle, got %+v", recoil)
	}
}
