package entity

import (
	"testing"

	"arenasrv/internal/vecmath"
)

func TestOwnershipInvariantHoldsAfterAddAndRemove(t *testing.T) {
	owner := &Base{ID: 1}
	owned := &Base{ID: 2}

	AddOwned(owner, owned)
	if !hasID(owner.OwnedEntities, owned.ID) || !hasID(owned.OwnedBy, owner.ID) {
		t.Fatalf("expected bidirectional ownership after AddOwned")
	}

	RemoveOwned(owner, owned)
	if hasID(owner.OwnedEntities, owned.ID) || hasID(owned.OwnedBy, owner.ID) {
		t.Fatalf("expected ownership cleared after RemoveOwned")
	}
}

func TestShouldCollideExcludesOwnedPairs(t *testing.T) {
	owner := &Base{ID: 1, ClanSlot: -1}
	owned := &Base{ID: 2, ClanSlot: -1}
	AddOwned(owner, owned)

	if owner.ShouldCollide(owned) {
		t.Fatalf("expected owner/owned pair to be excluded from collision")
	}
	if owned.ShouldCollide(owner) {
		t.Fatalf("expected owned/owner pair to be excluded from collision symmetrically")
	}
}

func TestShouldCollideExcludesSameClan(t *testing.T) {
	a := &Base{ID: 1, ClanSlot: 3}
	b := &Base{ID: 2, ClanSlot: 3}
	if a.ShouldCollide(b) {
		t.Fatalf("expected same-clan pair to be excluded from collision")
	}
}

func TestShouldCollideAllowsUnrelatedEntities(t *testing.T) {
	a := &Base{ID: 1, ClanSlot: -1}
	b := &Base{ID: 2, ClanSlot: -1}
	if !a.ShouldCollide(b) {
		t.Fatalf("expected unrelated entities to collide")
	}
}

func TestBaseTickIntegratesVelocityAndClampsBounds(t *testing.T) {
	b := &Base{ID: 1, Position: vecmath.Vec2{X: 5, Y: 5}, Velocity: vecmath.Vec2{X: -10, Y: 0}, Alive: true}
	cfg := TickConfig{ArenaSize: 1000, Friction: 0.85, TicksPerSecond: 20}
	b.Tick(nil, cfg, 1.0/20)

	if b.Position.X < 0 {
		t.Fatalf("expected position clamped to >= 0, got %v", b.Position.X)
	}
}
