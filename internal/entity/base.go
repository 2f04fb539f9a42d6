// Package entity implements the heterogeneous entity sum type the arena
// simulates: tanks, shapes and projectiles, all sharing a common base
// record (§3 "Entity (sum)", §4.3 "Base Entity Lifecycle").
package entity

import "arenasrv/internal/vecmath"

// Kind discriminates the entity sum type's variants.
type Kind uint8

const (
	KindTank Kind = iota
	KindShape
	KindProjectile
	KindPlaceholder
)

// regenBonusMultiplier scales RegenPerTick once 30 s have passed since the
// last damage (§4.3); Tick converts that window to ticks using
// TickConfig.TicksPerSecond.
const regenBonusMultiplier = 4.0

// Base holds every field common to Tank, Shape and Projectile (§3).
type Base struct {
	ID       uint32
	Ticks    uint64
	Position vecmath.Vec2
	Velocity vecmath.Vec2
	Mouse    vecmath.Vec2
	Angle    float64
	Radius   float64
	Speed    float64

	Health    float64
	MaxHealth float64
	Alive     bool

	DamageExertion float64
	RegenPerTick   float64
	Invincible     bool
	Invisible      bool

	OwnedBy       []uint32 // entities that own this one
	OwnedEntities []uint32 // entities this one owns

	ClanSlot   int // -1 = no clan
	IdentityID int

	LastDamageTick uint64
}

// NewBase constructs a live base record with sane defaults.
func NewBase(id uint32, identityID int, pos vecmath.Vec2, radius, maxHealth float64) Base {
	return Base{
		ID:         id,
		Position:   pos,
		Radius:     radius,
		Health:     maxHealth,
		MaxHealth:  maxHealth,
		Alive:      true,
		ClanSlot:   -1,
		IdentityID: identityID,
	}
}

// TickConfig carries the per-tick-invariant parameters Tick needs, so the
// base record itself stays free of arena-wide configuration.
type TickConfig struct {
	ArenaSize        float64
	Friction         float64 // velocity retained per tick, e.g. 0.85
	TicksPerSecond   int
	ReflectAtBounds  bool
}

// grid is the subset of *vecmath.Grid's API the base lifecycle needs,
// declared locally so this package does not import vecmath's concrete type
// into every call site.
type grid interface {
	Reinsert(id uint32, pos vecmath.Vec2, radius float64)
}

// Tick advances the base record by one simulation step: regeneration,
// invincibility clamping, velocity integration with friction, bounds
// clamping, and incremental reinsertion into the spatial grid (§4.3).
func (b *Base) Tick(g grid, cfg TickConfig, dt float64) {
	b.Ticks++

	if b.MaxHealth > 0 {
		regen := b.RegenPerTick
		secondsSinceDamage := float64(b.Ticks-b.LastDamageTick) / float64(maxInt(cfg.TicksPerSecond, 1))
		if secondsSinceDamage >= 30 {
			regen *= regenBonusMultiplier
		}
		b.Health += regen
		if b.Health > b.MaxHealth {
			b.Health = b.MaxHealth
		}
	}

	if b.Invincible && b.Health < b.MaxHealth {
		b.Health = b.MaxHealth
	}

	b.Position = b.Position.Add(b.Velocity.Scale(dt * float64(maxInt(cfg.TicksPerSecond, 1))))
	b.Velocity = b.Velocity.Scale(cfg.Friction)

	b.clampToBounds(cfg)

	if g != nil && b.Velocity.MagnitudeSquared() > 0.0001 {
		g.Reinsert(b.ID, b.Position, b.Radius)
	}
}

func (b *Base) clampToBounds(cfg TickConfig) {
	min, max := 0.0, cfg.ArenaSize
	if b.Position.X < min {
		b.Position.X = min
		if cfg.ReflectAtBounds {
			b.Velocity.X = -b.Velocity.X
		}
	}
	if b.Position.X > max {
		b.Position.X = max
		if cfg.ReflectAtBounds {
			b.Velocity.X = -b.Velocity.X
		}
	}
	if b.Position.Y < min {
		b.Position.Y = min
		if cfg.ReflectAtBounds {
			b.Velocity.Y = -b.Velocity.Y
		}
	}
	if b.Position.Y > max {
		b.Position.Y = max
		if cfg.ReflectAtBounds {
			b.Velocity.Y = -b.Velocity.Y
		}
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// hasID reports whether list contains id.
func hasID(list []uint32, id uint32) bool {
	for _, v := range list {
		if v == id {
			return true
		}
	}
	return false
}

// ShouldCollide excludes self-owned, co-owned, and same-clan pairs from
// collision (§4.3). The clan check compares both records' ClanSlot fields
// directly (-1 means no clan, which never matches).
func (b *Base) ShouldCollide(other *Base) bool {
	if b.ID == other.ID {
		return false
	}
	if hasID(b.OwnedEntities, other.ID) || hasID(other.OwnedEntities, b.ID) {
		return false
	}
	if hasID(b.OwnedBy, other.ID) || hasID(other.OwnedBy, b.ID) {
		return false
	}
	for _, ownerA := range b.OwnedBy {
		if hasID(other.OwnedBy, ownerA) {
			return false // co-owned (e.g. two drones of the same tank)
		}
	}
	if b.ClanSlot >= 0 && b.ClanSlot == other.ClanSlot {
		return false
	}
	return true
}

// AddOwned links owner -> owned bidirectionally, maintaining the ownership
// invariant of §8.
func AddOwned(owner, owned *Base) {
	if !hasID(owner.OwnedEntities, owned.ID) {
		owner.OwnedEntities = append(owner.OwnedEntities, owned.ID)
	}
	if !hasID(owned.OwnedBy, owner.ID) {
		owned.OwnedBy = append(owned.OwnedBy, owner.ID)
	}
}

// RemoveOwned unlinks owner <-> owned bidirectionally.
func RemoveOwned(owner, owned *Base) {
	owner.OwnedEntities = removeID(owner.OwnedEntities, owned.ID)
	owned.OwnedBy = removeID(owned.OwnedBy, owner.ID)
}

func removeID(list []uint32, id uint32) []uint32 {
	for i, v := range list {
		if v == id {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}
