package arena

import (
	"arenasrv/internal/catalog"
	"arenasrv/internal/entity"
	"arenasrv/internal/eventlog"
	"arenasrv/internal/vecmath"
)

// baseOf resolves any live entity ID to its embedded *entity.Base, or nil.
func (a *Arena) baseOf(id uint32) *entity.Base {
	if t, ok := a.Tanks[id]; ok {
		return &t.Base
	}
	if s, ok := a.Shapes[id]; ok {
		return &s.Base
	}
	if p, ok := a.Projectiles[id]; ok {
		return &p.Base
	}
	return nil
}

// sameDroneFamily reports whether both IDs are co-owned projectiles of the
// same AI-driven family (§4.7 "Same-type drones ... use a softer push").
func (a *Arena) sameDroneFamily(idA, idB uint32) bool {
	pa, okA := a.Projectiles[idA]
	pb, okB := a.Projectiles[idB]
	if !okA || !okB {
		return false
	}
	switch pa.Kind {
	case catalog.ProjectileDrone, catalog.ProjectileMinion, catalog.ProjectileNecromancerDrone:
		if pa.Kind != pb.Kind {
			return false
		}
		for _, owner := range pa.OwnedBy {
			if hasOwnerID(pb.OwnedBy, owner) {
				return true
			}
		}
	}
	return false
}

// ResolveCollisions runs the broad + narrow phase of §4.7 over every live
// entity, then dispatches damage/kill and positional separation.
func (a *Arena) ResolveCollisions() {
	seen := make(map[[2]uint32]bool)

	visit := func(id uint32, base *entity.Base) {
		candidates := a.Grid.QueryRadius(id, base.Position, base.Radius*2)
		for _, otherID := range candidates {
			if otherID == id {
				continue
			}
			key := [2]uint32{id, otherID}
			if id > otherID {
				key = [2]uint32{otherID, id}
			}
			if seen[key] {
				continue
			}
			other := a.baseOf(otherID)
			if other == nil {
				continue
			}
			distSq := base.Position.DistanceSquared(other.Position)
			radiusSum := base.Radius + other.Radius
			if distSq > radiusSum*radiusSum {
				continue
			}
			if !base.ShouldCollide(other) && !a.sameDroneFamily(id, otherID) {
				continue
			}
			seen[key] = true
			a.resolvePair(id, otherID)
		}
	}

	for id, t := range a.Tanks {
		if t.Alive {
			visit(id, &t.Base)
		}
	}
	for id, s := range a.Shapes {
		if s.Alive {
			visit(id, &s.Base)
		}
	}
	for id, p := range a.Projectiles {
		if p.Alive {
			visit(id, &p.Base)
		}
	}
}

// resolvePair performs the narrow-phase separation impulse and then invokes
// the damage exchange symmetrically (a->b) then (b->a) (§4.7 "Tie-breaking").
func (a *Arena) resolvePair(idA, idB uint32) {
	baseA := a.baseOf(idA)
	baseB := a.baseOf(idB)
	if baseA == nil || baseB == nil {
		return
	}

	delta := baseB.Position.Sub(baseA.Position)
	if delta.IsZero() {
		delta = vecmath.Vec2{X: 1, Y: 0}
	}
	unit := delta.Normalise()
	totalRadius := baseA.Radius + baseB.Radius
	if totalRadius <= 0 {
		totalRadius = 1
	}

	if a.sameDroneFamily(idA, idB) {
		// Softer push: no damage exchange between co-owned, same-family
		// drones, just a fixed half-unit positional nudge apart.
		push := unit.Scale(0.5)
		baseA.Position = baseA.Position.Sub(push)
		baseB.Position = baseB.Position.Add(push)
		return
	}

	shareA := baseB.Radius / totalRadius
	shareB := baseA.Radius / totalRadius
	baseA.Position = baseA.Position.Sub(unit.Scale(shareA))
	baseB.Position = baseB.Position.Add(unit.Scale(shareB))

	a.exchangeDamage(idA, idB, unit)
	a.exchangeDamage(idB, idA, unit.Scale(-1))
}

// exchangeDamage applies attacker's damage exertion onto victim, records
// last_damage_tick, applies an elasticity-scaled kick, and dispatches kill
// when the victim's health drops to or below zero (§4.7).
func (a *Arena) exchangeDamage(attackerID, victimID uint32, pushDir vecmath.Vec2) {
	attackerBase := a.baseOf(attackerID)
	victimBase := a.baseOf(victimID)
	if attackerBase == nil || victimBase == nil {
		return
	}
	if attackerBase.DamageExertion <= 0 {
		return
	}

	victimBase.LastDamageTick = a.Ticks
	attackerBase.LastDamageTick = a.Ticks

	a.EmitEvent(eventlog.TypeDamage, victimID, eventlog.DamagePayload{
		AttackerID: attackerID,
		VictimID:   victimID,
		Damage:     attackerBase.DamageExertion,
		VictimHP:   victimBase.Health,
	})

	elasticity := a.elasticityOf(victimID)
	kickPolarity := 1.0
	if _, isProjectile := a.Projectiles[attackerID]; isProjectile {
		// Projectiles do not re-accelerate the target they just hit.
		kickPolarity = 0
	}
	victimBase.Velocity = victimBase.Velocity.Add(pushDir.Scale(elasticity * kickPolarity))

	killed := a.applyDamage(victimID, attackerBase.DamageExertion, attackerID)
	if killed {
		a.kill(victimID, attackerID)
	}
}

func (a *Arena) elasticityOf(id uint32) float64 {
	if s, ok := a.Shapes[id]; ok {
		return s.Elasticity
	}
	if p, ok := a.Projectiles[id]; ok {
		return p.Elasticity
	}
	return 1
}

// applyDamage routes damage to the correct entity type's health pool and
// reports whether this hit is lethal.
func (a *Arena) applyDamage(victimID uint32, amount float64, attackerID uint32) bool {
	if t, ok := a.Tanks[victimID]; ok {
		return t.TakeDamage(amount, a.Ticks, attackerID)
	}
	if s, ok := a.Shapes[victimID]; ok {
		if s.Invincible || !s.Alive {
			return false
		}
		s.Health -= amount
		if s.Health <= 0 {
			s.Alive = false
			return true
		}
		return false
	}
	if p, ok := a.Projectiles[victimID]; ok {
		if !p.Alive {
			return false
		}
		p.Penetration -= amount
		if p.Penetration <= 0 {
			p.Alive = false
			return true
		}
		return false
	}
	return false
}

// kill is the single place score/ELO propagation occurs (§4.7).
func (a *Arena) kill(victimID, killerID uint32) {
	if v, ok := a.Shapes[victimID]; ok {
		if k, ok := a.Tanks[killerID]; ok {
			k.Score += v.ScoreYield()
		}
		a.MarkForDeletion(victimID)
		if v.EligibleForNecromancy() {
			if tankID, fromDrone, chainRoot, ok := a.resolveNecromancyCredit(killerID); ok {
				v.SeedNecromancy(tankID, fromDrone, chainRoot, -1)
				a.spawnNecromancerDrone(v)
			}
		}
		return
	}
	if v, ok := a.Projectiles[victimID]; ok {
		a.MarkForDeletion(victimID)
		_ = v
		return
	}
	if v, ok := a.Tanks[victimID]; ok {
		a.EmitEvent(eventlog.TypeKill, killerID, eventlog.KillPayload{
			KillerID: killerID,
			VictimID: victimID,
		})
		a.handleTankDeath(v, killerID)
	}
}
