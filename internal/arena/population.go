package arena

import (
	"math"

	"arenasrv/internal/catalog"
	"arenasrv/internal/entity"
	"arenasrv/internal/vecmath"
)

// handleTankDeath is §4.4 item 2: ranked deaths award a round, FFA/Sandbox
// deaths clear owned entities into the deletion set.
func (a *Arena) handleTankDeath(t *entity.Tank, killerID uint32) {
	for _, ownedID := range t.OwnedEntities {
		a.MarkForDeletion(ownedID)
	}

	if a.Config.GameMode == ModeRanked && t.InRanked {
		opponent, ok := a.Tanks[t.OpponentID]
		if ok {
			decided := recordRoundLoss(t)
			a.resetRankedTank(t)
			a.resetRankedTank(opponent)
			if decided {
				a.pendingRanked = append(a.pendingRanked, rankedOutcome{
					winnerUID:      opponent.UserID,
					loserUID:       t.UserID,
					winnerCategory: categoryForIdentity(opponent.IdentityID),
					loserCategory:  categoryForIdentity(t.IdentityID),
				})
				a.closeMatch(t.ID, opponent.ID)
				t.InRanked = false
				opponent.InRanked = false
			}
		}
	}
}

func (a *Arena) resetRankedTank(t *entity.Tank) {
	spawnPos := vecmath.Vec2{X: a.Config.ArenaSize / 2, Y: a.Config.ArenaSize / 2}
	t.Respawn(t.ID, t.IdentityID, spawnPos)
}

func categoryForIdentity(identityID int) int {
	ident := catalog.Lookup(identityID)
	if ident == nil {
		return 0
	}
	return int(ident.Category)
}

// resolveNecromancyCredit is §4.6's two necromancy triggers: a direct kill
// by a Necromancer-category tank, or a kill by one of that tank's own
// resurrected drones. The drone case walks the owner chain one level back
// to the tank that owns the drone (§9 open question: the chain never nests
// more than one level deep, since every resurrected drone is AddOwned
// directly onto the Necromancer tank that spawned it).
func (a *Arena) resolveNecromancyCredit(killerID uint32) (tankID uint32, fromResurrectedDrone bool, chainRoot uint32, ok bool) {
	if k, isTank := a.Tanks[killerID]; isTank {
		if ident := catalog.Lookup(k.IdentityID); ident != nil && ident.Category == catalog.CategoryNecromancer {
			return k.ID, false, 0, true
		}
		return 0, false, 0, false
	}
	p, isProjectile := a.Projectiles[killerID]
	if !isProjectile || p.Kind != catalog.ProjectileNecromancerDrone || !p.Resurrected || len(p.OwnedBy) == 0 {
		return 0, false, 0, false
	}
	root := p.OwnedBy[0]
	k, isTank := a.Tanks[root]
	if !isTank {
		return 0, false, 0, false
	}
	if ident := catalog.Lookup(k.IdentityID); ident == nil || ident.Category != catalog.CategoryNecromancer {
		return 0, false, 0, false
	}
	return k.ID, true, root, true
}

// spawnNecromancerDrone queues the projectile construction request recorded
// by SeedNecromancy for a square killed by a Necromancer tank or a
// resurrected drone (§4.6).
func (a *Arena) spawnNecromancerDrone(s *entity.Shape) {
	carry := s.Necromancy
	if carry == nil {
		return
	}
	killer, ok := a.Tanks[carry.NecromancerTankID]
	if !ok {
		return
	}
	turretIdx := -1
	for i, ts := range killer.Turrets {
		if ts.Spec.Projectile == catalog.ProjectileNecromancerDrone &&
			(ts.Spec.MaxProjectiles < 0 || ts.ProjectileCount < ts.Spec.MaxProjectiles) {
			turretIdx = i
			break
		}
	}
	if turretIdx < 0 {
		return
	}
	spec := killer.Turrets[turretIdx].Spec
	killer.PendingSpawns = append(killer.PendingSpawns, entity.ProjectileSpawnRequest{
		OwnerID:     killer.ID,
		TurretIndex: turretIdx,
		Spec:        spec,
		Position:    s.Position,
		Angle:       killer.Angle,
		Speed:       0,
		Damage:      killer.DerivedStats.DamageExertion,
		Kind:        catalog.ProjectileNecromancerDrone,
	})
	killer.Turrets[turretIdx].ProjectileCount++
}

// populateShapes is §4.8 item 9.
func (a *Arena) populateShapes() {
	actual := len(a.Shapes)
	wanted := a.Config.WantedShapeCount

	if (a.Config.GameMode == ModeSandbox || a.Config.GameMode == ModeLastManStanding) && actual > wanted {
		excess := actual - wanted
		for id := range a.Shapes {
			if excess <= 0 {
				break
			}
			a.MarkForDeletion(id)
			excess--
		}
		return
	}

	for i := 0; i < wanted-actual; i++ {
		a.spawnShape()
	}
}

// spawnShape places one new shape using the region-weighted distribution of
// §4.6: a central square biases Pentagon/Alpha-Pentagon, an annular region
// biases Crasher, and the remainder biases Square/Triangle.
func (a *Arena) spawnShape() {
	size := a.Config.ArenaSize
	center := vecmath.Vec2{X: size / 2, Y: size / 2}
	pos := vecmath.Vec2{X: a.rng.Float64() * size, Y: a.rng.Float64() * size}
	dist := pos.Distance(center)

	const centralRadius = 0.12
	const annulusInner = 0.12
	const annulusOuter = 0.35

	var shapeType entity.ShapeType
	frac := dist / (size / 2)
	switch {
	case frac <= centralRadius:
		if a.rng.Float64() < 0.15 {
			shapeType = entity.ShapeAlphaPentagon
		} else {
			shapeType = entity.ShapePentagon
		}
	case frac > annulusInner && frac <= annulusOuter:
		shapeType = entity.ShapeCrasher
	default:
		if a.rng.Float64() < 0.5 {
			shapeType = entity.ShapeSquare
		} else {
			shapeType = entity.ShapeTriangle
		}
	}

	shiny := entity.ShinyNormal
	switch {
	case a.rng.Float64() < 0.0001:
		shiny = entity.ShinyMythical
	case a.rng.Float64() < 0.01:
		shiny = entity.ShinyShiny
	}

	baseRadius, baseHealth := shapeStats(shapeType)
	id := a.NextEntityID()
	s := entity.NewShape(id, shapeType, shiny, pos, baseRadius, baseHealth)
	if shapeType == entity.ShapeAlphaPentagon {
		const minSpeed = 2.0
		angle := a.rng.Float64() * 2 * math.Pi
		s.Velocity = vecmath.FromPolar(minSpeed, angle)
	}
	a.Shapes[id] = s
	a.Grid.Insert(id, s.Position, s.Radius)
}

func shapeStats(t entity.ShapeType) (radius, health float64) {
	switch t {
	case entity.ShapeSquare:
		return 35, 65
	case entity.ShapeTriangle:
		return 45, 90
	case entity.ShapeCrasher:
		return 40, 110
	case entity.ShapePentagon:
		return 75, 1400
	case entity.ShapeAlphaPentagon:
		return 140, 2200
	default:
		return 35, 65
	}
}

// excludedLadderCategories are the categories the level-15/30/45 bot
// identity ladder never draws from (§4.8 item 10).
var excludedLadderCategories = map[catalog.Category]bool{
	catalog.CategoryDestroyer: true,
	catalog.CategoryDrone:     true,
	catalog.CategoryFactory:   true,
	catalog.CategoryIllegal:   true,
	catalog.CategoryFighter:   true,
}

// populateBots is §4.8 item 10.
func (a *Arena) populateBots() {
	target := a.Config.BotCount
	actual := 0
	for _, t := range a.Tanks {
		if t.Privilege.Kind == entity.PrivilegeBot {
			actual++
		}
	}

	if actual > target {
		excess := actual - target
		for id, t := range a.Tanks {
			if excess <= 0 {
				break
			}
			if t.Privilege.Kind == entity.PrivilegeBot {
				a.MarkForDeletion(id)
				excess--
			}
		}
		return
	}

	for i := 0; i < target-actual; i++ {
		a.spawnBot()
	}
}

func (a *Arena) spawnBot() {
	ladder := a.randomIdentityLadder()
	policy := entity.BotPolicyStupid
	if a.rng.Float64() < 0.6 {
		policy = entity.BotPolicySmart
	}
	priv := entity.NewBotPrivilege(policy, ladder, a.rng.Float64())

	id := a.NextEntityID()
	size := a.Config.ArenaSize
	pos := vecmath.Vec2{X: a.rng.Float64() * size, Y: a.rng.Float64() * size}
	t := entity.NewTank(id, ladder[0], "Bot", pos, priv)
	a.Tanks[id] = t
	a.Grid.Insert(id, t.Position, t.Radius)
}

// randomIdentityLadder picks three identities gated by level 15/30/45
// (approximated via identity.LevelRequirement) excluding the banned
// categories, falling back to Basic when the catalog has too few
// candidates at a given tier.
func (a *Arena) randomIdentityLadder() [3]int {
	tiers := [3]int{15, 30, 45}
	var ladder [3]int
	for i, tier := range tiers {
		candidates := candidatesAtTier(tier)
		if len(candidates) == 0 {
			ladder[i] = catalog.Basic.ID
			continue
		}
		ladder[i] = candidates[a.rng.Intn(len(candidates))]
	}
	return ladder
}

func candidatesAtTier(tier int) []int {
	var out []int
	for _, ident := range catalog.All() {
		if excludedLadderCategories[ident.Category] {
			continue
		}
		if ident.LevelRequirement >= tier-5 && ident.LevelRequirement <= tier {
			out = append(out, ident.ID)
		}
	}
	return out
}
