package arena

import (
	"math"

	"arenasrv/internal/catalog"
	"arenasrv/internal/entity"
	"arenasrv/internal/vecmath"
	"arenasrv/internal/wire"
)

// dangerousCategories are the identity categories Smart bots keep distance
// from regardless of stat investment (§4.4 item 9).
var dangerousCategories = map[catalog.Category]bool{
	catalog.CategoryDestroyer: true,
	catalog.CategoryFactory:   true,
	catalog.CategoryDrone:     true,
}

const (
	botSafeDistance  = 400.0
	botFleeDistance  = 250.0
	botLerpRate      = 0.12
	botWaypointRange = 0.35 // fraction of arena size from current position
)

// runBotAI is §4.4 item 9: respawn countdown, then the Stupid or Smart
// policy.
func (a *Arena) runBotAI(t *entity.Tank) {
	bot := t.Privilege.Bot
	if bot == nil {
		return
	}

	if bot.RespawnTimer > 0 {
		bot.RespawnTimer--
		return
	}

	switch bot.Policy {
	case entity.BotPolicyStupid:
		a.runStupidBot(t, bot)
	case entity.BotPolicySmart:
		a.runSmartBot(t, bot)
	}
}

func (a *Arena) runStupidBot(t *entity.Tank, bot *entity.BotState) {
	if !bot.HasWaypoint || t.Position.Distance(bot.WaypointTarget) < 50 {
		a.assignWaypoint(t, bot)
	}
	a.steerToward(t, bot.WaypointTarget, botLerpRate)
	t.InputFlags = uint32(wire.InputShoot)
}

func (a *Arena) runSmartBot(t *entity.Tank, bot *entity.BotState) {
	if threatPos, threatDist, ok := a.nearestThreat(t, bot); ok && threatDist < botFleeDistance {
		away := t.Position.Sub(threatPos).Normalise()
		escapeAngle := away.Angle(nil) + entity.RandomJitterAngle(a.rng, bot.Randomness*math.Pi/4)
		target := t.Position.Add(vecmath.FromPolar(botSafeDistance, escapeAngle))
		a.steerToward(t, target, botLerpRate*1.5)
		t.InputFlags = 0
		return
	}

	if enemyPos, _, ok := a.nearestEnemy(t); ok {
		t.Mouse = enemyPos.Sub(t.Position)
		t.Angle = t.Mouse.Angle(nil)
		dist := t.Position.Distance(enemyPos)
		if dist > botSafeDistance {
			a.steerToward(t, enemyPos, botLerpRate)
		}
		t.InputFlags = uint32(wire.InputShoot)
		return
	}

	if !bot.HasWaypoint || t.Position.Distance(bot.WaypointTarget) < 50 {
		a.assignWaypoint(t, bot)
	}
	a.steerToward(t, bot.WaypointTarget, botLerpRate)
	t.InputFlags = 0
}

func (a *Arena) assignWaypoint(t *entity.Tank, bot *entity.BotState) {
	size := a.Config.ArenaSize
	radius := size * botWaypointRange
	angle := a.rng.Float64() * 2 * math.Pi
	target := t.Position.Add(vecmath.FromPolar(radius, angle))
	target.X = clampFloat(target.X, 0, size)
	target.Y = clampFloat(target.Y, 0, size)
	bot.WaypointTarget = target
	bot.HasWaypoint = true
}

// steerToward lerps the tank's facing angle toward target at rate, and
// drives it forward by adding a MovementSpeed-sized thrust along that
// angle directly to its velocity (no movement input flags are set).
func (a *Arena) steerToward(t *entity.Tank, target vecmath.Vec2, rate float64) {
	desired := target.Sub(t.Position).Angle(nil)
	t.Angle = lerpAngle(t.Angle, desired, rate)
	t.Mouse = vecmath.FromPolar(100, t.Angle)
	forward := vecmath.FromPolar(t.DerivedStats.MovementSpeed, t.Angle)
	t.Velocity = t.Velocity.Add(forward)
}

func lerpAngle(from, to, rate float64) float64 {
	diff := vecmath.NormalizeAngle(to - from)
	return vecmath.NormalizeAngle(from + diff*rate)
}

func clampFloat(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// nearestThreat finds the closest dangerous-category tank or live
// projectile within the bot's surroundings.
func (a *Arena) nearestThreat(t *entity.Tank, bot *entity.BotState) (vecmath.Vec2, float64, bool) {
	bestDist := math.MaxFloat64
	var bestPos vecmath.Vec2
	found := false

	for _, id := range t.Surroundings {
		if other, ok := a.Tanks[id]; ok && other.Alive && other.ClanSlot != t.ClanSlot {
			ident := catalog.Lookup(other.IdentityID)
			strongStats := false
			for _, s := range other.Stats {
				if s >= 6 {
					strongStats = true
					break
				}
			}
			if ident != nil && (dangerousCategories[ident.Category] || strongStats) {
				d := t.Position.Distance(other.Position)
				if d < bestDist {
					bestDist, bestPos, found = d, other.Position, true
				}
			}
			continue
		}
		if p, ok := a.Projectiles[id]; ok && p.Alive && !hasOwnerID(p.OwnedBy, t.ID) {
			d := t.Position.Distance(p.Position)
			if d < bestDist {
				bestDist, bestPos, found = d, p.Position, true
			}
		}
	}
	return bestPos, bestDist, found
}

// nearestEnemy finds the closest living enemy tank in surroundings.
func (a *Arena) nearestEnemy(t *entity.Tank) (vecmath.Vec2, uint32, bool) {
	bestDist := math.MaxFloat64
	var bestPos vecmath.Vec2
	var bestID uint32
	found := false
	for _, id := range t.Surroundings {
		other, ok := a.Tanks[id]
		if !ok || !other.Alive || other.ClanSlot == t.ClanSlot {
			continue
		}
		d := t.Position.Distance(other.Position)
		if d < bestDist {
			bestDist, bestPos, bestID, found = d, other.Position, id, true
		}
	}
	return bestPos, bestID, found
}
