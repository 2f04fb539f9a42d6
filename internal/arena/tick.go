package arena

import (
	"arenasrv/internal/catalog"
	"arenasrv/internal/entity"
	"arenasrv/internal/eventlog"
	"arenasrv/internal/rating"
	"arenasrv/internal/vecmath"
	"arenasrv/internal/wire"
)

const (
	readyTimeoutSeconds      = 30
	forcedReadySeconds       = 120
	lastManStandingDelay     = 30 // seconds from arena creation/last round to NotAccepting
	clanLeaveGraceSeconds    = 5
	botRespawnMinSeconds     = 5
	botRespawnMaxSeconds     = 20

	// railgunReleaseSpeed is the muzzle speed a released railgun shot gets,
	// matching the Speed:200 every other turret's fireTurret request uses;
	// only the charge-grown radius/damage/penetration/recoil scale with
	// charge (§8 scenario 2).
	railgunReleaseSpeed = 200
)

// pendingSpawn is a projectile construction request queued during tick N
// and realized at the start of tick N+1 (§5 ordering guarantee (iii)).
type pendingSpawn struct {
	req entity.ProjectileSpawnRequest
}

// Tick advances the arena by exactly one simulation step, running the
// ten-phase ordered pipeline of §4.8.
func (a *Arena) Tick() {
	a.Ticks++
	dt := 1.0 / float64(maxInt1(a.Config.TicksPerSecond, 1))

	a.runBotCountSchedule()
	a.advanceStateMachine()

	pending := a.tickEntities(dt)

	a.drainRankedOutcomes()

	a.realizeProjectileSpawns(pending)

	a.drainDeletions()

	a.clanHousekeeping()

	a.ResolveCollisions()

	a.populateShapes()
	a.populateBots()
}

func maxInt1(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// rankedOutcome is what a tank's per-tick processing reports when a ranked
// round concludes this tick (§4.8 item 3).
type rankedOutcome struct {
	winnerUID, loserUID           string
	winnerCategory, loserCategory int
}

// tickEntities is §4.8 item 3: per-entity tick in (map) insertion order.
// Go map iteration is unordered, but the simulation has no cross-entity
// ordering dependency within a single tick pass other than what collision
// resolution (run afterward) already serializes.
func (a *Arena) tickEntities(dt float64) []pendingSpawn {
	a.pendingRanked = a.pendingRanked[:0]
	var spawns []pendingSpawn
	tc := a.TickConfig()

	for id, t := range a.Tanks {
		if !t.Alive {
			// Tombstone for exactly one tick to deliver the death packet,
			// then queue for deletion (§4.8 item 3).
			a.MarkForDeletion(id)
			continue
		}
		a.tickTank(t, tc, dt, &spawns)
	}

	for id, s := range a.Shapes {
		if !s.Alive {
			a.MarkForDeletion(id)
			continue
		}
		a.tickShape(s, tc, dt)
	}

	for id, p := range a.Projectiles {
		p.Base.Tick(a.Grid, tc, dt)
		a.tickProjectile(p, &spawns)
		if p.IsExpired() {
			a.MarkForDeletion(id)
		}
	}

	return spawns
}

func (a *Arena) tickTank(t *entity.Tank, tc entity.TickConfig, dt float64, spawns *[]pendingSpawn) {
	ident := catalog.Lookup(t.IdentityID)
	if ident == nil {
		return
	}

	if a.Config.GameMode == ModeRanked {
		a.gateRankedTank(t)
	}

	t.Base.Tick(a.Grid, tc, dt)

	t.RecomputeDerivedStats(ident)
	t.UpdateLeveling(20)
	t.UpdateTurrets(a.rng, manualFireFor(t), a.findTurretTarget(t))
	a.resolveRailgunRelease(t)
	t.UpdateOpacity(ident, manualFireFor(t))
	t.UpdateVisibility(a.Grid, a.PositionOf)
	t.ExpireMessages(a.Ticks)

	if t.Privilege.Kind == entity.PrivilegeBot {
		a.runBotAI(t)
	}

	for _, req := range t.PendingSpawns {
		*spawns = append(*spawns, pendingSpawn{req: req})
	}
	t.PendingSpawns = nil
}

func manualFireFor(t *entity.Tank) bool {
	return wire.InputShoot.Has(t.InputFlags)
}

func (a *Arena) tickShape(s *entity.Shape, tc entity.TickConfig, dt float64) {
	s.Base.Tick(a.Grid, tc, dt)
	if s.ShapeType != entity.ShapeCrasher {
		s.UpdateRoam(a.Config.ArenaSize)
	}
	if s.MaxHealth > 0 {
		s.Health += s.MaxHealth / 25000
		if s.Health > s.MaxHealth {
			s.Health = s.MaxHealth
		}
	}
}

func (a *Arena) tickProjectile(p *entity.Projectile, spawns *[]pendingSpawn) {
	if len(p.OwnedBy) > 0 {
		p.UpdateOwnerClan(a.ClanOf(p.OwnedBy[0]))
	}
	if p.IsAIDriven() {
		ownerID := uint32(0)
		var ownerPos, ownerMouse vecmath.Vec2
		ownerRadius := 20.0
		possessed := false
		if len(p.OwnedBy) > 0 {
			ownerID = p.OwnedBy[0]
			if owner, ok := a.Tanks[ownerID]; ok {
				ownerPos = owner.Position
				ownerMouse = owner.Mouse
				ownerRadius = owner.Radius
				possessed = manualFireFor(owner)
			}
		}
		p.UpdateAI(possessed, ownerMouse, ownerPos, ownerRadius, false, a.findDroneTarget(p, ownerID))
	} else {
		p.UpdateBallistic(a.Config.ArenaSize)
	}
}

// findTurretTarget returns an auto-turret target resolver bound to t.
func (a *Arena) findTurretTarget(t *entity.Tank) func(from vecmath.Vec2, rangeLimit float64) (vecmath.Vec2, uint32, bool) {
	return func(from vecmath.Vec2, rangeLimit float64) (vecmath.Vec2, uint32, bool) {
		var bestID uint32
		var best vecmath.Vec2
		bestDist := -1.0
		found := false
		for _, id := range t.Surroundings {
			if id == t.ID {
				continue
			}
			other, ok := a.Tanks[id]
			if !ok || !other.Alive || other.ClanSlot == t.ClanSlot {
				continue
			}
			d := from.Distance(other.Position)
			if d > rangeLimit {
				continue
			}
			if !found || d < bestDist {
				found, bestDist, bestID, best = true, d, id, other.Position
			}
		}
		return best, bestID, found
	}
}

// findDroneTarget returns the nearest eligible target for an AI-driven
// projectile excluding self-owned entities, within a 1000-unit FoV box
// (§4.5).
func (a *Arena) findDroneTarget(p *entity.Projectile, ownerID uint32) func() (vecmath.Vec2, uint32, bool) {
	return func() (vecmath.Vec2, uint32, bool) {
		owner, ok := a.Tanks[ownerID]
		if !ok {
			return vecmath.Vec2{}, 0, false
		}
		const fovBox = 1000.0
		var bestID uint32
		var bestPos vecmath.Vec2
		bestDist := -1.0
		found := false
		for _, id := range owner.Surroundings {
			if id == p.ID || id == ownerID || hasOwnerID(p.OwnedBy, id) {
				continue
			}
			other := a.baseOf(id)
			if other == nil || !other.Alive {
				continue
			}
			if other.ClanSlot >= 0 && other.ClanSlot == owner.ClanSlot {
				continue
			}
			d := p.Position.Distance(other.Position)
			if d > fovBox {
				continue
			}
			if !found || d < bestDist {
				found, bestDist, bestID, bestPos = true, d, id, other.Position
			}
		}
		return bestPos, bestID, found
	}
}

func hasOwnerID(list []uint32, id uint32) bool {
	for _, v := range list {
		if v == id {
			return true
		}
	}
	return false
}

// gateRankedTank is §4.4 item 1.
func (a *Arena) gateRankedTank(t *entity.Tank) {
	if a.Ticks == t.RankedStartTick {
		t.InRanked = true
	}
	if !t.InRanked {
		return
	}
	ticksPerSecond := a.Config.TicksPerSecond
	sinceSpawn := a.Ticks - t.SpawningTick
	if sinceSpawn == uint64(readyTimeoutSeconds*ticksPerSecond) && !t.Ready {
		// notification hook: ready-timeout warning staged by the packet layer
	}
	if sinceSpawn >= uint64(forcedReadySeconds*ticksPerSecond) {
		t.Ready = true
	}
}

func (a *Arena) drainRankedOutcomes() {
	for _, outcome := range a.pendingRanked {
		ladder := a.ladderFor(outcome.winnerCategory)
		winnerRating, ok := ladder.Get(outcome.winnerUID)
		if !ok {
			winnerRating = rating.NewRating()
		}
		loserRating, ok := ladder.Get(outcome.loserUID)
		if !ok {
			loserRating = rating.NewRating()
		}
		newWinner := rating.Update(winnerRating, loserRating, rating.Win)
		newLoser := rating.Update(loserRating, winnerRating, rating.Loss)
		ladder.Upsert(outcome.winnerUID, newWinner)
		ladder.Upsert(outcome.loserUID, newLoser)

		a.EmitEvent(eventlog.TypeRankedMatchEnd, 0, eventlog.RankedMatchEndPayload{
			WinnerUID: outcome.winnerUID,
			LoserUID:  outcome.loserUID,
			WinnerElo: newWinner.Value,
			LoserElo:  newLoser.Value,
		})
	}
}

func (a *Arena) realizeProjectileSpawns(pending []pendingSpawn) {
	for _, ps := range pending {
		id := a.NextEntityID()
		lifetime := uint64(a.Config.TicksPerSecond * 3)
		p := entity.NewProjectile(id, ps.req, lifetime)
		if owner := a.baseOf(ps.req.OwnerID); owner != nil {
			entity.AddOwned(owner, &p.Base)
		}
		if ps.req.Kind == catalog.ProjectileRailgun {
			if owner, ok := a.Tanks[ps.req.OwnerID]; ok && ps.req.TurretIndex < len(owner.Turrets) {
				if rg := owner.Turrets[ps.req.TurretIndex].Railgun; rg != nil {
					rg.Pinned = id
				}
			}
		}
		a.Projectiles[id] = p
		a.Grid.Insert(id, p.Position, p.Radius)
	}
}

// resolveRailgunRelease is the release half of RailgunState's charge
// sub-machine: once HasShot flips true, the pinned projectile gets its
// charge-grown radius, damage, and penetration, the firing tank takes its
// recoil kick, and the turret frees up to pin a fresh charge (§4.5
// "Railgun sub-machine", §8 scenario 2).
func (a *Arena) resolveRailgunRelease(t *entity.Tank) {
	for i := range t.Turrets {
		ts := &t.Turrets[i]
		rg := ts.Railgun
		if rg == nil || !rg.HasShot {
			continue
		}
		if p, ok := a.Projectiles[rg.Pinned]; ok {
			radius := entity.RailgunRadius(p.Radius, rg.Charges, rg.MaxCharges)
			angle := p.Angle
			p.Radius = radius
			p.DamageExertion = entity.RailgunDamageForRadius(radius)
			p.Penetration = entity.RailgunPenetrationForRadius(radius)
			p.Velocity = vecmath.FromPolar(railgunReleaseSpeed, angle)
			t.Velocity = t.Velocity.Add(entity.RailgunRecoilVelocity(radius, angle))
		}
		rg.Pinned = 0
		rg.Charges = 0
		rg.HasShot = false
	}
}

func (a *Arena) drainDeletions() {
	for id := range a.deletionSet {
		a.deleteEntityTransitively(id)
	}
	a.deletionSet = make(map[uint32]bool)
}

// deleteEntityTransitively removes id and recursively deletes everything it
// owns (§4.8 item 6).
func (a *Arena) deleteEntityTransitively(id uint32) {
	base := a.baseOf(id)
	if base == nil {
		return
	}
	owned := append([]uint32(nil), base.OwnedEntities...)
	for _, childID := range owned {
		a.deleteEntityTransitively(childID)
	}
	for _, ownerID := range append([]uint32(nil), base.OwnedBy...) {
		if ownerBase := a.baseOf(ownerID); ownerBase != nil {
			entity.RemoveOwned(ownerBase, base)
		}
	}
	delete(a.Tanks, id)
	delete(a.Shapes, id)
	delete(a.Projectiles, id)
	a.Grid.Delete(id)
}

// clanHousekeeping is §4.8 item 7.
func (a *Arena) clanHousekeeping() {
	ticksPerSecond := a.Config.TicksPerSecond
	for slot, clan := range a.Clans {
		if clan == nil {
			continue
		}
		for _, memberID := range append([]uint32(nil), clan.Members...) {
			t, ok := a.Tanks[memberID]
			if !ok {
				empty, newOwner, changed := clan.RemoveMember(memberID)
				a.finishClanMemberRemoval(slot, clan, empty, newOwner, changed)
				continue
			}
			if t.ClanLeaving && a.Ticks-t.ClanLeaveTick >= uint64(clanLeaveGraceSeconds*ticksPerSecond) {
				t.ClanSlot = -1
				empty, newOwner, changed := clan.RemoveMember(memberID)
				a.finishClanMemberRemoval(slot, clan, empty, newOwner, changed)
			}
		}
		if clan.IsEmpty() {
			a.Clans[slot] = nil
		}
	}
}

func (a *Arena) finishClanMemberRemoval(slot int, clan *entity.Clan, empty bool, newOwner uint32, changed bool) {
	if empty {
		a.Clans[slot] = nil
		return
	}
	if changed {
		// notification hook: ownership transferred to newOwner
		_ = newOwner
	}
}

func (a *Arena) runBotCountSchedule() {
	const everyNTicks = 5 * 60 * 25 // 5 minutes at 25 tps, recomputed lazily below
	if a.Config.TicksPerSecond > 0 {
		interval := uint64(5 * 60 * a.Config.TicksPerSecond)
		if interval == 0 {
			interval = everyNTicks
		}
		if a.Ticks%interval != 0 {
			return
		}
	}
	// target bot count is read directly from config; nothing to recompute
	// beyond what populateBots already consults each tick.
}

func (a *Arena) advanceStateMachine() {
	switch a.Config.GameMode {
	case ModeLastManStanding:
		if a.State == StateOpen && a.lastManStandingTimer <= 0 {
			a.lastManStandingTimer = lastManStandingDelay * a.Config.TicksPerSecond
		}
		if a.lastManStandingTimer > 0 {
			a.lastManStandingTimer--
			if a.lastManStandingTimer == 0 {
				a.State = StateNotAccepting
			}
		}
	case ModeRanked:
		a.advanceRankedState()
		a.matchmakeRanked()
		a.advanceRankedMatches()
	}
}

// rankedIdleCloseDelay is how long (seconds) a Ranked arena may sit with no
// queued players, no in-flight matches, and no connected tanks before it
// starts winding down (§4.8 item 2's {Open, NotAccepting, TimeoutClosing,
// Closing, Closed} state machine), mirrored off lastManStandingDelay's
// creation-to-NotAccepting timer.
const rankedIdleCloseDelay = lastManStandingDelay

// advanceRankedState is the arena-level half of §4.8 item 2's Ranked state
// machine. It is independent of individual match lifecycles
// (advanceRankedMatches): an arena only leaves Open once it has gone idle,
// then winds through TimeoutClosing/Closing using the same
// timeoutClosingTicks/closingTicks windows a single match uses, since both
// describe the same documented ranked timing windows at different scopes.
func (a *Arena) advanceRankedState() {
	switch a.State {
	case StateOpen:
		if a.rankedArenaIdle() {
			a.rankedIdleTicks++
			if a.rankedIdleTicks >= uint64(rankedIdleCloseDelay*a.Config.TicksPerSecond) {
				a.State = StateNotAccepting
				a.rankedIdleTicks = 0
			}
		} else {
			a.rankedIdleTicks = 0
		}
	case StateNotAccepting:
		a.State = StateTimeoutClosing
		a.rankedStateTimer = timeoutClosingTicks
	case StateTimeoutClosing:
		a.rankedStateTimer--
		if a.rankedStateTimer <= 0 {
			a.State = StateClosing
			a.rankedStateTimer = closingTicks
		}
	case StateClosing:
		a.rankedStateTimer--
		if a.rankedStateTimer <= 0 {
			a.State = StateClosed
		}
	}
}

func (a *Arena) rankedArenaIdle() bool {
	return a.Ranked == nil || (len(a.Ranked.Queue) == 0 && len(a.Ranked.Matches) == 0 && len(a.Tanks) == 0)
}

// advanceRankedMatches ticks every in-flight match's own matchState (set in
// motion by Arena.closeMatch once a round is decided or forfeited) through
// matchClosing -> matchTimeoutClosing -> matchTorndown, pruning torn-down
// matches once their teardownTicks grace period elapses. A match parked at
// matchActive is left untouched here; only closeMatch moves it off Active.
func (a *Arena) advanceRankedMatches() {
	if a.Ranked == nil {
		return
	}
	alive := a.Ranked.Matches[:0]
	for _, m := range a.Ranked.Matches {
		switch m.State {
		case matchClosing, matchTimeoutClosing, matchTorndown:
			m.Timer--
			if m.Timer <= 0 {
				switch m.State {
				case matchClosing:
					m.State = matchTimeoutClosing
					m.Timer = timeoutClosingTicks
				case matchTimeoutClosing:
					m.State = matchTorndown
					m.Timer = teardownTicks
				}
			}
		}
		if m.State == matchTorndown && m.Timer <= 0 {
			continue // fully torn down: drop from the live match list
		}
		alive = append(alive, m)
	}
	a.Ranked.Matches = alive
}

