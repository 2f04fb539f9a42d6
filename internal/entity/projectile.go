package entity

import (
	"math"

	"arenasrv/internal/catalog"
	"arenasrv/internal/vecmath"
)

// ProjectileAI is the optional AI state for drone/minion/necromancer-drone
// projectiles (§3 "Projectile state (extra)").
type ProjectileAI struct {
	Possessed  bool // owner is pressing shoot/repel: aim follows owner's mouse directly
	TargetID   uint32
	HasTarget  bool
	OrbitAngle float64
}

// Projectile is the bullet/trap/drone/minion/railgun entity variant.
type Projectile struct {
	Base

	Kind catalog.ProjectileKind
	AI   *ProjectileAI

	Penetration      float64
	Elasticity       float64
	FrictionFactor   float64
	LifetimeTicks    uint64
	PassThroughWalls bool
	PreventAI        bool
	Resurrected      bool

	ScoreAccumulator float64
	KilledPlayerName string

	TurretIndex   int
	TurretSublevel int

	MinionSubTurret *TurretState

	Railgun *RailgunState
}

// NewProjectile constructs a live projectile from a spawn request.
func NewProjectile(id uint32, req ProjectileSpawnRequest, lifetimeTicks uint64) *Projectile {
	radius := 6.0
	if req.Spec != nil {
		radius = req.Spec.SizeFactor
		if radius <= 0 {
			radius = 6
		}
	}
	p := &Projectile{
		Base:          NewBase(id, 0, req.Position, radius, 1),
		Kind:          req.Kind,
		Penetration:   req.Penetration,
		LifetimeTicks: lifetimeTicks,
		TurretIndex:   req.TurretIndex,
		Elasticity:    1,
	}
	p.DamageExertion = req.Damage
	p.Health = 1
	p.MaxHealth = 1
	p.Velocity = vecmath.FromPolar(req.Speed, req.Angle)
	p.Angle = req.Angle

	switch req.Kind {
	case catalog.ProjectileDrone, catalog.ProjectileMinion:
		p.AI = &ProjectileAI{}
		p.Health = 9999
		p.MaxHealth = 9999
	case catalog.ProjectileNecromancerDrone:
		// Every necromancer drone is resurrected from a dead Square; the
		// turret slot that builds these requests is Reserved and never
		// fires through the ordinary cycle (§4.6).
		p.AI = &ProjectileAI{}
		p.Health = 9999
		p.MaxHealth = 9999
		p.Resurrected = true
	case catalog.ProjectileTrap:
		p.FrictionFactor = 0.96
	case catalog.ProjectileRailgun:
		p.Railgun = &RailgunState{MaxCharges: 5}
		p.Velocity = vecmath.Vec2{}
	}
	if req.Nested != nil {
		p.MinionSubTurret = &TurretState{Spec: req.Nested}
	}
	return p
}

// IsAIDriven reports whether this projectile runs the AI control path of
// §4.5 rather than pure ballistics.
func (p *Projectile) IsAIDriven() bool {
	return p.AI != nil
}

// UpdateOwnerClan sets the projectile's clan to its first live owner's clan
// (§4.5 "Ownership propagation").
func (p *Projectile) UpdateOwnerClan(ownerClan int) {
	p.ClanSlot = ownerClan
}

// clampOwnedByIndex is the fix for the documented off-by-one in the
// original AI-influence loop (§9 open question: "iterates
// 0..=owned_by.len() inclusive ... clamp to 0..owned_by.len()"). Call
// before indexing p.OwnedBy by a computed cursor.
func clampOwnedByIndex(i, length int) int {
	if length == 0 {
		return 0
	}
	if i >= length {
		return length - 1
	}
	if i < 0 {
		return 0
	}
	return i
}

// UpdateAI is the AI-driven control path of §4.5. possessed is true when
// any owner is pressing shoot/repel; ownerMouse/ownerPos/ownerRadius
// describe the possessing owner. findTarget resolves the nearest eligible
// target (excluding self-owned entities) within the drone's FoV box.
func (p *Projectile) UpdateAI(possessed bool, ownerMouse, ownerPos vecmath.Vec2, ownerRadius float64, repelled bool, findTarget func() (vecmath.Vec2, uint32, bool)) {
	if p.AI == nil {
		return
	}
	p.AI.Possessed = possessed

	if possessed {
		aimAngle := ownerMouse.Sub(p.Position).Angle(nil)
		if repelled {
			aimAngle += math.Pi
		}
		p.Angle = aimAngle
		p.Velocity = vecmath.FromPolar(p.Speed(), aimAngle)
		return
	}

	if findTarget != nil {
		if pos, id, ok := findTarget(); ok {
			p.AI.HasTarget = true
			p.AI.TargetID = id
			lead := pos.Sub(p.Position)
			p.Angle = lead.Angle(nil)
			p.Velocity = vecmath.FromPolar(p.Speed(), p.Angle)
			return
		}
	}

	p.AI.HasTarget = false
	orbitRadius := 4 * ownerRadius
	p.AI.OrbitAngle += 0.03 * (1 + p.Position.Distance(ownerPos)/orbitRadius)
	target := ownerPos.Add(vecmath.FromPolar(orbitRadius, p.AI.OrbitAngle))
	dir := target.Sub(p.Position).Normalise()
	p.Velocity = dir.Scale(p.Speed())
}

// Speed returns the projectile's current scalar speed.
func (p *Projectile) Speed() float64 {
	return p.Velocity.Magnitude()
}

// UpdateBallistic is the non-AI control path of §4.5: unchanged position
// integration (handled by Base.Tick), trap friction decay, and bounds
// clamping unless pass-through.
func (p *Projectile) UpdateBallistic(arenaSize float64) {
	if p.Kind == catalog.ProjectileTrap && p.FrictionFactor > 0 {
		p.Velocity = p.Velocity.Scale(p.FrictionFactor)
	}
	if p.PassThroughWalls {
		return
	}
	if p.Position.X < 0 {
		p.Position.X = 0
	}
	if p.Position.X > arenaSize {
		p.Position.X = arenaSize
	}
	if p.Position.Y < 0 {
		p.Position.Y = 0
	}
	if p.Position.Y > arenaSize {
		p.Position.Y = arenaSize
	}
}

// IsExpired is §4.5 "Lifetime": dies when ticks > lifetime, health < 0, or
// not alive.
func (p *Projectile) IsExpired() bool {
	return p.Ticks > p.LifetimeTicks || p.Health < 0 || !p.Alive
}
