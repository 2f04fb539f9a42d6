package entity

import "arenasrv/internal/vecmath"

// ShapeType enumerates the Shape entity's variants (§3 "Shape state").
type ShapeType uint8

const (
	ShapeSquare ShapeType = iota
	ShapeTriangle
	ShapeCrasher
	ShapePentagon
	ShapeAlphaPentagon
)

// ShinyTier scales a shape's yield and health.
type ShinyTier uint8

const (
	ShinyNormal   ShinyTier = iota
	ShinyShiny              // x10
	ShinyMythical           // x100
)

// Multiplier returns the yield/health scale for this tier.
func (s ShinyTier) Multiplier() float64 {
	switch s {
	case ShinyShiny:
		return 10
	case ShinyMythical:
		return 100
	default:
		return 1
	}
}

// CrasherAI is the Smart-class AI state crashers run (§4.6).
type CrasherAI struct {
	TargetID  uint32
	HasTarget bool
}

// NecromancyCarryover records what should happen on this shape's death
// (§3, §4.6): either a necromancer tank's reservation, or a resurrected
// projectile's owner chain.
type NecromancyCarryover struct {
	NecromancerTankID   uint32
	FromResurrectedDrone bool
	DroneOwnerChainRoot  uint32 // resolved by walking the drone's owner chain one level (§9 open question)
	ReservedTurretIndex  int
}

// Shape is the food/pentagon/crasher entity variant.
type Shape struct {
	Base

	ShapeType ShapeType
	Shiny     ShinyTier
	AI        *CrasherAI // crashers only

	Necromancy *NecromancyCarryover
}

// NewShape constructs a live shape entity.
func NewShape(id uint32, shapeType ShapeType, shiny ShinyTier, pos vecmath.Vec2, baseRadius, baseHealth float64) *Shape {
	s := &Shape{
		Base:      NewBase(id, -1, pos, baseRadius, baseHealth*shiny.Multiplier()),
		ShapeType: shapeType,
		Shiny:     shiny,
	}
	if shapeType == ShapeCrasher {
		s.AI = &CrasherAI{}
	}
	return s
}

// innerBorderMin/Max are the "inner 1/7...6/7 soft border" fractions of the
// arena size the roam path reflects at (§4.6).
const (
	innerBorderMin = 1.0 / 7.0
	innerBorderMax = 6.0 / 7.0
)

// UpdateRoam is the non-crasher roam path of §4.6: reflect velocity at the
// inner soft border.
func (s *Shape) UpdateRoam(arenaSize float64) {
	minB := arenaSize * innerBorderMin
	maxB := arenaSize * innerBorderMax
	if s.Position.X < minB || s.Position.X > maxB {
		s.Velocity.X = -s.Velocity.X
	}
	if s.Position.Y < minB || s.Position.Y > maxB {
		s.Velocity.Y = -s.Velocity.Y
	}
}

// baseScoreYield is the un-shiny score award per shape type (§4.6).
func (s *Shape) baseScoreYield() float64 {
	switch s.ShapeType {
	case ShapeSquare:
		return 10
	case ShapeTriangle:
		return 25
	case ShapeCrasher:
		return 20
	case ShapePentagon:
		return 130
	case ShapeAlphaPentagon:
		return 3000
	default:
		return 0
	}
}

// ScoreYield returns the score a killer receives for this shape's death,
// scaled by its shiny tier (§3 "Identity ... score yield").
func (s *Shape) ScoreYield() float64 {
	return s.baseScoreYield() * s.Shiny.Multiplier()
}

// EligibleForNecromancy reports whether a dying shape may seed a
// necromancer drone, per §4.6: only Squares qualify. The killer's class is
// not checked here; the arena's resolveNecromancyCredit checks it.
func (s *Shape) EligibleForNecromancy() bool {
	return s.ShapeType == ShapeSquare
}

// SeedNecromancy records the pending necromancy carryover for this shape's
// death, to be turned into a projectile construction request next tick.
func (s *Shape) SeedNecromancy(necromancerTankID uint32, fromResurrectedDrone bool, droneOwnerChainRoot uint32, reservedTurretIndex int) {
	s.Necromancy = &NecromancyCarryover{
		NecromancerTankID:    necromancerTankID,
		FromResurrectedDrone: fromResurrectedDrone,
		DroneOwnerChainRoot:  droneOwnerChainRoot,
		ReservedTurretIndex:  reservedTurretIndex,
	}
}
