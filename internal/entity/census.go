package entity

import "arenasrv/internal/wire"

// noClanSlot is the sentinel CensusClan payload for an entity with no
// clan: any value outside the valid 0..maxClanSlots-1 range works, since
// the client only checks membership, not the exact number.
const noClanSlot = 64

func writeClanSlot(s *wire.Stream, slot int) {
	if slot >= 0 {
		s.WriteU8(uint8(slot))
		return
	}
	s.WriteU8(noClanSlot)
}

func boolByte(v bool) uint8 {
	if v {
		return 1
	}
	return 0
}

// tankCensusPropertyCount is the number of CensusProperty entries a tank's
// census always includes (§4.10).
const tankCensusPropertyCount = 18

// TakeCensus writes this tank's observable snapshot onto s, in
// CensusProperty order. self distinguishes the view a tank has of itself
// from what every other connection sees of it: others receive a
// zero-length census once the tank is dead or fully faded out, while a
// tank always gets its own full census so it can render its own death
// screen and stay visible to itself while cloaked.
func (t *Tank) TakeCensus(s *wire.Stream, self bool) {
	if !self && (!t.Alive || t.Opacity <= 0) {
		s.WriteU8(0)
		return
	}

	s.WriteU8(tankCensusPropertyCount)
	for prop := 0; prop < wire.CensusPropertyCount; prop++ {
		property := wire.CensusProperty(prop)
		s.WriteU8(uint8(property))

		switch property {
		case wire.CensusPosition:
			s.WriteF32(float32(t.Position.X))
			s.WriteF32(float32(t.Position.Y))
		case wire.CensusVelocity:
			s.WriteF32(float32(t.Velocity.X))
			s.WriteF32(float32(t.Velocity.Y))
		case wire.CensusAngle:
			s.WriteF32(float32(t.Angle))
		case wire.CensusRadius:
			s.WriteF32(float32(t.Radius))
		case wire.CensusHealth:
			s.WriteF32(float32(t.Health))
		case wire.CensusMaxHealth:
			s.WriteF32(float32(t.MaxHealth))
		case wire.CensusAlive:
			if t.Alive {
				s.WriteU8(1)
			} else {
				s.WriteU8(0)
				s.WriteU32(t.KillerID)
			}
		case wire.CensusIdentityID:
			s.WriteU8(uint8(t.IdentityID))
		case wire.CensusTicks:
			s.WriteU32(uint32(t.Ticks))
		case wire.CensusClan:
			writeClanSlot(s, t.ClanSlot)
		case wire.CensusName:
			s.WriteString(t.Name)
		case wire.CensusFov:
			s.WriteF32(float32(t.Fov))
		case wire.CensusScore:
			s.WriteF32(float32(t.Score))
		case wire.CensusInvincible:
			s.WriteU8(boolByte(t.Spawning || t.Invincible))
		case wire.CensusInvisible:
			s.WriteF32(float32(t.Opacity))
		case wire.CensusTurrets:
			s.WriteU8(uint8(autoAimTurretCount(t.Turrets)))
			for i := range t.Turrets {
				if t.Turrets[i].Spec != nil && t.Turrets[i].Spec.AutoAim {
					s.WriteF32(float32(t.Turrets[i].AutoAngle))
				}
			}
		case wire.CensusMessage:
			s.WriteU8(boolByte(t.Typing))
			s.WriteU8(uint8(len(t.Messages)))
			for _, m := range t.Messages {
				s.WriteString(m.Text)
			}
		case wire.CensusReady:
			s.WriteU8(boolByte(t.Ready))
		default:
			s.Backspace(1)
		}
	}
}

func autoAimTurretCount(turrets []TurretState) int {
	n := 0
	for i := range turrets {
		if turrets[i].Spec != nil && turrets[i].Spec.AutoAim {
			n++
		}
	}
	return n
}

// shapeCensusPropertyCount is the number of CensusProperty entries a
// shape's census always includes.
const shapeCensusPropertyCount = 11

// TakeCensus writes this shape's observable snapshot onto s. A dead shape
// sends a zero-length census, since shapes never need to render a death
// screen the way a tank does.
func (sh *Shape) TakeCensus(s *wire.Stream) {
	if !sh.Alive {
		s.WriteU8(0)
		return
	}

	s.WriteU8(shapeCensusPropertyCount)
	for prop := 0; prop < wire.CensusPropertyCount; prop++ {
		property := wire.CensusProperty(prop)
		s.WriteU8(uint8(property))

		switch property {
		case wire.CensusPosition:
			s.WriteF32(float32(sh.Position.X))
			s.WriteF32(float32(sh.Position.Y))
		case wire.CensusVelocity:
			s.WriteF32(float32(sh.Velocity.X))
			s.WriteF32(float32(sh.Velocity.Y))
		case wire.CensusAngle:
			s.WriteF32(float32(sh.Angle))
		case wire.CensusRadius:
			s.WriteF32(float32(sh.Radius))
		case wire.CensusHealth:
			s.WriteF32(float32(sh.Health))
		case wire.CensusMaxHealth:
			s.WriteF32(float32(sh.MaxHealth))
		case wire.CensusIdentityID:
			s.WriteU8(uint8(sh.IdentityID))
		case wire.CensusTicks:
			s.WriteU32(uint32(sh.Ticks))
		case wire.CensusClan:
			writeClanSlot(s, sh.ClanSlot)
		case wire.CensusShapeType:
			s.WriteU8(uint8(sh.ShapeType))
		case wire.CensusShiny:
			s.WriteU8(uint8(sh.Shiny))
		default:
			s.Backspace(1)
		}
	}
}

// projectileCensusPropertyCount is the number of CensusProperty entries a
// projectile's census always includes.
const projectileCensusPropertyCount = 12

// TakeCensus writes this projectile's observable snapshot onto s.
// Unlike Shape and Tank there is no zero-length census case: a dead
// projectile still sends its full census until the deletion drain
// removes it.
func (p *Projectile) TakeCensus(s *wire.Stream) {
	s.WriteU8(projectileCensusPropertyCount)
	for prop := 0; prop < wire.CensusPropertyCount; prop++ {
		property := wire.CensusProperty(prop)
		s.WriteU8(uint8(property))

		switch property {
		case wire.CensusPosition:
			s.WriteF32(float32(p.Position.X))
			s.WriteF32(float32(p.Position.Y))
		case wire.CensusVelocity:
			s.WriteF32(float32(p.Velocity.X))
			s.WriteF32(float32(p.Velocity.Y))
		case wire.CensusAngle:
			s.WriteF32(float32(p.Angle))
		case wire.CensusRadius:
			s.WriteF32(float32(p.Radius))
		case wire.CensusHealth:
			s.WriteF32(float32(p.Health))
		case wire.CensusMaxHealth:
			s.WriteF32(float32(p.MaxHealth))
		case wire.CensusIdentityID:
			s.WriteU8(uint8(p.IdentityID))
		case wire.CensusTicks:
			s.WriteU32(uint32(p.Ticks))
		case wire.CensusOwner:
			s.WriteU32(uint32(len(p.OwnedBy)))
			for _, owner := range p.OwnedBy {
				s.WriteU32(owner)
			}
		case wire.CensusTurret:
			var owner uint32
			if len(p.OwnedBy) > 0 {
				owner = p.OwnedBy[0]
			}
			s.WriteU32(owner)
			s.WriteU8(uint8(p.TurretIndex))
			s.WriteU8(uint8(p.TurretSublevel))
		case wire.CensusProjectileType:
			s.WriteU8(uint8(p.Kind))
		case wire.CensusClan:
			writeClanSlot(s, p.ClanSlot)
		default:
			s.Backspace(1)
		}
	}
}
