package entity

import (
	"math"
	"math/rand"

	"arenasrv/internal/catalog"
	"arenasrv/internal/vecmath"
)

// RailgunState tracks a single railgun turret's charge-and-release
// sub-machine (§4.5 "Railgun sub-machine").
type RailgunState struct {
	HasShot    bool
	Charges    int
	MaxCharges int
	Pinned     uint32 // the pinned projectile's entity ID, 0 if none yet spawned
}

// TurretFireSink receives projectile construction requests produced while
// advancing turrets.
type TurretFireSink interface {
	Enqueue(ProjectileSpawnRequest)
}

type fireSinkFunc func(ProjectileSpawnRequest)

func (f fireSinkFunc) Enqueue(r ProjectileSpawnRequest) { f(r) }

// UpdateTurrets is §4.4 item 5: advance every turret's cycle, fire whenever
// the reload condition is satisfied and capacity allows, and handle auto
// turrets' independent targeting and idle rotation.
//
// findTarget resolves the nearest eligible target within range for auto
// turrets; it may be nil when there is nothing eligible.
func (t *Tank) UpdateTurrets(rng *rand.Rand, manualFire bool, findTarget func(from vecmath.Vec2, rangeLimit float64) (vecmath.Vec2, uint32, bool)) {
	for i := range t.Turrets {
		ts := &t.Turrets[i]
		spec := ts.Spec
		if spec.Reserved {
			continue
		}
		ts.CyclePosition++

		reloadTime := catalog.TurretReloadTime(t.DerivedStats.BaseReloadTime, spec)
		if reloadTime <= 0 {
			reloadTime = 1
		}

		fireAngle := t.Angle + spec.AngleOffset
		wantsFire := manualFire || spec.AlwaysShoot

		if spec.AutoAim && findTarget != nil {
			muzzle := t.muzzlePosition(spec)
			projectedRange := spec.Length * 20
			targetPos, _, ok := findTarget(muzzle, projectedRange)
			if ok {
				fireAngle = targetPos.Sub(muzzle).Angle(nil)
			} else {
				ts.AutoAngle += 0.02
				fireAngle = ts.AutoAngle
				wantsFire = false
			}
		}

		capacityOK := spec.MaxProjectiles < 0 || ts.ProjectileCount < spec.MaxProjectiles
		ready := ts.CyclePosition >= reloadTime*(1+spec.DelayFraction)

		if spec.Projectile == catalog.ProjectileRailgun {
			t.updateRailgunTurret(i, manualFire)
			continue
		}

		if ready && wantsFire && capacityOK {
			t.fireTurret(i, fireAngle, rng)
			ts.CyclePosition = reloadTime * spec.DelayFraction
		}
	}
}

func (t *Tank) muzzlePosition(spec *catalog.TurretSpec) vecmath.Vec2 {
	forward := vecmath.FromPolar(spec.Length, t.Angle+spec.AngleOffset)
	lateral := vecmath.FromPolar(spec.LateralOffset, t.Angle+spec.AngleOffset+math.Pi/2)
	return t.Position.Add(forward).Sub(lateral)
}

func (t *Tank) fireTurret(index int, fireAngle float64, rng *rand.Rand) {
	ts := &t.Turrets[index]
	spec := ts.Spec

	scatter := RandomJitterAngle(rng, spec.ScatterRate*math.Pi/1800)
	angle := fireAngle + scatter

	muzzle := t.muzzlePosition(spec)
	recoil := vecmath.FromPolar(spec.Recoil, angle+math.Pi)
	t.Velocity = t.Velocity.Add(recoil)

	t.PendingSpawns = append(t.PendingSpawns, ProjectileSpawnRequest{
		OwnerID:     t.ID,
		TurretIndex: index,
		Spec:        spec,
		Position:    muzzle,
		Angle:       angle,
		Speed:       200,
		Damage:      t.DamageExertion,
		Penetration: t.DamageExertion,
		Kind:        spec.Projectile,
		Nested:      spec.Nested,
	})
	ts.ProjectileCount++
}

// updateRailgunTurret is the railgun sub-machine of §4.5: while unfired, a
// charge-building projectile stays pinned to the muzzle; release happens on
// reaching max charge or on shoot-release, imparting velocity and recoil.
// Re-firing is suppressed while an unfired railgun projectile is still
// owned, matching §4.4 item 5's explicit note.
func (t *Tank) updateRailgunTurret(index int, shootHeld bool) {
	ts := &t.Turrets[index]
	rg := ts.Railgun
	if rg == nil {
		return
	}

	if rg.Pinned == 0 {
		if !shootHeld {
			return
		}
		t.PendingSpawns = append(t.PendingSpawns, ProjectileSpawnRequest{
			OwnerID:     t.ID,
			TurretIndex: index,
			Spec:        ts.Spec,
			Position:    t.muzzlePosition(ts.Spec),
			Angle:       t.Angle + ts.Spec.AngleOffset,
			Speed:       0,
			Damage:      0,
			Penetration: 0,
			Kind:        catalog.ProjectileRailgun,
		})
		rg.Charges = 0
		rg.HasShot = false
		return
	}

	if rg.Charges < rg.MaxCharges {
		rg.Charges++
	}

	if rg.Charges >= rg.MaxCharges || !shootHeld {
		rg.HasShot = true
	}
}

// RailgunRadius maps charge count to the growing charge-tick radius
// observable while pinned (§8 scenario 2: "5 growing-radius charge ticks").
func RailgunRadius(baseRadius float64, charges, maxCharges int) float64 {
	if maxCharges <= 0 {
		return baseRadius
	}
	return baseRadius * (1 + float64(charges)/float64(maxCharges))
}

// RailgunDamageForRadius and RailgunPenetrationForRadius implement §8
// scenario 2's released-projectile scaling: damage proportional to
// radius/11.875, penetration proportional to radius/7.91.
func RailgunDamageForRadius(radius float64) float64      { return radius / 11.875 }
func RailgunPenetrationForRadius(radius float64) float64 { return radius / 7.91 }

// RailgunRecoilVelocity is "tank velocity reduced by radius/20 along the
// fire angle" from §8 scenario 2.
func RailgunRecoilVelocity(radius, angle float64) vecmath.Vec2 {
	return vecmath.FromPolar(radius/20, angle+math.Pi)
}
