package catalog

import "math"

// DerivedStats bundles the per-tick-recomputed tank stats of §4.4 item 6.
type DerivedStats struct {
	MaxHealth      float64
	DamageExertion float64
	MovementSpeed  float64
	Fov            float64
	RegenPerTick   float64
	BaseReloadTime float64
}

// ComputeDerivedStats applies §4.4 item 6's formulas given an identity, the
// tank's current level and its per-stat investment levels (indexed by
// wire.UpgradeStats order: HealthRegen, MaxHealth, BodyDamage, BulletSpeed,
// BulletPenetration, BulletDamage, Reload, MovementSpeed, Fov).
func ComputeDerivedStats(id *Identity, level int, stats [9]int) DerivedStats {
	maxHealth := id.MaxHealth + 2*float64(level-1) + 60*float64(stats[1])
	damage := id.DamageExertion + 3*float64(stats[5])
	speed := id.BaseSpeed * 1.6 * math.Pow(1.07, float64(stats[7])) / math.Pow(1.015, float64(level-1))
	fov := id.BaseFov + (math.Pow(1.02, float64(stats[8])) - 1) + (math.Pow(1.0045, float64(level-1)) - 1)
	regen := (maxHealth * (4*float64(stats[0]) + 1)) / 25000
	baseReload := 15 * math.Pow(0.914, float64(stats[6]))

	return DerivedStats{
		MaxHealth:      maxHealth,
		DamageExertion: damage,
		MovementSpeed:  speed,
		Fov:            fov,
		RegenPerTick:   regen,
		BaseReloadTime: baseReload,
	}
}

// TurretReloadTime applies a turret's multiplier to the tank's base reload
// time (§4.4 item 5).
func TurretReloadTime(baseReload float64, turret *TurretSpec) float64 {
	return baseReload * turret.ReloadMultiplier
}
