// Package catalog holds the static, immutable per-class descriptors for
// tanks, shapes and projectiles: identities, turret specs, the upgrade
// graph, and the level->score table. Nothing in this package is mutated at
// runtime; the arena and entity packages only ever read from it.
package catalog

// Category enumerates a tank identity's broad behavioral class. Several
// mechanics key off category rather than identity ID directly: Smart bot
// AI's danger assessment (§4.4 item 9), drone/minion possession (§4.5),
// and necromancy eligibility (§4.6).
type Category uint8

const (
	CategoryBasic Category = iota
	CategorySpammer
	CategoryDestroyer
	CategoryDrone
	CategoryFactory
	CategoryFighter
	CategorySmasher
	CategoryTrapper
	CategoryRailgun
	CategoryNecromancer
	CategoryIllegal
	CategorySpectator
)

// ProjectileKind distinguishes the dynamics a turret's projectiles run
// under (§4.5, §3 "Projectile state").
type ProjectileKind uint8

const (
	ProjectileBullet ProjectileKind = iota
	ProjectileTrap
	ProjectileDrone
	ProjectileMinion
	ProjectileRailgun
	ProjectileNecromancerDrone
)

// TurretSpec is the immutable construction template for one turret mount
// on an identity (§3 "Turret").
type TurretSpec struct {
	AngleOffset     float64 // radians, relative to tank forward
	LateralOffset   float64
	SizeFactor      float64
	Length          float64
	Width           float64
	Recoil          float64
	ScatterRate     float64 // degrees of ± spread at rate*pi/1800, per §4.4 item 5
	Friction        float64
	Projectile      ProjectileKind
	ReloadMultiplier float64
	DelayFraction   float64 // fraction of reload_time added before first eligible fire
	MaxProjectiles  int     // -1 = unbounded
	AlwaysShoot     bool    // auto/drone/minion turrets fire without manual input
	AutoAim         bool    // auto turrets pick their own nearest target
	Reserved        bool    // never fires through the normal turret cycle (e.g. necromancy slot)
	Nested          *TurretSpec // minion sub-turret, nil for non-minion turrets
}

// Identity is the immutable descriptor for one tank/shape/projectile class.
type Identity struct {
	ID               int
	Name             string
	Category         Category
	LevelRequirement int
	MaxHealth        float64
	BaseSpeed        float64
	BaseFov          float64
	DamageExertion   float64
	Elasticity       float64
	OpacityDecrement float64 // 0 = never goes invisible
	ScoreYield       float64
	MaxStatPerStat   [9]int // indexed by wire.UpgradeStats
	Upgrades         []int  // next identity IDs reachable from this one
	Turrets          []TurretSpec
}

var byID = map[int]*Identity{}

func register(id *Identity) *Identity {
	byID[id.ID] = id
	return id
}

// Lookup returns the identity for id, or nil if unknown. A nil result is a
// client-logic violation per §7 and must be rejected silently by callers.
func Lookup(id int) *Identity {
	return byID[id]
}

// All returns every registered identity.
func All() []*Identity {
	out := make([]*Identity, 0, len(byID))
	for _, v := range byID {
		out = append(out, v)
	}
	return out
}

const maxStatDefault = 7

func fullMaxStats() [9]int {
	var m [9]int
	for i := range m {
		m[i] = maxStatDefault
	}
	return m
}

// The identity tree below is a compact, acyclic upgrade graph exercising
// every turret/projectile kind the simulation supports: bullets, traps,
// drones, minions (factory), a railgun, and necromancer drones. It is not
// the exhaustive tree of the original game; it is sized to exercise every
// mechanic named in §3/§4 rather than to be exhaustive.
var (
	Basic = register(&Identity{
		ID: 0, Name: "Basic", Category: CategoryBasic,
		LevelRequirement: 1, MaxHealth: 50, BaseSpeed: 3, BaseFov: 1,
		DamageExertion: 7, Elasticity: 1, ScoreYield: 0,
		MaxStatPerStat: fullMaxStats(),
		Upgrades:       []int{1, 2, 3, 5, 7},
		Turrets: []TurretSpec{
			{Length: 60, Width: 28, Recoil: 2, ScatterRate: 0, Projectile: ProjectileBullet, ReloadMultiplier: 1, MaxProjectiles: -1},
		},
	})

	Twin = register(&Identity{
		ID: 1, Name: "Twin", Category: CategoryBasic,
		LevelRequirement: 15, MaxHealth: 50, BaseSpeed: 3, BaseFov: 1,
		DamageExertion: 6, Elasticity: 1, ScoreYield: 0,
		MaxStatPerStat: fullMaxStats(), Upgrades: []int{4},
		Turrets: []TurretSpec{
			{LateralOffset: 10, Length: 56, Width: 24, Recoil: 1.5, Projectile: ProjectileBullet, ReloadMultiplier: 1, MaxProjectiles: -1},
			{LateralOffset: -10, Length: 56, Width: 24, Recoil: 1.5, Projectile: ProjectileBullet, ReloadMultiplier: 1, MaxProjectiles: -1},
		},
	})

	Sniper = register(&Identity{
		ID: 2, Name: "Sniper", Category: CategoryBasic,
		LevelRequirement: 15, MaxHealth: 46, BaseSpeed: 3, BaseFov: 1.1,
		DamageExertion: 8, Elasticity: 1, ScoreYield: 0,
		MaxStatPerStat: fullMaxStats(), Upgrades: []int{6},
		Turrets: []TurretSpec{
			{Length: 85, Width: 22, Recoil: 3, ScatterRate: 0, Projectile: ProjectileBullet, ReloadMultiplier: 1.5, MaxProjectiles: -1},
		},
	})

	MachineGun = register(&Identity{
		ID: 3, Name: "Machine Gun", Category: CategorySpammer,
		LevelRequirement: 15, MaxHealth: 50, BaseSpeed: 3, BaseFov: 1,
		DamageExertion: 5, Elasticity: 1, ScoreYield: 0,
		MaxStatPerStat: fullMaxStats(), Upgrades: []int{8},
		Turrets: []TurretSpec{
			{Length: 65, Width: 30, Recoil: 1, ScatterRate: 6, Projectile: ProjectileBullet, ReloadMultiplier: 0.5, MaxProjectiles: -1},
		},
	})

	TripleShot = register(&Identity{
		ID: 4, Name: "Triple Shot", Category: CategorySpammer,
		LevelRequirement: 30, MaxHealth: 55, BaseSpeed: 3, BaseFov: 1,
		DamageExertion: 6, Elasticity: 1, ScoreYield: 0,
		MaxStatPerStat: fullMaxStats(), Upgrades: nil,
		Turrets: []TurretSpec{
			{AngleOffset: 0, Length: 56, Width: 24, Recoil: 1.2, Projectile: ProjectileBullet, ReloadMultiplier: 1, MaxProjectiles: -1},
			{AngleOffset: 0.35, Length: 48, Width: 20, Recoil: 1, Projectile: ProjectileBullet, ReloadMultiplier: 1, MaxProjectiles: -1},
			{AngleOffset: -0.35, Length: 48, Width: 20, Recoil: 1, Projectile: ProjectileBullet, ReloadMultiplier: 1, MaxProjectiles: -1},
		},
	})

	Gunner = register(&Identity{
		ID: 5, Name: "Gunner", Category: CategoryDestroyer,
		LevelRequirement: 15, MaxHealth: 60, BaseSpeed: 2.7, BaseFov: 1,
		DamageExertion: 10, Elasticity: 1, ScoreYield: 0,
		MaxStatPerStat: fullMaxStats(), Upgrades: nil,
		Turrets: []TurretSpec{
			{Length: 80, Width: 40, Recoil: 5, Projectile: ProjectileBullet, ReloadMultiplier: 2.2, MaxProjectiles: -1},
		},
	})

	Railgun = register(&Identity{
		ID: 6, Name: "Railgun", Category: CategoryRailgun,
		LevelRequirement: 30, MaxHealth: 48, BaseSpeed: 3, BaseFov: 1.1,
		DamageExertion: 4, Elasticity: 1, ScoreYield: 0,
		MaxStatPerStat: fullMaxStats(), Upgrades: nil,
		Turrets: []TurretSpec{
			{Length: 95, Width: 26, Recoil: 0, Projectile: ProjectileRailgun, ReloadMultiplier: 4, MaxProjectiles: 1},
		},
	})

	Overlord = register(&Identity{
		ID: 7, Name: "Overlord", Category: CategoryDrone,
		LevelRequirement: 15, MaxHealth: 50, BaseSpeed: 2.7, BaseFov: 1.2,
		DamageExertion: 3, Elasticity: 1, ScoreYield: 0,
		MaxStatPerStat: fullMaxStats(), Upgrades: []int{9},
		Turrets: []TurretSpec{
			{AngleOffset: 0.6, Length: 40, Width: 20, Projectile: ProjectileDrone, ReloadMultiplier: 3, MaxProjectiles: 4, AlwaysShoot: true},
			{AngleOffset: -0.6, Length: 40, Width: 20, Projectile: ProjectileDrone, ReloadMultiplier: 3, MaxProjectiles: 4, AlwaysShoot: true},
		},
	})

	Factory = register(&Identity{
		ID: 9, Name: "Factory", Category: CategoryFactory,
		LevelRequirement: 30, MaxHealth: 65, BaseSpeed: 2.4, BaseFov: 1.2,
		DamageExertion: 3, Elasticity: 1, ScoreYield: 0,
		MaxStatPerStat: fullMaxStats(), Upgrades: nil,
		Turrets: []TurretSpec{
			{
				AngleOffset: 0, Length: 60, Width: 34, Projectile: ProjectileMinion,
				ReloadMultiplier: 5, MaxProjectiles: 2, AlwaysShoot: true,
				Nested: &TurretSpec{Length: 45, Width: 20, Recoil: 2, Projectile: ProjectileBullet, ReloadMultiplier: 1, MaxProjectiles: -1},
			},
		},
	})

	Necromancer = register(&Identity{
		ID: 8, Name: "Necromancer", Category: CategoryNecromancer,
		LevelRequirement: 30, MaxHealth: 55, BaseSpeed: 2.6, BaseFov: 1.3,
		DamageExertion: 3, Elasticity: 1, ScoreYield: 0,
		MaxStatPerStat: fullMaxStats(), Upgrades: nil,
		Turrets: []TurretSpec{
			{Length: 50, Width: 26, Recoil: 2, Projectile: ProjectileBullet, ReloadMultiplier: 1.3, MaxProjectiles: -1},
			// Reserved necromancy slot (§4.6): never fires through the normal
			// turret cycle, only consumed directly by spawnNecromancerDrone.
			{Projectile: ProjectileNecromancerDrone, MaxProjectiles: 6, ReloadMultiplier: 1, Reserved: true},
		},
	})

	Trapper = register(&Identity{
		ID: 10, Name: "Trapper", Category: CategoryTrapper,
		LevelRequirement: 15, MaxHealth: 55, BaseSpeed: 2.9, BaseFov: 1,
		DamageExertion: 6, Elasticity: 1, ScoreYield: 0,
		MaxStatPerStat: fullMaxStats(), Upgrades: nil,
		Turrets: []TurretSpec{
			{Length: 50, Width: 36, Recoil: 1, Projectile: ProjectileTrap, ReloadMultiplier: 2, MaxProjectiles: 3},
		},
	})

	Smasher = register(&Identity{
		ID: 11, Name: "Smasher", Category: CategorySmasher,
		LevelRequirement: 15, MaxHealth: 70, BaseSpeed: 2.2, BaseFov: 0.9,
		DamageExertion: 9, Elasticity: 1.4, ScoreYield: 0,
		MaxStatPerStat: fullMaxStats(), Upgrades: nil,
	})
)

func init() {
	Basic.Upgrades = append(Basic.Upgrades, Smasher.ID)
}
