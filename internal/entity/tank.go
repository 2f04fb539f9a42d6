package entity

import (
	"math"
	"math/rand"

	"arenasrv/internal/catalog"
	"arenasrv/internal/vecmath"
	"arenasrv/internal/wire"
)

// ChatMessage is one entry in a tank's message ring (§3 "messages ring, <=3
// entries with expiry ticks").
type ChatMessage struct {
	Text        string
	ExpiresTick uint64
}

const maxMessages = 3

// TurretState is the mutable per-tick state of one mounted turret,
// alongside its immutable catalog.TurretSpec.
type TurretState struct {
	Spec            *catalog.TurretSpec
	CyclePosition   float64
	ProjectileCount int
	AutoAngle       float64 // idle rotation angle for auto turrets
	Railgun         *RailgunState
}

// ProjectileSpawnRequest is what a turret firing produces; the arena tick
// loop drains these into live projectile entities at the start of the next
// tick (§4.8 item 5).
type ProjectileSpawnRequest struct {
	OwnerID      uint32
	TurretIndex  int
	Spec         *catalog.TurretSpec
	Position     vecmath.Vec2
	Angle        float64
	Speed        float64
	Damage       float64
	Penetration  float64
	Kind         catalog.ProjectileKind
	Nested       *catalog.TurretSpec
}

// Tank is the player/bot entity variant (§3 "Tank state").
type Tank struct {
	Base

	Name  string
	Score float64
	Level int

	Stats      [9]int
	StatPoints int

	Upgrades []int

	Fov          float64
	Surroundings []uint32

	Spawning     bool
	SpawningTick uint64
	Moved        bool
	LastPingTick uint64

	Typing   bool
	Messages []ChatMessage

	InputFlags uint32

	ZoomAngle  float64
	FovLocked  bool
	FovLockPos vecmath.Vec2

	KillerID uint32
	Opacity  float64 // -1 = permanently invisible, 0..1 otherwise

	TransportID string

	ClanDistressed bool
	ClanLeaving    bool
	ClanLeaveTick  uint64

	Fingerprint string
	UserID      string

	Privilege Privilege

	OpponentID      uint32
	Ready           bool
	Score1v1        int
	IdentityIdx     int
	InRanked        bool
	RankedStartTick uint64

	LastSwitchTick   uint64
	LastGodmodeTick  uint64

	Turrets []TurretState

	PendingSpawns []ProjectileSpawnRequest

	DerivedStats catalog.DerivedStats

	// SendStatInfo/SendUpgradesInfo request a Stat/Upgrades reply on the
	// tank's next Update tick; cleared once sent.
	SendStatInfo     bool
	SendUpgradesInfo bool
}

// NewTank constructs a tank entity at the given identity and position.
func NewTank(id uint32, identityID int, name string, pos vecmath.Vec2, priv Privilege) *Tank {
	ident := catalog.Lookup(identityID)
	t := &Tank{
		Base:      NewBase(id, identityID, pos, 20, ident.MaxHealth),
		Name:      name,
		Level:     1,
		Fov:       ident.BaseFov,
		Opacity:   1,
		Privilege: priv,
	}
	t.Speed = ident.BaseSpeed
	t.DamageExertion = ident.DamageExertion
	t.setTurretsFromIdentity(ident)
	return t
}

func (t *Tank) setTurretsFromIdentity(ident *catalog.Identity) {
	t.Turrets = make([]TurretState, len(ident.Turrets))
	for i := range ident.Turrets {
		spec := &ident.Turrets[i]
		ts := TurretState{Spec: spec}
		if spec.Projectile == catalog.ProjectileRailgun {
			ts.Railgun = &RailgunState{MaxCharges: 5}
		}
		t.Turrets[i] = ts
	}
}

// ApplyInput is §4.4 item 3: movement normalisation and mouse-driven
// angle tracking. screenW/screenH describe the expanded screen box the
// mouse must lie within for angle tracking to engage; passing a mouse
// outside it (e.g. off an extreme aspect-ratio client) leaves Angle
// unchanged.
func (t *Tank) ApplyInput(flags uint32, mouseX, mouseY float64, screenW, screenH float64) {
	t.InputFlags = flags
	t.Mouse = vecmath.Vec2{X: mouseX, Y: mouseY}

	var move vecmath.Vec2
	if wire.InputUp.Has(flags) {
		move.Y -= 1
	}
	if wire.InputDown.Has(flags) {
		move.Y += 1
	}
	if wire.InputLeft.Has(flags) {
		move.X -= 1
	}
	if wire.InputRight.Has(flags) {
		move.X += 1
	}
	move = move.Normalise().Scale(t.DerivedStats.MovementSpeed)
	t.Velocity = t.Velocity.Add(move)
	if move.MagnitudeSquared() > 0 {
		t.Moved = true
	}

	margin := screenW * 0.5
	if t.FovLocked {
		anchor := t.FovLockPos
		t.Angle = vecmath.Vec2{X: mouseX, Y: mouseY}.Angle(&anchor)
		return
	}
	if math.Abs(mouseX) <= screenW+margin && math.Abs(mouseY) <= screenH+margin {
		t.Angle = math.Atan2(mouseY, mouseX)
	}
}

// CanSwitchTank reports whether the 5s SwitchTank throttle (§4.4 item 3)
// has elapsed.
func (t *Tank) CanSwitchTank(nowTick uint64, ticksPerSecond int) bool {
	return nowTick-t.LastSwitchTick >= uint64(5*ticksPerSecond)
}

// CanToggleGodMode reports whether the 3s GodMode throttle has elapsed.
func (t *Tank) CanToggleGodMode(nowTick uint64, ticksPerSecond int) bool {
	return nowTick-t.LastGodmodeTick >= uint64(3*ticksPerSecond)
}

// UpdateLeveling is §4.4 item 4: consume score into levels while the next
// threshold is met, granting stat points and growing radius.
func (t *Tank) UpdateLeveling(baseRadius float64) {
	for t.Level < catalog.MaxLevel && t.Score >= catalog.ScoreForLevel(t.Level+1) {
		t.Level++
		if catalog.GrantsStatPoint(t.Level) {
			t.StatPoints++
		}
	}
	t.Radius = catalog.RadiusForLevel(baseRadius, t.Level)
}

// ApplyStat spends one available stat point on statID, rejecting silently
// (§4.4 failure semantics) if the tank has no points or the stat is at its
// identity-defined maximum.
func (t *Tank) ApplyStat(statID wire.UpgradeStats, ident *catalog.Identity) {
	idx := int(statID)
	if idx < 0 || idx >= wire.UpgradeStatsCount {
		return
	}
	if t.StatPoints <= 0 {
		return
	}
	if t.Stats[idx] >= ident.MaxStatPerStat[idx] {
		return
	}
	t.Stats[idx]++
	t.StatPoints--
	t.SendStatInfo = true
}

// ApplyUpgrade switches identity to the selected index in the tank's
// current upgrade list, resetting turrets for the new identity. Invalid
// indices are rejected silently.
func (t *Tank) ApplyUpgrade(index int, fromIdentity *catalog.Identity) {
	if index < 0 || index >= len(fromIdentity.Upgrades) {
		return
	}
	next := catalog.Lookup(fromIdentity.Upgrades[index])
	if next == nil {
		return
	}
	t.IdentityID = next.ID
	t.setTurretsFromIdentity(next)
	t.SendStatInfo = true
	t.SendUpgradesInfo = true
}

// RecomputeDerivedStats applies §4.4 item 6.
func (t *Tank) RecomputeDerivedStats(ident *catalog.Identity) {
	t.DerivedStats = catalog.ComputeDerivedStats(ident, t.Level, t.Stats)
	t.MaxHealth = t.DerivedStats.MaxHealth
	t.DamageExertion = t.DerivedStats.DamageExertion
	t.RegenPerTick = t.DerivedStats.RegenPerTick
	t.Fov = t.DerivedStats.Fov
}

// UpdateOpacity is §4.4 item 7.
func (t *Tank) UpdateOpacity(ident *catalog.Identity, isShooting bool) {
	if t.Opacity < 0 {
		return // permanently invisible sentinel
	}
	if ident.OpacityDecrement <= 0 {
		t.Opacity = 1
		return
	}
	stationary := t.Velocity.Magnitude() < 3
	if stationary && !isShooting {
		t.Opacity -= ident.OpacityDecrement
	} else {
		t.Opacity += ident.OpacityDecrement
	}
	if t.Opacity < 0 {
		t.Opacity = 0
	}
	if t.Opacity > 1 {
		t.Opacity = 1
	}
}

// UpdateVisibility is §4.4 item 8: query the grid by the fov-scaled view
// rect and keep only exact-containment candidates.
func (t *Tank) UpdateVisibility(g *vecmath.Grid, positions func(id uint32) (vecmath.Vec2, bool)) {
	center := t.Position
	if t.FovLocked {
		center = t.FovLockPos
	}
	w := (1920 + 300) * t.Fov
	h := (1080 + 300) * t.Fov
	topLeft := vecmath.Vec2{X: center.X - w/2, Y: center.Y - h/2}

	candidates := g.QueryRect(t.ID, topLeft, w, h)
	surroundings := make([]uint32, 0, len(candidates))
	for _, id := range candidates {
		pos, ok := positions(id)
		if !ok {
			continue
		}
		if vecmath.ExactRectContains(topLeft, w, h, pos) {
			surroundings = append(surroundings, id)
		}
	}
	t.Surroundings = surroundings
}

// TakeDamage applies incoming damage unless invincible, marking the last
// damage tick and transitioning to dead when health drops to or below 0.
// Returns true if this hit killed the tank.
func (t *Tank) TakeDamage(amount float64, nowTick uint64, killerID uint32) bool {
	if t.Invincible || !t.Alive {
		return false
	}
	t.Health -= amount
	t.LastDamageTick = nowTick
	if t.Health <= 0 {
		t.Alive = false
		t.KillerID = killerID
		return true
	}
	return false
}

// Respawn resets a tank to a fresh spawn state at the given identity.
func (t *Tank) Respawn(id uint32, identityID int, pos vecmath.Vec2) {
	ident := catalog.Lookup(identityID)
	t.Base = NewBase(id, identityID, pos, 20, ident.MaxHealth)
	t.Score = 0
	t.Level = 1
	t.Stats = [9]int{}
	t.StatPoints = 0
	t.Upgrades = nil
	t.Fov = ident.BaseFov
	t.Opacity = 1
	t.KillerID = 0
	t.setTurretsFromIdentity(ident)
	t.Spawning = true
}

// PushMessage appends a chat message to the ring, evicting the oldest when
// full (§3 "messages ring, <=3 entries").
func (t *Tank) PushMessage(text string, expiresTick uint64) {
	t.Messages = append(t.Messages, ChatMessage{Text: text, ExpiresTick: expiresTick})
	if len(t.Messages) > maxMessages {
		t.Messages = t.Messages[len(t.Messages)-maxMessages:]
	}
}

// ExpireMessages drops messages whose expiry has passed.
func (t *Tank) ExpireMessages(nowTick uint64) {
	kept := t.Messages[:0]
	for _, m := range t.Messages {
		if m.ExpiresTick > nowTick {
			kept = append(kept, m)
		}
	}
	t.Messages = kept
}

// RandomJitterAngle returns a uniform random angle in [-spread, spread],
// used for turret scatter (§4.4 item 5: "uniform in ±rate*pi/1800") and bot
// escape-angle jitter (§4.4 item 9).
func RandomJitterAngle(rng *rand.Rand, spread float64) float64 {
	return (rng.Float64()*2 - 1) * spread
}
