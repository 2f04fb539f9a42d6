// Package arena owns the per-arena simulation: the tick loop, collision
// resolution, gamemode state machines, shape/bot population, and the
// ranked matchmaking glue (§3 "Arena", §4.7, §4.8).
package arena

import (
	"log"
	"math/rand"
	"sync"

	"arenasrv/internal/entity"
	"arenasrv/internal/eventlog"
	"arenasrv/internal/rating"
	"arenasrv/internal/services"
	"arenasrv/internal/vecmath"
)

// GameMode selects which gamemode FSM the arena runs (§6 "Configuration
// knobs (arena)").
type GameMode uint8

const (
	ModeFFA GameMode = iota
	ModeSandbox
	ModeLastManStanding
	ModeRanked
)

const maxClanSlots = 64

// Config carries the per-arena configuration knobs of §6.
type Config struct {
	Key              string
	ArenaSize        float64
	WantedShapeCount int
	DisabledFlags    [3]bool
	Private          bool
	GameMode         GameMode
	MaxPlayers       int
	AllowedUIDs      map[string]bool
	BotCount         int
	TicksPerSecond   int

	// NonProductionSkipsDuplicateCheck preserves the documented open
	// question (§9): outside production, duplicate-connection detection by
	// user ID is skipped.
	NonProductionSkipsDuplicateCheck bool
}

// DefaultConfig returns sane defaults for a freshly created arena.
func DefaultConfig(key string) Config {
	return Config{
		Key:              key,
		ArenaSize:        20000,
		WantedShapeCount: 400,
		GameMode:         ModeFFA,
		MaxPlayers:       80,
		AllowedUIDs:      nil,
		BotCount:         20,
		TicksPerSecond:   25,
	}
}

// Arena is a single isolated simulation instance.
type Arena struct {
	mu sync.Mutex

	Config Config
	State  State

	Grid *vecmath.Grid

	Tanks       map[uint32]*entity.Tank
	Shapes      map[uint32]*entity.Shape
	Projectiles map[uint32]*entity.Projectile

	Clans [maxClanSlots]*entity.Clan

	deletionSet map[uint32]bool

	Ticks         uint64
	nextEntityID  uint32

	rng *rand.Rand

	Ranked *RankedState

	lastManStandingTimer int // ticks remaining until reopen/close transition

	rankedIdleTicks  uint64 // consecutive ticks the ranked arena has had no queue/matches/tanks
	rankedStateTimer int    // ticks remaining in the current Ranked State transition

	Ladders map[int]*rating.Ladder // per-category Glicko-2 ladders

	pendingRanked []rankedOutcome

	Identity services.IdentityResolver
	Users     services.UserStore
	Proxy     services.ProxyReputation

	Banlist *Banlist

	// Events is an optional audit trail; nil disables event emission
	// entirely rather than requiring every call site to special-case a
	// no-op sink.
	Events *eventlog.EventLog

	logger *log.Logger
}

// EmitEvent records an audit-log entry if an EventLog is attached, no-op
// otherwise. Exported so connection-lifecycle events (join/leave), which
// originate in internal/netio rather than the tick loop, can feed the same
// trail as in-tick combat events.
func (a *Arena) EmitEvent(typ eventlog.Type, entityID uint32, payload interface{}) {
	if a.Events == nil {
		return
	}
	a.Events.Emit(eventlog.NewEvent(typ, a.Ticks, entityID, payload))
}

// Banlist is the set of fingerprints the /ban moderation command has
// excluded from this arena, consulted during spawn validation.
type Banlist struct {
	mu      sync.Mutex
	entries map[string]bool
}

func NewBanlist() *Banlist {
	return &Banlist{entries: make(map[string]bool)}
}

func (b *Banlist) Add(fingerprint string) {
	if fingerprint == "" {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries[fingerprint] = true
}

func (b *Banlist) Contains(fingerprint string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.entries[fingerprint]
}

// State is the arena-level lifecycle state machine (§4.8 item 2).
type State uint8

const (
	StateOpen State = iota
	StateNotAccepting
	StateTimeoutClosing
	StateClosing
	StateClosed
)

// New creates an arena with the given configuration and injected services.
func New(cfg Config, logger *log.Logger) *Arena {
	if logger == nil {
		logger = log.Default()
	}
	a := &Arena{
		Config:      cfg,
		State:       StateOpen,
		Grid:        vecmath.NewGrid(512),
		Tanks:       make(map[uint32]*entity.Tank),
		Shapes:      make(map[uint32]*entity.Shape),
		Projectiles: make(map[uint32]*entity.Projectile),
		deletionSet: make(map[uint32]bool),
		rng:         rand.New(rand.NewSource(1)),
		Ladders:     make(map[int]*rating.Ladder),
		Banlist:     NewBanlist(),
		logger:      logger,
	}
	if cfg.GameMode == ModeRanked {
		a.Ranked = newRankedState()
	}
	return a
}

// NextEntityID returns a fresh monotonically increasing entity ID (§3
// "Arena ... a monotonically increasing entity-ID counter").
func (a *Arena) NextEntityID() uint32 {
	a.nextEntityID++
	return a.nextEntityID
}

// TickConfig returns the entity.TickConfig derived from this arena's
// configuration.
func (a *Arena) TickConfig() entity.TickConfig {
	return entity.TickConfig{
		ArenaSize:      a.Config.ArenaSize,
		Friction:       0.85,
		TicksPerSecond: a.Config.TicksPerSecond,
	}
}

// MarkForDeletion adds id to the pending-deletion set, resolved before the
// next tick begins (§3 Arena invariant).
func (a *Arena) MarkForDeletion(id uint32) {
	a.deletionSet[id] = true
}

// ClanOf resolves an entity ID's clan slot, or -1 if none/unknown.
func (a *Arena) ClanOf(id uint32) int {
	if t, ok := a.Tanks[id]; ok {
		return t.ClanSlot
	}
	if s, ok := a.Shapes[id]; ok {
		return s.ClanSlot
	}
	if p, ok := a.Projectiles[id]; ok {
		return p.ClanSlot
	}
	return -1
}

// PositionOf resolves an entity ID's position, used by visibility queries.
func (a *Arena) PositionOf(id uint32) (vecmath.Vec2, bool) {
	if t, ok := a.Tanks[id]; ok {
		return t.Position, true
	}
	if s, ok := a.Shapes[id]; ok {
		return s.Position, true
	}
	if p, ok := a.Projectiles[id]; ok {
		return p.Position, true
	}
	return vecmath.Vec2{}, false
}

// Lock/Unlock expose the arena's coarse-grained mutex (§5 "a single
// coarse-grained async mutex held only for the duration of a tick or a
// control-plane operation").
func (a *Arena) Lock()   { a.mu.Lock() }
func (a *Arena) Unlock() { a.mu.Unlock() }
