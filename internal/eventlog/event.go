// Package eventlog is a bounded, rate-limited audit trail of arena
// occurrences (joins, leaves, kills, damage, respawns), adapted from the
// teacher's internal/game event log for analytics rather than replay.
package eventlog

import (
	"encoding/json"
	"time"
)

// Type classifies a recorded occurrence.
type Type uint8

const (
	TypeUnknown Type = iota
	TypeTankJoin
	TypeTankLeave
	TypeDamage
	TypeKill
	TypeRespawn
	TypeRankedMatchEnd
	TypeClanDisband
)

func (t Type) String() string {
	switch t {
	case TypeTankJoin:
		return "tank_join"
	case TypeTankLeave:
		return "tank_leave"
	case TypeDamage:
		return "damage"
	case TypeKill:
		return "kill"
	case TypeRespawn:
		return "respawn"
	case TypeRankedMatchEnd:
		return "ranked_match_end"
	case TypeClanDisband:
		return "clan_disband"
	default:
		return "unknown"
	}
}

// Version lets a consumer detect schema drift across deployments.
const Version uint8 = 1

// Event is one audit-log record.
type Event struct {
	Version   uint8  `json:"version"`
	Type      Type   `json:"type"`
	Timestamp int64  `json:"timestamp"`
	Sequence  uint64 `json:"sequence"`
	Tick      uint64 `json:"tick"`
	EntityID  uint32 `json:"entityId"`
	Payload   []byte `json:"payload"`
}

// NewEvent builds an Event with the current wall-clock timestamp. Sequence
// is assigned later by EventLog.Emit.
func NewEvent(typ Type, tick uint64, entityID uint32, payload interface{}) Event {
	return Event{
		Version:   Version,
		Type:      typ,
		Timestamp: time.Now().UnixNano(),
		Tick:      tick,
		EntityID:  entityID,
		Payload:   encodePayload(payload),
	}
}

func encodePayload(payload interface{}) []byte {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil
	}
	return data
}

// DamagePayload records one damage application.
type DamagePayload struct {
	AttackerID uint32  `json:"attackerId"`
	VictimID   uint32  `json:"victimId"`
	Damage     float64 `json:"damage"`
	VictimHP   float64 `json:"victimHp"`
}

// KillPayload records a tank's death and its killer.
type KillPayload struct {
	KillerID uint32 `json:"killerId"`
	VictimID uint32 `json:"victimId"`
}

// JoinPayload records a tank spawning into the arena.
type JoinPayload struct {
	Name   string  `json:"name"`
	SpawnX float64 `json:"spawnX"`
	SpawnY float64 `json:"spawnY"`
}

// RankedMatchEndPayload records a completed ranked round's outcome.
type RankedMatchEndPayload struct {
	WinnerUID string  `json:"winnerUid"`
	LoserUID  string  `json:"loserUid"`
	WinnerElo float64 `json:"winnerElo"`
	LoserElo  float64 `json:"loserElo"`
}
