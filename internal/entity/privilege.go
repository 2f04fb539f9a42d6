package entity

import "arenasrv/internal/vecmath"

// PrivilegeKind is the tag of the Privilege sum type (§9 "Privilege as sum
// type"). A tagged union is used instead of an inheritance hierarchy: the
// Bot variant carries AI/chatbot state, every other variant is a unit.
type PrivilegeKind uint8

const (
	PrivilegeBot PrivilegeKind = iota
	PrivilegePlayer
	PrivilegeHost
	PrivilegeModerator
	PrivilegeDeveloper
)

// BotPolicy selects which AI behavior a bot tank runs (§4.4 item 9).
type BotPolicy uint8

const (
	BotPolicyStupid BotPolicy = iota
	BotPolicySmart
)

// BotState is the state carried only by the Bot privilege variant. The
// chatbot fields are kept dormant per §9: typing cadence and a reply buffer
// exist so the shape is in place, but no reply-generation engine is wired.
type BotState struct {
	Policy          BotPolicy
	RespawnTimer    int // ticks remaining before respawn, 0 = alive
	IdentityLadder  [3]int
	LadderStage     int
	Randomness      float64 // per-bot escape-angle jitter factor for Smart policy
	WaypointTarget  vecmath.Vec2
	HasWaypoint     bool
	ChatTypingTicks int
	ReplyBuffer     string
}

// Privilege is the tagged union of a tank's authority level.
type Privilege struct {
	Kind PrivilegeKind
	Bot  *BotState // non-nil iff Kind == PrivilegeBot
}

// NewBotPrivilege constructs a Bot privilege with the given identity ladder.
func NewBotPrivilege(policy BotPolicy, ladder [3]int, randomness float64) Privilege {
	return Privilege{
		Kind: PrivilegeBot,
		Bot: &BotState{
			Policy:         policy,
			IdentityLadder: ladder,
			Randomness:     randomness,
		},
	}
}

// CanModerate reports whether this privilege level may run moderation
// commands (§6 Chat opcode's slash commands).
func (p Privilege) CanModerate() bool {
	return p.Kind == PrivilegeModerator || p.Kind == PrivilegeDeveloper || p.Kind == PrivilegeHost
}

// CanDevelop reports developer-only command access (e.g. /set_score).
func (p Privilege) CanDevelop() bool {
	return p.Kind == PrivilegeDeveloper
}
