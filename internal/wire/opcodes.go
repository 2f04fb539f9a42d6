package wire

// ClientBound is an opcode sent server -> client.
type ClientBound uint8

const (
	ClientBoundUpdate ClientBound = iota
	ClientBoundStat
	ClientBoundUpgrades
	ClientBoundNotification
	ClientBoundServerInfo
	ClientBoundCipher
	ClientBoundEloChange
	ClientBoundPong
)

// ServerBound is an opcode sent client -> server, matching §6's numbering
// exactly (0x00 Spawn through 0x08 Ready).
type ServerBound uint8

const (
	ServerBoundSpawn ServerBound = iota
	ServerBoundInput
	ServerBoundStat
	ServerBoundUpgrades
	ServerBoundChat
	ServerBoundPing
	ServerBoundClan
	ServerBoundArenaUpdate
	ServerBoundReady
)

// ParseServerBound converts a raw opcode byte into a ServerBound, reporting
// failure for anything outside the 0x00-0x08 range (§7 protocol violation).
func ParseServerBound(b uint8) (ServerBound, bool) {
	if b > uint8(ServerBoundReady) {
		return 0, false
	}
	return ServerBound(b), true
}

// ClanIncomingPacketType enumerates the Clan opcode's subtypes (§6).
type ClanIncomingPacketType uint8

const (
	ClanCreate ClanIncomingPacketType = iota
	ClanJoin
	ClanLeave
	ClanAcceptDecline
	ClanKick
	ClanDistress
)

// UpgradeStats enumerates the Stat opcode's stat_id catalog.
type UpgradeStats uint8

const (
	StatHealthRegen UpgradeStats = iota
	StatMaxHealth
	StatBodyDamage
	StatBulletSpeed
	StatBulletPenetration
	StatBulletDamage
	StatReload
	StatMovementSpeed
	StatFov
	upgradeStatsCount
)

// UpgradeStatsCount is the number of assignable stat slots.
const UpgradeStatsCount = int(upgradeStatsCount)

// CensusProperty identifies one observable attribute of an entity in a
// snapshot (§4.10, glossary "Census"). The declared order matches the
// original wire format and must not be reordered.
type CensusProperty uint8

const (
	CensusPosition CensusProperty = iota
	CensusVelocity
	CensusAngle
	CensusRadius
	CensusHealth
	CensusMaxHealth
	CensusAlive
	CensusIdentityID
	CensusTicks
	CensusClan
	CensusName // tank-only
	CensusFov
	CensusScore
	CensusInvincible
	CensusInvisible
	CensusTurrets
	CensusMessage
	CensusReady
	CensusShapeType   // shape-only
	CensusShiny       // shape-only
	CensusOwner       // projectile-only
	CensusTurret      // projectile-only
	CensusProjectileType
	censusPropertyCount
)

// CensusPropertyCount is the number of declared CensusProperty variants;
// a census writer iterates 0..CensusPropertyCount and skips whichever ones
// don't apply to the entity type it's encoding.
const CensusPropertyCount = int(censusPropertyCount)

// InputFlag is a bit in the Input opcode's flag_bits varuint (§6).
type InputFlag uint32

const (
	InputShoot InputFlag = 1 << iota
	InputUp
	InputDown
	InputLeft
	InputRight
	InputRepel
	InputLevelUp
	InputSwitchTank
	InputGodMode
	InputSuicide
)

// Has reports whether flag is set in bits.
func (f InputFlag) Has(bits uint32) bool {
	return bits&uint32(f) != 0
}

// ApplicationPingOpcode is the application-layer ping opcode layered over
// the transport's own ping/pong control frames (§6 Transport); the server
// answers it with ClientBoundPong.
const (
	ApplicationPingOpcode = ServerBoundPing
)
