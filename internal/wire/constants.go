package wire

// Protocol-wide size bounds (§6, §4.9).
const (
	BuildID            = 42 // arbitrary build fingerprint; client and server must agree
	MaxNickname        = 16
	MaxFingerprint     = 64
	MaxMessageLength   = 200
	MaxClanNameLength  = 16
	DisconnectTimeoutTicks = 1024
)
