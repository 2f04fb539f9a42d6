// Package services declares the contracts for the collaborators the
// simulation treats as externally injected: identity token resolution,
// durable user/rating storage, and proxy/VPN reputation (§6 "Injected
// services"). Concrete implementations live outside this module; the arena
// only ever depends on these interfaces, grounded the way the teacher
// repo's internal/ipc package separates transport concerns from the engine.
package services

import "context"

// UserRecord is the persisted shape of a player account (§6 "User
// record").
type UserRecord struct {
	StableUID   string
	DisplayName string // <= 18 runes
	Ratings     []RatingRecord
}

// RatingRecord is one category's Glicko-2 rating snapshot.
type RatingRecord struct {
	Category   int
	Rating     float64
	RD         float64
	Volatility float64
}

// IdentityResolver resolves an opaque client-supplied token (e.g. a signed
// session cookie or OAuth bearer) to a stable user ID.
type IdentityResolver interface {
	Resolve(ctx context.Context, token string) (stableUID string, err error)
}

// UserStore is the synchronous-ish persistence contract of §6.
type UserStore interface {
	ReadByID(ctx context.Context, stableUID string) (*UserRecord, error)
	ReadByName(ctx context.Context, displayName string) (*UserRecord, error)
	CreateOrUpsert(ctx context.Context, record UserRecord) error
	Ping(ctx context.Context) error
}

// ProxyReputation is the optional VPN/proxy reputation lookup of §6.
type ProxyReputation interface {
	Check(ctx context.Context, ip string) (suspicious bool, err error)
}

// NoopProxyReputation always reports an address as trustworthy; used when
// no reputation provider is configured (§6 "(optional)").
type NoopProxyReputation struct{}

func (NoopProxyReputation) Check(ctx context.Context, ip string) (bool, error) {
	return false, nil
}
