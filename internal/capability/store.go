// Package capability implements single-use download tokens. A capability
// bridges "I hold a valid session" to "I may fetch exactly this object,
// exactly once, for a short window".
package capability

import (
	"context"
	"errors"
	"time"
)

const (
	// DefaultTTL is short enough to limit exposure of a leaked link and
	// long enough to cover realistic download latency.
	DefaultTTL = 5 * time.Minute
	// MaxTTL caps requested lifetimes so links are never effectively
	// permanent.
	MaxTTL = 24 * time.Hour
)

var (
	// ErrNotFound is returned when the token id is unknown, including ids
	// that were already redeemed.
	ErrNotFound = errors.New("download token not found")
	// ErrForbidden is returned when the requester is not the owner that
	// created the token.
	ErrForbidden = errors.New("download token not owned by requester")
	// ErrExpired is returned for tokens past their expiry.
	ErrExpired = errors.New("download token expired")
)

// Token is the record behind an issued capability id. The id is the only
// part a caller ever sees on the wire.
type Token struct {
	ID        string
	Owner     string
	Resource  string
	ExpiresAt time.Time
}

// Store issues and redeems capabilities. Implementations must make Redeem's
// removal of the record atomic: of any set of concurrent redemptions for
// one id, exactly one may observe the record present.
type Store interface {
	// Request records a new capability for owner to fetch resource and
	// returns it. The ttl is clamped to [DefaultTTL if unset, MaxTTL].
	Request(ctx context.Context, owner, resource string, ttl time.Duration) (Token, error)

	// Redeem consumes the capability and returns the resource name it was
	// bound to. The record is removed before the owner and expiry checks,
	// so a failed redemption still spends the token. Failures: ErrNotFound,
	// ErrForbidden, ErrExpired.
	Redeem(ctx context.Context, id, requester string) (string, error)
}

// ClampTTL applies the default and the hard cap.
func ClampTTL(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return DefaultTTL
	}
	if ttl > MaxTTL {
		return MaxTTL
	}
	return ttl
}
