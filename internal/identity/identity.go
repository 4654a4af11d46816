// Package identity defines the user model and the persistent store the
// auth layer depends on. Stores are injected; the server never reaches for
// a process-wide database handle.
package identity

import (
	"context"
	"errors"
	"time"
)

// Role separates file managers from file consumers.
type Role string

const (
	RoleOps    Role = "ops"
	RoleClient Role = "client"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleOps || r == RoleClient
}

var (
	// ErrNotFound is returned when no identity matches the lookup key.
	ErrNotFound = errors.New("identity not found")
	// ErrDuplicate is returned when an insert collides on username.
	ErrDuplicate = errors.New("username already registered")
)

// Identity is one account row. PasswordHash is a bcrypt hash, never the
// plaintext. VerificationToken is non-empty only while email verification
// is pending.
type Identity struct {
	Username          string
	Email             string
	Role              Role
	PasswordHash      string
	Verified          bool
	VerificationToken string
	CreatedAt         time.Time
}

// Store is the identity collaborator. Implementations must key uniquely
// by username.
type Store interface {
	FindByUsername(ctx context.Context, username string) (Identity, error)
	FindByVerificationToken(ctx context.Context, token string) (Identity, error)
	Insert(ctx context.Context, id Identity) error
	// MarkVerified flips the verified flag and clears the pending token,
	// making the verification token one-time.
	MarkVerified(ctx context.Context, username string) error
}
