package auth

import (
	"context"
	"errors"
	"fmt"

	"safexchange/internal/identity"
)

// Verifier checks username/password pairs against the identity store,
// scoped to a required role. It is read-only.
type Verifier struct {
	store identity.Store
}

func NewVerifier(store identity.Store) *Verifier {
	return &Verifier{store: store}
}

// Verify returns the stored identity when username, password and role all
// match. Every mismatch comes back as ErrInvalidCredentials; only store
// failures surface as anything else.
func (v *Verifier) Verify(ctx context.Context, username, password string, role identity.Role) (identity.Identity, error) {
	id, err := v.store.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			// Burn a bcrypt compare anyway so unknown usernames cost the
			// same as wrong passwords.
			CheckPassword(password, dummyHash)
			return identity.Identity{}, ErrInvalidCredentials
		}
		return identity.Identity{}, fmt.Errorf("verify credentials: %w", err)
	}

	if !CheckPassword(password, id.PasswordHash) {
		return identity.Identity{}, ErrInvalidCredentials
	}

	// A wrong role is reported exactly like a wrong password so the login
	// endpoints cannot be used to enumerate which role a username holds.
	if id.Role != role {
		return identity.Identity{}, ErrInvalidCredentials
	}

	return id, nil
}

// dummyHash is a bcrypt hash of an unguessable throwaway value, used to
// equalise timing when the username does not exist.
const dummyHash = "$2a$12$R9h/cIPz0gi.URNNX3kh2OPST9/PgBkqquzi.Ss7KIUgO2t0jWMUW"
