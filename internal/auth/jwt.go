package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"safexchange/internal/identity"
)

// DefaultSessionTTL matches the 30-minute access-token lifetime the
// product shipped with.
const DefaultSessionTTL = 30 * time.Minute

// Claims are the session claims carried inside the JWT: the username as
// the registered subject plus the role.
type Claims struct {
	jwt.RegisteredClaims
	Role identity.Role `json:"role"`
}

// Sessions issues and validates HS256-signed session tokens. Issue and
// Validate share one secret; rotating it invalidates every outstanding
// token.
type Sessions struct {
	secret []byte
}

func NewSessions(secret []byte) *Sessions {
	return &Sessions{secret: secret}
}

// Issue signs a token for subject with the given role, expiring ttl from
// now. A non-positive ttl falls back to DefaultSessionTTL.
func (s *Sessions) Issue(subject string, role identity.Role, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Role: role,
	})
	return token.SignedString(s.secret)
}

// Validate parses and verifies a token and returns its claims. Expiry is
// reported as ErrTokenExpired; every other failure, including a wrong
// signing method, is ErrMalformedToken.
func (s *Sessions) Validate(tokenString string) (Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, ErrTokenExpired
		}
		return Claims{}, ErrMalformedToken
	}
	if !token.Valid || claims.Subject == "" || !claims.Role.Valid() {
		return Claims{}, ErrMalformedToken
	}
	return *claims, nil
}
