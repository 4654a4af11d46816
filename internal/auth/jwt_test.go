package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"safexchange/internal/identity"
)

func TestIssueValidateRoundTrip(t *testing.T) {
	s := NewSessions([]byte("test-secret"))

	tok, err := s.Issue("alice", identity.RoleClient, time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, tok)

	claims, err := s.Validate(tok)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Subject)
	assert.Equal(t, identity.RoleClient, claims.Role)
}

func TestValidateExpired(t *testing.T) {
	s := NewSessions([]byte("test-secret"))

	tok, err := s.Issue("alice", identity.RoleOps, -time.Minute)
	require.NoError(t, err)

	_, err = s.Validate(tok)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestValidateWrongSecret(t *testing.T) {
	issuer := NewSessions([]byte("secret-a"))
	validator := NewSessions([]byte("secret-b"))

	tok, err := issuer.Issue("alice", identity.RoleClient, time.Hour)
	require.NoError(t, err)

	_, err = validator.Validate(tok)
	assert.ErrorIs(t, err, ErrMalformedToken)
}

func TestValidateGarbage(t *testing.T) {
	s := NewSessions([]byte("test-secret"))

	for _, tok := range []string{"", "not-a-jwt", "a.b", "a.b.c"} {
		_, err := s.Validate(tok)
		assert.ErrorIs(t, err, ErrMalformedToken, "token %q", tok)
	}
}

func TestIssueDefaultTTL(t *testing.T) {
	s := NewSessions([]byte("test-secret"))

	tok, err := s.Issue("bob", identity.RoleOps, 0)
	require.NoError(t, err)

	claims, err := s.Validate(tok)
	require.NoError(t, err)
	got := time.Until(claims.ExpiresAt.Time)
	assert.InDelta(t, DefaultSessionTTL.Seconds(), got.Seconds(), 5)
}

func TestValidateRejectsUnknownRole(t *testing.T) {
	s := NewSessions([]byte("test-secret"))

	tok, err := s.Issue("mallory", identity.Role("superuser"), time.Hour)
	require.NoError(t, err)

	_, err = s.Validate(tok)
	assert.ErrorIs(t, err, ErrMalformedToken)
}
