package capability

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// PostgresStore keeps capabilities in the download_tokens table so several
// backend replicas can share one token space. The DELETE ... RETURNING is
// the atomic pop: Postgres hands the deleted row to exactly one of any
// concurrent callers.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Request(ctx context.Context, owner, resource string, ttl time.Duration) (Token, error) {
	tok := Token{
		ID:        uuid.NewString(),
		Owner:     owner,
		Resource:  resource,
		ExpiresAt: time.Now().UTC().Add(ClampTTL(ttl)),
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO download_tokens (id, owner_username, resource, expires_at)
		 VALUES ($1, $2, $3, $4)`,
		tok.ID, tok.Owner, tok.Resource, tok.ExpiresAt,
	)
	if err != nil {
		return Token{}, fmt.Errorf("capability insert: %w", err)
	}
	return tok, nil
}

func (s *PostgresStore) Redeem(ctx context.Context, id, requester string) (string, error) {
	var (
		owner     string
		resource  string
		expiresAt time.Time
	)
	err := s.db.QueryRowContext(ctx,
		`DELETE FROM download_tokens
		 WHERE id = $1
		 RETURNING owner_username, resource, expires_at`,
		id,
	).Scan(&owner, &resource, &expiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("capability redeem: %w", err)
	}

	if owner != requester {
		return "", ErrForbidden
	}
	if time.Now().UTC().After(expiresAt) {
		return "", ErrExpired
	}
	return resource, nil
}
