package identity

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// PostgresStore keeps identities in the users table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) FindByUsername(ctx context.Context, username string) (Identity, error) {
	return s.findOne(ctx,
		`SELECT username, email, role, password_hash, is_verified, COALESCE(verification_token, ''), created_at
		 FROM users
		 WHERE username = $1`,
		username,
	)
}

func (s *PostgresStore) FindByVerificationToken(ctx context.Context, token string) (Identity, error) {
	return s.findOne(ctx,
		`SELECT username, email, role, password_hash, is_verified, COALESCE(verification_token, ''), created_at
		 FROM users
		 WHERE verification_token = $1`,
		token,
	)
}

func (s *PostgresStore) findOne(ctx context.Context, query, arg string) (Identity, error) {
	var id Identity
	err := s.db.QueryRowContext(ctx, query, arg).Scan(
		&id.Username, &id.Email, &id.Role, &id.PasswordHash,
		&id.Verified, &id.VerificationToken, &id.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Identity{}, ErrNotFound
		}
		return Identity{}, fmt.Errorf("identity lookup: %w", err)
	}
	return id, nil
}

func (s *PostgresStore) Insert(ctx context.Context, id Identity) error {
	var token any
	if id.VerificationToken != "" {
		token = id.VerificationToken
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (username, email, role, password_hash, is_verified, verification_token)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		id.Username, id.Email, id.Role, id.PasswordHash, id.Verified, token,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		// 23505 = unique_violation
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicate
		}
		return fmt.Errorf("identity insert: %w", err)
	}
	return nil
}

func (s *PostgresStore) MarkVerified(ctx context.Context, username string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE users
		 SET is_verified = TRUE,
		     verification_token = NULL
		 WHERE username = $1`,
		username,
	)
	if err != nil {
		return fmt.Errorf("identity verify: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("identity verify: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
