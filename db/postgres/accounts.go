// Package postgres provides the PostgreSQL account store.
package postgres

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"cloudkeeper/core/account"
	"cloudkeeper/internal/errors"
)

// uniqueViolation is the PostgreSQL error code for a duplicate key
const uniqueViolation = "23505"

// AccountStore implements account.Store on PostgreSQL
type AccountStore struct {
	db *sql.DB
}

// New opens dsn, checks the connection and ensures the schema exists
func New(ctx context.Context, dsn string) (*AccountStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &AccountStore{db: db}
	if err := s.initSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

// NewWithDB wraps an existing connection pool
func NewWithDB(db *sql.DB) *AccountStore {
	return &AccountStore{db: db}
}

func (s *AccountStore) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY,
		email VARCHAR(320) UNIQUE NOT NULL,
		password_hash TEXT NOT NULL,
		otp VARCHAR(16),
		verified BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	);
	`
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// Close releases the connection pool
func (s *AccountStore) Close() error {
	return s.db.Close()
}

// GetByEmail implements account.Store
func (s *AccountStore) GetByEmail(ctx context.Context, email string) (*account.User, error) {
	query := `
		SELECT id, email, password_hash, otp, verified, created_at, updated_at
		FROM users WHERE email = $1
	`

	var u account.User
	var otp sql.NullString
	err := s.db.QueryRowContext(ctx, query, normalize(email)).Scan(
		&u.ID,
		&u.Email,
		&u.PasswordHash,
		&otp,
		&u.Verified,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	u.OTP = otp.String
	return &u, nil
}

// Create implements account.Store
func (s *AccountStore) Create(ctx context.Context, u *account.User) error {
	query := `
		INSERT INTO users (id, email, password_hash, otp, verified, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := s.db.ExecContext(ctx, query,
		u.ID,
		normalize(u.Email),
		u.PasswordHash,
		nullable(u.OTP),
		u.Verified,
		u.CreatedAt,
		u.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if stderrors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return errors.Newf(errors.TypeConflict, "user already exists: %s", u.Email)
		}
		return err
	}
	return nil
}

// Update implements account.Store
func (s *AccountStore) Update(ctx context.Context, u *account.User) error {
	query := `
		UPDATE users
		SET password_hash = $2, otp = $3, verified = $4, updated_at = $5
		WHERE email = $1
	`

	result, err := s.db.ExecContext(ctx, query,
		normalize(u.Email),
		u.PasswordHash,
		nullable(u.OTP),
		u.Verified,
		u.UpdatedAt,
	)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return errors.NotFound("user", u.Email)
	}
	return nil
}

func normalize(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

var _ account.Store = (*AccountStore)(nil)
