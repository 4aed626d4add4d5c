// Package account implements email + OTP signup, verification and login.
package account

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"cloudkeeper/internal/errors"
)

// User is a registered account
type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	OTP          string    `json:"-"`
	Verified     bool      `json:"verified"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Store persists users keyed by email
type Store interface {
	// GetByEmail returns nil, nil when no user has the email
	GetByEmail(ctx context.Context, email string) (*User, error)
	Create(ctx context.Context, u *User) error
	Update(ctx context.Context, u *User) error
}

// Mailer delivers one-time passwords
type Mailer interface {
	SendOTP(ctx context.Context, to, otp string) error
}

var (
	// ErrNotVerified is returned by Login for a correct password on an unverified account
	ErrNotVerified = errors.Auth("account is not verified")

	// ErrAlreadyVerified is returned by Verify for an account that needs no OTP
	ErrAlreadyVerified = errors.Conflict("account is already verified")

	// ErrInvalidCredentials is returned by Login for an unknown email or wrong password
	ErrInvalidCredentials = errors.Auth("invalid credentials or account does not exist")

	// ErrInvalidOTP is returned by Verify for a wrong code
	ErrInvalidOTP = errors.Auth("invalid OTP")
)

// MemoryStore keeps users in process memory
type MemoryStore struct {
	mu    sync.RWMutex
	users map[string]User
}

// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{users: make(map[string]User)}
}

// GetByEmail implements Store
func (s *MemoryStore) GetByEmail(_ context.Context, email string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[normalizeEmail(email)]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

// Create implements Store
func (s *MemoryStore) Create(_ context.Context, u *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := normalizeEmail(u.Email)
	if _, exists := s.users[key]; exists {
		return errors.Newf(errors.TypeConflict, "user already exists: %s", u.Email)
	}
	s.users[key] = *u
	return nil
}

// Update implements Store
func (s *MemoryStore) Update(_ context.Context, u *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := normalizeEmail(u.Email)
	if _, exists := s.users[key]; !exists {
		return errors.NotFound("user", u.Email)
	}
	s.users[key] = *u
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
