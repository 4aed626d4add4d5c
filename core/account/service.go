package account

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"cloudkeeper/internal/errors"
)

// Options configures the account service
type Options struct {
	// AllowedDomain restricts signups, e.g. "cloudkeeper.com"
	AllowedDomain string

	// MinPasswordLength is the shortest accepted password
	MinPasswordLength int

	// Logger receives account lifecycle events
	Logger *zap.Logger

	// GenerateOTP overrides the OTP source
	GenerateOTP func() (string, error)

	// Now overrides the clock
	Now func() time.Time
}

// DefaultOptions returns the production defaults
func DefaultOptions() Options {
	return Options{
		AllowedDomain:     "cloudkeeper.com",
		MinPasswordLength: 4,
	}
}

// Service runs the signup, verify and login flow
type Service struct {
	store  Store
	mailer Mailer
	opts   Options
	log    *zap.Logger
}

// SignupResult reports what Signup did
type SignupResult struct {
	Email  string `json:"email"`
	Resent bool   `json:"resent"`
}

// NewService creates an account service
func NewService(store Store, mailer Mailer, opts Options) *Service {
	if opts.MinPasswordLength <= 0 {
		opts.MinPasswordLength = DefaultOptions().MinPasswordLength
	}
	if opts.GenerateOTP == nil {
		opts.GenerateOTP = randomOTP
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{store: store, mailer: mailer, opts: opts, log: log}
}

// ValidEmail reports whether email belongs to the allowed domain
func (s *Service) ValidEmail(email string) bool {
	if email == "" {
		return false
	}
	if s.opts.AllowedDomain == "" {
		return strings.Contains(email, "@")
	}
	return strings.HasSuffix(strings.ToLower(email), "@"+strings.ToLower(s.opts.AllowedDomain))
}

// Signup registers email or refreshes the OTP of an unverified account.
// The account is persisted before mail is sent, so a delivery error still
// leaves a record that a later signup can resend to.
func (s *Service) Signup(ctx context.Context, email, password string) (*SignupResult, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, errors.Input("email and password are required")
	}
	if !s.ValidEmail(email) {
		return nil, errors.Newf(errors.TypeInput, "only @%s emails are allowed", s.opts.AllowedDomain)
	}
	if len(password) < s.opts.MinPasswordLength {
		return nil, errors.Newf(errors.TypeInput, "password must be at least %d characters long", s.opts.MinPasswordLength)
	}

	otp, err := s.opts.GenerateOTP()
	if err != nil {
		return nil, errors.Internal("failed to generate OTP", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.Internal("failed to hash password", err)
	}

	existing, err := s.store.GetByEmail(ctx, email)
	if err != nil {
		return nil, errors.Internal("failed to look up user", err)
	}

	now := s.opts.Now().UTC()
	result := &SignupResult{Email: email}

	if existing != nil {
		if existing.Verified {
			return nil, errors.Conflict("user already exists and is verified, please log in")
		}
		existing.PasswordHash = string(hash)
		existing.OTP = otp
		existing.UpdatedAt = now
		if err := s.store.Update(ctx, existing); err != nil {
			return nil, errors.Internal("failed to update user", err)
		}
		result.Resent = true
		s.log.Info("OTP refreshed for unverified user", zap.String("email", email))
	} else {
		user := &User{
			ID:           uuid.New(),
			Email:        email,
			PasswordHash: string(hash),
			OTP:          otp,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := s.store.Create(ctx, user); err != nil {
			return nil, errors.Internal("failed to create user", err)
		}
		s.log.Info("user created", zap.String("email", email), zap.String("id", user.ID.String()))
	}

	if err := s.mailer.SendOTP(ctx, email, otp); err != nil {
		s.log.Warn("failed to send OTP", zap.String("email", email), zap.Error(err))
		return result, errors.Delivery("account saved but the OTP email could not be sent, sign up again to resend", err)
	}
	return result, nil
}

// Verify checks otp for email and marks the account verified
func (s *Service) Verify(ctx context.Context, email, otp string) error {
	email = strings.TrimSpace(email)
	otp = strings.TrimSpace(otp)
	if otp == "" {
		return errors.Input("OTP is required")
	}
	if email == "" {
		return errors.Input("email is required")
	}

	user, err := s.store.GetByEmail(ctx, email)
	if err != nil {
		return errors.Internal("failed to look up user", err)
	}
	if user == nil {
		return errors.NotFound("verification record", email)
	}
	if user.Verified {
		return ErrAlreadyVerified
	}
	if user.OTP == "" || user.OTP != otp {
		return ErrInvalidOTP
	}

	user.Verified = true
	user.OTP = ""
	user.UpdatedAt = s.opts.Now().UTC()
	if err := s.store.Update(ctx, user); err != nil {
		return errors.Internal("failed to update user", err)
	}
	s.log.Info("user verified", zap.String("email", email))
	return nil
}

// Login checks credentials. A correct password on an unverified account
// returns the user together with ErrNotVerified.
func (s *Service) Login(ctx context.Context, email, password string) (*User, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, errors.Input("email and password are required")
	}
	if !s.ValidEmail(email) {
		return nil, errors.Newf(errors.TypeInput, "invalid email, must be @%s", s.opts.AllowedDomain)
	}

	user, err := s.store.GetByEmail(ctx, email)
	if err != nil {
		return nil, errors.Internal("failed to look up user", err)
	}
	if user == nil || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.Verified {
		return user, ErrNotVerified
	}

	s.log.Info("user logged in", zap.String("email", email))
	return user, nil
}

// IsVerified reports whether email belongs to a verified account
func (s *Service) IsVerified(ctx context.Context, email string) bool {
	user, err := s.store.GetByEmail(ctx, email)
	if err != nil {
		s.log.Warn("verification lookup failed", zap.String("email", email), zap.Error(err))
		return false
	}
	return user != nil && user.Verified
}

// randomOTP returns a six digit code in [100000, 999999]
func randomOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}
