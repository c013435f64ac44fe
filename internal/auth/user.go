// Package auth provides user accounts, sessions, and HTTP authentication
// middleware.
package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/slugpad/slugpad/internal/db"
)

// Errors
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountExists      = errors.New("account already exists")
	ErrWeakPassword       = errors.New("password must be at least 8 characters")
	ErrInvalidEmail       = errors.New("invalid email address")
)

// MinPasswordLength is the minimum accepted password length for registration.
const MinPasswordLength = 8

// User represents a user account.
type User struct {
	ID        string
	Email     string
	CreatedAt time.Time
}

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// UserService handles account registration and credential verification.
type UserService struct {
	db     *db.DB
	hasher PasswordHasher
	clock  Clock
}

// NewUserService creates a new user service.
func NewUserService(database *db.DB, hasher PasswordHasher) *UserService {
	return &UserService{
		db:     database,
		hasher: hasher,
		clock:  realClock{},
	}
}

// SetClock replaces the clock used by the service. Intended for testing.
func (s *UserService) SetClock(c Clock) {
	s.clock = c
}

// Register creates a new account with email/password.
// Returns ErrAccountExists when the email is already registered.
func (s *UserService) Register(ctx context.Context, emailAddr, password string) (*User, error) {
	emailAddr = normalizeEmail(emailAddr)
	if !strings.Contains(emailAddr, "@") {
		return nil, ErrInvalidEmail
	}
	if len(password) < MinPasswordLength {
		return nil, ErrWeakPassword
	}

	_, err := s.db.GetUserByEmail(ctx, emailAddr)
	if err == nil {
		return nil, ErrAccountExists
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("check account existence: %w", err)
	}

	passwordHash, err := s.hasher.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := s.clock.Now()
	row := db.UserRow{
		UserID:       uuid.New().String(),
		Email:        emailAddr,
		PasswordHash: passwordHash,
		CreatedAt:    now.Unix(),
	}
	if err := s.db.CreateUser(ctx, row); err != nil {
		if db.IsUniqueViolation(err) {
			return nil, ErrAccountExists
		}
		return nil, fmt.Errorf("create account: %w", err)
	}

	return &User{ID: row.UserID, Email: emailAddr, CreatedAt: now}, nil
}

// VerifyLogin verifies email/password credentials for an existing account.
// Returns ErrInvalidCredentials if the user doesn't exist or the password is
// wrong; the two cases are deliberately indistinguishable.
func (s *UserService) VerifyLogin(ctx context.Context, emailAddr, password string) (*User, error) {
	emailAddr = normalizeEmail(emailAddr)

	row, err := s.db.GetUserByEmail(ctx, emailAddr)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("load account: %w", err)
	}

	if !s.hasher.VerifyPassword(password, row.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	return userFromRow(row), nil
}

// GetByID returns the account with the given user ID.
func (s *UserService) GetByID(ctx context.Context, userID string) (*User, error) {
	row, err := s.db.GetUserByID(ctx, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("load account: %w", err)
	}
	return userFromRow(row), nil
}

func userFromRow(row db.UserRow) *User {
	return &User{
		ID:        row.UserID,
		Email:     row.Email,
		CreatedAt: time.Unix(row.CreatedAt, 0).UTC(),
	}
}

func normalizeEmail(emailAddr string) string {
	return strings.ToLower(strings.TrimSpace(emailAddr))
}
