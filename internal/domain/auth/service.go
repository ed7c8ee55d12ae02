// Package auth implements the household sign-in: one shared password,
// verified against a bcrypt hash, exchanged for a signed session token in a
// cookie. There are no per-user accounts; members are reference data, not
// principals.
package auth

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const defaultSessionTTL = 30 * 24 * time.Hour

var (
	ErrWrongPassword  = errors.New("wrong password")
	ErrInvalidSession = errors.New("invalid session token")
)

// Service verifies the shared password and mints session tokens.
type Service struct {
	passwordHash []byte
	signingKey   []byte
	sessionTTL   time.Duration
	logger       *slog.Logger
}

// NewService constructs the auth service. passwordHash is the bcrypt hash of
// the shared household password; signingKey signs session tokens.
func NewService(passwordHash, signingKey string, logger *slog.Logger) (*Service, error) {
	if passwordHash == "" {
		return nil, fmt.Errorf("password hash is not configured")
	}
	if len(signingKey) < 16 {
		return nil, fmt.Errorf("signing key must be at least 16 bytes")
	}
	return &Service{
		passwordHash: []byte(passwordHash),
		signingKey:   []byte(signingKey),
		sessionTTL:   defaultSessionTTL,
		logger:       logger,
	}, nil
}

// HashPassword produces the bcrypt hash to store in configuration. Used by
// the hash-password CLI flag, not at request time.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// Login verifies the shared password and returns a signed session token.
func (s *Service) Login(password string) (string, error) {
	if err := bcrypt.CompareHashAndPassword(s.passwordHash, []byte(password)); err != nil {
		s.logger.Warn("failed login attempt")
		return "", ErrWrongPassword
	}

	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   "household",
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.sessionTTL)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.signingKey)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}

	s.logger.Info("household signed in")
	return token, nil
}

// VerifyToken checks a session token's signature and expiry.
func (s *Service) VerifyToken(token string) error {
	parsed, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.signingKey, nil
	})
	if err != nil || !parsed.Valid {
		return ErrInvalidSession
	}
	return nil
}

// SessionTTL reports how long issued sessions stay valid.
func (s *Service) SessionTTL() time.Duration {
	return s.sessionTTL
}
