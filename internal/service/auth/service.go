// Package auth handles admin sessions for the appointment back office.
// Login is two-step: credentials buy a short-lived verification code, the
// code buys the session token. Pending codes live in Redis with a TTL
// rather than a process-local map, so multiple API instances share state
// and a restart does not strand a half-finished login.
package auth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"

	"github.com/glamparlor/booking-api/internal/config"
	"github.com/glamparlor/booking-api/pkg/auth"
	"github.com/glamparlor/booking-api/pkg/security"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidCode        = errors.New("invalid or expired verification code")
)

const codeLength = 6

type Service struct {
	cfg      config.AdminConfig
	jwt      auth.JWTService
	verifier security.PasswordVerifier
	codes    CodeStore
}

func NewService(cfg config.AdminConfig, jwtSvc auth.JWTService, codes CodeStore) *Service {
	return &Service{
		cfg:      cfg,
		jwt:      jwtSvc,
		verifier: security.NewBcryptVerifier(),
		codes:    codes,
	}
}

// StartLogin checks the admin credentials and issues a verification code
// for out-of-band delivery. No token is minted until the code comes back.
func (s *Service) StartLogin(ctx context.Context, email, password string) (string, error) {
	if subtle.ConstantTimeCompare([]byte(email), []byte(s.cfg.Email)) != 1 {
		return "", ErrInvalidCredentials
	}
	if err := s.verifier.Verify(s.cfg.PasswordHash, password); err != nil {
		return "", ErrInvalidCredentials
	}

	code, err := randomCode(codeLength)
	if err != nil {
		return "", fmt.Errorf("failed to generate verification code: %w", err)
	}
	if err := s.codes.Put(ctx, email, code, s.cfg.VerificationTTL); err != nil {
		return "", fmt.Errorf("failed to store verification code: %w", err)
	}
	return code, nil
}

// CompleteLogin exchanges a pending verification code for a session token.
// The code is consumed whether or not it matches; a wrong guess burns it.
func (s *Service) CompleteLogin(ctx context.Context, email, code string) (string, error) {
	stored, ok, err := s.codes.Take(ctx, email)
	if err != nil {
		return "", fmt.Errorf("failed to read verification code: %w", err)
	}
	if !ok || subtle.ConstantTimeCompare([]byte(stored), []byte(code)) != 1 {
		return "", ErrInvalidCode
	}

	token, err := s.jwt.GenerateToken(email)
	if err != nil {
		return "", fmt.Errorf("failed to issue token: %w", err)
	}
	return token, nil
}

// ValidateToken verifies a session token and returns the admin email.
func (s *Service) ValidateToken(token string) (string, error) {
	claims, err := s.jwt.ValidateToken(token)
	if err != nil {
		return "", err
	}
	return claims.Email, nil
}

func randomCode(n int) (string, error) {
	const digits = "0123456789"
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i := range buf {
		buf[i] = digits[int(buf[i])%len(digits)]
	}
	return string(buf), nil
}
