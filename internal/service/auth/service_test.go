package auth

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/glamparlor/booking-api/internal/config"
	"github.com/glamparlor/booking-api/pkg/auth"
)

// memoryCodeStore is a map-backed CodeStore double. TTL expiry is not
// simulated; Redis owns that in production.
type memoryCodeStore struct {
	mu    sync.Mutex
	codes map[string]string
}

func newMemoryCodeStore() *memoryCodeStore {
	return &memoryCodeStore{codes: make(map[string]string)}
}

func (s *memoryCodeStore) Put(ctx context.Context, email, code string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.codes[email] = code
	return nil
}

func (s *memoryCodeStore) Take(ctx context.Context, email string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	code, ok := s.codes[email]
	delete(s.codes, email)
	return code, ok, nil
}

const adminEmail = "owner@glamparlor.example"

func newTestService(t *testing.T, codes CodeStore) *Service {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("opensesame"), bcrypt.MinCost)
	require.NoError(t, err)

	cfg := config.AdminConfig{
		Email:           adminEmail,
		PasswordHash:    string(hash),
		VerificationTTL: 10 * time.Minute,
	}
	jwtSvc := auth.NewJWTService("test-secret", time.Hour, "booking-api")
	return NewService(cfg, jwtSvc, codes)
}

func TestStartLoginWrongCredentials(t *testing.T) {
	codes := newMemoryCodeStore()
	svc := newTestService(t, codes)

	_, err := svc.StartLogin(context.Background(), "intruder@example.com", "opensesame")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.StartLogin(context.Background(), adminEmail, "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	assert.Empty(t, codes.codes, "failed logins must not leave a pending code")
}

func TestLoginRoundTrip(t *testing.T) {
	codes := newMemoryCodeStore()
	svc := newTestService(t, codes)

	code, err := svc.StartLogin(context.Background(), adminEmail, "opensesame")
	require.NoError(t, err)
	require.Len(t, code, 6)

	token, err := svc.CompleteLogin(context.Background(), adminEmail, code)
	require.NoError(t, err)

	email, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, adminEmail, email)
}

func TestCompleteLoginWrongCode(t *testing.T) {
	codes := newMemoryCodeStore()
	svc := newTestService(t, codes)

	code, err := svc.StartLogin(context.Background(), adminEmail, "opensesame")
	require.NoError(t, err)

	_, err = svc.CompleteLogin(context.Background(), adminEmail, "000000")
	assert.ErrorIs(t, err, ErrInvalidCode)

	// The wrong guess consumed the code; the right one no longer works.
	_, err = svc.CompleteLogin(context.Background(), adminEmail, code)
	assert.ErrorIs(t, err, ErrInvalidCode)
}

func TestCompleteLoginCodeSingleUse(t *testing.T) {
	codes := newMemoryCodeStore()
	svc := newTestService(t, codes)

	code, err := svc.StartLogin(context.Background(), adminEmail, "opensesame")
	require.NoError(t, err)

	_, err = svc.CompleteLogin(context.Background(), adminEmail, code)
	require.NoError(t, err)

	_, err = svc.CompleteLogin(context.Background(), adminEmail, code)
	assert.ErrorIs(t, err, ErrInvalidCode)
}

func TestCompleteLoginWithoutPendingCode(t *testing.T) {
	svc := newTestService(t, newMemoryCodeStore())

	_, err := svc.CompleteLogin(context.Background(), adminEmail, "123456")
	assert.ErrorIs(t, err, ErrInvalidCode)
}
