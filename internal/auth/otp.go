package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/meghkala/api/internal/domain"
)

// OTPStore keeps one-time login codes in Redis with a TTL. A code is
// deleted the moment it verifies, so it cannot be replayed.
type OTPStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewOTPStore(client *redis.Client, ttl time.Duration) *OTPStore {
	return &OTPStore{client: client, ttl: ttl}
}

func otpKey(email string) string {
	return "otp:" + email
}

// Issue stores a fresh code for the email, replacing any previous one.
func (s *OTPStore) Issue(ctx context.Context, email, code string) error {
	if err := s.client.Set(ctx, otpKey(email), code, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store code: %w", err)
	}
	return nil
}

// Verify consumes the code for the email. Wrong, expired, or already-used
// codes all return domain.ErrInvalidOTP.
func (s *OTPStore) Verify(ctx context.Context, email, code string) error {
	stored, err := s.client.Get(ctx, otpKey(email)).Result()
	if errors.Is(err, redis.Nil) {
		return domain.ErrInvalidOTP
	}
	if err != nil {
		return fmt.Errorf("failed to read code: %w", err)
	}

	if subtle.ConstantTimeCompare([]byte(stored), []byte(code)) != 1 {
		return domain.ErrInvalidOTP
	}

	if err := s.client.Del(ctx, otpKey(email)).Err(); err != nil {
		return fmt.Errorf("failed to consume code: %w", err)
	}
	return nil
}
