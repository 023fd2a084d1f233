package identity

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	revokedKeyPrefix = "auth:revoked:"
	resetKeyPrefix   = "auth:reset:"
)

// RedisTokenStore keeps revoked token ids and password-reset tokens in Redis.
type RedisTokenStore struct {
	rdb *redis.Client
}

// NewRedisTokenStore creates a token store on rdb.
func NewRedisTokenStore(rdb *redis.Client) *RedisTokenStore {
	return &RedisTokenStore{rdb: rdb}
}

// Revoke marks a token id as revoked until the token would have expired.
func (s *RedisTokenStore) Revoke(ctx context.Context, tokenID string, until time.Time) error {
	ttl := time.Until(until)
	if ttl <= 0 {
		return nil
	}
	if err := s.rdb.Set(ctx, revokedKeyPrefix+tokenID, "1", ttl).Err(); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

// IsRevoked reports whether a token id was revoked.
func (s *RedisTokenStore) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := s.rdb.Exists(ctx, revokedKeyPrefix+tokenID).Result()
	if err != nil {
		return false, fmt.Errorf("check revoked token: %w", err)
	}
	return n > 0, nil
}

// SaveResetToken stores a single-use reset token for userID.
func (s *RedisTokenStore) SaveResetToken(ctx context.Context, token string, userID uuid.UUID, ttl time.Duration) error {
	if err := s.rdb.Set(ctx, resetKeyPrefix+token, userID.String(), ttl).Err(); err != nil {
		return fmt.Errorf("save reset token: %w", err)
	}
	return nil
}

// ConsumeResetToken returns the user a reset token belongs to and deletes it.
func (s *RedisTokenStore) ConsumeResetToken(ctx context.Context, token string) (uuid.UUID, error) {
	val, err := s.rdb.GetDel(ctx, resetKeyPrefix+token).Result()
	if errors.Is(err, redis.Nil) {
		return uuid.Nil, ErrInvalidResetToken
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("consume reset token: %w", err)
	}
	id, err := uuid.Parse(val)
	if err != nil {
		return uuid.Nil, ErrInvalidResetToken
	}
	return id, nil
}

func newResetToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
