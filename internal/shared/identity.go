package shared

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrTokenUnknown indicates the presented token does not resolve to a user.
var ErrTokenUnknown = errors.New("identity token unknown")

// TokenStore resolves opaque bearer tokens to user ids. Tokens are written by
// the authentication subsystem at login time; this core only resolves and
// revokes them.
type TokenStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewTokenStore constructs a TokenStore.
func NewTokenStore(client *redis.Client, ttl time.Duration) *TokenStore {
	return &TokenStore{client: client, ttl: ttl}
}

// Issue creates a token for the given user and stores it with the configured TTL.
func (s *TokenStore) Issue(ctx context.Context, userID uuid.UUID) (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	token := base64.RawURLEncoding.EncodeToString(buf)
	if err := s.client.Set(ctx, s.redisKey(token), userID.String(), s.ttl).Err(); err != nil {
		return "", err
	}
	return token, nil
}

// Resolve maps a token back to its user id, refreshing the TTL on hit.
func (s *TokenStore) Resolve(ctx context.Context, token string) (uuid.UUID, error) {
	if token == "" {
		return uuid.Nil, ErrTokenUnknown
	}
	raw, err := s.client.GetEx(ctx, s.redisKey(token), s.ttl).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return uuid.Nil, ErrTokenUnknown
		}
		return uuid.Nil, err
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, ErrTokenUnknown
	}
	return id, nil
}

// Revoke deletes a token.
func (s *TokenStore) Revoke(ctx context.Context, token string) error {
	err := s.client.Del(ctx, s.redisKey(token)).Err()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	return err
}

func (s *TokenStore) redisKey(token string) string {
	return "nivra:identity:" + token
}
