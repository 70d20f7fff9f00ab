package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tradesphere/tradesphere-crm/internal/platform/httpx"
)

// TokenStore keeps opaque bearer tokens in Redis with a TTL.
type TokenStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewTokenStore constructs a TokenStore.
func NewTokenStore(client *redis.Client, ttl time.Duration) *TokenStore {
	return &TokenStore{client: client, ttl: ttl}
}

// Issue mints a new opaque token for the actor.
func (s *TokenStore) Issue(ctx context.Context, actor Actor) (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("auth: token entropy: %w", err)
	}
	token := base64.RawURLEncoding.EncodeToString(raw)

	payload, err := json.Marshal(actor)
	if err != nil {
		return "", err
	}
	if err := s.client.Set(ctx, tokenKey(token), payload, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("auth: store token: %w", err)
	}
	return token, nil
}

// Lookup resolves a token back to its actor and refreshes the TTL.
func (s *TokenStore) Lookup(ctx context.Context, token string) (Actor, error) {
	payload, err := s.client.Get(ctx, tokenKey(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Actor{}, httpx.ErrUnauthorized
		}
		return Actor{}, err
	}

	var actor Actor
	if err := json.Unmarshal(payload, &actor); err != nil {
		return Actor{}, httpx.ErrUnauthorized
	}

	_ = s.client.Expire(ctx, tokenKey(token), s.ttl).Err()
	return actor, nil
}

// Revoke drops a token.
func (s *TokenStore) Revoke(ctx context.Context, token string) error {
	return s.client.Del(ctx, tokenKey(token)).Err()
}

func tokenKey(token string) string {
	return "auth:token:" + token
}
