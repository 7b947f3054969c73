package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"bookreview/internal/cache"
)

const revokedTokenKeyPrefix = "revoked:token:"

// TokenStoreInterface defines the interface for token revocation.
type TokenStoreInterface interface {
	RevokeToken(ctx context.Context, token string, ttl time.Duration) error
	IsTokenRevoked(ctx context.Context, token string) (bool, error)
}

// TokenStore keeps revoked bearer tokens in Redis until they would have expired anyway.
type TokenStore struct {
	cache *cache.Client
}

// Ensure TokenStore implements TokenStoreInterface
var _ TokenStoreInterface = (*TokenStore)(nil)

// NewTokenStore creates a new token store.
func NewTokenStore(cache *cache.Client) *TokenStore {
	return &TokenStore{cache: cache}
}

// RevokeToken marks a token as revoked for ttl.
func (s *TokenStore) RevokeToken(ctx context.Context, token string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return s.cache.Set(ctx, revokedTokenKey(token), []byte("1"), ttl)
}

// IsTokenRevoked checks if a token was revoked.
func (s *TokenStore) IsTokenRevoked(ctx context.Context, token string) (bool, error) {
	data, err := s.cache.Get(ctx, revokedTokenKey(token))
	if err != nil {
		return false, nil // Not revoked if error (fail safe)
	}
	return data != nil, nil
}

// Tokens are keyed by digest so raw credentials never sit in Redis.
func revokedTokenKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return revokedTokenKeyPrefix + hex.EncodeToString(sum[:])
}
