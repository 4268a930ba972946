// Package session implements the server-side session store. Sessions are
// keyed by an opaque random token carried in a cookie; the token maps to the
// staff member's identity and role in Redis with a sliding TTL.
package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nvoropaev/venue-till/internal/common"
)

const defaultTTL = 12 * time.Hour

// Store persists sessions in Redis.
type Store struct {
	R      *redis.Client
	TTL    time.Duration
	Prefix string
}

// Create stores a new session and returns its token.
func (s *Store) Create(ctx context.Context, info common.SessionInfo) (string, error) {
	if s.R == nil {
		return "", errors.New("session: redis client not configured")
	}
	token, err := generateToken(32)
	if err != nil {
		return "", fmt.Errorf("generate session token: %w", err)
	}
	info.Token = ""
	payload, err := json.Marshal(info)
	if err != nil {
		return "", fmt.Errorf("encode session: %w", err)
	}
	if err := s.R.Set(ctx, s.key(token), payload, s.ttl()).Err(); err != nil {
		return "", fmt.Errorf("store session: %w", err)
	}
	return token, nil
}

// Get resolves a token to its session, refreshing the TTL on hit.
func (s *Store) Get(ctx context.Context, token string) (common.SessionInfo, bool, error) {
	if s.R == nil || token == "" {
		return common.SessionInfo{}, false, nil
	}
	payload, err := s.R.Get(ctx, s.key(token)).Bytes()
	if errors.Is(err, redis.Nil) {
		return common.SessionInfo{}, false, nil
	}
	if err != nil {
		return common.SessionInfo{}, false, fmt.Errorf("load session: %w", err)
	}
	var info common.SessionInfo
	if err := json.Unmarshal(payload, &info); err != nil {
		return common.SessionInfo{}, false, fmt.Errorf("decode session: %w", err)
	}
	info.Token = token
	_ = s.R.Expire(ctx, s.key(token), s.ttl()).Err()
	return info, true, nil
}

// Delete removes the session for the given token.
func (s *Store) Delete(ctx context.Context, token string) error {
	if s.R == nil || token == "" {
		return nil
	}
	return s.R.Del(ctx, s.key(token)).Err()
}

func (s *Store) key(token string) string {
	prefix := s.Prefix
	if prefix == "" {
		prefix = "session:"
	}
	return prefix + token
}

func (s *Store) ttl() time.Duration {
	if s.TTL <= 0 {
		return defaultTTL
	}
	return s.TTL
}

func generateToken(length int) (string, error) {
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
