// Package session keeps live admin sessions and pending second-factor
// challenges in redis.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	ErrSessionNotFound   = errors.New("session not found or expired")
	ErrChallengeNotFound = errors.New("second factor challenge not found or expired")
)

// Store is a redis-backed session registry.
type Store struct {
	client *redis.Client
	prefix string
}

// NewStore returns a Store using keys under prefix.
func NewStore(client *redis.Client, prefix string) *Store {
	if prefix == "" {
		prefix = "console"
	}
	return &Store{client: client, prefix: prefix}
}

func (s *Store) sessionKey(id string) string {
	return fmt.Sprintf("%s:session:%s", s.prefix, id)
}

func (s *Store) adminKey(adminID uuid.UUID) string {
	return fmt.Sprintf("%s:admin:%s:sessions", s.prefix, adminID)
}

func (s *Store) challengeKey(id string) string {
	return fmt.Sprintf("%s:2fa:%s", s.prefix, id)
}

// createScript stores a session and indexes it under its admin. The index
// TTL only ever grows so it outlives every session it lists.
var createScript = redis.NewScript(`
redis.call('SET', KEYS[1], ARGV[1], 'PX', ARGV[3])
redis.call('SADD', KEYS[2], ARGV[2])
local ttl = redis.call('PTTL', KEYS[2])
if ttl < tonumber(ARGV[3]) then
	redis.call('PEXPIRE', KEYS[2], ARGV[3])
end
return 1
`)

// Create registers a session that expires after ttl and returns its id.
func (s *Store) Create(ctx context.Context, adminID uuid.UUID, ttl time.Duration) (string, error) {
	id := uuid.NewString()
	keys := []string{s.sessionKey(id), s.adminKey(adminID)}
	if err := createScript.Run(ctx, s.client, keys, adminID.String(), id, ttl.Milliseconds()).Err(); err != nil {
		return "", fmt.Errorf("session: create: %w", err)
	}
	return id, nil
}

// Validate returns the admin owning a live session.
func (s *Store) Validate(ctx context.Context, sessionID string) (uuid.UUID, error) {
	raw, err := s.client.Get(ctx, s.sessionKey(sessionID)).Result()
	if errors.Is(err, redis.Nil) {
		return uuid.Nil, ErrSessionNotFound
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("session: get: %w", err)
	}
	adminID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, ErrSessionNotFound
	}
	return adminID, nil
}

// Revoke ends a single session.
func (s *Store) Revoke(ctx context.Context, sessionID string) error {
	adminID, err := s.Validate(ctx, sessionID)
	if errors.Is(err, ErrSessionNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, s.sessionKey(sessionID))
	pipe.SRem(ctx, s.adminKey(adminID), sessionID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("session: revoke: %w", err)
	}
	return nil
}

// RevokeAll ends every session of the admin.
func (s *Store) RevokeAll(ctx context.Context, adminID uuid.UUID) error {
	ids, err := s.client.SMembers(ctx, s.adminKey(adminID)).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("session: list: %w", err)
	}
	keys := make([]string, 0, len(ids)+1)
	for _, id := range ids {
		keys = append(keys, s.sessionKey(id))
	}
	keys = append(keys, s.adminKey(adminID))
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("session: revoke all: %w", err)
	}
	return nil
}

// RevokeOthers ends every session of the admin except keep.
func (s *Store) RevokeOthers(ctx context.Context, adminID uuid.UUID, keep string) error {
	ids, err := s.client.SMembers(ctx, s.adminKey(adminID)).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("session: list: %w", err)
	}
	for _, id := range ids {
		if id == keep {
			continue
		}
		if err := s.Revoke(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// CreateChallenge stores a pending second-factor challenge for the admin.
func (s *Store) CreateChallenge(ctx context.Context, adminID uuid.UUID, ttl time.Duration) (string, error) {
	id := uuid.NewString()
	if err := s.client.Set(ctx, s.challengeKey(id), adminID.String(), ttl).Err(); err != nil {
		return "", fmt.Errorf("session: create challenge: %w", err)
	}
	return id, nil
}

// PeekChallenge returns the admin a challenge belongs to without consuming it.
func (s *Store) PeekChallenge(ctx context.Context, challengeID string) (uuid.UUID, error) {
	raw, err := s.client.Get(ctx, s.challengeKey(challengeID)).Result()
	if errors.Is(err, redis.Nil) {
		return uuid.Nil, ErrChallengeNotFound
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("session: get challenge: %w", err)
	}
	adminID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, ErrChallengeNotFound
	}
	return adminID, nil
}

// ConsumeChallenge deletes the challenge; only one caller can consume it.
func (s *Store) ConsumeChallenge(ctx context.Context, challengeID string) error {
	n, err := s.client.Del(ctx, s.challengeKey(challengeID)).Result()
	if err != nil {
		return fmt.Errorf("session: consume challenge: %w", err)
	}
	if n == 0 {
		return ErrChallengeNotFound
	}
	return nil
}
