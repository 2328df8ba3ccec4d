package denylist

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	tokenKeyPrefix     = "denylist:token:"
	sessionKeyPrefix   = "denylist:session:"
	principalKeyPrefix = "denylist:principal:"

	defaultTTL = 24 * time.Hour
)

// Redis stores entries as expiring keys so the set never outgrows the
// tokens it guards.
type Redis struct {
	client *redis.Client
	now    func() time.Time
}

// NewRedis wraps an existing client.
func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client, now: time.Now}
}

// Ping checks connectivity; the server calls it once at startup.
func (r *Redis) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

func (r *Redis) DenyToken(ctx context.Context, jti string, expiresAt time.Time) error {
	ttl := expiresAt.Sub(r.now())
	if ttl <= 0 || jti == "" {
		return nil
	}
	if err := r.client.Set(ctx, tokenKeyPrefix+jti, "1", ttl).Err(); err != nil {
		return fmt.Errorf("deny token: %w", err)
	}
	return nil
}

func (r *Redis) DenySessions(ctx context.Context, sessionIDs []string, ttl time.Duration) error {
	if len(sessionIDs) == 0 {
		return nil
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}
	_, err := r.client.Pipelined(ctx, func(p redis.Pipeliner) error {
		for _, id := range sessionIDs {
			p.Set(ctx, sessionKeyPrefix+id, "1", ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("deny sessions: %w", err)
	}
	return nil
}

func (r *Redis) DenyPrincipal(ctx context.Context, principalID string, at time.Time, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	if err := r.client.Set(ctx, principalKeyPrefix+principalID, at.Unix(), ttl).Err(); err != nil {
		return fmt.Errorf("deny principal: %w", err)
	}
	return nil
}

func (r *Redis) Denied(ctx context.Context, t TokenRef) (bool, error) {
	var keys []string
	if t.ID != "" {
		keys = append(keys, tokenKeyPrefix+t.ID)
	}
	if t.SessionID != "" {
		keys = append(keys, sessionKeyPrefix+t.SessionID)
	}
	if len(keys) > 0 {
		n, err := r.client.Exists(ctx, keys...).Result()
		if err != nil {
			return false, fmt.Errorf("check token: %w", err)
		}
		if n > 0 {
			return true, nil
		}
	}

	marker, err := r.client.Get(ctx, principalKeyPrefix+t.PrincipalID).Int64()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check principal: %w", err)
	}

	return t.IssuedAt.Unix() < marker, nil
}
