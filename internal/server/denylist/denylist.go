// Package denylist rejects access tokens before their natural expiry.
//
// Three kinds of entries exist: a single token identified by its jti, a
// revoked session whose tokens all carry its id in the sid claim, and a
// per-principal marker that invalidates every token issued before it.
package denylist

import (
	"context"
	"time"
)

// TokenRef identifies a presented access token.
type TokenRef struct {
	ID          string
	SessionID   string
	PrincipalID string
	IssuedAt    time.Time
}

// Denylist is consulted on every authenticated request.
type Denylist interface {
	// DenyToken rejects the token with the given jti until expiresAt.
	DenyToken(ctx context.Context, jti string, expiresAt time.Time) error
	// DenySessions rejects every token bound to one of sessionIDs for ttl,
	// which should cover the longest access lifetime.
	DenySessions(ctx context.Context, sessionIDs []string, ttl time.Duration) error
	// DenyPrincipal rejects tokens of principalID issued before at. The
	// marker has one-second precision and is kept for ttl.
	DenyPrincipal(ctx context.Context, principalID string, at time.Time, ttl time.Duration) error
	// Denied reports whether a token is rejected by any kind of entry.
	Denied(ctx context.Context, t TokenRef) (bool, error)
}

// Nop is used when no Redis is configured. Nothing is ever denied.
type Nop struct{}

func (Nop) DenyToken(context.Context, string, time.Time) error { return nil }

func (Nop) DenySessions(context.Context, []string, time.Duration) error { return nil }

func (Nop) DenyPrincipal(context.Context, string, time.Time, time.Duration) error { return nil }

func (Nop) Denied(context.Context, TokenRef) (bool, error) { return false, nil }
