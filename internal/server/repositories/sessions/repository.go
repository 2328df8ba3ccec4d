// Package sessions declares the server-side repository contract for the
// records that back issued refresh tokens.
package sessions

import (
	"context"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/server/models"
)

// Repository abstracts persistence of sessions. Rows are never deleted.
type Repository interface {
	// Create inserts a new session row.
	Create(ctx context.Context, s *models.Session) error
	// FindByTokenHash returns the session whose current refresh token hashes
	// to hash, or common.ErrorNotFound.
	FindByTokenHash(ctx context.Context, hash string) (*models.Session, error)
	// Rotate swaps the token hash, expiry and client metadata of a live
	// session, provided it still holds oldHash. It returns
	// common.ErrorNotFound when the swap lost.
	Rotate(ctx context.Context, id, oldHash, newHash string, expiresAt time.Time, meta models.ClientMeta) error
	// Revoke stamps revoked_at on one live session of principalID and
	// reports how many rows changed (0 or 1).
	Revoke(ctx context.Context, principalID, sessionID string, at time.Time) (int64, error)
	// RevokeAll stamps revoked_at on every live session of principalID and
	// returns the ids it revoked.
	RevokeAll(ctx context.Context, principalID string, at time.Time) ([]string, error)
	// ListActive returns unrevoked, unexpired sessions of principalID, newest first.
	ListActive(ctx context.Context, principalID string, now time.Time) ([]*models.Session, error)
}
