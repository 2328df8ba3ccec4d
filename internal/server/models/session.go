package models

import "time"

// Session records one issued refresh token. Only the SHA-256 of the token is
// kept. Rows are revoked, never deleted.
type Session struct {
	ID               string
	PrincipalID      string
	Role             string
	RefreshTokenHash string
	UserAgent        string
	IPAddress        string
	ExpiresAt        time.Time
	RevokedAt        *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Revoked reports whether the session was explicitly revoked.
func (s *Session) Revoked() bool {
	return s.RevokedAt != nil
}

// Expired reports whether the session is past its expiry at now.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}

// ClientMeta is what the transport knows about the caller.
type ClientMeta struct {
	UserAgent string
	IPAddress string
}
