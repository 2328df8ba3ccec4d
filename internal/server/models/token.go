package models

import "time"

// TokenPair is handed to clients after join, login, refresh or password change.
type TokenPair struct {
	IssuedAt         time.Time
	Access           string
	Refresh          string
	ExpiredAt        time.Time
	RefreshableUntil time.Time
}

// Authorized is a principal together with a freshly issued token pair.
type Authorized struct {
	Principal *Principal
	Token     TokenPair
}
