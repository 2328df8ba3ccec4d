// Package auth issues and parses the HS256 JWT pairs handed to principals.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/server/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenType discriminates access from refresh tokens via the typ claim.
type TokenType string

const (
	TokenAccess  TokenType = "access"
	TokenRefresh TokenType = "refresh"
)

// ErrSigningKey is returned by NewIssuer for a missing or short secret.
var ErrSigningKey = errors.New("signing key is missing or too short")

// Claims carries the registered claims plus the principal role, the token
// type and the session the token belongs to.
type Claims struct {
	jwt.RegisteredClaims
	Role      string         `json:"role"`
	Type      TokenType      `json:"typ"`
	SessionID string         `json:"sid"`
	Extra     map[string]any `json:"ext,omitempty"`
}

// Issued is the outcome of Issue: both signed strings and their expiries.
type Issued struct {
	IssuedAt         time.Time
	Access           string
	Refresh          string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

// Issuer signs and verifies tokens with a shared secret. It is safe for
// concurrent use.
type Issuer struct {
	secret []byte
	issuer string
	cfg    *config.Config
	now    func() time.Time
	newID  func() string
}

// Option customizes an Issuer.
type Option func(*Issuer)

// WithClock replaces time.Now for both issuing and expiry checks.
func WithClock(now func() time.Time) Option {
	return func(i *Issuer) { i.now = now }
}

// NewIssuer builds an Issuer from the server configuration. It fails when
// the signing secret is unusable, which callers treat as a startup error.
func NewIssuer(cfg *config.Config, opts ...Option) (*Issuer, error) {
	if len(cfg.SecretKey) < config.MinSecretKeyLength {
		return nil, ErrSigningKey
	}
	i := &Issuer{
		secret: []byte(cfg.SecretKey),
		issuer: cfg.Issuer,
		cfg:    cfg,
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i, nil
}

// Issue produces an access/refresh pair for principalID acting as role.
// Both tokens are bound to sessionID through the sid claim.
func (i *Issuer) Issue(principalID, role, sessionID string, extra map[string]any) (*Issued, error) {
	rc, ok := i.cfg.Role(role)
	if !ok {
		return nil, fmt.Errorf("unknown role %q", role)
	}
	if rc.AccessTokenValidityDuration >= rc.RefreshTokenValidityDuration {
		return nil, fmt.Errorf("role %q: access token must expire before refresh token", role)
	}

	now := i.now().Truncate(time.Second)
	accessExp := now.Add(rc.AccessTokenValidityDuration)
	refreshExp := now.Add(rc.RefreshTokenValidityDuration)

	access, err := i.sign(principalID, role, sessionID, TokenAccess, now, accessExp, extra)
	if err != nil {
		return nil, err
	}
	refresh, err := i.sign(principalID, role, sessionID, TokenRefresh, now, refreshExp, nil)
	if err != nil {
		return nil, err
	}

	return &Issued{
		IssuedAt:         now,
		Access:           access,
		Refresh:          refresh,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
	}, nil
}

func (i *Issuer) sign(sub, role, sid string, typ TokenType, iat, exp time.Time, extra map[string]any) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    i.issuer,
			Subject:   sub,
			IssuedAt:  jwt.NewNumericDate(iat),
			ExpiresAt: jwt.NewNumericDate(exp),
			ID:        i.newID(),
		},
		Role:      role,
		Type:      typ,
		SessionID: sid,
		Extra:     extra,
	})

	s, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", typ, err)
	}
	return s, nil
}

// Parse verifies signature, algorithm, issuer, expiry and type of token.
// An expired token yields common.ErrTokenExpired; every other failure
// yields common.ErrInvalidToken.
func (i *Issuer) Parse(token string, typ TokenType) (*Claims, error) {
	claims := &Claims{}

	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(i.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, common.ErrInvalidToken
	}

	if !parsed.Valid || claims.Type != typ || claims.Subject == "" {
		return nil, common.ErrInvalidToken
	}

	return claims, nil
}
