// Package services contains server-side business logic. AuthService is the
// role-generic principal auth flow: credential verification, token issuing,
// session recording, refresh-token rotation and revocation.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/cryptox"
	"github.com/dmitrijs2005/authkeeper/internal/dbx"
	"github.com/dmitrijs2005/authkeeper/internal/logging"
	"github.com/dmitrijs2005/authkeeper/internal/server/auth"
	"github.com/dmitrijs2005/authkeeper/internal/server/config"
	"github.com/dmitrijs2005/authkeeper/internal/server/denylist"
	"github.com/dmitrijs2005/authkeeper/internal/server/models"
	"github.com/dmitrijs2005/authkeeper/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// dummyPassword is hashed once at startup; verifying against it keeps the
// timing of unknown-identifier logins close to that of known ones.
const dummyPassword = "authkeeper-timing-equalizer"

// Deps are the collaborators of AuthService.
type Deps struct {
	DB       dbx.DBTX
	Tx       dbx.Transactor
	Repos    repomanager.RepositoryManager
	Issuer   *auth.Issuer
	Hasher   cryptox.PasswordHasher
	Denylist denylist.Denylist
	Config   *config.Config
	Logger   logging.Logger
}

// AuthService is safe for concurrent use; it holds no mutable state.
type AuthService struct {
	db        dbx.DBTX
	tx        dbx.Transactor
	repos     repomanager.RepositoryManager
	issuer    *auth.Issuer
	hasher    cryptox.PasswordHasher
	denylist  denylist.Denylist
	cfg       *config.Config
	log       logging.Logger
	now       func() time.Time
	newID     func() string
	dummyHash string
}

// NewAuthService validates deps and precomputes the timing-equalizer hash.
func NewAuthService(d Deps) (*AuthService, error) {
	if d.DB == nil || d.Tx == nil || d.Repos == nil || d.Issuer == nil || d.Hasher == nil || d.Config == nil {
		return nil, errors.New("auth service: missing dependency")
	}
	if d.Denylist == nil {
		d.Denylist = denylist.Nop{}
	}
	if d.Logger == nil {
		d.Logger = logging.Nop{}
	}

	dummy, err := d.Hasher.Hash(dummyPassword)
	if err != nil {
		return nil, fmt.Errorf("auth service: %w", err)
	}

	return &AuthService{
		db:        d.DB,
		tx:        d.Tx,
		repos:     d.Repos,
		issuer:    d.Issuer,
		hasher:    d.Hasher,
		denylist:  d.Denylist,
		cfg:       d.Config,
		log:       d.Logger.With("module", "auth"),
		now:       time.Now,
		newID:     uuid.NewString,
		dummyHash: dummy,
	}, nil
}

// Join registers a principal of role and opens its first session.
func (s *AuthService) Join(ctx context.Context, role, email, password, displayName string, meta models.ClientMeta) (*models.Authorized, error) {
	p, err := s.newPrincipal(role, email, password, displayName)
	if err != nil {
		return nil, err
	}

	var result *models.Authorized
	err = s.tx.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		created, err := s.repos.Principals(tx).Create(ctx, p)
		if err != nil {
			return err
		}
		result, err = s.startSession(ctx, tx, created, meta)
		return err
	})
	if err != nil {
		if errors.Is(err, common.ErrDuplicateIdentifier) {
			return nil, common.ErrDuplicateIdentifier
		}
		return nil, s.internal(ctx, "join", err)
	}

	s.log.Info(ctx, "principal joined", "principal_id", result.Principal.ID, "role", role)
	return result, nil
}

// CreatePrincipal registers a principal without opening a session.
func (s *AuthService) CreatePrincipal(ctx context.Context, role, email, password, displayName string) (*models.Principal, error) {
	p, err := s.newPrincipal(role, email, password, displayName)
	if err != nil {
		return nil, err
	}

	created, err := s.repos.Principals(s.db).Create(ctx, p)
	if err != nil {
		if errors.Is(err, common.ErrDuplicateIdentifier) {
			return nil, common.ErrDuplicateIdentifier
		}
		return nil, s.internal(ctx, "create principal", err)
	}

	s.log.Info(ctx, "principal created", "principal_id", created.ID, "role", role)
	return created, nil
}

func (s *AuthService) newPrincipal(role, email, password, displayName string) (*models.Principal, error) {
	if err := s.checkRole(role); err != nil {
		return nil, err
	}
	email = models.NormalizeEmail(email)
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, common.ErrorInternal
	}

	return &models.Principal{
		Role:         role,
		Email:        email,
		PasswordHash: hash,
		DisplayName:  displayName,
		Status:       models.StatusActive,
	}, nil
}

// Verify checks credentials. Unknown identifiers and wrong passwords are
// indistinguishable (common.ErrInvalidCredentials); a correct password of a
// non-active principal yields common.ErrAccountNotActive.
func (s *AuthService) Verify(ctx context.Context, role, email, password string) (*models.Principal, error) {
	if err := s.checkRole(role); err != nil {
		return nil, common.ErrInvalidCredentials
	}

	p, err := s.repos.Principals(s.db).GetByEmail(ctx, role, models.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			_, _ = s.hasher.Verify(password, s.dummyHash)
			return nil, common.ErrInvalidCredentials
		}
		return nil, s.internal(ctx, "verify", err)
	}

	ok, err := s.hasher.Verify(password, p.PasswordHash)
	if err != nil {
		return nil, s.internal(ctx, "verify", err)
	}
	if !ok {
		return nil, common.ErrInvalidCredentials
	}
	if !p.Active() {
		return nil, common.ErrAccountNotActive
	}

	return p, nil
}

// Login verifies credentials and opens a new session.
func (s *AuthService) Login(ctx context.Context, role, email, password string, meta models.ClientMeta) (*models.Authorized, error) {
	p, err := s.Verify(ctx, role, email, password)
	if err != nil {
		return nil, err
	}

	result, err := s.startSession(ctx, s.db, p, meta)
	if err != nil {
		return nil, s.internal(ctx, "login", err)
	}

	s.log.Info(ctx, "principal logged in", "principal_id", p.ID, "role", role)
	return result, nil
}

// startSession issues a token pair bound to a new session id and records
// the session.
func (s *AuthService) startSession(ctx context.Context, db dbx.DBTX, p *models.Principal, meta models.ClientMeta) (*models.Authorized, error) {
	sessionID := s.newID()

	issued, err := s.issuer.Issue(p.ID, p.Role, sessionID, nil)
	if err != nil {
		return nil, fmt.Errorf("issue tokens: %w", err)
	}

	session := &models.Session{
		ID:               sessionID,
		PrincipalID:      p.ID,
		Role:             p.Role,
		RefreshTokenHash: cryptox.HashToken(issued.Refresh),
		UserAgent:        meta.UserAgent,
		IPAddress:        meta.IPAddress,
		ExpiresAt:        issued.RefreshExpiresAt,
	}
	if err := s.repos.Sessions(db).Create(ctx, session); err != nil {
		return nil, fmt.Errorf("record session: %w", err)
	}

	return authorized(p, issued), nil
}

func authorized(p *models.Principal, issued *auth.Issued) *models.Authorized {
	return &models.Authorized{
		Principal: p,
		Token: models.TokenPair{
			IssuedAt:         issued.IssuedAt,
			Access:           issued.Access,
			Refresh:          issued.Refresh,
			ExpiredAt:        issued.AccessExpiresAt,
			RefreshableUntil: issued.RefreshExpiresAt,
		},
	}
}

// Refresh validates refreshToken against its session and rotates it.
//
// Checks run in order: token signature and type (common.ErrInvalidToken,
// or common.ErrTokenExpired for an expired JWT), session lookup
// (common.ErrInvalidToken), revocation (common.ErrTokenRevoked), session
// expiry (common.ErrTokenExpired) and principal status
// (common.ErrAccountNotActive). The old token stops working on success.
func (s *AuthService) Refresh(ctx context.Context, role, refreshToken string, meta models.ClientMeta) (*models.Authorized, error) {
	claims, err := s.issuer.Parse(refreshToken, auth.TokenRefresh)
	if err != nil {
		return nil, err
	}
	if claims.Role != role {
		return nil, common.ErrInvalidToken
	}

	oldHash := cryptox.HashToken(refreshToken)
	session, err := s.repos.Sessions(s.db).FindByTokenHash(ctx, oldHash)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrInvalidToken
		}
		return nil, s.internal(ctx, "refresh", err)
	}
	if session.ID != claims.SessionID || session.PrincipalID != claims.Subject {
		return nil, common.ErrInvalidToken
	}
	if session.Revoked() {
		s.log.Warn(ctx, "revoked refresh token presented", "principal_id", session.PrincipalID, "session_id", session.ID)
		return nil, common.ErrTokenRevoked
	}
	if session.Expired(s.now()) {
		return nil, common.ErrTokenExpired
	}

	p, err := s.repos.Principals(s.db).GetByID(ctx, session.PrincipalID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrAccountNotActive
		}
		return nil, s.internal(ctx, "refresh", err)
	}
	if !p.Active() {
		return nil, common.ErrAccountNotActive
	}

	issued, err := s.issuer.Issue(p.ID, p.Role, session.ID, nil)
	if err != nil {
		return nil, s.internal(ctx, "refresh", err)
	}

	err = s.tx.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		return s.repos.Sessions(tx).Rotate(ctx, session.ID, oldHash, cryptox.HashToken(issued.Refresh), issued.RefreshExpiresAt, meta)
	})
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrInvalidToken
		}
		return nil, s.internal(ctx, "refresh", err)
	}

	s.log.Info(ctx, "session refreshed", "principal_id", p.ID, "role", role, "session_id", session.ID)
	return authorized(p, issued), nil
}

// Logout revokes the session behind refreshToken. An expired or already
// consumed token is a no-op success. When accessToken is given and belongs
// to the same principal it is deny-listed until it expires.
func (s *AuthService) Logout(ctx context.Context, role, refreshToken, accessToken string) error {
	claims, err := s.issuer.Parse(refreshToken, auth.TokenRefresh)
	switch {
	case errors.Is(err, common.ErrTokenExpired):
		return nil
	case err != nil:
		return err
	}
	if claims.Role != role {
		return common.ErrInvalidToken
	}

	session, err := s.repos.Sessions(s.db).FindByTokenHash(ctx, cryptox.HashToken(refreshToken))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil
		}
		return s.internal(ctx, "logout", err)
	}
	if session.ID != claims.SessionID {
		return common.ErrInvalidToken
	}

	if err := s.Revoke(ctx, session.PrincipalID, session.ID); err != nil {
		return err
	}

	if accessToken != "" {
		if ac, err := s.issuer.Parse(accessToken, auth.TokenAccess); err == nil && ac.Subject == session.PrincipalID {
			if err := s.denylist.DenyToken(ctx, ac.ID, ac.ExpiresAt.Time); err != nil {
				s.log.Warn(ctx, "deny access token failed", "principal_id", session.PrincipalID, "error", err)
			}
		}
	}

	return nil
}

// Revoke ends one session. Revoking an already revoked session succeeds.
func (s *AuthService) Revoke(ctx context.Context, principalID, sessionID string) error {
	n, err := s.repos.Sessions(s.db).Revoke(ctx, principalID, sessionID, s.now())
	if err != nil {
		return s.internal(ctx, "revoke", err)
	}
	if n > 0 {
		s.denySessions(ctx, principalID, []string{sessionID})
		s.log.Info(ctx, "session revoked", "principal_id", principalID, "session_id", sessionID)
	}
	return nil
}

// RevokeAll ends every session of principalID and invalidates access
// tokens issued so far. Repeating it is a no-op success.
func (s *AuthService) RevokeAll(ctx context.Context, principalID string) error {
	now := s.now()
	ids, err := s.repos.Sessions(s.db).RevokeAll(ctx, principalID, now)
	if err != nil {
		return s.internal(ctx, "revoke all", err)
	}
	s.denySessions(ctx, principalID, ids)
	s.denyPrincipal(ctx, principalID, now)

	s.log.Info(ctx, "all sessions revoked", "principal_id", principalID, "count", len(ids))
	return nil
}

// ChangePassword replaces the password after checking the old one, revokes
// every session and returns a fresh pair for the caller.
func (s *AuthService) ChangePassword(ctx context.Context, principalID, oldPassword, newPassword string, meta models.ClientMeta) (*models.Authorized, error) {
	p, err := s.repos.Principals(s.db).GetByID(ctx, principalID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrAccountNotActive
		}
		return nil, s.internal(ctx, "change password", err)
	}
	if !p.Active() {
		return nil, common.ErrAccountNotActive
	}

	ok, err := s.hasher.Verify(oldPassword, p.PasswordHash)
	if err != nil {
		return nil, s.internal(ctx, "change password", err)
	}
	if !ok {
		return nil, common.ErrInvalidCredentials
	}
	if err := validatePassword(newPassword); err != nil {
		return nil, err
	}
	if newPassword == oldPassword {
		return nil, fmt.Errorf("%w: new password must differ from the old one", common.ErrorValidation)
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return nil, s.internal(ctx, "change password", err)
	}

	var (
		result  *models.Authorized
		revoked []string
	)
	err = s.tx.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repos.Principals(tx).UpdatePassword(ctx, p.ID, hash); err != nil {
			return err
		}
		var err error
		if revoked, err = s.repos.Sessions(tx).RevokeAll(ctx, p.ID, s.now()); err != nil {
			return err
		}
		p.PasswordHash = hash
		result, err = s.startSession(ctx, tx, p, meta)
		return err
	})
	if err != nil {
		return nil, s.internal(ctx, "change password", err)
	}

	// The marker spares the new pair, which shares its second; the revoked
	// session ids catch older tokens issued in that same second.
	s.denySessions(ctx, p.ID, revoked)
	s.denyPrincipal(ctx, p.ID, result.Token.IssuedAt)

	s.log.Info(ctx, "password changed", "principal_id", p.ID, "role", p.Role)
	return result, nil
}

// SetStatus moves a principal between active, suspended and deleted.
// Leaving active revokes every session. Deleted is terminal.
func (s *AuthService) SetStatus(ctx context.Context, principalID string, status models.PrincipalStatus) error {
	if !status.Valid() {
		return fmt.Errorf("%w: unknown status %q", common.ErrorValidation, status)
	}

	p, err := s.repos.Principals(s.db).GetByID(ctx, principalID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrorNotFound
		}
		return s.internal(ctx, "set status", err)
	}
	if p.DeletedAt != nil && status != models.StatusDeleted {
		return fmt.Errorf("%w: deleted principals cannot be restored", common.ErrorValidation)
	}

	now := s.now()
	var revoked []string
	err = s.tx.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repos.Principals(tx).UpdateStatus(ctx, p.ID, status); err != nil {
			return err
		}
		if status == models.StatusActive {
			return nil
		}
		var err error
		revoked, err = s.repos.Sessions(tx).RevokeAll(ctx, p.ID, now)
		return err
	})
	if err != nil {
		return s.internal(ctx, "set status", err)
	}

	if status != models.StatusActive {
		s.denySessions(ctx, p.ID, revoked)
		s.denyPrincipal(ctx, p.ID, now)
	}

	s.log.Info(ctx, "principal status changed", "principal_id", p.ID, "role", p.Role, "from", p.Status, "to", status)
	return nil
}

// Principal returns the principal by id.
func (s *AuthService) Principal(ctx context.Context, principalID string) (*models.Principal, error) {
	p, err := s.repos.Principals(s.db).GetByID(ctx, principalID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, s.internal(ctx, "get principal", err)
	}
	return p, nil
}

// Sessions lists the live sessions of principalID, newest first.
func (s *AuthService) Sessions(ctx context.Context, principalID string) ([]*models.Session, error) {
	list, err := s.repos.Sessions(s.db).ListActive(ctx, principalID, s.now())
	if err != nil {
		return nil, s.internal(ctx, "list sessions", err)
	}
	return list, nil
}

// Authenticate validates an access token presented for role, consults the
// deny-list and checks that the principal is still active. Deny-list
// failures reject the token.
func (s *AuthService) Authenticate(ctx context.Context, role, accessToken string) (*auth.Claims, error) {
	claims, err := s.issuer.Parse(accessToken, auth.TokenAccess)
	if err != nil {
		return nil, err
	}
	if claims.Role != role {
		return nil, common.ErrInvalidToken
	}

	var issuedAt time.Time
	if claims.IssuedAt != nil {
		issuedAt = claims.IssuedAt.Time
	}
	denied, err := s.denylist.Denied(ctx, denylist.TokenRef{
		ID:          claims.ID,
		SessionID:   claims.SessionID,
		PrincipalID: claims.Subject,
		IssuedAt:    issuedAt,
	})
	if err != nil {
		return nil, s.internal(ctx, "authenticate", err)
	}
	if denied {
		return nil, common.ErrTokenRevoked
	}

	// status changes take effect at once, with or without a deny-list
	p, err := s.repos.Principals(s.db).GetByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrInvalidToken
		}
		return nil, s.internal(ctx, "authenticate", err)
	}
	if !p.Active() {
		return nil, common.ErrAccountNotActive
	}

	return claims, nil
}

func (s *AuthService) denySessions(ctx context.Context, principalID string, ids []string) {
	if err := s.denylist.DenySessions(ctx, ids, s.cfg.MaxAccessTokenValidity()); err != nil {
		s.log.Warn(ctx, "deny sessions failed", "principal_id", principalID, "error", err)
	}
}

func (s *AuthService) denyPrincipal(ctx context.Context, principalID string, at time.Time) {
	if err := s.denylist.DenyPrincipal(ctx, principalID, at, s.cfg.MaxAccessTokenValidity()); err != nil {
		s.log.Warn(ctx, "deny principal failed", "principal_id", principalID, "error", err)
	}
}

func (s *AuthService) checkRole(role string) error {
	if _, ok := s.cfg.Role(role); !ok {
		return fmt.Errorf("%w: unknown role %q", common.ErrorValidation, role)
	}
	return nil
}

// internal logs err and hides it behind common.ErrorInternal.
func (s *AuthService) internal(ctx context.Context, op string, err error) error {
	s.log.Error(ctx, op+" failed", "error", err)
	return common.ErrorInternal
}
