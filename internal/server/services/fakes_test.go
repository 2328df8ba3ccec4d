package services

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/cryptox"
	"github.com/dmitrijs2005/authkeeper/internal/dbx"
	"github.com/dmitrijs2005/authkeeper/internal/logging"
	"github.com/dmitrijs2005/authkeeper/internal/server/auth"
	"github.com/dmitrijs2005/authkeeper/internal/server/config"
	"github.com/dmitrijs2005/authkeeper/internal/server/denylist"
	"github.com/dmitrijs2005/authkeeper/internal/server/models"
	"github.com/dmitrijs2005/authkeeper/internal/server/repositories/principals"
	"github.com/dmitrijs2005/authkeeper/internal/server/repositories/sessions"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// --- in-memory principals ---

type memPrincipals struct {
	mu   sync.Mutex
	rows map[string]*models.Principal

	getErr error
}

func newMemPrincipals() *memPrincipals {
	return &memPrincipals{rows: map[string]*models.Principal{}}
}

func (m *memPrincipals) Create(_ context.Context, p *models.Principal) (*models.Principal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, r := range m.rows {
		if r.Role == p.Role && r.Email == p.Email && r.DeletedAt == nil {
			return nil, common.ErrDuplicateIdentifier
		}
	}
	now := time.Now()
	p.ID = uuid.NewString()
	p.CreatedAt, p.UpdatedAt = now, now
	cp := *p
	m.rows[p.ID] = &cp
	return p, nil
}

func (m *memPrincipals) GetByEmail(_ context.Context, role, email string) (*models.Principal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.getErr != nil {
		return nil, m.getErr
	}
	for _, r := range m.rows {
		if r.Role == role && r.Email == email && r.DeletedAt == nil {
			cp := *r
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (m *memPrincipals) GetByID(_ context.Context, id string) (*models.Principal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.getErr != nil {
		return nil, m.getErr
	}
	r, ok := m.rows[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *memPrincipals) UpdatePassword(_ context.Context, id, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.rows[id]
	if !ok || r.DeletedAt != nil {
		return common.ErrorNotFound
	}
	r.PasswordHash = hash
	return nil
}

func (m *memPrincipals) UpdateStatus(_ context.Context, id string, status models.PrincipalStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.rows[id]
	if !ok {
		return common.ErrorNotFound
	}
	r.Status = status
	if status == models.StatusDeleted && r.DeletedAt == nil {
		now := time.Now()
		r.DeletedAt = &now
	}
	return nil
}

// --- in-memory sessions ---

type memSessions struct {
	mu   sync.Mutex
	rows map[string]*models.Session

	createErr    error
	beforeRotate func()
}

func newMemSessions() *memSessions {
	return &memSessions{rows: map[string]*models.Session{}}
}

func (m *memSessions) Create(_ context.Context, s *models.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.createErr != nil {
		return m.createErr
	}
	cp := *s
	m.rows[s.ID] = &cp
	return nil
}

func (m *memSessions) FindByTokenHash(_ context.Context, hash string) (*models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, r := range m.rows {
		if r.RefreshTokenHash == hash {
			cp := *r
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (m *memSessions) Rotate(_ context.Context, id, oldHash, newHash string, expiresAt time.Time, meta models.ClientMeta) error {
	if m.beforeRotate != nil {
		m.beforeRotate()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.rows[id]
	if !ok || r.RefreshTokenHash != oldHash || r.RevokedAt != nil {
		return common.ErrorNotFound
	}
	r.RefreshTokenHash = newHash
	r.ExpiresAt = expiresAt
	r.UserAgent = meta.UserAgent
	r.IPAddress = meta.IPAddress
	return nil
}

func (m *memSessions) Revoke(_ context.Context, principalID, sessionID string, at time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.rows[sessionID]
	if !ok || r.PrincipalID != principalID || r.RevokedAt != nil {
		return 0, nil
	}
	r.RevokedAt = &at
	return 1, nil
}

func (m *memSessions) RevokeAll(_ context.Context, principalID string, at time.Time) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var ids []string
	for _, r := range m.rows {
		if r.PrincipalID == principalID && r.RevokedAt == nil {
			t := at
			r.RevokedAt = &t
			ids = append(ids, r.ID)
		}
	}
	return ids, nil
}

func (m *memSessions) ListActive(_ context.Context, principalID string, now time.Time) ([]*models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*models.Session
	for _, r := range m.rows {
		if r.PrincipalID == principalID && r.RevokedAt == nil && r.ExpiresAt.After(now) {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memSessions) live(principalID string) int {
	list, _ := m.ListActive(context.Background(), principalID, time.Time{})
	return len(list)
}

// --- manager, transactor, deny-list ---

type fakeRepoManager struct {
	p *memPrincipals
	s *memSessions
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Principals(dbx.DBTX) principals.Repository    { return m.p }
func (m *fakeRepoManager) Sessions(dbx.DBTX) sessions.Repository        { return m.s }

type inlineTx struct{ calls int }

func (t *inlineTx) WithTx(ctx context.Context, fn func(ctx context.Context, tx dbx.DBTX) error) error {
	t.calls++
	return fn(ctx, nil)
}

type memDenylist struct {
	mu         sync.Mutex
	tokens     map[string]time.Time
	sessions   map[string]bool
	principals map[string]time.Time
	err        error
}

func newMemDenylist() *memDenylist {
	return &memDenylist{tokens: map[string]time.Time{}, sessions: map[string]bool{}, principals: map[string]time.Time{}}
}

func (d *memDenylist) DenySessions(_ context.Context, ids []string, _ time.Duration) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, id := range ids {
		d.sessions[id] = true
	}
	return d.err
}

func (d *memDenylist) DenyToken(_ context.Context, jti string, expiresAt time.Time) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.tokens[jti] = expiresAt
	return d.err
}

func (d *memDenylist) DenyPrincipal(_ context.Context, principalID string, at time.Time, _ time.Duration) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.principals[principalID] = at
	return d.err
}

func (d *memDenylist) Denied(_ context.Context, t denylist.TokenRef) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return false, d.err
	}
	if _, ok := d.tokens[t.ID]; ok {
		return true, nil
	}
	if d.sessions[t.SessionID] {
		return true, nil
	}
	marker, ok := d.principals[t.PrincipalID]
	return ok && t.IssuedAt.Unix() < marker.Unix(), nil
}

// --- service under test ---

type testEnv struct {
	svc      *AuthService
	cfg      *config.Config
	issuer   *auth.Issuer
	p        *memPrincipals
	s        *memSessions
	tx       *inlineTx
	denylist *memDenylist
	clock    time.Time
}

func (e *testEnv) advance(d time.Duration) { e.clock = e.clock.Add(d) }

var meta = models.ClientMeta{UserAgent: "go-test", IPAddress: "127.0.0.1"}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.SecretKey = "service-test-secret-key"

	env := &testEnv{
		cfg:      cfg,
		p:        newMemPrincipals(),
		s:        newMemSessions(),
		tx:       &inlineTx{},
		denylist: newMemDenylist(),
		clock:    time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
	}
	now := func() time.Time { return env.clock }

	issuer, err := auth.NewIssuer(cfg, auth.WithClock(now))
	require.NoError(t, err)
	env.issuer = issuer

	svc, err := NewAuthService(Deps{
		DB:       &sql.DB{},
		Tx:       env.tx,
		Repos:    &fakeRepoManager{p: env.p, s: env.s},
		Issuer:   issuer,
		Hasher:   cryptox.NewArgon2Hasher(cryptox.Argon2Params{Memory: 1024, Iterations: 1, Parallelism: 1}),
		Denylist: env.denylist,
		Config:   cfg,
		Logger:   logging.Nop{},
	})
	require.NoError(t, err)
	svc.now = now
	env.svc = svc

	return env
}
