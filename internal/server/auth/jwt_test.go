package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/server/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.SecretKey = "super-secret-for-tests"
	return cfg
}

func newTestIssuer(t *testing.T, now time.Time) *Issuer {
	t.Helper()
	i, err := NewIssuer(testConfig(), WithClock(func() time.Time { return now }))
	require.NoError(t, err)
	return i
}

func TestNewIssuer_ShortSecret(t *testing.T) {
	cfg := testConfig()
	cfg.SecretKey = "k"

	_, err := NewIssuer(cfg)
	require.ErrorIs(t, err, ErrSigningKey)
}

func TestIssueAndParse_Success(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	i := newTestIssuer(t, now)

	issued, err := i.Issue("user-123", "admin", "sess-1", map[string]any{"tenant": "t1"})
	require.NoError(t, err)

	assert.Equal(t, now, issued.IssuedAt)
	assert.Equal(t, now.Add(15*time.Minute), issued.AccessExpiresAt)
	assert.Equal(t, now.Add(7*24*time.Hour), issued.RefreshExpiresAt)
	assert.True(t, issued.AccessExpiresAt.Before(issued.RefreshExpiresAt))

	access, err := i.Parse(issued.Access, TokenAccess)
	require.NoError(t, err)
	assert.Equal(t, "user-123", access.Subject)
	assert.Equal(t, "admin", access.Role)
	assert.Equal(t, "sess-1", access.SessionID)
	assert.Equal(t, "authkeeper", access.Issuer)
	assert.Equal(t, "t1", access.Extra["tenant"])
	assert.NotEmpty(t, access.ID)

	refresh, err := i.Parse(issued.Refresh, TokenRefresh)
	require.NoError(t, err)
	assert.Equal(t, TokenRefresh, refresh.Type)
	assert.Nil(t, refresh.Extra)
}

func TestIssue_DeterministicForSameClockAndID(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	i := newTestIssuer(t, now)
	i.newID = func() string { return "fixed" }

	a, err := i.Issue("u1", "member", "s1", nil)
	require.NoError(t, err)
	b, err := i.Issue("u1", "member", "s1", nil)
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestIssue_ConsecutivePairsDiffer(t *testing.T) {
	i := newTestIssuer(t, time.Now())

	a, err := i.Issue("u1", "member", "s1", nil)
	require.NoError(t, err)
	b, err := i.Issue("u1", "member", "s1", nil)
	require.NoError(t, err)

	assert.NotEqual(t, a.Refresh, b.Refresh)
}

func TestIssue_UnknownRole(t *testing.T) {
	i := newTestIssuer(t, time.Now())

	_, err := i.Issue("u1", "ghost", "s1", nil)
	require.Error(t, err)
}

func TestParse_Errors(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	i := newTestIssuer(t, now)

	issued, err := i.Issue("u1", "member", "s1", nil)
	require.NoError(t, err)

	t.Run("expired", func(t *testing.T) {
		later := newTestIssuer(t, now.Add(31*time.Minute))
		_, err := later.Parse(issued.Access, TokenAccess)
		assert.ErrorIs(t, err, common.ErrTokenExpired)
	})

	t.Run("wrong type", func(t *testing.T) {
		_, err := i.Parse(issued.Access, TokenRefresh)
		assert.ErrorIs(t, err, common.ErrInvalidToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		cfg := testConfig()
		cfg.SecretKey = "another-secret-of-enough-length"
		other, err := NewIssuer(cfg)
		require.NoError(t, err)
		other.now = i.now

		_, err = other.Parse(issued.Access, TokenAccess)
		assert.ErrorIs(t, err, common.ErrInvalidToken)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		cfg := testConfig()
		cfg.Issuer = "someone-else"
		other, err := NewIssuer(cfg)
		require.NoError(t, err)
		other.now = i.now

		_, err = other.Parse(issued.Access, TokenAccess)
		assert.ErrorIs(t, err, common.ErrInvalidToken)
	})

	t.Run("malformed", func(t *testing.T) {
		_, err := i.Parse("not.a.jwt", TokenAccess)
		assert.ErrorIs(t, err, common.ErrInvalidToken)
	})

	t.Run("tampered payload", func(t *testing.T) {
		parts := strings.Split(issued.Access, ".")
		require.Len(t, parts, 3)
		parts[2] = strings.Repeat("A", len(parts[2]))
		_, err := i.Parse(strings.Join(parts, "."), TokenAccess)
		assert.ErrorIs(t, err, common.ErrInvalidToken)
	})

	t.Run("alg none rejected", func(t *testing.T) {
		tok := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    "authkeeper",
				Subject:   "u1",
				ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
			},
			Type: TokenAccess,
		})
		s, err := tok.SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = i.Parse(s, TokenAccess)
		assert.ErrorIs(t, err, common.ErrInvalidToken)
	})
}
