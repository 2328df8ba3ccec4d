package admin

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeService struct {
	err error

	role, email, password, name string
	id                          string
	status                      models.PrincipalStatus
	revokeAll                   int
}

func (f *fakeService) CreatePrincipal(_ context.Context, role, email, password, name string) (*models.Principal, error) {
	f.role, f.email, f.password, f.name = role, email, password, name
	if f.err != nil {
		return nil, f.err
	}
	return &models.Principal{ID: "p1", Role: role, Email: email}, nil
}

func (f *fakeService) Verify(_ context.Context, role, email, password string) (*models.Principal, error) {
	f.role, f.email, f.password = role, email, password
	if f.err != nil {
		return nil, f.err
	}
	return &models.Principal{ID: "p1"}, nil
}

func (f *fakeService) SetStatus(_ context.Context, id string, status models.PrincipalStatus) error {
	f.id, f.status = id, status
	return f.err
}

func (f *fakeService) RevokeAll(_ context.Context, id string) error {
	f.id = id
	f.revokeAll++
	return f.err
}

func stubPassword(t *testing.T, pw string, err error) {
	t.Helper()
	orig := readPassword
	readPassword = func(int) ([]byte, error) { return []byte(pw), err }
	t.Cleanup(func() { readPassword = orig })
}

func run(t *testing.T, svc Service, args ...string) (int, string) {
	t.Helper()
	var out bytes.Buffer
	code := NewApp(svc, &out).Run(context.Background(), args)
	return code, out.String()
}

func TestCreate(t *testing.T) {
	stubPassword(t, "Secret123!", nil)
	f := &fakeService{}

	code, out := run(t, f, "create", "-role", "member", "-email", "a@x.com", "-name", "Ann", "-d", "postgres://ignored")
	require.Equal(t, 0, code, out)

	assert.Equal(t, "member", f.role)
	assert.Equal(t, "a@x.com", f.email)
	assert.Equal(t, "Secret123!", f.password)
	assert.Equal(t, "Ann", f.name)
	assert.Contains(t, out, "id=p1")
}

func TestCreate_MissingFlags(t *testing.T) {
	stubPassword(t, "Secret123!", nil)
	f := &fakeService{}

	code, out := run(t, f, "create", "-role", "member")
	assert.Equal(t, 1, code)
	assert.Contains(t, out, "-email is required")
	assert.Empty(t, f.role)
}

func TestCreate_PasswordReadError(t *testing.T) {
	stubPassword(t, "", errors.New("not a terminal"))

	code, out := run(t, &fakeService{}, "create", "-role", "member", "-email", "a@x.com")
	assert.Equal(t, 1, code)
	assert.Contains(t, out, "not a terminal")
}

func TestVerify(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantOut  string
	}{
		{"ok", nil, 0, "password ok id=p1"},
		{"not active", common.ErrAccountNotActive, 0, "account is not active"},
		{"bad password", common.ErrInvalidCredentials, 1, "invalid credentials"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stubPassword(t, "pw", nil)
			code, out := run(t, &fakeService{err: tt.err}, "verify", "-role", "member", "-email", "a@x.com")
			assert.Equal(t, tt.wantCode, code)
			assert.Contains(t, out, tt.wantOut)
		})
	}
}

func TestStatusCommands(t *testing.T) {
	tests := []struct {
		cmd  string
		want models.PrincipalStatus
	}{
		{"ban", models.StatusSuspended},
		{"unban", models.StatusActive},
		{"delete", models.StatusDeleted},
	}

	for _, tt := range tests {
		t.Run(tt.cmd, func(t *testing.T) {
			f := &fakeService{}
			code, _ := run(t, f, tt.cmd, "-id", "p1")
			require.Equal(t, 0, code)
			assert.Equal(t, "p1", f.id)
			assert.Equal(t, tt.want, f.status)
		})
	}
}

func TestRevokeAll(t *testing.T) {
	f := &fakeService{}
	code, out := run(t, f, "revoke-all", "-id", "p1")
	require.Equal(t, 0, code)
	assert.Equal(t, 1, f.revokeAll)
	assert.Contains(t, out, "sessions revoked p1")

	f = &fakeService{err: common.ErrorInternal}
	code, _ = run(t, f, "revoke-all", "-id", "p1")
	assert.Equal(t, 1, code)
}

func TestUnknownCommand(t *testing.T) {
	code, out := run(t, &fakeService{})
	assert.Equal(t, 2, code)
	assert.Contains(t, out, "commands: ban, create, delete, revoke-all, unban, verify")

	code, _ = run(t, &fakeService{}, "frobnicate")
	assert.Equal(t, 2, code)
}
