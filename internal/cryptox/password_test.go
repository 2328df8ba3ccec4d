package cryptox

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// cheap parameters keep the suite fast
func testHasher() *Argon2Hasher {
	return NewArgon2Hasher(Argon2Params{Memory: 1024, Iterations: 1, Parallelism: 1})
}

func TestArgon2_HashAndVerify(t *testing.T) {
	h := testHasher()

	encoded, err := h.Hash("Secret123!")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(encoded, "$argon2id$v=19$m=1024,t=1,p=1$"), encoded)

	ok, err := h.Verify("Secret123!", encoded)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = h.Verify("secret123!", encoded)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestArgon2_SaltsDiffer(t *testing.T) {
	h := testHasher()

	a, err := h.Hash("same")
	require.NoError(t, err)
	b, err := h.Hash("same")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestArgon2_VerifyUsesParamsFromHash(t *testing.T) {
	old := NewArgon2Hasher(Argon2Params{Memory: 2048, Iterations: 2, Parallelism: 1})
	encoded, err := old.Hash("pw-rotated-params")
	require.NoError(t, err)

	ok, err := testHasher().Verify("pw-rotated-params", encoded)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestVerify_Bcrypt(t *testing.T) {
	legacy, err := bcrypt.GenerateFromPassword([]byte("imported-pw"), bcrypt.MinCost)
	require.NoError(t, err)

	h := testHasher()

	ok, err := h.Verify("imported-pw", string(legacy))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = h.Verify("other", string(legacy))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerify_MalformedHash(t *testing.T) {
	h := testHasher()

	for _, bad := range []string{
		"",
		"plain",
		"$argon2i$v=19$m=1024,t=1,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=18$m=1024,t=1,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=x,t=1,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=1024,t=1,p=1$!!$aGFzaA",
		"$2a$10$short",
	} {
		_, err := h.Verify("pw", bad)
		assert.ErrorIs(t, err, ErrInvalidHash, bad)
	}
}

func TestNewArgon2Hasher_Defaults(t *testing.T) {
	h := NewArgon2Hasher(Argon2Params{})
	assert.Equal(t, DefaultArgon2Params, h.params)
}

func TestHashToken(t *testing.T) {
	a := HashToken("refresh-1")
	assert.Len(t, a, 64)
	assert.Equal(t, a, HashToken("refresh-1"))
	assert.NotEqual(t, a, HashToken("refresh-2"))
}
