package password_test

import (
	"testing"

	"docflow/internal/auth/password"

	"github.com/alexedwards/argon2id"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestBcryptRoundTrip(t *testing.T) {
	h := password.NewBcrypt(bcrypt.MinCost)

	hash, err := h.Hash("secret123")
	require.NoError(t, err)

	ok, err := h.Verify("secret123", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = h.Verify("wrong", hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerifyAcceptsArgon2idHashes(t *testing.T) {
	params := &argon2id.Params{Memory: 8 * 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}
	encoded, err := argon2id.CreateHash("secret123", params)
	require.NoError(t, err)

	h := password.NewBcrypt(bcrypt.MinCost)
	ok, err := h.Verify("secret123", encoded)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestNewRejectsUnknownAlgorithm(t *testing.T) {
	_, err := password.New("md5")
	assert.Error(t, err)

	h, err := password.New(password.AlgoArgon2id)
	require.NoError(t, err)
	hash, err := h.Hash("pw")
	require.NoError(t, err)
	assert.Contains(t, hash, "$argon2id$")
}
