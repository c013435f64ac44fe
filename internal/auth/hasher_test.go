package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArgon2HasherRoundtrip(t *testing.T) {
	h := Argon2Hasher{}

	hash, err := h.HashPassword("correct horse battery staple")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$argon2id$v=19$"))

	assert.True(t, h.VerifyPassword("correct horse battery staple", hash))
	assert.False(t, h.VerifyPassword("wrong password", hash))
}

func TestArgon2HasherUniqueSalts(t *testing.T) {
	h := Argon2Hasher{}

	first, err := h.HashPassword("password123")
	require.NoError(t, err)
	second, err := h.HashPassword("password123")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.True(t, h.VerifyPassword("password123", first))
	assert.True(t, h.VerifyPassword("password123", second))
}

func TestArgon2HasherRejectsMalformedHash(t *testing.T) {
	h := Argon2Hasher{}

	for _, bad := range []string{
		"",
		"not-a-hash",
		"$bcrypt$whatever",
		"$argon2id$v=19$m=19456,t=2,p=1$!!!$!!!",
		"$argon2id$v=19$m=oops,t=2,p=1$c2FsdA$aGFzaA",
	} {
		assert.False(t, h.VerifyPassword("password123", bad), "hash %q", bad)
	}
}

func TestFakeInsecureHasher(t *testing.T) {
	h := FakeInsecureHasher{}

	hash, err := h.HashPassword("password123")
	require.NoError(t, err)
	assert.True(t, h.VerifyPassword("password123", hash))
	assert.False(t, h.VerifyPassword("other", hash))
}
