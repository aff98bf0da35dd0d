package cryptox

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestBcryptHasher_RoundTrip(t *testing.T) {
	t.Parallel()

	h := NewBcryptHasher(bcrypt.MinCost)

	digest, err := h.Hash("Aa1!aaaa")
	require.NoError(t, err)
	assert.NotEqual(t, "Aa1!aaaa", digest)

	assert.True(t, h.Verify("Aa1!aaaa", digest))
	assert.False(t, h.Verify("Aa1!aaab", digest))
	assert.False(t, h.Verify("", digest))
}

func TestBcryptHasher_SaltsEachHash(t *testing.T) {
	t.Parallel()

	h := NewBcryptHasher(bcrypt.MinCost)
	a, err := h.Hash("Secret!Pass")
	require.NoError(t, err)
	b, err := h.Hash("Secret!Pass")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestBcryptHasher_LongPasswords(t *testing.T) {
	t.Parallel()

	h := NewBcryptHasher(bcrypt.MinCost)
	long := "Aa1!" + strings.Repeat("a", 76)

	digest, err := h.Hash(long)
	require.NoError(t, err)
	assert.True(t, h.Verify(long, digest))

	// differs only past byte 72, which bcrypt alone would ignore
	assert.False(t, h.Verify(long[:79]+"b", digest))
	assert.False(t, h.Verify(long[:72], digest))
}

func TestBcryptHasher_ExactlyMaxBytes(t *testing.T) {
	t.Parallel()

	h := NewBcryptHasher(bcrypt.MinCost)
	pw := "A!" + strings.Repeat("z", MaxPasswordBytes-2)

	digest, err := h.Hash(pw)
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(digest), []byte(pw)))
	assert.True(t, h.Verify(pw, digest))
}

func TestBcryptHasher_MalformedDigest(t *testing.T) {
	t.Parallel()

	assert.False(t, NewBcryptHasher(bcrypt.MinCost).Verify("Aa1!aaaa", "not-a-bcrypt-digest"))
}

func TestNewBcryptHasher_CostFallback(t *testing.T) {
	t.Parallel()

	assert.Equal(t, bcrypt.DefaultCost, NewBcryptHasher(0).cost)
	assert.Equal(t, bcrypt.DefaultCost, NewBcryptHasher(99).cost)
	assert.Equal(t, 12, NewBcryptHasher(12).cost)
}
