package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("Aa1!aaaa")
	require.NoError(t, err)
	assert.NotEqual(t, "Aa1!aaaa", hash)

	assert.True(t, VerifyPassword("Aa1!aaaa", hash))
	assert.False(t, VerifyPassword("wrong-password", hash))
}

func TestHashPasswordProducesDistinctDigests(t *testing.T) {
	h1, err := HashPassword("Aa1!aaaa")
	require.NoError(t, err)
	h2, err := HashPassword("Aa1!aaaa")
	require.NoError(t, err)

	// bcrypt salts per call
	assert.NotEqual(t, h1, h2)
}
