package helpers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("supersecret")
	require.NoError(t, err)
	assert.NotEqual(t, "supersecret", hash)

	assert.True(t, CompareHashAndPassword(hash, "supersecret"))
	assert.False(t, CompareHashAndPassword(hash, "supersecre"))
	assert.False(t, CompareHashAndPassword("not-a-hash", "supersecret"))
}

func TestHashPasswordSalted(t *testing.T) {
	a, err := HashPassword("supersecret")
	require.NoError(t, err)
	b, err := HashPassword("supersecret")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}
