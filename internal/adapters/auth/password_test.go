package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBcryptHasher(t *testing.T) {
	hasher := NewBcryptHasher(4) // minimum cost to keep tests fast

	hash, err := hasher.Hash("correct horse battery staple")
	require.NoError(t, err)

	// Stored credential must never equal the plaintext input.
	assert.NotEqual(t, "correct horse battery staple", hash)

	require.NoError(t, hasher.Compare(hash, "correct horse battery staple"))
	require.Error(t, hasher.Compare(hash, "wrong password"))
}
