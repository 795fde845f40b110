package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHashPassword_RoundTrip(t *testing.T) {
	hash, err := HashPassword("secret123", 4)
	assert.NoError(t, err)
	assert.NotEmpty(t, hash)
	assert.NotEqual(t, "secret123", hash)

	assert.True(t, CheckPassword("secret123", hash))
	assert.False(t, CheckPassword("secret124", hash))
	assert.False(t, CheckPassword("", hash))
}

func TestHashPassword_SaltedPerPassword(t *testing.T) {
	hash1, err := HashPassword("secret123", 4)
	assert.NoError(t, err)
	hash2, err := HashPassword("secret123", 4)
	assert.NoError(t, err)

	// Same plaintext, different salts, different digests.
	assert.NotEqual(t, hash1, hash2)
	assert.True(t, CheckPassword("secret123", hash1))
	assert.True(t, CheckPassword("secret123", hash2))
}

func TestHashPassword_DefaultCost(t *testing.T) {
	hash, err := HashPassword("secret123", 0)
	assert.NoError(t, err)
	assert.True(t, CheckPassword("secret123", hash))
}

func TestCheckPassword_MalformedDigest(t *testing.T) {
	// Never panics or errors, just false.
	assert.False(t, CheckPassword("secret123", ""))
	assert.False(t, CheckPassword("secret123", "not-a-bcrypt-digest"))
	assert.False(t, CheckPassword("secret123", "$2a$garbage"))
}

func TestGenerateRefreshTokenValue(t *testing.T) {
	value1, err := GenerateRefreshTokenValue()
	assert.NoError(t, err)
	assert.NotEmpty(t, value1)

	value2, err := GenerateRefreshTokenValue()
	assert.NoError(t, err)
	assert.NotEqual(t, value1, value2)

	// 48 random bytes, base64url without padding.
	assert.Equal(t, 64, len(value1))
}
