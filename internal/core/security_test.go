// AngelaMos | 2026
// security_test.go

package core

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$2"))

	assert.True(t, VerifyPassword("correct horse battery staple", hash))
	assert.False(t, VerifyPassword("wrong password", hash))
}

func TestVerifyPasswordLegacyUnsalted(t *testing.T) {
	sum := sha256.Sum256([]byte("legacy-password"))
	stored := hex.EncodeToString(sum[:])

	assert.True(t, VerifyPassword("legacy-password", stored))
	assert.False(t, VerifyPassword("other-password", stored))
}

func TestVerifyPasswordLegacySalted(t *testing.T) {
	sum := sha256.Sum256([]byte("pepper42" + "legacy-password"))
	stored := "pepper42$" + hex.EncodeToString(sum[:])

	assert.True(t, VerifyPassword("legacy-password", stored))
	assert.False(t, VerifyPassword("other-password", stored))
}

func TestVerifyPasswordUnrecognizedFormat(t *testing.T) {
	assert.False(t, VerifyPassword("anything", "not-a-hash"))
	assert.False(t, VerifyPassword("anything", ""))
	assert.False(t, VerifyPassword("anything", "salt$nothex"))
}

func TestVerifyPasswordTimingSafe(t *testing.T) {
	hash, err := HashPassword("secret")
	require.NoError(t, err)

	assert.True(t, VerifyPasswordTimingSafe("secret", &hash))
	assert.False(t, VerifyPasswordTimingSafe("wrong", &hash))

	// No stored hash: always false, never a panic.
	assert.False(t, VerifyPasswordTimingSafe("secret", nil))
	empty := ""
	assert.False(t, VerifyPasswordTimingSafe("secret", &empty))
}

func TestNeedsRehash(t *testing.T) {
	hash, err := HashPassword("secret")
	require.NoError(t, err)
	assert.False(t, NeedsRehash(hash))

	sum := sha256.Sum256([]byte("secret"))
	assert.True(t, NeedsRehash(hex.EncodeToString(sum[:])))
	assert.True(t, NeedsRehash("salt$"+hex.EncodeToString(sum[:])))
}

func TestTokenHashing(t *testing.T) {
	hash := HashToken("some-refresh-token")

	assert.Len(t, hash, 64)
	assert.NotEqual(t, "some-refresh-token", hash)
	assert.True(t, CompareTokenHash("some-refresh-token", hash))
	assert.False(t, CompareTokenHash("other-token", hash))
}
