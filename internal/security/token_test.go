package security

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerators(t *testing.T) {
	t.Parallel()

	assert.Len(t, GenerateSecureToken(0), 64)
	assert.Len(t, GenerateSecureToken(8), 16)
	assert.NotEqual(t, GenerateSecureToken(16), GenerateSecureToken(16))
	assert.Len(t, GenerateSessionID(), 64)
	assert.Regexp(t, regexp.MustCompile(`^ak_\d+_[0-9a-f]{32}$`), GenerateAPIKey())
}

func TestCSRFToken(t *testing.T) {
	t.Parallel()

	token := GenerateCSRFToken()
	assert.True(t, VerifyCSRFToken(token, token))
	assert.False(t, VerifyCSRFToken(token, GenerateCSRFToken()))
	assert.False(t, VerifyCSRFToken("not base64!", token))
	assert.False(t, VerifyCSRFToken("", ""))
}

func TestAPIKeyHash(t *testing.T) {
	t.Parallel()

	key := GenerateAPIKey()
	hash, err := HashAPIKey(key)
	require.NoError(t, err)

	assert.True(t, VerifyAPIKey(key, hash))
	assert.False(t, VerifyAPIKey(key+"x", hash))
}
