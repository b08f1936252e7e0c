package security

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"
)

const (
	defaultTokenBytes = 32
	apiKeyRandomBytes = 16
	// APIKeyCost is the bcrypt cost used for stored API keys.
	APIKeyCost = 12
)

// crypto/rand.Read never returns an error; it aborts the program instead.
func randomBytes(n int) []byte {
	buf := make([]byte, n)
	_, _ = rand.Read(buf)
	return buf
}

// GenerateSecureToken returns n random bytes, hex encoded. n <= 0 uses 32.
func GenerateSecureToken(n int) string {
	if n <= 0 {
		n = defaultTokenBytes
	}
	return hex.EncodeToString(randomBytes(n))
}

// GenerateAPIKey returns a key of the form ak_<unix millis>_<32 hex chars>.
func GenerateAPIKey() string {
	return fmt.Sprintf("ak_%d_%s", time.Now().UnixMilli(), hex.EncodeToString(randomBytes(apiKeyRandomBytes)))
}

func GenerateSessionID() string {
	return hex.EncodeToString(randomBytes(defaultTokenBytes))
}

func GenerateCSRFToken() string {
	return base64.StdEncoding.EncodeToString(randomBytes(defaultTokenBytes))
}

// VerifyCSRFToken compares two base64 tokens in constant time.
func VerifyCSRFToken(token, expected string) bool {
	a, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return false
	}
	b, err := base64.StdEncoding.DecodeString(expected)
	if err != nil {
		return false
	}
	if len(a) == 0 || len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare(a, b) == 1
}

func HashAPIKey(apiKey string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(apiKey), APIKeyCost)
	if err != nil {
		return "", fmt.Errorf("hash api key: %w", err)
	}
	return string(hash), nil
}

func VerifyAPIKey(apiKey, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(apiKey)) == nil
}
