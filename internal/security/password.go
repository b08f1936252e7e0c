package security

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// PasswordCost is the bcrypt cost for account passwords.
const PasswordCost = 12

const bcryptMaxBytes = 72

var (
	hasLower   = regexp.MustCompile(`[a-z]`)
	hasUpper   = regexp.MustCompile(`[A-Z]`)
	hasDigit   = regexp.MustCompile(`\d`)
	hasSpecial = regexp.MustCompile(`[@$!%*?&]`)
)

// ValidatePasswordStrength returns one message per failed rule, or nil.
func ValidatePasswordStrength(password string) []string {
	var problems []string

	if len(password) < 8 {
		problems = append(problems, "Password must be at least 8 characters long")
	}
	if !hasLower.MatchString(password) {
		problems = append(problems, "Password must contain at least one lowercase letter")
	}
	if !hasUpper.MatchString(password) {
		problems = append(problems, "Password must contain at least one uppercase letter")
	}
	if !hasDigit.MatchString(password) {
		problems = append(problems, "Password must contain at least one number")
	}
	if !hasSpecial.MatchString(password) {
		problems = append(problems, "Password must contain at least one special character (@$!%*?&)")
	}

	return problems
}

// PasswordPolicyMessage joins the failed rules the way clients receive them.
func PasswordPolicyMessage(problems []string) string {
	return strings.Join(problems, ", ")
}

func HashPassword(password string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword(bcryptInput(password), cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func ComparePassword(hash, password string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), bcryptInput(password)) == nil
}

// bcrypt rejects inputs over 72 bytes; longer passwords are digested first.
func bcryptInput(password string) []byte {
	if len(password) <= bcryptMaxBytes {
		return []byte(password)
	}
	sum := sha256.Sum256([]byte(password))
	return []byte(hex.EncodeToString(sum[:]))
}
