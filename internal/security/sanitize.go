package security

import (
	"regexp"
	"strings"
)

var htmlEscaper = strings.NewReplacer(
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#x27;",
)

var (
	emailShape      = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	emailDisallowed = regexp.MustCompile(`[^a-z0-9@._-]`)
)

// SanitizeInput HTML-escapes angle brackets and quotes, then trims
// surrounding whitespace. Apply it once per field: an already escaped value
// is left as is, but raw characters are always escaped again.
func SanitizeInput(s string) string {
	return strings.TrimSpace(htmlEscaper.Replace(s))
}

// SanitizeEmail lower-cases and trims s and drops every character outside
// [a-z0-9@._-].
func SanitizeEmail(s string) string {
	lowered := strings.ToLower(strings.TrimSpace(s))
	return emailDisallowed.ReplaceAllString(lowered, "")
}

// IsEmailShaped reports whether s looks like local@domain.tld.
func IsEmailShaped(s string) bool {
	return emailShape.MatchString(s)
}

// SanitizeString picks SanitizeEmail for email-shaped values and
// SanitizeInput for everything else.
func SanitizeString(s string) string {
	if IsEmailShaped(strings.TrimSpace(s)) {
		return SanitizeEmail(s)
	}
	return SanitizeInput(s)
}

// SanitizeValue walks decoded JSON (maps, slices, strings) and returns a copy
// with every string value sanitized. Keys and non-string scalars are kept.
func SanitizeValue(v any) any {
	switch typed := v.(type) {
	case string:
		return SanitizeString(typed)
	case map[string]any:
		out := make(map[string]any, len(typed))
		for key, value := range typed {
			out[key] = SanitizeValue(value)
		}
		return out
	case []any:
		out := make([]any, len(typed))
		for i, value := range typed {
			out[i] = SanitizeValue(value)
		}
		return out
	default:
		return v
	}
}
