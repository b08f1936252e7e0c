package security

import (
	"regexp"
	"sort"
	"strconv"
)

var sqlInjectionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(SELECT|INSERT|UPDATE|DELETE|DROP|CREATE|ALTER|EXEC|UNION|SCRIPT)\b`),
	regexp.MustCompile("(--|/\\*|\\*/|;|'|\"|`)"),
	regexp.MustCompile(`(?i)(\bOR\b|\bAND\b).*?[=<>]`),
	regexp.MustCompile(`(?i)\b(WAITFOR|DELAY)\b`),
}

var xssPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)<\s*script\b`),
	regexp.MustCompile(`(?i)<\s*iframe\b`),
	regexp.MustCompile(`(?i)javascript\s*:`),
	regexp.MustCompile(`(?i)\bon\w+\s*=`),
	regexp.MustCompile(`(?i)<\s*img\b[^>]*\bsrc\s*=\s*["']?\s*javascript:`),
}

// DetectSQLInjection reports whether s looks like SQL injection. It is a
// heuristic and flags ordinary text containing SQL keywords or quotes.
func DetectSQLInjection(s string) bool {
	return matchesAny(sqlInjectionPatterns, s)
}

// DetectXSS reports whether s contains script-like markup.
func DetectXSS(s string) bool {
	return matchesAny(xssPatterns, s)
}

func matchesAny(patterns []*regexp.Regexp, s string) bool {
	for _, pattern := range patterns {
		if pattern.MatchString(s) {
			return true
		}
	}
	return false
}

type ThreatKind string

const (
	ThreatSQLInjection ThreatKind = "sql_injection"
	ThreatXSS          ThreatKind = "xss"
)

// Threat locates a suspicious string inside a scanned value.
type Threat struct {
	Path string
	Kind ThreatKind
}

// ScanString classifies a single string. Markup is checked first since
// SCRIPT is also an SQL keyword.
func ScanString(s string) (ThreatKind, bool) {
	if DetectXSS(s) {
		return ThreatXSS, true
	}
	if DetectSQLInjection(s) {
		return ThreatSQLInjection, true
	}
	return "", false
}

// ScanValue walks decoded JSON depth first and returns the first string that
// trips a detector. Map keys are visited in sorted order so the reported
// path is stable.
func ScanValue(v any, path string) (Threat, bool) {
	switch typed := v.(type) {
	case string:
		if kind, ok := ScanString(typed); ok {
			return Threat{Path: path, Kind: kind}, true
		}
	case map[string]any:
		keys := make([]string, 0, len(typed))
		for key := range typed {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			if threat, ok := ScanValue(typed[key], joinPath(path, key)); ok {
				return threat, true
			}
		}
	case []any:
		for i, value := range typed {
			if threat, ok := ScanValue(value, path+"["+strconv.Itoa(i)+"]"); ok {
				return threat, true
			}
		}
	}
	return Threat{}, false
}

func joinPath(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}
