package secrets

import (
	"strings"
	"unicode"
)

// SensitiveKeyPatterns identifies metadata keys whose values must never be
// persisted or logged in the clear. Matching is case-insensitive substring.
var SensitiveKeyPatterns = []string{
	"SECRET",
	"TOKEN",
	"PASSWORD",
	"API_KEY",
	"APIKEY",
	"PRIVATE_KEY",
	"ACCESS_KEY",
	"CREDENTIAL",
}

// RedactedValue replaces any value stored under a sensitive key.
const RedactedValue = "[REDACTED]"

// IsSensitiveKey reports whether the key matches a sensitive pattern. Keys
// are normalized before matching so snake_case, kebab-case and camelCase
// spellings of the same name are all caught.
func IsSensitiveKey(key string) bool {
	normalized := normalizeKey(key)
	for _, pattern := range SensitiveKeyPatterns {
		if strings.Contains(normalized, strings.ReplaceAll(pattern, "_", "")) {
			return true
		}
	}
	return false
}

// normalizeKey uppercases the key and strips everything but letters and
// digits, collapsing word separators out of the comparison.
func normalizeKey(key string) string {
	var b strings.Builder
	b.Grow(len(key))
	for _, r := range key {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToUpper(r))
		}
	}
	return b.String()
}

// RedactMetadata returns a copy of metadata with every sensitive value
// replaced. The input map is never mutated. A nil map stays nil.
func RedactMetadata(metadata map[string]any) map[string]any {
	if metadata == nil {
		return nil
	}

	redacted := make(map[string]any, len(metadata))
	for key, value := range metadata {
		if IsSensitiveKey(key) {
			redacted[key] = RedactedValue
			continue
		}
		redacted[key] = value
	}
	return redacted
}
