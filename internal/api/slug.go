package api

import (
	"strings"

	"github.com/wizbi/wizbi/internal/constants"
)

// Slugify lowercases s and collapses every run of non-alphanumeric characters
// into a single hyphen. Leading and trailing hyphens are trimmed.
func Slugify(s string) string {
	var b strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// ProjectID derives the deterministic project identifier from the
// organization slug and the project's short name, e.g. "wizbi-acme-web".
func ProjectID(orgSlug, name string) string {
	return constants.ProjectIDPrefix + "-" + Slugify(orgSlug) + "-" + Slugify(name)
}
