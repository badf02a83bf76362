package tenants

import (
	"strings"
	"unicode"
)

// Slugify derives the URL-safe tenant identifier from a display name:
// lowercase, whitespace runs collapsed to single hyphens, everything outside
// [a-z0-9-] dropped. Idempotent, so Slugify(Slugify(x)) == Slugify(x).
func Slugify(name string) string {
	lowered := strings.ToLower(strings.TrimSpace(name))

	var b strings.Builder
	lastHyphen := false
	for _, r := range lowered {
		switch {
		case unicode.IsSpace(r):
			if !lastHyphen && b.Len() > 0 {
				b.WriteByte('-')
				lastHyphen = true
			}
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
			lastHyphen = false
		case r == '-':
			if !lastHyphen && b.Len() > 0 {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}

	return strings.TrimSuffix(b.String(), "-")
}
