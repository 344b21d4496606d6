package store

import "strings"

// SanitizeID strips every rune outside [A-Za-z0-9_-]. It never fails; a
// fully-invalid input yields "". Callers must treat an empty result from a
// non-empty input as not-found instead of touching a shared empty key.
// Required before an id is used as a filename or backend key.
func SanitizeID(raw string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case r >= 'A' && r <= 'Z':
			return r
		case r >= '0' && r <= '9':
			return r
		case r == '_' || r == '-':
			return r
		}
		return -1
	}, raw)
}
