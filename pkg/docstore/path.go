package docstore

import (
	"fmt"
	"strings"
)

// Characters that are not allowed inside a single path segment. '%' is
// included so that escaping stays reversible.
const reservedKeyChars = "%./#$[]"

// EscapeKey turns an arbitrary string (typically an email) into a single
// path segment. Reserved characters and control bytes become %XX, so two
// distinct inputs never produce the same key.
func EscapeKey(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		if c < 0x20 || c == 0x7f || strings.IndexByte(reservedKeyChars, c) >= 0 {
			fmt.Fprintf(&b, "%%%02X", c)
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}

// UnescapeKey reverses EscapeKey.
func UnescapeKey(key string) (string, error) {
	var b strings.Builder
	b.Grow(len(key))
	for i := 0; i < len(key); i++ {
		c := key[i]
		if c != '%' {
			b.WriteByte(c)
			continue
		}
		if i+2 >= len(key) {
			return "", fmt.Errorf("%w: truncated escape in %q", ErrInvalidPath, key)
		}
		var v byte
		if _, err := fmt.Sscanf(key[i+1:i+3], "%02X", &v); err != nil {
			return "", fmt.Errorf("%w: bad escape in %q", ErrInvalidPath, key)
		}
		b.WriteByte(v)
		i += 2
	}
	return b.String(), nil
}

// Join builds a path from already escaped segments.
func Join(segments ...string) string {
	return strings.Join(segments, "/")
}

// Split returns the collection and key of a path.
func Split(path string) (collection, key string) {
	i := strings.LastIndexByte(path, '/')
	if i < 0 {
		return "", path
	}
	return path[:i], path[i+1:]
}

// ValidatePath checks that path has at least two non-empty segments and no
// reserved characters other than the separator.
func ValidatePath(path string) error {
	segments := strings.Split(path, "/")
	if len(segments) < 2 {
		return fmt.Errorf("%w: %q has no collection", ErrInvalidPath, path)
	}
	return validateSegments(path, segments)
}

// ValidateCollection checks a collection path (one or more segments).
func ValidateCollection(collection string) error {
	return validateSegments(collection, strings.Split(collection, "/"))
}

func validateSegments(path string, segments []string) error {
	for _, s := range segments {
		if s == "" {
			return fmt.Errorf("%w: empty segment in %q", ErrInvalidPath, path)
		}
		if strings.ContainsAny(s, ".#$[]") {
			return fmt.Errorf("%w: reserved character in %q", ErrInvalidPath, path)
		}
	}
	return nil
}
