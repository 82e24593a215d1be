package fingerprint

import (
	"crypto/sha256"
	"fmt"
	"strings"
)

// Normalize cleans each part and joins them with newlines.
// Parts are trimmed, lowercased and get their line endings normalized.
func Normalize(parts ...string) string {
	cleaned := make([]string, len(parts))
	for i, part := range parts {
		p := strings.ToLower(part)
		p = strings.TrimSpace(p)
		p = strings.ReplaceAll(p, "\r\n", "\n")
		cleaned[i] = p
	}
	// Joining with a newline keeps "ab"+"c" and "a"+"bc" apart.
	return strings.Join(cleaned, "\n")
}

// Hash returns the hex SHA-256 of the normalized parts.
func Hash(parts ...string) string {
	sum := sha256.Sum256([]byte(Normalize(parts...)))
	return fmt.Sprintf("%x", sum)
}

// Short is the first 12 hex characters of Hash, used in URLs and form values.
func Short(parts ...string) string {
	return Hash(parts...)[:12]
}
