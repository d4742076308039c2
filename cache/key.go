package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Key derives the cache key for a chain invocation from the spec's structural
// hash and the canonicalized initial input. A changed spec hash yields a new
// key, so stale entries for older spec revisions are never served.
func Key(specHash, input string) string {
	h := sha256.New()
	h.Write([]byte(specHash))
	h.Write([]byte{0})
	h.Write([]byte(Canonicalize(input)))
	return hex.EncodeToString(h.Sum(nil))
}

// Canonicalize normalizes input text for keying: surrounding whitespace is
// trimmed and CRLF line endings become LF. Case is preserved; casing is
// meaningful to completion providers.
func Canonicalize(input string) string {
	return strings.TrimSpace(strings.ReplaceAll(input, "\r\n", "\n"))
}
