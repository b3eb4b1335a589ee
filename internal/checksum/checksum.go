// Package checksum derives content digests and stable short identifiers.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
)

// ShortLen is the length of identifiers returned by Short.
const ShortLen = 16

// Sum returns the hex-encoded SHA-256 digest of data.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// Short returns the first ShortLen hex digits of the digest of s.
func Short(s string) string {
	return Sum([]byte(s))[:ShortLen]
}
