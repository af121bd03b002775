package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
)

// Sum returns the hex-encoded SHA-256 digest of data.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// ETag returns a strong entity tag for the JSON encoding of v.
func ETag(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return `"` + Sum(data) + `"`, nil
}

// Match reports whether an If-None-Match header value names etag.
// It accepts "*", lists and weak validators.
func Match(header, etag string) bool {
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimPrefix(strings.TrimSpace(candidate), "W/")
		if candidate == "*" || candidate == etag {
			return true
		}
	}
	return false
}
