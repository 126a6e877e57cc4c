// Package fileid derives deterministic identifiers for uploaded documents.
package fileid

import (
	"crypto/sha256"
	"encoding/hex"
)

const prefix = "doc:"

// ContentID returns a stable ID for a document's bytes. Re-analyzing the same
// file yields the same ID regardless of its name.
func ContentID(content []byte) string {
	hash := sha256.Sum256(content)
	return prefix + hex.EncodeToString(hash[:])
}

// Short returns the first n hex characters of id after the prefix, for display.
func Short(id string, n int) string {
	if len(id) > len(prefix) && id[:len(prefix)] == prefix {
		id = id[len(prefix):]
	}
	if n > 0 && len(id) > n {
		return id[:n]
	}
	return id
}
