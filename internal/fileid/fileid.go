// Package fileid derives deterministic IDs for bundle files and the entries they declare.
package fileid

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path/filepath"
)

const prefix = "file:"

// SourceID returns a stable source ID for the given absolute path.
// Same path always yields the same ID. Rows imported from a file are tagged with it.
func SourceID(absolutePath string) string {
	normalized := filepath.Clean(absolutePath)
	hash := sha256.Sum256([]byte(normalized))
	return prefix + hex.EncodeToString(hash[:])
}

// EntryID returns the ID for the index-th entry of kind in a bundle when the entry declares none.
func EntryID(sourceID, kind string, index int) string {
	short := sourceID
	if len(short) > len(prefix)+16 {
		short = short[:len(prefix)+16]
	}
	return fmt.Sprintf("%s/%s/%d", short, kind, index)
}
