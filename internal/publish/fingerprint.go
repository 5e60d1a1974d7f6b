package publish

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
)

const (
	// contentHashPropertyKey is the reserved property under which the last
	// published content fingerprint is stored on each remote page.
	contentHashPropertyKey = "content-hash"

	// initialPageVersion is the version the store assigns to a new page.
	initialPageVersion = 1
)

// fingerprint computes the stable content hash used for idempotent update
// detection. The title is deliberately not part of the hash.
func fingerprint(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

// hashStream computes the fingerprint of a full byte stream. Attachment
// comparison always digests the complete content, never length or mtime
// proxies.
func hashStream(r io.Reader) (string, error) {
	h := sha256.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", fmt.Errorf("hash stream: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
