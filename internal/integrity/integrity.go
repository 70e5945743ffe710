// Package integrity computes Subresource Integrity tokens for cached file
// bytes.
package integrity

import (
	"crypto/sha256"
	"encoding/base64"
	"fmt"
)

// SHA256 returns the "sha256-<base64>" SRI token for data.
func SHA256(data []byte) string {
	sum := sha256.Sum256(data)
	return fmt.Sprintf("sha256-%s", base64.StdEncoding.EncodeToString(sum[:]))
}
