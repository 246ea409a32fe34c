package utils

import (
	"crypto/sha256"
	"encoding/base64"
)

// Digest returns the subresource-integrity style SHA-256 digest of data,
// e.g. "sha256-47DEQpj8HBSa+/TImW+5JCeuQeRkm5NMpJWZG3hSuFU="
func Digest(data []byte) string {
	sum := sha256.Sum256(data)
	return "sha256-" + base64.StdEncoding.EncodeToString(sum[:])
}
