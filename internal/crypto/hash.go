package crypto

import (
	"crypto/sha256"
	"encoding/hex"

	"golang.org/x/crypto/sha3"
)

// SHA256Hex returns the lowercase hexadecimal SHA-256 digest of data.
// This is the primitive DID derivation is built on: the identity
// module takes the first 32 characters of this string.
func SHA256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// SHA256String is a convenience wrapper over SHA256Hex for UTF-8 string
// input.
func SHA256String(s string) string {
	return SHA256Hex([]byte(s))
}

// SHA256Base64 returns the base64-encoded SHA-256 digest of data.
func SHA256Base64(data []byte) string {
	sum := sha256.Sum256(data)
	return EncodeBase64(sum[:])
}

// SHA3Fingerprint returns a short SHA3-256 fingerprint of a base64-encoded
// key, rendered as lowercase hex with a "sha3:" prefix. It is used as a
// secondary, non-authoritative cross-reference in DID documents, distinct
// from the SHA-256 digest the DID identifier itself is derived from.
func SHA3Fingerprint(keyB64 string) string {
	sum := sha3.Sum256([]byte(keyB64))
	return "sha3:" + hex.EncodeToString(sum[:16])
}
