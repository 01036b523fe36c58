package crypto

import (
	"crypto/rand"
	"encoding/hex"
)

// idBytes is 128 bits of randomness, wide enough that generated
// identifiers are unguessable.
const idBytes = 16

// NewID returns 128 bits of randomness rendered as lowercase hex.
func NewID() string {
	b := make([]byte, idBytes)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand failing means the platform's entropy source is
		// broken; nothing downstream can recover meaningfully.
		panic("crypto/rand failed: " + err.Error())
	}
	return hex.EncodeToString(b)
}

// NewPrefixedID returns NewID's output joined to prefix with a hyphen,
// e.g. NewPrefixedID("msg") -> "msg-3f9a...".
func NewPrefixedID(prefix string) string {
	return prefix + "-" + NewID()
}
