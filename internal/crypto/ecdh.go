package crypto

import (
	"crypto/rand"
	"encoding/base64"

	"golang.org/x/crypto/curve25519"
)

// KeySize is the byte length of an X25519 public or private key.
const KeySize = 32

// KeyPair is a Curve25519 key-agreement key pair, encoded as base64 text.
// Private keys never enter any persistent store controlled by the server;
// this type exists purely to pass keys between the caller and this
// package, and callers are expected to hold Private only in memory (or in
// a client-side local store, see internal/orchestrator).
type KeyPair struct {
	Public  string
	Private string
}

// GenerateKeyPair produces a fresh X25519 key pair, each half encoded as
// base64 text.
func GenerateKeyPair() (KeyPair, error) {
	var priv [KeySize]byte
	if _, err := rand.Read(priv[:]); err != nil {
		return KeyPair{}, fail()
	}

	// Clamp per RFC 7748; curve25519.X25519 also clamps internally, but
	// clamping here keeps the stored private key canonical.
	priv[0] &= 248
	priv[31] &= 127
	priv[31] |= 64

	pub, err := curve25519.X25519(priv[:], curve25519.Basepoint)
	if err != nil {
		return KeyPair{}, fail()
	}

	return KeyPair{
		Public:  EncodeBase64(pub),
		Private: EncodeBase64(priv[:]),
	}, nil
}

// DeriveSharedSecret computes the X25519 ECDH shared secret between my
// private key and their public key, returning 32 raw bytes usable
// directly as an AES-256 key. Both inputs are base64 text as produced by
// GenerateKeyPair.
func DeriveSharedSecret(myPrivateKeyB64, theirPublicKeyB64 string) ([]byte, error) {
	priv, err := DecodeBase64(myPrivateKeyB64)
	if err != nil || len(priv) != KeySize {
		return nil, fail()
	}
	pub, err := DecodeBase64(theirPublicKeyB64)
	if err != nil || len(pub) != KeySize {
		return nil, fail()
	}

	secret, err := curve25519.X25519(priv, pub)
	if err != nil {
		return nil, fail()
	}
	return secret, nil
}

// EncodeBase64 encodes raw bytes as standard base64 text. Empty input
// round-trips to an empty string.
func EncodeBase64(b []byte) string {
	return base64.StdEncoding.EncodeToString(b)
}

// DecodeBase64 decodes standard base64 text to raw bytes. Empty input
// round-trips to an empty (non-nil) slice.
func DecodeBase64(s string) ([]byte, error) {
	if s == "" {
		return []byte{}, nil
	}
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fail()
	}
	return b, nil
}
