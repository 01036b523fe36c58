package crypto

import (
	"crypto/ed25519"
	"crypto/rand"
)

// SigningKeyPair is a dedicated Ed25519 signing key pair, kept separate
// from the X25519 key-agreement KeyPair. An HMAC over the agreement
// private key is not a true asymmetric signature and cannot
// authenticate a registration against impersonation; registrations are
// authenticated with Ed25519 instead.
type SigningKeyPair struct {
	Public  string
	Private string
}

// GenerateSigningKeyPair produces a fresh Ed25519 signing key pair,
// base64-encoded.
func GenerateSigningKeyPair() (SigningKeyPair, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return SigningKeyPair{}, fail()
	}
	return SigningKeyPair{
		Public:  EncodeBase64(pub),
		Private: EncodeBase64(priv),
	}, nil
}

// Sign signs payload with the Ed25519 private key encoded in privateKeyB64.
func Sign(privateKeyB64 string, payload []byte) (string, error) {
	priv, err := DecodeBase64(privateKeyB64)
	if err != nil || len(priv) != ed25519.PrivateKeySize {
		return "", fail()
	}
	sig := ed25519.Sign(ed25519.PrivateKey(priv), payload)
	return EncodeBase64(sig), nil
}

// Verify reports whether signatureB64 is a valid Ed25519 signature over
// payload under the public key encoded in publicKeyB64.
func Verify(publicKeyB64 string, payload []byte, signatureB64 string) bool {
	pub, err := DecodeBase64(publicKeyB64)
	if err != nil || len(pub) != ed25519.PublicKeySize {
		return false
	}
	sig, err := DecodeBase64(signatureB64)
	if err != nil || len(sig) != ed25519.SignatureSize {
		return false
	}
	return ed25519.Verify(ed25519.PublicKey(pub), payload, sig)
}
