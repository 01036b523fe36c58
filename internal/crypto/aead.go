package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
)

// ChannelKeySize is the byte length of a channel's symmetric key (256 bits).
const ChannelKeySize = 32

// NonceSize is the byte length of the AEAD nonce (96 bits, as required by
// AES-256-GCM).
const NonceSize = 12

// GenerateChannelKey returns a fresh 256-bit symmetric key.
func GenerateChannelKey() ([]byte, error) {
	key := make([]byte, ChannelKeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fail()
	}
	return key, nil
}

// Encrypt seals plaintext under key using AES-256-GCM with a fresh random
// nonce. The integrity tag is embedded in the returned ciphertext, per the
// AEAD standard; the nonce is returned separately so callers can store or
// transmit it alongside the ciphertext.
func Encrypt(key, plaintext []byte) (ciphertext, nonce []byte, err error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, nil, err
	}

	nonce = make([]byte, NonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, nil, fail()
	}

	ciphertext = gcm.Seal(nil, nonce, plaintext, nil)
	return ciphertext, nonce, nil
}

// Decrypt opens ciphertext under key and nonce, verifying the embedded
// integrity tag. Any failure (wrong key, tampered ciphertext, wrong
// nonce) surfaces as the single opaque ErrCryptoFailure.
func Decrypt(key, ciphertext, nonce []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	if len(nonce) != gcm.NonceSize() {
		return nil, fail()
	}

	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fail()
	}
	return plaintext, nil
}

// WrapChannelKey encrypts a channel key under a recipient-specific shared
// secret, producing the opaque wrapped bytes and nonce stored in an
// Invitation. sharedSecret is the output of DeriveSharedSecret.
func WrapChannelKey(sharedSecret, channelKey []byte) (wrapped, nonce []byte, err error) {
	return Encrypt(sharedSecret, channelKey)
}

// UnwrapChannelKey is the inverse of WrapChannelKey.
func UnwrapChannelKey(sharedSecret, wrapped, nonce []byte) ([]byte, error) {
	return Decrypt(sharedSecret, wrapped, nonce)
}

func newGCM(key []byte) (cipher.AEAD, error) {
	if len(key) != ChannelKeySize {
		return nil, fail()
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fail()
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fail()
	}
	return gcm, nil
}
