package crypto

import (
	"crypto/rand"

	"golang.org/x/crypto/argon2"
)

// Parameters for deriving the AES-256-GCM key that seals an agent's
// local credential file at rest. Tuned for a one-shot unlock on a
// developer workstation, not a high-throughput login path.
const (
	storeKDFTime    = 3
	storeKDFMemory  = 64 * 1024 // 64 MB
	storeKDFThreads = 4
	storeKeyLen     = 32 // 256 bits, matches AES-256
	storeSaltLen    = 32
)

// DeriveStoreKey derives the symmetric key that encrypts a local
// credential file from the caller-supplied passphrase and a per-file
// salt. The same passphrase and salt always yield the same key, so the
// salt must be persisted alongside the ciphertext to allow decryption
// later.
func DeriveStoreKey(passphrase string, salt []byte) []byte {
	return argon2.IDKey([]byte(passphrase), salt, storeKDFTime, storeKDFMemory, storeKDFThreads, storeKeyLen)
}

// NewStoreSalt returns a fresh random salt sized for DeriveStoreKey.
func NewStoreSalt() []byte {
	salt := make([]byte, storeSaltLen)
	if _, err := rand.Read(salt); err != nil {
		panic("crypto/rand failed: " + err.Error())
	}
	return salt
}
