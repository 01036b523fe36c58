// Package crypto provides the cryptographic primitives consumed by every
// other component of the agent privacy layer: X25519 key agreement,
// AES-256-GCM authenticated encryption, Ed25519 signing, channel-key
// wrapping, content hashing, and random identifier generation.
package crypto

import "errors"

// ErrCryptoFailure is the single opaque error returned for any failure in
// this package. Callers never learn which step failed (key derivation,
// tag verification, decoding); that information is discarded, neither
// surfaced nor logged, to avoid giving an attacker a side channel.
var ErrCryptoFailure = errors.New("cryptographic failure")

// fail returns the opaque failure signal. It takes no argument: the
// underlying error is dropped at each call site, and nothing in this
// package logs it.
func fail() error {
	return ErrCryptoFailure
}
