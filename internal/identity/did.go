// Package identity implements decentralized agent identities: DID
// construction, parsing, and validation; agent records derived from signed
// registrations; reputation bookkeeping; verified-credential tracking; and
// DID document emission.
package identity

import (
	"errors"
	"regexp"
	"strings"

	"github.com/moltbook/privacy/internal/crypto"
)

// Method is the single DID method this layer issues and accepts.
const Method = "moltbook"

var identifierPattern = regexp.MustCompile(`^[a-f0-9]{32}$`)

// ErrInvalidDID is returned when a DID string fails to parse or validate.
var ErrInvalidDID = errors.New("invalid DID")

// DeriveDID computes the DID for a given long-term public key:
// did:moltbook:<first 32 lowercase hex chars of SHA-256(publicKey)>.
// Derivation is deterministic: the same public key always yields the
// same DID.
func DeriveDID(publicKey string) string {
	digest := crypto.SHA256String(publicKey)
	return "did:" + Method + ":" + digest[:32]
}

// ParseDID splits a DID string into its method and identifier. It
// requires exactly three colon-delimited parts with literal prefix "did".
func ParseDID(did string) (method, identifier string, err error) {
	parts := strings.Split(did, ":")
	if len(parts) != 3 || parts[0] != "did" {
		return "", "", ErrInvalidDID
	}
	return parts[1], parts[2], nil
}

// ValidateDID reports whether did parses successfully, names the
// moltbook method, and has a 32-character lowercase-hex identifier.
func ValidateDID(did string) error {
	method, identifier, err := ParseDID(did)
	if err != nil {
		return err
	}
	if method != Method {
		return ErrInvalidDID
	}
	if !identifierPattern.MatchString(identifier) {
		return ErrInvalidDID
	}
	return nil
}
