package identity

import "github.com/moltbook/privacy/internal/crypto"

// Document is a W3C DID-core shaped document describing an agent's
// key-agreement verification method. It is purely derived from the
// agent record; nothing about it is independently stored.
type Document struct {
	Context            []string             `json:"@context"`
	ID                 string               `json:"id"`
	VerificationMethod []VerificationMethod `json:"verificationMethod"`
	KeyAgreement       []string             `json:"keyAgreement"`
	AlsoKnownAs        string               `json:"alsoKnownAs,omitempty"`
}

// VerificationMethod describes a single key usable to verify or agree
// with the DID subject.
type VerificationMethod struct {
	ID                 string `json:"id"`
	Type               string `json:"type"`
	Controller         string `json:"controller"`
	PublicKeyMultibase string `json:"publicKeyMultibase"`
}

// DIDDocument builds the DID document for agent. The key-agreement
// verification method is typed as an X25519KeyAgreementKey2020.
// AlsoKnownAs carries a SHA3-256 fingerprint of the agent's X25519
// public key as a secondary, non-authoritative cross-reference, not a
// substitute for the SHA-256-derived DID itself.
func DIDDocument(a Agent) Document {
	vmID := a.DID + "#key-agreement"
	return Document{
		Context: []string{"https://www.w3.org/ns/did/v1"},
		ID:      a.DID,
		VerificationMethod: []VerificationMethod{
			{
				ID:                 vmID,
				Type:               "X25519KeyAgreementKey2020",
				Controller:         a.DID,
				PublicKeyMultibase: a.PublicKey,
			},
		},
		KeyAgreement: []string{vmID},
		AlsoKnownAs:  crypto.SHA3Fingerprint(a.PublicKey),
	}
}
