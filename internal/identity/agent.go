package identity

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/moltbook/privacy/internal/crypto"
)

var (
	// ErrMissingField is returned when a registration request omits a
	// required field.
	ErrMissingField = errors.New("missing required field")
	// ErrBadSignature is returned when a registration's signature does
	// not verify against the supplied signing key.
	ErrBadSignature = errors.New("signature verification failed")
)

// ProfileInput is the caller-supplied portion of a profile: the fields a
// registration or profile-update request may set. Reputation is never
// part of this type: it is not writable through registration or update,
// only through AdjustReputation.
type ProfileInput struct {
	DisplayName  string            `json:"displayName,omitempty"`
	Capabilities []string          `json:"capabilities,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

// Credential is a verified-credential bookkeeping entry.
// It starts unverified and is later marked verified by an external
// signal; the core never flips verified back to false.
type Credential struct {
	IssuerContract string `json:"issuerContract"`
	AssetID        string `json:"assetId"`
	Schema         string `json:"schema,omitempty"`
	Verified       bool   `json:"verified"`
	VerifiedAt     int64  `json:"verifiedAt,omitempty"`
}

// Profile is the full stored profile of an Agent.
type Profile struct {
	DisplayName  string            `json:"displayName,omitempty"`
	Capabilities []string          `json:"capabilities,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	Reputation   int               `json:"reputation"`
	Credentials  []Credential      `json:"credentials,omitempty"`
}

// Agent is the authoritative identity record the server holds for a
// registered agent. The server never holds the agent's private key.
type Agent struct {
	DID         string  `json:"did"`
	PublicKey   string  `json:"publicKey"`
	SigningKey  string  `json:"signingKey"`
	Profile     Profile `json:"profile"`
	CreatedAt   int64   `json:"createdAt"`
}

// RegistrationRequest is the body of a registration: the agent's X25519
// key-agreement public key, a dedicated Ed25519 signing public key, the
// initial (reputation-less) profile, and a signature over the canonical
// JSON of {publicKey, signingKey, profile} made with the signing private
// key. The signing key is kept distinct from the agreement key so a
// registration can carry a true asymmetric signature rather than an
// HMAC-based one.
type RegistrationRequest struct {
	PublicKey  string       `json:"publicKey"`
	SigningKey string       `json:"signingKey"`
	Profile    ProfileInput `json:"profile"`
	Signature  string       `json:"signature"`
}

type signedPayload struct {
	PublicKey  string       `json:"publicKey"`
	SigningKey string       `json:"signingKey"`
	Profile    ProfileInput `json:"profile"`
}

// canonicalPayload returns the exact bytes the registration signature is
// computed over.
func canonicalPayload(publicKey, signingKey string, profile ProfileInput) ([]byte, error) {
	return json.Marshal(signedPayload{PublicKey: publicKey, SigningKey: signingKey, Profile: profile})
}

// NewAgentFromRegistration validates a registration request, verifies its
// signature, derives the agent's DID, and returns a freshly constructed
// Agent with reputation initialized to 50.
func NewAgentFromRegistration(req RegistrationRequest, now time.Time) (Agent, error) {
	if req.PublicKey == "" || req.SigningKey == "" || req.Signature == "" {
		return Agent{}, ErrMissingField
	}

	payload, err := canonicalPayload(req.PublicKey, req.SigningKey, req.Profile)
	if err != nil {
		return Agent{}, ErrMissingField
	}

	if !crypto.Verify(req.SigningKey, payload, req.Signature) {
		return Agent{}, ErrBadSignature
	}

	return Agent{
		DID:        DeriveDID(req.PublicKey),
		PublicKey:  req.PublicKey,
		SigningKey: req.SigningKey,
		CreatedAt:  now.UnixMilli(),
		Profile: Profile{
			DisplayName:  req.Profile.DisplayName,
			Capabilities: req.Profile.Capabilities,
			Metadata:     req.Profile.Metadata,
			Reputation:   50,
		},
	}, nil
}

// DIDValue returns the agent's DID. Together with
// CountVerifiedCredentials it makes *Agent satisfy
// channel.CredentialHolder, so access-control decisions can be made
// directly against an agent record.
func (a Agent) DIDValue() string { return a.DID }

// UpdateProfile applies a partial profile update to agent. Reputation is
// silently preserved regardless of what the caller supplies: this path
// must not change reputation.
func (a *Agent) UpdateProfile(update ProfileInput) {
	if update.DisplayName != "" {
		a.Profile.DisplayName = update.DisplayName
	}
	if update.Capabilities != nil {
		a.Profile.Capabilities = update.Capabilities
	}
	if update.Metadata != nil {
		a.Profile.Metadata = update.Metadata
	}
}

// AdjustReputation applies delta to the agent's reputation, clamped to
// [0, 100].
func (a *Agent) AdjustReputation(delta int) {
	rep := a.Profile.Reputation + delta
	switch {
	case rep < 0:
		rep = 0
	case rep > 100:
		rep = 100
	}
	a.Profile.Reputation = rep
}

// AddCredential adds an unverified credential entry, idempotent by
// (issuerContract, assetID): re-adding the same pair is a no-op rather
// than a duplicate.
func (a *Agent) AddCredential(issuerContract, assetID, schema string) {
	for _, c := range a.Profile.Credentials {
		if c.IssuerContract == issuerContract && c.AssetID == assetID {
			return
		}
	}
	a.Profile.Credentials = append(a.Profile.Credentials, Credential{
		IssuerContract: issuerContract,
		AssetID:        assetID,
		Schema:         schema,
	})
}

// MarkCredentialVerified marks the (issuerContract, assetID) credential
// verified and timestamps it. The operation is monotonic: it never
// un-verifies an already-verified credential, and is a no-op if no
// matching credential exists.
func (a *Agent) MarkCredentialVerified(issuerContract, assetID string, now time.Time) {
	for i := range a.Profile.Credentials {
		c := &a.Profile.Credentials[i]
		if c.IssuerContract == issuerContract && c.AssetID == assetID {
			if !c.Verified {
				c.Verified = true
				c.VerifiedAt = now.UnixMilli()
			}
			return
		}
	}
}

// HasVerifiedCredential reports whether the agent holds any verified
// credential matching issuerContract and, if schema is non-empty, also
// matching schema.
func (a *Agent) HasVerifiedCredential(issuerContract, schema string) bool {
	return a.CountVerifiedCredentials(issuerContract, schema) > 0
}

// CountVerifiedCredentials counts verified credentials matching
// issuerContract and, if schema is non-empty, also matching schema.
func (a *Agent) CountVerifiedCredentials(issuerContract, schema string) int {
	count := 0
	for _, c := range a.Profile.Credentials {
		if !c.Verified || c.IssuerContract != issuerContract {
			continue
		}
		if schema != "" && c.Schema != schema {
			continue
		}
		count++
	}
	return count
}
