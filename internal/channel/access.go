package channel

import (
	"encoding/json"
	"errors"
	"fmt"
)

// PolicyKind is the tag of the AccessPolicy variant. Unknown tags must
// be rejected at deserialization, never silently defaulted.
type PolicyKind string

const (
	PolicyOpen            PolicyKind = "open"
	PolicyInviteOnly      PolicyKind = "invite-only"
	PolicyCredentialGated PolicyKind = "credential-gated"
)

// ErrUnknownPolicy is returned when an AccessPolicy's Kind is not one of
// the three known tags.
var ErrUnknownPolicy = errors.New("unknown access control policy")

// AccessPolicy is the tagged variant over the three access-control modes
// a channel can use. Only the fields relevant to Kind are meaningful; AllowList applies to InviteOnly, CredentialContract/
// CredentialSchema/MinCredentialCount apply to CredentialGated.
type AccessPolicy struct {
	Kind               PolicyKind `json:"kind"`
	AllowList          []string   `json:"allowList,omitempty"`
	CredentialContract string     `json:"credentialContract,omitempty"`
	CredentialSchema   string     `json:"credentialSchema,omitempty"`
	MinCredentialCount int        `json:"minCredentialCount,omitempty"`
}

// Validate rejects any Kind outside the three known tags.
func (p AccessPolicy) Validate() error {
	switch p.Kind {
	case PolicyOpen, PolicyInviteOnly, PolicyCredentialGated:
		return nil
	default:
		return ErrUnknownPolicy
	}
}

// UnmarshalJSON enforces Validate on every decode, so a storage record
// written with an unrecognized policy tag (e.g. by a newer server
// version) is refused rather than silently defaulted. EncryptionConfig
// has no such decode-time check (see EncryptionConfig.Validate).
func (p *AccessPolicy) UnmarshalJSON(data []byte) error {
	type raw AccessPolicy
	var r raw
	if err := json.Unmarshal(data, &r); err != nil {
		return err
	}
	candidate := AccessPolicy(r)
	if err := candidate.Validate(); err != nil {
		return fmt.Errorf("decode access policy: %w", err)
	}
	*p = candidate
	return nil
}

// CredentialHolder is the minimal view of an agent the access decision
// needs: its DID and its count of verified credentials matching a given
// contract/schema pair. *identity.Agent satisfies this.
type CredentialHolder interface {
	DIDValue() string
	CountVerifiedCredentials(issuerContract, schema string) int
}

// Decision is the outcome of an access-control check.
type Decision struct {
	Allowed bool
	Reason  string
}

func allow() Decision { return Decision{Allowed: true} }
func deny(reason string) Decision { return Decision{Allowed: false, Reason: reason} }

// DecideAccess implements the access-control decision table: participants
// are always allowed; non-participants are judged against the channel's
// access policy.
func DecideAccess(ch Channel, candidate CredentialHolder) Decision {
	if Contains(ch.Participants, candidate.DIDValue()) {
		return allow()
	}

	switch ch.Access.Kind {
	case "":
		return deny("Not a participant")
	case PolicyOpen:
		return allow()
	case PolicyInviteOnly:
		if Contains(ch.Access.AllowList, candidate.DIDValue()) {
			return allow()
		}
		return deny("Invite required")
	case PolicyCredentialGated:
		count := candidate.CountVerifiedCredentials(ch.Access.CredentialContract, ch.Access.CredentialSchema)
		if count == 0 {
			return deny("Required credential not found")
		}
		if ch.Access.MinCredentialCount > 0 && count < ch.Access.MinCredentialCount {
			return deny(fmt.Sprintf("requires %d verified credentials, found %d", ch.Access.MinCredentialCount, count))
		}
		return allow()
	default:
		return deny("Not a participant")
	}
}

// Contains reports whether needle is present in haystack.
func Contains(haystack []string, needle string) bool {
	for _, v := range haystack {
		if v == needle {
			return true
		}
	}
	return false
}
