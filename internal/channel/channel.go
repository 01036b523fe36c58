// Package channel implements channel lifecycle, access control,
// invitation state machine, and message envelope validation for the
// agent privacy layer.
package channel

import (
	"errors"
	"fmt"
	"time"

	"github.com/moltbook/privacy/internal/crypto"
)

// AlgorithmAES256GCM is the default AEAD algorithm tag.
const AlgorithmAES256GCM = "aes-256-gcm"

// SchemeChannelKeyV1 is the default encryption scheme tag: a single
// long-lived per-channel symmetric key, no ratcheting.
const SchemeChannelKeyV1 = "channel-key-v1"

// ErrUnknownEncryption is returned when an EncryptionConfig's algorithm
// tag is not recognized. An unknown algorithm tag must be refused,
// never silently handled with a fallback.
var ErrUnknownEncryption = errors.New("unknown encryption algorithm")

// EncryptionConfig is immutable once a channel is created.
type EncryptionConfig struct {
	Scheme                  string `json:"scheme"`
	Algorithm               string `json:"algorithm"`
	RotationIntervalSeconds *int64 `json:"rotationIntervalSeconds,omitempty"`
}

// Validate rejects any algorithm tag other than the one this
// implementation knows how to process. It runs only when called
// explicitly: decoding a Channel from JSON does not invoke it, so a
// stored record with an unknown algorithm tag is decoded as is.
func (c EncryptionConfig) Validate() error {
	if c.Algorithm != AlgorithmAES256GCM {
		return ErrUnknownEncryption
	}
	return nil
}

func defaultEncryption() EncryptionConfig {
	return EncryptionConfig{Scheme: SchemeChannelKeyV1, Algorithm: AlgorithmAES256GCM}
}

// Metadata is optional descriptive and policy-adjacent channel data.
type Metadata struct {
	Name              string `json:"name,omitempty"`
	Description       string `json:"description,omitempty"`
	MaxParticipants   *int   `json:"maxParticipants,omitempty"`
	MessageTTLSeconds *int64 `json:"messageTTLSeconds,omitempty"`
}

// Channel is a channel record.
type Channel struct {
	ID           string           `json:"id"`
	Participants []string         `json:"participants"`
	CreatorDID   string           `json:"creatorDid"`
	CreatedAt    int64            `json:"createdAt"`
	Encryption   EncryptionConfig `json:"encryption"`
	Access       AccessPolicy     `json:"access"`
	Metadata     *Metadata        `json:"metadata,omitempty"`
}

var (
	ErrNoInvitees          = errors.New("invitee list must not be empty")
	ErrUnknownAgent        = errors.New("DID does not resolve to a registered agent")
	ErrMaxParticipants     = errors.New("adding this participant would exceed the channel's maximum")
	ErrCannotRemoveCreator = errors.New("cannot remove channel creator")
	ErrNotAuthorized       = errors.New("not authorized")
)

// AgentLookup resolves a DID to the long-term X25519 public key of the
// agent it names. Channel creation uses this both to enforce that every
// invitee is a registered agent and to perform pairwise key wrapping.
type AgentLookup interface {
	PublicKey(did string) (publicKey string, ok bool)
}

// unionParticipants builds the final participant set: creator first,
// then invitees in the order given, deduplicated, with the creator never
// listed twice even if also present in invitees.
func unionParticipants(creatorDID string, inviteeDIDs []string) []string {
	seen := map[string]bool{creatorDID: true}
	participants := []string{creatorDID}
	for _, did := range inviteeDIDs {
		if seen[did] {
			continue
		}
		seen[did] = true
		participants = append(participants, did)
	}
	return participants
}

// CreateChannel implements the channel-creation procedure: it generates
// a fresh channel key and, for every non-creator participant, wraps it
// under a pairwise ECDH secret derived from the creator's private key
// and that participant's public key.
//
// This function touches the creator's private key, so it is meant to
// run in the client-side orchestrator, never inside the server. The
// server-side façade instead calls AssembleChannel with invitation
// blobs the client has already wrapped.
func CreateChannel(
	creatorDID, creatorPrivateKey string,
	inviteeDIDs []string,
	policy *AccessPolicy,
	metadata *Metadata,
	lookup AgentLookup,
	now time.Time,
) (Channel, []Invitation, error) {
	if len(inviteeDIDs) == 0 {
		return Channel{}, nil, ErrNoInvitees
	}

	participants := unionParticipants(creatorDID, inviteeDIDs)
	for _, did := range participants {
		if _, ok := lookup.PublicKey(did); !ok {
			return Channel{}, nil, fmt.Errorf("%w: %s", ErrUnknownAgent, did)
		}
	}

	channelKey, err := crypto.GenerateChannelKey()
	if err != nil {
		return Channel{}, nil, err
	}

	resolvedPolicy := AccessPolicy{Kind: PolicyInviteOnly}
	if policy != nil {
		resolvedPolicy = *policy
	}

	ch := Channel{
		ID:           crypto.NewPrefixedID("chan"),
		Participants: participants,
		CreatorDID:   creatorDID,
		CreatedAt:    now.UnixMilli(),
		Encryption:   defaultEncryption(),
		Access:       resolvedPolicy,
		Metadata:     metadata,
	}

	invitations := make([]Invitation, 0, len(participants)-1)
	for _, did := range participants {
		if did == creatorDID {
			continue
		}
		inviteePublicKey, _ := lookup.PublicKey(did)
		secret, err := crypto.DeriveSharedSecret(creatorPrivateKey, inviteePublicKey)
		if err != nil {
			return Channel{}, nil, err
		}
		wrapped, nonce, err := crypto.WrapChannelKey(secret, channelKey)
		if err != nil {
			return Channel{}, nil, err
		}
		invitations = append(invitations, NewInvitation(ch.ID, creatorDID, did, wrapped, nonce, now))
	}

	return ch, invitations, nil
}

// WrappedInvite is a single invitee's already-wrapped channel key, as
// produced client-side by the orchestrator's CreateChannel. The
// server-side AssembleChannel takes these as input and
// never touches a private key or performs ECDH itself.
type WrappedInvite struct {
	InviteeDID string
	WrappedKey []byte
	Nonce      []byte
}

// AssembleChannel builds a Channel and its Invitations purely from
// already-wrapped per-invitee blobs. It performs no cryptography and
// never sees a private key: this is the server-side entry point, used
// instead of ever shipping the creator's private key to the server.
func AssembleChannel(
	creatorDID string,
	wrapped []WrappedInvite,
	policy *AccessPolicy,
	metadata *Metadata,
	lookup AgentLookup,
	now time.Time,
) (Channel, []Invitation, error) {
	if len(wrapped) == 0 {
		return Channel{}, nil, ErrNoInvitees
	}

	inviteeDIDs := make([]string, len(wrapped))
	for i, w := range wrapped {
		inviteeDIDs[i] = w.InviteeDID
	}
	participants := unionParticipants(creatorDID, inviteeDIDs)
	for _, did := range participants {
		if _, ok := lookup.PublicKey(did); !ok {
			return Channel{}, nil, fmt.Errorf("%w: %s", ErrUnknownAgent, did)
		}
	}

	resolvedPolicy := AccessPolicy{Kind: PolicyInviteOnly}
	if policy != nil {
		resolvedPolicy = *policy
	}

	ch := Channel{
		ID:           crypto.NewPrefixedID("chan"),
		Participants: participants,
		CreatorDID:   creatorDID,
		CreatedAt:    now.UnixMilli(),
		Encryption:   defaultEncryption(),
		Access:       resolvedPolicy,
		Metadata:     metadata,
	}

	invitations := make([]Invitation, 0, len(wrapped))
	for _, w := range wrapped {
		invitations = append(invitations, NewInvitation(ch.ID, creatorDID, w.InviteeDID, w.WrappedKey, w.Nonce, now))
	}

	return ch, invitations, nil
}

// AddParticipant adds did to the channel, idempotently. It fails if
// adding a new participant would exceed Metadata.MaxParticipants.
func (ch *Channel) AddParticipant(did string) error {
	if Contains(ch.Participants, did) {
		return nil
	}
	if ch.Metadata != nil && ch.Metadata.MaxParticipants != nil {
		if len(ch.Participants)+1 > *ch.Metadata.MaxParticipants {
			return ErrMaxParticipants
		}
	}
	ch.Participants = append(ch.Participants, did)
	return nil
}

// RemoveParticipant removes target from the channel. It is authorized
// when removerDID is target itself (self-leave) or the channel creator
// (moderator); the creator can never be removed through this path.
func (ch *Channel) RemoveParticipant(removerDID, target string) error {
	if target == ch.CreatorDID {
		return ErrCannotRemoveCreator
	}
	if removerDID != target && removerDID != ch.CreatorDID {
		return ErrNotAuthorized
	}
	for i, did := range ch.Participants {
		if did == target {
			ch.Participants = append(ch.Participants[:i], ch.Participants[i+1:]...)
			return nil
		}
	}
	return nil
}

// UpdateAccessPolicy replaces the channel's access policy atomically.
// Only the creator may perform this update.
func (ch *Channel) UpdateAccessPolicy(requesterDID string, policy AccessPolicy) error {
	if requesterDID != ch.CreatorDID {
		return ErrNotAuthorized
	}
	if err := policy.Validate(); err != nil {
		return err
	}
	ch.Access = policy
	return nil
}
