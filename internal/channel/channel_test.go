package channel

import (
	"testing"
	"time"

	"github.com/moltbook/privacy/internal/crypto"
)

type fakeLookup map[string]string

func (f fakeLookup) PublicKey(did string) (string, bool) {
	pub, ok := f[did]
	return pub, ok
}

func mustKeyPair(t *testing.T) crypto.KeyPair {
	t.Helper()
	kp, err := crypto.GenerateKeyPair()
	if err != nil {
		t.Fatalf("generate key pair: %v", err)
	}
	return kp
}

func TestCreateChannel_EmptyInviteesRejected(t *testing.T) {
	creator := mustKeyPair(t)
	_, _, err := CreateChannel("did:moltbook:creator00000000000000000000000000", creator.Private, nil, nil, nil, fakeLookup{}, time.Now())
	if err != ErrNoInvitees {
		t.Fatalf("expected ErrNoInvitees, got %v", err)
	}
}

func TestCreateChannel_UnknownAgentRejected(t *testing.T) {
	creator := mustKeyPair(t)
	creatorDID := "did:moltbook:creator00000000000000000000000000"
	lookup := fakeLookup{creatorDID: creator.Public}

	_, _, err := CreateChannel(creatorDID, creator.Private, []string{"did:moltbook:ghost0000000000000000000000000000"}, nil, nil, lookup, time.Now())
	if err == nil {
		t.Fatal("expected an error for an invitee that does not resolve to a registered agent")
	}
}

func TestCreateChannel_OneInvitationPerInvitee(t *testing.T) {
	creator := mustKeyPair(t)
	invitee := mustKeyPair(t)
	creatorDID := "did:moltbook:creator00000000000000000000000000"
	inviteeDID := "did:moltbook:agent1111111111111111111111111111"
	lookup := fakeLookup{creatorDID: creator.Public, inviteeDID: invitee.Public}

	now := time.Now()
	ch, invites, err := CreateChannel(creatorDID, creator.Private, []string{inviteeDID}, nil, nil, lookup, now)
	if err != nil {
		t.Fatalf("create channel: %v", err)
	}

	if !Contains(ch.Participants, creatorDID) {
		t.Fatal("creator must be a participant")
	}
	if ch.Access.Kind != PolicyInviteOnly {
		t.Fatalf("expected default invite-only policy, got %q", ch.Access.Kind)
	}
	if len(invites) != 1 {
		t.Fatalf("expected exactly one invitation, got %d", len(invites))
	}
	inv := invites[0]
	if inv.Status != StatusPending {
		t.Fatalf("expected pending status, got %q", inv.Status)
	}
	wantExpiry := now.Add(InvitationTTL).UnixMilli()
	if inv.ExpiresAt != wantExpiry {
		t.Fatalf("expected expiry %d, got %d", wantExpiry, inv.ExpiresAt)
	}

	// The invitee must be able to unwrap the channel key using the
	// inviter's public key and its own private key.
	secret, err := crypto.DeriveSharedSecret(invitee.Private, creator.Public)
	if err != nil {
		t.Fatalf("derive secret: %v", err)
	}
	if _, err := crypto.UnwrapChannelKey(secret, inv.WrappedKey, inv.Nonce); err != nil {
		t.Fatalf("invitee should be able to unwrap the channel key: %v", err)
	}
}

func TestAssembleChannel_NoCryptoPerformed(t *testing.T) {
	creatorDID := "did:moltbook:creator00000000000000000000000000"
	inviteeDID := "did:moltbook:agent1111111111111111111111111111"
	lookup := fakeLookup{creatorDID: "creator-pub", inviteeDID: "invitee-pub"}

	wrapped := []WrappedInvite{{InviteeDID: inviteeDID, WrappedKey: []byte("opaque"), Nonce: []byte("nonce12345pq")}}
	ch, invites, err := AssembleChannel(creatorDID, wrapped, nil, nil, lookup, time.Now())
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	if len(invites) != 1 || string(invites[0].WrappedKey) != "opaque" {
		t.Fatal("expected the supplied wrapped blob to pass through unchanged")
	}
	if len(ch.Participants) != 2 {
		t.Fatalf("expected 2 participants, got %d", len(ch.Participants))
	}
}

func TestAddParticipant_Idempotent(t *testing.T) {
	ch := Channel{Participants: []string{"a"}}
	if err := ch.AddParticipant("a"); err != nil {
		t.Fatalf("re-adding an existing participant should be a no-op: %v", err)
	}
	if len(ch.Participants) != 1 {
		t.Fatalf("expected participant count to stay 1, got %d", len(ch.Participants))
	}
}

func TestAddParticipant_MaxExceeded(t *testing.T) {
	max := 1
	ch := Channel{Participants: []string{"a"}, Metadata: &Metadata{MaxParticipants: &max}}
	if err := ch.AddParticipant("b"); err != ErrMaxParticipants {
		t.Fatalf("expected ErrMaxParticipants, got %v", err)
	}
}

func TestRemoveParticipant_Authorization(t *testing.T) {
	ch := Channel{CreatorDID: "creator", Participants: []string{"creator", "a", "b"}}

	if err := ch.RemoveParticipant("a", "b"); err != ErrNotAuthorized {
		t.Fatalf("expected ErrNotAuthorized when neither creator nor target, got %v", err)
	}

	if err := ch.RemoveParticipant("creator", "creator"); err != ErrCannotRemoveCreator {
		t.Fatalf("expected ErrCannotRemoveCreator, got %v", err)
	}

	if err := ch.RemoveParticipant("a", "a"); err != nil {
		t.Fatalf("self-leave should succeed: %v", err)
	}
	if Contains(ch.Participants, "a") {
		t.Fatal("participant should have been removed")
	}

	if err := ch.RemoveParticipant("creator", "b"); err != nil {
		t.Fatalf("creator removing another participant should succeed: %v", err)
	}
}

func TestUpdateAccessPolicy_CreatorOnly(t *testing.T) {
	ch := Channel{CreatorDID: "creator", Access: AccessPolicy{Kind: PolicyInviteOnly}}

	if err := ch.UpdateAccessPolicy("not-creator", AccessPolicy{Kind: PolicyOpen}); err != ErrNotAuthorized {
		t.Fatalf("expected ErrNotAuthorized, got %v", err)
	}

	if err := ch.UpdateAccessPolicy("creator", AccessPolicy{Kind: PolicyOpen}); err != nil {
		t.Fatalf("creator update should succeed: %v", err)
	}
	if ch.Access.Kind != PolicyOpen {
		t.Fatal("policy should have been replaced")
	}
}

func TestEncryptionConfig_Validate(t *testing.T) {
	if err := defaultEncryption().Validate(); err != nil {
		t.Fatalf("default encryption config should validate: %v", err)
	}
	bad := EncryptionConfig{Algorithm: "rot13"}
	if err := bad.Validate(); err != ErrUnknownEncryption {
		t.Fatalf("expected ErrUnknownEncryption, got %v", err)
	}
}
