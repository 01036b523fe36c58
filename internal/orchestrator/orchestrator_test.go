package orchestrator

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/moltbook/privacy/internal/identity"
	"github.com/moltbook/privacy/internal/server"
	"github.com/moltbook/privacy/internal/storage"
)

type staticLookup map[string]string

func (l staticLookup) PublicKey(did string) (string, bool) {
	pk, ok := l[did]
	return pk, ok
}

func TestOrchestrator_FullLoop(t *testing.T) {
	adapter := storage.NewAdapter(storage.NewMemoryStore())
	srv := server.New(adapter)
	httpSrv := httptest.NewServer(srv)
	defer httpSrv.Close()

	ctx := context.Background()

	creator := New(httpSrv.URL, NewMemoryLocalStore())
	creatorCreds, err := creator.Register(ctx, identity.ProfileInput{DisplayName: "creator"})
	if err != nil {
		t.Fatalf("register creator: %v", err)
	}

	invitee := New(httpSrv.URL, NewMemoryLocalStore())
	inviteeCreds, err := invitee.Register(ctx, identity.ProfileInput{DisplayName: "invitee"})
	if err != nil {
		t.Fatalf("register invitee: %v", err)
	}

	lookup := staticLookup{inviteeCreds.DID: inviteeCreds.AgreementPublic}
	ch, invitations, err := creator.CreateChannel(ctx, creatorCreds, []string{inviteeCreds.DID}, nil, nil, lookup)
	if err != nil {
		t.Fatalf("create channel: %v", err)
	}
	if len(invitations) != 1 {
		t.Fatalf("expected 1 invitation, got %d", len(invitations))
	}

	acceptedInv, err := invitee.AcceptInvitation(ctx, inviteeCreds, invitations[0].ID, creatorCreds.AgreementPublic)
	if err != nil {
		t.Fatalf("accept invitation: %v", err)
	}
	if acceptedInv.ChannelID != ch.ID {
		t.Fatalf("expected channel id %q, got %q", ch.ID, acceptedInv.ChannelID)
	}

	if _, err := creator.EncryptAndSend(ctx, creatorCreds, ch.ID, []byte("hello there")); err != nil {
		t.Fatalf("send: %v", err)
	}

	plaintexts, err := invitee.FetchAndDecrypt(ctx, inviteeCreds, ch.ID)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(plaintexts) != 1 || string(plaintexts[0]) != "hello there" {
		t.Fatalf("expected to decrypt the message, got %+v", plaintexts)
	}

	invitee.Logout()
	if _, err := invitee.FetchAndDecrypt(ctx, inviteeCreds, ch.ID); err == nil {
		t.Fatal("expected fetch to fail after logout purges the key cache")
	}
}
