package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/moltbook/privacy/internal/channel"
	"github.com/moltbook/privacy/internal/crypto"
	"github.com/moltbook/privacy/internal/identity"
)

// Orchestrator is the client-side composer: it holds the agent's
// private keys, drives registration and channel setup against the
// façade, and performs every encrypt/decrypt step locally.
type Orchestrator struct {
	client *HTTPClient
	store  LocalStore

	mu        sync.Mutex
	channelKeys map[string][]byte // channel id -> decrypted channel key, cache only
}

// New builds an Orchestrator talking to the façade at baseURL, with
// credentials persisted through store.
func New(baseURL string, store LocalStore) *Orchestrator {
	return &Orchestrator{
		client:      NewHTTPClient(baseURL),
		store:       store,
		channelKeys: make(map[string][]byte),
	}
}

// Register generates a fresh key-agreement keypair and a dedicated
// signing keypair, signs the canonical registration payload, submits it,
// and persists the resulting credentials.
func (o *Orchestrator) Register(ctx context.Context, profile identity.ProfileInput) (Credentials, error) {
	agreement, err := crypto.GenerateKeyPair()
	if err != nil {
		return Credentials{}, err
	}
	signing, err := crypto.GenerateSigningKeyPair()
	if err != nil {
		return Credentials{}, err
	}

	payload, err := json.Marshal(struct {
		PublicKey  string                `json:"publicKey"`
		SigningKey string                `json:"signingKey"`
		Profile    identity.ProfileInput `json:"profile"`
	}{agreement.Public, signing.Public, profile})
	if err != nil {
		return Credentials{}, err
	}
	sig, err := crypto.Sign(signing.Private, payload)
	if err != nil {
		return Credentials{}, err
	}

	agent, err := o.client.Register(ctx, identity.RegistrationRequest{
		PublicKey:  agreement.Public,
		SigningKey: signing.Public,
		Profile:    profile,
		Signature:  sig,
	})
	if err != nil {
		return Credentials{}, err
	}

	creds := Credentials{
		DID:              agent.DID,
		AgreementPublic:  agreement.Public,
		AgreementPrivate: agreement.Private,
		SigningPublic:    signing.Public,
		SigningPrivate:   signing.Private,
	}
	if err := o.store.Save(creds); err != nil {
		return Credentials{}, err
	}
	return creds, nil
}

// inviteePublicKeys resolves public keys for a set of invitee DIDs
// through a caller-supplied lookup (the orchestrator has no storage
// access of its own; it only sees what the façade exposes).
type inviteePublicKeys interface {
	PublicKey(did string) (string, bool)
}

// CreateChannel runs the client-side half of channel creation: a fresh
// channel key is generated and wrapped once per invitee using a
// pairwise ECDH secret, exactly as channel.CreateChannel documents, but
// here, unlike that pure-core helper, the raw key is also kept so the
// creator can immediately use its own channel. Only the wrapped
// per-invitee blobs cross the wire to the façade.
func (o *Orchestrator) CreateChannel(
	ctx context.Context,
	creds Credentials,
	inviteeDIDs []string,
	policy *channel.AccessPolicy,
	metadata *channel.Metadata,
	lookup inviteePublicKeys,
) (channel.Channel, []channel.Invitation, error) {
	if len(inviteeDIDs) == 0 {
		return channel.Channel{}, nil, channel.ErrNoInvitees
	}

	channelKey, err := crypto.GenerateChannelKey()
	if err != nil {
		return channel.Channel{}, nil, err
	}

	wrapped := make([]channel.WrappedInvite, 0, len(inviteeDIDs))
	for _, did := range inviteeDIDs {
		if did == creds.DID {
			continue
		}
		publicKey, ok := lookup.PublicKey(did)
		if !ok {
			return channel.Channel{}, nil, fmt.Errorf("%w: %s", channel.ErrUnknownAgent, did)
		}
		secret, err := crypto.DeriveSharedSecret(creds.AgreementPrivate, publicKey)
		if err != nil {
			return channel.Channel{}, nil, err
		}
		wrappedKey, nonce, err := crypto.WrapChannelKey(secret, channelKey)
		if err != nil {
			return channel.Channel{}, nil, err
		}
		wrapped = append(wrapped, channel.WrappedInvite{InviteeDID: did, WrappedKey: wrappedKey, Nonce: nonce})
	}

	remoteChannel, remoteInvitations, err := o.client.CreateChannel(ctx, creds.DID, wrapped, policy, metadata)
	if err != nil {
		return channel.Channel{}, nil, err
	}

	o.CacheChannelKey(remoteChannel.ID, channelKey)
	return remoteChannel, remoteInvitations, nil
}

// AcceptInvitation fetches the wrapped key for invitationID, unwraps it
// using creds' private key and the inviter's public key, and caches the
// resulting channel key locally.
func (o *Orchestrator) AcceptInvitation(ctx context.Context, creds Credentials, invitationID, inviterPublicKey string) (channel.Invitation, error) {
	inv, wrappedKey, nonce, err := o.client.AcceptInvitation(ctx, creds.DID, invitationID)
	if err != nil {
		return channel.Invitation{}, err
	}
	if inv.Status != channel.StatusAccepted {
		return inv, nil
	}

	secret, err := crypto.DeriveSharedSecret(creds.AgreementPrivate, inviterPublicKey)
	if err != nil {
		return channel.Invitation{}, err
	}
	channelKey, err := crypto.UnwrapChannelKey(secret, wrappedKey, nonce)
	if err != nil {
		return channel.Invitation{}, err
	}

	o.mu.Lock()
	o.channelKeys[inv.ChannelID] = channelKey
	o.mu.Unlock()

	return inv, nil
}

// CacheChannelKey lets a channel creator seed its own key cache, since
// CreateChannel never returns the raw key (only wrapped per-invitee
// blobs leave the orchestrator's memory).
func (o *Orchestrator) CacheChannelKey(channelID string, key []byte) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.channelKeys[channelID] = key
}

// EncryptAndSend encrypts plaintext under channelID's cached key and
// submits it through the façade.
func (o *Orchestrator) EncryptAndSend(ctx context.Context, creds Credentials, channelID string, plaintext []byte) (channel.EncryptedMessage, error) {
	key, ok := o.cachedKey(channelID)
	if !ok {
		return channel.EncryptedMessage{}, fmt.Errorf("no cached key for channel %s", channelID)
	}

	ciphertext, nonce, err := crypto.Encrypt(key, plaintext)
	if err != nil {
		return channel.EncryptedMessage{}, err
	}
	return o.client.SendMessage(ctx, creds.DID, channelID, nonce, ciphertext)
}

// FetchAndDecrypt lists channelID's messages and decrypts each using the
// cached channel key, skipping any message that fails to decrypt rather
// than aborting the whole batch.
func (o *Orchestrator) FetchAndDecrypt(ctx context.Context, creds Credentials, channelID string) ([][]byte, error) {
	key, ok := o.cachedKey(channelID)
	if !ok {
		return nil, fmt.Errorf("no cached key for channel %s", channelID)
	}

	messages, err := o.client.ListMessages(ctx, creds.DID, channelID)
	if err != nil {
		return nil, err
	}

	plaintexts := make([][]byte, 0, len(messages))
	for _, msg := range messages {
		plaintext, err := crypto.Decrypt(key, msg.Ciphertext, msg.Nonce)
		if err != nil {
			continue
		}
		plaintexts = append(plaintexts, plaintext)
	}
	return plaintexts, nil
}

func (o *Orchestrator) cachedKey(channelID string) ([]byte, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	key, ok := o.channelKeys[channelID]
	return key, ok
}

// Logout purges the decrypted-key cache. Persisted credentials in the
// local store are untouched.
func (o *Orchestrator) Logout() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.channelKeys = make(map[string][]byte)
}
