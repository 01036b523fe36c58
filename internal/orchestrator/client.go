package orchestrator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/moltbook/privacy/internal/channel"
	"github.com/moltbook/privacy/internal/crypto"
	"github.com/moltbook/privacy/internal/identity"
)

// HTTPClient talks to the service façade in internal/server over plain
// HTTP, exactly as an external client would. It never constructs
// anything the façade couldn't otherwise receive over the wire.
type HTTPClient struct {
	baseURL string
	http    *http.Client
}

func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{baseURL: baseURL, http: http.DefaultClient}
}

type apiEnvelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
	Hint    string          `json:"hint,omitempty"`
}

// ErrRemote wraps a non-success façade response.
type ErrRemote struct {
	Status int
	Reason string
	Hint   string
}

func (e *ErrRemote) Error() string {
	if e.Hint != "" {
		return fmt.Sprintf("remote: %s (%s)", e.Reason, e.Hint)
	}
	return fmt.Sprintf("remote: %s", e.Reason)
}

func (c *HTTPClient) do(ctx context.Context, method, path, callerDID string, body any, out any) error {
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if callerDID != "" {
		req.Header.Set("X-Agent-DID", callerDID)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var env apiEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if !env.Success {
		return &ErrRemote{Status: resp.StatusCode, Reason: env.Error, Hint: env.Hint}
	}
	if out != nil && len(env.Data) > 0 {
		return json.Unmarshal(env.Data, out)
	}
	return nil
}

// Register submits a signed registration and returns the resulting agent.
func (c *HTTPClient) Register(ctx context.Context, req identity.RegistrationRequest) (identity.Agent, error) {
	var out struct {
		DID   string         `json:"did"`
		Agent identity.Agent `json:"agent"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/agents/register", "", req, &out); err != nil {
		return identity.Agent{}, err
	}
	return out.Agent, nil
}

type wrappedInviteWire struct {
	InviteeDID string `json:"inviteeDid"`
	WrappedKey string `json:"wrappedKey"`
	Nonce      string `json:"nonce"`
}

type createChannelWire struct {
	WrappedInvites []wrappedInviteWire   `json:"wrappedInvites"`
	Policy         *channel.AccessPolicy `json:"policy,omitempty"`
	Metadata       *channel.Metadata     `json:"metadata,omitempty"`
}

// CreateChannel posts only already-wrapped per-invitee blobs, never a
// private key.
func (c *HTTPClient) CreateChannel(ctx context.Context, creatorDID string, invites []channel.WrappedInvite, policy *channel.AccessPolicy, metadata *channel.Metadata) (channel.Channel, []channel.Invitation, error) {
	wire := createChannelWire{Policy: policy, Metadata: metadata}
	for _, inv := range invites {
		wire.WrappedInvites = append(wire.WrappedInvites, wrappedInviteWire{
			InviteeDID: inv.InviteeDID,
			WrappedKey: crypto.EncodeBase64(inv.WrappedKey),
			Nonce:      crypto.EncodeBase64(inv.Nonce),
		})
	}

	var out struct {
		Channel     channel.Channel      `json:"channel"`
		Invitations []channel.Invitation `json:"invitations"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/channels", creatorDID, wire, &out); err != nil {
		return channel.Channel{}, nil, err
	}
	return out.Channel, out.Invitations, nil
}

func (c *HTTPClient) ListInvitations(ctx context.Context, did string) ([]channel.Invitation, error) {
	var invitations []channel.Invitation
	if err := c.do(ctx, http.MethodGet, "/api/invitations", did, nil, &invitations); err != nil {
		return nil, err
	}
	return invitations, nil
}

// AcceptInvitation accepts invitationID and returns the updated
// invitation plus the still-wrapped key blob for local unwrapping.
func (c *HTTPClient) AcceptInvitation(ctx context.Context, did, invitationID string) (channel.Invitation, []byte, []byte, error) {
	var out struct {
		Invitation channel.Invitation `json:"invitation"`
		WrappedKey string             `json:"wrappedKey"`
		Nonce      string             `json:"nonce"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/invitations/"+invitationID+"/accept", did, nil, &out); err != nil {
		return channel.Invitation{}, nil, nil, err
	}
	wrappedKey, err := crypto.DecodeBase64(out.WrappedKey)
	if err != nil {
		return channel.Invitation{}, nil, nil, err
	}
	nonce, err := crypto.DecodeBase64(out.Nonce)
	if err != nil {
		return channel.Invitation{}, nil, nil, err
	}
	return out.Invitation, wrappedKey, nonce, nil
}

func (c *HTTPClient) RejectInvitation(ctx context.Context, did, invitationID string) error {
	return c.do(ctx, http.MethodPost, "/api/invitations/"+invitationID+"/reject", did, nil, nil)
}

type sendMessageWire struct {
	ChannelID          string `json:"channelId"`
	Nonce              []byte `json:"nonce"`
	Ciphertext         []byte `json:"ciphertext"`
	EphemeralPublicKey string `json:"ephemeralPubKey,omitempty"`
}

func (c *HTTPClient) SendMessage(ctx context.Context, did, channelID string, nonce, ciphertext []byte) (channel.EncryptedMessage, error) {
	wire := sendMessageWire{ChannelID: channelID, Nonce: nonce, Ciphertext: ciphertext}
	var msg channel.EncryptedMessage
	if err := c.do(ctx, http.MethodPost, "/api/channels/"+channelID+"/messages", did, wire, &msg); err != nil {
		return channel.EncryptedMessage{}, err
	}
	return msg, nil
}

func (c *HTTPClient) ListMessages(ctx context.Context, did, channelID string) ([]channel.EncryptedMessage, error) {
	var messages []channel.EncryptedMessage
	if err := c.do(ctx, http.MethodGet, "/api/channels/"+channelID+"/messages", did, nil, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}
