package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/moltbook/privacy/internal/crypto"
	"github.com/moltbook/privacy/internal/storage"
)

func newTestServer() *Server {
	return New(storage.NewAdapter(storage.NewMemoryStore()))
}

func registerAgent(t *testing.T, s *Server, agreement crypto.KeyPair, signing crypto.SigningKeyPair, agreementKeyPair crypto.KeyPair) map[string]any {
	t.Helper()

	profile := map[string]any{"displayName": "tester"}
	payload, err := json.Marshal(struct {
		PublicKey  string         `json:"publicKey"`
		SigningKey string         `json:"signingKey"`
		Profile    map[string]any `json:"profile"`
	}{
		PublicKey:  agreementKeyPair.Public,
		SigningKey: signing.Public,
		Profile:    profile,
	})
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	sig, err := crypto.Sign(signing.Private, payload)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	body, _ := json.Marshal(map[string]any{
		"publicKey":  agreementKeyPair.Public,
		"signingKey": signing.Public,
		"profile":    profile,
		"signature":  sig,
	})

	req := httptest.NewRequest(http.MethodPost, "/api/agents/register", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Data map[string]any `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	return resp.Data
}

func TestHandleRegisterAgent_Succeeds(t *testing.T) {
	s := newTestServer()
	agreement, _ := crypto.GenerateKeyPair()
	signing, _ := crypto.GenerateSigningKeyPair()

	data := registerAgent(t, s, agreement, signing, agreement)
	if data["did"] == "" {
		t.Fatal("expected a DID in the response")
	}
}

func TestHandleRegisterAgent_DuplicateRejected(t *testing.T) {
	s := newTestServer()
	agreement, _ := crypto.GenerateKeyPair()
	signing, _ := crypto.GenerateSigningKeyPair()
	registerAgent(t, s, agreement, signing, agreement)

	payload, _ := json.Marshal(struct {
		PublicKey  string         `json:"publicKey"`
		SigningKey string         `json:"signingKey"`
		Profile    map[string]any `json:"profile"`
	}{
		PublicKey:  agreement.Public,
		SigningKey: signing.Public,
		Profile:    map[string]any{},
	})
	sig, _ := crypto.Sign(signing.Private, payload)
	body, _ := json.Marshal(map[string]any{
		"publicKey":  agreement.Public,
		"signingKey": signing.Public,
		"profile":    map[string]any{},
		"signature":  sig,
	})

	req := httptest.NewRequest(http.MethodPost, "/api/agents/register", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestChannelLifecycle_CreateAcceptSendList(t *testing.T) {
	s := newTestServer()

	creatorAgreement, _ := crypto.GenerateKeyPair()
	creatorSigning, _ := crypto.GenerateSigningKeyPair()
	creator := registerAgent(t, s, creatorAgreement, creatorSigning, creatorAgreement)
	creatorDID := creator["did"].(string)

	inviteeAgreement, _ := crypto.GenerateKeyPair()
	inviteeSigning, _ := crypto.GenerateSigningKeyPair()
	invitee := registerAgent(t, s, inviteeAgreement, inviteeSigning, inviteeAgreement)
	inviteeDID := invitee["did"].(string)

	channelKey, err := crypto.GenerateChannelKey()
	if err != nil {
		t.Fatalf("generate channel key: %v", err)
	}
	secret, err := crypto.DeriveSharedSecret(creatorAgreement.Private, inviteeAgreement.Public)
	if err != nil {
		t.Fatalf("derive secret: %v", err)
	}
	wrappedKey, nonce, err := crypto.WrapChannelKey(secret, channelKey)
	if err != nil {
		t.Fatalf("wrap: %v", err)
	}

	createBody, _ := json.Marshal(map[string]any{
		"wrappedInvites": []map[string]any{
			{
				"inviteeDid": inviteeDID,
				"wrappedKey": crypto.EncodeBase64(wrappedKey),
				"nonce":      crypto.EncodeBase64(nonce),
			},
		},
	})
	req := httptest.NewRequest(http.MethodPost, "/api/channels", bytes.NewReader(createBody))
	req.Header.Set("X-Agent-DID", creatorDID)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var createResp struct {
		Data struct {
			Channel     map[string]any   `json:"channel"`
			Invitations []map[string]any `json:"invitations"`
		} `json:"data"`
	}
	json.Unmarshal(rec.Body.Bytes(), &createResp)
	channelID := createResp.Data.Channel["id"].(string)
	invitationID := createResp.Data.Invitations[0]["id"].(string)

	// Invitee accepts.
	req = httptest.NewRequest(http.MethodPost, "/api/invitations/"+invitationID+"/accept", nil)
	req.Header.Set("X-Agent-DID", inviteeDID)
	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 accepting invitation, got %d: %s", rec.Code, rec.Body.String())
	}

	// Creator sends a message.
	ciphertext, msgNonce, err := crypto.Encrypt(channelKey, []byte("hello"))
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	sendBody, _ := json.Marshal(map[string]any{
		"channelId":  channelID,
		"nonce":      msgNonce,
		"ciphertext": ciphertext,
	})
	req = httptest.NewRequest(http.MethodPost, "/api/channels/"+channelID+"/messages", bytes.NewReader(sendBody))
	req.Header.Set("X-Agent-DID", creatorDID)
	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 sending message, got %d: %s", rec.Code, rec.Body.String())
	}

	// Invitee lists messages and decrypts.
	req = httptest.NewRequest(http.MethodGet, "/api/channels/"+channelID+"/messages", nil)
	req.Header.Set("X-Agent-DID", inviteeDID)
	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 listing messages, got %d: %s", rec.Code, rec.Body.String())
	}

	var listResp struct {
		Data []struct {
			Nonce      []byte `json:"nonce"`
			Ciphertext []byte `json:"ciphertext"`
		} `json:"data"`
	}
	json.Unmarshal(rec.Body.Bytes(), &listResp)
	if len(listResp.Data) != 1 {
		t.Fatalf("expected 1 message, got %d", len(listResp.Data))
	}

	plaintext, err := crypto.Decrypt(channelKey, listResp.Data[0].Ciphertext, listResp.Data[0].Nonce)
	if err != nil {
		t.Fatalf("decrypt: %v", err)
	}
	if string(plaintext) != "hello" {
		t.Fatalf("expected hello, got %q", plaintext)
	}
}

func TestHandleSendMessage_NonParticipantRejected(t *testing.T) {
	s := newTestServer()

	creatorAgreement, _ := crypto.GenerateKeyPair()
	creatorSigning, _ := crypto.GenerateSigningKeyPair()
	creator := registerAgent(t, s, creatorAgreement, creatorSigning, creatorAgreement)
	creatorDID := creator["did"].(string)

	outsiderAgreement, _ := crypto.GenerateKeyPair()
	outsiderSigning, _ := crypto.GenerateSigningKeyPair()
	outsider := registerAgent(t, s, outsiderAgreement, outsiderSigning, outsiderAgreement)
	outsiderDID := outsider["did"].(string)

	inviteeAgreement, _ := crypto.GenerateKeyPair()
	inviteeSigning, _ := crypto.GenerateSigningKeyPair()
	invitee := registerAgent(t, s, inviteeAgreement, inviteeSigning, inviteeAgreement)
	inviteeDID := invitee["did"].(string)

	channelKey, _ := crypto.GenerateChannelKey()
	secret, _ := crypto.DeriveSharedSecret(creatorAgreement.Private, inviteeAgreement.Public)
	wrappedKey, nonce, _ := crypto.WrapChannelKey(secret, channelKey)

	createBody, _ := json.Marshal(map[string]any{
		"wrappedInvites": []map[string]any{
			{"inviteeDid": inviteeDID, "wrappedKey": crypto.EncodeBase64(wrappedKey), "nonce": crypto.EncodeBase64(nonce)},
		},
	})
	req := httptest.NewRequest(http.MethodPost, "/api/channels", bytes.NewReader(createBody))
	req.Header.Set("X-Agent-DID", creatorDID)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	var createResp struct {
		Data struct {
			Channel map[string]any `json:"channel"`
		} `json:"data"`
	}
	json.Unmarshal(rec.Body.Bytes(), &createResp)
	channelID := createResp.Data.Channel["id"].(string)

	sendBody, _ := json.Marshal(map[string]any{
		"channelId":  channelID,
		"nonce":      []byte("n"),
		"ciphertext": []byte("c"),
	})
	req = httptest.NewRequest(http.MethodPost, "/api/channels/"+channelID+"/messages", bytes.NewReader(sendBody))
	req.Header.Set("X-Agent-DID", outsiderDID)
	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestHandleCreateChannel_MissingHeaderRejected(t *testing.T) {
	s := newTestServer()
	req := httptest.NewRequest(http.MethodPost, "/api/channels", bytes.NewReader([]byte(`{}`)))
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without X-Agent-DID, got %d", rec.Code)
	}
}
