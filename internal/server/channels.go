package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/moltbook/privacy/internal/channel"
	"github.com/moltbook/privacy/internal/crypto"
	"github.com/moltbook/privacy/internal/storage"
)

type wrappedInviteRequest struct {
	InviteeDID string `json:"inviteeDid"`
	WrappedKey string `json:"wrappedKey"`
	Nonce      string `json:"nonce"`
}

type createChannelRequest struct {
	WrappedInvites []wrappedInviteRequest `json:"wrappedInvites"`
	Policy         *channel.AccessPolicy  `json:"policy,omitempty"`
	Metadata       *channel.Metadata      `json:"metadata,omitempty"`
}

// handleCreateChannel assembles a channel from invitee keys the client
// has already wrapped. The server performs no cryptography here: it
// never sees the creator's private key.
func (s *Server) handleCreateChannel(w http.ResponseWriter, r *http.Request) {
	var req createChannelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	wrapped := make([]channel.WrappedInvite, 0, len(req.WrappedInvites))
	for _, invite := range req.WrappedInvites {
		key, err := crypto.DecodeBase64(invite.WrappedKey)
		if err != nil {
			writeError(w, http.StatusBadRequest, "malformed wrapped key")
			return
		}
		nonce, err := crypto.DecodeBase64(invite.Nonce)
		if err != nil {
			writeError(w, http.StatusBadRequest, "malformed nonce")
			return
		}
		wrapped = append(wrapped, channel.WrappedInvite{InviteeDID: invite.InviteeDID, WrappedKey: key, Nonce: nonce})
	}

	lookup := storageLookup{ctx: r.Context(), adapter: s.adapter}
	ch, invitations, err := channel.AssembleChannel(callerDID(r), wrapped, req.Policy, req.Metadata, lookup, time.Now())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.adapter.SaveChannel(r.Context(), ch); err != nil {
		writeError(w, http.StatusInternalServerError, "storage failure")
		return
	}
	for _, inv := range invitations {
		if err := s.adapter.SaveInvitation(r.Context(), inv); err != nil {
			writeError(w, http.StatusInternalServerError, "storage failure")
			return
		}
	}

	writeData(w, http.StatusCreated, map[string]any{"channel": ch, "invitations": invitations})
}

func (s *Server) handleListChannels(w http.ResponseWriter, r *http.Request) {
	channels, err := s.adapter.ListChannelsForAgent(r.Context(), callerDID(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "storage failure")
		return
	}

	now := time.Now()
	out := make([]map[string]any, 0, len(channels))
	for _, ch := range channels {
		messages, err := s.adapter.ListMessages(r.Context(), ch.ID, storage.MessageListOptions{})
		if err != nil {
			writeError(w, http.StatusInternalServerError, "storage failure")
			return
		}
		stats := channel.ComputeStats(ch, messages, now)
		out = append(out, map[string]any{"channel": ch, "stats": stats})
	}
	writeData(w, http.StatusOK, out)
}

func (s *Server) handleGetChannel(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	ch, err := s.adapter.GetChannel(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusNotFound, "channel not found")
		return
	}

	holder, err := s.credentialHolder(r)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "storage failure")
		return
	}
	decision := channel.DecideAccess(ch, holder)
	if !decision.Allowed {
		writeError(w, http.StatusForbidden, decision.Reason)
		return
	}

	messages, err := s.adapter.ListMessages(r.Context(), ch.ID, storage.MessageListOptions{})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "storage failure")
		return
	}
	stats := channel.ComputeStats(ch, messages, time.Now())
	writeData(w, http.StatusOK, map[string]any{"channel": ch, "stats": stats})
}

func (s *Server) handleJoinChannel(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	ch, err := s.adapter.GetChannel(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusNotFound, "channel not found")
		return
	}

	holder, err := s.credentialHolder(r)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "storage failure")
		return
	}
	decision := channel.DecideAccess(ch, holder)
	if !decision.Allowed {
		writeError(w, http.StatusForbidden, decision.Reason)
		return
	}

	if err := ch.AddParticipant(callerDID(r)); err != nil {
		writeError(w, http.StatusForbidden, err.Error())
		return
	}
	if err := s.adapter.SaveChannel(r.Context(), ch); err != nil {
		writeError(w, http.StatusInternalServerError, "storage failure")
		return
	}
	writeData(w, http.StatusOK, ch)
}

func (s *Server) handleLeaveChannel(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	ch, err := s.adapter.GetChannel(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusNotFound, "channel not found")
		return
	}

	if !channel.Contains(ch.Participants, callerDID(r)) {
		writeError(w, http.StatusBadRequest, "not a channel participant")
		return
	}

	if err := ch.RemoveParticipant(callerDID(r), callerDID(r)); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.adapter.SaveChannel(r.Context(), ch); err != nil {
		writeError(w, http.StatusInternalServerError, "storage failure")
		return
	}
	writeData(w, http.StatusOK, nil)
}

// credentialHolder resolves the caller's agent record for use in access
// decisions. *identity.Agent satisfies channel.CredentialHolder.
func (s *Server) credentialHolder(r *http.Request) (channel.CredentialHolder, error) {
	agent, err := s.adapter.GetAgent(r.Context(), callerDID(r))
	if err != nil {
		return nil, err
	}
	return &agent, nil
}
