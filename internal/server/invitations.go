package server

import (
	"net/http"
	"time"

	"github.com/moltbook/privacy/internal/channel"
	"github.com/moltbook/privacy/internal/crypto"
)

func (s *Server) handleListInvitations(w http.ResponseWriter, r *http.Request) {
	pending, err := s.adapter.ListPendingInvitations(r.Context(), callerDID(r), time.Now())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "storage failure")
		return
	}
	writeData(w, http.StatusOK, pending)
}

func (s *Server) handleAcceptInvitation(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	inv, err := s.adapter.GetInvitation(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusNotFound, "invitation not found")
		return
	}

	if err := inv.Accept(callerDID(r), time.Now()); err != nil {
		status := http.StatusBadRequest
		if err == channel.ErrNotInvitee {
			status = http.StatusForbidden
		}
		writeError(w, status, err.Error())
		return
	}

	if err := s.adapter.SaveInvitationTransition(r.Context(), inv); err != nil {
		writeError(w, http.StatusInternalServerError, "storage failure")
		return
	}

	if inv.Status != channel.StatusAccepted {
		// The invitation turned out to be expired by the time we got here.
		writeData(w, http.StatusOK, map[string]any{"invitation": inv})
		return
	}

	ch, err := s.adapter.GetChannel(r.Context(), inv.ChannelID)
	if err == nil {
		if addErr := ch.AddParticipant(inv.InviteeDID); addErr == nil {
			s.adapter.SaveChannel(r.Context(), ch)
		}
	}

	writeData(w, http.StatusOK, map[string]any{
		"invitation": inv,
		"wrappedKey": crypto.EncodeBase64(inv.WrappedKey),
		"nonce":      crypto.EncodeBase64(inv.Nonce),
	})
}

func (s *Server) handleRejectInvitation(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	inv, err := s.adapter.GetInvitation(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusNotFound, "invitation not found")
		return
	}

	if err := inv.Reject(callerDID(r)); err != nil {
		status := http.StatusBadRequest
		if err == channel.ErrNotInvitee {
			status = http.StatusForbidden
		}
		writeError(w, status, err.Error())
		return
	}

	if err := s.adapter.SaveInvitationTransition(r.Context(), inv); err != nil {
		writeError(w, http.StatusInternalServerError, "storage failure")
		return
	}
	writeData(w, http.StatusOK, nil)
}
