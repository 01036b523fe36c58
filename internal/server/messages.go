package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/moltbook/privacy/internal/channel"
	"github.com/moltbook/privacy/internal/storage"
)

func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	ch, err := s.adapter.GetChannel(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusNotFound, "channel not found")
		return
	}

	var req channel.SendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	if err := channel.ValidateSend(req, ch, callerDID(r)); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	msg := channel.NewEnvelope(req, callerDID(r), time.Now())
	if err := s.adapter.SaveMessage(r.Context(), ch.ID, msg); err != nil {
		writeError(w, http.StatusInternalServerError, "storage failure")
		return
	}
	writeData(w, http.StatusCreated, msg)
}

const maxMessageListLimit = 100

func (s *Server) handleListMessages(w http.ResponseWriter, r *http.Request) {
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

	opts := storage.MessageListOptions{}
	q := r.URL.Query()
	if limitStr := q.Get("limit"); limitStr != "" {
		if n, err := strconv.Atoi(limitStr); err == nil {
			if n > maxMessageListLimit {
				n = maxMessageListLimit
			}
			opts.Limit = n
		}
	} else {
		opts.Limit = maxMessageListLimit
	}
	if before := q.Get("before"); before != "" {
		if ts, err := strconv.ParseInt(before, 10, 64); err == nil {
			opts.Before = &ts
		}
	}
	if after := q.Get("after"); after != "" {
		if ts, err := strconv.ParseInt(after, 10, 64); err == nil {
			opts.After = &ts
		}
	}

	messages, err := s.adapter.ListMessages(r.Context(), ch.ID, opts)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "storage failure")
		return
	}

	now := time.Now()
	var ttl *int64
	if ch.Metadata != nil {
		ttl = ch.Metadata.MessageTTLSeconds
	}
	kept := messages[:0]
	for _, msg := range messages {
		if !channel.IsExpired(msg, ttl, now) {
			kept = append(kept, msg)
		}
	}

	writeData(w, http.StatusOK, kept)
}
