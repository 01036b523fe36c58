// Package server is the HTTP service façade for the agent privacy
// layer: it translates transport requests into identity/channel
// component calls, enforces the authentication and authorization
// matrix, and serializes every response as the {success, data, error,
// hint} envelope. It owns no domain logic of its own.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/moltbook/privacy/internal/storage"
)

// Server is the main HTTP server for the agent privacy API.
type Server struct {
	adapter *storage.Adapter
	limiter *perIPLimiter
	mux     *http.ServeMux
}

// New creates a new Server with all routes registered.
func New(adapter *storage.Adapter) *Server {
	s := &Server{
		adapter: adapter,
		limiter: newPerIPLimiter(120, time.Minute),
		mux:     http.NewServeMux(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /api/health", s.handleHealth)

	s.mux.HandleFunc("POST /api/agents/register", s.rateLimited(s.handleRegisterAgent))
	s.mux.HandleFunc("GET /api/agents/search", s.handleSearchAgents)
	s.mux.HandleFunc("GET /api/agents/{did}", s.handleGetAgent)
	s.mux.HandleFunc("PATCH /api/agents/{did}", s.requireAgent(s.handlePatchAgent))
	s.mux.HandleFunc("POST /api/agents/{did}/nft", s.requireAgent(s.handleAddCredential))

	s.mux.HandleFunc("POST /api/channels", s.requireAgent(s.handleCreateChannel))
	s.mux.HandleFunc("GET /api/channels", s.requireAgent(s.handleListChannels))
	s.mux.HandleFunc("GET /api/channels/{id}", s.requireAgent(s.handleGetChannel))
	s.mux.HandleFunc("POST /api/channels/{id}/join", s.requireAgent(s.handleJoinChannel))
	s.mux.HandleFunc("POST /api/channels/{id}/leave", s.requireAgent(s.handleLeaveChannel))

	s.mux.HandleFunc("GET /api/invitations", s.requireAgent(s.handleListInvitations))
	s.mux.HandleFunc("POST /api/invitations/{id}/accept", s.requireAgent(s.handleAcceptInvitation))
	s.mux.HandleFunc("POST /api/invitations/{id}/reject", s.requireAgent(s.handleRejectInvitation))

	s.mux.HandleFunc("POST /api/channels/{id}/messages", s.requireAgent(s.handleSendMessage))
	s.mux.HandleFunc("GET /api/channels/{id}/messages", s.requireAgent(s.handleListMessages))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": "privacy",
	})
}

// StartWorkers launches the background message-expiry sweeper. Call
// with a cancellable context for graceful shutdown. The rate limiter's
// cleanup goroutine is started by New and is not tied to this context.
func (s *Server) StartWorkers(ctx context.Context) {
	go s.runExpirySweeper(ctx)
}
