package server

import (
	"context"
	"net/http"

	"github.com/moltbook/privacy/internal/identity"
)

type callerKey struct{}

// requireAgent extracts X-Agent-DID, validates its grammar, and checks
// that it resolves to a registered agent before calling next. The
// façade extracts the caller's DID from a single well-known header and
// validates it before any authorization decision is made.
func (s *Server) requireAgent(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		did := r.Header.Get("X-Agent-DID")
		if did == "" {
			writeError(w, http.StatusUnauthorized, "missing X-Agent-DID header")
			return
		}
		if err := identity.ValidateDID(did); err != nil {
			writeError(w, http.StatusUnauthorized, "invalid DID format")
			return
		}
		exists, err := s.adapter.AgentExists(r.Context(), did)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "storage failure")
			return
		}
		if !exists {
			writeError(w, http.StatusUnauthorized, "no such registered agent")
			return
		}
		ctx := context.WithValue(r.Context(), callerKey{}, did)
		next(w, r.WithContext(ctx))
	}
}

func callerDID(r *http.Request) string {
	did, _ := r.Context().Value(callerKey{}).(string)
	return did
}
