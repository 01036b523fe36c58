package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/moltbook/privacy/internal/identity"
	"github.com/moltbook/privacy/internal/storage"
)

func (s *Server) handleRegisterAgent(w http.ResponseWriter, r *http.Request) {
	var req identity.RegistrationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	agent, err := identity.NewAgentFromRegistration(req, time.Now())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	exists, err := s.adapter.AgentExists(r.Context(), agent.DID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "storage failure")
		return
	}
	if exists {
		writeError(w, http.StatusConflict, "agent already registered for this public key")
		return
	}

	if err := s.adapter.SaveAgent(r.Context(), agent); err != nil {
		writeError(w, http.StatusInternalServerError, "storage failure")
		return
	}

	writeData(w, http.StatusCreated, map[string]any{"did": agent.DID, "agent": agent})
}

func (s *Server) handleSearchAgents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := storage.AgentSearchFilter{
		CredentialContract: q.Get("nftContract"),
		CredentialSchema:   q.Get("nftSchema"),
	}
	if csv := q.Get("capabilities"); csv != "" {
		filter.Capabilities = strings.Split(csv, ",")
	}
	if min := q.Get("minReputation"); min != "" {
		if n, err := strconv.Atoi(min); err == nil {
			filter.MinReputation = n
		}
	}

	agents, err := s.adapter.SearchAgents(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "storage failure")
		return
	}
	writeData(w, http.StatusOK, agents)
}

func (s *Server) handleGetAgent(w http.ResponseWriter, r *http.Request) {
	did := r.PathValue("did")
	if err := identity.ValidateDID(did); err != nil {
		writeError(w, http.StatusBadRequest, "invalid DID format")
		return
	}
	agent, err := s.adapter.GetAgent(r.Context(), did)
	if err != nil {
		writeError(w, http.StatusNotFound, "agent not found")
		return
	}
	writeData(w, http.StatusOK, agent)
}

func (s *Server) handlePatchAgent(w http.ResponseWriter, r *http.Request) {
	did := r.PathValue("did")
	if callerDID(r) != did {
		writeError(w, http.StatusUnauthorized, "can only update your own profile")
		return
	}

	agent, err := s.adapter.GetAgent(r.Context(), did)
	if err != nil {
		writeError(w, http.StatusNotFound, "agent not found")
		return
	}

	var update identity.ProfileInput
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	agent.UpdateProfile(update)
	if err := s.adapter.SaveAgent(r.Context(), agent); err != nil {
		writeError(w, http.StatusInternalServerError, "storage failure")
		return
	}
	writeData(w, http.StatusOK, agent)
}

type addCredentialRequest struct {
	Contract string `json:"contract"`
	AssetID  string `json:"assetId"`
	Schema   string `json:"schema"`
}

func (s *Server) handleAddCredential(w http.ResponseWriter, r *http.Request) {
	did := r.PathValue("did")
	if callerDID(r) != did {
		writeError(w, http.StatusUnauthorized, "can only add credentials to your own profile")
		return
	}

	agent, err := s.adapter.GetAgent(r.Context(), did)
	if err != nil {
		writeError(w, http.StatusNotFound, "agent not found")
		return
	}

	var req addCredentialRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if req.Contract == "" || req.AssetID == "" {
		writeError(w, http.StatusBadRequest, "contract and assetId are required")
		return
	}

	agent.AddCredential(req.Contract, req.AssetID, req.Schema)
	if err := s.adapter.SaveAgent(r.Context(), agent); err != nil {
		writeError(w, http.StatusInternalServerError, "storage failure")
		return
	}
	writeData(w, http.StatusOK, agent)
}
