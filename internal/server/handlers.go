package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/mufasadb/poe-level-tracker/internal/core"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	// Ready means the store answers; a read failure keeps us out of rotation.
	if _, err := s.store.ListAccounts(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "store unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"version": s.version})
}

func (s *Server) handleSnapshots(w http.ResponseWriter, r *http.Request) {
	snapshots, err := s.store.AllRecords(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "reading snapshots failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"snapshots": snapshots})
}

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := s.store.ListAccounts(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "reading accounts failed")
		return
	}
	if accounts == nil {
		accounts = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"accounts": accounts})
}

type addAccountRequest struct {
	Account string `json:"account"`
}

func (s *Server) handleAddAccount(w http.ResponseWriter, r *http.Request) {
	var payload addAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := core.ValidateAccount(payload.Account); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	// Probe before tracking so private or missing accounts are rejected with
	// a useful classification instead of silently failing every cycle.
	if s.tracker != nil {
		if _, err := s.tracker.Probe(r.Context(), payload.Account); err != nil {
			writeRemoteError(w, err)
			return
		}
	}

	if err := s.store.AddAccount(r.Context(), payload.Account); err != nil {
		writeError(w, http.StatusInternalServerError, "storing account failed")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"account": payload.Account})
}

func (s *Server) handleRemoveAccount(w http.ResponseWriter, r *http.Request) {
	account := accountParam(r)
	if account == "" {
		writeError(w, http.StatusBadRequest, "account is required")
		return
	}

	if err := s.store.RemoveAccount(r.Context(), account); err != nil {
		writeError(w, http.StatusInternalServerError, "removing account failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"removed": account})
}

func (s *Server) handleCharacters(w http.ResponseWriter, r *http.Request) {
	account := accountParam(r)
	if s.tracker == nil {
		writeError(w, http.StatusServiceUnavailable, "character source unavailable")
		return
	}

	characters, err := s.tracker.Probe(r.Context(), account)
	if err != nil {
		writeRemoteError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"account":    account,
		"characters": characters,
	})
}

// accountParam extracts the account route parameter, unescaping the "#" in
// the discriminator when the client percent-encodes it.
func accountParam(r *http.Request) string {
	value := chi.URLParam(r, "account")
	if unescaped, err := url.PathUnescape(value); err == nil {
		return unescaped
	}
	return value
}

// writeRemoteError maps the core taxonomy onto HTTP statuses, reusing the
// classified human-readable message.
func writeRemoteError(w http.ResponseWriter, err error) {
	status := http.StatusBadGateway
	message := "character lookup failed"

	var remote *core.RemoteError
	switch core.KindOf(err) {
	case core.KindPrivateProfile:
		status = http.StatusForbidden
	case core.KindAccountNotFound:
		status = http.StatusNotFound
	case core.KindRateLimited:
		status = http.StatusTooManyRequests
	case core.KindMalformedPayload, core.KindUnexpectedStatus, core.KindTransportFailure:
		status = http.StatusBadGateway
	default:
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if errors.As(err, &remote) {
		message = remote.Message()
	}
	writeError(w, status, message)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
