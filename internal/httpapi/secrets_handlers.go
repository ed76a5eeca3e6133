package httpapi

import (
	"net/http"
	"strings"
	"sync/atomic"

	"jobfinder-engine/internal/errors"
	"jobfinder-engine/internal/secrets"
)

// APIToken holds the live API token so it can be rotated without a restart.
type APIToken struct {
	v atomic.Value
}

func NewAPIToken(tok string) *APIToken {
	t := &APIToken{}
	t.Set(tok)
	return t
}

func (t *APIToken) Get() string {
	if t == nil {
		return ""
	}
	s, _ := t.v.Load().(string)
	return s
}

func (t *APIToken) Set(tok string) { t.v.Store(strings.TrimSpace(tok)) }

type SecretsHandler struct {
	Token *APIToken
	Deps  Deps
	// Persist stores the new token; defaults to the OS keychain.
	Persist func(token string) error
}

type setTokenReq struct {
	Token string `json:"token"`
}

// SetAPIToken rotates the API token. The caller must already hold the old one.
func (h SecretsHandler) SetAPIToken(w http.ResponseWriter, r *http.Request) {
	if h.Token == nil {
		h.Deps.WriteDomainError(w, r, errors.Unavailable("token rotation disabled", nil))
		return
	}
	var req setTokenReq
	if err := decodeJSON(r, &req); err != nil {
		h.Deps.WriteDomainError(w, r, err)
		return
	}
	if len(strings.TrimSpace(req.Token)) < 16 {
		h.Deps.WriteDomainError(w, r, errors.InvalidInput("token must be at least 16 characters", nil))
		return
	}

	persist := h.Persist
	if persist == nil {
		persist = secrets.SetAPIToken
	}
	if err := persist(req.Token); err != nil {
		h.Deps.WriteDomainError(w, r, errors.Unavailable("failed to store token", err))
		return
	}
	h.Token.Set(req.Token)
	w.WriteHeader(http.StatusNoContent)
}
