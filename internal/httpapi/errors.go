package httpapi

import (
	"encoding/json"
	stderrors "errors"
	"net/http"

	"jobfinder-engine/internal/errors"
)

type APIError struct {
	Error struct {
		Code      string `json:"code"`
		Message   string `json:"message"`
		RequestID string `json:"request_id,omitempty"`
	} `json:"error"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func WriteError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	var e APIError
	e.Error.Code = code
	e.Error.Message = message
	e.Error.RequestID = RequestIDFrom(r.Context())
	WriteJSON(w, status, e)
}

// StatusFor maps a domain error type onto an HTTP status and error code.
func StatusFor(err error) (int, string) {
	switch errors.TypeOf(err) {
	case errors.ErrTypeNotFound:
		return http.StatusNotFound, "not_found"
	case errors.ErrTypeInvalidInput:
		return http.StatusBadRequest, "invalid_input"
	case errors.ErrTypeUnauthorized:
		return http.StatusUnauthorized, "unauthorized"
	case errors.ErrTypeRateLimit:
		return http.StatusTooManyRequests, "rate_limited"
	case errors.ErrTypeUnavailable:
		return http.StatusServiceUnavailable, "unavailable"
	case errors.ErrTypeMalformed:
		return http.StatusBadGateway, "bad_upstream"
	case errors.ErrTypeConflict:
		return http.StatusConflict, "conflict"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// WriteDomainError renders err with the status its type maps to. Internal
// faults are logged and reported without detail.
func (d Deps) WriteDomainError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := StatusFor(err)
	msg := err.Error()
	var de *errors.DomainError
	if stderrors.As(err, &de) {
		msg = de.Message
	}
	if status == http.StatusInternalServerError {
		d.log().Error("request failed", zapRequest(r, err)...)
		msg = "internal server error"
	}
	WriteError(w, r, status, code, msg)
}
