package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/user/souentd/internal/types"
)

// errorBody is the JSON error envelope all endpoints share.
type errorBody struct {
	Error     string    `json:"error"`
	Detail    string    `json:"detail,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps domain sentinel errors onto HTTP statuses. Unmatched
// errors become a 500 with a generic message so internals never leak.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	label := "internal_error"
	detail := "an internal error occurred"

	switch {
	case errors.Is(err, types.ErrValidation):
		status, label, detail = http.StatusBadRequest, "validation_error", err.Error()
	case errors.Is(err, types.ErrNotFound):
		status, label, detail = http.StatusNotFound, "not_found", err.Error()
	case errors.Is(err, types.ErrInvalidCredential):
		status, label, detail = http.StatusUnauthorized, "invalid_credential", err.Error()
	case errors.Is(err, types.ErrForbidden):
		status, label, detail = http.StatusForbidden, "forbidden", err.Error()
	case errors.Is(err, types.ErrRateLimited):
		status, label, detail = http.StatusTooManyRequests, "rate_limited", err.Error()
	case errors.Is(err, types.ErrUpstream):
		status, label, detail = http.StatusBadGateway, "upstream_error", "the model provider failed to respond"
	}

	writeJSON(w, status, errorBody{
		Error:     label,
		Detail:    detail,
		Timestamp: time.Now().UTC(),
	})
}
