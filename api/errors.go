package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/etnz/bookkeeper"
	"github.com/rs/zerolog"
)

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// statusClientClosedRequest reports a request whose client went away.
const statusClientClosedRequest = 499

// statusOf maps an engine error to the HTTP status reported to the client.
// Context errors come first: they also interrupt the retries of a conflict.
func statusOf(err error) int {
	switch {
	case errors.Is(err, context.Canceled):
		return statusClientClosedRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, bookkeeper.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, bookkeeper.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, bookkeeper.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// fail reports err to the client. Storage failures are logged and their
// details kept out of the response.
func fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusOf(err)
	switch status {
	case http.StatusInternalServerError:
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("request failed")
		id, _ := r.Context().Value(requestIDKey).(string)
		writeJSON(w, status, map[string]string{"error": "internal error", "requestId": id})
		return
	case http.StatusConflict:
		// the retries of the engine are exhausted, the client may try later
		w.Header().Set("Retry-After", "1")
	case statusClientClosedRequest, http.StatusGatewayTimeout:
		zerolog.Ctx(r.Context()).Warn().Err(err).Msg("request interrupted")
	}
	writeError(w, status, err.Error())
}
