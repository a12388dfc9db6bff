package server

import (
	"encoding/json"
	"net/http"

	"github.com/pkg/errors"
	"github.com/varoOP/anistream/internal/openani"
)

type errorBody struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string, err error) {
	body := errorBody{Error: msg}
	if err != nil {
		body.Details = err.Error()
	}
	writeJSON(w, status, body)
}

// upstreamStatus maps a detail/playback failure to a response status:
// an upstream 404 stays 404, everything else is a 500.
func upstreamStatus(err error) int {
	var httpErr *openani.HTTPError
	if errors.As(err, &httpErr) && httpErr.NotFound() {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}
