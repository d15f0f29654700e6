// Package webui is the HTTP surface of the notes service: auth endpoints,
// note CRUD, image upload and generation, PDF import, media serving, and
// the websocket event channel.
package webui

import (
	"encoding/json"
	"net/http"

	"github.com/rosieluu/simple-notes-app/core"
)

// errorResponse is the envelope every failed request returns.
type errorResponse struct {
	Error *core.AppError `json:"error"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		json.NewEncoder(w).Encode(payload)
	}
}

// writeError maps an error to its HTTP status and writes the standard
// error envelope. Non-AppError values are masked as a generic internal
// error so internals never leak to clients.
func writeError(w http.ResponseWriter, err error) {
	appErr, ok := core.IsAppError(err)
	if !ok {
		appErr = &core.AppError{
			Code:    "INTERNAL",
			Message: "Internal server error",
		}
	}
	writeJSON(w, core.HTTPStatus(err), errorResponse{Error: appErr})
}

// decodeJSON decodes a request body into dst, rejecting unknown fields.
func decodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return core.ErrInvalidRequest("Malformed JSON request body")
	}
	return nil
}
