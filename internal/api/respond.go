package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
)

type errorBody struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, errorBody{Error: msg})
}

func jsonErrorDetails(w http.ResponseWriter, msg, details string, code int) {
	writeJSON(w, code, errorBody{Error: msg, Details: details})
}

// decodeBody reads a single JSON object into v. On failure it writes the
// response and returns false.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		var tooBig *http.MaxBytesError
		switch {
		case errors.As(err, &tooBig):
			jsonError(w, "request body too large", http.StatusRequestEntityTooLarge)
		case errors.Is(err, io.EOF):
			jsonError(w, "request body is empty", http.StatusBadRequest)
		default:
			jsonErrorDetails(w, "invalid JSON body", err.Error(), http.StatusBadRequest)
		}
		return false
	}
	if dec.More() {
		jsonError(w, "invalid JSON body", http.StatusBadRequest)
		return false
	}
	return true
}
