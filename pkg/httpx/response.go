package httpx

import (
	"encoding/json"
	"net/http"
)

// Envelope is the response shape the admin panel expects on every API call.
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// MFAChallengeEnvelope is the special login response signalling that a
// second factor is required before a token can be issued.
type MFAChallengeEnvelope struct {
	Success       bool   `json:"success"`
	RequiresMFA   bool   `json:"requiresMFA"`
	MFALoginToken string `json:"mfaLoginToken"`
}

// WriteJSON writes a JSON response with the given status code.
// It sets Content-Type and no-store caching headers; every response from
// this service is either sensitive or worthless to cache.
func WriteJSON(w http.ResponseWriter, code int, v any) {
	NoCache(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteSuccess writes a 200 envelope with data.
func WriteSuccess(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusOK, Envelope{Success: true, Data: data})
}

// WriteFailure writes a failure envelope with the given status and a
// user-facing message. Keep the message generic for authentication
// failures; the specific kind belongs in logs and the audit trail.
func WriteFailure(w http.ResponseWriter, code int, message string) {
	WriteJSON(w, code, Envelope{Success: false, Message: message})
}

// NoCache sets the Cache-Control and Pragma headers to prevent caching.
func NoCache(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
}
