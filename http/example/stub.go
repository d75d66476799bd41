package main

import (
	"encoding/json"
	"net/http"
	"os"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
)

// stubBackend is a toy authorization backend: a health endpoint, the token
// exchange, and one protected resource.
func stubBackend(demoMode bool) http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"demo_mode": demoMode})
	}).Methods(http.MethodGet)

	r.HandleFunc("/api/auth/token", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Token string `json:"token"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Token == "" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		json.NewEncoder(w).Encode(map[string]any{"access_token": "sess-" + body.Token})
	}).Methods(http.MethodPost)

	r.HandleFunc("/api/expenses", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		json.NewEncoder(w).Encode([]map[string]any{
			{"description": "office chair", "amount": 249.99},
			{"description": "hosting", "amount": 12.50},
		})
	}).Methods(http.MethodGet)

	return handlers.LoggingHandler(os.Stdout, r)
}
