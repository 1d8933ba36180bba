package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/synapsehq/synapse/internal/api/middleware"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func principal(r *http.Request) (userID string, ok bool) {
	p := middleware.PrincipalFromContext(r.Context())
	if p == nil {
		return "", false
	}
	return p.UserID, true
}
