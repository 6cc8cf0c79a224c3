package server

import (
	"encoding/json"
	"net/http"

	"massiliafm/cache"
	"massiliafm/config"
	"massiliafm/core/auth"
	"massiliafm/core/session"
	"massiliafm/logger"
	"massiliafm/repository"
)

// APIHandler carries the collaborators every HTTP handler needs.
type APIHandler struct {
	trackRepo  repository.TrackRepository
	userRepo   repository.UserRepository
	playEvents repository.PlayEventRepository
	sessions   *cache.SessionCache
	hub        *session.Hub
	tokens     *auth.TokenIssuer
	cfg        *config.Config
}

// NewAPIHandler creates the API handler.
func NewAPIHandler(
	trackRepo repository.TrackRepository,
	userRepo repository.UserRepository,
	playEvents repository.PlayEventRepository,
	sessions *cache.SessionCache,
	hub *session.Hub,
	tokens *auth.TokenIssuer,
	cfg *config.Config,
) *APIHandler {
	return &APIHandler{
		trackRepo:  trackRepo,
		userRepo:   userRepo,
		playEvents: playEvents,
		sessions:   sessions,
		hub:        hub,
		tokens:     tokens,
		cfg:        cfg,
	}
}

// writeJSON writes a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("failed to encode response", logger.ErrorField(err))
	}
}

// writeError writes an {"error": ...} payload.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
