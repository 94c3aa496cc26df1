package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/benvon/rewrite/internal/logger"
	"github.com/benvon/rewrite/internal/models"
)

// SessionIssuer starts new review sessions
type SessionIssuer interface {
	Issue() (*models.Session, error)
}

// SessionHandler hands out session tokens
type SessionHandler struct {
	issuer SessionIssuer
	logger *zap.Logger
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(issuer SessionIssuer, log *zap.Logger) *SessionHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &SessionHandler{issuer: issuer, logger: log}
}

// RegisterRoutes registers session routes on the given router
func (h *SessionHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/session", h.CreateSession).Methods("POST")
}

// CreateSession starts a session and returns its token
func (h *SessionHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	s, err := h.issuer.Issue()
	if err != nil {
		h.logger.Error("session_issue_failed", zap.String("error", logger.SanitizeError(err)))
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to create session")
		return
	}

	h.logger.Info("session_created", zap.String("session_id", logger.SanitizeSessionID(s.ID)))
	respondJSON(w, http.StatusCreated, s)
}
