package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/benvon/rewrite/internal/database"
	"github.com/benvon/rewrite/internal/logger"
	"github.com/benvon/rewrite/internal/models"
	"github.com/benvon/rewrite/internal/review"
	"github.com/benvon/rewrite/internal/validation"
)

// EditTracker records user changes to the essay between submissions
type EditTracker interface {
	Track(ctx context.Context, sessionID uuid.UUID, text string) (*models.UserEdit, error)
	Reset(ctx context.Context, sessionID uuid.UUID) error
}

// EditHandler handles stored edits, user edit tracking, and rendering
type EditHandler struct {
	edits      database.EditStore
	userEdits  database.UserEditStore
	tracker    EditTracker
	renderOpts []review.Option
	logger     *zap.Logger
}

// NewEditHandler creates a new edit handler. renderOpts configure the highlight renderer.
func NewEditHandler(edits database.EditStore, userEdits database.UserEditStore, tracker EditTracker, log *zap.Logger, renderOpts ...review.Option) *EditHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &EditHandler{
		edits:      edits,
		userEdits:  userEdits,
		tracker:    tracker,
		renderOpts: renderOpts,
		logger:     log,
	}
}

// RegisterRoutes registers edit routes on the given router. Every route needs a session.
func (h *EditHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/store-edits", h.StoreEdits).Methods("POST")
	r.HandleFunc("/get-edits", h.GetEdits).Methods("GET")
	r.HandleFunc("/update-completion", h.UpdateCompletion).Methods("POST")
	r.HandleFunc("/track-edits", h.TrackEdits).Methods("POST")
	r.HandleFunc("/clear-tables", h.ClearTables).Methods("GET", "POST")
	r.HandleFunc("/render", h.Render).Methods("POST")
}

// StoreEditsRequest represents a store edits request
type StoreEditsRequest struct {
	Edits []models.Edit `json:"edits" validate:"required,max=1000,dive"`
}

// StoreEditsResponse acknowledges stored edits
type StoreEditsResponse struct {
	Message    string `json:"message"`
	EditsCount int    `json:"edits_count"`
	Stored     int    `json:"stored"`
}

// EditsResponse lists a session's edits
type EditsResponse struct {
	Edits []models.Edit `json:"edits"`
}

// UpdateCompletionRequest toggles the completed flag of one edit
type UpdateCompletionRequest struct {
	HighlightID *int64 `json:"highlightId" validate:"required"`
	Completed   *bool  `json:"completed" validate:"required"`
}

// TrackEditsRequest carries the current essay text
type TrackEditsRequest struct {
	ResponseBoxText *string `json:"responseBoxText" validate:"required"`
}

// TrackEditsResponse reports the recorded change, if any
type TrackEditsResponse struct {
	Message string           `json:"message"`
	Change  *models.UserEdit `json:"change"`
}

// RenderRequest carries the essay to highlight
type RenderRequest struct {
	Essay string `json:"essay" validate:"required,max=100000"`
}

// RenderResponse carries the highlighted markup and per-category counts
type RenderResponse struct {
	Markup string                  `json:"markup"`
	Counts map[models.Category]int `json:"counts"`
}

// MessageResponse is a plain acknowledgement
type MessageResponse struct {
	Message string `json:"message"`
}

// StoreEdits stores client-supplied edits for the session
func (h *EditHandler) StoreEdits(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := requireSession(w, r)
	if !ok {
		return
	}

	var req StoreEditsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	for i := range req.Edits {
		req.Edits[i].Phrase = validation.SanitizeText(req.Edits[i].Phrase)
		if req.Edits[i].Suggestion == "" {
			req.Edits[i].Suggestion = review.DefaultSuggestion(req.Edits[i].Type)
		}
		if req.Edits[i].Reasoning == "" {
			req.Edits[i].Reasoning = review.DefaultReasoning(req.Edits[i].Type)
		}
		if !req.Edits[i].Located() {
			req.Edits[i].StartIndex, req.Edits[i].EndIndex = models.NotLocated, models.NotLocated
		}
	}

	stored, err := h.edits.StoreMany(r.Context(), sessionID, req.Edits)
	if err != nil {
		h.logger.Error("store_edits_failed",
			zap.String("session_id", logger.SanitizeSessionID(sessionID.String())),
			zap.String("error", logger.SanitizeError(err)),
		)
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to store edits")
		return
	}

	respondJSON(w, http.StatusOK, StoreEditsResponse{
		Message:    "Edits stored successfully",
		EditsCount: len(req.Edits),
		Stored:     len(stored),
	})
}

// GetEdits lists the session's edits in arrival order
func (h *EditHandler) GetEdits(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := requireSession(w, r)
	if !ok {
		return
	}

	edits, err := h.edits.List(r.Context(), sessionID)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve edits")
		return
	}
	if edits == nil {
		edits = []models.Edit{}
	}

	respondJSON(w, http.StatusOK, EditsResponse{Edits: edits})
}

// UpdateCompletion marks an edit as done or not done
func (h *EditHandler) UpdateCompletion(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := requireSession(w, r)
	if !ok {
		return
	}

	var req UpdateCompletionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	err := h.edits.UpdateCompletion(r.Context(), sessionID, *req.HighlightID, *req.Completed)
	if errors.Is(err, database.ErrEditNotFound) {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Edit not found")
		return
	}
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to update completion status")
		return
	}

	respondJSON(w, http.StatusOK, MessageResponse{Message: "Completion status updated successfully"})
}

// TrackEdits records the change between the last submitted essay text and this one
func (h *EditHandler) TrackEdits(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := requireSession(w, r)
	if !ok {
		return
	}

	var req TrackEditsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	change, err := h.tracker.Track(r.Context(), sessionID, validation.SanitizeText(*req.ResponseBoxText))
	if err != nil {
		h.logger.Error("track_edits_failed",
			zap.String("session_id", logger.SanitizeSessionID(sessionID.String())),
			zap.String("error", logger.SanitizeError(err)),
		)
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to track edit")
		return
	}

	respondJSON(w, http.StatusOK, TrackEditsResponse{Message: "Edit tracked successfully", Change: change})
}

// ClearTables removes the session's edits, user edits, and tracked text
func (h *EditHandler) ClearTables(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := requireSession(w, r)
	if !ok {
		return
	}
	ctx := r.Context()

	edits, err := h.edits.Clear(ctx, sessionID)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to clear edits")
		return
	}
	userEdits, err := h.userEdits.Clear(ctx, sessionID)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to clear user edits")
		return
	}
	if err := h.tracker.Reset(ctx, sessionID); err != nil {
		h.logger.Warn("tracker_reset_failed", zap.String("error", logger.SanitizeError(err)))
	}

	h.logger.Info("session_cleared",
		zap.String("session_id", logger.SanitizeSessionID(sessionID.String())),
		zap.Int64("edits", edits),
		zap.Int64("user_edits", userEdits),
	)
	respondJSON(w, http.StatusOK, MessageResponse{Message: "Success!"})
}

// Render highlights the essay with the session's stored edits in arrival order
func (h *EditHandler) Render(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := requireSession(w, r)
	if !ok {
		return
	}

	var req RenderRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	edits, err := h.edits.List(r.Context(), sessionID)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve edits")
		return
	}

	markup, err := review.Highlight(validation.SanitizeText(req.Essay), edits, h.renderOpts...)
	if err != nil {
		if errors.Is(err, review.ErrUnknownCategory) {
			respondJSONError(w, http.StatusUnprocessableEntity, "Unprocessable Entity", err.Error())
			return
		}
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to render edits")
		return
	}

	respondJSON(w, http.StatusOK, RenderResponse{Markup: markup, Counts: review.Counts(edits)})
}
