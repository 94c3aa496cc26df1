package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/benvon/rewrite/internal/logger"
	"github.com/benvon/rewrite/internal/models"
	"github.com/benvon/rewrite/internal/queue"
	"github.com/benvon/rewrite/internal/request"
	"github.com/benvon/rewrite/internal/services/evaluation"
	"github.com/benvon/rewrite/internal/validation"
)

// MaxEssayLength bounds essay and source text in characters
const MaxEssayLength = 100000

// QueuedEvaluationHold is how long a queued evaluation blocks further
// evaluations for its session. The worker runs in another process, so the
// mark lapses rather than being released.
const QueuedEvaluationHold = 2 * time.Minute

// Evaluator generates and reviews essays
type Evaluator interface {
	Generate(ctx context.Context, sourceText, essayPrompt string) (string, error)
	Evaluate(ctx context.Context, essay, sourceText string) []models.EvaluationResult
	Review(ctx context.Context, sessionID uuid.UUID, essay, sourceText string) (*evaluation.ReviewResult, error)
}

// JobEnqueuer publishes background jobs
type JobEnqueuer interface {
	Enqueue(ctx context.Context, job *queue.Job) error
}

// EssayHandler handles essay generation and evaluation requests
type EssayHandler struct {
	evaluator Evaluator
	jobs      JobEnqueuer
	inflight  *evaluation.InFlight
	logger    *zap.Logger
}

// NewEssayHandler creates a new essay handler. jobs may be nil when no queue is configured.
func NewEssayHandler(evaluator Evaluator, jobs JobEnqueuer, log *zap.Logger) *EssayHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &EssayHandler{
		evaluator: evaluator,
		jobs:      jobs,
		inflight:  evaluation.NewInFlight(),
		logger:    log,
	}
}

// RegisterRoutes registers essay routes on the given router
func (h *EssayHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/generate", h.Generate).Methods("POST")
	r.HandleFunc("/evaluate", h.Evaluate).Methods("POST")
}

// GenerateRequest represents a generate request
type GenerateRequest struct {
	SourceText  string `json:"source_text" validate:"required,max=100000"`
	EssayPrompt string `json:"essay_prompt" validate:"required,max=10000"`
}

// GenerateResponse carries the generated essay
type GenerateResponse struct {
	Response string `json:"response"`
}

// EvaluateRequest represents an evaluate request. The source text is accepted
// under either key.
type EvaluateRequest struct {
	Essay         string `json:"essay" validate:"required,max=100000"`
	SourceText    string `json:"sourceText" validate:"max=100000"`
	SourceTextAlt string `json:"source_text" validate:"max=100000"`
}

func (req *EvaluateRequest) source() string {
	if req.SourceText != "" {
		return req.SourceText
	}
	return req.SourceTextAlt
}

// EnqueueResponse acknowledges a queued evaluation
type EnqueueResponse struct {
	JobID string `json:"job_id"`
}

// Generate writes an essay from the source text and prompt
func (h *EssayHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	text, err := h.evaluator.Generate(r.Context(), validation.SanitizeText(req.SourceText), validation.SanitizeText(req.EssayPrompt))
	if err != nil {
		h.logger.Error("generation_failed",
			zap.String("request_id", request.RequestIDFromContext(r.Context())),
			zap.String("error", logger.SanitizeError(err)),
		)
		respondJSONError(w, http.StatusBadGateway, "Bad Gateway", "Failed to generate essay")
		return
	}

	respondJSON(w, http.StatusOK, GenerateResponse{Response: text})
}

// Evaluate reviews an essay in every category. With ?store=true the located
// edits are stored for the caller's session; with ?async=true the review runs
// on a worker and the response is 202.
func (h *EssayHandler) Evaluate(w http.ResponseWriter, r *http.Request) {
	store, err := queryBool(r, "store")
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "store must be a boolean")
		return
	}
	async, err := queryBool(r, "async")
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "async must be a boolean")
		return
	}

	var req EvaluateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	essay := validation.SanitizeText(req.Essay)
	sourceText := validation.SanitizeText(req.source())

	ctx := r.Context()
	sessionID, hasSession := request.SessionFromContext(ctx)
	if (store || async) && !hasSession {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "A session token is required to store edits")
		return
	}

	if async {
		h.enqueue(w, r, sessionID, essay, sourceText)
		return
	}

	if hasSession {
		release, ok := h.inflight.Acquire(sessionID.String())
		if !ok {
			respondJSONError(w, http.StatusConflict, "Conflict", "An evaluation is already running for this session")
			return
		}
		defer release()
	}

	if !store {
		respondJSON(w, http.StatusOK, h.evaluator.Evaluate(ctx, essay, sourceText))
		return
	}

	result, err := h.evaluator.Review(ctx, sessionID, essay, sourceText)
	if err != nil {
		h.logger.Error("review_failed",
			zap.String("session_id", logger.SanitizeSessionID(sessionID.String())),
			zap.String("error", logger.SanitizeError(err)),
		)
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to store edits")
		return
	}
	respondJSON(w, http.StatusOK, result.Results)
}

func (h *EssayHandler) enqueue(w http.ResponseWriter, r *http.Request, sessionID uuid.UUID, essay, sourceText string) {
	if h.jobs == nil {
		respondJSONError(w, http.StatusServiceUnavailable, "Service Unavailable", "Background evaluation is not configured")
		return
	}

	release, ok := h.inflight.Hold(sessionID.String(), QueuedEvaluationHold)
	if !ok {
		respondJSONError(w, http.StatusConflict, "Conflict", "An evaluation is already running for this session")
		return
	}

	job := queue.NewEvaluationJob(sessionID, essay, sourceText)
	if err := h.jobs.Enqueue(r.Context(), job); err != nil {
		release()
		h.logger.Error("evaluation_enqueue_failed",
			zap.String("session_id", logger.SanitizeSessionID(sessionID.String())),
			zap.String("error", logger.SanitizeError(err)),
		)
		respondJSONError(w, http.StatusServiceUnavailable, "Service Unavailable", "Failed to queue evaluation")
		return
	}

	respondJSON(w, http.StatusAccepted, EnqueueResponse{JobID: job.ID.String()})
}

func queryBool(r *http.Request, key string) (bool, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return false, nil
	}
	return strconv.ParseBool(v)
}
