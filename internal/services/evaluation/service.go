// Package evaluation runs the category reviews of an essay against a language model.
package evaluation

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/benvon/rewrite/internal/database"
	"github.com/benvon/rewrite/internal/logger"
	"github.com/benvon/rewrite/internal/models"
	"github.com/benvon/rewrite/internal/request"
	"github.com/benvon/rewrite/internal/review"
	"github.com/benvon/rewrite/internal/services/ai"
)

// ErrNoEditStore is returned by Review when the service was built without an edit store
var ErrNoEditStore = errors.New("evaluation service has no edit store")

// Options tunes throttling, fan-out, and caching
type Options struct {
	// Rate and Burst bound outbound model calls per second across all evaluations
	Rate  float64
	Burst int
	// Concurrency caps the category prompts in flight for one evaluation
	Concurrency int
	// CacheTTL keeps results for identical input; zero disables caching
	CacheTTL time.Duration
}

// Service evaluates and generates essays through an ai.Provider
type Service struct {
	provider    ai.Provider
	edits       database.EditStore
	limiter     *rate.Limiter
	cache       *cache.Cache
	concurrency int
	logger      *zap.Logger
}

// ReviewResult is the outcome of a stored review
type ReviewResult struct {
	Results []models.EvaluationResult `json:"results"`
	// Located counts phrases found in the essay, Stored those newly persisted
	Located int               `json:"located"`
	Stored  []models.Edit     `json:"stored"`
	Failed  []models.Category `json:"failed,omitempty"`
	// Err joins the failures of the categories in Failed
	Err error `json:"-"`
}

// NewService creates a service. edits may be nil when nothing is persisted.
func NewService(provider ai.Provider, edits database.EditStore, log *zap.Logger, opts Options) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = len(models.AllCategories())
	}
	if opts.Burst < 1 {
		opts.Burst = 1
	}
	limit := rate.Inf
	if opts.Rate > 0 {
		limit = rate.Limit(opts.Rate)
	}

	s := &Service{
		provider:    provider,
		edits:       edits,
		limiter:     rate.NewLimiter(limit, opts.Burst),
		concurrency: opts.Concurrency,
		logger:      log,
	}
	if opts.CacheTTL > 0 {
		s.cache = cache.New(opts.CacheTTL, 2*opts.CacheTTL)
	}
	return s
}

// Evaluate runs every category against essay. A category that fails is
// logged and reported with empty lists; results are in category order.
func (s *Service) Evaluate(ctx context.Context, essay, sourceText string) []models.EvaluationResult {
	results, _ := s.evaluate(ctx, essay, sourceText)
	return results
}

// evaluate is Evaluate plus the categories that failed.
func (s *Service) evaluate(ctx context.Context, essay, sourceText string) ([]models.EvaluationResult, []categoryError) {
	key := cacheKey(essay, sourceText)
	if s.cache != nil {
		if cached, ok := s.cache.Get(key); ok {
			return cloneResults(cached.([]models.EvaluationResult)), nil
		}
	}

	categories := models.AllCategories()
	results := make([]models.EvaluationResult, len(categories))
	errs := make([]error, len(categories))

	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i, c := range categories {
		g.Go(func() error {
			findings, err := s.evaluateOne(ctx, c, essay, sourceText)
			if err != nil {
				errs[i] = err
				s.logger.Error("evaluation_failed",
					zap.String("category", string(c)),
					zap.String("session_id", request.SessionString(ctx)),
					zap.String("error", logger.SanitizeError(err)),
				)
				findings = models.EmptyFindings()
			}
			results[i] = models.EvaluationResult{Type: c, Edits: findings}
			return nil
		})
	}
	_ = g.Wait()

	var failed []categoryError
	for i, err := range errs {
		if err != nil {
			failed = append(failed, categoryError{Category: categories[i], Err: err})
		}
	}
	if s.cache != nil && len(failed) == 0 {
		s.cache.SetDefault(key, cloneResults(results))
	}
	return results, failed
}

type categoryError struct {
	Category models.Category
	Err      error
}

const tracerName = "github.com/benvon/rewrite/internal/services/evaluation"

func (s *Service) evaluateOne(ctx context.Context, c models.Category, essay, sourceText string) (models.Findings, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "evaluate_category")
	defer span.End()
	span.SetAttributes(attribute.String("rewrite.category", string(c)))

	if err := s.limiter.Wait(ctx); err != nil {
		span.SetStatus(codes.Error, "rate limiter")
		return models.Findings{}, fmt.Errorf("rate limiter: %w", err)
	}
	findings, err := s.provider.Evaluate(ctx, c, essay, sourceText)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "evaluation failed")
		return findings, err
	}
	span.SetAttributes(attribute.Int("rewrite.phrases", len(findings.Context)))
	return findings, nil
}

// Generate writes an essay answering essayPrompt from sourceText
func (s *Service) Generate(ctx context.Context, sourceText, essayPrompt string) (string, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter: %w", err)
	}
	return s.provider.Generate(ctx, sourceText, essayPrompt)
}

// Review evaluates essay, locates every returned phrase, and stores the
// located edits for sessionID.
func (s *Service) Review(ctx context.Context, sessionID uuid.UUID, essay, sourceText string) (*ReviewResult, error) {
	if s.edits == nil {
		return nil, ErrNoEditStore
	}
	ctx = request.WithSession(ctx, sessionID)

	results, failures := s.evaluate(ctx, essay, sourceText)
	located := review.BuildEdits(essay, results, s.logger)

	stored, err := s.edits.StoreMany(ctx, sessionID, located)
	if err != nil {
		return nil, fmt.Errorf("failed to store edits: %w", err)
	}

	out := &ReviewResult{Results: results, Located: len(located), Stored: stored}
	errs := make([]error, 0, len(failures))
	for _, f := range failures {
		out.Failed = append(out.Failed, f.Category)
		errs = append(errs, fmt.Errorf("%s: %w", f.Category, f.Err))
	}
	out.Err = errors.Join(errs...)

	s.logger.Info("review_completed",
		zap.String("session_id", logger.SanitizeSessionID(sessionID.String())),
		zap.Int("located", len(located)),
		zap.Int("stored", len(stored)),
		zap.Int("failed_categories", len(failures)),
	)
	return out, nil
}

// cacheKey length-prefixes each input so that moving text between them changes the key
func cacheKey(essay, sourceText string) string {
	h := sha256.New()
	var n [8]byte
	for _, part := range []string{essay, sourceText} {
		binary.BigEndian.PutUint64(n[:], uint64(len(part)))
		h.Write(n[:])
		h.Write([]byte(part))
	}
	return hex.EncodeToString(h.Sum(nil))
}

func cloneResults(in []models.EvaluationResult) []models.EvaluationResult {
	out := make([]models.EvaluationResult, len(in))
	for i, r := range in {
		out[i] = models.EvaluationResult{
			Type: r.Type,
			Edits: models.Findings{
				Context:    append([]string{}, r.Edits.Context...),
				Suggestion: append([]string{}, r.Edits.Suggestion...),
				Reasoning:  append([]string{}, r.Edits.Reasoning...),
			},
		}
	}
	return out
}
