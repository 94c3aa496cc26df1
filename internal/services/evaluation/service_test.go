package evaluation

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"go.uber.org/zap/zapcore"

	"github.com/benvon/rewrite/internal/models"
	"github.com/benvon/rewrite/internal/services/ai"
)

type fakeProvider struct {
	mu       sync.Mutex
	findings map[models.Category]models.Findings
	fail     map[models.Category]error
	calls    atomic.Int32
	inFlight atomic.Int32
	maxSeen  atomic.Int32
	delay    time.Duration
	sources  map[models.Category]string
}

func (f *fakeProvider) Generate(_ context.Context, sourceText, essayPrompt string) (string, error) {
	f.calls.Add(1)
	return "essay about " + essayPrompt + " from " + sourceText, nil
}

func (f *fakeProvider) Evaluate(ctx context.Context, c models.Category, _ string, sourceText string) (models.Findings, error) {
	f.calls.Add(1)
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		m := f.maxSeen.Load()
		if n <= m || f.maxSeen.CompareAndSwap(m, n) {
			break
		}
	}
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return models.Findings{}, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sources == nil {
		f.sources = make(map[models.Category]string)
	}
	f.sources[c] = sourceText
	if err := f.fail[c]; err != nil {
		return models.Findings{}, err
	}
	if found, ok := f.findings[c]; ok {
		return found, nil
	}
	return models.EmptyFindings(), nil
}

type fakeEditStore struct {
	stored []models.Edit
	err    error
}

func (f *fakeEditStore) StoreMany(_ context.Context, sessionID uuid.UUID, edits []models.Edit) ([]models.Edit, error) {
	if f.err != nil {
		return nil, f.err
	}
	for i := range edits {
		edits[i].SessionID = sessionID
		edits[i].ID = int64(len(f.stored) + 1)
		f.stored = append(f.stored, edits[i])
	}
	return edits, nil
}

func (f *fakeEditStore) List(context.Context, uuid.UUID) ([]models.Edit, error) {
	return f.stored, nil
}

func (f *fakeEditStore) UpdateCompletion(context.Context, uuid.UUID, int64, bool) error {
	return nil
}

func (f *fakeEditStore) Clear(context.Context, uuid.UUID) (int64, error) {
	n := int64(len(f.stored))
	f.stored = nil
	return n, nil
}

func TestService_Evaluate_OrderAndFailures(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{
		findings: map[models.Category]models.Findings{
			models.CategoryAssert: {
				Context:    []string{"sat down"},
				Suggestion: []string{"be bolder"},
				Reasoning:  []string{"too neutral"},
			},
		},
		fail: map[models.Category]error{models.CategoryClarify: errors.New("boom")},
	}
	core, logs := observer.New(zapcore.ErrorLevel)
	svc := NewService(provider, nil, zap.New(core), Options{Concurrency: 2})

	got := svc.Evaluate(context.Background(), "The cat sat down.", "source")

	var gotTypes []models.Category
	for _, r := range got {
		gotTypes = append(gotTypes, r.Type)
	}
	if diff := cmp.Diff(models.AllCategories(), gotTypes); diff != "" {
		t.Errorf("result order mismatch (-want +got):\n%s", diff)
	}
	for _, r := range got {
		switch r.Type {
		case models.CategoryClarify:
			if diff := cmp.Diff(models.EmptyFindings(), r.Edits); diff != "" {
				t.Errorf("Expected empty findings for failed category (-want +got):\n%s", diff)
			}
		case models.CategoryAssert:
			if len(r.Edits.Context) != 1 || r.Edits.Context[0] != "sat down" {
				t.Errorf("Expected assert findings, got %+v", r.Edits)
			}
		}
	}
	failed := logs.FilterMessage("evaluation_failed").All()
	if len(failed) != 1 {
		t.Fatalf("Expected 1 evaluation_failed log, got %d", len(failed))
	}
	if failed[0].ContextMap()["category"] != "clarify" {
		t.Errorf("Expected failed category clarify, got %v", failed[0].ContextMap()["category"])
	}
	if peak := provider.maxSeen.Load(); peak > 2 {
		t.Errorf("Expected at most 2 concurrent calls, saw %d", peak)
	}
}

func TestService_Evaluate_RunsConcurrently(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{delay: 50 * time.Millisecond}
	svc := NewService(provider, nil, nil, Options{})

	start := time.Now()
	svc.Evaluate(context.Background(), "essay", "")
	if elapsed := time.Since(start); elapsed > 200*time.Millisecond {
		t.Errorf("Expected categories to run concurrently, took %v", elapsed)
	}
	if peak := provider.maxSeen.Load(); peak < 2 {
		t.Errorf("Expected concurrent calls, saw max %d", peak)
	}
}

func TestService_Evaluate_Cache(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{}
	svc := NewService(provider, nil, nil, Options{CacheTTL: time.Minute})

	first := svc.Evaluate(context.Background(), "essay", "source")
	calls := provider.calls.Load()
	if calls != int32(len(models.AllCategories())) {
		t.Fatalf("Expected %d calls, got %d", len(models.AllCategories()), calls)
	}

	second := svc.Evaluate(context.Background(), "essay", "source")
	if provider.calls.Load() != calls {
		t.Error("Expected cached evaluation to skip the provider")
	}
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("cached result mismatch (-want +got):\n%s", diff)
	}

	svc.Evaluate(context.Background(), "essay", "other source")
	if provider.calls.Load() == calls {
		t.Error("Expected different source text to miss the cache")
	}
}

func TestService_Evaluate_FailuresAreNotCached(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{fail: map[models.Category]error{models.CategorySimplify: errors.New("flaky")}}
	svc := NewService(provider, nil, nil, Options{CacheTTL: time.Minute})

	svc.Evaluate(context.Background(), "essay", "")
	calls := provider.calls.Load()
	svc.Evaluate(context.Background(), "essay", "")
	if provider.calls.Load() == calls {
		t.Error("Expected a partially failed evaluation not to be cached")
	}
}

func TestService_Evaluate_CancelledContext(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{delay: time.Second}
	svc := NewService(provider, nil, nil, Options{})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	got := svc.Evaluate(ctx, "essay", "")
	if len(got) != len(models.AllCategories()) {
		t.Fatalf("Expected a result per category, got %d", len(got))
	}
	for _, r := range got {
		if len(r.Edits.Context) != 0 || r.Edits.Context == nil {
			t.Errorf("Expected empty non-nil findings for %s, got %+v", r.Type, r.Edits)
		}
	}
}

func TestService_Review(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{
		findings: map[models.Category]models.Findings{
			models.CategoryAssert: {
				Context:    []string{"sat again", "not in essay"},
				Suggestion: []string{"be bolder", "unused"},
			},
		},
	}
	store := &fakeEditStore{}
	svc := NewService(provider, store, nil, Options{})
	sessionID := uuid.New()

	got, err := svc.Review(context.Background(), sessionID, "The cat sat. The cat sat again.", "")
	if err != nil {
		t.Fatalf("Review() error = %v", err)
	}
	if got.Located != 1 || len(got.Stored) != 1 {
		t.Fatalf("Expected 1 located and stored edit, got %d and %d", got.Located, len(got.Stored))
	}
	edit := store.stored[0]
	if edit.SessionID != sessionID {
		t.Errorf("Expected session %s, got %s", sessionID, edit.SessionID)
	}
	if edit.StartIndex != 20 || edit.EndIndex != 29 {
		t.Errorf("Expected offsets 20-29, got %d-%d", edit.StartIndex, edit.EndIndex)
	}
	if edit.Suggestion != "be bolder" {
		t.Errorf("Expected suggestion 'be bolder', got %q", edit.Suggestion)
	}
	if edit.Reasoning == "" {
		t.Error("Expected default reasoning to be filled in")
	}
}

func TestService_ReviewReportsFailedCategories(t *testing.T) {
	t.Parallel()

	rateLimited := &ai.APIError{StatusCode: 429, Type: "rate_limit_error"}
	provider := &fakeProvider{
		findings: map[models.Category]models.Findings{
			models.CategoryClarify: {Context: []string{"cat sat"}},
		},
		fail: map[models.Category]error{models.CategoryFactcheck: rateLimited},
	}
	store := &fakeEditStore{}
	svc := NewService(provider, store, nil, Options{})

	got, err := svc.Review(context.Background(), uuid.New(), "The cat sat.", "")
	if err != nil {
		t.Fatalf("Review() error = %v", err)
	}
	if diff := cmp.Diff([]models.Category{models.CategoryFactcheck}, got.Failed); diff != "" {
		t.Errorf("failed categories mismatch (-want +got):\n%s", diff)
	}
	if !ai.IsRateLimitError(got.Err) {
		t.Errorf("Expected joined error to keep the rate limit error, got %v", got.Err)
	}
	if len(store.stored) != 1 {
		t.Errorf("Expected the successful category to be stored, got %d edits", len(store.stored))
	}
}

func TestService_EvaluateTracesCategories(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	provider := &fakeProvider{fail: map[models.Category]error{models.CategorySimplify: errors.New("boom")}}
	NewService(provider, nil, nil, Options{}).Evaluate(context.Background(), "essay", "")

	spans := exporter.GetSpans()
	if len(spans) != len(models.AllCategories()) {
		t.Fatalf("Expected %d spans, got %d", len(models.AllCategories()), len(spans))
	}
	failed := 0
	for _, span := range spans {
		if span.Name != "evaluate_category" {
			t.Errorf("Expected span name evaluate_category, got %q", span.Name)
		}
		if span.Status.Code == codes.Error {
			failed++
		}
	}
	if failed != 1 {
		t.Errorf("Expected 1 failed span, got %d", failed)
	}
}

func TestService_ReviewErrors(t *testing.T) {
	t.Parallel()

	svc := NewService(&fakeProvider{}, nil, nil, Options{})
	if _, err := svc.Review(context.Background(), uuid.New(), "essay", ""); !errors.Is(err, ErrNoEditStore) {
		t.Errorf("Expected ErrNoEditStore, got %v", err)
	}

	failing := NewService(&fakeProvider{}, &fakeEditStore{err: errors.New("db down")}, nil, Options{})
	if _, err := failing.Review(context.Background(), uuid.New(), "essay", ""); err == nil {
		t.Error("Expected store error to propagate")
	}
}

func TestService_Generate(t *testing.T) {
	t.Parallel()

	svc := NewService(&fakeProvider{}, nil, nil, Options{Rate: 100, Burst: 1})
	got, err := svc.Generate(context.Background(), "textbook", "prompt")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if got != "essay about prompt from textbook" {
		t.Errorf("Unexpected essay %q", got)
	}
}

func TestCacheKey(t *testing.T) {
	t.Parallel()

	if cacheKey("ab", "c") == cacheKey("a", "bc") {
		t.Error("Expected boundary-shifted inputs to produce different keys")
	}
	if cacheKey("a", "b") != cacheKey("a", "b") {
		t.Error("Expected identical inputs to produce identical keys")
	}
}

func TestInFlight(t *testing.T) {
	t.Parallel()

	f := NewInFlight()
	release, ok := f.Acquire("s1")
	if !ok {
		t.Fatal("Expected first acquire to succeed")
	}
	if _, ok := f.Acquire("s1"); ok {
		t.Error("Expected second acquire for the same key to fail")
	}
	if r2, ok := f.Acquire("s2"); !ok {
		t.Error("Expected acquire for a different key to succeed")
	} else {
		r2()
	}
	release()
	release()
	if r3, ok := f.Acquire("s1"); !ok {
		t.Error("Expected acquire after release to succeed")
	} else {
		r3()
	}
}

func TestInFlight_Hold(t *testing.T) {
	t.Parallel()

	f := NewInFlight()
	if _, ok := f.Hold("s1", 50*time.Millisecond); !ok {
		t.Fatal("Expected first hold to succeed")
	}
	if _, ok := f.Acquire("s1"); ok {
		t.Error("Expected acquire to fail while the key is held")
	}
	if _, ok := f.Hold("s1", time.Minute); ok {
		t.Error("Expected a second hold to fail while the key is held")
	}

	time.Sleep(100 * time.Millisecond)
	release, ok := f.Acquire("s1")
	if !ok {
		t.Fatal("Expected acquire to succeed once the hold lapsed")
	}
	release()

	r2, ok := f.Hold("s2", time.Minute)
	if !ok {
		t.Fatal("Expected hold for a fresh key to succeed")
	}
	r2()
	if _, ok := f.Hold("s2", time.Minute); !ok {
		t.Error("Expected hold after release to succeed")
	}
}
