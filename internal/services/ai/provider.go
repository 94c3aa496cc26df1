package ai

import (
	"context"

	"github.com/benvon/rewrite/internal/models"
	"go.uber.org/zap"
)

// Provider is the interface for language model providers
type Provider interface {
	// Generate writes an essay answering essayPrompt, supported by sourceText
	Generate(ctx context.Context, sourceText, essayPrompt string) (string, error)

	// Evaluate runs one category's evaluation over an essay and returns its phrase lists.
	// sourceText is only sent for categories that read it.
	Evaluate(ctx context.Context, category models.Category, essay, sourceText string) (models.Findings, error)
}

// ProviderFactory creates a provider from string configuration
type ProviderFactory func(config map[string]string, logger *zap.Logger) (Provider, error)

// ProviderRegistry stores available providers
type ProviderRegistry struct {
	providers map[string]ProviderFactory
}

// NewProviderRegistry creates a new provider registry
func NewProviderRegistry() *ProviderRegistry {
	return &ProviderRegistry{
		providers: make(map[string]ProviderFactory),
	}
}

// Register registers a provider factory
func (r *ProviderRegistry) Register(name string, factory ProviderFactory) {
	r.providers[name] = factory
}

// GetProvider gets a provider by name
func (r *ProviderRegistry) GetProvider(name string, config map[string]string, logger *zap.Logger) (Provider, error) {
	factory, ok := r.providers[name]
	if !ok {
		return nil, &ErrProviderNotFound{Name: name}
	}

	return factory(config, logger)
}

// ErrProviderNotFound is returned when a provider is not found
type ErrProviderNotFound struct {
	Name string
}

func (e *ErrProviderNotFound) Error() string {
	return "AI provider not found: " + e.Name
}
