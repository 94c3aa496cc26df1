package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/benvon/rewrite/internal/models"
	"github.com/benvon/rewrite/internal/request"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
	"go.uber.org/zap"
)

const (
	// DefaultOpenAIModel is the default model to use
	DefaultOpenAIModel = "gpt-4o-mini"
	// DefaultOpenAIBaseURL is the default OpenAI API base URL
	DefaultOpenAIBaseURL = "https://api.openai.com/v1"
	// DefaultTimeout is the default timeout for API calls
	DefaultTimeout = 60 * time.Second

	evaluationSchemaName = "evaluation_response"
	generationSchemaName = "essay_response"

	// ErrNoChoicesInResponse is returned when the API response has no choices
	ErrNoChoicesInResponse = "no choices in response"
)

// OpenAIProvider implements Provider using OpenAI's chat completions with structured outputs
type OpenAIProvider struct {
	client    openai.Client
	model     string
	logger    *zap.Logger
	debugMode bool
}

// NewOpenAIProvider creates a new OpenAI provider
func NewOpenAIProvider(apiKey string, model string) *OpenAIProvider {
	return NewOpenAIProviderWithLogger(apiKey, DefaultOpenAIBaseURL, model, 0, nil, false)
}

// NewOpenAIProviderWithLogger creates a new OpenAI provider with logger support.
// A zero timeout uses DefaultTimeout. Extra client options are applied last.
func NewOpenAIProviderWithLogger(apiKey, baseURL, model string, timeout time.Duration, logger *zap.Logger, debugMode bool, opts ...option.RequestOption) *OpenAIProvider {
	if model == "" {
		model = DefaultOpenAIModel
	}
	if baseURL == "" {
		baseURL = DefaultOpenAIBaseURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	clientOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithBaseURL(baseURL),
		option.WithHTTPClient(&http.Client{Timeout: timeout}),
	}
	client := openai.NewClient(append(clientOpts, opts...)...)

	return &OpenAIProvider{
		client:    client,
		model:     model,
		logger:    logger,
		debugMode: debugMode,
	}
}

// Generate writes an essay for the assignment using the textbook section.
func (p *OpenAIProvider) Generate(ctx context.Context, sourceText, essayPrompt string) (string, error) {
	messages := []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(generationSystemPrompt),
		openai.UserMessage("Textbook: " + sourceText),
		openai.UserMessage("Assignment: " + essayPrompt),
	}

	content, err := p.complete(ctx, "generate", messages, generationSchemaName, generationSchema())
	if err != nil {
		return "", fmt.Errorf("failed to generate essay: %w", err)
	}

	var out struct {
		FinalAnswer string `json:"final_answer"`
	}
	if err := decodeJSONObject(content, &out); err != nil {
		return "", fmt.Errorf("failed to parse generation response: %w", err)
	}
	return out.FinalAnswer, nil
}

// Evaluate runs the evaluation prompt for one category.
func (p *OpenAIProvider) Evaluate(ctx context.Context, category models.Category, essay, sourceText string) (models.Findings, error) {
	prompt, err := EvaluationPrompt(category)
	if err != nil {
		return models.EmptyFindings(), err
	}

	messages := []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(prompt.System),
		openai.UserMessage(prompt.Task),
		openai.UserMessage("Essay: " + essay),
	}
	if UsesSourceText(category) {
		messages = append(messages, openai.UserMessage("Source Text: "+sourceText))
	}

	content, err := p.complete(ctx, "evaluate_"+string(category), messages, evaluationSchemaName, evaluationSchema(category))
	if err != nil {
		return models.EmptyFindings(), fmt.Errorf("failed to evaluate %s: %w", category, err)
	}

	findings, err := parseFindings(category, content)
	if err != nil {
		return models.EmptyFindings(), err
	}
	return findings, nil
}

// complete sends a chat completion constrained to a strict JSON schema and returns the first choice's content.
func (p *OpenAIProvider) complete(ctx context.Context, operation string, messages []openai.ChatCompletionMessageParamUnion, schemaName string, schema map[string]any) (string, error) {
	req := openai.ChatCompletionNewParams{
		Model:    shared.ChatModel(p.model),
		Messages: messages,
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &shared.ResponseFormatJSONSchemaParam{
				JSONSchema: shared.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:   schemaName,
					Schema: schema,
					Strict: openai.Bool(true),
				},
			},
		},
	}

	requestID := request.RequestIDFromContext(ctx)
	sessionID := request.SessionString(ctx)
	if p.debugMode {
		p.logger.Debug("llm_api_request",
			zap.String("operation", operation),
			zap.String("model", p.model),
			zap.Int("message_count", len(messages)),
			zap.String("schema", schemaName),
			zap.String("session_id", sessionID),
			zap.String("request_id", requestID),
		)
	}

	start := time.Now()
	resp, err := p.client.Chat.Completions.New(ctx, req)
	latency := time.Since(start)
	if err != nil {
		if p.debugMode {
			p.logger.Debug("llm_api_error",
				zap.String("operation", operation),
				zap.String("model", p.model),
				zap.Error(err),
				zap.String("session_id", sessionID),
				zap.String("request_id", requestID),
				zap.Int64("latency_ms", latency.Milliseconds()),
			)
		}
		if apiErr := ExtractAPIError(err); apiErr != nil {
			return "", apiErr
		}
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New(ErrNoChoicesInResponse)
	}

	content := resp.Choices[0].Message.Content
	if p.debugMode {
		p.logger.Debug("llm_api_response",
			zap.String("operation", operation),
			zap.String("model", p.model),
			zap.Int("response_length", len(content)),
			zap.String("response_preview", SanitizeResponse(content, true)),
			zap.String("session_id", sessionID),
			zap.String("request_id", requestID),
			zap.Int64("latency_ms", latency.Milliseconds()),
		)
	}
	return content, nil
}

// parseFindings reads a category's three lists out of a structured evaluation response.
func parseFindings(category models.Category, content string) (models.Findings, error) {
	var raw map[string][]string
	if err := decodeJSONObject(content, &raw); err != nil {
		return models.EmptyFindings(), fmt.Errorf("failed to parse %s evaluation: %w", category, err)
	}

	findings := models.EmptyFindings()
	if v := raw[contextField(category)]; v != nil {
		findings.Context = v
	}
	if v := raw[reasoningField(category)]; v != nil {
		findings.Reasoning = v
	}
	if v := raw[suggestionField(category)]; v != nil {
		findings.Suggestion = v
	}
	return findings, nil
}

// decodeJSONObject unmarshals content, retrying on the outermost {...} when the model wrapped the object in prose.
func decodeJSONObject(content string, v any) error {
	err := json.Unmarshal([]byte(content), v)
	if err == nil {
		return nil
	}
	raw := []byte(content)
	start := bytes.IndexByte(raw, '{')
	end := bytes.LastIndexByte(raw, '}')
	if start == -1 || end <= start {
		return err
	}
	return json.Unmarshal(raw[start:end+1], v)
}

// RegisterOpenAI registers the OpenAI provider with the registry
func RegisterOpenAI(registry *ProviderRegistry) {
	registry.Register("openai", func(config map[string]string, logger *zap.Logger) (Provider, error) {
		apiKey, ok := config["api_key"]
		if !ok || apiKey == "" {
			return nil, fmt.Errorf("openai api_key is required")
		}

		var timeout time.Duration
		if v := config["timeout"]; v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				return nil, fmt.Errorf("invalid openai timeout %q: %w", v, err)
			}
			timeout = d
		}

		var opts []option.RequestOption
		if v := config["max_retries"]; v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				return nil, fmt.Errorf("invalid openai max_retries %q", v)
			}
			opts = append(opts, option.WithMaxRetries(n))
		}

		return NewOpenAIProviderWithLogger(apiKey, config["base_url"], config["model"], timeout, logger, config["debug"] == "true", opts...), nil
	})
}
