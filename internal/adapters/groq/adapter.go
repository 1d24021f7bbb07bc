package groq

import (
	"context"
	"fmt"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"

	"github.com/forgeline/artifact-gateway/internal/adapters"
	"github.com/forgeline/artifact-gateway/internal/types"
)

// DefaultBaseURL is Groq's OpenAI-compatible endpoint.
const DefaultBaseURL = "https://api.groq.com/openai/v1"

// Adapter is the fast-inference provider. Groq exposes an OpenAI-compatible
// API, so the adapter reuses the OpenAI client with a different base URL.
type Adapter struct {
	client *openai.Client
	config *Config
	logger *logrus.Logger
}

// Config holds Groq-specific configuration.
type Config struct {
	APIKey    string        `yaml:"api_key"`
	BaseURL   string        `yaml:"base_url"`
	Model     string        `yaml:"model"`
	MaxTokens int           `yaml:"max_tokens"`
	Timeout   time.Duration `yaml:"timeout"`
}

// New creates the fast-inference adapter.
func New(config *Config, logger *logrus.Logger) *Adapter {
	clientConfig := openai.DefaultConfig(config.APIKey)

	clientConfig.BaseURL = DefaultBaseURL
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}

	if config.Model == "" {
		config.Model = "llama-3.3-70b-versatile"
	}

	return &Adapter{
		client: openai.NewClientWithConfig(clientConfig),
		config: config,
		logger: logger,
	}
}

// Name returns the registry name of the adapter.
func (a *Adapter) Name() string {
	return "fast-inference"
}

// Model returns the configured provider model.
func (a *Adapter) Model() string {
	return a.config.Model
}

// Generate performs a chat completion for the requested artifact kind.
func (a *Adapter) Generate(ctx context.Context, kind types.RequestKind, req *types.GenerateRequest) (*types.RawResponse, error) {
	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: a.config.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: adapters.InstructionFor(kind)},
			{Role: openai.ChatMessageRoleUser, Content: adapters.UserPrompt(kind, req)},
		},
		MaxTokens: a.config.MaxTokens,
	})
	if err != nil {
		a.logger.WithError(err).WithField("kind", kind).Error("Groq API call failed")
		return nil, fmt.Errorf("groq api call failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		// Groq occasionally returns an empty choice list on overload; surface
		// it as a failed attempt so the router falls back.
		return nil, fmt.Errorf("groq returned no choices")
	}

	// Groq responses are flattened here rather than carried as chat payloads,
	// which exercises the pre-extracted path in the normalizer.
	return types.PreExtracted(resp.Choices[0].Message.Content), nil
}

// HealthCheck probes the models endpoint.
func (a *Adapter) HealthCheck(ctx context.Context) (*types.HealthStatus, error) {
	start := time.Now()
	if _, err := a.client.ListModels(ctx); err != nil {
		a.logger.WithError(err).Error("Groq health check failed")
		return nil, fmt.Errorf("groq health check failed: %w", err)
	}

	a.logger.Debug("Groq health check passed")
	return &types.HealthStatus{
		Status:         types.StatusHealthy,
		ResponseTimeMs: time.Since(start).Milliseconds(),
		Timestamp:      time.Now(),
	}, nil
}

var _ adapters.ProviderAdapter = (*Adapter)(nil)
