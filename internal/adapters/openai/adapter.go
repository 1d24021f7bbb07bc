package openai

import (
	"context"
	"fmt"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"

	"github.com/forgeline/artifact-gateway/internal/adapters"
	"github.com/forgeline/artifact-gateway/internal/types"
)

// Adapter is the general-purpose provider backed by the OpenAI API. It is the
// universal catch-all at the tail of every fallback chain.
type Adapter struct {
	client *openai.Client
	config *Config
	logger *logrus.Logger
}

// Config holds OpenAI-specific configuration.
type Config struct {
	APIKey    string        `yaml:"api_key"`
	BaseURL   string        `yaml:"base_url"`
	OrgID     string        `yaml:"org_id"`
	Model     string        `yaml:"model"`
	MaxTokens int           `yaml:"max_tokens"`
	Timeout   time.Duration `yaml:"timeout"`
}

// New creates the general-purpose adapter.
func New(config *Config, logger *logrus.Logger) *Adapter {
	clientConfig := openai.DefaultConfig(config.APIKey)

	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}
	if config.OrgID != "" {
		clientConfig.OrgID = config.OrgID
	}

	if config.Model == "" {
		config.Model = openai.GPT4o
	}

	return &Adapter{
		client: openai.NewClientWithConfig(clientConfig),
		config: config,
		logger: logger,
	}
}

// Name returns the registry name of the adapter.
func (a *Adapter) Name() string {
	return "general-purpose"
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
		a.logger.WithError(err).WithField("kind", kind).Error("OpenAI API call failed")
		return nil, fmt.Errorf("openai api call failed: %w", err)
	}

	return convertResponse(&resp), nil
}

// HealthCheck probes the models endpoint.
func (a *Adapter) HealthCheck(ctx context.Context) (*types.HealthStatus, error) {
	start := time.Now()
	if _, err := a.client.ListModels(ctx); err != nil {
		a.logger.WithError(err).Error("OpenAI health check failed")
		return nil, fmt.Errorf("openai health check failed: %w", err)
	}

	a.logger.Debug("OpenAI health check passed")
	return &types.HealthStatus{
		Status:         types.StatusHealthy,
		ResponseTimeMs: time.Since(start).Milliseconds(),
		Timestamp:      time.Now(),
	}, nil
}

// convertResponse maps the SDK response into the chat-shaped raw payload.
func convertResponse(resp *openai.ChatCompletionResponse) *types.RawResponse {
	choices := make([]types.ChatChoice, 0, len(resp.Choices))
	for _, c := range resp.Choices {
		choices = append(choices, types.ChatChoice{
			Index:        c.Index,
			FinishReason: string(c.FinishReason),
			Message: types.ChatMessage{
				Role:    c.Message.Role,
				Content: c.Message.Content,
			},
		})
	}

	return &types.RawResponse{
		Shape: types.ShapeChat,
		Chat:  &types.ChatPayload{Choices: choices},
	}
}

var _ adapters.ProviderAdapter = (*Adapter)(nil)
