package anthropic

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/sirupsen/logrus"

	"github.com/forgeline/artifact-gateway/internal/adapters"
	"github.com/forgeline/artifact-gateway/internal/types"
)

// Adapter is the code-specialist provider backed by Anthropic Claude. The
// routing policy prefers it for code generation and comprehensive PRDs.
type Adapter struct {
	client *anthropic.Client
	config *Config
	logger *logrus.Logger
}

// Config holds Anthropic-specific configuration.
type Config struct {
	APIKey    string        `yaml:"api_key"`
	BaseURL   string        `yaml:"base_url"`
	Model     string        `yaml:"model"`
	MaxTokens int64         `yaml:"max_tokens"`
	Timeout   time.Duration `yaml:"timeout"`
}

// New creates the code-specialist adapter.
func New(config *Config, logger *logrus.Logger) *Adapter {
	opts := []option.RequestOption{
		option.WithAPIKey(config.APIKey),
	}

	if config.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(config.BaseURL))
	}

	if config.Model == "" {
		config.Model = "claude-3-5-sonnet-20241022"
	}
	if config.MaxTokens == 0 {
		config.MaxTokens = 4096
	}

	client := anthropic.NewClient(opts...)

	return &Adapter{
		client: &client,
		config: config,
		logger: logger,
	}
}

// Name returns the registry name of the adapter.
func (a *Adapter) Name() string {
	return "code-specialist"
}

// Model returns the configured provider model.
func (a *Adapter) Model() string {
	return a.config.Model
}

// Generate performs a messages call for the requested artifact kind.
func (a *Adapter) Generate(ctx context.Context, kind types.RequestKind, req *types.GenerateRequest) (*types.RawResponse, error) {
	resp, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model: anthropic.Model(a.config.Model),
		System: []anthropic.TextBlockParam{
			{Text: adapters.InstructionFor(kind), Type: "text"},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(adapters.UserPrompt(kind, req))),
		},
		MaxTokens: a.config.MaxTokens,
	})
	if err != nil {
		a.logger.WithError(err).WithField("kind", kind).Error("Anthropic API call failed")
		return nil, fmt.Errorf("anthropic api call failed: %w", err)
	}

	// Claude returns a list of content blocks; flatten the text blocks into a
	// single plain-text payload.
	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	return &types.RawResponse{
		Shape: types.ShapePlainText,
		Text:  &types.TextPayload{Text: text.String()},
	}, nil
}

// HealthCheck sends a minimal one-token message on the cheapest model.
func (a *Adapter) HealthCheck(ctx context.Context) (*types.HealthStatus, error) {
	start := time.Now()
	_, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model: anthropic.Model("claude-3-haiku-20240307"),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock("test")),
		},
		MaxTokens: 1,
	})
	if err != nil {
		a.logger.WithError(err).Error("Anthropic health check failed")
		return nil, fmt.Errorf("anthropic health check failed: %w", err)
	}

	a.logger.Debug("Anthropic health check passed")
	return &types.HealthStatus{
		Status:         types.StatusHealthy,
		ResponseTimeMs: time.Since(start).Milliseconds(),
		Timestamp:      time.Now(),
	}, nil
}

var _ adapters.ProviderAdapter = (*Adapter)(nil)
