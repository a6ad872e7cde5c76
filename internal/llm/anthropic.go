package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"go.uber.org/zap"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "claude-sonnet-4-5-20250929"

const defaultMaxTokens = 4096

// AnthropicConfig holds configuration for the Anthropic-backed client.
type AnthropicConfig struct {
	APIKey  string      // required
	BaseURL string      // optional override of the API endpoint
	Model   string      // default: DefaultModel
	Retry   RetryConfig // zero value means DefaultRetryConfig
	Logger  *zap.Logger // optional
}

// Anthropic implements Client against the Anthropic Messages API.
type Anthropic struct {
	client *anthropic.Client
	model  string
	retry  RetryConfig
	logger *zap.Logger
}

var _ Client = (*Anthropic)(nil)

// NewAnthropic creates an Anthropic-backed completion client.
func NewAnthropic(cfg AnthropicConfig) (*Anthropic, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic API key is required")
	}
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	retry := cfg.Retry
	if retry.MaxRetries == 0 {
		retry = DefaultRetryConfig()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	client := anthropic.NewClient(opts...)
	return &Anthropic{
		client: &client,
		model:  model,
		retry:  retry,
		logger: logger,
	}, nil
}

// Complete sends a single-turn completion request and returns the
// concatenated text content of the response.
func (a *Anthropic) Complete(ctx context.Context, req Request) (string, error) {
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = defaultMaxTokens
	}

	// The system framing travels in the same user turn; single-turn
	// structured requests do not need a separate system block.
	prompt := req.Prompt
	if req.System != "" {
		prompt = req.System + "\n\n" + req.Prompt
	}

	start := time.Now()
	var response *anthropic.Message
	err := retryWithBackoff(ctx, a.logger, a.retry, "completion", func(attemptCtx context.Context) error {
		resp, apiErr := a.client.Messages.New(attemptCtx, anthropic.MessageNewParams{
			Model:     anthropic.Model(a.model),
			MaxTokens: int64(maxTokens),
			Messages: []anthropic.MessageParam{
				anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
			},
		})
		if apiErr != nil {
			return apiErr
		}
		response = resp
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("anthropic API call failed: %w", err)
	}

	var text string
	for _, block := range response.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}

	a.logger.Debug("completion call finished",
		zap.String("model", a.model),
		zap.Int64("input_tokens", response.Usage.InputTokens),
		zap.Int64("output_tokens", response.Usage.OutputTokens),
		zap.Duration("duration", time.Since(start)))

	return text, nil
}
