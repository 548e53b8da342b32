package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// OpenAISuggester implements Suggester over the chat completions API
type OpenAISuggester struct {
	client *openai.Client
	config Config
	logger *zap.Logger
}

// NewOpenAISuggester creates a new suggester
func NewOpenAISuggester(config Config, logger *zap.Logger) (*OpenAISuggester, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("completion API key is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	if config.Model == "" {
		config.Model = DefaultModel
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	clientConfig.BaseURL = config.BaseURL

	return &OpenAISuggester{
		client: openai.NewClientWithConfig(clientConfig),
		config: config,
		logger: logger,
	}, nil
}

// Model returns the configured model name.
func (s *OpenAISuggester) Model() string { return s.config.Model }

// Suggest sends one chat completion request and returns the trimmed reply.
// Failures are returned as-is; there is no retry.
func (s *OpenAISuggester) Suggest(ctx context.Context, req SuggestRequest) (string, error) {
	if s.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.Timeout)
		defer cancel()
	}

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.config.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: SystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: BuildPrompt(req)},
		},
	})
	if err != nil {
		return "", fmt.Errorf("completion request: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyCompletion
	}

	s.logger.Debug("completion received",
		zap.String("model", resp.Model),
		zap.Int("total_tokens", resp.Usage.TotalTokens))

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
