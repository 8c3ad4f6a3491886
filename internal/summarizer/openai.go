package summarizer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

const (
	DefaultBaseURL = "https://api.groq.com/openai/v1"
	DefaultModel   = "llama3-70b-8192"

	defaultMaxTokens int64 = 1024
)

type OpenAIOptions struct {
	BaseURL string
	Model   string
	// Timeout bounds every single completion call.
	Timeout   time.Duration
	MaxTokens int64
}

// OpenAICompleter talks to any OpenAI compatible chat completions endpoint.
type OpenAICompleter struct {
	client    openai.Client
	model     string
	maxTokens int64
}

func NewOpenAICompleter(apiKey string, opts OpenAIOptions) *OpenAICompleter {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Model == "" {
		opts.Model = DefaultModel
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = defaultMaxTokens
	}

	clientOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithBaseURL(opts.BaseURL),
		option.WithMaxRetries(0),
	}
	if opts.Timeout > 0 {
		clientOpts = append(clientOpts, option.WithRequestTimeout(opts.Timeout))
	}

	return &OpenAICompleter{
		client:    openai.NewClient(clientOpts...),
		model:     opts.Model,
		maxTokens: opts.MaxTokens,
	}
}

func (c *OpenAICompleter) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Temperature: openai.Float(0),
		MaxTokens:   openai.Int(c.maxTokens),
	})
	if err != nil {
		return "", fmt.Errorf("do request: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", errors.New("response has no choices")
	}

	choice := resp.Choices[0]
	if choice.FinishReason == "length" {
		return "", fmt.Errorf("response is incomplete (reason = %s, maxTokens = %d)",
			choice.FinishReason, c.maxTokens)
	}

	content := strings.TrimSpace(choice.Message.Content)
	if content == "" {
		return "", fmt.Errorf("output text is missing (finishReason = %s)", choice.FinishReason)
	}

	return content, nil
}
