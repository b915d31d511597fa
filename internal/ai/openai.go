package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

const (
	maxTokens        = 150
	temperature      = 0.7
	frequencyPenalty = 0.3

	systemPrompt = "You are a productivity coach. Given a task, reply with one or two " +
		"concrete, actionable sentences on how to approach it. Mention timing when a deadline is given."
)

type OpenAIGenerator struct {
	client  *openai.Client
	model   string
	timeout time.Duration
}

// NewOpenAIGenerator builds a chat-completions generator. With an empty apiKey
// every call fails with ErrNotConfigured. baseURL may point at any
// OpenAI-compatible endpoint.
func NewOpenAIGenerator(apiKey, baseURL, model string, timeout time.Duration) *OpenAIGenerator {
	g := &OpenAIGenerator{
		model:   model,
		timeout: timeout,
	}

	if apiKey != "" {
		cfg := openai.DefaultConfig(apiKey)
		if baseURL != "" {
			cfg.BaseURL = baseURL
		}
		g.client = openai.NewClientWithConfig(cfg)
	}

	return g
}

func (g *OpenAIGenerator) Configured() bool {
	return g.client != nil
}

func (g *OpenAIGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	if g.client == nil {
		return "", ErrNotConfigured
	}

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:        maxTokens,
		Temperature:      temperature,
		FrequencyPenalty: frequencyPenalty,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: empty response", ErrUnavailable)
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", fmt.Errorf("%w: blank suggestion", ErrUnavailable)
	}

	return text, nil
}
