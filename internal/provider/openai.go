package provider

import (
	"context"
	"fmt"
	"strings"
	"sync"

	openai "github.com/sashabaranov/go-openai"

	"decision-eval/backend/internal/metrics"
)

// Config holds credentials for one completion backend.
type Config struct {
	APIKey string
	Model  string
}

const (
	mistralBaseURL  = "https://api.mistral.ai/v1"
	deepseekBaseURL = "https://api.deepseek.com"

	defaultMistralModel  = "mistral-large-latest"
	defaultDeepSeekModel = "deepseek-chat"
)

// chatClient adapts any OpenAI-compatible chat-completions backend. Mistral
// and DeepSeek both speak this wire protocol on their own base URLs.
type chatClient struct {
	name   string
	model  string
	client *openai.Client

	mu     sync.Mutex
	calls  int64
	tokens int64
}

func newChatClient(name, apiKey, baseURL, model string) (*chatClient, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, ErrDisabled
	}
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = baseURL
	return &chatClient{
		name:   name,
		model:  model,
		client: openai.NewClientWithConfig(cfg),
	}, nil
}

// NewMistral constructs the Mistral adapter.
func NewMistral(cfg Config) (Completer, error) {
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultMistralModel
	}
	return newChatClient("mistral", cfg.APIKey, mistralBaseURL, model)
}

// NewDeepSeek constructs the DeepSeek adapter.
func NewDeepSeek(cfg Config) (Completer, error) {
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultDeepSeekModel
	}
	return newChatClient("deepseek", cfg.APIKey, deepseekBaseURL, model)
}

func (c *chatClient) Name() string {
	return c.name
}

// Complete issues a chat completion constrained to a bare JSON object via the
// backend's native response-format support.
func (c *chatClient) Complete(ctx context.Context, messages []Message, temperature float32) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    toChatMessages(messages),
		Temperature: temperature,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("%s request: %w", c.name, err)
	}

	c.mu.Lock()
	c.calls++
	c.tokens += int64(resp.Usage.TotalTokens)
	c.mu.Unlock()
	metrics.ProviderTokens.WithLabelValues(c.name).Add(float64(resp.Usage.TotalTokens))

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%s: %w", c.name, ErrRefused)
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", fmt.Errorf("%s returned empty content: %w", c.name, ErrRefused)
	}
	return content, nil
}

func (c *chatClient) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		Provider:    c.name,
		Model:       c.model,
		Calls:       c.calls,
		TotalTokens: c.tokens,
	}
}

func toChatMessages(messages []Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		out = append(out, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}
	return out
}
