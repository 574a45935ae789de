package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"decision-eval/backend/internal/metrics"
)

const (
	geminiBaseURL      = "https://generativelanguage.googleapis.com/v1beta"
	defaultGeminiModel = "gemini-2.5-flash"
)

// Gemini adapts the Google generateContent API. The backend has no chat role
// structure and may wrap output in markdown fences, so messages are flattened
// into one prompt and the result is re-validated as JSON before returning.
type Gemini struct {
	httpClient *http.Client
	apiKey     string
	model      string
	baseURL    string

	mu     sync.Mutex
	calls  int64
	tokens int64
}

// NewGemini constructs the Gemini adapter.
func NewGemini(cfg Config) (Completer, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, ErrDisabled
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultGeminiModel
	}
	return &Gemini{
		httpClient: &http.Client{Timeout: 60 * time.Second},
		apiKey:     apiKey,
		model:      model,
		baseURL:    geminiBaseURL,
	}, nil
}

func (g *Gemini) Name() string {
	return "gemini"
}

type geminiRequest struct {
	Contents         []geminiContent        `json:"contents"`
	GenerationConfig geminiGenerationConfig `json:"generationConfig"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenerationConfig struct {
	Temperature      float32 `json:"temperature"`
	ResponseMimeType string  `json:"responseMimeType"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
	UsageMetadata struct {
		TotalTokenCount int64 `json:"totalTokenCount"`
	} `json:"usageMetadata"`
}

// Complete flattens the message list into a single prompt, calls the
// generateContent endpoint, and returns validated bare JSON.
func (g *Gemini) Complete(ctx context.Context, messages []Message, temperature float32) (string, error) {
	payload := geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: flattenMessages(messages)}}}},
		GenerationConfig: geminiGenerationConfig{
			Temperature:      temperature,
			ResponseMimeType: "application/json",
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal gemini request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", g.baseURL, g.model, g.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create gemini request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("gemini request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var apiErr map[string]any
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		return "", fmt.Errorf("gemini status %d: %v", resp.StatusCode, apiErr)
	}

	var decoded geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("decode gemini response: %w", err)
	}

	g.mu.Lock()
	g.calls++
	g.tokens += decoded.UsageMetadata.TotalTokenCount
	g.mu.Unlock()
	metrics.ProviderTokens.WithLabelValues("gemini").Add(float64(decoded.UsageMetadata.TotalTokenCount))

	if reason := strings.TrimSpace(decoded.PromptFeedback.BlockReason); reason != "" {
		return "", fmt.Errorf("gemini blocked response (%s): %w", reason, ErrRefused)
	}
	if len(decoded.Candidates) == 0 {
		return "", fmt.Errorf("gemini returned no candidates: %w", ErrRefused)
	}

	var text strings.Builder
	for _, part := range decoded.Candidates[0].Content.Parts {
		text.WriteString(part.Text)
	}
	content := normalizeJSONBlock(text.String())
	if content == "" {
		return "", fmt.Errorf("gemini returned empty content: %w", ErrRefused)
	}
	if !validJSON(content) {
		preview := content
		if len(preview) > 200 {
			preview = preview[:200]
		}
		return "", fmt.Errorf("gemini returned invalid JSON: %s", preview)
	}
	return content, nil
}

func (g *Gemini) Stats() Stats {
	g.mu.Lock()
	defer g.mu.Unlock()
	return Stats{
		Provider:    "gemini",
		Model:       g.model,
		Calls:       g.calls,
		TotalTokens: g.tokens,
	}
}

func flattenMessages(messages []Message) string {
	var b strings.Builder
	for _, m := range messages {
		switch m.Role {
		case RoleSystem:
			fmt.Fprintf(&b, "SYSTEM INSTRUCTIONS:\n%s\n\n", m.Content)
		default:
			fmt.Fprintf(&b, "USER:\n%s\n\n", m.Content)
		}
	}
	b.WriteString("IMPORTANT: You MUST respond with ONLY valid JSON. No markdown, no code blocks, just pure JSON.")
	return b.String()
}
