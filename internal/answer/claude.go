package answer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dgallion1/docquery/internal/history"
)

// ClaudeClient answers questions via the Anthropic Messages API.
type ClaudeClient struct {
	apiKey     string
	model      string
	httpClient *http.Client
	stats      *CallStats
}

func NewClaudeClient(apiKey, model string, stats *CallStats) *ClaudeClient {
	return &ClaudeClient{
		apiKey: apiKey,
		model:  model,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
		stats: stats,
	}
}

func (c *ClaudeClient) Model() string { return c.model }

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	System    string             `json:"system,omitempty"`
	Messages  []anthropicMessage `json:"messages"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// Answer sends the composed context and question to Claude and returns the
// answer text.
func (c *ClaudeClient) Answer(ctx context.Context, req Request) (string, error) {
	start := time.Now()
	text, err := c.answer(ctx, req)
	if c.stats != nil {
		c.stats.Record(time.Since(start), err != nil)
	}
	return text, err
}

func (c *ClaudeClient) answer(ctx context.Context, req Request) (string, error) {
	body, err := json.Marshal(anthropicRequest{
		Model:     c.model,
		MaxTokens: 4096,
		System:    systemPrompt(req.QuestionType),
		Messages: []anthropicMessage{
			{Role: "user", Content: req.Context},
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, "https://api.anthropic.com/v1/messages", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.apiKey)
	httpReq.Header.Set("anthropic-version", "2023-06-01")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("claude api: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", &ProviderError{
			Provider:   "claude",
			StatusCode: resp.StatusCode,
			Message:    string(respBody),
		}
	}

	var apiResp anthropicResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if apiResp.Error != nil {
		return "", fmt.Errorf("claude error: %s: %s", apiResp.Error.Type, apiResp.Error.Message)
	}
	if len(apiResp.Content) == 0 || apiResp.Content[0].Text == "" {
		return "", fmt.Errorf("empty response from claude")
	}
	return apiResp.Content[0].Text, nil
}

// systemPrompt steers the answer style by question type. Algorithm questions
// get complexity analysis, visualization questions get tool/library focus.
func systemPrompt(qt history.QuestionType) string {
	base := "You answer questions about an uploaded document. Base your answer on the provided document context. If the context does not contain the needed information, say what is available and what is missing."
	switch qt {
	case history.QuestionAlgorithm:
		return base + " The question concerns algorithms: explain the approaches mentioned, include time and space complexity where relevant, and format any code with fenced code blocks."
	case history.QuestionVisualization:
		return base + " The question concerns data visualization: identify the visualization tools and techniques mentioned and explain how they are used."
	default:
		return base
	}
}

// Close releases resources.
func (c *ClaudeClient) Close() {
	c.httpClient.CloseIdleConnections()
}
