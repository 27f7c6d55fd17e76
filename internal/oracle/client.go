// Package oracle talks to the text-completion service behind the
// pipeline. The pipeline treats it as an opaque prompt-in, text-out
// dependency; everything that turns its noisy output into structure lives
// in ExtractJSON so every stage shares one failure mode.
package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client completes a prompt with a named model. Implementations must be
// safe for sequential reuse; the pipeline never issues concurrent calls
// within one utterance.
type Client interface {
	Complete(ctx context.Context, model, prompt string) (string, error)
}

// OllamaClient calls a local Ollama server's /api/generate endpoint.
type OllamaClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewOllamaClient builds a client for the given base URL, e.g.
// "http://localhost:11434". Timeout bounds every completion call.
func NewOllamaClient(baseURL string, timeout time.Duration) *OllamaClient {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &OllamaClient{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *OllamaClient) Complete(ctx context.Context, model, prompt string) (string, error) {
	if c.baseURL == "" {
		return "", fmt.Errorf("missing oracle base url")
	}
	if model == "" {
		return "", fmt.Errorf("missing oracle model")
	}

	body := map[string]any{
		"model":  model,
		"prompt": prompt,
		"stream": false,
		"options": map[string]any{
			"temperature": 0.0,
		},
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("oracle http %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var decoded struct {
		Response string `json:"response"`
		Content  string `json:"content"`
		Error    string `json:"error"`
	}
	if err := json.Unmarshal(respBody, &decoded); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if decoded.Error != "" {
		return "", fmt.Errorf("oracle error: %s", decoded.Error)
	}
	// Older Ollama builds return "content" instead of "response".
	text := decoded.Response
	if text == "" {
		text = decoded.Content
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("empty completion")
	}
	return text, nil
}
