package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/swcstudio/fsl-continuum-sub003/internal/backend"
)

// Client implements backend.Client against an OpenAI-compatible chat completions API.
type Client struct {
	spec    backend.Spec
	client  *http.Client
	baseURL string
	apiKey  string
}

// NewClient constructs a Client with sane defaults.
func NewClient(spec backend.Spec, baseURL, apiKey string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = "https://api.openai.com"
	}
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		spec:    spec,
		client:  &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
	}
}

// ID returns the backend identifier.
func (c *Client) ID() string {
	return c.spec.ID
}

// Invoke sends the prompt as a single user message.
func (c *Client) Invoke(ctx context.Context, prompt string) (backend.Response, error) {
	start := time.Now()
	out := backend.Response{BackendID: c.spec.ID}

	text, err := c.complete(ctx, prompt)
	out.LatencyMs = float64(time.Since(start)) / float64(time.Millisecond)
	if err != nil {
		return out, fmt.Errorf("%s: %w: %v", c.spec.ID, backend.ErrBackendUnavailable, err)
	}

	out.Text = text
	out.Confidence = c.spec.QualityScore
	out.Cost = backend.Cost(prompt, c.spec.CostPerUnit)
	return out, nil
}

func (c *Client) complete(ctx context.Context, prompt string) (string, error) {
	if c.spec.Model == "" {
		return "", fmt.Errorf("model is required")
	}

	body := chatRequest{
		Model:    c.spec.Model,
		Messages: []message{{Role: "user", Content: prompt}},
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	res, err := c.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode >= 300 {
		b, _ := io.ReadAll(res.Body)
		return "", fmt.Errorf("openai: status %d: %s", res.StatusCode, string(b))
	}

	var resp chatResponse
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai: empty choices")
	}
	return resp.Choices[0].Message.Content, nil
}

type chatRequest struct {
	Model    string    `json:"model"`
	Messages []message `json:"messages"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Index        int     `json:"index"`
		FinishReason string  `json:"finish_reason"`
		Message      message `json:"message"`
	} `json:"choices"`
}
