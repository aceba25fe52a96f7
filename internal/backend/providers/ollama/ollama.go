package ollama

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

// Client implements a minimal Ollama chat backend.
type Client struct {
	spec    backend.Spec
	client  *http.Client
	baseURL string
}

// NewClient constructs an Ollama client.
func NewClient(spec backend.Spec, baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = "http://127.0.0.1:11434"
	}
	if timeout == 0 {
		timeout = 20 * time.Second
	}

	return &Client{
		spec:    spec,
		client:  &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// ID returns the backend identifier.
func (c *Client) ID() string {
	return c.spec.ID
}

// Invoke executes a non-streaming chat call.
func (c *Client) Invoke(ctx context.Context, prompt string) (backend.Response, error) {
	start := time.Now()
	out := backend.Response{BackendID: c.spec.ID}

	text, err := c.chat(ctx, prompt)
	out.LatencyMs = float64(time.Since(start)) / float64(time.Millisecond)
	if err != nil {
		return out, fmt.Errorf("%s: %w: %v", c.spec.ID, backend.ErrBackendUnavailable, err)
	}

	out.Text = text
	out.Confidence = c.spec.QualityScore
	out.Cost = backend.Cost(prompt, c.spec.CostPerUnit)
	return out, nil
}

func (c *Client) chat(ctx context.Context, prompt string) (string, error) {
	if c.spec.Model == "" {
		return "", fmt.Errorf("model is required")
	}

	body := chatRequest{
		Model:    c.spec.Model,
		Messages: []message{{Role: "user", Content: prompt}},
		Stream:   false,
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	res, err := c.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode >= 300 {
		b, _ := io.ReadAll(res.Body)
		return "", fmt.Errorf("ollama: status %d: %s", res.StatusCode, string(b))
	}

	var resp chatResponse
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	return resp.Message.Content, nil
}

type chatRequest struct {
	Model    string    `json:"model"`
	Messages []message `json:"messages"`
	Stream   bool      `json:"stream"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Message message `json:"message"`
}
