package mock

import (
	"context"

	"github.com/swcstudio/fsl-continuum-sub003/internal/backend"
)

// Client is a test double implementing backend.Client.
type Client struct {
	IDValue  string
	InvokeFn func(ctx context.Context, prompt string) (backend.Response, error)
}

func (c *Client) ID() string {
	if c.IDValue != "" {
		return c.IDValue
	}
	return "mock"
}

func (c *Client) Invoke(ctx context.Context, prompt string) (backend.Response, error) {
	if c.InvokeFn != nil {
		return c.InvokeFn(ctx, prompt)
	}
	return backend.Response{
		BackendID:  c.ID(),
		Text:       "mock",
		Confidence: 1,
	}, nil
}
