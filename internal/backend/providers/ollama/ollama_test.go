package ollama

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/swcstudio/fsl-continuum-sub003/internal/backend"
)

func TestInvoke(t *testing.T) {
	t.Parallel()

	c := NewClient(backend.Spec{ID: "local", Model: "llama3", QualityScore: 0.7}, "http://mock", 0)
	c.client = &http.Client{
		Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			require.Equal(t, "/api/chat", r.URL.Path)
			return &http.Response{
				StatusCode: http.StatusOK,
				Header:     make(http.Header),
				Body:       io.NopCloser(strings.NewReader(`{"message":{"role":"assistant","content":"pong"}}`)),
			}, nil
		}),
	}

	resp, err := c.Invoke(context.Background(), "ping")
	require.NoError(t, err)
	require.Equal(t, "pong", resp.Text)
	require.Equal(t, 0.7, resp.Confidence)
	require.Equal(t, 0.0, resp.Cost)
}

func TestInvokeTransportFailure(t *testing.T) {
	t.Parallel()

	c := NewClient(backend.Spec{ID: "local", Model: "llama3"}, "http://mock", 0)
	c.client = &http.Client{
		Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			return nil, errors.New("connection refused")
		}),
	}

	_, err := c.Invoke(context.Background(), "ping")
	require.Error(t, err)
	require.True(t, errors.Is(err, backend.ErrBackendUnavailable))
}

type roundTripFunc func(r *http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}
