package ensemble

import (
	"bufio"
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"

	"github.com/bufbuild/connect-go"
	"golang.org/x/net/http2"

	"github.com/swcstudio/fsl-continuum-sub003/internal/ensemble"
	"github.com/swcstudio/fsl-continuum-sub003/internal/rpc"
	"github.com/swcstudio/fsl-continuum-sub003/internal/rpc/connectjson"
)

// Client runs ensemble requests against a remote daemon.
type Client struct {
	baseURL   string
	transport string
	http      *http.Client
}

// NewClient builds a client for baseURL. transport is "connect" (h2c) or "ndjson".
func NewClient(baseURL, transport string) *Client {
	c := &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		transport: strings.ToLower(strings.TrimSpace(transport)),
	}
	if c.transport == "ndjson" {
		c.http = &http.Client{}
	} else {
		c.transport = "connect"
		c.http = &http.Client{
			Transport: &http2.Transport{
				AllowHTTP: true,
				DialTLSContext: func(ctx context.Context, network, addr string, _ *tls.Config) (net.Conn, error) {
					var d net.Dialer
					return d.DialContext(ctx, network, addr)
				},
			},
		}
	}
	return c
}

// Run streams a remote run, calling onEvent for every event, and returns the final result.
func (c *Client) Run(ctx context.Context, req ensemble.Request, onEvent func(rpc.RunEnsembleEvent)) (*ensemble.Result, error) {
	if onEvent == nil {
		onEvent = func(rpc.RunEnsembleEvent) {}
	}
	var result *ensemble.Result
	collect := func(ev rpc.RunEnsembleEvent) error {
		onEvent(ev)
		switch ev.Type {
		case ensemble.EventDone:
			result = ev.Result
		case ensemble.EventError:
			return fmt.Errorf("remote run failed: %s", ev.Error)
		}
		return nil
	}

	var err error
	if c.transport == "ndjson" {
		err = c.runNDJSON(ctx, req, collect)
	} else {
		err = c.runConnect(ctx, req, collect)
	}
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, errors.New("remote run ended without a result")
	}
	return result, nil
}

func (c *Client) runConnect(ctx context.Context, req ensemble.Request, handle func(rpc.RunEnsembleEvent) error) error {
	client := connect.NewClient[rpc.RunEnsembleRequest, rpc.RunEnsembleEvent](
		c.http,
		c.baseURL+ConnectRunProcedure,
		connect.WithCodec(connectjson.Codec{}),
	)

	msg := rpc.FromEnsemble(req)
	stream, err := client.CallServerStream(ctx, connect.NewRequest(&msg))
	if err != nil {
		return fmt.Errorf("call %s: %w", ConnectRunProcedure, err)
	}
	defer stream.Close()

	for stream.Receive() {
		if err := handle(*stream.Msg()); err != nil {
			return err
		}
	}
	if err := stream.Err(); err != nil {
		return fmt.Errorf("stream: %w", err)
	}
	return nil
}

func (c *Client) runNDJSON(ctx context.Context, req ensemble.Request, handle func(rpc.RunEnsembleEvent) error) error {
	payload, err := json.Marshal(rpc.FromEnsemble(req))
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+RunPath, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	res, err := c.http.Do(httpReq)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode >= 300 {
		b, _ := io.ReadAll(res.Body)
		return fmt.Errorf("daemon: status %d: %s", res.StatusCode, strings.TrimSpace(string(b)))
	}

	scanner := bufio.NewScanner(res.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var ev rpc.RunEnsembleEvent
		if err := json.Unmarshal(line, &ev); err != nil {
			return fmt.Errorf("decode event: %w", err)
		}
		if err := handle(ev); err != nil {
			return err
		}
	}
	return scanner.Err()
}
