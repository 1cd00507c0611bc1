package mcp

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

const (
	// ManifestTimeout bounds the handshake GET against {endpoint}/mcp.
	ManifestTimeout = 10 * time.Second
	// CallTimeout bounds a single tool invocation POST against {endpoint}/call.
	CallTimeout = 15 * time.Second

	maxErrorBodyBytes = 512
)

// Client talks the manifest-plus-call protocol of one remote tool provider.
// The auth headers are sent on every request, manifest fetch included.
type Client struct {
	endpoint   string
	headers    map[string]string
	httpClient *http.Client
}

// NewClient binds a client to a provider endpoint. Headers may be nil.
func NewClient(endpoint string, headers map[string]string) *Client {
	return &Client{
		endpoint:   strings.TrimRight(endpoint, "/"),
		headers:    headers,
		httpClient: http.DefaultClient,
	}
}

// Endpoint returns the provider base URL the client is bound to.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Manifest fetches the provider's tool manifest via GET {endpoint}/mcp.
func (c *Client) Manifest(ctx context.Context) (*Manifest, error) {
	ctx, cancel := context.WithTimeout(ctx, ManifestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"/mcp", nil)
	if err != nil {
		return nil, fmt.Errorf("build manifest request: %w", err)
	}
	c.applyHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch manifest: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetch manifest: status %s", resp.Status)
	}

	var m Manifest
	if err := json.NewDecoder(resp.Body).Decode(&m); err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}
	return &m, nil
}

// Call invokes one remote tool via POST {endpoint}/call and returns the raw
// response body. The body is passed through verbatim; a non-2xx status is an
// error. No retries.
func (c *Client) Call(ctx context.Context, name string, args map[string]any) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, CallTimeout)
	defer cancel()

	if args == nil {
		args = map[string]any{}
	}
	payload, err := json.Marshal(map[string]any{
		"tool":      name,
		"arguments": args,
	})
	if err != nil {
		return "", fmt.Errorf("marshal call payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/call", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build call request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.applyHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("call %s: %w", name, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read %s response: %w", name, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("call %s: status %s: %s", name, resp.Status, truncate(string(body), maxErrorBodyBytes))
	}
	return string(body), nil
}

func (c *Client) applyHeaders(req *http.Request) {
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
