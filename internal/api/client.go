// Package api is the REST client for the branching chat server.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/iksnae/branch-chat/internal"
)

// HTTPClient is the subset of *http.Client the API client needs
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// envelope is the response wrapper every endpoint returns
type envelope struct {
	Code int             `json:"code"`
	Data json.RawMessage `json:"data"`
	Msg  string          `json:"msg"`
}

// Client talks to the server's REST endpoints
type Client struct {
	baseURL    string
	httpClient HTTPClient
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc HTTPClient) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient = &http.Client{Timeout: timeout}
	}
}

// NewClient creates a client for the API rooted at baseURL
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: internal.DefaultRequestTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the API root
func (c *Client) BaseURL() string {
	return c.baseURL
}

// HTTPClient returns the underlying HTTP client
func (c *Client) HTTPClient() HTTPClient {
	return c.httpClient
}

// URL joins the API root and an endpoint path
func (c *Client) URL(path string) string {
	return c.baseURL + path
}

// do sends a request and decodes the envelope's data into out (which may be nil)
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return &internal.APIError{Method: method, Path: path, Err: fmt.Errorf("encode request: %w", err)}
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.URL(path), reader)
	if err != nil {
		return &internal.APIError{Method: method, Path: path, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &internal.APIError{Method: method, Path: path, Err: err}
	}
	defer resp.Body.Close()
	internal.LogDebug("%s %s -> %d (%s)", method, path, resp.StatusCode, time.Since(start).Round(time.Millisecond))

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &internal.APIError{Method: method, Path: path, Status: resp.StatusCode, Err: fmt.Errorf("read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &internal.APIError{Method: method, Path: path, Status: resp.StatusCode}
		var env envelope
		if json.Unmarshal(data, &env) == nil && env.Code != 0 {
			apiErr.Code = env.Code
			apiErr.Msg = env.Msg
		}
		return apiErr
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return &internal.APIError{Method: method, Path: path, Status: resp.StatusCode, Err: fmt.Errorf("decode envelope: %w", err)}
	}
	if env.Code != 0 {
		return &internal.APIError{Method: method, Path: path, Status: resp.StatusCode, Code: env.Code, Msg: env.Msg}
	}

	if out == nil || len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return &internal.APIError{Method: method, Path: path, Status: resp.StatusCode, Err: fmt.Errorf("decode data: %w", err)}
	}
	return nil
}

func idPath(format string, id int64) string {
	return fmt.Sprintf(format, url.PathEscape(fmt.Sprint(id)))
}
