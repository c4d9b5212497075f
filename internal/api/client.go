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

	"go.uber.org/zap"

	"cosmiq-cli/internal/config"
)

const defaultTimeout = 60 * time.Second

type Client struct {
	baseURL    string
	httpClient *http.Client
	// streamClient has no overall timeout; streams end when the body ends
	// or the context is cancelled.
	streamClient *http.Client
	token        string
	log          *zap.Logger
}

type Option func(*Client)

// WithHTTPClient replaces the client used for request/response calls.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithStreamClient replaces the client used for streaming calls.
func WithStreamClient(hc *http.Client) Option {
	return func(c *Client) { c.streamClient = hc }
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

func NewClient(cfg *config.Config, opts ...Option) *Client {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	c := &Client{
		baseURL:      strings.TrimRight(cfg.Server, "/"),
		httpClient:   &http.Client{Timeout: timeout},
		streamClient: &http.Client{},
		token:        cfg.Token,
		log:          zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the server address requests are sent to.
func (c *Client) BaseURL() string { return c.baseURL }

func (c *Client) setHeaders(req *http.Request, hasBody bool) {
	if hasBody {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

func (c *Client) newRequest(ctx context.Context, method, endpoint string, body any) (*http.Request, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshaling request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	c.setHeaders(req, body != nil)
	return req, nil
}

// Request sends a JSON request and decodes a JSON response into out (which
// may be nil). Non-2xx responses are returned as *HTTPError.
func (c *Client) Request(ctx context.Context, method, endpoint string, body, out any) error {
	req, err := c.newRequest(ctx, method, endpoint, body)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		herr := newHTTPError(resp, respBody)
		c.log.Debug("request failed",
			zap.String("method", method),
			zap.String("endpoint", endpoint),
			zap.Int("status", herr.Status),
			zap.String("detail", herr.Detail))
		return herr
	}

	if out != nil && len(bytes.TrimSpace(respBody)) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("parsing response: %w", err)
		}
	}
	return nil
}

func (c *Client) get(ctx context.Context, endpoint string, out any) error {
	return c.Request(ctx, http.MethodGet, endpoint, nil, out)
}

func (c *Client) post(ctx context.Context, endpoint string, body, out any) error {
	return c.Request(ctx, http.MethodPost, endpoint, body, out)
}

func (c *Client) put(ctx context.Context, endpoint string, body, out any) error {
	return c.Request(ctx, http.MethodPut, endpoint, body, out)
}

func (c *Client) delete(ctx context.Context, endpoint string) error {
	return c.Request(ctx, http.MethodDelete, endpoint, nil, nil)
}

// recordPath joins a collection path and a record id such as "source:abc".
func recordPath(collection, id string, rest ...string) string {
	p := collection + "/" + url.PathEscape(id)
	for _, r := range rest {
		p += "/" + r
	}
	return p
}

// withQuery appends non-empty params to endpoint.
func withQuery(endpoint string, params url.Values) string {
	for k, v := range params {
		if len(v) == 0 || v[0] == "" {
			params.Del(k)
		}
	}
	if len(params) == 0 {
		return endpoint
	}
	return endpoint + "?" + params.Encode()
}
