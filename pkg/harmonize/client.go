package harmonize

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/tidwall/gjson"
)

const (
	// DefaultTimeout bounds one round trip. Generation can take minutes.
	DefaultTimeout = 5 * time.Minute

	// maxReplyBytes caps how much of a reply body is read.
	maxReplyBytes = 32 << 20

	// maxErrorBodyChars caps the reply excerpt kept on a StatusError.
	maxErrorBodyChars = 512

	transformPath = "/transform"
	generatePath  = "/newtransformation"
)

// Client talks to one harmonization service.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient = &http.Client{Timeout: d}
		}
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewClient creates a client for the service at baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	u, err := ParseBaseURL(baseURL)
	if err != nil {
		return nil, err
	}
	c := &Client{
		baseURL:    u,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		logger:     slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// ParseBaseURL validates a service base URL.
func ParseBaseURL(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("service base URL is required")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid service base URL %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid service base URL %q: scheme must be http or https", raw)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("invalid service base URL %q: missing host", raw)
	}
	return u, nil
}

// BaseURL returns the service base URL.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// Transform submits raw for the given transform and decodes the reply.
func (c *Client) Transform(ctx context.Context, raw string, t TransformType) (TransformResult, error) {
	req := NewTransformRequest(raw, t)

	c.logger.Debug("transform.request",
		"transform_type", t,
		"canonical", t.Canonical(),
		"input_chars", len(raw),
		"payload_chars", len(req.Data),
	)

	body, err := c.post(ctx, transformPath, req)
	if err != nil {
		return TransformResult{}, err
	}

	data, err := stringField(body, transformPath, "data")
	if err != nil {
		return TransformResult{}, err
	}

	res, err := DecodeTransformResult(t, data)
	if err != nil {
		return TransformResult{}, err
	}

	c.logger.Debug("transform.response",
		"transform_type", t,
		"rows", res.Table.Len(),
		"document", res.HasDocument,
	)
	return res, nil
}

// Generate sends a two-schema prompt and returns the markdown reply.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	c.logger.Debug("generate.request", "prompt_chars", len(prompt))

	body, err := c.post(ctx, generatePath, GenerationRequest{NewTransformation: prompt})
	if err != nil {
		return "", err
	}

	msg, err := stringField(body, generatePath, "message")
	if err != nil {
		return "", err
	}

	c.logger.Debug("generate.response", "message_chars", len(msg))
	return msg, nil
}

// Ping checks that something answers HTTP at the base URL and returns its
// status code. Any status counts as reachable; the service has no health
// endpoint.
func (c *Client) Ping(ctx context.Context) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL.String(), nil)
	if err != nil {
		return 0, fmt.Errorf("failed to build ping request: %w", err)
	}
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	_ = resp.Body.Close()

	c.logger.Debug("service.ping", "status", resp.StatusCode, "elapsed", time.Since(start).Round(time.Millisecond))
	return resp.StatusCode, nil
}

func (c *Client) post(ctx context.Context, path string, payload any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(payload); err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", path, err)
	}

	endpoint := c.baseURL.JoinPath(path).String()
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to build %s request: %w", path, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrTransport, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxReplyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: reading reply: %w", ErrTransport, path, err)
	}

	c.logger.Debug("service.response",
		"endpoint", path,
		"status", resp.StatusCode,
		"bytes", len(body),
		"elapsed", time.Since(start).Round(time.Millisecond),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{
			Endpoint:   path,
			StatusCode: resp.StatusCode,
			Body:       excerpt(body, resp.Header.Get("Content-Type")),
		}
	}
	return body, nil
}

// stringField pulls a string field out of a JSON reply. Replies that carry an
// "error" field and no result are reported as ServiceError.
func stringField(body []byte, endpoint, field string) (string, error) {
	if !gjson.ValidBytes(body) {
		return "", fmt.Errorf("%w: %s: reply is not JSON", ErrDecode, endpoint)
	}
	res := gjson.GetBytes(body, field)
	if !res.Exists() {
		if msg := gjson.GetBytes(body, "error"); msg.Exists() {
			return "", &ServiceError{Endpoint: endpoint, Message: msg.String()}
		}
		return "", fmt.Errorf("%w: %s: reply has no %q field", ErrDecode, endpoint, field)
	}
	if res.Type != gjson.String {
		return "", fmt.Errorf("%w: %s: %q field is %s, want string", ErrDecode, endpoint, field, res.Type)
	}
	return res.String(), nil
}

// excerpt trims a failed reply for display. HTML error pages are converted
// to markdown so the message is readable in a terminal or notice.
func excerpt(body []byte, contentType string) string {
	s := strings.TrimSpace(string(body))
	if strings.HasPrefix(contentType, "text/html") {
		if md, err := htmltomarkdown.ConvertString(s); err == nil {
			s = strings.TrimSpace(md)
		}
	}
	if len(s) > maxErrorBodyChars {
		return s[:maxErrorBodyChars] + "..."
	}
	return s
}
