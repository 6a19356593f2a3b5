package finnhub

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/newthinker/insight/internal/collector"
	"github.com/newthinker/insight/internal/core"
	"golang.org/x/time/rate"
)

const (
	defaultBaseURL = "https://finnhub.io/api/v1"

	// maxBodyBytes bounds how much of a response we are willing to buffer.
	maxBodyBytes = 4 << 20
	maxMessage   = 300
)

// Client is an authenticated Finnhub REST client
type Client struct {
	token   string
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
}

// Option configures a Client
type Option func(*Client)

// WithBaseURL overrides the API base URL.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = strings.TrimSuffix(u, "/")
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.client = hc
		}
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.client.Timeout = d
		}
	}
}

// WithRateLimit caps outgoing calls at perSecond, with bursts of up to burst
// calls. Callers wait for a slot; a context that ends first fails the fetch.
// A non-positive rate leaves calls unthrottled.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(c *Client) {
		if perSecond <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// New creates a Finnhub client. The token is checked here, once.
func New(token string, opts ...Option) (*Client, error) {
	if token == "" {
		return nil, core.WrapError(core.ErrConfigMissing, fmt.Errorf("finnhub token is not set"))
	}
	c := &Client{
		token:   token,
		baseURL: defaultBaseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) Name() string {
	return "finnhub"
}

// Fetch calls path with params and classifies the response.
func (c *Client) Fetch(ctx context.Context, path string, params map[string]string) collector.Outcome {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return collector.Failure(core.WrapError(core.ErrUpstreamFetch, fmt.Errorf("rate limit: %w", err)))
		}
	}

	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		return collector.Failure(core.WrapError(core.ErrUpstreamFetch, err))
	}
	q := u.Query()
	for k, v := range params {
		q.Set(k, v)
	}
	q.Set("token", c.token)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return collector.Failure(core.WrapError(core.ErrUpstreamFetch, err))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return collector.Failure(core.WrapError(core.ErrUpstreamFetch, redact(err, c.token)))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return collector.Failure(core.WrapError(core.ErrUpstreamFetch, fmt.Errorf("reading body: %w", err)))
	}

	payload := decode(resp.Header.Get("Content-Type"), raw)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return collector.Failure(core.WrapError(core.ErrUpstreamStatus, &collector.StatusError{
			StatusCode: resp.StatusCode,
			Message:    statusMessage(resp.StatusCode, payload, raw),
		}))
	}

	return collector.Success(payload)
}

// decode parses JSON bodies and returns text otherwise. A body that claims to
// be JSON but does not parse yields nil.
func decode(contentType string, raw []byte) any {
	if !strings.Contains(strings.ToLower(contentType), "application/json") {
		return string(raw)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil
	}
	return v
}

func statusMessage(status int, payload any, raw []byte) string {
	if m, ok := payload.(map[string]any); ok {
		if e, ok := m["error"].(string); ok && e != "" {
			return truncate(e)
		}
	}
	if body := strings.TrimSpace(string(raw)); body != "" {
		return truncate(body)
	}
	return fmt.Sprintf("%d %s", status, http.StatusText(status))
}

func truncate(s string) string {
	if len(s) <= maxMessage {
		return s
	}
	return core.TruncateUTF8(s, maxMessage) + "..."
}

// redact strips the token from transport errors, which embed the full URL.
func redact(err error, token string) error {
	var ue *url.Error
	if errors.As(err, &ue) {
		ue.URL = strings.ReplaceAll(ue.URL, token, "REDACTED")
	}
	return err
}

// Date formats t as the provider's YYYY-MM-DD query format.
func Date(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}
