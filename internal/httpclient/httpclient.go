// Package httpclient is the outbound HTTP client shared by the data fetchers:
// bounded timeouts, a small retry budget for idempotent GETs and an adaptive
// per-upstream rate limit.
package httpclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"server-warden/pkg/retrylimit"
)

// maxBody caps how much of a response body is read.
const maxBody = 1 << 20

var (
	// ErrUnreachable means no response was received.
	ErrUnreachable = errors.New("upstream unreachable")
	// ErrDecode means the response body was not the expected JSON.
	ErrDecode = errors.New("malformed upstream response")
)

// StatusError is returned for any non-200 final response.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d", e.URL, e.StatusCode)
}

// Config tunes a Client.
type Config struct {
	Name          string
	Timeout       time.Duration
	RetryMax      int
	RatePerSecond float64
	RateMax       float64
	UserAgent     string
}

// Client issues JSON GET requests against one upstream.
type Client struct {
	http      *retryablehttp.Client
	limiter   *retrylimit.AdaptiveLimiter
	userAgent string
}

// New returns a Client for cfg.
func New(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.RatePerSecond <= 0 {
		cfg.RatePerSecond = 5
	}
	limiter := retrylimit.NewAdaptiveLimiter(rate.Limit(cfg.RatePerSecond), 1, rate.Limit(cfg.RateMax), 1, 0.5)

	rc := retryablehttp.NewClient()
	rc.RetryMax = max(cfg.RetryMax, 0)
	rc.RetryWaitMin = 200 * time.Millisecond
	rc.RetryWaitMax = 2 * time.Second
	rc.Backoff = cappedBackoff
	rc.HTTPClient.Timeout = cfg.Timeout
	rc.HTTPClient.Transport = &limitedTransport{base: rc.HTTPClient.Transport, limiter: limiter}
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler
	rc.Logger = leveledLogger{log.With().Str("component", "http").Str("upstream", cfg.Name).Logger()}

	return &Client{http: rc, limiter: limiter, userAgent: cfg.UserAgent}
}

// GetJSON fetches rawURL with query and decodes the 200 response into out.
func (c *Client) GetJSON(ctx context.Context, rawURL string, query url.Values, out any) error {
	u := rawURL
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBody))
		return &StatusError{URL: rawURL, StatusCode: resp.StatusCode}
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBody)).Decode(out); err != nil {
		return fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return nil
}

// cappedBackoff is retryablehttp.DefaultBackoff with Retry-After bounded by
// waitMax; the default honours any Retry-After the upstream sends.
func cappedBackoff(waitMin, waitMax time.Duration, attempt int, resp *http.Response) time.Duration {
	return min(retryablehttp.DefaultBackoff(waitMin, waitMax, attempt, resp), waitMax)
}

// CurrentRate exposes the adaptive limit, mostly for diagnostics.
func (c *Client) CurrentRate() float64 { return c.limiter.CurrentLimit() }

// limitedTransport waits on the limiter before every attempt, retries
// included, and feeds the status back into it.
type limitedTransport struct {
	base    http.RoundTripper
	limiter *retrylimit.AdaptiveLimiter
}

func (t *limitedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.limiter.Wait(req.Context()); err != nil {
		return nil, err
	}
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	resp, err := base.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	t.limiter.Observe(resp.StatusCode)
	return resp, nil
}

// leveledLogger adapts zerolog to retryablehttp.LeveledLogger.
type leveledLogger struct {
	l zerolog.Logger
}

func (l leveledLogger) Error(msg string, kv ...interface{}) { l.l.Error().Fields(kv).Msg(msg) }
func (l leveledLogger) Info(msg string, kv ...interface{})  { l.l.Info().Fields(kv).Msg(msg) }
func (l leveledLogger) Debug(msg string, kv ...interface{}) { l.l.Debug().Fields(kv).Msg(msg) }
func (l leveledLogger) Warn(msg string, kv ...interface{})  { l.l.Warn().Fields(kv).Msg(msg) }
