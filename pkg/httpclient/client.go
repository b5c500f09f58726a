// pkg/httpclient/client.go

package httpclient

import (
	"bytes"
	"context"
	"io"
	"math"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/CodeMonkeyCybersecurity/agentdedup/pkg/dedup_err"
	cerr "github.com/cockroachdb/errors"
	"github.com/sony/gobreaker"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Client is a sequential HTTP client that layers a minimum request spacing,
// bounded retries with exponential backoff and a circuit breaker over
// net/http. It is safe for use by one goroutine at a time.
type Client struct {
	httpClient *http.Client
	config     *Config
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker
	sleep      func(ctx context.Context, d time.Duration) error
}

// Request describes a single logical call. Body is replayed on every retry.
type Request struct {
	Method  string
	URL     string
	Body    []byte
	Headers map[string]string
	// BypassBreaker sends the request regardless of the circuit breaker
	// state and keeps its outcome out of the breaker counts.
	BypassBreaker bool
}

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// NewClient builds a client from config. A nil config uses DefaultConfig.
func NewClient(config *Config) (*Client, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, cerr.Wrap(err, "invalid http client config")
	}

	base := config.Transport
	if base == nil {
		base = http.DefaultTransport.(*http.Transport).Clone()
	}

	c := &Client{
		httpClient: &http.Client{
			Timeout:   config.Timeout,
			Transport: otelhttp.NewTransport(base),
		},
		config: config,
		sleep:  sleepContext,
	}

	if rl := config.RateLimitConfig; rl != nil && rl.MinInterval > 0 {
		c.limiter = rate.NewLimiter(rate.Every(rl.MinInterval), 1)
	}

	if bc := config.BreakerConfig; bc != nil && bc.ConsecutiveFailures > 0 {
		threshold := bc.ConsecutiveFailures
		c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    bc.Name,
			Timeout: bc.OpenTimeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= threshold
			},
			// Only transport-level trouble counts against the breaker;
			// auth failures and 4xx answers mean the platform is reachable.
			IsSuccessful: func(err error) bool {
				return err == nil || !dedup_err.IsTransient(err)
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				zap.L().Warn("Circuit breaker state changed",
					zap.String("breaker", name),
					zap.String("from", from.String()),
					zap.String("to", to.String()))
			},
		})
	}

	return c, nil
}

// Do sends the request, retrying transient failures up to
// RetryConfig.MaxRetries times. Non-2xx responses that are not retryable are
// returned with a nil error so callers can interpret vendor status codes;
// 401/403 are returned as authentication errors.
//
// The circuit breaker sees one outcome per Do call, after retries are spent,
// so a single failing resource cannot open it. Requests with BypassBreaker
// set neither consult nor update it.
func (c *Client) Do(ctx context.Context, r Request) (*Response, error) {
	if c.breaker == nil || r.BypassBreaker {
		return c.doWithRetries(ctx, r)
	}

	out, err := c.breaker.Execute(func() (interface{}, error) {
		return c.doWithRetries(ctx, r)
	})
	if err != nil && isBreakerRejection(err) {
		return nil, dedup_err.NewTransientNetworkError(err, "circuit breaker %q rejected %s %s",
			c.breaker.Name(), r.Method, r.URL)
	}
	resp, _ := out.(*Response)
	return resp, err
}

func (c *Client) doWithRetries(ctx context.Context, r Request) (*Response, error) {
	logger := otelzap.Ctx(ctx)

	maxRetries := 0
	if c.config.RetryConfig != nil {
		maxRetries = c.config.RetryConfig.MaxRetries
	}

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			delay := c.backoff(attempt)
			logger.Warn("Retrying request after transient failure",
				zap.String("method", r.Method),
				zap.String("url", r.URL),
				zap.Int("attempt", attempt+1),
				zap.Int("max_attempts", maxRetries+1),
				zap.Duration("delay", delay),
				zap.Error(lastErr))
			if err := c.sleep(ctx, delay); err != nil {
				return nil, err
			}
		}

		resp, err := c.attempt(ctx, r)
		if err == nil {
			return resp, nil
		}
		if !dedup_err.IsTransient(err) {
			return resp, err
		}
		lastErr = err
	}

	return nil, dedup_err.NewTransientNetworkError(lastErr,
		"%s %s failed after %d attempt(s)", r.Method, r.URL, maxRetries+1)
}

func (c *Client) attempt(ctx context.Context, r Request) (*Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			return nil, cerr.Wrap(err, "rate limiter")
		}
	}
	return c.roundTrip(ctx, r)
}

func (c *Client) roundTrip(ctx context.Context, r Request) (*Response, error) {
	logger := otelzap.Ctx(ctx)

	var body io.Reader
	if r.Body != nil {
		body = bytes.NewReader(r.Body)
	}

	req, err := http.NewRequestWithContext(ctx, r.Method, r.URL, body)
	if err != nil {
		return nil, cerr.Wrap(err, "failed to create request")
	}

	if c.config.UserAgent != "" {
		req.Header.Set("User-Agent", c.config.UserAgent)
	}
	for k, v := range c.config.Headers {
		req.Header.Set(k, v)
	}
	for k, v := range r.Headers {
		req.Header.Set(k, v)
	}
	if a := c.config.AuthConfig; a != nil && a.Type == AuthTypeBasic {
		req.SetBasicAuth(a.Username, a.Password)
	}

	if c.config.LogConfig != nil && c.config.LogConfig.LogRequests {
		logger.Debug("Sending request",
			zap.String("method", r.Method),
			zap.String("url", r.URL),
			zap.Int("body_bytes", len(r.Body)))
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, dedup_err.NewTransientNetworkError(err, "%s %s", r.Method, r.URL)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, dedup_err.NewTransientNetworkError(err, "reading response body from %s", r.URL)
	}

	out := &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       data,
	}

	if c.config.LogConfig != nil && c.config.LogConfig.LogResponses {
		logger.Debug("Received response",
			zap.String("url", r.URL),
			zap.Int("status", resp.StatusCode),
			zap.Duration("elapsed", time.Since(start)),
			zap.ByteString("body", data))
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return out, dedup_err.NewAuthenticationError(nil, "%s %s returned status %d", r.Method, r.URL, resp.StatusCode)
	case c.isRetryableStatus(resp.StatusCode):
		return out, dedup_err.NewTransientNetworkError(nil, "%s %s returned status %d", r.Method, r.URL, resp.StatusCode)
	}

	return out, nil
}

func (c *Client) isRetryableStatus(code int) bool {
	if c.config.RetryConfig == nil {
		return code >= 500
	}
	for _, s := range c.config.RetryConfig.RetryableStatus {
		if s == code {
			return true
		}
	}
	return false
}

// backoff returns the wait before the given retry attempt (1-based).
func (c *Client) backoff(attempt int) time.Duration {
	rc := c.config.RetryConfig
	if rc == nil || rc.InitialDelay <= 0 {
		return 0
	}

	multiplier := rc.Multiplier
	if multiplier < 1 {
		multiplier = 1
	}

	d := time.Duration(float64(rc.InitialDelay) * math.Pow(multiplier, float64(attempt-1)))
	if rc.MaxDelay > 0 && d > rc.MaxDelay {
		d = rc.MaxDelay
	}
	if rc.Jitter && d > 1 {
		half := d / 2
		d = half + rand.N(half+1)
	}
	return d
}

func isBreakerRejection(err error) bool {
	return cerr.Is(err, gobreaker.ErrOpenState) || cerr.Is(err, gobreaker.ErrTooManyRequests)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
