package fetch

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/eugenenazirov/nextimage-env/internal/metrics"
)

const defaultTimeout = 30 * time.Second

// HTTPFetcher implements Fetcher over net/http.
type HTTPFetcher struct {
	client    *http.Client
	limiter   *rate.Limiter
	timeout   time.Duration
	userAgent string
	logger    *zap.Logger
	metrics   *metrics.Metrics
}

// HTTPOption configures an HTTPFetcher.
type HTTPOption func(*HTTPFetcher)

// WithClient overrides the underlying HTTP client.
func WithClient(client *http.Client) HTTPOption {
	return func(f *HTTPFetcher) {
		if client != nil {
			f.client = client
		}
	}
}

// WithRateLimit throttles outbound requests. A non-positive rate disables
// throttling.
func WithRateLimit(ratePerSecond float64, burst int) HTTPOption {
	return func(f *HTTPFetcher) {
		if ratePerSecond <= 0 {
			f.limiter = nil
			return
		}
		if burst <= 0 {
			burst = 1
		}
		f.limiter = rate.NewLimiter(rate.Limit(ratePerSecond), burst)
	}
}

// WithTimeout bounds each fetch. Zero means no per-call bound beyond ctx.
func WithTimeout(timeout time.Duration) HTTPOption {
	return func(f *HTTPFetcher) {
		f.timeout = timeout
	}
}

// WithUserAgent sets the User-Agent header unless a call sets its own.
func WithUserAgent(userAgent string) HTTPOption {
	return func(f *HTTPFetcher) {
		f.userAgent = userAgent
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *zap.Logger) HTTPOption {
	return func(f *HTTPFetcher) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// WithMetrics attaches fetch metrics.
func WithMetrics(m *metrics.Metrics) HTTPOption {
	return func(f *HTTPFetcher) {
		f.metrics = m
	}
}

// NewHTTPFetcher constructs an HTTPFetcher.
func NewHTTPFetcher(opts ...HTTPOption) *HTTPFetcher {
	f := &HTTPFetcher{
		client:  &http.Client{},
		timeout: defaultTimeout,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch validates rawURL, waits for the limiter and performs the request.
// Non-2xx statuses are not errors; callers inspect Response.StatusCode.
func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string, opts ...Option) (*Response, error) {
	target, err := validateURL(rawURL)
	if err != nil {
		return nil, err
	}
	call := buildRequest(opts)

	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			f.metrics.CountFetch(call.method, "throttled")
			return nil, fmt.Errorf("wait for fetch slot: %w", err)
		}
	}

	cancel := func() {}
	if f.timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
	}

	req, err := http.NewRequestWithContext(ctx, call.method, target.String(), call.body)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("build %s %s: %w", call.method, target.Redacted(), err)
	}
	req.Header = call.header
	if f.userAgent != "" && req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	start := time.Now()
	resp, err := f.client.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		cancel()
		f.metrics.ObserveFetch(call.method, "error", elapsed)
		f.logger.Debug("fetch failed",
			zap.String("method", call.method),
			zap.String("url", target.Redacted()),
			zap.Duration("duration", elapsed),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%s %s: %w", call.method, target.Redacted(), err)
	}

	f.metrics.ObserveFetch(call.method, outcome(resp.StatusCode), elapsed)
	f.logger.Debug("fetch completed",
		zap.String("method", call.method),
		zap.String("url", target.Redacted()),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", elapsed),
	)

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       &cancelOnClose{ReadCloser: resp.Body, cancel: cancel},
	}, nil
}

func validateURL(rawURL string) (*url.URL, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return nil, ErrEmptyURL
	}
	target, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if target.Host == "" || (target.Scheme != "http" && target.Scheme != "https") {
		return nil, fmt.Errorf("%w: %q", ErrInvalidURL, rawURL)
	}
	return target, nil
}

func outcome(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "ok"
	}
}
