package registry

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/vnbizdata/collector-cli/internal/resilience"
)

const (
	defaultBaseURL   = "https://thongtindoanhnghiep.co"
	defaultUserAgent = "collector-cli/1.0"
	defaultTimeout   = 30 * time.Second
	defaultPageSize  = 20
)

// Filters narrows a registry search by location and industry. Empty
// fields are omitted from the query.
type Filters struct {
	Location string
	Industry string
}

// Client fetches pages of company records from the registry API.
type Client interface {
	SearchPage(ctx context.Context, filters Filters, page int) (*Page, error)
}

type httpClient struct {
	baseURL   string
	userAgent string
	pageSize  int
	client    *http.Client
	limiter   *rate.Limiter
	retry     resilience.RetryConfig
}

// Option configures the registry client.
type Option func(*httpClient)

// WithBaseURL overrides the registry base URL.
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = u
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *httpClient) {
		c.userAgent = ua
	}
}

// WithTimeout overrides the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *httpClient) {
		c.client.Timeout = d
	}
}

// WithRateLimit caps requests per second against the registry.
func WithRateLimit(rps float64) Option {
	return func(c *httpClient) {
		c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

// WithPageSize overrides the number of records requested per page.
func WithPageSize(n int) Option {
	return func(c *httpClient) {
		c.pageSize = n
	}
}

// WithMaxRetries overrides the retry count for transient failures.
func WithMaxRetries(n int) Option {
	return func(c *httpClient) {
		c.retry.MaxAttempts = n
	}
}

// NewClient builds a registry API client.
func NewClient(opts ...Option) Client {
	c := &httpClient{
		baseURL:   defaultBaseURL,
		userAgent: defaultUserAgent,
		pageSize:  defaultPageSize,
		client:    &http.Client{Timeout: defaultTimeout},
		limiter:   rate.NewLimiter(rate.Limit(1), 1),
		retry:     resilience.DefaultRetryConfig(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SearchPage fetches one page of search results. Filter values are
// slugified before they hit the query string. Transient failures are
// retried with backoff; a malformed payload is returned as-is so the
// caller can decide whether to skip the page.
func (c *httpClient) SearchPage(ctx context.Context, filters Filters, page int) (*Page, error) {
	if page < 1 {
		return nil, eris.New("registry: page must be >= 1")
	}

	q := url.Values{}
	q.Set("p", fmt.Sprintf("%d", page))
	q.Set("r", fmt.Sprintf("%d", c.pageSize))
	if filters.Location != "" {
		q.Set("l", Slugify(filters.Location))
	}
	if filters.Industry != "" {
		q.Set("i", Slugify(filters.Industry))
	}
	endpoint := c.baseURL + "/api/company?" + q.Encode()

	cfg := c.retry
	cfg.OnRetry = func(attempt int, err error) {
		zap.L().Warn("registry request retry",
			zap.Int("attempt", attempt),
			zap.Int("page", page),
			zap.Error(err))
	}

	body, err := resilience.DoVal(ctx, cfg, func(ctx context.Context) ([]byte, error) {
		return c.get(ctx, endpoint)
	})
	if err != nil {
		return nil, err
	}

	return decodePage(body, page)
}

func (c *httpClient) get(ctx context.Context, endpoint string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "registry: rate limit wait")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, eris.Wrap(err, "registry: build request")
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, resilience.NewTransientError(&SourceUnavailableError{Err: err}, 0)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		srcErr := &SourceUnavailableError{StatusCode: resp.StatusCode}
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return nil, resilience.NewTransientError(srcErr, resp.StatusCode)
		}
		return nil, srcErr
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resilience.NewTransientError(eris.Wrap(err, "registry: read body"), 0)
	}

	return body, nil
}
