package profile

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/vnbizdata/collector-cli/internal/model"
)

const (
	defaultBaseURL   = "https://hsctvn.com"
	defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
	defaultTimeout   = 30 * time.Second
	defaultInterval  = 2 * time.Second
)

// LookupFailedError indicates the profile site could not be reached or
// answered abnormally. Distinct from a clean "not found", which is a
// normal outcome of the correlation join.
type LookupFailedError struct {
	TaxID string
	Err   error
}

func (e *LookupFailedError) Error() string {
	return fmt.Sprintf("profile: lookup failed for %s: %v", e.TaxID, e.Err)
}

func (e *LookupFailedError) Unwrap() error {
	return e.Err
}

// IsLookupFailed reports whether err wraps a LookupFailedError.
func IsLookupFailed(err error) bool {
	var target *LookupFailedError
	return errors.As(err, &target)
}

// Client fetches supplementary company data from the profile site.
// Lookup returns (nil, nil) when the site has no record for the tax id.
type Client interface {
	Lookup(ctx context.Context, taxID string) (*model.SupplementaryRecord, error)
}

type httpClient struct {
	baseURL   string
	userAgent string
	client    *http.Client
	pacer     *pacer
	markers   Markers
}

// Option configures the profile client.
type Option func(*httpClient)

// WithBaseURL overrides the profile site base URL.
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = strings.TrimRight(u, "/")
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

// WithMinInterval overrides the minimum spacing between site calls.
func WithMinInterval(d time.Duration) Option {
	return func(c *httpClient) {
		c.pacer = newPacer(d)
	}
}

// WithMarkers overrides the extraction marker table.
func WithMarkers(m Markers) Option {
	return func(c *httpClient) {
		c.markers = m
	}
}

// NewClient builds a profile site client. All lookups through one
// client share a single pacer, so concurrent callers are spaced out
// globally.
func NewClient(opts ...Option) Client {
	c := &httpClient{
		baseURL:   defaultBaseURL,
		userAgent: defaultUserAgent,
		client:    &http.Client{Timeout: defaultTimeout},
		pacer:     newPacer(defaultInterval),
		markers:   DefaultMarkers(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Lookup searches the profile site for taxID, follows the best company
// link from the results, and extracts the marked fields from the
// profile page. Partial extraction is a valid result.
func (c *httpClient) Lookup(ctx context.Context, taxID string) (*model.SupplementaryRecord, error) {
	searchURL := c.baseURL + "/?" + url.Values{"key": {taxID}}.Encode()
	searchHTML, err := c.get(ctx, searchURL)
	if err != nil {
		return nil, &LookupFailedError{TaxID: taxID, Err: err}
	}

	link := pickCompanyLink(searchHTML, taxID)
	if link == "" {
		zap.L().Debug("profile: no company link in search results",
			zap.String("tax_id", taxID))
		return nil, nil
	}

	profileHTML, err := c.get(ctx, c.resolveURL(link))
	if err != nil {
		return nil, &LookupFailedError{TaxID: taxID, Err: err}
	}

	text := stripHTML(profileHTML)
	rec := extractFields(text, c.markers, taxID)
	if rec.Representative == "" && rec.Phone == "" && rec.Address == "" &&
		rec.Email == "" && rec.Status == "" {
		return nil, nil
	}
	return &rec, nil
}

func (c *httpClient) get(ctx context.Context, endpoint string) (string, error) {
	done, err := c.pacer.wait(ctx)
	if err != nil {
		return "", err
	}
	defer done()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", eris.Wrap(err, "profile: build request")
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", eris.Wrap(err, "profile: request")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", eris.Errorf("profile: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", eris.Wrap(err, "profile: read body")
	}
	return string(body), nil
}

func (c *httpClient) resolveURL(href string) string {
	switch {
	case strings.HasPrefix(href, "http://"), strings.HasPrefix(href, "https://"):
		return href
	case strings.HasPrefix(href, "/"):
		return c.baseURL + href
	default:
		return c.baseURL + "/" + href
	}
}

var hrefRe = regexp.MustCompile(`(?i)<a[^>]+href=["']([^"']+)["']`)

// pickCompanyLink chooses the most promising anchor from a search
// results page. Anchors mentioning the tax id win outright; otherwise
// the first company-detail link is used. Listing pages ("danh-sach")
// are never company pages.
func pickCompanyLink(html, taxID string) string {
	matches := hrefRe.FindAllStringSubmatch(html, -1)
	fallback := ""
	for _, m := range matches {
		href := m[1]
		if strings.Contains(href, "danh-sach") {
			continue
		}
		if !strings.Contains(href, "cong-ty") && !strings.Contains(href, taxID) {
			continue
		}
		if strings.Contains(href, taxID) {
			return href
		}
		if fallback == "" {
			fallback = href
		}
	}
	return fallback
}
