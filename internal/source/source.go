// Package source scrapes marathon listings from the primary (roadrun) and
// secondary (runninglife) sites.
package source

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/marathon-cli/internal/model"
	"github.com/sells-group/marathon-cli/internal/resilience"
)

// DefaultUserAgent is sent with every scrape request.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

// ErrDisallowed is returned when robots.txt forbids a URL.
var ErrDisallowed = eris.New("source: disallowed by robots.txt")

// Source produces the current listing of one site.
type Source interface {
	Name() string
	Fetch(ctx context.Context) ([]model.RawEvent, error)
}

// DetailFetcher reads an event's detail page.
type DetailFetcher interface {
	FetchDetails(ctx context.Context, link string) (model.Details, error)
}

// Option configures a scraper.
type Option func(*fetcher)

// WithHTTPClient sets the HTTP client used for page requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(f *fetcher) { f.http = hc }
}

// WithUserAgent overrides DefaultUserAgent.
func WithUserAgent(ua string) Option {
	return func(f *fetcher) { f.userAgent = ua }
}

// WithRetry sets the retry policy for page requests.
func WithRetry(cfg resilience.RetryConfig) Option {
	return func(f *fetcher) { f.retry = cfg }
}

// WithRobots enables robots.txt checks before each request.
func WithRobots(rc *RobotsChecker) Option {
	return func(f *fetcher) { f.robots = rc }
}

// fetcher holds the HTTP plumbing shared by the scrapers.
type fetcher struct {
	http      *http.Client
	userAgent string
	retry     resilience.RetryConfig
	robots    *RobotsChecker
}

func newFetcher(opts []Option) fetcher {
	f := fetcher{
		http:      &http.Client{Timeout: 10 * time.Second},
		userAgent: DefaultUserAgent,
		retry:     resilience.DefaultRetryConfig(),
	}
	for _, opt := range opts {
		opt(&f)
	}
	return f
}

// get fetches rawURL and returns the body, retrying transient failures.
func (f *fetcher) get(ctx context.Context, source, rawURL string) ([]byte, error) {
	if f.robots != nil && !f.robots.Allowed(ctx, rawURL) {
		return nil, eris.Wrapf(ErrDisallowed, "%s: %s", source, rawURL)
	}

	retry := f.retry
	if retry.OnRetry == nil {
		retry.OnRetry = resilience.RetryLogger(source, "get")
	}
	return resilience.DoVal(ctx, retry, func(ctx context.Context) ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, eris.Wrapf(err, "%s: create request", source)
		}
		req.Header.Set("User-Agent", f.userAgent)

		resp, err := f.http.Do(req)
		if err != nil {
			return nil, eris.Wrapf(err, "%s: get %s", source, rawURL)
		}
		defer resp.Body.Close() //nolint:errcheck

		if err := resilience.CheckStatus(source+": get "+rawURL, resp.StatusCode); err != nil {
			return nil, err
		}
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, eris.Wrapf(err, "%s: read body", source)
		}
		return body, nil
	})
}
