package source

import (
	"context"
	"net/http"
	"net/url"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/rotisserie/eris"
	"github.com/temoto/robotstxt"
	"go.uber.org/zap"
)

// RobotsChecker answers whether a URL may be fetched, caching each host's
// robots.txt for a TTL.
type RobotsChecker struct {
	cache     *gocache.Cache
	http      *http.Client
	userAgent string
}

// NewRobotsChecker returns a checker that keeps robots.txt for ttl.
func NewRobotsChecker(userAgent string, ttl time.Duration, hc *http.Client) *RobotsChecker {
	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Second}
	}
	return &RobotsChecker{
		cache:     gocache.New(ttl, 2*ttl),
		http:      hc,
		userAgent: userAgent,
	}
}

// Allowed reports whether rawURL may be fetched. If robots.txt cannot be
// retrieved the URL is allowed.
func (r *RobotsChecker) Allowed(ctx context.Context, rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return true
	}
	data, err := r.robots(ctx, u)
	if err != nil {
		zap.L().Debug("robots: fetch failed, allowing", zap.String("host", u.Host), zap.Error(err))
		return true
	}
	path := u.EscapedPath()
	if u.RawQuery != "" {
		path += "?" + u.RawQuery
	}
	if path == "" {
		path = "/"
	}
	return data.TestAgent(path, r.userAgent)
}

func (r *RobotsChecker) robots(ctx context.Context, u *url.URL) (*robotstxt.RobotsData, error) {
	host := u.Scheme + "://" + u.Host
	if cached, ok := r.cache.Get(host); ok {
		return cached.(*robotstxt.RobotsData), nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, host+"/robots.txt", nil)
	if err != nil {
		return nil, eris.Wrap(err, "robots: create request")
	}
	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "robots: fetch")
	}
	defer resp.Body.Close() //nolint:errcheck
	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, eris.Errorf("robots: status %d", resp.StatusCode)
	}

	data, err := robotstxt.FromResponse(resp)
	if err != nil {
		return nil, eris.Wrap(err, "robots: parse")
	}
	r.cache.SetDefault(host, data)
	return data, nil
}
