package source

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRobotsChecker_DisallowAndCache(t *testing.T) {
	var robotsHits atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, _ *http.Request) {
		robotsHits.Add(1)
		w.Write([]byte("User-agent: *\nDisallow: /private/\n")) //nolint:errcheck
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	rc := NewRobotsChecker(DefaultUserAgent, time.Minute, srv.Client())
	ctx := context.Background()

	assert.True(t, rc.Allowed(ctx, srv.URL+"/schedule/list.php"))
	assert.False(t, rc.Allowed(ctx, srv.URL+"/private/page"))
	assert.True(t, rc.Allowed(ctx, srv.URL))
	assert.Equal(t, int32(1), robotsHits.Load())
}

func TestRobotsChecker_MissingRobotsAllows(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	rc := NewRobotsChecker(DefaultUserAgent, time.Minute, nil)
	assert.True(t, rc.Allowed(context.Background(), srv.URL+"/anything"))
}

func TestRobotsChecker_ServerErrorAllows(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	rc := NewRobotsChecker(DefaultUserAgent, time.Minute, nil)
	assert.True(t, rc.Allowed(context.Background(), srv.URL+"/anything"))
}

func TestRobotsChecker_UnparseableURLAllows(t *testing.T) {
	rc := NewRobotsChecker(DefaultUserAgent, time.Minute, nil)
	assert.True(t, rc.Allowed(context.Background(), "::not a url"))
}

func TestFetcher_RobotsBlocksRequest(t *testing.T) {
	var pageHits atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("User-agent: *\nDisallow: /\n")) //nolint:errcheck
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		pageHits.Add(1)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	rr := NewRoadrun(srv.URL+"/schedule/list.php", 0, WithRobots(NewRobotsChecker(DefaultUserAgent, time.Minute, nil)))
	_, err := rr.Fetch(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDisallowed))
	assert.Equal(t, int32(0), pageHits.Load())
}
