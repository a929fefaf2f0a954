package notion

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jomei/notionapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockClient implements Client for testing.
type MockClient struct {
	mock.Mock
}

func (m *MockClient) QueryDatabase(ctx context.Context, dbID string, req *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error) {
	args := m.Called(ctx, dbID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*notionapi.DatabaseQueryResponse), args.Error(1)
}

func (m *MockClient) CreatePage(ctx context.Context, req *notionapi.PageCreateRequest) (*notionapi.Page, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*notionapi.Page), args.Error(1)
}

func (m *MockClient) UpdatePage(ctx context.Context, pageID string, req *notionapi.PageUpdateRequest) (*notionapi.Page, error) {
	args := m.Called(ctx, pageID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*notionapi.Page), args.Error(1)
}

func TestMockClientSatisfiesInterface(t *testing.T) {
	t.Parallel()
	var _ Client = (*MockClient)(nil)
}

func TestNewClient_Options(t *testing.T) {
	c := NewClient("test-token", WithMinInterval(350*time.Millisecond)).(*notionClient)
	require.NotNil(t, c.limiter)
	assert.InDelta(t, 1/0.35, float64(c.limiter.Limit()), 1e-6)
	assert.NotNil(t, c.retry.ShouldRetry)
	assert.NotNil(t, c.retry.OnRetry)

	c = NewClient("test-token", WithRateLimit(0)).(*notionClient)
	assert.Nil(t, c.limiter)
}

func TestRetryable(t *testing.T) {
	assert.True(t, retryable(&notionapi.Error{Status: 429, Code: "rate_limited"}))
	assert.True(t, retryable(&notionapi.Error{Status: 502}))
	assert.False(t, retryable(&notionapi.Error{Status: 400, Code: "validation_error"}))
	assert.False(t, retryable(&notionapi.Error{Status: 404}))
	assert.False(t, retryable(errors.New("bad input")))
}

func TestCall_RetriesTransient(t *testing.T) {
	c := NewClient("t", WithRateLimit(0)).(*notionClient)
	c.retry.InitialBackoff = time.Millisecond
	c.retry.MaxBackoff = time.Millisecond

	calls := 0
	got, err := call(context.Background(), c, func(context.Context) (string, error) {
		calls++
		if calls == 1 {
			return "", &notionapi.Error{Status: 429}
		}
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, 2, calls)
}

func TestCall_StopsOnValidationError(t *testing.T) {
	c := NewClient("t", WithRateLimit(0)).(*notionClient)

	calls := 0
	_, err := call(context.Background(), c, func(context.Context) (string, error) {
		calls++
		return "", &notionapi.Error{Status: 400}
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestCall_RateLimitHonorsContext(t *testing.T) {
	c := NewClient("t", WithMinInterval(time.Hour)).(*notionClient)
	ctx, cancel := context.WithCancel(context.Background())

	_, err := call(ctx, c, func(context.Context) (int, error) { return 1, nil })
	require.NoError(t, err)

	cancel()
	_, err = call(ctx, c, func(context.Context) (int, error) { return 1, nil })
	require.Error(t, err)
}
