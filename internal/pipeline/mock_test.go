package pipeline

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/marathon-cli/internal/model"
)

// --- Source Mock ---

type mockSource struct {
	mock.Mock
	name string
}

func (m *mockSource) Name() string { return m.name }

func (m *mockSource) Fetch(ctx context.Context) ([]model.RawEvent, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.RawEvent), args.Error(1)
}

// --- Detail Fetcher Mock ---

type mockDetails struct {
	mock.Mock
}

func (m *mockDetails) FetchDetails(ctx context.Context, link string) (model.Details, error) {
	args := m.Called(ctx, link)
	return args.Get(0).(model.Details), args.Error(1)
}

// --- Publisher Mock ---

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Sync(ctx context.Context, events []model.Event) []model.SyncResult {
	args := m.Called(ctx, events)
	return args.Get(0).([]model.SyncResult)
}

// --- Narrative Mock ---

type mockNarrative struct {
	mock.Mock
}

func (m *mockNarrative) Generate(ctx context.Context, events []model.Event) (string, error) {
	args := m.Called(ctx, events)
	return args.String(0), args.Error(1)
}
