// Package publish writes reconciled events to the Notion events database.
package publish

import (
	"context"
	"time"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/marathon-cli/internal/model"
	"github.com/sells-group/marathon-cli/pkg/notion"
)

// Publisher creates or updates one database page per event.
type Publisher struct {
	client notion.Client
	dbID   string
	delay  time.Duration
}

// NewPublisher returns a Publisher that pauses delay between events.
func NewPublisher(client notion.Client, dbID string, delay time.Duration) *Publisher {
	return &Publisher{client: client, dbID: dbID, delay: delay}
}

// Sync publishes events one at a time. A failure on one event is recorded
// in its result and does not stop the rest.
func (p *Publisher) Sync(ctx context.Context, events []model.Event) []model.SyncResult {
	results := make([]model.SyncResult, 0, len(events))
	for i, ev := range events {
		if i > 0 && p.delay > 0 {
			select {
			case <-ctx.Done():
				return append(results, cancelled(events[i:])...)
			case <-time.After(p.delay):
			}
		}
		res := p.syncOne(ctx, ev)
		zap.L().Info("publish: event synced",
			zap.String("name", res.Name),
			zap.String("status", string(res.Status)),
			zap.String("message", res.Message),
		)
		results = append(results, res)
	}
	return results
}

func cancelled(events []model.Event) []model.SyncResult {
	out := make([]model.SyncResult, 0, len(events))
	for _, ev := range events {
		out = append(out, model.SyncResult{Status: model.SyncStatusError, Name: ev.Name, Message: "cancelled"})
	}
	return out
}

func (p *Publisher) syncOne(ctx context.Context, ev model.Event) model.SyncResult {
	if ev.Name == "" {
		return model.SyncResult{Status: model.SyncStatusSkipped, Name: "Unknown", Message: "No event name"}
	}

	existing, err := notion.FindByTitle(ctx, p.client, p.dbID, PropTitle, ev.Name)
	if err != nil {
		zap.L().Warn("publish: lookup failed, creating a new page", zap.String("name", ev.Name), zap.Error(err))
	}
	if existing != nil {
		if v, ok := notion.SelectName(existing.Properties, PropAIManaged); ok && v != selectYes {
			return model.SyncResult{Status: model.SyncStatusSkipped, Name: ev.Name, Message: "AI update locked"}
		}
	}

	props := Properties(ev)
	if existing != nil {
		_, err := p.client.UpdatePage(ctx, string(existing.ID), &notionapi.PageUpdateRequest{Properties: props})
		if err != nil {
			return errorResult(ev, eris.Wrap(err, "publish: update"))
		}
		return model.SyncResult{Status: model.SyncStatusUpdated, Name: ev.Name, Message: "Updated existing page", Details: ev.ChangeLog}
	}

	_, err = p.client.CreatePage(ctx, &notionapi.PageCreateRequest{
		Parent: notionapi.Parent{
			Type:       notionapi.ParentTypeDatabaseID,
			DatabaseID: notionapi.DatabaseID(p.dbID),
		},
		Properties: props,
	})
	if err != nil {
		return errorResult(ev, eris.Wrap(err, "publish: create"))
	}
	return model.SyncResult{Status: model.SyncStatusCreated, Name: ev.Name, Message: "Created new page", Details: ev.ChangeLog}
}

func errorResult(ev model.Event, err error) model.SyncResult {
	return model.SyncResult{Status: model.SyncStatusError, Name: ev.Name, Message: err.Error()}
}
