// Package snapshot persists every event ever seen, keyed by date and name,
// and diffs fresh batches against that history.
package snapshot

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/marathon-cli/internal/model"
)

// Backend loads and saves the whole snapshot mapping. Save must be
// all-or-nothing: readers see either the previous mapping or the new one.
type Backend interface {
	Load(ctx context.Context) (map[string]model.Event, error)
	Save(ctx context.Context, events map[string]model.Event) error
	Close() error
}

// Diff is the outcome of comparing a batch with the snapshot.
type Diff struct {
	New     []model.Event
	Updated []model.Event
}

// Empty reports whether the batch produced nothing to act on.
func (d Diff) Empty() bool {
	return len(d.New) == 0 && len(d.Updated) == 0
}

// Store applies diff and merge rules on top of a Backend.
type Store struct {
	backend Backend
}

// New wraps a Backend.
func New(b Backend) *Store {
	return &Store{backend: b}
}

// Close releases the backend.
func (s *Store) Close() error {
	return s.backend.Close()
}

// load reads the snapshot, treating an unreadable or corrupt store as empty.
func (s *Store) load(ctx context.Context) map[string]model.Event {
	events, err := s.backend.Load(ctx)
	if err != nil {
		zap.L().Warn("snapshot: load failed, treating history as empty", zap.Error(err))
		return map[string]model.Event{}
	}
	if events == nil {
		return map[string]model.Event{}
	}
	return events
}

// Empty reports whether the snapshot holds no events yet.
func (s *Store) Empty(ctx context.Context) bool {
	return len(s.load(ctx)) == 0
}

// All returns every stored event sorted by key.
func (s *Store) All(ctx context.Context) ([]model.Event, error) {
	events, err := s.backend.Load(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "snapshot: load")
	}
	keys := make([]string, 0, len(events))
	for k := range events {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]model.Event, 0, len(keys))
	for _, k := range keys {
		out = append(out, events[k])
	}
	return out, nil
}

// Get returns the stored event for key.
func (s *Store) Get(ctx context.Context, key string) (model.Event, bool, error) {
	events, err := s.backend.Load(ctx)
	if err != nil {
		return model.Event{}, false, eris.Wrap(err, "snapshot: load")
	}
	ev, ok := events[key]
	return ev, ok, nil
}

// DiffAndPersist classifies each event of batch as new or updated against
// the snapshot as it was before the batch, merges every event into the
// snapshot and saves it once. Events are tagged with DataStatus and, for
// updates, a ChangeLog. Unchanged events are not returned.
//
// Only monitored fields that are non-empty in the incoming event are
// compared; a field missing from the batch is never reported as a change.
func (s *Store) DiffAndPersist(ctx context.Context, batch []model.Event) (Diff, error) {
	stored := s.load(ctx)
	before := make(map[string]model.Event, len(stored))
	for k, v := range stored {
		before[k] = v
	}

	var diff Diff
	for _, ev := range batch {
		key := ev.Key()
		prev, ok := before[key]
		switch {
		case !ok:
			ev.DataStatus = model.DataStatusNew
			diff.New = append(diff.New, ev)
		default:
			if changes := changedFields(prev, ev); len(changes) > 0 {
				ev.DataStatus = model.DataStatusUpdated
				ev.ChangeLog = strings.Join(changes, ", ")
				diff.Updated = append(diff.Updated, ev)
			}
		}
		mergeInto(stored, ev)
	}

	if err := s.backend.Save(ctx, stored); err != nil {
		return diff, eris.Wrap(err, "snapshot: save")
	}

	zap.L().Info("snapshot: batch persisted",
		zap.Int("incoming", len(batch)),
		zap.Int("new", len(diff.New)),
		zap.Int("updated", len(diff.Updated)),
		zap.Int("stored", len(stored)),
	)
	return diff, nil
}

// Merge shallow-merges events into the snapshot and saves it, without
// classifying them. Used to persist detail-page enrichment.
func (s *Store) Merge(ctx context.Context, events []model.Event) error {
	if len(events) == 0 {
		return nil
	}
	stored := s.load(ctx)
	for _, ev := range events {
		mergeInto(stored, ev)
	}
	if err := s.backend.Save(ctx, stored); err != nil {
		return eris.Wrap(err, "snapshot: save")
	}
	return nil
}

func mergeInto(stored map[string]model.Event, ev model.Event) {
	key := ev.Key()
	cur, ok := stored[key]
	if !ok {
		stored[key] = ev
		return
	}
	cur.MergeFrom(ev)
	stored[key] = cur
}

// changedFields lists "field: old -> new" for every monitored field whose
// trimmed incoming value is non-empty and differs from the stored one.
func changedFields(stored, incoming model.Event) []string {
	var changes []string
	for _, f := range model.MonitoredFields {
		in := strings.TrimSpace(incoming.Field(f))
		if in == "" {
			continue
		}
		old := strings.TrimSpace(stored.Field(f))
		if in == old {
			continue
		}
		if old == "" {
			old = "(none)"
		}
		changes = append(changes, fmt.Sprintf("%s: %s -> %s", f, old, in))
	}
	return changes
}
