// Package pipeline runs one end-to-end sync: scrape both sources,
// reconcile, diff against the snapshot, enrich, narrate, publish and report.
package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/marathon-cli/internal/metrics"
	"github.com/sells-group/marathon-cli/internal/model"
	"github.com/sells-group/marathon-cli/internal/narrative"
	"github.com/sells-group/marathon-cli/internal/reconcile"
	"github.com/sells-group/marathon-cli/internal/report"
	"github.com/sells-group/marathon-cli/internal/snapshot"
	"github.com/sells-group/marathon-cli/internal/source"
)

// ErrNoSourceEvents is returned when neither source produced a listing.
var ErrNoSourceEvents = eris.New("pipeline: no events from any source")

// Publisher writes events to the record store.
type Publisher interface {
	Sync(ctx context.Context, events []model.Event) []model.SyncResult
}

// Options tunes a run.
type Options struct {
	Threshold   float64
	FirstRunCap int
	DetailLimit int
	OutputDir   string
	LogDir      string
	MetricsPath string
	DryRun      bool
}

// Deps are the collaborators of a run. Secondary, Details and Publisher
// may be nil.
type Deps struct {
	Primary   source.Source
	Secondary source.Source
	Details   source.DetailFetcher
	Store     *snapshot.Store
	Narrative narrative.Generator
	Publisher Publisher
}

// Pipeline orchestrates one sync run.
type Pipeline struct {
	deps Deps
	opts Options
	now  func() time.Time
}

// New creates a Pipeline.
func New(deps Deps, opts Options) *Pipeline {
	if deps.Narrative == nil {
		deps.Narrative = narrative.Template{}
	}
	return &Pipeline{deps: deps, opts: opts, now: time.Now}
}

// Result describes what a run did.
type Result struct {
	RunID          string
	PrimaryCount   int
	SecondaryCount int
	Summary        reconcile.Summary
	FirstRun       bool
	New            []model.Event
	Updated        []model.Event
	Targets        []model.Event
	Script         string
	ScriptPath     string
	SyncResults    []model.SyncResult
	ReportPath     string
}

// Run executes the sync. Only the loss of both sources, or a failure to
// persist the snapshot, is returned as an error; everything else degrades.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	log := zap.L().With(zap.String("component", "pipeline"))
	log.Info("pipeline: starting marathon sync")

	run := metrics.NewRun()
	result := &Result{}

	// 1. Scrape both sources concurrently.
	var primary, secondary []model.RawEvent
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		primary = p.fetch(gctx, p.deps.Primary)
		return nil
	})
	g.Go(func() error {
		secondary = p.fetch(gctx, p.deps.Secondary)
		return nil
	})
	_ = g.Wait()

	result.PrimaryCount, result.SecondaryCount = len(primary), len(secondary)
	run.ObserveSource(model.PrimarySourceName, len(primary))
	run.ObserveSource(model.SecondarySourceName, len(secondary))
	log.Info("pipeline: sources fetched",
		zap.Int("primary", len(primary)),
		zap.Int("secondary", len(secondary)),
	)

	if len(primary) == 0 && len(secondary) == 0 {
		p.finish(result, run, report.OutcomeNoSourceEvents)
		return result, ErrNoSourceEvents
	}

	// 2. Reconcile.
	events := reconcile.New(p.opts.Threshold).Reconcile(primary, secondary)
	result.Summary = reconcile.Summarize(events)
	run.ObserveSummary(result.Summary)
	log.Info("pipeline: cross-validation complete",
		zap.Int("total", result.Summary.Total),
		zap.Int("cross_validated", result.Summary.CrossValidated),
		zap.Float64("validation_rate", result.Summary.ValidationRate),
		zap.Int("high_confidence", result.Summary.HighConfidence),
	)

	// 3. Diff against the snapshot.
	result.FirstRun = p.deps.Store.Empty(ctx)
	diff, err := p.deps.Store.DiffAndPersist(ctx, events)
	if err != nil {
		p.finish(result, run, report.OutcomeFailed)
		return result, eris.Wrap(err, "pipeline: persist snapshot")
	}
	result.New, result.Updated = diff.New, diff.Updated
	if result.FirstRun {
		result.Updated = nil
		if len(result.New) > p.opts.FirstRunCap {
			log.Info("pipeline: first run, marking events as read",
				zap.Int("new", len(result.New)),
				zap.Int("cap", p.opts.FirstRunCap),
			)
			result.New = nil
		}
	}
	run.ObserveDiff(len(result.New), len(result.Updated))

	if len(result.New) == 0 && len(result.Updated) == 0 {
		log.Info("pipeline: no new events relative to stored data")
		p.finish(result, run, report.OutcomeNoNewEvents)
		return result, nil
	}
	log.Info("pipeline: changes detected",
		zap.Int("new", len(result.New)),
		zap.Int("updated", len(result.Updated)),
	)

	// 4. Enrich targets from detail pages.
	result.Targets = p.enrich(ctx, p.targets(result.New, result.Updated))

	// 5. Narrate.
	result.Script, result.ScriptPath = p.narrate(ctx, result.Targets)

	// 6. Publish.
	result.SyncResults = p.publish(ctx, result.Targets)
	run.ObserveResults(result.SyncResults)

	// 7. Persist enrichment.
	mergeErr := p.deps.Store.Merge(ctx, result.Targets)

	p.finish(result, run, report.OutcomeSynced)
	if mergeErr != nil {
		return result, eris.Wrap(mergeErr, "pipeline: persist enriched events")
	}
	return result, nil
}

func (p *Pipeline) fetch(ctx context.Context, src source.Source) []model.RawEvent {
	if src == nil {
		return nil
	}
	events, err := src.Fetch(ctx)
	if err != nil {
		zap.L().Warn("pipeline: source unavailable, continuing without it",
			zap.String("source", src.Name()),
			zap.Error(err),
		)
		return nil
	}
	return events
}

// targets returns new events then updated ones, capped at DetailLimit.
func (p *Pipeline) targets(newEvents, updated []model.Event) []model.Event {
	all := make([]model.Event, 0, len(newEvents)+len(updated))
	all = append(all, newEvents...)
	all = append(all, updated...)
	if p.opts.DetailLimit >= 0 && len(all) > p.opts.DetailLimit {
		all = all[:p.opts.DetailLimit]
	}
	return all
}

// enrich overlays detail-page fields on every target that has a link.
// Pacing between requests is the detail fetcher's concern.
func (p *Pipeline) enrich(ctx context.Context, targets []model.Event) []model.Event {
	for i := range targets {
		ev := &targets[i]
		if p.deps.Details == nil || ev.Link == "" || ctx.Err() != nil {
			continue
		}
		zap.L().Info("pipeline: fetching details",
			zap.String("status", string(ev.DataStatus)),
			zap.String("name", ev.Name),
		)
		details, err := p.deps.Details.FetchDetails(ctx, ev.Link)
		if err != nil {
			zap.L().Warn("pipeline: detail fetch failed", zap.String("link", ev.Link), zap.Error(err))
			continue
		}
		ev.ApplyDetails(details)
	}
	return targets
}

func (p *Pipeline) narrate(ctx context.Context, targets []model.Event) (string, string) {
	script, err := p.deps.Narrative.Generate(ctx, targets)
	if err != nil {
		zap.L().Warn("pipeline: narrative failed, using template", zap.Error(err))
		script, _ = narrative.Template{}.Generate(ctx, targets)
	}

	path := filepath.Join(p.opts.OutputDir, "script_"+p.now().Format("2006-01-02")+".txt")
	if err := os.MkdirAll(p.opts.OutputDir, 0o755); err != nil {
		zap.L().Warn("pipeline: create output dir", zap.Error(err))
		return script, ""
	}
	if err := os.WriteFile(path, []byte(script), 0o644); err != nil {
		zap.L().Warn("pipeline: write script", zap.String("path", path), zap.Error(err))
		return script, ""
	}
	zap.L().Info("pipeline: script generated", zap.String("path", path))
	return script, path
}

func (p *Pipeline) publish(ctx context.Context, targets []model.Event) []model.SyncResult {
	switch {
	case p.opts.DryRun:
		return []model.SyncResult{{Status: model.SyncStatusSkipped, Name: "ALL", Message: "Dry run"}}
	case p.deps.Publisher == nil:
		zap.L().Info("pipeline: notion credentials not found, skipping sync")
		return []model.SyncResult{{Status: model.SyncStatusSkipped, Name: "ALL", Message: "Notion credentials missing"}}
	}
	return p.deps.Publisher.Sync(ctx, targets)
}

// finish appends the execution report and writes the metrics textfile.
func (p *Pipeline) finish(result *Result, run *metrics.Run, outcome report.Outcome) {
	rep := report.New(p.now(), outcome, result.SyncResults)
	result.RunID = rep.RunID

	path, err := report.Append(p.opts.LogDir, rep)
	if err != nil {
		zap.L().Warn("pipeline: write execution report", zap.Error(err))
	}
	result.ReportPath = path

	run.Finish()
	if p.opts.MetricsPath != "" {
		if err := run.WriteTextfile(p.opts.MetricsPath); err != nil {
			zap.L().Warn("pipeline: write metrics", zap.Error(err))
		}
	}
}
