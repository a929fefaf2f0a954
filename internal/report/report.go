// Package report appends a human-readable execution report for each run
// to a per-day log file.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/marathon-cli/internal/model"
)

// Outcome describes how far a run got.
type Outcome int

const (
	// OutcomeSynced means targets were found and handed to publishing.
	OutcomeSynced Outcome = iota
	// OutcomeNoNewEvents means nothing differed from the snapshot.
	OutcomeNoNewEvents
	// OutcomeNoSourceEvents means both sources came back empty.
	OutcomeNoSourceEvents
	// OutcomeFailed means the run stopped on an error before publishing.
	OutcomeFailed
)

// Counts summarizes publish results.
type Counts struct {
	Synced  int
	Errors  int
	Skipped int
}

func (c Counts) String() string {
	return fmt.Sprintf("Synced: %d, Errors: %d, Skipped: %d", c.Synced, c.Errors, c.Skipped)
}

// Tally counts created and updated results as synced.
func Tally(results []model.SyncResult) Counts {
	var c Counts
	for _, r := range results {
		switch {
		case r.Synced():
			c.Synced++
		case r.Status == model.SyncStatusError:
			c.Errors++
		case r.Status == model.SyncStatusSkipped:
			c.Skipped++
		}
	}
	return c
}

// ExecutionReport is one run's entry in the daily log.
type ExecutionReport struct {
	RunID   string
	At      time.Time
	Outcome Outcome
	Results []model.SyncResult
}

// New returns a report stamped with a fresh run id.
func New(at time.Time, outcome Outcome, results []model.SyncResult) ExecutionReport {
	return ExecutionReport{
		RunID:   uuid.New().String(),
		At:      at,
		Outcome: outcome,
		Results: results,
	}
}

// Counts tallies the report's results.
func (r ExecutionReport) Counts() Counts {
	return Tally(r.Results)
}

const (
	rule     = "=============================="
	thinRule = "------------------------------"
)

// Render formats the report block.
func (r ExecutionReport) Render() string {
	var b strings.Builder
	fmt.Fprintf(&b, "\n[%s] Execution Report (run %s)\n", r.At.Format("2006-01-02 15:04:05"), r.RunID)
	b.WriteString(rule + "\n")
	fmt.Fprintf(&b, "Summary: %s\n", r.Counts())

	switch r.Outcome {
	case OutcomeNoSourceEvents:
		b.WriteString("Status: No events found from any source (Scraping failed or empty).\n")
	case OutcomeNoNewEvents:
		b.WriteString("Status: No new events found to sync.\n")
	case OutcomeFailed:
		b.WriteString("Status: Run failed before publishing (snapshot could not be saved).\n")
	}
	b.WriteString(thinRule + "\n")

	for _, res := range r.Results {
		fmt.Fprintf(&b, "[%s] %s: %s\n", strings.ToUpper(string(res.Status)), res.Name, res.Message)
		if res.Details != "" {
			fmt.Fprintf(&b, "    -> Changes: %s\n", res.Details)
		}
	}
	b.WriteString(rule + "\n")
	return b.String()
}

// FileName is the daily log name for t.
func FileName(t time.Time) string {
	return "daily_log_" + t.Format("2006-01-02") + ".txt"
}

// Append writes the report to dir/daily_log_YYYY-MM-DD.txt and returns
// the file path.
func Append(dir string, r ExecutionReport) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", eris.Wrapf(err, "report: mkdir %s", dir)
	}
	path := filepath.Join(dir, FileName(r.At))

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return "", eris.Wrapf(err, "report: open %s", path)
	}
	if _, err := f.WriteString(r.Render()); err != nil {
		f.Close() //nolint:errcheck
		return "", eris.Wrapf(err, "report: write %s", path)
	}
	if err := f.Close(); err != nil {
		return "", eris.Wrapf(err, "report: close %s", path)
	}

	zap.L().Info("report: execution report saved",
		zap.String("path", path),
		zap.String("run_id", r.RunID),
		zap.String("summary", r.Counts().String()),
	)
	return path, nil
}
