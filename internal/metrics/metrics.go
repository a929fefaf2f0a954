// Package metrics records per-run counters and writes them in the
// Prometheus textfile format for node_exporter to pick up.
package metrics

import (
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rotisserie/eris"

	"github.com/sells-group/marathon-cli/internal/model"
	"github.com/sells-group/marathon-cli/internal/reconcile"
)

const namespace = "marathon"

// Run holds the gauges and counters of one sync run on a private registry.
type Run struct {
	registry *prometheus.Registry

	sourceEvents   *prometheus.GaugeVec
	reconciled     prometheus.Gauge
	crossValidated prometheus.Gauge
	newEvents      prometheus.Gauge
	updatedEvents  prometheus.Gauge
	syncResults    *prometheus.CounterVec
	lastRun        prometheus.Gauge
}

// NewRun registers a fresh set of metrics.
func NewRun() *Run {
	r := &Run{registry: prometheus.NewRegistry()}
	r.sourceEvents = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "source_events",
		Help:      "Listings scraped per source in the last run",
	}, []string{"source"})
	r.reconciled = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "reconciled_events",
		Help:      "Events produced by reconciliation in the last run",
	})
	r.crossValidated = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "cross_validated_events",
		Help:      "Reconciled events confirmed by both sources",
	})
	r.newEvents = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "new_events",
		Help:      "Events not present in the snapshot before the run",
	})
	r.updatedEvents = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "updated_events",
		Help:      "Known events whose monitored fields changed",
	})
	r.syncResults = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sync_results_total",
		Help:      "Publish outcomes by status",
	}, []string{"status"})
	r.lastRun = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "last_run_timestamp_seconds",
		Help:      "Unix timestamp of the last completed run",
	})

	r.registry.MustRegister(
		r.sourceEvents, r.reconciled, r.crossValidated,
		r.newEvents, r.updatedEvents, r.syncResults, r.lastRun,
	)
	return r
}

// ObserveSource records how many listings a source returned.
func (r *Run) ObserveSource(name string, n int) {
	r.sourceEvents.WithLabelValues(name).Set(float64(n))
}

// ObserveSummary records reconciliation totals.
func (r *Run) ObserveSummary(s reconcile.Summary) {
	r.reconciled.Set(float64(s.Total))
	r.crossValidated.Set(float64(s.CrossValidated))
}

// ObserveDiff records the snapshot classification.
func (r *Run) ObserveDiff(newCount, updatedCount int) {
	r.newEvents.Set(float64(newCount))
	r.updatedEvents.Set(float64(updatedCount))
}

// ObserveResults counts publish outcomes.
func (r *Run) ObserveResults(results []model.SyncResult) {
	for _, res := range results {
		r.syncResults.WithLabelValues(string(res.Status)).Inc()
	}
}

// Finish stamps the completion time.
func (r *Run) Finish() {
	r.lastRun.SetToCurrentTime()
}

// Registry exposes the underlying registry.
func (r *Run) Registry() *prometheus.Registry {
	return r.registry
}

// WriteTextfile writes all metrics to path, creating its directory.
func (r *Run) WriteTextfile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return eris.Wrap(err, "metrics: mkdir")
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return eris.Wrapf(err, "metrics: write %s", path)
	}
	return nil
}
