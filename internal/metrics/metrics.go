// Package metrics exposes Prometheus collectors for fleet runs.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Run statuses used as the status label.
const (
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
	StatusRejected  = "rejected"
)

var (
	RunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fleetfact_runs_total",
			Help: "Total number of pipeline runs by outcome",
		},
		[]string{"status"},
	)

	RunDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "fleetfact_run_duration_seconds",
			Help:    "Pipeline run duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
	)

	RowsIngested = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fleetfact_rows_ingested_total",
			Help: "Total raw rows read per source",
		},
		[]string{"source"},
	)

	RowsDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fleetfact_rows_dropped_total",
			Help: "Total fact rows dropped during cleaning per rule",
		},
		[]string{"rule"},
	)

	CleanRows = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "fleetfact_clean_rows",
			Help: "Rows in the cleaned fact table of the latest successful run",
		},
	)

	ActiveRuns = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "fleetfact_active_runs",
			Help: "Runs currently holding a slot",
		},
	)
)

func collectors() []prometheus.Collector {
	return []prometheus.Collector{RunsTotal, RunDuration, RowsIngested, RowsDropped, CleanRows, ActiveRuns}
}

// Register adds every collector to reg. Collectors already registered are
// left in place.
func Register(reg prometheus.Registerer) error {
	for _, c := range collectors() {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			return err
		}
	}
	return nil
}

// Init registers the collectors with the default registry.
func Init() {
	if err := Register(prometheus.DefaultRegisterer); err != nil {
		panic(err)
	}
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveRun records the outcome and duration of one run.
func ObserveRun(status string, elapsed time.Duration) {
	RunsTotal.WithLabelValues(status).Inc()
	if status != StatusRejected {
		RunDuration.Observe(elapsed.Seconds())
	}
}

// ObserveIngest records the raw row count of one source.
func ObserveIngest(source string, rows int) {
	RowsIngested.WithLabelValues(source).Add(float64(rows))
}

// ObserveDrops records cleaning drops keyed by rule name.
func ObserveDrops(drops map[string]int) {
	for rule, n := range drops {
		if n > 0 {
			RowsDropped.WithLabelValues(rule).Add(float64(n))
		}
	}
}
