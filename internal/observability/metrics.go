package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	storeScanCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ridedash",
		Subsystem: "store",
		Name:      "scans_total",
		Help:      "Number of full-table scans grouped by table and outcome.",
	}, []string{"table", "outcome"})

	storeScanDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "ridedash",
		Subsystem: "store",
		Name:      "scan_duration_seconds",
		Help:      "Latency of full-table scans.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"table"})

	storeRecordsCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ridedash",
		Subsystem: "store",
		Name:      "records_scanned_total",
		Help:      "Number of raw records returned by scans.",
	}, []string{"table"})

	pipelineCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ridedash",
		Subsystem: "pipeline",
		Name:      "requests_total",
		Help:      "Number of derived views served grouped by view and outcome.",
	}, []string{"view", "outcome"})

	loginCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ridedash",
		Subsystem: "peloton",
		Name:      "logins_total",
		Help:      "Number of fitness-service login attempts grouped by outcome.",
	}, []string{"outcome"})

	syncCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ridedash",
		Subsystem: "sync",
		Name:      "requests_total",
		Help:      "Number of ride sync requests published grouped by outcome.",
	}, []string{"outcome"})
)

func init() {
	prometheus.MustRegister(storeScanCounter, storeScanDuration, storeRecordsCounter, pipelineCounter, loginCounter, syncCounter)
}

// RecordScan tracks one table scan.
func RecordScan(table string, took time.Duration, records int, err error) {
	storeScanCounter.WithLabelValues(table, outcome(err)).Inc()
	storeScanDuration.WithLabelValues(table).Observe(took.Seconds())
	if err == nil {
		storeRecordsCounter.WithLabelValues(table).Add(float64(records))
	}
}

// RecordView tracks one derived view; kind labels the failure class when err != nil.
func RecordView(view, kind string) {
	pipelineCounter.WithLabelValues(view, kind).Inc()
}

// RecordLogin tracks a fitness-service login attempt.
func RecordLogin(err error) {
	loginCounter.WithLabelValues(outcome(err)).Inc()
}

// RecordSyncRequest tracks a published (or failed) sync request.
func RecordSyncRequest(err error) {
	syncCounter.WithLabelValues(outcome(err)).Inc()
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
