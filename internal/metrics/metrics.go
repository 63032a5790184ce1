package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

var (
	ErrorsCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobsift_errors_total",
			Help: "Total number of occurred errors.",
		},
		[]string{"type"},
	)
	RecordsStoredCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobsift_records_stored_total",
			Help: "Total number of records persisted to the document store.",
		},
		[]string{"source"},
	)
	DuplicatesSkippedCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "jobsift_duplicates_skipped_total",
			Help: "Total number of records skipped as already stored.",
		},
	)
	RecordFailuresCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "jobsift_record_failures_total",
			Help: "Total number of records dropped by per-record failures.",
		},
	)
	IngestRunDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "jobsift_ingest_run_duration_seconds",
			Help:    "Duration of each ingestion run in seconds.",
			Buckets: []float64{1, 5, 15, 60, 300, 900},
		},
	)
)

func StartMetricsServer(addr string) {

	prometheus.MustRegister(ErrorsCounter)
	prometheus.MustRegister(RecordsStoredCounter)
	prometheus.MustRegister(DuplicatesSkippedCounter)
	prometheus.MustRegister(RecordFailuresCounter)
	prometheus.MustRegister(IngestRunDuration)

	http.Handle("/metrics", promhttp.Handler())
	go func() {
		log.Fatal(http.ListenAndServe(addr, nil))
	}()
}
