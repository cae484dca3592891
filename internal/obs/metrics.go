package obs

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	jobsCreatedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "docintel",
			Subsystem: "jobs",
			Name:      "created_total",
			Help:      "Total analysis jobs created.",
		},
	)

	filesProcessedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docintel",
			Subsystem: "files",
			Name:      "processed_total",
			Help:      "Total files processed, by result.",
		},
		[]string{"result"},
	)

	fileProcessingDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "docintel",
			Subsystem: "files",
			Name:      "processing_duration_seconds",
			Help:      "Per-file processing duration in seconds.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 40, 80, 160},
		},
	)

	statusPollsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "docintel",
			Subsystem: "http",
			Name:      "status_polls_total",
			Help:      "Total job status requests served.",
		},
	)
)

func init() {
	prometheus.MustRegister(jobsCreatedTotal, filesProcessedTotal, fileProcessingDuration, statusPollsTotal)
}

func RecordJobCreated() {
	jobsCreatedTotal.Inc()
}

func RecordFileProcessed(start time.Time, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	filesProcessedTotal.WithLabelValues(result).Inc()
	fileProcessingDuration.Observe(time.Since(start).Seconds())
}

func RecordStatusPoll() {
	statusPollsTotal.Inc()
}
