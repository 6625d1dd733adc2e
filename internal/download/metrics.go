package download

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	fetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bulkdl_fetches_total",
			Help: "Total number of resource fetches by result",
		},
		[]string{"result"}, // success, failure
	)

	fetchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "bulkdl_fetch_duration_seconds",
			Help:    "Duration of resource fetches in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	fetchedBytesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bulkdl_fetched_bytes_total",
			Help: "Total number of payload bytes fetched",
		},
	)

	savesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bulkdl_saves_total",
			Help: "Total number of save actions by result",
		},
		[]string{"result"},
	)

	batchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bulkdl_batches_total",
			Help: "Total number of finished batches by mode and result",
		},
		[]string{"mode", "result"},
	)

	archiveSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "bulkdl_archive_size_bytes",
			Help:    "Size of produced archives in bytes",
			Buckets: prometheus.ExponentialBuckets(1024, 4, 10),
		},
	)
)

func resultLabel(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}
