package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var startTime = time.Now()

// Метрики relay.
var (
	MessagesFetched = promauto.NewCounter(prometheus.CounterOpts{
		Name: "s3relay_messages_fetched_total",
		Help: "Request messages taken from the request queue",
	})

	// UploadsTotal — исходы загрузки: uploaded, overwritten, rejected,
	// unavailable, failed.
	UploadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "s3relay_uploads_total",
		Help: "Upload attempts by outcome",
	}, []string{"outcome"})

	UploadDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "s3relay_upload_duration_seconds",
		Help:    "Time spent in the object storage put call",
		Buckets: prometheus.DefBuckets,
	})

	RepliesPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "s3relay_replies_published_total",
		Help: "Replies published to the reply queue by status",
	}, []string{"status"})

	RetriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "s3relay_retries_total",
		Help: "Retries of transient errors by operation",
	}, []string{"op"})

	WorkersAlive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "s3relay_workers_alive",
		Help: "Workers currently running",
	})

	JournalErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "s3relay_journal_errors_total",
		Help: "Failed journal writes",
	})
)

// NewMux возвращает HTTP mux с /healthz и /metrics.
// healthy == nil считается всегда здоровым.
func NewMux(healthy func() bool) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		if healthy != nil && !healthy() {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte("worker down"))
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok " + time.Since(startTime).Truncate(time.Second).String()))
	})
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}
