package metrics

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

var (
	// System metrics
	SystemMemoryUsage = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ontonote_system_memory_bytes",
		Help: "Current system memory usage",
	})

	SystemGoroutines = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ontonote_system_goroutines",
		Help: "Number of goroutines",
	})

	// Pipeline metrics
	InboxQueueLength = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ontonote_inbox_queue_length",
		Help: "Number of inbox files waiting to be processed",
	})

	NotesProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ontonote_notes_processed_total",
			Help: "Total number of note pipeline runs",
		},
		[]string{"status"},
	)

	DegradedSteps = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ontonote_degraded_steps_total",
			Help: "Pipeline steps that fell back to a degraded result",
		},
		[]string{"step"},
	)

	PipelineDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ontonote_pipeline_duration_seconds",
			Help:    "Time spent in pipeline operations",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
		},
		[]string{"operation"},
	)

	// Backend metrics
	BackendRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ontonote_backend_request_duration_seconds",
			Help:    "Latency of text generation requests",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		},
		[]string{"provider", "status"},
	)

	OntologyExtractions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ontonote_ontology_extractions_total",
			Help: "Ontology extraction attempts by result",
		},
		[]string{"result"},
	)

	// Vault metrics
	LinksAdded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ontonote_links_added_total",
			Help: "Wiki links written into documents",
		},
		[]string{"direction"},
	)

	RelatedNotesFound = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "ontonote_related_notes_found",
		Help:    "Number of related documents found per lookup",
		Buckets: []float64{0, 1, 2, 5, 10, 20, 50},
	})
)

// UpdateSystemMetrics updates system-level metrics
func UpdateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	SystemMemoryUsage.Set(float64(m.Alloc))
	SystemGoroutines.Set(float64(runtime.NumGoroutine()))
}

// Serve exposes /metrics on addr until ctx is cancelled.
func Serve(ctx context.Context, addr string, logger *logrus.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		for {
			UpdateSystemMetrics()
			select {
			case <-ctx.Done():
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = srv.Shutdown(shutdownCtx)
				return
			case <-ticker.C:
			}
		}
	}()

	go func() {
		logger.WithField("addr", addr).Info("Serving metrics")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Error("Metrics server stopped")
		}
	}()
}
