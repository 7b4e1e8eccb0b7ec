// Package metrics exposes the pipeline's Prometheus registry, grounded on
// the teacher's system_health_logging.go: one Registry, one Gauge/Counter
// per tracked quantity, registered eagerly at construction and served over
// a dedicated /metrics HTTP endpoint.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds every metric the pipeline's stages report to, across one
// run of cmd/pipeline.
type Registry struct {
	registry *prometheus.Registry

	StageDuration   *prometheus.HistogramVec
	RecordsExtracted prometheus.Counter
	RecordsTransformed prometheus.Counter
	RecordsPublished *prometheus.CounterVec
	PublishErrors    *prometheus.CounterVec
	ScoringClients   prometheus.Gauge
	StageErrors      *prometheus.CounterVec
	srv              *http.Server
}

// New builds a Registry with every metric registered.
func New() *Registry {
	reg := prometheus.NewRegistry()

	r := &Registry{
		registry: reg,
		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pipeline_stage_duration_seconds",
			Help:    "Wall-clock duration of a pipeline stage run",
			Buckets: prometheus.DefBuckets,
		}, []string{"stage"}),
		RecordsExtracted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pipeline_routes_extracted_total",
			Help: "Total raw routes fetched from the fleet API",
		}),
		RecordsTransformed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pipeline_routes_transformed_total",
			Help: "Total canonical routes produced by the transform stage",
		}),
		RecordsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pipeline_records_published_total",
			Help: "Total records confirmed on chain, by record kind",
		}, []string{"kind"}),
		PublishErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pipeline_publish_errors_total",
			Help: "Total publish failures, by classification",
		}, []string{"classification"}),
		ScoringClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "pipeline_scoring_clients",
			Help: "Number of clients scored in the most recent scoring run",
		}),
		StageErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pipeline_stage_errors_total",
			Help: "Total fatal stage errors, by stage",
		}, []string{"stage"}),
	}

	reg.MustRegister(
		r.StageDuration,
		r.RecordsExtracted,
		r.RecordsTransformed,
		r.RecordsPublished,
		r.PublishErrors,
		r.ScoringClients,
		r.StageErrors,
	)
	return r
}

// ObserveStage records a stage's duration and increments its error counter
// on failure. Intended to wrap a stage's Run call:
//
//	n, err := metrics.ObserveStage(registry, "transform", func() (int, error) { return stage.Run(ctx, ...) })
func ObserveStage(r *Registry, stage string, fn func() (int, error)) (int, error) {
	start := time.Now()
	n, err := fn()
	r.StageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
	if err != nil {
		r.StageErrors.WithLabelValues(stage).Inc()
	}
	return n, err
}

// Serve starts the /metrics HTTP endpoint in the background on addr. Call
// Shutdown to stop it.
func (r *Registry) Serve(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{}))
	r.srv = &http.Server{Addr: addr, Handler: mux}

	go func() {
		if err := r.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			// The pipeline is a short-lived batch job; a dead metrics
			// listener is not itself fatal to the run.
		}
	}()
}

// Shutdown stops the /metrics endpoint, if running.
func (r *Registry) Shutdown(ctx context.Context) error {
	if r.srv == nil {
		return nil
	}
	return r.srv.Shutdown(ctx)
}
