package prometheus

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var registry = prometheus.NewRegistry()

var registerer = prometheus.WrapRegistererWith(nil, registry)

var (
	// Latency buckets in milliseconds
	latencyBuckets = []float64{
		1, 2, 5, 10, 25,
		50, 100, 250, 500,
		1000, 2500, 5000,
	}

	RequestsTotal = promauto.With(registerer).NewCounterVec(
		prometheus.CounterOpts{
			Name: "trustshield_requests_total",
			Help: "Total number of HTTP requests served",
		},
		[]string{"server", "method", "status"},
	)

	RequestLatency = promauto.With(registerer).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "trustshield_request_latency_ms",
			Help:    "HTTP request latency in milliseconds",
			Buckets: latencyBuckets,
		},
		[]string{"server", "route"},
	)

	DecisionsTotal = promauto.With(registerer).NewCounterVec(
		prometheus.CounterOpts{
			Name: "trustshield_decisions_total",
			Help: "Classified requests by verdict",
		},
		[]string{"verdict"},
	)

	RejectedTotal = promauto.With(registerer).NewCounter(
		prometheus.CounterOpts{
			Name: "trustshield_rejected_total",
			Help: "Requests rejected because their origin is blocked",
		},
	)

	EscalationsTotal = promauto.With(registerer).NewCounter(
		prometheus.CounterOpts{
			Name: "trustshield_escalations_total",
			Help: "Anomalies recorded against an origin that ended up blocked",
		},
	)

	ModelUnavailableTotal = promauto.With(registerer).NewCounterVec(
		prometheus.CounterOpts{
			Name: "trustshield_model_unavailable_total",
			Help: "Ensemble calls failed by a detector",
		},
		[]string{"detector"},
	)

	SinkFailuresTotal = promauto.With(registerer).NewCounter(
		prometheus.CounterOpts{
			Name: "trustshield_sink_failures_total",
			Help: "Decision records that could not be persisted",
		},
	)

	MirrorDroppedTotal = promauto.With(registerer).NewCounter(
		prometheus.CounterOpts{
			Name: "trustshield_mirror_dropped_total",
			Help: "Decision records dropped by the asynchronous mirror",
		},
	)

	EvictionsTotal = promauto.With(registerer).NewCounter(
		prometheus.CounterOpts{
			Name: "trustshield_registry_evictions_total",
			Help: "Non-blocked origins evicted to keep the registry bounded",
		},
	)

	TrackedOrigins = promauto.With(registerer).NewGauge(
		prometheus.GaugeOpts{
			Name: "trustshield_tracked_origins",
			Help: "Origins currently tracked by the offender registry",
		},
	)

	BlockedOrigins = promauto.With(registerer).NewGauge(
		prometheus.GaugeOpts{
			Name: "trustshield_blocked_origins",
			Help: "Origins currently blocked",
		},
	)

	VoteLatency = promauto.With(registerer).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "trustshield_vote_latency_ms",
			Help:    "Ensemble vote latency in milliseconds",
			Buckets: latencyBuckets,
		},
	)
)

type MetricsConfig struct {
	EnableLatency bool
}

var (
	Config   MetricsConfig
	initOnce sync.Once
)

func Initialize(cfg MetricsConfig) {
	Config = cfg
	initOnce.Do(func() {
		registry.MustRegister(
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			collectors.NewGoCollector(),
		)
		prometheus.DefaultRegisterer = registry
		prometheus.DefaultGatherer = registry
	})
}

func Gatherer() prometheus.Gatherer {
	return registry
}
