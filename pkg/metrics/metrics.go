package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Bridge entry points
	EntryPointCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_entrypoint_calls_total",
			Help: "Bridge entry point invocations by operation and result",
		},
		[]string{"operation", "result"},
	)

	EntryPointErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_entrypoint_errors_total",
			Help: "Failed bridge entry point invocations by error kind",
		},
		[]string{"operation", "kind"},
	)

	ValueLocked = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_value_locked_total",
			Help: "Base units moved into contract custody, by asset and flow",
		},
		[]string{"asset", "flow"},
	)

	BridgePaused = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "bridge_paused",
		Help: "Bridge pause state (1=paused, 0=active)",
	})

	// Gateway
	GatewaySubmissions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_gateway_submissions_total",
			Help: "Outbound gateway submissions by call kind and result",
		},
		[]string{"kind", "result"},
	)

	GatewaySubmitDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bridge_gateway_submit_duration_seconds",
			Help:    "Outbound gateway submission latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"kind"},
	)

	GatewayBreakerState = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "bridge_gateway_breaker_state",
		Help: "Gateway circuit breaker state (0=closed, 1=half-open, 2=open)",
	})

	// Inbound
	InboundCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_inbound_calls_total",
			Help: "Inbound gateway deliveries by result",
		},
		[]string{"result"},
	)

	// Events
	EventsEmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_events_emitted_total",
			Help: "Domain events broadcast on the event bus",
		},
		[]string{"event"},
	)

	EventsDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_events_dropped_total",
			Help: "Events dropped because a subscriber buffer was full",
		},
		[]string{"event"},
	)

	SinkErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_event_sink_errors_total",
			Help: "Event sink write failures",
		},
		[]string{"sink"},
	)
)

func ResultLabel(err error) string {
	if err != nil {
		return "failed"
	}
	return "success"
}
