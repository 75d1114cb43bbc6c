package provider

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains the Prometheus metrics of a Provider
type Metrics struct {
	// Request metrics
	Requests *prometheus.CounterVec

	// Signer flow metrics
	SignerFlows       *prometheus.CounterVec
	PendingOperations prometheus.Gauge

	// Channel metrics
	ChannelConnectsTotal *prometheus.CounterVec
	ChannelConnected     prometheus.Gauge
	MessagesReceived     *prometheus.CounterVec
}

// NewMetrics initializes and registers Prometheus metrics
func NewMetrics() *Metrics {
	return NewMetricsWithRegistry(nil)
}

// NewMetricsWithRegistry initializes and registers Prometheus metrics with a custom registry
func NewMetricsWithRegistry(registry prometheus.Registerer) *Metrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}
	factory := promauto.With(registry)

	return &Metrics{
		Requests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "unwallet_provider_requests_total",
				Help: "The total number of EIP-1193 requests",
			},
			[]string{"method", "route", "outcome"},
		),
		SignerFlows: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "unwallet_provider_signer_flows_total",
				Help: "The total number of signer window flows by kind and outcome",
			},
			[]string{"kind", "outcome"},
		),
		PendingOperations: factory.NewGauge(prometheus.GaugeOpts{
			Name: "unwallet_provider_pending_operations",
			Help: "Whether a signer operation is awaiting its result",
		}),
		ChannelConnectsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "unwallet_provider_channel_connects_total",
				Help: "The total number of wallet channel connection attempts",
			},
			[]string{"outcome"},
		),
		ChannelConnected: factory.NewGauge(prometheus.GaugeOpts{
			Name: "unwallet_provider_channel_connected",
			Help: "Whether the wallet channel is connected",
		}),
		MessagesReceived: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "unwallet_provider_channel_messages_received_total",
				Help: "The total number of messages received over the wallet channel",
			},
			[]string{"type"},
		),
	}
}

// outcomeLabel names the result of an operation for metric labels.
func outcomeLabel(err error) string {
	switch CodeOf(err) {
	case 0:
		return "success"
	case CodeUserRejected:
		return "rejected"
	case CodeUnsupportedMethod:
		return "unsupported"
	case CodeDisconnected:
		return "disconnected"
	case CodeInvalidParams:
		return "invalid"
	default:
		return "error"
	}
}
