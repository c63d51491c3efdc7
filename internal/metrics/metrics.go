// Package metrics exposes Prometheus collectors fed by bus events.
package metrics

import (
	"context"

	eventbus "github.com/hanpama/gqlmodules/internal/eventbus"
	events "github.com/hanpama/gqlmodules/internal/events"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "gqlmodules"

// Metrics holds the collectors registered by New.
type Metrics struct {
	// ManifestModules is the module count of the last assembled manifest.
	ManifestModules prometheus.Gauge

	// SchemaBuilds counts schema builds by status.
	SchemaBuilds *prometheus.CounterVec

	// ResolverMismatches counts resolver validation warnings.
	ResolverMismatches prometheus.Counter

	// Operations counts executed operations by type and status.
	Operations *prometheus.CounterVec

	// OperationDuration measures operation execution in seconds.
	OperationDuration *prometheus.HistogramVec

	// ActiveSubscriptions is the number of open subscription streams.
	ActiveSubscriptions prometheus.Gauge

	// SubscriptionEvents counts results delivered to subscribers.
	SubscriptionEvents prometheus.Counter
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		ManifestModules: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "manifest",
			Name:      "modules",
			Help:      "Number of modules in the last assembled manifest",
		}),
		SchemaBuilds: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "schema",
			Name:      "builds_total",
			Help:      "Total number of schema builds",
		}, []string{"status"}),
		ResolverMismatches: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "schema",
			Name:      "resolver_mismatches_total",
			Help:      "Total number of resolvers reported as not matching the schema",
		}),
		Operations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "graphql",
			Name:      "operations_total",
			Help:      "Total number of executed operations",
		}, []string{"type", "status"}),
		OperationDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "graphql",
			Name:      "operation_duration_seconds",
			Help:      "Duration of executed operations in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"type"}),
		ActiveSubscriptions: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "graphql",
			Name:      "subscriptions_active",
			Help:      "Number of open subscription streams",
		}),
		SubscriptionEvents: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "graphql",
			Name:      "subscription_events_total",
			Help:      "Total number of results delivered to subscribers",
		}),
	}
}

func status(failed bool) string {
	if failed {
		return "failed"
	}
	return "success"
}

// Subscribe updates m from the global event bus until the returned function
// is called.
func (m *Metrics) Subscribe() (unsubscribe func()) {
	subs := []func(){
		eventbus.Subscribe(func(_ context.Context, e events.ManifestAssembled) {
			m.ManifestModules.Set(float64(e.Modules))
		}),
		eventbus.Subscribe(func(_ context.Context, e events.SchemaBuilt) {
			m.SchemaBuilds.WithLabelValues(status(e.Err != nil)).Inc()
		}),
		eventbus.Subscribe(func(_ context.Context, _ events.ResolverMismatch) {
			m.ResolverMismatches.Inc()
		}),
		eventbus.Subscribe(func(_ context.Context, e events.GraphQLFinish) {
			m.Operations.WithLabelValues(e.OperationType, status(len(e.Errors) > 0)).Inc()
			m.OperationDuration.WithLabelValues(e.OperationType).Observe(e.Duration.Seconds())
		}),
		eventbus.Subscribe(func(_ context.Context, _ events.SubscriptionStart) {
			m.ActiveSubscriptions.Inc()
		}),
		eventbus.Subscribe(func(_ context.Context, e events.SubscriptionFinish) {
			m.ActiveSubscriptions.Dec()
			m.SubscriptionEvents.Add(float64(e.Events))
		}),
	}
	return func() {
		for _, f := range subs {
			f()
		}
	}
}

// WriteToTextfile writes the metrics gathered by g to path in the text
// exposition format.
func WriteToTextfile(path string, g prometheus.Gatherer) error {
	return prometheus.WriteToTextfile(path, g)
}
