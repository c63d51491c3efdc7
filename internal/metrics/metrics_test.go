package metrics

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	eventbus "github.com/hanpama/gqlmodules/internal/eventbus"
	events "github.com/hanpama/gqlmodules/internal/events"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (*Metrics, *prometheus.Registry) {
	t.Helper()
	eventbus.Use(eventbus.New())
	reg := prometheus.NewRegistry()
	m := New(reg)
	unsubscribe := m.Subscribe()
	t.Cleanup(func() {
		unsubscribe()
		eventbus.Use(nil)
	})
	return m, reg
}

func TestAssemblyAndBuildMetrics(t *testing.T) {
	m, _ := setup(t)
	ctx := context.Background()

	eventbus.Publish(ctx, events.ManifestAssembled{Modules: 4})
	eventbus.Publish(ctx, events.SchemaBuilt{})
	eventbus.Publish(ctx, events.SchemaBuilt{Err: errors.New("bad")})
	eventbus.Publish(ctx, events.SchemaBuilt{})
	eventbus.Publish(ctx, events.ResolverMismatch{Message: "x"})

	require.Equal(t, 4.0, testutil.ToFloat64(m.ManifestModules))
	require.Equal(t, 2.0, testutil.ToFloat64(m.SchemaBuilds.WithLabelValues("success")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.SchemaBuilds.WithLabelValues("failed")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.ResolverMismatches))
}

func TestOperationMetrics(t *testing.T) {
	m, _ := setup(t)
	ctx := context.Background()

	eventbus.Publish(ctx, events.GraphQLFinish{OperationType: "query", Duration: time.Millisecond})
	eventbus.Publish(ctx, events.GraphQLFinish{OperationType: "query", Errors: []error{errors.New("x")}})
	eventbus.Publish(ctx, events.GraphQLFinish{OperationType: "mutation"})

	require.Equal(t, 1.0, testutil.ToFloat64(m.Operations.WithLabelValues("query", "success")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.Operations.WithLabelValues("query", "failed")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.Operations.WithLabelValues("mutation", "success")))
	require.Equal(t, 2, testutil.CollectAndCount(m.OperationDuration))
}

func TestSubscriptionMetrics(t *testing.T) {
	m, _ := setup(t)
	ctx := context.Background()

	eventbus.Publish(ctx, events.SubscriptionStart{Field: "a"})
	eventbus.Publish(ctx, events.SubscriptionStart{Field: "b"})
	eventbus.Publish(ctx, events.SubscriptionFinish{Field: "a", Events: 5})

	require.Equal(t, 1.0, testutil.ToFloat64(m.ActiveSubscriptions))
	require.Equal(t, 5.0, testutil.ToFloat64(m.SubscriptionEvents))
}

func TestWriteToTextfile(t *testing.T) {
	_, reg := setup(t)
	eventbus.Publish(context.Background(), events.ManifestAssembled{Modules: 3})

	path := filepath.Join(t.TempDir(), "gqlmodules.prom")
	require.NoError(t, WriteToTextfile(path, reg))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "gqlmodules_manifest_modules 3")
}
