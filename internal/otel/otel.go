package otel

import (
	"context"
	"sync"
	"time"

	eventbus "github.com/hanpama/gqlmodules/internal/eventbus"
	events "github.com/hanpama/gqlmodules/internal/events"
	reqid "github.com/hanpama/gqlmodules/internal/reqid"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

const instrumentation = "gqlmodules"

// Setup configures OpenTelemetry and attaches eventbus subscribers.
// If endpoint is empty, no telemetry is configured.
func Setup(endpoint, service string) (func(context.Context) error, error) {
	if endpoint == "" {
		return func(context.Context) error { return nil }, nil
	}
	exp, err := otlptracegrpc.New(context.Background(),
		otlptracegrpc.WithEndpoint(endpoint),
		otlptracegrpc.WithDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())))
	if err != nil {
		return nil, err
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(service),
		)),
	)
	otel.SetTracerProvider(tp)
	unregister := Register(tp)

	return func(ctx context.Context) error {
		unregister()
		return tp.Shutdown(ctx)
	}, nil
}

// Register turns bus events into spans of tp until the returned function is
// called.
func Register(tp trace.TracerProvider) (unregister func()) {
	s := &subscriber{tracer: tp.Tracer(instrumentation)}
	return s.register()
}

type subscriber struct {
	tracer   trace.Tracer
	gqlSpans sync.Map // rid -> trace.Span
	subSpans sync.Map // rid -> trace.Span
}

// finished records an operation that has already completed.
func (s *subscriber) finished(ctx context.Context, name string, d time.Duration, err error, attrs ...attribute.KeyValue) {
	end := time.Now()
	_, span := s.tracer.Start(ctx, name,
		trace.WithTimestamp(end.Add(-d)),
		trace.WithAttributes(attrs...))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End(trace.WithTimestamp(end))
}

func (s *subscriber) register() func() {
	var unsubscribe []func()
	on := func(f func()) { unsubscribe = append(unsubscribe, f) }

	on(eventbus.Subscribe(func(ctx context.Context, e events.ManifestAssembled) {
		s.finished(ctx, "gqlmodules.assemble", e.Duration, nil,
			attribute.Int("gqlmodules.modules", e.Modules),
			attribute.Int("gqlmodules.type_defs", e.TypeDefs),
			attribute.Int("gqlmodules.resolvers", e.Resolvers),
			attribute.StringSlice("gqlmodules.synthesized", e.Synthesized),
		)
	}))

	on(eventbus.Subscribe(func(ctx context.Context, e events.SchemaBuilt) {
		s.finished(ctx, "gqlmodules.build", e.Duration, e.Err,
			attribute.Int("gqlmodules.types", e.Types),
		)
	}))

	on(eventbus.Subscribe(func(ctx context.Context, e events.GraphQLStart) {
		rid, _ := reqid.FromContext(ctx)
		_, span := s.tracer.Start(ctx, "graphql.operation")
		span.SetAttributes(
			attribute.String("graphql.operation.name", e.OperationName),
			attribute.String("graphql.operation.type", e.OperationType),
		)
		s.gqlSpans.Store(rid, span)
	}))

	on(eventbus.Subscribe(func(ctx context.Context, e events.GraphQLFinish) {
		rid, _ := reqid.FromContext(ctx)
		v, ok := s.gqlSpans.LoadAndDelete(rid)
		if !ok {
			return
		}
		span := v.(trace.Span)
		span.SetAttributes(attribute.Int("graphql.error_count", len(e.Errors)))
		if len(e.Errors) > 0 {
			span.SetStatus(codes.Error, e.Errors[0].Error())
		}
		span.End()
	}))

	on(eventbus.Subscribe(func(ctx context.Context, e events.SubscriptionStart) {
		rid, _ := reqid.FromContext(ctx)
		_, span := s.tracer.Start(ctx, "graphql.subscription")
		span.SetAttributes(
			attribute.String("graphql.operation.name", e.OperationName),
			attribute.String("graphql.subscription.field", e.Field),
		)
		s.subSpans.Store(rid, span)
	}))

	on(eventbus.Subscribe(func(ctx context.Context, e events.SubscriptionFinish) {
		rid, _ := reqid.FromContext(ctx)
		v, ok := s.subSpans.LoadAndDelete(rid)
		if !ok {
			return
		}
		span := v.(trace.Span)
		span.SetAttributes(attribute.Int("graphql.subscription.events", e.Events))
		span.End()
	}))

	return func() {
		for _, f := range unsubscribe {
			f()
		}
	}
}
