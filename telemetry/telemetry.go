//
// Copyright (C) 2026 FlowCore Authors.
// All rights reserved.
//
// flowcore is licensed under the Apache 2.0 License,
// A copy of the Apache 2.0 License is included in this file.
//
//

// Package telemetry provides OpenTelemetry instrumentation for flowcore.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/metric"
	noopm "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.34.0"
	"go.opentelemetry.io/otel/trace"
	noopt "go.opentelemetry.io/otel/trace/noop"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

var (
	// Tracer is the global OpenTelemetry tracer for flowcore.
	// It is a no-op until Start is called.
	Tracer trace.Tracer = noopt.Tracer{}
	// Meter is the global OpenTelemetry meter for flowcore.
	Meter metric.Meter = noopm.Meter{}
)

// Span name prefixes used by the execution core.
const (
	// SpanNamePrefixExecuteTool prefixes spans around tool execution.
	SpanNamePrefixExecuteTool = "execute_tool"
	// SpanNameBranchDecision names spans around branch condition evaluation.
	SpanNameBranchDecision = "branch_decision"
)

// Option configures telemetry startup.
type Option func(*options)

type options struct {
	tracesEndpoint  string
	metricsEndpoint string
	serviceName     string
	serviceVersion  string
}

// WithTracesEndpoint overrides the OTLP traces endpoint.
func WithTracesEndpoint(endpoint string) Option {
	return func(o *options) { o.tracesEndpoint = endpoint }
}

// WithMetricsEndpoint overrides the OTLP metrics endpoint.
func WithMetricsEndpoint(endpoint string) Option {
	return func(o *options) { o.metricsEndpoint = endpoint }
}

// WithServiceName sets the reported service name.
func WithServiceName(name string) Option {
	return func(o *options) { o.serviceName = name }
}

// Start initializes OTLP exporters and swaps the global Tracer and Meter
// from no-ops to real instruments. The returned clean function flushes and
// shuts down the providers.
func Start(ctx context.Context, opts ...Option) (clean func() error, err error) {
	options := &options{
		tracesEndpoint:  tracesEndpoint(),
		metricsEndpoint: metricsEndpoint(),
		serviceName:     "flowcore",
		serviceVersion:  "v0.1.0",
	}
	for _, opt := range opts {
		opt(options)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(options.serviceName),
			semconv.ServiceVersion(options.serviceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	tracesConn, err := newConn(options.tracesEndpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize traces connection: %w", err)
	}
	shutdownTracerProvider, err := initTracerProvider(ctx, res, tracesConn)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracer provider: %w", err)
	}

	metricsConn := tracesConn
	if options.metricsEndpoint != options.tracesEndpoint {
		metricsConn, err = newConn(options.metricsEndpoint)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize metrics connection: %w", err)
		}
	}
	shutdownMeterProvider, err := initMeterProvider(ctx, res, metricsConn)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize meter provider: %w", err)
	}

	clean = func() error {
		var err error
		if tracerErr := shutdownTracerProvider(ctx); tracerErr != nil {
			err = errors.Join(err, fmt.Errorf("failed to shutdown TracerProvider: %w", tracerErr))
		}
		if meterErr := shutdownMeterProvider(ctx); meterErr != nil {
			err = errors.Join(err, fmt.Errorf("failed to shutdown MeterProvider: %w", meterErr))
		}
		return err
	}

	Tracer = otel.Tracer("flowcore")
	Meter = otel.Meter("flowcore")
	return clean, nil
}

func tracesEndpoint() string {
	if endpoint := os.Getenv("OTEL_EXPORTER_OTLP_TRACES_ENDPOINT"); endpoint != "" {
		return endpoint
	}
	if endpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); endpoint != "" {
		return endpoint
	}
	return "localhost:4317"
}

func metricsEndpoint() string {
	if endpoint := os.Getenv("OTEL_EXPORTER_OTLP_METRICS_ENDPOINT"); endpoint != "" {
		return endpoint
	}
	if endpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); endpoint != "" {
		return endpoint
	}
	return "localhost:4318"
}

func newConn(endpoint string) (*grpc.ClientConn, error) {
	conn, err := grpc.NewClient(endpoint,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create gRPC connection to %s: %w", endpoint, err)
	}
	return conn, nil
}

func initTracerProvider(ctx context.Context, res *resource.Resource, conn *grpc.ClientConn) (func(context.Context) error, error) {
	traceExporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
	if err != nil {
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}

	bsp := sdktrace.NewBatchSpanProcessor(traceExporter)
	tracerProvider := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithResource(res),
		sdktrace.WithSpanProcessor(bsp),
	)
	otel.SetTracerProvider(tracerProvider)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	return tracerProvider.Shutdown, nil
}

func initMeterProvider(ctx context.Context, res *resource.Resource, conn *grpc.ClientConn) (func(context.Context) error, error) {
	metricExporter, err := otlpmetricgrpc.New(ctx, otlpmetricgrpc.WithGRPCConn(conn))
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics exporter: %w", err)
	}

	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExporter)),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(meterProvider)

	return meterProvider.Shutdown, nil
}
