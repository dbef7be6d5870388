package otel

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// Exporter selects where spans and metrics go.
type Exporter string

const (
	ExporterStdout Exporter = "stdout"
	ExporterOTLP   Exporter = "otlp"
	ExporterNone   Exporter = "none"
)

const defaultMetricInterval = 30 * time.Second

// Config holds OpenTelemetry provider configuration.
type Config struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	Exporter       Exporter
	Insecure       bool // plain HTTP to the OTLP collector

	// Endpoint overrides the OTLP host:port; empty uses the OTEL_EXPORTER_OTLP_* defaults.
	Endpoint string

	// MetricInterval is how often metrics are exported; zero means 30s.
	MetricInterval time.Duration

	// Attributes are added to the resource, e.g. the active sequence backend.
	Attributes map[string]string
}

func (c Config) validate() error {
	switch c.Exporter {
	case ExporterStdout, ExporterOTLP, ExporterNone:
	default:
		return fmt.Errorf("unsupported exporter %q (use %q, %q or %q)",
			c.Exporter, ExporterStdout, ExporterOTLP, ExporterNone)
	}
	if c.ServiceName == "" {
		return errors.New("otel: service name is required")
	}
	return nil
}

// Providers holds initialized OTel providers and their shutdown function.
type Providers struct {
	Shutdown func(ctx context.Context) error
}

// instrumentationName scopes the tracer and meter of the ledger decorators.
const instrumentationName = "github.com/neomorfeo/retailledger/internal/adapter/otel"

// Setup registers global tracer and meter providers for the ledger service.
// Shutdown on the returned Providers flushes pending telemetry.
func Setup(ctx context.Context, cfg Config) (*Providers, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	res, err := newResource(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating otel resource: %w", err)
	}

	tp, err := newTracerProvider(ctx, cfg, res)
	if err != nil {
		return nil, fmt.Errorf("creating tracer provider: %w", err)
	}

	mp, err := newMeterProvider(ctx, cfg, res)
	if err != nil {
		_ = tp.Shutdown(ctx)
		return nil, fmt.Errorf("creating meter provider: %w", err)
	}

	otel.SetTracerProvider(tp)
	otel.SetMeterProvider(mp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return &Providers{Shutdown: func(ctx context.Context) error {
		return errors.Join(tp.Shutdown(ctx), mp.Shutdown(ctx))
	}}, nil
}

func newResource(ctx context.Context, cfg Config) (*resource.Resource, error) {
	attrs := []attribute.KeyValue{
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(cfg.ServiceVersion),
		semconv.DeploymentEnvironment(cfg.Environment),
	}
	for k, v := range cfg.Attributes {
		attrs = append(attrs, attribute.String(k, v))
	}
	return resource.New(ctx, resource.WithAttributes(attrs...))
}

func newTracerProvider(ctx context.Context, cfg Config, res *resource.Resource) (*trace.TracerProvider, error) {
	opts := []trace.TracerProviderOption{trace.WithResource(res)}

	switch cfg.Exporter {
	case ExporterOTLP:
		var clientOpts []otlptracehttp.Option
		if cfg.Insecure {
			clientOpts = append(clientOpts, otlptracehttp.WithInsecure())
		}
		if cfg.Endpoint != "" {
			clientOpts = append(clientOpts, otlptracehttp.WithEndpoint(cfg.Endpoint))
		}
		exporter, err := otlptracehttp.New(ctx, clientOpts...)
		if err != nil {
			return nil, err
		}
		opts = append(opts, trace.WithBatcher(exporter))
	case ExporterStdout:
		exporter, err := stdouttrace.New()
		if err != nil {
			return nil, err
		}
		opts = append(opts, trace.WithBatcher(exporter))
	}

	return trace.NewTracerProvider(opts...), nil
}

func newMeterProvider(ctx context.Context, cfg Config, res *resource.Resource) (*metric.MeterProvider, error) {
	opts := []metric.Option{metric.WithResource(res)}

	interval := cfg.MetricInterval
	if interval <= 0 {
		interval = defaultMetricInterval
	}

	var exporter metric.Exporter
	switch cfg.Exporter {
	case ExporterOTLP:
		var clientOpts []otlpmetrichttp.Option
		if cfg.Insecure {
			clientOpts = append(clientOpts, otlpmetrichttp.WithInsecure())
		}
		if cfg.Endpoint != "" {
			clientOpts = append(clientOpts, otlpmetrichttp.WithEndpoint(cfg.Endpoint))
		}
		exp, err := otlpmetrichttp.New(ctx, clientOpts...)
		if err != nil {
			return nil, err
		}
		exporter = exp
	case ExporterStdout:
		exp, err := stdoutmetric.New()
		if err != nil {
			return nil, err
		}
		exporter = exp
	}

	if exporter != nil {
		opts = append(opts, metric.WithReader(metric.NewPeriodicReader(exporter, metric.WithInterval(interval))))
	}
	return metric.NewMeterProvider(opts...), nil
}
