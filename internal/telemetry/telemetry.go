// Package telemetry wires OpenTelemetry tracing and metrics for the CLI.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"

	"github.com/rfielding/boolnet-ctl/internal/config"
)

var (
	ErrNilContext      = errors.New("telemetry: nil context")
	ErrUnknownExporter = errors.New("telemetry: unknown exporter")
)

// Shutdown flushes and stops every exporter started by Init.
type Shutdown func(context.Context) error

// Init installs the global tracer and meter providers selected by cfg. With both
// exporters set to "none" it installs nothing and the otel no-op providers stay
// in place.
func Init(ctx context.Context, cfg config.TelemetryConfig, runID string, logger *zap.Logger) (Shutdown, error) {
	if ctx == nil {
		return nil, ErrNilContext
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	var shutdownFuncs []func(context.Context) error
	shutdown := func(ctx context.Context) error {
		var errs []error
		for i := len(shutdownFuncs) - 1; i >= 0; i-- {
			if err := shutdownFuncs[i](ctx); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	}

	res := resource.NewWithAttributes(
		"",
		attribute.String("service.name", "boolnet"),
		attribute.String("boolnet.run_id", runID),
	)

	if cfg.Traces != "" && cfg.Traces != "none" {
		tp, err := initTracer(ctx, cfg, res)
		if err != nil {
			return nil, fmt.Errorf("init tracer: %w", err)
		}
		otel.SetTracerProvider(tp)
		shutdownFuncs = append(shutdownFuncs, tp.Shutdown)
	}

	if cfg.Metrics != "" && cfg.Metrics != "none" {
		mp, stop, err := initMeter(cfg, res, logger)
		if err != nil {
			_ = shutdown(ctx)
			return nil, fmt.Errorf("init meter: %w", err)
		}
		otel.SetMeterProvider(mp)
		shutdownFuncs = append(shutdownFuncs, mp.Shutdown)
		if stop != nil {
			shutdownFuncs = append(shutdownFuncs, stop)
		}
	}

	return shutdown, nil
}

func initTracer(ctx context.Context, cfg config.TelemetryConfig, res *resource.Resource) (*trace.TracerProvider, error) {
	var exporter trace.SpanExporter
	var err error

	switch cfg.Traces {
	case "otlp":
		exporter, err = otlptracegrpc.New(ctx,
			otlptracegrpc.WithEndpoint(cfg.OTLPEndpoint),
			otlptracegrpc.WithInsecure(),
		)
	case "stdout":
		exporter, err = stdouttrace.New(stdouttrace.WithPrettyPrint())
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownExporter, cfg.Traces)
	}
	if err != nil {
		return nil, fmt.Errorf("create exporter: %w", err)
	}

	return trace.NewTracerProvider(
		trace.WithBatcher(exporter),
		trace.WithResource(res),
		trace.WithSampler(trace.AlwaysSample()),
	), nil
}

// initMeter returns the provider and, for prometheus, a func stopping the
// /metrics server.
func initMeter(cfg config.TelemetryConfig, res *resource.Resource, logger *zap.Logger) (*metric.MeterProvider, func(context.Context) error, error) {
	switch cfg.Metrics {
	case "prometheus":
		registry := prometheus.NewRegistry()
		exporter, err := promexporter.New(promexporter.WithRegisterer(registry))
		if err != nil {
			return nil, nil, fmt.Errorf("create prometheus exporter: %w", err)
		}
		stop, err := serveMetrics(cfg.PrometheusAddr, registry, logger)
		if err != nil {
			return nil, nil, err
		}
		return metric.NewMeterProvider(
			metric.WithResource(res),
			metric.WithReader(exporter),
		), stop, nil

	case "stdout":
		exporter, err := stdoutmetric.New(stdoutmetric.WithPrettyPrint())
		if err != nil {
			return nil, nil, fmt.Errorf("create stdout metric exporter: %w", err)
		}
		return metric.NewMeterProvider(
			metric.WithResource(res),
			metric.WithReader(metric.NewPeriodicReader(exporter)),
		), nil, nil

	default:
		return nil, nil, fmt.Errorf("%w: %s", ErrUnknownExporter, cfg.Metrics)
	}
}

func serveMetrics(addr string, registry *prometheus.Registry, logger *zap.Logger) (func(context.Context) error, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	srv := &http.Server{Handler: mux}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("metrics server stopped", zap.Error(err))
		}
	}()
	logger.Info("serving metrics", zap.String("addr", ln.Addr().String()))
	return srv.Shutdown, nil
}
