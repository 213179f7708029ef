package attractors

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

var (
	tracer = otel.Tracer("boolnet.attractors")
	meter  = otel.Meter("boolnet.attractors")
)

var (
	oracleCalls     metric.Int64Counter
	oracleLatency   metric.Float64Histogram
	witnessAttempts metric.Int64Counter
	decisions       metric.Int64Counter

	metricsOnce sync.Once
	metricsErr  error
)

// initMetrics initializes the instruments. Safe to call multiple times.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		oracleCalls, err = meter.Int64Counter(
			"boolnet_oracle_calls_total",
			metric.WithDescription("Model checker and trap space solver invocations"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		oracleLatency, err = meter.Float64Histogram(
			"boolnet_oracle_duration_seconds",
			metric.WithDescription("Duration of oracle invocations"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		witnessAttempts, err = meter.Int64Counter(
			"boolnet_witness_attempts_total",
			metric.WithDescription("Random walks tried while searching attractor states"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		decisions, err = meter.Int64Counter(
			"boolnet_decisions_total",
			metric.WithDescription("Finished decision procedures by outcome"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

func recordOracleCall(ctx context.Context, oracle string, d time.Duration, err error) {
	if initMetrics() != nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("oracle", oracle),
		attribute.Bool("success", err == nil),
	)
	oracleCalls.Add(ctx, 1, attrs)
	oracleLatency.Record(ctx, d.Seconds(), attrs)
}

func recordWitnessAttempt(ctx context.Context, found bool) {
	if initMetrics() != nil {
		return
	}
	witnessAttempts.Add(ctx, 1, metric.WithAttributes(attribute.Bool("found", found)))
}

func recordDecision(ctx context.Context, procedure string, holds bool) {
	if initMetrics() != nil {
		return
	}
	decisions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("procedure", procedure),
		attribute.Bool("holds", holds),
	))
}

// endSpan closes span, recording err if the procedure failed.
func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
