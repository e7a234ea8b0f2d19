package host

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/wippyai/wasm-http/host"

// Span and metric names.
const (
	SpanRun           = "wasmhttp.run"
	SpanGuest         = "wasmhttp.guest"
	MetricInvocations = "wasmhttp.invocations"
	MetricDuration    = "wasmhttp.duration"
)

type telemetry struct {
	tracer      trace.Tracer
	invocations metric.Int64Counter
	duration    metric.Float64Histogram
}

func newTelemetry(cfg *Config) *telemetry {
	tp := cfg.TracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	mp := cfg.MeterProvider
	if mp == nil {
		mp = otel.GetMeterProvider()
	}

	t := &telemetry{tracer: tp.Tracer(instrumentationName)}
	meter := mp.Meter(instrumentationName)

	var err error
	t.invocations, err = meter.Int64Counter(MetricInvocations,
		metric.WithUnit("{invocation}"),
		metric.WithDescription("Number of chain runs"),
	)
	if err != nil {
		otel.Handle(err)
	}
	t.duration, err = meter.Float64Histogram(MetricDuration,
		metric.WithUnit("s"),
		metric.WithDescription("Duration of chain runs"),
	)
	if err != nil {
		otel.Handle(err)
	}
	return t
}

// runToken tracks one Instance.Run.
type runToken struct {
	span  trace.Span
	start time.Time
}

func (t *telemetry) startRun(ctx context.Context, chain []string) (context.Context, *runToken) {
	ctx, span := t.tracer.Start(ctx, SpanRun,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.Int("wasmhttp.chain.length", len(chain)),
			attribute.StringSlice("wasmhttp.chain.modules", chain),
		),
	)
	return ctx, &runToken{span: span, start: time.Now()}
}

func (t *telemetry) endRun(ctx context.Context, tok *runToken, result string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}

	attrs := metric.WithAttributes(attribute.String("outcome", outcome))
	if t.invocations != nil {
		t.invocations.Add(ctx, 1, attrs)
	}
	if t.duration != nil {
		t.duration.Record(ctx, time.Since(tok.start).Seconds(), attrs)
	}

	tok.span.SetAttributes(attribute.String("wasmhttp.result", result))
	if err != nil {
		tok.span.RecordError(err)
		tok.span.SetStatus(codes.Error, err.Error())
	} else {
		tok.span.SetStatus(codes.Ok, "")
	}
	tok.span.End()
}

func (t *telemetry) startGuest(ctx context.Context, module string, index, inputSize int) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, SpanGuest,
		trace.WithAttributes(
			attribute.String("wasmhttp.module", module),
			attribute.Int("wasmhttp.index", index),
			attribute.Int("wasmhttp.input.size", inputSize),
		),
	)
}

func endGuest(span trace.Span, outputSize int, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetAttributes(attribute.Int("wasmhttp.output.size", outputSize))
	}
	span.End()
}
