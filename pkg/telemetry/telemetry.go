// Package telemetry records contract checking metrics with OpenTelemetry.
//
// Without a configured meter provider the global no-op provider is used, so
// recording is always safe and costs a few atomic loads.
package telemetry

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/Mindburn-Labs/dbc"

// Outcomes of a check.
const (
	OutcomePassed   = "passed"
	OutcomeViolated = "violated"
	OutcomeFailed   = "failed"
)

// Recorder holds the instruments of the contract engine.
type Recorder struct {
	checks       metric.Int64Counter
	violations   metric.Int64Counter
	suppressions metric.Int64Counter
	duration     metric.Float64Histogram
}

// NewRecorder creates the instruments on mp.
func NewRecorder(mp metric.MeterProvider) (*Recorder, error) {
	meter := mp.Meter(instrumentationName)
	r := &Recorder{}
	var err error

	r.checks, err = meter.Int64Counter("dbc.checks.total",
		metric.WithDescription("Contract checks performed"),
		metric.WithUnit("{check}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create checks counter: %w", err)
	}

	r.violations, err = meter.Int64Counter("dbc.violations.total",
		metric.WithDescription("Contracts found not to hold"),
		metric.WithUnit("{violation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create violations counter: %w", err)
	}

	r.suppressions, err = meter.Int64Counter("dbc.suppressions.total",
		metric.WithDescription("Checks skipped because the same check was already in progress"),
		metric.WithUnit("{check}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create suppressions counter: %w", err)
	}

	r.duration, err = meter.Float64Histogram("dbc.check.duration",
		metric.WithDescription("Time spent evaluating the contracts of one call"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.00001, 0.0001, 0.001, 0.01, 0.1, 1),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create duration histogram: %w", err)
	}

	return r, nil
}

var (
	defaultOnce     sync.Once
	defaultRecorder *Recorder
)

// Default returns a recorder on the global meter provider. Instruments
// created on the global provider follow it when it is replaced later.
func Default() *Recorder {
	defaultOnce.Do(func() {
		r, err := NewRecorder(otel.GetMeterProvider())
		if err != nil {
			r = &Recorder{}
		}
		defaultRecorder = r
	})
	return defaultRecorder
}

// Check records one evaluated contract. kind is the contract kind and subject
// the checked function or class.
func (r *Recorder) Check(ctx context.Context, kind, subject, outcome string) {
	if r == nil || r.checks == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("dbc.kind", kind),
		attribute.String("dbc.subject", subject),
		attribute.String("dbc.outcome", outcome),
	)
	r.checks.Add(ctx, 1, attrs)
	if outcome == OutcomeViolated {
		r.violations.Add(ctx, 1, attrs)
	}
}

// Violation records a violated contract and marks the active span, if any.
func (r *Recorder) Violation(ctx context.Context, kind, subject, location string) {
	r.Check(ctx, kind, subject, OutcomeViolated)
	span := trace.SpanFromContext(ctx)
	if span.IsRecording() {
		span.AddEvent("dbc.violation", trace.WithAttributes(
			attribute.String("dbc.kind", kind),
			attribute.String("dbc.subject", subject),
			attribute.String("dbc.location", location),
		))
	}
}

// Suppressed records a check skipped by the recursion guard.
func (r *Recorder) Suppressed(ctx context.Context, subject string) {
	if r == nil || r.suppressions == nil {
		return
	}
	r.suppressions.Add(ctx, 1, metric.WithAttributes(attribute.String("dbc.subject", subject)))
}

// Duration records the time spent checking the contracts of one call.
func (r *Recorder) Duration(ctx context.Context, subject string, d time.Duration) {
	if r == nil || r.duration == nil {
		return
	}
	r.duration.Record(ctx, d.Seconds(), metric.WithAttributes(attribute.String("dbc.subject", subject)))
}
