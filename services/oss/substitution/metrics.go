// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package substitution

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Package-level tracer and meter for substitution validation.
var (
	tracer = otel.Tracer("conceptoss.substitution")
	meter  = otel.Meter("conceptoss.substitution")
)

// Metrics for substitution validation.
var (
	validationTotal   metric.Int64Counter
	validationLatency metric.Float64Histogram
	suggestionsFound  metric.Int64Histogram

	metricsOnce sync.Once
	metricsErr  error
)

// initMetrics initializes the metrics. Safe to call multiple times.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		validationTotal, err = meter.Int64Counter(
			"oss_validation_total",
			metric.WithDescription("Total number of substitution validations"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		validationLatency, err = meter.Float64Histogram(
			"oss_validation_duration_seconds",
			metric.WithDescription("Duration of substitution validation"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		suggestionsFound, err = meter.Int64Histogram(
			"oss_validation_suggestions",
			metric.WithDescription("Number of suggested pairs per validation"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

// startValidateSpan creates a span for a validation.
func startValidateSpan(ctx context.Context, schemas, pairs int) (context.Context, trace.Span) {
	return tracer.Start(ctx, "substitution.Validate",
		trace.WithAttributes(
			attribute.Int("substitution.schemas", schemas),
			attribute.Int("substitution.pairs", pairs),
		),
	)
}

// setValidateSpanResult sets the result attributes on a validation span.
func setValidateSpanResult(span trace.Span, result Result) {
	span.SetAttributes(
		attribute.Bool("substitution.valid", result.Valid),
		attribute.Int("substitution.issues", len(result.Issues)),
		attribute.Int("substitution.suggestions", len(result.Suggestions)),
	)
}

// resultKind labels a result by its fatal issue, or "none".
func resultKind(result Result) string {
	for _, issue := range result.Issues {
		if issue.Kind.Fatal() {
			return issue.Kind.String()
		}
	}
	return "none"
}

// recordValidateMetrics records metrics for a validation.
func recordValidateMetrics(ctx context.Context, duration time.Duration, result Result) {
	if err := initMetrics(); err != nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.Bool("valid", result.Valid),
		attribute.String("kind", resultKind(result)),
	)
	validationTotal.Add(ctx, 1, attrs)
	validationLatency.Record(ctx, duration.Seconds(), metric.WithAttributes(attribute.Bool("valid", result.Valid)))
	suggestionsFound.Record(ctx, int64(len(result.Suggestions)))
}
