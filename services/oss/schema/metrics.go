// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package schema

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Package-level tracer and meter for assembly.
var (
	tracer = otel.Tracer("conceptoss.schema")
	meter  = otel.Meter("conceptoss.schema")
)

// Metrics for assembly.
var (
	assembleTotal   metric.Int64Counter
	assembleLatency metric.Float64Histogram

	metricsOnce sync.Once
	metricsErr  error
)

// initMetrics initializes the metrics. Safe to call multiple times.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		assembleTotal, err = meter.Int64Counter(
			"oss_assemble_total",
			metric.WithDescription("Total number of OSS assemblies"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		assembleLatency, err = meter.Float64Histogram(
			"oss_assemble_duration_seconds",
			metric.WithDescription("Duration of OSS assembly"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

// startAssembleSpan creates a span for an assembly.
func startAssembleSpan(ctx context.Context, payload *Payload) (context.Context, trace.Span) {
	return tracer.Start(ctx, "schema.Assemble",
		trace.WithAttributes(
			attribute.Int("oss.id", payload.ID),
			attribute.Int("oss.operations", len(payload.Operations)),
			attribute.Int("oss.blocks", len(payload.Blocks)),
		),
	)
}

// setAssembleSpanResult sets the result attributes on an assembly span.
func setAssembleSpanResult(span trace.Span, stats Stats) {
	span.SetAttributes(
		attribute.Int("oss.schemas", stats.CountSchemas),
		attribute.Int("oss.owned", stats.CountOwned),
	)
}

// recordAssembleMetrics records metrics for an assembly.
func recordAssembleMetrics(ctx context.Context, duration time.Duration, success bool) {
	if err := initMetrics(); err != nil {
		return
	}
	attrs := metric.WithAttributes(attribute.Bool("success", success))
	assembleTotal.Add(ctx, 1, attrs)
	assembleLatency.Record(ctx, duration.Seconds(), attrs)
}
