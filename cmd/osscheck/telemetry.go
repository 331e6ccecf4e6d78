// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// telemetryConfig controls which exporters are installed for one run.
type telemetryConfig struct {
	// ServiceName identifies the CLI in exported resources.
	ServiceName string

	// Textfile, when set, receives the Prometheus text exposition of all
	// metrics on shutdown.
	Textfile string

	// MetricsStdout prints metrics to Output on shutdown.
	MetricsStdout bool

	// Trace prints finished spans to Output.
	Trace bool

	// Output receives the stdout exporters. Default: io.Discard.
	Output io.Writer
}

// telemetry owns the providers installed for one CLI run.
type telemetry struct {
	registry       *prometheus.Registry
	meterProvider  *sdkmetric.MeterProvider
	tracerProvider *sdktrace.TracerProvider
	textfile       string
}

// initTelemetry installs the global meter and tracer providers.
//
// Description:
//
//	Metrics are always collected into a private Prometheus registry through
//	the OTel Prometheus exporter, so a textfile can be written at the end of
//	a batch run. The stdout exporters are opt-in. Spans are only recorded
//	when Trace is set.
//
// Outputs:
//
//	*telemetry - Call Shutdown before exit.
//	error - Non-nil if an exporter could not be created.
//
// Thread Safety: Call once per process.
func initTelemetry(cfg telemetryConfig) (*telemetry, error) {
	if cfg.Output == nil {
		cfg.Output = io.Discard
	}
	res := resource.NewSchemaless(attribute.String("service.name", cfg.ServiceName))

	registry := prometheus.NewRegistry()
	promExp, err := promexporter.New(promexporter.WithRegisterer(registry))
	if err != nil {
		return nil, fmt.Errorf("create prometheus exporter: %w", err)
	}
	metricOpts := []sdkmetric.Option{
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(promExp),
	}
	if cfg.MetricsStdout {
		stdoutExp, err := stdoutmetric.New(stdoutmetric.WithWriter(cfg.Output), stdoutmetric.WithPrettyPrint())
		if err != nil {
			return nil, fmt.Errorf("create stdout metric exporter: %w", err)
		}
		metricOpts = append(metricOpts, sdkmetric.WithReader(sdkmetric.NewPeriodicReader(stdoutExp)))
	}

	t := &telemetry{
		registry:      registry,
		meterProvider: sdkmetric.NewMeterProvider(metricOpts...),
		textfile:      cfg.Textfile,
	}
	otel.SetMeterProvider(t.meterProvider)

	if cfg.Trace {
		traceExp, err := stdouttrace.New(stdouttrace.WithWriter(cfg.Output), stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, fmt.Errorf("create stdout trace exporter: %w", err)
		}
		t.tracerProvider = sdktrace.NewTracerProvider(
			sdktrace.WithSyncer(traceExp),
			sdktrace.WithResource(res),
		)
		otel.SetTracerProvider(t.tracerProvider)
	}
	return t, nil
}

// Shutdown writes the textfile, if configured, and flushes the providers.
//
// The textfile is written first because the Prometheus exporter stops
// serving collections once its provider is shut down.
func (t *telemetry) Shutdown(ctx context.Context) error {
	var errs []error
	if t.textfile != "" {
		if err := prometheus.WriteToTextfile(t.textfile, t.registry); err != nil {
			errs = append(errs, fmt.Errorf("write metrics textfile: %w", err))
		}
	}
	if err := t.meterProvider.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}
	if t.tracerProvider != nil {
		if err := t.tracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %v", errs)
	}
	return nil
}
