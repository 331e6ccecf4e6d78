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
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/AleutianAI/ConceptOSS/pkg/logging"
	"github.com/AleutianAI/ConceptOSS/pkg/ux"
	"github.com/AleutianAI/ConceptOSS/services/oss/config"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const serviceName = "osscheck"

// shutdownTimeout bounds telemetry flushing on exit.
const shutdownTimeout = 5 * time.Second

// session is the per-invocation state shared by all commands.
type session struct {
	cfg       config.Config
	root      *logging.Logger
	log       *logging.Logger
	runID     string
	reporter  *reporter
	telemetry *telemetry
}

// commandFunc is a command body that receives a ready session.
type commandFunc func(ctx context.Context, rt *session, args []string) error

// withSession adapts a commandFunc to cobra's RunE, setting up config,
// logging and telemetry before the call and tearing them down after.
func withSession(fn commandFunc) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg, err := resolveConfig(cmd.Flags())
		if err != nil {
			return err
		}
		rt, err := newSession(cmd, cfg)
		if err != nil {
			return err
		}
		defer rt.Close()

		rt.log.Debug("Starting command", "command", cmd.Name(), "args", args)
		return fn(cmd.Context(), rt, args)
	}
}

// newSession builds the logger, telemetry and reporter for cfg.
func newSession(cmd *cobra.Command, cfg config.Config) (*session, error) {
	stderr := cmd.ErrOrStderr()
	root := logging.New(logging.Config{
		Level:   logging.ParseLevel(cfg.Logging.Level),
		LogDir:  cfg.Logging.Dir,
		Service: serviceName,
		JSON:    cfg.Logging.JSON,
		Quiet:   cfg.Logging.Quiet,
		Output:  stderr,
	})
	log, runID := root.WithRunID()

	tel, err := initTelemetry(telemetryConfig{
		ServiceName:   serviceName,
		Textfile:      cfg.Metrics.Textfile,
		MetricsStdout: flagMetricsStdout,
		Trace:         flagTrace,
		Output:        stderr,
	})
	if err != nil {
		root.Close()
		return nil, err
	}

	out := cmd.OutOrStdout()
	printer := ux.NewPrinter(out, ux.ColorMode(cfg.Output.Color))
	return &session{
		cfg:       cfg,
		root:      root,
		log:       log,
		runID:     runID,
		reporter:  newReporter(cfg.Output.Format, out, printer),
		telemetry: tel,
	}, nil
}

// Close flushes telemetry and closes the log file.
func (rt *session) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := rt.telemetry.Shutdown(ctx); err != nil {
		rt.log.Warn("Telemetry shutdown failed", "error", err)
	}
	if err := rt.root.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "osscheck: %v\n", err)
	}
}

// configPath returns the --config value or the default location.
func configPath() (string, error) {
	if flagConfig != "" {
		return flagConfig, nil
	}
	return config.DefaultPath()
}

// resolveConfig layers defaults, the config file and explicitly set flags.
//
// Description:
//
//	An explicit --config must exist. The default location is optional.
//	Only flags the user actually set override file values.
//
// Outputs:
//
//	config.Config - The validated effective config.
//	error - Load errors or config.ErrInvalidConfig.
func resolveConfig(flags *pflag.FlagSet) (config.Config, error) {
	cfg := config.DefaultConfig()
	path, err := configPath()
	if err != nil {
		return cfg, err
	}
	if _, statErr := os.Stat(path); statErr == nil || flagConfig != "" {
		cfg, err = config.Load(path)
		if err != nil {
			return cfg, err
		}
	} else if !errors.Is(statErr, os.ErrNotExist) {
		return cfg, fmt.Errorf("failed to stat the config file: %w", statErr)
	}

	if flags.Changed("format") {
		cfg.Output.Format = flagFormat
	}
	if flags.Changed("color") {
		cfg.Output.Color = flagColor
	}
	if flags.Changed("log-level") {
		cfg.Logging.Level = flagLogLevel
	}
	if flags.Changed("log-dir") {
		cfg.Logging.Dir = flagLogDir
	}
	if flags.Changed("metrics-file") {
		cfg.Metrics.Textfile = flagMetricsFile
	}
	if flags.Changed("semantic-index") {
		cfg.Validation.SemanticIndex = flagSemanticIndex
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}
