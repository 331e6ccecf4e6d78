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
	"os/signal"
	"syscall"
	"time"

	"github.com/AleutianAI/ConceptOSS/services/oss/config"
	"github.com/AleutianAI/ConceptOSS/services/oss/relocation"
	"github.com/AleutianAI/ConceptOSS/services/oss/schema"
	"github.com/AleutianAI/ConceptOSS/services/oss/substitution"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// errInvalidTables is returned by validate when any table is invalid, so
// the process exits non-zero.
var errInvalidTables = errors.New("one or more substitution tables are invalid")

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var (
	// Shared flags
	flagConfig        string
	flagFormat        string
	flagColor         string
	flagLogLevel      string
	flagLogDir        string
	flagMetricsFile   string
	flagMetricsStdout bool
	flagTrace         bool
	flagSemanticIndex int

	// Validate-specific
	flagConcurrency int

	// Watch-specific
	flagDebounce time.Duration
)

// =============================================================================
// COMMAND DEFINITIONS
// =============================================================================

var rootCmd = &cobra.Command{
	Use:   "osscheck",
	Short: "Inspect operation schemas and validate substitutions",
	Long: `osscheck works on operation schemas (OSS) exported to YAML, JSON or JSONC.

Subcommands:
  assemble  - Derive the full OSS model from a raw payload
  validate  - Check one or more substitution tables
  relocate  - List constituents that may move between two operations
  watch     - Re-validate a substitution table whenever it changes
  config    - Manage the osscheck config file

Examples:
  osscheck assemble oss.yaml
  osscheck validate table1.yaml table2.json --format json
  osscheck relocate move.yaml
  osscheck watch table.jsonc`,
	SilenceUsage: true,
}

var assembleCmd = &cobra.Command{
	Use:   "assemble PAYLOAD",
	Short: "Derive the full OSS model from a raw payload",
	Long: `Builds the dependency and containment graphs of an OSS payload and
prints every derived operation and block with aggregate statistics.

The payload file holds two keys: "oss" (the raw schema) and "library"
(the library items visible to the current user).`,
	Args: cobra.ExactArgs(1),
	RunE: withSession(runAssemble),
}

var validateCmd = &cobra.Command{
	Use:   "validate REQUEST...",
	Short: "Check one or more substitution tables",
	Long: `Validates each request file independently and concurrently. A request
holds the referenced schemas and the proposed substitution pairs.

Exits non-zero if any table is invalid.`,
	Args: cobra.MinimumNArgs(1),
	RunE: withSession(runValidate),
}

var relocateCmd = &cobra.Command{
	Use:   "relocate REQUEST",
	Short: "List constituents that may move between two operations",
	Args:  cobra.ExactArgs(1),
	RunE:  withSession(runRelocate),
}

var watchCmd = &cobra.Command{
	Use:   "watch REQUEST",
	Short: "Re-validate a substitution table whenever it changes",
	Long: `Validates REQUEST, then watches it and validates again after each
save. Unchanged content is not re-validated. Stop with Ctrl-C.`,
	Args: cobra.ExactArgs(1),
	RunE: withSession(runWatch),
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the osscheck config file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default config file if none exists",
	Args:  cobra.NoArgs,
	RunE:  runConfigInit,
}

// =============================================================================
// COMMAND INITIALIZATION
// =============================================================================

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagConfig, "config", "",
		"Config file (default ~/.conceptoss/osscheck.yaml)")
	pf.StringVar(&flagFormat, "format", formatText,
		"Output format: text, json, yaml")
	pf.StringVar(&flagColor, "color", "auto",
		"Color output: auto, always, never")
	pf.StringVar(&flagLogLevel, "log-level", "info",
		"Log level: debug, info, warn, error")
	pf.StringVar(&flagLogDir, "log-dir", "",
		"Also write JSON logs to this directory")
	pf.StringVar(&flagMetricsFile, "metrics-file", "",
		"Write Prometheus metrics to this textfile on exit")
	pf.BoolVar(&flagMetricsStdout, "metrics-stdout", false,
		"Print metrics to stderr on exit")
	pf.BoolVar(&flagTrace, "trace", false,
		"Print spans to stderr")
	pf.IntVar(&flagSemanticIndex, "semantic-index", substitution.DefaultSemanticIndex,
		"Starting index for synthetic constituent aliases")

	validateCmd.Flags().IntVar(&flagConcurrency, "concurrency", 4,
		"Maximum number of tables validated at once")
	watchCmd.Flags().DurationVar(&flagDebounce, "debounce", defaultDebounce,
		"Quiet period after a change before re-validating")

	configCmd.AddCommand(configInitCmd)

	rootCmd.AddCommand(assembleCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(relocateCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(configCmd)
}

// =============================================================================
// COMMAND IMPLEMENTATIONS
// =============================================================================

// runAssemble assembles one payload file and renders the model.
func runAssemble(ctx context.Context, rt *session, args []string) error {
	var input AssembleInput
	if err := decodeFile(args[0], &input); err != nil {
		return err
	}
	model, err := schema.Assemble(ctx, &input.OSS, input.Library, rt.cfg.AssembleOptions(rt.log.Slog())...)
	if err != nil {
		return fmt.Errorf("assemble %s: %w", args[0], err)
	}
	rt.log.Info("Assembled OSS", "alias", model.Alias, "operations", model.Stats.CountAll)
	return rt.reporter.model(model)
}

// runValidate validates every request file and renders the batch.
func runValidate(ctx context.Context, rt *session, args []string) error {
	reports, err := validateFiles(ctx, rt, args, flagConcurrency)
	if err != nil {
		return err
	}
	if err := rt.reporter.validations(reports); err != nil {
		return err
	}
	for _, rep := range reports {
		if !rep.Result.Valid {
			return errInvalidTables
		}
	}
	return nil
}

// validateFiles loads and validates each path concurrently.
//
// Description:
//
//	Reports are returned in argument order regardless of completion order.
//	The first load or build error cancels the remaining work.
//
// Inputs:
//
//	ctx - Context for cancellation.
//	rt - Session providing config and logger.
//	paths - Request files.
//	limit - Maximum concurrent validations; values below 1 mean 1.
//
// Outputs:
//
//	[]validationReport - One report per path.
//	error - The first load or build error.
func validateFiles(ctx context.Context, rt *session, paths []string, limit int) ([]validationReport, error) {
	if limit < 1 {
		limit = 1
	}
	reports := make([]validationReport, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			var req substitution.Request
			if err := decodeFile(path, &req); err != nil {
				return err
			}
			report, err := validateRequest(gctx, rt, path, &req)
			if err != nil {
				return err
			}
			reports[i] = report
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}

// validateRequest validates one decoded request.
func validateRequest(ctx context.Context, rt *session, path string, req *substitution.Request) (validationReport, error) {
	fingerprint, err := req.Fingerprint()
	if err != nil {
		return validationReport{}, err
	}
	v, err := req.Build(rt.cfg.ValidatorOptions(rt.log.Slog())...)
	if err != nil {
		return validationReport{}, fmt.Errorf("%s: %w", path, err)
	}
	result := v.Validate(ctx)
	rt.log.Info("Validated substitution table",
		"path", path,
		"valid", result.Valid,
		"issues", len(result.Issues),
		"suggestions", len(result.Suggestions),
	)
	return validationReport{Path: path, Fingerprint: fingerprint, Result: result}, nil
}

// runRelocate computes relocation candidates for one request file.
func runRelocate(ctx context.Context, rt *session, args []string) error {
	var req relocation.Request
	if err := decodeFile(args[0], &req); err != nil {
		return err
	}
	candidates, err := req.Run(ctx, rt.cfg.AssembleOptions(rt.log.Slog())...)
	if err != nil {
		return fmt.Errorf("relocate %s: %w", args[0], err)
	}
	rt.log.Info("Computed relocation candidates",
		"source", req.Source,
		"destination", req.Destination,
		"count", len(candidates),
	)
	return rt.reporter.candidates(candidates)
}

// runWatch validates a request file on every content change until
// interrupted.
func runWatch(ctx context.Context, rt *session, args []string) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	path := args[0]
	rt.log.Info("Watching substitution table", "path", path)
	return watchFile(ctx, path, flagDebounce, rt.log.Slog(), revalidator(rt, path))
}

// revalidator returns a change handler that skips content it has already
// validated.
func revalidator(rt *session, path string) changeHandler {
	var last string
	return func(ctx context.Context) error {
		var req substitution.Request
		if err := decodeFile(path, &req); err != nil {
			return err
		}
		fingerprint, err := req.Fingerprint()
		if err != nil {
			return err
		}
		if fingerprint == last {
			rt.log.Debug("Content unchanged", "path", path)
			return nil
		}
		report, err := validateRequest(ctx, rt, path, &req)
		if err != nil {
			return err
		}
		last = fingerprint
		return rt.reporter.validations([]validationReport{report})
	}
}

// runConfigInit writes the default config unless one exists.
func runConfigInit(cmd *cobra.Command, _ []string) error {
	path, err := configPath()
	if err != nil {
		return err
	}
	if _, err := config.LoadOrCreate(path); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), path)
	return nil
}
