// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package config holds the osscheck configuration: logging, validator and
// assembler tunables, output format and metrics export.
package config

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/AleutianAI/ConceptOSS/services/oss/schema"
	"github.com/AleutianAI/ConceptOSS/services/oss/substitution"
	"github.com/go-playground/validator/v10"
)

// CurrentConfigVersion is written to new config files.
const CurrentConfigVersion = "1"

// ErrInvalidConfig is returned when config values fail validation.
var ErrInvalidConfig = errors.New("invalid config")

var configValidate = validator.New()

type Config struct {
	Meta MetaConfig `yaml:"meta"`

	// Logging: where and how verbosely to log
	Logging LoggingConfig `yaml:"logging"`

	// Validation: substitution validator tunables
	Validation ValidationConfig `yaml:"validation"`

	// Layout: block geometry fallbacks used by the assembler
	Layout LayoutConfig `yaml:"layout"`

	// Output: report format for the CLI
	Output OutputConfig `yaml:"output"`

	// Metrics: optional Prometheus textfile export
	Metrics MetricsConfig `yaml:"metrics"`
}

type MetaConfig struct {
	Version string `yaml:"version"`
}

type LoggingConfig struct {
	Level string `yaml:"level" validate:"oneof=debug info warn error"`
	Dir   string `yaml:"dir,omitempty"` // e.g. ~/.conceptoss/logs
	JSON  bool   `yaml:"json"`
	Quiet bool   `yaml:"quiet"`
}

type ValidationConfig struct {
	SemanticIndex int `yaml:"semantic_index" validate:"gt=0"` // e.g. 900
}

type LayoutConfig struct {
	BlockMinWidth  float64 `yaml:"block_min_width" validate:"gte=0"`
	BlockMinHeight float64 `yaml:"block_min_height" validate:"gte=0"`
}

type OutputConfig struct {
	Format string `yaml:"format" validate:"oneof=text json yaml"`
	Color  string `yaml:"color" validate:"oneof=auto always never"`
}

type MetricsConfig struct {
	Textfile string `yaml:"textfile,omitempty"` // e.g. /var/lib/node_exporter/osscheck.prom
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() Config {
	return Config{
		Meta: MetaConfig{Version: CurrentConfigVersion},
		Logging: LoggingConfig{
			Level: "info",
		},
		Validation: ValidationConfig{
			SemanticIndex: substitution.DefaultSemanticIndex,
		},
		Layout: LayoutConfig{
			BlockMinWidth:  schema.DefaultBlockMinWidth,
			BlockMinHeight: schema.DefaultBlockMinHeight,
		},
		Output: OutputConfig{
			Format: "text",
			Color:  "auto",
		},
	}
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := configValidate.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// AssembleOptions returns the assembler options for this config.
func (c *Config) AssembleOptions(logger *slog.Logger) []schema.Option {
	return []schema.Option{
		schema.WithBlockMinSize(c.Layout.BlockMinWidth, c.Layout.BlockMinHeight),
		schema.WithLogger(logger),
	}
}

// ValidatorOptions returns the substitution validator options for this
// config.
func (c *Config) ValidatorOptions(logger *slog.Logger) []substitution.Option {
	return []substitution.Option{
		substitution.WithSemanticIndex(c.Validation.SemanticIndex),
		substitution.WithLogger(logger),
	}
}
