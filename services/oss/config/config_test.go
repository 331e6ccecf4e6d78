// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := DefaultConfig()

	require.NoError(t, cfg.Validate())
	assert.Equal(t, 900, cfg.Validation.SemanticIndex)
	assert.Equal(t, 160.0, cfg.Layout.BlockMinWidth)
	assert.Equal(t, 100.0, cfg.Layout.BlockMinHeight)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadOrCreate(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".conceptoss", "osscheck.yaml")

	cfg, err := LoadOrCreate(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var written Config
	require.NoError(t, yaml.Unmarshal(data, &written))
	assert.Equal(t, CurrentConfigVersion, written.Meta.Version)
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "osscheck.yaml")
	require.NoError(t, os.WriteFile(path, []byte("validation:\n  semantic_index: 500\nlogging:\n  level: debug\n"), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 500, cfg.Validation.SemanticIndex)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Output.Format)
	assert.Equal(t, 160.0, cfg.Layout.BlockMinWidth)
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		content string
		invalid bool
	}{
		{name: "bad format", content: "output:\n  format: xml\n", invalid: true},
		{name: "bad color", content: "output:\n  color: sometimes\n", invalid: true},
		{name: "zero semantic index", content: "validation:\n  semantic_index: 0\n", invalid: true},
		{name: "negative block width", content: "layout:\n  block_min_width: -1\n", invalid: true},
		{name: "malformed yaml", content: "logging: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name+".yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0600))

			_, err := Load(path)
			require.Error(t, err)
			if tt.invalid {
				assert.ErrorIs(t, err, ErrInvalidConfig)
			} else {
				assert.NotErrorIs(t, err, ErrInvalidConfig)
			}
		})
	}

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(dir, "absent.yaml"))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})
}

func TestOptions(t *testing.T) {
	cfg := DefaultConfig()
	assert.Len(t, cfg.AssembleOptions(nil), 2)
	assert.Len(t, cfg.ValidatorOptions(slog.Default()), 2)
}
