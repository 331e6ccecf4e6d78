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
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/AleutianAI/ConceptOSS/services/oss/config"
	"github.com/AleutianAI/ConceptOSS/services/oss/substitution"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateFiles_OrderAndResults(t *testing.T) {
	rt, _ := newTestSession(t, formatText)
	valid := writeFile(t, "valid.yaml", requestYAML)
	invalid := writeFile(t, "invalid.yaml", invalidRequestYAML)

	reports, err := validateFiles(context.Background(), rt, []string{invalid, valid, invalid}, 2)
	require.NoError(t, err)
	require.Len(t, reports, 3)

	assert.Equal(t, invalid, reports[0].Path)
	assert.False(t, reports[0].Result.Valid)
	require.Len(t, reports[0].Result.Issues, 1)
	assert.Equal(t, substitution.InvalidConstant, reports[0].Result.Issues[0].Kind)

	assert.Equal(t, valid, reports[1].Path)
	assert.True(t, reports[1].Result.Valid, reports[1].Result.Message)

	assert.Equal(t, reports[0].Fingerprint, reports[2].Fingerprint)
	assert.NotEqual(t, reports[0].Fingerprint, reports[1].Fingerprint)
	assert.Len(t, reports[1].Fingerprint, 64)
}

func TestValidateFiles_LoadError(t *testing.T) {
	rt, _ := newTestSession(t, formatText)
	valid := writeFile(t, "valid.yaml", requestYAML)

	_, err := validateFiles(context.Background(), rt, []string{valid, "/nonexistent/x.yaml"}, 0)
	assert.Error(t, err)
}

func TestRunValidate(t *testing.T) {
	t.Run("valid tables succeed", func(t *testing.T) {
		rt, out := newTestSession(t, formatText)
		err := runValidate(context.Background(), rt, []string{writeFile(t, "a.yaml", requestYAML)})

		require.NoError(t, err)
		assert.Contains(t, out.String(), "OK: "+substitution.MsgSuccess)
		assert.Contains(t, out.String(), "SUMMARY: valid=1 invalid=0 total=1")
	})

	t.Run("any invalid table fails", func(t *testing.T) {
		rt, out := newTestSession(t, formatJSON)
		err := runValidate(context.Background(), rt, []string{
			writeFile(t, "a.yaml", requestYAML),
			writeFile(t, "b.yaml", invalidRequestYAML),
		})

		assert.ErrorIs(t, err, errInvalidTables)
		var summary validationSummary
		require.NoError(t, json.Unmarshal(out.Bytes(), &summary))
		assert.Equal(t, 1, summary.Valid)
		assert.Equal(t, 1, summary.Invalid)
		assert.Len(t, summary.Reports, 2)
	})
}

func TestRunAssemble(t *testing.T) {
	rt, out := newTestSession(t, formatText)
	require.NoError(t, runAssemble(context.Background(), rt, []string{writeFile(t, "oss.yaml", payloadYAML)}))

	text := out.String()
	assert.Contains(t, text, "operations\t2\n")
	assert.Contains(t, text, "inputs\t1\n")
	assert.Contains(t, text, "owned\t1\n")
	assert.Contains(t, text, "B [synthesis]\targs 1; not owned\n")
}

func TestRunAssemble_InvalidPayload(t *testing.T) {
	rt, _ := newTestSession(t, formatText)
	payload := "oss:\n  id: 1\n  location: /U\n  operations:\n    - {id: 1, operation_type: input}\n  arguments:\n    - {operation: 1, argument: 9}\n"

	err := runAssemble(context.Background(), rt, []string{writeFile(t, "oss.yaml", payload)})
	assert.Error(t, err)
}

func TestRunRelocate(t *testing.T) {
	rt, out := newTestSession(t, formatJSON)
	require.NoError(t, runRelocate(context.Background(), rt, []string{writeFile(t, "move.yaml", relocateYAML)}))

	var got []struct {
		ID    int    `json:"id"`
		Alias string `json:"alias"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "X1", got[0].Alias)
	assert.Equal(t, 102, got[1].ID)
}

func TestRevalidator_SkipsUnchangedContent(t *testing.T) {
	rt, out := newTestSession(t, formatText)
	path := writeFile(t, "table.yaml", requestYAML)
	handler := revalidator(rt, path)

	require.NoError(t, handler(context.Background()))
	first := out.Len()
	assert.Positive(t, first)

	require.NoError(t, handler(context.Background()))
	assert.Equal(t, first, out.Len(), "same content is not reported twice")

	require.NoError(t, os.WriteFile(path, []byte(invalidRequestYAML), 0o600))
	require.NoError(t, handler(context.Background()))
	assert.Greater(t, out.Len(), first)
	assert.Contains(t, out.String(), "SUMMARY: valid=0 invalid=1 total=1")
}

// resetFlags restores the package-level flag values after a test.
func resetFlags(t *testing.T) {
	t.Helper()
	saved := struct {
		config, format string
		index          int
	}{flagConfig, flagFormat, flagSemanticIndex}
	t.Cleanup(func() {
		flagConfig = saved.config
		flagFormat = saved.format
		flagSemanticIndex = saved.index
	})
}

func TestResolveConfig(t *testing.T) {
	t.Run("file then explicit flags", func(t *testing.T) {
		resetFlags(t)
		cfg := config.DefaultConfig()
		cfg.Output.Format = formatJSON
		cfg.Validation.SemanticIndex = 500
		path := filepath.Join(t.TempDir(), "osscheck.yaml")
		require.NoError(t, config.Save(path, cfg))
		flagConfig = path

		flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
		flags.StringVar(&flagFormat, "format", formatText, "")
		flags.IntVar(&flagSemanticIndex, "semantic-index", substitution.DefaultSemanticIndex, "")
		require.NoError(t, flags.Parse([]string{"--format", formatYAML}))

		got, err := resolveConfig(flags)
		require.NoError(t, err)
		assert.Equal(t, formatYAML, got.Output.Format, "set flag wins over file")
		assert.Equal(t, 500, got.Validation.SemanticIndex, "unset flag keeps file value")
	})

	t.Run("explicit config must exist", func(t *testing.T) {
		resetFlags(t)
		flagConfig = filepath.Join(t.TempDir(), "missing.yaml")

		_, err := resolveConfig(pflag.NewFlagSet("test", pflag.ContinueOnError))
		assert.Error(t, err)
	})

	t.Run("invalid flag value", func(t *testing.T) {
		resetFlags(t)
		flagConfig = writeFile(t, "osscheck.yaml", "meta:\n  version: \"1\"\n")

		flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
		flags.StringVar(&flagFormat, "format", formatText, "")
		require.NoError(t, flags.Parse([]string{"--format", "xml"}))

		_, err := resolveConfig(flags)
		assert.ErrorIs(t, err, config.ErrInvalidConfig)
	})
}
