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
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/AleutianAI/ConceptOSS/services/oss/config"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

// requestYAML is a two-schema request whose table is valid.
const requestYAML = `schemas:
  - id: 1
    alias: S1
    items:
      - {id: 11, alias: X1, cst_type: basic, cst_class: basic, parse: {status: verified, typification: "ℬ(X1)"}}
      - {id: 12, alias: X2, cst_type: basic, cst_class: basic, parse: {status: verified, typification: "ℬ(X2)"}}
  - id: 2
    alias: S2
    items:
      - {id: 21, alias: X1, cst_type: basic, cst_class: basic, parse: {status: verified, typification: "ℬ(X1)"}}
      - {id: 22, alias: C1, cst_type: constant, cst_class: basic, parse: {status: verified, typification: "ℬ(C1)"}}
substitutions:
  - {original: 11, substitution: 21}
`

// invalidRequestYAML substitutes a base set by a constant set.
const invalidRequestYAML = `schemas:
  - id: 1
    alias: S1
    items:
      - {id: 11, alias: X1, cst_type: basic, cst_class: basic, parse: {status: verified, typification: "ℬ(X1)"}}
  - id: 2
    alias: S2
    items:
      - {id: 22, alias: C1, cst_type: constant, cst_class: basic, parse: {status: verified, typification: "ℬ(C1)"}}
substitutions:
  - {original: 11, substitution: 22}
`

// payloadYAML is a two-operation OSS with one owned input.
const payloadYAML = `oss:
  id: 1
  alias: OSS1
  owner: 7
  location: /U
  operations:
    - {id: 1, alias: A, operation_type: input, result: 10}
    - {id: 2, alias: B, operation_type: synthesis, result: 20}
  blocks: []
  arguments:
    - {operation: 2, argument: 1}
  substitutions: []
  layout: {operations: [], blocks: []}
library:
  - {id: 10, alias: A, owner: 7, location: /U, visible: true}
`

// relocateYAML moves constituents from operation 1 into its direct consumer.
const relocateYAML = `oss:
  id: 1
  alias: OSS1
  location: /U
  operations:
    - {id: 1, alias: A, operation_type: input, result: 10}
    - {id: 2, alias: B, operation_type: synthesis, result: 20}
  arguments:
    - {operation: 2, argument: 1}
library: []
schema:
  id: 10
  alias: A
  items:
    - {id: 101, alias: X1, cst_type: basic, cst_class: basic}
    - {id: 102, alias: D1, cst_type: term, cst_class: derived, definition_formal: X1}
  graph:
    - {from: 101, to: 102}
source: 1
destination: 2
`

// writeFile writes content to name inside a fresh temp dir.
func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// newTestSession builds a quiet, uncolored session writing to a buffer.
func newTestSession(t *testing.T, format string) (*session, *bytes.Buffer) {
	t.Helper()
	out := &bytes.Buffer{}
	cfg := config.DefaultConfig()
	cfg.Output.Format = format
	cfg.Output.Color = "never"
	cfg.Logging.Quiet = true

	cmd := &cobra.Command{}
	cmd.SetOut(out)
	cmd.SetErr(io.Discard)
	rt, err := newSession(cmd, cfg)
	require.NoError(t, err)
	t.Cleanup(rt.Close)
	return rt, out
}
