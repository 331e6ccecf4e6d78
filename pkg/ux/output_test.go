// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package ux

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewPrinter_Modes(t *testing.T) {
	var buf bytes.Buffer

	assert.False(t, NewPrinter(&buf, ColorNever).Styled())
	assert.False(t, NewPrinter(&buf, ColorAuto).Styled(), "a buffer is not a terminal")
	assert.True(t, NewPrinter(&buf, ColorAlways).Styled())
}

func TestPrinter_Plain(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, ColorNever)

	p.Title("hidden title")
	p.Success("all good")
	p.Warning("careful")
	p.Error("broken")
	p.Info("note")
	p.Field("operations", 4)
	p.Item(IconError, "S1::X1", "invalidBasic")
	p.Box("Result", "line one\nline two")
	p.ErrorBox("Failure", "a\nb")
	p.Summary(2, 1, 3)

	want := strings.Join([]string{
		"OK: all good",
		"WARN: careful",
		"ERROR: broken",
		"note",
		"operations\t4",
		"✗\tS1::X1\tinvalidBasic",
		"Result: line one; line two",
		"ERROR Failure: a; b",
		"SUMMARY: valid=2 invalid=1 total=3",
	}, "\n") + "\n"
	assert.Equal(t, want, buf.String())
}

func TestPrinter_Styled(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, ColorAlways)

	p.Success("all good")
	p.Item(IconWarning, "S2::D1", "")
	p.Box("Result", "content")

	out := buf.String()
	assert.Contains(t, out, "all good")
	assert.Contains(t, out, "S2::D1")
	assert.Contains(t, out, "╭", "boxes use rounded borders")
	assert.Contains(t, out, "\x1b[", "true color output carries escape codes")
}

func TestPrinter_RenderPlainIcon(t *testing.T) {
	p := NewPrinter(&bytes.Buffer{}, ColorNever)
	assert.Equal(t, "→", p.Render(IconArrow))
	assert.Equal(t, "✓", p.Render(IconSuccess))
}
