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
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/AleutianAI/ConceptOSS/pkg/ux"
	"github.com/AleutianAI/ConceptOSS/services/oss/rsform"
	"github.com/AleutianAI/ConceptOSS/services/oss/schema"
	"github.com/AleutianAI/ConceptOSS/services/oss/substitution"
	"gopkg.in/yaml.v3"
)

// Output formats accepted by --format.
const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
)

// validationReport is the outcome for one request file.
type validationReport struct {
	Path        string              `json:"path" yaml:"path"`
	Fingerprint string              `json:"fingerprint" yaml:"fingerprint"`
	Result      substitution.Result `json:"result" yaml:"result"`
}

// validationSummary is the machine-readable output of the validate command.
type validationSummary struct {
	Reports []validationReport `json:"reports" yaml:"reports"`
	Valid   int                `json:"valid" yaml:"valid"`
	Invalid int                `json:"invalid" yaml:"invalid"`
}

// reporter renders command results in the configured format.
type reporter struct {
	format  string
	out     io.Writer
	printer *ux.Printer
}

func newReporter(format string, out io.Writer, printer *ux.Printer) *reporter {
	return &reporter{format: format, out: out, printer: printer}
}

// encode writes v as indented JSON or YAML.
func (r *reporter) encode(v any) error {
	switch r.format {
	case formatJSON:
		enc := json.NewEncoder(r.out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case formatYAML:
		enc := yaml.NewEncoder(r.out)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("%w: %q", errUnsupportedFormat, r.format)
	}
}

// model renders an assembled OSS.
func (r *reporter) model(m *schema.Model) error {
	if r.format != formatText {
		return r.encode(m)
	}
	fingerprint, err := m.Fingerprint()
	if err != nil {
		return err
	}
	p := r.printer
	p.Title("OSS " + m.Alias)
	p.Field("id", m.ID)
	p.Field("fingerprint", fingerprint)
	p.Field("location", m.Location)
	p.Field("operations", m.Stats.CountAll)
	p.Field("inputs", m.Stats.CountInputs)
	p.Field("synthesis", m.Stats.CountSynthesis)
	p.Field("replicas", m.Stats.CountReplicas)
	p.Field("schemas", m.Stats.CountSchemas)
	p.Field("owned", m.Stats.CountOwned)
	p.Field("blocks", m.Stats.CountBlocks)

	for _, op := range m.Operations {
		icon := ux.IconSuccess
		if !op.IsOwned {
			icon = ux.IconWarning
		}
		p.Item(icon, fmt.Sprintf("%s [%s]", op.Alias, op.OperationType), describeOperation(op))
	}
	for _, b := range m.Blocks {
		p.Item(ux.IconBullet, b.Title, fmt.Sprintf("%.0fx%.0f at %.0f,%.0f",
			b.Geometry.Width, b.Geometry.Height, b.Geometry.X, b.Geometry.Y))
	}
	return nil
}

func describeOperation(op *schema.Operation) string {
	var parts []string
	if len(op.Arguments) > 0 {
		ids := make([]string, len(op.Arguments))
		for i, id := range op.Arguments {
			ids[i] = strconv.Itoa(id)
		}
		parts = append(parts, "args "+strings.Join(ids, ","))
	}
	if n := len(op.Substitutions); n > 0 {
		parts = append(parts, fmt.Sprintf("%d substitutions", n))
	}
	if op.IsConsolidation {
		parts = append(parts, "consolidation")
	}
	if !op.IsOwned {
		parts = append(parts, "not owned")
	}
	return strings.Join(parts, "; ")
}

// validations renders a batch of validation reports followed by a summary.
func (r *reporter) validations(reports []validationReport) error {
	summary := validationSummary{Reports: reports}
	for _, rep := range reports {
		if rep.Result.Valid {
			summary.Valid++
		} else {
			summary.Invalid++
		}
	}
	if r.format != formatText {
		return r.encode(summary)
	}

	p := r.printer
	for _, rep := range reports {
		p.Title(rep.Path)
		p.Field("file", rep.Path)
		for _, issue := range rep.Result.Issues {
			if issue.Kind.Fatal() {
				p.Error(issue.Message())
			} else {
				p.Warning(issue.Message())
			}
		}
		if rep.Result.Valid {
			p.Success(substitution.MsgSuccess)
		}
		for _, s := range rep.Result.Suggestions {
			p.Item(ux.IconArrow, fmt.Sprintf("%d → %d", s.Original, s.Substitution), "suggested")
		}
	}
	p.Summary(summary.Valid, summary.Invalid, len(reports))
	return nil
}

// candidates renders the relocation candidates.
func (r *reporter) candidates(csts []*rsform.Constituent) error {
	if r.format != formatText {
		if csts == nil {
			csts = []*rsform.Constituent{}
		}
		return r.encode(csts)
	}
	p := r.printer
	p.Title("Relocation candidates")
	if len(csts) == 0 {
		p.Info("No constituents can be relocated")
		return nil
	}
	for _, cst := range csts {
		p.Item(ux.IconBullet, cst.Alias, fmt.Sprintf("id %d, %s", cst.ID, cst.CstType))
	}
	return nil
}
