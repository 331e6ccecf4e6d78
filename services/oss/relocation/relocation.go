// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package relocation selects the constituents of an operation's schema that
// may be moved to another operation of the same OSS.
package relocation

import (
	"context"
	"errors"
	"fmt"

	"github.com/AleutianAI/ConceptOSS/services/oss/rsform"
	"github.com/AleutianAI/ConceptOSS/services/oss/schema"
)

// ErrNilSchema is returned when no source schema is given.
var ErrNilSchema = errors.New("nil source schema")

// Candidates returns the constituents of src that can be relocated from the
// source operation to the destination operation.
//
// Description:
//
//	When the destination directly consumes the source, every constituent
//	declared in src (not inherited) qualifies. Otherwise inherited
//	constituents that come neither from the destination's schema nor from
//	a substitute of the OSS are unreachable from the destination, and so is
//	everything that depends on them in src. The remaining declared
//	constituents qualify.
//
// Inputs:
//
//	model - The assembled OSS.
//	source - Operation whose schema is src.
//	destination - Operation receiving the constituents.
//	src - Schema attached to source.
//
// Outputs:
//
//	[]*rsform.Constituent - Candidates in schema order.
//	error - ErrNilSchema, or schema.ErrUnknownOperation for unknown ids.
func Candidates(model *schema.Model, source, destination int, src *rsform.Schema) ([]*rsform.Constituent, error) {
	if src == nil {
		return nil, ErrNilSchema
	}
	if _, ok := model.Operation(source); !ok {
		return nil, fmt.Errorf("source %d: %w", source, schema.ErrUnknownOperation)
	}
	target, ok := model.Operation(destination)
	if !ok {
		return nil, fmt.Errorf("destination %d: %w", destination, schema.ErrUnknownOperation)
	}

	for _, out := range model.Successors(source) {
		if out == destination {
			return declared(src, nil), nil
		}
	}

	substitutes := make(map[int]struct{})
	for _, sub := range model.AllSubstitutions() {
		substitutes[sub.Substitution] = struct{}{}
	}

	var unreachableBases []int
	for _, cst := range src.Items {
		if !cst.IsInherited {
			continue
		}
		if target.Result != nil && cst.ParentSchema != nil && *cst.ParentSchema == *target.Result {
			continue
		}
		if parent, ok := src.InheritanceParent(cst.ID); ok {
			if _, substituted := substitutes[parent]; substituted {
				continue
			}
		}
		unreachableBases = append(unreachableBases, cst.ID)
	}

	unreachable := make(map[int]struct{})
	for _, id := range src.Graph.ExpandAllOutputs(unreachableBases) {
		unreachable[id] = struct{}{}
	}
	return declared(src, unreachable), nil
}

// declared returns the non-inherited constituents of s outside excluded.
func declared(s *rsform.Schema, excluded map[int]struct{}) []*rsform.Constituent {
	result := []*rsform.Constituent{}
	for _, cst := range s.Items {
		if cst.IsInherited {
			continue
		}
		if _, skip := excluded[cst.ID]; skip {
			continue
		}
		result = append(result, cst)
	}
	return result
}

// Request is a self-contained relocation query.
type Request struct {
	OSS         schema.Payload       `json:"oss" yaml:"oss"`
	Library     []schema.LibraryItem `json:"library" yaml:"library"`
	Schema      rsform.SchemaData    `json:"schema" yaml:"schema"`
	Source      int                  `json:"source" yaml:"source"`
	Destination int                  `json:"destination" yaml:"destination"`
}

// Run assembles the OSS, indexes the schema and computes the candidates.
func (r *Request) Run(ctx context.Context, opts ...schema.Option) ([]*rsform.Constituent, error) {
	model, err := schema.Assemble(ctx, &r.OSS, r.Library, opts...)
	if err != nil {
		return nil, err
	}
	src, err := rsform.NewSchema(r.Schema)
	if err != nil {
		return nil, fmt.Errorf("relocation schema: %w", err)
	}
	return Candidates(model, r.Source, r.Destination, src)
}
