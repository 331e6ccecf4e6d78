// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package substitution

import (
	"strings"

	"github.com/AleutianAI/ConceptOSS/services/oss/graph"
	"github.com/AleutianAI/ConceptOSS/services/oss/rsform"
)

// compatible lists, per substitute kind, the original kinds it may replace.
var compatible = map[rsform.CstType][]rsform.CstType{
	rsform.CstBase:       {rsform.CstBase, rsform.CstConstant},
	rsform.CstConstant:   {rsform.CstConstant},
	rsform.CstAxiom:      {rsform.CstAxiom, rsform.CstTheorem},
	rsform.CstTheorem:    {rsform.CstAxiom, rsform.CstTheorem},
	rsform.CstFunction:   {rsform.CstFunction},
	rsform.CstPredicate:  {rsform.CstPredicate},
	rsform.CstTerm:       {rsform.CstTerm, rsform.CstStructured, rsform.CstBase},
	rsform.CstStructured: {rsform.CstTerm, rsform.CstStructured, rsform.CstBase},
}

// checkCompatibility verifies that every pair resolves, parses and
// respects the kind table.
func (v *Validator) checkCompatibility(r *run) bool {
	for _, pair := range v.pairs {
		original, substitution, ok := v.resolve(pair)
		if !ok {
			r.add(InvalidIDs)
			return false
		}
		for _, cst := range []*rsform.Constituent{original, substitution} {
			if cst.Parse.Status == rsform.StatusIncorrect {
				r.add(IncorrectCst, v.qualified(cst))
				return false
			}
		}
		if !kindAllowed(substitution.CstType, original.CstType) {
			r.add(incompatibleKind(substitution.CstType), v.qualified(original), v.qualified(substitution))
			return false
		}
	}
	return true
}

func kindAllowed(substitute, original rsform.CstType) bool {
	for _, allowed := range compatible[substitute] {
		if allowed == original {
			return true
		}
	}
	return false
}

func incompatibleKind(substitute rsform.CstType) ErrorKind {
	switch substitute {
	case rsform.CstBase:
		return InvalidBasic
	case rsform.CstConstant:
		return InvalidConstant
	default:
		return InvalidClasses
	}
}

// checkCycles fails when the typification dependencies, extended with an
// edge from each substitute to its original, contain a cycle.
func (v *Validator) checkCycles(r *run) bool {
	g := v.typificationGraph()
	cycle := g.FindCycle()
	if cycle == nil {
		return true
	}
	path := make([]string, 0, len(cycle))
	for _, id := range cycle {
		path = append(path, v.qualified(v.constituents[id]))
	}
	r.add(TypificationCycle, strings.Join(path, " → "))
	return false
}

// typificationGraph builds the auxiliary graph of typification references.
//
// Nodes are the base and constant sets of every schema plus both sides of
// each pair. Every global named in a node's typification or argument
// typifications, resolved in the node's own schema, points at the node.
func (v *Validator) typificationGraph() *graph.Graph[int] {
	g := graph.New[int]()
	for _, s := range v.schemas {
		for _, cst := range s.Items {
			if cst.CstType.IsBasicConcept() {
				g.AddNode(cst.ID)
			}
		}
	}
	for _, pair := range v.pairs {
		g.AddNode(pair.Original)
		g.AddNode(pair.Substitution)
	}

	for _, id := range g.NodeIDs() {
		cst := v.constituents[id]
		s := v.owner[id]
		for _, alias := range typificationGlobals(cst) {
			ref, ok := s.ByAlias(alias)
			if !ok || ref.ID == id {
				continue
			}
			g.AddEdge(ref.ID, id)
		}
	}
	for _, pair := range v.pairs {
		g.AddEdge(pair.Substitution, pair.Original)
	}
	return g
}

func typificationGlobals(cst *rsform.Constituent) []string {
	text := cst.Parse.Typification
	for _, arg := range cst.Parse.Args {
		text += " " + arg.Typification
	}
	return rsform.ExtractGlobals(text)
}
