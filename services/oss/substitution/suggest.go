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
	"sort"

	"github.com/AleutianAI/ConceptOSS/services/oss/rsform"
)

// candidate is a constituent eligible for a suggested pair.
type candidate struct {
	id     int
	schema int
	text   string

	// minor is true when the candidate depends on an original, which makes
	// it the side that should be replaced.
	minor bool
}

// suggest mines pairs of constituents from different schemas whose
// definitions become identical under the synthetic alias mapping.
//
// A constituent qualifies if it is not an original, is not of basic class,
// has a definition, and every direct dependency is already part of the
// table. For each matching pair, the minor side becomes the original; when
// neither or both sides are minor the lower id is the original.
func (v *Validator) suggest() []Pair {
	var candidates []candidate
	for _, s := range v.schemas {
		for _, cst := range s.Items {
			if c, ok := v.candidate(s, cst); ok {
				candidates = append(candidates, c)
			}
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].id < candidates[j].id })

	suggestions := []Pair{}
	for i, first := range candidates {
		for _, second := range candidates[i+1:] {
			if first.schema == second.schema || first.text != second.text {
				continue
			}
			if second.minor {
				suggestions = append(suggestions, Pair{Original: second.id, Substitution: first.id})
			} else {
				suggestions = append(suggestions, Pair{Original: first.id, Substitution: second.id})
			}
		}
	}
	return suggestions
}

func (v *Validator) candidate(s *rsform.Schema, cst *rsform.Constituent) (candidate, bool) {
	if _, used := v.originals[cst.ID]; used {
		return candidate{}, false
	}
	if cst.CstClass == rsform.ClassBasic || cst.DefinitionFormal == "" {
		return candidate{}, false
	}
	node, ok := s.Graph.At(cst.ID)
	if !ok {
		return candidate{}, false
	}
	minor := false
	for _, input := range node.Inputs {
		_, isOriginal := v.originals[input]
		_, isSubstitute := v.substitutes[input]
		if !isOriginal && !isSubstitute {
			return candidate{}, false
		}
		minor = minor || isOriginal
	}
	return candidate{
		id:     cst.ID,
		schema: s.ID,
		text:   rsform.NormalizeExpression(rsform.ApplyAliasMapping(cst.DefinitionFormal, v.mapping[s.ID])),
		minor:  minor,
	}, true
}
