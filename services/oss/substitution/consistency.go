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
	"fmt"
	"log/slog"

	"github.com/AleutianAI/ConceptOSS/services/oss/rsform"
)

// canonicalNames numbers base sets X1, X2, … and constant sets C1, C2, …
// across all schemas in order.
type canonicalNames struct {
	byID     map[int]string
	bySchema map[int]rsform.AliasMapping
}

func (v *Validator) canonicalNames() canonicalNames {
	names := canonicalNames{
		byID:     make(map[int]string),
		bySchema: make(map[int]rsform.AliasMapping, len(v.schemas)),
	}
	bases, constants := 0, 0
	for _, s := range v.schemas {
		mapping := make(rsform.AliasMapping)
		for _, cst := range s.Items {
			var name string
			switch cst.CstType {
			case rsform.CstBase:
				bases++
				name = fmt.Sprintf("X%d", bases)
			case rsform.CstConstant:
				constants++
				name = fmt.Sprintf("C%d", constants)
			default:
				continue
			}
			names.byID[cst.ID] = name
			mapping[cst.Alias] = name
		}
		names.bySchema[s.ID] = mapping
	}
	return names
}

// typification renders a constituent typification in canonical names with
// substitutes applied.
func (c canonicalNames) typification(text string, owner int, substitutes rsform.AliasMapping) string {
	return rsform.ApplyTypificationMapping(rsform.ApplyAliasMapping(text, c.bySchema[owner]), substitutes)
}

// buildSubstituteMapping maps the canonical name of every substituted base
// or constant set to the text that replaces it.
//
// Description:
//
//	Pairs are processed in submission order. A substitute of the same kind
//	contributes its canonical name; any other substitute contributes its
//	typification with one powerset layer removed, rewritten through the
//	entries recorded so far. Each new entry is then applied to the values
//	recorded before it. Entries recorded later are not applied to the new
//	value, so the mapping is not closed under composition.
//
// Outputs:
//
//	rsform.AliasMapping - Canonical name to replacement text.
//	*Issue - BaseSubstitutionNotSet when a typification is not a set.
func (v *Validator) buildSubstituteMapping(names canonicalNames) (rsform.AliasMapping, *Issue) {
	substitutes := make(rsform.AliasMapping)
	for _, pair := range v.pairs {
		original, substitution, ok := v.resolve(pair)
		if !ok || !original.CstType.IsBasicConcept() {
			continue
		}
		name := names.byID[original.ID]

		var value string
		if substitution.CstType == original.CstType {
			value = names.byID[substitution.ID]
		} else {
			mapped := names.typification(substitution.Parse.Typification, v.owner[substitution.ID].ID, substitutes)
			inner, isSet := rsform.StripPowerset(mapped)
			if !isSet {
				return nil, &Issue{
					Kind:   BaseSubstitutionNotSet,
					Params: []string{v.qualified(original), v.qualified(substitution)},
				}
			}
			value = inner
		}

		patch := rsform.AliasMapping{name: value}
		for key, previous := range substitutes {
			substitutes[key] = rsform.ApplyTypificationMapping(previous, patch)
		}
		substitutes[name] = value
	}
	return substitutes, nil
}

// checkConsistency compares definitions, typifications and arguments of
// every pair that is not a base or constant substitution.
func (v *Validator) checkConsistency(r *run) bool {
	names := v.canonicalNames()
	substitutes, issue := v.buildSubstituteMapping(names)
	if issue != nil {
		r.issues = append(r.issues, *issue)
		return false
	}

	for _, pair := range v.pairs {
		original, substitution, _ := v.resolve(pair)
		if original.CstType.IsBasicConcept() {
			continue
		}
		originalName, substitutionName := v.qualified(original), v.qualified(substitution)
		originalSchema, substitutionSchema := v.owner[original.ID].ID, v.owner[substitution.ID].ID

		if original.CstType == substitution.CstType && original.CstClass != rsform.ClassBasic {
			left := rsform.NormalizeExpression(rsform.ApplyAliasMapping(original.DefinitionFormal, v.mapping[originalSchema]))
			right := rsform.NormalizeExpression(rsform.ApplyAliasMapping(substitution.DefinitionFormal, v.mapping[substitutionSchema]))
			if left != right {
				v.logger.Warn("substituted definitions differ",
					slog.String("original", originalName),
					slog.String("substitution", substitutionName),
				)
				r.add(UnequalExpressions, originalName, substitutionName)
			}
		}

		left := names.typification(original.Parse.Typification, originalSchema, substitutes)
		right := names.typification(substitution.Parse.Typification, substitutionSchema, substitutes)
		if left != right {
			r.add(UnequalTypification, originalName, substitutionName)
			return false
		}

		if len(original.Parse.Args) == 0 {
			continue
		}
		if len(original.Parse.Args) != len(substitution.Parse.Args) {
			r.add(UnequalArgsCount, originalName, substitutionName)
			return false
		}
		for i := range original.Parse.Args {
			left := names.typification(original.Parse.Args[i].Typification, originalSchema, substitutes)
			right := names.typification(substitution.Parse.Args[i].Typification, substitutionSchema, substitutes)
			if left != right {
				r.add(UnequalArgs, originalName, substitutionName)
				return false
			}
		}
	}
	return true
}
