// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package rsform

import (
	"regexp"
	"strings"
	"unicode"
)

// Typification notation.
const (
	// PowersetSymbol marks a set-of typification, e.g. "ℬ(X1)".
	PowersetSymbol = "ℬ"

	// ProductSymbol joins tuple components, e.g. "X1×X2".
	ProductSymbol = "×"
)

// globalPattern matches global identifiers such as X1, C12 or D3.
var globalPattern = regexp.MustCompile(`[XCSADFPTNR][0-9]+`)

// identifierPattern matches a typification that is a single identifier.
var identifierPattern = regexp.MustCompile(`^(?:[XCSADFPTNR][0-9]+|Z)$`)

// AliasMapping maps global identifiers to replacement text.
type AliasMapping map[string]string

// ExtractGlobals returns the distinct global identifiers of an expression in
// order of first appearance.
func ExtractGlobals(expression string) []string {
	matches := globalPattern.FindAllString(expression, -1)
	seen := make(map[string]struct{}, len(matches))
	result := make([]string, 0, len(matches))
	for _, m := range matches {
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		result = append(result, m)
	}
	return result
}

// ApplyAliasMapping renames every mapped global identifier in target.
//
// All identifiers are replaced simultaneously, so a mapping {X1: X2, X2: X1}
// swaps them. Unmapped identifiers are left as is.
func ApplyAliasMapping(target string, mapping AliasMapping) string {
	if len(mapping) == 0 {
		return target
	}
	return globalPattern.ReplaceAllStringFunc(target, func(alias string) string {
		if replacement, ok := mapping[alias]; ok {
			return replacement
		}
		return alias
	})
}

// ApplyTypificationMapping substitutes typification text for identifiers.
//
// Description:
//
//	Works like ApplyAliasMapping, but a replacement that is a product at its
//	top level is parenthesized so the tuple stays one component, and pairs
//	of parentheses that became redundant are collapsed afterwards.
//
// Example:
//
//	ApplyTypificationMapping("ℬ(X1×X2)", AliasMapping{"X1": "X3×X4"})
//	// "ℬ((X3×X4)×X2)"
//	ApplyTypificationMapping("ℬ(X1)", AliasMapping{"X1": "X3×X4"})
//	// "ℬ(X3×X4)"
func ApplyTypificationMapping(target string, mapping AliasMapping) string {
	if len(mapping) == 0 {
		return target
	}
	changed := false
	result := globalPattern.ReplaceAllStringFunc(target, func(alias string) string {
		replacement, ok := mapping[alias]
		if !ok {
			return alias
		}
		changed = true
		if isTopLevelProduct(replacement) {
			return "(" + replacement + ")"
		}
		return replacement
	})
	if !changed {
		return target
	}
	return collapseParentheses(result)
}

// StripPowerset removes one powerset layer from a typification.
//
// Returns false if the typification does not denote a set: it must be the
// powerset symbol applied to a parenthesized expression, to another set or to
// a single identifier.
//
// Example:
//
//	StripPowerset("ℬ(X1×X2)") // "X1×X2", true
//	StripPowerset("ℬℬ(X1)")   // "ℬ(X1)", true
//	StripPowerset("X1")       // "", false
//	StripPowerset("ℬ(X1)×ℬ(X2)") // "", false
func StripPowerset(typification string) (string, bool) {
	trimmed := strings.TrimSpace(typification)
	if !strings.HasPrefix(trimmed, PowersetSymbol) {
		return "", false
	}
	rest := strings.TrimPrefix(trimmed, PowersetSymbol)
	if inner, ok := unwrap(rest); ok {
		return inner, true
	}
	if _, ok := StripPowerset(rest); ok {
		return rest, true
	}
	if identifierPattern.MatchString(rest) {
		return rest, true
	}
	return "", false
}

// NormalizeExpression drops all whitespace so equivalent definitions compare
// equal textually.
func NormalizeExpression(expression string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, expression)
}

// isTopLevelProduct reports whether text contains a product outside of any
// parentheses.
func isTopLevelProduct(text string) bool {
	depth := 0
	for _, r := range text {
		switch string(r) {
		case "(":
			depth++
		case ")":
			depth--
		case ProductSymbol:
			if depth == 0 {
				return true
			}
		}
	}
	return false
}

// unwrap strips one pair of parentheses enclosing the whole text.
func unwrap(text string) (string, bool) {
	runes := []rune(text)
	if len(runes) < 2 || runes[0] != '(' || runes[len(runes)-1] != ')' {
		return text, false
	}
	if matching(runes, 0) != len(runes)-1 {
		return text, false
	}
	return string(runes[1 : len(runes)-1]), true
}

// collapseParentheses rewrites "((a))" to "(a)" wherever an outer pair wraps
// exactly one inner pair.
func collapseParentheses(text string) string {
	runes := []rune(text)
	for {
		removed := false
		for i := 0; i+1 < len(runes); i++ {
			if runes[i] != '(' || runes[i+1] != '(' {
				continue
			}
			outer := matching(runes, i)
			inner := matching(runes, i+1)
			if outer < 0 || inner < 0 || inner+1 != outer {
				continue
			}
			runes = append(runes[:outer], runes[outer+1:]...)
			runes = append(runes[:i], runes[i+1:]...)
			removed = true
			break
		}
		if !removed {
			return string(runes)
		}
	}
}

// matching returns the index of the parenthesis closing runes[open], or -1.
func matching(runes []rune, open int) int {
	depth := 0
	for i := open; i < len(runes); i++ {
		switch runes[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}
