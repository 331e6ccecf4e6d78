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
	"testing"

	"github.com/AleutianAI/ConceptOSS/services/oss/rsform"
	"github.com/stretchr/testify/require"
)

func base(id int, alias string) rsform.Constituent {
	return rsform.Constituent{
		ID:       id,
		Alias:    alias,
		CstType:  rsform.CstBase,
		CstClass: rsform.ClassBasic,
		Parse:    rsform.ParseInfo{Status: rsform.StatusVerified, Typification: "ℬ(" + alias + ")"},
	}
}

func constant(id int, alias string) rsform.Constituent {
	c := base(id, alias)
	c.CstType = rsform.CstConstant
	return c
}

func derived(id int, alias string, kind rsform.CstType, typification, definition string, args ...rsform.ArgumentInfo) rsform.Constituent {
	return rsform.Constituent{
		ID:               id,
		Alias:            alias,
		CstType:          kind,
		CstClass:         rsform.ClassDerived,
		DefinitionFormal: definition,
		Parse:            rsform.ParseInfo{Status: rsform.StatusVerified, Typification: typification, Args: args},
	}
}

func arg(alias, typification string) rsform.ArgumentInfo {
	return rsform.ArgumentInfo{Alias: alias, Typification: typification}
}

// fixtureData returns two schemas sharing the same base structure.
//
// S1: X1, X2, D1 = X1×X2, F1[α∈X1].
// S2: the same four plus terms and functions used for mismatch cases.
func fixtureData() []rsform.SchemaData {
	return []rsform.SchemaData{
		{
			ID:    1,
			Alias: "S1",
			Items: []rsform.Constituent{
				base(11, "X1"),
				base(12, "X2"),
				derived(13, "D1", rsform.CstTerm, "ℬ(X1×X2)", "X1×X2"),
				derived(14, "F1", rsform.CstFunction, "ℬ(X1)", "[α∈X1] X1", arg("α", "X1")),
			},
			Dependencies: []rsform.Dependency{{From: 11, To: 13}, {From: 12, To: 13}, {From: 11, To: 14}},
		},
		{
			ID:    2,
			Alias: "S2",
			Items: []rsform.Constituent{
				base(21, "X1"),
				base(22, "X2"),
				derived(23, "D1", rsform.CstTerm, "ℬ(X1×X2)", "X1 × X2"),
				derived(24, "F1", rsform.CstFunction, "ℬ(X1)", "[α∈X1] X1", arg("α", "X1")),
				derived(25, "D2", rsform.CstTerm, "ℬ(X1)", "Pr1(D1)"),
				constant(26, "C1"),
				derived(27, "D3", rsform.CstTerm, "X1×X2", "X2"),
				derived(28, "D4", rsform.CstTerm, "ℬ(X1×X2)", "X2×X1"),
				derived(29, "F2", rsform.CstFunction, "ℬ(X1)", "[a∈X1, b∈X1] X1", arg("a", "X1"), arg("b", "X1")),
				derived(30, "F3", rsform.CstFunction, "ℬ(X1)", "[a∈X2] X1", arg("a", "X2")),
			},
			Dependencies: []rsform.Dependency{
				{From: 21, To: 23}, {From: 22, To: 23},
				{From: 21, To: 24},
				{From: 23, To: 25},
				{From: 22, To: 27},
				{From: 21, To: 28}, {From: 22, To: 28},
				{From: 21, To: 29},
				{From: 21, To: 30}, {From: 22, To: 30},
			},
		},
	}
}

func buildSchemas(t *testing.T, data []rsform.SchemaData) []*rsform.Schema {
	t.Helper()
	schemas := make([]*rsform.Schema, 0, len(data))
	for _, d := range data {
		s, err := rsform.NewSchema(d)
		require.NoError(t, err)
		schemas = append(schemas, s)
	}
	return schemas
}

func newFixtureValidator(t *testing.T, pairs []Pair, opts ...Option) *Validator {
	t.Helper()
	return New(buildSchemas(t, fixtureData()), pairs, opts...)
}
