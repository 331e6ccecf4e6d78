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
	"context"
	"encoding/json"
	"testing"

	"github.com/AleutianAI/ConceptOSS/services/oss/rsform"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_EmptyTable(t *testing.T) {
	for _, pairs := range [][]Pair{nil, {}} {
		result := newFixtureValidator(t, pairs).Validate(context.Background())

		assert.True(t, result.Valid)
		assert.Equal(t, MsgSuccess, result.Message)
		assert.Empty(t, result.Issues)
		assert.Empty(t, result.Suggestions)
	}
}

func TestValidate_Valid(t *testing.T) {
	tests := []struct {
		name  string
		pairs []Pair
	}{
		{name: "bases", pairs: []Pair{{11, 21}, {12, 22}}},
		{name: "terms", pairs: []Pair{{11, 21}, {12, 22}, {13, 23}}},
		{name: "functions", pairs: []Pair{{11, 21}, {14, 24}}},
		{name: "base by term", pairs: []Pair{{11, 23}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := newFixtureValidator(t, tt.pairs).Validate(context.Background())

			assert.True(t, result.Valid, result.Message)
			assert.Equal(t, MsgSuccess, result.Message)
			assert.Empty(t, result.Issues)
		})
	}
}

func TestValidate_Compatibility(t *testing.T) {
	tests := []struct {
		name   string
		pairs  []Pair
		kind   ErrorKind
		params []string
	}{
		{
			name:   "function into base slot",
			pairs:  []Pair{{Original: 14, Substitution: 21}},
			kind:   InvalidBasic,
			params: []string{"S1::F1", "S2::X1"},
		},
		{
			name:   "base into function slot",
			pairs:  []Pair{{Original: 11, Substitution: 24}},
			kind:   InvalidClasses,
			params: []string{"S1::X1", "S2::F1"},
		},
		{
			name:   "constant for base",
			pairs:  []Pair{{Original: 11, Substitution: 26}},
			kind:   InvalidConstant,
			params: []string{"S1::X1", "S2::C1"},
		},
		{
			name:   "term for function",
			pairs:  []Pair{{Original: 14, Substitution: 23}},
			kind:   InvalidClasses,
			params: []string{"S1::F1", "S2::D1"},
		},
		{
			name:  "unknown constituent",
			pairs: []Pair{{Original: 11, Substitution: 21}, {Original: 11, Substitution: 999}},
			kind:  InvalidIDs,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := newFixtureValidator(t, tt.pairs).Validate(context.Background())

			assert.False(t, result.Valid)
			require.Len(t, result.Issues, 1)
			assert.Equal(t, tt.kind, result.Issues[0].Kind)
			assert.Equal(t, tt.params, result.Issues[0].Params)
			assert.Equal(t, result.Issues[0].Message(), result.Message)
			assert.NotContains(t, result.Message, MsgSuccess)
		})
	}
}

func TestValidate_IncorrectConstituent(t *testing.T) {
	data := fixtureData()
	data[0].Items[3].Parse.Status = rsform.StatusIncorrect

	result := New(buildSchemas(t, data), []Pair{{Original: 14, Substitution: 24}}).Validate(context.Background())

	assert.False(t, result.Valid)
	require.Len(t, result.Issues, 1)
	assert.Equal(t, IncorrectCst, result.Issues[0].Kind)
	assert.Equal(t, "Constituent S1::F1 has an incorrect definition", result.Message)
}

func TestValidate_TypificationCycle(t *testing.T) {
	pairs := []Pair{
		{Original: 11, Substitution: 23},
		{Original: 21, Substitution: 13},
	}
	result := newFixtureValidator(t, pairs).Validate(context.Background())

	assert.False(t, result.Valid)
	require.Len(t, result.Issues, 1)
	assert.Equal(t, TypificationCycle, result.Issues[0].Kind)
	assert.Equal(t, []string{"S1::X1 → S1::D1 → S2::X1 → S2::D1 → S1::X1"}, result.Issues[0].Params)
}

func TestTypificationGraph_PathIsReal(t *testing.T) {
	v := newFixtureValidator(t, []Pair{{Original: 11, Substitution: 23}, {Original: 21, Substitution: 13}})
	g := v.typificationGraph()

	cycle := g.FindCycle()
	require.NotNil(t, cycle)
	for i := 0; i+1 < len(cycle); i++ {
		assert.True(t, g.HasEdge(cycle[i], cycle[i+1]))
	}
	assert.True(t, g.HasEdge(23, 11), "substitute points at original")
	assert.False(t, g.HasEdge(11, 11), "base self reference is skipped")
}

func TestValidate_BaseSubstitutionNotSet(t *testing.T) {
	result := newFixtureValidator(t, []Pair{{Original: 11, Substitution: 27}}).Validate(context.Background())

	assert.False(t, result.Valid)
	require.Len(t, result.Issues, 1)
	assert.Equal(t, BaseSubstitutionNotSet, result.Issues[0].Kind)
	assert.Equal(t, []string{"S1::X1", "S2::D3"}, result.Issues[0].Params)
}

func TestValidate_Consistency(t *testing.T) {
	t.Run("unequal typification after a warning", func(t *testing.T) {
		result := newFixtureValidator(t, []Pair{{11, 21}, {12, 22}, {13, 25}}).Validate(context.Background())

		assert.False(t, result.Valid)
		require.Len(t, result.Issues, 2)
		assert.Equal(t, UnequalExpressions, result.Issues[0].Kind)
		assert.Equal(t, UnequalTypification, result.Issues[1].Kind)
		assert.Equal(t,
			"Warning: definitions of S1::D1 and S2::D2 differ\nTypification of S1::D1 differs from S2::D2",
			result.Message)
	})

	t.Run("definition mismatch only warns", func(t *testing.T) {
		result := newFixtureValidator(t, []Pair{{11, 21}, {12, 22}, {13, 28}}).Validate(context.Background())

		assert.True(t, result.Valid)
		require.Len(t, result.Issues, 1)
		assert.False(t, result.Issues[0].Kind.Fatal())
		assert.Equal(t, "Warning: definitions of S1::D1 and S2::D4 differ\n"+MsgSuccess, result.Message)
	})

	t.Run("argument count", func(t *testing.T) {
		result := newFixtureValidator(t, []Pair{{11, 21}, {14, 29}}).Validate(context.Background())

		assert.False(t, result.Valid)
		assert.Equal(t, UnequalArgsCount, result.Issues[len(result.Issues)-1].Kind)
	})

	t.Run("argument typification", func(t *testing.T) {
		result := newFixtureValidator(t, []Pair{{11, 21}, {12, 22}, {14, 30}}).Validate(context.Background())

		assert.False(t, result.Valid)
		assert.Equal(t, UnequalArgs, result.Issues[len(result.Issues)-1].Kind)
	})
}

func TestValidate_Suggestions(t *testing.T) {
	t.Run("originals in the first schema", func(t *testing.T) {
		result := newFixtureValidator(t, []Pair{{11, 21}, {12, 22}}).Validate(context.Background())

		assert.Equal(t, []Pair{{Original: 13, Substitution: 23}, {Original: 14, Substitution: 24}}, result.Suggestions)
	})

	t.Run("minor side becomes the original", func(t *testing.T) {
		result := newFixtureValidator(t, []Pair{{21, 11}, {22, 12}}).Validate(context.Background())

		assert.Equal(t, []Pair{{Original: 23, Substitution: 13}, {Original: 24, Substitution: 14}}, result.Suggestions)
	})

	t.Run("mined even when invalid", func(t *testing.T) {
		result := newFixtureValidator(t, []Pair{{11, 21}, {12, 22}, {13, 25}}).Validate(context.Background())

		assert.False(t, result.Valid)
		assert.Contains(t, result.Suggestions, Pair{Original: 14, Substitution: 24})
	})

	t.Run("unsubstituted dependencies block a suggestion", func(t *testing.T) {
		result := newFixtureValidator(t, []Pair{{11, 21}}).Validate(context.Background())

		assert.Equal(t, []Pair{{Original: 14, Substitution: 24}}, result.Suggestions)
	})
}

func TestNew_SyntheticAliases(t *testing.T) {
	t.Run("default index", func(t *testing.T) {
		v := newFixtureValidator(t, []Pair{{11, 21}, {14, 24}})

		assert.Equal(t, rsform.AliasMapping{"X1": "X900", "F1": "F901"}, v.mapping[1])
		assert.Equal(t, rsform.AliasMapping{"X1": "X900", "F1": "F901"}, v.mapping[2])
	})

	t.Run("index is per validator", func(t *testing.T) {
		v := newFixtureValidator(t, []Pair{{11, 21}}, WithSemanticIndex(500))
		assert.Equal(t, "X500", v.mapping[1]["X1"])

		again := newFixtureValidator(t, []Pair{{11, 21}})
		assert.Equal(t, "X900", again.mapping[1]["X1"])
	})

	t.Run("shared substitute keeps its alias", func(t *testing.T) {
		v := newFixtureValidator(t, []Pair{{11, 21}, {12, 21}})
		assert.Equal(t, rsform.AliasMapping{"X1": "X900", "X2": "X900"}, v.mapping[1])
	})

	t.Run("unresolvable pairs are skipped", func(t *testing.T) {
		v := newFixtureValidator(t, []Pair{{11, 999}, {12, 22}})
		assert.Equal(t, rsform.AliasMapping{"X2": "X900"}, v.mapping[1])
	})
}

func TestCanonicalNames(t *testing.T) {
	names := newFixtureValidator(t, nil).canonicalNames()

	assert.Equal(t, "X1", names.byID[11])
	assert.Equal(t, "X2", names.byID[12])
	assert.Equal(t, "X3", names.byID[21])
	assert.Equal(t, "X4", names.byID[22])
	assert.Equal(t, "C1", names.byID[26])
	assert.Equal(t, rsform.AliasMapping{"X1": "X3", "X2": "X4", "C1": "C1"}, names.bySchema[2])
}

// The substitute mapping only rewrites entries recorded before the current
// pair. A same-kind substitute is not rewritten through earlier entries, so
// chained base substitutions do not resolve to their final target.
func TestBuildSubstituteMapping_NotClosedUnderComposition(t *testing.T) {
	v := newFixtureValidator(t, []Pair{
		{Original: 12, Substitution: 21},
		{Original: 11, Substitution: 12},
	})

	substitutes, issue := v.buildSubstituteMapping(v.canonicalNames())

	require.Nil(t, issue)
	assert.Equal(t, rsform.AliasMapping{"X2": "X3", "X1": "X2"}, substitutes)
}

func TestBuildSubstituteMapping_RewritesEarlierEntries(t *testing.T) {
	v := newFixtureValidator(t, []Pair{
		{Original: 11, Substitution: 23},
		{Original: 21, Substitution: 22},
	})

	substitutes, issue := v.buildSubstituteMapping(v.canonicalNames())

	require.Nil(t, issue)
	assert.Equal(t, rsform.AliasMapping{"X1": "X4×X4", "X3": "X4"}, substitutes)
}

func TestValidate_Deterministic(t *testing.T) {
	pairs := []Pair{{11, 21}, {12, 22}, {13, 28}}
	first := newFixtureValidator(t, pairs).Validate(context.Background())

	v := newFixtureValidator(t, pairs)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, v.Validate(context.Background()))
	}
}

func TestErrorKind(t *testing.T) {
	assert.Equal(t, "typificationCycle", TypificationCycle.String())
	assert.Equal(t, "ErrorKind(42)", ErrorKind(42).String())
	assert.False(t, UnequalExpressions.Fatal())
	for kind := InvalidIDs; kind <= UnequalArgs; kind++ {
		if kind != UnequalExpressions {
			assert.True(t, kind.Fatal(), kind.String())
		}
	}

	data, err := json.Marshal(Issue{Kind: UnequalArgs, Params: []string{"S1::F1", "S2::F3"}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"kind":"unequalArgs","params":["S1::F1","S2::F3"]}`, string(data))

	var decoded Issue
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, UnequalArgs, decoded.Kind)
	assert.Error(t, json.Unmarshal([]byte(`{"kind":"bogus"}`), &decoded))
}
