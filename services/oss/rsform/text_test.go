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
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractGlobals(t *testing.T) {
	tests := []struct {
		name       string
		expression string
		expected   []string
	}{
		{"empty", "", []string{}},
		{"typification", "ℬ(X1×C2)", []string{"X1", "C2"}},
		{"dedup in order", "D3∪D1∪D3", []string{"D3", "D1"}},
		{"multi digit", "X12×X1", []string{"X12", "X1"}},
		{"no globals", "ℬ(Z)", []string{}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, ExtractGlobals(tc.expression))
		})
	}
}

func TestApplyAliasMapping(t *testing.T) {
	mapping := AliasMapping{"X1": "X2", "X2": "X1", "D1": "D900"}

	assert.Equal(t, "X2∈X1", ApplyAliasMapping("X1∈X2", mapping), "replacement is simultaneous")
	assert.Equal(t, "D900∪D10", ApplyAliasMapping("D1∪D10", mapping), "longer identifiers are not split")
	assert.Equal(t, "X5", ApplyAliasMapping("X5", nil))
}

func TestApplyTypificationMapping(t *testing.T) {
	tests := []struct {
		name     string
		target   string
		mapping  AliasMapping
		expected string
	}{
		{"rename", "ℬ(X1×X2)", AliasMapping{"X1": "X3"}, "ℬ(X3×X2)"},
		{"product inside product", "ℬ(X1×X2)", AliasMapping{"X1": "X3×X4"}, "ℬ((X3×X4)×X2)"},
		{"product alone collapses", "ℬ(X1)", AliasMapping{"X1": "X3×X4"}, "ℬ(X3×X4)"},
		{"nested set", "ℬ(X1)", AliasMapping{"X1": "ℬ(X3)"}, "ℬ(ℬ(X3))"},
		{"untouched", "ℬ(X7)", AliasMapping{"X1": "X3"}, "ℬ(X7)"},
		{"bare", "X1", AliasMapping{"X1": "X2×X3"}, "(X2×X3)"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, ApplyTypificationMapping(tc.target, tc.mapping))
		})
	}
}

func TestStripPowerset(t *testing.T) {
	tests := []struct {
		input    string
		expected string
		ok       bool
	}{
		{"ℬ(X1)", "X1", true},
		{"ℬ(X1×X2)", "X1×X2", true},
		{"ℬℬ(X1)", "ℬ(X1)", true},
		{"ℬ(X1)×ℬ(X2)", "", false},
		{"ℬX1", "X1", true},
		{"X1", "", false},
		{"", "", false},
	}

	for _, tc := range tests {
		got, ok := StripPowerset(tc.input)
		assert.Equal(t, tc.ok, ok, tc.input)
		assert.Equal(t, tc.expected, got, tc.input)
	}
}

func TestNormalizeExpression(t *testing.T) {
	assert.Equal(t, "X1∪X2", NormalizeExpression(" X1 ∪\tX2\n"))
}

func TestNewSchema(t *testing.T) {
	parent := 7
	data := SchemaData{
		ID:    1,
		Alias: "S1",
		Items: []Constituent{
			{ID: 10, Alias: "X1", CstType: CstBase, CstClass: ClassBasic},
			{ID: 11, Alias: "D1", CstType: CstTerm, CstClass: ClassDerived, DefinitionFormal: "ℬ(X1)"},
			{ID: 12, Alias: "D2", CstType: CstTerm, IsInherited: true, ParentSchema: &parent},
		},
		Inheritance:  []Inheritance{{Child: 12, ChildSource: 1, Parent: 70, ParentSource: 7}},
		Dependencies: []Dependency{{From: 10, To: 11}},
	}

	t.Run("indexes items", func(t *testing.T) {
		s, err := NewSchema(data)
		require.NoError(t, err)

		cst, ok := s.ByAlias("D1")
		require.True(t, ok)
		assert.Equal(t, 11, cst.ID)
		assert.Equal(t, 1, cst.Schema, "schema id is filled in")
		assert.Equal(t, []int{10, 11, 12}, s.Graph.NodeIDs())
		assert.True(t, s.Graph.HasEdge(10, 11))
		assert.Equal(t, "S1::D1", s.QualifiedAlias(cst))

		p, ok := s.InheritanceParent(12)
		require.True(t, ok)
		assert.Equal(t, 70, p)
		_, ok = s.InheritanceParent(10)
		assert.False(t, ok)
	})

	t.Run("duplicate alias", func(t *testing.T) {
		bad := data
		bad.Items = append(append([]Constituent(nil), data.Items...), Constituent{ID: 13, Alias: "X1"})
		_, err := NewSchema(bad)
		assert.True(t, errors.Is(err, ErrDuplicateConstituent))
	})

	t.Run("dangling dependency", func(t *testing.T) {
		bad := data
		bad.Dependencies = []Dependency{{From: 10, To: 99}}
		_, err := NewSchema(bad)
		assert.True(t, errors.Is(err, ErrUnknownConstituent))
	})
}
