// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package schema

import (
	"fmt"

	"github.com/AleutianAI/ConceptOSS/services/oss/graph"
)

// Position is the resolved canvas position of an operation.
type Position struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Geometry is the resolved canvas rectangle of a block.
type Geometry struct {
	X      float64 `json:"x" yaml:"x"`
	Y      float64 `json:"y" yaml:"y"`
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
}

// Substitution is a substitution pair attached to its operation.
type Substitution struct {
	Operation         int    `json:"operation" yaml:"operation"`
	Original          int    `json:"original" yaml:"original"`
	Substitution      int    `json:"substitution" yaml:"substitution"`
	OriginalAlias     string `json:"original_alias,omitempty" yaml:"original_alias,omitempty"`
	SubstitutionAlias string `json:"substitution_alias,omitempty" yaml:"substitution_alias,omitempty"`
}

// Operation is a fully derived operation.
type Operation struct {
	OperationData `yaml:",inline"`

	Position Position `json:"position" yaml:"position"`

	// IsOwned is true when no schema is attached, or the attached schema has
	// the same owner and location as the OSS.
	IsOwned bool `json:"is_owned" yaml:"is_owned"`

	// IsConsolidation is true when some ancestor is reachable through two or
	// more distinct argument branches.
	IsConsolidation bool `json:"is_consolidation" yaml:"is_consolidation"`

	// Arguments lists argument operation ids in declaration order.
	Arguments []int `json:"arguments" yaml:"arguments"`

	// Substitutions lists the pairs scoped to this operation.
	Substitutions []Substitution `json:"substitutions" yaml:"substitutions"`
}

// Block is a fully derived block.
type Block struct {
	BlockData `yaml:",inline"`

	Geometry Geometry `json:"geometry" yaml:"geometry"`
}

// Stats aggregates item counts of an OSS.
type Stats struct {
	CountAll       int `json:"count_all" yaml:"count_all"`
	CountInputs    int `json:"count_inputs" yaml:"count_inputs"`
	CountSynthesis int `json:"count_synthesis" yaml:"count_synthesis"`
	CountReplicas  int `json:"count_replicas" yaml:"count_replicas"`
	CountSchemas   int `json:"count_schemas" yaml:"count_schemas"`
	CountOwned     int `json:"count_owned" yaml:"count_owned"`
	CountBlocks    int `json:"count_blocks" yaml:"count_blocks"`
}

// ItemKind distinguishes blocks from operations in the containment graph.
type ItemKind uint8

const (
	KindBlock ItemKind = iota + 1
	KindOperation
)

// String returns "block" or "operation".
func (k ItemKind) String() string {
	switch k {
	case KindBlock:
		return "block"
	case KindOperation:
		return "operation"
	default:
		return "unknown"
	}
}

// ItemRef identifies a block or an operation in the containment graph.
type ItemRef struct {
	Kind ItemKind
	ID   int
}

// String renders the reference as "b12" or "o7".
func (r ItemRef) String() string {
	return fmt.Sprintf("%c%d", r.Kind.String()[0], r.ID)
}

// BlockRef returns the containment key of a block.
func BlockRef(id int) ItemRef { return ItemRef{Kind: KindBlock, ID: id} }

// OperationRef returns the containment key of an operation.
func OperationRef(id int) ItemRef { return ItemRef{Kind: KindOperation, ID: id} }

// Model is the fully derived OSS.
type Model struct {
	ID       int    `json:"id" yaml:"id"`
	Alias    string `json:"alias" yaml:"alias"`
	Title    string `json:"title,omitempty" yaml:"title,omitempty"`
	Owner    *int   `json:"owner,omitempty" yaml:"owner,omitempty"`
	Location string `json:"location" yaml:"location"`

	// Operations are listed in payload order.
	Operations []*Operation `json:"operations" yaml:"operations"`

	// Blocks are listed in payload order.
	Blocks []*Block `json:"blocks" yaml:"blocks"`

	// Graph is the dependency graph (argument → operation).
	Graph *graph.Graph[int] `json:"-" yaml:"-"`

	// Hierarchy is the containment graph (parent block → child).
	Hierarchy *graph.Graph[ItemRef] `json:"-" yaml:"-"`

	Stats Stats `json:"stats" yaml:"stats"`

	operationByID     map[int]*Operation
	blockByID         map[int]*Block
	operationByResult map[int]*Operation
}

// Operation returns the operation with the given id.
func (m *Model) Operation(id int) (*Operation, bool) {
	op, ok := m.operationByID[id]
	return op, ok
}

// Block returns the block with the given id.
func (m *Model) Block(id int) (*Block, bool) {
	block, ok := m.blockByID[id]
	return block, ok
}

// OperationByResult returns the operation whose result is the given schema.
func (m *Model) OperationByResult(schemaID int) (*Operation, bool) {
	op, ok := m.operationByResult[schemaID]
	return op, ok
}

// Predecessors returns the argument ids of an operation in declaration order.
func (m *Model) Predecessors(id int) []int {
	op, ok := m.operationByID[id]
	if !ok {
		return nil
	}
	return append([]int(nil), op.Arguments...)
}

// Successors returns the operations that take id as an argument.
func (m *Model) Successors(id int) []int {
	return m.Graph.ExpandOutputs([]int{id})
}

// Roots returns operations without arguments.
func (m *Model) Roots() []int {
	return m.Graph.RootNodes()
}

// BlockContents returns every item nested in the block, at any depth.
func (m *Model) BlockContents(id int) []ItemRef {
	return m.Hierarchy.ExpandAllOutputs([]ItemRef{BlockRef(id)})
}

// ArgumentCandidates returns operations that may become arguments of id
// without creating a dependency cycle.
//
// Every operation except id itself and its descendants qualifies.
func (m *Model) ArgumentCandidates(id int) []int {
	excluded := make(map[int]struct{})
	excluded[id] = struct{}{}
	for _, d := range m.Graph.ExpandAllOutputs([]int{id}) {
		excluded[d] = struct{}{}
	}
	var result []int
	for _, op := range m.Operations {
		if _, ok := excluded[op.ID]; !ok {
			result = append(result, op.ID)
		}
	}
	return result
}

// DeterminedBy returns the operations fully determined by the given set:
// the set itself plus every descendant whose arguments all lie in the
// growing result.
func (m *Model) DeterminedBy(ids []int) []int {
	return m.Graph.MaximizePart(ids)
}

// FoldedGraph returns a copy of the dependency graph with the given
// operations collapsed out, keeping transitive dependencies as direct edges.
func (m *Model) FoldedGraph(ids ...int) *graph.Graph[int] {
	g := m.Graph.Clone()
	for _, id := range ids {
		g.FoldNode(id)
	}
	return g
}

// ReducedGraph returns a copy of the dependency graph without edges that
// are implied by longer paths.
func (m *Model) ReducedGraph() *graph.Graph[int] {
	g := m.Graph.Clone()
	g.TransitiveReduction()
	return g
}

// SubstitutionsOf returns the substitutions scoped to an operation.
func (m *Model) SubstitutionsOf(id int) []Substitution {
	op, ok := m.operationByID[id]
	if !ok {
		return nil
	}
	return append([]Substitution(nil), op.Substitutions...)
}

// AllSubstitutions returns every substitution in operation order.
func (m *Model) AllSubstitutions() []Substitution {
	var result []Substitution
	for _, op := range m.Operations {
		result = append(result, op.Substitutions...)
	}
	return result
}
