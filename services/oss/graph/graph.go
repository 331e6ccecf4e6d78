// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package graph provides a generic directed graph used for dependency
// ordering across the operation schema and concept schemas.
//
// The graph stores nodes keyed by any comparable identifier (operation ids,
// constituent ids, composite containment keys) and keeps adjacency lists in
// insertion order.
//
// # Determinism
//
// Go maps do not preserve insertion order, so the graph keeps a separate
// node order slice. Every traversal (TopologicalOrder, FindCycle,
// ExpandAllOutputs, ...) walks nodes and edges in the order they were
// created. Callers that assert exact sequences must pin edge insertion order.
//
// # Failure Semantics
//
// All operations are total. Unknown ids are silently ignored and no method
// returns an error or panics.
//
// # Thread Safety
//
// Graph is NOT safe for concurrent use. Instances are built per derivation
// request and discarded afterwards.
package graph

// Node is a vertex with ordered predecessor and successor lists.
//
// Invariant: if Outputs of A contains B then Inputs of B contains A, and
// both nodes exist in the owning graph.
type Node[ID comparable] struct {
	// ID is the unique node identifier.
	ID ID

	// Inputs lists predecessor ids in edge insertion order.
	Inputs []ID

	// Outputs lists successor ids in edge insertion order.
	Outputs []ID
}

// Graph is a directed graph keyed by a comparable identifier.
type Graph[ID comparable] struct {
	// nodes maps node ID to Node. Unexported to keep adjacency consistent.
	nodes map[ID]*Node[ID]

	// order holds node ids in creation order.
	order []ID
}

// Edge is a directed (Source, Destination) pair.
type Edge[ID comparable] struct {
	Source      ID
	Destination ID
}

// New creates an empty graph.
func New[ID comparable]() *Graph[ID] {
	return &Graph[ID]{
		nodes: make(map[ID]*Node[ID]),
	}
}

// FromEdges creates a graph from an ordered list of [source, destination]
// pairs. Nodes are created in the order they first appear.
//
// Example:
//
//	g := graph.FromEdges([][2]int{{1, 2}, {2, 3}})
func FromEdges[ID comparable](edges [][2]ID) *Graph[ID] {
	g := New[ID]()
	for _, e := range edges {
		g.AddEdge(e[0], e[1])
	}
	return g
}

// Clone returns a deep copy of the graph.
func (g *Graph[ID]) Clone() *Graph[ID] {
	result := New[ID]()
	for _, id := range g.order {
		node := g.nodes[id]
		result.order = append(result.order, id)
		result.nodes[id] = &Node[ID]{
			ID:      id,
			Inputs:  append([]ID(nil), node.Inputs...),
			Outputs: append([]ID(nil), node.Outputs...),
		}
	}
	return result
}

// At returns the node with the given id.
func (g *Graph[ID]) At(id ID) (*Node[ID], bool) {
	node, ok := g.nodes[id]
	return node, ok
}

// Has reports whether the node exists.
func (g *Graph[ID]) Has(id ID) bool {
	_, ok := g.nodes[id]
	return ok
}

// Len returns the number of nodes.
func (g *Graph[ID]) Len() int {
	return len(g.order)
}

// NodeIDs returns node ids in creation order.
func (g *Graph[ID]) NodeIDs() []ID {
	return append([]ID(nil), g.order...)
}

// Nodes returns nodes in creation order.
func (g *Graph[ID]) Nodes() []*Node[ID] {
	result := make([]*Node[ID], 0, len(g.order))
	for _, id := range g.order {
		result = append(result, g.nodes[id])
	}
	return result
}

// Edges returns all edges, ordered by source creation order and then by
// output insertion order.
func (g *Graph[ID]) Edges() []Edge[ID] {
	var result []Edge[ID]
	for _, id := range g.order {
		for _, out := range g.nodes[id].Outputs {
			result = append(result, Edge[ID]{Source: id, Destination: out})
		}
	}
	return result
}

// EdgeCount returns the number of edges.
func (g *Graph[ID]) EdgeCount() int {
	count := 0
	for _, node := range g.nodes {
		count += len(node.Outputs)
	}
	return count
}

// HasEdge reports whether source links directly to destination.
func (g *Graph[ID]) HasEdge(source, destination ID) bool {
	node, ok := g.nodes[source]
	if !ok {
		return false
	}
	return indexOf(node.Outputs, destination) >= 0
}

// AddNode inserts the node if absent and returns it.
//
// Idempotent: calling AddNode for an existing id returns the existing node
// unchanged.
func (g *Graph[ID]) AddNode(id ID) *Node[ID] {
	if node, ok := g.nodes[id]; ok {
		return node
	}
	node := &Node[ID]{ID: id}
	g.nodes[id] = node
	g.order = append(g.order, id)
	return node
}

// AddEdge links source to destination, creating missing endpoints.
//
// No-op if the edge already exists.
func (g *Graph[ID]) AddEdge(source, destination ID) {
	if g.HasEdge(source, destination) {
		return
	}
	sourceNode := g.AddNode(source)
	destinationNode := g.AddNode(destination)
	sourceNode.Outputs = append(sourceNode.Outputs, destination)
	destinationNode.Inputs = append(destinationNode.Inputs, source)
}

// RemoveNode deletes the node and strips it from every adjacency list.
func (g *Graph[ID]) RemoveNode(id ID) {
	if _, ok := g.nodes[id]; !ok {
		return
	}
	for _, other := range g.nodes {
		other.Inputs = without(other.Inputs, id)
		other.Outputs = without(other.Outputs, id)
	}
	delete(g.nodes, id)
	g.order = without(g.order, id)
}

// RemoveEdge unlinks source from destination.
//
// No-op if either endpoint is absent.
func (g *Graph[ID]) RemoveEdge(source, destination ID) {
	sourceNode, ok := g.nodes[source]
	if !ok {
		return
	}
	destinationNode, ok := g.nodes[destination]
	if !ok {
		return
	}
	sourceNode.Outputs = without(sourceNode.Outputs, destination)
	destinationNode.Inputs = without(destinationNode.Inputs, source)
}

// FoldNode removes a node while preserving transitive relationships.
//
// Description:
//
//	Every (input, output) pair of the node is connected directly with
//	AddEdge before the node is removed. Self-references are dropped
//	together with the node. No-op if the node is absent.
//
// Example:
//
//	// edges 1→3, 2→3, 3→4, 3→5
//	g.FoldNode(3)
//	// edges 1→4, 1→5, 2→4, 2→5
func (g *Graph[ID]) FoldNode(id ID) {
	node, ok := g.nodes[id]
	if !ok {
		return
	}
	inputs := append([]ID(nil), node.Inputs...)
	outputs := append([]ID(nil), node.Outputs...)
	for _, input := range inputs {
		if input == id {
			continue
		}
		for _, output := range outputs {
			if output == id {
				continue
			}
			g.AddEdge(input, output)
		}
	}
	g.RemoveNode(id)
}

// RootNodes returns ids of nodes without inputs, in creation order.
func (g *Graph[ID]) RootNodes() []ID {
	var result []ID
	for _, id := range g.order {
		if len(g.nodes[id].Inputs) == 0 {
			result = append(result, id)
		}
	}
	return result
}

func indexOf[ID comparable](list []ID, target ID) int {
	for i, item := range list {
		if item == target {
			return i
		}
	}
	return -1
}

// without returns list with every occurrence of target removed.
// The backing array is reused.
func without[ID comparable](list []ID, target ID) []ID {
	if indexOf(list, target) < 0 {
		return list
	}
	result := list[:0]
	for _, item := range list {
		if item != target {
			result = append(result, item)
		}
	}
	return result
}
