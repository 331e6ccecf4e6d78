// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package graph

// ExpandOutputs returns the one-hop successors of all origin nodes.
//
// The result is de-duplicated and never contains a member of origin.
func (g *Graph[ID]) ExpandOutputs(origin []ID) []ID {
	return g.expand(origin, func(n *Node[ID]) []ID { return n.Outputs })
}

// ExpandInputs returns the one-hop predecessors of all origin nodes.
//
// The result is de-duplicated and never contains a member of origin.
func (g *Graph[ID]) ExpandInputs(origin []ID) []ID {
	return g.expand(origin, func(n *Node[ID]) []ID { return n.Inputs })
}

// ExpandAllOutputs returns the forward closure of origin.
//
// Description:
//
//	Worklist traversal that visits each discovered node once. The result
//	is in discovery order (not guaranteed topological) and never contains
//	a member of origin.
func (g *Graph[ID]) ExpandAllOutputs(origin []ID) []ID {
	return g.expandAll(origin, func(n *Node[ID]) []ID { return n.Outputs })
}

// ExpandAllInputs returns the backward closure of origin.
//
// Same contract as ExpandAllOutputs, walking Inputs instead of Outputs.
func (g *Graph[ID]) ExpandAllInputs(origin []ID) []ID {
	return g.expandAll(origin, func(n *Node[ID]) []ID { return n.Inputs })
}

// IsReachable reports whether target is in the forward closure of source.
func (g *Graph[ID]) IsReachable(source, target ID) bool {
	return indexOf(g.ExpandAllOutputs([]ID{source}), target) >= 0
}

func (g *Graph[ID]) expand(origin []ID, next func(*Node[ID]) []ID) []ID {
	marked := make(map[ID]struct{}, len(origin))
	for _, id := range origin {
		marked[id] = struct{}{}
	}
	var result []ID
	for _, id := range origin {
		node, ok := g.nodes[id]
		if !ok {
			continue
		}
		for _, neighbor := range next(node) {
			if _, seen := marked[neighbor]; seen {
				continue
			}
			marked[neighbor] = struct{}{}
			result = append(result, neighbor)
		}
	}
	return result
}

func (g *Graph[ID]) expandAll(origin []ID, next func(*Node[ID]) []ID) []ID {
	result := g.expand(origin, next)
	if len(result) == 0 {
		return nil
	}
	marked := make(map[ID]struct{}, len(origin)+len(result))
	for _, id := range origin {
		marked[id] = struct{}{}
	}
	for _, id := range result {
		marked[id] = struct{}{}
	}
	for position := 0; position < len(result); position++ {
		node, ok := g.nodes[result[position]]
		if !ok {
			continue
		}
		for _, neighbor := range next(node) {
			if _, seen := marked[neighbor]; seen {
				continue
			}
			marked[neighbor] = struct{}{}
			result = append(result, neighbor)
		}
	}
	return result
}
