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

// TopologicalOrder returns node ids so that every edge (u, v) has u before v.
//
// Description:
//
//	Iterative DFS with an explicit stack producing reverse postorder.
//	Roots are taken in node creation order and children in edge insertion
//	order, so the result is deterministic for a given construction order.
//
// Outputs:
//
//	[]ID - All node ids. For cyclic graphs the order is defined but the
//	edge property cannot hold.
//
// Example:
//
//	g := FromEdges([][2]int{{9, 1}, {9, 2}, {2, 1}, {4, 3}, {5, 9}})
//	g.TopologicalOrder() // [5 4 3 9 2 1]
func (g *Graph[ID]) TopologicalOrder() []ID {
	visited := make(map[ID]struct{}, len(g.order))
	done := make(map[ID]struct{}, len(g.order))
	result := make([]ID, 0, len(g.order))
	var stack []ID

	for _, root := range g.order {
		if _, ok := visited[root]; ok {
			continue
		}
		stack = append(stack, root)
		for len(stack) > 0 {
			item := stack[len(stack)-1]
			if _, ok := visited[item]; ok {
				stack = stack[:len(stack)-1]
				if _, finished := done[item]; !finished {
					done[item] = struct{}{}
					result = append(result, item)
				}
				continue
			}
			visited[item] = struct{}{}
			for _, child := range g.nodes[item].Outputs {
				if _, ok := visited[child]; !ok {
					stack = append(stack, child)
				}
			}
		}
	}

	for i, j := 0, len(result)-1; i < j; i, j = i+1, j-1 {
		result[i], result[j] = result[j], result[i]
	}
	return result
}

// reductionItem is a worklist entry carrying the ancestors on its path.
type reductionItem[ID comparable] struct {
	id      ID
	parents []ID
}

// TransitiveReduction removes every edge implied by a longer path.
//
// Description:
//
//	Nodes are processed in topological order. For each node not yet
//	reached, a worklist BFS walks its descendants while tracking, per queued
//	item, every ancestor on the path so far. When a step reaches a child,
//	the direct edge from each of those ancestors to the child is removed,
//	since the child is also reachable through the current item.
//
// Limitations:
//
//	The path-tracking BFS revisits nodes once per distinct path, which is
//	fine for human-curated schema sizes but not for dense graphs.
//
// Invariant: IsReachable(a, b) is unchanged for every pair.
func (g *Graph[ID]) TransitiveReduction() {
	marked := make(map[ID]struct{}, len(g.order))
	for _, nodeID := range g.TopologicalOrder() {
		if _, ok := marked[nodeID]; ok {
			continue
		}
		queue := []reductionItem[ID]{{id: nodeID}}
		for len(queue) > 0 {
			item := queue[0]
			queue = queue[1:]
			if node, ok := g.nodes[item.id]; ok {
				outputs := append([]ID(nil), node.Outputs...)
				for _, child := range outputs {
					for _, parent := range item.parents {
						g.RemoveEdge(parent, child)
					}
					path := make([]ID, 0, len(item.parents)+1)
					path = append(path, item.id)
					path = append(path, item.parents...)
					queue = append(queue, reductionItem[ID]{id: child, parents: path})
				}
			}
			marked[item.id] = struct{}{}
		}
	}
}

// cycleFrame is a DFS call-stack entry.
type cycleFrame[ID comparable] struct {
	id        ID
	parent    ID
	hasParent bool
}

// FindCycle returns a directed cycle or nil if the graph is acyclic.
//
// Description:
//
//	Iterative DFS over every component with a visited set, an on-stack set
//	and a parent map. When an edge leads to a node currently on the stack,
//	the cycle is rebuilt by walking parent pointers back to that node.
//
// Outputs:
//
//	[]ID - Ordered cycle whose first and last elements are identical,
//	e.g. [1 2 3 1]. A self-loop on 1 yields [1 1]. Nil when acyclic.
func (g *Graph[ID]) FindCycle() []ID {
	visited := make(map[ID]struct{}, len(g.order))
	onStack := make(map[ID]struct{}, len(g.order))
	parents := make(map[ID]ID, len(g.order))

	for _, root := range g.order {
		if _, ok := visited[root]; ok {
			continue
		}
		stack := []cycleFrame[ID]{{id: root}}
		for len(stack) > 0 {
			frame := stack[len(stack)-1]
			if _, ok := visited[frame.id]; ok {
				delete(onStack, frame.id)
				stack = stack[:len(stack)-1]
				continue
			}
			visited[frame.id] = struct{}{}
			onStack[frame.id] = struct{}{}
			if frame.hasParent {
				parents[frame.id] = frame.parent
			}

			for _, child := range g.nodes[frame.id].Outputs {
				if _, ok := visited[child]; !ok {
					stack = append(stack, cycleFrame[ID]{id: child, parent: frame.id, hasParent: true})
					continue
				}
				if _, ok := onStack[child]; !ok {
					continue
				}
				cycle := []ID{child}
				for current := frame.id; current != child; current = parents[current] {
					cycle = append(cycle, current)
				}
				cycle = append(cycle, child)
				for i, j := 0, len(cycle)-1; i < j; i, j = i+1, j-1 {
					cycle[i], cycle[j] = cycle[j], cycle[i]
				}
				return cycle
			}
		}
	}
	return nil
}

// MaximizePart extends origin with every descendant that becomes fully
// determined by it.
//
// Description:
//
//	Descendants of origin are walked in topological order; a descendant is
//	added once all of its direct inputs are already in the growing result.
//
// Outputs:
//
//	[]ID - origin followed by the absorbed descendants.
func (g *Graph[ID]) MaximizePart(origin []ID) []ID {
	outputs := make(map[ID]struct{})
	for _, id := range g.ExpandAllOutputs(origin) {
		outputs[id] = struct{}{}
	}
	result := append([]ID(nil), origin...)
	included := make(map[ID]struct{}, len(origin))
	for _, id := range origin {
		included[id] = struct{}{}
	}
	for _, id := range g.TopologicalOrder() {
		if _, ok := outputs[id]; !ok {
			continue
		}
		complete := true
		for _, input := range g.nodes[id].Inputs {
			if _, ok := included[input]; !ok {
				complete = false
				break
			}
		}
		if complete {
			included[id] = struct{}{}
			result = append(result, id)
		}
	}
	return result
}
