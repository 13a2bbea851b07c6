package runner

import "github.com/dshills/agentflow/graph"

// buildAffectedSubgraph implements §4.D's affected sub-graph algorithm for
// the set of directly-triggered autonomous node ids T:
//
//  1. Downstream closure: BFS over forward edges starting from the
//     connection targets of T (never T itself, and never any other
//     autonomous node the BFS passes through — each autonomous node's
//     current output, if any, was already produced by OnTick and written
//     into the context; re-running its Execute via the derived sub-graph
//     would overwrite that value with a freshly-built instance's idle
//     output). The BFS still walks forward through an autonomous node to
//     reach whatever lies beyond it; it just never adds the autonomous
//     node itself to the set of nodes to (re-)execute.
//  2. Dependency closure: for every non-autonomous node reached above,
//     walk backward over its transitive predecessors, never recursing
//     through an autonomous node (its outputs are already in the
//     context; re-running it would double-fire it this tick).
//  3. The derived graph's nodes are exactly that set. Its connections are
//     the subset of the original connections whose target is in the set
//     and whose source is either also in the set or is an autonomous
//     node — an autonomous source is never itself re-executed, but its
//     connection must still carry its (already-current) output from
//     gctx.NodeOutputs into the node that consumes it.
func buildAffectedSubgraph(g *graph.Graph, triggered []string) *graph.Graph {
	autonomous := autonomousNodeSet(g)
	forward := forwardIndex(g)

	downstream := map[string]bool{}
	visited := map[string]bool{}
	var queue []string
	seed := func(id string) {
		if visited[id] {
			return
		}
		visited[id] = true
		if !autonomous[id] {
			downstream[id] = true
		}
		queue = append(queue, id)
	}
	for _, id := range triggered {
		for _, next := range forward[id] {
			seed(next)
		}
	}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, next := range forward[id] {
			seed(next)
		}
	}

	included := map[string]bool{}
	for id := range downstream {
		included[id] = true
	}
	backward := backwardIndex(g)
	var walk func(id string)
	walk = func(id string) {
		for _, pred := range backward[id] {
			if autonomous[pred] {
				continue
			}
			if !included[pred] {
				included[pred] = true
				walk(pred)
			}
		}
	}
	for id := range downstream {
		walk(id)
	}

	derived := &graph.Graph{ID: g.ID, Name: g.Name}
	for _, n := range g.Nodes {
		if included[n.ID] {
			derived.Nodes = append(derived.Nodes, n)
		}
	}
	for _, c := range g.Connections {
		if !included[c.TargetNode] {
			continue
		}
		if included[c.SourceNode] || autonomous[c.SourceNode] {
			derived.Connections = append(derived.Connections, c)
		}
	}
	return derived
}

func autonomousNodeSet(g *graph.Graph) map[string]bool {
	set := map[string]bool{}
	for _, n := range g.Nodes {
		if n.Mode == graph.ModeContinuous {
			set[n.ID] = true
		}
	}
	return set
}

func forwardIndex(g *graph.Graph) map[string][]string {
	idx := map[string][]string{}
	for _, c := range g.Connections {
		idx[c.SourceNode] = append(idx[c.SourceNode], c.TargetNode)
	}
	return idx
}

func backwardIndex(g *graph.Graph) map[string][]string {
	idx := map[string][]string{}
	for _, c := range g.Connections {
		idx[c.TargetNode] = append(idx[c.TargetNode], c.SourceNode)
	}
	return idx
}
