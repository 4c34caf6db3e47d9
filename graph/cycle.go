package graph

import "github.com/c360/semledger/relation"

// cycleLogInterval throttles repeated cycle warnings: the first rejection
// logs, then every Nth after it.
const cycleLogInterval = 100

// wouldCycle reports whether the edge child -> parent may close a
// hierarchy loop. It walks from parent over outgoing edges of every
// cycle-forming relation type with an explicit stack and a single visited
// set; reaching child means the new edge would complete a path back to
// itself. Equal keys are trivially a cycle.
//
// Because paired hierarchy types store both directions, the walk treats
// any existing cycle-forming path between the two keys as a cycle risk.
// That rejects some legal diamond shapes (a key linked under both a node
// and that node's ancestor), which in this data signals a malformed
// hierarchy anyway.
//
// Two bounds keep the walk cheap on dirty input: traversal gives up once
// more than maxDepth nodes have been visited and assumes the chain is
// acyclic, and confirmed cycles are memoized per (child, parent) pair.
// Negative results are never memoized: edges only accumulate, so a pair
// with no path today can gain one later.
func (g *Graph) wouldCycle(child, parent string) bool {
	if child == parent {
		return true
	}

	memoKey := child + "\x00" + parent
	if hit, ok := g.memo.Get(memoKey); ok {
		return hit
	}

	visited := make(stringSet, g.maxDepth+1)
	stack := []string{parent}

	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if node == child {
			_, _ = g.memo.Set(memoKey, true)
			return true
		}

		if _, seen := visited[node]; seen {
			continue
		}
		visited[node] = struct{}{}
		if len(visited) > g.maxDepth {
			return false
		}

		for _, rel := range g.cycleTypes {
			for next := range g.adjacency[rel][node] {
				if _, seen := visited[next]; !seen {
					stack = append(stack, next)
				}
			}
		}
	}

	return false
}

// recordCycleRejected counts a dropped edge, updates metrics, and logs
// the first hit plus every cycleLogInterval-th after it.
func (g *Graph) recordCycleRejected(from string, rel relation.Type, to string) {
	g.cycleHits++

	if g.metrics != nil {
		g.metrics.RecordCycleRejected(g.name)
	}

	if g.cycleHits == 1 || g.cycleHits%cycleLogInterval == 0 {
		g.logger.Warn("Dropped relationship edge that would close a hierarchy cycle",
			"graph", g.name,
			"from", from,
			"relation", rel.String(),
			"to", to,
			"total_rejected", g.cycleHits)
	}
}

// CycleRejections returns how many edges the cycle check has dropped.
func (g *Graph) CycleRejections() uint64 {
	return g.cycleHits
}
