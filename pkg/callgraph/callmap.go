package callgraph

import (
	"sort"

	"github.com/smith-xyz/stackpath/pkg/models"
)

// CallGraph maps every caller id to the set of ids it calls
type CallGraph struct {
	callees map[models.FunctionID]map[models.FunctionID]struct{}
}

// ExtractCallGraph collects the cfn= references of every block under the
// block's fn= owner. Blocks repeating an owner add to its callee set.
func (g *Generator) ExtractCallGraph(text string) *CallGraph {
	graph := &CallGraph{callees: make(map[models.FunctionID]map[models.FunctionID]struct{})}

	for _, block := range splitBlocks(text) {
		var owner models.FunctionID
		hasOwner := false
		calls := make(map[models.FunctionID]struct{})

		for _, line := range block {
			if id, ok := matchID(ownerPattern, line); ok {
				owner = models.FunctionID(id)
				hasOwner = true
				continue
			}
			if id, ok := matchID(calleePattern, line); ok {
				calls[models.FunctionID(id)] = struct{}{}
			}
		}

		if !hasOwner {
			continue
		}
		set, ok := graph.callees[owner]
		if !ok {
			set = make(map[models.FunctionID]struct{}, len(calls))
			graph.callees[owner] = set
		}
		for callee := range calls {
			set[callee] = struct{}{}
		}
	}

	g.logger.Debug("Extracted call graph", "callers", len(graph.callees), "edges", graph.EdgeCount())
	return graph
}

// Callees returns the ids called by caller in ascending order
func (c *CallGraph) Callees(caller models.FunctionID) []models.FunctionID {
	set := c.callees[caller]
	ids := make([]models.FunctionID, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Edges returns every edge ordered by caller, then callee
func (c *CallGraph) Edges() []models.CallEdge {
	callers := make([]models.FunctionID, 0, len(c.callees))
	for caller := range c.callees {
		callers = append(callers, caller)
	}
	sort.Slice(callers, func(i, j int) bool { return callers[i] < callers[j] })

	var edges []models.CallEdge
	for _, caller := range callers {
		for _, callee := range c.Callees(caller) {
			edges = append(edges, models.CallEdge{Caller: caller, Callee: callee})
		}
	}
	return edges
}

// EdgeCount returns the number of distinct edges
func (c *CallGraph) EdgeCount() int {
	count := 0
	for _, set := range c.callees {
		count += len(set)
	}
	return count
}
