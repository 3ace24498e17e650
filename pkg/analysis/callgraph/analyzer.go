package callgraph

import (
	"log/slog"

	"github.com/smith-xyz/stackpath/pkg/analysis/rules"
	"github.com/smith-xyz/stackpath/pkg/models"
)

// CallSource provides the callees of a function in a stable order
type CallSource interface {
	Callees(caller models.FunctionID) []models.FunctionID
}

// NameSource provides function records by id
type NameSource interface {
	Function(id models.FunctionID) (models.FunctionRecord, bool)
}

// Analyzer expands the call graph into the tree of observed call paths
type Analyzer struct {
	logger *slog.Logger
	config *Config
	rules  *rules.Rules
}

// Config holds configuration for call-path expansion
type Config struct {
	MaxDepth int // 0 expands until leaves or recursion
}

// NewAnalyzer creates a new call-path analyzer
func NewAnalyzer(logger *slog.Logger, config *Config, rules *rules.Rules) *Analyzer {
	if config == nil {
		config = &Config{}
	}
	return &Analyzer{
		logger: logger,
		config: config,
		rules:  rules,
	}
}

// BuildTree expands calls depth-first from entry. Internal symbols are
// dropped with their subtrees. A callee already on the current path is not
// followed; its caller is marked truncated and remembers the callee. The returned statistics
// describe the tree only.
func (a *Analyzer) BuildTree(entry models.FunctionRecord, calls CallSource, names NameSource) (*models.CallPathNode, models.CallGraphInfo) {
	root := models.NewCallPathNode(entry, 0)
	stats := models.CallGraphInfo{}
	ancestors := map[models.FunctionID]struct{}{entry.ID: {}}

	a.expand(root, ancestors, calls, names, &stats)

	a.logger.Debug("Built call-path tree",
		"entry", entry.Name,
		"nodes", stats.TreeNodes,
		"leaves", stats.Leaves,
		"max_depth", stats.MaxDepth,
		"cycles_cut", stats.CyclesCut,
		"filtered_internal", stats.FilteredInternal)
	return root, stats
}

func (a *Analyzer) expand(node *models.CallPathNode, ancestors map[models.FunctionID]struct{}, calls CallSource, names NameSource, stats *models.CallGraphInfo) {
	stats.TreeNodes++
	if node.Depth > stats.MaxDepth {
		stats.MaxDepth = node.Depth
	}

	for _, callee := range calls.Callees(node.Function.ID) {
		fn, named := names.Function(callee)
		if named && a.rules.Classifier.IsInternalSymbol(fn.Name) {
			stats.FilteredInternal++
			continue
		}
		if _, onPath := ancestors[callee]; onPath {
			node.Truncated = true
			node.RecursiveCalls = append(node.RecursiveCalls, fn)
			stats.CyclesCut++
			a.logger.Debug("Cut recursive call", "caller", node.Function.Name, "callee", fn.Name, "depth", node.Depth)
			continue
		}
		if a.config.MaxDepth > 0 && node.Depth >= a.config.MaxDepth {
			node.Truncated = true
			stats.DepthLimited++
			continue
		}
		if !named {
			stats.UnknownNames++
		}

		child := node.AddChild(fn)
		ancestors[callee] = struct{}{}
		a.expand(child, ancestors, calls, names, stats)
		delete(ancestors, callee)
	}

	if node.IsLeaf() {
		stats.Leaves++
	}
}

// CalculateReachableFunctions returns the distinct function ids present in the tree
func (a *Analyzer) CalculateReachableFunctions(root *models.CallPathNode) map[models.FunctionID]struct{} {
	reachable := make(map[models.FunctionID]struct{})
	a.MarkReachableFunctions(root, reachable)
	return reachable
}

// MarkReachableFunctions marks every function in the subtree of node
func (a *Analyzer) MarkReachableFunctions(node *models.CallPathNode, reachableSet map[models.FunctionID]struct{}) {
	if node == nil {
		return
	}
	reachableSet[node.Function.ID] = struct{}{}
	for _, child := range node.Children {
		a.MarkReachableFunctions(child, reachableSet)
	}
}
