package cost

import (
	"log/slog"
	"sort"

	"github.com/smith-xyz/stackpath/pkg/models"
)

// FileResolver maps a function id to the file its cost is looked up in
type FileResolver interface {
	Resolve(id models.FunctionID) (models.FileID, bool)
}

// FileNames maps file ids to base names
type FileNames interface {
	FileName(id models.FileID) (string, bool)
}

// CostLookup returns the frame size of a function within a file
type CostLookup interface {
	Lookup(file, function string) (int64, bool)
}

// Result is the outcome of one aggregation pass
type Result struct {
	Paths    []models.CallPath // leaf encounter order
	ZeroCost []models.ZeroCostRecord
}

// Aggregator sums per-function frame sizes along every call path
type Aggregator struct {
	logger   *slog.Logger
	resolver FileResolver
	files    FileNames
	costs    CostLookup

	memo     map[models.FunctionID]int64
	zeroCost map[models.FunctionID]models.ZeroCostRecord
}

// NewAggregator creates a new cost aggregator
func NewAggregator(logger *slog.Logger, resolver FileResolver, files FileNames, costs CostLookup) *Aggregator {
	return &Aggregator{
		logger:   logger,
		resolver: resolver,
		files:    files,
		costs:    costs,
	}
}

// Aggregate walks the tree in pre-order, children by id. The root is the
// entry function and contributes nothing; every other node adds its own
// frame size to its parent's running total. Each leaf yields one path.
func (a *Aggregator) Aggregate(root *models.CallPathNode) Result {
	a.memo = make(map[models.FunctionID]int64)
	a.zeroCost = make(map[models.FunctionID]models.ZeroCostRecord)

	var result Result
	if root != nil {
		for _, child := range root.SortedChildren() {
			a.walk(child, nil, 0, &result)
		}
	}

	result.ZeroCost = make([]models.ZeroCostRecord, 0, len(a.zeroCost))
	for _, record := range a.zeroCost {
		result.ZeroCost = append(result.ZeroCost, record)
	}
	sort.Slice(result.ZeroCost, func(i, j int) bool {
		return result.ZeroCost[i].Function.ID < result.ZeroCost[j].Function.ID
	})

	a.logger.Debug("Aggregated path costs", "paths", len(result.Paths), "zero_cost_functions", len(result.ZeroCost))
	return result
}

func (a *Aggregator) walk(node *models.CallPathNode, prefix []models.PathEntry, cumulative int64, result *Result) {
	bytes := a.FunctionCost(node.Function)
	entries := make([]models.PathEntry, len(prefix), len(prefix)+1)
	copy(entries, prefix)
	entries = append(entries, models.PathEntry{Function: node.Function, Bytes: bytes})
	cumulative += bytes

	if node.IsLeaf() {
		result.Paths = append(result.Paths, models.CallPath{
			Entries:   entries,
			Total:     cumulative,
			Truncated: node.Truncated,
		})
		return
	}
	for _, child := range node.SortedChildren() {
		a.walk(child, entries, cumulative, result)
	}
}

// FunctionCost resolves fn to its file and returns the frame size recorded
// there. Unresolved functions and functions missing from the table cost 0
// and are remembered for diagnostics.
func (a *Aggregator) FunctionCost(fn models.FunctionRecord) int64 {
	if a.memo == nil {
		a.memo = make(map[models.FunctionID]int64)
		a.zeroCost = make(map[models.FunctionID]models.ZeroCostRecord)
	}
	if bytes, ok := a.memo[fn.ID]; ok {
		return bytes
	}

	var bytes int64
	fileID, resolved := a.resolver.Resolve(fn.ID)
	fileName, named := a.files.FileName(fileID)
	switch {
	case !resolved || !named:
		a.zeroCost[fn.ID] = models.ZeroCostRecord{Function: fn, File: models.UnresolvedFile, Reason: models.ReasonUnresolvedAttribution}
	default:
		var found bool
		bytes, found = a.costs.Lookup(fileName, fn.Name)
		if !found {
			a.zeroCost[fn.ID] = models.ZeroCostRecord{Function: fn, File: fileName, Reason: models.ReasonMissingEntry}
		}
	}

	a.memo[fn.ID] = bytes
	return bytes
}
