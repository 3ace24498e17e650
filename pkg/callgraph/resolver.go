package callgraph

import (
	"sort"
	"strings"

	"github.com/smith-xyz/stackpath/pkg/models"
)

// CostSource tells the resolver which functions a file has stack-usage
// data for
type CostSource interface {
	HasFile(file string) bool
	HasFunction(file, function string) bool
}

// Attributions maps function ids to the file whose stack-usage entry
// applies to them
type Attributions struct {
	raw      map[models.FunctionID]models.FileAttribution
	resolved map[models.FunctionID]models.FileAttribution
	cyclic   []models.FunctionID
}

// AttributionEntry is one row of the function to file table
type AttributionEntry struct {
	Function models.FunctionID
	Recorded models.FileAttribution // as found in the trace, before indirections are followed
	Resolved models.FileAttribution
}

// ResolveFiles decides per function id which file it belongs to. Within a
// block a function reference is attributed, in order of preference, to the
// preceding file reference that lists it in the stack-usage data, to the
// block's file, or to the block's owning function. The last block that
// attributes an id wins.
func (g *Generator) ResolveFiles(text string, index *ProfileIndex, costs CostSource) *Attributions {
	raw := make(map[models.FunctionID]models.FileAttribution)

	for _, block := range splitBlocks(text) {
		g.attributeBlock(block, index, costs, raw)
	}

	attributions := &Attributions{
		raw:      raw,
		resolved: make(map[models.FunctionID]models.FileAttribution, len(raw)),
	}

	for _, id := range sortedFunctionIDs(raw) {
		resolved, cyclic := dereference(id, raw)
		attributions.resolved[id] = resolved
		if cyclic {
			attributions.cyclic = append(attributions.cyclic, id)
			g.logger.Debug("Cyclic file attribution", "function", id)
		}
	}

	g.logger.Debug("Resolved file attributions", "functions", len(raw), "cyclic", len(attributions.cyclic))
	return attributions
}

func (g *Generator) attributeBlock(block []string, index *ProfileIndex, costs CostSource, raw map[models.FunctionID]models.FileAttribution) {
	var (
		blockFile     models.FileID
		hasBlockFile  bool
		owner         models.FunctionID
		hasOwner      bool
		candidate     models.FileID
		candidateName string
		hasCandidate  bool
	)

	lines := block
	for len(lines) > 0 && strings.HasPrefix(lines[0], "ob") {
		lines = lines[1:]
	}
	if len(lines) > 0 {
		if id, ok := matchFunctionRef(lines[0]); ok {
			owner, hasOwner = id, true
			lines = lines[1:]
		} else if id, ok := matchFileRef(lines[0]); ok {
			blockFile, hasBlockFile = id, true
			lines = lines[1:]
		}
	}

	for _, line := range lines {
		if id, ok := matchFileRef(line); ok {
			hasCandidate = false
			if name, known := index.FileName(id); known && costs.HasFile(name) {
				candidate, candidateName, hasCandidate = id, name, true
			}
			continue
		}

		fn, ok := matchFunctionRef(line)
		if !ok {
			continue
		}
		name, named := index.FunctionName(fn)
		switch {
		case hasCandidate && named && costs.HasFunction(candidateName, name):
			raw[fn] = models.FileAttributionOf(candidate, true)
		case hasBlockFile:
			raw[fn] = models.FileAttributionOf(blockFile, false)
		case hasOwner:
			raw[fn] = models.SameAsAttribution(owner)
		}
		hasCandidate = false
	}
}

// dereference follows SameAs links from start until a file or a dead end.
// Revisiting a function on the chain is a cycle and resolves to Unresolved.
func dereference(start models.FunctionID, raw map[models.FunctionID]models.FileAttribution) (models.FileAttribution, bool) {
	seen := map[models.FunctionID]struct{}{start: {}}
	current := raw[start]
	for current.Kind == models.AttributionSameAs {
		next := current.SameAs
		if _, ok := seen[next]; ok {
			return models.Unresolved(), true
		}
		seen[next] = struct{}{}
		attribution, ok := raw[next]
		if !ok {
			return models.Unresolved(), false
		}
		current = attribution
	}
	return current, false
}

// Resolve returns the file a function's cost should be looked up in
func (a *Attributions) Resolve(id models.FunctionID) (models.FileID, bool) {
	attribution := a.Attribution(id)
	if !attribution.IsResolved() {
		return 0, false
	}
	return attribution.File, true
}

// Attribution returns the fully dereferenced attribution of id
func (a *Attributions) Attribution(id models.FunctionID) models.FileAttribution {
	attribution, ok := a.resolved[id]
	if !ok {
		return models.Unresolved()
	}
	return attribution
}

// Cyclic returns the functions whose indirection chain looped, by id
func (a *Attributions) Cyclic() []models.FunctionID {
	return append([]models.FunctionID(nil), a.cyclic...)
}

// Entries returns every attributed function ordered by id
func (a *Attributions) Entries() []AttributionEntry {
	entries := make([]AttributionEntry, 0, len(a.raw))
	for _, id := range sortedFunctionIDs(a.raw) {
		entries = append(entries, AttributionEntry{
			Function: id,
			Recorded: a.raw[id],
			Resolved: a.resolved[id],
		})
	}
	return entries
}

// Len returns the number of attributed functions
func (a *Attributions) Len() int {
	return len(a.raw)
}

func sortedFunctionIDs(m map[models.FunctionID]models.FileAttribution) []models.FunctionID {
	ids := make([]models.FunctionID, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
