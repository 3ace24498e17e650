package callgraph

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/smith-xyz/stackpath/pkg/models"
)

// ProfileIndex holds the id to name tables of one trace. It is built once
// and only read afterwards.
type ProfileIndex struct {
	functions map[models.FunctionID]string
	files     map[models.FileID]string
	entryName string
	entry     models.FunctionID
	hasEntry  bool
}

// Index scans every line of the trace for function and file declarations
func (g *Generator) Index(text string) *ProfileIndex {
	index := &ProfileIndex{
		functions: make(map[models.FunctionID]string),
		files:     make(map[models.FileID]string),
		entryName: g.entryFunction,
	}

	var entryDecls []models.FunctionID
	for _, line := range splitLines(text) {
		if match := functionDeclPattern.FindStringSubmatch(line); match != nil {
			id, err := strconv.ParseUint(match[1], 10, 64)
			if err != nil {
				g.logger.Debug("Skipping function declaration with invalid id", "line", line)
				continue
			}
			fn := models.FunctionID(id)
			index.functions[fn] = match[2]
			if match[2] == g.entryFunction {
				entryDecls = append(entryDecls, fn)
			}
			continue
		}
		if match := g.fileDeclPattern.FindStringSubmatch(line); match != nil {
			id, err := strconv.ParseUint(match[1], 10, 64)
			if err != nil {
				g.logger.Debug("Skipping file declaration with invalid id", "line", line)
				continue
			}
			index.files[models.FileID(id)] = match[2]
		}
	}

	// A later declaration may rename an id that once carried the entry name
	for i := len(entryDecls) - 1; i >= 0; i-- {
		if index.functions[entryDecls[i]] == g.entryFunction {
			index.entry = entryDecls[i]
			index.hasEntry = true
			break
		}
	}

	g.logger.Debug("Indexed trace", "functions", len(index.functions), "files", len(index.files), "entry_found", index.hasEntry)
	return index
}

// EntryPoint returns the id of the entry function
func (x *ProfileIndex) EntryPoint() (models.FunctionID, error) {
	if !x.hasEntry {
		return 0, fmt.Errorf("%w: no function named %q in trace", models.ErrEntryPointNotFound, x.entryName)
	}
	return x.entry, nil
}

// FunctionName returns the declared name of a function id
func (x *ProfileIndex) FunctionName(id models.FunctionID) (string, bool) {
	name, ok := x.functions[id]
	return name, ok
}

// Function returns the record for id, or ok=false with a placeholder
// record when the id was never declared
func (x *ProfileIndex) Function(id models.FunctionID) (models.FunctionRecord, bool) {
	name, ok := x.functions[id]
	if !ok {
		return models.UnknownFunction(id), false
	}
	return models.FunctionRecord{ID: id, Name: name}, true
}

// FileName returns the base name of a file id
func (x *ProfileIndex) FileName(id models.FileID) (string, bool) {
	name, ok := x.files[id]
	return name, ok
}

// Functions returns every declared function ordered by id
func (x *ProfileIndex) Functions() []models.FunctionRecord {
	records := make([]models.FunctionRecord, 0, len(x.functions))
	for id, name := range x.functions {
		records = append(records, models.FunctionRecord{ID: id, Name: name})
	}
	sort.Slice(records, func(i, j int) bool { return records[i].ID < records[j].ID })
	return records
}

// Files returns every declared file ordered by id
func (x *ProfileIndex) Files() []models.FileRecord {
	records := make([]models.FileRecord, 0, len(x.files))
	for id, name := range x.files {
		records = append(records, models.FileRecord{ID: id, BaseName: name})
	}
	sort.Slice(records, func(i, j int) bool { return records[i].ID < records[j].ID })
	return records
}
