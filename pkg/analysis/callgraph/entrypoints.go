package callgraph

import (
	"fmt"
	"log/slog"

	"github.com/smith-xyz/stackpath/pkg/models"
)

// EntryLocator provides the entry function id of a parsed trace
type EntryLocator interface {
	EntryPoint() (models.FunctionID, error)
	Function(id models.FunctionID) (models.FunctionRecord, bool)
}

// EntryPointAnalyzer locates the root of the call-path tree
type EntryPointAnalyzer struct {
	logger *slog.Logger
}

// NewEntryPointAnalyzer creates a new entry point analyzer
func NewEntryPointAnalyzer(logger *slog.Logger) *EntryPointAnalyzer {
	return &EntryPointAnalyzer{logger: logger}
}

// FindEntryPoint returns the entry function record. It fails with
// models.ErrEntryPointNotFound before any tree is built when the trace has
// no such function.
func (e *EntryPointAnalyzer) FindEntryPoint(index EntryLocator) (models.FunctionRecord, error) {
	id, err := index.EntryPoint()
	if err != nil {
		return models.FunctionRecord{}, fmt.Errorf("failed to locate entry point: %w", err)
	}
	record, _ := index.Function(id)
	e.logger.Debug("Located entry point", "function", record.Name, "id", record.ID)
	return record, nil
}
