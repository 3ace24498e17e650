package stackusage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/smith-xyz/stackpath/pkg/utils"
)

// Loader handles loading stack-usage tables from various sources.
type Loader struct {
	logger *slog.Logger
	input  *utils.InputReader
}

// NewLoader creates a new stack-usage loader.
func NewLoader(logger *slog.Logger, input *utils.InputReader) *Loader {
	if input == nil {
		input = utils.NewInputReader(nil)
	}
	return &Loader{logger: logger, input: input}
}

// Load reads and parses the table at location (path or URL).
func (l *Loader) Load(ctx context.Context, location string) (*Table, error) {
	l.logger.Debug("Loading stack-usage table", "location", location)

	content, err := l.input.Read(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("failed to read stack-usage table: %w", err)
	}
	return l.parse(string(content)), nil
}

func (l *Loader) parse(text string) *Table {
	table := Parse(text)
	for _, record := range table.Malformed() {
		l.logger.Debug("Skipping malformed stack-usage line", "line", record.Line, "reason", record.Reason)
	}
	l.logger.Debug("Loaded stack-usage table", "entries", table.Len(), "files", len(table.Files()), "malformed", len(table.Malformed()))
	return table
}
