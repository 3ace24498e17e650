package output

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/smith-xyz/stackpath/pkg/models"
)

// ReportConfig holds the layout of the path report
type ReportConfig struct {
	NameColumn int // column the cost field starts at, indentation included
	CostWidth  int // width the cost is right-aligned in
}

// DefaultReportConfig returns the layout used when nothing is configured
func DefaultReportConfig() ReportConfig {
	return ReportConfig{NameColumn: 100, CostWidth: 8}
}

// ReportGenerator renders analysis results into the report artifacts
type ReportGenerator struct {
	logger *slog.Logger
	config ReportConfig
}

// NewReportGenerator creates a new report generator
func NewReportGenerator(logger *slog.Logger, config ReportConfig) *ReportGenerator {
	defaults := DefaultReportConfig()
	if config.NameColumn <= 0 {
		config.NameColumn = defaults.NameColumn
	}
	if config.CostWidth <= 0 {
		config.CostWidth = defaults.CostWidth
	}
	return &ReportGenerator{logger: logger, config: config}
}

// SortPaths returns the paths ordered by ascending total. Paths with equal
// totals keep their relative order.
func SortPaths(paths []models.CallPath) []models.CallPath {
	sorted := make([]models.CallPath, len(paths))
	copy(sorted, paths)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Total < sorted[j].Total
	})
	return sorted
}

// WriteReport writes one record per path in the given order: a total
// header, one indented line per function with its own frame size, and a
// blank separator line.
func (r *ReportGenerator) WriteReport(w io.Writer, paths []models.CallPath) error {
	for _, path := range paths {
		if _, err := fmt.Fprintf(w, "Total stack usage: %dB\n", path.Total); err != nil {
			return err
		}
		for i, entry := range path.Entries {
			if _, err := io.WriteString(w, r.formatEntry(i+1, entry)); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, "\n"); err != nil {
			return err
		}
	}
	return nil
}

func (r *ReportGenerator) formatEntry(depth int, entry models.PathEntry) string {
	indent := strings.Repeat("  ", depth)
	padding := r.config.NameColumn - len(indent) - len(entry.Function.Name)
	if padding < 1 {
		padding = 1
	}
	return fmt.Sprintf("%s%s%s%*d\n", indent, entry.Function.Name, strings.Repeat(" ", padding), r.config.CostWidth, entry.Bytes)
}

// RenderReport renders the report for paths, sorting them first
func (r *ReportGenerator) RenderReport(paths []models.CallPath) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.WriteReport(&buf, SortPaths(paths)); err != nil {
		return nil, fmt.Errorf("failed to render report: %w", err)
	}
	r.logger.Debug("Rendered report", "paths", len(paths), "bytes", buf.Len())
	return buf.Bytes(), nil
}

// Digest returns the xxhash64 of rendered content, formatted as hex. Two
// runs over identical inputs produce the same digest.
func Digest(content []byte) string {
	return fmt.Sprintf("%016x", xxhash.Sum64(content))
}
