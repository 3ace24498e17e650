package output

import (
	"bytes"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/smith-xyz/stackpath/pkg/models"
)

// AttributionRow is one line of the function to file table
type AttributionRow struct {
	Function models.FunctionRecord
	Recorded models.FileAttribution
	Resolved models.FileAttribution
	File     string // resolved base name, or models.UnresolvedFile
}

// Diagnostics is everything the diagnostics dump reports. Slices are
// expected in id order except ZeroCost, which is re-sorted on output.
type Diagnostics struct {
	Files              []models.FileRecord
	Functions          []models.FunctionRecord
	Attributions       []AttributionRow
	Edges              []models.CallEdge
	ZeroCost           []models.ZeroCostRecord
	CyclicIndirections []models.FunctionRecord
	Malformed          []models.MalformedRecord
	TruncatedPaths     []models.CallPath
	CycleCuts          []models.CycleCut
}

// SortZeroCost orders zero-cost records by descending file name, then
// descending function name, then descending id
func SortZeroCost(records []models.ZeroCostRecord) []models.ZeroCostRecord {
	sorted := make([]models.ZeroCostRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.File != b.File {
			return a.File > b.File
		}
		if a.Function.Name != b.Function.Name {
			return a.Function.Name > b.Function.Name
		}
		return a.Function.ID > b.Function.ID
	})
	return sorted
}

// WriteDiagnostics writes the id maps followed by every attribution gap
func (r *ReportGenerator) WriteDiagnostics(w io.Writer, d Diagnostics) error {
	var b strings.Builder

	b.WriteString("number_to_file_map:\n")
	for _, file := range d.Files {
		fmt.Fprintf(&b, "%d - %s\n", file.ID, file.BaseName)
	}
	b.WriteString("number_to_function_map:\n")
	for _, fn := range d.Functions {
		fmt.Fprintf(&b, "%d - %s\n", fn.ID, fn.Name)
	}
	b.WriteString("function_to_file_map:\n")
	for _, row := range d.Attributions {
		if row.Recorded.Kind == models.AttributionSameAs {
			fmt.Fprintf(&b, "%d - %s -> %s (%s)\n", row.Function.ID, row.Recorded, row.Resolved, row.File)
			continue
		}
		fmt.Fprintf(&b, "%d - %s (%s)\n", row.Function.ID, row.Resolved, row.File)
	}
	b.WriteString("call_graph_edges:\n")
	for _, edge := range d.Edges {
		fmt.Fprintf(&b, "%d -> %d\n", edge.Caller, edge.Callee)
	}
	b.WriteString("zero_cost_functions:\n")
	for _, record := range SortZeroCost(d.ZeroCost) {
		fmt.Fprintf(&b, "%d : %s : %s : 0 : %s\n", record.Function.ID, record.File, record.Function.Name, record.Reason)
	}
	b.WriteString("cyclic_indirections:\n")
	for _, fn := range d.CyclicIndirections {
		fmt.Fprintf(&b, "%d - %s\n", fn.ID, fn.Name)
	}
	b.WriteString("malformed_stack_usage_lines:\n")
	for _, record := range d.Malformed {
		fmt.Fprintf(&b, "%d: %s (%s)\n", record.Line, record.Text, record.Reason)
	}
	b.WriteString("truncated_paths:\n")
	for _, path := range d.TruncatedPaths {
		fmt.Fprintf(&b, "%dB %s\n", path.Total, strings.Join(path.Names(), " -> "))
	}
	b.WriteString("cycle_cuts:\n")
	for _, cut := range d.CycleCuts {
		for _, fn := range cut.Path {
			fmt.Fprintf(&b, "%s -> ", fn.Name)
		}
		fmt.Fprintf(&b, "%s\n", cut.Callee.Name)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// RenderDiagnostics renders the diagnostics dump
func (r *ReportGenerator) RenderDiagnostics(d Diagnostics) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.WriteDiagnostics(&buf, d); err != nil {
		return nil, fmt.Errorf("failed to render diagnostics: %w", err)
	}
	return buf.Bytes(), nil
}
