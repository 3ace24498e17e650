package output

import (
	"bytes"
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"

	"github.com/smith-xyz/stackpath/pkg/models"
)

// Summary is the machine-readable overview of one run
type Summary struct {
	Tool               string               `yaml:"tool"`
	Version            string               `yaml:"version"`
	Inputs             SummaryInputs        `yaml:"inputs"`
	Entry              string               `yaml:"entry"`
	CallGraph          models.CallGraphInfo `yaml:"call_graph"`
	StackUsageEntries  int                  `yaml:"stack_usage_entries"`
	Paths              int                  `yaml:"paths"`
	TruncatedPaths     int                  `yaml:"truncated_paths"`
	ZeroCostFunctions  int                  `yaml:"zero_cost_functions"`
	CyclicIndirections int                  `yaml:"cyclic_indirections"`
	MalformedLines     int                  `yaml:"malformed_lines"`
	UnreachedFunctions int                  `yaml:"unreached_functions"`
	WorstPath          *WorstPath           `yaml:"worst_path,omitempty"`
	ReportDigest       string               `yaml:"report_digest"`
}

// SummaryInputs names the files a run read
type SummaryInputs struct {
	Trace      string `yaml:"trace"`
	StackUsage string `yaml:"stack_usage"`
}

// WorstPath is the path with the highest total
type WorstPath struct {
	Total     int64    `yaml:"total"`
	Human     string   `yaml:"human"`
	Truncated bool     `yaml:"truncated,omitempty"`
	Functions []string `yaml:"functions"`
}

// NewWorstPath describes the last path of an ascending path list, or nil
// when there are none
func NewWorstPath(sorted []models.CallPath) *WorstPath {
	if len(sorted) == 0 {
		return nil
	}
	worst := sorted[len(sorted)-1]
	return &WorstPath{
		Total:     worst.Total,
		Human:     humanize.IBytes(uint64(worst.Total)),
		Truncated: worst.Truncated,
		Functions: worst.Names(),
	}
}

// WriteSummary writes s as YAML
func (r *ReportGenerator) WriteSummary(w io.Writer, s Summary) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(s); err != nil {
		return fmt.Errorf("failed to encode summary: %w", err)
	}
	return encoder.Close()
}

// RenderSummary renders the YAML summary
func (r *ReportGenerator) RenderSummary(s Summary) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.WriteSummary(&buf, s); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
