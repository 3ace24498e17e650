package generator

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/pprof/profile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/smith-xyz/stackpath/pkg/config"
	"github.com/smith-xyz/stackpath/pkg/models"
)

const (
	sampleTrace      = "testdata/sample.callgrind"
	sampleStackUsage = "testdata/sample.su"
)

func newTestGenerator(t *testing.T, configure func(*config.Config)) *Generator {
	t.Helper()
	cfg, err := config.DefaultConfig()
	require.NoError(t, err)
	if configure != nil {
		configure(cfg)
	}
	return NewGenerator(slog.New(slog.NewTextHandler(io.Discard, nil)), cfg, nil)
}

func writeInputs(t *testing.T, trace, stackUsage string) (string, string) {
	t.Helper()
	dir := t.TempDir()
	tracePath := filepath.Join(dir, "callgrind.out")
	suPath := filepath.Join(dir, "merged.su")
	require.NoError(t, os.WriteFile(tracePath, []byte(trace), 0o644))
	require.NoError(t, os.WriteFile(suPath, []byte(stackUsage), 0o644))
	return tracePath, suPath
}

// reportLine formats one function line of the default report layout
func reportLine(depth int, name string, bytes int64) string {
	indent := strings.Repeat("  ", depth)
	return fmt.Sprintf("%s%-*s%8d\n", indent, 100-len(indent), name, bytes)
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(content)
}

const twoLevelTrace = `fl=(1) /src/a.c
fn=(1) main
cfn=(2) foo
calls=1 0
1 1

fl=(1)
fn=(2)
cfn=(3) bar
calls=1 0
2 1
`

const twoLevelStackUsage = "a.c:1:5:foo 24 static\na.c:7:5:bar 8 static\n"

func TestGenerateTwoLevelPath(t *testing.T) {
	tracePath, suPath := writeInputs(t, twoLevelTrace, twoLevelStackUsage)
	outputPath := filepath.Join(t.TempDir(), "report.txt")

	analysis, err := newTestGenerator(t, nil).Generate(context.Background(), Options{
		TracePath:      tracePath,
		StackUsagePath: suPath,
		OutputPath:     outputPath,
	})
	require.NoError(t, err)

	expected := "Total stack usage: 32B\n" +
		reportLine(1, "foo", 24) +
		reportLine(2, "bar", 8) +
		"\n"
	assert.Equal(t, expected, readFile(t, outputPath))
	require.Len(t, analysis.Paths, 1)
	assert.Equal(t, int64(32), analysis.Paths[0].Total)
	assert.Empty(t, analysis.ZeroCost)
}

func TestGenerateSample(t *testing.T) {
	dir := t.TempDir()
	opts := Options{
		TracePath:      sampleTrace,
		StackUsagePath: sampleStackUsage,
		OutputPath:     filepath.Join(dir, "report.txt"),
		DebugPath:      filepath.Join(dir, "debug.txt"),
		CallTreePath:   filepath.Join(dir, "tree.txt"),
		SummaryPath:    filepath.Join(dir, "summary.yaml"),
		PprofPath:      filepath.Join(dir, "stack.pb.gz"),
	}

	analysis, err := newTestGenerator(t, nil).Generate(context.Background(), opts)
	require.NoError(t, err)

	t.Run("report", func(t *testing.T) {
		expected := "Total stack usage: 48B\n" +
			reportLine(1, "mbedtls_ssl_handshake", 48) +
			reportLine(2, "mbedtls_platform_zeroize", 0) +
			"\n" +
			"Total stack usage: 160B\n" +
			reportLine(1, "mbedtls_ssl_handshake", 48) +
			reportLine(2, "ssl_parse_record", 112) +
			reportLine(3, "memcpy_helper", 0) +
			"\n" +
			"Total stack usage: 272B\n" +
			reportLine(1, "mbedtls_sha256", 64) +
			reportLine(2, "sha256_process", 208) +
			"\n"
		assert.Equal(t, expected, readFile(t, opts.OutputPath))
	})

	t.Run("call tree", func(t *testing.T) {
		expected := "main\n" +
			"  mbedtls_sha256\n" +
			"    sha256_process\n" +
			"  mbedtls_ssl_handshake\n" +
			"    ssl_parse_record\n" +
			"      memcpy_helper\n" +
			"    mbedtls_platform_zeroize\n"
		assert.Equal(t, expected, readFile(t, opts.CallTreePath))
	})

	t.Run("diagnostics", func(t *testing.T) {
		debug := readFile(t, opts.DebugPath)

		assert.Contains(t, debug, "4 - platform_util.c\n")
		assert.Contains(t, debug, "9 - resolve_inner\n")
		assert.Contains(t, debug, "4 - function 6 -> file 3 (unconfirmed) (ssl_tls.c)\n")
		assert.Contains(t, debug, "2 - file 2 (unconfirmed) (sha256.c)\n")
		assert.Contains(t, debug, "call_graph_edges:\n1 -> 2\n1 -> 3\n1 -> 4\n2 -> 5\n3 -> 9\n4 -> 6\n4 -> 7\n6 -> 4\n6 -> 8\nzero_cost_functions:\n")
		assert.Contains(t, debug, "zero_cost_functions:\n"+
			"8 : ssl_tls.c : memcpy_helper : 0 : no stack-usage entry\n"+
			"7 : platform_util.c : mbedtls_platform_zeroize : 0 : no stack-usage entry\n"+
			"cyclic_indirections:\n")
		assert.Contains(t, debug, "malformed_stack_usage_lines:\n11: ssl_tls.c:bad_descriptor ")
	})

	t.Run("summary", func(t *testing.T) {
		var summary struct {
			Entry              string               `yaml:"entry"`
			CallGraph          models.CallGraphInfo `yaml:"call_graph"`
			StackUsageEntries  int                  `yaml:"stack_usage_entries"`
			Paths              int                  `yaml:"paths"`
			ZeroCostFunctions  int                  `yaml:"zero_cost_functions"`
			MalformedLines     int                  `yaml:"malformed_lines"`
			UnreachedFunctions int                  `yaml:"unreached_functions"`
			WorstPath          struct {
				Total     int64    `yaml:"total"`
				Functions []string `yaml:"functions"`
			} `yaml:"worst_path"`
		}
		require.NoError(t, yaml.Unmarshal([]byte(readFile(t, opts.SummaryPath)), &summary))

		assert.Equal(t, "main", summary.Entry)
		assert.Equal(t, models.CallGraphInfo{
			TotalFunctions:   9,
			TotalFiles:       4,
			TotalEdges:       9,
			TreeNodes:        7,
			Leaves:           3,
			MaxDepth:         3,
			FilteredInternal: 1,
			CyclesCut:        1,
		}, summary.CallGraph)
		assert.Equal(t, 5, summary.StackUsageEntries)
		assert.Equal(t, 3, summary.Paths)
		assert.Equal(t, 2, summary.ZeroCostFunctions)
		assert.Equal(t, 1, summary.MalformedLines)
		assert.Equal(t, 2, summary.UnreachedFunctions)
		assert.Equal(t, int64(272), summary.WorstPath.Total)
		assert.Equal(t, []string{"mbedtls_sha256", "sha256_process"}, summary.WorstPath.Functions)
	})

	t.Run("pprof", func(t *testing.T) {
		content, err := os.ReadFile(opts.PprofPath)
		require.NoError(t, err)
		p, err := profile.Parse(bytes.NewReader(content))
		require.NoError(t, err)

		require.Len(t, p.Sample, 3)
		var total int64
		for _, sample := range p.Sample {
			total += sample.Value[0]
		}
		assert.Equal(t, int64(48+160+272), total)
	})

	assert.Equal(t, 2, analysis.Unreached)
}

func TestGenerateIsDeterministic(t *testing.T) {
	dir := t.TempDir()
	generator := newTestGenerator(t, nil)

	var reports, debugs []string
	for i := 0; i < 3; i++ {
		opts := Options{
			TracePath:      sampleTrace,
			StackUsagePath: sampleStackUsage,
			OutputPath:     filepath.Join(dir, fmt.Sprintf("report-%d.txt", i)),
			DebugPath:      filepath.Join(dir, fmt.Sprintf("debug-%d.txt", i)),
		}
		_, err := generator.Generate(context.Background(), opts)
		require.NoError(t, err)
		reports = append(reports, readFile(t, opts.OutputPath))
		debugs = append(debugs, readFile(t, opts.DebugPath))
	}

	assert.Equal(t, reports[0], reports[1])
	assert.Equal(t, reports[0], reports[2])
	assert.Equal(t, debugs[0], debugs[1])
	assert.Equal(t, debugs[0], debugs[2])
}

func TestGenerateRecursionTerminates(t *testing.T) {
	trace := twoLevelTrace + `
fl=(1)
fn=(3)
cfn=(2)
calls=1 0
3 1
`
	tracePath, suPath := writeInputs(t, trace, twoLevelStackUsage)
	dir := t.TempDir()
	opts := Options{
		TracePath:      tracePath,
		StackUsagePath: suPath,
		OutputPath:     filepath.Join(dir, "report.txt"),
		DebugPath:      filepath.Join(dir, "debug.txt"),
	}

	analysis, err := newTestGenerator(t, nil).Generate(context.Background(), opts)
	require.NoError(t, err)

	require.Len(t, analysis.Paths, 1)
	assert.True(t, analysis.Paths[0].Truncated)
	assert.Equal(t, []string{"foo", "bar"}, analysis.Paths[0].Names())
	assert.Contains(t, readFile(t, opts.DebugPath), "truncated_paths:\n32B foo -> bar\ncycle_cuts:\nmain -> foo -> bar -> foo\n")
}

func TestGenerateReportsCycleCutAboveOtherCallees(t *testing.T) {
	trace := twoLevelTrace + `
fl=(1)
fn=(2)
cfn=(2)
calls=1 0
4 1
`
	tracePath, suPath := writeInputs(t, trace, twoLevelStackUsage)
	dir := t.TempDir()
	opts := Options{
		TracePath:      tracePath,
		StackUsagePath: suPath,
		OutputPath:     filepath.Join(dir, "report.txt"),
		DebugPath:      filepath.Join(dir, "debug.txt"),
	}

	analysis, err := newTestGenerator(t, nil).Generate(context.Background(), opts)
	require.NoError(t, err)

	require.Len(t, analysis.Paths, 1)
	assert.Equal(t, []string{"foo", "bar"}, analysis.Paths[0].Names())
	assert.Equal(t, 1, analysis.Stats.CyclesCut)

	debug := readFile(t, opts.DebugPath)
	assert.Contains(t, debug, "cycle_cuts:\nmain -> foo -> foo\n")
	require.Len(t, analysis.Diagnostics().CycleCuts, 1)
}

func TestGenerateLaterStackUsageEntryWins(t *testing.T) {
	tracePath, suPath := writeInputs(t, twoLevelTrace, twoLevelStackUsage+"a.c:7:5:bar 40 static\n")
	outputPath := filepath.Join(t.TempDir(), "report.txt")

	analysis, err := newTestGenerator(t, nil).Generate(context.Background(), Options{
		TracePath:      tracePath,
		StackUsagePath: suPath,
		OutputPath:     outputPath,
	})
	require.NoError(t, err)

	require.Len(t, analysis.Paths, 1)
	assert.Equal(t, int64(64), analysis.Paths[0].Total)
	assert.Contains(t, readFile(t, outputPath), "Total stack usage: 64B\n")
}

func TestGenerateCustomEntry(t *testing.T) {
	tracePath, suPath := writeInputs(t, twoLevelTrace, twoLevelStackUsage)
	outputPath := filepath.Join(t.TempDir(), "report.txt")

	generator := newTestGenerator(t, func(cfg *config.Config) { cfg.Trace.EntryFunction = "foo" })
	_, err := generator.Generate(context.Background(), Options{
		TracePath:      tracePath,
		StackUsagePath: suPath,
		OutputPath:     outputPath,
	})
	require.NoError(t, err)

	assert.Equal(t, "Total stack usage: 8B\n"+reportLine(1, "bar", 8)+"\n", readFile(t, outputPath))
}

func TestGenerateEntryWithoutCallees(t *testing.T) {
	tracePath, suPath := writeInputs(t, "fl=(1) /src/a.c\nfn=(1) main\n1 4\n", "a.c:1:5:main 16 static\n")
	outputPath := filepath.Join(t.TempDir(), "report.txt")

	analysis, err := newTestGenerator(t, nil).Generate(context.Background(), Options{
		TracePath:      tracePath,
		StackUsagePath: suPath,
		OutputPath:     outputPath,
	})
	require.NoError(t, err)

	assert.Empty(t, analysis.Paths)
	assert.Empty(t, readFile(t, outputPath))
}

func TestGenerateMissingEntryWritesNothing(t *testing.T) {
	tracePath, suPath := writeInputs(t, "fl=(1) /src/a.c\nfn=(1) start\ncfn=(2) foo\n", twoLevelStackUsage)
	dir := t.TempDir()
	opts := Options{
		TracePath:      tracePath,
		StackUsagePath: suPath,
		OutputPath:     filepath.Join(dir, "report.txt"),
		DebugPath:      filepath.Join(dir, "debug.txt"),
		CallTreePath:   filepath.Join(dir, "tree.txt"),
	}

	_, err := newTestGenerator(t, nil).Generate(context.Background(), opts)
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrEntryPointNotFound))

	for _, path := range []string{opts.OutputPath, opts.DebugPath, opts.CallTreePath} {
		_, statErr := os.Stat(path)
		assert.True(t, os.IsNotExist(statErr), "%s must not be written", path)
	}
}

func TestGenerateFailedOutputLeavesOthersUntouched(t *testing.T) {
	tracePath, suPath := writeInputs(t, twoLevelTrace, twoLevelStackUsage)
	dir := t.TempDir()
	blocker := filepath.Join(dir, "not-a-dir")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))
	opts := Options{
		TracePath:      tracePath,
		StackUsagePath: suPath,
		OutputPath:     filepath.Join(blocker, "report.txt"),
		DebugPath:      filepath.Join(dir, "debug.txt"),
		CallTreePath:   filepath.Join(dir, "tree.txt"),
	}
	require.NoError(t, os.WriteFile(opts.CallTreePath, []byte("previous\n"), 0o644))

	_, err := newTestGenerator(t, nil).Generate(context.Background(), opts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to write report")

	assert.Equal(t, "previous\n", readFile(t, opts.CallTreePath))
	assert.NoFileExists(t, opts.DebugPath)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2, "staged files must be removed")
}

func TestGenerateMissingInputs(t *testing.T) {
	tracePath, suPath := writeInputs(t, twoLevelTrace, twoLevelStackUsage)
	missing := filepath.Join(t.TempDir(), "absent")

	tests := []struct {
		name       string
		trace      string
		stackUsage string
	}{
		{"trace", missing, suPath},
		{"stack usage", tracePath, missing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outputPath := filepath.Join(t.TempDir(), "report.txt")
			_, err := newTestGenerator(t, nil).Generate(context.Background(), Options{
				TracePath:      tt.trace,
				StackUsagePath: tt.stackUsage,
				OutputPath:     outputPath,
			})

			require.Error(t, err)
			assert.True(t, errors.Is(err, models.ErrInputNotFound))
			_, statErr := os.Stat(outputPath)
			assert.True(t, os.IsNotExist(statErr))
		})
	}
}

func TestGenerateRequiresOutputPath(t *testing.T) {
	_, err := newTestGenerator(t, nil).Generate(context.Background(), Options{
		TracePath:      sampleTrace,
		StackUsagePath: sampleStackUsage,
	})
	assert.Error(t, err)
}

func TestGenerateDepthLimit(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "report.txt")

	analysis, err := newTestGenerator(t, func(cfg *config.Config) { cfg.Tree.MaxDepth = 1 }).Generate(context.Background(), Options{
		TracePath:      sampleTrace,
		StackUsagePath: sampleStackUsage,
		OutputPath:     outputPath,
	})
	require.NoError(t, err)

	require.Len(t, analysis.Paths, 2)
	assert.Equal(t, []string{"mbedtls_ssl_handshake"}, analysis.Paths[0].Names())
	assert.Equal(t, []string{"mbedtls_sha256"}, analysis.Paths[1].Names())
	for _, path := range analysis.Paths {
		assert.True(t, path.Truncated)
	}
}
