package generator

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dustin/go-humanize"

	callgraphanalyzer "github.com/smith-xyz/stackpath/pkg/analysis/callgraph"
	"github.com/smith-xyz/stackpath/pkg/analysis/cost"
	"github.com/smith-xyz/stackpath/pkg/analysis/rules"
	"github.com/smith-xyz/stackpath/pkg/callgraph"
	"github.com/smith-xyz/stackpath/pkg/config"
	"github.com/smith-xyz/stackpath/pkg/models"
	"github.com/smith-xyz/stackpath/pkg/output"
	"github.com/smith-xyz/stackpath/pkg/stackusage"
	"github.com/smith-xyz/stackpath/pkg/utils"
	"github.com/smith-xyz/stackpath/pkg/version"
)

// Options names the inputs and outputs of one run. Empty optional paths
// skip the corresponding artifact.
type Options struct {
	TracePath      string
	StackUsagePath string
	OutputPath     string
	DebugPath      string
	CallTreePath   string
	SummaryPath    string
	PprofPath      string
}

// Analysis is the immutable result of the analysis pipeline
type Analysis struct {
	Index        *callgraph.ProfileIndex
	CallGraph    *callgraph.CallGraph
	Attributions *callgraph.Attributions
	Table        *stackusage.Table
	Entry        models.FunctionRecord
	Tree         *models.CallPathNode
	Stats        models.CallGraphInfo
	Paths        []models.CallPath // ascending by total, ties in encounter order
	ZeroCost     []models.ZeroCostRecord
	Unreached    int
}

// Generator runs the stack path analysis
type Generator struct {
	logger          *slog.Logger
	config          *config.Config
	input           *utils.InputReader
	instrumentation *utils.Instrumentation
}

// NewGenerator creates a new generator. A nil input reader uses the
// default storage service.
func NewGenerator(logger *slog.Logger, cfg *config.Config, input *utils.InputReader) *Generator {
	if input == nil {
		input = utils.NewInputReader(nil)
	}
	return &Generator{
		logger:          logger,
		config:          cfg,
		input:           input,
		instrumentation: utils.NewInstrumentation(logger),
	}
}

// Analyze reads both inputs and computes every call path with its cost.
// Missing inputs and a missing entry function are fatal; everything else
// is carried in the result for diagnostics.
func (g *Generator) Analyze(ctx context.Context, tracePath, stackUsagePath string) (*Analysis, error) {
	phases := g.instrumentation.NewPhaseTracker("analyze")

	phases.StartPhase("read inputs")
	traceContent, err := g.input.Read(ctx, tracePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read callgrind file: %w", err)
	}
	table, err := stackusage.NewLoader(g.logger, g.input).Load(ctx, stackUsagePath)
	if err != nil {
		return nil, err
	}
	trace := string(traceContent)

	phases.StartPhase("index trace")
	traceGenerator := callgraph.NewGenerator(g.logger, g.config)
	index := traceGenerator.Index(trace)

	entry, err := callgraphanalyzer.NewEntryPointAnalyzer(g.logger).FindEntryPoint(index)
	if err != nil {
		return nil, err
	}

	phases.StartPhase("extract call graph")
	graph := traceGenerator.ExtractCallGraph(trace)

	phases.StartPhase("resolve files")
	attributions := traceGenerator.ResolveFiles(trace, index, table)

	phases.StartPhase("build tree")
	analyzer := callgraphanalyzer.NewAnalyzer(g.logger, &callgraphanalyzer.Config{MaxDepth: g.config.Tree.MaxDepth}, rules.NewRules(g.config))
	tree, stats := analyzer.BuildTree(entry, graph, index)
	stats.TotalFunctions = len(index.Functions())
	stats.TotalFiles = len(index.Files())
	stats.TotalEdges = graph.EdgeCount()
	reachable := analyzer.CalculateReachableFunctions(tree)

	phases.StartPhase("aggregate costs")
	result := cost.NewAggregator(g.logger, attributions, index, table).Aggregate(tree)
	phases.Complete(len(result.Paths))

	analysis := &Analysis{
		Index:        index,
		CallGraph:    graph,
		Attributions: attributions,
		Table:        table,
		Entry:        entry,
		Tree:         tree,
		Stats:        stats,
		Paths:        output.SortPaths(result.Paths),
		ZeroCost:     result.ZeroCost,
		Unreached:    unreachedCount(index.Functions(), reachable),
	}
	if len(analysis.Paths) == 0 {
		g.logger.Warn("Entry function calls nothing that survives filtering; report will be empty", "entry", entry.Name)
	}
	return analysis, nil
}

// Generate analyzes the inputs and writes every requested artifact. All
// artifacts are rendered and staged next to their targets before the first
// one is moved into place.
func (g *Generator) Generate(ctx context.Context, opts Options) (*Analysis, error) {
	if opts.OutputPath == "" {
		return nil, fmt.Errorf("no output path given")
	}

	analysis, err := g.Analyze(ctx, opts.TracePath, opts.StackUsagePath)
	if err != nil {
		return nil, err
	}

	reports := output.NewReportGenerator(g.logger, output.ReportConfig{
		NameColumn: g.config.Report.NameColumn,
		CostWidth:  g.config.Report.CostWidth,
	})

	type artifact struct {
		name    string
		path    string
		content []byte
	}
	var artifacts []artifact

	report, err := reports.RenderReport(analysis.Paths)
	if err != nil {
		return nil, err
	}
	if opts.CallTreePath != "" {
		tree, err := reports.RenderTree(analysis.Tree)
		if err != nil {
			return nil, err
		}
		artifacts = append(artifacts, artifact{"call tree", opts.CallTreePath, tree})
	}
	if opts.DebugPath != "" {
		debug, err := reports.RenderDiagnostics(analysis.Diagnostics())
		if err != nil {
			return nil, err
		}
		artifacts = append(artifacts, artifact{"diagnostics", opts.DebugPath, debug})
	}
	if opts.SummaryPath != "" {
		summary, err := reports.RenderSummary(analysis.Summary(opts, output.Digest(report)))
		if err != nil {
			return nil, err
		}
		artifacts = append(artifacts, artifact{"summary", opts.SummaryPath, summary})
	}
	if opts.PprofPath != "" {
		profile, err := reports.RenderProfile(analysis.Entry, analysis.Paths)
		if err != nil {
			return nil, err
		}
		artifacts = append(artifacts, artifact{"pprof profile", opts.PprofPath, profile})
	}
	artifacts = append(artifacts, artifact{"report", opts.OutputPath, report})

	err = g.instrumentation.TimedOperation("write outputs", func() error {
		staged := make([]*utils.StagedFile, 0, len(artifacts))
		defer func() {
			for _, s := range staged {
				s.Discard()
			}
		}()
		for _, a := range artifacts {
			s, err := utils.StageBytes(a.path, a.content)
			if err != nil {
				return fmt.Errorf("failed to write %s: %w", a.name, err)
			}
			staged = append(staged, s)
		}
		for i, s := range staged {
			if err := s.Commit(); err != nil {
				return fmt.Errorf("failed to write %s: %w", artifacts[i].name, err)
			}
			g.logger.Debug("Wrote artifact", "artifact", artifacts[i].name, "path", s.Target(), "size", humanize.IBytes(uint64(len(artifacts[i].content))))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	attrs := []any{
		"paths", len(analysis.Paths),
		"zero_cost_functions", len(analysis.ZeroCost),
		"report", opts.OutputPath,
		"digest", output.Digest(report),
	}
	if worst := output.NewWorstPath(analysis.Paths); worst != nil {
		attrs = append(attrs, "worst_case", worst.Human)
	}
	g.logger.Info("Stack usage report written", attrs...)
	return analysis, nil
}

// Diagnostics collects the attribution gaps of the analysis
func (a *Analysis) Diagnostics() output.Diagnostics {
	d := output.Diagnostics{
		Files:     a.Index.Files(),
		Functions: a.Index.Functions(),
		Edges:     a.CallGraph.Edges(),
		ZeroCost:  a.ZeroCost,
		Malformed: a.Table.Malformed(),
	}
	for _, entry := range a.Attributions.Entries() {
		fn, _ := a.Index.Function(entry.Function)
		file := models.UnresolvedFile
		if entry.Resolved.IsResolved() {
			if name, ok := a.Index.FileName(entry.Resolved.File); ok {
				file = name
			}
		}
		d.Attributions = append(d.Attributions, output.AttributionRow{
			Function: fn,
			Recorded: entry.Recorded,
			Resolved: entry.Resolved,
			File:     file,
		})
	}
	for _, id := range a.Attributions.Cyclic() {
		fn, _ := a.Index.Function(id)
		d.CyclicIndirections = append(d.CyclicIndirections, fn)
	}
	for _, path := range a.Paths {
		if path.Truncated {
			d.TruncatedPaths = append(d.TruncatedPaths, path)
		}
	}
	d.CycleCuts = a.Tree.CycleCuts()
	return d
}

// Summary describes the run for the YAML summary artifact
func (a *Analysis) Summary(opts Options, reportDigest string) output.Summary {
	truncated := 0
	for _, path := range a.Paths {
		if path.Truncated {
			truncated++
		}
	}
	return output.Summary{
		Tool:    "stackpath",
		Version: version.GetVersion(),
		Inputs: output.SummaryInputs{
			Trace:      opts.TracePath,
			StackUsage: opts.StackUsagePath,
		},
		Entry:              a.Entry.Name,
		CallGraph:          a.Stats,
		StackUsageEntries:  a.Table.Len(),
		Paths:              len(a.Paths),
		TruncatedPaths:     truncated,
		ZeroCostFunctions:  len(a.ZeroCost),
		CyclicIndirections: len(a.Attributions.Cyclic()),
		MalformedLines:     len(a.Table.Malformed()),
		UnreachedFunctions: a.Unreached,
		WorstPath:          output.NewWorstPath(a.Paths),
		ReportDigest:       reportDigest,
	}
}

func unreachedCount(functions []models.FunctionRecord, reachable map[models.FunctionID]struct{}) int {
	count := 0
	for _, fn := range functions {
		if _, ok := reachable[fn.ID]; !ok {
			count++
		}
	}
	return count
}
