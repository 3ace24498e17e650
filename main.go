package main

import (
	"context"
	"fmt"
	"os"

	"github.com/alecthomas/kong"

	"github.com/smith-xyz/stackpath/pkg/config"
	"github.com/smith-xyz/stackpath/pkg/generator"
	"github.com/smith-xyz/stackpath/pkg/utils"
	"github.com/smith-xyz/stackpath/pkg/version"
)

// CLI is the stackpath command line
type CLI struct {
	CallgrindFile string `arg:"" name:"callgrind-file" help:"Callgrind output file (path or URL)."`
	SUFile        string `arg:"" name:"su-file" help:"Merged stack usage (.su) file (path or URL)."`
	OutputFile    string `arg:"" name:"output-file" help:"Report file to write."`

	DebugFile    string `name:"debug-file" aliases:"debug_file" help:"Write the diagnostics dump to this file."`
	CallTreeFile string `name:"call-tree-file" aliases:"call_tree_file_path" help:"Write the call tree to this file."`
	SummaryFile  string `name:"summary-file" help:"Write a YAML run summary to this file."`
	PprofFile    string `name:"pprof-file" help:"Write the call paths as a pprof profile to this file."`

	Config     string `name:"config" help:"TOML configuration file. Defaults to the embedded configuration or ./stackpath.toml."`
	Entry      string `name:"entry" help:"Entry function name (overrides trace.entry_function)."`
	MaxDepth   int    `name:"max-depth" default:"-1" help:"Stop expanding paths below this depth, 0 for unlimited (overrides tree.max_depth)."`
	SourceExts string `name:"source-ext" help:"Comma-separated source file extensions (overrides trace.source_extensions)."`

	Verbose bool             `short:"v" help:"Verbose output."`
	Version kong.VersionFlag `help:"Show version information and exit."`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("stackpath"),
		kong.Description("Worst-case stack usage of every call path exercised in a callgrind trace."),
		kong.UsageOnError(),
		kong.Vars{"version": version.GetFullVersionString()},
	)
	ctx.FatalIfErrorf(ctx.Run())
}

// Run executes one analysis
func (c *CLI) Run() error {
	logger := utils.NewLogger(os.Stderr, c.Verbose)
	progress := utils.NewVerboseLogger(os.Stderr, c.Verbose)
	logger.Debug("Starting stackpath", "version", version.GetVersionWithCommit(), "prerelease", version.IsPrerelease())

	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	progress.Logf("Analyzing %s with %s (entry %q)\n", c.CallgrindFile, c.SUFile, cfg.Trace.EntryFunction)

	gen := generator.NewGenerator(logger, cfg, nil)
	_, err = gen.Generate(context.Background(), generator.Options{
		TracePath:      c.CallgrindFile,
		StackUsagePath: c.SUFile,
		OutputPath:     c.OutputFile,
		DebugPath:      c.DebugFile,
		CallTreePath:   c.CallTreeFile,
		SummaryPath:    c.SummaryFile,
		PprofPath:      c.PprofFile,
	})
	if err != nil {
		return err
	}

	progress.Logf("Stack usage report written to: %s\n", c.OutputFile)
	return nil
}

func (c *CLI) loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if c.Config != "" {
		cfg, err = config.LoadFromFile(c.Config)
	} else {
		cfg, err = config.DefaultConfig()
	}
	if err != nil {
		return nil, err
	}

	if c.Entry != "" {
		cfg.Trace.EntryFunction = c.Entry
	}
	if c.MaxDepth >= 0 {
		cfg.Tree.MaxDepth = c.MaxDepth
	}
	if exts := utils.NormalizeExtensions(utils.ParseCommaDelimited(c.SourceExts)); len(exts) > 0 {
		cfg.Trace.SourceExtensions = exts
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
