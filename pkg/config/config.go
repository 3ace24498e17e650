package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

// Embedded default configuration
//
//go:embed default_config.toml
var embeddedConfigData []byte

// LocalConfigFile is looked up in the working directory and replaces the
// embedded defaults when present.
const LocalConfigFile = "stackpath.toml"

// Config holds the application configuration.
type Config struct {
	Trace   TraceConfig  `toml:"trace"`
	Filters FilterConfig `toml:"filters"`
	Tree    TreeConfig   `toml:"tree"`
	Report  ReportConfig `toml:"report"`
}

// TraceConfig controls how the callgrind trace is read.
type TraceConfig struct {
	EntryFunction    string   `toml:"entry_function"`
	SourceExtensions []string `toml:"source_extensions"`
}

// FilterConfig holds symbol filtering patterns.
type FilterConfig struct {
	InternalSymbolPrefixes []string `toml:"internal_symbol_prefixes"`
}

// TreeConfig bounds call-path expansion.
type TreeConfig struct {
	MaxDepth int `toml:"max_depth"`
}

// ReportConfig holds the report layout.
type ReportConfig struct {
	NameColumn int `toml:"name_column"`
	CostWidth  int `toml:"cost_width"`
}

// DefaultConfig returns the embedded configuration, replaced by a local
// stackpath.toml when one exists in the working directory.
func DefaultConfig() (*Config, error) {
	var config Config
	if err := toml.Unmarshal(embeddedConfigData, &config); err != nil {
		return nil, fmt.Errorf("failed to parse embedded config: %w", err)
	}

	if _, err := os.Stat(LocalConfigFile); err == nil {
		localConfig, err := LoadFromFile(LocalConfigFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to load local config %s: %v\n", LocalConfigFile, err)
			return &config, nil
		}
		return localConfig, nil
	}

	return &config, nil
}

// LoadFromFile loads configuration from a TOML file. Keys missing from the
// file keep their embedded default values.
func LoadFromFile(filepath string) (*Config, error) {
	var config Config
	if err := toml.Unmarshal(embeddedConfigData, &config); err != nil {
		return nil, fmt.Errorf("failed to parse embedded config: %w", err)
	}
	if _, err := toml.DecodeFile(filepath, &config); err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", filepath, err)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", filepath, err)
	}
	return &config, nil
}

// Validate checks the values a run cannot proceed without.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Trace.EntryFunction) == "" {
		errs = append(errs, errors.New("trace.entry_function must not be empty"))
	}
	if len(c.Trace.SourceExtensions) == 0 {
		errs = append(errs, errors.New("trace.source_extensions must list at least one extension"))
	}
	for _, ext := range c.Trace.SourceExtensions {
		if !strings.HasPrefix(ext, ".") || len(ext) < 2 {
			errs = append(errs, fmt.Errorf("source extension %q must start with a dot", ext))
		}
	}
	if c.Tree.MaxDepth < 0 {
		errs = append(errs, fmt.Errorf("tree.max_depth must not be negative, got %d", c.Tree.MaxDepth))
	}
	if c.Report.NameColumn < 1 {
		errs = append(errs, fmt.Errorf("report.name_column must be positive, got %d", c.Report.NameColumn))
	}
	if c.Report.CostWidth < 1 {
		errs = append(errs, fmt.Errorf("report.cost_width must be positive, got %d", c.Report.CostWidth))
	}
	return errors.Join(errs...)
}

// IsInternalSymbol checks if a function name follows the compiler/runtime
// helper naming convention.
func (c *Config) IsInternalSymbol(name string) bool {
	for _, prefix := range c.Filters.InternalSymbolPrefixes {
		if prefix != "" && strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}
