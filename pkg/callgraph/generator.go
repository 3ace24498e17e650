package callgraph

import (
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/smith-xyz/stackpath/pkg/config"
	"github.com/smith-xyz/stackpath/pkg/models"
)

var (
	functionDeclPattern = regexp.MustCompile(`^.?fn=\((\d+)\) ([A-Za-z0-9_()]+)`)
	functionRefPattern  = regexp.MustCompile(`^.?fn=\((\d+)\)`)
	fileRefPattern      = regexp.MustCompile(`^.?f[li]=\((\d+)\)`)
	ownerPattern        = regexp.MustCompile(`^fn=\((\d+)\)`)
	calleePattern       = regexp.MustCompile(`^cfn=\((\d+)\)`)
)

// Generator reads a callgrind trace into the name index, the call graph
// and the function-to-file attribution
type Generator struct {
	logger          *slog.Logger
	entryFunction   string
	fileDeclPattern *regexp.Regexp
}

// NewGenerator creates a new trace reader configured from cfg
func NewGenerator(logger *slog.Logger, cfg *config.Config) *Generator {
	extensions := cfg.Trace.SourceExtensions
	if len(extensions) == 0 {
		extensions = []string{".c"}
	}
	quoted := make([]string, len(extensions))
	for i, ext := range extensions {
		quoted[i] = regexp.QuoteMeta(ext)
	}
	entry := cfg.Trace.EntryFunction
	if entry == "" {
		entry = "main"
	}

	return &Generator{
		logger:        logger,
		entryFunction: entry,
		fileDeclPattern: regexp.MustCompile(
			`^.?f[li]=\((\d+)\) (?:.*/)?([A-Za-z0-9_]+(?:` + strings.Join(quoted, "|") + `))\s*$`),
	}
}

// splitLines splits text into lines without their line terminators
func splitLines(text string) []string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, "\r")
	}
	return lines
}

// splitBlocks groups lines into blank-line separated blocks. Runs of blank
// lines count as one separator.
func splitBlocks(text string) [][]string {
	var blocks [][]string
	var current []string
	for _, line := range splitLines(text) {
		if line == "" {
			if len(current) > 0 {
				blocks = append(blocks, current)
				current = nil
			}
			continue
		}
		current = append(current, line)
	}
	if len(current) > 0 {
		blocks = append(blocks, current)
	}
	return blocks
}

// matchID applies pattern to line and returns the numeric id in its first group
func matchID(pattern *regexp.Regexp, line string) (uint64, bool) {
	match := pattern.FindStringSubmatch(line)
	if match == nil {
		return 0, false
	}
	id, err := strconv.ParseUint(match[1], 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

func matchFunctionRef(line string) (models.FunctionID, bool) {
	id, ok := matchID(functionRefPattern, line)
	return models.FunctionID(id), ok
}

func matchFileRef(line string) (models.FileID, bool) {
	id, ok := matchID(fileRefPattern, line)
	return models.FileID(id), ok
}
