package callgraph

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/smith-xyz/stackpath/pkg/config"
)

func newTestGenerator(t *testing.T) *Generator {
	t.Helper()
	cfg, err := config.DefaultConfig()
	require.NoError(t, err)
	return NewGenerator(slog.New(slog.NewTextHandler(io.Discard, nil)), cfg)
}

// fakeCosts lists, per file, the functions with stack-usage data
type fakeCosts map[string][]string

func (f fakeCosts) HasFile(file string) bool {
	_, ok := f[file]
	return ok
}

func (f fakeCosts) HasFunction(file, function string) bool {
	for _, name := range f[file] {
		if name == function {
			return true
		}
	}
	return false
}

const simpleTrace = `version: 1
creator: callgrind-3.18.1
events: Ir

fl=(1) /src/library/a.c
fn=(1) main
1 2
cfl=(1)
cfn=(2) foo
calls=1 0
1 10

fl=(1)
fn=(2)
1 3
cfn=(3) bar
calls=1 0
1 5

fl=(1)
fn=(3)
1 1
`
