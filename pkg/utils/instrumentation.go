package utils

import (
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/dustin/go-humanize"
)

// Instrumentation times the stages of an analysis run
type Instrumentation struct {
	logger *slog.Logger
}

// NewInstrumentation creates a new instrumentation instance
func NewInstrumentation(logger *slog.Logger) *Instrumentation {
	return &Instrumentation{logger: logger}
}

// TimedOperation runs operation and logs how long it took. Failures are
// logged at error level and returned unchanged.
func (i *Instrumentation) TimedOperation(name string, operation func() error) error {
	start := time.Now()
	err := operation()
	elapsed := slog.Duration("elapsed", time.Since(start))

	if err != nil {
		i.logger.Error("Operation failed", "operation", name, elapsed, "error", err)
		return err
	}
	i.logger.Debug("Operation completed", "operation", name, elapsed)
	return nil
}

// GetMemoryUsage returns heap and system memory in a human-readable format
func GetMemoryUsage() string {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return fmt.Sprintf("%s heap, %s system", humanize.IBytes(m.HeapAlloc), humanize.IBytes(m.Sys))
}

// Phase is one finished stage of a run
type Phase struct {
	Name     string
	Duration time.Duration
}

// PhaseTracker records consecutive stages of one run. Starting a phase
// finishes the previous one.
type PhaseTracker struct {
	logger  *slog.Logger
	started time.Time

	current      string
	currentStart time.Time
	finished     []Phase
}

// NewPhaseTracker starts tracking the run called name
func (i *Instrumentation) NewPhaseTracker(name string) *PhaseTracker {
	return &PhaseTracker{
		logger:  i.logger.With("run", name),
		started: time.Now(),
	}
}

// StartPhase finishes the running phase, if any, and starts name
func (pt *PhaseTracker) StartPhase(name string) {
	pt.finish()
	pt.current = name
	pt.currentStart = time.Now()
	pt.logger.Debug("Starting phase", "phase", name)
}

func (pt *PhaseTracker) finish() {
	if pt.current == "" {
		return
	}
	phase := Phase{Name: pt.current, Duration: time.Since(pt.currentStart)}
	pt.finished = append(pt.finished, phase)
	pt.logger.Debug("Phase completed", "phase", phase.Name, slog.Duration("elapsed", phase.Duration))
	pt.current = ""
}

// Complete finishes the running phase and logs the run total. paths is the
// number of call paths the run produced.
func (pt *PhaseTracker) Complete(paths int) {
	pt.finish()
	pt.logger.Debug("Run completed",
		"paths", paths,
		"phases", len(pt.finished),
		slog.Duration("elapsed", time.Since(pt.started)),
		"memory", GetMemoryUsage())
}
