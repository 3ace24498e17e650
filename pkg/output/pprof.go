package output

import (
	"bytes"
	"fmt"
	"io"

	"github.com/google/pprof/profile"

	"github.com/smith-xyz/stackpath/pkg/models"
)

const (
	// SampleTypeStack is the pprof sample type for cumulative stack usage.
	SampleTypeStack = "stack"
	// SampleUnitBytes is the unit of stack samples.
	SampleUnitBytes = "bytes"
)

// BuildProfile turns every call path into one pprof sample whose value is
// the path total. Locations run from the leaf up to entry.
func BuildProfile(entry models.FunctionRecord, paths []models.CallPath) (*profile.Profile, error) {
	p := &profile.Profile{
		SampleType: []*profile.ValueType{
			{Type: SampleTypeStack, Unit: SampleUnitBytes},
		},
		DefaultSampleType: SampleTypeStack,
	}

	locations := make(map[models.FunctionID]*profile.Location)
	location := func(fn models.FunctionRecord) *profile.Location {
		if loc, ok := locations[fn.ID]; ok {
			return loc
		}
		f := &profile.Function{
			ID:         uint64(len(p.Function) + 1),
			Name:       fn.Name,
			SystemName: fn.Name,
		}
		p.Function = append(p.Function, f)
		loc := &profile.Location{
			ID:   uint64(len(p.Location) + 1),
			Line: []profile.Line{{Function: f}},
		}
		p.Location = append(p.Location, loc)
		locations[fn.ID] = loc
		return loc
	}

	root := location(entry)
	for _, path := range paths {
		stack := make([]*profile.Location, 0, len(path.Entries)+1)
		for i := len(path.Entries) - 1; i >= 0; i-- {
			stack = append(stack, location(path.Entries[i].Function))
		}
		stack = append(stack, root)

		sample := &profile.Sample{
			Location: stack,
			Value:    []int64{path.Total},
		}
		if path.Truncated {
			sample.Label = map[string][]string{"truncated": {"true"}}
		}
		p.Sample = append(p.Sample, sample)
	}

	if err := p.CheckValid(); err != nil {
		return nil, fmt.Errorf("profile validation failed: %w", err)
	}
	return p, nil
}

// WriteProfile writes the paths as a gzip-compressed pprof profile
func (r *ReportGenerator) WriteProfile(w io.Writer, entry models.FunctionRecord, paths []models.CallPath) error {
	p, err := BuildProfile(entry, paths)
	if err != nil {
		return err
	}
	return p.Write(w)
}

// RenderProfile renders the pprof export
func (r *ReportGenerator) RenderProfile(entry models.FunctionRecord, paths []models.CallPath) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.WriteProfile(&buf, entry, paths); err != nil {
		return nil, fmt.Errorf("failed to render pprof profile: %w", err)
	}
	return buf.Bytes(), nil
}
