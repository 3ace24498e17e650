package models

// ZeroCostReason explains why a function contributed nothing to a path.
type ZeroCostReason string

const (
	ReasonUnresolvedAttribution ZeroCostReason = "unresolved attribution"
	ReasonMissingEntry          ZeroCostReason = "no stack-usage entry"
)

// UnresolvedFile is shown in place of a file name when attribution failed.
const UnresolvedFile = "unresolved"

// ZeroCostRecord is a function whose cost defaulted to 0 because no
// stack-usage data could be found for it.
type ZeroCostRecord struct {
	Function FunctionRecord `json:"function" yaml:"function"`
	File     string         `json:"file" yaml:"file"`
	Reason   ZeroCostReason `json:"reason" yaml:"reason"`
}
