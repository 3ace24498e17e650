package models

import "fmt"

// AttributionKind tells how a function id was tied to a source file.
type AttributionKind int

const (
	AttributionUnresolved AttributionKind = iota
	AttributionFile
	AttributionSameAs
)

// FileAttribution records which file's stack-usage entry applies to a
// function. SameAs attributions point at another function and must be
// dereferenced before use.
type FileAttribution struct {
	Kind      AttributionKind
	File      FileID
	SameAs    FunctionID
	Confirmed bool // the file's stack-usage data lists the function by name
}

// FileAttributionOf attributes a function directly to a file.
func FileAttributionOf(file FileID, confirmed bool) FileAttribution {
	return FileAttribution{Kind: AttributionFile, File: file, Confirmed: confirmed}
}

// SameAsAttribution attributes a function to whatever file fn ends up with.
func SameAsAttribution(fn FunctionID) FileAttribution {
	return FileAttribution{Kind: AttributionSameAs, SameAs: fn}
}

// Unresolved is the attribution of a function without a usable file.
func Unresolved() FileAttribution {
	return FileAttribution{Kind: AttributionUnresolved}
}

// IsResolved reports whether the attribution names a concrete file.
func (a FileAttribution) IsResolved() bool {
	return a.Kind == AttributionFile
}

func (a FileAttribution) String() string {
	switch a.Kind {
	case AttributionFile:
		if a.Confirmed {
			return fmt.Sprintf("file %d", a.File)
		}
		return fmt.Sprintf("file %d (unconfirmed)", a.File)
	case AttributionSameAs:
		return fmt.Sprintf("function %d", a.SameAs)
	default:
		return "unresolved"
	}
}
