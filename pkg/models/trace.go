package models

import "fmt"

// FunctionID identifies a function inside one callgrind trace. Ids are only
// unique within a single parse and carry no meaning across runs.
type FunctionID uint64

// FileID identifies a source file inside one callgrind trace.
type FileID uint64

// FunctionRecord pairs a function id with its declared name. Names may
// collide across files.
type FunctionRecord struct {
	ID   FunctionID `json:"id" yaml:"id"`
	Name string     `json:"name" yaml:"name"`
}

// UnknownFunction returns the placeholder record for an id that was
// referenced but never declared with a name.
func UnknownFunction(id FunctionID) FunctionRecord {
	return FunctionRecord{ID: id, Name: fmt.Sprintf("<unknown:%d>", id)}
}

// FileRecord pairs a file id with the base name of its path.
type FileRecord struct {
	ID       FileID `json:"id" yaml:"id"`
	BaseName string `json:"base_name" yaml:"base_name"`
}
