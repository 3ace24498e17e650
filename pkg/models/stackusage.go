package models

// StackCostEntry is one line of the merged stack-usage table.
type StackCostEntry struct {
	File      string `json:"file" yaml:"file"`
	Function  string `json:"function" yaml:"function"`
	Bytes     int64  `json:"bytes" yaml:"bytes"`
	Qualifier string `json:"qualifier" yaml:"qualifier"` // static, dynamic, dynamic,bounded
}

// MalformedRecord is an input line that looked like data but could not be
// decoded. Such lines are skipped.
type MalformedRecord struct {
	Line   int    `json:"line" yaml:"line"`
	Text   string `json:"text" yaml:"text"`
	Reason string `json:"reason" yaml:"reason"`
}
