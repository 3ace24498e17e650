package models

// CallEdge is a deduplicated caller/callee relationship observed in the trace.
type CallEdge struct {
	Caller FunctionID `json:"caller" yaml:"caller"`
	Callee FunctionID `json:"callee" yaml:"callee"`
}

// CallGraphInfo contains call-path tree statistics
type CallGraphInfo struct {
	TotalFunctions   int `json:"total_functions" yaml:"total_functions"`
	TotalFiles       int `json:"total_files" yaml:"total_files"`
	TotalEdges       int `json:"total_edges" yaml:"total_edges"`
	TreeNodes        int `json:"tree_nodes" yaml:"tree_nodes"`
	Leaves           int `json:"leaves" yaml:"leaves"`
	MaxDepth         int `json:"max_depth" yaml:"max_depth"`
	FilteredInternal int `json:"filtered_internal" yaml:"filtered_internal"` // internal-symbol callees dropped
	CyclesCut        int `json:"cycles_cut" yaml:"cycles_cut"`
	DepthLimited     int `json:"depth_limited" yaml:"depth_limited"`
	UnknownNames     int `json:"unknown_names" yaml:"unknown_names"`
}
