package models

import "sort"

// CallPathNode is one function in the call-path tree. A node owns its
// children; the root is the entry function.
type CallPathNode struct {
	Function  FunctionRecord
	Depth     int
	Truncated bool // expansion stopped at a recursive call or the depth cap
	Children  map[FunctionID]*CallPathNode

	// RecursiveCalls are callees not followed because they were already on
	// the path to this node
	RecursiveCalls []FunctionRecord
}

// NewCallPathNode creates a childless node.
func NewCallPathNode(fn FunctionRecord, depth int) *CallPathNode {
	return &CallPathNode{
		Function: fn,
		Depth:    depth,
		Children: make(map[FunctionID]*CallPathNode),
	}
}

// AddChild attaches a new child for fn one level below n and returns it.
// Adding the same function twice returns the existing child.
func (n *CallPathNode) AddChild(fn FunctionRecord) *CallPathNode {
	if child, ok := n.Children[fn.ID]; ok {
		return child
	}
	child := NewCallPathNode(fn, n.Depth+1)
	n.Children[fn.ID] = child
	return child
}

// IsLeaf reports whether the node has no children.
func (n *CallPathNode) IsLeaf() bool {
	return len(n.Children) == 0
}

// SortedChildren returns the children ordered by function id.
func (n *CallPathNode) SortedChildren() []*CallPathNode {
	children := make([]*CallPathNode, 0, len(n.Children))
	for _, child := range n.Children {
		children = append(children, child)
	}
	sort.Slice(children, func(i, j int) bool {
		return children[i].Function.ID < children[j].Function.ID
	})
	return children
}

// CycleCut is a recursive call the tree does not follow. Path runs from the
// entry function to the caller.
type CycleCut struct {
	Path   []FunctionRecord `json:"path" yaml:"path"`
	Callee FunctionRecord   `json:"callee" yaml:"callee"`
}

// CycleCuts lists every recursive call in the subtree of n, callers in
// depth-first id order.
func (n *CallPathNode) CycleCuts() []CycleCut {
	var cuts []CycleCut
	n.collectCycleCuts(nil, &cuts)
	return cuts
}

func (n *CallPathNode) collectCycleCuts(prefix []FunctionRecord, cuts *[]CycleCut) {
	path := make([]FunctionRecord, len(prefix), len(prefix)+1)
	copy(path, prefix)
	path = append(path, n.Function)
	for _, callee := range n.RecursiveCalls {
		*cuts = append(*cuts, CycleCut{Path: path, Callee: callee})
	}
	for _, child := range n.SortedChildren() {
		child.collectCycleCuts(path, cuts)
	}
}

// PathEntry is one function on a call path with its own frame size.
type PathEntry struct {
	Function FunctionRecord `json:"function" yaml:"function"`
	Bytes    int64          `json:"bytes" yaml:"bytes"`
}

// CallPath is a root-to-leaf sequence, entry function excluded.
type CallPath struct {
	Entries   []PathEntry `json:"entries" yaml:"entries"`
	Total     int64       `json:"total" yaml:"total"`
	Truncated bool        `json:"truncated,omitempty" yaml:"truncated,omitempty"`
}

// Names returns the function names along the path.
func (p CallPath) Names() []string {
	names := make([]string, len(p.Entries))
	for i, entry := range p.Entries {
		names[i] = entry.Function.Name
	}
	return names
}
