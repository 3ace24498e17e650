package output

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/smith-xyz/stackpath/pkg/models"
)

// WriteTree writes the call-path tree, one function name per line,
// indented two spaces per depth, children ordered by id
func (r *ReportGenerator) WriteTree(w io.Writer, root *models.CallPathNode) error {
	if root == nil {
		return nil
	}
	if _, err := fmt.Fprintf(w, "%s%s\n", strings.Repeat("  ", root.Depth), root.Function.Name); err != nil {
		return err
	}
	for _, child := range root.SortedChildren() {
		if err := r.WriteTree(w, child); err != nil {
			return err
		}
	}
	return nil
}

// RenderTree renders the tree dump
func (r *ReportGenerator) RenderTree(root *models.CallPathNode) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.WriteTree(&buf, root); err != nil {
		return nil, fmt.Errorf("failed to render call tree: %w", err)
	}
	return buf.Bytes(), nil
}
