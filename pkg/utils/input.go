package utils

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/viant/afs"

	"github.com/smith-xyz/stackpath/pkg/models"
)

// InputReader reads whole input documents from a local path or any URL
// the storage service understands.
type InputReader struct {
	fs afs.Service
}

// NewInputReader creates a reader over fs, or the default storage service
// when fs is nil.
func NewInputReader(fs afs.Service) *InputReader {
	if fs == nil {
		fs = afs.New()
	}
	return &InputReader{fs: fs}
}

// Read returns the full content at location. Missing inputs wrap
// models.ErrInputNotFound; everything else that prevents reading wraps
// models.ErrInputUnreadable.
func (r *InputReader) Read(ctx context.Context, location string) ([]byte, error) {
	if location == "" {
		return nil, fmt.Errorf("%w: empty location", models.ErrInputNotFound)
	}
	if !strings.Contains(location, "://") {
		if abs, err := filepath.Abs(location); err == nil {
			location = abs
		}
	}
	exists, err := r.fs.Exists(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", models.ErrInputUnreadable, location, err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", models.ErrInputNotFound, location)
	}
	object, err := r.fs.Object(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", models.ErrInputUnreadable, location, err)
	}
	if object.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", models.ErrInputUnreadable, location)
	}
	content, err := r.fs.DownloadWithURL(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", models.ErrInputUnreadable, location, err)
	}
	return content, nil
}
