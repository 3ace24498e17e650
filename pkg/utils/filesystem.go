package utils

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// StagedFile is content written to a temporary file next to its target
// that has not been moved into place yet
type StagedFile struct {
	target string
	tmp    string
}

// StageFile writes into a temporary file next to filename. The target is
// untouched until Commit.
func StageFile(filename string, write func(w io.Writer) error) (*StagedFile, error) {
	if err := validateFilePath(filename); err != nil {
		return nil, fmt.Errorf("invalid file path: %w", err)
	}

	dir := filepath.Dir(filepath.Clean(filename))
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(filename)+".*.tmp")
	if err != nil {
		return nil, fmt.Errorf("failed to create temporary file for %s: %w", filename, err)
	}
	staged := &StagedFile{target: filename, tmp: tmp.Name()}

	if err := write(tmp); err != nil {
		tmp.Close()
		staged.Discard()
		return nil, fmt.Errorf("failed to write %s: %w", filename, err)
	}
	if err := tmp.Close(); err != nil {
		staged.Discard()
		return nil, fmt.Errorf("failed to close %s: %w", filename, err)
	}
	if err := os.Chmod(staged.tmp, 0o644); err != nil {
		staged.Discard()
		return nil, fmt.Errorf("failed to set permissions on %s: %w", filename, err)
	}
	return staged, nil
}

// Commit renames the staged content over the target
func (s *StagedFile) Commit() error {
	if s.tmp == "" {
		return fmt.Errorf("%s was already committed or discarded", s.target)
	}
	if err := os.Rename(s.tmp, s.target); err != nil {
		s.Discard()
		return fmt.Errorf("failed to move %s into place: %w", s.target, err)
	}
	s.tmp = ""
	return nil
}

// Discard removes the temporary file. It is a no-op after Commit.
func (s *StagedFile) Discard() {
	if s.tmp == "" {
		return
	}
	_ = os.Remove(s.tmp)
	s.tmp = ""
}

// Target returns the path the staged content is committed to
func (s *StagedFile) Target() string {
	return s.target
}

// WriteFileAtomic renders into a temporary file next to filename and renames
// it into place only when write succeeds, so a failed run never leaves a
// partial file behind.
func WriteFileAtomic(filename string, write func(w io.Writer) error) error {
	staged, err := StageFile(filename, write)
	if err != nil {
		return err
	}
	return staged.Commit()
}

// StageBytes is StageFile for already rendered content.
func StageBytes(filename string, content []byte) (*StagedFile, error) {
	return StageFile(filename, func(w io.Writer) error {
		_, err := io.Copy(w, bytes.NewReader(content))
		return err
	})
}

// WriteBytesAtomic is WriteFileAtomic for already rendered content.
func WriteBytesAtomic(filename string, content []byte) error {
	staged, err := StageBytes(filename, content)
	if err != nil {
		return err
	}
	return staged.Commit()
}

// validateFilePath rejects output paths inside system directories and makes
// sure the parent directory exists
func validateFilePath(path string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("empty path")
	}
	cleanPath := filepath.Clean(path)

	if filepath.IsAbs(cleanPath) {
		sensitiveDirectories := []string{
			"/etc", "/proc", "/sys", "/dev", "/boot",
			"/usr/bin", "/usr/sbin", "/bin", "/sbin",
		}

		for _, sensitive := range sensitiveDirectories {
			if cleanPath == sensitive || strings.HasPrefix(cleanPath, sensitive+"/") {
				return fmt.Errorf("path points to sensitive system directory: %s", path)
			}
		}
	}

	dir := filepath.Dir(cleanPath)
	if dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}
