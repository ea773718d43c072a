// Package blob stores raw uploaded files on the local filesystem.
package blob

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// DirStore writes blobs beneath a single root directory. Paths returned by
// Save are always inside the root; Remove refuses anything outside it.
type DirStore struct {
	root string
}

// NewDirStore creates the root directory if needed and returns the store.
func NewDirStore(root string) (*DirStore, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve uploads dir: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create uploads dir: %w", err)
	}
	return &DirStore{root: abs}, nil
}

// Save writes the file under a unique name derived from the original
// filename and returns the full storage path. The original name is reduced
// to its base component so a client cannot steer the write outside the root.
func (s *DirStore) Save(name string, data []byte) (string, error) {
	base := filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if base == "." || base == string(filepath.Separator) || base == "" {
		base = "upload.csv"
	}

	path := filepath.Join(s.root, uuid.NewString()[:8]+"_"+base)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write upload: %w", err)
	}
	return path, nil
}

// Remove deletes a previously saved blob. Missing files are not an error;
// eviction cleanup may race with manual housekeeping.
func (s *DirStore) Remove(path string) error {
	if !strings.HasPrefix(path, s.root+string(filepath.Separator)) {
		return fmt.Errorf("path %q is outside the uploads dir", path)
	}

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove upload: %w", err)
	}
	return nil
}

// Root returns the absolute uploads directory.
func (s *DirStore) Root() string {
	return s.root
}
