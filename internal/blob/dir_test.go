package blob

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDirStore_SaveAndRemove(t *testing.T) {
	root := t.TempDir()
	s, err := NewDirStore(root)
	if err != nil {
		t.Fatalf("NewDirStore() error = %v", err)
	}

	path, err := s.Save("readings.csv", []byte("a,b\n1,2\n"))
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	if !strings.HasPrefix(path, s.Root()) {
		t.Errorf("Save() path %q not under root %q", path, s.Root())
	}
	if !strings.HasSuffix(path, "_readings.csv") {
		t.Errorf("Save() path %q should keep the original base name", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if string(data) != "a,b\n1,2\n" {
		t.Errorf("stored content = %q, want original", data)
	}

	if err := s.Remove(path); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("file still exists after Remove(): %v", err)
	}
}

func TestDirStore_RemoveMissingIsNoop(t *testing.T) {
	s, err := NewDirStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewDirStore() error = %v", err)
	}

	if err := s.Remove(filepath.Join(s.Root(), "gone.csv")); err != nil {
		t.Errorf("Remove() of missing file error = %v, want nil", err)
	}
}

func TestDirStore_RemoveOutsideRootRejected(t *testing.T) {
	s, err := NewDirStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewDirStore() error = %v", err)
	}

	outside := filepath.Join(t.TempDir(), "other.csv")
	if err := os.WriteFile(outside, []byte("x"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	if err := s.Remove(outside); err == nil {
		t.Error("Remove() outside root should fail")
	}
	if _, err := os.Stat(outside); err != nil {
		t.Errorf("file outside root was touched: %v", err)
	}
}

func TestDirStore_SaveSanitizesName(t *testing.T) {
	s, err := NewDirStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewDirStore() error = %v", err)
	}

	path, err := s.Save("../../etc/passwd", []byte("x"))
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if !strings.HasPrefix(path, s.Root()) {
		t.Errorf("Save() escaped the root: %q", path)
	}
	if strings.Contains(filepath.Base(path), "..") {
		t.Errorf("Save() kept path traversal in name: %q", path)
	}

	unique1, err := s.Save("same.csv", []byte("1"))
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	unique2, err := s.Save("same.csv", []byte("2"))
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if unique1 == unique2 {
		t.Error("Save() should produce unique paths for identical names")
	}
}
