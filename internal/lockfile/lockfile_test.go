package lockfile_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/aff4store/resolver/internal/lockfile"
)

func TestWriteRangeAndUnlock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "locked")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		t.Fatalf("OpenFile failed: %v", err)
	}
	defer f.Close()

	if err := lockfile.WriteRange(f, 0, 16); err != nil {
		t.Fatalf("WriteRange failed: %v", err)
	}
	if err := lockfile.Unlock(f, 0, 16); err != nil {
		t.Fatalf("Unlock failed: %v", err)
	}
}

func TestDistinctRangesDoNotConflict(t *testing.T) {
	path := filepath.Join(t.TempDir(), "locked")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		t.Fatalf("OpenFile failed: %v", err)
	}
	defer f.Close()

	if err := lockfile.WriteRange(f, 0, 8); err != nil {
		t.Fatalf("WriteRange on first range failed: %v", err)
	}
	if err := lockfile.WriteRange(f, 8, 8); err != nil {
		t.Fatalf("WriteRange on disjoint range failed: %v", err)
	}

	if err := lockfile.Unlock(f, 0, 8); err != nil {
		t.Fatalf("Unlock failed: %v", err)
	}
	if err := lockfile.Unlock(f, 8, 8); err != nil {
		t.Fatalf("Unlock failed: %v", err)
	}
}
