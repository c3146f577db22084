package idregistry_test

import (
	"path/filepath"
	"testing"

	"github.com/aff4store/resolver/internal/idregistry"
	"github.com/aff4store/resolver/pkg/logger"
)

func open(t *testing.T) *idregistry.Registry {
	t.Helper()
	path := filepath.Join(t.TempDir(), "urn.tdb")
	r, err := idregistry.Open(path, "subjects", logger.New("test"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { r.Close() })
	return r
}

func TestGetIDAllocatesSequentially(t *testing.T) {
	r := open(t)

	id1, err := r.GetID([]byte("aff4://subject1"), true)
	if err != nil {
		t.Fatalf("GetID failed: %v", err)
	}
	if id1 != 1 {
		t.Fatalf("first ID = %d, want 1", id1)
	}

	id2, err := r.GetID([]byte("aff4://subject2"), true)
	if err != nil {
		t.Fatalf("GetID failed: %v", err)
	}
	if id2 != 2 {
		t.Fatalf("second ID = %d, want 2", id2)
	}
}

func TestGetIDStableAcrossCalls(t *testing.T) {
	r := open(t)

	first, err := r.GetID([]byte("aff4://subject1"), true)
	if err != nil {
		t.Fatalf("GetID failed: %v", err)
	}
	second, err := r.GetID([]byte("aff4://subject1"), true)
	if err != nil {
		t.Fatalf("GetID failed: %v", err)
	}
	if first != second {
		t.Fatalf("repeated GetID returned %d then %d", first, second)
	}
}

func TestGetIDWithoutCreateNew(t *testing.T) {
	r := open(t)

	id, err := r.GetID([]byte("aff4://unknown"), false)
	if err != nil {
		t.Fatalf("GetID failed: %v", err)
	}
	if id != 0 {
		t.Fatalf("GetID for unknown name with createNew=false = %d, want 0", id)
	}
}

func TestGetNameBijective(t *testing.T) {
	r := open(t)

	id, err := r.GetID([]byte("aff4://subject1"), true)
	if err != nil {
		t.Fatalf("GetID failed: %v", err)
	}

	name, found, err := r.GetName(id)
	if err != nil {
		t.Fatalf("GetName failed: %v", err)
	}
	if !found || string(name) != "aff4://subject1" {
		t.Fatalf("GetName(%d) = (%q, %v), want (aff4://subject1, true)", id, name, found)
	}
}

func TestMaxID(t *testing.T) {
	r := open(t)

	if max, err := r.MaxID(); err != nil || max != 0 {
		t.Fatalf("MaxID on empty registry = (%d, %v), want (0, nil)", max, err)
	}

	if _, err := r.GetID([]byte("a"), true); err != nil {
		t.Fatalf("GetID failed: %v", err)
	}
	if _, err := r.GetID([]byte("b"), true); err != nil {
		t.Fatalf("GetID failed: %v", err)
	}

	max, err := r.MaxID()
	if err != nil {
		t.Fatalf("MaxID failed: %v", err)
	}
	if max != 2 {
		t.Fatalf("MaxID = %d, want 2", max)
	}
}

func TestIterateNamesHidesUnderscorePrefixedKeys(t *testing.T) {
	r := open(t)

	if _, err := r.GetID([]byte("aff4://subject1"), true); err != nil {
		t.Fatalf("GetID failed: %v", err)
	}
	if _, err := r.GetID([]byte("aff4://subject2"), true); err != nil {
		t.Fatalf("GetID failed: %v", err)
	}

	var names []string
	err := r.IterateNames(func(name []byte) error {
		names = append(names, string(name))
		return nil
	})
	if err != nil {
		t.Fatalf("IterateNames failed: %v", err)
	}

	if len(names) != 2 {
		t.Fatalf("IterateNames returned %d names, want 2 (got %v)", len(names), names)
	}
	for _, n := range names {
		if n == "__MAX" || len(n) >= 2 && n[:2] == "__" {
			t.Errorf("IterateNames leaked reserved key %q", n)
		}
	}
}
