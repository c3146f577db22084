package kvstore_test

import (
	"path/filepath"
	"testing"

	"github.com/aff4store/resolver/internal/kvstore"
)

func TestPutGet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.tdb")
	s, err := kvstore.Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer s.Close()

	if err := s.Put([]byte("k1"), []byte("v1")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	v, found, err := s.Get([]byte("k1"))
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !found || string(v) != "v1" {
		t.Fatalf("got (%q, %v), want (v1, true)", v, found)
	}
}

func TestGetMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.tdb")
	s, err := kvstore.Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer s.Close()

	_, found, err := s.Get([]byte("nope"))
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if found {
		t.Fatal("expected key to be absent")
	}
}

func TestDelete(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.tdb")
	s, err := kvstore.Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer s.Close()

	if err := s.Put([]byte("k1"), []byte("v1")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := s.Delete([]byte("k1")); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	_, found, err := s.Get([]byte("k1"))
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if found {
		t.Fatal("expected key to be deleted")
	}
}

func TestForEachOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.tdb")
	s, err := kvstore.Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer s.Close()

	want := map[string]string{"a": "1", "b": "2", "c": "3"}
	for k, v := range want {
		if err := s.Put([]byte(k), []byte(v)); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
	}

	got := map[string]string{}
	var order []string
	err = s.ForEach(func(k, v []byte) error {
		got[string(k)] = string(v)
		order = append(order, string(k))
		return nil
	})
	if err != nil {
		t.Fatalf("ForEach failed: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("got %d entries, want %d", len(got), len(want))
	}
	if len(order) != 3 || order[0] != "a" || order[1] != "b" || order[2] != "c" {
		t.Errorf("ForEach key order = %v, want [a b c]", order)
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("key %q: got %q, want %q", k, got[k], v)
		}
	}
}

func TestUpdateGetOrCreate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.tdb")
	s, err := kvstore.Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer s.Close()

	err = s.Update(func(get func([]byte) []byte, put func([]byte, []byte) error) error {
		if get([]byte("k")) != nil {
			t.Fatal("expected missing key")
		}
		return put([]byte("k"), []byte("v"))
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	v, found, err := s.Get([]byte("k"))
	if err != nil || !found || string(v) != "v" {
		t.Fatalf("got (%q, %v, %v), want (v, true, nil)", v, found, err)
	}
}
