package resolver_test

import (
	"context"
	"testing"

	"github.com/aff4store/resolver/pkg/options"
	"github.com/aff4store/resolver/pkg/resolver"
)

func open(t *testing.T) *resolver.Resolver {
	t.Helper()
	ctx := context.Background()
	r, err := resolver.Open(ctx, options.WithDataDir(t.TempDir()))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { r.Close() })
	return r
}

func TestAddResolveList(t *testing.T) {
	ctx := context.Background()
	r := open(t)

	if err := r.Add(ctx, []byte("s1"), []byte("p"), []byte("v1"), false); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if err := r.Add(ctx, []byte("s1"), []byte("p"), []byte("v2"), false); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	got, err := r.ResolveList(ctx, []byte("s1"), []byte("p"), false)
	if err != nil {
		t.Fatalf("ResolveList failed: %v", err)
	}
	if len(got) != 2 || string(got[0]) != "v2" || string(got[1]) != "v1" {
		t.Fatalf("ResolveList = %v, want [v2 v1]", got)
	}
}

func TestResolveHeadOnly(t *testing.T) {
	ctx := context.Background()
	r := open(t)

	if err := r.Add(ctx, []byte("s1"), []byte("p"), []byte("v1"), false); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if err := r.Add(ctx, []byte("s1"), []byte("p"), []byte("v2"), false); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	buf := make([]byte, 16)
	n, found, err := r.Resolve(ctx, []byte("s1"), []byte("p"), buf)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if !found {
		t.Fatal("expected head to be found")
	}
	if string(buf[:n]) != "v2" {
		t.Fatalf("Resolve head = %q, want v2", buf[:n])
	}
}

func TestResolveAbsentNotFound(t *testing.T) {
	ctx := context.Background()
	r := open(t)

	buf := make([]byte, 16)
	_, found, err := r.Resolve(ctx, []byte("nobody"), []byte("p"), buf)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if found {
		t.Fatal("expected not found")
	}
}

func TestGetIDByURNAndBack(t *testing.T) {
	ctx := context.Background()
	r := open(t)

	id, err := r.GetIDByURN(ctx, []byte("u"), true)
	if err != nil {
		t.Fatalf("GetIDByURN failed: %v", err)
	}
	if id == 0 {
		t.Fatal("GetIDByURN returned 0")
	}

	urn, found, err := r.GetURNByID(ctx, id)
	if err != nil {
		t.Fatalf("GetURNByID failed: %v", err)
	}
	if !found || string(urn) != "u" {
		t.Fatalf("GetURNByID(%d) = (%q, %v), want (u, true)", id, urn, found)
	}
}

func TestExportDict(t *testing.T) {
	ctx := context.Background()
	r := open(t)

	if err := r.Add(ctx, []byte("s1"), []byte("name"), []byte("alice"), false); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if err := r.Add(ctx, []byte("s1"), []byte("age"), []byte("30"), false); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	dict, err := r.ExportDict(ctx, []byte("s1"))
	if err != nil {
		t.Fatalf("ExportDict failed: %v", err)
	}
	if len(dict["name"]) != 1 || string(dict["name"][0]) != "alice" {
		t.Fatalf("dict[name] = %v, want [alice]", dict["name"])
	}
	if len(dict["age"]) != 1 || string(dict["age"][0]) != "30" {
		t.Fatalf("dict[age] = %v, want [30]", dict["age"])
	}
}

func TestReopenPreservesState(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	r1, err := resolver.Open(ctx, options.WithDataDir(dir))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := r1.Add(ctx, []byte("s1"), []byte("p"), []byte("v1"), false); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if err := r1.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	r2, err := resolver.Open(ctx, options.WithDataDir(dir))
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer r2.Close()

	got, err := r2.ResolveList(ctx, []byte("s1"), []byte("p"), false)
	if err != nil {
		t.Fatalf("ResolveList failed: %v", err)
	}
	if len(got) != 1 || string(got[0]) != "v1" {
		t.Fatalf("ResolveList after reopen = %v, want [v1]", got)
	}
}
