package rdf_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/aff4store/resolver/pkg/options"
	"github.com/aff4store/resolver/pkg/rdf"
	"github.com/aff4store/resolver/pkg/resolver"
)

func TestSerializeURNSkipsVolatileAndExcluded(t *testing.T) {
	ctx := context.Background()
	r, err := resolver.Open(ctx, options.WithDataDir(t.TempDir()))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer r.Close()

	if err := r.Add(ctx, []byte("s1"), []byte("name"), []byte("alice"), false); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if err := r.Add(ctx, []byte("s1"), []byte("aff4volatile:tmp"), []byte("secret"), false); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if err := r.Add(ctx, []byte("s1"), []byte("hidden"), []byte("boring"), false); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	var out bytes.Buffer
	sink := func(buf []byte) error {
		out.Write(buf)
		return nil
	}

	s := rdf.New(r, sink, "http://example.org/", rdf.FormatTurtle, 1024)
	s.SetNamespace("http://example.org/ns#", "ex")

	exclude := map[string]struct{}{"hidden": {}}
	if err := s.SerializeURN(ctx, []byte("s1"), exclude); err != nil {
		t.Fatalf("SerializeURN failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	doc := out.String()
	if !strings.Contains(doc, "alice") {
		t.Fatalf("expected output to contain alice, got: %s", doc)
	}
	if strings.Contains(doc, "aff4volatile:tmp") {
		t.Fatalf("output leaked volatile attribute: %s", doc)
	}
	if strings.Contains(doc, "boring") {
		t.Fatalf("output leaked excluded attribute's value: %s", doc)
	}
	if !strings.Contains(doc, "@prefix ex:") {
		t.Fatalf("expected namespace declaration, got: %s", doc)
	}
}

func TestSerializeURNMissingSubject(t *testing.T) {
	ctx := context.Background()
	r, err := resolver.Open(ctx, options.WithDataDir(t.TempDir()))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer r.Close()

	sink := func(buf []byte) error { return nil }
	s := rdf.New(r, sink, "http://example.org/", rdf.FormatTurtle, 1024)

	if err := s.SerializeURN(ctx, []byte("nobody"), nil); err == nil {
		t.Fatal("expected error for missing subject")
	}
}
