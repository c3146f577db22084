// Package rdf implements the RDF Serializer described in spec.md §4.4:
// a thin turtle-formatting layer over pkg/resolver's per-subject triple
// stream, buffering output before handing it to a caller-supplied sink.
package rdf

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aff4store/resolver/pkg/errors"
)

// Sink receives buffered serialized output. Implementations typically
// wrap an io.Writer, a network connection, or an in-memory collector.
type Sink func(buf []byte) error

// resolverAPI is the subset of *resolver.Resolver the serializer needs,
// declared as an interface so tests can substitute a fake.
type resolverAPI interface {
	StreamSubjectTriples(ctx context.Context, urn []byte, exclude map[string]struct{}, emit func(attr, value []byte) error) error
}

// Format selects the output syntax. Only turtle is implemented; the
// type exists so New's signature matches spec.md §6's serializer
// constructor and additional formats can be added without an API break.
type Format string

// FormatTurtle is the only Format currently implemented.
const FormatTurtle Format = "turtle"

// namespace is one declared prefix -> URI binding.
type namespace struct {
	prefix string
	uri    string
}

// Serializer emits turtle-formatted triples for subjects pulled from a
// Resolver, buffering until bufferSize bytes are reached before invoking
// the sink.
type Serializer struct {
	resolver resolverAPI
	sink     Sink
	base     string
	format   Format

	bufferSize int
	buf        bytes.Buffer
	namespaces []namespace
	wroteAny   bool
}

// New constructs a Serializer. bufferSize is typically
// options.Options.SerializerBufferSize (spec.md's ~100 KiB default).
func New(resolver resolverAPI, sink Sink, base string, format Format, bufferSize int) *Serializer {
	return &Serializer{
		resolver:   resolver,
		sink:       sink,
		base:       base,
		format:     format,
		bufferSize: bufferSize,
	}
}

// SetNamespace declares a namespace prefix in the emitted document, per
// spec.md §4.4's set_namespace(uri, prefix). It must be called before
// the first SerializeURN, since the turtle preamble is written lazily
// on first use.
func (s *Serializer) SetNamespace(uri, prefix string) {
	s.namespaces = append(s.namespaces, namespace{prefix: prefix, uri: uri})
}

// writePreamble emits the @base and @prefix declarations once, before
// the first triple.
func (s *Serializer) writePreamble() {
	if s.wroteAny {
		return
	}
	s.wroteAny = true

	fmt.Fprintf(&s.buf, "@base <%s> .\n", s.base)
	for _, ns := range s.namespaces {
		fmt.Fprintf(&s.buf, "@prefix %s: <%s> .\n", ns.prefix, ns.uri)
	}
}

// SerializeURN implements spec.md §4.4's serialize_urn(urn,
// exclude_set): emit one turtle triple per (attribute, value) pair urn
// carries, in increasing attribute-ID order, skipping
// aff4volatile:-prefixed attributes and any name in exclude.
func (s *Serializer) SerializeURN(ctx context.Context, urn []byte, exclude map[string]struct{}) error {
	s.writePreamble()

	err := s.resolver.StreamSubjectTriples(ctx, urn, exclude, func(attr, value []byte) error {
		fmt.Fprintf(&s.buf, "<%s> <%s> %q .\n", urn, attr, string(value))
		if s.buf.Len() >= s.bufferSize {
			return s.flush()
		}
		return nil
	})
	if err != nil {
		return err
	}
	return nil
}

// flush hands the buffered bytes to the sink and resets the buffer.
func (s *Serializer) flush() error {
	if s.buf.Len() == 0 {
		return nil
	}
	chunk := s.buf.Bytes()
	cp := make([]byte, len(chunk))
	copy(cp, chunk)
	s.buf.Reset()

	if err := s.sink(cp); err != nil {
		return errors.NewStorageError(err, errors.ErrorCodeIO, "RDF sink write failed")
	}
	return nil
}

// Close implements spec.md §4.4's close(): finalizes the stream and
// flushes any remaining buffered bytes.
func (s *Serializer) Close() error {
	return s.flush()
}
