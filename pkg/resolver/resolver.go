// Package resolver is the public entry point to the persistent,
// embeddable triple-store resolver described in spec.md §6: a single
// Resolver type wrapping the four backing files (a subject registry, an
// attribute registry, a composite-key index, and a value log) behind
// add/set/delete/resolve/resolve_list, subject locking, and export
// operations.
package resolver

import (
	"context"
	"path/filepath"

	"github.com/aff4store/resolver/internal/engine"
	"github.com/aff4store/resolver/pkg/errors"
	"github.com/aff4store/resolver/pkg/filesys"
	"github.com/aff4store/resolver/pkg/logger"
	"github.com/aff4store/resolver/pkg/options"
	"go.uber.org/zap"
)

// Reserved attribute names exported for callers that need to recognize
// or set them directly, matching spec.md §4.3/§6.
const (
	// Inherit is the attribute resolve_list's inheritance walk follows.
	Inherit = engine.Inherit

	// VolatileNamespace is the attribute-name prefix the RDF serializer
	// never emits.
	VolatileNamespace = engine.VolatileNamespace

	// MaxKey is the reserved per-registry key holding the last-assigned
	// ID (spec.md §3/§9's MAX_KEY).
	MaxKey = engine.MaxKey
)

// Lock modes for Lock/Release.
const (
	LockRead  byte = 'r'
	LockWrite byte = 'w'
)

const (
	urnRegistryFile  = "urn.tdb"
	attrRegistryFile = "attribute.tdb"
	indexFile        = "data.tdb"
	valueLogFile     = "data_store.tdb"
)

// Resolver is a persistent, embeddable triple store: a (subject,
// attribute) -> value-list map with inheritance and advisory subject
// locking, backed by four files under one data directory.
type Resolver struct {
	log *zap.SugaredLogger
	eng *engine.Engine
}

// Open creates (if necessary) the data directory and the four backing
// files within it, and returns a ready-to-use Resolver. If any backing
// file fails to open, every file opened so far is closed before Open
// returns, per spec.md §7's atomic-construction requirement.
func Open(_ context.Context, opts ...options.OptionFunc) (*Resolver, error) {
	cfg := options.NewDefaultOptions()
	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.DataDir == "" {
		return nil, errors.NewRequiredFieldError("DataDir")
	}

	log := logger.New("resolver")

	if err := filesys.CreateDir(cfg.DataDir, 0755, true); err != nil {
		return nil, errors.ClassifyDirectoryCreationError(err, cfg.DataDir)
	}

	eng, err := engine.New(&engine.Config{
		URNRegistryPath:  filepath.Join(cfg.DataDir, urnRegistryFile),
		AttrRegistryPath: filepath.Join(cfg.DataDir, attrRegistryFile),
		IndexPath:        filepath.Join(cfg.DataDir, indexFile),
		ValueLogPath:     filepath.Join(cfg.DataDir, valueLogFile),
		Options:          &cfg,
		Logger:           log,
	})
	if err != nil {
		return nil, err
	}

	log.Infow("resolver opened", "dataDir", cfg.DataDir)
	return &Resolver{log: log, eng: eng}, nil
}

// Close releases all four backing files.
func (r *Resolver) Close() error {
	return r.eng.Close()
}

// Add appends value to (urn, attr)'s value list. If unique is true and
// value already occurs in the resolved list (inheritance included),
// Add is a no-op.
func (r *Resolver) Add(_ context.Context, urn, attr, value []byte, unique bool) error {
	return r.eng.Add(urn, attr, value, unique)
}

// Set replaces (urn, attr)'s value list with a single-element list
// containing value, unless value is already present somewhere in the
// resolved list, in which case the list is left untouched.
func (r *Resolver) Set(_ context.Context, urn, attr, value []byte) error {
	return r.eng.Set(urn, attr, value)
}

// GetIDByURN returns the subject registry's ID for urn, allocating one
// if createNew is true and none exists yet.
func (r *Resolver) GetIDByURN(_ context.Context, urn []byte, createNew bool) (uint32, error) {
	return r.eng.SubjectID(urn, createNew)
}

// GetURNByID returns the subject name registered under id, if any.
func (r *Resolver) GetURNByID(_ context.Context, id uint32) (urn []byte, found bool, err error) {
	return r.eng.SubjectURN(id)
}

// Delete removes (urn, attr) from the index. The value log keeps the
// now-unreferenced records on disk; there is no compaction.
func (r *Resolver) Delete(_ context.Context, urn, attr []byte) error {
	return r.eng.Delete(urn, attr)
}

// Resolve copies up to len(buf) bytes of (urn, attr)'s head value into
// buf, without following the value list or aff4:inherit. It reports
// whether any head value was found.
func (r *Resolver) Resolve(_ context.Context, urn, attr, buf []byte) (n int, found bool, err error) {
	return r.eng.Resolve(urn, attr, buf)
}

// ResolveList returns (urn, attr)'s full value list, walking
// aff4:inherit when followInheritance is true and urn has no local
// list.
func (r *Resolver) ResolveList(_ context.Context, urn, attr []byte, followInheritance bool) ([][]byte, error) {
	return r.eng.ResolveList(urn, attr, followInheritance)
}

// IsValuePresent reports whether value occurs anywhere in (urn,
// attr)'s resolved list.
func (r *Resolver) IsValuePresent(_ context.Context, urn, attr, value []byte, followInheritance bool) (bool, error) {
	return r.eng.IsValuePresent(urn, attr, value, followInheritance)
}

// Lock takes a blocking, exclusive advisory lock associated with urn
// under the given mode ('r' or 'w'). The two modes occupy distinct
// byte ranges in the value log file and can be held independently.
func (r *Resolver) Lock(_ context.Context, urn []byte, mode byte) error {
	return r.eng.Lock(urn, mode)
}

// Release releases the advisory lock urn holds under mode.
func (r *Resolver) Release(_ context.Context, urn []byte, mode byte) error {
	return r.eng.Release(urn, mode)
}

// ExportAllURNs returns every subject URN ever assigned an ID, except
// URNs that begin with '_'.
func (r *Resolver) ExportAllURNs(_ context.Context) ([][]byte, error) {
	return r.eng.ExportAllURNs()
}

// ExportDict returns every attribute urn has a local (non-inherited)
// value list for, keyed by attribute name.
func (r *Resolver) ExportDict(_ context.Context, urn []byte) (map[string][][]byte, error) {
	return r.eng.ExportDict(urn)
}

// StreamSubjectTriples calls emit once per (attribute, value) pair urn
// has locally, in increasing attribute-ID order, skipping
// aff4volatile:-prefixed attributes and any name present in exclude.
// Used by pkg/rdf to serialize one subject's triples.
func (r *Resolver) StreamSubjectTriples(_ context.Context, urn []byte, exclude map[string]struct{}, emit func(attr, value []byte) error) error {
	return r.eng.StreamSubjectTriples(urn, exclude, emit)
}
