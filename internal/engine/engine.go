// Package engine implements the Index & Resolver component of spec.md
// §4.3: composite-key construction over two ID registries, add/set/
// delete/resolve/resolve_list against the append-only value log, the
// aff4:inherit walk, advisory subject locking, the two export
// operations, and the per-subject triple stream the RDF serializer
// drives.
package engine

import (
	"bytes"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/aff4store/resolver/internal/idregistry"
	"github.com/aff4store/resolver/internal/kvstore"
	"github.com/aff4store/resolver/internal/lockfile"
	"github.com/aff4store/resolver/internal/valuelog"
	"github.com/aff4store/resolver/pkg/errors"
	"github.com/aff4store/resolver/pkg/options"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// ErrEngineClosed is returned when attempting to perform operations on a closed engine.
var ErrEngineClosed = errors.NewBaseError(nil, errors.ErrorCodeInternal, "operation failed: cannot access closed engine")

// Config supplies the pieces New needs to assemble an Engine: the four
// backing file paths spec.md §6 names, the resolved options, and a
// logger.
type Config struct {
	URNRegistryPath  string
	AttrRegistryPath string
	IndexPath        string
	ValueLogPath     string
	Options          *options.Options
	Logger           *zap.SugaredLogger
}

// Engine ties together the two ID registries, the composite-key index,
// and the value log, and serializes all index mutations (append +
// head-pointer update) behind a single mutex — the "process-global
// write mutex on the Index" spec.md §5 requires, since bbolt's own
// per-file write serialization doesn't span the value log's separate
// file.
type Engine struct {
	log        *zap.SugaredLogger
	opts       *options.Options
	closed     atomic.Bool
	subjects   *idregistry.Registry
	attributes *idregistry.Registry
	index      *kvstore.Store
	vlog       *valuelog.Log
	mu         sync.Mutex
}

// New opens all four backing files and assembles an Engine. If any step
// fails, every file opened so far is closed before the error — carrying
// multiple close failures, if any — is returned, so a failed Open never
// leaks file descriptors (spec.md §7's atomic-construction requirement).
func New(cfg *Config) (*Engine, error) {
	subjects, err := idregistry.Open(cfg.URNRegistryPath, "subjects", cfg.Logger)
	if err != nil {
		return nil, err
	}

	attributes, err := idregistry.Open(cfg.AttrRegistryPath, "attributes", cfg.Logger)
	if err != nil {
		return nil, multierr.Append(err, subjects.Close())
	}

	index, err := kvstore.Open(cfg.IndexPath)
	if err != nil {
		return nil, multierr.Combine(err, subjects.Close(), attributes.Close())
	}

	vlog, err := valuelog.Open(cfg.ValueLogPath, cfg.Options.MaxValueSize)
	if err != nil {
		return nil, multierr.Combine(err, subjects.Close(), attributes.Close(), index.Close())
	}

	cfg.Logger.Infow("engine opened",
		"urnRegistry", cfg.URNRegistryPath,
		"attrRegistry", cfg.AttrRegistryPath,
		"index", cfg.IndexPath,
		"valueLog", cfg.ValueLogPath,
	)

	return &Engine{
		log:        cfg.Logger,
		opts:       cfg.Options,
		subjects:   subjects,
		attributes: attributes,
		index:      index,
		vlog:       vlog,
	}, nil
}

// Close releases all four backing files, combining any close errors.
func (e *Engine) Close() error {
	if !e.closed.CompareAndSwap(false, true) {
		return ErrEngineClosed
	}
	return multierr.Combine(
		e.subjects.Close(),
		e.attributes.Close(),
		e.index.Close(),
		e.vlog.Close(),
	)
}

// ValueLogFile exposes the value log's *os.File, seen through an
// Fd-only interface. Lock and Release do not go through it; they use
// the value log's file directly.
func (e *Engine) ValueLogFile() interface{ Fd() uintptr } {
	return e.vlog.File()
}

// compositeKey implements spec.md §4.1/§4.3's key construction: resolve
// urn and attr each to an ID via their registry (allocating new IDs only
// if createNew), then join them as "sid:aid". ok is false when either
// name has no ID and createNew was false.
func (e *Engine) compositeKey(urn, attr []byte, createNew bool) (key string, sid, aid uint32, ok bool, err error) {
	sid, err = e.subjects.GetID(urn, createNew)
	if err != nil {
		return "", 0, 0, false, err
	}
	aid, err = e.attributes.GetID(attr, createNew)
	if err != nil {
		return "", 0, 0, false, err
	}
	if sid == 0 || aid == 0 {
		return "", sid, aid, false, nil
	}
	return fmt.Sprintf("%d:%d", sid, aid), sid, aid, true, nil
}

// headOffset returns the value-log offset the Index's composite key
// currently points at, if any.
func (e *Engine) headOffset(key string) (uint32, bool, error) {
	v, found, err := e.index.Get([]byte(key))
	if err != nil {
		return 0, false, err
	}
	if !found {
		return 0, false, nil
	}
	off, ok := idregistry.DecodeID(v)
	if !ok {
		return 0, false, errors.NewIndexCorruptionError("headOffset", 0, nil).WithKey(key)
	}
	return off, true, nil
}

// putHead stores offset as the new head pointer for the composite key.
func (e *Engine) putHead(key string, offset uint32) error {
	return e.index.Put([]byte(key), idregistry.EncodeID(offset))
}

// Add implements spec.md §4.3's add(urn, attr, value, unique). When
// unique is true and value is already present anywhere in (urn, attr)'s
// resolved list (inheritance included, matching is_value_present's
// default), Add is a no-op. Otherwise it appends a new record pointing
// at the current head and advances the head pointer.
func (e *Engine) Add(urn, attr, value []byte, unique bool) error {
	if unique {
		present, err := e.IsValuePresent(urn, attr, value, true)
		if err != nil {
			return err
		}
		if present {
			return nil
		}
	}

	key, _, _, ok, err := e.compositeKey(urn, attr, true)
	if err != nil {
		return err
	}
	if !ok {
		return errors.NewIndexCorruptionError("Add", 0, nil).WithKey(string(urn) + ":" + string(attr))
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	head, _, err := e.headOffset(key)
	if err != nil {
		return err
	}

	newOffset, err := e.vlog.Append(head, value)
	if err != nil {
		return err
	}
	return e.putHead(key, newOffset)
}

// Set implements spec.md §4.3's set(urn, attr, value): equivalent to
// add with unique=true, except a fresh insert writes a record whose
// prev_offset is 0, discarding any prior list rather than appending to
// it. A value already present keeps the list exactly as it was.
func (e *Engine) Set(urn, attr, value []byte) error {
	present, err := e.IsValuePresent(urn, attr, value, true)
	if err != nil {
		return err
	}
	if present {
		return nil
	}

	key, _, _, ok, err := e.compositeKey(urn, attr, true)
	if err != nil {
		return err
	}
	if !ok {
		return errors.NewIndexCorruptionError("Set", 0, nil).WithKey(string(urn) + ":" + string(attr))
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	newOffset, err := e.vlog.Append(0, value)
	if err != nil {
		return err
	}
	return e.putHead(key, newOffset)
}

// Delete implements spec.md §4.3's delete(urn, attr): remove the
// composite key from the Index. The value log's records for (urn, attr)
// are left on disk, unreferenced — there is no compaction.
func (e *Engine) Delete(urn, attr []byte) error {
	key, _, _, ok, err := e.compositeKey(urn, attr, false)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.index.Delete([]byte(key))
}

// readHead reads the full payload of (urn, attr)'s head record, without
// following prev_offset or aff4:inherit. found is false if there is no
// composite key, no head, or the head record is short-read-truncated or
// oversize.
func (e *Engine) readHead(urn, attr []byte) (payload []byte, found bool, err error) {
	key, _, _, ok, err := e.compositeKey(urn, attr, false)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}

	head, found, err := e.headOffset(key)
	if err != nil {
		return nil, false, err
	}
	if !found {
		return nil, false, nil
	}

	rec, err := e.vlog.Read(head)
	if err == valuelog.ErrShortRead || err == valuelog.ErrOversizeRecord {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return rec.Payload, true, nil
}

// Resolve implements spec.md §4.3's resolve(urn, attr, buf): copy up to
// len(buf) bytes of the head record's payload into buf, without
// following the reverse chain or aff4:inherit. Returns the number of
// bytes copied and whether a head was found at all.
func (e *Engine) Resolve(urn, attr, buf []byte) (n int, found bool, err error) {
	payload, found, err := e.readHead(urn, attr)
	if err != nil || !found {
		return 0, found, err
	}
	return copy(buf, payload), true, nil
}

// resolveListOnce walks the full reverse chain for (urn, attr)'s local
// head, without consulting aff4:inherit. headFound is false when there
// is no composite key, no head, the head is short-read-truncated, or
// the head record's declared length is at or above the oversize
// threshold — all four cases fall through to ResolveList's inheritance
// step exactly as spec.md §4.3 describes.
func (e *Engine) resolveListOnce(urn, attr []byte) (values [][]byte, headFound bool, err error) {
	key, _, _, ok, err := e.compositeKey(urn, attr, false)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}

	head, found, err := e.headOffset(key)
	if err != nil {
		return nil, false, err
	}
	if !found {
		return nil, false, nil
	}

	return e.readChain(head)
}

// readChain decodes the full reverse chain starting at a known head
// offset. ok is false when the head record is short-read-truncated or
// its declared length is at or above the oversize threshold — both
// rejected by valuelog.Log.Read itself, before any payload buffer is
// allocated.
func (e *Engine) readChain(head uint32) (values [][]byte, ok bool, err error) {
	if _, err := e.vlog.Read(head); err == valuelog.ErrShortRead || err == valuelog.ErrOversizeRecord {
		return nil, false, nil
	} else if err != nil {
		return nil, false, err
	}

	offset := head
	for offset != 0 {
		rec, err := e.vlog.Read(offset)
		if err == valuelog.ErrShortRead || err == valuelog.ErrOversizeRecord {
			break
		}
		if err != nil {
			return nil, false, err
		}
		values = append(values, rec.Payload)
		offset = rec.PrevOffset
	}
	return values, true, nil
}

// ResolveList implements spec.md §4.3's resolve_list(urn, attr,
// follow_inheritance): return (urn, attr)'s full reverse-chain value
// list, or — if there is no local list and follow_inheritance is true —
// walk aff4:inherit to find a subject that has one. A subject visited
// twice during the inheritance walk ends the search with an empty
// result rather than looping forever (see DESIGN.md's note on cyclic
// inherit chains).
func (e *Engine) ResolveList(urn, attr []byte, followInheritance bool) ([][]byte, error) {
	current := urn
	visited := map[string]struct{}{}

	for {
		values, headFound, err := e.resolveListOnce(current, attr)
		if err != nil {
			return nil, err
		}
		if headFound {
			return values, nil
		}
		if !followInheritance {
			return nil, nil
		}

		visited[string(current)] = struct{}{}
		parent, found, err := e.readHead(current, []byte(Inherit))
		if err != nil {
			return nil, err
		}
		if !found {
			return nil, nil
		}
		if _, seen := visited[string(parent)]; seen {
			return nil, nil
		}
		current = parent
	}
}

// IsValuePresent implements spec.md §4.3's is_value_present(urn, attr,
// value, follow_inheritance): true if value occurs anywhere in the
// resolved list.
func (e *Engine) IsValuePresent(urn, attr, value []byte, followInheritance bool) (bool, error) {
	values, err := e.ResolveList(urn, attr, followInheritance)
	if err != nil {
		return false, err
	}
	for _, v := range values {
		if bytes.Equal(v, value) {
			return true, nil
		}
	}
	return false, nil
}

// lockAttr maps a lock mode byte to its reserved attribute name.
func lockAttr(urn []byte, mode byte) ([]byte, error) {
	switch mode {
	case 'r':
		return []byte(RLock), nil
	case 'w':
		return []byte(WLock), nil
	default:
		return nil, errors.NewInvalidLockModeError(string(urn), mode)
	}
}

// Lock implements spec.md §4.3's lock(urn, mode): ensure a record exists
// for the reserved (urn, __RLOCK or __WLOCK) pair, then take a blocking
// exclusive advisory lock on that record's byte range in the value log
// file. The range is globally unique to this (urn, mode) pair because
// value-log offsets never repeat.
func (e *Engine) Lock(urn []byte, mode byte) error {
	attr, err := lockAttr(urn, mode)
	if err != nil {
		return err
	}

	key, _, _, ok, err := e.compositeKey(urn, attr, true)
	if err != nil {
		return err
	}
	if !ok {
		return errors.NewIndexCorruptionError("Lock", 0, nil).WithKey(string(urn))
	}

	e.mu.Lock()
	head, found, err := e.headOffset(key)
	if err != nil {
		e.mu.Unlock()
		return err
	}
	if !found {
		off, err := e.vlog.Append(0, attr)
		if err != nil {
			e.mu.Unlock()
			return err
		}
		if err := e.putHead(key, off); err != nil {
			e.mu.Unlock()
			return err
		}
		head = off
	}
	e.mu.Unlock()

	rec, err := e.vlog.Read(head)
	if err != nil {
		return err
	}
	return lockfile.WriteRange(e.vlog.File(), int64(head), int64(rec.Length))
}

// Release implements spec.md §4.3's release(urn, mode): look up the
// reserved lock record for (urn, mode) and release the advisory lock on
// its byte range.
func (e *Engine) Release(urn []byte, mode byte) error {
	attr, err := lockAttr(urn, mode)
	if err != nil {
		return err
	}

	key, _, _, ok, err := e.compositeKey(urn, attr, false)
	if err != nil {
		return err
	}
	if !ok {
		return errors.NewKeyNotFoundError(string(urn))
	}

	head, found, err := e.headOffset(key)
	if err != nil {
		return err
	}
	if !found {
		return errors.NewKeyNotFoundError(string(urn))
	}

	rec, err := e.vlog.Read(head)
	if err != nil {
		return err
	}
	return lockfile.Unlock(e.vlog.File(), int64(head), int64(rec.Length))
}

// SubjectID implements spec.md §6's get_id_by_urn(urn, create_new?):
// the subject registry's ID for urn, allocating one if createNew is
// true and none exists yet.
func (e *Engine) SubjectID(urn []byte, createNew bool) (uint32, error) {
	return e.subjects.GetID(urn, createNew)
}

// SubjectURN implements spec.md §6's get_urn_by_id(id): the subject
// name registered under id, if any.
func (e *Engine) SubjectURN(id uint32) (urn []byte, found bool, err error) {
	return e.subjects.GetName(id)
}

// ExportAllURNs implements spec.md §4.4's urn enumeration step: every
// subject name that has ever been assigned an ID, except names that
// begin with '_'.
func (e *Engine) ExportAllURNs() ([][]byte, error) {
	var urns [][]byte
	err := e.subjects.IterateNames(func(name []byte) error {
		urns = append(urns, bytes.Clone(name))
		return nil
	})
	return urns, err
}

// ExportDict implements spec.md §4.4's per-subject attribute probe: for
// every attribute ID ever assigned, check whether (urn, attr) has a
// local value list (no inheritance) and, if so, attach it under the
// attribute's name.
func (e *Engine) ExportDict(urn []byte) (map[string][][]byte, error) {
	result := map[string][][]byte{}

	sid, err := e.subjects.GetID(urn, false)
	if err != nil {
		return nil, err
	}
	if sid == 0 {
		return result, nil
	}

	maxAid, err := e.attributes.MaxID()
	if err != nil {
		return nil, err
	}

	for aid := uint32(1); aid <= maxAid; aid++ {
		key := fmt.Sprintf("%d:%d", sid, aid)
		head, found, err := e.headOffset(key)
		if err != nil {
			return nil, err
		}
		if !found {
			continue
		}

		name, found, err := e.attributes.GetName(aid)
		if err != nil {
			return nil, err
		}
		if !found {
			continue
		}

		values, ok, err := e.readChain(head)
		if err != nil {
			return nil, err
		}
		if ok {
			result[string(name)] = values
		}
	}
	return result, nil
}

// StreamSubjectTriples implements spec.md §4.4's per-subject RDF
// emission: probe every attribute ID from 1 to the registry's current
// max, skip aff4volatile:-prefixed and excluded attribute names, and
// call emit once per (attribute, value) pair surviving the chain walk.
// It stops and returns emit's error the first time emit fails.
func (e *Engine) StreamSubjectTriples(urn []byte, exclude map[string]struct{}, emit func(attr, value []byte) error) error {
	sid, err := e.subjects.GetID(urn, false)
	if err != nil {
		return err
	}
	if sid == 0 {
		return errors.NewIndexError(nil, errors.ErrorCodeNotFound, "subject not found").WithKey(string(urn))
	}

	maxAid, err := e.attributes.MaxID()
	if err != nil {
		return err
	}

	for aid := uint32(1); aid <= maxAid; aid++ {
		key := fmt.Sprintf("%d:%d", sid, aid)
		head, found, err := e.headOffset(key)
		if err != nil {
			return err
		}
		if !found {
			continue
		}

		name, found, err := e.attributes.GetName(aid)
		if err != nil {
			return err
		}
		if !found {
			continue
		}
		if strings.HasPrefix(string(name), VolatileNamespace) {
			continue
		}
		if _, excluded := exclude[string(name)]; excluded {
			continue
		}

		offset := head
		for offset != 0 {
			rec, err := e.vlog.Read(offset)
			if err == valuelog.ErrShortRead || err == valuelog.ErrOversizeRecord {
				break
			}
			if err != nil {
				return err
			}
			if err := emit(name, rec.Payload); err != nil {
				return err
			}
			offset = rec.PrevOffset
		}
	}
	return nil
}
