// Package idregistry implements the bidirectional intern table described
// in spec.md §4.1: a durable mapping between arbitrary byte-string names
// (subject URNs or attribute names) and strictly positive, monotonically
// allocated 32-bit IDs. Two independent instances of Registry back the
// subject and attribute namespaces; each owns its own kvstore.Store file.
package idregistry

import (
	"strconv"
	"strings"

	"github.com/aff4store/resolver/internal/kvstore"
	"github.com/aff4store/resolver/pkg/errors"
	"go.uber.org/zap"
)

// MaxKey is the reserved key each registry uses to persist the last
// assigned ID, per spec.md §3's "MAX counter" entity and §9's list of
// reserved constants implementations should expose (MAX_KEY).
const MaxKey = "__MAX"

// idPrefix marks the "__" prefix spec.md §4.1 assigns to every encoded
// ID, whether it appears as a key (the reverse mapping, or __MAX) or as
// a stored value (the forward mapping).
const idPrefix = "__"

// Registry is a durable, bidirectional name<->ID intern table.
type Registry struct {
	store *kvstore.Store
	log   *zap.SugaredLogger
	name  string // "subjects" or "attributes", for logging only.
}

// Open opens (or creates) the registry backed by the bbolt file at path.
func Open(path, name string, log *zap.SugaredLogger) (*Registry, error) {
	store, err := kvstore.Open(path)
	if err != nil {
		return nil, err
	}

	log.Infow("opened ID registry", "name", name, "path", path)
	return &Registry{store: store, log: log, name: name}, nil
}

// Close releases the registry's backing file.
func (r *Registry) Close() error {
	return r.store.Close()
}

// encode renders an ID in its canonical "__<decimal>" textual form, used
// both as a stored value (the forward mapping) and as a key (the
// reverse mapping and the MAX counter).
func encode(id uint32) []byte {
	return EncodeID(id)
}

// decode parses the "__<decimal>" form back into an ID. It returns 0,
// false if enc isn't validly encoded.
func decode(enc []byte) (uint32, bool) {
	return DecodeID(enc)
}

// EncodeID renders a uint32 ID (a registry ID or a value-log offset) in
// the "__<decimal>" textual form spec.md §6 specifies for both ID
// registries and, by the same convention, the Index's stored offsets.
func EncodeID(id uint32) []byte {
	return []byte(idPrefix + strconv.FormatUint(uint64(id), 10))
}

// DecodeID parses the "__<decimal>" form back into a uint32. It returns
// 0, false if enc isn't validly encoded.
func DecodeID(enc []byte) (uint32, bool) {
	s := string(enc)
	if !strings.HasPrefix(s, idPrefix) {
		return 0, false
	}
	n, err := strconv.ParseUint(strings.TrimPrefix(s, idPrefix), 10, 32)
	if err != nil {
		return 0, false
	}
	return uint32(n), true
}

// GetID implements spec.md §4.1's get_id(name, create_new): it returns
// the existing ID for name, or — if create_new is true and none exists
// — allocates the next ID, persists the forward mapping, the reverse
// mapping, and the advanced MAX counter atomically, and returns it.
//
// The entire get-or-create sequence runs inside a single bbolt write
// transaction, which is how this registry satisfies spec.md's "acquire
// process-wide lock on this registry" step: bbolt serializes writers on
// one file, so two concurrent create_new calls for the same name can
// never both observe an absent entry and race to allocate an ID.
func (r *Registry) GetID(name []byte, createNew bool) (uint32, error) {
	var id uint32
	var created bool

	err := r.store.Update(func(get func([]byte) []byte, put func([]byte, []byte) error) error {
		if existing := get(name); existing != nil {
			decoded, ok := decode(existing)
			if !ok {
				return errors.NewIndexCorruptionError("GetID", 0, nil).
					WithKey(string(name)).
					WithDetail("registry", r.name)
			}
			id = decoded
			return nil
		}

		if !createNew {
			return nil
		}

		var next uint32 = 1
		if cur := get([]byte(MaxKey)); cur != nil {
			if decoded, ok := decode(cur); ok {
				next = decoded + 1
			}
		}

		encID := encode(next)
		if err := put(name, encID); err != nil {
			return err
		}
		if err := put([]byte(MaxKey), encID); err != nil {
			return err
		}
		if err := put(encID, name); err != nil {
			return err
		}

		id = next
		created = true
		return nil
	})
	if err != nil {
		return 0, err
	}

	if created {
		r.log.Infow("allocated new ID", "registry", r.name, "id", id)
	}
	return id, nil
}

// GetName implements spec.md §4.1's get_name(id): fetch key enc(id),
// return its value.
func (r *Registry) GetName(id uint32) (name []byte, found bool, err error) {
	return r.store.Get(encode(id))
}

// MaxID returns the last-assigned ID in this registry (0 if none has
// ever been assigned), matching the value the RDF serializer needs as
// an upper bound for its attribute-ID scan (spec.md §4.4 step 2).
func (r *Registry) MaxID() (uint32, error) {
	v, found, err := r.store.Get([]byte(MaxKey))
	if err != nil {
		return 0, err
	}
	if !found {
		return 0, nil
	}
	id, ok := decode(v)
	if !ok {
		return 0, errors.NewIndexCorruptionError("MaxID", 0, nil).WithDetail("registry", r.name)
	}
	return id, nil
}

// IterateNames implements spec.md §4.1's iterate_names(): enumerate
// keys, skipping any starting with '_' (which hides __MAX and every
// enc(id) reverse-mapping key, leaving only name keys).
func (r *Registry) IterateNames(fn func(name []byte) error) error {
	return r.store.ForEach(func(key, _ []byte) error {
		if len(key) > 0 && key[0] == '_' {
			return nil
		}
		return fn(key)
	})
}
