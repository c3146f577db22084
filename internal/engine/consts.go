package engine

import "github.com/aff4store/resolver/internal/idregistry"

// MaxKey is the reserved per-registry key holding the last-assigned ID
// (spec.md §3's "MAX counter", one of the five reserved constants §9
// names: INHERIT, WLOCK, RLOCK, MAX_KEY, VOLATILE_NS).
const MaxKey = idregistry.MaxKey

// Inherit is the reserved attribute name the resolve_list inheritance
// walk follows (spec.md §4.3): when a subject has no local value for an
// attribute, its aff4:inherit value names the subject to consult next.
const Inherit = "aff4:inherit"

// WLock and RLock are the reserved attribute names lock/release use to
// store the record whose value-log position backs a subject's advisory
// lock (spec.md §4.3). Despite the names, both modes take an exclusive
// OS-level lock on their own, distinct byte range.
const (
	WLock = "__WLOCK"
	RLock = "__RLOCK"
)

// VolatileNamespace is the attribute-name prefix the RDF serializer
// skips unconditionally (spec.md §4.4): aff4volatile: attributes are
// process-local bookkeeping, never meant to round-trip through turtle.
const VolatileNamespace = "aff4volatile:"
