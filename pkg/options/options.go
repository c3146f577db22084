// Package options provides data structures and functions for configuring
// the resolver. It defines the parameters that control where the four
// backing files live, how the embedded KV stores are sized, and the
// corruption-defense and buffering thresholds the resolver and RDF
// serializer enforce.
package options

import "strings"

// Options defines the configuration parameters for a Resolver instance.
type Options struct {
	// DataDir is the directory containing the resolver's four backing
	// files: urn.tdb, attribute.tdb, data.tdb and data_store.tdb.
	//
	// Default: "/var/lib/aff4resolver"
	DataDir string `json:"dataDir"`

	// HashSize is a bucket-sizing hint mirroring the hashsize parameter
	// accepted by the original tdb_open(filename, hashsize, ...) call this
	// resolver is modeled on. bbolt does not require pre-sizing, and the
	// value is not passed to the embedded KV stores; it is retained so
	// callers porting tdb-based configuration have a direct home for it.
	//
	// Default: 10000
	HashSize uint32 `json:"hashSize"`

	// MaxValueSize is the oversize threshold from spec §3: single values
	// at or above this size are treated as a corruption safeguard and
	// skipped by resolve_list / is_value_present.
	//
	// Default: 100000
	MaxValueSize uint32 `json:"maxValueSize"`

	// SerializerBufferSize controls how many bytes the RDF serializer
	// buffers before invoking its sink.
	//
	// Default: 102400 (100 KiB)
	SerializerBufferSize int `json:"serializerBufferSize"`
}

// OptionFunc is a function type that modifies the resolver's configuration.
type OptionFunc func(*Options)

// WithDefaultOptions applies the full set of default configuration values.
func WithDefaultOptions() OptionFunc {
	return func(o *Options) {
		*o = NewDefaultOptions()
	}
}

// WithDataDir sets the directory where the resolver's backing files live.
func WithDataDir(directory string) OptionFunc {
	return func(o *Options) {
		directory = strings.TrimSpace(directory)
		if directory != "" {
			o.DataDir = directory
		}
	}
}

// WithHashSize sets the HashSize bucket-sizing hint (not passed to the
// embedded KV stores).
func WithHashSize(size uint32) OptionFunc {
	return func(o *Options) {
		if size > 0 {
			o.HashSize = size
		}
	}
}

// WithMaxValueSize overrides the oversize-record threshold. Intended
// primarily for tests that want to exercise the oversize/short-read
// guard without writing 100,000-byte payloads.
func WithMaxValueSize(size uint32) OptionFunc {
	return func(o *Options) {
		if size > 0 {
			o.MaxValueSize = size
		}
	}
}

// WithSerializerBufferSize overrides the RDF serializer's flush threshold.
func WithSerializerBufferSize(size int) OptionFunc {
	return func(o *Options) {
		if size > 0 {
			o.SerializerBufferSize = size
		}
	}
}
