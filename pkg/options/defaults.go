package options

const (
	// DefaultDataDir is the default base directory where the resolver
	// stores its four backing files, if no other directory is specified.
	DefaultDataDir = "/var/lib/aff4resolver"

	// DefaultHashSize is the default HashSize bucket-sizing hint; it is
	// not handed to the embedded KV stores.
	DefaultHashSize uint32 = 10000

	// DefaultMaxValueSize is the oversize-record threshold spec.md §3
	// defines: single values at or above this size are treated as a
	// corruption safeguard and skipped by read paths.
	DefaultMaxValueSize uint32 = 100000

	// DefaultSerializerBufferSize is the RDF serializer's flush
	// threshold, matching SERIALIZER_BUFF_SIZE from the original
	// implementation (100 KiB).
	DefaultSerializerBufferSize = 100 * 1024
)

// defaultOptions holds the default configuration settings for a Resolver instance.
var defaultOptions = Options{
	DataDir:              DefaultDataDir,
	HashSize:             DefaultHashSize,
	MaxValueSize:         DefaultMaxValueSize,
	SerializerBufferSize: DefaultSerializerBufferSize,
}

// NewDefaultOptions returns a copy of the resolver's default configuration.
func NewDefaultOptions() Options {
	return defaultOptions
}
