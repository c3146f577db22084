// Package valuelog implements the append-only value log described in
// spec.md §3/§4.2: a single file of back-to-back (prev_offset, length,
// payload) records. Records form reverse-linked lists, one list per
// (subject, attribute) pair, with prev_offset == 0 terminating a list.
// The first four bytes of the file are a sentinel so offset 0 is never
// a valid record header, matching pytdb's TDB-backed original where
// offset 0 in the backing store is likewise reserved.
//
// Log performs no locking of its own; spec.md §5 assigns that to the
// Index & Resolver layer (the index write lock guards appends) and to
// internal/lockfile for the advisory subject-level byte ranges.
package valuelog

import (
	"encoding/binary"
	"io"
	"os"

	"github.com/aff4store/resolver/pkg/errors"
)

// sentinel occupies the first 4 bytes of the log file so that no valid
// record ever sits at offset 0, which doubles as the reverse-link list
// terminator.
var sentinel = [4]byte{'d', 'a', 't', 'a'}

// headerSize is the on-disk size of a record's (prev_offset, length) header.
const headerSize = 8

// Log is the append-only value log file.
type Log struct {
	file           *os.File
	path           string
	maxPayloadSize uint32
}

// Open opens (creating if necessary) the value log at path, writing the
// 4-byte sentinel if the file is empty. maxPayloadSize is the oversize
// threshold from spec.md §3 (options.Options.MaxValueSize): Read rejects
// any record whose header declares a length at or above this bound
// before allocating a buffer for it, so a corrupted length field can
// never force a multi-gigabyte allocation.
//
// spec.md §4.2 says this initialization must be "guarded by holding the
// Index-level write lock"; in practice that means Open must only ever
// run once, during single-threaded Resolver construction, before any
// concurrent caller can observe the file — which is exactly how
// internal/engine calls it.
func Open(path string, maxPayloadSize uint32) (*Log, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, errors.ClassifyFileOpenError(err, path, path)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, errors.NewStorageError(err, errors.ErrorCodeIO, "failed to stat value log").WithPath(path)
	}

	if info.Size() == 0 {
		if _, err := f.WriteAt(sentinel[:], 0); err != nil {
			f.Close()
			return nil, errors.NewStorageError(err, errors.ErrorCodeIO, "failed to write value log sentinel").WithPath(path)
		}
	}

	return &Log{file: f, path: path, maxPayloadSize: maxPayloadSize}, nil
}

// Close releases the value log's file handle.
func (l *Log) Close() error {
	return l.file.Close()
}

// File exposes the underlying *os.File so internal/lockfile can take
// advisory byte-range locks on it. Each lock range the Resolver takes
// starts at the offset of a reserved lock record written by Append and
// lies within that record, so ranges for different records never
// overlap.
func (l *Log) File() *os.File {
	return l.file
}

// Append writes a new record with the given prev_offset and payload to
// the end of the log and returns the offset of the new record's header,
// per spec.md §4.2.
func (l *Log) Append(prevOffset uint32, payload []byte) (uint32, error) {
	offset, err := l.file.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, errors.NewStorageError(err, errors.ErrorCodeIO, "failed to seek to end of value log").WithPath(l.path)
	}
	if offset < 0 || offset > int64(^uint32(0)) {
		return 0, errors.NewStorageError(nil, errors.ErrorCodeIO, "value log exceeds addressable offset range").WithPath(l.path)
	}

	buf := make([]byte, headerSize+len(payload))
	binary.LittleEndian.PutUint32(buf[0:4], prevOffset)
	binary.LittleEndian.PutUint32(buf[4:8], uint32(len(payload)))
	copy(buf[headerSize:], payload)

	if _, err := l.file.Write(buf); err != nil {
		return 0, errors.NewStorageError(err, errors.ErrorCodeIO, "failed to append value log record").WithPath(l.path)
	}

	return uint32(offset), nil
}

// Record is a single decoded value-log entry.
type Record struct {
	PrevOffset uint32
	Length     uint32
	Payload    []byte
}

// ErrShortRead is returned by Read when the record's header promises
// more bytes than the file has available — spec.md §7's ShortRead
// condition. Read paths treat the list as truncated at this point and
// stop traversing without returning it; Lock and Release return it if
// the lock record itself is truncated.
var ErrShortRead = errors.NewStorageError(nil, errors.ErrorCodeShortRead, "value log record is truncated")

// ErrOversizeRecord is returned by Read when the record's declared
// length is at or above the configured maxPayloadSize, before any
// attempt is made to allocate a buffer for it or read the payload —
// spec.md §3's "single values >=100,000 bytes are treated as oversize"
// corruption safeguard. Callers treat this exactly like ErrShortRead:
// the list is truncated at this point and traversal stops.
var ErrOversizeRecord = errors.NewStorageError(nil, errors.ErrorCodeOversizeRecord, "value log record exceeds the maximum allowed size")

// Read decodes the record whose header begins at byte offset o. The
// payload length is checked against maxPayloadSize — and, if it is at
// or above that bound, rejected with ErrOversizeRecord — before any payload
// buffer is allocated or read, so a corrupted or adversarial length
// field in the on-disk header can never force an outsized allocation.
func (l *Log) Read(o uint32) (Record, error) {
	header := make([]byte, headerSize)
	n, err := l.file.ReadAt(header, int64(o))
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return Record{}, errors.NewStorageError(err, errors.ErrorCodeHeaderReadFailure, "failed to read value log header").
			WithOffset(int(o)).WithPath(l.path)
	}
	if n < headerSize {
		return Record{}, ErrShortRead
	}

	prev := binary.LittleEndian.Uint32(header[0:4])
	length := binary.LittleEndian.Uint32(header[4:8])

	if l.maxPayloadSize > 0 && length >= l.maxPayloadSize {
		return Record{}, ErrOversizeRecord
	}

	payload := make([]byte, length)
	n, err = l.file.ReadAt(payload, int64(o)+headerSize)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return Record{}, errors.NewStorageError(err, errors.ErrorCodePayloadReadFailure, "failed to read value log payload").
			WithOffset(int(o)).WithPath(l.path)
	}
	if uint32(n) < length {
		return Record{}, ErrShortRead
	}

	return Record{PrevOffset: prev, Length: length, Payload: payload}, nil
}
