package valuelog_test

import (
	"path/filepath"
	"testing"

	"github.com/aff4store/resolver/internal/valuelog"
)

func open(t *testing.T) *valuelog.Log {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data_store.tdb")
	l, err := valuelog.Open(path, 100000)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { l.Close() })
	return l
}

func TestAppendNeverReturnsZeroOffset(t *testing.T) {
	l := open(t)

	off, err := l.Append(0, []byte("hello"))
	if err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if off == 0 {
		t.Fatal("Append returned offset 0, which is reserved by the sentinel")
	}
}

func TestAppendReadRoundTrip(t *testing.T) {
	l := open(t)

	off, err := l.Append(0, []byte("payload"))
	if err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	rec, err := l.Read(off)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if string(rec.Payload) != "payload" {
		t.Fatalf("Payload = %q, want payload", rec.Payload)
	}
	if rec.PrevOffset != 0 {
		t.Fatalf("PrevOffset = %d, want 0", rec.PrevOffset)
	}
	if rec.Length != uint32(len("payload")) {
		t.Fatalf("Length = %d, want %d", rec.Length, len("payload"))
	}
}

func TestReverseChain(t *testing.T) {
	l := open(t)

	off1, err := l.Append(0, []byte("v1"))
	if err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	off2, err := l.Append(off1, []byte("v2"))
	if err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	off3, err := l.Append(off2, []byte("v3"))
	if err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	var values []string
	offset := off3
	for offset != 0 {
		rec, err := l.Read(offset)
		if err != nil {
			t.Fatalf("Read failed: %v", err)
		}
		values = append(values, string(rec.Payload))
		offset = rec.PrevOffset
	}

	want := []string{"v3", "v2", "v1"}
	if len(values) != len(want) {
		t.Fatalf("chain length = %d, want %d (%v)", len(values), len(want), values)
	}
	for i := range want {
		if values[i] != want[i] {
			t.Errorf("values[%d] = %q, want %q", i, values[i], want[i])
		}
	}
}

func TestReadShortRead(t *testing.T) {
	l := open(t)

	_, err := l.Read(999999)
	if err != valuelog.ErrShortRead {
		t.Fatalf("Read of an out-of-range offset = %v, want ErrShortRead", err)
	}
}

func TestReadRejectsOversizeLengthBeforeAllocating(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data_store.tdb")
	l, err := valuelog.Open(path, 100)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer l.Close()

	off, err := l.Append(0, []byte("small"))
	if err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	header := make([]byte, 8)
	if _, err := l.File().ReadAt(header, int64(off)); err != nil {
		t.Fatalf("ReadAt header failed: %v", err)
	}
	header[4], header[5], header[6], header[7] = 0xff, 0xff, 0xff, 0x7f
	if _, err := l.File().WriteAt(header, int64(off)); err != nil {
		t.Fatalf("WriteAt corrupted header failed: %v", err)
	}

	_, err = l.Read(off)
	if err != valuelog.ErrOversizeRecord {
		t.Fatalf("Read of a record with a corrupted oversize length = %v, want ErrOversizeRecord", err)
	}
}

func TestReopenPreservesSentinel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data_store.tdb")
	l1, err := valuelog.Open(path, 100000)
	if err != nil {
		t.Fatalf("first Open failed: %v", err)
	}
	off, err := l1.Append(0, []byte("persisted"))
	if err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if err := l1.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	l2, err := valuelog.Open(path, 100000)
	if err != nil {
		t.Fatalf("second Open failed: %v", err)
	}
	defer l2.Close()

	rec, err := l2.Read(off)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if string(rec.Payload) != "persisted" {
		t.Fatalf("Payload = %q, want persisted", rec.Payload)
	}
}
