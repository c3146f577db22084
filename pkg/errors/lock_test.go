package errors_test

import (
	"testing"

	"github.com/aff4store/resolver/pkg/errors"
)

func TestNewInvalidLockModeError(t *testing.T) {
	err := errors.NewInvalidLockModeError("aff4://s1", 'x')

	if errors.GetErrorCode(err) != errors.ErrorCodeInvalidLockMode {
		t.Fatalf("GetErrorCode = %v, want %v", errors.GetErrorCode(err), errors.ErrorCodeInvalidLockMode)
	}

	le, ok := errors.AsLockError(err)
	if !ok {
		t.Fatal("AsLockError returned false for a LockError")
	}
	if le.URN() != "aff4://s1" {
		t.Fatalf("URN() = %q, want aff4://s1", le.URN())
	}
	if le.Mode() != 'x' {
		t.Fatalf("Mode() = %q, want 'x'", le.Mode())
	}
}

func TestLockErrorWithRange(t *testing.T) {
	err := errors.NewLockError(nil, errors.ErrorCodeLockIO, "lock failed").WithRange(100, 16)

	offset, length := err.Range()
	if offset != 100 || length != 16 {
		t.Fatalf("Range() = (%d, %d), want (100, 16)", offset, length)
	}
	if !errors.IsLockError(err) {
		t.Fatal("IsLockError returned false")
	}
}
