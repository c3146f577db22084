package errors

// LockError is a specialized error type for advisory byte-range locking
// failures on the value log, mirroring IndexError's shape but carrying
// the context a lock/release call needs: which subject, which mode, and
// which byte range was involved.
type LockError struct {
	*baseError

	urn    string
	mode   byte
	offset int64
	length int64
}

// NewLockError creates a new lock-specific error with the provided context.
func NewLockError(err error, code ErrorCode, msg string) *LockError {
	return &LockError{baseError: NewBaseError(err, code, msg)}
}

// WithMessage updates the error message while maintaining the LockError type.
func (le *LockError) WithMessage(msg string) *LockError {
	le.baseError.WithMessage(msg)
	return le
}

// WithCode sets the error code while preserving the LockError type.
func (le *LockError) WithCode(code ErrorCode) *LockError {
	le.baseError.WithCode(code)
	return le
}

// WithDetail adds contextual information while maintaining the LockError type.
func (le *LockError) WithDetail(key string, value any) *LockError {
	le.baseError.WithDetail(key, value)
	return le
}

// WithURN records which subject was being locked or released.
func (le *LockError) WithURN(urn string) *LockError {
	le.urn = urn
	return le
}

// WithMode records which lock mode ('r' or 'w') was requested.
func (le *LockError) WithMode(mode byte) *LockError {
	le.mode = mode
	return le
}

// WithRange records the byte range the lock call attempted to acquire or release.
func (le *LockError) WithRange(offset, length int64) *LockError {
	le.offset = offset
	le.length = length
	return le
}

// URN returns the subject that was being locked or released.
func (le *LockError) URN() string {
	return le.urn
}

// Mode returns the lock mode that was requested.
func (le *LockError) Mode() byte {
	return le.mode
}

// Range returns the byte offset and length the lock call operated on.
func (le *LockError) Range() (offset, length int64) {
	return le.offset, le.length
}

// NewInvalidLockModeError creates an error for a lock/release call that used
// a mode character other than 'r' or 'w'.
func NewInvalidLockModeError(urn string, mode byte) *LockError {
	return NewLockError(nil, ErrorCodeInvalidLockMode, "lock mode must be 'r' or 'w'").
		WithURN(urn).
		WithMode(mode)
}
