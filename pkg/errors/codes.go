package errors

// ErrorCode represents a standardized way to categorize different types of errors.
type ErrorCode string

// Base error codes represent the fundamental categories of failures that can
// occur across any software system. These codes provide the foundation layer
// of error classification.
const (
	// ErrorCodeIO represents failures in input/output operations across any
	// system boundary. This includes file system operations like reading or
	// writing the value log or backing store files, network operations when communicating with remote
	// systems, and device I/O when accessing storage hardware.
	ErrorCodeIO ErrorCode = "IO_ERROR"

	// ErrorCodeInvalidInput represents client-side errors where the provided
	// data doesn't meet the system's requirements or constraints. This maps
	// to HTTP 400-series errors and indicates problems with the request itself
	// rather than system failures.
	ErrorCodeInvalidInput ErrorCode = "INVALID_INPUT"

	// ErrorCodeInternal represents unexpected system failures that don't fit
	// into other categories. These are the equivalent of HTTP 500 errors and
	// indicate bugs, assertion failures, or other programming errors that
	// shouldn't occur during normal operation.
	ErrorCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// Storage-specific error codes extend the base error taxonomy to handle the
// unique failure modes that occur in persistent storage systems. These codes
// represent problems that are specific to the storage layer of your key-value
// store, particularly focusing on the value log file and data persistence.
const (
	// ErrorCodeHeaderReadFailure occurs when the system cannot read the header
	// portion of a value log record. Headers contain critical metadata about the
	// record's structure, so header read failures prevent access to the
	// record and the payload it points to.
	ErrorCodeHeaderReadFailure ErrorCode = "HEADER_READ_FAILURE"

	// ErrorCodePayloadReadFailure indicates problems reading the actual data
	// content of a value log record after successfully reading the header. This
	// represents a more localized failure compared to header problems, as the
	// record structure is intact but the payload region is inaccessible.
	ErrorCodePayloadReadFailure ErrorCode = "PAYLOAD_READ_FAILURE"

	// ErrorCodeRecoveryFailed indicates that the storage system's attempt to
	// recover from a previous failure was unsuccessful. This represents a
	// compound failure where both the original problem and the recovery
	// mechanism have failed, creating a more serious operational situation.
	ErrorCodeRecoveryFailed ErrorCode = "STORAGE_RECOVERY_FAILED"

	// ErrorCodePermissionDenied indicates insufficient permissions to access a resource.
	// This is distinct from generic IO errors because it has a specific resolution path:
	// the user needs to adjust file/directory permissions or run with elevated privileges.
	ErrorCodePermissionDenied ErrorCode = "PERMISSION_DENIED"

	// ErrorCodeDiskFull indicates that the storage device has run out of space.
	// This requires specific handling like cleanup operations or alerting administrators.
	ErrorCodeDiskFull ErrorCode = "DISK_FULL"

	// ErrorCodeFilesystemReadonly indicates that the filesystem is mounted read-only.
	// This requires administrative intervention to remount the filesystem with write permissions.
	ErrorCodeFilesystemReadonly ErrorCode = "FILESYSTEM_READONLY"

	// ErrorCodeOpen indicates one of the resolver's four backing files
	// (urn.tdb, attribute.tdb, data.tdb, data_store.tdb) could not be
	// opened or created.
	ErrorCodeOpen ErrorCode = "OPEN_ERROR"

	// ErrorCodeShortRead indicates a value-log record's header promised
	// more bytes than the file actually had available. Read paths treat
	// this as a truncated list and stop traversing; it is never raised
	// as an error to the caller.
	ErrorCodeShortRead ErrorCode = "SHORT_READ"

	// ErrorCodeOversizeRecord indicates a record's declared length is at
	// or above the 100,000-byte corruption-defense threshold.
	ErrorCodeOversizeRecord ErrorCode = "OVERSIZE_RECORD"
)

// Index-specific error codes cover the failure modes of the bidirectional
// name/ID registries and the composite-key index built on top of them.
const (
	// ErrorCodeIndexKeyNotFound indicates a requested key has no entry.
	ErrorCodeIndexKeyNotFound ErrorCode = "INDEX_KEY_NOT_FOUND"

	// ErrorCodeIndexCorrupted indicates the on-disk index or registry
	// structure is internally inconsistent.
	ErrorCodeIndexCorrupted ErrorCode = "INDEX_CORRUPTED"

	// ErrorCodeNotFound indicates the subject or record a read path was
	// asked to resolve does not exist, as opposed to existing with an
	// empty value list.
	ErrorCodeNotFound ErrorCode = "NOT_FOUND"
)

// Lock-specific error codes cover the advisory byte-range locking used to
// coordinate subject-level access across processes.
const (
	// ErrorCodeInvalidLockMode indicates a lock/release call used a mode
	// character other than 'r' or 'w'.
	ErrorCodeInvalidLockMode ErrorCode = "INVALID_LOCK_MODE"

	// ErrorCodeLockIO indicates the underlying OS-level advisory lock
	// call failed.
	ErrorCodeLockIO ErrorCode = "LOCK_IO_ERROR"
)
