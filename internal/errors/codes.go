// Package errors provides structured error handling for the Tools binaries.
// It extends Go's standard error handling with string error codes so callers
// can classify failures without matching on message text.
package errors

// ErrorCode represents a specific error condition.
// Error codes are string-based for debuggability and natural JSON serialization.
type ErrorCode string

const (
	// Dispatch errors.

	// CodeInvalidChoice indicates the menu input matched no profile.
	CodeInvalidChoice ErrorCode = "INVALID_CHOICE"

	// CodeToolNotFound indicates the external sync tool could not be located.
	CodeToolNotFound ErrorCode = "TOOL_NOT_FOUND"

	// CodeToolFailed indicates the external sync tool exited non-zero.
	CodeToolFailed ErrorCode = "TOOL_FAILED"

	// Configuration errors.

	// CodeInvalidConfig indicates a configuration error prevents the operation.
	CodeInvalidConfig ErrorCode = "INVALID_CONFIGURATION"

	// CodeInvalidInput indicates the provided input is invalid or malformed.
	CodeInvalidInput ErrorCode = "INVALID_INPUT"

	// Sync errors.

	// CodeRemoteUnreachable indicates the remote share could not be reached.
	CodeRemoteUnreachable ErrorCode = "REMOTE_UNREACHABLE"

	// CodeCopyFailed indicates a file copy exhausted its retries.
	CodeCopyFailed ErrorCode = "COPY_FAILED"

	// CodeWatchFailed indicates the change watcher could not be established.
	CodeWatchFailed ErrorCode = "WATCH_FAILED"

	// CodeTimeout indicates an operation exceeded its time limit.
	CodeTimeout ErrorCode = "TIMEOUT"

	// Log parsing errors.

	// CodeBadArchive indicates an input archive could not be extracted.
	CodeBadArchive ErrorCode = "BAD_ARCHIVE"

	// CodeBadRegister indicates a register value could not be decoded.
	CodeBadRegister ErrorCode = "BAD_REGISTER"

	// Generic errors.

	// CodeInternal indicates an internal error occurred.
	CodeInternal ErrorCode = "INTERNAL_ERROR"

	// CodeUnknown indicates an unknown or unclassified error occurred.
	CodeUnknown ErrorCode = "UNKNOWN"
)
