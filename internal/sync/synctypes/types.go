// Package synctypes provides shared type definitions for the sync engine.
package synctypes

import "time"

// FileInfo describes one file in a scanned tree. Both sides of a sync use the
// same shape; Path is slash-separated and relative to the tree root.
type FileInfo struct {
	// Path is the file path relative to the scan root
	Path string

	// Size is the file size in bytes
	Size int64

	// ModTime is the file modification time
	ModTime time.Time
}

// ProgressTracker receives per-file progress during a sync pass.
// Implementations render console progress or record updates in tests.
type ProgressTracker interface {
	// Update is called after each finished operation
	Update(completed, total int64, path string, skipped bool)

	// Complete is called when the pass completes
	Complete()

	// Error is called when an operation fails permanently
	Error(path string, err error)
}

// Result contains the outcome of one sync pass.
type Result struct {
	// FilesCopied is the number of files copied to the destination
	FilesCopied int

	// FilesSkipped is the number of files left untouched
	FilesSkipped int

	// FilesDeleted is the number of destination files removed
	FilesDeleted int

	// BytesCopied is the total bytes written
	BytesCopied int64

	// Errors contains any per-file errors that occurred
	Errors []SyncError

	// Duration is how long the pass took
	Duration time.Duration
}

// SyncError represents a per-file failure during a sync pass.
type SyncError struct {
	// Path is the file path that caused the error
	Path string

	// Code is the error code
	Code string

	// Message is the error message
	Message string
}
