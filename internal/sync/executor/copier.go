package executor

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/wangguanran/Tools/internal/pool"
)

// ctxReader makes a blocking copy loop observe context cancellation.
// io.CopyBuffer has no context parameter, so the check rides on each Read.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (cr *ctxReader) Read(p []byte) (int, error) {
	select {
	case <-cr.ctx.Done():
		return 0, cr.ctx.Err()
	default:
	}
	return cr.r.Read(p)
}

// copyFile copies one file from the source tree to the destination tree.
// The data lands in a temp file first and is renamed into place, so readers
// of the destination never observe a half-written file. The source
// modification time is applied to the destination when the backend
// supports it.
func (e *Executor) copyFile(ctx context.Context, relPath string) (int64, error) {
	srcPath := e.srcFS.Join(e.srcRoot, relPath)
	dstPath := e.dstFS.Join(e.dstRoot, relPath)

	srcInfo, err := e.srcFS.Stat(srcPath)
	if err != nil {
		return 0, fmt.Errorf("failed to stat source: %w", err)
	}

	if e.dryRun {
		return srcInfo.Size(), nil
	}

	dstDir := filepath.Dir(dstPath)
	if dstDir != "." && dstDir != "/" {
		if err := e.dstFS.MkdirAll(dstDir, 0o755); err != nil {
			return 0, fmt.Errorf("failed to create destination directory: %w", err)
		}
	}

	srcFile, err := e.srcFS.Open(srcPath)
	if err != nil {
		return 0, fmt.Errorf("failed to open source: %w", err)
	}
	defer srcFile.Close()

	// The staging name is built here instead of asking the backend for a
	// temp file: billy filesystems disagree on what a temp file reports as
	// its name, and the rename below needs a path that resolves on dstFS.
	tmpPath := e.dstFS.Join(dstDir, ".sync-"+uuid.NewString())
	tmpFile, err := e.dstFS.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return 0, fmt.Errorf("failed to create temp file: %w", err)
	}

	buf := pool.Get(pool.LargeBufferSize)
	written, err := io.CopyBuffer(tmpFile, &ctxReader{ctx: ctx, r: srcFile}, buf)
	pool.Put(buf)

	closeErr := tmpFile.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		_ = e.dstFS.Remove(tmpPath)
		return 0, fmt.Errorf("failed to copy data: %w", err)
	}

	if err := e.dstFS.Rename(tmpPath, dstPath); err != nil {
		_ = e.dstFS.Remove(tmpPath)
		return 0, fmt.Errorf("failed to move temp file into place: %w", err)
	}

	if err := e.dstFS.Chtimes(dstPath, srcInfo.ModTime(), srcInfo.ModTime()); err != nil {
		return written, fmt.Errorf("failed to preserve modification time: %w", err)
	}

	return written, nil
}

// deleteFile removes one file from the destination tree.
func (e *Executor) deleteFile(relPath string) error {
	if e.dryRun {
		return nil
	}

	dstPath := e.dstFS.Join(e.dstRoot, relPath)
	if err := e.dstFS.Remove(dstPath); err != nil {
		return fmt.Errorf("failed to remove destination file: %w", err)
	}
	return nil
}
