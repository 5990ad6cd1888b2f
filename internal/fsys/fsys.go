// Package fsys provides the filesystem abstraction used by the sync engine.
// It wraps go-billy so production code runs against the OS filesystem while
// tests run against an in-memory one.
package fsys

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
)

// FS is a filesystem rooted at a directory.
type FS struct {
	fs billy.Filesystem
}

// NewFS creates an FS over the given go-billy filesystem.
func NewFS(fsys billy.Filesystem) *FS {
	return &FS{
		fs: fsys,
	}
}

// NewInMemoryFS creates a new in-memory filesystem.
func NewInMemoryFS() *FS {
	return &FS{
		fs: memfs.New(),
	}
}

// NewOSFS creates a filesystem rooted at path on the host OS.
func NewOSFS(path string) *FS {
	return &FS{
		fs: osfs.New(path),
	}
}

// Create creates or truncates the named file.
//
//nolint:ireturn // API returns the File interface so callers stay fs-agnostic.
func (b *FS) Create(name string) (File, error) {
	f, err := b.fs.Create(name)
	if err != nil {
		return nil, fmt.Errorf("fsys: create %q: %w", name, err)
	}
	return &file{
		file: f,
		fs:   b,
	}, nil
}

// Open opens the named file for reading.
//
//nolint:ireturn // API returns the File interface so callers stay fs-agnostic.
func (b *FS) Open(name string) (File, error) {
	f, err := b.fs.Open(name)
	if err != nil {
		return nil, fmt.Errorf("fsys: open %q: %w", name, err)
	}
	return &file{
		file: f,
		fs:   b,
	}, nil
}

// OpenFile is the generalized open call.
//
//nolint:ireturn // API returns the File interface so callers stay fs-agnostic.
func (b *FS) OpenFile(name string, flag int, perm os.FileMode) (File, error) {
	f, err := b.fs.OpenFile(name, flag, perm)
	if err != nil {
		return nil, fmt.Errorf("fsys: openfile %q: %w", name, err)
	}
	return &file{
		file: f,
		fs:   b,
	}, nil
}

// Exists reports whether path exists.
func (b *FS) Exists(path string) (bool, error) {
	_, err := b.fs.Stat(path)
	switch {
	case err == nil:
		return true, nil
	case os.IsNotExist(err):
		return false, nil
	default:
		return false, fmt.Errorf("fsys: stat %q: %w", path, err)
	}
}

// Stat returns file info for the named file.
func (b *FS) Stat(name string) (os.FileInfo, error) {
	info, err := b.fs.Stat(name)
	if err != nil {
		return nil, fmt.Errorf("fsys: stat %q: %w", name, err)
	}
	return info, nil
}

// Lstat returns file info without following symlinks.
func (b *FS) Lstat(name string) (os.FileInfo, error) {
	info, err := b.fs.Lstat(name)
	if err != nil {
		return nil, fmt.Errorf("fsys: lstat %q: %w", name, err)
	}
	return info, nil
}

// ReadDir reads the named directory.
func (b *FS) ReadDir(dirname string) ([]os.FileInfo, error) {
	list, err := b.fs.ReadDir(dirname)
	if err != nil {
		return nil, fmt.Errorf("fsys: readdir %q: %w", dirname, err)
	}
	return list, nil
}

// ReadFile reads the named file in full.
func (b *FS) ReadFile(path string) ([]byte, error) {
	bts, err := util.ReadFile(b.fs, path)
	if err != nil {
		return nil, fmt.Errorf("fsys: readfile %q: %w", path, err)
	}
	return bts, nil
}

// WriteFile writes data to the named file, creating it if necessary.
func (b *FS) WriteFile(filename string, data []byte, perm os.FileMode) error {
	if err := util.WriteFile(b.fs, filename, data, perm); err != nil {
		return fmt.Errorf("fsys: writefile %q: %w", filename, err)
	}
	return nil
}

// MkdirAll creates the named directory with any missing parents.
func (b *FS) MkdirAll(path string, perm os.FileMode) error {
	if err := b.fs.MkdirAll(path, perm); err != nil {
		return fmt.Errorf("fsys: mkdirall %q: %w", path, err)
	}
	return nil
}

// Rename moves oldpath to newpath.
func (b *FS) Rename(oldpath, newpath string) error {
	if err := b.fs.Rename(oldpath, newpath); err != nil {
		return fmt.Errorf("fsys: rename %q -> %q: %w", oldpath, newpath, err)
	}
	return nil
}

// Remove removes the named file or empty directory.
func (b *FS) Remove(name string) error {
	if err := b.fs.Remove(name); err != nil {
		return fmt.Errorf("fsys: remove %q: %w", name, err)
	}
	return nil
}

// RemoveAll removes path and any children it contains.
func (b *FS) RemoveAll(path string) error {
	if err := util.RemoveAll(b.fs, path); err != nil {
		return fmt.Errorf("fsys: removeall %q: %w", path, err)
	}
	return nil
}

// Chtimes sets the access and modification times of the named file.
// Filesystems without time support (the in-memory one) make this a no-op.
func (b *FS) Chtimes(name string, atime, mtime time.Time) error {
	ch, ok := b.fs.(billy.Change)
	if !ok {
		return nil
	}
	if err := ch.Chtimes(name, atime, mtime); err != nil {
		return fmt.Errorf("fsys: chtimes %q: %w", name, err)
	}
	return nil
}

// Walk walks the file tree rooted at root, calling walkFn for each entry.
func (b *FS) Walk(root string, walkFn filepath.WalkFunc) error {
	if err := util.Walk(b.fs, root, walkFn); err != nil {
		return fmt.Errorf("fsys: walk %q: %w", root, err)
	}
	return nil
}

// Join joins path elements using the filesystem's separator rules.
func (b *FS) Join(elem ...string) string {
	return b.fs.Join(elem...)
}

// Raw returns the underlying go-billy filesystem.
//
//nolint:ireturn // returning the interface exposes the adapter target.
func (b *FS) Raw() billy.Filesystem {
	return b.fs
}
