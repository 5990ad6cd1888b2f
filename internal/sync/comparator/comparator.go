// Package comparator provides file comparison strategies.
// This includes different algorithms for determining if a destination file
// is stale relative to its source counterpart.
//
// The package supports multiple comparison strategies including size-only,
// checksum-based, and the default time-and-size comparison.
package comparator

import (
	"crypto/sha256"
	"fmt"
	"hash"
	"io"
	"time"

	"github.com/wangguanran/Tools/internal/fsys"
	"github.com/wangguanran/Tools/internal/sync/synctypes"
)

// Comparator defines the interface for comparing a source file against its
// destination counterpart. It is only consulted when both sides exist; the
// planner handles missing files directly.
type Comparator interface {
	// HasChanged determines if the destination file is stale
	HasChanged(src, dst *synctypes.FileInfo) (bool, error)
}

// TimeSizeComparator is the default comparator. A destination file is stale
// when its size differs from the source or when the source is newer by more
// than MaxTimeDiff. The tolerance absorbs the coarse timestamp resolution of
// SMB shares and FAT-formatted destinations.
type TimeSizeComparator struct {
	// MaxTimeDiff is the tolerance applied to modification time comparison
	MaxTimeDiff time.Duration
}

// NewTimeSizeComparator creates a new time-and-size comparator with default settings.
func NewTimeSizeComparator() *TimeSizeComparator {
	return &TimeSizeComparator{
		MaxTimeDiff: 2 * time.Second,
	}
}

// HasChanged implements the Comparator interface for TimeSizeComparator.
func (c *TimeSizeComparator) HasChanged(src, dst *synctypes.FileInfo) (bool, error) {
	if src.Size != dst.Size {
		return true, nil
	}

	// Only a newer source counts as a change. A destination with a later
	// timestamp is left alone rather than overwritten with older content.
	return src.ModTime.Sub(dst.ModTime) > c.MaxTimeDiff, nil
}

// SizeOnlyComparator only compares file sizes.
// This is the fastest comparator but may miss changes that don't affect size.
type SizeOnlyComparator struct{}

// NewSizeOnlyComparator creates a new size-only comparator.
func NewSizeOnlyComparator() *SizeOnlyComparator {
	return &SizeOnlyComparator{}
}

// HasChanged implements the Comparator interface for SizeOnlyComparator.
func (c *SizeOnlyComparator) HasChanged(src, dst *synctypes.FileInfo) (bool, error) {
	return src.Size != dst.Size, nil
}

// ChecksumComparator reads both files and compares their digests.
// This is the most accurate comparator but requires reading entire files
// over the network, so it is opt-in.
type ChecksumComparator struct {
	srcFS   *fsys.FS
	dstFS   *fsys.FS
	srcRoot string
	dstRoot string

	// HashFunc is the hash function to use (defaults to SHA-256)
	HashFunc func() hash.Hash
}

// NewChecksumComparator creates a checksum comparator that resolves the
// relative paths in FileInfo records against the given roots.
func NewChecksumComparator(srcFS, dstFS *fsys.FS, srcRoot, dstRoot string) *ChecksumComparator {
	return &ChecksumComparator{
		srcFS:    srcFS,
		dstFS:    dstFS,
		srcRoot:  srcRoot,
		dstRoot:  dstRoot,
		HashFunc: sha256.New,
	}
}

// HasChanged implements the Comparator interface for ChecksumComparator.
func (c *ChecksumComparator) HasChanged(src, dst *synctypes.FileInfo) (bool, error) {
	// Different sizes cannot hash equal, skip the reads.
	if src.Size != dst.Size {
		return true, nil
	}

	srcSum, err := c.computeChecksum(c.srcFS, c.srcFS.Join(c.srcRoot, src.Path))
	if err != nil {
		return false, fmt.Errorf("failed to compute source checksum: %w", err)
	}

	dstSum, err := c.computeChecksum(c.dstFS, c.dstFS.Join(c.dstRoot, dst.Path))
	if err != nil {
		return false, fmt.Errorf("failed to compute destination checksum: %w", err)
	}

	return srcSum != dstSum, nil
}

// computeChecksum computes the digest of one file using the configured hash function.
func (c *ChecksumComparator) computeChecksum(filesystem *fsys.FS, path string) (string, error) {
	file, err := filesystem.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open file for checksum computation: %w", err)
	}
	defer file.Close()

	h := c.HashFunc()
	if _, err := io.Copy(h, file); err != nil {
		return "", fmt.Errorf("failed to compute checksum: %w", err)
	}

	return fmt.Sprintf("%x", h.Sum(nil)), nil
}

// CompositeComparator combines multiple comparators; a file counts as
// changed when any of them reports a change.
type CompositeComparator struct {
	comparators []Comparator
}

// NewCompositeComparator creates a new composite comparator.
func NewCompositeComparator(comparators ...Comparator) *CompositeComparator {
	return &CompositeComparator{comparators: comparators}
}

// HasChanged implements the Comparator interface for CompositeComparator.
func (c *CompositeComparator) HasChanged(src, dst *synctypes.FileInfo) (bool, error) {
	if len(c.comparators) == 0 {
		return false, fmt.Errorf("no comparators configured")
	}

	for _, comp := range c.comparators {
		changed, err := comp.HasChanged(src, dst)
		if err != nil {
			return false, fmt.Errorf("composite comparator failed: %w", err)
		}
		if changed {
			return true, nil
		}
	}

	return false, nil
}

// SkipExistingComparator implements skip-if-exists: a destination file that
// already has content is never rewritten, no matter how it compares to the
// source. An empty destination counts as missing and is repaired.
type SkipExistingComparator struct{}

// NewSkipExistingComparator creates a new skip-if-exists comparator.
func NewSkipExistingComparator() *SkipExistingComparator {
	return &SkipExistingComparator{}
}

// HasChanged implements the Comparator interface for SkipExistingComparator.
func (c *SkipExistingComparator) HasChanged(src, dst *synctypes.FileInfo) (bool, error) {
	return dst.Size == 0, nil
}
