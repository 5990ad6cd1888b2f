package comparator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wangguanran/Tools/internal/fsys"
	"github.com/wangguanran/Tools/internal/sync/synctypes"
	"github.com/wangguanran/Tools/internal/testutil"
)

// fileAt builds a FileInfo with the given size and an offset from a fixed
// base time, keeping the comparisons below easy to read.
func fileAt(size int64, offset time.Duration) *synctypes.FileInfo {
	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	return &synctypes.FileInfo{
		Path:    "file.txt",
		Size:    size,
		ModTime: base.Add(offset),
	}
}

func TestTimeSizeComparator(t *testing.T) {
	c := NewTimeSizeComparator()

	t.Run("size difference is a change", func(t *testing.T) {
		changed, err := c.HasChanged(fileAt(10, 0), fileAt(20, 0))
		require.NoError(t, err)
		assert.True(t, changed)
	})

	t.Run("identical files are unchanged", func(t *testing.T) {
		changed, err := c.HasChanged(fileAt(10, 0), fileAt(10, 0))
		require.NoError(t, err)
		assert.False(t, changed)
	})

	t.Run("newer source is a change", func(t *testing.T) {
		changed, err := c.HasChanged(fileAt(10, 5*time.Second), fileAt(10, 0))
		require.NoError(t, err)
		assert.True(t, changed)
	})

	t.Run("newer source within tolerance is unchanged", func(t *testing.T) {
		changed, err := c.HasChanged(fileAt(10, 2*time.Second), fileAt(10, 0))
		require.NoError(t, err)
		assert.False(t, changed)
	})

	t.Run("newer destination is never overwritten", func(t *testing.T) {
		changed, err := c.HasChanged(fileAt(10, 0), fileAt(10, time.Hour))
		require.NoError(t, err)
		assert.False(t, changed)
	})

	t.Run("custom tolerance", func(t *testing.T) {
		wide := &TimeSizeComparator{MaxTimeDiff: time.Minute}
		changed, err := wide.HasChanged(fileAt(10, 30*time.Second), fileAt(10, 0))
		require.NoError(t, err)
		assert.False(t, changed)
	})
}

func TestSizeOnlyComparator(t *testing.T) {
	c := NewSizeOnlyComparator()

	changed, err := c.HasChanged(fileAt(10, time.Hour), fileAt(10, 0))
	require.NoError(t, err)
	assert.False(t, changed, "timestamps must not matter")

	changed, err = c.HasChanged(fileAt(10, 0), fileAt(11, 0))
	require.NoError(t, err)
	assert.True(t, changed)
}

func TestChecksumComparator(t *testing.T) {
	newPair := func(t *testing.T, srcContent, dstContent string) *ChecksumComparator {
		t.Helper()
		fs := fsys.NewInMemoryFS()
		testutil.WriteTree(t, fs, "src", map[string]string{"file.txt": srcContent})
		testutil.WriteTree(t, fs, "dst", map[string]string{"file.txt": dstContent})
		return NewChecksumComparator(fs, fs, "src", "dst")
	}

	t.Run("equal content is unchanged", func(t *testing.T) {
		c := newPair(t, "same bytes", "same bytes")
		changed, err := c.HasChanged(fileAt(10, 0), fileAt(10, 0))
		require.NoError(t, err)
		assert.False(t, changed)
	})

	t.Run("same size different content is a change", func(t *testing.T) {
		c := newPair(t, "aaaa", "bbbb")
		changed, err := c.HasChanged(fileAt(4, 0), fileAt(4, 0))
		require.NoError(t, err)
		assert.True(t, changed)
	})

	t.Run("size difference skips the reads", func(t *testing.T) {
		fs := fsys.NewInMemoryFS()
		// No files exist; a read attempt would fail loudly.
		c := NewChecksumComparator(fs, fs, "src", "dst")
		changed, err := c.HasChanged(fileAt(1, 0), fileAt(2, 0))
		require.NoError(t, err)
		assert.True(t, changed)
	})

	t.Run("unreadable file reports an error", func(t *testing.T) {
		fs := fsys.NewInMemoryFS()
		c := NewChecksumComparator(fs, fs, "src", "dst")
		_, err := c.HasChanged(fileAt(4, 0), fileAt(4, 0))
		assert.Error(t, err)
	})
}

func TestCompositeComparator(t *testing.T) {
	t.Run("any change wins", func(t *testing.T) {
		c := NewCompositeComparator(NewSkipExistingComparator(), NewSizeOnlyComparator())
		changed, err := c.HasChanged(fileAt(1, 0), fileAt(2, 0))
		require.NoError(t, err)
		assert.True(t, changed)
	})

	t.Run("all quiet means unchanged", func(t *testing.T) {
		c := NewCompositeComparator(NewSizeOnlyComparator(), NewTimeSizeComparator())
		changed, err := c.HasChanged(fileAt(10, 0), fileAt(10, 0))
		require.NoError(t, err)
		assert.False(t, changed)
	})

	t.Run("empty composite is an error", func(t *testing.T) {
		_, err := NewCompositeComparator().HasChanged(fileAt(1, 0), fileAt(1, 0))
		assert.Error(t, err)
	})
}

func TestSkipExistingComparator(t *testing.T) {
	c := NewSkipExistingComparator()

	t.Run("existing content is never rewritten", func(t *testing.T) {
		changed, err := c.HasChanged(fileAt(999, time.Hour), fileAt(1, 0))
		require.NoError(t, err)
		assert.False(t, changed)
	})

	t.Run("empty destination counts as missing", func(t *testing.T) {
		changed, err := c.HasChanged(fileAt(7, 0), fileAt(0, 0))
		require.NoError(t, err)
		assert.True(t, changed)
	})
}
