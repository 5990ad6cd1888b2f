// Package scanner discovers the files on either side of a sync pair.
// Both the source share and the destination tree are walked through the
// same filesystem abstraction, so the engine never special-cases sides.
package scanner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/wangguanran/Tools/internal/fsys"
	"github.com/wangguanran/Tools/internal/sync/synctypes"
)

// Scanner walks a directory tree and returns the files eligible for syncing.
type Scanner struct {
	filesystem     *fsys.FS
	patternMatcher *PatternMatcher
	ignoreDirs     []string
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithIgnoreDirs overrides the directory names skipped during scanning.
// Any path containing one of these names as a component is excluded.
func WithIgnoreDirs(dirs ...string) Option {
	return func(s *Scanner) {
		s.ignoreDirs = dirs
	}
}

// New creates a scanner over the given filesystem. By default any path
// containing a "build" component is ignored; build output trees are large
// and regenerated locally, copying them over SMB is wasted work.
func New(filesystem *fsys.FS, opts ...Option) *Scanner {
	s := &Scanner{
		filesystem:     filesystem,
		patternMatcher: NewPatternMatcher(),
		ignoreDirs:     []string{"build"},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Scan walks the tree rooted at root and returns a FileInfo for every
// eligible file. Paths in the result are slash-separated and relative to
// root. Include and exclude patterns are applied to the relative path,
// with excludes taking precedence.
func (s *Scanner) Scan(
	ctx context.Context,
	root string,
	includePatterns []string,
	excludePatterns []string,
) ([]*synctypes.FileInfo, error) {
	var files []*synctypes.FileInfo

	err := s.filesystem.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if info.IsDir() {
			if path != root && s.patternMatcher.HasComponent(s.relPath(root, path), s.ignoreDirs) {
				return filepath.SkipDir
			}
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		relPath := s.relPath(root, path)
		if relPath == "" {
			return fmt.Errorf("failed to get relative path for %s", path)
		}

		if s.patternMatcher.HasComponent(relPath, s.ignoreDirs) {
			return nil
		}
		if !s.patternMatcher.ShouldIncludeFile(relPath, includePatterns, excludePatterns) {
			return nil
		}

		files = append(files, &synctypes.FileInfo{
			Path:    relPath,
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk directory %s: %w", root, err)
	}

	return files, nil
}

// ScanToMap scans the tree and indexes the result by relative path.
// The planner consumes this form when diffing the two sides.
func (s *Scanner) ScanToMap(
	ctx context.Context,
	root string,
	includePatterns []string,
	excludePatterns []string,
) (map[string]*synctypes.FileInfo, error) {
	files, err := s.Scan(ctx, root, includePatterns, excludePatterns)
	if err != nil {
		return nil, err
	}

	index := make(map[string]*synctypes.FileInfo, len(files))
	for _, f := range files {
		index[f.Path] = f
	}
	return index, nil
}

// GetFileInfo stats a single file and returns its FileInfo. The returned
// Path is the path as given, not relative to any root.
func (s *Scanner) GetFileInfo(path string) (*synctypes.FileInfo, error) {
	info, err := s.filesystem.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file %s: %w", path, err)
	}

	return &synctypes.FileInfo{
		Path:    filepath.ToSlash(path),
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}, nil
}

// relPath returns the slash-separated path of target relative to root,
// or "" when target is not under root.
func (s *Scanner) relPath(root, target string) string {
	rel, err := filepath.Rel(root, target)
	if err != nil {
		return ""
	}
	return filepath.ToSlash(rel)
}
