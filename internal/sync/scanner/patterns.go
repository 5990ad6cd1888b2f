package scanner

import (
	"fmt"
	"path/filepath"
	"strings"
)

// PatternMatcher handles pattern matching for file filtering.
type PatternMatcher struct{}

// NewPatternMatcher creates a new pattern matcher.
func NewPatternMatcher() *PatternMatcher {
	return &PatternMatcher{}
}

// ShouldIncludeFile determines if a file should be included based on patterns.
// Exclude patterns take precedence; when include patterns are given the file
// must match at least one of them.
func (pm *PatternMatcher) ShouldIncludeFile(
	relPath string,
	includePatterns []string,
	excludePatterns []string,
) bool {
	relPath = filepath.ToSlash(relPath)

	for _, pattern := range excludePatterns {
		if pm.matchesPattern(relPath, pattern) {
			return false
		}
	}

	if len(includePatterns) > 0 {
		included := false
		for _, pattern := range includePatterns {
			if pm.matchesPattern(relPath, pattern) {
				included = true
				break
			}
		}
		if !included {
			return false
		}
	}

	return true
}

// HasComponent reports whether any path component of relPath equals one of
// the given names. Matching is case-insensitive since the source side is
// typically a Windows share.
func (pm *PatternMatcher) HasComponent(relPath string, names []string) bool {
	if len(names) == 0 {
		return false
	}
	for _, part := range strings.Split(filepath.ToSlash(relPath), "/") {
		for _, name := range names {
			if strings.EqualFold(part, name) {
				return true
			}
		}
	}
	return false
}

// matchesPattern checks if a path matches a glob pattern.
// It supports basic glob patterns like *, **, and ?.
func (pm *PatternMatcher) matchesPattern(path, pattern string) bool {
	// Directory patterns (ending with /) match everything under that directory.
	if strings.HasSuffix(pattern, "/") {
		pattern = strings.TrimSuffix(pattern, "/")
		return strings.HasPrefix(path+"/", pattern+"/") || path == pattern
	}

	if strings.Contains(pattern, "**") {
		return pm.matchesGlobPattern(path, pattern)
	}

	match, err := filepath.Match(pattern, path)
	if err != nil {
		return false
	}
	return match
}

// matchesGlobPattern handles patterns with ** (recursive wildcard).
func (pm *PatternMatcher) matchesGlobPattern(path, pattern string) bool {
	parts := strings.Split(pattern, "**")

	if len(parts) == 1 {
		match, _ := filepath.Match(pattern, path)
		return match
	}

	if len(parts) == 2 {
		prefix := parts[0]
		suffix := parts[1]

		if !strings.HasPrefix(path, prefix) {
			return false
		}
		if suffix == "" {
			return true
		}
		return strings.HasSuffix(path, suffix)
	}

	// Multiple ** segments are not supported.
	return false
}

// ValidatePatterns validates that the given patterns are syntactically correct.
func (pm *PatternMatcher) ValidatePatterns(patterns []string) []error {
	var errs []error

	for i, pattern := range patterns {
		if strings.Count(pattern, "**") > 1 {
			errs = append(errs, &PatternError{
				Pattern: pattern,
				Index:   i,
				Err:     fmt.Errorf("multiple ** segments are not supported"),
			})
			continue
		}

		if _, err := filepath.Match(strings.ReplaceAll(pattern, "**", "*"), "probe"); err != nil {
			errs = append(errs, &PatternError{
				Pattern: pattern,
				Index:   i,
				Err:     err,
			})
		}
	}

	return errs
}

// PatternError represents an error with a pattern.
type PatternError struct {
	Pattern string
	Index   int
	Err     error
}

func (e *PatternError) Error() string {
	return fmt.Sprintf("invalid pattern at index %d '%s': %v", e.Index, e.Pattern, e.Err)
}
