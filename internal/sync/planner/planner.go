// Package planner creates operation plans for sync passes.
// This includes determining which files need to be copied, deleted, or skipped.
//
// The planner diffs the two scanned trees and produces an ordered execution plan.
package planner

import (
	"fmt"
	"sort"

	"github.com/wangguanran/Tools/internal/sync/comparator"
	"github.com/wangguanran/Tools/internal/sync/synctypes"
)

// Planner creates operation plans for sync passes.
type Planner struct {
	comparator comparator.Comparator
}

// New creates a new planner with the given comparator.
func New(comp comparator.Comparator) *Planner {
	return &Planner{
		comparator: comp,
	}
}

// Operation represents a planned sync operation.
type Operation struct {
	// Type of operation (copy, delete, skip)
	Type OperationType

	// Path is the file path relative to both roots
	Path string

	// Size is the file size in bytes
	Size int64

	// Reason describes why this operation was planned
	Reason string

	// Priority for ordering operations (lower numbers run first)
	Priority int
}

// OperationType defines the type of sync operation.
type OperationType string

const (
	// OperationCopy indicates a file needs to be copied to the destination
	OperationCopy OperationType = "copy"

	// OperationDelete indicates a destination file needs to be deleted
	OperationDelete OperationType = "delete"

	// OperationSkip indicates a file is unchanged and should be skipped
	OperationSkip OperationType = "skip"
)

// Plan creates an execution plan by diffing the source tree against the
// destination tree. Both maps are keyed by slash-separated relative path.
// When deleteExtra is set, destination files with no source counterpart
// are planned for deletion.
func (p *Planner) Plan(
	srcFiles map[string]*synctypes.FileInfo,
	dstFiles map[string]*synctypes.FileInfo,
	deleteExtra bool,
) ([]*Operation, error) {
	var operations []*Operation

	copyOps, skipOps, err := p.planCopies(srcFiles, dstFiles)
	if err != nil {
		return nil, fmt.Errorf("failed to plan copies: %w", err)
	}
	operations = append(operations, copyOps...)

	if deleteExtra {
		operations = append(operations, p.planDeletes(srcFiles, dstFiles)...)
	}

	operations = append(operations, skipOps...)

	return p.optimizePlan(operations), nil
}

// planCopies determines which files need to be copied and which can be skipped.
func (p *Planner) planCopies(
	srcFiles map[string]*synctypes.FileInfo,
	dstFiles map[string]*synctypes.FileInfo,
) (copies, skips []*Operation, err error) {
	for relPath, src := range srcFiles {
		dst, exists := dstFiles[relPath]

		if !exists {
			copies = append(copies, &Operation{
				Type:     OperationCopy,
				Path:     relPath,
				Size:     src.Size,
				Reason:   "new file",
				Priority: p.calculateCopyPriority(src.Size),
			})
			continue
		}

		changed, cmpErr := p.comparator.HasChanged(src, dst)
		if cmpErr != nil {
			return nil, nil, fmt.Errorf("failed to compare files %s: %w", relPath, cmpErr)
		}

		if changed {
			copies = append(copies, &Operation{
				Type:     OperationCopy,
				Path:     relPath,
				Size:     src.Size,
				Reason:   "modified",
				Priority: p.calculateCopyPriority(src.Size),
			})
		} else {
			skips = append(skips, &Operation{
				Type:     OperationSkip,
				Path:     relPath,
				Size:     src.Size,
				Reason:   "unchanged",
				Priority: 100,
			})
		}
	}

	return copies, skips, nil
}

// planDeletes determines which destination files need to be deleted.
func (p *Planner) planDeletes(
	srcFiles map[string]*synctypes.FileInfo,
	dstFiles map[string]*synctypes.FileInfo,
) []*Operation {
	var operations []*Operation

	for relPath, dst := range dstFiles {
		if _, exists := srcFiles[relPath]; !exists {
			operations = append(operations, &Operation{
				Type:     OperationDelete,
				Path:     relPath,
				Size:     dst.Size,
				Reason:   "removed at source",
				Priority: 10,
			})
		}
	}

	return operations
}

// calculateCopyPriority assigns priority based on file size.
// Smaller files run first for faster feedback on slow links.
func (p *Planner) calculateCopyPriority(size int64) int {
	switch {
	case size < 1024*1024: // < 1MB
		return 1
	case size < 10*1024*1024: // < 10MB
		return 2
	case size < 100*1024*1024: // < 100MB
		return 3
	default:
		return 4
	}
}

// optimizePlan sorts operations for execution. The order is deterministic:
// priority, then operation type, then path. Map iteration order must never
// leak into the plan.
func (p *Planner) optimizePlan(operations []*Operation) []*Operation {
	typeOrder := map[OperationType]int{
		OperationCopy:   1,
		OperationDelete: 2,
		OperationSkip:   3,
	}

	sort.Slice(operations, func(i, j int) bool {
		if operations[i].Priority != operations[j].Priority {
			return operations[i].Priority < operations[j].Priority
		}
		if typeOrder[operations[i].Type] != typeOrder[operations[j].Type] {
			return typeOrder[operations[i].Type] < typeOrder[operations[j].Type]
		}
		return operations[i].Path < operations[j].Path
	})

	return operations
}

// GetOperationStats returns statistics about the planned operations.
func (p *Planner) GetOperationStats(operations []*Operation) OperationStats {
	stats := OperationStats{}

	for _, op := range operations {
		switch op.Type {
		case OperationCopy:
			stats.Copies++
			stats.BytesToCopy += op.Size
		case OperationDelete:
			stats.Deletes++
			stats.BytesToDelete += op.Size
		case OperationSkip:
			stats.Skips++
		}
	}

	return stats
}

// OperationStats contains statistics about planned operations.
type OperationStats struct {
	// Number of files to copy
	Copies int

	// Number of files to delete
	Deletes int

	// Number of files to skip
	Skips int

	// Total bytes to copy
	BytesToCopy int64

	// Total bytes that deletions would remove
	BytesToDelete int64
}

// ValidatePlan checks that a plan contains no conflicting operations.
func (p *Planner) ValidatePlan(operations []*Operation) error {
	pathOps := make(map[string][]OperationType)
	for _, op := range operations {
		pathOps[op.Path] = append(pathOps[op.Path], op.Type)
	}

	for path, types := range pathOps {
		hasCopy := false
		hasDelete := false
		for _, t := range types {
			switch t {
			case OperationCopy:
				hasCopy = true
			case OperationDelete:
				hasDelete = true
			}
		}
		if hasCopy && hasDelete {
			return fmt.Errorf("conflicting operations on path %s: both copy and delete planned", path)
		}
	}

	return nil
}
