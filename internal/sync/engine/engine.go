// Package engine provides the main sync orchestration logic.
// This includes coordinating the scan, plan, and execute phases and
// managing watch sessions over the source tree.
//
// This package acts as the main entry point for all sync-related operations.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/wangguanran/Tools/internal/fsys"
	"github.com/wangguanran/Tools/internal/logging"
	"github.com/wangguanran/Tools/internal/sync/comparator"
	"github.com/wangguanran/Tools/internal/sync/executor"
	"github.com/wangguanran/Tools/internal/sync/planner"
	"github.com/wangguanran/Tools/internal/sync/scanner"
	"github.com/wangguanran/Tools/internal/sync/synctypes"
)

// Config holds configuration for sync passes.
type Config struct {
	// Source is the directory tree to copy from
	Source string

	// Destination is the directory tree to copy to
	Destination string

	// IncludePatterns are glob patterns for files to include
	IncludePatterns []string

	// ExcludePatterns are glob patterns for files to exclude
	ExcludePatterns []string

	// IgnoreDirs are directory names skipped entirely during scanning.
	// Nil means the scanner default (build trees are ignored).
	IgnoreDirs []string

	// DeleteExtra determines if destination files missing at the source
	// should be deleted
	DeleteExtra bool

	// DryRun determines if changes should be planned but not applied
	DryRun bool

	// SkipIfExists leaves any existing destination file untouched
	SkipIfExists bool

	// Checksum enables content comparison instead of time and size
	Checksum bool

	// SizeOnly compares by size alone, ignoring timestamps
	SizeOnly bool

	// Concurrency controls the number of concurrent copy workers
	Concurrency int

	// OpTimeout bounds each file operation attempt
	OpTimeout time.Duration

	// MaxAttempts is the total number of tries per file, including the first
	MaxAttempts int

	// RetryDelay is the pause between attempts
	RetryDelay time.Duration

	// ProgressTracker receives per-file progress callbacks
	ProgressTracker synctypes.ProgressTracker

	// Logger overrides the shared logger
	Logger *logrus.Logger
}

// Engine coordinates the three phases of a sync pass:
// 1. Inventory building: scan the source and destination trees
// 2. Change detection: compare both sides and plan operations
// 3. Execution: apply the plan with concurrency control
type Engine struct {
	srcFS  *fsys.FS
	dstFS  *fsys.FS
	config *Config
	log    *logrus.Logger
}

// New creates a sync engine over the given filesystems.
func New(srcFS, dstFS *fsys.FS, config *Config) (*Engine, error) {
	if config == nil {
		return nil, fmt.Errorf("config is required")
	}
	if config.Source == "" {
		return nil, fmt.Errorf("source path is required")
	}
	if config.Destination == "" {
		return nil, fmt.Errorf("destination path is required")
	}
	if config.SkipIfExists && config.Checksum {
		return nil, fmt.Errorf("skip-if-exists and checksum comparison are mutually exclusive")
	}
	if config.Checksum && config.SizeOnly {
		return nil, fmt.Errorf("checksum and size-only comparison are mutually exclusive")
	}
	if config.SkipIfExists && config.SizeOnly {
		return nil, fmt.Errorf("skip-if-exists and size-only comparison are mutually exclusive")
	}

	log := config.Logger
	if log == nil {
		log = logging.L()
	}

	return &Engine{
		srcFS:  srcFS,
		dstFS:  dstFS,
		config: config,
		log:    log,
	}, nil
}

// Plan scans both trees and returns the operations one pass would perform.
// Nothing is written; this backs dry-run output and the watch-mode differ.
func (e *Engine) Plan(ctx context.Context) ([]*planner.Operation, error) {
	srcFiles, dstFiles, err := e.buildInventory(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to build inventory: %w", err)
	}

	pl := planner.New(e.buildComparator())
	operations, err := pl.Plan(srcFiles, dstFiles, e.config.DeleteExtra)
	if err != nil {
		return nil, fmt.Errorf("failed to plan operations: %w", err)
	}
	if err := pl.ValidatePlan(operations); err != nil {
		return nil, fmt.Errorf("failed to validate plan: %w", err)
	}

	stats := pl.GetOperationStats(operations)
	e.log.WithFields(logrus.Fields{
		"source_files":      len(srcFiles),
		"destination_files": len(dstFiles),
		"copies":            stats.Copies,
		"deletes":           stats.Deletes,
		"skips":             stats.Skips,
		"bytes_to_copy":     stats.BytesToCopy,
	}).Debug("sync plan ready")

	return operations, nil
}

// Sync executes one complete pass over the pair of trees.
func (e *Engine) Sync(ctx context.Context) (*synctypes.Result, error) {
	startTime := time.Now()

	operations, err := e.Plan(ctx)
	if err != nil {
		return nil, err
	}

	exec := executor.New(e.srcFS, e.dstFS, e.config.Source, e.config.Destination, e.config.Concurrency).
		WithProgressTracker(e.config.ProgressTracker).
		WithTimeout(e.config.OpTimeout).
		WithRetry(e.config.MaxAttempts, e.config.RetryDelay).
		WithDryRun(e.config.DryRun)

	execResult, execErr := exec.ExecutePlan(ctx, operations)

	result := &synctypes.Result{
		FilesCopied:  execResult.FilesCopied(),
		FilesSkipped: execResult.FilesSkipped(),
		FilesDeleted: execResult.FilesDeleted(),
		BytesCopied:  execResult.BytesCopied(),
		Errors:       execResult.Errors(),
		Duration:     time.Since(startTime),
	}

	e.log.WithFields(logrus.Fields{
		"copied":  result.FilesCopied,
		"skipped": result.FilesSkipped,
		"deleted": result.FilesDeleted,
		"bytes":   result.BytesCopied,
		"errors":  len(result.Errors),
	}).Info("sync pass finished")

	if execErr != nil {
		return result, fmt.Errorf("sync pass completed with errors: %w", execErr)
	}
	return result, nil
}

// SyncPaths copies a specific set of relative paths from source to
// destination. Watch mode uses this to mirror individual change events
// without rescanning the whole tree.
func (e *Engine) SyncPaths(ctx context.Context, relPaths []string) (*synctypes.Result, error) {
	startTime := time.Now()

	sc := e.newScanner(e.srcFS)
	var operations []*planner.Operation

	for _, relPath := range relPaths {
		srcPath := e.srcFS.Join(e.config.Source, relPath)
		info, err := sc.GetFileInfo(srcPath)
		if err != nil {
			// Gone at the source: mirror the removal when deletion is on.
			if e.config.DeleteExtra {
				if exists, _ := e.dstFS.Exists(e.dstFS.Join(e.config.Destination, relPath)); exists {
					operations = append(operations, &planner.Operation{
						Type:   planner.OperationDelete,
						Path:   relPath,
						Reason: "removed at source",
					})
				}
			}
			continue
		}

		operations = append(operations, &planner.Operation{
			Type:   planner.OperationCopy,
			Path:   relPath,
			Size:   info.Size,
			Reason: "changed on source",
		})
	}

	if len(operations) == 0 {
		return &synctypes.Result{Duration: time.Since(startTime)}, nil
	}

	exec := executor.New(e.srcFS, e.dstFS, e.config.Source, e.config.Destination, e.config.Concurrency).
		WithTimeout(e.config.OpTimeout).
		WithRetry(e.config.MaxAttempts, e.config.RetryDelay).
		WithDryRun(e.config.DryRun)

	execResult, execErr := exec.ExecutePlan(ctx, operations)

	result := &synctypes.Result{
		FilesCopied:  execResult.FilesCopied(),
		FilesSkipped: execResult.FilesSkipped(),
		FilesDeleted: execResult.FilesDeleted(),
		BytesCopied:  execResult.BytesCopied(),
		Errors:       execResult.Errors(),
		Duration:     time.Since(startTime),
	}
	if execErr != nil {
		return result, fmt.Errorf("mirror pass completed with errors: %w", execErr)
	}
	return result, nil
}

// buildInventory performs phase 1 and scans both trees.
func (e *Engine) buildInventory(
	ctx context.Context,
) (map[string]*synctypes.FileInfo, map[string]*synctypes.FileInfo, error) {
	srcFiles, err := e.newScanner(e.srcFS).ScanToMap(
		ctx, e.config.Source, e.config.IncludePatterns, e.config.ExcludePatterns)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to scan source directory: %w", err)
	}

	exists, err := e.dstFS.Exists(e.config.Destination)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to check destination: %w", err)
	}
	if !exists {
		// First sync into a fresh destination. Everything is a copy.
		return srcFiles, map[string]*synctypes.FileInfo{}, nil
	}

	dstFiles, err := e.newScanner(e.dstFS).ScanToMap(
		ctx, e.config.Destination, e.config.IncludePatterns, e.config.ExcludePatterns)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to scan destination directory: %w", err)
	}

	return srcFiles, dstFiles, nil
}

// buildComparator picks the comparison strategy for this config.
func (e *Engine) buildComparator() comparator.Comparator {
	switch {
	case e.config.SkipIfExists:
		return comparator.NewSkipExistingComparator()
	case e.config.Checksum:
		// Sizes decide cheaply before any content crosses the network.
		return comparator.NewCompositeComparator(
			comparator.NewSizeOnlyComparator(),
			comparator.NewChecksumComparator(
				e.srcFS, e.dstFS, e.config.Source, e.config.Destination))
	case e.config.SizeOnly:
		return comparator.NewSizeOnlyComparator()
	default:
		return comparator.NewTimeSizeComparator()
	}
}

func (e *Engine) newScanner(filesystem *fsys.FS) *scanner.Scanner {
	if e.config.IgnoreDirs != nil {
		return scanner.New(filesystem, scanner.WithIgnoreDirs(e.config.IgnoreDirs...))
	}
	return scanner.New(filesystem)
}
