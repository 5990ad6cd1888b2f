// Package executor handles the parallel execution of sync operations.
// This includes managing concurrency limits and coordinating copies,
// deletions, and skip accounting across worker goroutines.
package executor

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/wangguanran/Tools/internal/fsys"
	"github.com/wangguanran/Tools/internal/sync/planner"
	"github.com/wangguanran/Tools/internal/sync/synctypes"
)

// Executor runs a planned set of operations against the destination tree.
type Executor struct {
	srcFS   *fsys.FS
	dstFS   *fsys.FS
	srcRoot string
	dstRoot string

	// Concurrency control
	maxConcurrency int
	semaphore      chan struct{}

	// Per-operation limits. maxAttempts is the total number of tries for
	// one file, including the first.
	opTimeout   time.Duration
	maxAttempts int
	retryDelay  time.Duration

	// Progress tracking
	progressTracker synctypes.ProgressTracker

	dryRun bool
}

// New creates a new executor copying from srcRoot on srcFS to dstRoot on
// dstFS with the specified concurrency limit.
func New(srcFS, dstFS *fsys.FS, srcRoot, dstRoot string, maxConcurrency int) *Executor {
	if maxConcurrency <= 0 {
		maxConcurrency = 4
	}

	return &Executor{
		srcFS:          srcFS,
		dstFS:          dstFS,
		srcRoot:        srcRoot,
		dstRoot:        dstRoot,
		maxConcurrency: maxConcurrency,
		semaphore:      make(chan struct{}, maxConcurrency),
		opTimeout:      30 * time.Second,
		maxAttempts:    3,
		retryDelay:     5 * time.Second,
	}
}

// WithProgressTracker sets the progress tracker for the executor.
func (e *Executor) WithProgressTracker(tracker synctypes.ProgressTracker) *Executor {
	e.progressTracker = tracker
	return e
}

// WithTimeout sets the per-operation timeout. Zero disables the limit.
func (e *Executor) WithTimeout(timeout time.Duration) *Executor {
	e.opTimeout = timeout
	return e
}

// WithRetry sets the total attempts per operation and the delay between them.
func (e *Executor) WithRetry(attempts int, delay time.Duration) *Executor {
	if attempts > 0 {
		e.maxAttempts = attempts
	}
	e.retryDelay = delay
	return e
}

// WithDryRun makes the executor account for operations without touching
// the destination tree.
func (e *Executor) WithDryRun(dryRun bool) *Executor {
	e.dryRun = dryRun
	return e
}

// Result contains the outcome of an executed plan. Counters are updated
// atomically by worker goroutines; read them through the accessors.
type Result struct {
	filesCopied  int64
	filesSkipped int64
	filesDeleted int64
	bytesCopied  int64

	mu     sync.Mutex
	errors []synctypes.SyncError

	// Duration is how long the execution took
	Duration time.Duration
}

// FilesCopied returns the number of files copied (safe for concurrent access).
func (r *Result) FilesCopied() int {
	return int(atomic.LoadInt64(&r.filesCopied))
}

// FilesSkipped returns the number of files skipped (safe for concurrent access).
func (r *Result) FilesSkipped() int {
	return int(atomic.LoadInt64(&r.filesSkipped))
}

// FilesDeleted returns the number of files deleted (safe for concurrent access).
func (r *Result) FilesDeleted() int {
	return int(atomic.LoadInt64(&r.filesDeleted))
}

// BytesCopied returns the total bytes written (safe for concurrent access).
func (r *Result) BytesCopied() int64 {
	return atomic.LoadInt64(&r.bytesCopied)
}

// Errors returns the per-file failures recorded during execution.
func (r *Result) Errors() []synctypes.SyncError {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]synctypes.SyncError(nil), r.errors...)
}

func (r *Result) addError(path, code string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errors = append(r.errors, synctypes.SyncError{
		Path:    path,
		Code:    code,
		Message: err.Error(),
	})
}

// ExecutePlan runs the planned operations. Copies run concurrently up to the
// configured limit; failures are recorded and do not stop the remaining
// operations. The first error is returned alongside the populated result.
func (e *Executor) ExecutePlan(
	ctx context.Context,
	operations []*planner.Operation,
) (*Result, error) {
	startTime := time.Now()
	result := &Result{}

	total := int64(len(operations))
	var completed int64

	err := e.executeWithConcurrency(ctx, operations, func(ctx context.Context, op *planner.Operation) error {
		opErr := e.executeOperation(ctx, op, result)

		done := atomic.AddInt64(&completed, 1)
		if e.progressTracker != nil {
			e.progressTracker.Update(done, total, op.Path, op.Type == planner.OperationSkip)
		}
		return opErr
	})

	result.Duration = time.Since(startTime)

	if e.progressTracker != nil {
		e.progressTracker.Complete()
	}

	return result, err
}

// executeOperation dispatches one operation and updates the result counters.
func (e *Executor) executeOperation(
	ctx context.Context,
	op *planner.Operation,
	result *Result,
) error {
	switch op.Type {
	case planner.OperationSkip:
		atomic.AddInt64(&result.filesSkipped, 1)
		return nil

	case planner.OperationCopy:
		written, err := e.withRetry(ctx, func(ctx context.Context) (int64, error) {
			return e.copyFile(ctx, op.Path)
		})
		if err != nil {
			result.addError(op.Path, "COPY_FAILED", err)
			if e.progressTracker != nil {
				e.progressTracker.Error(op.Path, err)
			}
			return fmt.Errorf("failed to copy %s: %w", op.Path, err)
		}
		atomic.AddInt64(&result.filesCopied, 1)
		atomic.AddInt64(&result.bytesCopied, written)
		return nil

	case planner.OperationDelete:
		_, err := e.withRetry(ctx, func(ctx context.Context) (int64, error) {
			return 0, e.deleteFile(op.Path)
		})
		if err != nil {
			result.addError(op.Path, "DELETE_FAILED", err)
			if e.progressTracker != nil {
				e.progressTracker.Error(op.Path, err)
			}
			return fmt.Errorf("failed to delete %s: %w", op.Path, err)
		}
		atomic.AddInt64(&result.filesDeleted, 1)
		return nil

	default:
		return fmt.Errorf("unknown operation type %q for %s", op.Type, op.Path)
	}
}

// withRetry runs fn up to maxAttempts times with the per-operation timeout
// applied to each attempt. The retry delay is context-aware so cancellation
// is not held up by a sleeping worker.
func (e *Executor) withRetry(
	ctx context.Context,
	fn func(ctx context.Context) (int64, error),
) (int64, error) {
	var lastErr error

	for attempt := 1; attempt <= e.maxAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return 0, fmt.Errorf("cancelled while waiting to retry: %w", ctx.Err())
			case <-time.After(e.retryDelay):
			}
		}

		opCtx := ctx
		cancel := context.CancelFunc(nil)
		if e.opTimeout > 0 {
			opCtx, cancel = context.WithTimeout(ctx, e.opTimeout)
		}

		n, err := fn(opCtx)
		if cancel != nil {
			cancel()
		}
		if err == nil {
			return n, nil
		}
		lastErr = err

		// The parent context being done means the whole pass is being
		// torn down, not that this file is flaky.
		if ctx.Err() != nil {
			return 0, lastErr
		}
	}

	return 0, fmt.Errorf("giving up after %d attempts: %w", e.maxAttempts, lastErr)
}

// executeWithConcurrency executes operations with concurrency control.
func (e *Executor) executeWithConcurrency(
	ctx context.Context,
	operations []*planner.Operation,
	operationFunc func(context.Context, *planner.Operation) error,
) error {
	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstError error

	for _, op := range operations {
		select {
		case e.semaphore <- struct{}{}:
		case <-ctx.Done():
			wg.Wait()
			return fmt.Errorf("context cancelled during semaphore acquisition: %w", ctx.Err())
		}

		wg.Add(1)
		go func(op *planner.Operation) {
			defer func() {
				<-e.semaphore
				wg.Done()
			}()

			select {
			case <-ctx.Done():
				return
			default:
			}

			if err := operationFunc(ctx, op); err != nil {
				mu.Lock()
				if firstError == nil {
					firstError = err
				}
				mu.Unlock()
			}
		}(op)
	}

	wg.Wait()

	return firstError
}
