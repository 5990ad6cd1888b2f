// Package testutil provides shared test helpers and fakes.
package testutil

import (
	"context"
	"sync"

	"github.com/wangguanran/Tools/internal/executor"
)

// Call records one Run invocation made against a RecordingRunner.
type Call struct {
	Program string
	Args    []string
}

// RecordingRunner implements executor.Runner and records every invocation
// instead of spawning processes. Tests inspect Calls to verify dispatch.
type RecordingRunner struct {
	mu    sync.Mutex
	Calls []Call

	// RunFunc, when set, is invoked for each call and its outcome returned.
	RunFunc func(ctx context.Context, program string, args []string) (*executor.Result, error)

	// Result and Err are returned when RunFunc is nil.
	Result *executor.Result
	Err    error
}

// Run records the invocation and returns the configured outcome.
func (r *RecordingRunner) Run(ctx context.Context, program string, args []string, opts ...executor.Option) (*executor.Result, error) {
	r.mu.Lock()
	r.Calls = append(r.Calls, Call{Program: program, Args: append([]string(nil), args...)})
	r.mu.Unlock()

	if r.RunFunc != nil {
		return r.RunFunc(ctx, program, args)
	}
	if r.Result != nil || r.Err != nil {
		return r.Result, r.Err
	}
	return &executor.Result{ExitCode: 0}, nil
}

// CallCount returns the number of recorded invocations.
func (r *RecordingRunner) CallCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.Calls)
}

// Reset clears all recorded invocations.
func (r *RecordingRunner) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Calls = nil
}
