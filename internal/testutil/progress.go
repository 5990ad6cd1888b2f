package testutil

import "sync"

// ProgressUpdate records one Update call made against a MockProgressTracker.
type ProgressUpdate struct {
	Completed int64
	Total     int64
	Path      string
	Skipped   bool
}

// MockProgressTracker is a test double that records progress callbacks.
type MockProgressTracker struct {
	mu sync.Mutex

	UpdateCalled   bool
	CompleteCalled bool
	ErrorCalled    bool

	Updates   []ProgressUpdate
	LastError error
	ErrorPath string
}

// Update records the progress callback.
func (m *MockProgressTracker) Update(completed, total int64, path string, skipped bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UpdateCalled = true
	m.Updates = append(m.Updates, ProgressUpdate{
		Completed: completed,
		Total:     total,
		Path:      path,
		Skipped:   skipped,
	})
}

// Complete records that the pass finished.
func (m *MockProgressTracker) Complete() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CompleteCalled = true
}

// Error records a permanent per-file failure.
func (m *MockProgressTracker) Error(path string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ErrorCalled = true
	m.ErrorPath = path
	m.LastError = err
}

// UpdateCount returns the number of recorded Update calls.
func (m *MockProgressTracker) UpdateCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Updates)
}

// Reset clears all recorded state.
func (m *MockProgressTracker) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UpdateCalled = false
	m.CompleteCalled = false
	m.ErrorCalled = false
	m.Updates = nil
	m.LastError = nil
	m.ErrorPath = ""
}
