package engine

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

// ConsoleProgress renders per-file progress on a single console line.
// It implements synctypes.ProgressTracker.
type ConsoleProgress struct {
	mu        sync.Mutex
	out       io.Writer
	startTime time.Time
	lastLen   int
}

// NewConsoleProgress creates a progress renderer writing to out.
func NewConsoleProgress(out io.Writer) *ConsoleProgress {
	return &ConsoleProgress{out: out}
}

// Update rewrites the progress line after each finished operation.
func (p *ConsoleProgress) Update(completed, total int64, path string, skipped bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.startTime.IsZero() {
		p.startTime = time.Now()
	}

	pct := 0.0
	if total > 0 {
		pct = float64(completed) / float64(total) * 100
	}

	elapsed := time.Since(p.startTime)
	rate := 0.0
	if elapsed > 0 {
		rate = float64(completed) / elapsed.Seconds()
	}

	eta := "--:--"
	if rate > 0 && completed < total {
		remaining := time.Duration(float64(total-completed)/rate) * time.Second
		eta = formatETA(remaining)
	}

	suffix := ""
	if skipped {
		suffix = " (skipped)"
	}

	line := fmt.Sprintf("[%d/%d] %5.1f%% | %6.1f files/s | ETA %s | %s%s",
		completed, total, pct, rate, eta, truncatePath(path, 48), suffix)

	p.writeLine(line)
}

// Complete finishes the progress line so following output starts fresh.
func (p *ConsoleProgress) Complete() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.lastLen > 0 {
		fmt.Fprintln(p.out)
		p.lastLen = 0
	}
}

// Error reports a permanent per-file failure on its own line.
func (p *ConsoleProgress) Error(path string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.lastLen > 0 {
		fmt.Fprintln(p.out)
		p.lastLen = 0
	}
	fmt.Fprintf(p.out, "error: %s: %v\n", path, err)
}

// writeLine redraws the line in place, padding over the previous draw.
func (p *ConsoleProgress) writeLine(line string) {
	padding := ""
	if diff := p.lastLen - len(line); diff > 0 {
		padding = strings.Repeat(" ", diff)
	}
	fmt.Fprintf(p.out, "\r%s%s", line, padding)
	p.lastLen = len(line)
}

// truncatePath shortens long paths from the left, keeping the filename end.
func truncatePath(path string, max int) string {
	if len(path) <= max {
		return path
	}
	return "..." + path[len(path)-(max-3):]
}

// formatETA renders a duration as mm:ss, or h:mm:ss past the hour.
func formatETA(d time.Duration) string {
	d = d.Round(time.Second)
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}
