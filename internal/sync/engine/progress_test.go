package engine

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestConsoleProgressUpdate(t *testing.T) {
	var buf bytes.Buffer
	p := NewConsoleProgress(&buf)

	p.Update(1, 4, "src/a.txt", false)
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, "\r"), "progress redraws in place")
	assert.Contains(t, out, "[1/4]")
	assert.Contains(t, out, "25.0%")
	assert.Contains(t, out, "src/a.txt")
	assert.NotContains(t, out, "(skipped)")
}

func TestConsoleProgressSkipSuffix(t *testing.T) {
	var buf bytes.Buffer
	p := NewConsoleProgress(&buf)

	p.Update(2, 2, "same.txt", true)
	assert.Contains(t, buf.String(), "(skipped)")
}

func TestConsoleProgressPadsShorterLines(t *testing.T) {
	var buf bytes.Buffer
	p := NewConsoleProgress(&buf)

	long := strings.Repeat("x", 40)
	p.Update(1, 10, long, false)
	buf.Reset()

	p.Update(2, 10, "s", false)
	redraw := buf.String()

	// The redraw must blank out the tail of the longer previous line.
	assert.True(t, strings.HasSuffix(redraw, " "), "expected trailing padding, got %q", redraw)
}

func TestConsoleProgressComplete(t *testing.T) {
	var buf bytes.Buffer
	p := NewConsoleProgress(&buf)

	// Complete with nothing drawn stays silent.
	p.Complete()
	assert.Zero(t, buf.Len())

	p.Update(1, 1, "a.txt", false)
	buf.Reset()
	p.Complete()
	assert.Equal(t, "\n", buf.String())
}

func TestConsoleProgressError(t *testing.T) {
	var buf bytes.Buffer
	p := NewConsoleProgress(&buf)

	p.Update(1, 2, "a.txt", false)
	p.Error("b.txt", errors.New("share went away"))

	out := buf.String()
	assert.Contains(t, out, "error: b.txt: share went away\n")
}

func TestTruncatePath(t *testing.T) {
	assert.Equal(t, "short.txt", truncatePath("short.txt", 48))

	long := strings.Repeat("d/", 40) + "file.txt"
	got := truncatePath(long, 20)
	assert.Len(t, got, 20)
	assert.True(t, strings.HasPrefix(got, "..."))
	assert.True(t, strings.HasSuffix(got, "file.txt"))
}

func TestFormatETA(t *testing.T) {
	assert.Equal(t, "00:45", formatETA(45*time.Second))
	assert.Equal(t, "02:05", formatETA(2*time.Minute+5*time.Second))
	assert.Equal(t, "1:00:01", formatETA(time.Hour+time.Second))
}
