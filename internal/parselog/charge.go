package parselog

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

var (
	// chargePattern selects lines from the charging subsystems worth keeping.
	chargePattern = regexp.MustCompile(`(?i)(cx2560x)|(sprdbat)|(sprdchg)|(battery)`)

	// timestampPattern captures the Android kernel log time prefix,
	// e.g. "08-26 13:45:12.345". The year is not logged.
	timestampPattern = regexp.MustCompile(`(\d{2}-\d{2}\s+\d{2}:\d{2}:\d{2}\.\d{3})`)
)

// chargeLine is one kept log line with its position on the merged timeline.
type chargeLine struct {
	ts   time.Time
	text string
}

// collectChargeLines gathers charging-related lines from every kernel log
// under root and returns them in timestamp order. Lines without a parseable
// timestamp are dropped; they cannot be placed on the merged timeline.
func (p *Processor) collectChargeLines(ctx context.Context, root string) ([]chargeLine, error) {
	var out []chargeLine
	files := 0

	err := p.filesystem.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			return nil
		}
		if path != root && !isKernelLog(path) {
			return nil
		}

		lines, readErr := p.readChargeLines(path)
		if readErr != nil {
			p.log.WithError(readErr).WithField("file", path).Warn("skipping unreadable log")
			return nil
		}
		files++
		out = append(out, lines...)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", root, err)
	}

	// Stable keeps a file's original ordering for lines sharing a stamp.
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ts.Before(out[j].ts)
	})

	p.log.WithFields(logrus.Fields{
		"files": files,
		"lines": len(out),
	}).Debug("charge lines collected")

	return out, nil
}

// isKernelLog reports whether path is a .log file living under a directory
// whose path mentions kernel, the layout of Android log bundles.
func isKernelLog(p string) bool {
	if !strings.HasSuffix(strings.ToLower(p), ".log") {
		return false
	}
	return strings.Contains(strings.ToLower(filepath.Dir(p)), "kernel")
}

// readChargeLines filters one log file down to its timestamped charging lines.
func (p *Processor) readChargeLines(path string) ([]chargeLine, error) {
	f, err := p.filesystem.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []chargeLine
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for sc.Scan() {
		line := sc.Text()
		if !chargePattern.MatchString(line) {
			continue
		}
		ts, ok := p.parseTimestamp(line)
		if !ok {
			continue
		}
		out = append(out, chargeLine{ts: ts, text: line})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return out, nil
}

// parseTimestamp extracts the kernel log time prefix, anchored to the
// processor's configured year.
func (p *Processor) parseTimestamp(line string) (time.Time, bool) {
	m := timestampPattern.FindStringSubmatch(line)
	if m == nil {
		return time.Time{}, false
	}

	// Collapse the whitespace run between date and time before parsing.
	stamp := strings.Join(strings.Fields(m[1]), " ")
	ts, err := time.Parse("2006 01-02 15:04:05.000", fmt.Sprintf("%d %s", p.year, stamp))
	if err != nil {
		return time.Time{}, false
	}
	return ts, true
}
