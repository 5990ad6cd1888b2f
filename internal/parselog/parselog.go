// Package parselog turns Android log bundles into a chronological charging
// log and decodes CX2560X charger register dumps found along the way.
//
// The workflow mirrors what is otherwise done by hand after pulling a log
// bundle off a device: unpack the archives inside, grep the kernel logs for
// charging traffic, line everything up by timestamp, and expand any charger
// register dumps into their datasheet meaning.
package parselog

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	errs "github.com/wangguanran/Tools/internal/errors"
	"github.com/wangguanran/Tools/internal/fsys"
	"github.com/wangguanran/Tools/internal/logging"
	"github.com/wangguanran/Tools/internal/parselog/cx2560x"
)

const (
	// ChargeLogName is the merged charging log written to the output dir.
	ChargeLogName = "charge.log"

	// ReportName is the decoded register report written to the output dir.
	ReportName = "charger_registers.txt"

	// defaultYear anchors log timestamps, which carry no year of their own.
	defaultYear = 2024
)

// Processor drives the log parsing workflows over a filesystem.
type Processor struct {
	filesystem *fsys.FS
	outputDir  string
	year       int
	console    io.Writer
	color      bool
	log        *logrus.Logger
}

// Option configures a Processor.
type Option func(*Processor)

// WithYear sets the year assumed for log timestamps.
func WithYear(year int) Option {
	return func(p *Processor) {
		if year > 0 {
			p.year = year
		}
	}
}

// WithConsole directs human-readable output to w.
func WithConsole(w io.Writer) Option {
	return func(p *Processor) {
		p.console = w
	}
}

// WithColor toggles ANSI colors on console output.
func WithColor(enabled bool) Option {
	return func(p *Processor) {
		p.color = enabled
	}
}

// WithLogger overrides the shared logger.
func WithLogger(log *logrus.Logger) Option {
	return func(p *Processor) {
		if log != nil {
			p.log = log
		}
	}
}

// New creates a Processor writing generated files under outputDir.
func New(filesystem *fsys.FS, outputDir string, opts ...Option) *Processor {
	p := &Processor{
		filesystem: filesystem,
		outputDir:  outputDir,
		year:       defaultYear,
		console:    os.Stdout,
		log:        logging.L(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// BuildChargeLog extracts any archives under input, merges charging-related
// lines from the kernel logs inside, and writes them in timestamp order to
// ChargeLogName. It returns the output path and the number of lines kept.
// Input may be a directory or a single archive.
func (p *Processor) BuildChargeLog(ctx context.Context, input string) (string, int, error) {
	info, err := p.filesystem.Stat(input)
	if err != nil {
		return "", 0, fmt.Errorf("failed to stat input %s: %w", input, err)
	}

	scanRoot := input
	if info.IsDir() {
		if err := p.ExtractArchives(ctx, input); err != nil {
			return "", 0, err
		}
	} else {
		if !hasArchiveExt(input) {
			return "", 0, errs.Newf(errs.CodeInvalidInput,
				"input %s is neither a directory nor a .zip/.gz archive", input)
		}
		if err := p.extractArchive(input); err != nil {
			return "", 0, err
		}
		scanRoot = trimArchiveExt(input)
	}

	entries, err := p.collectChargeLines(ctx, scanRoot)
	if err != nil {
		return "", 0, err
	}

	var buf bytes.Buffer
	for _, entry := range entries {
		buf.WriteString(entry.text)
		buf.WriteByte('\n')
	}

	if err := p.filesystem.MkdirAll(p.outputDir, 0o755); err != nil {
		return "", 0, fmt.Errorf("failed to create output directory: %w", err)
	}
	outPath := p.filesystem.Join(p.outputDir, ChargeLogName)
	if err := p.filesystem.WriteFile(outPath, buf.Bytes(), 0o644); err != nil {
		return "", 0, fmt.Errorf("failed to write %s: %w", outPath, err)
	}

	p.log.WithFields(logrus.Fields{
		"lines":  len(entries),
		"output": outPath,
	}).Info("charge log written")

	return outPath, len(entries), nil
}

// DumpReport summarizes a charger register scan over one log file.
type DumpReport struct {
	// Detected reports whether the log shows the CX2560X driver at all
	Detected bool

	// Registers is the number of register values decoded
	Registers int

	// ReportPath is the plain-text report location, empty when not detected
	ReportPath string
}

// DecodeChargerDump scans a log file for register dumps and renders every
// one, colored on the console and plain into the report file. Nothing is
// decoded unless the log shows the CX2560X driver.
func (p *Processor) DecodeChargerDump(logPath string) (*DumpReport, error) {
	data, err := p.filesystem.ReadFile(logPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", logPath, err)
	}

	if !cx2560x.Detect(bytes.NewReader(data)) {
		p.log.WithField("file", logPath).Info("no CX2560X driver found in log")
		return &DumpReport{}, nil
	}

	var report bytes.Buffer
	fmt.Fprintf(&report, "CX2560X register report\nGenerated: %s\nSource: %s\n",
		time.Now().Format("2006-01-02 15:04:05"), logPath)

	count := 0
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for sc.Scan() {
		line := sc.Text()
		matches := cx2560x.ParseDump(line)
		if len(matches) == 0 {
			continue
		}

		trimmed := strings.TrimSpace(line)
		fmt.Fprintf(p.console, "\n%s\n", trimmed)
		fmt.Fprintf(&report, "\n%s\n", trimmed)

		for _, m := range matches {
			dec, decErr := cx2560x.Decode(m.Register, m.Value)
			if decErr != nil {
				p.log.WithField("register", fmt.Sprintf("0x%02X", m.Register)).
					Debug("skipping undocumented register")
				continue
			}
			if err := dec.Render(p.console, p.color); err != nil {
				return nil, fmt.Errorf("failed to render register 0x%02X: %w", m.Register, err)
			}
			if err := dec.Render(&report, false); err != nil {
				return nil, fmt.Errorf("failed to render register 0x%02X: %w", m.Register, err)
			}
			count++
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", logPath, err)
	}

	if err := p.filesystem.MkdirAll(p.outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	reportPath := p.filesystem.Join(p.outputDir, ReportName)
	if err := p.filesystem.WriteFile(reportPath, report.Bytes(), 0o644); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", reportPath, err)
	}

	p.log.WithFields(logrus.Fields{
		"registers": count,
		"report":    reportPath,
	}).Info("charger registers decoded")

	return &DumpReport{Detected: true, Registers: count, ReportPath: reportPath}, nil
}

// DecodeInteractive reads register dump lines from in until EOF or a lone
// "q", decoding every match. Output goes to the console colored and to the
// report file plain, like the file scan.
func (p *Processor) DecodeInteractive(in io.Reader) (*DumpReport, error) {
	var report bytes.Buffer
	fmt.Fprintf(&report, "CX2560X register report\nGenerated: %s\n",
		time.Now().Format("2006-01-02 15:04:05"))

	fmt.Fprintln(p.console, "Paste register dumps like REG_0x00=0x04 REG_0x01=0x1a. q quits.")

	count := 0
	sc := bufio.NewScanner(in)
	for {
		fmt.Fprint(p.console, "\n> ")
		if !sc.Scan() {
			break
		}
		line := strings.TrimSpace(sc.Text())
		if strings.EqualFold(line, "q") {
			break
		}

		matches := cx2560x.ParseDump(line)
		if len(matches) == 0 {
			fmt.Fprintln(p.console, "no register values found")
			continue
		}

		fmt.Fprintf(&report, "\n%s\n", line)
		for _, m := range matches {
			dec, decErr := cx2560x.Decode(m.Register, m.Value)
			if decErr != nil {
				fmt.Fprintf(p.console, "register 0x%02X is not documented\n", m.Register)
				continue
			}
			if err := dec.Render(p.console, p.color); err != nil {
				return nil, fmt.Errorf("failed to render register 0x%02X: %w", m.Register, err)
			}
			if err := dec.Render(&report, false); err != nil {
				return nil, fmt.Errorf("failed to render register 0x%02X: %w", m.Register, err)
			}
			count++
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}

	if err := p.filesystem.MkdirAll(p.outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	reportPath := p.filesystem.Join(p.outputDir, ReportName)
	if err := p.filesystem.WriteFile(reportPath, report.Bytes(), 0o644); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", reportPath, err)
	}

	return &DumpReport{Detected: count > 0, Registers: count, ReportPath: reportPath}, nil
}

// DecodeRegister decodes a single register value given as hex strings, e.g.
// ("06", "a2"), and renders it to the console.
func (p *Processor) DecodeRegister(reg, value string) error {
	r, err := parseHexByte(reg)
	if err != nil {
		return errs.Newf(errs.CodeInvalidInput, "bad register %q: want a hex byte like 06", reg)
	}
	v, err := parseHexByte(value)
	if err != nil {
		return errs.Newf(errs.CodeInvalidInput, "bad value %q: want a hex byte like a2", value)
	}

	dec, err := cx2560x.Decode(r, v)
	if err != nil {
		return err
	}
	return dec.Render(p.console, p.color)
}

func parseHexByte(s string) (uint8, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	n, err := strconv.ParseUint(s, 16, 8)
	if err != nil {
		return 0, err
	}
	return uint8(n), nil
}
