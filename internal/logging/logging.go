// Package logging configures the shared logger: colored console output plus a
// plain-text copy appended to a log file, matching the sync tool's historical
// sync_log.txt format.
package logging

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

var logger *logrus.Logger

// ansiStripWriter removes ANSI color codes before writing to the file copy.
type ansiStripWriter struct {
	out io.Writer
}

func (w *ansiStripWriter) Write(p []byte) (n int, err error) {
	cleaned := stripANSICodes(p)
	if _, err := w.out.Write(cleaned); err != nil {
		return 0, err
	}
	return len(p), nil
}

// teeWriter writes to every writer and keeps going when one fails, so console
// logging survives a log file on a share that went away.
type teeWriter struct {
	writers []io.Writer
}

func (w *teeWriter) Write(p []byte) (n int, err error) {
	for _, writer := range w.writers {
		if writer != nil {
			_, _ = writer.Write(p)
		}
	}
	return len(p), nil
}

// stripANSICodes drops \x1b[...m escape sequences.
func stripANSICodes(data []byte) []byte {
	result := make([]byte, 0, len(data))
	i := 0
	for i < len(data) {
		if data[i] == 0x1b && i+1 < len(data) && data[i+1] == '[' {
			i += 2
			for i < len(data) && data[i] != 'm' {
				i++
			}
			if i < len(data) {
				i++
			}
		} else {
			result = append(result, data[i])
			i++
		}
	}
	return result
}

// Init sets up the shared logger. An empty logFile logs to the console only.
// verbose lowers the level to Debug.
func Init(logFile string, verbose bool) error {
	logger = logrus.New()

	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
		ForceColors:     true,
	})

	if verbose {
		logger.SetLevel(logrus.DebugLevel)
	} else {
		logger.SetLevel(logrus.InfoLevel)
	}

	if logFile == "" {
		logger.SetOutput(os.Stdout)
		return nil
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o666)
	if err != nil {
		return fmt.Errorf("failed to open log file %q: %w", logFile, err)
	}

	logger.SetOutput(&teeWriter{
		writers: []io.Writer{os.Stdout, &ansiStripWriter{out: file}},
	})
	return nil
}

// L returns the shared logger, initializing a console-only one on first use.
func L() *logrus.Logger {
	if logger == nil {
		_ = Init("", false)
	}
	return logger
}
