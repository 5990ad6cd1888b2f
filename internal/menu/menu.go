// Package menu implements the interactive sync-profile dispatcher: it shows
// the profile table, reads one choice from stdin, and hands the matching
// invocation to the process runner.
package menu

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/wangguanran/Tools/internal/config"
	errs "github.com/wangguanran/Tools/internal/errors"
	"github.com/wangguanran/Tools/internal/executor"
)

// Menu dispatches a user's choice to the external sync tool.
type Menu struct {
	tool     string
	profiles map[string]config.Profile
	order    []string
	runner   executor.Runner
	in       io.Reader
	out      io.Writer
}

// Option configures a Menu.
type Option func(*Menu)

// WithRunner substitutes the process runner (a recording fake in tests).
func WithRunner(r executor.Runner) Option {
	return func(m *Menu) {
		m.runner = r
	}
}

// WithInput sets the reader choices are read from.
func WithInput(r io.Reader) Option {
	return func(m *Menu) {
		m.in = r
	}
}

// WithOutput sets the writer the menu is printed to.
func WithOutput(w io.Writer) Option {
	return func(m *Menu) {
		m.out = w
	}
}

// New creates a Menu over the configured profile table.
func New(cfg *config.Config, opts ...Option) *Menu {
	m := &Menu{
		tool:     cfg.Tool,
		profiles: cfg.Profiles,
		order:    cfg.ProfileKeys(),
		runner:   executor.NewSystemRunner(),
		in:       os.Stdin,
		out:      os.Stdout,
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// BuildArgs constructs the argument list for one profile. Kept separate from
// dispatch so the exact invocation is testable without spawning anything.
func BuildArgs(p config.Profile) []string {
	args := []string{
		"--resource", p.Resource,
		"--destination", p.Destination,
	}
	return append(args, p.Flags...)
}

// Run shows the menu, reads one line, and dispatches the chosen profile.
// The choice must match a profile key exactly; anything else prints
// "Invalid choice!" and returns a CodeInvalidChoice error without spawning.
func (m *Menu) Run(ctx context.Context) error {
	for _, key := range m.order {
		fmt.Fprintf(m.out, "%s. Sync %s\n", key, m.profiles[key].Label)
	}
	fmt.Fprintf(m.out, "\nEnter your choice (%s): ", strings.Join(m.order, " or "))

	choice := m.readChoice()

	profile, ok := m.profiles[choice]
	if !ok {
		fmt.Fprintln(m.out, "Invalid choice!")
		return errs.Newf(errs.CodeInvalidChoice, "no profile for choice %q", choice)
	}

	// Streams are inherited so the tool's own prompts and progress reach the
	// user directly; the dispatcher waits for it to finish.
	_, err := m.runner.Run(ctx, m.tool, BuildArgs(profile), executor.ConsoleMode())
	if err != nil {
		if executor.IsNotFound(err) {
			return errs.Wrap(err, errs.CodeToolNotFound,
				fmt.Sprintf("sync tool %q not found", m.tool))
		}
		return errs.Wrap(err, errs.CodeToolFailed,
			fmt.Sprintf("sync tool %q failed", m.tool))
	}
	return nil
}

// readChoice reads a single line. EOF or a read error yields the empty
// string, which matches no profile.
func (m *Menu) readChoice() string {
	scanner := bufio.NewScanner(m.in)
	if !scanner.Scan() {
		return ""
	}
	return scanner.Text()
}
