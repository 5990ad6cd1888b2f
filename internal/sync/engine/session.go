package engine

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	errs "github.com/wangguanran/Tools/internal/errors"
	"github.com/wangguanran/Tools/internal/executor"
	"github.com/wangguanran/Tools/internal/fsys"
	"github.com/wangguanran/Tools/internal/logging"
	"github.com/wangguanran/Tools/internal/notify"
	"github.com/wangguanran/Tools/internal/schedule"
	"github.com/wangguanran/Tools/internal/sync/remote"
	"github.com/wangguanran/Tools/internal/sync/synctypes"
	"github.com/wangguanran/Tools/internal/sync/watcher"
)

// SessionConfig controls one sync session beyond the per-pass engine config.
type SessionConfig struct {
	// Engine is the per-pass configuration
	Engine *Config

	// InitialSync runs the first pass without asking
	InitialSync bool

	// Watch keeps the session alive mirroring source changes
	Watch bool

	// Schedule runs full passes on a cron expression instead of watching
	Schedule string

	// ReconnectWait bounds how long a source outage is tolerated
	ReconnectWait time.Duration

	// PollInterval is the availability check and polling watch interval
	PollInterval time.Duration

	// SettlingDelay is how long change batches must stay quiet
	SettlingDelay time.Duration

	// ForcePolling disables native change notification
	ForcePolling bool
}

// Session runs a complete sync lifecycle against one profile.
type Session struct {
	id     string
	cfg    *SessionConfig
	srcFS  *fsys.FS
	dstFS  *fsys.FS
	engine *Engine

	prober   *remote.Prober
	mapper   *remote.Mapper
	notifier notify.Notifier

	in  io.Reader
	out io.Writer
	log *logrus.Logger

	startTime time.Time
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithInput sets the reader used for interactive prompts.
func WithInput(in io.Reader) SessionOption {
	return func(s *Session) {
		s.in = in
	}
}

// WithOutput sets the writer for prompts, progress, and summaries.
func WithOutput(out io.Writer) SessionOption {
	return func(s *Session) {
		s.out = out
	}
}

// WithRunner sets the process runner used for share mapping.
func WithRunner(runner executor.Runner) SessionOption {
	return func(s *Session) {
		s.mapper = remote.NewMapper(runner)
	}
}

// WithNotifier replaces the desktop notifier.
func WithNotifier(n notify.Notifier) SessionOption {
	return func(s *Session) {
		s.notifier = n
	}
}

// WithProber replaces the source availability prober.
func WithProber(p *remote.Prober) SessionOption {
	return func(s *Session) {
		s.prober = p
	}
}

// NewSession assembles a session from the given configuration.
func NewSession(srcFS, dstFS *fsys.FS, cfg *SessionConfig, opts ...SessionOption) (*Session, error) {
	if cfg == nil || cfg.Engine == nil {
		return nil, fmt.Errorf("session config is required")
	}

	s := &Session{
		id:    uuid.NewString(),
		cfg:   cfg,
		srcFS: srcFS,
		dstFS: dstFS,
		in:    os.Stdin,
		out:   os.Stdout,
		log:   cfg.Engine.Logger,
	}
	if s.log == nil {
		s.log = logging.L()
	}
	if cfg.ReconnectWait <= 0 {
		cfg.ReconnectWait = 60 * time.Second
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Second
	}
	if cfg.SettlingDelay <= 0 {
		cfg.SettlingDelay = 100 * time.Millisecond
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.prober == nil {
		s.prober = remote.NewProber(srcFS)
	}
	if s.mapper == nil {
		s.mapper = remote.NewMapper(executor.NewSystemRunner())
	}
	if s.notifier == nil {
		s.notifier = notify.NewDesktop("Remote Sync")
	}
	if cfg.Engine.ProgressTracker == nil {
		cfg.Engine.ProgressTracker = NewConsoleProgress(s.out)
	}

	eng, err := New(srcFS, dstFS, cfg.Engine)
	if err != nil {
		return nil, err
	}
	s.engine = eng

	return s, nil
}

// Run executes the session until it completes or the context is cancelled.
// Cancellation is a clean stop: the runtime summary is still logged.
func (s *Session) Run(ctx context.Context) error {
	s.startTime = time.Now()

	s.log.WithFields(logrus.Fields{
		"session_id":  s.id,
		"source":      s.cfg.Engine.Source,
		"destination": s.cfg.Engine.Destination,
	}).Info("session started")

	defer func() {
		s.log.WithFields(logrus.Fields{
			"session_id": s.id,
			"runtime":    FormatRuntime(time.Since(s.startTime)),
		}).Info("session finished")
	}()

	if err := s.ensureSource(ctx); err != nil {
		return err
	}

	// The skip prompt appears whenever the full first pass was not
	// explicitly requested, watch mode or not.
	runInitial := true
	if !s.cfg.InitialSync {
		runInitial = !s.promptSkipInitial()
	}

	if runInitial {
		result, err := s.engine.Sync(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
		s.summarize(result)
		s.notifyDone(result)
	}

	switch {
	case s.cfg.Schedule != "":
		return s.runScheduled(ctx)
	case s.cfg.Watch:
		return s.runWatch(ctx)
	default:
		return nil
	}
}

// ensureSource verifies the source is reachable, remapping the share once
// before giving up.
func (s *Session) ensureSource(ctx context.Context) error {
	if s.prober.Available(ctx, s.cfg.Engine.Source) {
		return nil
	}

	s.log.WithField("source", s.cfg.Engine.Source).Warn("source not accessible, remapping share")
	if err := s.mapper.MapShare(ctx, s.cfg.Engine.Source); err != nil {
		return err
	}

	return s.prober.Check(ctx, s.cfg.Engine.Source)
}

// promptSkipInitial asks whether the first full pass should be skipped.
func (s *Session) promptSkipInitial() bool {
	fmt.Fprint(s.out, "Skip initial sync? (y/n): ")

	sc := bufio.NewScanner(s.in)
	if !sc.Scan() {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(sc.Text()))
	return answer == "y" || answer == "yes"
}

// runWatch mirrors source changes until the context ends.
func (s *Session) runWatch(ctx context.Context) error {
	s.log.WithField("source", s.cfg.Engine.Source).Info("watching for changes")

	w := watcher.New(s.srcFS, s.cfg.Engine.Source,
		watcher.WithSettlingDelay(s.cfg.SettlingDelay),
		watcher.WithPollInterval(s.cfg.PollInterval),
		watcher.WithPolling(s.cfg.ForcePolling),
		watcher.WithLogger(s.log),
	)

	watchCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	events := make(chan []string, 1)
	watchErr := make(chan error, 1)
	go func() {
		watchErr <- w.Watch(watchCtx, events)
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case err := <-watchErr:
			if err != nil && ctx.Err() == nil {
				return errs.Wrap(err, errs.CodeWatchFailed, "watch loop failed")
			}
			return nil

		case batch := <-events:
			if !s.prober.Available(ctx, s.cfg.Engine.Source) {
				if err := s.reconnect(ctx); err != nil {
					return err
				}
			}

			result, err := s.engine.SyncPaths(ctx, batch)
			if err != nil {
				if errors.Is(err, context.Canceled) {
					return nil
				}
				s.log.WithError(err).Warn("mirror pass had errors")
				continue
			}
			s.log.WithFields(logrus.Fields{
				"changed": len(batch),
				"copied":  result.FilesCopied,
				"deleted": result.FilesDeleted,
			}).Info("mirrored changes")
		}
	}
}

// reconnect polls the source until it answers again or the outage deadline
// passes.
func (s *Session) reconnect(ctx context.Context) error {
	s.log.WithFields(logrus.Fields{
		"source":   s.cfg.Engine.Source,
		"deadline": s.cfg.ReconnectWait.String(),
	}).Warn("source unavailable, waiting for it to come back")

	deadline := time.Now().Add(s.cfg.ReconnectWait)

	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(s.cfg.PollInterval):
		}

		if s.prober.Available(ctx, s.cfg.Engine.Source) {
			// Refresh the SMB session; a reappearing host often needs it.
			if err := s.mapper.MapShare(ctx, s.cfg.Engine.Source); err != nil {
				s.log.WithError(err).Debug("share remap failed, retrying")
				continue
			}
			s.log.Info("source is back, resuming")
			return nil
		}
	}

	return errs.Newf(errs.CodeRemoteUnreachable,
		"source %s unavailable for more than %s", s.cfg.Engine.Source, s.cfg.ReconnectWait)
}

// runScheduled executes full passes on the configured cron expression.
func (s *Session) runScheduled(ctx context.Context) error {
	if err := schedule.Validate(s.cfg.Schedule); err != nil {
		return errs.Wrap(err, errs.CodeInvalidInput, "invalid schedule")
	}

	s.log.WithField("schedule", s.cfg.Schedule).Info("running on schedule")

	sched := schedule.New(s.log)
	err := sched.Add(s.cfg.Schedule, func() {
		result, syncErr := s.engine.Sync(ctx)
		if syncErr != nil {
			if errors.Is(syncErr, context.Canceled) {
				return
			}
			s.log.WithError(syncErr).Warn("scheduled pass had errors")
			return
		}
		s.summarize(result)
	})
	if err != nil {
		return errs.Wrap(err, errs.CodeInvalidInput, "invalid schedule")
	}

	return sched.Run(ctx)
}

// summarize prints the one-line result of a pass.
func (s *Session) summarize(result *synctypes.Result) {
	fmt.Fprintf(s.out, "Copied %d files (%s), skipped %d, deleted %d in %s\n",
		result.FilesCopied,
		humanBytes(result.BytesCopied),
		result.FilesSkipped,
		result.FilesDeleted,
		FormatRuntime(result.Duration),
	)
	if len(result.Errors) > 0 {
		fmt.Fprintf(s.out, "%d files failed; see the log for details\n", len(result.Errors))
	}
}

// notifyDone raises a desktop notification for a finished pass.
func (s *Session) notifyDone(result *synctypes.Result) {
	message := fmt.Sprintf("%s: copied %d files in %s",
		filepath.Base(s.cfg.Engine.Source),
		result.FilesCopied,
		FormatRuntime(result.Duration),
	)
	if err := s.notifier.Send("Sync complete", message); err != nil {
		s.log.WithError(err).Debug("notification failed")
	}
}
