// Package schedule runs recurring jobs described by cron expressions.
package schedule

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/wangguanran/Tools/internal/logging"
)

// Scheduler wraps a cron runner with context-based lifecycle control.
type Scheduler struct {
	cron *cron.Cron
	log  *logrus.Logger
}

// New creates an empty scheduler. Specs use the standard five-field cron
// format; descriptors like @hourly are accepted too.
func New(log *logrus.Logger) *Scheduler {
	if log == nil {
		log = logging.L()
	}
	return &Scheduler{
		cron: cron.New(),
		log:  log,
	}
}

// Validate reports whether spec is a parseable cron expression.
func Validate(spec string) error {
	if _, err := cron.ParseStandard(spec); err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", spec, err)
	}
	return nil
}

// Add registers a job to run on the given cron spec.
func (s *Scheduler) Add(spec string, job func()) error {
	if _, err := s.cron.AddFunc(spec, job); err != nil {
		return fmt.Errorf("failed to schedule job with spec %q: %w", spec, err)
	}
	return nil
}

// Run starts the scheduler and blocks until the context ends, then waits
// for any running job to finish.
func (s *Scheduler) Run(ctx context.Context) error {
	s.cron.Start()
	s.log.Debug("scheduler started")

	<-ctx.Done()

	stopCtx := s.cron.Stop()
	<-stopCtx.Done()
	s.log.Debug("scheduler stopped")

	return nil
}
