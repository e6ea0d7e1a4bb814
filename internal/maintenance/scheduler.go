// internal/maintenance/scheduler.go
package maintenance

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/user/souentd/internal/httpapi"
	"github.com/user/souentd/internal/types"
)

// cronParser accepts both standard 5-field cron expressions and 6-field
// expressions with an optional seconds field.
var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// Scheduler runs background housekeeping on a cron ticker: sweeping expired
// sessions and pruning idle rate limiter clients.
type Scheduler struct {
	sessions types.SessionStore
	limiter  *httpapi.RateLimiter
	schedule string
	logger   *slog.Logger
	cron     *cron.Cron
}

// Options configures New. Limiter may be nil when rate limiting is disabled.
type Options struct {
	Sessions      types.SessionStore
	Limiter       *httpapi.RateLimiter
	SweepSchedule string
	Logger        *slog.Logger
}

// New creates a Scheduler. An empty SweepSchedule defaults to every five
// minutes.
func New(opts Options) *Scheduler {
	if opts.SweepSchedule == "" {
		opts.SweepSchedule = "@every 5m"
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Scheduler{
		sessions: opts.Sessions,
		limiter:  opts.Limiter,
		schedule: opts.SweepSchedule,
		logger:   opts.Logger,
		cron:     cron.New(cron.WithParser(cronParser)),
	}
}

// Start registers the housekeeping jobs and starts the cron ticker.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, s.sweep); err != nil {
		return err
	}
	s.logger.Info("maintenance scheduler started", "schedule", s.schedule)
	s.cron.Start()
	return nil
}

// Stop stops the cron ticker and waits for a running job to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	select {
	case <-ctx.Done():
	case <-time.After(5 * time.Second):
		s.logger.Warn("maintenance job did not finish before shutdown")
	}
}

func (s *Scheduler) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	removed, err := s.sessions.Sweep(ctx)
	if err != nil {
		s.logger.Error("session sweep failed", "error", err)
	} else if removed > 0 {
		s.logger.Info("swept expired sessions", "removed", removed)
	}

	if s.limiter != nil {
		if pruned := s.limiter.Cleanup(); pruned > 0 {
			s.logger.Info("pruned idle rate limiter clients", "removed", pruned)
		}
	}
}
