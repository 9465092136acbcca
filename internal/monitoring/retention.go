package monitoring

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/spherical-ai/asha/internal/observability"
)

// Purger deletes conversation data older than a cutoff.
type Purger interface {
	PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// RetentionConfig holds retention job configuration.
type RetentionConfig struct {
	MaxAge   time.Duration // e.g., 30 days
	Schedule string        // cron expression, e.g. "@daily"
}

// RetentionRunner purges expired conversation turns on a cron schedule.
type RetentionRunner struct {
	purger Purger
	logger *observability.Logger
	config RetentionConfig
	now    func() time.Time

	mu   sync.Mutex
	cron *cron.Cron
}

// NewRetentionRunner creates a runner. Zero config values fall back to a
// 30 day window purged daily.
func NewRetentionRunner(purger Purger, logger *observability.Logger, cfg RetentionConfig) *RetentionRunner {
	if cfg.MaxAge <= 0 {
		cfg.MaxAge = 30 * 24 * time.Hour
	}
	if cfg.Schedule == "" {
		cfg.Schedule = "@daily"
	}
	return &RetentionRunner{
		purger: purger,
		logger: observability.OrNop(logger),
		config: cfg,
		now:    time.Now,
	}
}

// RunOnce purges everything older than the retention window.
func (r *RetentionRunner) RunOnce(ctx context.Context) (int64, error) {
	cutoff := r.now().Add(-r.config.MaxAge)
	n, err := r.purger.PurgeBefore(ctx, cutoff)
	if err != nil {
		r.logger.Error().Err(err).Msg("Retention purge failed")
		return 0, err
	}
	r.logger.Info().
		Int64("deleted", n).
		Str("cutoff", cutoff.UTC().Format(time.RFC3339)).
		Msg("Retention purge completed")
	return n, nil
}

// Start schedules RunOnce. It is an error to start a running runner.
func (r *RetentionRunner) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cron != nil {
		return fmt.Errorf("retention runner already started")
	}

	c := cron.New()
	if _, err := c.AddFunc(r.config.Schedule, func() {
		_, _ = r.RunOnce(context.Background())
	}); err != nil {
		return fmt.Errorf("invalid retention schedule %q: %w", r.config.Schedule, err)
	}
	c.Start()
	r.cron = c
	r.logger.Info().Str("schedule", r.config.Schedule).Dur("max_age", r.config.MaxAge).Msg("Retention runner started")
	return nil
}

// Stop halts the schedule and waits for a running purge to finish or ctx to
// expire.
func (r *RetentionRunner) Stop(ctx context.Context) {
	r.mu.Lock()
	c := r.cron
	r.cron = nil
	r.mu.Unlock()
	if c == nil {
		return
	}
	select {
	case <-c.Stop().Done():
	case <-ctx.Done():
	}
}
