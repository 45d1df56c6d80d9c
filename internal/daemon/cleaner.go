package daemon

import (
	"context"
	"log/slog"
	"time"

	"github.com/1broseidon/wind/internal/dispatch"
)

// DefaultCleanupInterval is used when the configured interval is not positive.
const DefaultCleanupInterval = 3 * time.Second

// CleanerConfig holds configuration for the cleaner.
type CleanerConfig struct {
	Interval time.Duration
	Logger   *slog.Logger
}

// Cleaner periodically removes tabs whose windows vanished without a destroy
// event reaching us.
type Cleaner struct {
	interval time.Duration
	poster   dispatch.Poster
	clean    func() int
	logger   *slog.Logger
}

// NewCleaner creates a cleaner that queues clean on poster every interval.
// clean runs on the UI loop and returns the number of removed tabs.
func NewCleaner(cfg CleanerConfig, poster dispatch.Poster, clean func() int) *Cleaner {
	interval := cfg.Interval
	if interval <= 0 {
		interval = DefaultCleanupInterval
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Cleaner{
		interval: interval,
		poster:   poster,
		clean:    clean,
		logger:   logger.With("component", "cleaner"),
	}
}

// Run starts the cleanup loop. Blocks until context is cancelled.
func (c *Cleaner) Run(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	c.logger.Info("cleaner started", "interval", c.interval)

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("cleaner stopped")
			return
		case <-ticker.C:
			c.tick()
		}
	}
}

// tick queues one pass. A pass is skipped rather than queued behind a busy
// loop; the next tick retries.
func (c *Cleaner) tick() {
	if !c.poster.TryPost(c.CleanNow) {
		c.logger.Debug("cleanup skipped, loop busy")
	}
}

// CleanNow performs a single pass. It must run on the UI loop.
func (c *Cleaner) CleanNow() {
	// Recover from panics to prevent crashing the daemon
	defer func() {
		if err := recover(); err != nil {
			c.logger.Error("cleaner panic recovered", "error", err)
		}
	}()

	if n := c.clean(); n > 0 {
		c.logger.Info("removed tabs with vanished windows", "count", n)
	}
}
