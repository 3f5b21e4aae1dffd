package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrInvalidRetention is returned when the purger is configured without a
// positive retention or interval.
var ErrInvalidRetention = errors.New("scheduler: retention and interval must be positive")

// Purger deletes records older than a cutoff.
type Purger interface {
	PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// RetentionConfig holds configuration for the retention purger
type RetentionConfig struct {
	// Retention is how long records are kept
	Retention time.Duration

	// Interval is how often expired records are purged
	Interval time.Duration
}

// RetentionPurger periodically removes sync outcomes past their retention.
type RetentionPurger struct {
	config RetentionConfig
	purger Purger
	logger *zap.Logger
	now    func() time.Time

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
	lastRun   time.Time
}

// NewRetentionPurger creates a new retention purger
func NewRetentionPurger(config RetentionConfig, purger Purger, logger *zap.Logger) (*RetentionPurger, error) {
	if config.Retention <= 0 || config.Interval <= 0 {
		return nil, ErrInvalidRetention
	}
	return &RetentionPurger{
		config: config,
		purger: purger,
		logger: logger,
		now:    time.Now,
	}, nil
}

// Start purges once and then keeps purging every interval until Stop.
func (p *RetentionPurger) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.isRunning {
		p.mu.Unlock()
		return nil
	}
	p.isRunning = true
	p.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	p.wg.Add(1)
	go p.runLoop(ctx)

	p.logger.Info("Retention purger started",
		zap.Duration("retention", p.config.Retention),
		zap.Duration("interval", p.config.Interval),
	)

	return nil
}

// Stop stops the purger and waits for an in-flight purge to finish.
func (p *RetentionPurger) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.isRunning {
		p.mu.Unlock()
		return nil
	}
	p.isRunning = false
	p.mu.Unlock()

	if p.cancel != nil {
		p.cancel()
	}

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("Retention purger stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// LastRun returns when the last purge completed successfully.
func (p *RetentionPurger) LastRun() time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastRun
}

func (p *RetentionPurger) runLoop(ctx context.Context) {
	defer p.wg.Done()

	p.PurgeNow(ctx)

	ticker := time.NewTicker(p.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.PurgeNow(ctx)
		}
	}
}

// PurgeNow deletes every record older than the retention and returns how
// many were removed.
func (p *RetentionPurger) PurgeNow(ctx context.Context) int64 {
	now := p.now()
	cutoff := now.Add(-p.config.Retention)

	deleted, err := p.purger.PurgeBefore(ctx, cutoff)
	if err != nil {
		if ctx.Err() == nil {
			p.logger.Error("Failed to purge expired sync outcomes", zap.Error(err))
		}
		return 0
	}

	p.mu.Lock()
	p.lastRun = now
	p.mu.Unlock()

	if deleted > 0 {
		p.logger.Info("Purged expired sync outcomes",
			zap.Int64("deleted", deleted),
			zap.Time("before", cutoff),
		)
	}
	return deleted
}
