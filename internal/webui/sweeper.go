package webui

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/ca-srg/researchpanel/internal/logging"
)

const (
	defaultSweepInterval = time.Minute
	minSweepInterval     = time.Second
)

// SweepFunc removes idle sessions and reports how many were removed
type SweepFunc func() int

// Sweeper runs a SweepFunc on a fixed interval
type Sweeper struct {
	mu          sync.RWMutex
	enabled     bool
	interval    time.Duration
	nextRunAt   time.Time
	lastRunAt   time.Time
	lastEvicted int
	sweepFunc   SweepFunc
	logger      *slog.Logger
	cancel      context.CancelFunc
	ticker      *time.Ticker
}

// NewSweeper creates a stopped sweeper
func NewSweeper(sweepFunc SweepFunc, interval time.Duration, logger *slog.Logger) *Sweeper {
	if interval < minSweepInterval {
		interval = defaultSweepInterval
	}

	return &Sweeper{
		interval:  interval,
		sweepFunc: sweepFunc,
		logger:    logging.OrDiscard(logger),
	}
}

// Start starts the sweep loop. It is a no-op when already running.
func (s *Sweeper) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.enabled || s.sweepFunc == nil {
		return
	}

	s.enabled = true
	s.nextRunAt = time.Now().Add(s.interval)

	sweepCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.ticker = time.NewTicker(s.interval)

	go s.loop(sweepCtx, s.ticker)

	s.logger.Debug("session sweeper started", "interval", s.interval)
}

// Stop stops the sweep loop
func (s *Sweeper) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.enabled {
		return
	}

	s.enabled = false
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	if s.ticker != nil {
		s.ticker.Stop()
		s.ticker = nil
	}
	s.nextRunAt = time.Time{}
	s.logger.Debug("session sweeper stopped")
}

func (s *Sweeper) loop(ctx context.Context, ticker *time.Ticker) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick()
		}
	}
}

func (s *Sweeper) tick() {
	s.mu.RLock()
	sweepFunc := s.sweepFunc
	enabled := s.enabled
	s.mu.RUnlock()

	if !enabled || sweepFunc == nil {
		return
	}

	evicted := sweepFunc()

	s.mu.Lock()
	s.lastRunAt = time.Now()
	s.lastEvicted = evicted
	if s.enabled {
		s.nextRunAt = s.lastRunAt.Add(s.interval)
	}
	s.mu.Unlock()
}

// GetState returns the current sweeper state
func (s *Sweeper) GetState() *SweeperState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return &SweeperState{
		Enabled:     s.enabled,
		Interval:    s.interval,
		NextRunAt:   s.nextRunAt,
		LastRunAt:   s.lastRunAt,
		LastEvicted: s.lastEvicted,
	}
}

// IsEnabled returns whether the sweep loop is running
func (s *Sweeper) IsEnabled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.enabled
}
