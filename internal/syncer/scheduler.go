package syncer

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Synchronizer is the slice of the engine the scheduler drives.
type Synchronizer interface {
	Synchronize(ctx context.Context) (Summary, error)
	Online() bool
}

// Scheduler runs interval-based automatic sync with an explicit
// lifecycle. It is constructed once and owned by whatever owns the
// application lifecycle; starting while running replaces the previous
// timer, stopping is idempotent, and an offline tick is a quiet no-op.
type Scheduler struct {
	engine Synchronizer
	logger *zap.Logger

	mu   sync.Mutex
	stop chan struct{}
}

// NewScheduler constructs a stopped scheduler over the given engine.
func NewScheduler(engine Synchronizer, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{engine: engine, logger: logger}
}

// Start begins ticking at the given interval. A scheduler that is
// already running is stopped first; timers never stack. On each
// completed tick, onSuccess receives a status line when the combined
// error list is empty, otherwise onError receives the structured errors.
// Either callback may be nil.
func (s *Scheduler) Start(interval time.Duration, onSuccess func(string), onError func([]RecordError)) {
	if interval <= 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()

	stop := make(chan struct{})
	s.stop = stop
	s.logger.Info("auto sync started", zap.Duration("interval", interval))
	go s.run(interval, stop, onSuccess, onError)
}

// Stop cancels the timer. Safe to call when not running.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

// IsRunning reports whether the timer is active.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stop != nil
}

func (s *Scheduler) stopLocked() {
	if s.stop == nil {
		return
	}
	close(s.stop)
	s.stop = nil
	s.logger.Info("auto sync stopped")
}

func (s *Scheduler) run(interval time.Duration, stop <-chan struct{}, onSuccess func(string), onError func([]RecordError)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.tick(onSuccess, onError)
		}
	}
}

func (s *Scheduler) tick(onSuccess func(string), onError func([]RecordError)) {
	if !s.engine.Online() {
		return
	}

	summary, err := s.engine.Synchronize(context.Background())
	if errors.Is(err, ErrSyncInFlight) {
		// A manual sync is already running; this tick yields to it.
		return
	}
	if err != nil {
		if onError != nil {
			onError([]RecordError{{Message: err.Error()}})
		}
		return
	}

	syncErrors := summary.Errors()
	if len(syncErrors) == 0 {
		if onSuccess != nil {
			onSuccess(summary.String())
		}
		return
	}
	if onError != nil {
		onError(syncErrors)
	}
}
