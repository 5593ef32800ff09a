package editor

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// SimulatedSaver stands in for a profile backend. Each save waits Delay and
// then fails with Err if it is set, otherwise keeps the profile in memory.
type SimulatedSaver struct {
	log   *zap.Logger
	Delay time.Duration
	Err   error

	mu    sync.RWMutex
	saved map[string]Restaurant
}

func NewSimulatedSaver(log *zap.Logger, delay time.Duration) *SimulatedSaver {
	return &SimulatedSaver{log: log, Delay: delay, saved: map[string]Restaurant{}}
}

func (s *SimulatedSaver) Save(ctx context.Context, r Restaurant) error {
	t := time.NewTimer(s.Delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
	}
	if s.Err != nil {
		s.log.Warn("simulated save failed", zap.String("restaurant_id", r.ID), zap.Error(s.Err))
		return s.Err
	}

	s.mu.Lock()
	s.saved[r.ID] = r
	s.mu.Unlock()
	s.log.Info("restaurant profile saved", zap.String("restaurant_id", r.ID))
	return nil
}

// Get returns the last profile saved for id.
func (s *SimulatedSaver) Get(id string) (Restaurant, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.saved[id]
	return r, ok
}
