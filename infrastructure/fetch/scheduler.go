package fetch

import (
	"context"
	"sync"
	"time"
)

// Scheduler runs delayed callbacks, such as the settle-then-refetch after a
// command, and cancels whatever is still pending when its owner goes away.
type Scheduler struct {
	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
	timers map[*time.Timer]struct{}
	closed bool
	wg     sync.WaitGroup
}

func NewScheduler(parent context.Context) *Scheduler {
	ctx, cancel := context.WithCancel(parent)
	return &Scheduler{ctx: ctx, cancel: cancel, timers: make(map[*time.Timer]struct{})}
}

// After schedules fn once delay has elapsed. It reports false when the
// scheduler is already closed.
func (s *Scheduler) After(delay time.Duration, fn func(ctx context.Context)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}

	s.wg.Add(1)
	var t *time.Timer
	t = time.AfterFunc(delay, func() {
		defer s.wg.Done()
		s.mu.Lock()
		delete(s.timers, t)
		s.mu.Unlock()
		if s.ctx.Err() != nil {
			return
		}
		fn(s.ctx)
	})
	s.timers[t] = struct{}{}
	return true
}

// Pending counts callbacks that have not started yet.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// Close stops pending callbacks and waits for running ones to return.
func (s *Scheduler) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		s.wg.Wait()
		return
	}
	s.closed = true
	s.cancel()
	for t := range s.timers {
		if t.Stop() {
			s.wg.Done()
		}
		delete(s.timers, t)
	}
	s.mu.Unlock()
	s.wg.Wait()
}
