package fetch

import (
	"context"
	"sync"
	"time"
)

// Subscription is a running poll loop.
type Subscription struct {
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// Subscribe calls tick right away and then every interval until ctx ends or
// Stop is called. Ticks never overlap.
func Subscribe(ctx context.Context, interval time.Duration, tick func(ctx context.Context)) *Subscription {
	ctx, cancel := context.WithCancel(ctx)
	s := &Subscription{cancel: cancel, done: make(chan struct{})}

	go func() {
		defer close(s.done)
		tick(ctx)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				tick(ctx)
			}
		}
	}()
	return s
}

// Stop cancels the loop and waits for it to exit. Safe to call repeatedly.
func (s *Subscription) Stop() {
	s.once.Do(s.cancel)
	<-s.done
}

// Done is closed once the loop has exited.
func (s *Subscription) Done() <-chan struct{} { return s.done }
