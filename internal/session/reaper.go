package session

import (
	"log"
	"sync"
	"time"
)

// Reaper periodically ends games that have been idle longer than a TTL.
type Reaper struct {
	manager  *Manager
	ttl      time.Duration
	interval time.Duration
	done     chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// NewReaper starts a reaper for m. Returns nil when ttl is 0 (disabled).
func NewReaper(m *Manager, ttl time.Duration) *Reaper {
	if ttl <= 0 {
		return nil
	}

	interval := ttl / 4
	if interval < time.Second {
		interval = time.Second
	}
	if interval > time.Minute {
		interval = time.Minute
	}

	r := &Reaper{
		manager:  m,
		ttl:      ttl,
		interval: interval,
		done:     make(chan struct{}),
	}

	r.wg.Add(1)
	go r.tickLoop()

	return r
}

func (r *Reaper) tickLoop() {
	defer r.wg.Done()
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.Sweep()
		case <-r.done:
			return
		}
	}
}

// Sweep removes idle games once and returns the number removed.
func (r *Reaper) Sweep() int {
	n := r.manager.reapIdle(r.manager.now().Add(-r.ttl))
	if n > 0 {
		log.Printf("session: reaped %d idle games (ttl %s)", n, r.ttl)
	}
	return n
}

// Stop signals the reaper to stop and waits for it to finish.
func (r *Reaper) Stop() {
	r.stopOnce.Do(func() {
		close(r.done)
		r.wg.Wait()
	})
}
