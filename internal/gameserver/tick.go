package gameserver

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// TickManager runs registered callbacks on a shared periodic interval.
// Callbacks are invoked sequentially within the manager's goroutine.
//
// Invariant: all callbacks are invoked at most once per tick interval.
type TickManager struct {
	interval time.Duration
	mu       sync.Mutex
	ticks    map[string]func()
}

// NewTickManager returns a manager that fires ticks every interval.
//
// Precondition: interval must be > 0.
func NewTickManager(interval time.Duration) *TickManager {
	if interval <= 0 {
		panic("gameserver.NewTickManager: interval must be > 0")
	}
	return &TickManager{
		interval: interval,
		ticks:    make(map[string]func()),
	}
}

// Register registers a callback under name. Replaces any existing callback.
func (t *TickManager) Register(name string, fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.ticks[name] = fn
}

// Unregister removes the callback registered under name.
func (t *TickManager) Unregister(name string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.ticks, name)
}

// Start begins the tick loop. Runs until ctx is cancelled.
//
// Postcondition: all registered callbacks are invoked once per interval.
func (t *TickManager) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(t.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				t.mu.Lock()
				callbacks := make(map[string]func(), len(t.ticks))
				for k, v := range t.ticks {
					callbacks[k] = v
				}
				t.mu.Unlock()
				for _, fn := range callbacks {
					fn()
				}
			}
		}
	}()
}

// CheckRoundTimers advances every room's round clock against wall time and
// broadcasts the resolution for each round that has run out.
func (d *Dispatcher) CheckRoundTimers() {
	now := time.Now()
	for _, r := range d.registry.Rooms() {
		if _, expired := r.CheckRoundTimer(now); expired {
			d.logger.Info("round timer expired", zap.String("room", r.Code()))
			d.broadcast(r, Event{Type: EventRoundResolved})
		}
	}
}

// SweepInactiveRooms removes rooms idle longer than idleTimeout and destroys
// the session records of every identity they contained. Connections still
// attached to a swept room's sessions are closed.
func (d *Dispatcher) SweepInactiveRooms(idleTimeout time.Duration) {
	cutoff := time.Now().Add(-idleTimeout)
	for _, r := range d.registry.SweepInactive(cutoff) {
		d.logger.Info("swept inactive room",
			zap.String("room", r.Code()),
			zap.Int("players", r.Size()),
		)
		for _, id := range r.PlayerIDs() {
			d.sessions.Remove(id)
		}
	}
}
