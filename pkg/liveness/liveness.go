// Package liveness provides the "online" indicator shown next to each
// customer. It is a randomized stub, not a network probe: nothing here
// talks to AnyDesk or to the customer's machine.
package liveness

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"
)

// DefaultOfflineThreshold makes RandomProber report online about 70% of the time.
const DefaultOfflineThreshold = 0.3

// Prober reports whether the machine behind an AnyDesk ID is reachable.
type Prober interface {
	Probe(ctx context.Context, anydeskID string) (bool, error)
}

// RandomProber reports online when a uniform draw exceeds Threshold.
type RandomProber struct {
	Threshold float64
	Draw      func() float64
}

// NewRandomProber returns a RandomProber using DefaultOfflineThreshold.
func NewRandomProber() *RandomProber {
	return &RandomProber{Threshold: DefaultOfflineThreshold, Draw: rand.Float64}
}

func (p *RandomProber) Probe(ctx context.Context, _ string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	draw := p.Draw
	if draw == nil {
		draw = rand.Float64
	}
	return draw() > p.Threshold, nil
}

// Status is the last known liveness of one customer.
type Status struct {
	Online   bool      `json:"isOnline"`
	LastPing time.Time `json:"lastPing"`
}

// Target identifies what to ping.
type Target struct {
	CustomerID string
	AnydeskID  string
}

// Tracker remembers the last ping result per customer. State lives in
// memory only and is lost on restart.
type Tracker struct {
	prober Prober
	now    func() time.Time

	mu       sync.RWMutex
	statuses map[string]Status
}

// NewTracker returns a Tracker using p.
func NewTracker(p Prober) *Tracker {
	return &Tracker{prober: p, now: time.Now, statuses: make(map[string]Status)}
}

// Ping probes one customer and records the result.
func (t *Tracker) Ping(ctx context.Context, target Target) (Status, error) {
	online, err := t.prober.Probe(ctx, target.AnydeskID)
	if err != nil {
		return Status{}, err
	}
	st := Status{Online: online, LastPing: t.now()}
	t.mu.Lock()
	t.statuses[target.CustomerID] = st
	t.mu.Unlock()
	return st, nil
}

// PingAll probes targets one after another, pausing interval between them.
// It stops early when ctx is done and returns what was collected so far.
func (t *Tracker) PingAll(ctx context.Context, targets []Target, interval time.Duration) (map[string]Status, error) {
	out := make(map[string]Status, len(targets))
	for i, target := range targets {
		if i > 0 && interval > 0 {
			timer := time.NewTimer(interval)
			select {
			case <-ctx.Done():
				timer.Stop()
				return out, ctx.Err()
			case <-timer.C:
			}
		}
		st, err := t.Ping(ctx, target)
		if err != nil {
			return out, err
		}
		out[target.CustomerID] = st
	}
	return out, nil
}

// Status returns the last recorded status for a customer.
func (t *Tracker) Status(customerID string) (Status, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	st, ok := t.statuses[customerID]
	return st, ok
}

// OnlineCount counts customers among ids whose last ping was online.
func (t *Tracker) OnlineCount(ids []string) int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	n := 0
	for _, id := range ids {
		if st, ok := t.statuses[id]; ok && st.Online {
			n++
		}
	}
	return n
}

// Forget drops the status of a deleted customer.
func (t *Tracker) Forget(customerID string) {
	t.mu.Lock()
	delete(t.statuses, customerID)
	t.mu.Unlock()
}
