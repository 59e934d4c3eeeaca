package ops

import (
	"context"
	"sync"
	"time"

	"roomops/internal/schedule"
)

// Snapshot is a completed run: its store and report.
type Snapshot struct {
	Day    time.Time
	Store  *schedule.Store
	Report Report
	Err    error
}

// Latest keeps the most recent completed run for readers such as the web
// server. Each run writes a fresh Store, so readers never see one that is
// still being filled.
type Latest struct {
	mu   sync.RWMutex
	snap *Snapshot

	// running serializes runs; the core is single-threaded.
	running sync.Mutex
}

// Get returns the latest snapshot, or nil before the first run completes.
func (l *Latest) Get() *Snapshot {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.snap
}

func (l *Latest) set(s *Snapshot) {
	l.mu.Lock()
	l.snap = s
	l.mu.Unlock()
}

// RunAndStore runs src into a new Store and publishes the outcome, even when
// the source failed part-way.
func (l *Latest) RunAndStore(ctx context.Context, src Source, day time.Time) (*Snapshot, error) {
	l.running.Lock()
	defer l.running.Unlock()

	store := schedule.New()
	rep, err := Run(ctx, src, store)
	snap := &Snapshot{Day: day, Store: store, Report: rep, Err: err}
	l.set(snap)
	return snap, err
}
