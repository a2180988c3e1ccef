package hame

import (
	"context"
	"sync"
)

// snapshotSlot is a single-slot store of the most recent device snapshot
// with change notification.
//
// Exactly one writer (the event loop) publishes; any number of readers
// wait for a value newer than the generation they subscribed at.
// Publication is atomic: a reader either sees a complete snapshot or
// none at all, and consecutive publishes coalesce so a late reader only
// ever observes the latest value.
type snapshotSlot struct {
	mu      sync.Mutex
	value   DeviceInfo
	set     bool
	gen     uint64
	changed chan struct{}
	closed  bool
}

func newSnapshotSlot() *snapshotSlot {
	return &snapshotSlot{
		changed: make(chan struct{}),
	}
}

// publish stores a new snapshot and wakes all waiters.
// Writer-only; a publish after close is discarded.
func (s *snapshotSlot) publish(v DeviceInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	s.value = v
	s.set = true
	s.gen++
	close(s.changed)
	s.changed = make(chan struct{})
}

// close marks the slot dead (the event loop exited) and wakes all
// waiters. Pending and future reads fail with ErrSessionClosed.
func (s *snapshotSlot) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	s.closed = true
	close(s.changed)
}

// subscribe returns the current generation. A subsequent next() call
// with this generation returns only values published after this point.
func (s *snapshotSlot) subscribe() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen
}

// next blocks until the slot holds a value newer than gen and returns
// it. Fails with ErrSessionClosed if the slot is closed first, or the
// context error if the caller gives up; an abandoned wait has no side
// effect.
func (s *snapshotSlot) next(ctx context.Context, gen uint64) (DeviceInfo, error) {
	for {
		s.mu.Lock()
		if s.set && s.gen > gen {
			v := s.value
			s.mu.Unlock()
			return v, nil
		}
		if s.closed {
			s.mu.Unlock()
			return DeviceInfo{}, ErrSessionClosed
		}
		changed := s.changed
		s.mu.Unlock()

		select {
		case <-ctx.Done():
			return DeviceInfo{}, ctx.Err()
		case <-changed:
		}
	}
}

// latest returns the most recent snapshot without waiting.
// The second return is false if nothing was ever published.
func (s *snapshotSlot) latest() (DeviceInfo, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value, s.set
}
