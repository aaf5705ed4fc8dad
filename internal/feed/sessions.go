package feed

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"ms-events-web/internal/logger"
)

const (
	DefaultSessionTTL  = 30 * time.Minute
	DefaultMaxSessions = 1000
)

type sessionEntry struct {
	ctrl     *Controller
	lastSeen time.Time
}

// Sessions keeps one mounted controller per browser session.
type Sessions struct {
	factory func(sessionID string) *Controller
	ttl     time.Duration
	max     int
	logger  *logger.Logger
	now     func() time.Time

	mu      sync.Mutex
	entries map[string]*sessionEntry
	closed  bool
}

// NewSessions keeps at most maxSessions live controllers; the least recently
// used one is closed to make room for a new session.
func NewSessions(factory func(sessionID string) *Controller, ttl time.Duration, maxSessions int, log *logger.Logger) *Sessions {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	if maxSessions <= 0 {
		maxSessions = DefaultMaxSessions
	}
	return &Sessions{
		factory: factory,
		ttl:     ttl,
		max:     maxSessions,
		logger:  log,
		now:     time.Now,
		entries: make(map[string]*sessionEntry),
	}
}

// GetOrCreate returns the session's controller, building and mounting one
// on first use. A failed initial load is left in the controller's state.
func (s *Sessions) GetOrCreate(ctx context.Context, sessionID string) (*Controller, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrClosed
	}
	if e, ok := s.entries[sessionID]; ok {
		e.lastSeen = s.now()
		s.mu.Unlock()
		return e.ctrl, nil
	}
	var evicted *Controller
	if len(s.entries) >= s.max {
		evicted = s.evictOldestLocked()
	}
	ctrl := s.factory(sessionID)
	s.entries[sessionID] = &sessionEntry{ctrl: ctrl, lastSeen: s.now()}
	count := len(s.entries)
	s.mu.Unlock()

	if evicted != nil {
		evicted.Close()
		s.logger.Warn("FEED", fmt.Sprintf("Session limit %d reached, evicted feed %s", s.max, evicted.SessionID()))
	}

	s.logger.LogFeed(string(TriggerMount), sessionID, fmt.Sprintf("Mounted feed (%d live)", count))
	if err := ctrl.Mount(ctx); err != nil && !errors.Is(err, ErrClosed) {
		s.logger.Debug("FEED", fmt.Sprintf("Initial load for %s: %v", sessionID, err))
	}
	return ctrl, nil
}

func (s *Sessions) evictOldestLocked() *Controller {
	var oldestID string
	var oldest *sessionEntry
	for id, e := range s.entries {
		if oldest == nil || e.lastSeen.Before(oldest.lastSeen) {
			oldestID, oldest = id, e
		}
	}
	if oldest == nil {
		return nil
	}
	delete(s.entries, oldestID)
	return oldest.ctrl
}

// Get returns an existing controller and marks it as used.
func (s *Sessions) Get(sessionID string) (*Controller, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[sessionID]
	if !ok {
		return nil, false
	}
	e.lastSeen = s.now()
	return e.ctrl, true
}

// Touch marks a session as used without returning it.
func (s *Sessions) Touch(sessionID string) {
	s.Get(sessionID)
}

func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Sweep closes every controller idle for longer than the TTL and returns how many were removed.
func (s *Sessions) Sweep() int {
	cutoff := s.now().Add(-s.ttl)

	s.mu.Lock()
	var stale []*Controller
	for id, e := range s.entries {
		if e.lastSeen.Before(cutoff) {
			stale = append(stale, e.ctrl)
			delete(s.entries, id)
		}
	}
	s.mu.Unlock()

	for _, ctrl := range stale {
		ctrl.Close()
	}
	if len(stale) > 0 {
		s.logger.Info("FEED", fmt.Sprintf("Swept %d idle feed sessions", len(stale)))
	}
	return len(stale)
}

// Run sweeps idle sessions until ctx is done.
func (s *Sessions) Run(ctx context.Context) {
	interval := s.ttl / 2
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}

// Broadcast fires trigger on every live controller concurrently.
func (s *Sessions) Broadcast(ctx context.Context, trigger Trigger) {
	s.mu.Lock()
	ctrls := make([]*Controller, 0, len(s.entries))
	for _, e := range s.entries {
		ctrls = append(ctrls, e.ctrl)
	}
	s.mu.Unlock()

	var wg sync.WaitGroup
	for _, ctrl := range ctrls {
		wg.Add(1)
		go func(ctrl *Controller) {
			defer wg.Done()
			if _, err := ctrl.Fire(ctx, trigger); err != nil && !errors.Is(err, ErrBusy) && !errors.Is(err, ErrClosed) {
				s.logger.LogFeed(string(trigger), ctrl.SessionID(), fmt.Sprintf("Broadcast load failed: %v", err))
			}
		}(ctrl)
	}
	wg.Wait()
	s.logger.Info("FEED", fmt.Sprintf("Broadcast %s to %d feeds", trigger, len(ctrls)))
}

// Close tears down every session. Later GetOrCreate calls fail with ErrClosed.
func (s *Sessions) Close() {
	s.mu.Lock()
	s.closed = true
	entries := s.entries
	s.entries = make(map[string]*sessionEntry)
	s.mu.Unlock()

	for _, e := range entries {
		e.ctrl.Close()
	}
}
