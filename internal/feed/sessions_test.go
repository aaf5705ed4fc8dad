package feed

import (
	"context"
	"io"
	"testing"
	"time"

	"ms-events-web/internal/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSessions(src EventSource, ttl time.Duration) *Sessions {
	return newBoundedSessions(src, ttl, 0)
}

func newBoundedSessions(src EventSource, ttl time.Duration, max int) *Sessions {
	log := logger.NewWithWriter(io.Discard)
	return NewSessions(func(id string) *Controller {
		return NewController(src, Options{SessionID: id, PageSize: 12, Logger: log})
	}, ttl, max, log)
}

func TestSessions_GetOrCreateMountsOnce(t *testing.T) {
	src := pagedSource(30, true)
	s := newTestSessions(src, time.Minute)
	defer s.Close()

	first, err := s.GetOrCreate(context.Background(), "a")
	require.NoError(t, err)
	assert.True(t, first.Snapshot().Loaded)

	again, err := s.GetOrCreate(context.Background(), "a")
	require.NoError(t, err)
	assert.Same(t, first, again)
	assert.Len(t, src.Calls(), 1)

	other, err := s.GetOrCreate(context.Background(), "b")
	require.NoError(t, err)
	assert.NotSame(t, first, other)
	assert.Equal(t, 2, s.Len())

	got, ok := s.Get("b")
	assert.True(t, ok)
	assert.Same(t, other, got)
	_, ok = s.Get("missing")
	assert.False(t, ok)
}

func TestSessions_SweepClosesIdle(t *testing.T) {
	src := pagedSource(30, true)
	s := newTestSessions(src, time.Minute)
	defer s.Close()

	now := time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	idle, err := s.GetOrCreate(context.Background(), "idle")
	require.NoError(t, err)
	now = now.Add(45 * time.Second)
	active, err := s.GetOrCreate(context.Background(), "active")
	require.NoError(t, err)

	now = now.Add(30 * time.Second)
	assert.Equal(t, 1, s.Sweep())
	assert.True(t, isClosed(idle))
	assert.False(t, isClosed(active))
	assert.Equal(t, 1, s.Len())

	s.Touch("active")
	now = now.Add(50 * time.Second)
	assert.Equal(t, 0, s.Sweep())
}

func TestSessions_Broadcast(t *testing.T) {
	src := pagedSource(30, true)
	s := newTestSessions(src, time.Minute)
	defer s.Close()

	a, _ := s.GetOrCreate(context.Background(), "a")
	b, _ := s.GetOrCreate(context.Background(), "b")
	_, err := a.GoTo(context.Background(), 2)
	require.NoError(t, err)

	s.Broadcast(context.Background(), TriggerCatalog)

	assert.Len(t, src.Calls(), 5)
	assert.Equal(t, 1, a.Snapshot().Page)
	assert.Equal(t, TriggerCatalog, a.Snapshot().LastTrigger)
	assert.Equal(t, TriggerCatalog, b.Snapshot().LastTrigger)
}

func TestSessions_Close(t *testing.T) {
	src := pagedSource(30, true)
	s := newTestSessions(src, time.Minute)

	a, _ := s.GetOrCreate(context.Background(), "a")
	s.Close()

	assert.True(t, isClosed(a))
	assert.Zero(t, s.Len())
	_, err := s.GetOrCreate(context.Background(), "b")
	assert.ErrorIs(t, err, ErrClosed)
}

func TestSessions_RunStopsWithContext(t *testing.T) {
	s := newTestSessions(pagedSource(1, true), time.Second)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestSessions_EvictsLeastRecentlyUsedAtLimit(t *testing.T) {
	src := pagedSource(30, true)
	s := newBoundedSessions(src, time.Minute, 2)
	defer s.Close()

	now := time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	a, err := s.GetOrCreate(context.Background(), "a")
	require.NoError(t, err)
	now = now.Add(time.Second)
	b, err := s.GetOrCreate(context.Background(), "b")
	require.NoError(t, err)
	now = now.Add(time.Second)
	s.Touch("a")

	now = now.Add(time.Second)
	c, err := s.GetOrCreate(context.Background(), "c")
	require.NoError(t, err)

	assert.Equal(t, 2, s.Len())
	assert.True(t, isClosed(b))
	assert.False(t, isClosed(a))
	assert.False(t, isClosed(c))
	_, ok := s.Get("b")
	assert.False(t, ok)
}
