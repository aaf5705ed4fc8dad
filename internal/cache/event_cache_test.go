package cache

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"ms-events-web/internal/logger"
	"ms-events-web/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	listCalls   int
	detailCalls int
	err         error
}

func (f *fakeSource) GetEvents(ctx context.Context, params models.FetchParams) (*models.EventPage, error) {
	f.listCalls++
	if f.err != nil {
		return nil, f.err
	}
	total := 30
	return &models.EventPage{
		Data:  []models.Event{{ID: "a", Title: "A", Date: time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)}},
		Total: &total,
	}, nil
}

func (f *fakeSource) GetEvent(ctx context.Context, id string) (*models.Event, error) {
	f.detailCalls++
	if f.err != nil {
		return nil, f.err
	}
	return &models.Event{ID: id, Title: "Detail", Date: time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC), Price: "$25"}, nil
}

func setupCache(t *testing.T) (*EventCache, *fakeSource, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	src := &fakeSource{}
	return NewEventCache(src, client, time.Minute, logger.NewWithWriter(io.Discard)), src, mr
}

func TestEventCache_ListHitAfterMiss(t *testing.T) {
	c, src, _ := setupCache(t)
	params := models.FetchParams{Page: 1, Limit: 12}

	first, err := c.GetEvents(context.Background(), params)
	require.NoError(t, err)
	second, err := c.GetEvents(context.Background(), params)
	require.NoError(t, err)

	assert.Equal(t, 1, src.listCalls)
	require.Len(t, second.Data, 1)
	assert.Equal(t, first.Data[0].ID, second.Data[0].ID)
	require.NotNil(t, second.Total)
	assert.Equal(t, 30, *second.Total)
}

func TestEventCache_KeysDifferByQuery(t *testing.T) {
	c, src, _ := setupCache(t)

	_, err := c.GetEvents(context.Background(), models.FetchParams{Page: 1, Limit: 12})
	require.NoError(t, err)
	_, err = c.GetEvents(context.Background(), models.FetchParams{Page: 1, Limit: 12, StartDate: "2025-03-14", EndDate: "2025-03-14"})
	require.NoError(t, err)

	assert.Equal(t, 2, src.listCalls)
}

func TestEventCache_ExpiresAfterTTL(t *testing.T) {
	c, src, mr := setupCache(t)
	params := models.FetchParams{Page: 1, Limit: 12}

	_, err := c.GetEvents(context.Background(), params)
	require.NoError(t, err)
	mr.FastForward(2 * time.Minute)
	_, err = c.GetEvents(context.Background(), params)
	require.NoError(t, err)

	assert.Equal(t, 2, src.listCalls)
}

func TestEventCache_ErrorsAreNotCached(t *testing.T) {
	c, src, mr := setupCache(t)
	src.err = errors.New("backend down")

	_, err := c.GetEvent(context.Background(), "x")
	require.Error(t, err)
	assert.False(t, mr.Exists(detailKey("x")))

	src.err = nil
	event, err := c.GetEvent(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, models.Price("$25"), event.Price)
	assert.True(t, mr.Exists(detailKey("x")))
}

func TestEventCache_RedisDownFallsThrough(t *testing.T) {
	c, src, mr := setupCache(t)
	mr.Close()

	page, err := c.GetEvents(context.Background(), models.FetchParams{Page: 1, Limit: 12})
	require.NoError(t, err)
	assert.Len(t, page.Data, 1)
	assert.Equal(t, 1, src.listCalls)
}

func TestEventCache_Invalidate(t *testing.T) {
	c, src, mr := setupCache(t)
	params := models.FetchParams{Page: 1, Limit: 12}

	_, _ = c.GetEvents(context.Background(), params)
	_, _ = c.GetEvent(context.Background(), "x")
	require.NoError(t, mr.Set("unrelated", "keep"))

	require.NoError(t, c.Invalidate(context.Background()))
	assert.True(t, mr.Exists("unrelated"))

	_, _ = c.GetEvents(context.Background(), params)
	assert.Equal(t, 2, src.listCalls)
}

func TestEventCache_NilClientPassesThrough(t *testing.T) {
	src := &fakeSource{}
	c := NewEventCache(src, nil, 0, nil)

	_, err := c.GetEvent(context.Background(), "x")
	require.NoError(t, err)
	_, err = c.GetEvent(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, 2, src.detailCalls)
	assert.NoError(t, c.Invalidate(context.Background()))
}

func TestConnect(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := Connect(context.Background(), mr.Addr(), logger.NewWithWriter(io.Discard))
	require.NoError(t, err)
	defer client.Close()

	_, err = Connect(context.Background(), "127.0.0.1:1", logger.NewWithWriter(io.Discard))
	assert.Error(t, err)
}
