package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"ms-events-web/internal/logger"
	"ms-events-web/internal/models"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

func TestProducer_PublishClickthrough(t *testing.T) {
	w := &fakeWriter{}
	p := &Producer{Writer: w, logger: logger.NewWithWriter(io.Discard)}

	click := models.Clickthrough{EventID: "e1", OptIn: true, TicketHost: "tickets.example.com", OccurredAt: time.Now().UTC()}
	require.NoError(t, p.PublishClickthrough(context.Background(), click))

	require.Len(t, w.msgs, 1)
	assert.Equal(t, "e1", string(w.msgs[0].Key))
	var got map[string]any
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &got))
	assert.Equal(t, "tickets.example.com", got["ticketHost"])
	assert.NotContains(t, got, "email")
}

func TestProducer_PublishError(t *testing.T) {
	p := &Producer{Writer: &fakeWriter{err: errors.New("broker down")}}
	err := p.PublishClickthrough(context.Background(), models.Clickthrough{EventID: "e1"})
	assert.ErrorContains(t, err, "broker down")
}

type fakeReader struct {
	mu   sync.Mutex
	msgs []kafka.Message
	errs []error
}

func (r *fakeReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	if len(r.errs) > 0 {
		err := r.errs[0]
		r.errs = r.errs[1:]
		r.mu.Unlock()
		return kafka.Message{}, err
	}
	if len(r.msgs) > 0 {
		msg := r.msgs[0]
		r.msgs = r.msgs[1:]
		r.mu.Unlock()
		return msg, nil
	}
	r.mu.Unlock()
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (r *fakeReader) Close() error { return nil }

func TestConsumer_DeliversUpdatesAndSkipsGarbage(t *testing.T) {
	r := &fakeReader{
		errs: []error{errors.New("transient")},
		msgs: []kafka.Message{
			{Topic: "events.catalog.updated", Value: []byte(`not json`)},
			{Topic: "events.catalog.updated", Value: []byte(`{"reason":"scrape"}`)},
			{Topic: "events.catalog.updated"},
		},
	}
	c := &Consumer{reader: r, logger: logger.NewWithWriter(io.Discard), backoff: time.Millisecond}

	ctx, cancel := context.WithCancel(context.Background())
	var mu sync.Mutex
	var got []models.CatalogUpdate
	done := make(chan struct{})
	go func() {
		c.Start(ctx, func(_ context.Context, u models.CatalogUpdate) {
			mu.Lock()
			got = append(got, u)
			mu.Unlock()
		})
		close(done)
	}()

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 2
	}, time.Second, 5*time.Millisecond)
	cancel()
	<-done

	assert.Equal(t, "scrape", got[0].Reason)
	assert.Empty(t, got[1].Reason)
}

func TestEnsureTopicsExist_NoBrokers(t *testing.T) {
	assert.Error(t, EnsureTopicsExist(nil, []string{"t"}, nil))
}
