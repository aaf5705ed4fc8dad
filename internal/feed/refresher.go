package feed

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"ms-events-web/internal/logger"
)

// Refresher fires on a fixed interval until stopped.
type Refresher struct {
	interval time.Duration
	fire     func(context.Context) error
	logger   *logger.Logger

	startOnce sync.Once
	stopOnce  sync.Once
	stop      chan struct{}
}

func NewRefresher(interval time.Duration, fire func(context.Context) error, log *logger.Logger) *Refresher {
	if interval <= 0 {
		interval = DefaultRefreshInterval
	}
	return &Refresher{
		interval: interval,
		fire:     fire,
		logger:   log,
		stop:     make(chan struct{}),
	}
}

func (r *Refresher) Start() {
	r.startOnce.Do(func() {
		go r.run()
	})
}

func (r *Refresher) run() {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stop:
			return
		case <-ticker.C:
			err := r.fire(context.Background())
			switch {
			case err == nil:
			case errors.Is(err, ErrBusy):
				r.logger.Debug("FEED", "Refresh tick skipped: load in progress")
			case errors.Is(err, ErrClosed):
				return
			default:
				r.logger.Warn("FEED", fmt.Sprintf("Scheduled refresh failed: %v", err))
			}
		}
	}
}

// Stop cancels future ticks. It does not wait for a tick already firing.
func (r *Refresher) Stop() {
	r.stopOnce.Do(func() {
		close(r.stop)
	})
}
