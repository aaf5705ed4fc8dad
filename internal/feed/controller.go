package feed

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"ms-events-web/internal/backend"
	"ms-events-web/internal/logger"
	"ms-events-web/internal/models"
)

const (
	DefaultPageSize        = 12
	DefaultRefreshInterval = 10 * time.Minute

	loadFailedMessage = "Failed to load events"
)

var (
	ErrBusy           = errors.New("feed: a load is already in progress")
	ErrClosed         = errors.New("feed: controller is closed")
	ErrNoMorePages    = errors.New("feed: no more pages")
	ErrFirstPage      = errors.New("feed: already on the first page")
	ErrInvalidPage    = errors.New("feed: page must be at least 1")
	ErrInvalidDate    = errors.New("feed: date filter must be YYYY-MM-DD")
	ErrUnknownTrigger = errors.New("feed: unknown trigger")
)

// EventSource is the listing endpoint the controller reads from.
type EventSource interface {
	GetEvents(ctx context.Context, params models.FetchParams) (*models.EventPage, error)
}

// State is a point-in-time copy of the controller's view of the feed.
// Total and TotalPages are meaningless until Loaded is true.
type State struct {
	Events      []models.Event
	Loading     bool
	LoadingMore bool
	Err         string
	Page        int
	Limit       int
	Total       int
	TotalPages  int
	Loaded      bool
	DateFilter  string
	HasMore     bool
	LastTrigger Trigger
	UpdatedAt   time.Time
}

// Busy reports whether a load is in flight.
func (s State) Busy() bool {
	return s.Loading || s.LoadingMore
}

type Options struct {
	SessionID       string
	PageSize        int
	Upcoming        bool
	RefreshInterval time.Duration
	// OnChange is called outside the lock after every load resolves.
	OnChange func(Trigger, State)
	Logger   *logger.Logger
}

type lastLoad struct {
	page  int
	mode  Mode
	valid bool
}

// Controller owns the list state of one mounted feed.
type Controller struct {
	source EventSource
	opts   Options

	mu        sync.Mutex
	state     State
	last      lastLoad
	refresher *Refresher
	mounted   bool
	closed    bool
}

func NewController(source EventSource, opts Options) *Controller {
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}
	if opts.RefreshInterval <= 0 {
		opts.RefreshInterval = DefaultRefreshInterval
	}
	return &Controller{
		source: source,
		opts:   opts,
		state: State{
			Events:     []models.Event{},
			Page:       1,
			Limit:      opts.PageSize,
			TotalPages: 1,
		},
	}
}

func (c *Controller) SessionID() string {
	return c.opts.SessionID
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() State {
	s := c.state
	s.Events = append(make([]models.Event, 0, len(c.state.Events)), c.state.Events...)
	return s
}

// Load fetches page and merges it according to mode. A call made while
// another load is in flight is rejected with ErrBusy.
func (c *Controller) Load(ctx context.Context, page int, mode Mode, trigger Trigger) (*models.EventPage, error) {
	if page < 1 {
		return nil, ErrInvalidPage
	}
	return c.load(ctx, trigger, func(State) (int, Mode, error) {
		return page, mode, nil
	}, nil)
}

// target picks the page and mode to load. It runs under the lock, after the
// busy check, so the choice always reflects the state the result is merged into.
type target func(s State) (int, Mode, error)

func (c *Controller) load(ctx context.Context, trigger Trigger, pick target, prepare func(*State)) (*models.EventPage, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClosed
	}
	if c.state.Busy() {
		c.mu.Unlock()
		c.opts.Logger.LogFeed(string(trigger), c.opts.SessionID, "Skipped: load already in progress")
		return nil, ErrBusy
	}
	page, mode, err := pick(c.state)
	if err != nil {
		c.mu.Unlock()
		return nil, err
	}
	if prepare != nil {
		prepare(&c.state)
	}
	if mode == Append {
		c.state.LoadingMore = true
	} else {
		c.state.Loading = true
	}
	c.state.Err = ""
	c.last = lastLoad{page: page, mode: mode, valid: true}
	params := models.FetchParams{
		Page:      page,
		Limit:     c.opts.PageSize,
		StartDate: c.state.DateFilter,
		EndDate:   c.state.DateFilter,
		Upcoming:  c.opts.Upcoming,
	}
	c.mu.Unlock()

	res, err := c.source.GetEvents(ctx, params)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		c.opts.Logger.LogFeed(string(trigger), c.opts.SessionID, "Discarded response for closed feed")
		return nil, ErrClosed
	}
	c.state.Loading = false
	c.state.LoadingMore = false
	c.state.LastTrigger = trigger
	if err != nil {
		c.state.Err = backend.Message(err, loadFailedMessage)
		snap := c.snapshotLocked()
		c.mu.Unlock()
		c.opts.Logger.LogFeed(string(trigger), c.opts.SessionID, fmt.Sprintf("Load page %d (%s) failed: %s", page, mode, snap.Err))
		c.notify(trigger, snap)
		return nil, err
	}
	c.applyLocked(res, page, mode)
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.opts.Logger.LogFeed(string(trigger), c.opts.SessionID,
		fmt.Sprintf("Loaded page %d of %d (%s): %d events listed, %d total", snap.Page, snap.TotalPages, mode, len(snap.Events), snap.Total))
	c.notify(trigger, snap)
	return res, nil
}

func (c *Controller) applyLocked(res *models.EventPage, page int, mode Mode) {
	data := res.Data
	if mode == Append {
		combined := make([]models.Event, 0, len(c.state.Events)+len(data))
		combined = append(combined, c.state.Events...)
		c.state.Events = append(combined, data...)
	} else {
		c.state.Events = append([]models.Event{}, data...)
	}

	total := len(c.state.Events)
	if res.Total != nil {
		total = *res.Total
	}
	if total < 0 {
		total = 0
	}
	totalPages := 1
	if res.TotalPages != nil {
		totalPages = *res.TotalPages
	} else if total > 0 {
		totalPages = (total + c.opts.PageSize - 1) / c.opts.PageSize
	}
	if totalPages < 1 {
		totalPages = 1
	}

	c.state.Page = page
	c.state.Total = total
	c.state.TotalPages = totalPages
	c.state.HasMore = page < totalPages
	c.state.Loaded = true
	c.state.UpdatedAt = time.Now()
}

func (c *Controller) notify(trigger Trigger, s State) {
	if c.opts.OnChange != nil {
		c.opts.OnChange(trigger, s)
	}
}

// SetDateFilter sets the calendar-day filter (empty clears it), resets the
// page to 1 and reloads the first page.
func (c *Controller) SetDateFilter(ctx context.Context, day string) (*models.EventPage, error) {
	if day != "" {
		if _, err := time.Parse(models.DayLayout, day); err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidDate, day)
		}
	}
	return c.load(ctx, TriggerFilter, func(State) (int, Mode, error) {
		return 1, Replace, nil
	}, func(s *State) {
		s.DateFilter = day
		s.Page = 1
		s.HasMore = s.Loaded && s.TotalPages > 1
	})
}

// GoTo replaces the list with page.
func (c *Controller) GoTo(ctx context.Context, page int) (*models.EventPage, error) {
	return c.Load(ctx, page, Replace, TriggerPage)
}

// Fire runs the load a named trigger stands for. Pages relative to the
// current one are resolved against the state at the moment the load starts.
func (c *Controller) Fire(ctx context.Context, trigger Trigger) (*models.EventPage, error) {
	var pick target
	switch trigger {
	case TriggerMount, TriggerTimer, TriggerCatalog:
		pick = func(State) (int, Mode, error) { return 1, Replace, nil }
	case TriggerScroll:
		pick = func(s State) (int, Mode, error) {
			if !s.HasMore {
				return 0, Append, ErrNoMorePages
			}
			return s.Page + 1, Append, nil
		}
	case TriggerNext:
		pick = func(s State) (int, Mode, error) {
			if !s.HasMore {
				return 0, Replace, ErrNoMorePages
			}
			return s.Page + 1, Replace, nil
		}
	case TriggerPrevious:
		pick = func(s State) (int, Mode, error) {
			if s.Page <= 1 {
				return 0, Replace, ErrFirstPage
			}
			return s.Page - 1, Replace, nil
		}
	case TriggerManual:
		pick = func(s State) (int, Mode, error) { return s.Page, Replace, nil }
	case TriggerRetry:
		// called with c.mu held
		pick = func(State) (int, Mode, error) {
			if !c.last.valid {
				return 1, Replace, nil
			}
			return c.last.page, c.last.mode, nil
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownTrigger, trigger)
	}
	return c.load(ctx, trigger, pick, nil)
}

// Mount starts the periodic refresher and performs the initial load.
// Mounting twice is a no-op.
func (c *Controller) Mount(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.mounted {
		c.mu.Unlock()
		return nil
	}
	c.mounted = true
	c.refresher = NewRefresher(c.opts.RefreshInterval, func(ctx context.Context) error {
		_, err := c.Fire(ctx, TriggerTimer)
		return err
	}, c.opts.Logger)
	c.refresher.Start()
	c.mu.Unlock()

	_, err := c.Fire(ctx, TriggerMount)
	return err
}

// Close stops the refresher. Requests already in flight run to completion
// but their responses are discarded.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	r := c.refresher
	c.mu.Unlock()

	if r != nil {
		r.Stop()
	}
	c.opts.Logger.LogFeed("close", c.opts.SessionID, "Feed closed")
}
