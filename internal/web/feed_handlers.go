package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"ms-events-web/internal/backend"
	"ms-events-web/internal/feed"
	"ms-events-web/internal/models"
	"ms-events-web/internal/utils"

	"github.com/go-chi/chi/v5"
)

type feedView struct {
	State    feed.State
	Infinite bool
	Notice   string
	Presets  []utils.DatePreset
}

type eventsPageView struct {
	Title string
	Feed  feedView
}

type moreView struct {
	Events []models.Event
	Err    string
	Feed   feedView
}

// feedPayload is the JSON shape of a feed snapshot. Totals stay null until
// the first successful load.
type feedPayload struct {
	Events      []models.Event `json:"events"`
	Loading     bool           `json:"loading"`
	LoadingMore bool           `json:"loadingMore"`
	Error       string         `json:"error,omitempty"`
	Page        int            `json:"page"`
	Limit       int            `json:"limit"`
	Total       *int           `json:"total"`
	TotalPages  *int           `json:"totalPages"`
	DateFilter  string         `json:"dateFilter,omitempty"`
	HasMore     bool           `json:"hasMore"`
	Paging      string         `json:"paging"`
	Trigger     feed.Trigger   `json:"trigger,omitempty"`
	UpdatedAt   *time.Time     `json:"updatedAt,omitempty"`
}

func (h *Handler) view(ctrl *feed.Controller, notice string) feedView {
	return feedView{
		State:    ctrl.Snapshot(),
		Infinite: h.Infinite,
		Notice:   notice,
		Presets:  utils.DatePresets,
	}
}

// noticeFor turns controller errors into a short message. Backend failures
// are already in the state and yield no notice.
func noticeFor(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, feed.ErrBusy):
		return "Events are still loading. Please wait a moment."
	case errors.Is(err, feed.ErrInvalidDate):
		return "Please choose a valid date."
	case errors.Is(err, feed.ErrInvalidPage):
		return "Page must be a positive number."
	case errors.Is(err, feed.ErrNoMorePages):
		return "You're on the last page."
	case errors.Is(err, feed.ErrFirstPage):
		return "You're on the first page."
	case errors.Is(err, feed.ErrClosed):
		return "This feed has expired. Reload the page to start again."
	default:
		return ""
	}
}

// applyQuery applies navigation and filter parameters to the controller.
// Precedence: clear, preset, date, page.
func (h *Handler) applyQuery(ctx context.Context, ctrl *feed.Controller, q url.Values) string {
	state := ctrl.Snapshot()
	var err error
	switch {
	case q.Get("clear") != "":
		_, err = ctrl.SetDateFilter(ctx, "")
	case q.Get("preset") != "":
		day, perr := utils.PresetDay(q.Get("preset"), h.now())
		if perr != nil {
			return "Unknown date preset."
		}
		_, err = ctrl.SetDateFilter(ctx, day)
	case q.Has("date") && strings.TrimSpace(q.Get("date")) != state.DateFilter:
		_, err = ctrl.SetDateFilter(ctx, strings.TrimSpace(q.Get("date")))
	case q.Get("page") != "":
		page, perr := strconv.Atoi(q.Get("page"))
		if perr != nil || page < 1 {
			return noticeFor(feed.ErrInvalidPage)
		}
		if state.Loaded && page > state.TotalPages {
			page = state.TotalPages
		}
		if page != state.Page || !state.Loaded {
			_, err = ctrl.GoTo(ctx, page)
		}
	}
	return noticeFor(err)
}

func (h *Handler) EventsPage(w http.ResponseWriter, r *http.Request) {
	ctrl, err := h.controller(w, r)
	if err != nil {
		h.serviceUnavailable(w, r, err)
		return
	}
	notice := h.applyQuery(loadContext(r), ctrl, r.URL.Query())
	renderPage(w, r, http.StatusOK, "feed", "events_page", eventsPageView{
		Title: "Discover Events",
		Feed:  h.view(ctrl, notice),
	})
}

// EventsList renders the feed fragment, applying the same query parameters as the page.
func (h *Handler) EventsList(w http.ResponseWriter, r *http.Request) {
	ctrl, err := h.controller(w, r)
	if err != nil {
		h.serviceUnavailable(w, r, err)
		return
	}
	notice := h.applyQuery(loadContext(r), ctrl, r.URL.Query())
	render(w, r, http.StatusOK, "feed", h.view(ctrl, notice))
}

// EventsMore appends the next page for infinite scroll.
func (h *Handler) EventsMore(w http.ResponseWriter, r *http.Request) {
	if !isHTMXRequest(r) {
		http.Redirect(w, r, "/events", http.StatusSeeOther)
		return
	}
	ctrl, err := h.controller(w, r)
	if err != nil {
		h.serviceUnavailable(w, r, err)
		return
	}

	res, err := ctrl.Fire(loadContext(r), feed.TriggerScroll)
	switch {
	case err == nil:
		render(w, r, http.StatusOK, "more", moreView{Events: res.Data, Feed: h.view(ctrl, "")})
	case errors.Is(err, feed.ErrBusy), errors.Is(err, feed.ErrNoMorePages):
		render(w, r, http.StatusOK, "sentinel", h.view(ctrl, ""))
	default:
		render(w, r, http.StatusOK, "more", moreView{
			Err:  backend.Message(err, "Failed to load events"),
			Feed: h.view(ctrl, ""),
		})
	}
}

// Fire runs a browser-fired trigger (next, previous, scroll, manual, retry)
// against the session's feed.
func (h *Handler) Fire(w http.ResponseWriter, r *http.Request) {
	trigger, err := feed.ParseTrigger(chi.URLParam(r, "trigger"))
	if err != nil {
		http.NotFound(w, r)
		return
	}
	ctrl, err := h.controller(w, r)
	if err != nil {
		h.serviceUnavailable(w, r, err)
		return
	}
	_, err = ctrl.Fire(loadContext(r), trigger)
	if !isHTMXRequest(r) {
		http.Redirect(w, r, "/events", http.StatusSeeOther)
		return
	}
	render(w, r, http.StatusOK, "feed", h.view(ctrl, noticeFor(err)))
}

// FeedJSON returns the session's feed state.
func (h *Handler) FeedJSON(w http.ResponseWriter, r *http.Request) {
	ctrl, err := h.controller(w, r)
	if err != nil {
		utils.WriteJSON(w, http.StatusServiceUnavailable, utils.ErrorResponse("Feed unavailable", err.Error()))
		return
	}
	if notice := h.applyQuery(loadContext(r), ctrl, r.URL.Query()); notice != "" {
		h.Logger.Debug("API", fmt.Sprintf("Feed query not applied: %s", notice))
	}

	s := ctrl.Snapshot()
	payload := feedPayload{
		Events:      s.Events,
		Loading:     s.Loading,
		LoadingMore: s.LoadingMore,
		Error:       s.Err,
		Page:        s.Page,
		Limit:       s.Limit,
		DateFilter:  s.DateFilter,
		HasMore:     s.HasMore,
		Paging:      "discrete",
	}
	if h.Infinite {
		payload.Paging = "infinite"
	}
	if s.Loaded {
		payload.Total = &s.Total
		payload.TotalPages = &s.TotalPages
		payload.Trigger = s.LastTrigger
		payload.UpdatedAt = &s.UpdatedAt
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Feed state", payload))
}

func (h *Handler) serviceUnavailable(w http.ResponseWriter, r *http.Request, err error) {
	h.Logger.Error("WEB", fmt.Sprintf("Feed unavailable: %v", err))
	renderPage(w, r, http.StatusServiceUnavailable, "error_fragment", "error_page", errorView{
		Title:   "Unavailable",
		Message: "The events feed is shutting down. Please try again shortly.",
	})
}
