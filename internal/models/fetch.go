package models

import (
	"net/url"
	"strconv"
)

// DayLayout is the calendar-day format used for date filters.
const DayLayout = "2006-01-02"

// FetchParams are the query parameters of the event listing.
type FetchParams struct {
	Page      int    `validate:"min=1"`
	Limit     int    `validate:"gt=0"`
	StartDate string `validate:"omitempty,datetime=2006-01-02"`
	EndDate   string `validate:"omitempty,datetime=2006-01-02"`
	Upcoming  bool
}

// Query encodes the params the way the backend expects them.
func (p FetchParams) Query() url.Values {
	q := url.Values{}
	q.Set("upcoming", strconv.FormatBool(p.Upcoming))
	q.Set("limit", strconv.Itoa(p.Limit))
	q.Set("page", strconv.Itoa(p.Page))
	if p.StartDate != "" {
		q.Set("startDate", p.StartDate)
	}
	if p.EndDate != "" {
		q.Set("endDate", p.EndDate)
	}
	return q
}
