package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Event is a listed happening as served by the events backend.
type Event struct {
	ID            string    `json:"_id"`
	Title         string    `json:"title"`
	Description   string    `json:"description,omitempty"`
	Location      string    `json:"location,omitempty"`
	Date          time.Time `json:"date"`
	ImageURL      string    `json:"imageUrl,omitempty"`
	Price         Price     `json:"price,omitempty"`
	IsPromoted    bool      `json:"isPromoted,omitempty"`
	UrgencySignal string    `json:"urgencySignal,omitempty"`
	HasPromoCode  bool      `json:"hasPromoCode,omitempty"`
	PaidStatus    string    `json:"paidStatus,omitempty"`
	Source        string    `json:"source,omitempty"`
	TicketURL     string    `json:"ticketUrl,omitempty"`
}

// UnmarshalJSON accepts both "_id" and "id" as the identity field.
func (e *Event) UnmarshalJSON(data []byte) error {
	type alias Event
	var raw struct {
		alias
		AltID string `json:"id"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*e = Event(raw.alias)
	if e.ID == "" {
		e.ID = raw.AltID
	}
	return nil
}

var (
	ErrMissingEventID   = errors.New("event has no id")
	ErrMissingEventDate = errors.New("event has no date")
	ErrInvalidTicketURL = errors.New("ticket url is not an absolute http(s) url")
)

// Validate checks the backend invariants: a date is present and the
// ticket URL, when set, is absolute.
func (e Event) Validate() error {
	if e.ID == "" {
		return ErrMissingEventID
	}
	if e.Date.IsZero() {
		return ErrMissingEventDate
	}
	if e.TicketURL != "" && !IsAbsoluteHTTPURL(e.TicketURL) {
		return fmt.Errorf("event %s: %w: %q", e.ID, ErrInvalidTicketURL, e.TicketURL)
	}
	return nil
}

// IsAbsoluteHTTPURL reports whether raw is an absolute http or https URL with a host.
func IsAbsoluteHTTPURL(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	if !u.IsAbs() || u.Host == "" {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}

// Price is rendered verbatim. The backend sends it either as a label ("$25", "Free")
// or as a bare number.
type Price string

func (p *Price) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*p = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*p = Price(s)
		return nil
	}
	var n float64
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("price: %w", err)
	}
	*p = Price(strconv.FormatFloat(n, 'f', -1, 64))
	return nil
}

// EventPage is one page of the event listing. The pagination fields are
// optional on the wire.
type EventPage struct {
	Data       []Event `json:"data"`
	Total      *int    `json:"total,omitempty"`
	TotalPages *int    `json:"totalPages,omitempty"`
	Page       *int    `json:"page,omitempty"`
	Limit      *int    `json:"limit,omitempty"`
}
