package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventUnmarshal_BackendShape(t *testing.T) {
	raw := `{
		"_id": "65a1",
		"title": "Harbour Lights",
		"location": "Circular Quay",
		"date": "2025-03-14T09:30:00.000Z",
		"imageUrl": "https://img.evbuc.com/a.jpg",
		"price": "$25",
		"isPromoted": true,
		"urgencySignal": "Selling fast",
		"hasPromoCode": true,
		"paidStatus": "paid",
		"ticketUrl": "https://www.eventbrite.com.au/e/1"
	}`

	var e Event
	require.NoError(t, json.Unmarshal([]byte(raw), &e))

	assert.Equal(t, "65a1", e.ID)
	assert.Equal(t, "Harbour Lights", e.Title)
	assert.Equal(t, Price("$25"), e.Price)
	assert.True(t, e.IsPromoted)
	assert.Equal(t, time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC), e.Date.UTC())
	assert.NoError(t, e.Validate())
}

func TestEventUnmarshal_AltIDAndNumericPrice(t *testing.T) {
	var e Event
	require.NoError(t, json.Unmarshal([]byte(`{"id":"e-7","date":"2025-01-01T00:00:00Z","price":19.5}`), &e))

	assert.Equal(t, "e-7", e.ID)
	assert.Equal(t, Price("19.5"), e.Price)
}

func TestEventUnmarshal_RoundTrip(t *testing.T) {
	in := Event{ID: "e-1", Title: "Night Market", Date: time.Date(2025, 5, 1, 18, 0, 0, 0, time.UTC), Price: "Free"}
	data, err := json.Marshal(in)
	require.NoError(t, err)

	var out Event
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, in.ID, out.ID)
	assert.Equal(t, in.Price, out.Price)
	assert.True(t, in.Date.Equal(out.Date))
}

func TestEventValidate(t *testing.T) {
	date := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	assert.ErrorIs(t, Event{Date: date}.Validate(), ErrMissingEventID)
	assert.ErrorIs(t, Event{ID: "x"}.Validate(), ErrMissingEventDate)
	assert.ErrorIs(t, Event{ID: "x", Date: date, TicketURL: "/tickets/1"}.Validate(), ErrInvalidTicketURL)
	assert.NoError(t, Event{ID: "x", Date: date, TicketURL: "https://example.com/t"}.Validate())
}

func TestIsAbsoluteHTTPURL(t *testing.T) {
	assert.True(t, IsAbsoluteHTTPURL("https://example.com/t"))
	assert.True(t, IsAbsoluteHTTPURL("http://example.com"))
	assert.False(t, IsAbsoluteHTTPURL("javascript:alert(1)"))
	assert.False(t, IsAbsoluteHTTPURL("//example.com/t"))
	assert.False(t, IsAbsoluteHTTPURL("/relative"))
	assert.False(t, IsAbsoluteHTTPURL(""))
}

func TestFetchParamsQuery(t *testing.T) {
	q := FetchParams{Page: 2, Limit: 12, StartDate: "2025-02-01", EndDate: "2025-02-01"}.Query()

	assert.Equal(t, "false", q.Get("upcoming"))
	assert.Equal(t, "12", q.Get("limit"))
	assert.Equal(t, "2", q.Get("page"))
	assert.Equal(t, "2025-02-01", q.Get("startDate"))
	assert.Equal(t, "2025-02-01", q.Get("endDate"))

	q = FetchParams{Page: 1, Limit: 100, Upcoming: true}.Query()
	assert.Equal(t, "true", q.Get("upcoming"))
	assert.False(t, q.Has("startDate"))
}

func TestSubscriptionUnmarshal(t *testing.T) {
	var s Subscription
	require.NoError(t, json.Unmarshal([]byte(`{"id":"s1","email":"a@b.co","eventId":"e1","optIn":true,"createdAt":"2025-01-02T03:04:05Z"}`), &s))
	assert.Equal(t, "s1", s.ID)
	assert.True(t, s.OptIn)
}
