package web

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"ms-events-web/internal/feed"
	"ms-events-web/internal/models"

	"github.com/a-h/templ"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func renderComponent(t *testing.T, c templ.Component) string {
	t.Helper()
	var b strings.Builder
	require.NoError(t, c.Render(context.Background(), &b))
	return b.String()
}

func TestFormatDate(t *testing.T) {
	assert.Equal(t, "March 14, 2025 at 9:30 PM", formatDate(time.Date(2025, 3, 14, 21, 30, 0, 0, time.UTC)))
	assert.Equal(t, "Date to be announced", formatDate(time.Time{}))
}

func TestPaidLabel(t *testing.T) {
	assert.Equal(t, "Paid", paidLabel("paid"))
	assert.Equal(t, "Free", paidLabel("free"))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abc...", truncate("abc def", 4))
}

func TestIsHTMXRequest(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	assert.False(t, isHTMXRequest(r))
	r.Header.Set("HX-Request", "true")
	assert.True(t, isHTMXRequest(r))
	assert.False(t, isHTMXRequest(nil))
}

func TestEventCard(t *testing.T) {
	out := renderComponent(t, eventCard(models.Event{
		ID:            "a b",
		Title:         "Fish & <Chips>",
		Date:          time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC),
		ImageURL:      "javascript:alert(1)",
		Price:         "$25",
		PaidStatus:    "paid",
		UrgencySignal: "Selling fast",
		HasPromoCode:  true,
	}))

	assert.True(t, strings.HasPrefix(out, `<article class="card">`))
	assert.Contains(t, out, `href="/events/a%20b"`)
	assert.Contains(t, out, `Fish &amp; &lt;Chips&gt;`)
	assert.NotContains(t, out, "javascript:")
	assert.Contains(t, out, "March 14, 2025 at 9:30 AM")
	assert.Contains(t, out, `<strong>$25</strong> <span class="badge">Paid</span>`)
	assert.Contains(t, out, "Selling fast")
	assert.Contains(t, out, "Promo Code Available")
	assert.Contains(t, out, `hx-get="/events/a%20b/tickets"`)
}

func TestPager(t *testing.T) {
	out := renderComponent(t, pager(feed.State{Page: 1, TotalPages: 3, HasMore: true}))
	assert.Contains(t, out, `aria-disabled="true">Previous`)
	assert.Contains(t, out, "Page 1 of 3")
	assert.Contains(t, out, `href="/events?page=2" hx-post="/events/fire/next"`)

	out = renderComponent(t, pager(feed.State{Page: 3, TotalPages: 3}))
	assert.Contains(t, out, `href="/events?page=2" hx-post="/events/fire/previous"`)
	assert.Contains(t, out, `aria-disabled="true">Next`)
}
