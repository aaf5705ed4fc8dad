package web

import (
	"context"
	"fmt"
	"html/template"
	"io"
	"net/url"
	"strings"

	"ms-events-web/internal/feed"
	"ms-events-web/internal/models"

	"github.com/a-h/templ"
)

const cardDescriptionLimit = 160

func eventPath(id string) string {
	return "/events/" + url.PathEscape(id)
}

// eventCard renders one listing card.
func eventCard(e models.Event) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		href := templ.EscapeString(eventPath(e.ID))
		title := templ.EscapeString(e.Title)

		var b strings.Builder
		b.WriteString(`<article class="card">`)
		fmt.Fprintf(&b, `<a href="%s">`, href)
		if e.ImageURL != "" {
			fmt.Fprintf(&b, `<img src="%s" alt="%s">`, templ.EscapeString(string(templ.URL(e.ImageURL))), title)
		} else {
			b.WriteString(`<div class="placeholder"></div>`)
		}
		b.WriteString(`</a><div class="body"><div>`)
		if e.UrgencySignal != "" {
			fmt.Fprintf(&b, `<span class="badge urgent">%s</span>`, templ.EscapeString(e.UrgencySignal))
		}
		if e.IsPromoted {
			b.WriteString(`<span class="badge promoted">Promoted</span>`)
		}
		b.WriteString(`</div>`)
		fmt.Fprintf(&b, `<h3><a href="%s">%s</a></h3>`, href, title)
		fmt.Fprintf(&b, `<p>%s</p>`, templ.EscapeString(formatDate(e.Date)))
		if e.Location != "" {
			fmt.Fprintf(&b, `<p>%s</p>`, templ.EscapeString(e.Location))
		}
		if e.Price != "" {
			fmt.Fprintf(&b, `<p><strong>%s</strong>`, templ.EscapeString(string(e.Price)))
			if e.PaidStatus != "" {
				fmt.Fprintf(&b, ` <span class="badge">%s</span>`, paidLabel(e.PaidStatus))
			}
			b.WriteString(`</p>`)
		}
		if e.HasPromoCode {
			b.WriteString(`<span class="badge">Promo Code Available</span>`)
		}
		if e.Description != "" {
			fmt.Fprintf(&b, `<p class="muted">%s</p>`, templ.EscapeString(truncate(e.Description, cardDescriptionLimit)))
		}
		b.WriteString(`</div>`)
		fmt.Fprintf(&b, `<button hx-get="%s/tickets" hx-target="#modal" hx-swap="innerHTML">Get Tickets</button>`, href)
		b.WriteString(`</article>`)

		_, err := io.WriteString(w, b.String())
		return err
	})
}

// pager renders the Previous/Next controls for discrete paging. The links
// fire the named triggers; the hrefs keep paging usable without htmx.
func pager(s feed.State) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString(`<nav class="pager">`)
		if s.Page > 1 {
			fmt.Fprintf(&b, `<a href="/events?page=%d" hx-post="/events/fire/previous" hx-target="#feed" hx-swap="innerHTML">Previous</a>`, s.Page-1)
		} else {
			b.WriteString(`<span class="muted" aria-disabled="true">Previous</span>`)
		}
		fmt.Fprintf(&b, `<span>Page %d of %d</span>`, s.Page, s.TotalPages)
		if s.HasMore {
			fmt.Fprintf(&b, `<a href="/events?page=%d" hx-post="/events/fire/next" hx-target="#feed" hx-swap="innerHTML">Next</a>`, s.Page+1)
		} else {
			b.WriteString(`<span class="muted" aria-disabled="true">Next</span>`)
		}
		b.WriteString(`</nav>`)

		_, err := io.WriteString(w, b.String())
		return err
	})
}

// toHTML renders a templ component inside an html/template page.
func toHTML(c templ.Component) (template.HTML, error) {
	return templ.ToGoHTML(context.Background(), c)
}
