package web

import (
	"context"
	"embed"
	"html/template"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"ms-events-web/internal/feed"
	"ms-events-web/internal/models"
	"ms-events-web/internal/utils"

	"github.com/a-h/templ"
)

//go:embed templates/*.html
var templateFS embed.FS

const displayDateLayout = "January 2, 2006 at 3:04 PM"

var templates = template.Must(template.New("web").Funcs(template.FuncMap{
	"formatDate": formatDate,
	"dayLabel":   utils.FormatDayLabel,
	"paidLabel":  paidLabel,
	"truncate":   truncate,
	"eventCard":  func(e models.Event) (template.HTML, error) { return toHTML(eventCard(e)) },
	"pager":      func(s feed.State) (template.HTML, error) { return toHTML(pager(s)) },
	"add":        func(a, b int) int { return a + b },
	"sub":        func(a, b int) int { return a - b },
}).ParseFS(templateFS, "templates/*.html"))

// htmxRequestHeader is set by htmx on every request it issues.
const htmxRequestHeader = "HX-Request"

func isHTMXRequest(r *http.Request) bool {
	if r == nil {
		return false
	}
	return strings.EqualFold(r.Header.Get(htmxRequestHeader), "true")
}

// component adapts a named template to a templ component.
func component(name string, data any) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return templates.ExecuteTemplate(w, name, data)
	})
}

func render(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	templ.Handler(component(name, data), templ.WithStatus(status)).ServeHTTP(w, r)
}

// renderPage serves fragment to htmx requests and the full page otherwise.
func renderPage(w http.ResponseWriter, r *http.Request, status int, fragment, page string, data any) {
	if isHTMXRequest(r) {
		render(w, r, status, fragment, data)
		return
	}
	render(w, r, status, page, data)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "Date to be announced"
	}
	return t.Format(displayDateLayout)
}

func paidLabel(status string) string {
	if strings.EqualFold(status, "paid") {
		return "Paid"
	}
	return "Free"
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return strings.TrimSpace(string(runes[:max])) + "..."
}
