package web

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"ms-events-web/internal/backend"
	"ms-events-web/internal/models"
	"ms-events-web/internal/subscription"

	"github.com/go-chi/chi/v5"
)

type errorView struct {
	Title   string
	Message string
}

type detailView struct {
	Title    string
	Event    *models.Event
	ShareURL string
}

type ticketsView struct {
	Title string
	Event *models.Event
	Email string
	OptIn bool
	Error string
}

type handoffView struct {
	TicketURL string
}

func (h *Handler) renderEventError(w http.ResponseWriter, r *http.Request, err error) {
	status := backend.HTTPStatus(err)
	// htmx drops non-2xx bodies, so fragments always go out as 200.
	if isHTMXRequest(r) {
		status = http.StatusOK
	}
	renderPage(w, r, status, "error_fragment", "error_page", errorView{
		Title:   "Event unavailable",
		Message: backend.Message(err, "Event not found"),
	})
}

func (h *Handler) EventDetail(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")
	event, err := h.Events.GetEvent(r.Context(), eventID)
	if err != nil {
		h.Logger.Warn("WEB", fmt.Sprintf("Event %s unavailable: %v", eventID, err))
		h.renderEventError(w, r, err)
		return
	}
	render(w, r, http.StatusOK, "detail_page", detailView{
		Title:    event.Title,
		Event:    event,
		ShareURL: h.QR.EventURL(event.ID),
	})
}

// TicketsForm renders the email capture dialog.
func (h *Handler) TicketsForm(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")
	event, err := h.Events.GetEvent(r.Context(), eventID)
	if err != nil {
		h.renderEventError(w, r, err)
		return
	}
	renderPage(w, r, http.StatusOK, "tickets_modal", "tickets_page", ticketsView{
		Title: "Get Tickets: " + event.Title,
		Event: event,
		OptIn: true,
	})
}

func parseOptIn(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true", "on", "1", "yes":
		return true
	default:
		return false
	}
}

// TicketsSubmit records the subscription and hands the visitor off to the ticket URL.
func (h *Handler) TicketsSubmit(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}
	intent := models.SubscriptionIntent{
		Email:   strings.TrimSpace(r.PostFormValue("email")),
		EventID: eventID,
		OptIn:   parseOptIn(r.PostFormValue("optIn")),
	}

	// The event's own ticket link is only a fallback, so a failed lookup is not fatal.
	event, err := h.Events.GetEvent(r.Context(), eventID)
	if err != nil {
		h.Logger.Warn("WEB", fmt.Sprintf("Ticket fallback lookup for %s failed: %v", eventID, err))
		event = &models.Event{ID: eventID}
	}

	target, err := h.Subscriptions.Subscribe(loadContext(r), intent, event.TicketURL)
	switch {
	case err == nil:
		if isHTMXRequest(r) {
			render(w, r, http.StatusOK, "handoff", handoffView{TicketURL: target})
			return
		}
		http.Redirect(w, r, target, http.StatusSeeOther)
	case errors.Is(err, subscription.ErrNoTicketURL):
		if isHTMXRequest(r) {
			render(w, r, http.StatusOK, "handoff", handoffView{})
			return
		}
		http.Redirect(w, r, "/events/"+eventID, http.StatusSeeOther)
	default:
		status := http.StatusUnprocessableEntity
		if isHTMXRequest(r) {
			status = http.StatusOK
		}
		renderPage(w, r, status, "tickets_modal", "tickets_page", ticketsView{
			Title: "Get Tickets",
			Event: event,
			Email: intent.Email,
			OptIn: intent.OptIn,
			Error: backend.Message(err, "Something went wrong. Please try again."),
		})
	}
}

// EventQR serves a PNG QR code linking to the event page.
func (h *Handler) EventQR(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")
	png, err := h.QR.GenerateEventQR(eventID)
	if err != nil {
		h.Logger.Error("WEB", fmt.Sprintf("QR generation for %s failed: %v", eventID, err))
		http.Error(w, "Could not generate QR code", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	_, _ = w.Write(png)
}
