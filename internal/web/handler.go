package web

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"ms-events-web/internal/feed"
	"ms-events-web/internal/logger"
	"ms-events-web/internal/models"
	"ms-events-web/internal/qr"
	"ms-events-web/internal/sse"
	"ms-events-web/internal/utils"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

const sessionCookie = "feed_session"

// EventReader fetches a single event.
type EventReader interface {
	GetEvent(ctx context.Context, id string) (*models.Event, error)
}

// Subscriber turns a subscription intent into a ticket URL.
type Subscriber interface {
	Subscribe(ctx context.Context, intent models.SubscriptionIntent, fallbackTicketURL string) (string, error)
}

// Handler serves the events frontend.
type Handler struct {
	Sessions      *feed.Sessions
	Events        EventReader
	Subscriptions Subscriber
	QR            *qr.QRGenerator
	Emitter       *sse.FeedEventEmitter
	Infinite      bool
	Logger        *logger.Logger
	Now           func() time.Time
}

// NewRouter builds the chi router with the request middleware stack.
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(requestID)
	r.Use(h.logRequests)
	r.Use(middleware.Recoverer)
	h.RegisterRoutes(r)
	return r
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/events", http.StatusSeeOther)
	})
	r.Get("/healthz", h.Health)
	r.Get("/api/feed", h.FeedJSON)

	r.Route("/events", func(r chi.Router) {
		r.Get("/", h.EventsPage)
		r.Get("/list", h.EventsList)
		r.Get("/more", h.EventsMore)
		r.Post("/fire/{trigger}", h.Fire)
		r.Get("/stream", h.Stream)

		r.Route("/{eventID}", func(r chi.Router) {
			r.Get("/", h.EventDetail)
			r.Get("/tickets", h.TicketsForm)
			r.Post("/tickets", h.TicketsSubmit)
			r.Get("/qr.png", h.EventQR)
		})
	})
}

func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(utils.RequestIDHeader)
		if id == "" {
			id = utils.NewRequestID()
		}
		w.Header().Set(utils.RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(utils.WithRequestID(r.Context(), id)))
	})
}

func (h *Handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		h.Logger.LogAPI(r.Method, r.URL.Path, strconv.Itoa(status), time.Since(start).Round(time.Millisecond).String())
	})
}

func (h *Handler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

// sessionID returns the browser's feed session, issuing a cookie on first visit.
func (h *Handler) sessionID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(sessionCookie); err == nil {
		if _, err := uuid.Parse(c.Value); err == nil {
			return c.Value
		}
	}
	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

// loadContext keeps request values but not cancellation: a load already sent
// to the backend runs to completion even if the browser goes away.
func loadContext(r *http.Request) context.Context {
	return context.WithoutCancel(r.Context())
}

func (h *Handler) controller(w http.ResponseWriter, r *http.Request) (*feed.Controller, error) {
	return h.Sessions.GetOrCreate(loadContext(r), h.sessionID(w, r))
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("ok", map[string]int{
		"sessions": h.Sessions.Len(),
	}))
}
