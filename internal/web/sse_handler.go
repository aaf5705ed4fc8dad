package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"ms-events-web/internal/feed"
	"ms-events-web/internal/sse"
)

const heartbeatInterval = 30 * time.Second

// BackgroundNotifier returns a feed change listener that pushes a notice to
// the session's browsers when a load was not requested by the browser itself.
func BackgroundNotifier(emitter *sse.FeedEventEmitter, sessionID string) func(feed.Trigger, feed.State) {
	return func(trigger feed.Trigger, s feed.State) {
		if trigger != feed.TriggerTimer && trigger != feed.TriggerCatalog {
			return
		}
		emitter.Emit(sessionID, sse.FeedNotice{
			Trigger: string(trigger),
			Page:    s.Page,
			Total:   s.Total,
			Error:   s.Err,
			At:      time.Now().UTC(),
		})
	}
}

func setupSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
}

// Stream pushes "refreshed" events to the browser whenever its feed reloads in the background.
func (h *Handler) Stream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}
	sessionID := h.sessionID(w, r)
	h.Sessions.Touch(sessionID)

	setupSSEHeaders(w)
	ctx := r.Context()
	notices := h.Emitter.Subscribe(ctx, sessionID)

	fmt.Fprint(w, "event: connected\ndata: {\"status\":\"connected\"}\n\n")
	flusher.Flush()
	h.Logger.Debug("SSE", fmt.Sprintf("Client connected to feed stream for session %s (%d open)", sessionID, h.Emitter.ClientCount(sessionID)))

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case notice, ok := <-notices:
			if !ok {
				return
			}
			data, err := json.Marshal(notice)
			if err != nil {
				h.Logger.Error("SSE", fmt.Sprintf("Failed to serialize feed notice: %v", err))
				continue
			}
			fmt.Fprintf(w, "event: refreshed\ndata: %s\n\n", data)
			flusher.Flush()
		case <-heartbeat.C:
			// an open stream keeps the session from being swept
			h.Sessions.Touch(sessionID)
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		case <-ctx.Done():
			h.Logger.Debug("SSE", fmt.Sprintf("Client disconnected from feed stream for session %s", sessionID))
			return
		}
	}
}
