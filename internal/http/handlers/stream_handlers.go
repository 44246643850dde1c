package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/sse"
	"github.com/rogerio-castellano/storefront/internal/storefront"
)

var pingInterval = 25 * time.Second

// StreamHandler godoc
// @Summary View event stream
// @Description Server-sent events carrying HTML fragments. The event name is the page slot to swap. A dropped stream may reconnect while the view is kept.
// @Tags views
// @Produce text/event-stream
// @Param id path string true "View ID"
// @Success 200 {string} string "event stream"
// @Failure 404 {string} string "view not found"
// @Failure 409 {string} string "view already attached"
// @Router /views/{id}/stream [get]
func StreamHandler(w http.ResponseWriter, r *http.Request) {
	v, ok := viewFromRequest(w, r)
	if !ok {
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	if !v.Attach() {
		http.Error(w, "view already attached", http.StatusConflict)
		return
	}
	// A dropped stream may come back; the service closes the view if it does not.
	defer service.Detach(v)

	w.Header().Set("Content-Type", sse.ContentType)
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	out := v.Outbox()
	// Frames queued while no stream was attached go out first.
	if err := writeFrames(w, out.Drain()); err != nil {
		return
	}
	flusher.Flush()

	ping := time.NewTicker(pingInterval)
	defer ping.Stop()

	for {
		select {
		case <-r.Context().Done():
			slog.Debug("view stream disconnected", "view", v.ID)
			return
		case <-out.Done():
			return
		case <-ping.C:
			if _, err := w.Write([]byte(": ping\n\n")); err != nil {
				return
			}
			flusher.Flush()
		case <-out.Ready():
			if err := writeFrames(w, out.Drain()); err != nil {
				slog.Debug("view stream write failed", "view", v.ID, "error", err)
				return
			}
			flusher.Flush()
		}
	}
}

func writeFrames(w http.ResponseWriter, frames []storefront.Frame) error {
	for _, f := range frames {
		if err := sse.Encode(w, sse.Event{Event: f.Event, Data: f.Data}); err != nil {
			return err
		}
	}
	return nil
}
