package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/revreach/revreach/internal/core/domain"
)

// handleCampaignSSE streams campaign lifecycle events (stage changes,
// checkpoint activity, send results) as server-sent events until the
// client disconnects.
// GET /v1/campaigns/{id}/events
func (s *Server) handleCampaignSSE(w http.ResponseWriter, r *http.Request) {
	id := domain.CampaignID(campaignIDFromPath(r.URL.Path, "/events"))

	if _, err := s.campaigns.GetCampaign(r.Context(), id); err != nil {
		if errors.Is(err, domain.ErrCampaignNotFound) {
			http.Error(w, "campaign not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	fmt.Fprintf(w, "event: connected\ndata: %s\n\n", id)
	flusher.Flush()

	ch, unsub := s.eventBus.Subscribe(id)
	defer unsub()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", evt.Type, evt.Data)
			flusher.Flush()
		}
	}
}
