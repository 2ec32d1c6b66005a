package webui

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/ca-srg/researchpanel/internal/panel"
)

// handleSSEPanel streams panel_state events of the request's session
func (s *Server) handleSSEPanel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	sessionID, p := s.sessionPanel(w, r)

	clientID := uuid.New().String()
	client, err := s.sseManager.RegisterClient(clientID, sessionID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	defer s.sseManager.UnregisterClient(clientID)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering

	_, _ = fmt.Fprintf(w, "event: %s\ndata: {\"client_id\":\"%s\"}\n\n", EventTypeConnected, clientID)

	// Current state first so a late subscriber starts in sync
	snap := p.Snapshot()
	if data, err := json.Marshal(PanelEvent{Seq: snap.Seq, View: panel.Render(snap)}); err == nil {
		_, _ = w.Write(formatSSEMessage(EventTypePanelState, data))
	}
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-client.Done:
			return
		case data, ok := <-client.Events:
			if !ok {
				return
			}
			_, _ = w.Write(data)
			flusher.Flush()
		}
	}
}
