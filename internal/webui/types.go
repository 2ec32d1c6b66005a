package webui

import (
	"time"

	"github.com/ca-srg/researchpanel/internal/panel"
)

// SSE event types
const (
	EventTypeConnected  = "connected"
	EventTypePanelState = "panel_state"
	EventTypeHeartbeat  = "heartbeat"
)

// SSEEvent represents a Server-Sent Event
type SSEEvent struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
	// Session limits delivery to clients of one browser session.
	// Empty means every client.
	Session string `json:"-"`
}

// PanelEvent is the payload of a panel_state event
type PanelEvent struct {
	Seq  uint64     `json:"seq"`
	View panel.View `json:"view"`
}

// PageData is the data for the full page template
type PageData struct {
	Title string
	View  panel.View
}

// HealthResponse is the body of GET /healthz
type HealthResponse struct {
	Status     string        `json:"status"`
	Endpoint   string        `json:"endpoint"`
	Sessions   int           `json:"sessions"`
	SSEClients int           `json:"sse_clients"`
	Sweeper    *SweeperState `json:"sweeper"`
	Time       time.Time     `json:"time"`
}

// SweeperState is the state of the idle session sweeper
type SweeperState struct {
	Enabled     bool          `json:"enabled"`
	Interval    time.Duration `json:"interval"`
	NextRunAt   time.Time     `json:"next_run_at,omitempty"`
	LastRunAt   time.Time     `json:"last_run_at,omitempty"`
	LastEvicted int           `json:"last_evicted"`
}

// APIErrorResponse is the JSON body of proxy errors
type APIErrorResponse struct {
	Error string `json:"error"`
}
