package webui

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/ca-srg/researchpanel/internal/metrics"
	"github.com/ca-srg/researchpanel/internal/panel"
)

// handleIndex renders the full page for the session's panel
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		methodNotAllowed(w, http.MethodGet, http.MethodHead)
		return
	}

	_, p := s.sessionPanel(w, r)
	s.renderPanel(w, r, p.Snapshot(), false)
}

// handleSearch submits the form query and renders the resolved panel.
// HTMX requests get the panel partial, plain form posts the full page.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	sessionID, p := s.sessionPanel(w, r)
	p.SetQuery(r.PostFormValue("query"))

	// A disconnecting browser does not cancel the submission.
	snap, err := p.Submit(context.WithoutCancel(r.Context()))
	switch {
	case err == nil:
		metrics.RecordSubmission(metrics.ModeWebUI, metrics.OutcomeSucceeded)
	case errors.Is(err, panel.ErrEmptyQuery):
		s.logger.Debug("empty query ignored", "session", sessionID)
	case errors.Is(err, panel.ErrSuperseded):
		s.logger.Debug("superseded submission", "session", sessionID)
	default:
		metrics.RecordSubmission(metrics.ModeWebUI, metrics.OutcomeFailed)
	}

	s.renderPanel(w, r, snap, isHTMX(r))
}

// handlePartialResults renders the current panel for HTMX refreshes
func (s *Server) handlePartialResults(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	_, p := s.sessionPanel(w, r)
	s.renderPanel(w, r, p.Snapshot(), true)
}

// handleHealthz reports liveness and session counts
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		methodNotAllowed(w, http.MethodGet, http.MethodHead)
		return
	}

	s.writeJSON(w, &HealthResponse{
		Status:     "ok",
		Endpoint:   s.endpoint.String(),
		Sessions:   s.sessions.Len(),
		SSEClients: s.sseManager.GetClientCount(),
		Sweeper:    s.sweeper.GetState(),
		Time:       time.Now().UTC(),
	})
}

// handleAPIResearch forwards the search request to the configured endpoint
func (s *Server) handleAPIResearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	s.proxy.ServeHTTP(w, r)
}

// sessionPanel returns the panel of the request's session, starting a new
// session when the cookie is missing or the session was evicted
func (s *Server) sessionPanel(w http.ResponseWriter, r *http.Request) (string, *panel.Panel) {
	if cookie, err := r.Cookie(sessionCookieName); err == nil {
		if p, ok := s.sessions.Get(cookie.Value); ok {
			return cookie.Value, p
		}
	}

	id, p := s.sessions.Create()
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return id, p
}

func (s *Server) renderPanel(w http.ResponseWriter, r *http.Request, snap panel.Snapshot, partial bool) {
	view := panel.Render(snap)

	var (
		buf bytes.Buffer
		err error
	)
	if partial {
		err = s.templates.Render(&buf, panelTemplate, view)
	} else {
		err = s.templates.Render(&buf, pageTemplate, &PageData{Title: s.config.Title, View: view})
	}
	if err != nil {
		s.logger.Error("failed to render panel", "path", r.URL.Path, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = buf.WriteTo(w)
}

func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	for _, method := range allowed {
		w.Header().Add("Allow", method)
	}
	http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
}

func (s *Server) writeJSON(w http.ResponseWriter, data interface{}) {
	s.writeJSONStatus(w, http.StatusOK, data)
}

func (s *Server) writeJSONStatus(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("failed to encode JSON", "error", err)
	}
}
