package webui

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ca-srg/researchpanel/internal/logging"
	"github.com/ca-srg/researchpanel/internal/panel"
)

const (
	defaultSessionIdleTimeout = 30 * time.Minute
	defaultMaxSessions        = 1000
)

// PanelFactory builds the panel of a new session
type PanelFactory func(sessionID string) *panel.Panel

// EvictFunc is called after a session was removed from the registry
type EvictFunc func(sessionID string)

type session struct {
	id       string
	panel    *panel.Panel
	lastSeen time.Time
}

// SessionRegistry keeps one panel per browser session
type SessionRegistry struct {
	mu          sync.Mutex
	sessions    map[string]*session
	idleTimeout time.Duration
	maxSessions int
	factory     PanelFactory
	onEvict     EvictFunc
	now         func() time.Time
	logger      *slog.Logger
}

// NewSessionRegistry creates an empty registry
func NewSessionRegistry(idleTimeout time.Duration, maxSessions int, factory PanelFactory, logger *slog.Logger) *SessionRegistry {
	if idleTimeout <= 0 {
		idleTimeout = defaultSessionIdleTimeout
	}
	if maxSessions <= 0 {
		maxSessions = defaultMaxSessions
	}
	if factory == nil {
		factory = func(string) *panel.Panel { return panel.New(nil) }
	}

	return &SessionRegistry{
		sessions:    make(map[string]*session),
		idleTimeout: idleTimeout,
		maxSessions: maxSessions,
		factory:     factory,
		now:         time.Now,
		logger:      logging.OrDiscard(logger),
	}
}

// OnEvict sets the eviction callback
func (r *SessionRegistry) OnEvict(fn EvictFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onEvict = fn
}

// Get returns the panel of id and marks the session as used
func (r *SessionRegistry) Get(id string) (*panel.Panel, bool) {
	if id == "" {
		return nil, false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return nil, false
	}
	s.lastSeen = r.now()
	return s.panel, true
}

// Create starts a new session. The least recently used session is evicted
// when the registry is full.
func (r *SessionRegistry) Create() (string, *panel.Panel) {
	id := uuid.NewString()
	p := r.factory(id)

	r.mu.Lock()
	var evicted []string
	for len(r.sessions) >= r.maxSessions {
		oldest := r.oldestLocked()
		if oldest == "" {
			break
		}
		delete(r.sessions, oldest)
		evicted = append(evicted, oldest)
	}
	r.sessions[id] = &session{id: id, panel: p, lastSeen: r.now()}
	total := len(r.sessions)
	onEvict := r.onEvict
	r.mu.Unlock()

	for _, old := range evicted {
		r.logger.Info("session evicted, registry full", "session", old)
		if onEvict != nil {
			onEvict(old)
		}
	}
	r.logger.Debug("session created", "session", id, "total", total)
	return id, p
}

// Sweep removes sessions idle for longer than the idle timeout and returns
// how many were removed
func (r *SessionRegistry) Sweep() int {
	r.mu.Lock()
	cutoff := r.now().Add(-r.idleTimeout)
	var evicted []string
	for id, s := range r.sessions {
		if s.lastSeen.Before(cutoff) {
			delete(r.sessions, id)
			evicted = append(evicted, id)
		}
	}
	onEvict := r.onEvict
	r.mu.Unlock()

	for _, id := range evicted {
		if onEvict != nil {
			onEvict(id)
		}
	}
	if len(evicted) > 0 {
		r.logger.Info("idle sessions evicted", "count", len(evicted))
	}
	return len(evicted)
}

// Len returns the number of live sessions
func (r *SessionRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

func (r *SessionRegistry) oldestLocked() string {
	var (
		oldestID string
		oldestAt time.Time
	)
	for id, s := range r.sessions {
		if oldestID == "" || s.lastSeen.Before(oldestAt) {
			oldestID = id
			oldestAt = s.lastSeen
		}
	}
	return oldestID
}
