// Package panel implements the query panel: the query text, the request
// lifecycle against the search endpoint and the state the page renders.
package panel

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/ca-srg/researchpanel/internal/logging"
	"github.com/ca-srg/researchpanel/internal/research"
)

// ErrorMessage is the only failure text ever shown to the user
const ErrorMessage = "An error occurred while fetching search results."

var (
	// ErrEmptyQuery is returned when Submit is called without query text
	ErrEmptyQuery = errors.New("query is required")
	// ErrSuperseded is returned when a response was dropped because a newer
	// submission was issued while it was in flight
	ErrSuperseded = errors.New("response superseded by a newer submission")
)

// Status is the request lifecycle state
type Status string

const (
	StatusIdle      Status = "idle"
	StatusPending   Status = "pending"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Searcher issues one search request
type Searcher interface {
	Search(ctx context.Context, req research.Request) ([]research.Result, error)
}

// Snapshot is a copy of the panel state at one point in time
type Snapshot struct {
	Status       Status            `json:"status"`
	Query        string            `json:"query"`
	Results      []research.Result `json:"results"`
	ErrorMessage string            `json:"error_message,omitempty"`
	Pending      bool              `json:"pending"`
	Seq          uint64            `json:"seq"`
}

// Observer receives a snapshot after every state change.
// Observers are called one at a time, in the order the changes happened.
type Observer func(Snapshot)

// Option configures a Panel
type Option func(*Panel)

// WithLogger sets the diagnostics logger
func WithLogger(logger *slog.Logger) Option {
	return func(p *Panel) {
		p.logger = logging.OrDiscard(logger)
	}
}

// WithObserver registers a state change observer
func WithObserver(observer Observer) Option {
	return func(p *Panel) {
		if observer != nil {
			p.observers = append(p.observers, observer)
		}
	}
}

// WithDiscardSuperseded drops responses of submissions that are no longer the
// latest one. By default every response is applied and the last to resolve wins.
func WithDiscardSuperseded() Option {
	return func(p *Panel) {
		p.discardSuperseded = true
	}
}

// Panel owns the query text, the result set, the error message and the
// pending flag. It is safe for concurrent use.
type Panel struct {
	searcher          Searcher
	logger            *slog.Logger
	observers         []Observer
	discardSuperseded bool
	telemetry         *telemetry

	mu       sync.Mutex
	notifyMu sync.Mutex
	query    string
	results  []research.Result
	errMsg   string
	pending  bool
	status   Status
	seq      uint64
}

// New creates a panel in the Idle state
func New(searcher Searcher, opts ...Option) *Panel {
	p := &Panel{
		searcher: searcher,
		logger:   logging.Discard(),
		status:   StatusIdle,
		results:  []research.Result{},
	}
	for _, opt := range opts {
		opt(p)
	}
	p.telemetry = newTelemetry(p.logger)
	return p
}

// SetQuery replaces the query text
func (p *Panel) SetQuery(query string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.query = query
}

// Query returns the current query text
func (p *Panel) Query() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.query
}

// Snapshot returns a copy of the current state
func (p *Panel) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshotLocked()
}

// SubmitQuery sets the query text and submits it
func (p *Panel) SubmitQuery(ctx context.Context, query string) (Snapshot, error) {
	p.SetQuery(query)
	return p.Submit(ctx)
}

// Submit runs one request lifecycle for the current query and blocks until
// the response resolves. The returned snapshot reflects the state right after
// this submission's outcome was applied. Search failures are returned for
// diagnostics; the panel itself only exposes ErrorMessage.
func (p *Panel) Submit(ctx context.Context) (Snapshot, error) {
	p.mu.Lock()
	query := p.query
	if query == "" {
		snap := p.snapshotLocked()
		p.mu.Unlock()
		return snap, ErrEmptyQuery
	}

	p.seq++
	seq := p.seq
	p.errMsg = ""
	p.results = []research.Result{}
	p.pending = true
	p.status = StatusPending
	p.publishLocked()

	ctx, finish := p.telemetry.start(ctx, seq)
	start := time.Now()
	p.logger.Debug("search submitted", "seq", seq, "query_length", len(query))

	results, err := p.searcher.Search(ctx, research.NewRequest(query))

	p.mu.Lock()
	if p.discardSuperseded && seq != p.seq {
		snap := p.snapshotLocked()
		p.mu.Unlock()
		p.logger.Debug("dropping superseded response", "seq", seq, "latest", snap.Seq)
		finish(outcomeSuperseded, err)
		return snap, ErrSuperseded
	}

	p.pending = false
	if err != nil {
		p.status = StatusFailed
		p.errMsg = ErrorMessage
		p.results = []research.Result{}
		p.logger.Error("error fetching results",
			"seq", seq,
			"kind", string(research.KindOf(err)),
			"elapsed", time.Since(start),
			"error", err)
		finish(outcomeFailed, err)
	} else {
		p.status = StatusSucceeded
		p.results = results
		if p.results == nil {
			p.results = []research.Result{}
		}
		p.logger.Info("search completed",
			"seq", seq,
			"results", len(results),
			"elapsed", time.Since(start))
		finish(outcomeSucceeded, nil)
	}
	snap := p.publishLocked()

	return snap, err
}

// publishLocked releases p.mu and notifies observers of the state it held.
// notifyMu is taken before p.mu is released so observers see changes in order.
func (p *Panel) publishLocked() Snapshot {
	snap := p.snapshotLocked()
	if len(p.observers) == 0 {
		p.mu.Unlock()
		return snap
	}

	p.notifyMu.Lock()
	p.mu.Unlock()
	defer p.notifyMu.Unlock()

	for _, observer := range p.observers {
		observer(snap)
	}
	return snap
}

func (p *Panel) snapshotLocked() Snapshot {
	results := make([]research.Result, len(p.results))
	copy(results, p.results)
	return Snapshot{
		Status:       p.status,
		Query:        p.query,
		Results:      results,
		ErrorMessage: p.errMsg,
		Pending:      p.pending,
		Seq:          p.seq,
	}
}
