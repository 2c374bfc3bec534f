// Package session implements the paging context of one active search.
//
// A Session walks the state machine
//
//	Idle -> Fetching -> PageReady -> Fetching ... -> Exhausted
//
// and can be cancelled from any state. Fetches run off the owner goroutine
// through an Executor; their completions come back to the owner, where a
// cancelled session or a superseded fetch drops the result without touching
// the store.
package session

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/mmcdole/reel/internal/domain"
	"github.com/mmcdole/reel/internal/store"
)

// State is a session lifecycle state
type State int

const (
	StateIdle State = iota
	StateFetching
	StatePageReady
	StateExhausted
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateFetching:
		return "fetching"
	case StatePageReady:
		return "page-ready"
	case StateExhausted:
		return "exhausted"
	case StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Executor runs work off the owner goroutine. The function work returns
// is a completion that the executor must run back on the owner.
type Executor interface {
	Submit(work func() (complete func()))
}

// Sink receives the outcome of a session's fetches, on the owner
type Sink interface {
	// PageMerged reports a page folded into the store and the changes it caused
	PageMerged(s *Session, events []domain.DiffEvent)
	// FetchFailed reports a failed fetch; the session stays resumable
	FetchFailed(s *Session, err error)
}

// Session is the live fetch context for one query
type Session struct {
	id         string
	generation uint64
	query      domain.QueryState

	state    State
	cursor   domain.Cursor // Continuation for the next fetch
	pages    int           // Pages merged so far
	requests uint64        // Fetches issued; the latest one is the only one accepted

	ctx    context.Context
	cancel context.CancelFunc

	transport domain.SearchTransport
	records   *store.RecordStore
	exec      Executor
	sink      Sink
	logger    *slog.Logger
}

// Config holds the collaborators of a session
type Config struct {
	Generation uint64 // Tag assigned by the owner, increasing per session
	Query      domain.QueryState
	Transport  domain.SearchTransport
	Records    *store.RecordStore
	Executor   Executor
	Sink       Sink
	Logger     *slog.Logger
}

// New creates an idle session. The query, filters included, is fixed for the
// session's lifetime.
func New(ctx context.Context, cfg Config) *Session {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	id := uuid.New().String()
	ctx, cancel := context.WithCancel(ctx)

	return &Session{
		id:         id,
		generation: cfg.Generation,
		query:      cfg.Query,
		state:      StateIdle,
		ctx:        ctx,
		cancel:     cancel,
		transport:  cfg.Transport,
		records:    cfg.Records,
		exec:       cfg.Executor,
		sink:       cfg.Sink,
		logger:     logger.With("session", id, "generation", cfg.Generation),
	}
}

func (s *Session) ID() string               { return s.id }
func (s *Session) Generation() uint64       { return s.generation }
func (s *Session) Query() domain.QueryState { return s.query }
func (s *Session) State() State             { return s.state }
func (s *Session) Cursor() domain.Cursor    { return s.cursor }
func (s *Session) Pages() int               { return s.pages }
func (s *Session) Cancelled() bool          { return s.state == StateCancelled }

// Start issues the first fetch. It returns false unless the session is idle.
func (s *Session) Start() bool {
	if s.state != StateIdle {
		return false
	}
	s.logger.Info("starting search", "query", s.query.Text, "sort", s.query.Filters.Sort.String())
	s.fetch()
	return true
}

// LoadMore fetches the next page. It is a no-op returning false in any state
// but PageReady.
func (s *Session) LoadMore() bool {
	if s.state != StatePageReady {
		return false
	}
	s.fetch()
	return true
}

// Cancel marks the session cancelled. Results still in flight are dropped
// when they arrive.
func (s *Session) Cancel() {
	if s.state == StateCancelled {
		return
	}
	s.logger.Debug("cancelling session", "state", s.state.String())
	s.state = StateCancelled
	s.cancel()
}

func (s *Session) fetch() {
	s.state = StateFetching
	s.requests++

	tag := s.requests
	cursor := s.cursor
	ctx := s.ctx
	query := s.query
	transport := s.transport

	s.logger.Debug("fetching page", "cursor", string(cursor), "request", tag)

	s.exec.Submit(func() func() {
		page, err := transport.FetchPage(ctx, query, cursor)
		return func() { s.complete(tag, page, err) }
	})
}

// complete runs on the owner
func (s *Session) complete(tag uint64, page domain.Page, err error) {
	if s.state == StateCancelled || tag != s.requests || s.state != StateFetching {
		s.logger.Debug("discarding stale result", "request", tag, "state", s.state.String())
		return
	}

	if err != nil {
		s.state = StatePageReady
		s.logger.Warn("search page failed", "error", err, "cursor", string(s.cursor))
		s.sink.FetchFailed(s, &domain.TransportError{Query: s.query.Text, Err: err})
		return
	}

	events := s.records.Merge(page)
	s.pages++
	s.cursor = page.Next
	if page.Next.Done() {
		s.state = StateExhausted
	} else {
		s.state = StatePageReady
	}

	s.logger.Debug("page merged",
		"page", s.pages,
		"records", len(page.Records),
		"events", len(events),
		"state", s.state.String(),
	)

	s.sink.PageMerged(s, events)
}
