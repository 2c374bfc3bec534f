// Package engine keeps the result list of the current search in sync with a
// remote source.
//
// The Engine owns one RecordStore and at most one active session. Setting a
// new query cancels the previous session, clears the store and starts a fresh
// search; results of superseded searches are dropped when they arrive.
// Everything happens on the owner goroutine: the Engine is not safe for
// concurrent use, and its executor must deliver completions back to the owner.
package engine

import (
	"context"
	"log/slog"
	"strings"

	"github.com/mmcdole/reel/internal/domain"
	"github.com/mmcdole/reel/internal/session"
	"github.com/mmcdole/reel/internal/store"
)

// Config holds the Engine's collaborators. Transport, Filters and Executor
// are required.
type Config struct {
	Transport domain.SearchTransport
	Filters   domain.FiltersSource
	Executor  session.Executor
	Observer  Observer
	Snapshots store.SnapshotSink // Optional write-through cache of results
	Logger    *slog.Logger
}

// Engine is the search synchronization facade used by the presentation layer
type Engine struct {
	ctx       context.Context
	transport domain.SearchTransport
	filters   domain.FiltersSource
	exec      session.Executor
	observer  Observer
	records   *store.RecordStore
	logger    *slog.Logger

	query      string
	active     *session.Session
	generation uint64
	allLoaded  bool // DidLoadAllResults already sent for the active session
}

// New creates an engine with no active query. ctx bounds every fetch the
// engine starts.
func New(ctx context.Context, cfg Config) *Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	observer := cfg.Observer
	if observer == nil {
		observer = NopObserver{}
	}

	return &Engine{
		ctx:       ctx,
		transport: cfg.Transport,
		filters:   cfg.Filters,
		exec:      cfg.Executor,
		observer:  observer,
		records:   store.NewRecordStore(cfg.Snapshots, logger),
		logger:    logger,
	}
}

// SetObserver replaces the observer. Use it when the observer is built after
// the engine.
func (e *Engine) SetObserver(o Observer) {
	if o == nil {
		o = NopObserver{}
	}
	e.observer = o
}

// Query returns the current query text, trimmed
func (e *Engine) Query() string { return e.query }

// SetQuery replaces the active search. Setting the current text again restarts
// the search with fresh filters. A blank text clears the results and leaves
// the engine idle.
func (e *Engine) SetQuery(text string) {
	text = strings.TrimSpace(text)

	e.generation++
	if e.active != nil {
		e.active.Cancel()
		e.active = nil
	}
	e.query = text
	e.allLoaded = false

	if text == "" {
		e.emit(e.records.Replace(""))
		e.logger.Debug("search cleared", "generation", e.generation)
		return
	}

	q := domain.QueryState{Text: text, Filters: e.filters.Filters()}
	e.emit(e.records.Replace(q.Key()))

	e.active = session.New(e.ctx, session.Config{
		Generation: e.generation,
		Query:      q,
		Transport:  e.transport,
		Records:    e.records,
		Executor:   e.exec,
		Sink:       sink{e},
		Logger:     e.logger,
	})
	e.observer.DidStartLoading()
	e.active.Start()
}

// Reload restarts the current search from scratch, picking up changed filters
func (e *Engine) Reload() {
	e.SetQuery(e.query)
}

// LoadMore requests the next page of the active search. It does nothing
// while a page is loading, after the last page, or without a query.
func (e *Engine) LoadMore() {
	if e.active == nil {
		return
	}
	e.active.LoadMore()
}

// State reports the active search's state; StateIdle without a query
func (e *Engine) State() session.State {
	if e.active == nil {
		return session.StateIdle
	}
	return e.active.State()
}

// SectionsCount is 1 while a query is active and 0 otherwise
func (e *Engine) SectionsCount() int {
	if e.query == "" {
		return 0
	}
	return 1
}

// VideosCount returns the number of records in section
func (e *Engine) VideosCount(section int) int {
	if section < 0 || section >= e.SectionsCount() {
		return 0
	}
	return e.records.Count()
}

// Video returns the record at index. An index outside the current results is
// a caller bug and panics.
func (e *Engine) Video(index int) domain.Record {
	return e.records.MustAt(index)
}

// VideoAt returns the record at index, or an error wrapping
// domain.ErrOutOfRange.
func (e *Engine) VideoAt(index int) (domain.Record, error) {
	return e.records.At(index)
}

// Snapshot returns a copy of the current results
func (e *Engine) Snapshot() []domain.Record {
	return e.records.Snapshot()
}

// emit sends one batch; empty batches are not sent
func (e *Engine) emit(events []domain.DiffEvent) {
	if len(events) == 0 {
		return
	}
	e.observer.WillChangeContent()
	for _, ev := range events {
		e.observer.DidChange(ev)
	}
	e.observer.DidChangeContent()
}

// current reports whether s is still the engine's active session
func (e *Engine) current(s *session.Session) bool {
	return s == e.active && s.Generation() == e.generation
}

// sink routes session outcomes to the observer
type sink struct{ e *Engine }

func (k sink) PageMerged(s *session.Session, events []domain.DiffEvent) {
	e := k.e
	if !e.current(s) {
		e.logger.Debug("dropping page of superseded search", "generation", s.Generation())
		return
	}

	e.emit(events)

	if s.State() == session.StateExhausted && !e.allLoaded {
		e.allLoaded = true
		e.logger.Info("all results loaded", "query", e.query, "count", e.records.Count(), "pages", s.Pages())
		e.observer.DidLoadAllResults()
	}
}

func (k sink) FetchFailed(s *session.Session, err error) {
	e := k.e
	if !e.current(s) {
		return
	}
	e.observer.SearchFailed(err)
}
