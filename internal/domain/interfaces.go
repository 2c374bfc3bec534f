package domain

import "context"

// SearchTransport fetches result pages from a remote source.
// Implementations own retry, backoff and timeouts.
type SearchTransport interface {
	// FetchPage returns the page following cursor; an empty cursor requests the first page
	FetchPage(ctx context.Context, query QueryState, cursor Cursor) (Page, error)
}

// FiltersSource supplies the search filters in effect right now.
// It is read once per session, when the session is created.
type FiltersSource interface {
	Filters() Filters
}

// FiltersFunc adapts a function to FiltersSource
type FiltersFunc func() Filters

func (f FiltersFunc) Filters() Filters { return f() }
