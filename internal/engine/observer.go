package engine

import "github.com/mmcdole/reel/internal/domain"

// Observer receives the engine's change notifications on the owner goroutine.
//
// Changes arrive in batches: WillChangeContent, one DidChange per event in
// order, then DidChangeContent. Within a batch deletions and moves come before
// insertions, and insertions before updates, so applying them in order keeps
// indices consistent.
type Observer interface {
	WillChangeContent()
	DidChange(event domain.DiffEvent)
	DidChangeContent()

	// DidStartLoading fires when a search for a non-empty query begins
	DidStartLoading()
	// DidLoadAllResults fires once per search, when the last page has arrived
	DidLoadAllResults()
	// SearchFailed reports a failed page fetch. LoadMore retries it.
	SearchFailed(err error)
}

// NopObserver ignores every notification. Embed it to implement only some.
type NopObserver struct{}

func (NopObserver) WillChangeContent()         {}
func (NopObserver) DidChange(domain.DiffEvent) {}
func (NopObserver) DidChangeContent()          {}
func (NopObserver) DidStartLoading()           {}
func (NopObserver) DidLoadAllResults()         {}
func (NopObserver) SearchFailed(error)         {}
