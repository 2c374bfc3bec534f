package domain

import (
	"fmt"
	"strings"
)

// Quality tags a playable variant of a record
type Quality string

const (
	Quality240  Quality = "q240"
	Quality360  Quality = "q360"
	Quality480  Quality = "q480"
	Quality720  Quality = "q720"
	Quality1080 Quality = "q1080"
	QualityHLS  Quality = "qhls" // Adaptive stream
)

// Variant is a quality-tagged source for a record.
// An empty URL means the record is not available in this quality.
type Variant struct {
	Quality Quality `json:"quality"`
	URL     string  `json:"url,omitempty"`
}

// Available reports whether the variant carries a URL
func (v Variant) Available() bool {
	return v.URL != ""
}

// Record is a single search result
type Record struct {
	ID           string    `json:"id"`            // Stable within one query, scoped to the source
	Title        string    `json:"title"`         // Display title
	Duration     uint      `json:"duration"`      // Runtime in seconds
	ThumbnailURL string    `json:"thumbnail_url"` // Optional preview image
	Variants     []Variant `json:"variants"`      // Ordered quality variants
}

// Equal reports whether two records carry identical fields
func (r Record) Equal(other Record) bool {
	if r.ID != other.ID ||
		r.Title != other.Title ||
		r.Duration != other.Duration ||
		r.ThumbnailURL != other.ThumbnailURL ||
		len(r.Variants) != len(other.Variants) {
		return false
	}
	for i := range r.Variants {
		if r.Variants[i] != other.Variants[i] {
			return false
		}
	}
	return true
}

// PlayableURL returns the URL that should be played for this record.
// ok is false when no variant is available.
func (r Record) PlayableURL() (url string, ok bool) {
	return ResolveVariant(r.Variants)
}

// FormattedDuration renders the duration as m:ss or h:mm:ss
func (r Record) FormattedDuration() string {
	h := r.Duration / 3600
	m := (r.Duration % 3600) / 60
	s := r.Duration % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

// BestQuality returns the tag of the variant PlayableURL would pick
func (r Record) BestQuality() Quality {
	url, ok := r.PlayableURL()
	if !ok {
		return ""
	}
	for _, v := range r.Variants {
		if v.URL == url {
			return v.Quality
		}
	}
	return ""
}

// SortOrder selects the server-side ordering of results.
// The values match the persisted setting encoding.
type SortOrder string

const (
	SortAdded     SortOrder = "0"
	SortDuration  SortOrder = "1"
	SortRelevance SortOrder = "2"
)

// String returns a human-readable name for the sort order
func (s SortOrder) String() string {
	switch s {
	case SortAdded:
		return "added"
	case SortDuration:
		return "duration"
	case SortRelevance:
		return "relevance"
	default:
		return "unknown"
	}
}

// ParseSortOrder accepts either the persisted encoding or the readable name
func ParseSortOrder(s string) (SortOrder, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "0", "added":
		return SortAdded, nil
	case "1", "duration":
		return SortDuration, nil
	case "2", "relevance":
		return SortRelevance, nil
	default:
		return "", fmt.Errorf("unknown sort order %q", s)
	}
}

// Filters are the search-affecting settings captured when a session starts
type Filters struct {
	HDOnly       bool
	IncludeAdult bool
	Sort         SortOrder
	MinDuration  *uint // Seconds, nil when unset
	MaxDuration  *uint // Seconds, nil when unset
}

// DefaultFilters mirrors the settings defaults
func DefaultFilters() Filters {
	return Filters{
		HDOnly:       false,
		IncludeAdult: true,
		Sort:         SortAdded,
	}
}

// QueryState is the parameter set of one active search
type QueryState struct {
	Text    string
	Filters Filters
}

// Active reports whether the query describes a search at all
func (q QueryState) Active() bool {
	return strings.TrimSpace(q.Text) != ""
}

// Key returns a stable fingerprint of the query and its filters,
// used to key persisted snapshots.
func (q QueryState) Key() string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(q.Text))
	fmt.Fprintf(&b, "|hd=%t|adult=%t|sort=%s", q.Filters.HDOnly, q.Filters.IncludeAdult, q.Filters.Sort)
	if q.Filters.MinDuration != nil {
		fmt.Fprintf(&b, "|min=%d", *q.Filters.MinDuration)
	}
	if q.Filters.MaxDuration != nil {
		fmt.Fprintf(&b, "|max=%d", *q.Filters.MaxDuration)
	}
	return b.String()
}

// Cursor is an opaque continuation token. The zero value means there are no more pages.
type Cursor string

// Done reports whether the cursor marks the end of the result set
func (c Cursor) Done() bool {
	return c == ""
}

// Page is the result of one fetch
type Page struct {
	Records []Record
	Next    Cursor
}
