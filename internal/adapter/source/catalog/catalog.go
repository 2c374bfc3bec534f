// Package catalog is an offline search transport over a JSON file of videos.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/mmcdole/reel/internal/domain"
)

const defaultPageSize = 50

// Entry is one video in the catalog file
type Entry struct {
	ID        string                    `json:"id"`
	Title     string                    `json:"title"`
	Duration  uint                      `json:"duration"` // Seconds
	Thumbnail string                    `json:"thumbnail,omitempty"`
	Adult     bool                      `json:"adult,omitempty"`
	Added     time.Time                 `json:"added"`
	Variants  map[domain.Quality]string `json:"variants"`
}

// hd reports whether the entry has a 720p or better stream
func (e Entry) hd() bool {
	return e.Variants[domain.Quality720] != "" || e.Variants[domain.Quality1080] != ""
}

func (e Entry) record() domain.Record {
	variants := make([]domain.Variant, 0, len(e.Variants))
	for q, u := range e.Variants {
		variants = append(variants, domain.Variant{Quality: q, URL: u})
	}
	// Map order is random; keep records comparable across fetches
	sort.Slice(variants, func(i, j int) bool { return variants[i].Quality < variants[j].Quality })

	return domain.Record{
		ID:           e.ID,
		Title:        e.Title,
		Duration:     e.Duration,
		ThumbnailURL: e.Thumbnail,
		Variants:     variants,
	}
}

// Source implements domain.SearchTransport over an in-memory catalog
type Source struct {
	entries  []Entry
	pageSize int
	logger   *slog.Logger
}

// New creates a source over entries
func New(entries []Entry, pageSize int, logger *slog.Logger) *Source {
	if logger == nil {
		logger = slog.Default()
	}
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	return &Source{entries: entries, pageSize: pageSize, logger: logger}
}

// Load reads a catalog file
func Load(path string, pageSize int, logger *slog.Logger) (*Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse catalog %s: %w", path, err)
	}

	seen := make(map[string]bool, len(entries))
	for i, e := range entries {
		if e.ID == "" {
			return nil, fmt.Errorf("catalog entry %d has no id", i)
		}
		if seen[e.ID] {
			return nil, fmt.Errorf("catalog entry %d: duplicate id %q", i, e.ID)
		}
		seen[e.ID] = true
	}

	s := New(entries, pageSize, logger)
	s.logger.Info("loaded catalog", "path", path, "entries", len(entries))
	return s, nil
}

type match struct {
	entry    Entry
	distance int
}

// FetchPage matches titles against the query text and returns the page at
// the cursor's offset.
func (s *Source) FetchPage(ctx context.Context, q domain.QueryState, cursor domain.Cursor) (domain.Page, error) {
	if err := ctx.Err(); err != nil {
		return domain.Page{}, err
	}

	offset := 0
	if cursor != "" {
		n, err := strconv.Atoi(string(cursor))
		if err != nil || n < 0 {
			return domain.Page{}, fmt.Errorf("invalid cursor %q", cursor)
		}
		offset = n
	}

	matches := s.search(q)
	if offset > len(matches) {
		offset = len(matches)
	}
	end := min(offset+s.pageSize, len(matches))

	page := domain.Page{Records: make([]domain.Record, 0, end-offset)}
	for _, m := range matches[offset:end] {
		page.Records = append(page.Records, m.entry.record())
	}
	if end < len(matches) {
		page.Next = domain.Cursor(strconv.Itoa(end))
	}

	s.logger.Debug("catalog page", "query", q.Text, "offset", offset, "matches", len(matches), "next", string(page.Next))
	return page, nil
}

// search returns every entry matching q, in the order q.Filters.Sort asks for
func (s *Source) search(q domain.QueryState) []match {
	f := q.Filters
	var out []match
	for _, e := range s.entries {
		if f.HDOnly && !e.hd() {
			continue
		}
		if !f.IncludeAdult && e.Adult {
			continue
		}
		if f.MinDuration != nil && e.Duration < *f.MinDuration {
			continue
		}
		if f.MaxDuration != nil && e.Duration > *f.MaxDuration {
			continue
		}
		distance := fuzzy.RankMatchFold(q.Text, e.Title)
		if distance < 0 {
			continue
		}
		out = append(out, match{entry: e, distance: distance})
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		switch f.Sort {
		case domain.SortDuration:
			if a.entry.Duration != b.entry.Duration {
				return a.entry.Duration > b.entry.Duration
			}
		case domain.SortRelevance:
			if a.distance != b.distance {
				return a.distance < b.distance
			}
		default:
			if !a.entry.Added.Equal(b.entry.Added) {
				return a.entry.Added.After(b.entry.Added)
			}
		}
		return a.entry.ID < b.entry.ID
	})
	return out
}
