package store

import (
	"log/slog"

	"github.com/mmcdole/reel/internal/domain"
)

// SnapshotSink receives the store contents after every change.
// The cache DB implements it.
type SnapshotSink interface {
	SaveSnapshot(queryKey string, records []domain.Record) error
	DiscardSnapshot(queryKey string) error
}

// RecordStore is the ordered, deduplicated result collection of the current query.
//
// Order is the order in which records were first seen: a page's new records are
// appended after everything already held, in the order the page lists them.
// A record seen again is updated where it stands. Not safe for concurrent use;
// the engine owns it.
type RecordStore struct {
	key     string // Query fingerprint the contents belong to
	records []domain.Record
	index   map[string]int // Record ID -> position

	sink   SnapshotSink
	logger *slog.Logger
}

// NewRecordStore creates an empty store. sink may be nil.
func NewRecordStore(sink SnapshotSink, logger *slog.Logger) *RecordStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &RecordStore{
		index:  make(map[string]int),
		sink:   sink,
		logger: logger,
	}
}

// Key returns the fingerprint of the query the store currently holds
func (s *RecordStore) Key() string { return s.key }

// Count returns the number of records held
func (s *RecordStore) Count() int { return len(s.records) }

// At returns the record at index
func (s *RecordStore) At(index int) (domain.Record, error) {
	if index < 0 || index >= len(s.records) {
		return domain.Record{}, domain.OutOfRange(index, len(s.records))
	}
	return s.records[index], nil
}

// MustAt is At for callers that hold a current index; it panics otherwise
func (s *RecordStore) MustAt(index int) domain.Record {
	r, err := s.At(index)
	if err != nil {
		panic(err)
	}
	return r
}

// Snapshot returns a copy of the current ordered contents
func (s *RecordStore) Snapshot() []domain.Record {
	out := make([]domain.Record, len(s.records))
	copy(out, s.records)
	return out
}

// Merge folds a page into the store and returns the changes it caused.
//
// The batch holds Insert events for new records (ascending indices at the tail)
// followed by Update events for already-held records whose fields changed.
// Merging an identical page again yields no Insert or Delete.
func (s *RecordStore) Merge(page domain.Page) []domain.DiffEvent {
	var inserts, updates []domain.DiffEvent

	for _, r := range page.Records {
		if i, ok := s.index[r.ID]; ok {
			if !s.records[i].Equal(r) {
				s.records[i] = r
				updates = append(updates, domain.Update{Record: r, Index: i})
			}
			continue
		}

		i := len(s.records)
		s.records = append(s.records, r)
		s.index[r.ID] = i
		inserts = append(inserts, domain.Insert{Record: r, Index: i})
	}

	events := append(inserts, updates...)
	if len(events) > 0 {
		s.persist()
	}

	s.logger.Debug("merged page",
		"query", s.key,
		"received", len(page.Records),
		"inserted", len(inserts),
		"updated", len(updates),
		"total", len(s.records),
	)

	return events
}

// Replace discards every record and rebinds the store to queryKey (empty for
// no query). It returns one Delete per discarded record, highest index first.
func (s *RecordStore) Replace(queryKey string) []domain.DiffEvent {
	events := make([]domain.DiffEvent, 0, len(s.records))
	for i := len(s.records) - 1; i >= 0; i-- {
		events = append(events, domain.Delete{Index: i})
	}

	if s.sink != nil && s.key != "" {
		if err := s.sink.DiscardSnapshot(s.key); err != nil {
			s.logger.Warn("failed to discard snapshot", "query", s.key, "error", err)
		}
	}

	s.key = queryKey
	s.records = nil
	s.index = make(map[string]int)

	return events
}

func (s *RecordStore) persist() {
	if s.sink == nil || s.key == "" {
		return
	}
	if err := s.sink.SaveSnapshot(s.key, s.Snapshot()); err != nil {
		s.logger.Warn("failed to persist snapshot", "query", s.key, "error", err)
	}
}
