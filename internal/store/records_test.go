package store

import (
	"errors"
	"fmt"
	"math/rand"
	"testing"

	"github.com/mmcdole/reel/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(id string) domain.Record {
	return domain.Record{ID: id, Title: "title " + id, Duration: 60}
}

func page(next domain.Cursor, ids ...string) domain.Page {
	p := domain.Page{Next: next}
	for _, id := range ids {
		p.Records = append(p.Records, record(id))
	}
	return p
}

func storeIDs(s *RecordStore) []string {
	out := make([]string, s.Count())
	for i := range out {
		out[i] = s.MustAt(i).ID
	}
	return out
}

// fakeSink records sink calls
type fakeSink struct {
	saved     map[string][]domain.Record
	discarded []string
	err       error
}

func newFakeSink() *fakeSink {
	return &fakeSink{saved: make(map[string][]domain.Record)}
}

func (f *fakeSink) SaveSnapshot(key string, records []domain.Record) error {
	f.saved[key] = records
	return f.err
}

func (f *fakeSink) DiscardSnapshot(key string) error {
	f.discarded = append(f.discarded, key)
	delete(f.saved, key)
	return f.err
}

func TestMerge_AppendsInPageOrder(t *testing.T) {
	s := NewRecordStore(nil, nil)

	events := s.Merge(page("2", "a", "b"))
	assert.Equal(t, []domain.DiffEvent{
		domain.Insert{Record: record("a"), Index: 0},
		domain.Insert{Record: record("b"), Index: 1},
	}, events)

	events = s.Merge(page("", "c"))
	assert.Equal(t, []domain.DiffEvent{domain.Insert{Record: record("c"), Index: 2}}, events)
	assert.Equal(t, []string{"a", "b", "c"}, storeIDs(s))
}

func TestMerge_UpdatesInPlace(t *testing.T) {
	s := NewRecordStore(nil, nil)
	s.Merge(page("", "a", "b", "c"))

	changed := record("b")
	changed.Title = "renamed"
	events := s.Merge(domain.Page{Records: []domain.Record{record("d"), changed}})

	assert.Equal(t, []domain.DiffEvent{
		domain.Insert{Record: record("d"), Index: 3},
		domain.Update{Record: changed, Index: 1},
	}, events)
	assert.Equal(t, []string{"a", "b", "c", "d"}, storeIDs(s))
	assert.Equal(t, "renamed", s.MustAt(1).Title)
}

func TestMerge_Idempotent(t *testing.T) {
	s := NewRecordStore(nil, nil)
	p := page("next", "a", "b", "c")

	s.Merge(p)
	first := s.Snapshot()

	events := s.Merge(p)
	ins, del, _, mov := domain.CountEvents(events)
	assert.Zero(t, ins)
	assert.Zero(t, del)
	assert.Zero(t, mov)
	assert.Equal(t, first, s.Snapshot())
}

func TestMerge_DuplicateWithinPage(t *testing.T) {
	s := NewRecordStore(nil, nil)
	later := record("a")
	later.Title = "second"

	before := s.Snapshot()
	events := s.Merge(domain.Page{Records: []domain.Record{record("a"), record("b"), later}})

	assert.Equal(t, []string{"a", "b"}, storeIDs(s))
	assert.Equal(t, "second", s.MustAt(0).Title)

	after, err := domain.ApplyDiff(before, events)
	require.NoError(t, err)
	assert.Equal(t, s.Snapshot(), after)
}

func TestReplace_DeletesFromTheEnd(t *testing.T) {
	s := NewRecordStore(nil, nil)
	s.Merge(page("", "a", "b", "c"))

	events := s.Replace("other")
	assert.Equal(t, []domain.DiffEvent{
		domain.Delete{Index: 2},
		domain.Delete{Index: 1},
		domain.Delete{Index: 0},
	}, events)
	assert.Zero(t, s.Count())
	assert.Equal(t, "other", s.Key())

	// A record from the old query is new again after a replace
	events = s.Merge(page("", "a"))
	assert.Equal(t, []domain.DiffEvent{domain.Insert{Record: record("a"), Index: 0}}, events)
}

func TestReplace_Empty(t *testing.T) {
	s := NewRecordStore(nil, nil)
	assert.Empty(t, s.Replace(""))
}

func TestAt_OutOfRange(t *testing.T) {
	s := NewRecordStore(nil, nil)
	s.Merge(page("", "a"))

	_, err := s.At(1)
	assert.True(t, errors.Is(err, domain.ErrOutOfRange))
	_, err = s.At(-1)
	assert.True(t, errors.Is(err, domain.ErrOutOfRange))

	assert.Panics(t, func() { s.MustAt(5) })
}

func TestSnapshotIsACopy(t *testing.T) {
	s := NewRecordStore(nil, nil)
	s.Merge(page("", "a"))

	snap := s.Snapshot()
	snap[0].Title = "mutated"
	assert.Equal(t, "title a", s.MustAt(0).Title)
}

func TestSink(t *testing.T) {
	sink := newFakeSink()
	s := NewRecordStore(sink, nil)

	s.Replace("cats")
	s.Merge(page("1", "a", "b"))
	require.Len(t, sink.saved["cats"], 2)

	// No change, no write
	sink.saved["cats"] = nil
	s.Merge(page("1", "a", "b"))
	assert.Nil(t, sink.saved["cats"])

	s.Replace("dogs")
	assert.Equal(t, []string{"cats"}, sink.discarded)

	// Unbound store never persists
	s.Replace("")
	s.Merge(page("", "x"))
	assert.NotContains(t, sink.saved, "")
}

func TestSink_ErrorsAreNotFatal(t *testing.T) {
	sink := newFakeSink()
	sink.err = errors.New("disk full")
	s := NewRecordStore(sink, nil)

	s.Replace("cats")
	events := s.Merge(page("", "a"))
	assert.Len(t, events, 1)
	assert.Equal(t, 1, s.Count())
}

// Every emitted batch, replayed over the snapshot taken before it,
// must reproduce the snapshot taken after it.
func TestDiffReplay(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	s := NewRecordStore(nil, nil)
	mirror := []domain.Record{}

	for step := 0; step < 500; step++ {
		before := s.Snapshot()
		var events []domain.DiffEvent

		if rng.Intn(10) == 0 {
			events = s.Replace(fmt.Sprintf("q%d", step))
		} else {
			var p domain.Page
			for n := rng.Intn(6); n > 0; n-- {
				r := record(fmt.Sprintf("r%d", rng.Intn(40)))
				r.Title = fmt.Sprintf("v%d", rng.Intn(3))
				p.Records = append(p.Records, r)
			}
			events = s.Merge(p)
		}

		after, err := domain.ApplyDiff(before, events)
		require.NoError(t, err, "step %d", step)
		require.Equal(t, s.Snapshot(), after, "step %d", step)

		mirror, err = domain.ApplyDiff(mirror, events)
		require.NoError(t, err)
		require.Equal(t, s.Snapshot(), mirror, "step %d", step)
	}
}
