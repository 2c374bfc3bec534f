package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mmcdole/reel/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var day = time.Date(2020, 3, 6, 0, 0, 0, 0, time.UTC)

func testEntries() []Entry {
	return []Entry{
		{ID: "1", Title: "Funny Cats Compilation", Duration: 600, Added: day, Variants: map[domain.Quality]string{domain.Quality720: "c720"}},
		{ID: "2", Title: "Cats vs Dogs", Duration: 120, Added: day.Add(time.Hour), Variants: map[domain.Quality]string{domain.Quality360: "d360"}},
		{ID: "3", Title: "cats", Duration: 30, Added: day.Add(2 * time.Hour), Adult: true},
		{ID: "4", Title: "Birds", Duration: 90, Added: day.Add(3 * time.Hour)},
		{ID: "5", Title: "Cat Nap", Duration: 300, Added: day.Add(4 * time.Hour)},
	}
}

func fetchAll(t *testing.T, s *Source, q domain.QueryState) []string {
	t.Helper()
	var ids []string
	cursor := domain.Cursor("")
	for {
		page, err := s.FetchPage(context.Background(), q, cursor)
		require.NoError(t, err)
		for _, r := range page.Records {
			ids = append(ids, r.ID)
		}
		if page.Next.Done() {
			return ids
		}
		cursor = page.Next
	}
}

func query(text string, mutate func(*domain.Filters)) domain.QueryState {
	f := domain.DefaultFilters()
	if mutate != nil {
		mutate(&f)
	}
	return domain.QueryState{Text: text, Filters: f}
}

func TestFetchPage_MatchingAndSort(t *testing.T) {
	s := New(testEntries(), 10, nil)
	longer := uint(100)

	tests := []struct {
		name  string
		query domain.QueryState
		want  []string
	}{
		{"newest first", query("cats", nil), []string{"3", "2", "1"}},
		{"case-insensitive", query("CATS", nil), []string{"3", "2", "1"}},
		{"longest first", query("cats", func(f *domain.Filters) { f.Sort = domain.SortDuration }), []string{"1", "2", "3"}},
		{"closest first", query("cats", func(f *domain.Filters) { f.Sort = domain.SortRelevance }), []string{"3", "2", "1"}},
		{"hd only", query("cats", func(f *domain.Filters) { f.HDOnly = true }), []string{"1"}},
		{"no adult", query("cats", func(f *domain.Filters) { f.IncludeAdult = false }), []string{"2", "1"}},
		{"min duration", query("cats", func(f *domain.Filters) { f.MinDuration = &longer }), []string{"2", "1"}},
		{"max duration", query("cats", func(f *domain.Filters) { f.MaxDuration = &longer }), []string{"3"}},
		{"no match", query("horses", nil), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, fetchAll(t, s, tt.query))
		})
	}
}

func TestFetchPage_Paging(t *testing.T) {
	s := New(testEntries(), 2, nil)
	q := query("cat", nil)

	first, err := s.FetchPage(context.Background(), q, "")
	require.NoError(t, err)
	assert.Len(t, first.Records, 2)
	assert.Equal(t, domain.Cursor("2"), first.Next)

	second, err := s.FetchPage(context.Background(), q, first.Next)
	require.NoError(t, err)
	assert.Len(t, second.Records, 2)
	assert.True(t, second.Next.Done())

	beyond, err := s.FetchPage(context.Background(), q, "99")
	require.NoError(t, err)
	assert.Empty(t, beyond.Records)
	assert.True(t, beyond.Next.Done())

	_, err = s.FetchPage(context.Background(), q, "two")
	assert.Error(t, err)
}

func TestFetchPage_StableRecords(t *testing.T) {
	e := Entry{ID: "x", Title: "cats", Variants: map[domain.Quality]string{
		domain.QualityHLS: "h", domain.Quality240: "a", domain.Quality1080: "f",
	}}
	s := New([]Entry{e}, 10, nil)

	first, err := s.FetchPage(context.Background(), query("cats", nil), "")
	require.NoError(t, err)
	again, err := s.FetchPage(context.Background(), query("cats", nil), "")
	require.NoError(t, err)

	assert.True(t, first.Records[0].Equal(again.Records[0]))
	url, ok := first.Records[0].PlayableURL()
	assert.True(t, ok)
	assert.Equal(t, "a", url)
}

func TestFetchPage_CancelledContext(t *testing.T) {
	s := New(testEntries(), 10, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.FetchPage(ctx, query("cats", nil), "")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "videos.json")
	require.NoError(t, os.WriteFile(path, []byte(`[
		{"id": "a", "title": "Cats", "duration": 42, "added": "2020-03-06T00:00:00Z", "variants": {"q480": "u480"}}
	]`), 0644))

	s, err := Load(path, 0, nil)
	require.NoError(t, err)
	page, err := s.FetchPage(context.Background(), query("cat", nil), "")
	require.NoError(t, err)
	require.Len(t, page.Records, 1)
	assert.Equal(t, uint(42), page.Records[0].Duration)
	assert.Equal(t, "0:42", page.Records[0].FormattedDuration())
}

func TestLoad_Invalid(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) string {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte(body), 0644))
		return p
	}

	_, err := Load(filepath.Join(dir, "missing.json"), 10, nil)
	assert.Error(t, err)

	_, err = Load(write("bad.json", "{"), 10, nil)
	assert.Error(t, err)

	_, err = Load(write("noid.json", `[{"title": "x"}]`), 10, nil)
	assert.ErrorContains(t, err, "no id")

	_, err = Load(write("dup.json", `[{"id": "a"}, {"id": "a"}]`), 10, nil)
	assert.ErrorContains(t, err, "duplicate")
}
