package components

import (
	"errors"
	"fmt"
	"testing"

	"github.com/mmcdole/reel/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rec(id, title string) domain.Record {
	return domain.Record{ID: id, Title: title, Duration: 90}
}

// apply delivers one batch the way the engine does
func apply(l *ResultList, events ...domain.DiffEvent) {
	l.WillChangeContent()
	for _, ev := range events {
		l.DidChange(ev)
	}
	l.DidChangeContent()
}

func ids(l *ResultList) []string {
	var out []string
	for _, r := range l.Records() {
		out = append(out, r.ID)
	}
	return out
}

func seeded(titles ...string) *ResultList {
	l := NewResultList()
	l.SetSize(80, 30)
	var events []domain.DiffEvent
	for i, t := range titles {
		events = append(events, domain.Insert{Record: rec(fmt.Sprintf("r%d", i), t), Index: i})
	}
	apply(l, events...)
	return l
}

func TestResultList_AppliesBatchOnlyAtEnd(t *testing.T) {
	l := NewResultList()

	l.WillChangeContent()
	l.DidChange(domain.Insert{Record: rec("a", "A"), Index: 0})
	l.DidChange(domain.Insert{Record: rec("b", "B"), Index: 1})
	assert.Empty(t, l.Records())

	l.DidChangeContent()
	assert.Equal(t, []string{"a", "b"}, ids(l))
}

func TestResultList_SelectionFollowsRecord(t *testing.T) {
	l := seeded("A", "B", "C")
	l.MoveDown()
	sel, ok := l.Selected()
	require.True(t, ok)
	require.Equal(t, "r1", sel.ID)

	apply(l, domain.Insert{Record: rec("x", "X"), Index: 0})

	sel, ok = l.Selected()
	require.True(t, ok)
	assert.Equal(t, "r1", sel.ID)
	assert.Equal(t, 2, l.SelectedIndex())
}

func TestResultList_DeletedSelectionClamps(t *testing.T) {
	l := seeded("A", "B", "C")
	l.Bottom()

	apply(l, domain.Delete{Index: 2})

	assert.Equal(t, 1, l.SelectedIndex())
	sel, _ := l.Selected()
	assert.Equal(t, "r1", sel.ID)

	// A full clear leaves nothing selected
	apply(l, domain.Delete{Index: 0}, domain.Delete{Index: 0})
	_, ok := l.Selected()
	assert.False(t, ok)
	assert.Equal(t, 0, l.SelectedIndex())
}

func TestResultList_BadBatchKeepsContents(t *testing.T) {
	l := seeded("A", "B")

	apply(l, domain.Delete{Index: 0}, domain.Delete{Index: 5})

	assert.Equal(t, []string{"r0", "r1"}, ids(l))
	assert.ErrorIs(t, l.ApplyErr(), domain.ErrOutOfRange)
}

func TestResultList_FuzzyFilter(t *testing.T) {
	l := seeded("Cats playing", "Dog show", "Cat nap")

	l.ToggleFilter()
	assert.True(t, l.IsFilterTyping())
	l.SetFilter("cat")

	require.Equal(t, 2, l.ItemCount())
	for i := 0; i < l.ItemCount(); i++ {
		l.moveTo(i)
		sel, ok := l.Selected()
		require.True(t, ok)
		assert.Contains(t, []string{"r0", "r2"}, sel.ID)
	}
	assert.False(t, l.NearEnd(5), "no paging while filtered")

	// New results are filtered too
	apply(l, domain.Insert{Record: rec("r3", "Catwalk"), Index: 3})
	assert.Equal(t, 3, l.ItemCount())

	l.ClearFilter()
	assert.False(t, l.IsFiltering())
	assert.Equal(t, 4, l.ItemCount())
}

func TestResultList_NearEnd(t *testing.T) {
	l := seeded("A", "B", "C", "D", "E", "F", "G", "H", "I", "J")

	assert.False(t, l.NearEnd(3))
	for i := 0; i < 6; i++ {
		l.MoveDown()
	}
	assert.True(t, l.NearEnd(3))

	assert.False(t, NewResultList().NearEnd(3))
}

func TestResultList_LoadingState(t *testing.T) {
	l := NewResultList()

	l.DidStartLoading()
	assert.True(t, l.IsLoading())
	assert.False(t, l.AllLoaded())

	boom := errors.New("boom")
	l.SearchFailed(boom)
	assert.False(t, l.IsLoading())
	assert.Equal(t, boom, l.Err())

	l.SetLoading(true)
	assert.NoError(t, l.Err())

	l.DidLoadAllResults()
	assert.False(t, l.IsLoading())
	assert.True(t, l.AllLoaded())
}

func TestResultList_View(t *testing.T) {
	l := NewResultList()
	l.SetSize(60, 12)
	assert.Contains(t, l.View(), "No results")

	l = seeded("Kitten compilation")
	l.SetSize(60, 12)
	out := l.View()
	assert.Contains(t, out, "Kitten compilation")
	assert.Contains(t, out, "1:30")
}
