package components

import (
	"testing"

	"github.com/mmcdole/reel/internal/domain"
	"github.com/mmcdole/reel/internal/settings"
	"github.com/mmcdole/reel/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPrefs(t *testing.T) *settings.Settings {
	t.Helper()
	db, err := store.Open("", "")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return settings.New(db, nil)
}

// press sends keys and returns the result of the last one
func press(m *SettingsModal, keys ...string) (handled, closed, searchChanged bool) {
	for _, k := range keys {
		handled, closed, searchChanged = m.HandleKey(k)
	}
	return
}

func TestSettingsModal_HiddenIgnoresKeys(t *testing.T) {
	m := NewSettingsModal(newPrefs(t))
	handled, _, _ := m.HandleKey("enter")
	assert.False(t, handled)
}

func TestSettingsModal_SortCycles(t *testing.T) {
	prefs := newPrefs(t)
	m := NewSettingsModal(prefs)
	m.Show()

	press(&m, "j", "j") // Search order
	press(&m, "enter")
	assert.Equal(t, domain.SortDuration, prefs.SearchSort())
	press(&m, "enter")
	assert.Equal(t, domain.SortRelevance, prefs.SearchSort())
	press(&m, "enter")
	assert.Equal(t, domain.SortAdded, prefs.SearchSort())

	_, closed, searchChanged := press(&m, "esc")
	assert.True(t, closed)
	assert.True(t, searchChanged)
	assert.False(t, m.IsVisible())
}

func TestSettingsModal_DurationPresetsWrapToUnset(t *testing.T) {
	prefs := newPrefs(t)
	m := NewSettingsModal(prefs)
	m.Show()
	press(&m, "j", "j", "j") // Minimum duration

	press(&m, "enter")
	require.NotNil(t, prefs.SearchMinimumDuration())
	assert.Equal(t, uint(5*60), *prefs.SearchMinimumDuration())

	for i := 1; i < len(durationPresets); i++ {
		press(&m, "enter")
	}
	assert.Nil(t, prefs.SearchMinimumDuration())
}

func TestSettingsModal_PlayerSettingsDoNotTouchSearch(t *testing.T) {
	prefs := newPrefs(t)
	m := NewSettingsModal(prefs)
	m.Show()

	press(&m, "j", "j", "j", "j", "j") // Volume
	press(&m, "enter")
	assert.Equal(t, 0.75, prefs.Volume())

	_, closed, searchChanged := press(&m, "esc")
	assert.True(t, closed)
	assert.False(t, searchChanged)
}

func TestSettingsModal_View(t *testing.T) {
	m := NewSettingsModal(newPrefs(t))
	assert.Empty(t, m.View())

	m.Show()
	out := m.View()
	assert.Contains(t, out, "Search in HD")
	assert.Contains(t, out, "any")
	assert.Contains(t, out, "100%")
}
