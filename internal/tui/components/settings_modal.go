package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mmcdole/reel/internal/domain"
	"github.com/mmcdole/reel/internal/settings"
	"github.com/mmcdole/reel/internal/tui/styles"
)

// Duration presets offered for the search bounds, in seconds. Zero means
// no bound.
var durationPresets = []uint{0, 5 * 60, 10 * 60, 20 * 60, 40 * 60, 60 * 60}

// Volume presets offered for playback
var volumePresets = []float64{1, 0.75, 0.5, 0.25}

var sortCycle = []domain.SortOrder{domain.SortAdded, domain.SortDuration, domain.SortRelevance}

type settingRow struct {
	label  string
	value  func(s *settings.Settings) string
	next   func(s *settings.Settings) error // Advance to the next value
	search bool                              // Changing it restarts the search
}

var settingRows = []settingRow{
	{
		label:  settings.KeySearchHD.Title(),
		value:  func(s *settings.Settings) string { return onOff(s.SearchHD()) },
		next:   func(s *settings.Settings) error { return s.SetSearchHD(!s.SearchHD()) },
		search: true,
	},
	{
		label:  settings.KeySearchAdult.Title(),
		value:  func(s *settings.Settings) string { return onOff(s.SearchAdult()) },
		next:   func(s *settings.Settings) error { return s.SetSearchAdult(!s.SearchAdult()) },
		search: true,
	},
	{
		label: settings.KeySearchSort.Title(),
		value: func(s *settings.Settings) string { return s.SearchSort().String() },
		next: func(s *settings.Settings) error {
			cur := s.SearchSort()
			for i, o := range sortCycle {
				if o == cur {
					return s.SetSearchSort(sortCycle[(i+1)%len(sortCycle)])
				}
			}
			return s.SetSearchSort(sortCycle[0])
		},
		search: true,
	},
	{
		label:  "Minimum duration",
		value:  func(s *settings.Settings) string { return durationLabel(s.SearchMinimumDuration()) },
		next:   func(s *settings.Settings) error { return s.SetSearchMinimumDuration(nextDuration(s.SearchMinimumDuration())) },
		search: true,
	},
	{
		label:  "Maximum duration",
		value:  func(s *settings.Settings) string { return durationLabel(s.SearchMaximumDuration()) },
		next:   func(s *settings.Settings) error { return s.SetSearchMaximumDuration(nextDuration(s.SearchMaximumDuration())) },
		search: true,
	},
	{
		label: "Volume",
		value: func(s *settings.Settings) string { return fmt.Sprintf("%.0f%%", s.Volume()*100) },
		next: func(s *settings.Settings) error {
			cur := s.Volume()
			for i, v := range volumePresets {
				if v == cur {
					return s.SetVolume(volumePresets[(i+1)%len(volumePresets)])
				}
			}
			return s.SetVolume(volumePresets[0])
		},
	},
	{
		label: settings.KeyMinimizeStalling.Title(),
		value: func(s *settings.Settings) string { return onOff(s.MinimizeStalling()) },
		next:  func(s *settings.Settings) error { return s.SetMinimizeStalling(!s.MinimizeStalling()) },
	},
	{
		label: settings.KeyRightHandedPlayerControls.Title(),
		value: func(s *settings.Settings) string { return onOff(s.RightHandedPlayerControls()) },
		next: func(s *settings.Settings) error {
			return s.SetRightHandedPlayerControls(!s.RightHandedPlayerControls())
		},
	},
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func durationLabel(v *uint) string {
	if v == nil || *v == 0 {
		return "any"
	}
	return fmt.Sprintf("%d min", *v/60)
}

// nextDuration cycles through durationPresets; unknown values restart it
func nextDuration(cur *uint) *uint {
	c := uint(0)
	if cur != nil {
		c = *cur
	}
	for i, p := range durationPresets {
		if p == c {
			n := durationPresets[(i+1)%len(durationPresets)]
			if n == 0 {
				return nil
			}
			return &n
		}
	}
	return nil
}

// SettingsModal edits the player and search preferences in place
type SettingsModal struct {
	visible       bool
	cursor        int
	searchChanged bool
	err           error
	prefs         *settings.Settings
}

// NewSettingsModal creates a settings modal over prefs
func NewSettingsModal(prefs *settings.Settings) SettingsModal {
	return SettingsModal{prefs: prefs}
}

// Show displays the modal
func (m *SettingsModal) Show() {
	m.visible = true
	m.cursor = 0
	m.searchChanged = false
	m.err = nil
}

// Hide dismisses the modal
func (m *SettingsModal) Hide() {
	m.visible = false
}

// IsVisible returns whether the modal is shown
func (m SettingsModal) IsVisible() bool {
	return m.visible
}

// HandleKey processes a key press, returns (handled, closed, searchChanged).
// searchChanged is only reported on close and is true when a search filter
// was edited while the modal was open.
func (m *SettingsModal) HandleKey(key string) (handled, closed, searchChanged bool) {
	if !m.visible {
		return false, false, false
	}

	switch key {
	case "j", "down":
		if m.cursor < len(settingRows)-1 {
			m.cursor++
		}
	case "k", "up":
		if m.cursor > 0 {
			m.cursor--
		}
	case "enter", " ", "l", "right":
		row := settingRows[m.cursor]
		if err := row.next(m.prefs); err != nil {
			m.err = err
			break
		}
		if row.search {
			m.searchChanged = true
		}
	case "esc", "o", "q":
		m.visible = false
		return true, true, m.searchChanged
	}

	return true, false, false // consume all keys when visible
}

// View renders the settings modal
func (m SettingsModal) View() string {
	if !m.visible {
		return ""
	}

	const labelWidth = 24
	const valueWidth = 10

	lines := []string{styles.ModalTitleStyle.Render("Settings")}
	for i, row := range settingRows {
		text := styles.Pad(row.label, labelWidth) + styles.Pad(row.value(m.prefs), valueWidth)

		style := lipgloss.NewStyle().Foreground(styles.LightGray)
		if i == m.cursor {
			style = style.Foreground(styles.White).Background(styles.SlateLight)
		}
		lines = append(lines, style.Render(text))
	}

	lines = append(lines, "")
	if m.err != nil {
		lines = append(lines, styles.ErrorStyle.Render(styles.Truncate(m.err.Error(), labelWidth+valueWidth)))
	}
	lines = append(lines, styles.DimStyle.Render("enter change · esc close"))

	return styles.ModalStyle.Render(strings.Join(lines, "\n"))
}
