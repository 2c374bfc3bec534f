package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mmcdole/reel/internal/domain"
	"github.com/mmcdole/reel/internal/tui/styles"
)

// SearchPrompt is the bar docked above the results while the search text is
// being edited. Enter submits the trimmed text, esc restores the old query.
type SearchPrompt struct {
	visible  bool
	previous string
	filters  domain.Filters
	width    int
	input    textinput.Model
}

// NewSearchPrompt creates a hidden prompt
func NewSearchPrompt() SearchPrompt {
	ti := textinput.New()
	ti.Placeholder = "title, tags, anything"
	ti.CharLimit = 200
	ti.Prompt = "search › "
	ti.PromptStyle = styles.FilterPromptStyle
	ti.TextStyle = lipgloss.NewStyle().Foreground(styles.White)
	ti.PlaceholderStyle = styles.DimStyle

	return SearchPrompt{input: ti, width: 60}
}

// Open shows the prompt prefilled with the current query. The filters are
// only shown, so the user sees what the next search will send.
func (p *SearchPrompt) Open(query string, filters domain.Filters) tea.Cmd {
	p.visible = true
	p.previous = query
	p.filters = filters
	p.input.SetValue(query)
	p.input.CursorEnd()
	return p.input.Focus()
}

// Close hides the prompt without submitting
func (p *SearchPrompt) Close() {
	p.visible = false
	p.input.Blur()
}

// SetWidth sizes the bar to the terminal
func (p *SearchPrompt) SetWidth(w int) {
	p.width = w
	p.input.Width = max(10, w-len(p.input.Prompt)-2)
}

func (p SearchPrompt) IsVisible() bool { return p.visible }

// Text returns the entered query with surrounding space removed
func (p SearchPrompt) Text() string { return strings.TrimSpace(p.input.Value()) }

// Changed reports whether submitting would run a different query
func (p SearchPrompt) Changed() bool { return p.Text() != p.previous }

// Update routes a key to the prompt. submitted is true on enter.
func (p SearchPrompt) Update(msg tea.Msg) (SearchPrompt, tea.Cmd, bool) {
	if !p.visible {
		return p, nil, false
	}

	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.Type {
		case tea.KeyEnter:
			p.Close()
			return p, nil, true
		case tea.KeyEsc:
			p.input.SetValue(p.previous)
			p.Close()
			return p, nil, false
		}
	}

	var cmd tea.Cmd
	p.input, cmd = p.input.Update(msg)
	return p, cmd, false
}

// View renders the input line and a dim line with the active search filters
func (p SearchPrompt) View() string {
	if !p.visible {
		return ""
	}

	hint := "enter search · esc cancel"
	switch {
	case p.Text() == "" && p.previous != "":
		hint = "enter clears results · esc cancel"
	case !p.Changed() && p.previous != "":
		hint = "enter reload · esc cancel"
	}

	details := styles.DimStyle.Render(strings.Join(FilterTags(p.filters), " · ")) +
		"  " + styles.DimStyle.Render(hint)

	return lipgloss.NewStyle().
		Width(p.width).
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		BorderForeground(styles.ReelRed).
		Render(lipgloss.JoinVertical(lipgloss.Left, p.input.View(), details))
}

// Height is the number of rows View takes when visible
func (p SearchPrompt) Height() int { return 3 }

// FilterTags describes the filters a search will send, in display order
func FilterTags(f domain.Filters) []string {
	var tags []string
	if f.HDOnly {
		tags = append(tags, "HD")
	}
	if !f.IncludeAdult {
		tags = append(tags, "safe")
	}
	tags = append(tags, "by "+f.Sort.String())

	switch {
	case f.MinDuration != nil && f.MaxDuration != nil:
		tags = append(tags, fmt.Sprintf("%d-%d min", *f.MinDuration/60, *f.MaxDuration/60))
	case f.MinDuration != nil:
		tags = append(tags, fmt.Sprintf(">%d min", *f.MinDuration/60))
	case f.MaxDuration != nil:
		tags = append(tags, fmt.Sprintf("<%d min", *f.MaxDuration/60))
	}
	return tags
}
