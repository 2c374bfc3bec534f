package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/mmcdole/reel/internal/domain"
	"github.com/mmcdole/reel/internal/tui/styles"
	"github.com/sahilm/fuzzy"
)

// Layout constants for the result list
const (
	// Border adds 1 char on each side
	BorderWidth  = 2
	BorderHeight = 2

	// Scroll indicators ("↑ more" and "↓ more") each take 1 line
	ScrollIndicatorLines = 2
)

// titleIndex implements sahilm/fuzzy.Source over lowercase titles
type titleIndex []string

func (t titleIndex) String(i int) string { return t[i] }
func (t titleIndex) Len() int            { return len(t) }

// ResultList shows the results of the current search. It is the engine's
// observer: batches of diff events are buffered and applied together when
// the batch ends, so the list never renders a half-applied batch.
type ResultList struct {
	records []domain.Record
	pending []domain.DiffEvent

	// Search progress
	loading   bool
	allLoaded bool
	lastErr   error
	applyErr  error

	// Selection
	cursor     int
	offset     int
	maxVisible int

	// Dimensions
	width   int
	height  int
	focused bool

	title   string
	spinner string

	// Filter state
	filterActive bool
	filterInput  textinput.Model
	filterQuery  string
	filteredIdx  []int // indices into records
}

// NewResultList creates an empty result list
func NewResultList() *ResultList {
	ti := textinput.New()
	ti.Placeholder = "type to filter..."
	ti.Prompt = "/ "
	ti.PromptStyle = styles.FilterPromptStyle
	ti.TextStyle = styles.FilterStyle

	return &ResultList{
		title:       "Results",
		filterInput: ti,
	}
}

// === engine.Observer ===

// WillChangeContent starts buffering a batch
func (l *ResultList) WillChangeContent() {
	l.pending = l.pending[:0]
}

// DidChange buffers one event of the current batch
func (l *ResultList) DidChange(event domain.DiffEvent) {
	l.pending = append(l.pending, event)
}

// DidChangeContent applies the buffered batch. The selection follows the
// selected record when it survives the batch.
func (l *ResultList) DidChangeContent() {
	selectedID := ""
	if rec, ok := l.Selected(); ok {
		selectedID = rec.ID
	}

	next, err := domain.ApplyDiff(l.records, l.pending)
	l.pending = l.pending[:0]
	if err != nil {
		// Out-of-sync batch; keep what we had
		l.applyErr = err
		return
	}
	l.records = next

	if l.filterActive && l.filterQuery != "" {
		l.refilter()
	}

	// A vanished selection keeps its row, clamped
	if selectedID != "" {
		for i := 0; i < l.ItemCount(); i++ {
			if l.records[l.mapIndex(i)].ID == selectedID {
				l.cursor = i
				break
			}
		}
	}
	l.clampCursor()
}

// DidStartLoading marks a new search as in flight
func (l *ResultList) DidStartLoading() {
	l.loading = true
	l.allLoaded = false
	l.lastErr = nil
	l.cursor = 0
	l.offset = 0
}

// DidLoadAllResults marks the search as complete
func (l *ResultList) DidLoadAllResults() {
	l.loading = false
	l.allLoaded = true
}

// SearchFailed records a failed page fetch
func (l *ResultList) SearchFailed(err error) {
	l.loading = false
	l.lastErr = err
}

// SetLoading marks a page request as in flight
func (l *ResultList) SetLoading(loading bool) {
	l.loading = loading
	if loading {
		l.lastErr = nil
	}
}

// === Accessors ===

// Records returns the list contents, unfiltered
func (l *ResultList) Records() []domain.Record { return l.records }

// IsLoading reports whether a page is in flight
func (l *ResultList) IsLoading() bool { return l.loading }

// AllLoaded reports whether the last page has arrived
func (l *ResultList) AllLoaded() bool { return l.allLoaded }

// Err returns the last fetch error, cleared when loading resumes
func (l *ResultList) Err() error { return l.lastErr }

// ApplyErr returns the last batch that failed to apply
func (l *ResultList) ApplyErr() error { return l.applyErr }

// ItemCount returns the number of visible rows
func (l *ResultList) ItemCount() int {
	if l.filteredIdx != nil {
		return len(l.filteredIdx)
	}
	return len(l.records)
}

// SelectedIndex returns the cursor row
func (l *ResultList) SelectedIndex() int { return l.cursor }

// Selected returns the record under the cursor
func (l *ResultList) Selected() (domain.Record, bool) {
	if l.cursor < 0 || l.cursor >= l.ItemCount() {
		return domain.Record{}, false
	}
	return l.records[l.mapIndex(l.cursor)], true
}

// NearEnd reports whether the cursor is within threshold rows of the last
// result. It is false while a local filter narrows the list.
func (l *ResultList) NearEnd(threshold int) bool {
	if l.filterQuery != "" || len(l.records) == 0 {
		return false
	}
	return l.cursor >= len(l.records)-1-threshold
}

// SetTitle sets the header line
func (l *ResultList) SetTitle(title string) { l.title = title }

// SetSpinner sets the rendered spinner frame
func (l *ResultList) SetSpinner(frame string) { l.spinner = frame }

// SetFocused toggles the active border
func (l *ResultList) SetFocused(focused bool) { l.focused = focused }

// SetSize sets the outer size in cells
func (l *ResultList) SetSize(width, height int) {
	l.width = width
	l.height = height
	l.recalcMaxVisible()
	l.ensureVisible()
}

// === Navigation ===

// MoveUp moves the cursor one row up
func (l *ResultList) MoveUp() { l.moveTo(l.cursor - 1) }

// MoveDown moves the cursor one row down
func (l *ResultList) MoveDown() { l.moveTo(l.cursor + 1) }

// HalfPageUp moves the cursor half a page up
func (l *ResultList) HalfPageUp() { l.moveTo(l.cursor - max(l.maxVisible/2, 1)) }

// HalfPageDown moves the cursor half a page down
func (l *ResultList) HalfPageDown() { l.moveTo(l.cursor + max(l.maxVisible/2, 1)) }

// Top moves the cursor to the first row
func (l *ResultList) Top() { l.moveTo(0) }

// Bottom moves the cursor to the last row
func (l *ResultList) Bottom() { l.moveTo(l.ItemCount() - 1) }

func (l *ResultList) moveTo(i int) {
	l.cursor = i
	l.clampCursor()
}

func (l *ResultList) clampCursor() {
	if n := l.ItemCount(); l.cursor >= n {
		l.cursor = n - 1
	}
	if l.cursor < 0 {
		l.cursor = 0
	}
	l.ensureVisible()
}

// === Filter ===

// ToggleFilter activates the filter input
func (l *ResultList) ToggleFilter() {
	l.filterActive = true
	l.filterInput.Focus()
	l.recalcMaxVisible()
}

// IsFiltering returns true if filter mode is active
func (l *ResultList) IsFiltering() bool { return l.filterActive }

// IsFilterTyping returns true if filter is active AND input is focused
func (l *ResultList) IsFilterTyping() bool {
	return l.filterActive && l.filterInput.Focused()
}

// AcceptFilter keeps the filter but returns keys to navigation
func (l *ResultList) AcceptFilter() { l.filterInput.Blur() }

// ClearFilter deactivates the filter and shows all items
func (l *ResultList) ClearFilter() {
	l.filterActive = false
	l.filterQuery = ""
	l.filteredIdx = nil
	l.filterInput.SetValue("")
	l.filterInput.Blur()
	l.recalcMaxVisible()
	l.clampCursor()
}

// FilterInput exposes the filter textinput for key routing
func (l *ResultList) FilterInput() *textinput.Model { return &l.filterInput }

// SetFilter narrows the list to titles matching query
func (l *ResultList) SetFilter(query string) {
	if query != l.filterInput.Value() {
		l.filterInput.SetValue(query)
	}
	l.filterQuery = query
	l.refilter()
	l.cursor = 0
	l.offset = 0
}

// ApplyFilterInput re-reads the textinput after it handled a key
func (l *ResultList) ApplyFilterInput() {
	if l.filterInput.Value() != l.filterQuery {
		l.SetFilter(l.filterInput.Value())
	}
}

func (l *ResultList) refilter() {
	if l.filterQuery == "" {
		l.filteredIdx = nil
		return
	}

	lowerTitles := make(titleIndex, len(l.records))
	for i, r := range l.records {
		lowerTitles[i] = strings.ToLower(r.Title)
	}

	matches := fuzzy.FindFrom(strings.ToLower(l.filterQuery), lowerTitles)
	l.filteredIdx = make([]int, len(matches))
	for i, match := range matches {
		l.filteredIdx[i] = match.Index
	}
}

func (l *ResultList) mapIndex(i int) int {
	if l.filteredIdx != nil && i < len(l.filteredIdx) {
		return l.filteredIdx[i]
	}
	return i
}

func (l *ResultList) recalcMaxVisible() {
	// Title line plus scroll indicators
	l.maxVisible = l.height - BorderHeight - ScrollIndicatorLines - 1
	if l.filterActive {
		l.maxVisible--
	}
	if l.maxVisible < 1 {
		l.maxVisible = 1
	}
}

func (l *ResultList) ensureVisible() {
	if l.maxVisible <= 0 {
		return
	}
	if l.cursor < l.offset {
		l.offset = l.cursor
	}
	if l.cursor >= l.offset+l.maxVisible {
		l.offset = l.cursor - l.maxVisible + 1
	}
}

// === Rendering ===

// View renders the list inside its border
func (l *ResultList) View() string {
	style := styles.InactiveBorder
	if l.focused {
		style = styles.ActiveBorder
	}
	frameW, frameH := style.GetFrameSize()

	return style.
		Width(max(l.width-frameW, 0)).
		Height(max(l.height-frameH, 0)).
		Render(l.renderContent())
}

func (l *ResultList) renderContent() string {
	itemWidth := max(l.width-BorderWidth, 10)
	titleLine := styles.AccentStyle.Render(styles.Truncate(l.title, itemWidth))

	count := l.ItemCount()
	if count == 0 {
		msg := styles.DimStyle.Render("No results")
		switch {
		case l.loading:
			msg = styles.DimStyle.Render(l.spinner + " Searching...")
		case l.lastErr != nil:
			msg = styles.ErrorStyle.Render(styles.Truncate("Search failed: "+l.lastErr.Error(), itemWidth))
		case l.filterQuery != "":
			msg = styles.DimStyle.Render("No matches")
		}
		return titleLine + "\n \n" + msg + "\n "
	}

	end := min(l.offset+l.maxVisible, count)
	lines := make([]string, 0, end-l.offset)
	for i := l.offset; i < end; i++ {
		lines = append(lines, renderRecord(l.records[l.mapIndex(i)], i == l.cursor, itemWidth))
	}

	// Header and footer lines are always reserved to avoid layout shifts
	header := " "
	if l.offset > 0 {
		header = styles.DimStyle.Render("↑ more")
	}
	footer := " "
	switch {
	case end < count:
		footer = styles.DimStyle.Render("↓ more")
	case l.loading:
		footer = styles.DimStyle.Render(l.spinner + " Loading more...")
	case l.lastErr != nil:
		footer = styles.ErrorStyle.Render(styles.Truncate("Load failed, scroll to retry", itemWidth))
	}

	content := titleLine + "\n" + header + "\n" + strings.Join(lines, "\n") + "\n" + footer
	if l.filterActive {
		content += "\n" + l.renderFilterBar()
	}
	return content
}

func renderRecord(rec domain.Record, selected bool, width int) string {
	duration := fmt.Sprintf("%8s", rec.FormattedDuration())
	quality := qualityLabel(rec.BestQuality())

	durationFg := styles.DimGray
	qualityFg := styles.ReelRed
	// Duration and quality columns take 8+1 and 5+1 cells
	title := styles.Truncate(rec.Title, width-2-16)

	parts := []styles.RowPart{
		{Text: duration, Foreground: &durationFg},
		{Text: " " + fmt.Sprintf("%-5s", quality), Foreground: &qualityFg},
		{Text: " " + title},
	}
	return styles.RenderListRow(parts, selected, width)
}

func qualityLabel(q domain.Quality) string {
	switch q {
	case "":
		return "-"
	case domain.QualityHLS:
		return "HLS"
	default:
		return strings.TrimPrefix(string(q), "q") + "p"
	}
}

func (l *ResultList) renderFilterBar() string {
	countStr := ""
	if l.filterQuery != "" {
		countStr = styles.DimStyle.Render(fmt.Sprintf(" [%d/%d]", l.ItemCount(), len(l.records)))
	}
	return l.filterInput.View() + countStr
}
