package tui

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mmcdole/reel/internal/domain"
	"github.com/mmcdole/reel/internal/engine"
	"github.com/mmcdole/reel/internal/session"
	"github.com/mmcdole/reel/internal/settings"
	"github.com/mmcdole/reel/internal/tui/components"
	"github.com/mmcdole/reel/internal/tui/styles"
)

// ApplicationState represents the current state of the application
type ApplicationState int

const (
	StateBrowsing ApplicationState = iota
	StateHelp
	StateConfirmLogout
)

const (
	// Rows from the end of the list at which the next page is requested
	PrefetchThreshold = 5

	// Header and footer lines
	ChromeHeight = 2

	tickInterval  = 100 * time.Millisecond
	statusTimeout = 3 * time.Second
)

// Deps are the collaborators of the Model
type Deps struct {
	Engine      *engine.Engine
	Completions <-chan func() // Finished fetches, usually engine.Mailbox.C()
	Playback    player
	Session     loggerOut
	Prefs       *settings.Settings
	Logger      *slog.Logger
}

// Model is the main Bubble Tea model for the application
type Model struct {
	// Application state
	State     ApplicationState
	Ready     bool
	LoggedOut bool // Set when the program quit after a logout

	// Services
	Engine      *engine.Engine
	completions <-chan func()
	PlaybackSvc player
	SessionSvc  loggerOut
	Prefs       *settings.Settings
	logger      *slog.Logger

	// UI Components
	Results       *components.ResultList
	SearchInput   components.SearchPrompt
	SettingsModal components.SettingsModal
	Keys          KeyMap

	// Dimensions
	Width  int
	Height int

	// UI state
	StatusMsg    string
	StatusIsErr  bool
	SpinnerFrame int
}

// NewModel creates a new application model and registers its result list
// as the engine's observer.
func NewModel(deps Deps) Model {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	results := components.NewResultList()
	results.SetFocused(true)
	deps.Engine.SetObserver(results)

	return Model{
		State:         StateBrowsing,
		Engine:        deps.Engine,
		completions:   deps.Completions,
		PlaybackSvc:   deps.Playback,
		SessionSvc:    deps.Session,
		Prefs:         deps.Prefs,
		logger:        logger,
		Results:       results,
		SearchInput:   components.NewSearchPrompt(),
		SettingsModal: components.NewSettingsModal(deps.Prefs),
		Keys:          DefaultKeyMap(),
	}
}

// Init resumes the last search and starts listening for fetches
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		WaitForCompletionCmd(m.completions),
		TickCmd(tickInterval),
	}
	if text, ok := m.Prefs.SearchText(); ok && strings.TrimSpace(text) != "" {
		cmds = append(cmds, SearchCmd(text))
	}
	return tea.Batch(cmds...)
}

// Update handles all messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.Ready = true
		m.updateLayout()
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case TickMsg:
		m.SpinnerFrame++
		m.Results.SetSpinner(RenderSpinner(m.SpinnerFrame))
		return m, TickCmd(tickInterval)

	case completionMsg:
		// Merges the page and notifies the result list
		msg.run()
		m.syncLoading()
		m.updateTitle()
		if m.Results.Err() == nil {
			m.maybeLoadMore()
		}
		return m, WaitForCompletionCmd(m.completions)

	case searchMsg:
		m.startSearch(msg.text)
		return m, nil

	case PlaybackStartedMsg:
		m.StatusMsg = "Playing: " + msg.Title
		m.StatusIsErr = false
		return m, ClearStatusCmd(statusTimeout)

	case ErrMsg:
		m.StatusIsErr = true
		if errors.Is(msg.Err, domain.ErrNoPlayableVariant) {
			m.StatusMsg = "Video unavailable"
		} else {
			m.StatusMsg = msg.Error()
		}
		m.logger.Warn("ui error", "context", msg.Context, "error", msg.Err)
		return m, ClearStatusCmd(statusTimeout)

	case StatusMsg:
		m.StatusMsg = msg.Message
		m.StatusIsErr = msg.IsError
		return m, ClearStatusCmd(statusTimeout)

	case ClearStatusMsg:
		m.StatusMsg = ""
		m.StatusIsErr = false
		return m, nil

	case LogoutCompleteMsg:
		if msg.Error != nil {
			m.State = StateBrowsing
			m.StatusMsg = fmt.Sprintf("Logout failed: %v", msg.Error)
			m.StatusIsErr = true
			return m, ClearStatusCmd(statusTimeout)
		}
		m.LoggedOut = true
		return m, tea.Quit
	}

	return m, nil
}

// handleKeyMsg handles keyboard input
func (m Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	// Handle state-specific keys
	switch m.State {
	case StateHelp:
		if key.Matches(msg, m.Keys.Escape, m.Keys.Help, m.Keys.Quit) {
			m.State = StateBrowsing
		}
		return m, nil

	case StateConfirmLogout:
		switch {
		case key.Matches(msg, m.Keys.Confirm):
			return m, LogoutCmd(m.SessionSvc)
		case key.Matches(msg, m.Keys.Deny):
			m.State = StateBrowsing
		}
		return m, nil
	}

	// Search prompt
	if m.SearchInput.IsVisible() {
		var cmd tea.Cmd
		var submitted bool
		m.SearchInput, cmd, submitted = m.SearchInput.Update(msg)
		if !m.SearchInput.IsVisible() {
			m.updateLayout()
		}
		if submitted {
			if m.SearchInput.Changed() {
				m.startSearch(m.SearchInput.Text())
			} else if m.Engine.Query() != "" {
				m.Engine.Reload()
				m.syncLoading()
				m.updateTitle()
			}
			return m, nil
		}
		return m, cmd
	}

	// Settings
	if m.SettingsModal.IsVisible() {
		handled, closed, searchChanged := m.SettingsModal.HandleKey(msg.String())
		if handled {
			if closed && searchChanged && m.Engine.Query() != "" {
				m.logger.Info("search settings changed, reloading", "query", m.Engine.Query())
				m.Engine.Reload()
				m.syncLoading()
				m.updateTitle()
			}
			return m, nil
		}
	}

	// Filter typing
	if m.Results.IsFilterTyping() {
		if key.Matches(msg, m.Keys.Escape) {
			m.Results.ClearFilter()
			return m, nil
		}
		switch msg.String() {
		case "enter":
			m.Results.AcceptFilter()
			return m, nil
		case "backspace":
			if m.Results.FilterInput().Value() == "" {
				m.Results.ClearFilter()
				return m, nil
			}
		}
		input := m.Results.FilterInput()
		var cmd tea.Cmd
		*input, cmd = input.Update(msg)
		m.Results.ApplyFilterInput()
		return m, cmd
	}

	// Filter applied, navigating the matches
	if m.Results.IsFiltering() {
		switch {
		case key.Matches(msg, m.Keys.Escape):
			m.Results.ClearFilter()
			return m, nil
		case key.Matches(msg, m.Keys.Filter):
			m.Results.ToggleFilter()
			return m, nil
		}
	}

	switch {
	case key.Matches(msg, m.Keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.Keys.Help):
		m.State = StateHelp

	case key.Matches(msg, m.Keys.Search):
		cmd := m.SearchInput.Open(m.Engine.Query(), m.Prefs.Filters())
		m.updateLayout()
		return m, cmd

	case key.Matches(msg, m.Keys.Filter):
		m.Results.ToggleFilter()

	case key.Matches(msg, m.Keys.Play):
		if rec, ok := m.Results.Selected(); ok {
			return m, PlayRecordCmd(m.PlaybackSvc, rec)
		}

	case key.Matches(msg, m.Keys.Settings):
		m.SettingsModal.Show()

	case key.Matches(msg, m.Keys.Reload):
		if m.Engine.Query() != "" {
			m.Engine.Reload()
			m.syncLoading()
			m.updateTitle()
		}

	case key.Matches(msg, m.Keys.Logout):
		m.State = StateConfirmLogout

	case key.Matches(msg, m.Keys.Up):
		m.Results.MoveUp()
	case key.Matches(msg, m.Keys.Down):
		m.Results.MoveDown()
		m.maybeLoadMore()
	case key.Matches(msg, m.Keys.HalfUp):
		m.Results.HalfPageUp()
	case key.Matches(msg, m.Keys.HalfDown):
		m.Results.HalfPageDown()
		m.maybeLoadMore()
	case key.Matches(msg, m.Keys.Home):
		m.Results.Top()
	case key.Matches(msg, m.Keys.End):
		m.Results.Bottom()
		m.maybeLoadMore()
	}

	return m, nil
}

// startSearch persists text and replaces the active search
func (m *Model) startSearch(text string) {
	if err := m.Prefs.SetSearchText(strings.TrimSpace(text)); err != nil {
		m.logger.Warn("failed to save search text", "error", err)
	}
	m.Results.ClearFilter()
	m.Engine.SetQuery(text)
	m.syncLoading()
	m.updateTitle()
}

// maybeLoadMore requests the next page when the cursor nears the end. After
// a failed fetch this is also the retry.
func (m *Model) maybeLoadMore() {
	if m.Engine.State() != session.StatePageReady {
		return
	}
	if !m.Results.NearEnd(PrefetchThreshold) {
		return
	}
	m.Engine.LoadMore()
	m.syncLoading()
}

func (m *Model) syncLoading() {
	m.Results.SetLoading(m.Engine.State() == session.StateFetching)
}

func (m *Model) updateTitle() {
	query := m.Engine.Query()
	if query == "" {
		m.Results.SetTitle("Results")
		return
	}
	count := m.Engine.VideosCount(0)
	suffix := ""
	if m.Engine.State() != session.StateExhausted {
		suffix = "+"
	}
	m.Results.SetTitle(fmt.Sprintf("%q · %d%s videos", query, count, suffix))
}

func (m *Model) updateLayout() {
	height := m.Height - ChromeHeight
	if m.SearchInput.IsVisible() {
		// The prompt takes the header's row plus its own
		height -= m.SearchInput.Height() - 1
	}
	m.SearchInput.SetWidth(m.Width)
	m.Results.SetSize(m.Width, height)
}

// View renders the application
func (m Model) View() string {
	if !m.Ready {
		return "Loading..."
	}

	// Handle modal states
	if m.State == StateHelp {
		return m.renderHelp()
	}
	if m.State == StateConfirmLogout {
		return m.renderLogoutConfirmation()
	}

	header := m.renderHeader()
	if m.SearchInput.IsVisible() {
		header = m.SearchInput.View()
	}
	view := lipgloss.JoinVertical(lipgloss.Left,
		header,
		m.Results.View(),
		m.renderFooter(),
	)

	// Overlay modals
	if m.SettingsModal.IsVisible() {
		view = lipgloss.Place(m.Width, m.Height,
			lipgloss.Center, lipgloss.Center,
			m.SettingsModal.View())
	}

	return view
}

func (m Model) renderHeader() string {
	badge := styles.BadgeStyle.Render("reel")
	tags := components.FilterTags(m.Prefs.Filters())
	filters := styles.DimBadgeStyle.Render(strings.Join(tags, " · "))
	return badge + " " + filters
}

// renderFooter renders a single-line minimal footer
func (m Model) renderFooter() string {
	var left string
	switch {
	case m.StatusMsg != "" && m.StatusIsErr:
		left = styles.ErrorStyle.Render(m.StatusMsg)
	case m.StatusMsg != "":
		left = styles.DimStyle.Render(m.StatusMsg)
	case m.Results.IsLoading():
		left = RenderSpinner(m.SpinnerFrame) + " " + styles.DimStyle.Render("Searching...")
	case m.Results.Err() != nil:
		left = RenderError(m.Results.Err(), m.Width/2)
	case m.Results.AllLoaded():
		left = styles.SuccessStyle.Render("All results loaded")
	}

	var hints []string
	for _, b := range m.Keys.ShortHelp() {
		h := b.Help()
		hints = append(hints, styles.HelpKeyStyle.Render(h.Key)+" "+styles.HelpDescStyle.Render(h.Desc))
	}
	right := strings.Join(hints, "  ")

	gap := m.Width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		return left
	}
	return left + strings.Repeat(" ", gap) + right
}

// renderHelp renders the help screen
func (m Model) renderHelp() string {
	help := `
NAVIGATION                      ACTIONS
  j/k        Up/down               s      Search
  g/Home     First result          /      Filter loaded results
  G/End      Last result           Enter  Play
  Ctrl+u/d   Scroll half page      r      Reload search
                                   o      Settings
                                   L      Logout
                                   q      Quit

More results load as you scroll. A failed page
is retried by scrolling to the end again.

Press ? or Esc to return...
`

	return lipgloss.Place(m.Width, m.Height,
		lipgloss.Center, lipgloss.Center,
		styles.ModalStyle.Render(help))
}

// renderLogoutConfirmation renders the logout confirmation modal
func (m Model) renderLogoutConfirmation() string {
	modal := `
              Log Out?

  This will clear your token, the last
  search, and all cached results.

        [Y] Yes      [N] No
`

	return lipgloss.Place(m.Width, m.Height,
		lipgloss.Center, lipgloss.Center,
		styles.ModalStyle.Render(modal))
}
