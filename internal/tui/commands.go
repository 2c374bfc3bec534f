package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mmcdole/reel/internal/domain"
)

// Command factories for async operations

// player starts playback of a record
type player interface {
	Play(record domain.Record) error
}

// loggerOut ends the user session
type loggerOut interface {
	Logout() error
}

// WaitForCompletionCmd blocks until a fetch finishes and hands its
// completion to the update loop. Re-issue it after every completionMsg.
func WaitForCompletionCmd(completions <-chan func()) tea.Cmd {
	return func() tea.Msg {
		run, ok := <-completions
		if !ok {
			return nil
		}
		return completionMsg{run: run}
	}
}

// SearchCmd asks the update loop to start a remote search
func SearchCmd(text string) tea.Cmd {
	return func() tea.Msg {
		return searchMsg{text: text}
	}
}

// PlayRecordCmd launches the player for a record
func PlayRecordCmd(svc player, record domain.Record) tea.Cmd {
	return func() tea.Msg {
		if err := svc.Play(record); err != nil {
			return ErrMsg{Err: err, Context: "starting playback"}
		}
		return PlaybackStartedMsg{Title: record.Title}
	}
}

// LogoutCmd clears the stored token and cached results
func LogoutCmd(svc loggerOut) tea.Cmd {
	return func() tea.Msg {
		return LogoutCompleteMsg{Error: svc.Logout()}
	}
}

// TickCmd returns a command that sends a tick after a delay
func TickCmd(delay time.Duration) tea.Cmd {
	return tea.Tick(delay, func(t time.Time) tea.Msg {
		return TickMsg{}
	})
}

// ClearStatusCmd returns a command that clears status after a delay
func ClearStatusCmd(delay time.Duration) tea.Cmd {
	return tea.Tick(delay, func(t time.Time) tea.Msg {
		return ClearStatusMsg{}
	})
}
