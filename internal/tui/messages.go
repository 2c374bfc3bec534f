package tui

// Message types for the TUI

// completionMsg carries a finished fetch back to the update loop. Running it
// merges the page and notifies the engine's observer.
type completionMsg struct {
	run func()
}

// searchMsg starts a remote search for text
type searchMsg struct {
	text string
}

// PlaybackStartedMsg signals that the player was launched
type PlaybackStartedMsg struct {
	Title string
}

// ErrMsg represents an error
type ErrMsg struct {
	Err     error
	Context string
}

// Error implements the error interface
func (e ErrMsg) Error() string {
	if e.Context != "" {
		return e.Context + ": " + e.Err.Error()
	}
	return e.Err.Error()
}

// StatusMsg shows a transient status line
type StatusMsg struct {
	Message string
	IsError bool
}

// ClearStatusMsg clears the status line
type ClearStatusMsg struct{}

// LogoutCompleteMsg signals that credentials and cached results are gone
type LogoutCompleteMsg struct {
	Error error
}

// TickMsg advances the spinner
type TickMsg struct{}
