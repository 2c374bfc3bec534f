package tui

import (
	"errors"

	"github.com/mmcdole/reel/internal/domain"
	"github.com/mmcdole/reel/internal/tui/styles"
)

// RenderSpinner renders a loading spinner
func RenderSpinner(frame int) string {
	frames := styles.SpinnerFrames
	return styles.SpinnerStyle.Render(frames[frame%len(frames)])
}

// RenderError renders a fetch error on one line
func RenderError(err error, width int) string {
	return styles.ErrorStyle.Render(styles.Truncate("Error: "+errorText(err), max(width, 10)))
}

// errorText phrases the errors a user can act on
func errorText(err error) string {
	switch {
	case errors.Is(err, domain.ErrAuthFailed):
		return "token rejected, press L to log out"
	case errors.Is(err, domain.ErrServerOffline):
		return "server unreachable, scroll down to retry"
	default:
		return err.Error()
	}
}
