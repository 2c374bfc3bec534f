package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Color palette
var (
	ReelRed    = lipgloss.Color("#E4572E")
	SlateDark  = lipgloss.Color("#1F2937")
	SlateLight = lipgloss.Color("#374151")
	DimGray    = lipgloss.Color("#6B7280")
	LightGray  = lipgloss.Color("#9CA3AF")
	White      = lipgloss.Color("#F9FAFB")
	Green      = lipgloss.Color("#10B981")
	Red        = lipgloss.Color("#EF4444")
)

// Text styles
var (
	DimStyle = lipgloss.NewStyle().
			Foreground(DimGray)

	AccentStyle = lipgloss.NewStyle().
			Foreground(ReelRed)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(Red)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(Green)
)

// Border styles
var (
	ActiveBorder = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ReelRed)

	InactiveBorder = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(SlateLight)
)

// Modal styles
var (
	ModalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ReelRed).
			Padding(1, 2)

	ModalTitleStyle = lipgloss.NewStyle().
			Foreground(White).
			Bold(true).
			MarginBottom(1)
)

// Help styles
var (
	HelpKeyStyle = lipgloss.NewStyle().
			Foreground(ReelRed)

	HelpDescStyle = lipgloss.NewStyle().
			Foreground(DimGray)
)

// Badge styles
var (
	BadgeStyle = lipgloss.NewStyle().
			Foreground(White).
			Background(ReelRed).
			Padding(0, 1)

	DimBadgeStyle = lipgloss.NewStyle().
			Foreground(LightGray).
			Background(SlateLight).
			Padding(0, 1)
)

var SpinnerStyle = lipgloss.NewStyle().Foreground(ReelRed)

// Filter styles
var (
	FilterPromptStyle = lipgloss.NewStyle().
				Foreground(ReelRed).
				Bold(true)

	FilterStyle = lipgloss.NewStyle().
			Foreground(White)
)

// SpinnerFrames are used outside Bubble Tea, e.g. during setup
var SpinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Truncate shortens s to width terminal cells, ending in an ellipsis
func Truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if lipgloss.Width(s) <= width {
		return s
	}
	runes := []rune(s)
	if width <= 1 {
		return string(runes[:width])
	}
	for len(runes) > 0 && lipgloss.Width(string(runes))+1 > width {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "…"
}

// RowPart is a piece of a list row with an optional foreground color
type RowPart struct {
	Text       string
	Foreground *lipgloss.Color
}

// RenderListRow renders a row with a uniform background when selected.
// Each part is styled on its own so ANSI resets do not cut the background.
func RenderListRow(parts []RowPart, selected bool, width int) string {
	bg := SlateLight
	var b strings.Builder
	visible := 0

	for _, part := range parts {
		style := lipgloss.NewStyle()
		switch {
		case part.Foreground != nil:
			style = style.Foreground(*part.Foreground)
		case selected:
			style = style.Foreground(White)
		default:
			style = style.Foreground(LightGray)
		}
		if selected {
			style = style.Background(bg)
		}
		b.WriteString(style.Render(part.Text))
		visible += lipgloss.Width(part.Text)
	}

	pad := lipgloss.NewStyle()
	if selected {
		pad = pad.Background(bg)
	}
	// One cell of margin each side
	if n := width - visible - 2; n > 0 {
		b.WriteString(pad.Render(strings.Repeat(" ", n)))
	}
	margin := pad.Render(" ")
	return margin + b.String() + margin
}

// Pad pads s with spaces to width cells, truncating when longer
func Pad(s string, width int) string {
	w := lipgloss.Width(s)
	if w > width {
		return Truncate(s, width)
	}
	return s + strings.Repeat(" ", width-w)
}
