package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Theme defines the color scheme for terminal output.
type Theme struct {
	Primary lipgloss.Color // Main accent color
	Dim     lipgloss.Color // Dimmed/help text color
	Danger  lipgloss.Color // Rejection/error color
}

// DefaultTheme is the default bright green theme.
var DefaultTheme = Theme{
	Primary: lipgloss.Color("#00ff9f"),
	Dim:     lipgloss.Color("#6e7681"),
	Danger:  lipgloss.Color("#ff5f56"),
}

// Styles holds all styles derived from a theme.
type Styles struct {
	Title  lipgloss.Style
	Label  lipgloss.Style
	Prompt lipgloss.Style
	Accept lipgloss.Style
	Reject lipgloss.Style
	Help   lipgloss.Style
}

// NewStyles creates styles from a theme.
func NewStyles(t Theme) Styles {
	return Styles{
		Title:  lipgloss.NewStyle().Bold(true).Foreground(t.Primary).Padding(0, 1),
		Label:  lipgloss.NewStyle().Bold(true).Foreground(t.Primary),
		Prompt: lipgloss.NewStyle().Bold(true).Border(lipgloss.RoundedBorder()).BorderForeground(t.Primary).Padding(0, 2),
		Accept: lipgloss.NewStyle().Bold(true).Foreground(t.Primary),
		Reject: lipgloss.NewStyle().Bold(true).Foreground(t.Danger),
		Help:   lipgloss.NewStyle().Foreground(t.Dim),
	}
}

// PromptCard renders a please-say-this card for a capture prompt.
// position is "2/5"-style progress, empty for a single capture.
func (s Styles) PromptCard(text, position string) string {
	card := s.Prompt.Render(text)
	if position == "" {
		return card
	}
	return card + "\n" + s.Help.Render(position)
}

// LevelBar renders a fixed-width audio level bar for a dBFS reading in
// the range [-160, 0].
func LevelBar(db float64, width int) string {
	if width <= 0 {
		return ""
	}
	// Anything below -60 dB is silence for display purposes.
	const floor = -60.0
	frac := (db - floor) / -floor
	if frac < 0 {
		frac = 0
	}
	if frac > 1 {
		frac = 1
	}
	filled := int(frac * float64(width))
	return fmt.Sprintf("[%s%s] %6.1f dB",
		strings.Repeat("#", filled),
		strings.Repeat("-", width-filled),
		db)
}
