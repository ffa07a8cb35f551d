// Package styles holds the palette and lipgloss styles shared by the TUI views.
package styles

import (
	"github.com/charmbracelet/lipgloss"
)

// Palette is the set of colours the TUI draws with. Adaptive colours pick
// the light or dark variant from the terminal background.
type Palette struct {
	Accent    lipgloss.TerminalColor
	Highlight lipgloss.TerminalColor
	Text      lipgloss.TerminalColor
	Dim       lipgloss.TerminalColor
	Danger    lipgloss.TerminalColor
	Frame     lipgloss.TerminalColor
	Bar       lipgloss.TerminalColor
}

// DefaultPalette is a teal and amber scheme readable on light and dark terminals.
func DefaultPalette() Palette {
	return Palette{
		Accent:    lipgloss.AdaptiveColor{Light: "#0F766E", Dark: "#2DD4BF"},
		Highlight: lipgloss.AdaptiveColor{Light: "#B45309", Dark: "#FBBF24"},
		Text:      lipgloss.AdaptiveColor{Light: "#1F2937", Dark: "#E5E7EB"},
		Dim:       lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#9CA3AF"},
		Danger:    lipgloss.AdaptiveColor{Light: "#B91C1C", Dark: "#F87171"},
		Frame:     lipgloss.AdaptiveColor{Light: "#D1D5DB", Dark: "#374151"},
		Bar:       lipgloss.AdaptiveColor{Light: "#F3F4F6", Dark: "#111827"},
	}
}

// Styles are the rendered styles derived from a Palette.
type Styles struct {
	palette Palette

	Title    lipgloss.Style
	Subtitle lipgloss.Style
	Normal   lipgloss.Style
	Muted    lipgloss.Style
	Selected lipgloss.Style
	Error    lipgloss.Style

	// InputField frames the question prompt.
	InputField lipgloss.Style
	StatusBar  lipgloss.Style

	// Question prefixes the user's turns in the chat transcript.
	Question lipgloss.Style
	// Source renders the "Course - Lesson N" provenance lines under an answer.
	Source lipgloss.Style
}

// NewStyles derives styles from p.
func NewStyles(p Palette) *Styles {
	return &Styles{
		palette:    p,
		Title:      lipgloss.NewStyle().Bold(true).Foreground(p.Accent),
		Subtitle:   lipgloss.NewStyle().Bold(true).Foreground(p.Highlight),
		Normal:     lipgloss.NewStyle().Foreground(p.Text),
		Muted:      lipgloss.NewStyle().Foreground(p.Dim),
		Selected:   lipgloss.NewStyle().Bold(true).Foreground(p.Highlight),
		Error:      lipgloss.NewStyle().Foreground(p.Danger),
		InputField: lipgloss.NewStyle().BorderStyle(lipgloss.RoundedBorder()).BorderForeground(p.Frame).Padding(0, 1),
		StatusBar:  lipgloss.NewStyle().Foreground(p.Dim).Background(p.Bar).Padding(0, 1),
		Question:   lipgloss.NewStyle().Bold(true).Foreground(p.Accent),
		Source:     lipgloss.NewStyle().Italic(true).Foreground(p.Dim),
	}
}

// DefaultStyles returns styles for DefaultPalette.
func DefaultStyles() *Styles {
	return NewStyles(DefaultPalette())
}

// Palette returns the colours these styles were built from.
func (s *Styles) Palette() Palette {
	return s.palette
}
