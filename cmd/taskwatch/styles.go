package main

import (
	"github.com/charmbracelet/lipgloss"

	"taskflow-backend/internal/timer"
)

var (
	colorBlue   = lipgloss.AdaptiveColor{Dark: "#5B9BD5", Light: "#2B6CB0"}
	colorGreen  = lipgloss.AdaptiveColor{Dark: "#6BCB77", Light: "#2F855A"}
	colorYellow = lipgloss.AdaptiveColor{Dark: "#FFD93D", Light: "#B7791F"}
	colorOrange = lipgloss.AdaptiveColor{Dark: "#FFA94D", Light: "#C05621"}
	colorRed    = lipgloss.AdaptiveColor{Dark: "#FF6B6B", Light: "#C53030"}
	colorGray   = lipgloss.AdaptiveColor{Dark: "#868E96", Light: "#718096"}
	colorWhite  = lipgloss.AdaptiveColor{Dark: "#F8F9FA", Light: "#1A202C"}
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorWhite).
			Background(colorBlue).
			Padding(0, 1)

	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorBlue)
	itemStyle     = lipgloss.NewStyle().PaddingLeft(2)
	mutedStyle    = lipgloss.NewStyle().Foreground(colorGray)
	helpStyle     = lipgloss.NewStyle().Foreground(colorGray).Italic(true)
	errorStyle    = lipgloss.NewStyle().Foreground(colorRed).Bold(true)
	alertStyle    = lipgloss.NewStyle().Bold(true).Foreground(colorWhite).Background(colorRed).Padding(0, 1)
)

// phaseStyle colors a countdown by how much of the estimate is left.
func phaseStyle(p timer.Phase) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true)
	switch p {
	case timer.PhaseHalfElapsed:
		return base.Foreground(colorYellow)
	case timer.PhaseFinal:
		return base.Foreground(colorOrange)
	case timer.PhaseExpired:
		return base.Foreground(colorRed)
	default:
		return base.Foreground(colorGreen)
	}
}
