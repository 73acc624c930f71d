package ui

import "github.com/charmbracelet/lipgloss"

// Colors.
var (
	normalDim  = lipgloss.AdaptiveColor{Light: "#A49FA5", Dark: "#777777"}
	gray       = lipgloss.AdaptiveColor{Light: "#909090", Dark: "#626262"}
	fuchsia    = lipgloss.Color("#EE6FF8")
	cream      = lipgloss.AdaptiveColor{Light: "#FFFDF5", Dark: "#FFFDF5"}
	green      = lipgloss.Color("#04B575")
	red        = lipgloss.AdaptiveColor{Light: "#FF4672", Dark: "#ED567A"}
	faintRed   = lipgloss.AdaptiveColor{Light: "#FF6F91", Dark: "#C74665"}
	brightGray = lipgloss.AdaptiveColor{Light: "#847A85", Dark: "#979797"}
)

var (
	logoStyle = lipgloss.NewStyle().
			Foreground(cream).
			Background(fuchsia).
			Bold(true).
			Padding(0, 1)

	subtleStyle = lipgloss.NewStyle().Foreground(gray)

	labelStyle = lipgloss.NewStyle().Foreground(brightGray)

	detectedStyle = lipgloss.NewStyle().Foreground(green).Bold(true)

	errorLabelStyle = lipgloss.NewStyle().Foreground(red)

	statusStyle = lipgloss.NewStyle().Foreground(faintRed)

	paneStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(normalDim).
			Padding(0, 1)

	focusedPaneStyle = paneStyle.
				BorderForeground(fuchsia)

	selectorPromptStyle = lipgloss.NewStyle().Foreground(fuchsia)

	selectedItemStyle = lipgloss.NewStyle().Foreground(fuchsia)

	normalItemStyle = lipgloss.NewStyle()
)
