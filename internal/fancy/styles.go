// Package fancy provides the terminal styles used for CLI output.
package fancy

import (
	"github.com/charmbracelet/lipgloss"
)

var (
	// LabelStyle is used for field labels such as "local:" in module info output
	LabelStyle = lipgloss.NewStyle().
			Foreground(ColorWhite).
			Bold(true)

	// HostErrorStyle prefixes failures raised by the host
	HostErrorStyle = lipgloss.NewStyle().
			Foreground(ColorRed).
			Bold(true)

	// ScriptErrorStyle prefixes exceptions propagated out of hosted code
	ScriptErrorStyle = lipgloss.NewStyle().
				Foreground(ColorYellow).
				Bold(true)

	// InfoStyle is used for secondary information
	InfoStyle = lipgloss.NewStyle().
			Foreground(ColorGray).
			Italic(true)
)

// Label renders a bold field label
func Label(text string) string {
	return LabelStyle.Render(text)
}

// HostErrorText styles the prefix of a host error
func HostErrorText(text string) string {
	return HostErrorStyle.Render(text)
}

// ScriptErrorText styles the prefix of a script error
func ScriptErrorText(text string) string {
	return ScriptErrorStyle.Render(text)
}

// InfoText styles secondary information
func InfoText(text string) string {
	return InfoStyle.Render(text)
}
