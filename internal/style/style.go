// Package style provides consistent terminal styling using Lipgloss.
package style

import "github.com/charmbracelet/lipgloss"

var (
	// Success style for positive outcomes
	Success = lipgloss.NewStyle().
		Foreground(lipgloss.Color("10")). // Green
		Bold(true)

	// Warning style for cautionary messages
	Warning = lipgloss.NewStyle().
		Foreground(lipgloss.Color("11")). // Yellow
		Bold(true)

	// Error style for failures
	Error = lipgloss.NewStyle().
		Foreground(lipgloss.Color("9")). // Red
		Bold(true)

	// Info style for informational messages
	Info = lipgloss.NewStyle().
		Foreground(lipgloss.Color("12")) // Blue

	// Dim style for secondary information
	Dim = lipgloss.NewStyle().
		Foreground(lipgloss.Color("8")) // Gray

	// Bold style for emphasis
	Bold = lipgloss.NewStyle().
		Bold(true)

	// Header style for table headings
	Header = lipgloss.NewStyle().
		Bold(true).
		Underline(true)

	// Admin style marks admin accounts in listings
	Admin = lipgloss.NewStyle().
		Foreground(lipgloss.Color("13")). // Magenta
		Bold(true)

	// Jackpot style for the grand prize banner
	Jackpot = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#ffd700")).
		Bold(true).
		Border(lipgloss.DoubleBorder()).
		BorderForeground(lipgloss.Color("#ef476f")).
		Padding(0, 2)

	// BigWin style for large cash prizes
	BigWin = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#f72585")).
		Bold(true).
		Border(lipgloss.RoundedBorder()).
		Padding(0, 2)

	// SuccessPrefix is the checkmark prefix for success messages
	SuccessPrefix = Success.Render("✓")

	// WarningPrefix is the warning prefix
	WarningPrefix = Warning.Render("⚠")

	// ErrorPrefix is the error prefix
	ErrorPrefix = Error.Render("✗")

	// ArrowPrefix for action indicators
	ArrowPrefix = Info.Render("→")
)

// Slot returns the style for a wheel slot painted in color (#rrggbb).
func Slot(color string) lipgloss.Style {
	return lipgloss.NewStyle().
		Background(lipgloss.Color(color)).
		Foreground(lipgloss.Color("#ffffff")).
		Bold(true).
		Padding(0, 1)
}

// Swatch renders text in the slot colour without a background.
func Swatch(color, text string) string {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Bold(true).Render(text)
}
