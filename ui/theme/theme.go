// Package theme holds the shared color palette and lipgloss styles.
package theme

import "github.com/charmbracelet/lipgloss"

var (
	ColorYellow   = lipgloss.Color("11")
	ColorOrange   = lipgloss.Color("208")
	ColorRed      = lipgloss.Color("9")
	ColorMagenta  = lipgloss.Color("13")
	ColorBlue     = lipgloss.Color("12")
	ColorGreen    = lipgloss.Color("10")
	ColorWhite    = lipgloss.Color("15")
	ColorDimWhite = lipgloss.Color("245")
	ColorSurface  = lipgloss.Color("236")
	ColorOverlay  = lipgloss.Color("238")
)

var (
	TitleStyle        = lipgloss.NewStyle().Foreground(ColorDimWhite)
	FocusedTitleStyle = lipgloss.NewStyle().Foreground(ColorYellow).Bold(true)

	SelectedItemStyle = lipgloss.NewStyle().Foreground(ColorWhite).Background(ColorOverlay).Bold(true)
	NormalItemStyle   = lipgloss.NewStyle().Foreground(ColorWhite)
	DimmedStyle       = lipgloss.NewStyle().Foreground(ColorDimWhite)
	ErrorStyle        = lipgloss.NewStyle().Foreground(ColorRed).Bold(true)
	PendingStyle      = lipgloss.NewStyle().Foreground(ColorOrange)

	ModifiedStyle = lipgloss.NewStyle().Foreground(ColorYellow)
	AddedStyle    = lipgloss.NewStyle().Foreground(ColorGreen)
	DeletedStyle  = lipgloss.NewStyle().Foreground(ColorRed)
	RenamedStyle  = lipgloss.NewStyle().Foreground(ColorBlue)
	ConflictStyle = lipgloss.NewStyle().Foreground(ColorOrange).Bold(true)

	ChangeIDStyle  = lipgloss.NewStyle().Foreground(ColorMagenta)
	BookmarkStyle  = lipgloss.NewStyle().Foreground(ColorMagenta).Bold(true)
	RemoteStyle    = lipgloss.NewStyle().Foreground(ColorDimWhite)
	TimestampStyle = lipgloss.NewStyle().Foreground(ColorDimWhite)

	FloatingTitleStyle = lipgloss.NewStyle().Foreground(ColorYellow).Bold(true)

	HelpBarStyle  = lipgloss.NewStyle().Background(ColorSurface)
	HelpKeyStyle  = lipgloss.NewStyle().Foreground(ColorYellow).Background(ColorSurface)
	HelpDescStyle = lipgloss.NewStyle().Foreground(ColorDimWhite).Background(ColorSurface)
)

// StatusStyle maps a one-letter jj diff summary status to a style.
func StatusStyle(status string) lipgloss.Style {
	switch status {
	case "A":
		return AddedStyle
	case "D":
		return DeletedStyle
	case "R":
		return RenamedStyle
	case "C":
		return ConflictStyle
	default:
		return ModifiedStyle
	}
}
