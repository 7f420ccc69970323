package tui

import "github.com/charmbracelet/lipgloss"

var (
	// Core palette
	Green       = lipgloss.Color("#00FF41")
	BrightGreen = lipgloss.Color("#39FF14")
	MedGreen    = lipgloss.Color("#00C832")
	DarkGreen   = lipgloss.Color("#008F11")
	DimGreen    = lipgloss.Color("#003B00")
	Cyan        = lipgloss.Color("#00D4AA")
	Amber       = lipgloss.Color("#FFB000")
	Black       = lipgloss.Color("#0D0208")
	MidGray     = lipgloss.Color("#3a3a4e")
	LightGray   = lipgloss.Color("#aaaaaa")
	White       = lipgloss.Color("#e0e0e0")

	// Status bar
	StatusBarStyle = lipgloss.NewStyle().
			Background(DarkGreen).
			Foreground(Black).
			Bold(true).
			Padding(0, 1)

	// Items
	ItemStyle = lipgloss.NewStyle().
			Foreground(White)

	NewItemStyle = lipgloss.NewStyle().
			Foreground(BrightGreen).
			Bold(true)

	RecipeCountStyle = lipgloss.NewStyle().
				Foreground(MidGray)

	// Selection
	SelectedStyle = lipgloss.NewStyle().
			Foreground(Green).
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(Green).
			PaddingLeft(1)

	UnselectedStyle = lipgloss.NewStyle().
			Foreground(LightGray).
			PaddingLeft(2)

	CheckStyle = lipgloss.NewStyle().
			Foreground(Cyan).
			Bold(true)

	// Input
	InputActiveStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(Green).
				Padding(0, 1)

	InputBorderStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(DarkGreen).
				Padding(0, 1)

	// Boxes
	LogoBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(DarkGreen).
			Padding(0, 1)

	// Spinner
	SpinnerStyle = lipgloss.NewStyle().
			Foreground(BrightGreen)

	// Banner
	BannerStyle = lipgloss.NewStyle().
			Foreground(Green).
			Bold(true)

	// Warnings (skipped pairs)
	WarnStyle = lipgloss.NewStyle().
			Foreground(Amber)

	// Error
	ErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF4136")).
			Bold(true)

	// Help text
	HelpStyle = lipgloss.NewStyle().
			Foreground(DimGreen)
)

const Banner = `
   ___ ___   ___  _  ______  ___   ___  _  __
  / __/ _ \ / _ \| |/ / _ )/ _ \ / _ \| |/ /
 | (_| (_) | (_) | ' <| _ \ (_) | (_) | ' <
  \___\___/ \___/|_|\_\___/\___/ \___/|_|\_\
`
