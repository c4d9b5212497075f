package tui

import "github.com/charmbracelet/lipgloss"

// ─── Colors ─────────────────────────────────────────────────────────────────

var (
	colorAccent  = lipgloss.Color("#7C6FF2") // primary accent
	colorGreen   = lipgloss.Color("78")
	colorYellow  = lipgloss.Color("220")
	colorRed     = lipgloss.Color("196")
	colorMagenta = lipgloss.Color("213")
	colorBlue    = lipgloss.Color("111")
	colorTeal    = lipgloss.Color("73")
	colorGray    = lipgloss.Color("242")
	colorDimGray = lipgloss.Color("238")
	colorWhite   = lipgloss.Color("255")
)

// ─── Welcome ────────────────────────────────────────────────────────────────

var logoMarkStyle = lipgloss.NewStyle().
	Foreground(colorAccent).
	Bold(true)

var logoTitleStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(colorWhite)

var versionStyle = lipgloss.NewStyle().
	Foreground(colorGray)

var welcomeHintStyle = lipgloss.NewStyle().
	Foreground(colorGray).
	Italic(true)

var welcomeInfoLabel = lipgloss.NewStyle().
	Foreground(colorGray)

// ─── Input / Prompt ─────────────────────────────────────────────────────────

var promptSymbol = lipgloss.NewStyle().
	Foreground(colorAccent).
	Bold(true)

var modeBadgeStyle = lipgloss.NewStyle().
	Foreground(colorAccent)

// ─── Hint Bar ───────────────────────────────────────────────────────────────

var hintBarStyle = lipgloss.NewStyle().
	Foreground(colorGray)

var hintKeyStyle = lipgloss.NewStyle().
	Foreground(colorGray).
	Bold(true)

// Command menu styles
var cmdNameStyle = lipgloss.NewStyle().
	Foreground(colorAccent)

var cmdDescStyle = lipgloss.NewStyle().
	Foreground(colorGray)

var cmdSelectedNameStyle = lipgloss.NewStyle().
	Foreground(colorAccent).
	Bold(true).
	Reverse(true)

var cmdSelectedDescStyle = lipgloss.NewStyle().
	Foreground(colorWhite).
	Bold(true)

// ─── Output Styles ──────────────────────────────────────────────────────────

var successMsgStyle = lipgloss.NewStyle().
	Foreground(colorGreen)

var errorMsgStyle = lipgloss.NewStyle().
	Foreground(colorRed)

var warnMsgStyle = lipgloss.NewStyle().
	Foreground(colorYellow)

var infoMsgStyle = lipgloss.NewStyle().
	Foreground(colorBlue)

var statusStyle = lipgloss.NewStyle().
	Foreground(colorYellow)

var userPromptStyle = lipgloss.NewStyle().
	Foreground(colorAccent).
	Bold(true)

var strategyHeaderStyle = lipgloss.NewStyle().
	Foreground(colorMagenta).
	Bold(true)

var searchStyle = lipgloss.NewStyle().
	Foreground(colorBlue)

var refHeaderStyle = lipgloss.NewStyle().
	Foreground(colorBlue).
	Bold(true)

var refNumberStyle = lipgloss.NewStyle().
	Foreground(colorTeal)

var draftStyle = lipgloss.NewStyle().
	Foreground(colorGray).
	Italic(true)

var dimStyle = lipgloss.NewStyle().
	Foreground(colorGray)

var separatorStyle = lipgloss.NewStyle().
	Foreground(colorDimGray)
