package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	// Header style for titles and section headers
	StyleHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary).
			MarginBottom(1)

	StyleLabel = lipgloss.NewStyle().
			Foreground(ColorText).
			Bold(true)

	StyleSuccess = lipgloss.NewStyle().
			Foreground(ColorSuccess)

	StyleError = lipgloss.NewStyle().
			Foreground(ColorError).
			Bold(true)

	StyleWarning = lipgloss.NewStyle().
			Foreground(ColorWarning)

	// Muted style for secondary text
	StyleMuted = lipgloss.NewStyle().
			Foreground(ColorMuted)
)

const logoASCII = `
 _                _ _   _     _                       _       _       
| |__   ___  __ _| | |_| |__ | |_ _ __ __ _ _ __  ___| | __ _| |_ ___ 
| '_ \ / _ \/ _' | | __| '_ \| __| '__/ _' | '_ \/ __| |/ _' | __/ _ \
| | | |  __/ (_| | | |_| | | | |_| | | (_| | | | \__ \ | (_| | ||  __/
|_| |_|\___|\__,_|_|\__|_| |_|\__|_|  \__,_|_| |_|___/_|\__,_|\__\___|`

func Logo() string {
	return StyleHeader.Render(strings.Trim(logoASCII, "\n"))
}
