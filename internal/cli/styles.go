// Package cli holds the terminal styling shared by the restore commands.
package cli

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

var (
	primaryColor = lipgloss.Color("#2E86AB")
	mutedColor   = lipgloss.Color("#888888")
	textColor    = lipgloss.Color("#FFFFFF")
	okColor      = lipgloss.Color("#00AA00")
	failColor    = lipgloss.Color("#C0392B")
)

var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor).
			MarginBottom(1)

	ErrorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(failColor)

	KeyStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	ValueStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(textColor)

	OKStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(okColor)
)

// PrintVersion writes the program name and version.
func PrintVersion(w io.Writer, version string) {
	fmt.Fprintln(w, TitleStyle.Render("algo-restore"))
	fmt.Fprintf(w, "%s %s\n", KeyStyle.Render("Version:"), ValueStyle.Render(version))
}

// PrintError writes an error line.
func PrintError(w io.Writer, message string) {
	fmt.Fprintf(w, "%s %s\n", ErrorStyle.Render("Error:"), message)
}

// PrintKeyValue writes one aligned "key: value" line.
func PrintKeyValue(w io.Writer, key, value string) {
	fmt.Fprintf(w, "%s %s\n", KeyStyle.Render(fmt.Sprintf("%-20s", key+":")), ValueStyle.Render(value))
}

// PrintStatus writes a success or failure marker followed by message.
func PrintStatus(w io.Writer, ok bool, message string) {
	mark := OKStyle.Render("ok  ")
	if !ok {
		mark = ErrorStyle.Render("FAIL")
	}

	fmt.Fprintf(w, "%s %s\n", mark, message)
}
