package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/linuxmatters/actlevel/internal/audio"
)

// Palette
var (
	accentColor = lipgloss.Color("#2B7BB9")
	errorColor  = lipgloss.Color("#A40000")
	warnColor   = lipgloss.Color("#C28A00")
	mutedColor  = lipgloss.Color("#888888")
	textColor   = lipgloss.Color("#FFFFFF")
)

var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(accentColor).
			MarginBottom(1)

	ErrorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(errorColor)

	WarningStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(warnColor)

	KeyStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	ValueStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(textColor)

	// PathStyle marks the file a problem refers to.
	PathStyle = lipgloss.NewStyle().
			Underline(true)
)

// PrintVersion prints the version banner.
func PrintVersion(w io.Writer, version string) {
	fmt.Fprintln(w, TitleStyle.Render("actlevel"))
	for _, kv := range [][2]string{
		{"Version:", version},
		{"Method:", "ITU-T P.56 method B"},
		{"Format:", "mono 16-bit PCM, WAV or raw"},
	} {
		fmt.Fprintf(w, "%s %s\n", KeyStyle.Render(kv[0]), ValueStyle.Render(kv[1]))
	}
	fmt.Fprintln(w)
}

// PrintError reports a failure that ends the run.
func PrintError(w io.Writer, err error) {
	printProblem(w, ErrorStyle.Render("Error:"), err)
}

// PrintWarning reports a failure confined to one file of a batch.
func PrintWarning(w io.Writer, err error) {
	printProblem(w, WarningStyle.Render("Warning:"), err)
}

// printProblem writes err after label. The path of a failed file operation
// is highlighted, and the exit status it maps to is appended.
func printProblem(w io.Writer, label string, err error) {
	msg := err.Error()

	var ae *audio.Error
	if !errors.As(err, &ae) {
		fmt.Fprintf(w, "%s %s\n", label, msg)
		return
	}
	if ae.Path != "" {
		msg = strings.Replace(msg, ae.Path, PathStyle.Render(ae.Path), 1)
	}
	fmt.Fprintf(w, "%s %s %s\n", label, msg, KeyStyle.Render(fmt.Sprintf("(%s, exit status %d)", ae.Kind, ExitCode(err))))
}
