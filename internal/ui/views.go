package ui

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/linuxmatters/actlevel/internal/p56"
)

var (
	accentColor = lipgloss.Color("#2B7BB9")
	okColor     = lipgloss.Color("#00AA00")
	busyColor   = lipgloss.Color("#FFA500")
	failColor   = lipgloss.Color("#A40000")
	mutedColor  = lipgloss.Color("#888888")
)

// renderProcessingView renders the main processing view
func renderProcessingView(m Model) string {
	var b strings.Builder

	b.WriteString(renderHeader(m))
	b.WriteString("\n\n")

	b.WriteString(renderFileQueue(m))
	b.WriteString("\n\n")

	b.WriteString(renderOverallProgress(m))

	return b.String()
}

// renderHeader renders the application header
func renderHeader(m Model) string {
	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(accentColor).
		Render("actlevel - ITU-T P.56 Active Speech Level")

	action := fmt.Sprintf("Measuring %d file(s)", m.TotalFiles)
	if m.Mode == ModeNormalize {
		action = fmt.Sprintf("Normalizing %d file(s) to %.1f dBov", m.TotalFiles, m.Target)
	}
	subtitle := lipgloss.NewStyle().
		Foreground(mutedColor).
		Italic(true).
		Render(action)

	return title + "\n" + subtitle
}

// renderFileQueue renders the list of files with their status
func renderFileQueue(m Model) string {
	var b strings.Builder

	for _, file := range m.Files {
		b.WriteString(renderFileEntry(m, file))
		b.WriteString("\n")
	}

	return b.String()
}

// renderFileEntry renders a single file entry in the queue
func renderFileEntry(m Model, file FileProgress) string {
	fileName := filepath.Base(file.InputPath)

	switch file.Status {
	case StatusComplete:
		icon := lipgloss.NewStyle().Foreground(okColor).Render("✓")
		return fmt.Sprintf(" %s %s\n   %s", icon, fileTarget(file), fileSummary(file))

	case StatusMeasuring, StatusEqualizing, StatusVerifying:
		icon := lipgloss.NewStyle().Foreground(busyColor).Render(spinnerFrames[m.spinnerIndex])
		return fmt.Sprintf(" %s %s\n%s", icon, fileName, renderFileDetails(m, file))

	case StatusError:
		icon := lipgloss.NewStyle().Foreground(failColor).Render("✗")
		return fmt.Sprintf(" %s %s\n   Error: %v", icon, fileName, file.Error)

	default:
		icon := lipgloss.NewStyle().Foreground(mutedColor).Render("○")
		return fmt.Sprintf(" %s %s\n   Queued...", icon, fileName)
	}
}

func fileTarget(file FileProgress) string {
	name := filepath.Base(file.InputPath)
	if file.OutputPath == "" {
		return name
	}
	return name + " → " + filepath.Base(file.OutputPath)
}

// fileSummary renders the one-line result for a finished file.
func fileSummary(file FileProgress) string {
	in := file.Input
	if in == nil {
		return ""
	}
	if file.Output == nil {
		return fmt.Sprintf("Active: %s | RMS: %s | Activity: %.1f%%",
			formatLevel(in.ActiveLevel), formatLevel(in.RMSLevel), in.Activity)
	}

	summary := fmt.Sprintf("Before: %s | After: %s", formatLevel(in.ActiveLevel), formatLevel(file.Output.ActiveLevel))
	if in.Plan != nil {
		if in.Plan.Silent {
			summary += " | silent, copied unchanged"
		} else {
			summary += fmt.Sprintf(" | Gain %+.1f dB", in.Plan.GainDB())
		}
	}
	if file.Clipped > 0 {
		summary += lipgloss.NewStyle().Foreground(failColor).Render(fmt.Sprintf(" | %d clipped", file.Clipped))
	}
	return summary
}

// renderFileDetails renders detailed progress for an active file
func renderFileDetails(m Model, file FileProgress) string {
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(accentColor).
		Padding(0, 1).
		Width(60)

	var content strings.Builder

	pass := max(file.CurrentPass, 1)
	passName := file.PassName
	if passName == "" {
		passName = "Measuring"
	}
	content.WriteString(fmt.Sprintf("Pass %d/%d: %s\n", pass, m.Mode.Passes(), passName))

	content.WriteString(renderProgressBar(file.Progress, 40, file.ElapsedTime))
	content.WriteString("\n")

	if file.CurrentLevel > p56.SilentLevel {
		content.WriteString(fmt.Sprintf("\nActive Level: %.1f dBov", file.CurrentLevel))
	}

	return box.Render(content.String())
}

// renderProgressBar renders a progress bar with percentage and elapsed time
func renderProgressBar(progress float64, width int, elapsed time.Duration) string {
	filled := min(int(progress*float64(width)), width)
	empty := width - filled

	filledStyle := lipgloss.NewStyle().Foreground(accentColor)
	emptyStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#444444"))

	bar := filledStyle.Render(strings.Repeat("━", filled)) +
		emptyStyle.Render(strings.Repeat("━", empty))

	percentage := int(progress * 100)

	return fmt.Sprintf("%s %3d%% [%s]", bar, percentage, formatElapsed(elapsed))
}

// renderOverallProgress renders the overall progress footer
func renderOverallProgress(m Model) string {
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(mutedColor).
		Padding(0, 1).
		Width(60)

	content := fmt.Sprintf("Overall Progress: %d/%d complete", m.CompletedFiles+m.FailedFiles, m.TotalFiles)
	if m.FailedFiles > 0 {
		content += fmt.Sprintf(" (%d failed)", m.FailedFiles)
	}
	content += fmt.Sprintf(" [%s]", formatElapsed(time.Since(m.StartTime)))

	return box.Render(content)
}

// renderCompletionSummary renders the final completion summary
func renderCompletionSummary(m Model) string {
	var b strings.Builder

	header := lipgloss.NewStyle().
		Bold(true).
		Foreground(okColor).
		Render("✨ Processing Complete!")
	if m.FailedFiles > 0 {
		header = lipgloss.NewStyle().
			Bold(true).
			Foreground(failColor).
			Render(fmt.Sprintf("Processing finished with %d error(s)", m.FailedFiles))
	}
	b.WriteString(header)
	b.WriteString("\n\n")

	for _, file := range m.Files {
		b.WriteString(renderFileEntry(m, file))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(strings.Repeat("─", 60))
	b.WriteString("\n")
	if m.Mode == ModeNormalize {
		b.WriteString(fmt.Sprintf("%d of %d file(s) equalized to %.1f dBov\n", m.CompletedFiles, m.TotalFiles, m.Target))
	} else {
		b.WriteString(fmt.Sprintf("%d of %d file(s) measured\n", m.CompletedFiles, m.TotalFiles))
	}

	return b.String()
}

// formatLevel formats a dBov level, naming silence.
func formatLevel(level float64) string {
	if level <= p56.SilentLevel {
		return "silent"
	}
	return fmt.Sprintf("%.1f dBov", level)
}

// formatElapsed formats elapsed time as MM:SS or HH:MM:SS
func formatElapsed(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}
