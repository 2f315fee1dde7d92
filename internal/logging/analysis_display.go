// This file provides the console display used when output is not a terminal.

package logging

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/linuxmatters/actlevel/internal/processor"
)

// DisplayMeasurement writes a readable account of one measurement to the
// console. Used by the measure command when the interactive UI is off.
func DisplayMeasurement(w io.Writer, r *processor.Report) {
	fmt.Fprintln(w, strings.Repeat("=", 70))
	fmt.Fprintf(w, "MEASUREMENT: %s\n", filepath.Base(r.Path))
	fmt.Fprintln(w, strings.Repeat("=", 70))

	writeFileInfo(w, r)

	writeAnalysisSection(w, "LEVELS")
	if r.Samples == 0 {
		fmt.Fprintln(w, "  No samples measured")
		fmt.Fprintln(w)
		return
	}
	fmt.Fprintf(w, "  Active Level:   %s\n", formatLevel(r.ActiveLevel))
	fmt.Fprintf(w, "  RMS Level:      %s\n", formatLevel(r.RMSLevel))
	fmt.Fprintf(w, "  Activity:       %.1f%%\n", r.Activity)
	fmt.Fprintln(w)

	writeAnalysisSection(w, "PEAKS")
	scale := r.FullScale()
	fmt.Fprintf(w, "  Maximum:        %.0f (%s dBov)\n", scale*r.AbsMax, formatMetricPeak(r.AbsMax, 1))
	fmt.Fprintf(w, "  Range:          %.0f to %.0f\n", scale*r.MaxNegative, scale*r.MaxPositive)
	fmt.Fprintf(w, "  DC Offset:      %.2f\n", scale*r.DC)
	fmt.Fprintf(w, "  RMS Peak:       %.1f dB\n", r.RMSPeakFactor)
	if !r.Silent {
		fmt.Fprintf(w, "  Active Peak:    %.1f dB\n", r.ActivePeakFactor)
	}
	fmt.Fprintln(w)

	if r.Plan != nil {
		writeAnalysisSection(w, "GAIN")
		writePlan(w, r.Plan)
		fmt.Fprintln(w)
	}

	writeTips(w, GenerateRecordingTips(r, 0))
}

// DisplayNormalizeResult writes the before and after comparison of one
// normalisation run to the console.
func DisplayNormalizeResult(w io.Writer, res *processor.NormalizeResult) {
	fmt.Fprintln(w, strings.Repeat("=", 70))
	fmt.Fprintf(w, "NORMALIZED: %s -> %s\n", filepath.Base(res.Input.Path), filepath.Base(res.Output.Path))
	fmt.Fprintln(w, strings.Repeat("=", 70))

	writeFileInfo(w, res.Input)

	writeAnalysisSection(w, "GAIN")
	writePlan(w, res.Input.Plan)
	if res.Clipped > 0 {
		fmt.Fprintf(w, "  Clipped:        %d samples\n", res.Clipped)
	}
	fmt.Fprintln(w)

	writeAnalysisSection(w, "COMPARISON")
	fmt.Fprint(w, comparisonTable(res.Input, res.Output).String())
	fmt.Fprintln(w)

	writeTips(w, GenerateRecordingTips(res.Input, res.Clipped))
}

func writeFileInfo(w io.Writer, r *processor.Report) {
	fmt.Fprintf(w, "Duration:    %s\n", formatDurationHMS(r.Info.Duration()))
	fmt.Fprintf(w, "Sample Rate: %d Hz\n", r.Info.SampleRate)
	fmt.Fprintf(w, "Format:      %s, %d-bit %s\n", r.Info.Format, r.Info.BitDepth, channelName(r.Info.Channels))
	fmt.Fprintf(w, "Blocks:      %d from block %d (%d samples each)\n", r.Blocks, r.FirstBlock, r.BlockSize)
	fmt.Fprintln(w)
}

func writePlan(w io.Writer, plan *processor.EqualizationPlan) {
	if plan == nil {
		fmt.Fprintln(w, "  No target requested")
		return
	}
	if plan.Silent {
		fmt.Fprintf(w, "  Target:         %.1f dBov (%s)\n", plan.Target, plan.Basis)
		fmt.Fprintln(w, "  Gain:           none, no speech detected")
		return
	}
	fmt.Fprintf(w, "  Target:         %.1f dBov (%s)\n", plan.Target, plan.Basis)
	fmt.Fprintf(w, "  Measured:       %.1f dBov\n", plan.Measured)
	fmt.Fprintf(w, "  Gain:           %s dB (x%.3f)\n", formatMetricSigned(plan.GainDB(), 2), plan.Gain)
	fmt.Fprintf(w, "  Max Clean:      %.1f dBov\n", plan.MaxLevel)
	if plan.Saturated {
		fmt.Fprintln(w, "  Warning:        target drives peaks past full scale")
	}
}

func writeTips(w io.Writer, tips []RecordingTip) {
	if len(tips) == 0 {
		return
	}
	writeAnalysisSection(w, "ADVICE")
	for _, tip := range tips {
		fmt.Fprintf(w, "  - %s\n", wrapText(tip.Message, 66, "    "))
	}
	fmt.Fprintln(w)
}

// formatLevel formats a dBov level for display, naming silence.
func formatLevel(level float64) string {
	v := formatMetricDB(level, 2)
	if v == SilentValue || v == MissingValue {
		return v
	}
	return v + " dBov"
}

// writeAnalysisSection writes a section header for analysis output.
func writeAnalysisSection(w io.Writer, title string) {
	fmt.Fprintln(w, title)
}

// formatDurationHMS formats duration as "Xh Ym Zs" or "Ym Zs" or "Z.Xs".
func formatDurationHMS(seconds float64) string {
	if seconds < 60 {
		return fmt.Sprintf("%.1fs", seconds)
	}

	totalSeconds := int(seconds)
	hours := totalSeconds / 3600
	minutes := (totalSeconds % 3600) / 60
	secs := totalSeconds % 60

	if hours > 0 {
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, secs)
	}
	return fmt.Sprintf("%dm %ds", minutes, secs)
}
