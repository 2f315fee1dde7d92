// Package logging handles generation of level reports for measured files

package logging

import (
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/linuxmatters/actlevel/internal/processor"
)

const unity = "dBov"

// rule is the separator used between groups of the long summary.
var rule = " " + strings.Repeat("-", 55)

// writeSection writes a section header with title and dashed underline.
// The underline length matches the title length.
func writeSection(w io.Writer, title string) {
	fmt.Fprintln(w, title)
	fmt.Fprintln(w, strings.Repeat("-", len(title)))
}

// ReportData contains all the information needed to generate a level report
type ReportData struct {
	InputPath  string
	OutputPath string // empty when the file was only measured
	StartTime  time.Time
	EndTime    time.Time
	Pass1Time  time.Duration // measurement
	Pass2Time  time.Duration // equalisation (0 when not normalising)
	Pass3Time  time.Duration // verification of the output
	Input      *processor.Report
	Output     *processor.Report // nil when the file was only measured
	Clipped    int
}

// ReportPath returns where GenerateReport writes: next to the output file
// when there is one, otherwise next to the input, with a .p56.log suffix.
func ReportPath(data ReportData) string {
	base := data.OutputPath
	if base == "" {
		base = data.InputPath
	}
	return strings.TrimSuffix(base, filepath.Ext(base)) + ".p56.log"
}

// GenerateReport creates a detailed level report and returns its path.
//
// Report structure:
// 1. Header - file info and timestamp
// 2. Processing Summary - pass timings
// 3. Input measurement - long summary
// 4. Output measurement - long summary (normalise only)
// 5. Level Comparison - Input/Output table (normalise only)
// 6. Advice - recording tips derived from the input
func GenerateReport(data ReportData) (string, error) {
	logPath := ReportPath(data)

	f, err := os.Create(logPath)
	if err != nil {
		return "", fmt.Errorf("failed to create log file: %w", err)
	}
	defer f.Close()

	writeReportHeader(f, data)
	writeProcessingSummary(f, data)

	if data.Input != nil {
		writeSection(f, "Input Measurement")
		WriteLongSummary(f, data.Input)
		fmt.Fprintln(f)
		fmt.Fprintln(f)
	}

	if data.Output != nil {
		writeSection(f, "Output Measurement")
		WriteLongSummary(f, data.Output)
		fmt.Fprintf(f, "\n  Number of clippings: .......... %7d []\n\n", data.Clipped)

		writeSection(f, "Level Comparison")
		fmt.Fprint(f, comparisonTable(data.Input, data.Output).String())
		fmt.Fprintln(f)
	}

	if tips := GenerateRecordingTips(data.Input, data.Clipped); len(tips) > 0 {
		writeSection(f, "Advice")
		for _, tip := range tips {
			fmt.Fprintf(f, "- %s\n", wrapText(tip.Message, 76, "  "))
		}
		fmt.Fprintln(f)
	}

	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to write log file: %w", err)
	}
	return logPath, nil
}

// WriteLongSummary writes the multi-line statistics block for one report,
// followed by a saturation warning when the requested gain would clip.
func WriteLongSummary(w io.Writer, r *processor.Report) {
	scale := r.FullScale()
	absMaxDB := r.AbsMaxDB()

	fmt.Fprint(w, rule)
	fmt.Fprintf(w, "\n  Input file: ................... %s, ", r.Path)
	fmt.Fprintf(w, "%2d bits, fs=%5.0f Hz", r.Info.BitDepth, float64(r.Info.SampleRate))
	fmt.Fprintf(w, "\n  Block Length: ................. %7d [samples]", r.BlockSize)
	fmt.Fprintf(w, "\n  Starting Block: ............... %7d []", r.FirstBlock)
	fmt.Fprintf(w, "\n  Number of Blocks: ............. %7d []", r.Blocks)
	if r.Plan != nil {
		fmt.Fprintf(w, "\n  %s desired for output: ...... %7.3f [%s]", unity, r.Plan.Target, unity)
	}

	if r.Samples == 0 {
		fmt.Fprintf(w, "\n -***%s\n", strings.Repeat("-", 51))
		return
	}

	if r.Activity == 0 {
		fmt.Fprint(w, "\n  Activity factor is ZERO -- the file is silence or idle noise")
		fmt.Fprint(w, "\n"+rule)
		writeExtrema(w, r, scale)
		fmt.Fprintf(w, "\n  Noise/silence energy (rms): ... %7.3f [dB]", r.RMSLevel)
	} else {
		if r.Plan != nil {
			fmt.Fprintf(w, "\n  Norm factor desired is: ....... %7.3f [times]", r.Plan.Gain)
			fmt.Fprintf(w, "\n  Max norm WITHOUT saturation: .. %7.3f [%s]", r.Plan.MaxLevel, unity)
		}
		fmt.Fprint(w, "\n"+rule)
		writeExtrema(w, r, scale)
		fmt.Fprintf(w, "\n  Long term energy (rms): ....... %7.3f [%s]", r.RMSLevel, unity)
		fmt.Fprintf(w, "\n  Active speech level: .......... %7.3f [%s]", r.ActiveLevel, unity)
		fmt.Fprintf(w, "\n  RMS peak-factor found: ........ %7.3f [dB]", absMaxDB-r.RMSLevel)
		fmt.Fprintf(w, "\n  Active peak factor found: ..... %7.3f [dB]", absMaxDB-r.ActiveLevel)
		fmt.Fprintf(w, "\n  Activity factor: .............. %7.3f [%%]", r.Activity)
	}
	fmt.Fprint(w, "\n"+rule)

	if r.Plan != nil && r.Plan.Saturated {
		fmt.Fprintf(w, "\n%%SV-W-SAT, the dB level chosen causes SATURATION: ")
		fmt.Fprintf(w, "old max=%5.0f; new max=%6.0f", scale*r.AbsMax, scale*r.AbsMax*r.Plan.Gain)
		fmt.Fprintf(w, "\n%%SV-I-MAXLEVDB, the maximum norm factor ")
		fmt.Fprintf(w, "to PREVENT clipping is %7.3fdB; ", r.Plan.MaxLevel)
		fmt.Fprint(w, "\n"+rule)
	}
}

func writeExtrema(w io.Writer, r *processor.Report, scale float64) {
	fmt.Fprintf(w, "\n  DC level: ..................... %7.0f [PCM]", scale*r.DC)
	fmt.Fprintf(w, "\n  Maximum positive value: ....... %7.0f [PCM]", scale*r.MaxPositive)
	fmt.Fprintf(w, "\n  Maximum negative value: ....... %7.0f [PCM]", scale*r.MaxNegative)
	fmt.Fprint(w, "\n"+rule)
}

// comparisonTable lines up the input and output statistics of a
// normalisation run.
func comparisonTable(in, out *processor.Report) *MetricTable {
	table := NewMetricTable()

	table.AddLevelRow("Active Speech Level", []float64{in.ActiveLevel, out.ActiveLevel}, levelInterpretation(in, out))
	table.AddLevelRow("Long-term Level (RMS)", []float64{in.RMSLevel, out.RMSLevel}, "")
	table.AddRow("Peak", []string{formatMetricPeak(in.AbsMax, 2), formatMetricPeak(out.AbsMax, 2)}, "dBov", "")
	table.AddMetricRow("Activity", []float64{in.Activity, out.Activity}, 2, "%", "")
	table.AddMetricRow("RMS Peak Factor", []float64{in.RMSPeakFactor, out.RMSPeakFactor}, 2, "dB", "")

	inAct, outAct := math.NaN(), math.NaN()
	if !in.Silent {
		inAct = in.ActivePeakFactor
	}
	if !out.Silent {
		outAct = out.ActivePeakFactor
	}
	table.AddMetricRow("Active Peak Factor", []float64{inAct, outAct}, 2, "dB", "")

	if in.Plan != nil {
		table.AddRow("Gain Applied", []string{"", formatMetricSigned(in.Plan.GainDB(), 2)}, "dB", "")
	}
	return table
}

// levelInterpretation describes how close the output landed to the target.
func levelInterpretation(in, out *processor.Report) string {
	if in.Plan == nil {
		return ""
	}
	switch {
	case in.Plan.Silent:
		return "silent input, left unchanged"
	case in.Plan.Saturated:
		return "target not reached cleanly, gain caused clipping"
	}

	achieved := out.Level(in.Plan.Basis == processor.BasisRMS)
	if math.Abs(achieved-in.Plan.Target) <= 0.05 {
		return "on target"
	}
	return fmt.Sprintf("%s from target", formatMetricSigned(achieved-in.Plan.Target, 2))
}

// formatDuration formats a duration in a human-readable way
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}

	minutes := int(d.Minutes())
	seconds := int(d.Seconds()) % 60

	if minutes < 60 {
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}

	hours := minutes / 60
	minutes = minutes % 60
	return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
}

// writeReportHeader outputs the report header with file info and timestamp.
func writeReportHeader(w io.Writer, data ReportData) {
	fmt.Fprintln(w, "Active Speech Level Report")
	fmt.Fprintln(w, "==========================")
	fmt.Fprintf(w, "File: %s\n", filepath.Base(data.InputPath))
	if data.OutputPath != "" {
		fmt.Fprintf(w, "Output: %s\n", filepath.Base(data.OutputPath))
	}
	fmt.Fprintf(w, "Processed: %s\n", data.EndTime.Format("2006-01-02 15:04:05 MST"))
	if data.Input != nil {
		fmt.Fprintf(w, "Duration: %s\n", formatDuration(time.Duration(data.Input.Info.Duration()*float64(time.Second))))
		fmt.Fprintf(w, "Container: %s, %s\n", data.Input.Info.Format, channelName(data.Input.Info.Channels))
	}
	fmt.Fprintln(w, "")
}

// writeProcessingSummary outputs the processing time summary for all passes.
func writeProcessingSummary(w io.Writer, data ReportData) {
	writeSection(w, "Processing Summary")

	fmt.Fprintf(w, "Pass 1 (Measuring):   %s\n", formatDuration(data.Pass1Time))
	if data.Output != nil {
		fmt.Fprintf(w, "Pass 2 (Equalizing):  %s\n", formatDuration(data.Pass2Time))
		fmt.Fprintf(w, "Pass 3 (Verifying):   %s\n", formatDuration(data.Pass3Time))
	}

	totalTime := data.EndTime.Sub(data.StartTime)
	fmt.Fprintf(w, "Total:                %s", formatDuration(totalTime))

	if data.Input != nil && totalTime > 0 {
		audioDuration := time.Duration(data.Input.Info.Duration() * float64(time.Second))
		rtf := float64(audioDuration) / float64(totalTime)
		fmt.Fprintf(w, " (%.0fx real-time)", rtf)
	}
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "")
}

// channelName returns a human-readable channel name
func channelName(channels int) string {
	switch channels {
	case 1:
		return "mono"
	case 2:
		return "stereo"
	default:
		return fmt.Sprintf("%d channels", channels)
	}
}
