package logging

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/linuxmatters/actlevel/internal/processor"
)

// RecordingTip represents a single piece of actionable recording advice
// derived from level measurements.
type RecordingTip struct {
	Priority int    // Higher = more important (1-10)
	Message  string // Human-readable advice (1-2 sentences)
	RuleID   string // Identifier for testing/logging (e.g., "level_too_quiet")
}

// MaxRecordingTips is the maximum number of tips to return.
const MaxRecordingTips = 5

// Speech level bands, in dBov of active speech.
const (
	speechTargetLevel = -26.0
	speechTooQuiet    = -42.0
	speechQuiet       = -34.0
)

// nearClippingPeak is -1 dBov as a linear peak.
var nearClippingPeak = math.Pow(10, -1.0/20)

// GenerateRecordingTips analyses a measurement and returns prioritised
// recording improvement suggestions. clipped is the number of samples
// clipped while equalising, or 0 when the file was only measured.
func GenerateRecordingTips(r *processor.Report, clipped int) []RecordingTip {
	if r == nil || r.Samples == 0 {
		return nil
	}

	var tips []RecordingTip
	firedRules := make(map[string]bool)

	rules := []func(*processor.Report, int) *RecordingTip{
		tipSilent,
		tipLevelTooHot,
		tipLevelTooQuiet,
		tipLevelQuiet,
		tipSaturation,
		tipEqualizationClipped,
		tipLowActivity,
		tipDCOffset,
		tipPeaky,
	}

	for _, rule := range rules {
		if tip := rule(r, clipped); tip != nil {
			tips = append(tips, *tip)
			firedRules[tip.RuleID] = true
		}
	}

	// Apply mutual exclusion
	tips = applyExclusions(tips, firedRules)

	// Sort by priority (descending)
	sort.SliceStable(tips, func(i, j int) bool {
		return tips[i].Priority > tips[j].Priority
	})

	if len(tips) > MaxRecordingTips {
		tips = tips[:MaxRecordingTips]
	}

	return tips
}

// applyExclusions removes tips that are redundant when a more specific tip
// has already fired. For example, "level_quiet" is suppressed when the
// input is clipping because the quiet reading comes from sparse speech.
func applyExclusions(tips []RecordingTip, fired map[string]bool) []RecordingTip {
	var result []RecordingTip
	for _, tip := range tips {
		switch tip.RuleID {
		case "level_too_quiet", "level_quiet", "low_activity":
			if fired["silent_input"] || fired["level_clipping"] {
				continue
			}
		case "equalization_clipped":
			if fired["level_saturation"] {
				continue
			}
		}
		result = append(result, tip)
	}
	return result
}

// wrapText wraps text at word boundaries to fit within maxWidth columns.
// Continuation lines are prefixed with indent.
func wrapText(text string, maxWidth int, indent string) string {
	words := strings.Fields(text)
	var lines []string
	currentLine := ""

	for _, word := range words {
		if currentLine == "" {
			currentLine = word
		} else if len(currentLine)+1+len(word) <= maxWidth {
			currentLine += " " + word
		} else {
			lines = append(lines, currentLine)
			currentLine = word
		}
	}
	if currentLine != "" {
		lines = append(lines, currentLine)
	}

	return strings.Join(lines, "\n"+indent)
}

// tipSilent fires when no speech activity was found at all.
func tipSilent(r *processor.Report, _ int) *RecordingTip {
	if !r.Silent {
		return nil
	}
	return &RecordingTip{
		Priority: 10,
		RuleID:   "silent_input",
		Message:  "No speech was detected - check that the right microphone is selected and not muted.",
	}
}

// tipLevelTooHot fires when the peak reaches or approaches full scale.
// A peak at the largest representable value is treated as clipping.
func tipLevelTooHot(r *processor.Report, _ int) *RecordingTip {
	fullScale := (r.FullScale() - 1) / r.FullScale()
	if r.AbsMax >= fullScale {
		return &RecordingTip{
			Priority: 10,
			RuleID:   "level_clipping",
			Message:  "Your recording is clipping - turn your microphone gain down by 6-10 dB to prevent distortion.",
		}
	}
	if r.AbsMax > nearClippingPeak {
		return &RecordingTip{
			Priority: 9,
			RuleID:   "level_near_clipping",
			Message:  "Your recording peaks within 1 dB of full scale - turn your microphone gain down by 3-6 dB to give yourself some headroom.",
		}
	}
	return nil
}

// tipLevelTooQuiet fires when active speech sits below -42 dBov.
func tipLevelTooQuiet(r *processor.Report, _ int) *RecordingTip {
	if r.Silent || r.ActiveLevel >= speechTooQuiet {
		return nil
	}
	return &RecordingTip{
		Priority: 10,
		RuleID:   "level_too_quiet",
		Message:  fmt.Sprintf("Your microphone gain is too low - try increasing it by about %.0f dB.", speechTargetLevel-r.ActiveLevel),
	}
}

// tipLevelQuiet fires when active speech sits between -42 and -34 dBov.
func tipLevelQuiet(r *processor.Report, _ int) *RecordingTip {
	if r.Silent || r.ActiveLevel < speechTooQuiet || r.ActiveLevel >= speechQuiet {
		return nil
	}
	return &RecordingTip{
		Priority: 8,
		RuleID:   "level_quiet",
		Message:  fmt.Sprintf("Your recording is a bit quiet - increasing your microphone gain by about %.0f dB would improve quality.", speechTargetLevel-r.ActiveLevel),
	}
}

// tipSaturation fires when the requested target needs more headroom than
// the loudest peak leaves.
func tipSaturation(r *processor.Report, _ int) *RecordingTip {
	if r.Plan == nil || !r.Plan.Saturated {
		return nil
	}
	return &RecordingTip{
		Priority: 9,
		RuleID:   "level_saturation",
		Message: fmt.Sprintf("A target of %.1f dBov drives the loudest peaks past full scale; %.1f dBov is the highest level reachable without clipping.",
			r.Plan.Target, r.Plan.MaxLevel),
	}
}

// tipEqualizationClipped fires when samples were clipped while the gain
// was applied.
func tipEqualizationClipped(_ *processor.Report, clipped int) *RecordingTip {
	if clipped == 0 {
		return nil
	}
	return &RecordingTip{
		Priority: 7,
		RuleID:   "equalization_clipped",
		Message:  fmt.Sprintf("%d samples were clipped while applying the gain - choose a lower target level.", clipped),
	}
}

// tipLowActivity fires when speech covers less than a fifth of the file.
func tipLowActivity(r *processor.Report, _ int) *RecordingTip {
	if r.Silent || r.Activity >= 20 {
		return nil
	}
	return &RecordingTip{
		Priority: 6,
		RuleID:   "low_activity",
		Message:  fmt.Sprintf("Speech is active for only %.0f%% of the file - trim long pauses so the level reflects the talker.", r.Activity),
	}
}

// tipDCOffset fires when the mean sample value exceeds 1% of full scale.
func tipDCOffset(r *processor.Report, _ int) *RecordingTip {
	if math.Abs(r.DC) <= 0.01 {
		return nil
	}
	return &RecordingTip{
		Priority: 5,
		RuleID:   "dc_offset",
		Message:  "Your recording has a DC offset - a faulty cable or interface is the usual cause; a high-pass filter will remove it.",
	}
}

// tipPeaky fires when short peaks sit more than 30 dB above active speech,
// usually plosives or knocks on the microphone.
func tipPeaky(r *processor.Report, _ int) *RecordingTip {
	if r.Silent || r.ActivePeakFactor <= 30 {
		return nil
	}
	return &RecordingTip{
		Priority: 4,
		RuleID:   "high_peak_factor",
		Message:  "Occasional peaks are far louder than your speech - a pop filter or a little more distance from the microphone will help.",
	}
}
