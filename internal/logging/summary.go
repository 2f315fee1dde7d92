package logging

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/linuxmatters/actlevel/internal/processor"
)

// FormatSummary renders the one-line statistics record for a report. The
// field order and labels are fixed so existing log parsers keep working:
//
//	Samples: n, Min: m, Max: M, DC: d, RMSLev[dB]: r, ActLev[dB]: a, %Active: p, RMSPkF[dB]: f, ActPkF[dB]: g, [Gain[]: x, ]<TAB>file
//
// Sample values are in PCM units and levels in dBov. The gain column only
// appears when the report carries an equalisation plan.
func FormatSummary(r *processor.Report) string {
	var sb strings.Builder
	withGain := r.Plan != nil

	fmt.Fprintf(&sb, "Samples: %5d, ", r.Samples)

	if r.Samples == 0 {
		sb.WriteString("Min: ------ Max: ----- DC: ------- ")
		sb.WriteString("RMSLev[dB]: ------- ActLev[dB]: ------- %Active:  ------ ")
		sb.WriteString("RMSPkF[dB]: ------- ActPkF[dB]: -------")
		if withGain {
			sb.WriteString("Gain:  ------ ")
		}
	} else {
		scale := r.FullScale()
		fmt.Fprintf(&sb, "Min: %5.0f, ", scale*r.MaxNegative)
		fmt.Fprintf(&sb, "Max: %5.0f, ", scale*r.MaxPositive)
		fmt.Fprintf(&sb, "DC: %7.2f, ", scale*r.DC)
		fmt.Fprintf(&sb, "RMSLev[dB]: %7.3f, ", r.RMSLevel)
		fmt.Fprintf(&sb, "ActLev[dB]: %7.3f, ", r.ActiveLevel)
		fmt.Fprintf(&sb, "%%Active: %7.3f, ", r.Activity)
		fmt.Fprintf(&sb, "RMSPkF[dB]: %7.3f, ", r.RMSPeakFactor)
		fmt.Fprintf(&sb, "ActPkF[dB]: %7.3f, ", r.AbsMaxDB()-r.ActiveLevel)
		if withGain {
			fmt.Fprintf(&sb, " Gain[]: %7.3f, ", r.Plan.Gain)
		}
	}

	fmt.Fprintf(&sb, "\t%s\n", r.Path)
	return sb.String()
}

// SummaryWriter appends summary lines to a shared destination. It is safe
// for concurrent use by independent jobs.
type SummaryWriter struct {
	mu sync.Mutex
	w  io.Writer
}

// NewSummaryWriter returns a SummaryWriter writing to w.
func NewSummaryWriter(w io.Writer) *SummaryWriter {
	return &SummaryWriter{w: w}
}

// Write appends the summary line for r.
func (s *SummaryWriter) Write(r *processor.Report) error {
	line := FormatSummary(r)

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := io.WriteString(s.w, line)
	return err
}
