package processor

import (
	"github.com/linuxmatters/actlevel/internal/audio"
	"github.com/linuxmatters/actlevel/internal/p56"
	"github.com/linuxmatters/actlevel/internal/pcm"
)

// Report is the measurement of one file: where the samples came from, which
// blocks were measured, and the resulting statistics.
type Report struct {
	Path       string
	Info       audio.Info
	BlockSize  int
	FirstBlock int64 // 1-based
	Blocks     int64

	p56.Result

	// Plan is set when a target level was requested.
	Plan *EqualizationPlan
}

// FullScale returns the PCM magnitude corresponding to 0 dBov.
func (r *Report) FullScale() float64 {
	return pcm.FullScale(r.Info.BitDepth)
}

// NormalizeResult describes one equalisation run.
type NormalizeResult struct {
	Input   *Report // measurement of the input, with its Plan
	Output  *Report // measurement of the written file
	Clipped int     // samples hard-clipped while applying the gain
}

func newReport(path string, info audio.Info, cfg *Config, w window, res p56.Result) *Report {
	r := &Report{
		Path:       path,
		Info:       info,
		BlockSize:  cfg.BlockSize,
		FirstBlock: w.first + 1,
		Blocks:     w.count,
		Result:     res,
	}
	if cfg.ReportGain {
		plan := NewPlan(res, cfg.TargetLevel, cfg.UseRMS, cfg.BitDepth)
		r.Plan = &plan
	}
	return r
}
