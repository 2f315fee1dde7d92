// Package processor measures and equalises speech files block by block.
package processor

import (
	"context"
	"fmt"

	"github.com/linuxmatters/actlevel/internal/audio"
	"github.com/linuxmatters/actlevel/internal/p56"
	"github.com/linuxmatters/actlevel/internal/pcm"
)

// Measure reads the file at path and returns its P.56 statistics. Only the
// blocks selected by cfg are measured. If cfg.ReportGain is set the report
// carries the plan for reaching cfg.TargetLevel.
//
// If progress is not nil it is called as the measurement advances.
func Measure(ctx context.Context, path string, cfg *Config, progress ProgressFunc) (*Report, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	r, err := audio.Open(path, cfg.audioOptions())
	if err != nil {
		return nil, err
	}
	defer r.Close()

	return measureReader(ctx, r, cfg, newProgress(progress, PassMeasure, "Measuring", 0))
}

// Normalize performs two-pass equalisation of inputPath into outputPath:
//   - Pass 1: measure the input and solve the gain for cfg.TargetLevel
//   - Pass 2: rewrite the payload scaled by that gain, copying any header
//     and trailing bytes unchanged
//
// The written file is then measured again and returned as the Output
// report. Blocks outside the selected range are copied unscaled. A silent
// input is written with unity gain and flagged in the plan; saturation is
// flagged but not prevented.
func Normalize(ctx context.Context, inputPath, outputPath string, cfg *Config, progress ProgressFunc) (*NormalizeResult, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	r, err := audio.Open(inputPath, cfg.audioOptions())
	if err != nil {
		return nil, err
	}
	defer r.Close()

	input, err := measureReader(ctx, r, cfg, newProgress(progress, PassMeasure, "Measuring", 0))
	if err != nil {
		return nil, fmt.Errorf("pass 1 failed: %w", err)
	}
	plan := NewPlan(input.Result, cfg.TargetLevel, cfg.UseRMS, cfg.BitDepth)
	input.Plan = &plan

	w := window{first: input.FirstBlock - 1, count: input.Blocks}
	pt := newProgress(progress, PassEqualize, "Equalizing", r.Info().Samples)
	clipped, err := equalize(ctx, r, outputPath, cfg, w, plan.Gain, pt)
	if err != nil {
		return nil, fmt.Errorf("pass 2 failed: %w", err)
	}

	outCfg := *cfg
	outCfg.ReportGain = false
	out, err := audio.Open(outputPath, outCfg.audioOptions())
	if err != nil {
		return nil, err
	}
	defer out.Close()

	output, err := measureReader(ctx, out, &outCfg, newProgress(progress, PassVerify, "Verifying", 0))
	if err != nil {
		return nil, fmt.Errorf("verifying output: %w", err)
	}

	return &NormalizeResult{
		Input:   input,
		Output:  output,
		Clipped: clipped,
	}, nil
}

// ChangeSampleRate writes a copy of the WAV file at inputPath resampled to
// rate Hz by conv.
func ChangeSampleRate(ctx context.Context, conv audio.RateConverter, inputPath, outputPath string, rate int) (audio.Info, error) {
	if rate <= 0 {
		return audio.Info{}, fmt.Errorf("invalid sample rate %d", rate)
	}
	return audio.Resample(ctx, conv, inputPath, outputPath, rate)
}

// measureReader runs the measuring pass over the configured block range.
func measureReader(ctx context.Context, r *audio.Reader, cfg *Config, pt *progressTracker) (*Report, error) {
	info := r.Info()
	if info.SampleRate <= 0 {
		return nil, fmt.Errorf("%s: unknown sample rate", r.Path())
	}

	w, err := cfg.window(info.Samples)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", r.Path(), err)
	}
	pt.total = w.samples(info.Samples, cfg.BlockSize)

	meter := p56.New(float64(info.SampleRate))
	floats := make([]float32, cfg.BlockSize)
	level := p56.SilentLevel

	pt.start()
	err = forEachBlock(ctx, r, cfg.BlockSize, w, func(_ int64, block []int16) error {
		level = meter.ProcessBlock(pcm.ToFloat(floats, block, cfg.BitDepth))
		pt.advance(len(block), level)
		return nil
	})
	if err != nil {
		return nil, err
	}
	pt.finish(level)

	return newReport(r.Path(), info, cfg, w, meter.Result()), nil
}

// equalize copies r to outputPath with the blocks in w scaled by gain, and
// returns the number of clipped samples.
func equalize(ctx context.Context, r *audio.Reader, outputPath string, cfg *Config, w window, gain float64, pt *progressTracker) (clipped int, err error) {
	out, err := audio.Create(outputPath)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			out.Abort()
		}
	}()

	if err = r.CopyHeader(out); err != nil {
		return 0, err
	}

	info := r.Info()
	all := window{count: BlockCount(info.Samples, cfg.BlockSize)}
	floats := make([]float32, cfg.BlockSize)
	fixed := make([]int16, cfg.BlockSize)

	pt.start()
	err = forEachBlock(ctx, r, cfg.BlockSize, all, func(i int64, block []int16) error {
		samples := block
		if w.contains(i) {
			f := pcm.ToFloat(floats, block, cfg.BitDepth)
			pcm.Scale(f, gain)
			var c int
			samples, c = pcm.ToFixed(fixed, f, cfg.BitDepth)
			clipped += c
		}
		pt.advance(len(block), 0)
		return out.WriteSamples(samples)
	})
	if err != nil {
		return 0, err
	}
	pt.finish(0)

	if err = r.CopyTrailer(out); err != nil {
		return 0, err
	}
	if err = out.Commit(); err != nil {
		return 0, err
	}
	return clipped, nil
}
