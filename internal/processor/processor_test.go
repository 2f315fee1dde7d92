package processor

import (
	"bytes"
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/linuxmatters/actlevel/internal/audio"
	"github.com/linuxmatters/actlevel/internal/p56"
)

func TestBlocks(t *testing.T) {
	tests := []struct {
		total     int64
		size      int
		wantFull  int64
		wantRem   int
		wantCount int64
	}{
		{0, 256, 0, 0, 0},
		{255, 256, 0, 255, 1},
		{256, 256, 1, 0, 1},
		{257, 256, 1, 1, 2},
		{1000, 64, 15, 40, 16},
		{4096, 4096, 1, 0, 1},
	}

	for _, tt := range tests {
		full, rem := Blocks(tt.total, tt.size)
		if full != tt.wantFull || rem != tt.wantRem {
			t.Errorf("Blocks(%d, %d) = %d, %d, want %d, %d", tt.total, tt.size, full, rem, tt.wantFull, tt.wantRem)
		}
		if got := BlockCount(tt.total, tt.size); got != tt.wantCount {
			t.Errorf("BlockCount(%d, %d) = %d, want %d", tt.total, tt.size, got, tt.wantCount)
		}
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{"default", func(*Config) {}, false},
		{"zero_block", func(c *Config) { c.BlockSize = 0 }, true},
		{"huge_block", func(c *Config) { c.BlockSize = MaxBlockSize + 1 }, true},
		{"one_bit", func(c *Config) { c.BitDepth = 1 }, true},
		{"twenty_four_bit", func(c *Config) { c.BitDepth = 24 }, true},
		{"twelve_bit", func(c *Config) { c.BitDepth = 12 }, false},
		{"zero_rate", func(c *Config) { c.SampleRate = 0 }, true},
		{"start_zero", func(c *Config) { c.StartBlock = 0 }, true},
		{"negative_count", func(c *Config) { c.BlockCount = -1 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfigWindow(t *testing.T) {
	tests := []struct {
		name    string
		total   int64
		start   int64
		count   int64
		want    window
		wantErr bool
	}{
		{"whole_file", 1000, 1, 0, window{0, 4}, false},
		{"from_second", 1000, 2, 0, window{1, 3}, false},
		{"limited", 1000, 2, 2, window{1, 2}, false},
		{"count_past_end", 1000, 3, 10, window{2, 2}, false},
		{"start_past_end", 1000, 5, 0, window{}, true},
		{"empty_file", 0, 1, 0, window{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.StartBlock = tt.start
			cfg.BlockCount = tt.count
			got, err := cfg.window(tt.total)
			if (err != nil) != tt.wantErr {
				t.Fatalf("window() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("window() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestMeasureSilence(t *testing.T) {
	path := generateTestAudio(t, TestAudioOptions{DurationSecs: 1})

	report, err := Measure(context.Background(), path, DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("Measure: %v", err)
	}
	if !report.Silent {
		t.Error("silent file not flagged as silent")
	}
	if report.Activity != 0 {
		t.Errorf("Activity = %v, want 0", report.Activity)
	}
	if report.Samples != 16000 {
		t.Errorf("Samples = %d, want 16000", report.Samples)
	}
}

func TestMeasureEmptyFile(t *testing.T) {
	path := generateTestAudio(t, TestAudioOptions{DurationSecs: 1e-9})

	report, err := Measure(context.Background(), path, DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("Measure: %v", err)
	}
	if report.Samples != 0 || !report.Silent {
		t.Errorf("empty file: Samples=%d Silent=%v", report.Samples, report.Silent)
	}
}

func TestMeasureBlockSizeIndependence(t *testing.T) {
	// 2.5 s plus a few samples so no block size divides the payload.
	path := generateTestAudio(t, TestAudioOptions{
		Samples:    40037,
		ToneFreq:   440,
		ToneLevel:  -18,
		NoiseLevel: -60,
		SilenceGap: struct {
			Start    float64
			Duration float64
		}{Start: 0.8, Duration: 0.7},
	})

	var want p56.Result
	for i, size := range []int{40037, 64, 256, 4096} {
		cfg := DefaultConfig()
		cfg.BlockSize = size
		report, err := Measure(context.Background(), path, cfg, nil)
		if err != nil {
			t.Fatalf("block size %d: %v", size, err)
		}
		if report.Samples != 40037 {
			t.Errorf("block size %d: Samples = %d", size, report.Samples)
		}
		if i == 0 {
			want = report.Result
			continue
		}
		if report.RMSLevel != want.RMSLevel {
			t.Errorf("block size %d: RMSLevel %v differs from single-block %v", size, report.RMSLevel, want.RMSLevel)
		}
		if math.Abs(report.ActiveLevel-want.ActiveLevel) > 1e-9 {
			t.Errorf("block size %d: ActiveLevel %v differs from single-block %v", size, report.ActiveLevel, want.ActiveLevel)
		}
		if report.Result != want {
			t.Errorf("block size %d: statistics differ from single-block read", size)
		}
	}
}

func TestMeasureRawInput(t *testing.T) {
	path := generateTestAudio(t, TestAudioOptions{Raw: true, SampleRate: 8000, ToneFreq: 300, ToneLevel: -20})

	cfg := DefaultConfig()
	cfg.SampleRate = 8000
	report, err := Measure(context.Background(), path, cfg, nil)
	if err != nil {
		t.Fatalf("Measure: %v", err)
	}
	if report.Info.Format != audio.FormatRaw || report.SampleRate != 8000 {
		t.Errorf("got format %v rate %v, want raw at 8000", report.Info.Format, report.SampleRate)
	}
	if report.Samples != 16000 {
		t.Errorf("Samples = %d, want 16000", report.Samples)
	}
}

func TestMeasureReportGain(t *testing.T) {
	path := generateTestAudio(t, TestAudioOptions{ToneFreq: 1000, ToneLevel: -20})

	cfg := DefaultConfig()
	report, err := Measure(context.Background(), path, cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	if report.Plan != nil {
		t.Error("plan attached without ReportGain")
	}

	cfg.ReportGain = true
	cfg.TargetLevel = -30
	report, err = Measure(context.Background(), path, cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	if report.Plan == nil {
		t.Fatal("no plan with ReportGain")
	}
	want := math.Pow(10, (-30-report.ActiveLevel)/20)
	if math.Abs(report.Plan.Gain-want) > 1e-12 {
		t.Errorf("Gain = %v, want %v", report.Plan.Gain, want)
	}
}

func TestMeasureCancelled(t *testing.T) {
	path := generateTestAudio(t, TestAudioOptions{ToneFreq: 1000, ToneLevel: -20})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Measure(ctx, path, DefaultConfig(), nil); !errors.Is(err, context.Canceled) {
		t.Errorf("got %v, want context.Canceled", err)
	}
}

func TestNormalizeReachesTarget(t *testing.T) {
	tests := []struct {
		name   string
		target float64
		useRMS bool
	}{
		{"active_-26", -26, false},
		{"active_-20", -20, false},
		{"rms_-30", -30, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := generateTestAudio(t, TestAudioOptions{DurationSecs: 4, ToneFreq: 1000, ToneLevel: -20})
			output := filepath.Join(t.TempDir(), "out.wav")

			cfg := DefaultConfig()
			cfg.TargetLevel = tt.target
			cfg.UseRMS = tt.useRMS

			result, err := Normalize(context.Background(), input, output, cfg, nil)
			if err != nil {
				t.Fatalf("Normalize: %v", err)
			}
			if result.Input.Plan == nil || result.Input.Plan.Saturated {
				t.Fatalf("unexpected plan %+v", result.Input.Plan)
			}
			if result.Clipped != 0 {
				t.Errorf("Clipped = %d, want 0", result.Clipped)
			}

			got := result.Output.Level(tt.useRMS)
			if math.Abs(got-tt.target) > 0.05 {
				t.Errorf("output level = %.3f dB, want %.3f ± 0.05", got, tt.target)
			}

			again, err := Measure(context.Background(), output, DefaultConfig(), nil)
			if err != nil {
				t.Fatalf("Measure output: %v", err)
			}
			if again.Result != result.Output.Result {
				t.Error("returned output report differs from a fresh measurement")
			}
		})
	}
}

func TestNormalizePreservesHeaderAndTrailer(t *testing.T) {
	trailer := []byte("LIST\x06\x00\x00\x00xyzzy\x00")
	input := generateTestAudio(t, TestAudioOptions{ToneFreq: 500, ToneLevel: -30, Trailer: trailer, Samples: 10001})
	output := filepath.Join(t.TempDir(), "out.wav")

	if _, err := Normalize(context.Background(), input, output, DefaultConfig(), nil); err != nil {
		t.Fatalf("Normalize: %v", err)
	}

	in, _ := os.ReadFile(input)
	out, err := os.ReadFile(output)
	if err != nil {
		t.Fatal(err)
	}
	if len(in) != len(out) {
		t.Fatalf("output is %d bytes, input %d", len(out), len(in))
	}
	if !bytes.Equal(in[:44], out[:44]) {
		t.Error("header changed")
	}
	if !bytes.Equal(in[len(in)-len(trailer):], out[len(out)-len(trailer):]) {
		t.Error("trailer changed")
	}
	if bytes.Equal(in[44:len(in)-len(trailer)], out[44:len(out)-len(trailer)]) {
		t.Error("payload unchanged despite gain")
	}
}

func TestNormalizeSaturation(t *testing.T) {
	input := generateTestAudio(t, TestAudioOptions{ToneFreq: 1000, ToneLevel: 20 * math.Log10(0.9)})
	output := filepath.Join(t.TempDir(), "out.wav")

	cfg := DefaultConfig()
	cfg.TargetLevel = 0

	result, err := Normalize(context.Background(), input, output, cfg, nil)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	plan := result.Input.Plan
	if plan.Gain <= plan.MaxSafeGain {
		t.Fatalf("gain %v does not exceed max safe gain %v", plan.Gain, plan.MaxSafeGain)
	}
	if !plan.Saturated {
		t.Error("saturation not flagged")
	}
	if result.Clipped == 0 {
		t.Error("no clipped samples reported")
	}
	if result.Output.AbsMax > 1 {
		t.Errorf("output peak %v exceeds full scale", result.Output.AbsMax)
	}
}

func TestNormalizeSilentInput(t *testing.T) {
	input := generateTestAudio(t, TestAudioOptions{DurationSecs: 1})
	output := filepath.Join(t.TempDir(), "out.wav")

	result, err := Normalize(context.Background(), input, output, DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if !result.Input.Plan.Silent || result.Input.Plan.Gain != 1 {
		t.Errorf("plan = %+v, want silent with unity gain", result.Input.Plan)
	}
	if !result.Output.Silent {
		t.Error("output of silent input not silent")
	}

	in, _ := os.ReadFile(input)
	out, _ := os.ReadFile(output)
	if !bytes.Equal(in, out) {
		t.Error("silent input not copied unchanged")
	}
}

func TestNormalizeBlockRange(t *testing.T) {
	input := generateTestAudio(t, TestAudioOptions{Samples: 12000, ToneFreq: 400, ToneLevel: -20})
	output := filepath.Join(t.TempDir(), "out.wav")

	cfg := DefaultConfig()
	cfg.BlockSize = 4000
	cfg.StartBlock = 2
	cfg.BlockCount = 1
	cfg.TargetLevel = -10

	result, err := Normalize(context.Background(), input, output, cfg, nil)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if result.Input.FirstBlock != 2 || result.Input.Blocks != 1 || result.Input.Samples != 4000 {
		t.Errorf("measured blocks %d+%d (%d samples), want block 2 only",
			result.Input.FirstBlock, result.Input.Blocks, result.Input.Samples)
	}

	in, _ := os.ReadFile(input)
	out, _ := os.ReadFile(output)
	const hdr, blk = 44, 8000
	if !bytes.Equal(in[hdr:hdr+blk], out[hdr:hdr+blk]) {
		t.Error("block 1 was modified")
	}
	if bytes.Equal(in[hdr+blk:hdr+2*blk], out[hdr+blk:hdr+2*blk]) {
		t.Error("block 2 was not scaled")
	}
	if !bytes.Equal(in[hdr+2*blk:], out[hdr+2*blk:]) {
		t.Error("block 3 was modified")
	}
}

func TestNormalizeErrors(t *testing.T) {
	good := generateTestAudio(t, TestAudioOptions{ToneFreq: 1000, ToneLevel: -20})
	truncated := generateTestAudio(t, TestAudioOptions{ToneFreq: 1000, ToneLevel: -20, Samples: 1000, DeclaredLen: 4000})

	tests := []struct {
		name    string
		input   string
		output  string
		wantErr error
	}{
		{"missing_input", filepath.Join(t.TempDir(), "missing.wav"), filepath.Join(t.TempDir(), "out.wav"), audio.ErrInputOpen},
		{"missing_output_dir", good, filepath.Join(t.TempDir(), "nope", "out.wav"), audio.ErrOutputCreate},
		{"truncated_input", truncated, filepath.Join(t.TempDir(), "out.wav"), audio.ErrShortRead},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Normalize(context.Background(), tt.input, tt.output, DefaultConfig(), nil)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("got %v, want %v", err, tt.wantErr)
			}
			if _, err := os.Stat(tt.output); !os.IsNotExist(err) {
				t.Error("output file exists after failure")
			}
		})
	}
}

func TestNormalizeCancelledDuringEqualize(t *testing.T) {
	input := generateTestAudio(t, TestAudioOptions{ToneFreq: 1000, ToneLevel: -20})
	dir := t.TempDir()
	output := filepath.Join(dir, "out.wav")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	progress := func(pass int, _ string, p float64, _ float64) {
		if pass == PassEqualize && p >= 0.3 {
			cancel()
		}
	}

	_, err := Normalize(ctx, input, output, DefaultConfig(), progress)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("got %v, want context.Canceled", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		t.Errorf("%s left behind after cancelled equalisation", e.Name())
	}
}

func TestNormalizeProgress(t *testing.T) {
	input := generateTestAudio(t, TestAudioOptions{ToneFreq: 1000, ToneLevel: -20})
	output := filepath.Join(t.TempDir(), "out.wav")

	type update struct {
		pass     int
		progress float64
	}
	var updates []update
	progress := func(pass int, _ string, p float64, _ float64) {
		updates = append(updates, update{pass, p})
	}

	if _, err := Normalize(context.Background(), input, output, DefaultConfig(), progress); err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if len(updates) == 0 {
		t.Fatal("no progress reported")
	}

	last := update{pass: PassMeasure}
	ended := map[int]bool{}
	for _, u := range updates {
		if u.pass < last.pass {
			t.Fatalf("pass went backwards: %d after %d", u.pass, last.pass)
		}
		if u.pass == last.pass && u.progress < last.progress {
			t.Fatalf("pass %d progress went backwards: %v after %v", u.pass, u.progress, last.progress)
		}
		if u.progress == 1 {
			ended[u.pass] = true
		}
		last = u
	}
	for _, pass := range []int{PassMeasure, PassEqualize, PassVerify} {
		if !ended[pass] {
			t.Errorf("pass %d never reached 100%%", pass)
		}
	}
}

func TestChangeSampleRate(t *testing.T) {
	input := generateTestAudio(t, TestAudioOptions{ToneFreq: 1000, ToneLevel: -20})
	output := filepath.Join(t.TempDir(), "out.wav")

	info, err := ChangeSampleRate(context.Background(), decimator{}, input, output, 8000)
	if err != nil {
		t.Fatalf("ChangeSampleRate: %v", err)
	}
	if info.SampleRate != 8000 || info.Samples != 16000 {
		t.Errorf("info = %+v, want 16000 samples at 8000 Hz", info)
	}

	before, _ := Measure(context.Background(), input, DefaultConfig(), nil)
	after, err := Measure(context.Background(), output, DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("Measure output: %v", err)
	}
	if after.SampleRate != 8000 {
		t.Errorf("output measured at %v Hz", after.SampleRate)
	}
	if math.Abs(after.ActiveLevel-before.ActiveLevel) > 0.5 {
		t.Errorf("active level %.2f after resampling, %.2f before", after.ActiveLevel, before.ActiveLevel)
	}

	if _, err := ChangeSampleRate(context.Background(), decimator{}, input, output, -1); err == nil {
		t.Error("negative rate accepted")
	}
}
