package processor

import (
	"context"
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"
)

// TestAudioOptions configures the synthetic audio to generate
type TestAudioOptions struct {
	DurationSecs float64 // Total duration in seconds
	Samples      int     // Exact sample count, overrides DurationSecs
	SampleRate   int     // Sample rate (default: 16000)
	ToneFreq     float64 // Sine wave frequency in Hz (0 = no tone)
	ToneLevel    float64 // Tone peak level in dBFS (e.g., -20.0)
	NoiseLevel   float64 // White noise level in dBFS (0 = no noise, -60 = quiet noise)
	SilenceGap   struct {
		Start    float64 // Start time of silence gap in seconds
		Duration float64 // Duration of silence gap in seconds
	}
	Raw         bool   // write headerless samples instead of a WAV file
	Trailer     []byte // bytes appended after the data chunk
	DeclaredLen int    // data chunk size written to the header, 0 = actual size
}

// generateTestAudio creates a synthetic mono 16-bit file for testing in a
// per-test temporary directory and returns its path.
func generateTestAudio(t *testing.T, opts TestAudioOptions) string {
	t.Helper()

	samples := generateSamples(opts)

	ext := ".wav"
	if opts.Raw {
		ext = ".pcm"
	}
	path := filepath.Join(t.TempDir(), "input"+ext)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}

	if opts.Raw {
		err = binary.Write(f, binary.LittleEndian, samples)
	} else {
		err = writeWAV(f, samples, opts)
	}
	if err != nil {
		f.Close()
		t.Fatalf("failed to write test audio: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("failed to close test file: %v", err)
	}
	return path
}

func generateSamples(opts TestAudioOptions) []int16 {
	// Set defaults
	if opts.SampleRate == 0 {
		opts.SampleRate = 16000
	}
	if opts.DurationSecs == 0 {
		opts.DurationSecs = 2.0
	}

	totalSamples := int(opts.DurationSecs * float64(opts.SampleRate))
	if opts.Samples > 0 {
		totalSamples = opts.Samples
	}
	samples := make([]int16, totalSamples)

	// Convert dBFS to linear amplitude (0 dBFS = 1.0 = max int16)
	toneAmp := 0.0
	if opts.ToneFreq > 0 && opts.ToneLevel < 0 {
		toneAmp = math.Pow(10.0, opts.ToneLevel/20.0)
	}

	noiseAmp := 0.0
	if opts.NoiseLevel < 0 {
		noiseAmp = math.Pow(10.0, opts.NoiseLevel/20.0)
	}

	silenceStart := int(opts.SilenceGap.Start * float64(opts.SampleRate))
	silenceEnd := int((opts.SilenceGap.Start + opts.SilenceGap.Duration) * float64(opts.SampleRate))

	// Simple LCG random number generator for deterministic noise
	rngState := uint32(12345)
	nextRandom := func() float64 {
		rngState = rngState*1664525 + 1013904223
		return (float64(rngState)/float64(0xFFFFFFFF))*2.0 - 1.0
	}

	maxInt16 := float64(math.MaxInt16)

	for i := 0; i < totalSamples; i++ {
		if i >= silenceStart && i < silenceEnd && opts.SilenceGap.Duration > 0 {
			continue
		}

		var sample float64
		if toneAmp > 0 {
			t := float64(i) / float64(opts.SampleRate)
			sample += toneAmp * math.Sin(2.0*math.Pi*opts.ToneFreq*t)
		}
		if noiseAmp > 0 {
			sample += noiseAmp * nextRandom()
		}

		// Clamp to [-1, 1] and convert to int16
		sample = math.Max(-1, math.Min(1, sample))
		samples[i] = int16(sample * maxInt16)
	}
	return samples
}

// writeWAV writes a mono 16-bit WAV file
func writeWAV(f *os.File, samples []int16, opts TestAudioOptions) error {
	const (
		numChannels   = 1
		bitsPerSample = 16
	)

	sampleRate := opts.SampleRate
	if sampleRate == 0 {
		sampleRate = 16000
	}
	byteRate := sampleRate * numChannels * bitsPerSample / 8
	blockAlign := numChannels * bitsPerSample / 8
	dataSize := len(samples) * 2
	fileSize := 36 + dataSize + len(opts.Trailer)

	declared := dataSize
	if opts.DeclaredLen > 0 {
		declared = opts.DeclaredLen
	}

	fields := []any{
		[]byte("RIFF"), uint32(fileSize), []byte("WAVE"),
		[]byte("fmt "), uint32(16), uint16(1), uint16(numChannels),
		uint32(sampleRate), uint32(byteRate), uint16(blockAlign), uint16(bitsPerSample),
		[]byte("data"), uint32(declared),
		samples,
		opts.Trailer,
	}
	for _, v := range fields {
		if err := binary.Write(f, binary.LittleEndian, v); err != nil {
			return err
		}
	}
	return nil
}

// decimator resamples by picking the nearest earlier input sample. It is
// only accurate for tones well below both Nyquist frequencies.
type decimator struct{}

func (decimator) Convert(ctx context.Context, samples []int16, fromRate, toRate int) ([]int16, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]int16, int64(len(samples))*int64(toRate)/int64(fromRate))
	for k := range out {
		out[k] = samples[int64(k)*int64(fromRate)/int64(toRate)]
	}
	return out, nil
}
