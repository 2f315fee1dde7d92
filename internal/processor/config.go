package processor

import (
	"fmt"

	"github.com/linuxmatters/actlevel/internal/audio"
	"github.com/linuxmatters/actlevel/internal/pcm"
)

// MaxBlockSize bounds the number of samples read per block.
const MaxBlockSize = 65536

// Config holds the parameters shared by measurement and equalisation.
type Config struct {
	// Block iteration
	BlockSize  int   // samples per block
	StartBlock int64 // first block to measure, 1-based
	BlockCount int64 // number of blocks to measure, 0 = through the end

	// Sample format
	BitDepth   int // significant bits per sample
	SampleRate int // Hz, used for headerless input only

	// Equalisation
	TargetLevel float64 // dBov
	UseRMS      bool    // equalise the long-term level instead of the active level
	ReportGain  bool    // attach an EqualizationPlan to measurements
}

// DefaultConfig returns the standard P.56 measurement setup: 256-sample
// blocks of 16-bit audio at 16 kHz, equalised to -26 dBov.
func DefaultConfig() *Config {
	return &Config{
		BlockSize:   256,
		StartBlock:  1,
		BlockCount:  0,
		BitDepth:    16,
		SampleRate:  16000,
		TargetLevel: -26.0,
		UseRMS:      false,
		ReportGain:  false,
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.BlockSize < 1 || c.BlockSize > MaxBlockSize {
		return fmt.Errorf("block size %d out of range 1..%d", c.BlockSize, MaxBlockSize)
	}
	if c.BitDepth < 2 || c.BitDepth > pcm.MaxBitDepth {
		return fmt.Errorf("bit depth %d out of range 2..%d", c.BitDepth, pcm.MaxBitDepth)
	}
	if c.SampleRate <= 0 {
		return fmt.Errorf("invalid sample rate %d", c.SampleRate)
	}
	if c.StartBlock < 1 {
		return fmt.Errorf("start block %d must be 1 or greater", c.StartBlock)
	}
	if c.BlockCount < 0 {
		return fmt.Errorf("block count %d must not be negative", c.BlockCount)
	}
	return nil
}

func (c *Config) audioOptions() audio.Options {
	return audio.Options{
		SampleRate: c.SampleRate,
		BitDepth:   c.BitDepth,
	}
}
