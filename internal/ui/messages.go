package ui

import (
	"time"

	"github.com/linuxmatters/actlevel/internal/processor"
)

// ProgressMsg represents a progress update from the processor
type ProgressMsg struct {
	FileIndex int
	Pass      int     // 1, 2 or 3
	PassName  string  // "Measuring", "Equalizing" or "Verifying"
	Progress  float64 // 0.0 to 1.0
	Level     float64 // Running active speech level in dBov
}

// FileStartMsg indicates a new file has started processing
type FileStartMsg struct {
	FileIndex int
	FileName  string
}

// FileCompleteMsg indicates a file has finished processing
type FileCompleteMsg struct {
	FileIndex  int
	Input      *processor.Report
	Output     *processor.Report // nil when only measuring
	Clipped    int
	OutputPath string
	Error      error
}

// AllCompleteMsg indicates all files have been processed
type AllCompleteMsg struct{}

// tickMsg is sent for spinner/timer animation
type tickMsg time.Time
