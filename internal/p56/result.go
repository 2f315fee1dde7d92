package p56

import "math"

// Result is an immutable snapshot of a finished measurement. Levels are in
// dB relative to full scale (dBov); sample values are normalised to [-1, 1).
type Result struct {
	SampleRate float64
	Samples    uint64

	RMSLevel    float64 // long-term level
	ActiveLevel float64 // active speech level, SilentLevel when Silent
	Activity    float64 // percent of samples judged active, 0..100

	DC          float64
	MaxPositive float64
	MaxNegative float64
	AbsMax      float64

	RMSPeakFactor    float64
	ActivePeakFactor float64

	// Silent is set when no speech activity was detected. ActiveLevel and
	// ActivePeakFactor carry no information in that case.
	Silent bool
}

// Level returns the active level, or the RMS level when rms is true.
func (r Result) Level(rms bool) float64 {
	if rms {
		return r.RMSLevel
	}
	return r.ActiveLevel
}

// AbsMaxDB returns the absolute peak in dBov.
func (r Result) AbsMaxDB() float64 {
	return 20 * math.Log10(r.AbsMax+MinLogOffset)
}
