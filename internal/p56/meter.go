// Package p56 measures the active speech level of a signal following
// ITU-T Recommendation P.56 (method B).
//
// A Meter is fed successive blocks of normalised samples and keeps the
// running moments, extrema and per-threshold activity counters needed to
// derive the long-term (RMS) level, the active speech level and the
// activity factor. Envelope and hangover state carry over from one block to
// the next, so blocks of a single signal must be processed in order.
package p56

import (
	"math"
)

const (
	// NumThresholds is the number of envelope comparison thresholds.
	NumThresholds = 15

	// TimeConstant is the envelope smoothing time constant in seconds.
	TimeConstant = 0.03

	// Hangover is how long activity persists after the envelope drops
	// below a threshold, in seconds.
	Hangover = 0.2

	// Margin is the distance in dB between the active level and the
	// threshold that defines it.
	Margin = 15.9

	// ThresholdStepDB is the spacing between adjacent thresholds.
	ThresholdStepDB = 20 * 0.30102999566398120 // 6.02 dB, a factor of two

	// MinLogOffset keeps logarithms finite for zero energy.
	MinLogOffset = 1e-20

	// SilentLevel is reported as the active level of a signal with no
	// measurable speech activity.
	SilentLevel = -100.0
)

// Meter holds the streaming state of one measurement. The zero value is not
// usable; create one with New.
type Meter struct {
	sampleRate float64
	refDB      float64

	thresholds [NumThresholds]float64
	activity   [NumThresholds]uint64
	hangover   [NumThresholds]uint64

	n     uint64
	sum   float64
	sumSq float64

	envelope     float64
	intermediate float64
	maxPos       float64
	maxNeg       float64

	g       float64
	hangLen uint64
}

// New returns a Meter reset for the given sample rate.
func New(sampleRate float64) *Meter {
	m := &Meter{}
	m.Reset(sampleRate)
	return m
}

// Reset clears all accumulated state and prepares the meter for a new
// signal at sampleRate Hz.
func (m *Meter) Reset(sampleRate float64) {
	*m = Meter{
		sampleRate: sampleRate,
		maxPos:     math.Inf(-1),
		maxNeg:     math.Inf(1),
		g:          math.Exp(-1 / (sampleRate * TimeConstant)),
		hangLen:    uint64(math.Floor(Hangover*sampleRate + 0.5)),
	}

	// Thresholds run from 2^-15 up to 2^-1 of full scale.
	for k := 0; k < NumThresholds; k++ {
		m.thresholds[NumThresholds-1-k] = math.Pow(10, (m.refDB-float64(k+1)*ThresholdStepDB)/20)
	}
}

// SampleRate returns the rate the meter was reset with.
func (m *Meter) SampleRate() float64 {
	return m.sampleRate
}

// Samples returns the number of samples consumed since the last reset.
func (m *Meter) Samples() uint64 {
	return m.n
}

// Thresholds returns a copy of the envelope thresholds in ascending order.
func (m *Meter) Thresholds() []float64 {
	out := make([]float64, NumThresholds)
	copy(out, m.thresholds[:])
	return out
}

// ProcessBlock consumes a block of normalised samples and returns the
// active level estimate for everything seen so far. Blocks may have any
// length, including zero.
func (m *Meter) ProcessBlock(samples []float32) float64 {
	g := m.g
	for _, s := range samples {
		x := float64(s)

		if x > m.maxPos {
			m.maxPos = x
		}
		if x < m.maxNeg {
			m.maxNeg = x
		}
		m.sum += x
		m.sumSq += x * x

		m.envelope = g*m.envelope + (1-g)*math.Abs(x)
		m.intermediate = g*m.intermediate + (1-g)*m.envelope

		for j := 0; j < NumThresholds; j++ {
			if m.intermediate >= m.thresholds[j] {
				m.activity[j]++
				m.hangover[j] = m.hangLen
			} else if m.hangover[j] > 0 {
				m.activity[j]++
				m.hangover[j]--
			}
		}
		m.n++
	}
	return m.activeLevel()
}

// Result finalises the statistics gathered so far. The meter may continue
// to receive blocks afterwards.
func (m *Meter) Result() Result {
	r := Result{
		SampleRate:  m.sampleRate,
		Samples:     m.n,
		RMSLevel:    SilentLevel,
		ActiveLevel: SilentLevel,
		Silent:      true,
	}
	if m.n == 0 {
		return r
	}

	n := float64(m.n)
	r.DC = m.sum / n
	r.MaxPositive = m.maxPos
	r.MaxNegative = m.maxNeg
	r.AbsMax = math.Max(math.Abs(m.maxPos), math.Abs(m.maxNeg))

	longTerm := 10 * math.Log10(m.sumSq/n+MinLogOffset)
	r.RMSLevel = longTerm - m.refDB

	absMaxDB := 20*math.Log10(r.AbsMax+MinLogOffset) - m.refDB
	r.RMSPeakFactor = absMaxDB - r.RMSLevel

	level := m.activeLevel()
	if level <= SilentLevel {
		return r
	}

	r.Silent = false
	r.ActiveLevel = level
	r.Activity = math.Min(100, math.Max(0, 100*math.Pow(10, (longTerm-level)/10)))
	r.ActivePeakFactor = absMaxDB - level
	return r
}

// activeLevel locates the first threshold whose activity-weighted energy
// lies within Margin dB of the threshold itself, and interpolates between
// it and the previous populated threshold in the log domain.
func (m *Meter) activeLevel() float64 {
	if m.n == 0 || m.activity[0] == 0 {
		return SilentLevel
	}

	prevA := 10 * math.Log10(m.sumSq/float64(m.activity[0])+MinLogOffset)
	prevC := 20 * math.Log10(m.thresholds[0]+MinLogOffset)
	if prevA-prevC < Margin {
		return SilentLevel
	}

	for j := 1; j < NumThresholds; j++ {
		if m.activity[j] == 0 {
			continue
		}
		a := 10 * math.Log10(m.sumSq/float64(m.activity[j])+MinLogOffset)
		c := 20 * math.Log10(m.thresholds[j]+MinLogOffset)

		if a-c <= Margin {
			hi := prevA - prevC
			lo := a - c
			t := 0.0
			if hi != lo {
				t = (hi - Margin) / (hi - lo)
			}
			return prevA + t*(a-prevA) - m.refDB
		}
		prevA, prevC = a, c
	}
	return SilentLevel
}
