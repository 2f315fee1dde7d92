package processor

import (
	"errors"
	"math"

	"github.com/linuxmatters/actlevel/internal/p56"
	"github.com/linuxmatters/actlevel/internal/pcm"
)

// ErrSilentInput is returned by SolveGain when the measured level is the
// silence sentinel. There is no meaningful gain for silence.
var ErrSilentInput = errors.New("input has no active speech")

// Basis selects which measured level an equalisation targets.
type Basis int

const (
	BasisActive Basis = iota
	BasisRMS
)

func (b Basis) String() string {
	if b == BasisRMS {
		return "rms"
	}
	return "active"
}

// EqualizationPlan is the gain needed to bring a measured file to a target
// level, with its saturation assessment.
type EqualizationPlan struct {
	Target      float64 // dBov
	Measured    float64 // dBov, the level on Basis
	Basis       Basis
	Gain        float64 // linear factor, 1 when Silent
	MaxSafeGain float64 // largest linear factor that keeps the peak within full scale
	MaxLevel    float64 // dBov, highest target reachable without saturation
	Saturated   bool    // a peak sample would clip at Gain
	Silent      bool    // nothing to equalise
}

// GainDB returns the planned gain in dB.
func (p EqualizationPlan) GainDB() float64 {
	return 20 * math.Log10(p.Gain)
}

// SolveGain returns the linear factor 10^((target-measured)/20).
func SolveGain(measured, target float64) (float64, error) {
	if measured <= p56.SilentLevel {
		return 1, ErrSilentInput
	}
	return math.Pow(10, (target-measured)/20), nil
}

// MaxSafeGain returns the largest factor for which absMax*gain <= 1.
func MaxSafeGain(absMax float64) float64 {
	if absMax <= 0 {
		return math.Inf(1)
	}
	return 1 / absMax
}

// MaxLevelWithoutSaturation returns the highest level in dBov the signal
// could be raised to before its peak reaches full scale.
func MaxLevelWithoutSaturation(measured, absMax float64) float64 {
	return measured - 20*math.Log10(absMax+p56.MinLogOffset)
}

// saturates reports whether scaling by gain clips either peak of res when
// written back at the given resolution.
func saturates(res p56.Result, gain float64, bits int) bool {
	return pcm.Clips(res.MaxPositive*gain, bits) || pcm.Clips(res.MaxNegative*gain, bits)
}

// NewPlan solves the gain for res against target. bits is the resolution
// the equalised samples are written at.
func NewPlan(res p56.Result, target float64, useRMS bool, bits int) EqualizationPlan {
	plan := EqualizationPlan{
		Target:      target,
		Measured:    res.Level(useRMS),
		MaxSafeGain: MaxSafeGain(res.AbsMax),
	}
	if useRMS {
		plan.Basis = BasisRMS
	}
	if res.Samples == 0 || (!useRMS && res.Silent) {
		plan.Measured = p56.SilentLevel
	}

	gain, err := SolveGain(plan.Measured, target)
	if errors.Is(err, ErrSilentInput) {
		plan.Gain = 1
		plan.Silent = true
		plan.MaxLevel = math.Inf(1)
		return plan
	}

	plan.Gain = gain
	plan.MaxLevel = MaxLevelWithoutSaturation(plan.Measured, res.AbsMax)
	plan.Saturated = saturates(res, gain, bits)
	return plan
}
