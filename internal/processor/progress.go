package processor

// ProgressFunc receives progress updates. pass counts from 1, progress runs
// from 0 to 1 and level is the running active level estimate in dBov, or 0
// when the pass does not measure.
type ProgressFunc func(pass int, passName string, progress float64, level float64)

// Pass numbers reported to a ProgressFunc.
const (
	PassMeasure   = 1
	PassEqualize  = 2
	PassVerify    = 3
	progressDelta = 0.01
)

type progressTracker struct {
	fn    ProgressFunc
	pass  int
	name  string
	total int64
	done  int64
	last  float64
}

func newProgress(fn ProgressFunc, pass int, name string, total int64) *progressTracker {
	return &progressTracker{fn: fn, pass: pass, name: name, total: total}
}

func (p *progressTracker) start() {
	if p.fn != nil {
		p.fn(p.pass, p.name, 0, 0)
	}
}

// advance records n more samples and reports whenever at least one percent
// has passed since the previous report.
func (p *progressTracker) advance(n int, level float64) {
	if p.fn == nil {
		return
	}
	p.done += int64(n)
	frac := 1.0
	if p.total > 0 {
		frac = float64(p.done) / float64(p.total)
	}
	if frac-p.last >= progressDelta || (frac >= 1 && p.last < 1) {
		p.last = frac
		p.fn(p.pass, p.name, frac, level)
	}
}

func (p *progressTracker) finish(level float64) {
	if p.fn != nil && p.last < 1 {
		p.last = 1
		p.fn(p.pass, p.name, 1, level)
	}
}
