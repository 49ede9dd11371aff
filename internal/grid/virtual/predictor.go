package virtual

import (
	"math"
	"sync"
	"time"
)

// Prediction tuning.
const (
	DefaultSampleWindow = 100 * time.Millisecond
	DefaultLookahead    = 16 * time.Millisecond
	DefaultDecay        = 150 * time.Millisecond

	sampleCapacity = 32
)

// Sample is one observed scroll position.
type Sample struct {
	At   time.Time
	X, Y float64
}

// Prediction is an extrapolated scroll position.
type Prediction struct {
	X, Y       float64
	Confidence float64   // 1 while actively scrolling, decaying to 0 once idle
	BasedOn    time.Time // time of the newest sample used
}

// Predictor tracks scroll velocity over a short trailing window and
// extrapolates where the viewport will be a frame from now. It is a
// heuristic only: nothing may depend on a prediction being right.
type Predictor struct {
	mu sync.Mutex

	samples [sampleCapacity]Sample
	head    int // index of the next write
	n       int

	window    time.Duration
	lookahead time.Duration
	decay     time.Duration

	failures uint64
}

// NewPredictor creates a predictor with the default tuning.
func NewPredictor() *Predictor {
	return &Predictor{
		window:    DefaultSampleWindow,
		lookahead: DefaultLookahead,
		decay:     DefaultDecay,
	}
}

// SetTuning overrides the trailing window, lookahead and decay durations.
// Non-positive values keep the current setting.
func (p *Predictor) SetTuning(window, lookahead, decay time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if window > 0 {
		p.window = window
	}
	if lookahead > 0 {
		p.lookahead = lookahead
	}
	if decay > 0 {
		p.decay = decay
	}
}

// Record adds a scroll position sample. Samples older than the newest one
// are ignored.
func (p *Predictor) Record(at time.Time, x, y float64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.n > 0 && at.Before(p.latest().At) {
		return
	}
	p.samples[p.head] = Sample{At: at, X: x, Y: y}
	p.head = (p.head + 1) % sampleCapacity
	p.n = min(p.n+1, sampleCapacity)
}

// Reset drops every sample.
func (p *Predictor) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.n = 0
	p.head = 0
}

// latest returns the newest sample. Caller holds mu and n > 0.
func (p *Predictor) latest() Sample {
	return p.samples[(p.head-1+sampleCapacity)%sampleCapacity]
}

// at returns the i-th newest sample (0 = newest). Caller holds mu.
func (p *Predictor) at(i int) Sample {
	return p.samples[(p.head-1-i+2*sampleCapacity)%sampleCapacity]
}

// Velocity returns the scroll velocity in units per second over the
// trailing window ending at the newest sample.
func (p *Predictor) Velocity() (vx, vy float64, ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.velocity()
}

func (p *Predictor) velocity() (vx, vy float64, ok bool) {
	if p.n < 2 {
		return 0, 0, false
	}
	newest := p.latest()
	oldest := newest
	for i := 1; i < p.n; i++ {
		s := p.at(i)
		if newest.At.Sub(s.At) > p.window {
			break
		}
		oldest = s
	}
	dt := newest.At.Sub(oldest.At).Seconds()
	if dt <= 0 {
		return 0, 0, false
	}
	return (newest.X - oldest.X) / dt, (newest.Y - oldest.Y) / dt, true
}

// Predict extrapolates the scroll position a lookahead past now. It
// returns false when not scrolling, when scrolling stopped longer than the
// decay period ago, or when the arithmetic does not produce a finite result.
func (p *Predictor) Predict(now time.Time) (Prediction, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	vx, vy, ok := p.velocity()
	if !ok || (vx == 0 && vy == 0) {
		return Prediction{}, false
	}
	newest := p.latest()
	idle := now.Sub(newest.At)
	if idle < 0 {
		return Prediction{}, false
	}
	confidence := 1 - float64(idle)/float64(p.decay)
	if confidence <= 0 {
		return Prediction{}, false
	}

	ahead := (idle + p.lookahead).Seconds()
	pred := Prediction{
		X:          newest.X + vx*ahead,
		Y:          newest.Y + vy*ahead,
		Confidence: confidence,
		BasedOn:    newest.At,
	}
	if !finite(pred.X) || !finite(pred.Y) {
		p.failures++
		return Prediction{}, false
	}
	return pred, true
}

// IsStale reports whether pred was made before the newest sample and must
// be discarded.
func (p *Predictor) IsStale(pred Prediction) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.n == 0 {
		return true
	}
	return pred.BasedOn.Before(p.latest().At)
}

// Failures returns how many predictions were dropped for non-finite results.
func (p *Predictor) Failures() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.failures
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
