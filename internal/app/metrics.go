package app

import (
	"math"
	"sync/atomic"
	"time"

	"github.com/dshills/gridstorm/internal/grid/draw"
)

// Metrics tracks frame and input activity of the interactive loop.
// All methods are safe for concurrent use.
type Metrics struct {
	// Frame timing
	frameCount   atomic.Uint64
	frameTotalNs atomic.Int64
	frameMinNs   atomic.Int64
	frameMaxNs   atomic.Int64
	lastFrameNs  atomic.Int64
	idleFrames   atomic.Uint64

	// Painting
	cellsPainted atomic.Uint64
	panics       atomic.Uint64

	// Input handling
	inputCount   atomic.Uint64
	inputTotalNs atomic.Int64
	inputDropped atomic.Uint64

	reloads atomic.Uint64

	startTime atomic.Int64
}

// NewMetrics creates a new metrics tracker.
func NewMetrics() *Metrics {
	m := &Metrics{}
	m.Reset()
	return m
}

// RecordFrame records one painted frame.
func (m *Metrics) RecordFrame(duration time.Duration, stats draw.Stats) {
	ns := duration.Nanoseconds()

	m.frameCount.Add(1)
	m.frameTotalNs.Add(ns)
	m.lastFrameNs.Store(ns)
	m.cellsPainted.Add(uint64(stats.Cells))
	m.panics.Add(uint64(stats.Panics))

	for {
		old := m.frameMinNs.Load()
		if ns >= old || m.frameMinNs.CompareAndSwap(old, ns) {
			break
		}
	}
	for {
		old := m.frameMaxNs.Load()
		if ns <= old || m.frameMaxNs.CompareAndSwap(old, ns) {
			break
		}
	}
}

// RecordIdleFrame records a tick that had nothing to repaint.
func (m *Metrics) RecordIdleFrame() {
	m.idleFrames.Add(1)
}

// RecordInput records input processing timing.
func (m *Metrics) RecordInput(duration time.Duration) {
	m.inputCount.Add(1)
	m.inputTotalNs.Add(duration.Nanoseconds())
}

// RecordInputDropped records an input event dropped because the queue was full.
func (m *Metrics) RecordInputDropped() {
	m.inputDropped.Add(1)
}

// RecordReload records an applied configuration reload.
func (m *Metrics) RecordReload() {
	m.reloads.Add(1)
}

// Snapshot returns a point-in-time copy of the metrics.
func (m *Metrics) Snapshot() MetricsSnapshot {
	frames := m.frameCount.Load()
	inputs := m.inputCount.Load()

	var avgFrameNs, avgInputNs int64
	if frames > 0 {
		avgFrameNs = m.frameTotalNs.Load() / int64(frames)
	}
	if inputs > 0 {
		avgInputNs = m.inputTotalNs.Load() / int64(inputs)
	}
	minFrameNs := m.frameMinNs.Load()
	if minFrameNs == math.MaxInt64 {
		minFrameNs = 0
	}

	return MetricsSnapshot{
		Uptime:         time.Since(time.Unix(0, m.startTime.Load())),
		FrameCount:     frames,
		IdleFrames:     m.idleFrames.Load(),
		AvgFrameTimeNs: avgFrameNs,
		MinFrameTimeNs: minFrameNs,
		MaxFrameTimeNs: m.frameMaxNs.Load(),
		LastFrameNs:    m.lastFrameNs.Load(),
		CellsPainted:   m.cellsPainted.Load(),
		RendererPanics: m.panics.Load(),
		InputCount:     inputs,
		AvgInputTimeNs: avgInputNs,
		InputDropped:   m.inputDropped.Load(),
		Reloads:        m.reloads.Load(),
	}
}

// Reset clears all metrics.
func (m *Metrics) Reset() {
	m.frameCount.Store(0)
	m.frameTotalNs.Store(0)
	m.frameMinNs.Store(math.MaxInt64)
	m.frameMaxNs.Store(0)
	m.lastFrameNs.Store(0)
	m.idleFrames.Store(0)
	m.cellsPainted.Store(0)
	m.panics.Store(0)
	m.inputCount.Store(0)
	m.inputTotalNs.Store(0)
	m.inputDropped.Store(0)
	m.reloads.Store(0)
	m.startTime.Store(time.Now().UnixNano())
}

// MetricsSnapshot is a point-in-time view of metrics.
type MetricsSnapshot struct {
	Uptime         time.Duration
	FrameCount     uint64
	IdleFrames     uint64
	AvgFrameTimeNs int64
	MinFrameTimeNs int64
	MaxFrameTimeNs int64
	LastFrameNs    int64
	CellsPainted   uint64
	RendererPanics uint64
	InputCount     uint64
	AvgInputTimeNs int64
	InputDropped   uint64
	Reloads        uint64
}

// AvgCellsPerFrame returns the mean number of cells painted per frame.
func (s MetricsSnapshot) AvgCellsPerFrame() float64 {
	if s.FrameCount == 0 {
		return 0
	}
	return float64(s.CellsPainted) / float64(s.FrameCount)
}

// IdleRate returns the percentage of ticks that painted nothing.
func (s MetricsSnapshot) IdleRate() float64 {
	total := s.FrameCount + s.IdleFrames
	if total == 0 {
		return 0
	}
	return float64(s.IdleFrames) / float64(total) * 100
}

// Timer provides a simple way to measure elapsed time.
type Timer struct {
	start time.Time
}

// StartTimer creates a new timer.
func StartTimer() *Timer {
	return &Timer{start: time.Now()}
}

// Elapsed returns the elapsed time since the timer started.
func (t *Timer) Elapsed() time.Duration {
	return time.Since(t.start)
}

// Metrics returns the application's metrics.
func (app *Application) Metrics() *Metrics {
	return app.metrics
}
