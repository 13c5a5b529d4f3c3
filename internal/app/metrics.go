package app

import (
	"sync/atomic"
	"time"

	"github.com/dshills/folio/internal/engine"
	"github.com/dshills/folio/internal/engine/command"
)

// Metrics counts document activity across every engine the application
// creates.
type Metrics struct {
	commits atomic.Uint64
	undos   atomic.Uint64
	redos   atomic.Uint64

	renderCount   atomic.Uint64
	renderTotalNs atomic.Int64
	renderMaxNs   atomic.Int64

	scriptRuns     atomic.Uint64
	scriptFailures atomic.Uint64
	scriptCommands atomic.Uint64

	startTime time.Time
}

// NewMetrics creates a new metrics tracker.
func NewMetrics() *Metrics {
	return &Metrics{startTime: time.Now()}
}

// Observe counts the changes e commits. The returned function stops
// counting.
func (m *Metrics) Observe(e *engine.Engine) (cancel func()) {
	return e.OnChange(m.RecordChange)
}

// RecordChange counts one committed change. Loading content is not
// counted.
func (m *Metrics) RecordChange(ch engine.Change) {
	switch ch.Kind {
	case engine.KindInitialize:
	case command.KindUndo:
		m.undos.Add(1)
	case command.KindRedo:
		m.redos.Add(1)
	default:
		m.commits.Add(1)
	}
}

// RecordRender records render timing.
func (m *Metrics) RecordRender(duration time.Duration) {
	ns := duration.Nanoseconds()
	m.renderCount.Add(1)
	m.renderTotalNs.Add(ns)

	for {
		old := m.renderMaxNs.Load()
		if ns <= old || m.renderMaxNs.CompareAndSwap(old, ns) {
			break
		}
	}
}

// RecordScript records one script run and the commands it dispatched.
func (m *Metrics) RecordScript(commands int, err error) {
	m.scriptRuns.Add(1)
	m.scriptCommands.Add(uint64(commands))
	if err != nil {
		m.scriptFailures.Add(1)
	}
}

// Snapshot returns a snapshot of current metrics.
func (m *Metrics) Snapshot() MetricsSnapshot {
	renders := m.renderCount.Load()
	var avg int64
	if renders > 0 {
		avg = m.renderTotalNs.Load() / int64(renders)
	}
	return MetricsSnapshot{
		Uptime:         time.Since(m.startTime),
		Commits:        m.commits.Load(),
		Undos:          m.undos.Load(),
		Redos:          m.redos.Load(),
		RenderCount:    renders,
		AvgRenderNs:    avg,
		MaxRenderNs:    m.renderMaxNs.Load(),
		ScriptRuns:     m.scriptRuns.Load(),
		ScriptFailures: m.scriptFailures.Load(),
		ScriptCommands: m.scriptCommands.Load(),
	}
}

// MetricsSnapshot is a point-in-time view of metrics.
type MetricsSnapshot struct {
	Uptime         time.Duration
	Commits        uint64
	Undos          uint64
	Redos          uint64
	RenderCount    uint64
	AvgRenderNs    int64
	MaxRenderNs    int64
	ScriptRuns     uint64
	ScriptFailures uint64
	ScriptCommands uint64
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
