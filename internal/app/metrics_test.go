package app

import (
	"errors"
	"testing"
	"time"

	"github.com/dshills/folio/internal/engine"
	"github.com/dshills/folio/internal/engine/command"
)

func TestNewMetrics(t *testing.T) {
	m := NewMetrics()
	snapshot := m.Snapshot()
	if snapshot.Commits != 0 || snapshot.RenderCount != 0 || snapshot.AvgRenderNs != 0 {
		t.Errorf("expected empty snapshot, got %+v", snapshot)
	}
}

func TestMetrics_RecordChange(t *testing.T) {
	m := NewMetrics()
	for _, kind := range []command.Kind{
		engine.KindInitialize,
		command.KindInsertText,
		command.KindFormatText,
		command.KindUndo,
		command.KindRedo,
		command.KindUndo,
	} {
		m.RecordChange(engine.Change{Kind: kind})
	}

	snapshot := m.Snapshot()
	if snapshot.Commits != 2 {
		t.Errorf("expected 2 commits, got %d", snapshot.Commits)
	}
	if snapshot.Undos != 2 || snapshot.Redos != 1 {
		t.Errorf("expected 2 undos and 1 redo, got %d and %d", snapshot.Undos, snapshot.Redos)
	}
}

func TestMetrics_Observe(t *testing.T) {
	m := NewMetrics()
	e := engine.New()
	cancel := m.Observe(e)

	e.SelectAll()
	if _, err := e.Dispatch(command.InsertText{Text: "a"}); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	cancel()
	if _, err := e.Dispatch(command.InsertText{Text: "b"}); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}

	if got := m.Snapshot().Commits; got != 1 {
		t.Errorf("expected 1 commit while observed, got %d", got)
	}
}

func TestMetrics_RecordRender(t *testing.T) {
	m := NewMetrics()

	m.RecordRender(10 * time.Millisecond)
	m.RecordRender(20 * time.Millisecond)
	m.RecordRender(30 * time.Millisecond)

	snapshot := m.Snapshot()
	if snapshot.RenderCount != 3 {
		t.Errorf("expected 3 renders, got %d", snapshot.RenderCount)
	}
	if snapshot.AvgRenderNs != int64(20*time.Millisecond) {
		t.Errorf("expected avg 20ms, got %d ns", snapshot.AvgRenderNs)
	}
	if snapshot.MaxRenderNs != int64(30*time.Millisecond) {
		t.Errorf("expected max 30ms, got %d ns", snapshot.MaxRenderNs)
	}
}

func TestMetrics_RecordScript(t *testing.T) {
	m := NewMetrics()

	m.RecordScript(3, nil)
	m.RecordScript(1, errors.New("boom"))

	snapshot := m.Snapshot()
	if snapshot.ScriptRuns != 2 || snapshot.ScriptFailures != 1 || snapshot.ScriptCommands != 4 {
		t.Errorf("unexpected script metrics %+v", snapshot)
	}
}

func TestTimer(t *testing.T) {
	timer := StartTimer()
	time.Sleep(5 * time.Millisecond)
	if timer.Elapsed() < 5*time.Millisecond {
		t.Errorf("expected at least 5ms, got %v", timer.Elapsed())
	}
}
