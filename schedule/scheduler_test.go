package schedule

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/vflow-labs/vflow/engine"
	"github.com/vflow-labs/vflow/script"
	"github.com/vflow-labs/vflow/value"
)

// stubRunner records fired invocations.
type stubRunner struct {
	mu    sync.Mutex
	calls []value.Value
}

func (r *stubRunner) ExecuteFromEvent(_ context.Context, _ *script.Script, _ string, eventValue value.Value, _ string) engine.Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, eventValue)
	return engine.Result{Success: true}
}

func (r *stubRunner) snapshot() []value.Value {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]value.Value, len(r.calls))
	copy(out, r.calls)
	return out
}

func timerScript(config map[string]any) *script.Script {
	return script.NewBuilder("s1", "ticker").
		Node("tm", "event_timer", config,
			script.FlowOut("exec"), script.ValueOut("value"), script.ValueOut("tick")).
		MustBuild()
}

func TestSchedulerFireDeliversIncreasingTicks(t *testing.T) {
	runner := &stubRunner{}
	s := NewScheduler(runner, nil)
	sc := timerScript(nil)

	if err := s.Add(sc, "tm", "@every 1h"); err != nil {
		t.Fatalf("Add() = %v", err)
	}
	s.mu.Lock()
	tick := s.entries["s1:tm"].tick
	s.mu.Unlock()

	for i := 0; i < 3; i++ {
		s.fire(sc, "tm", tick)
	}

	calls := runner.snapshot()
	if len(calls) != 3 {
		t.Fatalf("fired %d times, want 3", len(calls))
	}
	for i, v := range calls {
		if !v.Equal(value.Int(int64(i + 1))) {
			t.Errorf("call %d payload = %v, want %d", i, v, i+1)
		}
	}
	if got := s.Ticks("s1", "tm"); got != 3 {
		t.Errorf("Ticks() = %d, want 3", got)
	}
}

func TestSchedulerFiresOnSchedule(t *testing.T) {
	if testing.Short() {
		t.Skip("waits on the wall clock")
	}
	runner := &stubRunner{}
	s := NewScheduler(runner, nil)
	sc := timerScript(nil)

	// One second is the smallest interval cron runs at.
	if err := s.Add(sc, "tm", "@every 1s"); err != nil {
		t.Fatalf("Add() = %v", err)
	}
	s.Start()
	time.Sleep(2500 * time.Millisecond)
	s.Stop()

	calls := runner.snapshot()
	if len(calls) < 1 {
		t.Fatalf("fired %d times in 2.5s at @every 1s, want at least 1", len(calls))
	}
	if !calls[0].Equal(value.Int(1)) {
		t.Errorf("first payload = %v, want 1", calls[0])
	}
}

func TestSchedulerRejectsSubSecondInterval(t *testing.T) {
	s := NewScheduler(&stubRunner{}, nil)
	if err := s.Add(timerScript(nil), "tm", "@every 10ms"); err == nil {
		t.Error("Add() accepted a sub-second interval")
	}
}

func TestSchedulerAddValidation(t *testing.T) {
	s := NewScheduler(&stubRunner{}, nil)
	sc := timerScript(nil)

	if err := s.Add(sc, "ghost", "@every 1s"); err == nil {
		t.Error("Add() accepted an unknown node")
	}
	if err := s.Add(sc, "tm", "not a cron spec"); err == nil {
		t.Error("Add() accepted an invalid cron expression")
	}

	ui := script.NewBuilder("s2", "btn").
		Node("ev", "event_ui", nil, script.FlowOut("exec"), script.ValueOut("value")).
		MustBuild()
	if err := s.Add(ui, "ev", "@every 1s"); err == nil {
		t.Error("Add() accepted a non-timer node")
	}
}

func TestSchedulerAddScriptScansConfig(t *testing.T) {
	s := NewScheduler(&stubRunner{}, nil)

	sc := timerScript(map[string]any{"cron": "@every 1h"})
	if err := s.AddScript(sc); err != nil {
		t.Fatalf("AddScript() = %v", err)
	}
	if s.Len() != 1 {
		t.Errorf("Len() = %d, want 1", s.Len())
	}

	// Timers without a cron config are skipped.
	bare := timerScript(nil)
	bare.ID = "s3"
	if err := s.AddScript(bare); err != nil {
		t.Fatalf("AddScript(bare) = %v", err)
	}
	if s.Len() != 1 {
		t.Errorf("Len() after bare script = %d, want 1", s.Len())
	}
}

func TestSchedulerRemove(t *testing.T) {
	s := NewScheduler(&stubRunner{}, nil)
	sc := timerScript(nil)

	if err := s.Add(sc, "tm", "@every 1h"); err != nil {
		t.Fatalf("Add() = %v", err)
	}
	s.Remove("s1", "tm")
	if s.Len() != 0 {
		t.Errorf("Len() after Remove = %d, want 0", s.Len())
	}
	// Removing again is a no-op.
	s.Remove("s1", "tm")
}
