// Package schedule fires timer events on cron schedules. Each scheduled
// entry drives one event_timer node of one script, carrying a
// monotonically increasing tick count as the event payload.
package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/vflow-labs/vflow/engine"
	"github.com/vflow-labs/vflow/script"
	"github.com/vflow-labs/vflow/value"
)

// Runner executes a script from an event entry node. *engine.Executor
// satisfies this.
type Runner interface {
	ExecuteFromEvent(ctx context.Context, sc *script.Script, eventNodeID string, eventValue value.Value, componentID string) engine.Result
}

// entry is one scheduled timer binding.
type entry struct {
	id   cron.EntryID
	tick *atomic.Int64
}

// Scheduler owns a cron runner and the timer entries registered on it.
type Scheduler struct {
	runner Runner
	logger *slog.Logger
	cron   *cron.Cron

	mu      sync.Mutex
	entries map[string]*entry // scriptID:nodeID -> entry
}

// NewScheduler creates a stopped scheduler. Overlapping fires of the
// same entry are skipped rather than queued.
func NewScheduler(runner Runner, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		runner: runner,
		logger: logger,
		cron: cron.New(cron.WithChain(
			cron.SkipIfStillRunning(cron.DefaultLogger),
			cron.Recover(cron.DefaultLogger),
		)),
		entries: make(map[string]*entry),
	}
}

// Add registers a timer entry for the given event_timer node. The spec
// accepts standard five-field cron expressions and descriptors such as
// "@every 30s". Cron's resolution is one second; "@every" intervals
// below that are rejected rather than silently rounded up. Adding an
// existing entry replaces its schedule and resets its tick counter.
func (s *Scheduler) Add(sc *script.Script, nodeID, spec string) error {
	node, ok := sc.NodeByID(nodeID)
	if !ok {
		return fmt.Errorf("schedule: script %s has no node %q", sc.ID, nodeID)
	}
	if node.Type != "event_timer" {
		return fmt.Errorf("schedule: node %s is %s, want event_timer", nodeID, node.Type)
	}
	if _, err := cron.ParseStandard(spec); err != nil {
		return fmt.Errorf("schedule: invalid cron expression %q: %w", spec, err)
	}
	if d, ok := everyInterval(spec); ok && d < time.Second {
		return fmt.Errorf("schedule: interval %q is below the one second cron resolution", spec)
	}

	key := sc.ID + ":" + nodeID
	tick := &atomic.Int64{}

	id, err := s.cron.AddFunc(spec, func() {
		s.fire(sc, nodeID, tick)
	})
	if err != nil {
		return fmt.Errorf("schedule: add %s: %w", key, err)
	}

	s.mu.Lock()
	if old, exists := s.entries[key]; exists {
		s.cron.Remove(old.id)
	}
	s.entries[key] = &entry{id: id, tick: tick}
	s.mu.Unlock()

	s.logger.Info("timer scheduled", "script", sc.ID, "node", nodeID, "spec", spec)
	return nil
}

// fire runs one timer invocation with the next tick as payload.
func (s *Scheduler) fire(sc *script.Script, nodeID string, tick *atomic.Int64) {
	n := tick.Add(1)
	res := s.runner.ExecuteFromEvent(context.Background(), sc, nodeID, value.Int(n), "")
	if !res.Success {
		s.logger.Error("timer invocation failed",
			"script", sc.ID,
			"node", nodeID,
			"tick", n,
			"error", res.Error,
		)
	}
}

// everyInterval extracts the duration of an "@every" descriptor.
func everyInterval(spec string) (time.Duration, bool) {
	rest, ok := strings.CutPrefix(spec, "@every ")
	if !ok {
		return 0, false
	}
	d, err := time.ParseDuration(rest)
	if err != nil {
		return 0, false
	}
	return d, true
}

// AddScript scans a script for event_timer nodes carrying a "cron"
// config entry and registers each. Timer nodes without a schedule are
// skipped; they can still be fired manually.
func (s *Scheduler) AddScript(sc *script.Script) error {
	for i := range sc.Nodes {
		n := &sc.Nodes[i]
		if n.Type != "event_timer" {
			continue
		}
		spec, ok := n.Config["cron"].(string)
		if !ok || spec == "" {
			continue
		}
		if err := s.Add(sc, n.ID, spec); err != nil {
			return err
		}
	}
	return nil
}

// Remove drops a timer entry. Removing an unknown entry is a no-op.
func (s *Scheduler) Remove(scriptID, nodeID string) {
	key := scriptID + ":" + nodeID

	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[key]; ok {
		s.cron.Remove(e.id)
		delete(s.entries, key)
	}
}

// Ticks returns the fire count of an entry.
func (s *Scheduler) Ticks(scriptID, nodeID string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[scriptID+":"+nodeID]; ok {
		return e.tick.Load()
	}
	return 0
}

// Len returns the number of registered entries.
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Start begins firing schedules in a background goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts scheduling and waits for in-flight invocations to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}
