package engine

import (
	"context"
	"encoding/json"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/vflow-labs/vflow/rpc"
	"github.com/vflow-labs/vflow/script"
	"github.com/vflow-labs/vflow/state"
	"github.com/vflow-labs/vflow/value"
)

// Fixture port sets for the node shapes the tests assemble.

func eventPorts() []script.Port {
	return []script.Port{script.FlowOut("exec"), script.ValueOut("value"), script.ValueOut("componentId")}
}

func logPorts() []script.Port {
	return []script.Port{script.FlowIn("exec"), script.ValueIn("message"), script.FlowOut("exec")}
}

func mathPorts() []script.Port {
	return []script.Port{script.ValueIn("a"), script.ValueIn("b"), script.ValueOut("result")}
}

func constPorts() []script.Port {
	return []script.Port{script.ValueOut("value")}
}

func setVarPorts() []script.Port {
	return []script.Port{script.FlowIn("exec"), script.ValueIn("value"), script.FlowOut("exec")}
}

func getVarPorts() []script.Port {
	return []script.Port{script.ValueOut("value")}
}

func ifPorts() []script.Port {
	return []script.Port{script.FlowIn("exec"), script.ValueIn("condition"), script.FlowOut("true"), script.FlowOut("false")}
}

func forRangePorts() []script.Port {
	return []script.Port{
		script.FlowIn("exec"),
		script.ValueIn("start"), script.ValueIn("end"), script.ValueIn("step"),
		script.FlowOut("body"), script.FlowOut("done"),
		script.ValueOut("index"),
	}
}

func forEachPorts() []script.Port {
	return []script.Port{
		script.FlowIn("exec"), script.ValueIn("array"),
		script.FlowOut("body"), script.FlowOut("done"),
		script.ValueOut("element"), script.ValueOut("index"),
	}
}

func loopPorts() []script.Port {
	return []script.Port{
		script.FlowIn("exec"), script.ValueIn("condition"),
		script.FlowOut("body"), script.FlowOut("done"),
		script.ValueOut("index"),
	}
}

func breakPorts() []script.Port {
	return []script.Port{script.FlowIn("exec")}
}

func run(t *testing.T, ex *Executor, sc *script.Script) Result {
	t.Helper()
	return ex.ExecuteFromEvent(context.Background(), sc, "ev", value.Null(), "")
}

func TestExecuteLogsConstant(t *testing.T) {
	sc := script.NewBuilder("s1", "hello").
		Node("ev", "event_ui", nil, eventPorts()...).
		Node("msg", "const_string", map[string]any{"value": "hello"}, constPorts()...).
		Node("log", "log", nil, logPorts()...).
		Flow("ev", "exec", "log", "exec").
		Value("msg", "value", "log", "message").
		MustBuild()

	ex := New(Options{})
	res := run(t, ex, sc)
	if !res.Success {
		t.Fatalf("ExecuteFromEvent failed: %s", res.Error)
	}
	if want := []string{"hello"}; !reflect.DeepEqual(res.Logs, want) {
		t.Errorf("Logs = %v, want %v", res.Logs, want)
	}
}

func TestExecuteAccumulatorPersists(t *testing.T) {
	sc := script.NewBuilder("s1", "counter").
		Variable("v1", "n", "number", 0).
		Node("ev", "event_ui", nil, eventPorts()...).
		Node("get", "get_variable", map[string]any{"variable": "v1"}, getVarPorts()...).
		Node("one", "const_number", map[string]any{"value": 1}, constPorts()...).
		Node("add", "math", map[string]any{"op": "add"}, mathPorts()...).
		Node("set", "set_variable", map[string]any{"variable": "v1"}, setVarPorts()...).
		Flow("ev", "exec", "set", "exec").
		Value("get", "value", "add", "a").
		Value("one", "value", "add", "b").
		Value("add", "result", "set", "value").
		MustBuild()

	ex := New(Options{})
	for i := 1; i <= 3; i++ {
		res := run(t, ex, sc)
		if !res.Success {
			t.Fatalf("run %d failed: %s", i, res.Error)
		}
		if got := res.Variables["n"]; !got.Equal(value.Int(int64(i))) {
			t.Errorf("run %d: n = %v, want %d", i, got, i)
		}
	}
	vars, ok := ex.ScriptState("s1")
	if !ok {
		t.Fatal("ScriptState(s1) missing after successful runs")
	}
	if got := vars["n"]; !got.Equal(value.Int(3)) {
		t.Errorf("persisted n = %v, want 3", got)
	}
}

func TestExecuteIfBranches(t *testing.T) {
	build := func(cond bool) *script.Script {
		return script.NewBuilder("s1", "branch").
			Node("ev", "event_ui", nil, eventPorts()...).
			Node("c", "const_bool", map[string]any{"value": cond}, constPorts()...).
			Node("if", "if", nil, ifPorts()...).
			Node("yes", "log", map[string]any{"message": "yes"}, logPorts()...).
			Node("no", "log", map[string]any{"message": "no"}, logPorts()...).
			Flow("ev", "exec", "if", "exec").
			Value("c", "value", "if", "condition").
			Flow("if", "true", "yes", "exec").
			Flow("if", "false", "no", "exec").
			MustBuild()
	}

	for _, tt := range []struct {
		cond bool
		want string
	}{
		{true, "yes"},
		{false, "no"},
	} {
		res := run(t, New(Options{}), build(tt.cond))
		if !res.Success {
			t.Fatalf("cond=%v failed: %s", tt.cond, res.Error)
		}
		if want := []string{tt.want}; !reflect.DeepEqual(res.Logs, want) {
			t.Errorf("cond=%v: Logs = %v, want %v", tt.cond, res.Logs, want)
		}
	}
}

// The comparison feeding the break condition is a pure value node; it
// must re-evaluate on every iteration, not serve a stale cached result.
func TestExecuteForRangeWithBreak(t *testing.T) {
	sc := script.NewBuilder("s1", "range-break").
		Node("ev", "event_ui", nil, eventPorts()...).
		Node("for", "for_range", map[string]any{"start": 0, "end": 10, "step": 1}, forRangePorts()...).
		Node("ts", "to_string", nil,
			script.ValueIn("value"), script.ValueOut("result")).
		Node("logIdx", "log", nil, logPorts()...).
		Node("five", "const_number", map[string]any{"value": 5}, constPorts()...).
		Node("cmp", "compare", map[string]any{"op": "=="}, mathPorts()...).
		Node("if", "if", nil, ifPorts()...).
		Node("brk", "break", nil, breakPorts()...).
		Node("logDone", "log", map[string]any{"message": "done"}, logPorts()...).
		Flow("ev", "exec", "for", "exec").
		Flow("for", "body", "logIdx", "exec").
		Value("for", "index", "ts", "value").
		Value("ts", "result", "logIdx", "message").
		Flow("logIdx", "exec", "if", "exec").
		Value("for", "index", "cmp", "a").
		Value("five", "value", "cmp", "b").
		Value("cmp", "result", "if", "condition").
		Flow("if", "true", "brk", "exec").
		Flow("for", "done", "logDone", "exec").
		MustBuild()

	res := run(t, New(Options{}), sc)
	if !res.Success {
		t.Fatalf("ExecuteFromEvent failed: %s", res.Error)
	}
	want := []string{"0", "1", "2", "3", "4", "5", "done"}
	if !reflect.DeepEqual(res.Logs, want) {
		t.Errorf("Logs = %v, want %v", res.Logs, want)
	}
}

func TestExecuteDivisionByZeroAborts(t *testing.T) {
	sc := script.NewBuilder("s1", "divzero").
		Variable("v1", "n", "number", 7).
		Node("ev", "event_ui", nil, eventPorts()...).
		Node("a", "const_number", map[string]any{"value": 1}, constPorts()...).
		Node("b", "const_number", map[string]any{"value": 0}, constPorts()...).
		Node("div", "math", map[string]any{"op": "div"}, mathPorts()...).
		Node("set", "set_variable", map[string]any{"variable": "v1"}, setVarPorts()...).
		Node("log", "log", map[string]any{"message": "unreached"}, logPorts()...).
		Flow("ev", "exec", "set", "exec").
		Value("a", "value", "div", "a").
		Value("b", "value", "div", "b").
		Value("div", "result", "set", "value").
		Flow("set", "exec", "log", "exec").
		MustBuild()

	ex := New(Options{})
	res := run(t, ex, sc)
	if res.Success {
		t.Fatal("ExecuteFromEvent succeeded, want DivisionByZero failure")
	}
	if !strings.Contains(res.Error, "DivisionByZero") {
		t.Errorf("Error = %q, want DivisionByZero", res.Error)
	}
	if len(res.Logs) != 0 {
		t.Errorf("Logs = %v, want empty on failure before any log node", res.Logs)
	}
	// A failed invocation must not commit state.
	if _, ok := ex.ScriptState("s1"); ok {
		t.Error("ScriptState(s1) committed despite failure")
	}
}

func TestExecuteTargetNodeTimeout(t *testing.T) {
	bridge := rpc.NewBridge()
	bridge.SetSession("sess-1")
	bridge.SetTimeout(50 * time.Millisecond)
	bridge.SetCaller(rpc.CallerFunc(func(ctx context.Context, method string, args []any) (json.RawMessage, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}))

	sc := script.NewBuilder("s1", "slow-read").
		Node("ev", "event_attach", nil, eventPorts()...).
		Node("rd", "memory_read", map[string]any{"size": 4},
			script.FlowIn("exec"), script.ValueIn("address"), script.FlowOut("exec"), script.ValueOut("result")).
		Node("addr", "const_address", map[string]any{"value": "0x1000"}, constPorts()...).
		Flow("ev", "exec", "rd", "exec").
		Value("addr", "value", "rd", "address").
		MustBuild()

	ex := New(Options{Bridge: bridge})
	res := run(t, ex, sc)
	if res.Success {
		t.Fatal("ExecuteFromEvent succeeded, want timeout failure")
	}
	if !strings.Contains(res.Error, "RpcTimeout(50)") {
		t.Errorf("Error = %q, want RpcTimeout(50)", res.Error)
	}
}

func TestExecuteTargetNodeNotAttached(t *testing.T) {
	sc := script.NewBuilder("s1", "detached").
		Node("ev", "event_ui", nil, eventPorts()...).
		Node("rd", "memory_read", nil,
			script.FlowIn("exec"), script.ValueIn("address"), script.FlowOut("exec"), script.ValueOut("result")).
		Flow("ev", "exec", "rd", "exec").
		MustBuild()

	ex := New(Options{})
	res := run(t, ex, sc)
	if res.Success {
		t.Fatal("ExecuteFromEvent succeeded with no session")
	}
	if !strings.Contains(res.Error, "NotAttached") {
		t.Errorf("Error = %q, want NotAttached", res.Error)
	}
}

func TestExecuteTargetNodeSuccess(t *testing.T) {
	bridge := rpc.NewBridge()
	bridge.SetSession("sess-1")
	bridge.SetCaller(rpc.CallerFunc(func(ctx context.Context, method string, args []any) (json.RawMessage, error) {
		req := args[0].(rpc.Request)
		if req.NodeType != "memory_read" {
			t.Errorf("NodeType = %q, want memory_read", req.NodeType)
		}
		resp := rpc.Response{
			ID:      req.ID,
			Success: true,
			Outputs: map[string]value.Value{"result": value.Int(42)},
		}
		return json.Marshal(resp)
	}))

	sc := script.NewBuilder("s1", "read-log").
		Node("ev", "event_ui", nil, eventPorts()...).
		Node("rd", "memory_read", map[string]any{"size": 4},
			script.FlowIn("exec"), script.ValueIn("address"), script.FlowOut("exec"), script.ValueOut("result")).
		Node("addr", "const_address", map[string]any{"value": "0x1000"}, constPorts()...).
		Node("log", "log", nil, logPorts()...).
		Flow("ev", "exec", "rd", "exec").
		Value("addr", "value", "rd", "address").
		Flow("rd", "exec", "log", "exec").
		Value("rd", "result", "log", "message").
		MustBuild()

	ex := New(Options{Bridge: bridge})
	res := run(t, ex, sc)
	if !res.Success {
		t.Fatalf("ExecuteFromEvent failed: %s", res.Error)
	}
	if want := []string{"42"}; !reflect.DeepEqual(res.Logs, want) {
		t.Errorf("Logs = %v, want %v", res.Logs, want)
	}
}

func TestExecuteRejectsNonEventEntry(t *testing.T) {
	sc := script.NewBuilder("s1", "bad-entry").
		Node("log", "log", map[string]any{"message": "x"}, logPorts()...).
		MustBuild()

	res := New(Options{}).ExecuteFromEvent(context.Background(), sc, "log", value.Null(), "")
	if res.Success {
		t.Fatal("ExecuteFromEvent accepted a non-event entry node")
	}
	if !strings.Contains(res.Error, "InvalidOperation") {
		t.Errorf("Error = %q, want InvalidOperation", res.Error)
	}
}

func TestExecuteUnknownEntryNode(t *testing.T) {
	sc := script.NewBuilder("s1", "empty").
		Node("ev", "event_ui", nil, eventPorts()...).
		MustBuild()

	res := New(Options{}).ExecuteFromEvent(context.Background(), sc, "missing", value.Null(), "")
	if res.Success || !strings.Contains(res.Error, "NodeNotFound") {
		t.Errorf("Error = %q, want NodeNotFound", res.Error)
	}
}

func TestExecuteFlowCycleDetected(t *testing.T) {
	sc := script.NewBuilder("s1", "cycle").
		Node("ev", "event_ui", nil, eventPorts()...).
		Node("a", "log", map[string]any{"message": "a"}, logPorts()...).
		Node("b", "log", map[string]any{"message": "b"}, logPorts()...).
		Flow("ev", "exec", "a", "exec").
		Flow("a", "exec", "b", "exec").
		Flow("b", "exec", "a", "exec").
		MustBuild()

	res := run(t, New(Options{}), sc)
	if res.Success {
		t.Fatal("ExecuteFromEvent succeeded on a flow cycle")
	}
	if !strings.Contains(res.Error, "CycleDetected") {
		t.Errorf("Error = %q, want CycleDetected", res.Error)
	}
}

func TestExecuteLoopLimitExceeded(t *testing.T) {
	sc := script.NewBuilder("s1", "spin").
		Node("ev", "event_ui", nil, eventPorts()...).
		Node("c", "const_bool", map[string]any{"value": true}, constPorts()...).
		Node("loop", "loop", map[string]any{"maxIterations": 10}, loopPorts()...).
		Node("body", "log", map[string]any{"message": "tick"}, logPorts()...).
		Flow("ev", "exec", "loop", "exec").
		Value("c", "value", "loop", "condition").
		Flow("loop", "body", "body", "exec").
		MustBuild()

	res := run(t, New(Options{}), sc)
	if res.Success {
		t.Fatal("ExecuteFromEvent succeeded, want LoopLimitExceeded")
	}
	if !strings.Contains(res.Error, "LoopLimitExceeded(10)") {
		t.Errorf("Error = %q, want LoopLimitExceeded(10)", res.Error)
	}
	if len(res.Logs) != 10 {
		t.Errorf("len(Logs) = %d, want 10 iterations before the limit", len(res.Logs))
	}
}

func TestExecuteBreakOutsideLoop(t *testing.T) {
	sc := script.NewBuilder("s1", "stray-break").
		Node("ev", "event_ui", nil, eventPorts()...).
		Node("brk", "break", nil, breakPorts()...).
		Flow("ev", "exec", "brk", "exec").
		MustBuild()

	res := run(t, New(Options{}), sc)
	if res.Success {
		t.Fatal("ExecuteFromEvent succeeded, want InvalidOperation")
	}
	if !strings.Contains(res.Error, "InvalidOperation") {
		t.Errorf("Error = %q, want InvalidOperation", res.Error)
	}
}

func TestExecuteForEachContinueSkips(t *testing.T) {
	sc := script.NewBuilder("s1", "skip-b").
		Node("ev", "event_ui", nil, eventPorts()...).
		Node("items", "array_create", map[string]any{"item0": "a", "item1": "b", "item2": "c"},
			script.ValueOut("result")).
		Node("each", "for_each", nil, forEachPorts()...).
		Node("skip", "const_string", map[string]any{"value": "b"}, constPorts()...).
		Node("cmp", "compare", map[string]any{"op": "=="}, mathPorts()...).
		Node("if", "if", nil, ifPorts()...).
		Node("cont", "continue", nil, breakPorts()...).
		Node("log", "log", nil, logPorts()...).
		Flow("ev", "exec", "each", "exec").
		Value("items", "result", "each", "array").
		Flow("each", "body", "if", "exec").
		Value("each", "element", "cmp", "a").
		Value("skip", "value", "cmp", "b").
		Value("cmp", "result", "if", "condition").
		Flow("if", "true", "cont", "exec").
		Flow("if", "false", "log", "exec").
		Value("each", "element", "log", "message").
		MustBuild()

	res := run(t, New(Options{}), sc)
	if !res.Success {
		t.Fatalf("ExecuteFromEvent failed: %s", res.Error)
	}
	if want := []string{"a", "c"}; !reflect.DeepEqual(res.Logs, want) {
		t.Errorf("Logs = %v, want %v", res.Logs, want)
	}
}

func TestExecuteFanOutDeclarationOrder(t *testing.T) {
	sc := script.NewBuilder("s1", "fanout").
		Node("ev", "event_ui", nil, eventPorts()...).
		Node("one", "log", map[string]any{"message": "one"}, logPorts()...).
		Node("two", "log", map[string]any{"message": "two"}, logPorts()...).
		Flow("ev", "exec", "one", "exec").
		Flow("ev", "exec", "two", "exec").
		MustBuild()

	res := run(t, New(Options{}), sc)
	if !res.Success {
		t.Fatalf("ExecuteFromEvent failed: %s", res.Error)
	}
	if want := []string{"one", "two"}; !reflect.DeepEqual(res.Logs, want) {
		t.Errorf("Logs = %v, want %v", res.Logs, want)
	}
}

func TestExecuteEventValueReachesConsumers(t *testing.T) {
	sc := script.NewBuilder("s1", "payload").
		Node("ev", "event_hotkey", nil,
			script.FlowOut("exec"), script.ValueOut("value"), script.ValueOut("key")).
		Node("log", "log", nil, logPorts()...).
		Flow("ev", "exec", "log", "exec").
		Value("ev", "key", "log", "message").
		MustBuild()

	res := New(Options{}).ExecuteFromEvent(context.Background(), sc, "ev", value.String("F5"), "")
	if !res.Success {
		t.Fatalf("ExecuteFromEvent failed: %s", res.Error)
	}
	if want := []string{"F5"}; !reflect.DeepEqual(res.Logs, want) {
		t.Errorf("Logs = %v, want %v", res.Logs, want)
	}
}

func TestExecuteStateIsolationAcrossScripts(t *testing.T) {
	build := func(id string, n int) *script.Script {
		return script.NewBuilder(id, "setter-"+id).
			Variable("v1", "n", "number", 0).
			Node("ev", "event_ui", nil, eventPorts()...).
			Node("c", "const_number", map[string]any{"value": n}, constPorts()...).
			Node("set", "set_variable", map[string]any{"variable": "v1"}, setVarPorts()...).
			Flow("ev", "exec", "set", "exec").
			Value("c", "value", "set", "value").
			MustBuild()
	}

	ex := New(Options{})
	if res := run(t, ex, build("sA", 1)); !res.Success {
		t.Fatalf("sA failed: %s", res.Error)
	}
	if res := run(t, ex, build("sB", 2)); !res.Success {
		t.Fatalf("sB failed: %s", res.Error)
	}

	a, _ := ex.ScriptState("sA")
	b, _ := ex.ScriptState("sB")
	if !a["n"].Equal(value.Int(1)) || !b["n"].Equal(value.Int(2)) {
		t.Errorf("states leaked: sA.n = %v, sB.n = %v", a["n"], b["n"])
	}
}

func TestExecuteUIRoundTrip(t *testing.T) {
	ui := state.NewUIStore()
	ui.Set("input-1", value.String("0xDEAD"))

	sc := script.NewBuilder("s1", "ui-echo").
		Node("ev", "event_ui", nil, eventPorts()...).
		Node("get", "ui_get_value", map[string]any{"componentId": "input-1"},
			script.FlowIn("exec"), script.FlowOut("exec"), script.ValueOut("value")).
		Node("set", "ui_set_value", map[string]any{"componentId": "label-1"},
			script.FlowIn("exec"), script.ValueIn("value"), script.FlowOut("exec")).
		Flow("ev", "exec", "get", "exec").
		Flow("get", "exec", "set", "exec").
		Value("get", "value", "set", "value").
		MustBuild()

	ex := New(Options{UI: ui})
	res := run(t, ex, sc)
	if !res.Success {
		t.Fatalf("ExecuteFromEvent failed: %s", res.Error)
	}
	got, ok := ui.Get("label-1")
	if !ok || !got.Equal(value.String("0xDEAD")) {
		t.Errorf("ui[label-1] = %v (ok=%v), want 0xDEAD", got, ok)
	}
}

func TestExecuteEmitsEvents(t *testing.T) {
	var kinds []EventKind
	pub := EventPublisherFunc(func(e Event) { kinds = append(kinds, e.Kind) })

	sc := script.NewBuilder("s1", "observed").
		Node("ev", "event_ui", nil, eventPorts()...).
		Node("log", "log", map[string]any{"message": "hi"}, logPorts()...).
		Flow("ev", "exec", "log", "exec").
		MustBuild()

	res := run(t, New(Options{Publisher: pub}), sc)
	if !res.Success {
		t.Fatalf("ExecuteFromEvent failed: %s", res.Error)
	}
	want := []EventKind{
		EventInvocationStarted,
		EventNodeStarted, EventLog, EventNodeFinished,
		EventInvocationFinished,
	}
	if !reflect.DeepEqual(kinds, want) {
		t.Errorf("event kinds = %v, want %v", kinds, want)
	}
}

func TestExecuteDeterministicLogs(t *testing.T) {
	sc := script.NewBuilder("s1", "det").
		Node("ev", "event_ui", nil, eventPorts()...).
		Node("for", "for_range", map[string]any{"start": 0, "end": 3, "step": 1}, forRangePorts()...).
		Node("ts", "to_string", nil, script.ValueIn("value"), script.ValueOut("result")).
		Node("log", "log", nil, logPorts()...).
		Flow("ev", "exec", "for", "exec").
		Flow("for", "body", "log", "exec").
		Value("for", "index", "ts", "value").
		Value("ts", "result", "log", "message").
		MustBuild()

	ex := New(Options{})
	first := run(t, ex, sc)
	second := run(t, ex, sc)
	if !first.Success || !second.Success {
		t.Fatalf("runs failed: %s / %s", first.Error, second.Error)
	}
	if !reflect.DeepEqual(first.Logs, second.Logs) {
		t.Errorf("logs differ across runs: %v vs %v", first.Logs, second.Logs)
	}
}

func TestExecuteSwitchRouting(t *testing.T) {
	build := func(subject string) *script.Script {
		return script.NewBuilder("s1", "switch").
			Node("ev", "event_ui", nil, eventPorts()...).
			Node("v", "const_string", map[string]any{"value": subject}, constPorts()...).
			Node("sw", "switch", map[string]any{"cases": []any{"alpha", "beta"}},
				script.FlowIn("exec"), script.ValueIn("value"),
				script.FlowOut("case0"), script.FlowOut("case1"), script.FlowOut("default")).
			Node("l0", "log", map[string]any{"message": "alpha"}, logPorts()...).
			Node("l1", "log", map[string]any{"message": "beta"}, logPorts()...).
			Node("ld", "log", map[string]any{"message": "other"}, logPorts()...).
			Flow("ev", "exec", "sw", "exec").
			Value("v", "value", "sw", "value").
			Flow("sw", "case0", "l0", "exec").
			Flow("sw", "case1", "l1", "exec").
			Flow("sw", "default", "ld", "exec").
			MustBuild()
	}

	for _, tt := range []struct {
		subject, want string
	}{
		{"alpha", "alpha"},
		{"beta", "beta"},
		{"gamma", "other"},
	} {
		res := run(t, New(Options{}), build(tt.subject))
		if !res.Success {
			t.Fatalf("subject %q failed: %s", tt.subject, res.Error)
		}
		if want := []string{tt.want}; !reflect.DeepEqual(res.Logs, want) {
			t.Errorf("subject %q: Logs = %v, want %v", tt.subject, res.Logs, want)
		}
	}
}

func TestExecuteClearScriptState(t *testing.T) {
	sc := script.NewBuilder("s1", "reset").
		Variable("v1", "n", "number", 5).
		Node("ev", "event_ui", nil, eventPorts()...).
		Node("get", "get_variable", map[string]any{"variable": "v1"}, getVarPorts()...).
		Node("one", "const_number", map[string]any{"value": 1}, constPorts()...).
		Node("add", "math", map[string]any{"op": "add"}, mathPorts()...).
		Node("set", "set_variable", map[string]any{"variable": "v1"}, setVarPorts()...).
		Flow("ev", "exec", "set", "exec").
		Value("get", "value", "add", "a").
		Value("one", "value", "add", "b").
		Value("add", "result", "set", "value").
		MustBuild()

	ex := New(Options{})
	run(t, ex, sc)
	run(t, ex, sc)
	ex.ClearScriptState("s1")

	res := run(t, ex, sc)
	if !res.Success {
		t.Fatalf("run after clear failed: %s", res.Error)
	}
	// Cleared state re-seeds from the declared default of 5.
	if got := res.Variables["n"]; !got.Equal(value.Int(6)) {
		t.Errorf("n after clear = %v, want 6", got)
	}
}

func TestExecuteDelayAdvancesFlow(t *testing.T) {
	sc := script.NewBuilder("s1", "pause").
		Node("ev", "event_ui", nil, eventPorts()...).
		Node("wait", "delay", map[string]any{"ms": 5},
			script.FlowIn("exec"), script.FlowOut("exec")).
		Node("log", "log", map[string]any{"message": "after"}, logPorts()...).
		Flow("ev", "exec", "wait", "exec").
		Flow("wait", "exec", "log", "exec").
		MustBuild()

	res := run(t, New(Options{}), sc)
	if !res.Success {
		t.Fatalf("ExecuteFromEvent failed: %s", res.Error)
	}
	if want := []string{"after"}; !reflect.DeepEqual(res.Logs, want) {
		t.Errorf("Logs = %v, want %v", res.Logs, want)
	}
}

func TestExecuteDelayCancellation(t *testing.T) {
	sc := script.NewBuilder("s1", "stuck").
		Node("ev", "event_ui", nil, eventPorts()...).
		Node("wait", "delay", map[string]any{"ms": 60000},
			script.FlowIn("exec"), script.FlowOut("exec")).
		Node("log", "log", map[string]any{"message": "after"}, logPorts()...).
		Flow("ev", "exec", "wait", "exec").
		Flow("wait", "exec", "log", "exec").
		MustBuild()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	res := New(Options{}).ExecuteFromEvent(ctx, sc, "ev", value.Null(), "")
	elapsed := time.Since(start)

	if res.Success {
		t.Fatal("cancelled invocation reported success")
	}
	if !strings.Contains(res.Error, context.Canceled.Error()) {
		t.Errorf("Error = %q, want context cancellation", res.Error)
	}
	if elapsed > 2*time.Second {
		t.Errorf("cancellation took %s, want immediate return", elapsed)
	}
	if len(res.Logs) != 0 {
		t.Errorf("Logs = %v, want none after cancellation", res.Logs)
	}
}

func TestExecuteUIGetMissingComponentAborts(t *testing.T) {
	sc := script.NewBuilder("s1", "ui-miss").
		Node("ev", "event_ui", nil, eventPorts()...).
		Node("get", "ui_get_value", map[string]any{"componentId": "ghost"},
			script.FlowIn("exec"), script.FlowOut("exec"), script.ValueOut("value")).
		Node("log", "log", nil, logPorts()...).
		Flow("ev", "exec", "get", "exec").
		Flow("get", "exec", "log", "exec").
		Value("get", "value", "log", "message").
		MustBuild()

	res := run(t, New(Options{}), sc)
	if res.Success {
		t.Fatal("ExecuteFromEvent succeeded with a missing component")
	}
	if want := "UIComponentNotFound(ghost)"; res.Error != want {
		t.Errorf("Error = %q, want %q", res.Error, want)
	}
	if len(res.Logs) != 0 {
		t.Errorf("Logs = %v, want none", res.Logs)
	}
}
