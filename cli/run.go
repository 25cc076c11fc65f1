package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/vflow-labs/vflow/bus"
	"github.com/vflow-labs/vflow/engine"
	"github.com/vflow-labs/vflow/loader"
	vfotel "github.com/vflow-labs/vflow/otel"
	"github.com/vflow-labs/vflow/registry"
	"github.com/vflow-labs/vflow/script"
	"github.com/vflow-labs/vflow/target"
	"github.com/vflow-labs/vflow/value"
)

// NewRunCmd creates the "run" subcommand.
func NewRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <file>",
		Short: "Execute a script file from an event",
		Args:  cobra.ExactArgs(1),
		RunE:  runRun,
	}

	cmd.Flags().StringP("event", "e", "", "Event node id to fire (default: first event node)")
	cmd.Flags().String("value", "", "Event payload as inline JSON")
	cmd.Flags().String("component", "", "Component id delivered with the event")
	cmd.Flags().String("format", "text", "Output format: text | json")
	cmd.Flags().Duration("timeout", 30*time.Second, "Execution timeout")
	cmd.Flags().Duration("rpc-timeout", 0, "Per-node RPC response deadline (0 = default)")
	cmd.Flags().Bool("simulate", false, "Attach the built-in simulated target agent")
	cmd.Flags().Bool("events", false, "Print engine events as they occur")
	cmd.Flags().String("db", "", "Persist engine events to a SQLite database at this path")
	cmd.Flags().Bool("trace", false, "Export OpenTelemetry traces (endpoint from OTEL_* env)")

	return cmd
}

func runRun(cmd *cobra.Command, args []string) error {
	filePath := args[0]
	out := cmd.OutOrStdout()

	sc, err := loadScriptForRun(filePath)
	if err != nil {
		return err
	}

	eventNodeID, err := resolveEventNode(cmd, sc)
	if err != nil {
		return err
	}

	eventValue, err := parseEventValue(cmd)
	if err != nil {
		return err
	}
	componentID, _ := cmd.Flags().GetString("component")

	publisher, cleanup, err := buildRunPublisher(cmd, out)
	if err != nil {
		return err
	}
	defer cleanup()

	ex := engine.New(engine.Options{
		Logger:    slog.Default(),
		Publisher: publisher,
	})

	if simulate, _ := cmd.Flags().GetBool("simulate"); simulate {
		agent, err := target.NewSimAgent(slog.Default())
		if err != nil {
			return exitError(exitRuntime, "starting simulated agent: %v", err)
		}
		ex.SetRPCCaller(agent)
		ex.SetSession(target.SessionID)
	}
	if rpcTimeout, _ := cmd.Flags().GetDuration("rpc-timeout"); rpcTimeout > 0 {
		ex.SetRPCTimeout(rpcTimeout)
	}

	timeout, _ := cmd.Flags().GetDuration("timeout")
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	result := ex.ExecuteFromEvent(ctx, sc, eventNodeID, eventValue, componentID)

	// Drain the event fanout before printing so event lines and the
	// result never interleave.
	cleanup()

	format, _ := cmd.Flags().GetString("format")
	writeRunResult(out, result, format)

	if !result.Success {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return exitError(exitTimeout, "execution timed out after %s", timeout)
		}
		return exitError(exitRuntime, "execution failed: %s", result.Error)
	}
	return nil
}

func loadScriptForRun(filePath string) (*script.Script, error) {
	sc, err := loader.Load(filePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, exitError(exitFileNotFound, "file not found: %s", filePath)
		}
		var diagErr *loader.DiagnosticError
		if errors.As(err, &diagErr) {
			return nil, exitError(exitValidation, "invalid script: %v", diagErr)
		}
		return nil, exitError(exitInputParse, "loading script: %v", err)
	}
	return sc, nil
}

// resolveEventNode picks the entry node: the --event flag if given,
// otherwise the first event-kind node in declaration order.
func resolveEventNode(cmd *cobra.Command, sc *script.Script) (string, error) {
	if id, _ := cmd.Flags().GetString("event"); id != "" {
		if _, ok := sc.NodeByID(id); !ok {
			return "", exitError(exitInputParse, "event node %q not found in script", id)
		}
		return id, nil
	}
	for _, n := range sc.Nodes {
		if registry.Global().IsEvent(n.Type) {
			return n.ID, nil
		}
	}
	return "", exitError(exitInputParse, "script has no event node; specify one with --event")
}

func parseEventValue(cmd *cobra.Command) (value.Value, error) {
	raw, _ := cmd.Flags().GetString("value")
	if raw == "" {
		return value.Null(), nil
	}
	v, err := value.DecodeJSON([]byte(raw))
	if err != nil {
		return value.Null(), exitError(exitInputParse, "parsing --value: %v", err)
	}
	return v, nil
}

// buildRunPublisher assembles the event fanout requested by flags:
// a live printer, a SQLite store, and an OTLP trace exporter are all
// optional and compose through bus.Fanout.
func buildRunPublisher(cmd *cobra.Command, out io.Writer) (engine.EventPublisher, func(), error) {
	var fanout bus.Fanout
	var cleanups []func()
	var once sync.Once
	cleanup := func() {
		once.Do(func() {
			for i := len(cleanups) - 1; i >= 0; i-- {
				cleanups[i]()
			}
		})
	}

	if printEvents, _ := cmd.Flags().GetBool("events"); printEvents {
		memBus := bus.NewMemBus(bus.MemBusConfig{})
		sub := memBus.SubscribeAll()
		done := make(chan struct{})
		go func() {
			defer close(done)
			for ev := range sub.Events() {
				printEvent(out, ev)
			}
		}()
		fanout = append(fanout, memBus)
		cleanups = append(cleanups, func() {
			_ = memBus.Close()
			<-done
		})
	}

	if dbPath, _ := cmd.Flags().GetString("db"); dbPath != "" {
		store, err := bus.NewSQLiteEventStore(bus.SQLiteStoreConfig{DSN: dbPath})
		if err != nil {
			cleanup()
			return nil, nil, exitError(exitRuntime, "opening event store: %v", err)
		}
		fanout = append(fanout, bus.NewStoreSubscriber(store, slog.Default()))
		cleanups = append(cleanups, func() { _ = store.Close() })
	}

	if traced, _ := cmd.Flags().GetBool("trace"); traced {
		tracer, shutdown, err := vfotel.NewTracer(cmd.Context(), "vflow")
		if err != nil {
			cleanup()
			return nil, nil, exitError(exitRuntime, "starting tracer: %v", err)
		}
		fanout = append(fanout, vfotel.NewTracingHandler(tracer))
		cleanups = append(cleanups, func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = shutdown(ctx)
		})
	}

	if len(fanout) == 0 {
		return nil, cleanup, nil
	}
	return fanout, cleanup, nil
}

func printEvent(w io.Writer, ev engine.Event) {
	switch ev.Kind {
	case engine.EventLog:
		fmt.Fprintf(w, "[%s] %s\n", ev.Kind, ev.Message)
	case engine.EventNotification:
		fmt.Fprintf(w, "[%s] %s: %s\n", ev.Kind, ev.Title, ev.Message)
	case engine.EventNodeFailed:
		fmt.Fprintf(w, "[%s] %s (%s): %s\n", ev.Kind, ev.NodeID, ev.NodeType, ev.Error)
	case engine.EventNodeFinished:
		if ev.Value != "" {
			fmt.Fprintf(w, "[%s] %s (%s) = %s\n", ev.Kind, ev.NodeID, ev.NodeType, ev.Value)
			return
		}
		fmt.Fprintf(w, "[%s] %s (%s)\n", ev.Kind, ev.NodeID, ev.NodeType)
	case engine.EventInvocationStarted, engine.EventInvocationFinished:
		fmt.Fprintf(w, "[%s] %s\n", ev.Kind, ev.ScriptID)
	default:
		fmt.Fprintf(w, "[%s] %s\n", ev.Kind, ev.NodeID)
	}
}

func writeRunResult(w io.Writer, result engine.Result, format string) {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		_ = enc.Encode(result)
		return
	}

	for _, line := range result.Logs {
		fmt.Fprintln(w, line)
	}
	if result.Success {
		fmt.Fprintln(w, "Success!")
	} else {
		fmt.Fprintf(w, "Failed: %s\n", result.Error)
	}
	if len(result.Variables) > 0 {
		names := make([]string, 0, len(result.Variables))
		for name := range result.Variables {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(w, "  %s = %s\n", name, result.Variables[name])
		}
	}
}
