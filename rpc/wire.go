// Package rpc bridges target-classified nodes to the remote process.
// The bridge holds the current session identity and a pluggable Caller
// capability; it is deliberately stateless beyond session, timeout and a
// monotonic request counter so implementations are free to multiplex.
package rpc

import (
	"context"
	"encoding/json"

	"github.com/vflow-labs/vflow/value"
)

// MethodExecuteNode is the single method name used for graph-node
// dispatch. The request object travels as the method's only argument.
const MethodExecuteNode = "script.executeNode"

// Caller is the capability an embedder supplies to reach the remote
// agent. Implementations must honor context cancellation.
type Caller interface {
	Call(ctx context.Context, method string, args []any) (json.RawMessage, error)
}

// CallerFunc adapts a function to the Caller interface.
type CallerFunc func(ctx context.Context, method string, args []any) (json.RawMessage, error)

// Call invokes the function.
func (f CallerFunc) Call(ctx context.Context, method string, args []any) (json.RawMessage, error) {
	return f(ctx, method, args)
}

// Request is the node-dispatch wire request.
type Request struct {
	ID       uint64         `json:"id"`
	NodeType string         `json:"node_type"`
	Config   map[string]any `json:"config"`
	Inputs   map[string]any `json:"inputs"`
}

// Response is the node-dispatch wire response. ID echoes the request.
type Response struct {
	ID      uint64                 `json:"id"`
	Success bool                   `json:"success"`
	Outputs map[string]value.Value `json:"outputs,omitempty"`
	Error   string                 `json:"error,omitempty"`
}
