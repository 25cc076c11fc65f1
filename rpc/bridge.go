package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vflow-labs/vflow/value"
)

// DefaultTimeout bounds how long the bridge waits for a remote response.
const DefaultTimeout = 5000 * time.Millisecond

// ErrNotAttached is returned when a target node executes with no session.
var ErrNotAttached = errors.New("no target session attached")

// TimeoutError reports that the remote side did not respond in time.
type TimeoutError struct {
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("rpc timed out after %dms", e.Timeout.Milliseconds())
}

// RemoteError reports a success=false response from the remote side.
type RemoteError struct {
	Message string
}

func (e *RemoteError) Error() string {
	return e.Message
}

// Bridge marshals target node invocations onto the Caller capability.
type Bridge struct {
	mu      sync.RWMutex
	session string
	caller  Caller
	timeout time.Duration

	nextID atomic.Uint64
}

// NewBridge creates a bridge with the default timeout and no session.
func NewBridge() *Bridge {
	return &Bridge{timeout: DefaultTimeout}
}

// SetSession binds the bridge to a target session.
func (b *Bridge) SetSession(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.session = id
}

// ClearSession detaches the bridge from its session.
func (b *Bridge) ClearSession() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.session = ""
}

// Session returns the bound session id, if any.
func (b *Bridge) Session() (string, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.session, b.session != ""
}

// SetCaller installs the caller capability. The caller's lifetime is
// managed by the embedder.
func (b *Bridge) SetCaller(c Caller) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.caller = c
}

// SetTimeout overrides the response deadline.
func (b *Bridge) SetTimeout(d time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.timeout = d
}

// Timeout returns the configured response deadline.
func (b *Bridge) Timeout() time.Duration {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.timeout
}

// ExecuteNode dispatches one target node invocation and decodes its
// outputs. It fails with ErrNotAttached when no session is bound, a
// TimeoutError when the deadline passes, and a RemoteError when the
// remote side reports success=false. Context cancellation propagates
// immediately.
func (b *Bridge) ExecuteNode(ctx context.Context, nodeType string, config map[string]any, inputs map[string]value.Value) (map[string]value.Value, error) {
	b.mu.RLock()
	caller := b.caller
	session := b.session
	timeout := b.timeout
	b.mu.RUnlock()

	if session == "" || caller == nil {
		return nil, ErrNotAttached
	}

	wireInputs := make(map[string]any, len(inputs))
	for name, v := range inputs {
		wireInputs[name] = v.ToAny()
	}
	if config == nil {
		config = map[string]any{}
	}
	req := Request{
		ID:       b.nextID.Add(1),
		NodeType: nodeType,
		Config:   config,
		Inputs:   wireInputs,
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type callResult struct {
		raw json.RawMessage
		err error
	}
	ch := make(chan callResult, 1)
	go func() {
		raw, err := caller.Call(ctx, MethodExecuteNode, []any{req})
		ch <- callResult{raw, err}
	}()

	var raw json.RawMessage
	select {
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, &TimeoutError{Timeout: timeout}
		}
		return nil, ctx.Err()
	case res := <-ch:
		if res.err != nil {
			if errors.Is(res.err, context.DeadlineExceeded) {
				return nil, &TimeoutError{Timeout: timeout}
			}
			return nil, &RemoteError{Message: res.err.Error()}
		}
		raw = res.raw
	}

	var resp Response
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, &RemoteError{Message: fmt.Sprintf("malformed response: %v", err)}
	}
	if !resp.Success {
		msg := resp.Error
		if msg == "" {
			msg = "remote execution failed"
		}
		return nil, &RemoteError{Message: msg}
	}
	if resp.Outputs == nil {
		resp.Outputs = map[string]value.Value{}
	}
	return resp.Outputs, nil
}
