// Package engine executes visual scripts: it walks flow edges eagerly,
// pulls value edges lazily, dispatches host nodes to built-in handlers
// and target nodes to the RPC bridge, and keeps per-script variable
// state alive across invocations.
package engine

import (
	"errors"
	"fmt"
	"time"

	"github.com/vflow-labs/vflow/value"
)

// ErrorKind names one failure class. The string form of an Error starts
// with its kind, so embedders can match on prefixes as well as unwrap.
type ErrorKind string

const (
	KindNodeNotFound        ErrorKind = "NodeNotFound"
	KindPortNotFound        ErrorKind = "PortNotFound"
	KindVariableNotFound    ErrorKind = "VariableNotFound"
	KindUIComponentNotFound ErrorKind = "UIComponentNotFound"
	KindTypeError           ErrorKind = "TypeError"
	KindConversionError     ErrorKind = "ConversionError"
	KindDivisionByZero      ErrorKind = "DivisionByZero"
	KindIndexOutOfBounds    ErrorKind = "IndexOutOfBounds"
	KindInvalidOperation    ErrorKind = "InvalidOperation"
	KindInvalidConfig       ErrorKind = "InvalidConfig"
	KindLoopLimitExceeded   ErrorKind = "LoopLimitExceeded"
	KindCycleDetected       ErrorKind = "CycleDetected"
	KindNotAttached         ErrorKind = "NotAttached"
	KindRPCError            ErrorKind = "RpcError"
	KindRPCTimeout          ErrorKind = "RpcTimeout"
)

// Error is a classified engine failure. Every Error aborts the
// invocation; control-flow signals are separate sentinels and never
// surface past their enclosing construct.
type Error struct {
	Kind   ErrorKind
	Detail string
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s(%s)", e.Kind, e.Detail)
}

// Is matches two engine errors by kind, so errors.Is(err, &Error{Kind: k})
// works without comparing details.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// NewError builds a classified error with a formatted detail.
func NewError(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

// KindOf extracts the ErrorKind from an error chain, or "" if the error
// is not an engine error.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func errNodeNotFound(id string) *Error {
	return NewError(KindNodeNotFound, "%s", id)
}

func errPortNotFound(nodeID, portID string) *Error {
	return NewError(KindPortNotFound, "%s.%s", nodeID, portID)
}

func errVariableNotFound(name string) *Error {
	return NewError(KindVariableNotFound, "%s", name)
}

func errUIComponentNotFound(id string) *Error {
	return NewError(KindUIComponentNotFound, "%s", id)
}

func errTypeMismatch(expected string, actual value.Kind) *Error {
	return NewError(KindTypeError, "expected %s, got %s", expected, actual)
}

func errConversion(from, to value.Kind) *Error {
	return NewError(KindConversionError, "%s to %s", from, to)
}

func errDivisionByZero() *Error {
	return &Error{Kind: KindDivisionByZero}
}

func errIndexOutOfBounds(index int64, length int) *Error {
	return NewError(KindIndexOutOfBounds, "index %d, length %d", index, length)
}

func errInvalidOperation(format string, args ...any) *Error {
	return NewError(KindInvalidOperation, format, args...)
}

func errInvalidConfig(format string, args ...any) *Error {
	return NewError(KindInvalidConfig, format, args...)
}

func errLoopLimitExceeded(limit int) *Error {
	return NewError(KindLoopLimitExceeded, "%d", limit)
}

func errCycleDetected(nodeID string) *Error {
	return NewError(KindCycleDetected, "%s", nodeID)
}

func errRPCTimeout(d time.Duration) *Error {
	return NewError(KindRPCTimeout, "%d", d.Milliseconds())
}

// Control-flow signals travel as errors but are caught by their
// enclosing construct: break and continue by the innermost loop, return
// by a user-function frame (reserved).
var (
	errBreakSignal    = errors.New("break signal")
	errContinueSignal = errors.New("continue signal")
)

// returnSignal is reserved for user-defined functions.
type returnSignal struct {
	val value.Value
}

func (s *returnSignal) Error() string { return "return signal" }

// isControlSignal reports whether err is a loop or function signal
// rather than a real failure.
func isControlSignal(err error) bool {
	var ret *returnSignal
	return errors.Is(err, errBreakSignal) || errors.Is(err, errContinueSignal) || errors.As(err, &ret)
}
