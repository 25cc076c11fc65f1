package engine

import (
	"context"
	"math"

	"github.com/vflow-labs/vflow/script"
	"github.com/vflow-labs/vflow/value"
)

func isUnaryMathOp(op string) bool {
	switch op {
	case "abs", "floor", "ceil", "round", "sqrt", "bit_not":
		return true
	default:
		return false
	}
}

func isBitwiseOp(op string) bool {
	switch op {
	case "bit_and", "bit_or", "bit_xor", "bit_not", "shl", "shr":
		return true
	default:
		return false
	}
}

func requireNumeric(v value.Value) error {
	switch v.Kind() {
	case value.KindInt, value.KindFloat, value.KindAddress:
		return nil
	default:
		return errTypeMismatch("number", v.Kind())
	}
}

// handleMath evaluates the configured arithmetic or bitwise operation.
// If either operand is a float the operation runs in floating-point;
// otherwise integer arithmetic applies, wrapping on add/sub/mul and
// checked on div/mod. Bitwise operations are integer-only.
func handleMath(_ context.Context, _ *Context, node *script.Node, inputs map[string]value.Value) (NodeOutput, error) {
	op, ok := configString(node, "op")
	if !ok {
		return NodeOutput{}, errInvalidConfig("math %s has no op", node.ID)
	}

	a, err := requireInput(node, inputs, "a")
	if err != nil {
		return NodeOutput{}, err
	}
	if err := requireNumeric(a); err != nil {
		return NodeOutput{}, err
	}

	b := value.Int(0)
	if !isUnaryMathOp(op) {
		if b, err = requireInput(node, inputs, "b"); err != nil {
			return NodeOutput{}, err
		}
		if err := requireNumeric(b); err != nil {
			return NodeOutput{}, err
		}
	}

	if isBitwiseOp(op) {
		if a.Kind() == value.KindFloat || b.Kind() == value.KindFloat {
			return NodeOutput{}, errTypeMismatch("integer", value.KindFloat)
		}
		res, err := evalBitwise(op, a, b)
		if err != nil {
			return NodeOutput{}, err
		}
		return resultOut(res), nil
	}

	if a.Kind() == value.KindFloat || b.Kind() == value.KindFloat || op == "sqrt" {
		res, err := evalFloatMath(op, a, b)
		if err != nil {
			return NodeOutput{}, err
		}
		return resultOut(res), nil
	}

	res, err := evalIntMath(op, a, b)
	if err != nil {
		return NodeOutput{}, err
	}
	return resultOut(res), nil
}

func evalIntMath(op string, av, bv value.Value) (value.Value, error) {
	a, _ := av.AsInt()
	b, _ := bv.AsInt()
	switch op {
	case "add":
		return value.Int(a + b), nil
	case "sub":
		return value.Int(a - b), nil
	case "mul":
		return value.Int(a * b), nil
	case "div":
		if b == 0 {
			return value.Null(), errDivisionByZero()
		}
		return value.Int(a / b), nil
	case "mod":
		if b == 0 {
			return value.Null(), errDivisionByZero()
		}
		return value.Int(a % b), nil
	case "pow":
		if b < 0 {
			return value.Float(math.Pow(float64(a), float64(b))), nil
		}
		return value.Int(ipow(a, b)), nil
	case "min":
		if b < a {
			return value.Int(b), nil
		}
		return value.Int(a), nil
	case "max":
		if b > a {
			return value.Int(b), nil
		}
		return value.Int(a), nil
	case "abs":
		if a < 0 {
			return value.Int(-a), nil
		}
		return value.Int(a), nil
	case "floor", "ceil", "round":
		return value.Int(a), nil
	default:
		return value.Null(), errInvalidConfig("unknown math op %q", op)
	}
}

func evalFloatMath(op string, av, bv value.Value) (value.Value, error) {
	a, _ := av.AsFloat()
	b, _ := bv.AsFloat()
	switch op {
	case "add":
		return value.Float(a + b), nil
	case "sub":
		return value.Float(a - b), nil
	case "mul":
		return value.Float(a * b), nil
	case "div":
		return value.Float(a / b), nil
	case "mod":
		return value.Float(math.Mod(a, b)), nil
	case "pow":
		return value.Float(math.Pow(a, b)), nil
	case "min":
		return value.Float(math.Min(a, b)), nil
	case "max":
		return value.Float(math.Max(a, b)), nil
	case "abs":
		return value.Float(math.Abs(a)), nil
	case "floor":
		return value.Float(math.Floor(a)), nil
	case "ceil":
		return value.Float(math.Ceil(a)), nil
	case "round":
		return value.Float(math.Round(a)), nil
	case "sqrt":
		return value.Float(math.Sqrt(a)), nil
	default:
		return value.Null(), errInvalidConfig("unknown math op %q", op)
	}
}

func evalBitwise(op string, av, bv value.Value) (value.Value, error) {
	a, _ := av.AsInt()
	b, _ := bv.AsInt()
	switch op {
	case "bit_and":
		return value.Int(a & b), nil
	case "bit_or":
		return value.Int(a | b), nil
	case "bit_xor":
		return value.Int(a ^ b), nil
	case "bit_not":
		return value.Int(^a), nil
	case "shl", "shr":
		if b < 0 {
			return value.Null(), errInvalidOperation("negative shift count %d", b)
		}
		if op == "shl" {
			return value.Int(a << uint(b)), nil
		}
		return value.Int(a >> uint(b)), nil
	default:
		return value.Null(), errInvalidConfig("unknown math op %q", op)
	}
}

// ipow is integer exponentiation by squaring with the same wrapping
// semantics as the other integer operations.
func ipow(base, exp int64) int64 {
	var result int64 = 1
	for exp > 0 {
		if exp&1 == 1 {
			result *= base
		}
		base *= base
		exp >>= 1
	}
	return result
}

// handleCompare applies the configured relational operator under the
// total ordering defined on values.
func handleCompare(_ context.Context, _ *Context, node *script.Node, inputs map[string]value.Value) (NodeOutput, error) {
	op, ok := configString(node, "op")
	if !ok {
		return NodeOutput{}, errInvalidConfig("compare %s has no op", node.ID)
	}
	a, err := requireInput(node, inputs, "a")
	if err != nil {
		return NodeOutput{}, err
	}
	b, err := requireInput(node, inputs, "b")
	if err != nil {
		return NodeOutput{}, err
	}

	c := a.Compare(b)
	var res bool
	switch op {
	case "==", "eq":
		res = c == 0
	case "!=", "ne":
		res = c != 0
	case "<", "lt":
		res = c < 0
	case "<=", "le":
		res = c <= 0
	case ">", "gt":
		res = c > 0
	case ">=", "ge":
		res = c >= 0
	default:
		return NodeOutput{}, errInvalidConfig("unknown compare op %q", op)
	}
	return resultOut(value.Bool(res)), nil
}

// handleLogic applies the configured boolean operator over
// truthiness-coerced inputs. "not" uses only input a.
func handleLogic(_ context.Context, _ *Context, node *script.Node, inputs map[string]value.Value) (NodeOutput, error) {
	op, ok := configString(node, "op")
	if !ok {
		return NodeOutput{}, errInvalidConfig("logic %s has no op", node.ID)
	}
	av, err := requireInput(node, inputs, "a")
	if err != nil {
		return NodeOutput{}, err
	}
	a := av.Truthy()

	if op == "not" {
		return resultOut(value.Bool(!a)), nil
	}

	bv, err := requireInput(node, inputs, "b")
	if err != nil {
		return NodeOutput{}, err
	}
	b := bv.Truthy()

	var res bool
	switch op {
	case "and":
		res = a && b
	case "or":
		res = a || b
	case "xor":
		res = a != b
	case "nand":
		res = !(a && b)
	case "nor":
		res = !(a || b)
	default:
		return NodeOutput{}, errInvalidConfig("unknown logic op %q", op)
	}
	return resultOut(value.Bool(res)), nil
}
