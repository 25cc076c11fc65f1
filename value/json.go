package value

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// MarshalJSON renders the canonical wire form: null, bool, number, string,
// array or object. Addresses encode as lowercase hex strings ("0x1a2b");
// float NaN and infinities encode as null.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.ToAny())
}

// ToAny converts the value into the JSON-ready native shape used by the
// wire encoding. The inverse is FromAny (modulo the documented tolerances).
func (v Value) ToAny() any {
	switch v.kind {
	case KindNull:
		return nil
	case KindBool:
		return v.b
	case KindInt:
		return v.i
	case KindFloat:
		if math.IsNaN(v.f) || math.IsInf(v.f, 0) {
			return nil
		}
		return v.f
	case KindString:
		return v.s
	case KindAddress:
		return "0x" + strconv.FormatUint(v.a, 16)
	case KindList:
		out := make([]any, len(v.list))
		for i, item := range v.list {
			out[i] = item.ToAny()
		}
		return out
	case KindMap:
		out := make(map[string]any, len(v.m))
		for k, item := range v.m {
			out[k] = item.ToAny()
		}
		return out
	default:
		return nil
	}
}

// UnmarshalJSON decodes tolerantly: integral numbers become integers,
// fractional numbers become floats, and strings stay strings even when
// they look like hex addresses (conversion to an address is always an
// explicit to_pointer step).
func (v *Value) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	*v = FromAny(raw)
	return nil
}

// FromAny converts a native Go datum (as produced by encoding/json or a
// loader) into a Value. json.Number splits into integer or float on the
// presence of a fraction or exponent. Unconvertible types stringify.
func FromAny(raw any) Value {
	switch x := raw.(type) {
	case nil:
		return Null()
	case Value:
		return x
	case bool:
		return Bool(x)
	case int:
		return Int(int64(x))
	case int32:
		return Int(int64(x))
	case int64:
		return Int(x)
	case uint:
		return Int(int64(x))
	case uint32:
		return Int(int64(x))
	case uint64:
		return Address(x)
	case float32:
		return floatOrInt(float64(x))
	case float64:
		return floatOrInt(x)
	case json.Number:
		if !strings.ContainsAny(x.String(), ".eE") {
			if i, err := x.Int64(); err == nil {
				return Int(i)
			}
		}
		if f, err := x.Float64(); err == nil {
			return Float(f)
		}
		return String(x.String())
	case string:
		return String(x)
	case []any:
		items := make([]Value, len(x))
		for i, item := range x {
			items[i] = FromAny(item)
		}
		return List(items...)
	case []Value:
		return List(x...)
	case map[string]any:
		m := make(map[string]Value, len(x))
		for k, item := range x {
			m[k] = FromAny(item)
		}
		return Map(m)
	case map[string]Value:
		return Map(x)
	default:
		return String(fmt.Sprintf("%v", x))
	}
}

// floatOrInt keeps integral JSON numbers as integers after a float round
// trip, which is what the tolerant wire decoding requires.
func floatOrInt(f float64) Value {
	if f == math.Trunc(f) && !math.IsInf(f, 0) && !math.IsNaN(f) &&
		f >= math.MinInt64 && f <= math.MaxInt64 {
		return Int(int64(f))
	}
	return Float(f)
}

// EncodeJSON renders the value as a canonical JSON string.
func EncodeJSON(v Value) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// DecodeJSON parses a JSON document into a Value using the tolerant rules.
func DecodeJSON(data []byte) (Value, error) {
	var v Value
	if err := v.UnmarshalJSON(data); err != nil {
		return Null(), err
	}
	return v, nil
}
