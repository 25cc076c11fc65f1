// Package value provides the tagged runtime datum passed between script
// nodes. A Value is one of eight variants: null, boolean, integer, float,
// string, address, list, or map. Conversions between variants are always
// explicit; nothing in the engine coerces implicitly.
package value

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Kind identifies the variant held by a Value.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindAddress
	KindList
	KindMap
)

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "boolean"
	case KindInt:
		return "integer"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindAddress:
		return "address"
	case KindList:
		return "list"
	case KindMap:
		return "map"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Value is an immutable-by-convention tagged union. The zero Value is Null.
// List and Map payloads are shared on copy; callers that mutate them must
// copy first (see CloneList / CloneMap helpers on the accessors).
type Value struct {
	kind Kind
	b    bool
	i    int64
	f    float64
	s    string
	a    uint64
	list []Value
	m    map[string]Value
}

// Null returns the null value.
func Null() Value { return Value{kind: KindNull} }

// Bool wraps a boolean.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Int wraps a signed 64-bit integer.
func Int(i int64) Value { return Value{kind: KindInt, i: i} }

// Float wraps a binary64 float.
func Float(f float64) Value { return Value{kind: KindFloat, f: f} }

// String wraps a string.
func String(s string) Value { return Value{kind: KindString, s: s} }

// Address wraps an unsigned 64-bit address. Addresses are a distinct
// variant so pointer semantics survive the JSON wire (encoded as "0x…").
func Address(a uint64) Value { return Value{kind: KindAddress, a: a} }

// List wraps a sequence of values. The slice is not copied.
func List(items ...Value) Value {
	if items == nil {
		items = []Value{}
	}
	return Value{kind: KindList, list: items}
}

// Map wraps a string-keyed mapping. The map is not copied.
func Map(m map[string]Value) Value {
	if m == nil {
		m = map[string]Value{}
	}
	return Value{kind: KindMap, m: m}
}

// Kind returns the variant tag.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether the value is the null variant.
func (v Value) IsNull() bool { return v.kind == KindNull }

// BoolVal returns the boolean payload (false for other variants).
func (v Value) BoolVal() bool { return v.kind == KindBool && v.b }

// IntVal returns the integer payload (0 for other variants).
func (v Value) IntVal() int64 {
	if v.kind == KindInt {
		return v.i
	}
	return 0
}

// FloatVal returns the float payload (0 for other variants).
func (v Value) FloatVal() float64 {
	if v.kind == KindFloat {
		return v.f
	}
	return 0
}

// StringVal returns the string payload ("" for other variants).
func (v Value) StringVal() string {
	if v.kind == KindString {
		return v.s
	}
	return ""
}

// AddressVal returns the address payload (0 for other variants).
func (v Value) AddressVal() uint64 {
	if v.kind == KindAddress {
		return v.a
	}
	return 0
}

// ListVal returns the list payload (nil for other variants).
func (v Value) ListVal() []Value {
	if v.kind == KindList {
		return v.list
	}
	return nil
}

// MapVal returns the map payload (nil for other variants).
func (v Value) MapVal() map[string]Value {
	if v.kind == KindMap {
		return v.m
	}
	return nil
}

// CloneList returns a fresh copy of the list payload, suitable for mutation.
func (v Value) CloneList() []Value {
	src := v.ListVal()
	out := make([]Value, len(src))
	copy(out, src)
	return out
}

// CloneMap returns a fresh copy of the map payload, suitable for mutation.
func (v Value) CloneMap() map[string]Value {
	src := v.MapVal()
	out := make(map[string]Value, len(src))
	for k, val := range src {
		out[k] = val
	}
	return out
}

// Truthy reports the truthiness of any variant: null, false, 0, 0.0,
// "", address 0, empty list and empty map are false; everything else
// is true.
func (v Value) Truthy() bool {
	switch v.kind {
	case KindNull:
		return false
	case KindBool:
		return v.b
	case KindInt:
		return v.i != 0
	case KindFloat:
		return v.f != 0
	case KindString:
		return v.s != ""
	case KindAddress:
		return v.a != 0
	case KindList:
		return len(v.list) > 0
	case KindMap:
		return len(v.m) > 0
	default:
		return false
	}
}

// Equal reports deep equality: same variant, then same content.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindBool:
		return v.b == o.b
	case KindInt:
		return v.i == o.i
	case KindFloat:
		return v.f == o.f
	case KindString:
		return v.s == o.s
	case KindAddress:
		return v.a == o.a
	case KindList:
		if len(v.list) != len(o.list) {
			return false
		}
		for i := range v.list {
			if !v.list[i].Equal(o.list[i]) {
				return false
			}
		}
		return true
	case KindMap:
		if len(v.m) != len(o.m) {
			return false
		}
		for k, val := range v.m {
			other, ok := o.m[k]
			if !ok || !val.Equal(other) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// Compare imposes a total order: integers and floats cross-compare after
// promotion, null sorts before everything non-null, and otherwise mixed
// variants order by kind name. Returns -1, 0 or 1.
func (v Value) Compare(o Value) int {
	// Numeric cross-compare.
	if v.isNumeric() && o.isNumeric() {
		if v.kind == KindFloat || o.kind == KindFloat {
			return cmpFloat(v.numericFloat(), o.numericFloat())
		}
		return cmpInt(v.numericInt(), o.numericInt())
	}

	if v.kind != o.kind {
		if v.kind == KindNull {
			return -1
		}
		if o.kind == KindNull {
			return 1
		}
		return strings.Compare(v.kind.String(), o.kind.String())
	}

	switch v.kind {
	case KindNull:
		return 0
	case KindBool:
		if v.b == o.b {
			return 0
		}
		if !v.b {
			return -1
		}
		return 1
	case KindString:
		return strings.Compare(v.s, o.s)
	case KindList:
		for i := 0; i < len(v.list) && i < len(o.list); i++ {
			if c := v.list[i].Compare(o.list[i]); c != 0 {
				return c
			}
		}
		return cmpInt(int64(len(v.list)), int64(len(o.list)))
	case KindMap:
		// Order by sorted key sequence, then by values in that order.
		vk, ok := sortedKeys(v.m), sortedKeys(o.m)
		for i := 0; i < len(vk) && i < len(ok); i++ {
			if c := strings.Compare(vk[i], ok[i]); c != 0 {
				return c
			}
			if c := v.m[vk[i]].Compare(o.m[ok[i]]); c != 0 {
				return c
			}
		}
		return cmpInt(int64(len(vk)), int64(len(ok)))
	default:
		return 0
	}
}

func (v Value) isNumeric() bool {
	return v.kind == KindInt || v.kind == KindFloat || v.kind == KindAddress
}

func (v Value) numericFloat() float64 {
	switch v.kind {
	case KindInt:
		return float64(v.i)
	case KindAddress:
		return float64(v.a)
	default:
		return v.f
	}
}

func (v Value) numericInt() int64 {
	if v.kind == KindAddress {
		return int64(v.a)
	}
	return v.i
}

func cmpInt(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func cmpFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func sortedKeys(m map[string]Value) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ConversionError reports a failed explicit coercion.
type ConversionError struct {
	From Kind
	To   Kind
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("cannot convert %s to %s", e.From, e.To)
}

// AsInt coerces along the numeric ladder: integers pass through, floats
// truncate, addresses reinterpret, and strings parse (base inferred from
// a 0x/0b/0o prefix). Booleans and containers do not convert.
func (v Value) AsInt() (int64, error) {
	switch v.kind {
	case KindInt:
		return v.i, nil
	case KindFloat:
		if math.IsNaN(v.f) || math.IsInf(v.f, 0) {
			return 0, &ConversionError{From: KindFloat, To: KindInt}
		}
		return int64(v.f), nil
	case KindAddress:
		return int64(v.a), nil
	case KindString:
		i, err := ParseInt(v.s)
		if err != nil {
			return 0, &ConversionError{From: KindString, To: KindInt}
		}
		return i, nil
	default:
		return 0, &ConversionError{From: v.kind, To: KindInt}
	}
}

// AsFloat coerces integers, addresses and numeric strings to float.
func (v Value) AsFloat() (float64, error) {
	switch v.kind {
	case KindFloat:
		return v.f, nil
	case KindInt:
		return float64(v.i), nil
	case KindAddress:
		return float64(v.a), nil
	case KindString:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.s), 64)
		if err != nil {
			return 0, &ConversionError{From: KindString, To: KindFloat}
		}
		return f, nil
	default:
		return 0, &ConversionError{From: v.kind, To: KindFloat}
	}
}

// AsAddress coerces integers, floats and hex/decimal strings to an address.
func (v Value) AsAddress() (uint64, error) {
	switch v.kind {
	case KindAddress:
		return v.a, nil
	case KindInt:
		return uint64(v.i), nil
	case KindFloat:
		if v.f < 0 || math.IsNaN(v.f) || math.IsInf(v.f, 0) {
			return 0, &ConversionError{From: KindFloat, To: KindAddress}
		}
		return uint64(v.f), nil
	case KindString:
		s := strings.TrimSpace(v.s)
		if rest, ok := trimHexPrefix(s); ok {
			a, err := strconv.ParseUint(rest, 16, 64)
			if err != nil {
				return 0, &ConversionError{From: KindString, To: KindAddress}
			}
			return a, nil
		}
		a, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return 0, &ConversionError{From: KindString, To: KindAddress}
		}
		return a, nil
	default:
		return 0, &ConversionError{From: v.kind, To: KindAddress}
	}
}

// ParseInt parses a string into an int64, auto-detecting 0x, 0b and 0o
// prefixes. A bare decimal string may carry a leading sign.
func ParseInt(s string) (int64, error) {
	s = strings.TrimSpace(s)
	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	} else {
		s = strings.TrimPrefix(s, "+")
	}
	base := 10
	switch {
	case hasPrefixFold(s, "0x"):
		base, s = 16, s[2:]
	case hasPrefixFold(s, "0b"):
		base, s = 2, s[2:]
	case hasPrefixFold(s, "0o"):
		base, s = 8, s[2:]
	}
	i, err := strconv.ParseInt(s, base, 64)
	if err != nil {
		return 0, err
	}
	if neg {
		i = -i
	}
	return i, nil
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}

func trimHexPrefix(s string) (string, bool) {
	if hasPrefixFold(s, "0x") {
		return s[2:], true
	}
	return s, false
}

// ZeroForType returns the zero value for a declared variable type name.
// Unknown type names zero to null.
func ZeroForType(typeName string) Value {
	switch strings.ToLower(typeName) {
	case "string":
		return String("")
	case "number", "integer", "int":
		return Int(0)
	case "float", "double":
		return Float(0)
	case "boolean", "bool":
		return Bool(false)
	case "address", "pointer":
		return Address(0)
	case "array", "list":
		return List()
	case "map", "object":
		return Map(nil)
	default:
		return Null()
	}
}
