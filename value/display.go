package value

import (
	"fmt"
	"strconv"
	"strings"
)

// Display bounds for the compact one-line form.
const (
	DisplayMaxDepth = 3
	DisplayMaxWidth = 5
)

// String renders the compact one-line form. Top-level strings render raw;
// strings nested inside containers are quoted. Containers deeper than
// DisplayMaxDepth collapse to "…", and containers wider than
// DisplayMaxWidth elide their tail.
func (v Value) String() string {
	if v.kind == KindString {
		return v.s
	}
	return v.display(DisplayMaxDepth)
}

func (v Value) display(depth int) string {
	switch v.kind {
	case KindNull:
		return "null"
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindString:
		return strconv.Quote(v.s)
	case KindAddress:
		return "0x" + strconv.FormatUint(v.a, 16)
	case KindList:
		if depth <= 0 {
			return "[…]"
		}
		var b strings.Builder
		b.WriteByte('[')
		for i, item := range v.list {
			if i >= DisplayMaxWidth {
				b.WriteString(", …")
				break
			}
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(item.display(depth - 1))
		}
		b.WriteByte(']')
		return b.String()
	case KindMap:
		if depth <= 0 {
			return "{…}"
		}
		var b strings.Builder
		b.WriteByte('{')
		for i, k := range sortedKeys(v.m) {
			if i >= DisplayMaxWidth {
				b.WriteString(", …")
				break
			}
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "%s: %s", k, v.m[k].display(depth-1))
		}
		b.WriteByte('}')
		return b.String()
	default:
		return "null"
	}
}
