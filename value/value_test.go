package value

import (
	"testing"
)

func TestTruthyTable(t *testing.T) {
	tests := []struct {
		name string
		v    Value
		want bool
	}{
		{"null", Null(), false},
		{"false", Bool(false), false},
		{"true", Bool(true), true},
		{"zero int", Int(0), false},
		{"nonzero int", Int(-3), true},
		{"zero float", Float(0), false},
		{"nonzero float", Float(0.5), true},
		{"empty string", String(""), false},
		{"string", String("x"), true},
		{"zero address", Address(0), false},
		{"address", Address(0x1000), true},
		{"empty list", List(), false},
		{"list", List(Int(1)), true},
		{"empty map", Map(nil), false},
		{"map", Map(map[string]Value{"k": Null()}), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.v.Truthy(); got != tt.want {
				t.Errorf("Truthy() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b Value
		want bool
	}{
		{"null == null", Null(), Null(), true},
		{"int == int", Int(5), Int(5), true},
		{"int != float", Int(5), Float(5), false},
		{"int != address", Int(5), Address(5), false},
		{"nested lists", List(Int(1), String("a")), List(Int(1), String("a")), true},
		{"list length mismatch", List(Int(1)), List(Int(1), Int(2)), false},
		{"maps", Map(map[string]Value{"a": Int(1)}), Map(map[string]Value{"a": Int(1)}), true},
		{"map key diff", Map(map[string]Value{"a": Int(1)}), Map(map[string]Value{"b": Int(1)}), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Equal(tt.b); got != tt.want {
				t.Errorf("Equal() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCompare(t *testing.T) {
	tests := []struct {
		name string
		a, b Value
		want int
	}{
		{"int order", Int(1), Int(2), -1},
		{"int float promotion", Int(2), Float(1.5), 1},
		{"float int equal", Float(3), Int(3), 0},
		{"address numeric", Address(0x10), Int(0x20), -1},
		{"null below all", Null(), Int(-100), -1},
		{"all above null", String(""), Null(), 1},
		{"strings", String("abc"), String("abd"), -1},
		{"mixed by kind name", Bool(true), String("a"), -1}, // "boolean" < "string"
		{"list element order", List(Int(1), Int(2)), List(Int(1), Int(3)), -1},
		{"list prefix shorter", List(Int(1)), List(Int(1), Int(0)), -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Compare(tt.b); got != tt.want {
				t.Errorf("Compare() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestAsInt(t *testing.T) {
	tests := []struct {
		name    string
		v       Value
		want    int64
		wantErr bool
	}{
		{"int", Int(7), 7, false},
		{"float truncates", Float(7.9), 7, false},
		{"address", Address(0x20), 0x20, false},
		{"decimal string", String("42"), 42, false},
		{"hex string", String("0x2A"), 42, false},
		{"binary string", String("0b101"), 5, false},
		{"octal string", String("0o17"), 15, false},
		{"negative string", String("-13"), -13, false},
		{"bad string", String("pear"), 0, true},
		{"bool", Bool(true), 0, true},
		{"list", List(), 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.v.AsInt()
			if (err != nil) != tt.wantErr {
				t.Fatalf("AsInt() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("AsInt() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestAsAddress(t *testing.T) {
	tests := []struct {
		name    string
		v       Value
		want    uint64
		wantErr bool
	}{
		{"address", Address(0x1000), 0x1000, false},
		{"int", Int(4096), 4096, false},
		{"hex string", String("0xDEADBEEF"), 0xdeadbeef, false},
		{"decimal string", String("4096"), 4096, false},
		{"garbage", String("0xZZ"), 0, true},
		{"negative float", Float(-1), 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.v.AsAddress()
			if (err != nil) != tt.wantErr {
				t.Fatalf("AsAddress() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("AsAddress() = %#x, want %#x", got, tt.want)
			}
		})
	}
}

func TestDisplayBounds(t *testing.T) {
	long := make([]Value, 8)
	for i := range long {
		long[i] = Int(int64(i))
	}
	if got := List(long...).String(); got != "[0, 1, 2, 3, 4, …]" {
		t.Errorf("wide list display = %q", got)
	}

	deep := List(List(List(List(Int(1)))))
	if got := deep.String(); got != "[[[[…]]]]" {
		t.Errorf("deep list display = %q", got)
	}

	if got := String("hi").String(); got != "hi" {
		t.Errorf("top-level string display = %q, want raw", got)
	}
	if got := List(String("hi")).String(); got != `["hi"]` {
		t.Errorf("nested string display = %q, want quoted", got)
	}
	if got := Address(0xBEEF).String(); got != "0xbeef" {
		t.Errorf("address display = %q", got)
	}
}

func TestZeroForType(t *testing.T) {
	tests := []struct {
		typeName string
		want     Value
	}{
		{"string", String("")},
		{"number", Int(0)},
		{"float", Float(0)},
		{"boolean", Bool(false)},
		{"address", Address(0)},
		{"array", List()},
		{"map", Map(nil)},
		{"mystery", Null()},
	}
	for _, tt := range tests {
		if got := ZeroForType(tt.typeName); !got.Equal(tt.want) {
			t.Errorf("ZeroForType(%q) = %v, want %v", tt.typeName, got, tt.want)
		}
	}
}
