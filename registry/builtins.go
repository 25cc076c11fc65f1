package registry

// Port shorthands for builtin registration.
func flow(name string) PortDef { return PortDef{Name: name, Kind: "flow"} }

func val(name, typ string) PortDef { return PortDef{Name: name, Kind: "value", Type: typ} }

func req(name, typ string) PortDef {
	return PortDef{Name: name, Kind: "value", Type: typ, Required: true}
}

// registerBuiltins registers all built-in node types. Called once by
// Global() during singleton initialization.
func registerBuiltins(r *Registry) {
	registerEvents(r)
	registerConstants(r)
	registerMath(r)
	registerData(r)
	registerVariables(r)
	registerUI(r)
	registerControl(r)
	registerTarget(r)
}

func registerEvents(r *Registry) {
	events := []struct {
		typ, display, desc string
		extra              []PortDef
	}{
		{"event_ui", "UI Event", "Fires when a UI component emits an interaction", []PortDef{val("componentId", "string")}},
		{"event_timer", "Timer Event", "Fires on a configured interval", []PortDef{val("tick", "number")}},
		{"event_hotkey", "Hotkey Event", "Fires when a registered hotkey is pressed", []PortDef{val("key", "string")}},
		{"event_attach", "Attach Event", "Fires when a target session is attached", []PortDef{val("session", "string")}},
		{"event_detach", "Detach Event", "Fires when the target session is detached", []PortDef{val("session", "string")}},
	}
	for _, e := range events {
		outputs := append([]PortDef{flow("exec"), val("value", "any")}, e.extra...)
		r.Register(NodeTypeDef{
			Type:        e.typ,
			Category:    "event",
			DisplayName: e.display,
			Description: e.desc,
			Runtime:     RuntimeHost,
			IsEvent:     true,
			Ports:       PortSchema{Outputs: outputs},
		})
	}
}

func registerConstants(r *Registry) {
	constants := []struct {
		typ, display, valueType string
	}{
		{"const_string", "String Constant", "string"},
		{"const_number", "Number Constant", "number"},
		{"const_bool", "Boolean Constant", "boolean"},
		{"const_address", "Address Constant", "address"},
	}
	for _, c := range constants {
		r.Register(NodeTypeDef{
			Type:        c.typ,
			Category:    "constant",
			DisplayName: c.display,
			Description: "Emits the configured literal",
			Runtime:     RuntimeHost,
			Ports:       PortSchema{Outputs: []PortDef{val("value", c.valueType)}},
		})
	}
}

func registerMath(r *Registry) {
	r.Register(NodeTypeDef{
		Type:        "math",
		Category:    "math",
		DisplayName: "Math",
		Description: "Arithmetic and bitwise operations; the operation is selected in config",
		Runtime:     RuntimeHost,
		Ports: PortSchema{
			Inputs:  []PortDef{req("a", "number"), val("b", "number")},
			Outputs: []PortDef{val("result", "number")},
		},
	})

	r.Register(NodeTypeDef{
		Type:        "compare",
		Category:    "math",
		DisplayName: "Compare",
		Description: "Total-order comparison of two values",
		Runtime:     RuntimeHost,
		Ports: PortSchema{
			Inputs:  []PortDef{req("a", "any"), req("b", "any")},
			Outputs: []PortDef{val("result", "boolean")},
		},
	})

	r.Register(NodeTypeDef{
		Type:        "logic",
		Category:    "math",
		DisplayName: "Logic",
		Description: "Boolean operations over truthiness-coerced inputs",
		Runtime:     RuntimeHost,
		Ports: PortSchema{
			Inputs:  []PortDef{req("a", "any"), val("b", "any")},
			Outputs: []PortDef{val("result", "boolean")},
		},
	})
}

func registerData(r *Registry) {
	r.Register(NodeTypeDef{
		Type:        "format",
		Category:    "data",
		DisplayName: "Format",
		Description: "Template with {0}..{N} placeholders replaced by stringified arguments",
		Runtime:     RuntimeHost,
		Ports: PortSchema{
			Inputs:  []PortDef{val("arg0", "any"), val("arg1", "any"), val("arg2", "any"), val("arg3", "any")},
			Outputs: []PortDef{val("result", "string")},
		},
	})
	r.Register(NodeTypeDef{
		Type:        "concat",
		Category:    "data",
		DisplayName: "Concatenate",
		Description: "Joins the string forms of its inputs",
		Runtime:     RuntimeHost,
		Ports: PortSchema{
			Inputs:  []PortDef{req("a", "any"), req("b", "any")},
			Outputs: []PortDef{val("result", "string")},
		},
	})
	r.Register(NodeTypeDef{
		Type:        "to_string",
		Category:    "data",
		DisplayName: "To String",
		Description: "Converts a value to a string (auto, hex, decimal, binary or json)",
		Runtime:     RuntimeHost,
		Ports: PortSchema{
			Inputs:  []PortDef{req("value", "any")},
			Outputs: []PortDef{val("result", "string")},
		},
	})
	r.Register(NodeTypeDef{
		Type:        "parse_int",
		Category:    "data",
		DisplayName: "Parse Integer",
		Description: "Parses a string into an integer, auto-detecting 0x/0b/0o prefixes",
		Runtime:     RuntimeHost,
		Ports: PortSchema{
			Inputs:  []PortDef{req("value", "string")},
			Outputs: []PortDef{val("result", "number")},
		},
	})
	r.Register(NodeTypeDef{
		Type:        "parse_float",
		Category:    "data",
		DisplayName: "Parse Float",
		Description: "Parses a string into a float",
		Runtime:     RuntimeHost,
		Ports: PortSchema{
			Inputs:  []PortDef{req("value", "string")},
			Outputs: []PortDef{val("result", "number")},
		},
	})
	r.Register(NodeTypeDef{
		Type:        "to_pointer",
		Category:    "data",
		DisplayName: "To Pointer",
		Description: "Converts hex strings and numbers to an address",
		Runtime:     RuntimeHost,
		Ports: PortSchema{
			Inputs:  []PortDef{req("value", "any")},
			Outputs: []PortDef{val("result", "address")},
		},
	})

	arrays := []struct {
		typ, display, desc string
		inputs             []PortDef
		outputs            []PortDef
	}{
		{"array_create", "Array Create", "Creates an array from up to four items",
			[]PortDef{val("item0", "any"), val("item1", "any"), val("item2", "any"), val("item3", "any")},
			[]PortDef{val("result", "array")}},
		{"array_get", "Array Get", "Reads an array element by index",
			[]PortDef{req("array", "array"), req("index", "number")},
			[]PortDef{val("result", "any")}},
		{"array_set", "Array Set", "Writes an array element by index, yielding a new array",
			[]PortDef{req("array", "array"), req("index", "number"), req("value", "any")},
			[]PortDef{val("result", "array")}},
		{"array_push", "Array Push", "Appends a value, yielding a new array",
			[]PortDef{req("array", "array"), req("value", "any")},
			[]PortDef{val("result", "array")}},
		{"array_length", "Array Length", "Number of elements",
			[]PortDef{req("array", "array")},
			[]PortDef{val("result", "number")}},
		{"array_find", "Array Find", "Linear scan for a value; -1 when absent",
			[]PortDef{req("array", "array"), req("value", "any")},
			[]PortDef{val("result", "number")}},
		{"map_get", "Map Get", "Reads a map entry (or array element when the key is numeric)",
			[]PortDef{req("map", "any"), req("key", "any")},
			[]PortDef{val("result", "any")}},
		{"map_set", "Map Set", "Writes a map entry, yielding a new map",
			[]PortDef{req("map", "any"), req("key", "any"), req("value", "any")},
			[]PortDef{val("result", "any")}},
		{"map_keys", "Map Keys", "Sorted keys of a map",
			[]PortDef{req("map", "map")},
			[]PortDef{val("result", "array")}},
	}
	for _, a := range arrays {
		r.Register(NodeTypeDef{
			Type:        a.typ,
			Category:    "data",
			DisplayName: a.display,
			Description: a.desc,
			Runtime:     RuntimeHost,
			Ports:       PortSchema{Inputs: a.inputs, Outputs: a.outputs},
		})
	}
}

func registerVariables(r *Registry) {
	r.Register(NodeTypeDef{
		Type:        "declare_variable",
		Category:    "variable",
		DisplayName: "Declare Variable",
		Description: "Binds a name to an initial value",
		Runtime:     RuntimeHost,
		Ports: PortSchema{
			Inputs:  []PortDef{flow("exec"), val("value", "any")},
			Outputs: []PortDef{flow("exec")},
		},
	})
	r.Register(NodeTypeDef{
		Type:        "set_variable",
		Category:    "variable",
		DisplayName: "Set Variable",
		Description: "Writes a declared variable (referenced by variable ID in config)",
		Runtime:     RuntimeHost,
		Ports: PortSchema{
			Inputs:  []PortDef{flow("exec"), req("value", "any")},
			Outputs: []PortDef{flow("exec")},
		},
	})
	r.Register(NodeTypeDef{
		Type:        "get_variable",
		Category:    "variable",
		DisplayName: "Get Variable",
		Description: "Reads a declared variable",
		Runtime:     RuntimeHost,
		Ports: PortSchema{
			Outputs: []PortDef{val("value", "any")},
		},
	})
}

func registerUI(r *Registry) {
	r.Register(NodeTypeDef{
		Type:        "ui_get_value",
		Category:    "ui",
		DisplayName: "Get UI Value",
		Description: "Reads the current value of a UI component",
		Runtime:     RuntimeHost,
		Ports: PortSchema{
			Inputs:  []PortDef{flow("exec")},
			Outputs: []PortDef{flow("exec"), val("value", "any")},
		},
	})
	r.Register(NodeTypeDef{
		Type:        "ui_set_value",
		Category:    "ui",
		DisplayName: "Set UI Value",
		Description: "Writes a value into a UI component",
		Runtime:     RuntimeHost,
		Ports: PortSchema{
			Inputs:  []PortDef{flow("exec"), req("value", "any")},
			Outputs: []PortDef{flow("exec")},
		},
	})
	r.Register(NodeTypeDef{
		Type:        "log",
		Category:    "ui",
		DisplayName: "Log",
		Description: "Appends a message to the invocation log",
		Runtime:     RuntimeHost,
		Ports: PortSchema{
			Inputs:  []PortDef{flow("exec"), req("message", "any")},
			Outputs: []PortDef{flow("exec")},
		},
	})
	r.Register(NodeTypeDef{
		Type:        "notification",
		Category:    "ui",
		DisplayName: "Notification",
		Description: "Emits a titled notification to the shell UI",
		Runtime:     RuntimeHost,
		Ports: PortSchema{
			Inputs:  []PortDef{flow("exec"), req("message", "any"), val("title", "string")},
			Outputs: []PortDef{flow("exec")},
		},
	})
}

func registerControl(r *Registry) {
	r.Register(NodeTypeDef{
		Type:        "if",
		Category:    "control",
		DisplayName: "If",
		Description: "Branches on the truthiness of the condition",
		Runtime:     RuntimeHost,
		Ports: PortSchema{
			Inputs:  []PortDef{flow("exec"), req("condition", "any")},
			Outputs: []PortDef{flow("true"), flow("false")},
		},
	})
	r.Register(NodeTypeDef{
		Type:        "switch",
		Category:    "control",
		DisplayName: "Switch",
		Description: "Matches the value's string form against configured cases",
		Runtime:     RuntimeHost,
		Ports: PortSchema{
			Inputs:  []PortDef{flow("exec"), req("value", "any")},
			Outputs: []PortDef{flow("default")}, // case0..caseN ports come from config
		},
	})
	r.Register(NodeTypeDef{
		Type:        "delay",
		Category:    "control",
		DisplayName: "Delay",
		Description: "Suspends the invocation for a configured duration",
		Runtime:     RuntimeHost,
		Ports: PortSchema{
			Inputs:  []PortDef{flow("exec")},
			Outputs: []PortDef{flow("exec")},
		},
	})
	r.Register(NodeTypeDef{
		Type:        "break",
		Category:    "control",
		DisplayName: "Break",
		Description: "Stops the innermost loop",
		Runtime:     RuntimeHost,
		Ports: PortSchema{
			Inputs: []PortDef{flow("exec")},
		},
	})
	r.Register(NodeTypeDef{
		Type:        "continue",
		Category:    "control",
		DisplayName: "Continue",
		Description: "Skips to the next iteration of the innermost loop",
		Runtime:     RuntimeHost,
		Ports: PortSchema{
			Inputs: []PortDef{flow("exec")},
		},
	})
	r.Register(NodeTypeDef{
		Type:        "for_each",
		Category:    "control",
		DisplayName: "For Each",
		Description: "Runs the body once per element of the input array",
		Runtime:     RuntimeHost,
		Ports: PortSchema{
			Inputs:  []PortDef{flow("exec"), req("array", "array")},
			Outputs: []PortDef{flow("body"), flow("done"), val("element", "any"), val("index", "number")},
		},
	})
	r.Register(NodeTypeDef{
		Type:        "for_range",
		Category:    "control",
		DisplayName: "For Range",
		Description: "Counts from start to end by step, running the body per index",
		Runtime:     RuntimeHost,
		Ports: PortSchema{
			Inputs:  []PortDef{flow("exec"), val("start", "number"), val("end", "number"), val("step", "number")},
			Outputs: []PortDef{flow("body"), flow("done"), val("index", "number")},
		},
	})
	r.Register(NodeTypeDef{
		Type:        "loop",
		Category:    "control",
		DisplayName: "While Loop",
		Description: "Runs the body while the condition holds, re-reading it each iteration",
		Runtime:     RuntimeHost,
		Ports: PortSchema{
			Inputs:  []PortDef{flow("exec"), req("condition", "any")},
			Outputs: []PortDef{flow("body"), flow("done"), val("index", "number")},
		},
	})
}

func registerTarget(r *Registry) {
	targets := []struct {
		typ, category, display, desc string
	}{
		{"memory_read", "memory", "Read Memory", "Reads a typed value from target memory"},
		{"memory_write", "memory", "Write Memory", "Writes a typed value into target memory"},
		{"memory_alloc", "memory", "Allocate Memory", "Allocates a block in the target process"},
		{"memory_scan", "memory", "Scan Memory", "Scans target memory for a byte pattern"},
		{"pointer_read", "memory", "Read Pointer", "Dereferences a pointer in the target"},
		{"pointer_chain", "memory", "Pointer Chain", "Follows a base plus offsets pointer chain"},
		{"module_base", "module", "Module Base", "Base address of a loaded module"},
		{"module_list", "module", "Module List", "Enumerates loaded modules"},
		{"symbol_find", "module", "Find Symbol", "Resolves an exported symbol address"},
		{"native_call", "module", "Native Call", "Invokes a native function in the target"},
		{"interceptor_attach", "interceptor", "Attach Interceptor", "Hooks a target function"},
		{"interceptor_detach", "interceptor", "Detach Interceptor", "Removes a function hook"},
	}
	for _, t := range targets {
		r.Register(NodeTypeDef{
			Type:        t.typ,
			Category:    t.category,
			DisplayName: t.display,
			Description: t.desc,
			Runtime:     RuntimeTarget,
			Ports: PortSchema{
				Inputs:  []PortDef{flow("exec")},
				Outputs: []PortDef{flow("exec"), val("result", "any")},
			},
		})
	}
}
