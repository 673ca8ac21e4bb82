package anubad

import (
	"errors"
	"math"
	"sort"
	"strconv"
	"strings"
)

// CallContext is passed to capabilities
type CallContext struct {
	Name     string
	Args     []interface{}
	Kwargs   map[string]interface{}
	Position *SourcePosition
	state    *ExecutionState
}

// Write appends text to the run's captured output
func (c *CallContext) Write(text string) error {
	return c.state.Write(text, c.line())
}

func (c *CallContext) line() int {
	if c.Position == nil {
		return 0
	}
	return c.Position.Line
}

func (c *CallContext) fault(kind, format string, args ...interface{}) *RuntimeError {
	return newRuntimeError(kind, c.line(), format, args...)
}

// Capability is a builtin operation callable from programs
type Capability func(ctx *CallContext) (interface{}, error)

// CapabilitySet is the closed set of names a program may call. A fresh set
// is built for every run.
type CapabilitySet struct {
	ops map[string]*Builtin
}

// standardCapabilities is the complete list; nothing else is reachable
var standardCapabilities = []struct {
	name string
	fn   Capability
}{
	{"print", capPrint},
	{"str", capStr},
	{"int", capInt},
	{"float", capFloat},
	{"bool", capBool},
	{"range", capRange},
}

// NewCapabilitySet creates the standard capability set
func NewCapabilitySet() *CapabilitySet {
	cs := &CapabilitySet{ops: make(map[string]*Builtin, len(standardCapabilities))}
	for _, c := range standardCapabilities {
		cs.ops[c.name] = &Builtin{Name: c.name, Fn: c.fn}
	}
	return cs
}

// Lookup returns the builtin registered under name
func (cs *CapabilitySet) Lookup(name string) (*Builtin, bool) {
	b, ok := cs.ops[name]
	return b, ok
}

// Names returns the capability names in sorted order
func (cs *CapabilitySet) Names() []string {
	names := make([]string, 0, len(cs.ops))
	for name := range cs.ops {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func noKeywords(ctx *CallContext) error {
	if len(ctx.Kwargs) > 0 {
		return ctx.fault(TypeError, "%s() takes no keyword arguments", ctx.Name)
	}
	return nil
}

func atMostOne(ctx *CallContext) error {
	if err := noKeywords(ctx); err != nil {
		return err
	}
	if len(ctx.Args) > 1 {
		return ctx.fault(TypeError, "%s expected at most 1 argument, got %d", ctx.Name, len(ctx.Args))
	}
	return nil
}

// print(*values, sep=' ', end='\n')
func capPrint(ctx *CallContext) (interface{}, error) {
	sep, end := " ", "\n"
	keys := make([]string, 0, len(ctx.Kwargs))
	for key := range ctx.Kwargs {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		value := ctx.Kwargs[key]
		var target *string
		switch key {
		case "sep":
			target = &sep
		case "end":
			target = &end
		default:
			return nil, ctx.fault(TypeError, "'%s' is an invalid keyword argument for print()", key)
		}
		switch v := value.(type) {
		case string:
			*target = v
		case NoneType:
		default:
			return nil, ctx.fault(TypeError, "%s must be None or a string, not %s", key, TypeName(value))
		}
	}

	parts := make([]string, len(ctx.Args))
	for i, arg := range ctx.Args {
		parts[i] = FormatValue(arg)
	}
	if err := ctx.Write(strings.Join(parts, sep) + end); err != nil {
		return nil, err
	}
	return None, nil
}

func capStr(ctx *CallContext) (interface{}, error) {
	if err := atMostOne(ctx); err != nil {
		return nil, err
	}
	if len(ctx.Args) == 0 {
		return "", nil
	}
	return FormatValue(ctx.Args[0]), nil
}

func capBool(ctx *CallContext) (interface{}, error) {
	if err := atMostOne(ctx); err != nil {
		return nil, err
	}
	if len(ctx.Args) == 0 {
		return false, nil
	}
	return Truthy(ctx.Args[0]), nil
}

// int(x=0) or int(text, base)
func capInt(ctx *CallContext) (interface{}, error) {
	if err := noKeywords(ctx); err != nil {
		return nil, err
	}
	switch len(ctx.Args) {
	case 0:
		return int64(0), nil
	case 1:
	case 2:
		text, ok := ctx.Args[0].(string)
		if !ok {
			return nil, ctx.fault(TypeError, "int() can't convert non-string with explicit base")
		}
		base, ok := asInt(ctx.Args[1])
		if !ok {
			return nil, ctx.fault(TypeError, "'%s' object cannot be interpreted as an integer", TypeName(ctx.Args[1]))
		}
		if base != 0 && (base < 2 || base > 36) {
			return nil, ctx.fault(ValueError, "int() base must be >= 2 and <= 36, or 0")
		}
		return parseIntText(ctx, text, int(base))
	default:
		return nil, ctx.fault(TypeError, "int() takes at most 2 arguments (%d given)", len(ctx.Args))
	}

	switch v := ctx.Args[0].(type) {
	case int64:
		return v, nil
	case bool:
		if v {
			return int64(1), nil
		}
		return int64(0), nil
	case float64:
		switch {
		case math.IsNaN(v):
			return nil, ctx.fault(ValueError, "cannot convert float NaN to integer")
		case math.IsInf(v, 0):
			return nil, ctx.fault(OverflowError, "cannot convert float infinity to integer")
		}
		t := math.Trunc(v)
		if t < math.MinInt64 || t >= math.MaxInt64 {
			return nil, ctx.fault(OverflowError, "int too large to convert")
		}
		return int64(t), nil
	case string:
		return parseIntText(ctx, v, 10)
	}
	return nil, ctx.fault(TypeError, "int() argument must be a string or a real number, not '%s'", TypeName(ctx.Args[0]))
}

func parseIntText(ctx *CallContext, text string, base int) (interface{}, error) {
	clean := strings.ReplaceAll(strings.TrimSpace(ToCanonicalDigits(text)), "_", "")
	n, err := strconv.ParseInt(clean, base, 64)
	if err == nil && !strings.HasPrefix(strings.TrimSpace(text), "_") && !strings.HasSuffix(strings.TrimSpace(text), "_") {
		return n, nil
	}
	if errors.Is(err, strconv.ErrRange) {
		return nil, ctx.fault(OverflowError, "int too large to convert")
	}
	return nil, ctx.fault(ValueError, "invalid literal for int() with base %d: %s", base, ReprValue(text))
}

func capFloat(ctx *CallContext) (interface{}, error) {
	if err := atMostOne(ctx); err != nil {
		return nil, err
	}
	if len(ctx.Args) == 0 {
		return 0.0, nil
	}
	switch v := ctx.Args[0].(type) {
	case float64:
		return v, nil
	case int64:
		return float64(v), nil
	case bool:
		if v {
			return 1.0, nil
		}
		return 0.0, nil
	case string:
		clean := strings.TrimSpace(ToCanonicalDigits(v))
		f, err := strconv.ParseFloat(clean, 64)
		if (err != nil && !errors.Is(err, strconv.ErrRange)) || strings.HasPrefix(strings.ToLower(clean), "0x") {
			return nil, ctx.fault(ValueError, "could not convert string to float: %s", ReprValue(v))
		}
		return f, nil
	}
	return nil, ctx.fault(TypeError, "float() argument must be a string or a real number, not '%s'", TypeName(ctx.Args[0]))
}

// range(stop) or range(start, stop[, step])
func capRange(ctx *CallContext) (interface{}, error) {
	if err := noKeywords(ctx); err != nil {
		return nil, err
	}
	switch len(ctx.Args) {
	case 0:
		return nil, ctx.fault(TypeError, "range expected at least 1 argument, got 0")
	case 1, 2, 3:
	default:
		return nil, ctx.fault(TypeError, "range expected at most 3 arguments, got %d", len(ctx.Args))
	}

	bounds := make([]int64, len(ctx.Args))
	for i, arg := range ctx.Args {
		n, ok := asInt(arg)
		if !ok {
			return nil, ctx.fault(TypeError, "'%s' object cannot be interpreted as an integer", TypeName(arg))
		}
		bounds[i] = n
	}

	r := RangeValue{Step: 1}
	switch len(bounds) {
	case 1:
		r.Stop = bounds[0]
	case 2:
		r.Start, r.Stop = bounds[0], bounds[1]
	case 3:
		r.Start, r.Stop, r.Step = bounds[0], bounds[1], bounds[2]
		if r.Step == 0 {
			return nil, ctx.fault(ValueError, "range() arg 3 must not be zero")
		}
	}
	return r, nil
}

// asInt accepts int and bool, the types that may stand in for an index
func asInt(v interface{}) (int64, bool) {
	switch v := v.(type) {
	case int64:
		return v, true
	case bool:
		if v {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}
