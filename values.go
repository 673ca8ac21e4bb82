package anubad

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// NoneType is the type of None, the value print returns
type NoneType struct{}

// None is the single NoneType value
var None = NoneType{}

// RangeValue is a lazy arithmetic progression, as produced by range()
type RangeValue struct {
	Start, Stop, Step int64
}

// Len returns the number of values the range yields
func (r RangeValue) Len() int64 {
	switch {
	case r.Step > 0 && r.Start < r.Stop:
		return int64((uint64(r.Stop-r.Start)-1)/uint64(r.Step)) + 1
	case r.Step < 0 && r.Start > r.Stop:
		return int64((uint64(r.Start-r.Stop)-1)/uint64(-r.Step)) + 1
	}
	return 0
}

// At returns the i-th value of the range
func (r RangeValue) At(i int64) int64 {
	return r.Start + i*r.Step
}

// Builtin is a capability bound to its name
type Builtin struct {
	Name string
	Fn   Capability
}

// TypeName returns the user-facing type name of v
func TypeName(v interface{}) string {
	switch v.(type) {
	case int64:
		return "int"
	case float64:
		return "float"
	case string:
		return "str"
	case bool:
		return "bool"
	case NoneType:
		return "NoneType"
	case RangeValue:
		return "range"
	case *Builtin:
		return "builtin_function_or_method"
	}
	return fmt.Sprintf("%T", v)
}

// FormatValue renders v the way str() does
func FormatValue(v interface{}) string {
	switch v := v.(type) {
	case string:
		return v
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return formatFloat(v)
	case bool:
		if v {
			return "True"
		}
		return "False"
	case NoneType:
		return "None"
	case RangeValue:
		if v.Step == 1 {
			return fmt.Sprintf("range(%d, %d)", v.Start, v.Stop)
		}
		return fmt.Sprintf("range(%d, %d, %d)", v.Start, v.Stop, v.Step)
	case *Builtin:
		return fmt.Sprintf("<built-in function %s>", v.Name)
	}
	return fmt.Sprintf("%v", v)
}

// ReprValue renders v the way it appears inside error messages
func ReprValue(v interface{}) string {
	if s, ok := v.(string); ok {
		return quoteString(s)
	}
	return FormatValue(v)
}

// formatFloat produces the shortest representation that round-trips,
// switching to exponent form outside [1e-4, 1e16).
func formatFloat(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	case math.IsNaN(f):
		return "nan"
	}
	if f == 0 {
		if math.Signbit(f) {
			return "-0.0"
		}
		return "0.0"
	}

	exp := strconv.FormatFloat(f, 'e', -1, 64)
	_, power, _ := strings.Cut(exp, "e")
	if e, _ := strconv.Atoi(power); e < -4 || e >= 16 {
		return exp
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

func quoteString(s string) string {
	quote := byte('\'')
	if strings.Contains(s, "'") && !strings.Contains(s, `"`) {
		quote = '"'
	}
	var b strings.Builder
	b.WriteByte(quote)
	for _, r := range s {
		switch {
		case r == '\\':
			b.WriteString(`\\`)
		case r == rune(quote):
			b.WriteByte('\\')
			b.WriteRune(r)
		case r == '\n':
			b.WriteString(`\n`)
		case r == '\t':
			b.WriteString(`\t`)
		case r == '\r':
			b.WriteString(`\r`)
		case r < 0x20 || r == 0x7f:
			fmt.Fprintf(&b, `\x%02x`, r)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte(quote)
	return b.String()
}

// Truthy reports the truth value of v
func Truthy(v interface{}) bool {
	switch v := v.(type) {
	case bool:
		return v
	case int64:
		return v != 0
	case float64:
		return v != 0
	case string:
		return v != ""
	case NoneType:
		return false
	case RangeValue:
		return v.Len() > 0
	}
	return true
}
