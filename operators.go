package anubad

import (
	"math"
	"strings"
)

// asNumber returns v as int64 or float64; bool counts as int
func asNumber(v interface{}) (interface{}, bool) {
	switch v := v.(type) {
	case int64, float64:
		return v, true
	case bool:
		if v {
			return int64(1), true
		}
		return int64(0), true
	}
	return nil, false
}

func toFloat(v interface{}) float64 {
	switch v := v.(type) {
	case int64:
		return float64(v)
	case float64:
		return v
	}
	return 0
}

// binaryOp applies an arithmetic operator
func (s *ExecutionState) binaryOp(op string, a, b interface{}, line int) (interface{}, error) {
	na, okA := asNumber(a)
	nb, okB := asNumber(b)
	if okA && okB {
		ia, intA := na.(int64)
		ib, intB := nb.(int64)
		if intA && intB {
			return intOp(op, ia, ib, line)
		}
		return floatOp(op, toFloat(na), toFloat(nb), line)
	}

	switch op {
	case "+":
		sa, strA := a.(string)
		sb, strB := b.(string)
		if strA && strB {
			if err := s.checkString(len(sa)+len(sb), line); err != nil {
				return nil, err
			}
			return sa + sb, nil
		}
		if strA {
			return nil, newRuntimeError(TypeError, line, "can only concatenate str (not \"%s\") to str", TypeName(b))
		}
	case "*":
		if text, ok := a.(string); ok {
			if n, ok := asInt(b); ok {
				return s.repeat(text, n, line)
			}
		}
		if text, ok := b.(string); ok {
			if n, ok := asInt(a); ok {
				return s.repeat(text, n, line)
			}
		}
	}

	if op == "**" {
		return nil, newRuntimeError(TypeError, line, "unsupported operand type(s) for ** or pow(): '%s' and '%s'", TypeName(a), TypeName(b))
	}
	return nil, newRuntimeError(TypeError, line, "unsupported operand type(s) for %s: '%s' and '%s'", op, TypeName(a), TypeName(b))
}

func (s *ExecutionState) repeat(text string, n int64, line int) (interface{}, error) {
	if n <= 0 || text == "" {
		return "", nil
	}
	if limit := s.config.MaxStringLength; limit > 0 && n > int64(limit/len(text)) {
		return nil, newRuntimeError(MemoryError, line, "string of %d x %d bytes exceeds the limit of %d bytes", n, len(text), limit)
	}
	if n > math.MaxInt32/int64(len(text)) {
		return nil, newRuntimeError(OverflowError, line, "repeated string is too long")
	}
	return strings.Repeat(text, int(n)), nil
}

func overflow(line int) *RuntimeError {
	return newRuntimeError(OverflowError, line, "integer result out of range")
}

func intOp(op string, a, b int64, line int) (interface{}, error) {
	switch op {
	case "+":
		c := a + b
		if (a^c)&(b^c) < 0 {
			return nil, overflow(line)
		}
		return c, nil
	case "-":
		c := a - b
		if (a^b)&(a^c) < 0 {
			return nil, overflow(line)
		}
		return c, nil
	case "*":
		c, ok := mulInt(a, b)
		if !ok {
			return nil, overflow(line)
		}
		return c, nil
	case "/":
		if b == 0 {
			return nil, newRuntimeError(ZeroDivisionError, line, "division by zero")
		}
		return float64(a) / float64(b), nil
	case "//":
		if b == 0 {
			return nil, newRuntimeError(ZeroDivisionError, line, "integer division or modulo by zero")
		}
		if a == math.MinInt64 && b == -1 {
			return nil, overflow(line)
		}
		q := a / b
		if a%b != 0 && (a < 0) != (b < 0) {
			q--
		}
		return q, nil
	case "%":
		if b == 0 {
			return nil, newRuntimeError(ZeroDivisionError, line, "integer modulo by zero")
		}
		if b == -1 {
			return int64(0), nil
		}
		r := a % b
		if r != 0 && (r < 0) != (b < 0) {
			r += b
		}
		return r, nil
	case "**":
		if b < 0 {
			if a == 0 {
				return nil, newRuntimeError(ZeroDivisionError, line, "0.0 cannot be raised to a negative power")
			}
			return math.Pow(float64(a), float64(b)), nil
		}
		result, base := int64(1), a
		for exp := b; exp > 0; exp >>= 1 {
			var ok bool
			if exp&1 == 1 {
				if result, ok = mulInt(result, base); !ok {
					return nil, overflow(line)
				}
			}
			if exp > 1 {
				if base, ok = mulInt(base, base); !ok {
					return nil, overflow(line)
				}
			}
		}
		return result, nil
	}
	return nil, newRuntimeError(TypeError, line, "unsupported operator %s", op)
}

func mulInt(a, b int64) (int64, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	c := a * b
	if (a == -1 && b == math.MinInt64) || (b == -1 && a == math.MinInt64) || c/b != a {
		return 0, false
	}
	return c, true
}

func floatOp(op string, a, b float64, line int) (interface{}, error) {
	switch op {
	case "+":
		return a + b, nil
	case "-":
		return a - b, nil
	case "*":
		return a * b, nil
	case "/":
		if b == 0 {
			return nil, newRuntimeError(ZeroDivisionError, line, "float division by zero")
		}
		return a / b, nil
	case "//":
		if b == 0 {
			return nil, newRuntimeError(ZeroDivisionError, line, "float floor division by zero")
		}
		return math.Floor(a / b), nil
	case "%":
		if b == 0 {
			return nil, newRuntimeError(ZeroDivisionError, line, "float modulo by zero")
		}
		r := math.Mod(a, b)
		if r != 0 && (r < 0) != (b < 0) {
			r += b
		}
		if r == 0 {
			r = math.Copysign(0, b)
		}
		return r, nil
	case "**":
		if a == 0 && b < 0 {
			return nil, newRuntimeError(ZeroDivisionError, line, "0.0 cannot be raised to a negative power")
		}
		if a < 0 && b != math.Trunc(b) {
			return nil, newRuntimeError(ValueError, line, "math domain error")
		}
		r := math.Pow(a, b)
		if math.IsInf(r, 0) && !math.IsInf(a, 0) && !math.IsInf(b, 0) {
			return nil, newRuntimeError(OverflowError, line, "numerical result out of range")
		}
		return r, nil
	}
	return nil, newRuntimeError(TypeError, line, "unsupported operator %s", op)
}

// unaryOp applies unary minus or plus
func unaryOp(op string, v interface{}, line int) (interface{}, error) {
	n, ok := asNumber(v)
	if !ok {
		return nil, newRuntimeError(TypeError, line, "bad operand type for unary %s: '%s'", op, TypeName(v))
	}
	if op == "+" {
		return n, nil
	}
	switch n := n.(type) {
	case int64:
		if n == math.MinInt64 {
			return nil, overflow(line)
		}
		return -n, nil
	case float64:
		return -n, nil
	}
	return nil, newRuntimeError(TypeError, line, "bad operand type for unary %s: '%s'", op, TypeName(v))
}

// compareOp evaluates one link of a comparison chain
func compareOp(op string, a, b interface{}, line int) (bool, error) {
	switch op {
	case "==":
		return valuesEqual(a, b), nil
	case "!=":
		return !valuesEqual(a, b), nil
	}

	na, okA := asNumber(a)
	nb, okB := asNumber(b)
	if okA && okB {
		ia, intA := na.(int64)
		ib, intB := nb.(int64)
		if intA && intB {
			return orderResult(op, cmpInt(ia, ib)), nil
		}
		fa, fb := toFloat(na), toFloat(nb)
		if math.IsNaN(fa) || math.IsNaN(fb) {
			return false, nil
		}
		return orderResult(op, cmpFloat(fa, fb)), nil
	}

	sa, strA := a.(string)
	sb, strB := b.(string)
	if strA && strB {
		return orderResult(op, strings.Compare(sa, sb)), nil
	}
	return false, newRuntimeError(TypeError, line, "'%s' not supported between instances of '%s' and '%s'", op, TypeName(a), TypeName(b))
}

func cmpInt(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func cmpFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func orderResult(op string, c int) bool {
	switch op {
	case "<":
		return c < 0
	case "<=":
		return c <= 0
	case ">":
		return c > 0
	case ">=":
		return c >= 0
	}
	return false
}

func valuesEqual(a, b interface{}) bool {
	na, okA := asNumber(a)
	nb, okB := asNumber(b)
	if okA && okB {
		ia, intA := na.(int64)
		ib, intB := nb.(int64)
		if intA && intB {
			return ia == ib
		}
		return toFloat(na) == toFloat(nb)
	}

	switch a := a.(type) {
	case string:
		b, ok := b.(string)
		return ok && a == b
	case NoneType:
		_, ok := b.(NoneType)
		return ok
	case RangeValue:
		b, ok := b.(RangeValue)
		if !ok {
			return false
		}
		n := a.Len()
		switch {
		case n != b.Len():
			return false
		case n == 0:
			return true
		case n == 1:
			return a.Start == b.Start
		}
		return a.Start == b.Start && a.Step == b.Step
	case *Builtin:
		b, ok := b.(*Builtin)
		return ok && a == b
	}
	return false
}
