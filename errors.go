package anubad

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrEmptyInput is matched by errors.Is for every *EmptyInputError
var ErrEmptyInput = errors.New("empty input")

// EmptyInputError is returned when the source text is blank
type EmptyInputError struct{}

func (*EmptyInputError) isResult() {}

func (*EmptyInputError) Error() string { return ErrEmptyInput.Error() }

func (*EmptyInputError) Is(target error) bool { return target == ErrEmptyInput }

// CompileError is a syntax error found while validating the canonical program
type CompileError struct {
	Message  string
	Position *SourcePosition
	Context  []string
}

func (*CompileError) isResult() {}

func (e *CompileError) Error() string {
	if e.Position != nil && e.Position.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Position.Line, e.Message)
	}
	return e.Message
}

// Line is the 1-based line of the offending statement
func (e *CompileError) Line() int {
	if e.Position == nil {
		return 0
	}
	return e.Position.Line
}

// Column is the 1-based column of the offending token, or 0 if unknown
func (e *CompileError) Column() int {
	if e.Position == nil {
		return 0
	}
	return e.Position.Column
}

// Snippet is the canonical text of the offending line, trimmed
func (e *CompileError) Snippet() string {
	if e.Position == nil {
		return ""
	}
	return strings.TrimSpace(e.Position.OriginalText)
}

// Runtime fault kinds
const (
	NameError         = "NameError"
	TypeError         = "TypeError"
	ValueError        = "ValueError"
	ZeroDivisionError = "ZeroDivisionError"
	OverflowError     = "OverflowError"
	MemoryError       = "MemoryError"
	InternalError     = "InternalError"
)

// RuntimeError is a fault raised while evaluating a validated program
type RuntimeError struct {
	Kind     string
	Message  string
	Position *SourcePosition
}

func (*RuntimeError) isResult() {}

func (e *RuntimeError) Error() string {
	return e.Message
}

// Line is the 1-based line of the statement that faulted, or 0
func (e *RuntimeError) Line() int {
	if e.Position == nil {
		return 0
	}
	return e.Position.Line
}

// TimeoutError reports that a run exceeded its execution bound
type TimeoutError struct {
	Steps   int64
	Elapsed time.Duration
	Cause   error
}

func (*TimeoutError) isResult() {}

func (e *TimeoutError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("execution bound exceeded after %d steps: %v", e.Steps, e.Cause)
	}
	return fmt.Sprintf("execution bound exceeded after %d steps", e.Steps)
}

func (e *TimeoutError) Unwrap() error { return e.Cause }

// ErrStepBudget is the cause of a TimeoutError raised by the step budget
var ErrStepBudget = errors.New("step budget exhausted")

func newRuntimeError(kind string, line int, format string, args ...interface{}) *RuntimeError {
	return &RuntimeError{
		Kind:     kind,
		Message:  fmt.Sprintf(format, args...),
		Position: &SourcePosition{Line: line},
	}
}
