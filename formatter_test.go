package anubad

import (
	"strings"
	"testing"
	"time"
)

func TestFormatSuccess(t *testing.T) {
	got := FormatSuccess("Result: 42\n  \n")
	want := "Result: ৪২\n\n" + CompletionBanner
	if got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}

	if got := FormatSuccess(""); got != "\n\n"+CompletionBanner {
		t.Errorf("Expected bare banner, got %q", got)
	}
}

func TestFormatEmptyInput(t *testing.T) {
	if got := Format(&EmptyInputError{}); got != MessageEmptyInput {
		t.Errorf("Expected %q, got %q", MessageEmptyInput, got)
	}
}

func TestFormatSyntaxError(t *testing.T) {
	err := &CompileError{
		Message:  "expected ':'",
		Position: &SourcePosition{Line: 12, OriginalText: "    if x > 10"},
	}
	got := Format(err)
	want := MessageSyntaxError + "\nexpected ':'\n" + MessageLine + " ১২\nif x > ১০"
	if got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}

	err.Position.OriginalText = "   "
	if got := Format(err); strings.HasSuffix(got, "\n") {
		t.Errorf("Expected no snippet line for blank text, got %q", got)
	}
}

func TestFormatRuntimeError(t *testing.T) {
	got := Format(&RuntimeError{Kind: NameError, Message: "name 'x' is not defined", Position: &SourcePosition{Line: 3}})
	want := MessageRuntimeError + "\nname 'x' is not defined"
	if got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}

	got = Format(&RuntimeError{Kind: ZeroDivisionError, Message: "division by zero at 10"})
	if !strings.HasSuffix(got, "১০") {
		t.Errorf("Expected localized digits, got %q", got)
	}
}

func TestFormatTimeout(t *testing.T) {
	got := Format(&TimeoutError{Steps: 10, Elapsed: time.Second, Cause: ErrStepBudget})
	if got != MessageTimeout {
		t.Errorf("Expected %q, got %q", MessageTimeout, got)
	}
}
