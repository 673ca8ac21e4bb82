package anubad

import (
	"bytes"
	"strings"
	"testing"
)

func TestLoggerCategories(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerTo(&buf, true)

	logger.Debug(CatEval, "hidden")
	if buf.Len() != 0 {
		t.Errorf("Expected disabled category to be silent, got %q", buf.String())
	}

	logger.EnableCategory(CatEval)
	logger.Debug(CatEval, "steps=%d", 3)
	if got := buf.String(); got != "[DEBUG:eval] steps=3\n" {
		t.Errorf("Expected debug line, got %q", got)
	}

	buf.Reset()
	logger.DisableCategory(CatEval)
	logger.Trace(CatEval, "gone")
	if buf.Len() != 0 {
		t.Errorf("Expected disabled category to be silent, got %q", buf.String())
	}
}

func TestLoggerDisabledStillShowsErrors(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerTo(&buf, false)
	logger.EnableAllCategories()

	logger.Debug(CatRun, "quiet")
	logger.Warn(CatServer, "slow client")
	logger.Error(CatHistory, "disk full")

	want := "[anubad:server WARN] slow client\n[anubad:history ERROR] disk full\n"
	if buf.String() != want {
		t.Errorf("Expected %q, got %q", want, buf.String())
	}
}

func TestLoggerParseError(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerTo(&buf, false)
	logger.ParseError(&CompileError{
		Message:  "expected ':'",
		Position: &SourcePosition{Line: 2, Column: 1},
		Context:  []string{"x = 1", "if x > 10", "    print(x)"},
	})

	got := buf.String()
	for _, want := range []string{"[anubad:parse ERROR] Syntax error: expected ':'", "at line 2, column 1 in <input>", ">   2 | if x > 10"} {
		if !strings.Contains(got, want) {
			t.Errorf("Expected output to contain %q, got:\n%s", want, got)
		}
	}
}

func TestFormatSourceContext(t *testing.T) {
	lines := []string{"a = 1", "b = 2", "c = (", "d = 4", "e = 5", "f = 6"}
	got := FormatSourceContext(&SourcePosition{Line: 3, Column: 5, Length: 1}, lines, 1)
	want := "      2 | b = 2\n" +
		"  >   3 | c = (\n" +
		"        |     ^\n" +
		"      4 | d = 4"
	if got != want {
		t.Errorf("Expected:\n%s\ngot:\n%s", want, got)
	}

	if FormatSourceContext(nil, lines, 1) != "" {
		t.Error("Expected empty context without a position")
	}
}
