package anubad

import (
	"strings"
	"time"
)

// SourcePosition tracks the position of code in the canonical program
type SourcePosition struct {
	Line         int
	Column       int
	Length       int
	OriginalText string
	Filename     string
}

// LogicalLine describes one physical line as seen by the line rewriter
type LogicalLine struct {
	Number      int
	RawIndent   int
	IndentLevel int
	Content     string
	IsComment   bool
	IsBlank     bool
}

// CanonicalProgram is the assembled output of the line rewriter. It has
// exactly one line per line of source text.
type CanonicalProgram struct {
	Lines   []string
	Logical []LogicalLine
}

// Source returns the program text joined with newlines
func (p *CanonicalProgram) Source() string {
	return strings.Join(p.Lines, "\n")
}

// Line returns the 1-based line n, or "" when out of range
func (p *CanonicalProgram) Line(n int) string {
	if n < 1 || n > len(p.Lines) {
		return ""
	}
	return p.Lines[n-1]
}

// Result is the outcome of one run request. It is exactly one of *Output,
// *EmptyInputError, *CompileError, *RuntimeError or *TimeoutError.
type Result interface {
	isResult()
}

// Output holds the captured text of a successful run, with canonical digits
type Output struct {
	Text     string
	Steps    int64
	Duration time.Duration
}

func (*Output) isResult() {}

// Result kinds, as reported by ResultKind
const (
	KindOutput       = "output"
	KindEmptyInput   = "empty_input"
	KindSyntaxError  = "syntax_error"
	KindRuntimeError = "runtime_error"
	KindTimeout      = "timeout"
)

// ResultKind returns a stable name for the variant of r
func ResultKind(r Result) string {
	switch r.(type) {
	case *Output:
		return KindOutput
	case *EmptyInputError:
		return KindEmptyInput
	case *CompileError:
		return KindSyntaxError
	case *RuntimeError:
		return KindRuntimeError
	case *TimeoutError:
		return KindTimeout
	}
	return "unknown"
}

// ResultLine returns the program line a failure refers to, or 0
func ResultLine(r Result) int {
	switch r := r.(type) {
	case *CompileError:
		return r.Line()
	case *RuntimeError:
		return r.Line()
	}
	return 0
}
