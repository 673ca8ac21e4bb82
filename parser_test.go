package anubad

import (
	"errors"
	"strings"
	"testing"
)

func validate(t *testing.T, source string) (*Program, error) {
	t.Helper()
	return Validate(&CanonicalProgram{Lines: strings.Split(source, "\n")})
}

func TestValidateAcceptsPrograms(t *testing.T) {
	sources := []string{
		"x = 1\nprint(x)",
		"if x > 10:\n    print(\"big\")\nelif x > 5:\n    print(\"mid\")\nelse:\n    print(\"small\")",
		"while x < 10:\n    x += 1\n    if x == 5:\n        continue\n    if x == 8:\n        break",
		"for i in range(3):\n    pass\nelse:\n    print(\"done\")",
		"# comment only\n\n   # indented comment\nx = (1 + 2) * -3 ** 2",
		"print(1, 2, sep=\"-\", end=\"\")",
		"x = not a and b or c",
		"ক = 1\nখ = ক + 1",
		"x = 'it\\'s'",
		"if a < b <= c != d:\n    pass",
		"y = 1.5e3 + .5 + 2.",
		"if x:  # trailing comment\n    pass",
	}
	for _, source := range sources {
		if _, err := validate(t, source); err != nil {
			t.Errorf("Expected %q to validate, got %v", source, err)
		}
	}
}

func TestValidateBuildsBlocks(t *testing.T) {
	program, err := validate(t, "x = 0\nwhile x < 3:\n    x += 1\n    if x == 2:\n        print(x)\nprint(\"end\")")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(program.Body) != 3 {
		t.Fatalf("Expected 3 top-level statements, got %d", len(program.Body))
	}
	loop, ok := program.Body[1].(*WhileStmt)
	if !ok {
		t.Fatalf("Expected *WhileStmt, got %T", program.Body[1])
	}
	if len(loop.Body) != 2 || loop.Line != 2 {
		t.Errorf("Expected 2-statement loop body on line 2, got %d statements on line %d", len(loop.Body), loop.Line)
	}
	if _, ok := loop.Body[1].(*IfStmt); !ok {
		t.Errorf("Expected nested *IfStmt, got %T", loop.Body[1])
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name    string
		source  string
		line    int
		message string
	}{
		{"missing colon", "x = 1\nif x > 10\n    print(x)", 2, "expected ':'"},
		{"unexpected indent", "x = 1\n    y = 2", 2, "unexpected indent"},
		{"missing block", "if x:\nprint(x)", 2, "expected an indented block after 'if' statement on line 1"},
		{"missing block at end", "while x:", 1, "expected an indented block after 'while' statement on line 1"},
		{"unindent mismatch", "if x:\n        a = 1\n    b = 2", 3, "unindent does not match any outer indentation level"},
		{"else without if", "x = 1\nelse:\n    x = 2", 2, "invalid syntax"},
		{"break outside loop", "break", 1, "'break' outside loop"},
		{"continue outside loop", "if x:\n    continue", 2, "'continue' not properly in loop"},
		{"reserved target", "import = 5", 1, "invalid syntax"},
		{"import statement", "import os", 1, "invalid syntax"},
		{"unterminated paren", "x = (1 + 2", 1, "invalid syntax"},
		{"unterminated string", "print(\"abc)", 1, "unterminated string literal"},
		{"unknown character", "x = [1, 2]", 1, "invalid"},
		{"leading zeros", "x = 007", 1, "leading zeros in decimal integer literals are not permitted"},
		{"huge literal", "x = 99999999999999999999", 1, "integer literal is too large"},
		{"positional after keyword", "print(sep=\"\", 1)", 1, "positional argument follows keyword argument"},
		{"repeated keyword", "print(1, end=\"\", end=\"\")", 1, "keyword argument repeated: end"},
		{"line numbers are physical", "\n# note\n\nx = = 1", 4, "invalid syntax"},
		{"first error wins", "x = (\ny = )", 1, "invalid syntax"},
		{"nested parentheses", "x = " + strings.Repeat("(", 201) + "1" + strings.Repeat(")", 201), 1, "too many nested parentheses"},
		{"nested calls", strings.Repeat("print(", 201) + strings.Repeat(")", 201), 1, "too many nested parentheses"},
		{"prefix chain", "x = " + strings.Repeat("-", 201) + "1", 1, "expression too deeply nested"},
		{"not chain", "x = " + strings.Repeat("not ", 201) + "a", 1, "expression too deeply nested"},
		{"power chain", "x = 2" + strings.Repeat(" ** 2", 201), 1, "expression too deeply nested"},
		{"long line", "x = " + strings.Repeat("1 + ", 3000) + "1", 1, "line too long"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := validate(t, tt.source)
			var compileErr *CompileError
			if !errors.As(err, &compileErr) {
				t.Fatalf("Expected *CompileError, got %v", err)
			}
			if compileErr.Line() != tt.line {
				t.Errorf("Expected line %d, got %d (%s)", tt.line, compileErr.Line(), compileErr.Message)
			}
			if !strings.Contains(compileErr.Message, tt.message) {
				t.Errorf("Expected message containing %q, got %q", tt.message, compileErr.Message)
			}
		})
	}
}

func TestValidateNestingBound(t *testing.T) {
	sources := []string{
		"x = " + strings.Repeat("(", 200) + "1" + strings.Repeat(")", 200),
		"x = " + strings.Repeat("-", 199) + "1",
		"x = " + strings.Repeat("-(", 50) + "1" + strings.Repeat(")", 50),
		"x = " + strings.Repeat("(1) - ", 300) + "1",
		"x = " + strings.Repeat("2 ** 2 * ", 300) + "1",
		"x = " + strings.Repeat("not a and ", 300) + "b",
	}
	for _, source := range sources {
		if _, err := validate(t, source); err != nil {
			t.Errorf("Expected %.40q... to validate, got %v", source, err)
		}
	}
}

func TestGrammarErrorHidesParserInternals(t *testing.T) {
	_, err := validate(t, "print(x y)")
	var compileErr *CompileError
	if !errors.As(err, &compileErr) {
		t.Fatalf("Expected *CompileError, got %v", err)
	}
	if compileErr.Message != "invalid syntax" {
		t.Errorf("Expected %q, got %q", "invalid syntax", compileErr.Message)
	}
	if compileErr.Position.Column < 6 {
		t.Errorf("Expected the column of the offending token, got %d", compileErr.Position.Column)
	}
}

func TestCompileErrorSnippet(t *testing.T) {
	_, err := validate(t, "x = 1\n    if x > 10")
	var compileErr *CompileError
	if !errors.As(err, &compileErr) {
		t.Fatalf("Expected *CompileError, got %v", err)
	}
	if compileErr.Snippet() != "if x > 10" {
		t.Errorf("Expected trimmed snippet, got %q", compileErr.Snippet())
	}
	if len(compileErr.Context) != 2 {
		t.Errorf("Expected program lines as context, got %d", len(compileErr.Context))
	}
}

func TestUnquoteString(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{`"plain"`, "plain"},
		{`'single'`, "single"},
		{`"a\nb"`, "a\nb"},
		{`"tab\there"`, "tab\there"},
		{`'it\'s'`, "it's"},
		{`"say \"hi\""`, `say "hi"`},
		{`"mixed \' quote"`, "mixed ' quote"},
		{`"\x41\u0995"`, "Aক"},
		{`"\0"`, "\x00"},
		{`"keep \d"`, `keep \d`},
		{`"back\\slash"`, `back\slash`},
	}
	for _, tt := range tests {
		got, err := unquoteString(tt.in)
		if err != nil {
			t.Errorf("unquoteString(%s): unexpected error %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("unquoteString(%s): expected %q, got %q", tt.in, tt.want, got)
		}
	}
}
