package anubad

import (
	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// Each canonical line is parsed on its own; blocks are assembled from the
// indentation of the lines by the validator.
var lineLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Comment", Pattern: `#[^\n]*`},
	{Name: "String", Pattern: `"(?:[^"\\\n]|\\.)*"|'(?:[^'\\\n]|\\.)*'`},
	{Name: "Float", Pattern: `(?:\d+\.\d*|\.\d+)(?:[eE][+-]?\d+)?|\d+[eE][+-]?\d+`},
	{Name: "Int", Pattern: `\d+`},
	{Name: "Ident", Pattern: `[\p{L}_][\p{L}\p{M}\p{Nd}_]*`},
	{Name: "Operator", Pattern: `\*\*=?|//=?|==|!=|<=|>=|[-+*/%]=|[-+*/%<>=(),:]`},
	{Name: "Whitespace", Pattern: `[\s\p{Zs}]+`},
})

var lineParser = participle.MustBuild[Line](
	participle.Lexer(lineLexer),
	participle.Elide("Whitespace", "Comment"),
	participle.UseLookahead(4),
)

// Line is one statement or block header
type Line struct {
	Pos lexer.Position

	If       *Expr       `  "if" @@ ":"`
	Elif     *Expr       `| "elif" @@ ":"`
	Else     bool        `| @"else" ":"`
	While    *Expr       `| "while" @@ ":"`
	For      *ForHeader  `| "for" @@`
	Pass     bool        `| @"pass"`
	Break    bool        `| @"break"`
	Continue bool        `| @"continue"`
	Assign   *Assignment `| @@`
	Expr     *Expr       `| @@`
}

// ForHeader is the part of a for header after the keyword
type ForHeader struct {
	Var  string `@Ident "in"`
	Iter *Expr  `@@ ":"`
}

// Assignment binds or updates a run variable
type Assignment struct {
	Pos lexer.Position

	Target string `@Ident`
	Op     string `@( "=" | "+=" | "-=" | "*=" | "/=" | "//=" | "%=" | "**=" )`
	Value  *Expr  `@@`
}

// Expr is a disjunction, the loosest binding expression
type Expr struct {
	Pos lexer.Position

	Left  *AndExpr   `@@`
	Right []*AndExpr `( "or" @@ )*`
}

type AndExpr struct {
	Left  *NotExpr   `@@`
	Right []*NotExpr `( "and" @@ )*`
}

type NotExpr struct {
	Not     *NotExpr    `  "not" @@`
	Compare *Comparison `| @@`
}

// Comparison chains like a < b <= c, each operand evaluated at most once
type Comparison struct {
	Left *Sum         `@@`
	Ops  []*CompareOp `@@*`
}

type CompareOp struct {
	Pos lexer.Position

	Op    string `@( "==" | "!=" | "<=" | ">=" | "<" | ">" )`
	Right *Sum   `@@`
}

type Sum struct {
	Left *Term    `@@`
	Ops  []*SumOp `@@*`
}

type SumOp struct {
	Pos lexer.Position

	Op    string `@( "+" | "-" )`
	Right *Term  `@@`
}

type Term struct {
	Left *Unary    `@@`
	Ops  []*TermOp `@@*`
}

type TermOp struct {
	Pos lexer.Position

	Op    string `@( "*" | "//" | "/" | "%" )`
	Right *Unary `@@`
}

type Unary struct {
	Sign  *Sign  `  @@`
	Power *Power `| @@`
}

type Sign struct {
	Pos lexer.Position

	Op      string `@( "-" | "+" )`
	Operand *Unary `@@`
}

// Power binds tighter than a unary operator on its left, so -2 ** 2 is -4
type Power struct {
	Pos lexer.Position

	Base     *Primary `@@`
	Exponent *Unary   `( "**" @@ )?`
}

type Primary struct {
	Pos lexer.Position

	Float  *string `  @Float`
	Int    *string `| @Int`
	String *string `| @String`
	Bool   *string `| @( "True" | "False" )`
	None   bool    `| @"None"`
	Call   *Call   `| @@`
	Name   *string `| @Ident`
	Sub    *Expr   `| "(" @@ ")"`

	literal interface{}
}

// Call invokes a capability by name
type Call struct {
	Pos lexer.Position

	Name string `@Ident "("`
	Args []*Arg `( @@ ( "," @@ )* ","? )? ")"`
}

type Arg struct {
	Keyword *string `( @Ident "=" )?`
	Value   *Expr   `@@`
}

// reservedWords may not be used as identifiers
var reservedWords = map[string]bool{
	"False": true, "None": true, "True": true, "and": true, "as": true,
	"assert": true, "async": true, "await": true, "break": true, "class": true,
	"continue": true, "def": true, "del": true, "elif": true, "else": true,
	"except": true, "finally": true, "for": true, "from": true, "global": true,
	"if": true, "import": true, "in": true, "is": true, "lambda": true,
	"nonlocal": true, "not": true, "or": true, "pass": true, "raise": true,
	"return": true, "try": true, "while": true, "with": true, "yield": true,
}
