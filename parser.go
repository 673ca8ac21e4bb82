package anubad

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// sourceLine is a line that carries a statement
type sourceLine struct {
	number int
	indent int
	text   string
	parsed *Line
}

// Parser assembles the per-line grammar into blocks using indentation
type Parser struct {
	source []string
	lines  []*sourceLine
	pos    int
	loops  int
}

// NewParser creates a parser over the lines of a canonical program
func NewParser(program *CanonicalProgram) *Parser {
	p := &Parser{source: program.Lines}
	for i, text := range program.Lines {
		trimmed := strings.TrimSpace(text)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		p.lines = append(p.lines, &sourceLine{
			number: i + 1,
			indent: leadingWhitespace(text),
			text:   text,
		})
	}
	return p
}

// Validate checks a canonical program against the grammar and returns the
// statement tree. Errors are *CompileError and refer to the first offending
// line in source order.
func Validate(program *CanonicalProgram) (*Program, error) {
	p := NewParser(program)
	body, err := p.block(0)
	if err != nil {
		return nil, err
	}
	return &Program{Body: body, Lines: program.Lines}, nil
}

func leadingWhitespace(text string) int {
	return utf8.RuneCountInString(text) - utf8.RuneCountInString(strings.TrimLeftFunc(text, unicode.IsSpace))
}

func (p *Parser) block(indent int) ([]Stmt, error) {
	var body []Stmt
	for p.pos < len(p.lines) {
		ln := p.lines[p.pos]
		if ln.indent < indent {
			break
		}
		if ln.indent > indent {
			return nil, p.errorAt(ln, ln.indent+1, "unexpected indent")
		}
		stmt, err := p.statement(ln)
		if err != nil {
			return nil, err
		}
		body = append(body, stmt)
	}
	return body, nil
}

func (p *Parser) statement(ln *sourceLine) (Stmt, error) {
	line, err := p.parse(ln)
	if err != nil {
		return nil, err
	}

	switch {
	case line.If != nil:
		return p.ifStatement(ln, line)

	case line.Elif != nil, line.Else:
		return nil, p.errorAt(ln, line.Pos.Column, "invalid syntax")

	case line.While != nil:
		stmt := &WhileStmt{Line: ln.number, Cond: line.While}
		p.loops++
		stmt.Body, err = p.suite(ln, "while")
		p.loops--
		if err != nil {
			return nil, err
		}
		stmt.Else, err = p.loopElse(ln)
		return stmt, err

	case line.For != nil:
		stmt := &ForStmt{Line: ln.number, Var: line.For.Var, Iter: line.For.Iter}
		p.loops++
		stmt.Body, err = p.suite(ln, "for")
		p.loops--
		if err != nil {
			return nil, err
		}
		stmt.Else, err = p.loopElse(ln)
		return stmt, err
	}

	p.pos++
	switch {
	case line.Pass:
		return &PassStmt{Line: ln.number}, nil
	case line.Break:
		if p.loops == 0 {
			return nil, p.errorAt(ln, line.Pos.Column, "'break' outside loop")
		}
		return &BreakStmt{Line: ln.number}, nil
	case line.Continue:
		if p.loops == 0 {
			return nil, p.errorAt(ln, line.Pos.Column, "'continue' not properly in loop")
		}
		return &ContinueStmt{Line: ln.number}, nil
	case line.Assign != nil:
		return &AssignStmt{
			Line:   ln.number,
			Target: line.Assign.Target,
			Op:     line.Assign.Op,
			Value:  line.Assign.Value,
		}, nil
	default:
		return &ExprStmt{Line: ln.number, Expr: line.Expr}, nil
	}
}

func (p *Parser) ifStatement(ln *sourceLine, line *Line) (Stmt, error) {
	stmt := &IfStmt{Line: ln.number}
	body, err := p.suite(ln, "if")
	if err != nil {
		return nil, err
	}
	stmt.Branches = append(stmt.Branches, CondBranch{Line: ln.number, Cond: line.If, Body: body})

	for p.pos < len(p.lines) {
		next := p.lines[p.pos]
		if next.indent != ln.indent {
			break
		}
		clause, err := p.parse(next)
		if err != nil {
			return nil, err
		}
		switch {
		case clause.Elif != nil:
			body, err := p.suite(next, "elif")
			if err != nil {
				return nil, err
			}
			stmt.Branches = append(stmt.Branches, CondBranch{Line: next.number, Cond: clause.Elif, Body: body})
			continue
		case clause.Else:
			stmt.Else, err = p.suite(next, "else")
			if err != nil {
				return nil, err
			}
		}
		break
	}
	return stmt, nil
}

// loopElse consumes an else clause that directly follows a loop body
func (p *Parser) loopElse(header *sourceLine) ([]Stmt, error) {
	if p.pos >= len(p.lines) || p.lines[p.pos].indent != header.indent {
		return nil, nil
	}
	next := p.lines[p.pos]
	clause, err := p.parse(next)
	if err != nil {
		return nil, err
	}
	if !clause.Else {
		return nil, nil
	}
	return p.suite(next, "else")
}

// suite parses the indented block owned by header
func (p *Parser) suite(header *sourceLine, kind string) ([]Stmt, error) {
	p.pos++
	if p.pos >= len(p.lines) || p.lines[p.pos].indent <= header.indent {
		at := header
		if p.pos < len(p.lines) {
			at = p.lines[p.pos]
		}
		return nil, p.errorAt(at, 0, fmt.Sprintf("expected an indented block after '%s' statement on line %d", kind, header.number))
	}

	body, err := p.block(p.lines[p.pos].indent)
	if err != nil {
		return nil, err
	}
	if p.pos < len(p.lines) && p.lines[p.pos].indent > header.indent {
		next := p.lines[p.pos]
		return nil, p.errorAt(next, next.indent+1, "unindent does not match any outer indentation level")
	}
	return body, nil
}

// parse runs the line grammar once per line and checks the names it binds
func (p *Parser) parse(ln *sourceLine) (*Line, error) {
	if ln.parsed != nil {
		return ln.parsed, nil
	}
	if err := p.checkShape(ln); err != nil {
		return nil, err
	}
	line, err := lineParser.ParseString("", ln.text)
	if err != nil {
		return nil, p.grammarError(ln, err)
	}
	if err := p.checkLine(ln, line); err != nil {
		return nil, err
	}
	ln.parsed = line
	return line, nil
}

const (
	// MaxLineLength is the longest statement line, in characters, the
	// validator accepts.
	MaxLineLength = 10000

	// maxNesting bounds parentheses, calls, prefix operators and power chains
	// combined. The line grammar recurses once per level.
	maxNesting = 200
)

var (
	operatorToken = lineLexer.Symbols()["Operator"]
	identToken    = lineLexer.Symbols()["Ident"]
	skippedTokens = map[lexer.TokenType]bool{
		lineLexer.Symbols()["Whitespace"]: true,
		lineLexer.Symbols()["Comment"]:    true,
	}
)

// nestLevel counts the open prefix operators and ** operators inside one
// pair of parentheses
type nestLevel struct {
	prefix int
	power  int
}

// checkShape rejects lines too long or too deeply nested for the line grammar
func (p *Parser) checkShape(ln *sourceLine) error {
	if n := utf8.RuneCountInString(ln.text); n > MaxLineLength {
		return p.errorAt(ln, MaxLineLength+1, fmt.Sprintf("line too long (%d characters, limit %d)", n, MaxLineLength))
	}

	lex, err := lineLexer.LexString("", ln.text)
	if err != nil {
		return nil
	}
	levels := []nestLevel{{}}
	depth := 0
	operand := false
	for {
		tok, err := lex.Next()
		if err != nil || tok.EOF() {
			return nil
		}
		if skippedTokens[tok.Type] {
			continue
		}
		top := &levels[len(levels)-1]

		switch {
		case tok.Type == operatorToken && tok.Value == "(":
			levels = append(levels, nestLevel{})
			depth++
			operand = false
			if depth > maxNesting {
				return p.errorAt(ln, tok.Pos.Column, "too many nested parentheses")
			}
			continue
		case tok.Type == operatorToken && tok.Value == ")":
			if len(levels) > 1 {
				depth -= 1 + top.prefix + top.power
				levels = levels[:len(levels)-1]
				outer := &levels[len(levels)-1]
				depth -= outer.prefix
				outer.prefix = 0
			}
			operand = true
			continue
		case tok.Type == operatorToken && tok.Value == "**":
			top.power++
			depth++
			operand = false
		case tok.Type == identToken && tok.Value == "not",
			tok.Type == operatorToken && !operand && (tok.Value == "-" || tok.Value == "+"):
			top.prefix++
			depth++
			operand = false
		case tok.Type == operatorToken || (tok.Type == identToken && reservedWords[tok.Value] &&
			tok.Value != "True" && tok.Value != "False" && tok.Value != "None"):
			depth -= top.power
			top.power = 0
			operand = false
			continue
		default:
			depth -= top.prefix
			top.prefix = 0
			operand = true
			continue
		}
		if depth > maxNesting {
			return p.errorAt(ln, tok.Pos.Column, "expression too deeply nested")
		}
	}
}

var headerKeywords = map[string]bool{"if": true, "elif": true, "else": true, "while": true, "for": true}

// grammarError maps a participle failure onto the message a user sees.
// Grammar internals never reach the display text; only the column survives.
func (p *Parser) grammarError(ln *sourceLine, err error) *CompileError {
	var perr participle.Error
	if !errors.As(err, &perr) {
		return p.errorAt(ln, 0, "invalid syntax")
	}
	pos := perr.Position()
	message := "invalid syntax"
	trimmed := strings.TrimSpace(ln.text)
	first := strings.FieldsFunc(trimmed, func(r rune) bool { return r == ' ' || r == '(' || r == ':' })
	switch {
	case len(first) > 0 && headerKeywords[first[0]] && !strings.HasSuffix(trimmed, ":"):
		message = "expected ':'"
	case errors.As(err, new(*lexer.Error)) && pos.Offset < len(ln.text) &&
		(ln.text[pos.Offset] == '"' || ln.text[pos.Offset] == '\''):
		message = "unterminated string literal"
	}
	return p.errorAt(ln, pos.Column, message)
}

func (p *Parser) errorAt(ln *sourceLine, column int, message string) *CompileError {
	return &CompileError{
		Message: message,
		Position: &SourcePosition{
			Line:         ln.number,
			Column:       column,
			Length:       1,
			OriginalText: ln.text,
		},
		Context: p.source,
	}
}

// checkLine rejects reserved words used as names and decodes literals
func (p *Parser) checkLine(ln *sourceLine, line *Line) error {
	name := func(ident string, column int) error {
		if reservedWords[ident] {
			return p.errorAt(ln, column, "invalid syntax")
		}
		return nil
	}
	visit := func(prim *Primary) error {
		return p.checkPrimary(ln, prim, name)
	}

	switch {
	case line.If != nil:
		return walkExpr(line.If, visit)
	case line.Elif != nil:
		return walkExpr(line.Elif, visit)
	case line.While != nil:
		return walkExpr(line.While, visit)
	case line.For != nil:
		if err := name(line.For.Var, 0); err != nil {
			return err
		}
		return walkExpr(line.For.Iter, visit)
	case line.Assign != nil:
		if err := name(line.Assign.Target, line.Assign.Pos.Column); err != nil {
			return err
		}
		return walkExpr(line.Assign.Value, visit)
	case line.Expr != nil:
		return walkExpr(line.Expr, visit)
	}
	return nil
}

func (p *Parser) checkPrimary(ln *sourceLine, prim *Primary, name func(string, int) error) error {
	var err error
	switch {
	case prim.Name != nil:
		return name(*prim.Name, prim.Pos.Column)
	case prim.Call != nil:
		if err := name(prim.Call.Name, prim.Call.Pos.Column); err != nil {
			return err
		}
		seen := make(map[string]bool)
		for _, arg := range prim.Call.Args {
			if arg.Keyword == nil {
				if len(seen) > 0 {
					return p.errorAt(ln, arg.Value.Pos.Column, "positional argument follows keyword argument")
				}
				continue
			}
			if err := name(*arg.Keyword, arg.Value.Pos.Column); err != nil {
				return err
			}
			if seen[*arg.Keyword] {
				return p.errorAt(ln, arg.Value.Pos.Column, "keyword argument repeated: "+*arg.Keyword)
			}
			seen[*arg.Keyword] = true
		}
	case prim.Int != nil:
		prim.literal, err = parseIntLiteral(*prim.Int)
	case prim.Float != nil:
		prim.literal, err = strconv.ParseFloat(*prim.Float, 64)
		if errors.Is(err, strconv.ErrRange) {
			err = nil
		}
	case prim.String != nil:
		prim.literal, err = unquoteString(*prim.String)
	case prim.Bool != nil:
		prim.literal = *prim.Bool == "True"
	case prim.None:
		prim.literal = None
	}
	if err != nil {
		return p.errorAt(ln, prim.Pos.Column, err.Error())
	}
	return nil
}

func parseIntLiteral(text string) (int64, error) {
	if len(text) > 1 && text[0] == '0' && strings.Trim(text, "0") != "" {
		return 0, errors.New("leading zeros in decimal integer literals are not permitted")
	}
	n, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return 0, errors.New("integer literal is too large")
	}
	return n, nil
}

// unquoteString decodes a single- or double-quoted literal. Unknown escapes
// keep their backslash.
func unquoteString(lit string) (string, error) {
	quote := lit[0]
	body := lit[1 : len(lit)-1]
	var b strings.Builder
	for len(body) > 0 {
		if body[0] != '\\' {
			_, size := utf8.DecodeRuneInString(body)
			b.WriteString(body[:size])
			body = body[size:]
			continue
		}
		c := body[1]
		switch {
		case c == '\'' || c == '"':
			b.WriteByte(c)
			body = body[2:]
		case c >= '0' && c <= '7':
			n, i := 0, 1
			for i < len(body) && i <= 3 && body[i] >= '0' && body[i] <= '7' {
				n = n*8 + int(body[i]-'0')
				i++
			}
			b.WriteRune(rune(n))
			body = body[i:]
		case strings.IndexByte(`abfnrtv\xuU`, c) >= 0:
			r, _, tail, err := strconv.UnquoteChar(body, quote)
			if err != nil {
				return "", fmt.Errorf("invalid escape sequence '\\%c' in string literal", c)
			}
			b.WriteRune(r)
			body = tail
		default:
			b.WriteByte('\\')
			body = body[1:]
		}
	}
	return b.String(), nil
}

// walkExpr calls fn for every primary in e, depth first, left to right
func walkExpr(e *Expr, fn func(*Primary) error) error {
	if e == nil {
		return nil
	}
	for _, and := range append([]*AndExpr{e.Left}, e.Right...) {
		for _, not := range append([]*NotExpr{and.Left}, and.Right...) {
			if err := walkNot(not, fn); err != nil {
				return err
			}
		}
	}
	return nil
}

func walkNot(n *NotExpr, fn func(*Primary) error) error {
	for n.Not != nil {
		n = n.Not
	}
	cmp := n.Compare
	if err := walkSum(cmp.Left, fn); err != nil {
		return err
	}
	for _, op := range cmp.Ops {
		if err := walkSum(op.Right, fn); err != nil {
			return err
		}
	}
	return nil
}

func walkSum(s *Sum, fn func(*Primary) error) error {
	if err := walkTerm(s.Left, fn); err != nil {
		return err
	}
	for _, op := range s.Ops {
		if err := walkTerm(op.Right, fn); err != nil {
			return err
		}
	}
	return nil
}

func walkTerm(t *Term, fn func(*Primary) error) error {
	if err := walkUnary(t.Left, fn); err != nil {
		return err
	}
	for _, op := range t.Ops {
		if err := walkUnary(op.Right, fn); err != nil {
			return err
		}
	}
	return nil
}

func walkUnary(u *Unary, fn func(*Primary) error) error {
	for u.Sign != nil {
		u = u.Sign.Operand
	}
	if err := walkPrimary(u.Power.Base, fn); err != nil {
		return err
	}
	if u.Power.Exponent != nil {
		return walkUnary(u.Power.Exponent, fn)
	}
	return nil
}

func walkPrimary(prim *Primary, fn func(*Primary) error) error {
	if err := fn(prim); err != nil {
		return err
	}
	switch {
	case prim.Sub != nil:
		return walkExpr(prim.Sub, fn)
	case prim.Call != nil:
		for _, arg := range prim.Call.Args {
			if err := walkExpr(arg.Value, fn); err != nil {
				return err
			}
		}
	}
	return nil
}
