package anubad

// Program is a canonical program that passed validation
type Program struct {
	Body  []Stmt
	Lines []string
}

// Stmt is a statement of a validated program
type Stmt interface {
	stmtLine() int
}

// AssignStmt binds Target, or updates it in place when Op is augmented
type AssignStmt struct {
	Line   int
	Target string
	Op     string
	Value  *Expr
}

// ExprStmt evaluates an expression for its effect
type ExprStmt struct {
	Line int
	Expr *Expr
}

// CondBranch is an if or elif arm
type CondBranch struct {
	Line int
	Cond *Expr
	Body []Stmt
}

type IfStmt struct {
	Line     int
	Branches []CondBranch
	Else     []Stmt
}

// WhileStmt runs Else when the condition turns false without a break
type WhileStmt struct {
	Line int
	Cond *Expr
	Body []Stmt
	Else []Stmt
}

// ForStmt iterates a range or the characters of a string
type ForStmt struct {
	Line int
	Var  string
	Iter *Expr
	Body []Stmt
	Else []Stmt
}

type PassStmt struct{ Line int }

type BreakStmt struct{ Line int }

type ContinueStmt struct{ Line int }

func (s *AssignStmt) stmtLine() int   { return s.Line }
func (s *ExprStmt) stmtLine() int     { return s.Line }
func (s *IfStmt) stmtLine() int       { return s.Line }
func (s *WhileStmt) stmtLine() int    { return s.Line }
func (s *ForStmt) stmtLine() int      { return s.Line }
func (s *PassStmt) stmtLine() int     { return s.Line }
func (s *BreakStmt) stmtLine() int    { return s.Line }
func (s *ContinueStmt) stmtLine() int { return s.Line }
