package anubad

import (
	"context"
	"strings"
	"time"
)

// loopSignal carries break and continue out of a loop body
type loopSignal int

const (
	signalBreak loopSignal = iota + 1
	signalContinue
)

func (s loopSignal) Error() string {
	if s == signalBreak {
		return "break"
	}
	return "continue"
}

// Executor evaluates validated programs
type Executor struct {
	config *Config
	logger *Logger
}

// NewExecutor creates a new program executor
func NewExecutor(config *Config, logger *Logger) *Executor {
	return &Executor{config: config, logger: logger}
}

// Evaluate runs program against caps and returns its captured output. The
// output is discarded when the run fails.
func (e *Executor) Evaluate(ctx context.Context, program *Program, caps *CapabilitySet) (string, error) {
	state, err := e.execute(ctx, program, caps)
	if err != nil {
		return "", err
	}
	return state.Output(), nil
}

func (e *Executor) execute(ctx context.Context, program *Program, caps *CapabilitySet) (*ExecutionState, error) {
	state := NewExecutionState(ctx, e.config)
	if err := ctx.Err(); err != nil {
		return nil, state.timeout(err)
	}

	ev := &evaluation{ExecutionState: state, caps: caps, logger: e.logger}
	err := ev.block(program.Body)
	e.logger.Debug(CatEval, "Evaluated %d steps in %s", state.Steps(), time.Since(state.started))
	if err != nil {
		return nil, err
	}
	return state, nil
}

// evaluation walks the statement tree of one run
type evaluation struct {
	*ExecutionState
	caps   *CapabilitySet
	logger *Logger
}

func (ev *evaluation) block(stmts []Stmt) error {
	for _, stmt := range stmts {
		if err := ev.statement(stmt); err != nil {
			return err
		}
	}
	return nil
}

func (ev *evaluation) statement(stmt Stmt) error {
	if err := ev.step(); err != nil {
		return err
	}

	switch st := stmt.(type) {
	case *AssignStmt:
		value, err := ev.expr(st.Value, st.Line)
		if err != nil {
			return err
		}
		if st.Op != "=" {
			current, err := ev.lookup(st.Target, st.Line)
			if err != nil {
				return err
			}
			value, err = ev.binaryOp(strings.TrimSuffix(st.Op, "="), current, value, st.Line)
			if err != nil {
				return err
			}
		}
		ev.Set(st.Target, value)
		return nil

	case *ExprStmt:
		_, err := ev.expr(st.Expr, st.Line)
		return err

	case *IfStmt:
		for _, branch := range st.Branches {
			cond, err := ev.expr(branch.Cond, branch.Line)
			if err != nil {
				return err
			}
			if Truthy(cond) {
				return ev.block(branch.Body)
			}
		}
		return ev.block(st.Else)

	case *WhileStmt:
		for {
			cond, err := ev.expr(st.Cond, st.Line)
			if err != nil {
				return err
			}
			if !Truthy(cond) {
				return ev.block(st.Else)
			}
			if done, err := ev.loopBody(st.Body); done || err != nil {
				return err
			}
		}

	case *ForStmt:
		return ev.forLoop(st)

	case *BreakStmt:
		return signalBreak

	case *ContinueStmt:
		return signalContinue
	}
	return nil
}

// loopBody runs one iteration; done is true after a break
func (ev *evaluation) loopBody(body []Stmt) (done bool, err error) {
	switch err := ev.block(body); err {
	case nil, signalContinue:
	case signalBreak:
		return true, nil
	default:
		return true, err
	}
	return false, ev.step()
}

func (ev *evaluation) forLoop(st *ForStmt) error {
	iterable, err := ev.expr(st.Iter, st.Line)
	if err != nil {
		return err
	}

	switch it := iterable.(type) {
	case RangeValue:
		n := it.Len()
		for i := int64(0); i < n; i++ {
			ev.Set(st.Var, it.At(i))
			if done, err := ev.loopBody(st.Body); done || err != nil {
				return err
			}
		}
	case string:
		for _, r := range it {
			ev.Set(st.Var, string(r))
			if done, err := ev.loopBody(st.Body); done || err != nil {
				return err
			}
		}
	default:
		return newRuntimeError(TypeError, st.Line, "'%s' object is not iterable", TypeName(iterable))
	}
	return ev.block(st.Else)
}

func (ev *evaluation) lookup(name string, line int) (interface{}, error) {
	if v, ok := ev.Get(name); ok {
		return v, nil
	}
	if b, ok := ev.caps.Lookup(name); ok {
		return b, nil
	}
	return nil, newRuntimeError(NameError, line, "name '%s' is not defined", name)
}

func (ev *evaluation) expr(e *Expr, line int) (interface{}, error) {
	left, err := ev.and(e.Left, line)
	if err != nil {
		return nil, err
	}
	for _, right := range e.Right {
		if Truthy(left) {
			return left, nil
		}
		if left, err = ev.and(right, line); err != nil {
			return nil, err
		}
	}
	return left, nil
}

func (ev *evaluation) and(a *AndExpr, line int) (interface{}, error) {
	left, err := ev.not(a.Left, line)
	if err != nil {
		return nil, err
	}
	for _, right := range a.Right {
		if !Truthy(left) {
			return left, nil
		}
		if left, err = ev.not(right, line); err != nil {
			return nil, err
		}
	}
	return left, nil
}

func (ev *evaluation) not(n *NotExpr, line int) (interface{}, error) {
	negations := 0
	for n.Not != nil {
		negations++
		n = n.Not
	}
	v, err := ev.compare(n.Compare, line)
	if err != nil || negations == 0 {
		return v, err
	}
	return Truthy(v) != (negations%2 == 1), nil
}

func (ev *evaluation) compare(c *Comparison, line int) (interface{}, error) {
	left, err := ev.sum(c.Left, line)
	if err != nil || len(c.Ops) == 0 {
		return left, err
	}
	for _, op := range c.Ops {
		right, err := ev.sum(op.Right, line)
		if err != nil {
			return nil, err
		}
		ok, err := compareOp(op.Op, left, right, line)
		if err != nil {
			return nil, err
		}
		if !ok {
			return false, nil
		}
		left = right
	}
	return true, nil
}

func (ev *evaluation) sum(s *Sum, line int) (interface{}, error) {
	left, err := ev.term(s.Left, line)
	if err != nil {
		return nil, err
	}
	for _, op := range s.Ops {
		right, err := ev.term(op.Right, line)
		if err != nil {
			return nil, err
		}
		if left, err = ev.binaryOp(op.Op, left, right, line); err != nil {
			return nil, err
		}
	}
	return left, nil
}

func (ev *evaluation) term(t *Term, line int) (interface{}, error) {
	left, err := ev.unary(t.Left, line)
	if err != nil {
		return nil, err
	}
	for _, op := range t.Ops {
		right, err := ev.unary(op.Right, line)
		if err != nil {
			return nil, err
		}
		if left, err = ev.binaryOp(op.Op, left, right, line); err != nil {
			return nil, err
		}
	}
	return left, nil
}

func (ev *evaluation) unary(u *Unary, line int) (interface{}, error) {
	if u.Sign != nil {
		v, err := ev.unary(u.Sign.Operand, line)
		if err != nil {
			return nil, err
		}
		return unaryOp(u.Sign.Op, v, line)
	}

	base, err := ev.primary(u.Power.Base, line)
	if err != nil || u.Power.Exponent == nil {
		return base, err
	}
	exp, err := ev.unary(u.Power.Exponent, line)
	if err != nil {
		return nil, err
	}
	return ev.binaryOp("**", base, exp, line)
}

func (ev *evaluation) primary(p *Primary, line int) (interface{}, error) {
	switch {
	case p.Call != nil:
		return ev.call(p.Call, line)
	case p.Name != nil:
		return ev.lookup(*p.Name, line)
	case p.Sub != nil:
		return ev.expr(p.Sub, line)
	}
	return p.literal, nil
}

func (ev *evaluation) call(c *Call, line int) (interface{}, error) {
	callee, err := ev.lookup(c.Name, line)
	if err != nil {
		return nil, err
	}
	builtin, ok := callee.(*Builtin)
	if !ok {
		return nil, newRuntimeError(TypeError, line, "'%s' object is not callable", TypeName(callee))
	}

	ctx := &CallContext{
		Name:     builtin.Name,
		Position: &SourcePosition{Line: line, Column: c.Pos.Column},
		state:    ev.ExecutionState,
	}
	for _, arg := range c.Args {
		v, err := ev.expr(arg.Value, line)
		if err != nil {
			return nil, err
		}
		if arg.Keyword == nil {
			ctx.Args = append(ctx.Args, v)
			continue
		}
		if ctx.Kwargs == nil {
			ctx.Kwargs = make(map[string]interface{})
		}
		ctx.Kwargs[*arg.Keyword] = v
	}

	ev.logger.Trace(CatCapability, "%s() with %d args on line %d", builtin.Name, len(ctx.Args), line)
	return builtin.Fn(ctx)
}
