package module

import (
	"sealscan/internal/alias"
	"sealscan/internal/dominance"
	"sealscan/internal/program"
)

// FuncContext is everything a rule needs to check one function. It is built
// once per function and shared read-only by every enabled module.
type FuncContext struct {
	Program *program.Program
	Func    *program.Function
	Aliases *alias.Tracker
	Dom     *dominance.Tree

	locs  map[program.ExprID]program.Loc
	order []program.ExprID
}

func NewFuncContext(prog *program.Program, fn *program.Function) *FuncContext {
	fc := &FuncContext{
		Program: prog,
		Func:    fn,
		Aliases: alias.Build(fn),
		Dom:     dominance.Compute(fn),
		locs:    make(map[program.ExprID]program.Loc, len(fn.Exprs)),
	}
	fn.Visit(func(loc program.Loc, id program.ExprID) {
		if _, ok := fc.locs[id]; ok {
			return
		}
		fc.locs[id] = loc
		fc.order = append(fc.order, id)
	})
	return fc
}

// ProgramContext is handed to modules after every function was checked.
type ProgramContext struct {
	Program *program.Program
}

func (fc *FuncContext) Expr(id program.ExprID) *program.Expr {
	return fc.Func.Expr(id)
}

// Loc returns the statement an expression belongs to. Expressions not used
// by any statement are not part of the body.
func (fc *FuncContext) Loc(id program.ExprID) (program.Loc, bool) {
	loc, ok := fc.locs[id]
	return loc, ok
}

// Each calls f for every expression of the body in evaluation order.
func (fc *FuncContext) Each(f func(loc program.Loc, id program.ExprID, e *program.Expr)) {
	for _, id := range fc.order {
		f(fc.locs[id], id, fc.Func.Expr(id))
	}
}

// EachStmt calls f for every statement of the body in block order.
func (fc *FuncContext) EachStmt(f func(loc program.Loc, stmt *program.Stmt)) {
	for b := range fc.Func.Blocks {
		for s := range fc.Func.Blocks[b].Stmts {
			f(program.Loc{Block: program.BlockID(b), Stmt: s}, &fc.Func.Blocks[b].Stmts[s])
		}
	}
}

// Stmt returns the statement at loc.
func (fc *FuncContext) Stmt(loc program.Loc) *program.Stmt {
	block := fc.Func.Block(loc.Block)
	if block == nil || loc.Stmt < 0 || loc.Stmt >= len(block.Stmts) {
		return nil
	}
	return &block.Stmts[loc.Stmt]
}

// TypeOf returns the type descriptor of an expression.
func (fc *FuncContext) TypeOf(id program.ExprID) *program.Type {
	e := fc.Func.Expr(id)
	if e == nil {
		return nil
	}
	return fc.Program.Type(e.Type)
}

// TypeMatches reports whether the type of an expression is one of ids.
func (fc *FuncContext) TypeMatches(id program.ExprID, ids Identity) bool {
	t := fc.TypeOf(id)
	return t != nil && ids.Match(t.Name)
}

// Pos returns the position of an expression, or of the function when the
// expression has none.
func (fc *FuncContext) Pos(id program.ExprID) program.Pos {
	if e := fc.Func.Expr(id); e != nil && e.Pos.IsValid() {
		return e.Pos
	}
	return fc.Func.Pos
}

// Peel strips derefs, borrows and the transparent conversions of the alias
// tracker, except to_account_info which exemptions need to see.
func (fc *FuncContext) Peel(id program.ExprID) program.ExprID {
	for steps := 0; steps <= len(fc.Func.Exprs); steps++ {
		e := fc.Func.Expr(id)
		if e == nil {
			return id
		}
		switch {
		case e.Kind == program.ExprDeref || e.Kind == program.ExprRef:
			id = e.Base
		case e.Kind == program.ExprCall && e.Base != program.NoExpr && len(e.Args) == 0 &&
			alias.IsTransparent(e.Method()) && !ToAccountInfo.Match(e.Method()):
			id = e.Base
		default:
			return id
		}
	}
	return id
}

// Unwrap returns the payload type of Result<T, _>, Option<T> and Box<T>, or
// id itself.
func (fc *FuncContext) Unwrap(id program.TypeID) program.TypeID {
	return unwrapType(fc.Program, id)
}

func unwrapType(prog *program.Program, id program.TypeID) program.TypeID {
	for i := 0; i < 4; i++ {
		t := prog.Type(id)
		if t == nil || len(t.Args) == 0 {
			return id
		}
		switch t.ShortName() {
		case "Result", "Option", "Box":
			id = t.Args[0]
		default:
			return id
		}
	}
	return id
}
