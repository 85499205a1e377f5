package program

import (
	"github.com/pkg/errors"
)

// Validate checks that every index of fn is in range and that sub-expressions
// always have a smaller id than the expression using them, which rules out
// cycles in the expression arena.
func (p *Program) Validate(fn *Function) error {
	if len(fn.Blocks) == 0 {
		return errors.Errorf("function %s has no blocks", fn.Name)
	}
	if fn.Block(fn.Entry) == nil {
		return errors.Errorf("function %s: entry block %d out of range", fn.Name, fn.Entry)
	}
	for i := range fn.Locals {
		if !p.validType(fn.Locals[i].Type) {
			return errors.Errorf("function %s: local %d has unknown type %d", fn.Name, i, fn.Locals[i].Type)
		}
	}
	for _, param := range fn.Params {
		if fn.Local(param.Local) == nil {
			return errors.Errorf("function %s: param local %d out of range", fn.Name, param.Local)
		}
	}
	for i := range fn.Exprs {
		if err := p.validateExpr(fn, ExprID(i+1)); err != nil {
			return errors.Wrapf(err, "function %s", fn.Name)
		}
	}
	for b := range fn.Blocks {
		block := &fn.Blocks[b]
		for _, succ := range block.Succs {
			if fn.Block(succ) == nil {
				return errors.Errorf("function %s: block %d has successor %d out of range", fn.Name, b, succ)
			}
		}
		for s, stmt := range block.Stmts {
			if fn.Expr(stmt.Value) == nil {
				return errors.Errorf("function %s: block %d stmt %d has no value", fn.Name, b, s)
			}
			if stmt.Kind == StmtAssign && fn.Expr(stmt.Place) == nil {
				return errors.Errorf("function %s: block %d stmt %d assigns to no place", fn.Name, b, s)
			}
		}
	}
	return nil
}

func (p *Program) validateExpr(fn *Function, id ExprID) error {
	e := fn.Expr(id)
	if !p.validType(e.Type) {
		return errors.Errorf("expr %d has unknown type %d", id, e.Type)
	}
	for _, child := range e.Children() {
		if child <= NoExpr || child >= id {
			return errors.Errorf("expr %d refers to expr %d", id, child)
		}
	}
	switch e.Kind {
	case ExprLocal:
		if fn.Local(e.Local) == nil {
			return errors.Errorf("expr %d refers to local %d", id, e.Local)
		}
	case ExprField, ExprIndex, ExprDeref, ExprRef:
		if e.Base == NoExpr {
			return errors.Errorf("%s expr %d has no base", e.Kind, id)
		}
	case ExprCompare:
		if len(e.Args) != 2 {
			return errors.Errorf("compare expr %d has %d operands", id, len(e.Args))
		}
	case ExprCall:
		if e.Callee == "" {
			return errors.Errorf("call expr %d has no callee", id)
		}
	case ExprLiteral, ExprConstruct:
	default:
		return errors.Errorf("expr %d has unknown kind %q", id, e.Kind)
	}
	return nil
}

func (p *Program) validType(id TypeID) bool {
	return id == NoType || p.Type(id) != nil
}
