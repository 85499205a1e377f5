// Package program is the intermediate model consumed by every check: one CFG
// and expression arena per function plus the type descriptors of the whole
// program. All references are integer indices so a model can be decoded from a
// file, shared between goroutines read-only, and never forms pointer cycles.
package program

import (
	"fmt"
	"strconv"
	"strings"
)

type (
	// TypeID indexes Program.Types, starting at 1. Zero means "no type".
	TypeID int
	// ExprID indexes Function.Exprs, starting at 1. Zero means "no expression".
	ExprID int
	// BlockID indexes Function.Blocks, starting at 0.
	BlockID int
	// LocalID indexes Function.Locals, starting at 0.
	LocalID int
)

const (
	NoType  TypeID  = 0
	NoExpr  ExprID  = 0
	NoBlock BlockID = -1
)

// Pos is a source location reported with diagnostics.
type Pos struct {
	File string `yaml:"file,omitempty" json:"file,omitempty"`
	Line int    `yaml:"line,omitempty" json:"line,omitempty"`
	Col  int    `yaml:"col,omitempty" json:"col,omitempty"`
}

func (p Pos) IsValid() bool {
	return p.Line > 0
}

func (p Pos) String() string {
	if !p.IsValid() {
		return p.File
	}
	if p.Col > 0 {
		return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Col)
	}
	return fmt.Sprintf("%s:%d", p.File, p.Line)
}

// Before orders positions by file, line and column.
func (p Pos) Before(o Pos) bool {
	if p.File != o.File {
		return p.File < o.File
	}
	if p.Line != o.Line {
		return p.Line < o.Line
	}
	return p.Col < o.Col
}

type ExprKind string

const (
	ExprLocal     ExprKind = "local"
	ExprField     ExprKind = "field"
	ExprCall      ExprKind = "call"
	ExprCompare   ExprKind = "compare"
	ExprLiteral   ExprKind = "literal"
	ExprConstruct ExprKind = "construct"
	ExprIndex     ExprKind = "index"
	ExprDeref     ExprKind = "deref"
	ExprRef       ExprKind = "ref"
)

type CompareOp string

const (
	OpEq CompareOp = "=="
	OpNe CompareOp = "!="
	OpLt CompareOp = "<"
	OpLe CompareOp = "<="
	OpGt CompareOp = ">"
	OpGe CompareOp = ">="
)

// IsEquality reports whether the operator is == or !=.
func (op CompareOp) IsEquality() bool {
	return op == OpEq || op == OpNe
}

// FieldInit is one named field of an aggregate construction.
type FieldInit struct {
	Name  string `yaml:"name" json:"name"`
	Value ExprID `yaml:"value" json:"value"`
}

// Expr is a tagged variant; which fields are meaningful depends on Kind.
//
//	local     Local
//	field     Base, Field
//	call      Callee, Base (receiver, optional), Args
//	compare   Op, Args[0], Args[1]
//	literal   Value
//	construct Ctor, Variant, Fields (struct/enum) or Args (array elements)
//	index     Base, Args[0]
//	deref     Base
//	ref       Base
type Expr struct {
	Kind    ExprKind    `yaml:"kind" json:"kind"`
	Type    TypeID      `yaml:"type,omitempty" json:"type,omitempty"`
	Pos     Pos         `yaml:"pos,omitempty" json:"pos,omitempty"`
	Local   LocalID     `yaml:"local,omitempty" json:"local,omitempty"`
	Base    ExprID      `yaml:"base,omitempty" json:"base,omitempty"`
	Field   string      `yaml:"field,omitempty" json:"field,omitempty"`
	Callee  string      `yaml:"callee,omitempty" json:"callee,omitempty"`
	Args    []ExprID    `yaml:"args,omitempty" json:"args,omitempty"`
	Op      CompareOp   `yaml:"op,omitempty" json:"op,omitempty"`
	Value   string      `yaml:"value,omitempty" json:"value,omitempty"`
	Ctor    string      `yaml:"ctor,omitempty" json:"ctor,omitempty"`
	Variant string      `yaml:"variant,omitempty" json:"variant,omitempty"`
	Fields  []FieldInit `yaml:"fields,omitempty" json:"fields,omitempty"`
}

// Children returns the sub-expressions of e in evaluation order.
func (e *Expr) Children() []ExprID {
	var out []ExprID
	if e.Base != NoExpr {
		out = append(out, e.Base)
	}
	out = append(out, e.Args...)
	for _, f := range e.Fields {
		out = append(out, f.Value)
	}
	return out
}

// Method returns the last segment of a callee path: "invoke" for
// "solana_program::program::invoke".
func (e *Expr) Method() string {
	return LastSegment(e.Callee)
}

// IntLiteral parses an integer literal, ignoring digit separators and a type
// suffix such as "0u64", "0_u8" or "8usize".
func (e *Expr) IntLiteral() (int64, bool) {
	if e.Kind != ExprLiteral {
		return 0, false
	}
	digits := strings.ReplaceAll(e.Value, "_", "")
	for _, suffix := range intSuffixes {
		if strings.HasSuffix(digits, suffix) {
			digits = strings.TrimSuffix(digits, suffix)
			break
		}
	}
	if digits == "" {
		return 0, false
	}
	v, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

var intSuffixes = []string{
	"usize", "isize",
	"u128", "i128",
	"u64", "i64",
	"u32", "i32",
	"u16", "i16",
	"u8", "i8",
}

// IsZero reports whether e is the integer literal zero.
func (e *Expr) IsZero() bool {
	v, ok := e.IntLiteral()
	return ok && v == 0
}

// FieldValue returns the value of a named field initializer.
func (e *Expr) FieldValue(name string) (ExprID, bool) {
	for _, f := range e.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return NoExpr, false
}

type StmtKind string

const (
	StmtAssign StmtKind = "assign"
	StmtEval   StmtKind = "eval"
)

// Stmt is either `Place = Value` or a bare evaluation of Value.
type Stmt struct {
	Kind  StmtKind `yaml:"kind" json:"kind"`
	Place ExprID   `yaml:"place,omitempty" json:"place,omitempty"`
	Value ExprID   `yaml:"value" json:"value"`
}

type Block struct {
	Stmts []Stmt    `yaml:"stmts,omitempty" json:"stmts,omitempty"`
	Succs []BlockID `yaml:"succs,omitempty" json:"succs,omitempty"`
}

type Local struct {
	Name string `yaml:"name" json:"name"`
	Type TypeID `yaml:"type,omitempty" json:"type,omitempty"`
}

// Param marks a local as a function parameter. Markers carry declared facts
// such as "signer".
type Param struct {
	Local   LocalID  `yaml:"local" json:"local"`
	Markers []string `yaml:"markers,omitempty" json:"markers,omitempty"`
}

func (p Param) HasMarker(marker string) bool {
	for _, m := range p.Markers {
		if m == marker {
			return true
		}
	}
	return false
}

type Function struct {
	Name   string  `yaml:"name" json:"name"`
	Pos    Pos     `yaml:"pos,omitempty" json:"pos,omitempty"`
	Params []Param `yaml:"params,omitempty" json:"params,omitempty"`
	Locals []Local `yaml:"locals,omitempty" json:"locals,omitempty"`
	Blocks []Block `yaml:"blocks" json:"blocks"`
	Entry  BlockID `yaml:"entry,omitempty" json:"entry,omitempty"`
	Exprs  []Expr  `yaml:"exprs,omitempty" json:"exprs,omitempty"`
	// Generated is set for bodies produced by macro expansion.
	Generated bool `yaml:"generated,omitempty" json:"generated,omitempty"`
	// Unmodeled is set by the front end when it could not lower the body.
	Unmodeled bool `yaml:"unmodeled,omitempty" json:"unmodeled,omitempty"`
}

func (fn *Function) Expr(id ExprID) *Expr {
	if id <= NoExpr || int(id) > len(fn.Exprs) {
		return nil
	}
	return &fn.Exprs[id-1]
}

func (fn *Function) Block(id BlockID) *Block {
	if id < 0 || int(id) >= len(fn.Blocks) {
		return nil
	}
	return &fn.Blocks[id]
}

func (fn *Function) Local(id LocalID) *Local {
	if id < 0 || int(id) >= len(fn.Locals) {
		return nil
	}
	return &fn.Locals[id]
}

// Param returns the parameter declaration of a local, if it is one.
func (fn *Function) Param(id LocalID) (Param, bool) {
	for _, p := range fn.Params {
		if p.Local == id {
			return p, true
		}
	}
	return Param{}, false
}

// Loc addresses one statement of a function.
type Loc struct {
	Block BlockID
	Stmt  int
}

// Before reports whether l precedes o inside the same block.
func (l Loc) Before(o Loc) bool {
	return l.Block == o.Block && l.Stmt < o.Stmt
}

// Visit calls f for every expression reachable from the statements of fn, in
// block order, statement order, and post-order within a statement (operands
// before the expression using them). Validate guarantees termination.
func (fn *Function) Visit(f func(loc Loc, id ExprID)) {
	for b := range fn.Blocks {
		for s, stmt := range fn.Blocks[b].Stmts {
			loc := Loc{Block: BlockID(b), Stmt: s}
			if stmt.Place != NoExpr {
				fn.visitExpr(loc, stmt.Place, f)
			}
			fn.visitExpr(loc, stmt.Value, f)
		}
	}
}

// VisitExpr walks the subtree rooted at id in post-order.
func (fn *Function) VisitExpr(id ExprID, f func(id ExprID)) {
	fn.visitExpr(Loc{}, id, func(_ Loc, id ExprID) { f(id) })
}

func (fn *Function) visitExpr(loc Loc, id ExprID, f func(Loc, ExprID)) {
	e := fn.Expr(id)
	if e == nil {
		return
	}
	for _, child := range e.Children() {
		fn.visitExpr(loc, child, f)
	}
	f(loc, id)
}

type TypeKind string

const (
	KindStruct TypeKind = "struct"
	KindEnum   TypeKind = "enum"
	KindOther  TypeKind = "other"
)

// Constraint is a declaration-time account constraint, e.g. `signer`,
// `seeds`, `bump`, or `constraint` with the raw expression in Args.
type Constraint struct {
	Kind string   `yaml:"kind" json:"kind"`
	Args []string `yaml:"args,omitempty" json:"args,omitempty"`
}

type Field struct {
	Name        string       `yaml:"name" json:"name"`
	Type        TypeID       `yaml:"type,omitempty" json:"type,omitempty"`
	Pos         Pos          `yaml:"pos,omitempty" json:"pos,omitempty"`
	Constraints []Constraint `yaml:"constraints,omitempty" json:"constraints,omitempty"`
}

// HasConstraint reports whether any of kinds is declared on the field.
func (f *Field) HasConstraint(kinds ...string) bool {
	for _, c := range f.Constraints {
		for _, k := range kinds {
			if c.Kind == k {
				return true
			}
		}
	}
	return false
}

// Type is a nominal type descriptor with its declared facts.
type Type struct {
	Name     string   `yaml:"name" json:"name"`
	Kind     TypeKind `yaml:"kind,omitempty" json:"kind,omitempty"`
	Args     []TypeID `yaml:"args,omitempty" json:"args,omitempty"`
	Traits   []string `yaml:"traits,omitempty" json:"traits,omitempty"`
	Attrs    []string `yaml:"attrs,omitempty" json:"attrs,omitempty"`
	Fields   []Field  `yaml:"fields,omitempty" json:"fields,omitempty"`
	Variants int      `yaml:"variants,omitempty" json:"variants,omitempty"`
	Pos      Pos      `yaml:"pos,omitempty" json:"pos,omitempty"`
}

func (t *Type) IsStruct() bool { return t.Kind == KindStruct }
func (t *Type) IsEnum() bool   { return t.Kind == KindEnum }

func (t *Type) Implements(trait string) bool {
	return contains(t.Traits, trait)
}

func (t *Type) HasAttr(attr string) bool {
	return contains(t.Attrs, attr)
}

func (t *Type) Field(name string) (*Field, bool) {
	for i := range t.Fields {
		if t.Fields[i].Name == name {
			return &t.Fields[i], true
		}
	}
	return nil, false
}

// ShortName is the last path segment of the type name.
func (t *Type) ShortName() string {
	return LastSegment(t.Name)
}

type Program struct {
	Name      string     `yaml:"name" json:"name"`
	Types     []Type     `yaml:"types,omitempty" json:"types,omitempty"`
	Functions []Function `yaml:"functions,omitempty" json:"functions,omitempty"`
}

func (p *Program) Type(id TypeID) *Type {
	if id <= NoType || int(id) > len(p.Types) {
		return nil
	}
	return &p.Types[id-1]
}

// TypeName returns the nominal name of id, or "" when unknown.
func (p *Program) TypeName(id TypeID) string {
	if t := p.Type(id); t != nil {
		return t.Name
	}
	return ""
}

// Enums returns every enum type of the program in declaration order.
func (p *Program) Enums() []TypeID {
	var out []TypeID
	for i := range p.Types {
		if p.Types[i].IsEnum() {
			out = append(out, TypeID(i+1))
		}
	}
	return out
}

// LastSegment returns the part after the final "::".
func LastSegment(path string) string {
	if i := strings.LastIndex(path, "::"); i >= 0 {
		return path[i+2:]
	}
	return path
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
