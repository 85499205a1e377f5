package module

import (
	"fmt"
	"strings"

	"sealscan/internal/alias"
	"sealscan/internal/program"
)

// Sink is a sensitive operation. Operand is the value that must be checked
// and Path its canonical access path; a sink without a path stands for the
// whole function.
type Sink struct {
	Loc       program.Loc
	Expr      program.ExprID
	Operand   program.ExprID
	Path      alias.Path
	HasPath   bool
	Type      program.TypeID
	Message   string
	Secondary []program.Pos
}

// Guard is a check expression. A wildcard guard could not be tied to any
// access path. Declared guards come from declarations (parameter markers,
// account constraints) and hold from the function entry.
type Guard struct {
	Loc      program.Loc
	Expr     program.ExprID
	Path     alias.Path
	Wildcard bool
	Declared bool
}

func (g *Guard) Covers(s *Sink) bool {
	return g.Wildcard || !s.HasPath || g.Path.Equal(s.Path)
}

type SinkPattern interface {
	fmt.Stringer
	Sinks(fc *FuncContext) []Sink
}

type GuardPattern interface {
	fmt.Stringer
	Guards(fc *FuncContext, sinks []Sink) []Guard
}

type ExemptionPattern interface {
	fmt.Stringer
	Exempts(fc *FuncContext, s *Sink) bool
}

func (fc *FuncContext) newSink(loc program.Loc, expr, operand program.ExprID) Sink {
	s := Sink{Loc: loc, Expr: expr, Operand: operand}
	if path, ok := fc.Aliases.Path(operand); ok {
		s.Path, s.HasPath = path, true
	}
	return s
}

func (fc *FuncContext) newGuard(loc program.Loc, expr, target program.ExprID) Guard {
	g := Guard{Loc: loc, Expr: expr}
	if path, ok := fc.Aliases.Path(target); ok {
		g.Path = path
	} else {
		g.Wildcard = true
	}
	return g
}

func (fc *FuncContext) declaredGuard(path alias.Path) Guard {
	return Guard{Loc: program.Loc{Block: fc.Func.Entry, Stmt: -1}, Path: path, Declared: true}
}

func matchMethod(methods []string, e *program.Expr) bool {
	for _, m := range methods {
		if e.Method() == m {
			return true
		}
	}
	return false
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// keyBase returns the account whose key e reads: `x.key` or `x.key()`.
func (fc *FuncContext) keyBase(id program.ExprID) (program.ExprID, bool) {
	e := fc.Expr(fc.Peel(id))
	if e == nil {
		return program.NoExpr, false
	}
	switch {
	case e.Kind == program.ExprField && e.Field == "key":
		return e.Base, true
	case e.Kind == program.ExprCall && e.Base != program.NoExpr && len(e.Args) == 0 && e.Method() == "key":
		return e.Base, true
	}
	return program.NoExpr, false
}

// ownerOfBuffer cuts a path at the buffer projection: `x.data[]` is owned by
// `x`.
func ownerOfBuffer(p alias.Path, buffer string) (alias.Path, bool) {
	for i, proj := range p.Projs {
		if proj == buffer {
			return alias.Path{Root: p.Root, Projs: p.Projs[:i]}, true
		}
	}
	return p, false
}

// constrained reports whether the value of id is read through an accounts
// struct field that declares one of kinds.
func (fc *FuncContext) constrained(id program.ExprID, kinds []string) bool {
	for steps := 0; steps <= len(fc.Func.Exprs); steps++ {
		e := fc.Expr(id)
		if e == nil {
			return false
		}
		switch e.Kind {
		case program.ExprField:
			if t := fc.Program.Type(fc.Unwrap(fc.Expr(e.Base).Type)); t != nil && t.IsStruct() {
				if f, ok := t.Field(e.Field); ok && f.HasConstraint(kinds...) {
					return true
				}
			}
			id = e.Base
		case program.ExprDeref, program.ExprRef, program.ExprIndex:
			id = e.Base
		case program.ExprCall:
			if e.Base == program.NoExpr || len(e.Args) != 0 {
				return false
			}
			id = e.Base
		case program.ExprLocal:
			id = fc.Aliases.Origin(e.Local)
		default:
			return false
		}
	}
	return false
}

// TypedUse matches every non-local expression of one of Types, once per
// canonical access path.
type TypedUse struct {
	Types Identity
	Skip  Identity
}

func (p TypedUse) String() string {
	return fmt.Sprintf("use of %s", strings.Join(p.Types, " | "))
}

func (p TypedUse) Sinks(fc *FuncContext) []Sink {
	var (
		sinks []Sink
		seen  = make(map[string]bool)
	)
	fc.Each(func(loc program.Loc, id program.ExprID, e *program.Expr) {
		if e.Kind == program.ExprLocal || !fc.TypeMatches(id, p.Types) {
			return
		}
		if e.Kind == program.ExprCall && p.Skip.Match(e.Callee) {
			return
		}
		s := fc.newSink(loc, id, id)
		if !s.HasPath {
			// `let a = next_account_info(iter)?` is checked through `a`
			if stmt := fc.Stmt(loc); stmt != nil && stmt.Kind == program.StmtAssign && stmt.Value == id {
				s.Path, s.HasPath = fc.Aliases.Path(stmt.Place)
			}
		}
		key := fmt.Sprintf("#%d", id)
		if s.HasPath {
			key = s.Path.Key()
		}
		if seen[key] {
			return
		}
		seen[key] = true
		sinks = append(sinks, s)
	})
	return sinks
}

// CallArg matches calls to Callees; the operand is argument Arg, or the
// receiver when Arg is negative, extended by Project.
type CallArg struct {
	Callees Identity
	Arg     int
	Project []string
}

func (p CallArg) String() string {
	operand := "receiver"
	if p.Arg >= 0 {
		operand = fmt.Sprintf("arg %d", p.Arg)
	}
	if len(p.Project) > 0 {
		operand += "." + strings.Join(p.Project, ".")
	}
	return fmt.Sprintf("call %s (%s)", strings.Join(p.Callees, " | "), operand)
}

func (p CallArg) Sinks(fc *FuncContext) []Sink {
	var sinks []Sink
	fc.Each(func(loc program.Loc, id program.ExprID, e *program.Expr) {
		if e.Kind != program.ExprCall || !p.Callees.Match(e.Callee) {
			return
		}
		operand := e.Base
		if p.Arg >= 0 {
			operand = program.NoExpr
			if p.Arg < len(e.Args) {
				operand = e.Args[p.Arg]
			}
		}
		s := fc.newSink(loc, id, operand)
		if s.HasPath && len(p.Project) > 0 {
			s.Path = s.Path.Append(p.Project...)
		}
		sinks = append(sinks, s)
	})
	return sinks
}

// ConstructField matches aggregate constructions of Types; the operand is
// the value given to Field.
type ConstructField struct {
	Types Identity
	Field string
}

func (p ConstructField) String() string {
	return fmt.Sprintf("construct %s { %s }", strings.Join(p.Types, " | "), p.Field)
}

func (p ConstructField) Sinks(fc *FuncContext) []Sink {
	var sinks []Sink
	fc.Each(func(loc program.Loc, id program.ExprID, e *program.Expr) {
		if e.Kind != program.ExprConstruct || !(p.Types.Match(e.Ctor) || fc.TypeMatches(id, p.Types)) {
			return
		}
		if value, ok := e.FieldValue(p.Field); ok {
			sinks = append(sinks, fc.newSink(loc, id, value))
		}
	})
	return sinks
}

// SeedBump matches address derivations; the operand is the bump, the single
// element of the last seed: `&[seed, ..., &[bump]]`.
type SeedBump struct {
	Callees Identity
	// AnchorMessage and StructMessage replace the default message when the
	// bump is read from an Anchor account or from another struct.
	AnchorMessage string
	StructMessage string
}

func (p SeedBump) String() string {
	return fmt.Sprintf("bump seed of %s", strings.Join(p.Callees, " | "))
}

func (p SeedBump) Sinks(fc *FuncContext) []Sink {
	var sinks []Sink
	fc.Each(func(loc program.Loc, id program.ExprID, e *program.Expr) {
		if e.Kind != program.ExprCall || !p.Callees.Match(e.Callee) || len(e.Args) == 0 {
			return
		}
		seeds := fc.Expr(fc.Aliases.Resolve(e.Args[0]))
		if !isArray(seeds) || len(seeds.Args) < 2 {
			return
		}
		last := fc.Expr(fc.Aliases.Resolve(seeds.Args[len(seeds.Args)-1]))
		if !isArray(last) || len(last.Args) != 1 {
			return
		}
		bump := last.Args[0]
		s := fc.newSink(loc, id, bump)
		s.Message = p.message(fc, bump)
		sinks = append(sinks, s)
	})
	return sinks
}

func (p SeedBump) message(fc *FuncContext, bump program.ExprID) string {
	origin := fc.Expr(fc.Peel(fc.Aliases.Resolve(bump)))
	if origin == nil || origin.Kind != program.ExprField {
		return ""
	}
	t := fc.Program.Type(fc.Unwrap(fc.Expr(fc.Peel(origin.Base)).Type))
	if t == nil {
		return p.StructMessage
	}
	if t.Implements(TraitAccountDeserialize) {
		return p.AnchorMessage
	}
	for _, arg := range t.Args {
		if a := fc.Program.Type(arg); a != nil && a.Implements(TraitAccountDeserialize) {
			return p.AnchorMessage
		}
	}
	return p.StructMessage
}

func isArray(e *program.Expr) bool {
	return e != nil && e.Kind == program.ExprConstruct && e.Ctor == "" && len(e.Fields) == 0
}

// ZeroAssign matches `place = 0` where place ends in Field; the operand is
// the account owning the field.
type ZeroAssign struct {
	Field string
}

func (p ZeroAssign) String() string {
	return fmt.Sprintf("zero assigned to .%s", p.Field)
}

func (p ZeroAssign) Sinks(fc *FuncContext) []Sink {
	var sinks []Sink
	fc.EachStmt(func(loc program.Loc, stmt *program.Stmt) {
		if stmt.Kind != program.StmtAssign || !fc.Expr(stmt.Value).IsZero() {
			return
		}
		path, ok := fc.Aliases.Path(stmt.Place)
		if !ok || path.Last() != p.Field {
			return
		}
		owner, _ := path.Parent()
		sinks = append(sinks, Sink{Loc: loc, Expr: stmt.Place, Operand: stmt.Place, Path: owner, HasPath: true})
	})
	return sinks
}

// HandlerParam matches the function itself when one of its parameters has
// one of Types.
type HandlerParam struct {
	Types Identity
}

func (p HandlerParam) String() string {
	return fmt.Sprintf("handler taking %s", strings.Join(p.Types, " | "))
}

func (p HandlerParam) Sinks(fc *FuncContext) []Sink {
	for _, param := range fc.Func.Params {
		l := fc.Func.Local(param.Local)
		if l == nil {
			continue
		}
		if t := fc.Program.Type(l.Type); t != nil && p.Types.Match(t.Name) {
			return []Sink{{Loc: program.Loc{Block: fc.Func.Entry}}}
		}
	}
	return nil
}

// TypedCall matches calls by callee path or method name, filtered by the
// type the call is made on (the segment before the method, or the result
// type) and by a trait of the result type. Sink.Type is the result type.
type TypedCall struct {
	Callees     Identity
	Methods     []string
	Owners      []string
	ResultTrait string
	// Format, when set, is the message; its %[1]s verbs receive the owner type.
	Format string
}

func (p TypedCall) String() string {
	var parts []string
	parts = append(parts, p.Callees...)
	parts = append(parts, p.Methods...)
	desc := "call " + strings.Join(parts, " | ")
	if len(p.Owners) > 0 {
		desc += " on " + strings.Join(p.Owners, " | ")
	}
	if p.ResultTrait != "" {
		desc += " returning impl " + p.ResultTrait
	}
	return desc
}

func (p TypedCall) Sinks(fc *FuncContext) []Sink {
	var sinks []Sink
	fc.Each(func(loc program.Loc, id program.ExprID, e *program.Expr) {
		if e.Kind != program.ExprCall || !(p.Callees.Match(e.Callee) || matchMethod(p.Methods, e)) {
			return
		}
		result := fc.Unwrap(e.Type)
		owner := p.owner(fc, e, result)
		if len(p.Owners) > 0 && !contains(p.Owners, owner) {
			return
		}
		if p.ResultTrait != "" {
			if t := fc.Program.Type(result); t == nil || !t.Implements(p.ResultTrait) {
				return
			}
		}
		s := fc.newSink(loc, id, id)
		s.Type = result
		if s.Type == program.NoType {
			s.Type = lookupShort(fc.Program, owner)
		}
		if p.Format != "" {
			s.Message = fmt.Sprintf(p.Format, owner)
		}
		sinks = append(sinks, s)
	})
	return sinks
}

// owner is the type a call is made on: the result type when known, else the
// segment before the method, "Clock" for "Clock::from_account_info".
func (p TypedCall) owner(fc *FuncContext, e *program.Expr, result program.TypeID) string {
	if t := fc.Program.Type(result); t != nil {
		return t.ShortName()
	}
	if i := strings.LastIndex(e.Callee, "::"); i >= 0 {
		if owner := program.LastSegment(e.Callee[:i]); owner != "" && owner[0] >= 'A' && owner[0] <= 'Z' {
			return owner
		}
	}
	return ""
}

func lookupShort(prog *program.Program, name string) program.TypeID {
	if name == "" {
		return program.NoType
	}
	for i := range prog.Types {
		if prog.Types[i].ShortName() == name {
			return program.TypeID(i + 1)
		}
	}
	return program.NoType
}

// FieldRead matches reads of one of Fields; the guarded path is the base.
type FieldRead struct {
	Fields []string
}

func (p FieldRead) String() string {
	return "read of ." + strings.Join(p.Fields, " | .")
}

func (p FieldRead) Guards(fc *FuncContext, _ []Sink) []Guard {
	var guards []Guard
	fc.Each(func(loc program.Loc, id program.ExprID, e *program.Expr) {
		if e.Kind == program.ExprField && contains(p.Fields, e.Field) {
			guards = append(guards, fc.newGuard(loc, id, e.Base))
		}
	})
	return guards
}

// KeyCompare matches `x.key == ...` and `x.key() != ...`; the guarded path
// is x.
type KeyCompare struct{}

func (KeyCompare) String() string {
	return "key comparison"
}

func (KeyCompare) Guards(fc *FuncContext, _ []Sink) []Guard {
	var guards []Guard
	fc.Each(func(loc program.Loc, id program.ExprID, e *program.Expr) {
		if e.Kind != program.ExprCompare || !e.Op.IsEquality() {
			return
		}
		for _, operand := range e.Args {
			if base, ok := fc.keyBase(operand); ok {
				guards = append(guards, fc.newGuard(loc, id, base))
			}
		}
	})
	return guards
}

// OperandCompare matches equality comparisons; every operand with an access
// path is guarded.
type OperandCompare struct{}

func (OperandCompare) String() string {
	return "equality comparison"
}

func (OperandCompare) Guards(fc *FuncContext, _ []Sink) []Guard {
	var guards []Guard
	fc.Each(func(loc program.Loc, id program.ExprID, e *program.Expr) {
		if e.Kind != program.ExprCompare || !e.Op.IsEquality() {
			return
		}
		found := false
		for _, operand := range e.Args {
			if path, ok := fc.Aliases.Path(operand); ok {
				guards = append(guards, Guard{Loc: loc, Expr: id, Path: path})
				found = true
			}
		}
		if !found {
			guards = append(guards, Guard{Loc: loc, Expr: id, Wildcard: true})
		}
	})
	return guards
}

// SignerParam matches parameters declared as signers: a Types parameter, a
// parameter with Marker, or an accounts struct behind a Context parameter
// with a signer field.
type SignerParam struct {
	Types   Identity
	Marker  string
	Context Identity
}

func (p SignerParam) String() string {
	return "declared signer"
}

func (p SignerParam) Guards(fc *FuncContext, _ []Sink) []Guard {
	var guards []Guard
	for _, param := range fc.Func.Params {
		l := fc.Func.Local(param.Local)
		if l == nil {
			continue
		}
		root := alias.Path{Root: param.Local}
		t := fc.Program.Type(l.Type)
		switch {
		case param.HasMarker(p.Marker), t != nil && p.Types.Match(t.Name):
			guards = append(guards, fc.declaredGuard(root))
		case t != nil && p.Context.Match(t.Name) && len(t.Args) > 0:
			accounts := fc.Program.Type(t.Args[0])
			if accounts == nil {
				continue
			}
			for _, f := range accounts.Fields {
				ft := fc.Program.Type(f.Type)
				if f.HasConstraint(p.Marker) || (ft != nil && p.Types.Match(ft.Name)) {
					guards = append(guards, fc.declaredGuard(root.Append("accounts", f.Name)))
				}
			}
		}
	}
	return guards
}

// ZeroLoop matches `buf[i] = 0` inside a CFG loop where i is reassigned on
// the same loop, the way a buffer is cleared byte by byte. The guarded path
// is the account owning Buffer. Places under another projection are
// ignored; a place that cannot be resolved gives a wildcard.
type ZeroLoop struct {
	Buffer string
}

func (p ZeroLoop) String() string {
	return fmt.Sprintf("loop zeroing .%s", p.Buffer)
}

func (p ZeroLoop) Guards(fc *FuncContext, _ []Sink) []Guard {
	var guards []Guard
	fc.EachStmt(func(loc program.Loc, stmt *program.Stmt) {
		if stmt.Kind != program.StmtAssign || !fc.Expr(stmt.Value).IsZero() || !fc.Dom.InLoop(loc.Block) {
			return
		}
		place := fc.Expr(fc.Peel(stmt.Place))
		if place == nil || place.Kind != program.ExprIndex || len(place.Args) != 1 ||
			!fc.loopVarying(loc.Block, place.Args[0]) {
			return
		}
		path, ok := fc.Aliases.Path(stmt.Place)
		if !ok {
			guards = append(guards, Guard{Loc: loc, Expr: stmt.Place, Wildcard: true})
			return
		}
		if owner, ok := ownerOfBuffer(path, p.Buffer); ok {
			guards = append(guards, Guard{Loc: loc, Expr: stmt.Place, Path: owner})
		}
	})
	return guards
}

// loopVarying reports whether index is a local assigned in a block that
// shares a cycle with block.
func (fc *FuncContext) loopVarying(block program.BlockID, index program.ExprID) bool {
	e := fc.Expr(fc.Peel(index))
	if e == nil || e.Kind != program.ExprLocal {
		return false
	}
	varying := false
	fc.EachStmt(func(loc program.Loc, stmt *program.Stmt) {
		if varying || stmt.Kind != program.StmtAssign {
			return
		}
		target := fc.Expr(fc.Peel(stmt.Place))
		if target == nil || target.Kind != program.ExprLocal || target.Local != e.Local {
			return
		}
		varying = loc.Block == block || (fc.Dom.CanReach(block, loc.Block) && fc.Dom.CanReach(loc.Block, block))
	})
	return varying
}

// BufferClear matches calls clearing a buffer in one go, e.g.
// `data.fill(0)` or `sol_memset(data, 0, len)`.
type BufferClear struct {
	Callees Identity
	Buffer  string
}

func (p BufferClear) String() string {
	return fmt.Sprintf("clear .%s with %s", p.Buffer, strings.Join(p.Callees, " | "))
}

func (p BufferClear) Guards(fc *FuncContext, _ []Sink) []Guard {
	var guards []Guard
	fc.Each(func(loc program.Loc, id program.ExprID, e *program.Expr) {
		if e.Kind != program.ExprCall || !p.Callees.Match(e.Callee) {
			return
		}
		target := e.Base
		if target == program.NoExpr && len(e.Args) > 0 {
			target = e.Args[0]
		}
		g := Guard{Loc: loc, Expr: id, Wildcard: true}
		if path, ok := fc.Aliases.Path(target); ok {
			if owner, ok := ownerOfBuffer(path, p.Buffer); ok {
				g.Path, g.Wildcard = owner, false
			}
		}
		guards = append(guards, g)
	})
	return guards
}

// FieldConstraint holds when the operand is read through an accounts struct
// field declaring one of Kinds. It serves both as exemption and as a
// declared guard.
type FieldConstraint struct {
	Kinds []string
}

func (p FieldConstraint) String() string {
	return "field constraint " + strings.Join(p.Kinds, " | ")
}

func (p FieldConstraint) Exempts(fc *FuncContext, s *Sink) bool {
	return s.Operand != program.NoExpr && fc.constrained(s.Operand, p.Kinds)
}

func (p FieldConstraint) Guards(fc *FuncContext, sinks []Sink) []Guard {
	var guards []Guard
	for i := range sinks {
		if sinks[i].HasPath && p.Exempts(fc, &sinks[i]) {
			guards = append(guards, fc.declaredGuard(sinks[i].Path))
		}
	}
	return guards
}

// WrapperReceiver exempts operands produced by a conversion (one of
// Callees) on a receiver of one of Types.
type WrapperReceiver struct {
	Callees Identity
	Types   Identity
}

func (p WrapperReceiver) String() string {
	return fmt.Sprintf("%s on %s", strings.Join(p.Callees, " | "), strings.Join(p.Types, " | "))
}

func (p WrapperReceiver) Exempts(fc *FuncContext, s *Sink) bool {
	id := fc.Aliases.Resolve(s.Operand)
	for steps := 0; steps <= len(fc.Func.Exprs); steps++ {
		e := fc.Expr(id)
		if e == nil || e.Kind != program.ExprCall || e.Base == program.NoExpr {
			return false
		}
		if p.Callees.Match(e.Callee) {
			return fc.TypeMatches(fc.Peel(e.Base), p.Types)
		}
		if len(e.Args) != 0 || !alias.IsTransparent(e.Method()) {
			return false
		}
		id = fc.Aliases.Resolve(e.Base)
	}
	return false
}

// ForceDefund exempts bodies that both copy an initial eight bytes and
// compare an eight-byte array: the pattern of an instruction that refunds
// an account marked closed by its discriminator.
type ForceDefund struct{}

func (ForceDefund) String() string {
	return "force_defund"
}

func (ForceDefund) Exempts(fc *FuncContext, _ *Sink) bool {
	var copied, compared bool
	fc.Each(func(_ program.Loc, _ program.ExprID, e *program.Expr) {
		switch e.Kind {
		case program.ExprCall:
			if CopyFromSlice.Match(e.Method()) && len(e.Args) > 0 && fc.isInitialEightBytes(e.Args[len(e.Args)-1]) {
				copied = true
			}
		case program.ExprCompare:
			if e.Op.IsEquality() && (fc.isEightByteArray(e.Args[0]) || fc.isEightByteArray(e.Args[1])) {
				compared = true
			}
		}
	})
	return copied && compared
}

// isInitialEightBytes matches `&x[0..8]`.
func (fc *FuncContext) isInitialEightBytes(id program.ExprID) bool {
	e := fc.Expr(fc.Peel(id))
	if e == nil || e.Kind != program.ExprIndex || len(e.Args) != 1 {
		return false
	}
	r := fc.Expr(e.Args[0])
	if r == nil || r.Kind != program.ExprConstruct || program.LastSegment(r.Ctor) != "Range" {
		return false
	}
	start, ok1 := r.FieldValue("start")
	end, ok2 := r.FieldValue("end")
	if !ok1 || !ok2 {
		return false
	}
	s, ok1 := fc.Expr(start).IntLiteral()
	n, ok2 := fc.Expr(end).IntLiteral()
	return ok1 && ok2 && s == 0 && n == 8
}

func (fc *FuncContext) isEightByteArray(id program.ExprID) bool {
	t := fc.TypeOf(fc.Peel(id))
	return t != nil && strings.ReplaceAll(t.Name, " ", "") == "[u8;8]"
}
