package program

// Builder assembles a Program in memory. Front ends written in Go and tests
// use it instead of hand-writing index tables.
type Builder struct {
	prog Program
}

func NewBuilder(name string) *Builder {
	return &Builder{prog: Program{Name: name}}
}

func (b *Builder) AddType(t Type) TypeID {
	if t.Kind == "" {
		t.Kind = KindOther
	}
	b.prog.Types = append(b.prog.Types, t)
	return TypeID(len(b.prog.Types))
}

// Named adds an opaque type such as a wrapper or a primitive, optionally
// generic over args.
func (b *Builder) Named(name string, args ...TypeID) TypeID {
	return b.AddType(Type{Name: name, Kind: KindOther, Args: args})
}

func (b *Builder) Struct(name string, fields ...Field) TypeID {
	return b.AddType(Type{Name: name, Kind: KindStruct, Fields: fields})
}

func (b *Builder) Enum(name string, variants int) TypeID {
	return b.AddType(Type{Name: name, Kind: KindEnum, Variants: variants})
}

// Type gives mutable access to a type added earlier, e.g. to attach traits.
func (b *Builder) Type(id TypeID) *Type {
	return b.prog.Type(id)
}

func (b *Builder) AddFunction(fn *Function) {
	b.prog.Functions = append(b.prog.Functions, *fn)
}

func (b *Builder) Build() *Program {
	prog := b.prog
	prog.Types = append([]Type(nil), b.prog.Types...)
	prog.Functions = append([]Function(nil), b.prog.Functions...)
	return &prog
}

// FuncBuilder assembles one function. Expressions get a default position in
// file "<name>.rs" whose line equals the expression id.
type FuncBuilder struct {
	fn Function
}

func NewFunction(name string) *FuncBuilder {
	return &FuncBuilder{fn: Function{Name: name, Pos: Pos{File: name + ".rs"}}}
}

// Block appends an empty block.
func (b *FuncBuilder) Block() BlockID {
	b.fn.Blocks = append(b.fn.Blocks, Block{})
	return BlockID(len(b.fn.Blocks) - 1)
}

func (b *FuncBuilder) Edge(from BlockID, to ...BlockID) *FuncBuilder {
	b.fn.Blocks[from].Succs = append(b.fn.Blocks[from].Succs, to...)
	return b
}

func (b *FuncBuilder) Local(name string, t TypeID) LocalID {
	b.fn.Locals = append(b.fn.Locals, Local{Name: name, Type: t})
	return LocalID(len(b.fn.Locals) - 1)
}

func (b *FuncBuilder) Param(name string, t TypeID, markers ...string) LocalID {
	id := b.Local(name, t)
	b.fn.Params = append(b.fn.Params, Param{Local: id, Markers: markers})
	return id
}

func (b *FuncBuilder) add(e Expr) ExprID {
	id := ExprID(len(b.fn.Exprs) + 1)
	if e.Pos == (Pos{}) {
		e.Pos = Pos{File: b.fn.Pos.File, Line: int(id)}
	}
	b.fn.Exprs = append(b.fn.Exprs, e)
	return id
}

func (b *FuncBuilder) Use(l LocalID) ExprID {
	return b.add(Expr{Kind: ExprLocal, Local: l, Type: b.fn.Locals[l].Type})
}

func (b *FuncBuilder) Field(base ExprID, name string, t TypeID) ExprID {
	return b.add(Expr{Kind: ExprField, Base: base, Field: name, Type: t})
}

// Call adds a call; recv is NoExpr for a free function.
func (b *FuncBuilder) Call(callee string, recv ExprID, t TypeID, args ...ExprID) ExprID {
	return b.add(Expr{Kind: ExprCall, Callee: callee, Base: recv, Type: t, Args: args})
}

func (b *FuncBuilder) Compare(op CompareOp, lhs, rhs ExprID) ExprID {
	return b.add(Expr{Kind: ExprCompare, Op: op, Args: []ExprID{lhs, rhs}})
}

func (b *FuncBuilder) Lit(value string, t TypeID) ExprID {
	return b.add(Expr{Kind: ExprLiteral, Value: value, Type: t})
}

func (b *FuncBuilder) Construct(ctor string, t TypeID, fields ...FieldInit) ExprID {
	return b.add(Expr{Kind: ExprConstruct, Ctor: ctor, Type: t, Fields: fields})
}

func (b *FuncBuilder) Variant(ctor, variant string, t TypeID, fields ...FieldInit) ExprID {
	return b.add(Expr{Kind: ExprConstruct, Ctor: ctor, Variant: variant, Type: t, Fields: fields})
}

func (b *FuncBuilder) Array(t TypeID, elems ...ExprID) ExprID {
	return b.add(Expr{Kind: ExprConstruct, Type: t, Args: elems})
}

func (b *FuncBuilder) Index(base, index ExprID, t TypeID) ExprID {
	return b.add(Expr{Kind: ExprIndex, Base: base, Args: []ExprID{index}, Type: t})
}

func (b *FuncBuilder) Deref(base ExprID) ExprID {
	return b.add(Expr{Kind: ExprDeref, Base: base})
}

func (b *FuncBuilder) Ref(base ExprID) ExprID {
	return b.add(Expr{Kind: ExprRef, Base: base, Type: b.fn.Exprs[base-1].Type})
}

func (b *FuncBuilder) Assign(block BlockID, place, value ExprID) *FuncBuilder {
	b.fn.Blocks[block].Stmts = append(b.fn.Blocks[block].Stmts, Stmt{Kind: StmtAssign, Place: place, Value: value})
	return b
}

func (b *FuncBuilder) Eval(block BlockID, value ExprID) *FuncBuilder {
	b.fn.Blocks[block].Stmts = append(b.fn.Blocks[block].Stmts, Stmt{Kind: StmtEval, Value: value})
	return b
}

// Let is shorthand for declaring a local and assigning value to it.
func (b *FuncBuilder) Let(block BlockID, name string, value ExprID) LocalID {
	l := b.Local(name, b.fn.Exprs[value-1].Type)
	b.Assign(block, b.Use(l), value)
	return l
}

func (b *FuncBuilder) Generated() *FuncBuilder {
	b.fn.Generated = true
	return b
}

// Build returns a copy, so the builder can keep growing afterwards.
func (b *FuncBuilder) Build() *Function {
	fn := b.fn
	fn.Params = append([]Param(nil), b.fn.Params...)
	fn.Locals = append([]Local(nil), b.fn.Locals...)
	fn.Exprs = append([]Expr(nil), b.fn.Exprs...)
	fn.Blocks = make([]Block, len(b.fn.Blocks))
	for i, block := range b.fn.Blocks {
		fn.Blocks[i] = Block{
			Stmts: append([]Stmt(nil), block.Stmts...),
			Succs: append([]BlockID(nil), block.Succs...),
		}
	}
	return &fn
}
