package alias

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sealscan/internal/program"
)

func Test_PathOf(t *testing.T) {
	b := program.NewFunction("f")
	entry := b.Block()
	ctx := b.Param("ctx", program.NoType)
	accounts := b.Field(b.Use(ctx), "accounts", program.NoType)
	vault := b.Field(accounts, "vault", program.NoType)
	info := b.Call("to_account_info", vault, program.NoType)
	key := b.Call("key", info, program.NoType)
	data := b.Field(b.Deref(vault), "data", program.NoType)
	elem := b.Index(data, b.Lit("0", program.NoType), program.NoType)
	opaque := b.Call("load", program.NoExpr, program.NoType)
	withArg := b.Call("get", vault, program.NoType, b.Lit("1", program.NoType))
	b.Eval(entry, key)
	fn := b.Build()

	var testCases = []struct {
		Expr     program.ExprID
		Expected string
		Ok       bool
	}{
		{vault, "ctx.accounts.vault", true},
		{info, "ctx.accounts.vault", true},
		{key, "ctx.accounts.vault.key", true},
		{elem, "ctx.accounts.vault.data[]", true},
		{opaque, "", false},
		{withArg, "", false},
	}
	for _, tc := range testCases {
		p, ok := PathOf(fn, tc.Expr)
		assert.Equal(t, tc.Ok, ok, tc.Expected)
		if ok {
			assert.Equal(t, tc.Expected, p.Format(fn))
		}
	}
}

// Guarding via `a` or via `b.field`, where `a = b.field`, must resolve to the
// same canonical path.
func Test_Transitivity(t *testing.T) {
	b := program.NewFunction("f")
	entry := b.Block()
	next := b.Block()
	b.Edge(entry, next)
	src := b.Param("b", program.NoType)
	a := b.Let(entry, "a", b.Field(b.Use(src), "field", program.NoType))
	c := b.Let(next, "c", b.Ref(b.Use(a)))
	viaA := b.Use(a)
	viaField := b.Field(b.Use(src), "field", program.NoType)
	viaC := b.Call("clone", b.Use(c), program.NoType)
	fn := b.Build()
	tracker := Build(fn)

	assert.True(t, tracker.Same(viaA, viaField))
	assert.True(t, tracker.Same(viaC, viaField))
	p, ok := tracker.Path(viaC)
	require.True(t, ok)
	assert.Equal(t, "b.field", p.Format(fn))
}

func Test_ConstructAlias(t *testing.T) {
	b := program.NewFunction("f")
	entry := b.Block()
	pid := b.Param("program_id", program.NoType)
	ix := b.Let(entry, "ix", b.Construct("Instruction", program.NoType,
		program.FieldInit{Name: "program_id", Value: b.Deref(b.Use(pid))},
		program.FieldInit{Name: "data", Value: b.Call("vec", program.NoExpr, program.NoType)},
	))
	viaIx := b.Field(b.Use(ix), "program_id", program.NoType)
	data := b.Field(b.Use(ix), "data", program.NoType)
	usePid := b.Use(pid)
	fn := b.Build()
	tracker := Build(fn)

	assert.True(t, tracker.Same(viaIx, usePid))
	p, ok := tracker.Path(data)
	require.True(t, ok)
	assert.Equal(t, "ix.data", p.Format(fn))
}

func Test_Ambiguous(t *testing.T) {
	b := program.NewFunction("f")
	entry := b.Block()
	left := b.Block()
	right := b.Block()
	join := b.Block()
	b.Edge(entry, left, right).Edge(left, join).Edge(right, join)
	p := b.Param("p", program.NoType)
	q := b.Param("q", program.NoType)
	x := b.Local("x", program.NoType)
	fromP := b.Use(p)
	b.Assign(left, b.Use(x), fromP)
	b.Assign(right, b.Use(x), b.Use(q))
	y := b.Let(join, "y", b.Use(x))
	useX := b.Use(x)
	useY := b.Use(y)
	useP := b.Use(p)
	fn := b.Build()
	tracker := Build(fn)

	assert.False(t, tracker.Same(useX, useP))
	assert.True(t, tracker.Same(useY, useX))
	assert.Equal(t, program.NoExpr, tracker.Origin(x))
	assert.NotEqual(t, program.NoExpr, tracker.Origin(y))
}

func Test_Resolve(t *testing.T) {
	b := program.NewFunction("f")
	entry := b.Block()
	ctx := b.Param("ctx", program.NoType)
	conv := b.Call("to_account_info", b.Field(b.Use(ctx), "token_program", program.NoType), program.NoType)
	info := b.Let(entry, "info", conv)
	alias := b.Let(entry, "alias", b.Ref(b.Use(info)))
	use := b.Use(alias)
	fn := b.Build()

	assert.Equal(t, conv, Build(fn).Resolve(use))
}

func Test_ReversePostOrder(t *testing.T) {
	b := program.NewFunction("f")
	for i := 0; i < 5; i++ {
		b.Block()
	}
	b.Edge(0, 1, 2).Edge(1, 3).Edge(2, 3).Edge(3, 1)
	order := ReversePostOrder(b.Build())
	assert.Equal(t, []program.BlockID{0, 2, 1, 3, 4}, order)
}
