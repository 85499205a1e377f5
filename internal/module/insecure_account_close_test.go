package module

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sealscan/internal/program"
)

type closeFixture struct {
	prog    *program.Program
	b       *program.FuncBuilder
	acct    program.LocalID
	dest    program.LocalID
	u64     program.TypeID
	arr8    program.TypeID
	rangeT  program.TypeID
	zeroing program.ExprID
}

// newCloseFixture models
//
//	**dest.lamports.borrow_mut() = dest_start + account.lamports();
//	**account.lamports.borrow_mut() = 0;
func newCloseFixture(blocks int) *closeFixture {
	pb := program.NewBuilder("close")
	acctT := pb.Named("solana_program::account_info::AccountInfo")
	f := &closeFixture{
		u64:    pb.Named("u64"),
		arr8:   pb.Named("[u8; 8]"),
		rangeT: pb.Named("core::ops::Range"),
	}
	f.prog = pb.Build()

	b := program.NewFunction("close")
	for i := 0; i < blocks; i++ {
		b.Block()
	}
	f.acct = b.Param("account", acctT)
	f.dest = b.Param("destination", acctT)
	f.b = b

	destLamports := b.Deref(b.Deref(b.Call("borrow_mut", b.Field(b.Use(f.dest), "lamports", program.NoType), program.NoType)))
	sum := b.Call("core::ops::Add::add", b.Call("lamports", b.Use(f.dest), f.u64), f.u64, b.Call("lamports", b.Use(f.acct), f.u64))
	b.Assign(0, destLamports, sum)
	lamports := b.Deref(b.Deref(b.Call("borrow_mut", b.Field(b.Use(f.acct), "lamports", program.NoType), program.NoType)))
	b.Assign(0, lamports, b.Lit("0", f.u64))
	f.zeroing = lamports
	return f
}

// zeroData adds `owner.data.borrow_mut()[i] = 0; i += 1` to block.
func (f *closeFixture) zeroData(block program.BlockID, owner program.LocalID) {
	b := f.b
	i := b.Local("i", f.u64)
	data := b.Call("borrow_mut", b.Field(b.Use(owner), "data", program.NoType), program.NoType)
	b.Assign(block, b.Index(data, b.Use(i), program.NoType), b.Lit("0", program.NoType))
	b.Assign(block, b.Use(i), b.Call("core::ops::Add::add", b.Use(i), f.u64, b.Lit("1", f.u64)))
}

func Test_InsecureAccountClose(t *testing.T) {
	f := newCloseFixture(1)
	fn := f.b.Build()
	issues := check(t, NewInsecureAccountClose(), f.prog, fn)
	require.Len(t, issues, 1)
	assert.Equal(t, InsecureAccountCloseID, issues[0].Category)
	assert.Equal(t, fn.Expr(f.zeroing).Pos, issues[0].Pos)

	// for i in 0..len { data[i] = 0 }
	f = newCloseFixture(4)
	f.b.Edge(0, 1).Edge(1, 2, 3).Edge(2, 1)
	f.zeroData(2, f.acct)
	assert.Empty(t, check(t, NewInsecureAccountClose(), f.prog, f.b.Build()))

	// data[0] = 0 outside of any loop does not clear the buffer
	f = newCloseFixture(2)
	f.b.Edge(0, 1)
	f.zeroData(1, f.acct)
	assert.Len(t, check(t, NewInsecureAccountClose(), f.prog, f.b.Build()), 1)
}

func Test_InsecureAccountCloseOtherAccount(t *testing.T) {
	// clearing the destination's data does not protect the closed account
	f := newCloseFixture(4)
	f.b.Edge(0, 1).Edge(1, 2, 3).Edge(2, 1)
	f.zeroData(2, f.dest)
	assert.Len(t, check(t, NewInsecureAccountClose(), f.prog, f.b.Build()), 1)
}

func Test_InsecureAccountCloseSuffixedLiteral(t *testing.T) {
	for _, lit := range []string{"0u64", "0_u64", "0u8"} {
		f := newCloseFixture(1)
		fn := f.b.Build()
		value := fn.Blocks[0].Stmts[1].Value
		fn.Exprs[value-1].Value = lit
		issues := check(t, NewInsecureAccountClose(), f.prog, fn)
		require.Len(t, issues, 1, lit)
		assert.Equal(t, fn.Expr(f.zeroing).Pos, issues[0].Pos, lit)
	}
}

func Test_InsecureAccountCloseUnrelatedLoop(t *testing.T) {
	// loop { counter = 0 } does not clear the buffer
	f := newCloseFixture(4)
	f.b.Edge(0, 1).Edge(1, 2, 3).Edge(2, 1)
	counter := f.b.Local("counter", f.u64)
	f.b.Assign(2, f.b.Use(counter), f.b.Lit("0", f.u64))
	assert.Len(t, check(t, NewInsecureAccountClose(), f.prog, f.b.Build()), 1)

	// data[0] = 0 repeated in a loop clears a single byte
	f = newCloseFixture(4)
	f.b.Edge(0, 1).Edge(1, 2, 3).Edge(2, 1)
	b := f.b
	data := b.Call("borrow_mut", b.Field(b.Use(f.acct), "data", program.NoType), program.NoType)
	b.Assign(2, b.Index(data, b.Lit("0", f.u64), program.NoType), b.Lit("0", program.NoType))
	assert.Len(t, check(t, NewInsecureAccountClose(), f.prog, b.Build()), 1)

	// the index is only set before the loop
	f = newCloseFixture(4)
	f.b.Edge(0, 1).Edge(1, 2, 3).Edge(2, 1)
	b = f.b
	i := b.Local("i", f.u64)
	b.Assign(0, b.Use(i), b.Lit("0", f.u64))
	data = b.Call("borrow_mut", b.Field(b.Use(f.acct), "data", program.NoType), program.NoType)
	b.Assign(2, b.Index(data, b.Use(i), program.NoType), b.Lit("0", program.NoType))
	assert.Len(t, check(t, NewInsecureAccountClose(), f.prog, b.Build()), 1)
}

func Test_InsecureAccountCloseFill(t *testing.T) {
	f := newCloseFixture(1)
	b := f.b
	data := b.Call("borrow_mut", b.Field(b.Use(f.acct), "data", program.NoType), program.NoType)
	b.Eval(0, b.Call("fill", data, program.NoType, b.Lit("0", program.NoType)))
	assert.Empty(t, check(t, NewInsecureAccountClose(), f.prog, b.Build()))
}

func Test_InsecureAccountCloseForceDefund(t *testing.T) {
	f := newCloseFixture(1)
	b := f.b
	buf := b.Local("data", program.NoType)
	disc := b.Local("discriminator", f.arr8)
	closed := b.Local("CLOSED_ACCOUNT_DISCRIMINATOR", f.arr8)

	rng := b.Construct("core::ops::Range", f.rangeT,
		program.FieldInit{Name: "start", Value: b.Lit("0", f.u64)},
		program.FieldInit{Name: "end", Value: b.Lit("8", f.u64)})
	slice := b.Ref(b.Index(b.Use(buf), rng, program.NoType))
	b.Eval(0, b.Call("copy_from_slice", b.Use(disc), program.NoType, slice))
	b.Eval(0, b.Compare(program.OpNe, b.Use(disc), b.Use(closed)))
	assert.Empty(t, check(t, NewInsecureAccountClose(), f.prog, b.Build()))
}
