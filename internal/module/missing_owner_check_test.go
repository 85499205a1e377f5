package module

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sealscan/internal/program"
)

type ownerFixture struct {
	at       *anchorTypes
	accounts program.TypeID
	vaultAcc program.TypeID
	ctxT     program.TypeID
}

func newOwnerFixture() *ownerFixture {
	at := newAnchorTypes("owner")
	vault := at.pb.Struct("Vault")
	vaultAcc := at.account(vault)
	accounts := at.accounts("LogMessage",
		program.Field{Name: "token", Type: at.acct},
		program.Field{Name: "authority", Type: at.acct, Constraints: []program.Constraint{constraint("signer")}},
		program.Field{Name: "pda", Type: at.acct, Constraints: []program.Constraint{constraint("seeds", `b"seed"`), constraint("bump")}},
		program.Field{Name: "receiver", Type: at.acct, Constraints: []program.Constraint{constraint("mut")}},
		program.Field{Name: "vault", Type: vaultAcc},
	)
	return &ownerFixture{at: at, accounts: accounts, vaultAcc: vaultAcc, ctxT: at.context(accounts)}
}

// account builds `ctx.accounts.<name>`.
func (f *ownerFixture) account(b *program.FuncBuilder, ctx program.LocalID, name string, t program.TypeID) program.ExprID {
	return b.Field(b.Field(b.Use(ctx), "accounts", f.accounts), name, t)
}

func Test_MissingOwnerCheck(t *testing.T) {
	var testCases = []struct {
		Name     string
		Body     func(f *ownerFixture, b *program.FuncBuilder, ctx program.LocalID)
		Expected int
	}{
		{
			Name: "data read without owner check",
			Body: func(f *ownerFixture, b *program.FuncBuilder, ctx program.LocalID) {
				b.Eval(0, b.Field(f.account(b, ctx, "token", f.at.acct), "data", program.NoType))
			},
			Expected: 1,
		},
		{
			Name: "owner compared",
			Body: func(f *ownerFixture, b *program.FuncBuilder, ctx program.LocalID) {
				b.Eval(0, b.Field(f.account(b, ctx, "token", f.at.acct), "data", program.NoType))
				owner := b.Field(f.account(b, ctx, "token", f.at.acct), "owner", f.at.pubkey)
				b.Eval(0, b.Compare(program.OpNe, owner, b.Lit("spl_token::ID", f.at.pubkey)))
			},
			Expected: 0,
		},
		{
			Name: "key compared with key()",
			Body: func(f *ownerFixture, b *program.FuncBuilder, ctx program.LocalID) {
				b.Eval(0, b.Field(f.account(b, ctx, "token", f.at.acct), "data", program.NoType))
				key := b.Call("key", f.account(b, ctx, "token", f.at.acct), f.at.pubkey)
				b.Eval(0, b.Compare(program.OpEq, b.Lit("EXPECTED", f.at.pubkey), key))
			},
			Expected: 0,
		},
		{
			Name: "owner of another account",
			Body: func(f *ownerFixture, b *program.FuncBuilder, ctx program.LocalID) {
				b.Eval(0, b.Field(f.account(b, ctx, "token", f.at.acct), "data", program.NoType))
				b.Eval(0, b.Field(f.account(b, ctx, "receiver", f.at.acct), "owner", f.at.pubkey))
			},
			Expected: 1,
		},
		{
			Name: "declared constraints",
			Body: func(f *ownerFixture, b *program.FuncBuilder, ctx program.LocalID) {
				b.Eval(0, b.Call("key", f.account(b, ctx, "authority", f.at.acct), f.at.pubkey))
				b.Eval(0, b.Call("key", f.account(b, ctx, "pda", f.at.acct), f.at.pubkey))
			},
			Expected: 0,
		},
		{
			Name: "mut is not an owner constraint",
			Body: func(f *ownerFixture, b *program.FuncBuilder, ctx program.LocalID) {
				b.Eval(0, b.Call("key", f.account(b, ctx, "receiver", f.at.acct), f.at.pubkey))
			},
			Expected: 1,
		},
		{
			Name: "validated wrapper converted",
			Body: func(f *ownerFixture, b *program.FuncBuilder, ctx program.LocalID) {
				info := b.Call("to_account_info", f.account(b, ctx, "vault", f.vaultAcc), f.at.acct)
				b.Eval(0, b.Call("key", info, f.at.pubkey))
			},
			Expected: 0,
		},
		{
			Name: "owner checked through a cloned local",
			Body: func(f *ownerFixture, b *program.FuncBuilder, ctx program.LocalID) {
				token := f.account(b, ctx, "token", f.at.acct)
				a := b.Let(0, "a", b.Call("clone", token, f.at.acct))
				b.Eval(0, b.Field(b.Use(a), "owner", f.at.pubkey))
			},
			Expected: 0,
		},
	}
	for _, tc := range testCases {
		f := newOwnerFixture()
		prog := f.at.pb.Build()
		b := program.NewFunction("log_message")
		b.Block()
		ctx := b.Param("ctx", f.ctxT)
		tc.Body(f, b, ctx)

		issues := check(t, NewMissingOwnerCheck(), prog, b.Build())
		assert.Len(t, issues, tc.Expected, tc.Name)
		for _, is := range issues {
			assert.Equal(t, MissingOwnerCheckID, is.Category, tc.Name)
		}
	}
}

func Test_MissingOwnerCheckNextAccountInfo(t *testing.T) {
	at := newAnchorTypes("owner")
	iterT := at.pb.Named("core::slice::Iter")
	prog := at.pb.Build()

	// let token = next_account_info(iter)?; token.data
	build := func(checked bool) *program.Function {
		b := program.NewFunction("process")
		b.Block()
		iter := b.Param("iter", iterT)
		next := b.Call("solana_program::account_info::next_account_info", program.NoExpr, at.acct, b.Ref(b.Use(iter)))
		token := b.Let(0, "token", next)
		b.Eval(0, b.Field(b.Use(token), "data", program.NoType))
		if checked {
			b.Eval(0, b.Compare(program.OpNe, b.Field(b.Use(token), "owner", at.pubkey), b.Lit("ID", at.pubkey)))
		}
		return b.Build()
	}
	issues := check(t, NewMissingOwnerCheck(), prog, build(false))
	require.Len(t, issues, 1)
	assert.Equal(t, "process", issues[0].Function)
	assert.Empty(t, check(t, NewMissingOwnerCheck(), prog, build(true)))
}
