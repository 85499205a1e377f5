package module

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sealscan/internal/program"
)

func Test_DuplicateMutableAccounts(t *testing.T) {
	var testCases = []struct {
		Name       string
		Constraint string
		BodyCheck  bool
		SameType   bool
		Expected   int
	}{
		{Name: "no key check", SameType: true, Expected: 1},
		{Name: "constraint", Constraint: "user_a.key() != user_b.key()", SameType: true, Expected: 0},
		{Name: "constraint reversed", Constraint: " user_b.key()!=user_a.key() ", SameType: true, Expected: 0},
		{Name: "unrelated constraint", Constraint: "user_a.authority == authority.key()", SameType: true, Expected: 1},
		{Name: "key compared in the handler", BodyCheck: true, SameType: true, Expected: 0},
		{Name: "different account types", Expected: 0},
	}
	for _, tc := range testCases {
		at := newAnchorTypes("dup")
		user := at.pb.Struct("User")
		other := at.pb.Struct("Other")
		userAcc := at.account(user)
		secondAcc := at.account(other)
		if tc.SameType {
			secondAcc = at.account(user)
		}
		first := program.Field{Name: "user_a", Type: userAcc}
		if tc.Constraint != "" {
			first.Constraints = []program.Constraint{constraint("mut"), constraint("constraint", tc.Constraint)}
		}
		accounts := at.accounts("Update", first, program.Field{Name: "user_b", Type: secondAcc})
		ctxT := at.context(accounts)
		prog := at.pb.Build()

		b := program.NewFunction("update")
		b.Block()
		ctx := b.Param("ctx", ctxT)
		if tc.BodyCheck {
			a := b.Call("key", b.Field(b.Field(b.Use(ctx), "accounts", accounts), "user_a", userAcc), at.pubkey)
			c := b.Call("key", b.Field(b.Field(b.Use(ctx), "accounts", accounts), "user_b", secondAcc), at.pubkey)
			b.Eval(0, b.Compare(program.OpEq, a, c))
		}

		issues := check(t, NewDuplicateMutableAccounts(), prog, b.Build())
		require.Len(t, issues, tc.Expected, tc.Name)
		for _, is := range issues {
			fs := prog.Type(accounts).Fields
			assert.Equal(t, "user_a and user_b have identical account types but do not have a key check constraint", is.Message)
			assert.Equal(t, "add an anchor key check constraint: #[account(constraint = user_a.key() != user_b.key())]", is.Help)
			assert.Equal(t, fs[0].Pos, is.Pos)
			assert.Equal(t, []program.Pos{fs[1].Pos}, is.Secondary)
			assert.Equal(t, "Update", is.Function)
		}
	}
}

func Test_DuplicateMutableAccountsTriple(t *testing.T) {
	at := newAnchorTypes("dup")
	user := at.pb.Struct("User")
	userAcc := at.account(user)
	at.accounts("Triple",
		program.Field{Name: "a", Type: userAcc, Constraints: []program.Constraint{constraint("constraint", "a.key() != b.key()")}},
		program.Field{Name: "b", Type: userAcc},
		program.Field{Name: "c", Type: userAcc},
	)
	prog := at.pb.Build()

	issues := check(t, NewDuplicateMutableAccounts(), prog)
	require.Len(t, issues, 2)
	assert.Contains(t, issues[0].Message, "a and c")
	assert.Contains(t, issues[1].Message, "b and c")
}
