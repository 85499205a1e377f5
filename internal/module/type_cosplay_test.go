package module

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sealscan/internal/program"
)

type cosplayFixture struct {
	pb     *program.Builder
	bytes  program.TypeID
	result func(program.TypeID) program.TypeID
}

func newCosplayFixture() *cosplayFixture {
	pb := program.NewBuilder("cosplay")
	return &cosplayFixture{
		pb:    pb,
		bytes: pb.Named("&[u8]"),
		result: func(inner program.TypeID) program.TypeID {
			return pb.Named("core::result::Result", inner)
		},
	}
}

// deserializer models `let v = T::try_from_slice(&data)?;`.
func (f *cosplayFixture) deserializer(name string, t program.TypeID) *program.Function {
	resT := f.result(t)
	b := program.NewFunction(name)
	b.Block()
	data := b.Param("data", f.bytes)
	call := b.Call(f.pb.Type(t).Name+"::try_from_slice", program.NoExpr, resT, b.Ref(b.Use(data)))
	b.Let(0, "v", b.Call("unwrap", call, t))
	return b.Build()
}

func Test_TypeCosplay(t *testing.T) {
	f := newCosplayFixture()
	pubkey := f.pb.Named("Pubkey")
	user := f.pb.Struct("User", program.Field{Name: "authority", Type: pubkey})
	metadata := f.pb.Struct("Metadata", program.Field{Name: "account", Type: pubkey})
	updateUser := f.deserializer("update_user", user)
	updateMetadata := f.deserializer("update_metadata", metadata)
	prog := f.pb.Build()

	issues := check(t, NewTypeCosplay(), prog, updateUser, updateMetadata)
	require.Len(t, issues, 2)
	assert.Equal(t, TypeCosplayID, issues[0].Category)
	assert.Equal(t, "update_user", issues[0].Function)
	assert.Contains(t, issues[0].Message, "`User`")
	assert.Equal(t, "update_metadata", issues[1].Function)
	assert.Contains(t, issues[1].Message, "`Metadata`")
}

func Test_TypeCosplaySecure(t *testing.T) {
	var testCases = []struct {
		Name  string
		Build func(f *cosplayFixture) []*program.Function
	}{
		{
			Name: "discriminant field",
			Build: func(f *cosplayFixture) []*program.Function {
				kind := f.pb.Enum("AccountDiscriminant", 2)
				user := f.pb.Struct("User", program.Field{Name: "discriminant", Type: kind})
				metadata := f.pb.Struct("Metadata", program.Field{Name: "discriminant", Type: kind})
				return []*program.Function{f.deserializer("a", user), f.deserializer("b", metadata)}
			},
		},
		{
			Name: "single enum",
			Build: func(f *cosplayFixture) []*program.Function {
				accounts := f.pb.Enum("Accounts", 3)
				return []*program.Function{f.deserializer("a", accounts), f.deserializer("b", accounts)}
			},
		},
		{
			Name: "umbrella enum",
			Build: func(f *cosplayFixture) []*program.Function {
				kind := f.pb.Enum("Kind", 1)
				u8 := f.pb.Named("u8")
				user := f.pb.Struct("User", program.Field{Name: "version", Type: u8}, program.Field{Name: "kind", Type: kind})
				metadata := f.pb.Struct("Metadata", program.Field{Name: "version", Type: u8}, program.Field{Name: "kind", Type: kind})
				return []*program.Function{f.deserializer("a", user), f.deserializer("b", metadata)}
			},
		},
		{
			Name: "nothing deserialized",
			Build: func(f *cosplayFixture) []*program.Function {
				b := program.NewFunction("noop")
				b.Block()
				return []*program.Function{b.Build()}
			},
		},
	}
	for _, tc := range testCases {
		f := newCosplayFixture()
		fns := tc.Build(f)
		prog := f.pb.Build()
		assert.Empty(t, check(t, NewTypeCosplay(), prog, fns...), tc.Name)
	}
}

func Test_TypeCosplayMultipleEnums(t *testing.T) {
	f := newCosplayFixture()
	a := f.pb.Enum("UserAccount", 2)
	b := f.pb.Enum("AdminAccount", 2)
	first := f.deserializer("first", a)
	second := f.deserializer("second", b)
	again := f.deserializer("again", a)
	prog := f.pb.Build()

	issues := check(t, NewTypeCosplay(), prog, first, second, again)
	require.Len(t, issues, 2)
	assert.Contains(t, issues[0].Message, "several enums")
	assert.Equal(t, "first", issues[0].Function)
	assert.Equal(t, []program.Pos{again.Exprs[2].Pos}, issues[0].Secondary)
}
