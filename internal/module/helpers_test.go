package module

import (
	"testing"

	"github.com/stretchr/testify/require"

	"sealscan/internal/issue"
	"sealscan/internal/program"
)

// check runs both phases of one module over fns.
func check(t *testing.T, dm DetectionModule, prog *program.Program, fns ...*program.Function) []*issue.Issue {
	t.Helper()
	var (
		issues []*issue.Issue
		facts  []any
	)
	for _, fn := range fns {
		require.NoError(t, prog.Validate(fn))
		findings, err := dm.CheckFunction(NewFuncContext(prog, fn))
		require.NoError(t, err)
		issues = append(issues, findings.Issues...)
		facts = append(facts, findings.Facts)
	}
	more, err := dm.CheckProgram(&ProgramContext{Program: prog}, facts)
	require.NoError(t, err)
	return append(issues, more...)
}

// anchorTypes is the minimal type table of an Anchor program.
type anchorTypes struct {
	pb      *program.Builder
	acct    program.TypeID
	pubkey  program.TypeID
	u8      program.TypeID
	signer  program.TypeID
	account func(inner program.TypeID) program.TypeID
	context func(accounts program.TypeID) program.TypeID
}

func newAnchorTypes(name string) *anchorTypes {
	pb := program.NewBuilder(name)
	at := &anchorTypes{
		pb:     pb,
		acct:   pb.Named("solana_program::account_info::AccountInfo"),
		pubkey: pb.Named("solana_program::pubkey::Pubkey"),
		u8:     pb.Named("u8"),
		signer: pb.Named("anchor_lang::accounts::signer::Signer"),
	}
	at.account = func(inner program.TypeID) program.TypeID {
		return pb.Named("anchor_lang::accounts::account::Account", inner)
	}
	at.context = func(accounts program.TypeID) program.TypeID {
		return pb.Named("anchor_lang::context::Context", accounts)
	}
	return at
}

// accounts declares a `#[derive(Accounts)]` struct.
func (at *anchorTypes) accounts(name string, fields ...program.Field) program.TypeID {
	for i := range fields {
		if fields[i].Pos == (program.Pos{}) {
			fields[i].Pos = program.Pos{File: "lib.rs", Line: 100 + i}
		}
	}
	id := at.pb.Struct(name, fields...)
	t := at.pb.Type(id)
	t.Traits = append(t.Traits, TraitAccounts)
	t.Pos = program.Pos{File: "lib.rs", Line: 99}
	return id
}

func constraint(kind string, args ...string) program.Constraint {
	return program.Constraint{Kind: kind, Args: args}
}
