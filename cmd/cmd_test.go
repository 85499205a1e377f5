package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"sealscan/internal/issue"
	"sealscan/internal/module"
	"sealscan/internal/program"
)

// writeModel writes a program with one function missing an owner check.
func writeModel(t *testing.T) string {
	t.Helper()
	pb := program.NewBuilder("vault")
	acct := pb.Named("solana_program::account_info::AccountInfo")
	b := program.NewFunction("withdraw")
	entry := b.Block()
	exit := b.Block()
	b.Edge(entry, exit)
	next := b.Call("solana_program::account_info::next_account_info", program.NoExpr, acct)
	token := b.Let(entry, "token", next)
	b.Eval(exit, b.Field(b.Use(token), "data", program.NoType))
	pb.AddFunction(b.Build())

	path := filepath.Join(t.TempDir(), "vault.yaml")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, program.Encode(f, pb.Build()))
	require.NoError(t, f.Close())
	return path
}

func Test_AnalyzeExec(t *testing.T) {
	path := writeModel(t)

	var out bytes.Buffer
	err := analyzeExec(context.Background(), &out, []string{path})
	assert.Equal(t, errIssuesFound, errors.Cause(err))
	assert.Contains(t, out.String(), module.MissingOwnerCheckID)
	assert.Contains(t, out.String(), "1 issues found")

	assert.Error(t, analyzeExec(context.Background(), &out, nil))
}

func Test_NewModuleManager(t *testing.T) {
	mm, err := newModuleManager([]string{module.ArbitraryCPIID}, nil)
	require.NoError(t, err)
	require.Len(t, mm.Modules(), 1)

	mm, err = newModuleManager(nil, []string{module.ArbitraryCPIID})
	require.NoError(t, err)
	assert.Len(t, mm.Modules(), len(module.CategoryDataMap)-1)

	_, err = newModuleManager([]string{"nope"}, nil)
	assert.Error(t, err)
}

func Test_WriteIssues(t *testing.T) {
	issues := issue.Normalize([]*issue.Issue{{
		Category: module.SysvarGetID,
		Severity: issue.SeverityWarning,
		Message:  "Use `Clock::get()` instead of `Clock::from_account_info(...)`",
		Pos:      program.Pos{File: "lib.rs", Line: 3},
	}})

	var out bytes.Buffer
	require.NoError(t, writeIssues(&out, issues, "yaml"))
	var decoded []*issue.Issue
	require.NoError(t, yaml.Unmarshal(out.Bytes(), &decoded))
	assert.Equal(t, issues, decoded)

	out.Reset()
	require.NoError(t, writeIssues(&out, issues, "table"))
	assert.Contains(t, out.String(), "lib.rs:3")

	assert.Error(t, writeIssues(&out, issues, "xml"))
}

func Test_PrintRules(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, printRules(&out, "yaml"))
	var docs []ruleDoc
	require.NoError(t, yaml.Unmarshal(out.Bytes(), &docs))
	require.Len(t, docs, len(module.CategoryDataMap))
	assert.Equal(t, module.MissingOwnerCheckID, docs[0].ID)
	assert.Equal(t, module.Presence, docs[0].Coverage)
	assert.Equal(t, module.AllPaths, docs[2].Coverage)

	out.Reset()
	require.NoError(t, printRules(&out, "text"))
	assert.Contains(t, out.String(), "guard   key comparison")
}

func Test_PrintCFG(t *testing.T) {
	path := writeModel(t)
	var out bytes.Buffer
	require.NoError(t, printCFG(&out, []string{path}, "withdraw"))
	assert.Contains(t, out.String(), "fn withdraw")
	assert.Contains(t, out.String(), "bb1")
	assert.Error(t, printCFG(&out, []string{path}, "deposit"))
}
