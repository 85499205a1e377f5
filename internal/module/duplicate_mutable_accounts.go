package module

import (
	"fmt"
	"regexp"

	log "github.com/sirupsen/logrus"

	"sealscan/internal/issue"
	"sealscan/internal/program"
	"sealscan/internal/util"
)

var keyConstraint = regexp.MustCompile(`^\s*(\w+)\.key\(\)\s*!=\s*(\w+)\.key\(\)\s*$`)

type DuplicateMutableAccounts struct {
	*BaseModule
}

// NewDuplicateMutableAccounts has no per-function sinks: it gathers the key
// comparisons of every body and checks accounts structs afterwards.
func NewDuplicateMutableAccounts() *DuplicateMutableAccounts {
	return &DuplicateMutableAccounts{
		BaseModule: newBaseModule(DuplicateMutableAccountsID, &Rule{Coverage: Structural}),
	}
}

type accountPair [2]string

func newAccountPair(a, b string) accountPair {
	if b < a {
		a, b = b, a
	}
	return accountPair{a, b}
}

// CheckFunction records `a.key() != b.key()` comparisons by field name.
func (dma *DuplicateMutableAccounts) CheckFunction(fc *FuncContext) (*Findings, error) {
	var pairs []accountPair
	fc.Each(func(_ program.Loc, _ program.ExprID, e *program.Expr) {
		if e.Kind != program.ExprCompare || !e.Op.IsEquality() {
			return
		}
		lhs, ok1 := fc.keyBase(e.Args[0])
		rhs, ok2 := fc.keyBase(e.Args[1])
		if !ok1 || !ok2 {
			return
		}
		a, ok1 := fc.Aliases.Path(lhs)
		b, ok2 := fc.Aliases.Path(rhs)
		if ok1 && ok2 && a.Last() != "" && b.Last() != "" {
			pairs = append(pairs, newAccountPair(a.Last(), b.Last()))
		}
	})
	return &Findings{Facts: pairs}, nil
}

func (dma *DuplicateMutableAccounts) CheckProgram(pc *ProgramContext, facts []any) ([]*issue.Issue, error) {
	log.Debug("Entering DuplicateMutableAccounts")
	defer log.Debug("Exiting DuplicateMutableAccounts")

	checked := util.NewSet[accountPair]()
	for _, fact := range facts {
		if pairs, ok := fact.([]accountPair); ok {
			for _, p := range pairs {
				checked.Add(p)
			}
		}
	}

	var issues []*issue.Issue
	for i := range pc.Program.Types {
		t := &pc.Program.Types[i]
		if !t.IsStruct() || !t.Implements(TraitAccounts) {
			continue
		}
		constrained := keyConstraints(t).Union(checked)
		for _, group := range accountGroups(pc.Program, t) {
			for x := 0; x < len(group); x++ {
				for y := x + 1; y < len(group); y++ {
					a, b := group[x], group[y]
					pair := newAccountPair(a.Name, b.Name)
					if constrained.Contains(pair) {
						continue
					}
					is := dma.NewIssue(t.ShortName(), a.Pos, fmt.Sprintf(
						"%s and %s have identical account types but do not have a key check constraint", a.Name, b.Name))
					is.Help = fmt.Sprintf("add an anchor key check constraint: #[account(constraint = %s.key() != %s.key())]", a.Name, b.Name)
					is.Secondary = []program.Pos{b.Pos}
					issues = append(issues, is)
				}
			}
		}
	}
	return issues, nil
}

// accountGroups groups the Account<T> fields of an accounts struct by T, in
// field order.
func accountGroups(prog *program.Program, t *program.Type) [][]*program.Field {
	var (
		order  []program.TypeID
		groups = make(map[program.TypeID][]*program.Field)
	)
	for i := range t.Fields {
		f := &t.Fields[i]
		ft := prog.Type(f.Type)
		if ft == nil || !AnchorAccount.Match(ft.Name) || len(ft.Args) == 0 {
			continue
		}
		inner := ft.Args[0]
		if _, ok := groups[inner]; !ok {
			order = append(order, inner)
		}
		groups[inner] = append(groups[inner], f)
	}
	var out [][]*program.Field
	for _, inner := range order {
		if len(groups[inner]) > 1 {
			out = append(out, groups[inner])
		}
	}
	return out
}

func keyConstraints(t *program.Type) *util.Set[accountPair] {
	pairs := util.NewSet[accountPair]()
	for _, f := range t.Fields {
		for _, c := range f.Constraints {
			if c.Kind != "constraint" {
				continue
			}
			for _, arg := range c.Args {
				if m := keyConstraint.FindStringSubmatch(arg); m != nil {
					pairs.Add(newAccountPair(m[1], m[2]))
				}
			}
		}
	}
	return pairs
}
