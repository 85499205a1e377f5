package module

import (
	"fmt"

	log "github.com/sirupsen/logrus"

	"sealscan/internal/issue"
	"sealscan/internal/program"
	"sealscan/internal/structural"
)

type TypeCosplay struct {
	*BaseModule
}

// NewTypeCosplay collects the account types deserialized from raw bytes in
// every function and judges them together once the whole program was seen.
func NewTypeCosplay() *TypeCosplay {
	return &TypeCosplay{
		BaseModule: newBaseModule(TypeCosplayID, &Rule{
			Sinks: []SinkPattern{
				TypedCall{Methods: BorshDeserializeMethods.Methods()},
			},
			Coverage: Structural,
		}),
	}
}

func (tc *TypeCosplay) CheckFunction(fc *FuncContext) (*Findings, error) {
	var sites []structural.Site
	for _, s := range tc.rule.Evaluate(fc) {
		if s.Type == program.NoType {
			continue
		}
		sites = append(sites, structural.Site{Type: s.Type, Func: fc.Func.Name, Pos: fc.Pos(s.Expr)})
	}
	return &Findings{Facts: sites}, nil
}

func (tc *TypeCosplay) CheckProgram(pc *ProgramContext, facts []any) ([]*issue.Issue, error) {
	set := structural.NewSet()
	for _, fact := range facts {
		if sites, ok := fact.([]structural.Site); ok {
			set.Add(sites...)
		}
	}
	findings := structural.Analyze(pc.Program, set)
	log.Debugf("%s: %d deserialized types, %d findings", tc.categoryData.ID, set.Len(), len(findings))

	var issues []*issue.Issue
	for _, f := range findings {
		name := program.LastSegment(pc.Program.TypeName(f.Type))
		var message string
		switch f.Reason {
		case structural.MultipleEnums:
			message = fmt.Sprintf("`%s` is one of several enums deserialized from account data, so their tags overlap", name)
		default:
			message = fmt.Sprintf("`%s` is deserialized without a discriminant that distinguishes it from other account types", name)
		}
		is := tc.NewIssue(f.Site.Func, f.Site.Pos, message)
		for _, other := range f.Others {
			is.Secondary = append(is.Secondary, other.Pos)
		}
		issues = append(issues, is)
	}
	return issues, nil
}
