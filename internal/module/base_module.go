package module

import (
	"fmt"

	log "github.com/sirupsen/logrus"

	"sealscan/internal/issue"
	"sealscan/internal/program"
)

// Findings is what a module reports for one function. Facts are kept for the
// program-wide pass of modules that need one.
type Findings struct {
	Issues []*issue.Issue
	Facts  any
}

type BaseModule struct {
	categoryData *CategoryData // 漏洞类别信息
	rule         *Rule         // 检测规则：sink、guard 与覆盖方式
}

func newBaseModule(id string, rule *Rule) *BaseModule {
	data, ok := CategoryDataMap[id]
	if !ok {
		panic(fmt.Sprintf("unknown category %s", id))
	}
	return &BaseModule{categoryData: data, rule: rule}
}

func (bm *BaseModule) GetCategoryData() *CategoryData {
	return bm.categoryData
}

func (bm *BaseModule) GetRule() *Rule {
	return bm.rule
}

// CheckFunction reports every unguarded sink of one function.
func (bm *BaseModule) CheckFunction(fc *FuncContext) (*Findings, error) {
	log.Debugf("Entering %s on %s", bm.categoryData.ID, fc.Func.Name)
	defer log.Debugf("Exiting %s on %s", bm.categoryData.ID, fc.Func.Name)

	sinks := bm.rule.Evaluate(fc)
	findings := &Findings{}
	for i := range sinks {
		// 未被保护的 sink
		if sinks[i].HasPath {
			log.Debugf("%s: unguarded %s", bm.categoryData.ID, sinks[i].Path.Format(fc.Func))
		}
		findings.Issues = append(findings.Issues, bm.sinkIssue(fc, &sinks[i]))
	}
	return findings, nil
}

func (bm *BaseModule) CheckProgram(*ProgramContext, []any) ([]*issue.Issue, error) {
	return nil, nil
}

func (bm *BaseModule) sinkIssue(fc *FuncContext, s *Sink) *issue.Issue {
	pos := fc.Pos(s.Expr)
	if s.Expr == program.NoExpr {
		pos = fc.Func.Pos
	}
	is := bm.NewIssue(fc.Func.Name, pos, s.Message)
	is.Secondary = s.Secondary
	if e := fc.Expr(s.Expr); e != nil && !e.Pos.IsValid() {
		is.Expr = s.Expr
	}
	return is
}

// NewIssue fills in the category data; an empty message falls back to the
// category message.
func (bm *BaseModule) NewIssue(function string, pos program.Pos, message string) *issue.Issue {
	if message == "" {
		message = bm.categoryData.Message
	}
	return &issue.Issue{
		Category: bm.categoryData.ID,
		Title:    bm.categoryData.Title,
		Severity: bm.categoryData.Severity,
		Message:  message,
		Function: function,
		Pos:      pos,
		Help:     bm.categoryData.Help,
	}
}

type DetectionModule interface {
	GetCategoryData() *CategoryData
	GetRule() *Rule
	// CheckFunction runs concurrently for different functions.
	CheckFunction(*FuncContext) (*Findings, error)
	// CheckProgram runs once, after every function, with the facts of every
	// CheckFunction call in program order.
	CheckProgram(*ProgramContext, []any) ([]*issue.Issue, error)
}
