package module

import (
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"sealscan/internal/issue"
	"sealscan/internal/program"
)

type SysvarGet struct {
	*BaseModule
}

func NewSysvarGet() *SysvarGet {
	return &SysvarGet{
		BaseModule: newBaseModule(SysvarGetID, &Rule{
			Sinks: []SinkPattern{
				TypedCall{
					Methods: FromAccountInfo.Methods(),
					Owners:  GetSysvars,
					Format:  "Use `%[1]s::get()` instead of `%[1]s::from_account_info(...)`",
				},
			},
			Coverage: Presence,
		}),
	}
}

// CheckProgram also reports accounts structs that take a sysvar account the
// handler could read with get().
func (sg *SysvarGet) CheckProgram(pc *ProgramContext, _ []any) ([]*issue.Issue, error) {
	log.Debug("Entering SysvarGet")
	defer log.Debug("Exiting SysvarGet")

	var issues []*issue.Issue
	for i := range pc.Program.Types {
		t := &pc.Program.Types[i]
		if !t.IsStruct() || !t.Implements(TraitAccounts) {
			continue
		}
		var (
			names []string
			poss  []program.Pos
		)
		for _, f := range t.Fields {
			if name, ok := sg.sysvarField(pc.Program, f.Type); ok {
				names = append(names, name)
				poss = append(poss, f.Pos)
			}
		}
		if len(names) == 0 {
			continue
		}
		var message string
		if len(names) == 1 {
			message = fmt.Sprintf("Use `%s::get` instead of passing the account", names[0])
		} else {
			message = fmt.Sprintf("Use `Sysvar::get` instead of passing the accounts for `%s`, and `%s`",
				strings.Join(names[:len(names)-1], "`, `"), names[len(names)-1])
		}
		is := sg.NewIssue(t.ShortName(), poss[0], message)
		is.Secondary = append(is.Secondary, poss[1:]...)
		is.Secondary = append(is.Secondary, t.Pos)
		issues = append(issues, is)
	}
	return issues, nil
}

// sysvarField matches Sysvar<'info, T> where T implements get().
func (sg *SysvarGet) sysvarField(prog *program.Program, id program.TypeID) (string, bool) {
	t := prog.Type(id)
	if t == nil || !AnchorSysvar.Match(t.Name) || len(t.Args) == 0 {
		return "", false
	}
	name := program.LastSegment(prog.TypeName(t.Args[0]))
	return name, contains(GetSysvars, name)
}
