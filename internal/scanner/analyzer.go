// Package scanner runs the enabled modules over whole programs: every
// function in parallel first, then the program-wide passes.
package scanner

import (
	"context"
	"runtime"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"sealscan/internal/issue"
	"sealscan/internal/module"
	"sealscan/internal/program"
)

type Analyzer struct {
	moduleManager *module.ModuleManager
	loader        *Loader
	parallel      int
}

// NewAnalyzer checks at most parallel functions at a time; zero or less
// means one per CPU.
func NewAnalyzer(mm *module.ModuleManager, loader *Loader, parallel int) *Analyzer {
	if parallel <= 0 {
		parallel = runtime.NumCPU()
	}
	return &Analyzer{
		moduleManager: mm,
		loader:        loader,
		parallel:      parallel,
	}
}

// Run analyzes every loaded program and returns the issues sorted and
// de-duplicated.
func (ma *Analyzer) Run(ctx context.Context) ([]*issue.Issue, error) {
	programs := ma.loader.GetPrograms()
	if len(programs) == 0 {
		return nil, errors.New("no program found")
	}

	startTime := time.Now()
	var issues []*issue.Issue
	for _, prog := range programs {
		log.Infof("analyzing program %s", prog.Name)
		found, err := ma.AnalyzeProgram(ctx, prog)
		if err != nil {
			return nil, errors.Wrapf(err, "analyze %s", prog.Name)
		}
		issues = append(issues, found...)
	}
	issues = issue.Normalize(issues)
	log.Infof("total issues found: %d, analyze time used: %.3fs", len(issues), time.Since(startTime).Seconds())
	return issues, nil
}

// AnalyzeProgram runs the enabled modules over one program.
func (ma *Analyzer) AnalyzeProgram(ctx context.Context, prog *program.Program) ([]*issue.Issue, error) {
	var (
		modules = ma.moduleManager.Modules()
		// results[function][module], nil for skipped functions
		results = make([][]*module.Findings, len(prog.Functions))
	)

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(ma.parallel)
	for i := range prog.Functions {
		fn := &prog.Functions[i]
		if reason := skipReason(prog, fn); reason != "" {
			log.Warnf("skipping function %s: %s", fn.Name, reason)
			continue
		}
		i := i
		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}
			results[i] = checkFunction(modules, module.NewFuncContext(prog, fn))
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, errors.Wrap(err, "check functions")
	}

	pc := &module.ProgramContext{Program: prog}
	var issues []*issue.Issue
	for m, dm := range modules {
		var facts []any
		for i := range results {
			if results[i] == nil || results[i][m] == nil {
				continue
			}
			issues = append(issues, results[i][m].Issues...)
			facts = append(facts, results[i][m].Facts)
		}
		more, err := dm.CheckProgram(pc, facts)
		if err != nil {
			return nil, errors.Wrapf(err, "%s", dm.GetCategoryData().ID)
		}
		issues = append(issues, more...)
	}
	return issue.Normalize(issues), nil
}

func checkFunction(modules []module.DetectionModule, fc *module.FuncContext) []*module.Findings {
	findings := make([]*module.Findings, len(modules))
	for m, dm := range modules {
		f, err := dm.CheckFunction(fc)
		if err != nil {
			log.Errorf("%s: function %s: %v", dm.GetCategoryData().ID, fc.Func.Name, err)
			continue
		}
		findings[m] = f
	}
	return findings
}

func skipReason(prog *program.Program, fn *program.Function) string {
	switch {
	case fn.Generated:
		return "generated by macro expansion"
	case fn.Unmodeled:
		return "not modeled by the front end"
	}
	if err := prog.Validate(fn); err != nil {
		return err.Error()
	}
	return ""
}
