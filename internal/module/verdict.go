package module

import (
	"sort"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"sealscan/internal/program"
)

// Coverage decides when the guards of a function cover a sink.
type Coverage int

const (
	// Presence: a covering guard anywhere in the function suffices.
	Presence Coverage = iota
	// AllPaths: the covering guards must dominate the sink.
	AllPaths
	// Structural: sinks are facts for a program-wide pass, never reported
	// per function.
	Structural
)

var coverageNames = map[Coverage]string{
	Presence:   "presence",
	AllPaths:   "all-paths",
	Structural: "structural",
}

func (c Coverage) String() string {
	if name, ok := coverageNames[c]; ok {
		return name
	}
	return "unknown"
}

func (c Coverage) MarshalYAML() (interface{}, error) {
	return c.String(), nil
}

func (c *Coverage) UnmarshalYAML(node *yaml.Node) error {
	for k, name := range coverageNames {
		if node.Value == name {
			*c = k
			return nil
		}
	}
	return errors.Errorf("unknown coverage %q", node.Value)
}

// Rule is the declarative description of one category.
type Rule struct {
	Sinks      []SinkPattern
	Guards     []GuardPattern
	Exemptions []ExemptionPattern
	Coverage   Coverage
}

// Evaluate returns the sinks of fc left unguarded, in body order.
func (r *Rule) Evaluate(fc *FuncContext) []Sink {
	var sinks []Sink
	for _, p := range r.Sinks {
		for _, s := range p.Sinks(fc) {
			if !r.exempt(fc, &s) {
				sinks = append(sinks, s)
			}
		}
	}
	sort.SliceStable(sinks, func(i, j int) bool {
		if sinks[i].Loc != sinks[j].Loc {
			return sinks[i].Loc.Block < sinks[j].Loc.Block ||
				(sinks[i].Loc.Block == sinks[j].Loc.Block && sinks[i].Loc.Stmt < sinks[j].Loc.Stmt)
		}
		return sinks[i].Expr < sinks[j].Expr
	})
	if r.Coverage == Structural || len(sinks) == 0 {
		return sinks
	}

	var guards []Guard
	for _, p := range r.Guards {
		for _, g := range p.Guards(fc, sinks) {
			if r.Coverage == AllPaths && g.Wildcard {
				continue
			}
			guards = append(guards, g)
		}
	}

	var unguarded []Sink
	for i := range sinks {
		if !r.covered(fc, &sinks[i], guards) {
			unguarded = append(unguarded, sinks[i])
		}
	}
	return unguarded
}

func (r *Rule) exempt(fc *FuncContext, s *Sink) bool {
	for _, e := range r.Exemptions {
		if e.Exempts(fc, s) {
			return true
		}
	}
	return false
}

func (r *Rule) covered(fc *FuncContext, s *Sink, guards []Guard) bool {
	var blocks []program.BlockID
	for i := range guards {
		g := &guards[i]
		if !g.Covers(s) {
			continue
		}
		if r.Coverage == Presence || g.Declared {
			return true
		}
		if g.Loc.Block == s.Loc.Block {
			if g.Loc.Stmt < s.Loc.Stmt || (g.Loc.Stmt == s.Loc.Stmt && g.Expr < s.Expr) {
				return true
			}
			continue
		}
		blocks = append(blocks, g.Loc.Block)
	}
	return len(blocks) > 0 && fc.Dom.DominatedBySet(blocks, s.Loc.Block)
}
