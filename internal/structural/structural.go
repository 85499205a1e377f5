// Package structural decides whether the account layouts a program
// deserializes from raw bytes can be told apart.
package structural

import (
	"strings"

	"sealscan/internal/program"
)

// Site is one place where a function deserializes type Type from external
// bytes.
type Site struct {
	Type program.TypeID
	Func string
	Pos  program.Pos
}

type Reason int

const (
	// MissingDiscriminant: a struct has no recognized discriminant.
	MissingDiscriminant Reason = iota
	// MultipleEnums: more than one enum is deserialized, so no single tag
	// space covers every layout.
	MultipleEnums
)

func (r Reason) String() string {
	switch r {
	case MissingDiscriminant:
		return "missing discriminant"
	case MultipleEnums:
		return "multiple enums"
	default:
		return "unknown"
	}
}

// Finding reports one deserialized type, at the first site it appears.
type Finding struct {
	Type   program.TypeID
	Reason Reason
	Site   Site
	// Others holds the remaining sites of the same type.
	Others []Site
}

const (
	// DiscriminatorTrait is implemented by types that carry a unique prefix.
	DiscriminatorTrait = "Discriminator"
	// DiscriminantAttr is attached by front ends to types with an explicit tag.
	DiscriminantAttr = "discriminant"
)

var discriminantNames = map[string]bool{
	"discriminant":  true,
	"discriminator": true,
	"tag":           true,
	"account_type":  true,
}

// HasDiscriminant reports whether t carries a recognized discriminant: the
// Discriminator trait, the discriminant attribute, or a leading field that
// is enum-typed or named like a tag.
func HasDiscriminant(prog *program.Program, id program.TypeID) bool {
	t := prog.Type(id)
	if t == nil {
		return false
	}
	if t.Implements(DiscriminatorTrait) || t.HasAttr(DiscriminantAttr) {
		return true
	}
	if len(t.Fields) == 0 {
		return false
	}
	first := t.Fields[0]
	if discriminantNames[strings.ToLower(first.Name)] {
		return true
	}
	ft := prog.Type(first.Type)
	return ft != nil && ft.IsEnum()
}

// Set is the discriminated-type set of a program: the distinct types seen at
// the sites, in order of first appearance.
type Set struct {
	order []program.TypeID
	sites map[program.TypeID][]Site
}

func NewSet(sites ...Site) *Set {
	s := &Set{sites: make(map[program.TypeID][]Site)}
	s.Add(sites...)
	return s
}

func (s *Set) Add(sites ...Site) {
	for _, site := range sites {
		if site.Type == program.NoType {
			continue
		}
		if _, ok := s.sites[site.Type]; !ok {
			s.order = append(s.order, site.Type)
		}
		s.sites[site.Type] = append(s.sites[site.Type], site)
	}
}

func (s *Set) Len() int {
	return len(s.order)
}

func (s *Set) Types() []program.TypeID {
	return append([]program.TypeID(nil), s.order...)
}

func (s *Set) Sites(id program.TypeID) []Site {
	return s.sites[id]
}

// Umbrella returns an enum E such that every struct of the set has a field
// of type E and E has at least n-1 variants, where n is the set size.
func Umbrella(prog *program.Program, types []program.TypeID) (program.TypeID, bool) {
	for _, id := range types {
		if t := prog.Type(id); t == nil || !t.IsStruct() {
			return program.NoType, false
		}
	}
	for _, e := range prog.Enums() {
		if prog.Type(e).Variants < len(types)-1 {
			continue
		}
		covered := true
		for _, id := range types {
			if !hasFieldOfType(prog.Type(id), e) {
				covered = false
				break
			}
		}
		if covered {
			return e, true
		}
	}
	return program.NoType, false
}

func hasFieldOfType(t *program.Type, id program.TypeID) bool {
	for _, f := range t.Fields {
		if f.Type == id {
			return true
		}
	}
	return false
}

// Analyze returns the verdict for the whole set:
//
//   - an empty set has nothing to check
//   - a single enum is secure, its tag is the discriminant
//   - structs sharing an umbrella enum are secure
//   - otherwise every struct without a discriminant is reported, and every
//     enum is reported when more than one enum is present
func Analyze(prog *program.Program, set *Set) []Finding {
	types := set.Types()
	n := len(types)
	if n == 0 {
		return nil
	}
	if n == 1 {
		if t := prog.Type(types[0]); t != nil && t.IsEnum() {
			return nil
		}
	}
	if _, ok := Umbrella(prog, types); ok {
		return nil
	}

	var enums []program.TypeID
	for _, id := range types {
		if t := prog.Type(id); t != nil && t.IsEnum() {
			enums = append(enums, id)
		}
	}

	var findings []Finding
	for _, id := range types {
		t := prog.Type(id)
		switch {
		case t == nil:
			continue
		case t.IsEnum():
			if len(enums) > 1 {
				findings = append(findings, set.finding(id, MultipleEnums))
			}
		case !t.IsStruct():
			continue
		case !HasDiscriminant(prog, id):
			findings = append(findings, set.finding(id, MissingDiscriminant))
		}
	}
	return findings
}

func (s *Set) finding(id program.TypeID, reason Reason) Finding {
	sites := s.sites[id]
	return Finding{Type: id, Reason: reason, Site: sites[0], Others: sites[1:]}
}
