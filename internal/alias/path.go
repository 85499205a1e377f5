package alias

import (
	"strconv"
	"strings"

	"sealscan/internal/program"
)

// IndexProj is the projection recorded for any element access `x[i]`.
const IndexProj = "[]"

// transparent lists the zero-argument methods that return (a view of) their
// receiver: they never change which storage a path designates.
var transparent = map[string]bool{
	"clone":           true,
	"borrow":          true,
	"borrow_mut":      true,
	"to_account_info": true,
	"as_ref":          true,
	"as_mut":          true,
	"deref":           true,
	"deref_mut":       true,
	"unwrap":          true,
}

// projecting lists the zero-argument methods that read a field of their
// receiver; `x.key()` designates the same storage as `x.key`.
var projecting = map[string]bool{
	"key":       true,
	"owner":     true,
	"lamports":  true,
	"data":      true,
	"is_signer": true,
}

// IsTransparent reports whether a zero-argument method returns a view of its
// receiver.
func IsTransparent(method string) bool {
	return transparent[method]
}

// Path is an access path: a local root followed by projections.
type Path struct {
	Root  program.LocalID
	Projs []string
}

func (p Path) IsLocal() bool {
	return len(p.Projs) == 0
}

// Key is a comparable encoding of the path.
func (p Path) Key() string {
	var sb strings.Builder
	sb.WriteString(strconv.Itoa(int(p.Root)))
	for _, proj := range p.Projs {
		sb.WriteByte('.')
		sb.WriteString(proj)
	}
	return sb.String()
}

func (p Path) Equal(o Path) bool {
	if p.Root != o.Root || len(p.Projs) != len(o.Projs) {
		return false
	}
	for i := range p.Projs {
		if p.Projs[i] != o.Projs[i] {
			return false
		}
	}
	return true
}

// HasPrefix reports whether o is p or a path p projects through.
func (p Path) HasPrefix(o Path) bool {
	if p.Root != o.Root || len(p.Projs) < len(o.Projs) {
		return false
	}
	for i := range o.Projs {
		if p.Projs[i] != o.Projs[i] {
			return false
		}
	}
	return true
}

// Append returns a new path extended by projs.
func (p Path) Append(projs ...string) Path {
	out := make([]string, 0, len(p.Projs)+len(projs))
	out = append(out, p.Projs...)
	return Path{Root: p.Root, Projs: append(out, projs...)}
}

// Parent drops the last projection.
func (p Path) Parent() (Path, bool) {
	if p.IsLocal() {
		return p, false
	}
	return Path{Root: p.Root, Projs: p.Projs[:len(p.Projs)-1]}, true
}

// Last returns the final projection, or "" for a bare local.
func (p Path) Last() string {
	if p.IsLocal() {
		return ""
	}
	return p.Projs[len(p.Projs)-1]
}

// Format renders the path with local names, e.g. "ctx.accounts.vault".
func (p Path) Format(fn *program.Function) string {
	var sb strings.Builder
	if l := fn.Local(p.Root); l != nil && l.Name != "" {
		sb.WriteString(l.Name)
	} else {
		sb.WriteString("_" + strconv.Itoa(int(p.Root)))
	}
	for _, proj := range p.Projs {
		if proj == IndexProj {
			sb.WriteString(IndexProj)
			continue
		}
		sb.WriteByte('.')
		sb.WriteString(proj)
	}
	return sb.String()
}

// PathOf returns the syntactic access path designated by expression id, or
// false when the expression does not denote storage rooted at a local.
func PathOf(fn *program.Function, id program.ExprID) (Path, bool) {
	e := fn.Expr(id)
	if e == nil {
		return Path{}, false
	}
	switch e.Kind {
	case program.ExprLocal:
		return Path{Root: e.Local}, true
	case program.ExprField:
		base, ok := PathOf(fn, e.Base)
		if !ok {
			return Path{}, false
		}
		return base.Append(e.Field), true
	case program.ExprIndex:
		base, ok := PathOf(fn, e.Base)
		if !ok {
			return Path{}, false
		}
		return base.Append(IndexProj), true
	case program.ExprDeref, program.ExprRef:
		return PathOf(fn, e.Base)
	case program.ExprCall:
		if e.Base == program.NoExpr || len(e.Args) != 0 {
			return Path{}, false
		}
		method := e.Method()
		if transparent[method] {
			return PathOf(fn, e.Base)
		}
		if projecting[method] {
			base, ok := PathOf(fn, e.Base)
			if !ok {
				return Path{}, false
			}
			return base.Append(method), true
		}
	}
	return Path{}, false
}
