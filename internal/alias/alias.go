// Package alias tracks which access paths of a function designate the same
// storage.
//
// Equivalence is syntactic and function-local. The tracker follows plain
// assignments (`x = y`, `x = y.f`, `x = y.clone()`, `x = &y`) and aggregate
// constructions (`x = T { f: y }` makes `x.f` an alias of `y`). It makes one
// pass over the blocks in reverse post-order and never looks through calls
// other than the transparent conversions of PathOf, heap indirection, or
// back edges a second time.
package alias

import (
	"sealscan/internal/program"
	"sealscan/internal/strategy"
)

type Tracker struct {
	fn        *program.Function
	aliases   map[string]Path
	assigned  map[string]bool
	ambiguous map[string]bool
	origins   map[program.LocalID]program.ExprID
}

func Build(fn *program.Function) *Tracker {
	t := &Tracker{
		fn:        fn,
		aliases:   make(map[string]Path),
		assigned:  make(map[string]bool),
		ambiguous: make(map[string]bool),
		origins:   make(map[program.LocalID]program.ExprID),
	}
	for _, b := range ReversePostOrder(fn) {
		for _, stmt := range fn.Blocks[b].Stmts {
			if stmt.Kind == program.StmtAssign {
				t.assign(stmt.Place, stmt.Value)
			}
		}
	}
	return t
}

func (t *Tracker) assign(placeID, valueID program.ExprID) {
	place, ok := PathOf(t.fn, placeID)
	if !ok {
		return
	}
	if place.IsLocal() {
		if prev, seen := t.origins[place.Root]; seen && prev != valueID {
			t.origins[place.Root] = program.NoExpr
		} else {
			t.origins[place.Root] = valueID
		}
	}

	value := t.fn.Expr(valueID)
	if value.Kind == program.ExprConstruct && len(value.Fields) > 0 {
		for _, f := range value.Fields {
			if src, ok := PathOf(t.fn, f.Value); ok {
				t.record(place.Append(f.Name), src)
			} else {
				t.forget(place.Append(f.Name))
			}
		}
		return
	}

	src, ok := PathOf(t.fn, valueID)
	if !ok {
		t.forget(place)
		return
	}
	t.record(place, src)
}

// record makes dst an alias of src, canonicalized now so chains stay
// transitive. A second, different source makes dst ambiguous for good.
func (t *Tracker) record(dst, src Path) {
	key := dst.Key()
	if t.ambiguous[key] {
		return
	}
	target := t.Canonical(src)
	if target.HasPrefix(dst) {
		return
	}
	if t.assigned[key] {
		if prev, ok := t.aliases[key]; !ok || !prev.Equal(target) {
			t.markAmbiguous(key)
		}
		return
	}
	t.assigned[key] = true
	t.aliases[key] = target
}

// forget handles dst being assigned from something the tracker cannot
// resolve.
func (t *Tracker) forget(dst Path) {
	key := dst.Key()
	if t.assigned[key] {
		t.markAmbiguous(key)
		return
	}
	t.assigned[key] = true
}

func (t *Tracker) markAmbiguous(key string) {
	delete(t.aliases, key)
	t.ambiguous[key] = true
}

// Canonical rewrites the longest aliased prefix of p to its canonical
// representative, repeatedly, at most once per recorded alias.
func (t *Tracker) Canonical(p Path) Path {
	for i := 0; i <= len(t.aliases); i++ {
		next, changed := t.rewrite(p)
		if !changed {
			return p
		}
		p = next
	}
	return p
}

func (t *Tracker) rewrite(p Path) (Path, bool) {
	for n := len(p.Projs); n >= 0; n-- {
		prefix := Path{Root: p.Root, Projs: p.Projs[:n]}
		key := prefix.Key()
		if t.ambiguous[key] {
			return p, false
		}
		if target, ok := t.aliases[key]; ok {
			return target.Append(p.Projs[n:]...), true
		}
	}
	return p, false
}

// Path returns the canonical access path of an expression.
func (t *Tracker) Path(id program.ExprID) (Path, bool) {
	p, ok := PathOf(t.fn, id)
	if !ok {
		return Path{}, false
	}
	return t.Canonical(p), true
}

// Same reports whether two expressions designate the same storage.
func (t *Tracker) Same(a, b program.ExprID) bool {
	pa, ok := t.Path(a)
	if !ok {
		return false
	}
	pb, ok := t.Path(b)
	return ok && pa.Equal(pb)
}

// Origin returns the value expression a local was assigned from, or NoExpr
// when it never was or was assigned from different expressions.
func (t *Tracker) Origin(l program.LocalID) program.ExprID {
	return t.origins[l]
}

// Resolve follows derefs, borrows and single-origin locals back to the
// expression that produced a value.
func (t *Tracker) Resolve(id program.ExprID) program.ExprID {
	for steps := 0; steps <= len(t.fn.Exprs); steps++ {
		e := t.fn.Expr(id)
		if e == nil {
			return program.NoExpr
		}
		switch e.Kind {
		case program.ExprDeref, program.ExprRef:
			id = e.Base
		case program.ExprLocal:
			origin := t.Origin(e.Local)
			if origin == program.NoExpr {
				return id
			}
			id = origin
		default:
			return id
		}
	}
	return id
}

// ReversePostOrder lists the blocks reachable from the entry in reverse
// post-order, followed by the unreachable ones in index order.
func ReversePostOrder(fn *program.Function) []program.BlockID {
	type frame struct {
		block program.BlockID
		next  int
	}
	n := len(fn.Blocks)
	visited := make([]bool, n)
	post := make([]program.BlockID, 0, n)
	if fn.Block(fn.Entry) != nil {
		stack := strategy.NewDFS[frame]()
		visited[fn.Entry] = true
		_ = stack.Push(frame{block: fn.Entry})
		for stack.HasNext() {
			top, _ := stack.Pop()
			succs := fn.Blocks[top.block].Succs
			if top.next >= len(succs) {
				post = append(post, top.block)
				continue
			}
			_ = stack.Push(frame{block: top.block, next: top.next + 1})
			succ := succs[top.next]
			if fn.Block(succ) != nil && !visited[succ] {
				visited[succ] = true
				_ = stack.Push(frame{block: succ})
			}
		}
	}
	order := make([]program.BlockID, 0, n)
	for i := len(post) - 1; i >= 0; i-- {
		order = append(order, post[i])
	}
	for b := 0; b < n; b++ {
		if !visited[b] {
			order = append(order, program.BlockID(b))
		}
	}
	return order
}
