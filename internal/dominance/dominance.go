// Package dominance answers block-dominance queries over one function's CFG.
//
// Block A dominates block B iff every path from the entry to B passes through
// A. The relation is computed once by removing each block in turn and walking
// the graph from the entry: the blocks that become unreachable are exactly
// the ones A dominates. The cost is O(blocks × edges) with no fixpoint
// iteration, and the result is immutable.
package dominance

import (
	"sealscan/internal/program"
	"sealscan/internal/strategy"
)

type Tree struct {
	entry program.BlockID
	succs [][]program.BlockID
	reach []bool
	dom   [][]bool
	idom  []program.BlockID
}

func Compute(fn *program.Function) *Tree {
	n := len(fn.Blocks)
	t := &Tree{
		entry: fn.Entry,
		succs: make([][]program.BlockID, n),
		dom:   make([][]bool, n),
		idom:  make([]program.BlockID, n),
	}
	for i := range fn.Blocks {
		t.succs[i] = append([]program.BlockID(nil), fn.Blocks[i].Succs...)
	}
	t.reach = t.walk(nil)

	for a := 0; a < n; a++ {
		t.dom[a] = make([]bool, n)
		if !t.reach[a] {
			// an unreachable block only dominates itself and the other
			// unreachable blocks, vacuously
			for b := 0; b < n; b++ {
				t.dom[a][b] = !t.reach[b]
			}
			continue
		}
		seen := t.walk(map[program.BlockID]bool{program.BlockID(a): true})
		for b := 0; b < n; b++ {
			t.dom[a][b] = !seen[b]
		}
	}

	depth := make([]int, n)
	for b := 0; b < n; b++ {
		for a := 0; a < n; a++ {
			if t.reach[a] && t.dom[a][b] {
				depth[b]++
			}
		}
	}
	for b := 0; b < n; b++ {
		t.idom[b] = program.NoBlock
		if !t.reach[b] || program.BlockID(b) == t.entry {
			continue
		}
		for a := 0; a < n; a++ {
			if a == b || !t.reach[a] || !t.dom[a][b] {
				continue
			}
			if t.idom[b] == program.NoBlock || depth[a] > depth[t.idom[b]] {
				t.idom[b] = program.BlockID(a)
			}
		}
	}
	return t
}

// walk returns the blocks reachable from the entry without entering avoid.
func (t *Tree) walk(avoid map[program.BlockID]bool) []bool {
	seen := make([]bool, len(t.succs))
	if t.valid(t.entry) && !avoid[t.entry] {
		worklist := strategy.NewBFS[program.BlockID]()
		seen[t.entry] = true
		_ = worklist.Push(t.entry)
		for worklist.HasNext() {
			block, _ := worklist.Pop()
			for _, succ := range t.succs[block] {
				if !t.valid(succ) || seen[succ] || avoid[succ] {
					continue
				}
				seen[succ] = true
				_ = worklist.Push(succ)
			}
		}
	}
	return seen
}

func (t *Tree) valid(b program.BlockID) bool {
	return b >= 0 && int(b) < len(t.succs)
}

func (t *Tree) Len() int {
	return len(t.succs)
}

func (t *Tree) Entry() program.BlockID {
	return t.entry
}

// Reachable reports whether b can be reached from the entry.
func (t *Tree) Reachable(b program.BlockID) bool {
	return t.valid(b) && t.reach[b]
}

// Dominates reports whether a dominates b. Every block dominates itself.
func (t *Tree) Dominates(a, b program.BlockID) bool {
	if !t.valid(a) || !t.valid(b) {
		return false
	}
	return t.dom[a][b]
}

// Idom returns the immediate dominator of b, or NoBlock for the entry and
// for unreachable blocks.
func (t *Tree) Idom(b program.BlockID) program.BlockID {
	if !t.valid(b) {
		return program.NoBlock
	}
	return t.idom[b]
}

// DominatedBySet reports whether every path from the entry to b passes
// through at least one block of set. A single-element set is plain
// dominance. Unreachable blocks are dominated by any set.
func (t *Tree) DominatedBySet(set []program.BlockID, b program.BlockID) bool {
	if !t.valid(b) {
		return false
	}
	if !t.reach[b] {
		return true
	}
	avoid := make(map[program.BlockID]bool, len(set))
	for _, s := range set {
		if s == b {
			return true
		}
		avoid[s] = true
	}
	if len(avoid) == 0 {
		return false
	}
	return !t.walk(avoid)[b]
}

// CanReach reports whether there is a non-empty path from src to dst.
func (t *Tree) CanReach(src, dst program.BlockID) bool {
	if !t.valid(src) || !t.valid(dst) {
		return false
	}
	visited := make([]bool, len(t.succs))
	worklist := strategy.NewDFS[program.BlockID]()
	_ = worklist.Push(t.succs[src]...)
	for worklist.HasNext() {
		block, _ := worklist.Pop()
		if !t.valid(block) || visited[block] {
			continue
		}
		if block == dst {
			return true
		}
		visited[block] = true
		_ = worklist.Push(t.succs[block]...)
	}
	return false
}

// InLoop reports whether b lies on a cycle of the CFG.
func (t *Tree) InLoop(b program.BlockID) bool {
	return t.CanReach(b, b)
}
