// Package tacopt implements the peephole/copy-coalescing pass applied to a
// generated quad stream before it is printed and re-parsed for MIPS
// emission (S3 front half).
package tacopt

import "github.com/compiscript/ccc/pkg/tac"

// Optimizer runs the peephole pass over a quad stream. It carries no state
// between calls; New exists so callers thread an optimizer value through a
// pipeline the same way they thread a TAC generator or MIPS emitter.
type Optimizer struct{}

// New creates an Optimizer.
func New() *Optimizer { return &Optimizer{} }

// Optimize runs a single-pass peephole rewrite: self-copies are dropped
// unconditionally, then any "tA = <simple operand>" assignment whose tA
// is used exactly once
// elsewhere is deleted and that one use is replaced by the operand
// directly. Label lines are never touched. Running Optimize again on its
// own output is a no-op. Surviving quads are rewritten in place rather
// than cloned: nothing in the pipeline reads the pre-optimized stream
// again once it has been optimized.
func Optimize(quads []tac.Quad) []tac.Quad {
	return coalesceCopies(removeSelfCopies(quads))
}

func (o *Optimizer) Optimize(quads []tac.Quad) []tac.Quad {
	return Optimize(quads)
}

func removeSelfCopies(quads []tac.Quad) []tac.Quad {
	out := make([]tac.Quad, 0, len(quads))
	for _, q := range quads {
		if as, ok := q.(*tac.Assign); ok && as.Dst == as.Src {
			continue
		}
		out = append(out, q)
	}
	return out
}

func coalesceCopies(quads []tac.Quad) []tac.Quad {
	useCount := map[string]int{}
	for _, q := range quads {
		for _, p := range uses(q) {
			useCount[*p]++
		}
	}

	subst := map[string]string{}
	drop := map[int]bool{}
	for i, q := range quads {
		as, ok := q.(*tac.Assign)
		if !ok {
			continue
		}
		if useCount[as.Dst] == 1 {
			subst[as.Dst] = as.Src
			drop[i] = true
		}
	}

	out := make([]tac.Quad, 0, len(quads))
	for i, q := range quads {
		if drop[i] {
			continue
		}
		for _, p := range uses(q) {
			if v, ok := subst[*p]; ok {
				*p = v
			}
		}
		out = append(out, q)
	}
	return out
}

// uses returns pointers to every operand slot of q that reads a variable
// (as opposed to defining one, or naming a label/function/class). The same
// pointers back both the use-count pass and the rewrite pass, so the two
// can never disagree about what counts as a use.
func uses(q tac.Quad) []*string {
	switch n := q.(type) {
	case *tac.IfZ:
		return nonEmpty(&n.Src)
	case *tac.Assign:
		return nonEmpty(&n.Src)
	case *tac.BinQuad:
		return nonEmpty(&n.A, &n.B)
	case *tac.Return:
		return nonEmpty(&n.Src)
	case *tac.Param:
		return nonEmpty(&n.Src)
	case *tac.GetProp:
		return nonEmpty(&n.Obj)
	case *tac.SetProp:
		return nonEmpty(&n.Obj, &n.Src)
	}
	return nil
}

func nonEmpty(ptrs ...*string) []*string {
	out := make([]*string, 0, len(ptrs))
	for _, p := range ptrs {
		if *p != "" {
			out = append(out, p)
		}
	}
	return out
}
