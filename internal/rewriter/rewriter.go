// Package rewriter implements C5: a second IR pass that consumes the
// TypeState snapshots the analyzer (C4) recorded on every Stack and uses
// them to drop redundant CAST_* nodes and stamp every Input's Type field
// with its analyzer-derived result (spec.md §3, §4.5).
//
// Grounded on internal/vm/compiler.go's use of a typeMap produced by a
// separate analysis pass and consulted during a later lowering walk (the
// same "analyze once, consult during a second pass" structure) and
// internal/typesystem/replace.go's substitution-over-a-typed-tree shape.
package rewriter

import (
	"fmt"
	"sort"

	"github.com/funvibe/blockc/internal/analyzer"
	"github.com/funvibe/blockc/internal/ir"
	"github.com/funvibe/blockc/internal/lattice"
	"github.com/funvibe/blockc/internal/typestate"
)

// Rewriter runs the cast-elimination/type-stamping pass. It carries no
// mutable state of its own between calls — every call takes the TypeState
// to thread explicitly — so a single zero-value Rewriter is safe to reuse
// across scripts.
type Rewriter struct{}

// New creates a Rewriter.
func New() *Rewriter { return &Rewriter{} }

// RewriteIR rewrites every procedure in bundle plus the entry script,
// in place. The analyzer must have already run over bundle (every Stack
// needs a recorded EntryState) or this returns an error.
func (r *Rewriter) RewriteIR(bundle *ir.IR) error {
	for _, proc := range bundle.Procedures {
		if err := r.RewriteScript(proc); err != nil {
			return err
		}
	}
	return r.RewriteScript(bundle.Entry)
}

// RewriteScript rewrites one script's body in place.
func (r *Rewriter) RewriteScript(s *ir.Script) error {
	return r.rewriteStacks(s.Body)
}

func (r *Rewriter) rewriteStacks(stacks []*ir.Stack) error {
	for _, blk := range stacks {
		if err := r.rewriteStack(blk); err != nil {
			return err
		}
	}
	return nil
}

// rewriteStack rewrites blk's own Inputs (using its recorded entry state as
// the starting TypeState for each) and then recurses into its nested
// Stacks, each of which carries its own recorded entry state already.
func (r *Rewriter) rewriteStack(blk *ir.Stack) error {
	raw := blk.EntryState()
	state, ok := raw.(*typestate.State)
	if !ok || state == nil {
		return fmt.Errorf("rewriter: %s block has no recorded entry TypeState (run the analyzer first)", blk.Opcode)
	}
	work := state.Clone()
	for k, in := range blk.Inputs {
		rewritten, _, err := r.rewriteInput(in, work)
		if err != nil {
			return err
		}
		blk.Inputs[k] = rewritten
	}
	for _, nested := range blk.Stacks {
		if err := r.rewriteStacks(nested); err != nil {
			return err
		}
	}
	return nil
}

// rewriteInput rewrites n bottom-up, dropping redundant CAST_* wrappers and
// stamping every surviving node's Type field with its analyzer-derived
// result (spec.md §4.5). It returns the rewritten node and that node's
// result type. state is threaded left-to-right across n's children exactly
// as the analyzer threads it, cleared whenever a child is itself flagged
// Yields, so nested yielding reads still see the correct entry state.
func (r *Rewriter) rewriteInput(n *ir.Input, state *typestate.State) (*ir.Input, lattice.Type, error) {
	if n == nil {
		return nil, lattice.Any, nil
	}

	switch n.Opcode {
	case ir.CONSTANT:
		return n, n.Type, nil
	case ir.VAR_GET:
		t := state.Get(n.VarName())
		if n.Yields {
			state.Clear()
		}
		return cloneInput(n, n.Inputs, t), t, nil
	}

	if ir.IsCast(n.Opcode) {
		inner, innerType, err := r.rewriteInput(n.Inputs["TARGET"], state)
		if err != nil {
			return nil, 0, err
		}
		if n.Yields {
			state.Clear()
		}
		if target, droppable := analyzer.CastDropTarget(n.Opcode); droppable && lattice.IsAlways(innerType, target) {
			// The cast is an identity coercion: drop it and hand back the
			// (already rewritten) inner node in its place.
			return inner, innerType, nil
		}
		selfType := analyzer.CastResultType(n.Opcode, innerType)
		out := cloneInput(n, map[string]*ir.Input{"TARGET": inner}, selfType)
		return out, selfType, nil
	}

	keys := make([]string, 0, len(n.Inputs))
	for k := range n.Inputs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	rewritten := make(map[string]*ir.Input, len(keys))
	childTypes := make(map[string]lattice.Type, len(keys))
	for _, k := range keys {
		rw, t, err := r.rewriteInput(n.Inputs[k], state)
		if err != nil {
			return nil, 0, err
		}
		rewritten[k] = rw
		childTypes[k] = t
	}
	if n.Yields {
		state.Clear()
	}

	selfType := analyzer.PureResultType(n.Opcode, childTypes["LEFT"], childTypes["RIGHT"])
	out := cloneInput(n, rewritten, selfType)
	return out, selfType, nil
}

// cloneInput builds a shallow copy of n with a new Inputs map and Type,
// keeping everything else (Fields, Yields, Literal) as-is.
func cloneInput(n *ir.Input, inputs map[string]*ir.Input, t lattice.Type) *ir.Input {
	return &ir.Input{
		Opcode:  n.Opcode,
		Inputs:  inputs,
		Fields:  n.Fields,
		Type:    t,
		Yields:  n.Yields,
		Literal: n.Literal,
	}
}
