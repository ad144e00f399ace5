// Package analyzer implements C4: a dataflow walker that propagates a
// TypeState through a Script's IR, computing a refined lattice.Type for
// every Input and recording entry/exit TypeState snapshots on every
// Stack block. See spec.md §3, §4.4.
//
// Grounded on internal/analyzer/analyzer.go's walker struct (mutable
// analysis state threaded through a tree walk, a TypeMap produced as a
// side effect) and internal/analyzer/inference_control.go /
// inference_range.go for the shape of "walk branches and loops, cloning
// and rejoining inference state at each join point".
package analyzer

import (
	"fmt"

	"github.com/funvibe/blockc/internal/diagnostics"
	"github.com/funvibe/blockc/internal/ir"
	"github.com/funvibe/blockc/internal/lattice"
	"github.com/funvibe/blockc/internal/typestate"
)

// ProcedureSummary is the hook spec.md §4.4/§9 leaves for future
// summary-based refinement of procedure calls. The Analyzer never
// computes one itself; PROCEDURE_CALL clears state at the call site
// unless a caller has placed a summary with non-nil Effects in
// Analyzer.Summaries for that variant.
type ProcedureSummary struct {
	// Effects, if non-nil, is applied to the caller's TypeState instead of
	// a full Clear.
	Effects func(*typestate.State)
}

// Analyzer walks IR bundles, annotating Stack blocks with TypeState
// snapshots as it goes.
type Analyzer struct {
	Logger diagnostics.Logger

	// Summaries, if populated by a caller, lets PROCEDURE_CALL apply a
	// recorded effect instead of clearing (see ProcedureSummary). Nil
	// entries (the default for every key) mean "clear".
	Summaries map[string]*ProcedureSummary
}

// New creates an Analyzer with a no-op Logger.
func New() *Analyzer {
	return &Analyzer{Logger: diagnostics.NopLogger{}, Summaries: map[string]*ProcedureSummary{}}
}

// AnalyzeIR runs the analyzer over every procedure in bundle.Entry's
// dependency list (in the order given — front-end lowering is expected to
// supply them in dependency order, spec.md §4.4 "Order of analysis")
// followed by the entry script itself.
func (a *Analyzer) AnalyzeIR(bundle *ir.IR) error {
	seen := map[string]bool{}
	for _, variant := range bundle.Entry.DependedProcedures {
		if seen[variant] {
			continue
		}
		seen[variant] = true
		proc, ok := bundle.Procedures[variant]
		if !ok {
			return diagnostics.NewMissingDependencyError(variant)
		}
		if err := a.analyzeScript(proc); err != nil {
			return err
		}
		a.Logger.Debugf("analyzed procedure %s", variant)
	}
	if err := a.analyzeScript(bundle.Entry); err != nil {
		return err
	}
	a.Logger.Debugf("analyzed entry script %s", bundle.Entry.TopBlockID)
	return nil
}

func (a *Analyzer) analyzeScript(s *ir.Script) error {
	state := typestate.New()
	for _, arg := range s.ArgumentNames {
		// Procedure arguments are unknown at analysis time: every call
		// site may pass a different runtime type (no summaries, per
		// spec.md §9).
		state.Set(arg, lattice.Any)
	}
	_, err := a.analyzeStacks(s.Body, state)
	return err
}

// analyzeStacks threads state through an ordered sequence of Stack
// blocks, annotating each with its entry/exit snapshot.
func (a *Analyzer) analyzeStacks(stacks []*ir.Stack, state *typestate.State) (*typestate.State, error) {
	for _, blk := range stacks {
		blk.SetEntryState(state.Clone())
		if err := a.analyzeStack(blk, state); err != nil {
			return nil, err
		}
		blk.SetExitState(state.Clone())
	}
	return state, nil
}

// analyzeStack mutates state according to blk's opcode (spec.md §4.4).
func (a *Analyzer) analyzeStack(blk *ir.Stack, state *typestate.State) error {
	switch blk.Opcode {
	case ir.VAR_SET:
		t, err := a.analyzeInput(blk.Inputs["VALUE"], state)
		if err != nil {
			return err
		}
		state.Set(blk.VarName(), t)

	case ir.IF_ELSE:
		if _, err := a.analyzeInput(blk.Inputs["CONDITION"], state); err != nil {
			return err
		}
		clone := state.Clone()
		if _, err := a.analyzeStacks(blk.Stacks["THEN"], clone); err != nil {
			return err
		}
		if _, err := a.analyzeStacks(blk.Stacks["ELSE"], state); err != nil {
			return err
		}
		state.Or(clone)

	case ir.WHILE, ir.FOR, ir.REPEAT:
		if err := a.analyzeLoop(blk, state); err != nil {
			return err
		}

	case ir.PROCEDURE_CALL:
		for _, arg := range blk.Inputs {
			if _, err := a.analyzeInput(arg, state); err != nil {
				return err
			}
		}
		variant := blk.Fields["PROCEDURE"]
		if summary := a.Summaries[variant]; summary != nil && summary.Effects != nil {
			summary.Effects(state)
		} else {
			state.Clear()
		}

	case ir.COMPATIBILITY_LAYER, ir.ADDON_CALL, ir.EVENT_BROADCAST_AND_WAIT:
		for _, arg := range blk.Inputs {
			if _, err := a.analyzeInput(arg, state); err != nil {
				return err
			}
		}
		// These may reach user code (an extension callback, another
		// script's hat handler) so any variable could be mutated before
		// control returns — clear conservatively (spec.md §4.4, §5).
		state.Clear()

	default:
		for _, arg := range blk.Inputs {
			if _, err := a.analyzeInput(arg, state); err != nil {
				return err
			}
		}
		for _, nested := range blk.Stacks {
			if _, err := a.analyzeStacks(nested, state); err != nil {
				return err
			}
		}
		if blk.Yields {
			// Any other command flagged as yielding may let another
			// script run in between (spec.md §4.4, §5).
			state.Clear()
		}
	}
	return nil
}

// analyzeLoop implements the fixed-point iteration of spec.md §4.4: copy
// state, analyze the body on the copy, join back, repeat until the join
// reports no change. A loop whose head yields instead clears once and
// analyzes the body a single time, since further iteration cannot refine
// an already-top state.
func (a *Analyzer) analyzeLoop(blk *ir.Stack, state *typestate.State) error {
	if _, err := a.analyzeInput(blk.Inputs["CONDITION"], state); err != nil {
		return err
	}

	if blk.Yields {
		state.Clear()
		blk.SetEntryState(state.Clone())
		_, err := a.analyzeStacks(blk.Stacks["BODY"], state)
		return err
	}

	// The lattice has finite height and every transfer function is
	// monotone, so this always converges (spec.md §4.4 "Termination");
	// maxFixedPointIterations is a defensive backstop, not a real limit.
	for i := 0; i < maxFixedPointIterations; i++ {
		bodyState := state.Clone()
		if _, err := a.analyzeStacks(blk.Stacks["BODY"], bodyState); err != nil {
			return err
		}
		if !state.Or(bodyState) {
			return nil
		}
	}
	return fmt.Errorf("analyzer: %s loop did not reach a type fixed point within %d iterations (internal invariant violation)", blk.Opcode, maxFixedPointIterations)
}

// maxFixedPointIterations bounds spec.md §4.4's loop fixed-point: with
// numAtoms lattice atoms the join can strictly grow at most numAtoms
// times per variable, so a generous multiple of that is a correctness
// backstop against an analyzer bug, never a real limit in practice.
const maxFixedPointIterations = 4096
