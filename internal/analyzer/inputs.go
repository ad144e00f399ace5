package analyzer

import (
	"github.com/funvibe/blockc/internal/diagnostics"
	"github.com/funvibe/blockc/internal/ir"
	"github.com/funvibe/blockc/internal/lattice"
	"github.com/funvibe/blockc/internal/typestate"
)

// analyzeInput computes n's refined result type by case analysis on its
// opcode (spec.md §4.4). It does not mutate n — the rewriter (C5) is what
// writes analyzer-derived types back onto the tree — except that a node
// flagged Yields clears the threaded TypeState as a side effect, since
// another script may run and mutate shared variables before control
// returns (spec.md §4.4, §5).
func (a *Analyzer) analyzeInput(n *ir.Input, state *typestate.State) (lattice.Type, error) {
	if n == nil {
		return lattice.Any, nil
	}
	t, err := a.transferInput(n, state)
	if err != nil {
		return lattice.Any, err
	}
	if n.Yields {
		state.Clear()
	}
	return t, nil
}

func (a *Analyzer) transferInput(n *ir.Input, state *typestate.State) (lattice.Type, error) {
	switch n.Opcode {
	case ir.CONSTANT:
		return n.Type, nil

	case ir.VAR_GET:
		return state.Get(n.VarName()), nil

	case ir.CAST_BOOLEAN:
		return lattice.Boolean, nil

	case ir.CAST_STRING:
		return lattice.String, nil

	case ir.CAST_NUMBER:
		inner, err := a.analyzeInput(n.Inputs["TARGET"], state)
		if err != nil {
			return 0, err
		}
		if lattice.IsSometimes(inner, lattice.Number) {
			refined := inner & lattice.NumberOrNaN
			if lattice.IsSometimes(refined, lattice.NaN) {
				refined = (refined &^ lattice.NaN) | lattice.Zero
			}
			return refined, nil
		}
		return lattice.Number, nil

	case ir.CAST_NUMBER_OR_NAN:
		inner, err := a.analyzeInput(n.Inputs["TARGET"], state)
		if err != nil {
			return 0, err
		}
		if lattice.IsSometimes(inner, lattice.NumberOrNaN) {
			return inner & lattice.NumberOrNaN, nil
		}
		return lattice.NumberOrNaN, nil

	case ir.CAST_NUMBER_INDEX:
		if _, err := a.analyzeInput(n.Inputs["TARGET"], state); err != nil {
			return 0, err
		}
		return lattice.Number, nil

	case ir.OP_ADD:
		return a.binaryArith(n, state, addOp)
	case ir.OP_SUB:
		return a.binaryArith(n, state, subOp)
	case ir.OP_MUL:
		return a.binaryArith(n, state, mulOp)
	case ir.OP_DIV:
		return a.binaryArith(n, state, divOp)

	case ir.OP_MOD, ir.OP_POW_E, ir.OP_POW_10, ir.OP_RANDOM:
		if err := a.analyzeChildren(n, state); err != nil {
			return 0, err
		}
		return lattice.NumberOrNaN, nil

	case ir.OP_AND, ir.OP_OR, ir.OP_NOT, ir.OP_EQ, ir.OP_LT, ir.OP_GT, ir.OP_CONTAINS:
		if err := a.analyzeChildren(n, state); err != nil {
			return 0, err
		}
		return lattice.Boolean, nil

	case ir.OP_JOIN, ir.OP_LETTER_OF:
		if err := a.analyzeChildren(n, state); err != nil {
			return 0, err
		}
		return lattice.String, nil

	case ir.OP_LEN, ir.LIST_LENGTH, ir.LIST_INDEX_OF:
		if err := a.analyzeChildren(n, state); err != nil {
			return 0, err
		}
		return lattice.PosInt | lattice.Zero, nil

	case ir.OP_ABS:
		if err := a.analyzeChildren(n, state); err != nil {
			return 0, err
		}
		return lattice.Number &^ lattice.Neg, nil

	case ir.OP_FLOOR, ir.OP_CEIL, ir.OP_ROUND:
		if err := a.analyzeChildren(n, state); err != nil {
			return 0, err
		}
		return lattice.Number &^ lattice.Fract, nil

	case ir.OP_SQRT, ir.OP_LN, ir.OP_LOG10, ir.OP_ASIN, ir.OP_ACOS, ir.OP_ATAN:
		if err := a.analyzeChildren(n, state); err != nil {
			return 0, err
		}
		return lattice.NumberOrNaN, nil

	case ir.OP_SIN, ir.OP_COS, ir.OP_TAN:
		if err := a.analyzeChildren(n, state); err != nil {
			return 0, err
		}
		return lattice.NumberOrNaN, nil

	case ir.LIST_GET, ir.LIST_CONTENTS:
		if err := a.analyzeChildren(n, state); err != nil {
			return 0, err
		}
		return lattice.Any, nil

	case ir.LIST_CONTAINS:
		if err := a.analyzeChildren(n, state); err != nil {
			return 0, err
		}
		return lattice.Boolean, nil

	case ir.PROCEDURE_ARG_NUM:
		return lattice.NumberOrNaN, nil
	case ir.PROCEDURE_ARG_STRING:
		return lattice.String, nil
	case ir.PROCEDURE_ARG_BOOL:
		return lattice.Boolean, nil

	case ir.MOTION_X_POSITION, ir.MOTION_Y_POSITION, ir.MOTION_DIRECTION, ir.LOOKS_COSTUME_NUM, ir.LOOKS_SIZE:
		// Motion/looks/sensing readers are opaque host reads; the analyzer
		// only knows their declared result kind (spec.md §3).
		return lattice.NumberOrNaN, nil

	case ir.SENSING_OF:
		if err := a.analyzeChildren(n, state); err != nil {
			return 0, err
		}
		return lattice.Any, nil

	case ir.COMPATIBILITY_LAYER_INPUT:
		if err := a.analyzeChildren(n, state); err != nil {
			return 0, err
		}
		return lattice.Any, nil

	default:
		return lattice.Any, diagnostics.NewUnknownOpcodeError(string(n.Opcode))
	}
}

// binaryArith analyzes LEFT/RIGHT (spec.md IR shape: inputs keyed by
// role) and applies the given bucket-table transfer function.
func (a *Analyzer) binaryArith(n *ir.Input, state *typestate.State, op func(a, b lattice.Type) lattice.Type) (lattice.Type, error) {
	left, err := a.analyzeInput(n.Inputs["LEFT"], state)
	if err != nil {
		return 0, err
	}
	right, err := a.analyzeInput(n.Inputs["RIGHT"], state)
	if err != nil {
		return 0, err
	}
	return op(left, right), nil
}

// analyzeChildren analyzes every child input purely for its side effects
// on state (yield-clearing), discarding the individual types — used by
// opcodes whose own result type does not depend on its operands' refined
// types (spec.md §4.4: "anything not explicitly refined falls back").
func (a *Analyzer) analyzeChildren(n *ir.Input, state *typestate.State) error {
	for _, child := range n.Inputs {
		if _, err := a.analyzeInput(child, state); err != nil {
			return err
		}
	}
	return nil
}
