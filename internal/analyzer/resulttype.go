package analyzer

import (
	"github.com/funvibe/blockc/internal/ir"
	"github.com/funvibe/blockc/internal/lattice"
)

// PureResultType returns the result type for opcodes whose type depends on
// at most a LEFT/RIGHT pair of already-known child types, with no state
// threading of its own. The rewriter (C5) uses this to set a node's Type
// field from its rewritten children's types in a single bottom-up pass,
// instead of re-walking the original tree through Analyzer.analyzeInput
// (spec.md §4.5: "other inputs have their type field set to analyzer(self)").
// left/right are ignored by every opcode but the four arithmetic ones.
func PureResultType(op ir.Opcode, left, right lattice.Type) lattice.Type {
	switch op {
	case ir.OP_ADD:
		return addOp(left, right)
	case ir.OP_SUB:
		return subOp(left, right)
	case ir.OP_MUL:
		return mulOp(left, right)
	case ir.OP_DIV:
		return divOp(left, right)
	case ir.OP_MOD, ir.OP_POW_E, ir.OP_POW_10, ir.OP_RANDOM:
		return lattice.NumberOrNaN
	case ir.OP_AND, ir.OP_OR, ir.OP_NOT, ir.OP_EQ, ir.OP_LT, ir.OP_GT, ir.OP_CONTAINS:
		return lattice.Boolean
	case ir.OP_JOIN, ir.OP_LETTER_OF:
		return lattice.String
	case ir.OP_LEN, ir.LIST_LENGTH, ir.LIST_INDEX_OF:
		return lattice.PosInt | lattice.Zero
	case ir.OP_ABS:
		return lattice.Number &^ lattice.Neg
	case ir.OP_FLOOR, ir.OP_CEIL, ir.OP_ROUND:
		return lattice.Number &^ lattice.Fract
	case ir.OP_SQRT, ir.OP_LN, ir.OP_LOG10, ir.OP_ASIN, ir.OP_ACOS, ir.OP_ATAN:
		return lattice.NumberOrNaN
	case ir.OP_SIN, ir.OP_COS, ir.OP_TAN:
		return lattice.NumberOrNaN
	case ir.LIST_GET, ir.LIST_CONTENTS:
		return lattice.Any
	case ir.LIST_CONTAINS:
		return lattice.Boolean
	case ir.PROCEDURE_ARG_NUM:
		return lattice.NumberOrNaN
	case ir.PROCEDURE_ARG_STRING:
		return lattice.String
	case ir.PROCEDURE_ARG_BOOL:
		return lattice.Boolean
	case ir.MOTION_X_POSITION, ir.MOTION_Y_POSITION, ir.MOTION_DIRECTION, ir.LOOKS_COSTUME_NUM, ir.LOOKS_SIZE:
		return lattice.NumberOrNaN
	case ir.SENSING_OF:
		return lattice.Any
	case ir.COMPATIBILITY_LAYER_INPUT:
		return lattice.Any
	default:
		return lattice.Any
	}
}

// CastResultType mirrors the CAST_* cases of Analyzer.transferInput as a
// pure function of the already-known inner type, so the rewriter can
// recompute a cast node's self type without re-walking its child (spec.md
// §4.2/§4.5).
func CastResultType(op ir.Opcode, inner lattice.Type) lattice.Type {
	switch op {
	case ir.CAST_BOOLEAN:
		return lattice.Boolean
	case ir.CAST_STRING:
		return lattice.String
	case ir.CAST_NUMBER_INDEX:
		return lattice.Number
	case ir.CAST_NUMBER:
		if lattice.IsSometimes(inner, lattice.Number) {
			refined := inner & lattice.NumberOrNaN
			if lattice.IsSometimes(refined, lattice.NaN) {
				refined = (refined &^ lattice.NaN) | lattice.Zero
			}
			return refined
		}
		return lattice.Number
	case ir.CAST_NUMBER_OR_NAN:
		if lattice.IsSometimes(inner, lattice.NumberOrNaN) {
			return inner & lattice.NumberOrNaN
		}
		return lattice.NumberOrNaN
	default:
		return lattice.Any
	}
}

// CastDropTarget returns the lattice type a cast opcode targets and whether
// that cast is droppable when its inner input is already always a subset of
// that target (a redundant identity coercion). CAST_NUMBER_INDEX is
// deliberately excluded: it also truncates toward zero, so it is never a
// no-op even when the inner value is already numeric (spec.md §4.2).
func CastDropTarget(op ir.Opcode) (lattice.Type, bool) {
	switch op {
	case ir.CAST_BOOLEAN:
		return lattice.Boolean, true
	case ir.CAST_STRING:
		return lattice.String, true
	case ir.CAST_NUMBER:
		return lattice.Number, true
	case ir.CAST_NUMBER_OR_NAN:
		return lattice.NumberOrNaN, true
	default:
		return lattice.Bottom, false
	}
}
