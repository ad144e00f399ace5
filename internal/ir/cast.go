package ir

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/funvibe/blockc/internal/lattice"
)

// castOpcodeFor maps a target lattice type to the CAST_* opcode that
// coerces to it. Four of the five casts named in spec.md §4.2 are
// reachable here (CAST_NUMBER_INDEX is not, see below); any other target
// is an "impossible cast" (spec.md §7).
func castOpcodeFor(target lattice.Type) (Opcode, error) {
	switch target {
	case lattice.Boolean:
		return CAST_BOOLEAN, nil
	case lattice.Number:
		return CAST_NUMBER, nil
	case lattice.NumberOrNaN:
		return CAST_NUMBER_OR_NAN, nil
	case lattice.String:
		return CAST_STRING, nil
	default:
		// CAST_NUMBER_INDEX isn't reachable through ToType: it targets an
		// implementation-defined integer refinement, not a single named
		// lattice atom, so it has its own constructor (Input.ToIndex).
		return "", &ImpossibleCastError{Target: target}
	}
}

// ImpossibleCastError is returned by ToType when asked to cast to a
// target lattice type with no corresponding CAST_* opcode (spec.md §7).
type ImpossibleCastError struct {
	Target lattice.Type
}

func (e *ImpossibleCastError) Error() string {
	return fmt.Sprintf("impossible cast: no CAST_* opcode targets %s", e.Target)
}

// ToIndex wraps n in CAST_NUMBER_INDEX: CAST_NUMBER_OR_NAN followed by
// truncation toward zero (spec.md §4.2). Unlike ToType this opcode isn't
// addressed by a single lattice.Type target, so it gets its own
// constructor instead of going through castOpcodeFor.
func (n *Input) ToIndex() *Input {
	if n.Opcode == CONSTANT {
		f, ok := coerceToFloat(n.Literal)
		if ok && !math.IsNaN(f) {
			return NewConstant(math.Trunc(f))
		}
	}
	return &Input{Opcode: CAST_NUMBER_INDEX, Inputs: map[string]*Input{"TARGET": n}, Type: lattice.Number}
}

// castConstant performs op's coercion on a CONSTANT node's stored literal
// at build time, per spec.md §4.2.
func castConstant(n *Input, op Opcode) (*Input, error) {
	switch op {
	case CAST_BOOLEAN:
		return NewConstant(ToBoolean(n.Literal)), nil
	case CAST_NUMBER:
		f := ToNumberOrNaN(n.Literal)
		if math.IsNaN(f) {
			f = 0
		}
		return NewConstant(f), nil
	case CAST_NUMBER_OR_NAN:
		return NewConstant(ToNumberOrNaN(n.Literal)), nil
	case CAST_STRING:
		return NewConstant(ToHostString(n.Literal)), nil
	default:
		return nil, errors.New("castConstant: unsupported opcode " + string(op))
	}
}

// ToBoolean implements CAST_BOOLEAN's host-truthiness convention
// (spec.md §4.2): the strings "", "0", and "false" are false; every
// other string is true. Numbers are truthy except 0, -0 and NaN.
func ToBoolean(v interface{}) bool {
	switch x := v.(type) {
	case bool:
		return x
	case float64:
		return x != 0 && !math.IsNaN(x)
	case string:
		switch x {
		case "", "0", "false":
			return false
		default:
			return true
		}
	default:
		return v != nil
	}
}

// ToNumberOrNaN implements CAST_NUMBER_OR_NAN: lossless numeric coercion
// that may yield NaN (spec.md §4.2).
func ToNumberOrNaN(v interface{}) float64 {
	switch x := v.(type) {
	case float64:
		return x
	case bool:
		if x {
			return 1
		}
		return 0
	case string:
		f, ok := parseNumber(x)
		if !ok {
			return math.NaN()
		}
		return f
	default:
		return math.NaN()
	}
}

// ToHostString implements CAST_STRING's host string coercion.
func ToHostString(v interface{}) string {
	switch x := v.(type) {
	case string:
		return x
	case bool:
		if x {
			return "true"
		}
		return "false"
	case float64:
		return formatNumber(x)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// formatNumber mirrors the host's Number-to-String coercion: integral
// values print without a decimal point, -0 prints as "0", and
// non-finite values print their IEEE-754 names.
func formatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f == 0:
		return "0"
	case f == math.Trunc(f) && math.Abs(f) < 1e21:
		return strconv.FormatFloat(f, 'f', -1, 64)
	default:
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
}

// parseNumber parses s the way the host's numeric coercion does: leading/
// trailing whitespace is ignored, the empty (or all-whitespace) string
// parses to 0, everything else must parse as a full float.
func parseNumber(s string) (float64, bool) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return 0, true
	}
	f, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// parsesAsNumber reports whether s would parse as a number, for the
// STRING_NUM refinement on string constants (spec.md §4.1).
func parsesAsNumber(s string) bool {
	_, ok := parseNumber(s)
	return ok
}
