package codegen

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/funvibe/blockc/internal/ir"
	"github.com/funvibe/blockc/internal/lattice"
)

// jsNumberLiteral stringifies f the way the emitted source should, special-
// casing negative zero (spec.md §4.6 "special-case -0").
func jsNumberLiteral(f float64) string {
	if f == 0 && math.Signbit(f) {
		return "-0"
	}
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f == math.Trunc(f) && math.Abs(f) < 1e21:
		return strconv.FormatFloat(f, 'f', -1, 64)
	default:
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
}

// jsStringLiteral JSON-escapes s for embedding in generated source (spec.md
// §4.6 "strings JSON-escaped"). encoding/json's string quoting is a
// faithful JS string-literal escaper for the ASCII+Unicode cases this
// compiler needs.
func jsStringLiteral(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

// parseNumberLiteral mirrors internal/ir's numeric-string parsing, used to
// recognize "safe" numeric string constants for the EQ lowering rule.
func parseNumberLiteral(s string) (float64, bool) {
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

// isSafeNumericConstant implements spec.md §4.6's "safe" EQ constant
// criterion: a non-zero constant whose numeric round-trip equals the
// original literal. A float64 CONSTANT's round-trip is definitionally
// exact (its emitted form IS its string form); a string CONSTANT is safe
// only when reformatting the number it parses to reproduces the original
// text exactly — "007" is unsafe (parses to 7, "7" != "007"), "7" is safe.
func isSafeNumericConstant(n *ir.Input) bool {
	if n == nil || n.Opcode != ir.CONSTANT {
		return false
	}
	switch v := n.Literal.(type) {
	case float64:
		return v != 0 && !math.IsNaN(v)
	case string:
		f, ok := parseNumberLiteral(v)
		if !ok || f == 0 || math.IsNaN(f) {
			return false
		}
		return ir.ToHostString(f) == v
	default:
		return false
	}
}

// isAlwaysNumeric reports whether t's every possible runtime value already
// coerces through `+x` without surprise.
func isAlwaysNumeric(t lattice.Type) bool { return lattice.IsAlways(t, lattice.NumberOrNaN) }

// isNeverNumeric reports whether t can never be a number (spec.md §4.6
// "either side is never numeric" lowers to a string comparison).
func isNeverNumeric(t lattice.Type) bool { return !lattice.IsSometimes(t, lattice.NumberOrNaN) }

func indent(depth int) string { return strings.Repeat("  ", depth) }
