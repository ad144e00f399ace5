// Package lattice implements the numeric/value type lattice that the
// analyzer (C4) propagates and the rewriter (C5) consumes: a bitset over
// a closed set of atoms, combined by union (join). See spec.md §3, §4.1.
package lattice

import "math"

// Type is a bitset over Atom values. The zero Type is Bottom (no value can
// ever have this type); the all-ones Type, Any, is the top of the lattice.
type Type uint32

// Atoms. Each bit is disjoint; every constant input's type is an exact
// combination of these, every analyzer-produced type is an
// over-approximation built from joins of these.
const (
	PosInt Type = 1 << iota
	PosFract
	PosInf
	NegInt
	NegFract
	NegInf
	Zero
	NegZero
	NaN
	Boolean
	String
	StringNum // a string that parses as a number; combined with String
)

const numAtoms = 12

// Derived groups, unions of atoms, kept for readability per spec.md §3.
const (
	Pos    = PosInt | PosFract | PosInf
	Neg    = NegInt | NegFract | NegInf
	AnyZero = Zero | NegZero
	Inf    = PosInf | NegInf
	Fract  = PosFract | NegFract

	// Real is every finite, non-NaN number.
	Real = PosInt | PosFract | NegInt | NegFract | AnyZero

	// Number is every number atom except NaN.
	Number = Real | Inf

	// NumberOrNaN is Number plus NaN — the result type of a lossless
	// numeric coercion.
	NumberOrNaN = Number | NaN

	// NumberInterpretable is the set of types that coerce to a finite
	// number without surprise: plain numbers and numeric strings. This is
	// intentionally narrower than "anything CAST_NUMBER accepts". No
	// package in this module references it; codegen's safe EQ
	// specialization uses its own constant check.
	NumberInterpretable = Number | StringNum

	// Bottom is the empty type: no runtime value can have it.
	Bottom Type = 0

	// Any is the top of the lattice: every atom set.
	Any Type = (1 << numAtoms) - 1
)

// Join computes the least upper bound of a and b.
func Join(a, b Type) Type { return a | b }

// Meet computes the greatest lower bound of a and b.
func Meet(a, b Type) Type { return a & b }

// IsAlways reports whether every value of type t is always also of type T:
// t's bits are a subset of T's.
func IsAlways(t, T Type) bool { return t&T == t }

// IsSometimes reports whether some value of type t could be of type T:
// t and T share at least one bit.
func IsSometimes(t, T Type) bool { return t&T != 0 }

// NumberType classifies a concrete float64 literal into its exact atom,
// per spec.md §4.1. NaN, signed infinities, signed zero, and the
// integral/fractional split are all distinguished because the analyzer's
// arithmetic transfer functions depend on telling them apart.
func NumberType(n float64) Type {
	switch {
	case math.IsNaN(n):
		return NaN
	case math.IsInf(n, 1):
		return PosInf
	case math.IsInf(n, -1):
		return NegInf
	case n == 0:
		if math.Signbit(n) {
			return NegZero
		}
		return Zero
	case n > 0:
		if n == math.Trunc(n) {
			return PosInt
		}
		return PosFract
	default:
		if n == math.Trunc(n) {
			return NegInt
		}
		return NegFract
	}
}

// BooleanType is the exact type of a boolean literal.
func BooleanType(bool) Type { return Boolean }

// StringLiteralType is the exact type of a string literal. When the
// string parses as a number (per StringNum's contract) callers should
// additionally OR in StringNum — see StringType.
func StringLiteralType() Type { return String }

// StringType classifies a string literal, adding StringNum when it
// round-trips through numeric parsing (spec.md §4.1: "Constants that are
// strings parseable as numbers MAY additionally receive the STRING_NUM
// flag").
func StringType(s string, parsesAsNumber bool) Type {
	t := String
	if parsesAsNumber {
		t |= StringNum
	}
	return t
}

// names gives each atom a readable label for diagnostics and Dump output.
var names = []struct {
	bit  Type
	name string
}{
	{PosInt, "POS_INT"},
	{PosFract, "POS_FRACT"},
	{PosInf, "POS_INF"},
	{NegInt, "NEG_INT"},
	{NegFract, "NEG_FRACT"},
	{NegInf, "NEG_INF"},
	{Zero, "ZERO"},
	{NegZero, "NEG_ZERO"},
	{NaN, "NAN"},
	{Boolean, "BOOLEAN"},
	{String, "STRING"},
	{StringNum, "STRING_NUM"},
}

// String renders t as a `|`-joined list of atom names, "BOTTOM" if empty,
// or "ANY" if it is the top element.
func (t Type) String() string {
	if t == Bottom {
		return "BOTTOM"
	}
	if t == Any {
		return "ANY"
	}
	out := ""
	for _, n := range names {
		if t&n.bit != 0 {
			if out != "" {
				out += "|"
			}
			out += n.name
		}
	}
	if out == "" {
		return "BOTTOM"
	}
	return out
}
