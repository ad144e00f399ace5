package analyzer

import "github.com/funvibe/blockc/internal/lattice"

// bucket is a coarse sign/magnitude classification used to drive the
// arithmetic transfer functions of spec.md §4.4/§9: finite positive,
// finite negative, +0, -0, +Inf, -Inf, NaN. Lattice atoms within a
// bucket (POS_INT vs POS_FRACT) are reconciled afterward by the
// fractional-propagation rule, since every arithmetic rule in spec.md §9
// is stated at this granularity ("POS*POS⊇POS", not per-atom).
type bucket int

const (
	bPosFinite bucket = iota
	bNegFinite
	bZero
	bNegZero
	bPosInf
	bNegInf
	bNaN
)

// sometimesBuckets lists every bucket t could sometimes be.
func sometimesBuckets(t lattice.Type) []bucket {
	var out []bucket
	if t&(lattice.PosInt|lattice.PosFract) != 0 {
		out = append(out, bPosFinite)
	}
	if t&(lattice.NegInt|lattice.NegFract) != 0 {
		out = append(out, bNegFinite)
	}
	if t&lattice.Zero != 0 {
		out = append(out, bZero)
	}
	if t&lattice.NegZero != 0 {
		out = append(out, bNegZero)
	}
	if t&lattice.PosInf != 0 {
		out = append(out, bPosInf)
	}
	if t&lattice.NegInf != 0 {
		out = append(out, bNegInf)
	}
	if t&lattice.NaN != 0 {
		out = append(out, bNaN)
	}
	return out
}

func couldBeFract(t lattice.Type) bool { return t&(lattice.PosFract|lattice.NegFract) != 0 }

// withFractFilter strips the fractional atoms from t unless fractional is
// true, implementing "fractional bits propagate iff either operand could
// be fractional" (spec.md §4.4).
func withFractFilter(t lattice.Type, fractional bool) lattice.Type {
	if fractional {
		return t
	}
	return t &^ (lattice.PosFract | lattice.NegFract)
}

func addOp(a, b lattice.Type) lattice.Type {
	fractional := couldBeFract(a) || couldBeFract(b)
	var result lattice.Type
	for _, x := range sometimesBuckets(a) {
		for _, y := range sometimesBuckets(b) {
			result |= addBucketPair(x, y)
		}
	}
	return withFractFilter(result, fractional)
}

// addBucketPair returns an over-approximate result type for one bucket
// combination, per the ADD truth table implied by spec.md §4.4/§9.
func addBucketPair(a, b bucket) lattice.Type {
	if a == bNaN || b == bNaN {
		return lattice.NaN
	}
	if (a == bPosInf && b == bNegInf) || (a == bNegInf && b == bPosInf) {
		return lattice.NaN
	}
	if a == bPosInf || b == bPosInf {
		return lattice.PosInf
	}
	if a == bNegInf || b == bNegInf {
		return lattice.NegInf
	}
	// Both finite (possibly zero) from here on.
	switch {
	case a == bZero && b == bZero:
		return lattice.Zero
	case a == bZero && b == bNegZero, a == bNegZero && b == bZero:
		return lattice.Zero
	case a == bNegZero && b == bNegZero:
		return lattice.NegZero
	case a == bZero:
		return bucketType(b) // +0 + x == x exactly
	case b == bZero:
		return bucketType(a)
	case a == bNegZero:
		return bucketType(b) // -0 + nonzero finite == that value exactly
	case b == bNegZero:
		return bucketType(a)
	case a == bPosFinite && b == bPosFinite:
		return lattice.PosInt | lattice.PosFract | lattice.PosInf // magnitude unknown: may overflow
	case a == bNegFinite && b == bNegFinite:
		return lattice.NegInt | lattice.NegFract | lattice.NegInf
	default:
		// Opposite signs, both nonzero finite: magnitude unknown, so the
		// result could land on either side, or cancel to exact +0 (IEEE
		// 754 never produces -0 from finite nonzero cancellation).
		return lattice.PosInt | lattice.PosFract | lattice.NegInt | lattice.NegFract | lattice.Zero
	}
}

func bucketType(b bucket) lattice.Type {
	switch b {
	case bPosFinite:
		return lattice.PosInt | lattice.PosFract
	case bNegFinite:
		return lattice.NegInt | lattice.NegFract
	case bZero:
		return lattice.Zero
	case bNegZero:
		return lattice.NegZero
	case bPosInf:
		return lattice.PosInf
	case bNegInf:
		return lattice.NegInf
	default:
		return lattice.NaN
	}
}

// negateBucket mirrors unary negation across the bucket taxonomy, letting
// SUB be expressed as ADD(a, -b).
func negateBucket(b bucket) bucket {
	switch b {
	case bPosFinite:
		return bNegFinite
	case bNegFinite:
		return bPosFinite
	case bZero:
		return bNegZero
	case bNegZero:
		return bZero
	case bPosInf:
		return bNegInf
	case bNegInf:
		return bPosInf
	default:
		return bNaN
	}
}

func negateType(t lattice.Type) lattice.Type {
	var out lattice.Type
	for _, b := range sometimesBuckets(t) {
		out |= bucketType(negateBucket(b))
	}
	return out
}

func subOp(a, b lattice.Type) lattice.Type { return addOp(a, negateType(b)) }

func mulOp(a, b lattice.Type) lattice.Type {
	fractional := couldBeFract(a) || couldBeFract(b)
	var result lattice.Type
	for _, x := range sometimesBuckets(a) {
		for _, y := range sometimesBuckets(b) {
			result |= mulBucketPair(x, y)
		}
	}
	return withFractFilter(result, fractional)
}

// mulBucketPair implements spec.md §9's baseline: POS*POS⊇POS,
// POS*NEG⊇NEG, NEG*NEG⊇POS, 0*REAL⊇ZERO (sign from product of signs,
// −0 exactly when one operand is a negative real or negative zero),
// INF*ANY_ZERO⊇NAN, INF*REAL⊇INF (sign product).
func mulBucketPair(a, b bucket) lattice.Type {
	if a == bNaN || b == bNaN {
		return lattice.NaN
	}
	isInf := func(x bucket) bool { return x == bPosInf || x == bNegInf }
	isZero := func(x bucket) bool { return x == bZero || x == bNegZero }
	if (isInf(a) && isZero(b)) || (isZero(a) && isInf(b)) {
		return lattice.NaN
	}
	isNeg := func(x bucket) bool { return x == bNegFinite || x == bNegInf || x == bNegZero }
	negResult := isNeg(a) != isNeg(b) // XOR: product is negative iff signs differ
	if isInf(a) || isInf(b) {
		if negResult {
			return lattice.NegInf
		}
		return lattice.PosInf
	}
	if isZero(a) || isZero(b) {
		if negResult {
			return lattice.NegZero
		}
		return lattice.Zero
	}
	// Both finite and nonzero: POS*POS⊇POS, NEG*NEG⊇POS (negResult false
	// in both cases), POS*NEG⊇NEG (negResult true).
	if negResult {
		return lattice.Neg
	}
	return lattice.Pos
}

func divOp(a, b lattice.Type) lattice.Type {
	// No fractional-propagation filter here: division of two integers
	// routinely produces a fraction, so both branches of divBucketPair
	// already include the fractional atoms directly.
	var result lattice.Type
	for _, x := range sometimesBuckets(a) {
		for _, y := range sometimesBuckets(b) {
			result |= divBucketPair(x, y)
		}
	}
	return result
}

// divBucketPair implements spec.md §4.4's division rules: REAL/ZERO⊇NAN,
// POS/ZERO⊇POS_INF, NEG/ZERO⊇NEG_INF, and "tiny-real/large-real⊇ZERO or
// NEG_ZERO depending on signs" (magnitude is untracked, so ordinary
// finite/finite division is allowed to land anywhere from zero through
// infinity on the sign-appropriate side).
func divBucketPair(a, b bucket) lattice.Type {
	if a == bNaN || b == bNaN {
		return lattice.NaN
	}
	isInf := func(x bucket) bool { return x == bPosInf || x == bNegInf }
	isZero := func(x bucket) bool { return x == bZero || x == bNegZero }
	isNeg := func(x bucket) bool { return x == bNegFinite || x == bNegInf || x == bNegZero }
	negResult := isNeg(a) != isNeg(b)

	if isInf(a) && isInf(b) {
		return lattice.NaN
	}
	if isZero(b) {
		if isZero(a) {
			return lattice.NaN // 0/0
		}
		if isInf(a) {
			if negResult {
				return lattice.NegInf
			}
			return lattice.PosInf
		}
		// finite-nonzero / zero
		if negResult {
			return lattice.NegInf
		}
		return lattice.PosInf
	}
	if isInf(b) {
		// finite (or zero) / Inf == a signed zero
		if negResult {
			return lattice.NegZero
		}
		return lattice.Zero
	}
	if isInf(a) {
		if negResult {
			return lattice.NegInf
		}
		return lattice.PosInf
	}
	if isZero(a) {
		if negResult {
			return lattice.NegZero
		}
		return lattice.Zero
	}
	// Both finite and nonzero: magnitude untracked, so the quotient could
	// underflow to a signed zero, land anywhere finite, or overflow to a
	// signed infinity, all on the sign determined by the operands' signs.
	if negResult {
		return lattice.NegInt | lattice.NegFract | lattice.NegInf | lattice.NegZero
	}
	return lattice.PosInt | lattice.PosFract | lattice.PosInf | lattice.Zero
}
