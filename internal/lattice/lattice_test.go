package lattice

import (
	"math"
	"testing"
)

func TestJoinLaws(t *testing.T) {
	a, b, c := PosInt, NegFract, Boolean

	if Join(a, b) != Join(b, a) {
		t.Fatalf("join not commutative")
	}
	if Join(Join(a, b), c) != Join(a, Join(b, c)) {
		t.Fatalf("join not associative")
	}
	if Join(a, a) != a {
		t.Fatalf("join not idempotent")
	}
	if Join(a, Bottom) != a {
		t.Fatalf("bottom is not identity for join")
	}
	if Join(a, Any) != Any {
		t.Fatalf("any is not absorbing for join")
	}
}

func TestIsAlwaysImpliesOperands(t *testing.T) {
	a, b := PosInt, PosFract
	joined := Join(a, b)
	if !IsAlways(joined, Pos) {
		t.Fatalf("expected %v to always be Pos", joined)
	}
	if !IsAlways(a, Pos) || !IsAlways(b, Pos) {
		t.Fatalf("is_always(join(a,b),T) should imply is_always(a,T) and is_always(b,T)")
	}
}

func TestNumberTypeClassification(t *testing.T) {
	cases := []struct {
		in   float64
		want Type
	}{
		{3, PosInt},
		{3.5, PosFract},
		{-3, NegInt},
		{-3.5, NegFract},
		{0, Zero},
		{math.Copysign(0, -1), NegZero},
		{math.Inf(1), PosInf},
		{math.Inf(-1), NegInf},
		{math.NaN(), NaN},
	}
	for _, c := range cases {
		if got := NumberType(c.in); got != c.want {
			t.Errorf("NumberType(%v) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestStringTypeAddsStringNum(t *testing.T) {
	if got := StringType("hello", false); got != String {
		t.Errorf("non-numeric string got %v", got)
	}
	if got := StringType("42", true); got != String|StringNum {
		t.Errorf("numeric string got %v, want STRING|STRING_NUM", got)
	}
}

func TestMeetIsIntersection(t *testing.T) {
	if Meet(Pos, Neg) != Bottom {
		t.Fatalf("Pos and Neg should not overlap")
	}
	if Meet(Number, NaN) != Bottom {
		t.Fatalf("Number excludes NaN by definition")
	}
	if Meet(NumberOrNaN, NaN) != NaN {
		t.Fatalf("NumberOrNaN includes NaN")
	}
}

func TestStringer(t *testing.T) {
	if Bottom.String() != "BOTTOM" {
		t.Errorf("Bottom.String() = %q", Bottom.String())
	}
	if Any.String() != "ANY" {
		t.Errorf("Any.String() = %q", Any.String())
	}
	if PosInt.String() != "POS_INT" {
		t.Errorf("PosInt.String() = %q", PosInt.String())
	}
}
