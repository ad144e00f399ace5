package ir

import (
	"bytes"
	"math"
	"testing"

	"github.com/funvibe/blockc/internal/lattice"
)

func TestConstantLiteralType(t *testing.T) {
	if NewConstant(3.0).Type != lattice.PosInt {
		t.Errorf("want POS_INT")
	}
	if NewConstant(-0.5).Type != lattice.NegFract {
		t.Errorf("want NEG_FRACT")
	}
	if NewConstant(true).Type != lattice.Boolean {
		t.Errorf("want BOOLEAN")
	}
	if got := NewConstant("42").Type; got != lattice.String|lattice.StringNum {
		t.Errorf("numeric string const got %v", got)
	}
	if got := NewConstant("hi").Type; got != lattice.String {
		t.Errorf("non-numeric string const got %v", got)
	}
}

func TestIsConstantNumericCoercion(t *testing.T) {
	n := NewConstant("7")
	if !n.IsConstant(7.0) {
		t.Errorf("expected string constant \"7\" to satisfy IsConstant(7.0)")
	}
	if n.IsConstant(8.0) {
		t.Errorf("did not expect IsConstant(8.0) to match")
	}
}

func TestToTypeDropsWhenAlready(t *testing.T) {
	n := NewConstant(3.0) // POS_INT, already a subset of Number
	out, err := n.ToType(lattice.Number)
	if err != nil {
		t.Fatal(err)
	}
	if out != n {
		t.Errorf("ToType should return the same node when already satisfied")
	}
}

func TestToTypeWrapsVarGet(t *testing.T) {
	v := NewVarGet("x")
	out, err := v.ToType(lattice.Number)
	if err != nil {
		t.Fatal(err)
	}
	if out.Opcode != CAST_NUMBER {
		t.Errorf("expected CAST_NUMBER wrapper, got %s", out.Opcode)
	}
	if out.Inputs["TARGET"] != v {
		t.Errorf("expected TARGET input to be the original node")
	}
}

func TestToTypeConstantFoldsAtBuildTime(t *testing.T) {
	n := NewConstant("hello")
	out, err := n.ToType(lattice.Boolean)
	if err != nil {
		t.Fatal(err)
	}
	if out.Opcode != CONSTANT || out.Literal != true {
		t.Errorf("expected folded boolean constant true, got %#v", out)
	}

	zero := NewConstant("0")
	out2, err := zero.ToType(lattice.Boolean)
	if err != nil {
		t.Fatal(err)
	}
	if out2.Literal != false {
		t.Errorf(`"0" should cast to false, got %#v`, out2.Literal)
	}
}

func TestCastNumberReplacesNaNWithZero(t *testing.T) {
	n := NewConstant("not a number")
	out, err := n.ToType(lattice.Number)
	if err != nil {
		t.Fatal(err)
	}
	if out.Literal != 0.0 {
		t.Errorf("CAST_NUMBER of unparseable string should fold to 0, got %#v", out.Literal)
	}
}

func TestCastNumberOrNaNPreservesNaN(t *testing.T) {
	n := NewConstant("not a number")
	out, err := n.ToType(lattice.NumberOrNaN)
	if err != nil {
		t.Fatal(err)
	}
	f, ok := out.Literal.(float64)
	if !ok || !math.IsNaN(f) {
		t.Errorf("CAST_NUMBER_OR_NAN should preserve NaN, got %#v", out.Literal)
	}
}

func TestToIndexTruncates(t *testing.T) {
	n := NewConstant(3.7)
	out := n.ToIndex()
	if out.Literal != 3.0 {
		t.Errorf("ToIndex should truncate toward zero, got %#v", out.Literal)
	}
	neg := NewConstant(-3.7).ToIndex()
	if neg.Literal != -3.0 {
		t.Errorf("ToIndex should truncate toward zero for negatives, got %#v", neg.Literal)
	}
}

func TestImpossibleCast(t *testing.T) {
	n := NewVarGet("x")
	_, err := n.ToType(lattice.Zero)
	if err == nil {
		t.Fatalf("expected ImpossibleCastError for a non-cast target")
	}
	var ice *ImpossibleCastError
	if !isImpossibleCast(err, &ice) {
		t.Errorf("expected *ImpossibleCastError, got %T", err)
	}
}

func isImpossibleCast(err error, target **ImpossibleCastError) bool {
	e, ok := err.(*ImpossibleCastError)
	if ok {
		*target = e
	}
	return ok
}

func TestDumpDoesNotPanic(t *testing.T) {
	script := &Script{
		TopBlockID: "b1",
		Body: []*Stack{
			NewStack(VAR_SET, map[string]*Input{"VALUE": NewConstant(3.0)}, nil, false),
			NewStack(IF_ELSE, map[string]*Input{"CONDITION": NewConstant(true)}, map[string][]*Stack{
				"THEN": {NewStack(NOP, nil, nil, false)},
			}, false),
		},
	}
	var buf bytes.Buffer
	Dump(&buf, script)
	if buf.Len() == 0 {
		t.Errorf("expected non-empty dump output")
	}
}
