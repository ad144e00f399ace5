package rewriter

import (
	"bytes"
	"testing"

	"github.com/funvibe/blockc/internal/analyzer"
	"github.com/funvibe/blockc/internal/ir"
	"github.com/funvibe/blockc/internal/lattice"
)

func varGetOf(name string) *ir.Input { return ir.NewVarGet(name) }

func setVar(name string, value *ir.Input) *ir.Stack {
	return ir.NewStack(ir.VAR_SET, map[string]*ir.Input{"VALUE": value}, nil, false).WithFields(map[string]string{"VAR": name})
}

func castNumOrNaN(x *ir.Input) *ir.Input {
	return ir.NewInput(ir.CAST_NUMBER_OR_NAN, map[string]*ir.Input{"TARGET": x}, nil)
}

func add(left, right *ir.Input) *ir.Input {
	return ir.NewInput(ir.OP_ADD, map[string]*ir.Input{"LEFT": left, "RIGHT": right}, nil)
}

// A CAST_NUMBER_OR_NAN wrapped around a variable the analyzer already
// proved is always numeric must be dropped, and the surviving VAR_GET must
// carry the analyzer's refined type (spec.md §4.5 test 6).
func TestDropsRedundantCast(t *testing.T) {
	body := []*ir.Stack{
		setVar("x", ir.NewConstant(3.0)),
		setVar("y", add(castNumOrNaN(varGetOf("x")), ir.NewConstant(1.0))),
	}
	script := &ir.Script{TopBlockID: "redundant", Body: body}

	a := analyzer.New()
	if err := a.AnalyzeIR(&ir.IR{Entry: script, Procedures: map[string]*ir.Script{}}); err != nil {
		t.Fatal(err)
	}

	r := New()
	if err := r.RewriteScript(script); err != nil {
		t.Fatal(err)
	}

	value := body[1].Inputs["VALUE"]
	left := value.Inputs["LEFT"]
	if left.Opcode != ir.VAR_GET {
		t.Fatalf("expected the redundant CAST_NUMBER_OR_NAN to be dropped, left child is %s", left.Opcode)
	}
	if !lattice.IsAlways(left.Type, lattice.PosInt|lattice.PosInf) {
		t.Errorf("expected the surviving VAR_GET to carry the analyzer's refined type, got %v", left.Type)
	}
}

// A CAST_NUMBER_OR_NAN wrapped around a variable the analyzer cannot prove
// numeric must be kept, since dropping it would change the block's runtime
// behavior (a string operand would no longer be coerced).
func TestKeepsNecessaryCast(t *testing.T) {
	body := []*ir.Stack{
		setVar("s", ir.NewConstant("hello")),
		setVar("y", add(castNumOrNaN(varGetOf("s")), ir.NewConstant(1.0))),
	}
	script := &ir.Script{TopBlockID: "necessary", Body: body}

	a := analyzer.New()
	if err := a.AnalyzeIR(&ir.IR{Entry: script, Procedures: map[string]*ir.Script{}}); err != nil {
		t.Fatal(err)
	}

	r := New()
	if err := r.RewriteScript(script); err != nil {
		t.Fatal(err)
	}

	left := body[1].Inputs["VALUE"].Inputs["LEFT"]
	if left.Opcode != ir.CAST_NUMBER_OR_NAN {
		t.Fatalf("expected the cast to survive (a string VAR_GET is not always numeric), got %s", left.Opcode)
	}
}

// Rewriting an already-rewritten tree (using the same recorded entry
// states) must reach the same result — the rewriter has nothing left to do
// on its own output (spec.md §8 test 6, idempotency).
func TestIdempotent(t *testing.T) {
	body := []*ir.Stack{
		setVar("x", ir.NewConstant(3.0)),
		setVar("y", add(castNumOrNaN(varGetOf("x")), ir.NewConstant(1.0))),
	}
	script := &ir.Script{TopBlockID: "idempotent", Body: body}

	a := analyzer.New()
	if err := a.AnalyzeIR(&ir.IR{Entry: script, Procedures: map[string]*ir.Script{}}); err != nil {
		t.Fatal(err)
	}

	r := New()
	if err := r.RewriteScript(script); err != nil {
		t.Fatal(err)
	}
	var firstPass bytes.Buffer
	ir.Dump(&firstPass, script)

	if err := r.RewriteScript(script); err != nil {
		t.Fatal(err)
	}
	var secondPass bytes.Buffer
	ir.Dump(&secondPass, script)

	if firstPass.String() != secondPass.String() {
		t.Errorf("rewriting twice changed the tree:\nfirst:\n%s\nsecond:\n%s", firstPass.String(), secondPass.String())
	}
}

// Without a prior analyzer pass, no Stack carries a recorded entry
// TypeState, and the rewriter must refuse rather than silently assume ANY.
func TestErrorsWithoutAnalysis(t *testing.T) {
	body := []*ir.Stack{setVar("x", ir.NewConstant(3.0))}
	r := New()
	if err := r.rewriteStacks(body); err == nil {
		t.Fatal("expected an error rewriting a Stack with no recorded entry state")
	}
}
