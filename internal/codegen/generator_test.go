package codegen

import (
	"strings"
	"testing"

	"github.com/funvibe/blockc/internal/analyzer"
	"github.com/funvibe/blockc/internal/ir"
	"github.com/funvibe/blockc/internal/rewriter"
)

func varGetOf(name string) *ir.Input { return ir.NewVarGet(name) }

func setVar(name string, value *ir.Input) *ir.Stack {
	return ir.NewStack(ir.VAR_SET, map[string]*ir.Input{"VALUE": value}, nil, false).WithFields(map[string]string{"VAR": name})
}

func castNum(x *ir.Input) *ir.Input {
	return ir.NewInput(ir.CAST_NUMBER_OR_NAN, map[string]*ir.Input{"TARGET": x}, nil)
}

func binary(op ir.Opcode, left, right *ir.Input) *ir.Input {
	return ir.NewInput(op, map[string]*ir.Input{"LEFT": left, "RIGHT": right}, nil)
}

// compile runs the same analyze -> rewrite -> generate pipeline pkg/compiler
// will eventually expose, returning the generated factory source.
func compile(t *testing.T, bundle *ir.IR, script *ir.Script) string {
	t.Helper()
	if err := analyzer.New().AnalyzeIR(bundle); err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if err := rewriter.New().RewriteIR(bundle); err != nil {
		t.Fatalf("rewrite: %v", err)
	}
	src, err := Generate(NewContext(), bundle, script)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	return src
}

func soloBundle(script *ir.Script) *ir.IR {
	return &ir.IR{Entry: script, Procedures: map[string]*ir.Script{}}
}

// S1 (spec.md §8): "setVar x to 3; setVar x to (x + 4)" with Yields=false
// must generate a plain function whose body writes the arithmetic sum
// into x's cell, with no yield anywhere in the output.
func TestScenarioS1_PlainArithmetic(t *testing.T) {
	body := []*ir.Stack{
		setVar("x", ir.NewConstant(3.0)),
		setVar("x", binary(ir.OP_ADD, castNum(varGetOf("x")), ir.NewConstant(4.0))),
	}
	script := &ir.Script{TopBlockID: "s1", Body: body}
	src := compile(t, soloBundle(script), script)

	if strings.Contains(src, "yield") {
		t.Errorf("expected no yield in a non-yielding script's source, got:\n%s", src)
	}
	if !strings.Contains(src, ".value = (") {
		t.Errorf("expected an arithmetic assignment in the generated source, got:\n%s", src)
	}
}

// S2 (spec.md §8): "setVar s to 'hello'; if (s = 5) ..." must lower the
// EQ as a case-insensitive string compare, never a numeric one, since s
// is never numeric.
func TestScenarioS2_StringEQLowering(t *testing.T) {
	body := []*ir.Stack{
		setVar("s", ir.NewConstant("hello")),
		ir.NewStack(ir.IF_ELSE, map[string]*ir.Input{
			"CONDITION": binary(ir.OP_EQ, varGetOf("s"), ir.NewConstant(5.0)),
		}, map[string][]*ir.Stack{
			"THEN": {ir.NewStack(ir.DEBUGGER, nil, nil, false)},
		}, false),
	}
	script := &ir.Script{TopBlockID: "s2", Body: body}
	src := compile(t, soloBundle(script), script)

	if !strings.Contains(src, ".toLowerCase() === ") {
		t.Errorf("expected a lowercase string compare for a never-numeric EQ operand, got:\n%s", src)
	}
	if strings.Contains(src, "+(") && strings.Contains(src, "=== +(") {
		t.Errorf("must not lower a never-numeric EQ to a numeric compare, got:\n%s", src)
	}
}

// Testable property 7: a yield (or yield*) appears in the generated
// source if and only if the script is flagged Yields. The forward
// direction (emitting one without the flag) is a hard compile error.
func TestYieldOnlyWhenFlagged(t *testing.T) {
	body := []*ir.Stack{
		ir.NewStack(ir.WAIT_UNTIL, map[string]*ir.Input{
			"CONDITION": ir.NewConstant(true),
		}, map[string][]*ir.Stack{}, true),
	}
	script := &ir.Script{TopBlockID: "waits", Body: body, Yields: true}
	src := compile(t, soloBundle(script), script)
	if !strings.Contains(src, "yield;") {
		t.Errorf("expected a yield in a WAIT_UNTIL loop body, got:\n%s", src)
	}
	if !strings.Contains(src, "function*") {
		t.Errorf("expected a generator function for a yielding script, got:\n%s", src)
	}

	unflagged := &ir.Script{TopBlockID: "waits_unflagged", Body: body, Yields: false}
	if _, err := Generate(NewContext(), soloBundle(unflagged), unflagged); err == nil {
		t.Fatal("expected a yield/flag mismatch error when Yields is false but a WAIT_UNTIL loop is present")
	}
}

// Testable property 8: a MOD immediately followed by a MOTION_X_SET must
// clear the target's interpolation cache.
func TestModThenMotionSetClearsInterpolation(t *testing.T) {
	body := []*ir.Stack{
		setVar("x", binary(ir.OP_MOD, ir.NewConstant(7.0), ir.NewConstant(3.0))),
		ir.NewStack(ir.MOTION_X_SET, map[string]*ir.Input{
			"X": varGetOf("x"),
		}, nil, false),
	}
	script := &ir.Script{TopBlockID: "modmotion", Body: body}
	src := compile(t, soloBundle(script), script)

	if !strings.Contains(src, "mod(") {
		t.Fatalf("expected a mod() helper call, got:\n%s", src)
	}
	if !strings.Contains(src, "target.interpolationData = null;") {
		t.Errorf("expected MOTION_X_SET following a MOD to clear interpolationData, got:\n%s", src)
	}
}

// A MOTION_X_SET with no preceding MOD must not clear interpolationData.
func TestMotionSetWithoutModDoesNotClearInterpolation(t *testing.T) {
	body := []*ir.Stack{
		setVar("x", ir.NewConstant(7.0)),
		ir.NewStack(ir.MOTION_X_SET, map[string]*ir.Input{
			"X": varGetOf("x"),
		}, nil, false),
	}
	script := &ir.Script{TopBlockID: "plainmotion", Body: body}
	src := compile(t, soloBundle(script), script)

	if strings.Contains(src, "interpolationData") {
		t.Errorf("did not expect an interpolationData clear with no MOD, got:\n%s", src)
	}
}

// Testable property 10: LIST_GET with the constant "last" must use the
// length-1 fast path with null-coalescing, not the general helper.
func TestListGetLastConstant(t *testing.T) {
	body := []*ir.Stack{
		setVar("x", ir.NewInput(ir.LIST_GET, map[string]*ir.Input{
			"INDEX": ir.NewConstant("last"),
		}, map[string]string{"LIST": "mylist"})),
	}
	script := &ir.Script{TopBlockID: "listlast", Body: body}
	src := compile(t, soloBundle(script), script)

	if !strings.Contains(src, ".value.length - 1] ?? \"\"") {
		t.Errorf("expected the 'last' fast path with null-coalescing, got:\n%s", src)
	}
	if strings.Contains(src, "listGet(") {
		t.Errorf("did not expect the general listGet() helper for a 'last' index, got:\n%s", src)
	}
}

// LIST_GET with a provably numeric index must use the numeric fast path,
// not the general helper.
func TestListGetNumericIndexFastPath(t *testing.T) {
	body := []*ir.Stack{
		setVar("x", ir.NewInput(ir.LIST_GET, map[string]*ir.Input{
			"INDEX": ir.NewConstant(2.0),
		}, map[string]string{"LIST": "mylist"})),
	}
	script := &ir.Script{TopBlockID: "listidx", Body: body}
	src := compile(t, soloBundle(script), script)

	if !strings.Contains(src, ") - 1] ?? \"\"") {
		t.Errorf("expected the numeric-index fast path with null-coalescing, got:\n%s", src)
	}
	if strings.Contains(src, "listGet(") {
		t.Errorf("did not expect the general listGet() helper for a constant numeric index, got:\n%s", src)
	}
}

// A PROCEDURE_CALL to a procedure with an empty body must compile away
// entirely.
func TestEmptyProcedureCallCompilesAway(t *testing.T) {
	proc := &ir.Script{TopBlockID: "proc", IsProcedure: true, ProcedureCode: "noop %s", Body: nil}
	caller := &ir.Script{
		TopBlockID: "caller",
		Body: []*ir.Stack{
			ir.NewStack(ir.PROCEDURE_CALL, map[string]*ir.Input{}, nil, false).WithFields(map[string]string{"PROCEDURE": "noop %s"}),
		},
	}
	bundle := &ir.IR{Entry: caller, Procedures: map[string]*ir.Script{"noop %s": proc}}
	src := compile(t, bundle, caller)

	if strings.Contains(src, "noop") {
		t.Errorf("expected a call to an empty-bodied procedure to vanish, got:\n%s", src)
	}
}

// A direct-recursive call (same procedure, non-warp) must yield before
// recursing, and the callee must be flagged Yields for that to be legal.
func TestDirectRecursionYieldsFirst(t *testing.T) {
	proc := &ir.Script{
		TopBlockID:    "recur",
		IsProcedure:   true,
		ProcedureCode: "recur %n",
		Yields:        true,
		Body: []*ir.Stack{
			ir.NewStack(ir.PROCEDURE_CALL, map[string]*ir.Input{}, nil, false).WithFields(map[string]string{"PROCEDURE": "recur %n"}),
		},
	}
	bundle := &ir.IR{
		Entry: &ir.Script{TopBlockID: "entry", Body: nil, DependedProcedures: []string{"recur %n"}},
		Procedures: map[string]*ir.Script{"recur %n": proc},
	}
	src := compile(t, bundle, proc)

	if !strings.Contains(src, "yield;") {
		t.Errorf("expected direct recursion to yield before the recursive call, got:\n%s", src)
	}
	if !strings.Contains(src, "yield* ") {
		t.Errorf("expected the recursive call itself to use yield* (callee is flagged Yields), got:\n%s", src)
	}
}
