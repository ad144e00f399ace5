package compiler

import (
	"strings"
	"testing"

	"github.com/funvibe/blockc/internal/diagnostics"
	"github.com/funvibe/blockc/internal/ir"
)

func scriptSettingXTo3() *ir.Script {
	body := []*ir.Stack{
		ir.NewStack(ir.VAR_SET,
			map[string]*ir.Input{"VALUE": ir.NewConstant(3.0)},
			nil, false,
		).WithFields(map[string]string{"VAR": "x"}),
	}
	return &ir.Script{TopBlockID: "entry1", Body: body}
}

func TestCompileIR_EntryOnly(t *testing.T) {
	bundle := &ir.IR{Entry: scriptSettingXTo3()}

	c := New()
	results, err := c.CompileIR(bundle)
	if err != nil {
		t.Fatalf("CompileIR: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("len(results) = %d, want 1", len(results))
	}
	if results[0].IsProcedure {
		t.Fatalf("entry result marked as procedure")
	}
	if !strings.Contains(results[0].FactorySource, "function*") && !strings.Contains(results[0].FactorySource, "function") {
		t.Fatalf("factory source does not look like a function: %s", results[0].FactorySource)
	}
}

func TestCompile_Convenience(t *testing.T) {
	bundle := &ir.IR{Entry: scriptSettingXTo3()}
	result, err := Compile(bundle)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if result.ScriptID != "entry1" {
		t.Fatalf("ScriptID = %q, want entry1", result.ScriptID)
	}
}

func TestCompileIR_NilBundle(t *testing.T) {
	c := New()
	if _, err := c.CompileIR(nil); err == nil {
		t.Fatal("expected an error compiling a nil bundle")
	}
	if _, err := c.CompileIR(&ir.IR{}); err == nil {
		t.Fatal("expected an error compiling a bundle with no entry script")
	}
}

func TestCompileIR_ObserverReceivesEvent(t *testing.T) {
	bundle := &ir.IR{Entry: scriptSettingXTo3()}

	c := New()
	var rec diagnostics.RecordingObserver
	c.SetObserver(&rec)

	if _, err := c.CompileIR(bundle); err != nil {
		t.Fatalf("CompileIR: %v", err)
	}
	if len(rec.Events) != 1 {
		t.Fatalf("len(rec.Events) = %d, want 1", len(rec.Events))
	}
	if rec.Events[0].ScriptID != "entry1" {
		t.Fatalf("event ScriptID = %q, want entry1", rec.Events[0].ScriptID)
	}
}

func TestVersion(t *testing.T) {
	if Version() == "" {
		t.Fatal("Version() returned empty string")
	}
}
