package ir

import "testing"

const sampleFixture = `
entry:
  topBlockId: "s1"
  body:
    - opcode: VAR_SET
      fields:
        VAR: x
      inputs:
        VALUE:
          opcode: CONSTANT
          literal: 3
`

func TestParseFixture_BasicScript(t *testing.T) {
	bundle, err := ParseFixture([]byte(sampleFixture))
	if err != nil {
		t.Fatalf("ParseFixture: %v", err)
	}
	if bundle.Entry.TopBlockID != "s1" {
		t.Fatalf("TopBlockID = %q, want s1", bundle.Entry.TopBlockID)
	}
	if len(bundle.Entry.Body) != 1 {
		t.Fatalf("Body length = %d, want 1", len(bundle.Entry.Body))
	}
	stmt := bundle.Entry.Body[0]
	if stmt.Opcode != VAR_SET {
		t.Fatalf("Opcode = %s, want VAR_SET", stmt.Opcode)
	}
	if stmt.Fields["VAR"] != "x" {
		t.Fatalf("Fields[VAR] = %q, want x", stmt.Fields["VAR"])
	}
	val := stmt.Inputs["VALUE"]
	if val == nil || val.Opcode != CONSTANT {
		t.Fatalf("VALUE input missing or not CONSTANT")
	}
	if lit, ok := val.Literal.(float64); !ok || lit != 3.0 {
		t.Fatalf("literal = %#v (%T), want float64(3)", val.Literal, val.Literal)
	}
}

func TestParseFixture_UnknownOpcode(t *testing.T) {
	data := []byte(`
entry:
  topBlockId: "s1"
  body:
    - opcode: TOTALLY_MADE_UP
`)
	if _, err := ParseFixture(data); err == nil {
		t.Fatal("expected an error for an unknown opcode, got nil")
	}
}

func TestParseFixture_MissingEntry(t *testing.T) {
	if _, err := ParseFixture([]byte(`procedures: {}`)); err == nil {
		t.Fatal("expected an error for a fixture with no entry script")
	}
}

func TestParseFixture_ProceduresRoundTrip(t *testing.T) {
	data := []byte(`
entry:
  topBlockId: "s1"
  body:
    - opcode: PROCEDURE_CALL
      fields:
        PROCEDURE: "greet %s"
      inputs:
        "0":
          opcode: CONSTANT
          literal: "world"
procedures:
  "greet %s":
    topBlockId: "p1"
    isProcedure: true
    procedureCode: "greet %s"
    argumentNames: ["NAME"]
    body:
      - opcode: LOOKS_SAY
        inputs:
          MESSAGE:
            opcode: PROCEDURE_ARG_STRING
            fields:
              ARG: NAME
`)
	bundle, err := ParseFixture(data)
	if err != nil {
		t.Fatalf("ParseFixture: %v", err)
	}
	proc, ok := bundle.Procedures["greet %s"]
	if !ok {
		t.Fatal("expected procedure \"greet %s\" to be present")
	}
	if !proc.IsProcedure || proc.ProcedureCode != "greet %s" {
		t.Fatalf("procedure metadata not preserved: %+v", proc)
	}
}
