package extmanifest

import "testing"

const sampleManifest = `
ops:
  - opcode: pen_setPenColorToColor
    pkg: example.com/ext/pen
    func: SetPenColor
    args: ["COLOR"]
  - opcode: music_playDrumForBeats
    pkg: example.com/ext/music
    func: PlayDrum
    blocking: true
`

func TestParse_Basic(t *testing.T) {
	m, err := Parse([]byte(sampleManifest), "blockc.yaml")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(m.Ops) != 2 {
		t.Fatalf("len(Ops) = %d, want 2", len(m.Ops))
	}
	op, ok := m.Lookup("music_playDrumForBeats")
	if !ok {
		t.Fatal("expected to find music_playDrumForBeats")
	}
	if !op.Blocking {
		t.Fatal("expected Blocking = true")
	}
	if op.Pkg != "example.com/ext/music" || op.Func != "PlayDrum" {
		t.Fatalf("unexpected op: %+v", op)
	}
}

func TestParse_MissingRequiredFields(t *testing.T) {
	cases := []string{
		`ops: [{pkg: foo, func: Bar}]`,
		`ops: [{opcode: foo, func: Bar}]`,
		`ops: [{opcode: foo, pkg: bar}]`,
	}
	for _, c := range cases {
		if _, err := Parse([]byte(c), "t.yaml"); err == nil {
			t.Fatalf("expected an error for %q", c)
		}
	}
}

func TestParse_DuplicateOpcode(t *testing.T) {
	data := []byte(`
ops:
  - opcode: foo
    pkg: a
    func: A
  - opcode: foo
    pkg: b
    func: B
`)
	if _, err := Parse(data, "t.yaml"); err == nil {
		t.Fatal("expected an error for a duplicate opcode")
	}
}

func TestLookup_Missing(t *testing.T) {
	m, err := Parse([]byte(sampleManifest), "blockc.yaml")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if _, ok := m.Lookup("does_not_exist"); ok {
		t.Fatal("expected Lookup to fail for an unknown opcode")
	}
}
