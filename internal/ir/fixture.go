package ir

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/funvibe/blockc/internal/diagnostics"
)

// Fixture is the on-disk shape a front-end (or a hand-written test/golden
// file) hands the compiler: a plain, serializable mirror of IR/Script/
// Stack/Input built entirely of maps, slices, and strings so it decodes
// the same way whether the source bytes are YAML or JSON (gopkg.in/
// yaml.v3 parses both — JSON is a YAML subset — the same way
// internal/ext/config.go decodes funxy.yaml with one Unmarshal call).
// Opcode is already a named string type so it round-trips without a
// custom (Un)MarshalYAML.
type Fixture struct {
	Entry      *ScriptFixture            `yaml:"entry"`
	Procedures map[string]*ScriptFixture `yaml:"procedures,omitempty"`
}

// ScriptFixture mirrors Script.
type ScriptFixture struct {
	TopBlockID          string            `yaml:"topBlockId"`
	Body                []*StackFixture   `yaml:"body"`
	IsProcedure         bool              `yaml:"isProcedure,omitempty"`
	ProcedureCode       string            `yaml:"procedureCode,omitempty"`
	ArgumentNames       []string          `yaml:"argumentNames,omitempty"`
	IsWarp              bool              `yaml:"isWarp,omitempty"`
	Yields              bool              `yaml:"yields,omitempty"`
	WarpTimer           bool              `yaml:"warpTimer,omitempty"`
	DependedProcedures  []string          `yaml:"dependedProcedures,omitempty"`
	UnsafeConstantNames []string          `yaml:"unsafeConstantNames,omitempty"`
}

// StackFixture mirrors Stack.
type StackFixture struct {
	Opcode Opcode                      `yaml:"opcode"`
	Inputs map[string]*InputFixture    `yaml:"inputs,omitempty"`
	Fields map[string]string           `yaml:"fields,omitempty"`
	Stacks map[string][]*StackFixture  `yaml:"stacks,omitempty"`
	Yields bool                        `yaml:"yields,omitempty"`
}

// InputFixture mirrors Input. Literal is decoded as whatever YAML/JSON
// scalar kind the fixture author wrote (string, bool, int, float) and
// normalized to the exact {float64,bool,string} triple literalType
// expects — a fixture author writing `literal: 3` (a YAML int) must still
// produce the same lattice.Type as the compiler's own NewConstant(3.0).
type InputFixture struct {
	Opcode  Opcode                   `yaml:"opcode"`
	Inputs  map[string]*InputFixture `yaml:"inputs,omitempty"`
	Fields  map[string]string        `yaml:"fields,omitempty"`
	Literal interface{}              `yaml:"literal,omitempty"`
	Yields  bool                     `yaml:"yields,omitempty"`
}

// LoadFixture reads and decodes path (YAML or JSON — see Fixture) into an
// *IR. It does not itself validate opcodes or run the analyzer; Build
// checks every opcode against the known vocabulary during tree
// construction. Input arity is not checked.
func LoadFixture(path string) (*IR, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading fixture %s: %w", path, err)
	}
	return ParseFixture(data)
}

// ParseFixture decodes raw fixture bytes and builds an *IR from them.
func ParseFixture(data []byte) (*IR, error) {
	var f Fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing fixture: %w", err)
	}
	return f.Build()
}

// Build converts the fixture into a live *IR, validating every opcode it
// encounters against the known vocabulary (spec.md §7 "Malformed IR:
// unknown opcode ... abort compilation with a descriptive error").
func (f *Fixture) Build() (*IR, error) {
	if f.Entry == nil {
		return nil, fmt.Errorf("fixture: missing required \"entry\" script")
	}
	entry, err := f.Entry.build()
	if err != nil {
		return nil, err
	}
	procs := make(map[string]*Script, len(f.Procedures))
	for key, sf := range f.Procedures {
		s, err := sf.build()
		if err != nil {
			return nil, fmt.Errorf("procedure %q: %w", key, err)
		}
		procs[key] = s
	}
	return &IR{Entry: entry, Procedures: procs}, nil
}

func (sf *ScriptFixture) build() (*Script, error) {
	body, err := buildStacks(sf.Body)
	if err != nil {
		return nil, err
	}
	var unsafe map[string]bool
	if len(sf.UnsafeConstantNames) > 0 {
		unsafe = make(map[string]bool, len(sf.UnsafeConstantNames))
		for _, n := range sf.UnsafeConstantNames {
			unsafe[n] = true
		}
	}
	return &Script{
		TopBlockID:          sf.TopBlockID,
		Body:                body,
		IsProcedure:         sf.IsProcedure,
		ProcedureCode:       sf.ProcedureCode,
		ArgumentNames:       sf.ArgumentNames,
		IsWarp:              sf.IsWarp,
		Yields:              sf.Yields,
		WarpTimer:           sf.WarpTimer,
		DependedProcedures:  sf.DependedProcedures,
		UnsafeConstantNames: unsafe,
	}, nil
}

func buildStacks(fixtures []*StackFixture) ([]*Stack, error) {
	out := make([]*Stack, 0, len(fixtures))
	for _, sf := range fixtures {
		s, err := sf.build()
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func (sf *StackFixture) build() (*Stack, error) {
	if !stackOpcodes[sf.Opcode] {
		return nil, diagnostics.NewUnknownOpcodeError(string(sf.Opcode))
	}
	inputs := make(map[string]*Input, len(sf.Inputs))
	for k, inf := range sf.Inputs {
		in, err := inf.build()
		if err != nil {
			return nil, err
		}
		inputs[k] = in
	}
	stacks := make(map[string][]*Stack, len(sf.Stacks))
	for k, nested := range sf.Stacks {
		built, err := buildStacks(nested)
		if err != nil {
			return nil, err
		}
		stacks[k] = built
	}
	s := NewStack(sf.Opcode, inputs, stacks, sf.Yields)
	if sf.Fields != nil {
		s.WithFields(sf.Fields)
	}
	return s, nil
}

func (inf *InputFixture) build() (*Input, error) {
	if inf == nil {
		return nil, nil
	}
	if !inputOpcodes[inf.Opcode] {
		return nil, diagnostics.NewUnknownOpcodeError(string(inf.Opcode))
	}
	if inf.Opcode == CONSTANT {
		return NewConstant(normalizeLiteral(inf.Literal)), nil
	}
	inputs := make(map[string]*Input, len(inf.Inputs))
	for k, child := range inf.Inputs {
		built, err := child.build()
		if err != nil {
			return nil, err
		}
		inputs[k] = built
	}
	n := NewInput(inf.Opcode, inputs, inf.Fields)
	n.Yields = inf.Yields
	return n, nil
}

// normalizeLiteral coerces a fixture-decoded scalar to the exact Go kind
// literalType switches on: yaml.v3 decodes an unquoted integer literal
// (e.g. `literal: 3`) as int, not float64, which would otherwise make a
// fixture constant carry a different lattice type than the equivalent
// NewConstant(3.0) call the analyzer's own tests construct directly.
func normalizeLiteral(v interface{}) interface{} {
	switch x := v.(type) {
	case int:
		return float64(x)
	case int64:
		return float64(x)
	case float64, bool, string:
		return x
	default:
		return x
	}
}

// inputOpcodes/stackOpcodes partition Opcode's vocabulary for Build's
// unknown-opcode validation (spec.md §6 "every opcode ... must have a
// stable string/enum identifier").
var inputOpcodes = map[Opcode]bool{
	CONSTANT: true, VAR_GET: true,
	LIST_GET: true, LIST_LENGTH: true, LIST_CONTAINS: true, LIST_INDEX_OF: true, LIST_CONTENTS: true,
	PROCEDURE_ARG_NUM: true, PROCEDURE_ARG_STRING: true, PROCEDURE_ARG_BOOL: true,
	CAST_BOOLEAN: true, CAST_NUMBER: true, CAST_NUMBER_OR_NAN: true, CAST_NUMBER_INDEX: true, CAST_STRING: true,
	OP_ADD: true, OP_SUB: true, OP_MUL: true, OP_DIV: true, OP_MOD: true,
	OP_AND: true, OP_OR: true, OP_NOT: true, OP_EQ: true, OP_LT: true, OP_GT: true,
	OP_JOIN: true, OP_LEN: true, OP_LETTER_OF: true, OP_ABS: true, OP_FLOOR: true, OP_CEIL: true,
	OP_SQRT: true, OP_SIN: true, OP_COS: true, OP_TAN: true, OP_ASIN: true, OP_ACOS: true, OP_ATAN: true,
	OP_LN: true, OP_LOG10: true, OP_POW_E: true, OP_POW_10: true, OP_ROUND: true, OP_RANDOM: true, OP_CONTAINS: true,
	SENSING_OF: true, MOTION_X_POSITION: true, MOTION_Y_POSITION: true, MOTION_DIRECTION: true,
	LOOKS_COSTUME_NUM: true, LOOKS_SIZE: true,
	COMPATIBILITY_LAYER_INPUT: true,
}

var stackOpcodes = map[Opcode]bool{
	IF_ELSE: true, WHILE: true, FOR: true, REPEAT: true, WAIT: true, WAIT_UNTIL: true,
	STOP_SCRIPT: true, STOP_ALL: true, CLONE_DELETE: true,
	VAR_SET: true, VAR_SHOW: true, VAR_HIDE: true,
	LIST_ADD: true, LIST_INSERT: true, LIST_REPLACE: true, LIST_DELETE: true, LIST_DELETE_ALL: true,
	LIST_SHOW: true, LIST_HIDE: true,
	MOTION_XY_SET: true, MOTION_X_SET: true, MOTION_Y_SET: true,
	LOOKS_SAY: true, SOUND_PLAY: true, PEN_DOWN: true,
	EVENT_BROADCAST: true, EVENT_BROADCAST_AND_WAIT: true, PROCEDURE_CALL: true,
	COMPATIBILITY_LAYER: true, ADDON_CALL: true, DEBUGGER: true, VISUAL_REPORT: true, NOP: true,
}
