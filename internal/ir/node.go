package ir

import "github.com/funvibe/blockc/internal/lattice"

// Input is a typed expression node: an opcode plus a named-inputs map,
// a result type, and a yields flag. CONSTANT nodes additionally carry
// a literal value. Spec.md §3/§4.2: "Two node kinds share the same
// general shape {opcode, inputs-map, yields-flag}".
type Input struct {
	Opcode Opcode
	Inputs map[string]*Input

	// Fields holds the node's static (non-expression) parameters: a
	// variable id for VAR_GET, a scope tag ("target"/"stage"), a property
	// name for SENSING_OF, and so on — the block-shape distinction between
	// an evaluated input and a fixed dropdown/reference.
	Fields map[string]string

	// Type is the node's result type. Callers should treat it as ANY
	// until the analyzer (C4) has run; CAST_* and CONSTANT nodes carry
	// an exact type from construction.
	Type lattice.Type

	// Yields is true if evaluating this expression may suspend the
	// running script (e.g. a COMPATIBILITY_LAYER_INPUT read).
	Yields bool

	// Literal holds the value for CONSTANT nodes. Nil for everything else.
	Literal interface{}

	// EntryState/ExitState annotations (set by the analyzer, consumed by
	// the rewriter) are metadata; see SetEntryState/EntryState in annotate.go.
	annotation interface{}
}

// NewConstant builds a CONSTANT input whose Type exactly characterizes v.
func NewConstant(v interface{}) *Input {
	return &Input{Opcode: CONSTANT, Inputs: map[string]*Input{}, Literal: v, Type: literalType(v)}
}

func literalType(v interface{}) lattice.Type {
	switch x := v.(type) {
	case float64:
		return lattice.NumberType(x)
	case bool:
		return lattice.Boolean
	case string:
		return lattice.StringType(x, parsesAsNumber(x))
	default:
		return lattice.Any
	}
}

// NewVarGet builds a VAR_GET input for variable name, defaulting to ANY
// until analysis runs (spec.md §4.2).
func NewVarGet(name string) *Input {
	return &Input{Opcode: VAR_GET, Inputs: map[string]*Input{}, Fields: map[string]string{"VAR": name}, Type: lattice.Any}
}

// VarName returns the variable id a VAR_GET node reads, or "" if n is not
// a VAR_GET.
func (n *Input) VarName() string {
	if n == nil || n.Opcode != VAR_GET {
		return ""
	}
	return n.Fields["VAR"]
}

// Scope returns the "target" or "stage" scope tag for a VAR_GET,
// defaulting to "target" when unset.
func (n *Input) Scope() string {
	if n == nil {
		return "target"
	}
	if sc, ok := n.Fields["SCOPE"]; ok && sc != "" {
		return sc
	}
	return "target"
}

// NewInput builds a generic Input node with the given opcode, inputs, and
// fields.
func NewInput(op Opcode, inputs map[string]*Input, fields map[string]string) *Input {
	if inputs == nil {
		inputs = map[string]*Input{}
	}
	if fields == nil {
		fields = map[string]string{}
	}
	return &Input{Opcode: op, Inputs: inputs, Fields: fields, Type: lattice.Any}
}

// IsConstant reports whether n is a CONSTANT node whose stored literal
// equals v. If v is a number, equality is taken after numeric coercion of
// the stored literal (spec.md §4.2).
func (n *Input) IsConstant(v interface{}) bool {
	if n == nil || n.Opcode != CONSTANT {
		return false
	}
	if f, ok := v.(float64); ok {
		lf, ok := coerceToFloat(n.Literal)
		return ok && lf == f
	}
	return n.Literal == v
}

func coerceToFloat(v interface{}) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case string:
		f, ok := parseNumber(x)
		return f, ok
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}

// ToType returns n unchanged if n is already always of type target;
// otherwise it wraps n in the appropriate CAST_* node. On a CONSTANT
// input the cast is performed at build time, replacing the stored
// literal (spec.md §4.2).
func (n *Input) ToType(target lattice.Type) (*Input, error) {
	if lattice.IsAlways(n.Type, target) {
		return n, nil
	}
	op, err := castOpcodeFor(target)
	if err != nil {
		return nil, err
	}
	if n.Opcode == CONSTANT {
		return castConstant(n, op)
	}
	return &Input{Opcode: op, Inputs: map[string]*Input{"TARGET": n}, Type: target}, nil
}

// Stack is a statement node sharing the {opcode, inputs-map, yields-flag}
// shape. Stacks holds nested Stacks for control constructs (e.g. the
// true/false branches of IF_ELSE, the body of WHILE/FOR/REPEAT).
type Stack struct {
	Opcode Opcode
	Inputs map[string]*Input
	Fields map[string]string
	Stacks map[string][]*Stack

	Yields bool

	entryState interface{}
	exitState  interface{}
}

// NewStack builds a Stack node.
func NewStack(op Opcode, inputs map[string]*Input, stacks map[string][]*Stack, yields bool) *Stack {
	if inputs == nil {
		inputs = map[string]*Input{}
	}
	if stacks == nil {
		stacks = map[string][]*Stack{}
	}
	return &Stack{Opcode: op, Inputs: inputs, Fields: map[string]string{}, Stacks: stacks, Yields: yields}
}

// WithFields sets s's static fields (variable id, scope, etc.) and
// returns s for chaining.
func (s *Stack) WithFields(fields map[string]string) *Stack {
	s.Fields = fields
	return s
}

// VarName returns the variable id a VAR_SET/VAR_SHOW/VAR_HIDE node
// targets, or "" if unset.
func (s *Stack) VarName() string { return s.Fields["VAR"] }

// Scope returns the "target" or "stage" scope tag for a variable/list
// access, defaulting to "target" when unset (spec.md §4.6 "Variable
// scope = 'target' or 'stage'").
func (s *Stack) Scope() string {
	if sc, ok := s.Fields["SCOPE"]; ok && sc != "" {
		return sc
	}
	return "target"
}

// Script is one compiled unit: either a top-level hat script or a
// procedure body (spec.md §3).
type Script struct {
	TopBlockID string
	Body       []*Stack

	IsProcedure   bool
	ProcedureCode string // signature string, used for the variant key
	ArgumentNames []string
	IsWarp        bool
	Yields        bool
	WarpTimer     bool

	// DependedProcedures lists procedure variant keys this script calls,
	// so the analyzer can process dependencies before the entry script
	// (spec.md §4.4 "Order of analysis").
	DependedProcedures []string

	// UnsafeConstantNames lists string literals that collide with a
	// costume or sound name on the target this script compiles against;
	// the code generator must keep these as guaranteed strings rather
	// than ever folding them into a numeric comparison (spec.md §4.6
	// "unsafe name" handling).
	UnsafeConstantNames map[string]bool

	// compiled caches the factory produced by the code generator for this
	// script (spec.md §3: "cache slot for the compiled function").
	compiled interface{}
}

// SetCompiled stores the code generator's output for this script.
func (s *Script) SetCompiled(v interface{}) { s.compiled = v }

// Compiled retrieves a previously stored factory, or nil.
func (s *Script) Compiled() interface{} { return s.compiled }

// IR bundles one entry Script plus the procedure variants it may call.
type IR struct {
	Entry      *Script
	Procedures map[string]*Script
}

// Frame is a per-stack compilation context: whether the enclosing stack is
// a loop body, and whether the current block is the last one in its
// stack (spec.md GLOSSARY "Frame"). The rewriter and code generator do
// not use it; codegen tracks loop nesting with its own loopDepth counter.
type Frame struct {
	IsLoop     bool
	IsLastBlock bool
}
