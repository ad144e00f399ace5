// Package extmanifest parses blockc.yaml: the extension-op binding
// manifest listing the host-bridge extension ops that COMPATIBILITY_LAYER
// and ADDON_CALL may dispatch to, and the argument shape each expects.
//
// Grounded directly on internal/ext/config.go's funxy.yaml Config/Dep/
// BindSpec shape (a `deps:` list of Go packages, each with a `bind:` list
// of type/func/const specs) — this manifest replaces "Go package to
// bind" with "extension op to register", keeping the same
// decode-then-validate loading shape and the same yaml.v3 dependency.
// No defaults are filled in after validation.
package extmanifest

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Manifest is the top-level blockc.yaml document.
type Manifest struct {
	// Ops lists the extension operations the compiled code may reach
	// through COMPATIBILITY_LAYER/ADDON_CALL.
	Ops []Op `yaml:"ops"`
}

// Op describes one extension operation binding.
type Op struct {
	// Opcode is the block opcode string COMPATIBILITY_LAYER's "OPCODE"
	// field names (spec.md §4.6), e.g. "pen_setPenColorToColor".
	Opcode string `yaml:"opcode"`

	// Pkg is the Go import path implementing this op's handler (resolved
	// by cmd/bindgen via go/packages, mirroring internal/ext/config.go's
	// Dep.Pkg).
	Pkg string `yaml:"pkg"`

	// Func is the Go function name within Pkg that implements the op.
	// It must have the shape func(ctx context.Context, args map[string]
	// interface{}) (interface{}, error) so bindgen can wire it directly
	// against hostbridge.ExtensionOp without generating adapter glue.
	Func string `yaml:"func"`

	// Args lists the named input/field keys the op expects, purely for
	// documentation (cmd/bindgen does not read it) — the compiler
	// core itself passes whatever keys the IR's Inputs/Fields maps
	// contain (spec.md §4.6's genFieldObjectLiteral).
	Args []string `yaml:"args,omitempty"`

	// Blocking marks an op that may suspend the calling script (backed
	// by Scheduler.ExecuteInCompatibilityLayer's ctx-cancelable call)
	// rather than returning synchronously.
	Blocking bool `yaml:"blocking,omitempty"`

	// Async is passed unchanged to genbindings.Register by the generated
	// stub and recorded on the Binding; the stub itself is named and shaped
	// the same as for a synchronous op — mirrors
	// internal/ext/config.go's BindSpec.ChainResult: an orthogonal knob on
	// an otherwise-ordinary binding, not a separate binding kind.
	Async bool `yaml:"async,omitempty"`
}

// Load reads and parses a blockc.yaml file.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest %s: %w", path, err)
	}
	return Parse(data, path)
}

// Parse parses manifest bytes. path is used only for error messages.
func Parse(data []byte, path string) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := m.validate(path); err != nil {
		return nil, err
	}
	return &m, nil
}

func (m *Manifest) validate(path string) error {
	seen := make(map[string]bool, len(m.Ops))
	for i, op := range m.Ops {
		if op.Opcode == "" {
			return fmt.Errorf("%s: ops[%d]: missing required \"opcode\"", path, i)
		}
		if op.Pkg == "" || op.Func == "" {
			return fmt.Errorf("%s: op %q: both \"pkg\" and \"func\" are required", path, op.Opcode)
		}
		if seen[op.Opcode] {
			return fmt.Errorf("%s: op %q is declared more than once", path, op.Opcode)
		}
		seen[op.Opcode] = true
	}
	return nil
}

// Lookup returns the Op bound to opcode, if any.
func (m *Manifest) Lookup(opcode string) (Op, bool) {
	for _, op := range m.Ops {
		if op.Opcode == opcode {
			return op, true
		}
	}
	return Op{}, false
}
