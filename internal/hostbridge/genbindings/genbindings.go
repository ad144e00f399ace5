// Package genbindings is the fixed target cmd/bindgen writes generated
// extension-op registration stubs into. Each entry in blockc.yaml becomes
// one generated_<opcode>.go file in this package, calling Register from
// an init() so a Runtime implementation can populate its
// GetOpcodeFunction/GetAddonBlock tables with a single
// genbindings.All() range instead of hand-wiring each binding — mirroring
// how internal/ext/inspector.go resolves a funxy.yaml `bind:` entry to a
// concrete Go value the evaluator's environment is then seeded with.
//
// This file carries the registry itself; it has no generated siblings
// checked in because blockc.yaml is project-specific and cmd/bindgen is
// meant to be re-run against each project's own manifest.
package genbindings

import (
	"fmt"
	"sort"
	"sync"

	"github.com/funvibe/blockc/internal/hostbridge"
)

// Binding is one registered extension op, carrying the manifest metadata
// a Runtime needs to decide how to invoke it (spec.md §4.7,
// extmanifest.Op).
type Binding struct {
	Opcode   string
	Blocking bool
	Async    bool
	Op       hostbridge.ExtensionOp
}

var (
	mu       sync.RWMutex
	bindings = make(map[string]Binding)
)

// Register adds a binding. Generated stubs call this from an init() func;
// a duplicate opcode is a build-time authoring error in blockc.yaml, so
// Register panics rather than silently shadowing the earlier binding.
func Register(opcode string, op hostbridge.ExtensionOp, blocking, async bool) {
	mu.Lock()
	defer mu.Unlock()
	if _, exists := bindings[opcode]; exists {
		panic(fmt.Sprintf("genbindings: opcode %q registered more than once", opcode))
	}
	bindings[opcode] = Binding{Opcode: opcode, Blocking: blocking, Async: async, Op: op}
}

// Lookup returns the binding registered for opcode, if any — the
// concrete implementation a Runtime's GetOpcodeFunction/GetAddonBlock
// would delegate to.
func Lookup(opcode string) (hostbridge.ExtensionOp, bool) {
	mu.RLock()
	defer mu.RUnlock()
	b, ok := bindings[opcode]
	if !ok {
		return nil, false
	}
	return b.Op, true
}

// All returns every registered binding, sorted by opcode for deterministic
// iteration (mirrors internal/codegen's sorted-map-keys discipline for
// reproducible output).
func All() []Binding {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]Binding, 0, len(bindings))
	for _, b := range bindings {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Opcode < out[j].Opcode })
	return out
}

// Reset clears the registry. Exposed for tests that register fakes and
// need a clean slate between cases.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	bindings = make(map[string]Binding)
}
