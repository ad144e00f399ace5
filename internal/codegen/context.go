// Package codegen implements C6: lowering of analyzed-and-rewritten IR to a
// textual host-language factory function, along with the naming pools and
// compile-time bookkeeping spec.md §4.6/§9 calls for.
//
// Grounded on internal/vm/compiler.go's Compiler struct (one struct owns
// all of a compile's mutable state — locals, scope depth, loop-context
// stack — no package globals) and internal/vm/chunk.go's builder-style
// append API, adapted here from byte-append to string-append since this
// generator emits host-language source text, not bytecode.
package codegen

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/funvibe/blockc/internal/diagnostics"
	"github.com/google/uuid"
)

// Context is the process-wide state spec.md §9 allows a code generator to
// hold: the factory/fun/gen naming-pool counters (unique across every
// script compiled in this process, per spec.md §4.6) and the optional
// snapshot-test observer hook. One Context is created at process startup
// and shared by every Generate call; per-compile state (local/setup-binding
// pools, the current script's yields flag) lives on Generator instead
// (spec.md §5 "Resource scoping": "Each compilation owns its own ...
// local-variable pool ... disposed when compile() returns").
type Context struct {
	factoryCounter uint64
	funCounter     uint64
	genCounter     uint64

	// SessionID distinguishes which compiler process emitted a given
	// factory, carried on every CompileEvent (SPEC_FULL.md §4 S4's remote
	// observer keys events by it).
	SessionID uuid.UUID

	// Observer, if non-nil, receives a CompileEvent after each successful
	// Generate call (spec.md §6 "Test hook").
	Observer diagnostics.SnapshotObserver

	// Logger emits one line per compiled script when Debug is true
	// (spec.md §6 "Diagnostics").
	Logger diagnostics.Logger
	Debug  bool

	procNamesMu sync.Mutex
	procNames   map[string]string
}

// NewContext creates a Context with a fresh session id and a no-op logger.
func NewContext() *Context {
	return &Context{SessionID: uuid.New(), Logger: diagnostics.NopLogger{}, procNames: map[string]string{}}
}

// funcNameFor returns the stable function name assigned to procedure
// variant, assigning one from the fun (plain) or gen (yielding) pool the
// first time it is asked for, keyed on whether the procedure itself
// yields (spec.md §4.6: a procedure's PROCEDURE_CALL sites, wherever they
// occur, must all resolve to the one compiled function, and the naming
// pools are "factoryN, funN, genN" — a generator-style procedure draws
// from genN, a plain one from funN).
func (c *Context) funcNameFor(variant, procCode string, yields bool) string {
	c.procNamesMu.Lock()
	defer c.procNamesMu.Unlock()
	if name, ok := c.procNames[variant]; ok {
		return name
	}
	var name string
	if yields {
		name = c.nextGenName(procCode)
	} else {
		name = c.nextFunName(procCode)
	}
	c.procNames[variant] = name
	return name
}

// nextFactoryName draws the next globally unique factory-function name.
func (c *Context) nextFactoryName() string {
	return fmt.Sprintf("factory%d", atomic.AddUint64(&c.factoryCounter, 1))
}

// nextFunName draws the next globally unique plain-function name,
// appending a sanitized, truncated copy of procCode for debuggability
// (spec.md §4.6 "Procedure function names append a sanitized, truncated
// copy of the procedure signature").
func (c *Context) nextFunName(procCode string) string {
	n := atomic.AddUint64(&c.funCounter, 1)
	return withSignatureSuffix(fmt.Sprintf("fun%d", n), procCode)
}

// nextGenName draws the next globally unique generator-function name, for
// a script or procedure compiled with script.Yields set.
func (c *Context) nextGenName(procCode string) string {
	n := atomic.AddUint64(&c.genCounter, 1)
	return withSignatureSuffix(fmt.Sprintf("gen%d", n), procCode)
}

func withSignatureSuffix(base, procCode string) string {
	suffix := sanitizeSignature(procCode)
	if suffix == "" {
		return base
	}
	return base + "_" + suffix
}

const maxSignatureSuffix = 24

// sanitizeSignature keeps procCode debuggable inside a generated identifier:
// only ASCII letters/digits survive, each run of other bytes becomes a
// single "_" (none at the start or end), and the result is truncated so
// long procedure signatures don't blow up generated source width.
func sanitizeSignature(procCode string) string {
	out := make([]byte, 0, len(procCode))
	for i := 0; i < len(procCode) && len(out) < maxSignatureSuffix; i++ {
		b := procCode[i]
		switch {
		case b >= 'a' && b <= 'z', b >= 'A' && b <= 'Z', b >= '0' && b <= '9':
			out = append(out, b)
		default:
			if len(out) > 0 && out[len(out)-1] != '_' {
				out = append(out, '_')
			}
		}
	}
	for len(out) > 0 && out[len(out)-1] == '_' {
		out = out[:len(out)-1]
	}
	return string(out)
}
