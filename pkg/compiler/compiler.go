// Package compiler is blockc's public entry point (spec.md §6 "Compiler
// entry points"): Compile(bundle) -> factory function source. Each
// Compiler owns one codegen.Context, created by New; the heavy lifting
// lives in internal/analyzer, internal/rewriter, and internal/codegen.
//
// Grounded on internal/vm/compiler.go's NewCompiler()/Compile(program)
// pair: one constructor that owns process-wide bookkeeping, one method
// per compile unit that runs the pipeline and returns a single artifact.
package compiler

import (
	"fmt"
	"sort"

	"github.com/funvibe/blockc/internal/analyzer"
	"github.com/funvibe/blockc/internal/codegen"
	"github.com/funvibe/blockc/internal/config"
	"github.com/funvibe/blockc/internal/diagnostics"
	"github.com/funvibe/blockc/internal/ir"
	"github.com/funvibe/blockc/internal/rewriter"
)

// Compiler owns the process-wide codegen.Context (naming pools, session
// id, optional observer/logger) that must stay stable across every script
// compiled by this process (spec.md §5 "Resource scoping": "naming pools
// ... are created at startup and live until process exit").
type Compiler struct {
	Context *codegen.Context

	analyzer *analyzer.Analyzer
	rewriter *rewriter.Rewriter
}

// New creates a Compiler with a fresh codegen.Context.
func New() *Compiler {
	return &Compiler{
		Context:  codegen.NewContext(),
		analyzer: analyzer.New(),
		rewriter: rewriter.New(),
	}
}

// SetLogger wires a diagnostics.Logger into both the analyzer and the
// codegen.Context, so `-debug` output covers analysis and code
// generation the same way the teacher's `runtime.debug` gates logging
// across its own pipeline stages.
func (c *Compiler) SetLogger(l diagnostics.Logger) {
	if l == nil {
		l = diagnostics.NopLogger{}
	}
	c.analyzer.Logger = l
	c.Context.Logger = l
}

// SetObserver wires a snapshot-test observer (spec.md §6 "Test hook").
func (c *Compiler) SetObserver(o diagnostics.SnapshotObserver) {
	c.Context.Observer = o
}

// SetDebug toggles per-compile factory-source logging (spec.md §6
// "Diagnostics"), mirroring config.IsDebugMode.
func (c *Compiler) SetDebug(debug bool) {
	c.Context.Debug = debug
}

// Result is one script's compiled output: the factory source plus the
// script's own identity, enough for a caller (cmd/blockc, a test
// harness) to register it without reaching back into the IR.
type Result struct {
	ScriptID      string
	IsProcedure   bool
	ProcedureCode string
	FactorySource string
}

// CompileIR runs the full pipeline — analyze (C4) every procedure the
// entry script depends on then the entry script, rewrite (C5) each in place, then generate (C6) a
// factory for each — over one IR bundle (spec.md §6's "Compiler entry
// points": "Front-end (non-core) supplies the IR; the caller registers
// the returned factory in a per-thread procedure table"). Procedures are
// compiled before the entry script so the caller can register callees
// first, but analysis order (spec.md §4.4) is what actually matters for
// correctness — CompileIR delegates that ordering to analyzer.AnalyzeIR.
func (c *Compiler) CompileIR(bundle *ir.IR) ([]*Result, error) {
	if bundle == nil || bundle.Entry == nil {
		return nil, fmt.Errorf("compiler: IR bundle has no entry script")
	}

	if err := c.analyzer.AnalyzeIR(bundle); err != nil {
		return nil, err
	}
	if err := c.rewriter.RewriteIR(bundle); err != nil {
		return nil, err
	}

	// Iterate variants in a stable order (map range order is randomized by
	// Go at runtime) so that naming-pool assignment — and therefore the
	// emitted factory source — is reproducible across runs of the same IR
	// bundle, which the snapshot-test tooling (spec.md §6 "Test hook")
	// depends on.
	variants := make([]string, 0, len(bundle.Procedures))
	for variant := range bundle.Procedures {
		variants = append(variants, variant)
	}
	sort.Strings(variants)

	var results []*Result
	for _, variant := range variants {
		proc := bundle.Procedures[variant]
		src, err := codegen.Generate(c.Context, bundle, proc)
		if err != nil {
			return nil, fmt.Errorf("compiling procedure %s: %w", variant, err)
		}
		results = append(results, &Result{
			ScriptID:      proc.TopBlockID,
			IsProcedure:   true,
			ProcedureCode: proc.ProcedureCode,
			FactorySource: src,
		})
	}

	entrySrc, err := codegen.Generate(c.Context, bundle, bundle.Entry)
	if err != nil {
		return nil, fmt.Errorf("compiling entry script %s: %w", bundle.Entry.TopBlockID, err)
	}
	results = append(results, &Result{
		ScriptID:      bundle.Entry.TopBlockID,
		FactorySource: entrySrc,
	})
	return results, nil
}

// Compile is the single-script convenience form of CompileIR, for callers
// that only want the entry
// script's own factory and are willing to let its procedure dependencies
// compile as a side effect.
func Compile(bundle *ir.IR) (*Result, error) {
	c := New()
	results, err := c.CompileIR(bundle)
	if err != nil {
		return nil, err
	}
	for _, r := range results {
		if r.ScriptID == bundle.Entry.TopBlockID && !r.IsProcedure {
			return r, nil
		}
	}
	return nil, fmt.Errorf("compiler: internal error, entry result not found")
}

// Version re-exports config.Version for callers that only import
// pkg/compiler.
func Version() string { return config.Version }
