package codegen

import (
	"fmt"
	"strings"

	"github.com/funvibe/blockc/internal/diagnostics"
	"github.com/funvibe/blockc/internal/ir"
)

// Generate lowers script (already analyzed and rewritten) to a textual
// factory function under ctx's naming pools, consulting bundle to resolve
// PROCEDURE_CALL targets (spec.md §4.6). It reports to ctx's Observer and
// Logger on success and returns the generated source.
//
// Grounded on internal/vm/compiler.go's top-level Compile entry point,
// which owns one Compiler per compile and returns a single artifact (a
// Chunk there, a source string here).
func Generate(ctx *Context, bundle *ir.IR, script *ir.Script) (string, error) {
	g := newGenerator(ctx, bundle, script)

	bodySrc, err := g.genStacks(script.Body, 2)
	if err != nil {
		return "", err
	}

	if g.needsYieldFlag && !script.Yields {
		return "", diagnostics.NewYieldFlagMismatchError(script.TopBlockID,
			"a yielding construct was lowered but the script is not flagged Yields")
	}

	funName := ""
	if script.IsProcedure {
		// Shared with every PROCEDURE_CALL site naming this same variant,
		// wherever they are compiled from.
		funName = ctx.funcNameFor(script.ProcedureCode, script.ProcedureCode, script.Yields)
	} else if script.Yields {
		funName = ctx.nextGenName(script.TopBlockID)
	} else {
		funName = ctx.nextFunName(script.TopBlockID)
	}
	factoryName := ctx.nextFactoryName()

	star := ""
	if script.Yields {
		star = "*"
	}
	var out strings.Builder
	fmt.Fprintf(&out, "const %s = function%s %s(thread, p) {\n", factoryName, star, funName)
	out.WriteString("  const target = thread.target;\n")
	out.WriteString("  const runtime = target.runtime;\n")
	out.WriteString("  const stage = runtime.getTargetForStage();\n")
	for _, name := range g.setupOrder {
		fmt.Fprintf(&out, "  const %s = %s;\n", name, g.setupBindings[name])
	}
	out.WriteString(bodySrc)
	if script.IsProcedure {
		out.WriteString("  return;\n")
	} else {
		out.WriteString("  retire();\n")
	}
	out.WriteString("};\n")

	source := out.String()
	script.SetCompiled(source)

	if ctx.Debug {
		ctx.Logger.Debugf("compiled %s (%s): %s", script.TopBlockID, funName, source)
	}
	if ctx.Observer != nil {
		ctx.Observer.Observe(diagnostics.CompileEvent{
			SessionID:     ctx.SessionID.String(),
			ScriptID:      script.TopBlockID,
			IsProcedure:   script.IsProcedure,
			FactorySource: source,
		})
	}
	return source, nil
}

// generator carries the per-compile state spec.md §5 "Resource scoping"
// says must not outlive one compile: the aN/bN naming pools, the setup-
// binding dedup table, and yield/modulo bookkeeping threaded across
// statements within this one script.
type generator struct {
	ctx    *Context
	bundle *ir.IR
	script *ir.Script

	localN int // aN pool (temporaries inside a statement)

	setupN        int // bN pool (deduplicated setup-time references)
	setupBindings map[string]string // boundName -> host expression
	setupSeen     map[string]string // host expression -> boundName
	setupOrder    []string

	// descendedIntoModulo is set whenever an OP_MOD is lowered and
	// consumed by the next MOTION_{X,Y,XY}_SET statement, which must then
	// clear the target's interpolation cache (spec.md §4.6 test 8). Each
	// VAR_SET resets it to whether its own VALUE contains an OP_MOD.
	descendedIntoModulo bool

	// needsYieldFlag becomes true the moment any construct that lowers
	// through a `yield`/`yield*` is emitted. Checked once, at the end of
	// Generate, against script.Yields — never read mid-lowering.
	needsYieldFlag bool

	loopDepth int
}

func newGenerator(ctx *Context, bundle *ir.IR, script *ir.Script) *generator {
	return &generator{
		ctx:           ctx,
		bundle:        bundle,
		script:        script,
		setupBindings: map[string]string{},
		setupSeen:     map[string]string{},
	}
}

func (g *generator) nextLocal() string {
	g.localN++
	return fmt.Sprintf("a%d", g.localN)
}

// bindSetup deduplicates a setup-time host expression (a variable/list
// cell reference resolved once per compile, not once per read) behind a
// stable bN name.
func (g *generator) bindSetup(expr string) string {
	if name, ok := g.setupSeen[expr]; ok {
		return name
	}
	g.setupN++
	name := fmt.Sprintf("b%d", g.setupN)
	g.setupSeen[expr] = name
	g.setupBindings[name] = expr
	g.setupOrder = append(g.setupOrder, name)
	return name
}

func scopeExpr(scope string) string {
	if scope == "stage" {
		return "stage"
	}
	return "target"
}

// variableCellRef returns the deduplicated setup binding for a variable or
// list's underlying cell (spec.md §4.6: variables/lists live in
// `<scope>.variables[id]`).
func (g *generator) variableCellRef(id, scope string) string {
	expr := fmt.Sprintf("%s.variables[%s]", scopeExpr(scope), jsStringLiteral(id))
	return g.bindSetup(expr)
}

// emitYield records a yield statement unconditionally: whether the
// surrounding script is actually allowed to contain one is checked once,
// at the end of Generate, against needsYieldFlag — emitting it
// unconditionally here (rather than gating on script.Yields) keeps every
// lowering rule structurally correct on its own; a script wrongly flagged
// non-yielding is caught before its source is ever returned.
func (g *generator) emitYield(depth int, sb *strings.Builder) {
	g.needsYieldFlag = true
	sb.WriteString(indent(depth))
	sb.WriteString("yield;\n")
}

// maybeLoopYield emits a per-iteration yield for WHILE/FOR/REPEAT/WAIT*
// bodies. A warp (turbo) script suppresses the unconditional yield but
// still must not run forever: it emits a conditional yield gated on the
// runtime's isStuck() heuristic instead (spec.md §4.6/§5 "stuck-or-not-warp
// yield"), so needsYieldFlag is set either way.
func (g *generator) maybeLoopYield(depth int, sb *strings.Builder) {
	if g.script.IsWarp {
		g.needsYieldFlag = true
		g.line(sb, depth, "if (isStuck()) { yield; }")
		return
	}
	g.emitYield(depth, sb)
}
