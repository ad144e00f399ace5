package codegen

import (
	"fmt"
	"strings"

	"github.com/funvibe/blockc/internal/diagnostics"
	"github.com/funvibe/blockc/internal/ir"
)

// genStacks lowers a sequence of statements at the given indentation depth
// (spec.md §4.6).
func (g *generator) genStacks(stacks []*ir.Stack, depth int) (string, error) {
	var sb strings.Builder
	for _, blk := range stacks {
		if err := g.genStack(blk, depth, &sb); err != nil {
			return "", err
		}
	}
	return sb.String(), nil
}

func (g *generator) line(sb *strings.Builder, depth int, format string, args ...interface{}) {
	sb.WriteString(indent(depth))
	fmt.Fprintf(sb, format, args...)
	sb.WriteString("\n")
}

func (g *generator) genStack(blk *ir.Stack, depth int, sb *strings.Builder) error {
	switch blk.Opcode {
	case ir.VAR_SET:
		value, err := g.genInput(blk.Inputs["VALUE"])
		if err != nil {
			return err
		}
		g.descendedIntoModulo = exprUsesModulo(blk.Inputs["VALUE"])
		ref := g.variableCellRef(blk.VarName(), blk.Scope())
		g.line(sb, depth, "%s.value = %s;", ref, value)

	case ir.VAR_SHOW, ir.VAR_HIDE:
		ref := g.variableCellRef(blk.VarName(), blk.Scope())
		visible := blk.Opcode == ir.VAR_SHOW
		g.line(sb, depth, "%s.visible = %t;", ref, visible)

	case ir.LIST_ADD:
		list := g.bindSetup(g.listCellExprStack(blk))
		item, err := g.genInput(blk.Inputs["ITEM"])
		if err != nil {
			return err
		}
		g.line(sb, depth, "%s.value.push(%s);", list, item)

	case ir.LIST_INSERT:
		list := g.bindSetup(g.listCellExprStack(blk))
		idx, err := g.genInput(blk.Inputs["INDEX"])
		if err != nil {
			return err
		}
		item, err := g.genInput(blk.Inputs["ITEM"])
		if err != nil {
			return err
		}
		g.line(sb, depth, "listInsert(%s.value, %s, %s);", list, idx, item)

	case ir.LIST_REPLACE:
		list := g.bindSetup(g.listCellExprStack(blk))
		idx, err := g.genInput(blk.Inputs["INDEX"])
		if err != nil {
			return err
		}
		item, err := g.genInput(blk.Inputs["ITEM"])
		if err != nil {
			return err
		}
		g.line(sb, depth, "listReplace(%s.value, %s, %s);", list, idx, item)

	case ir.LIST_DELETE:
		list := g.bindSetup(g.listCellExprStack(blk))
		idx, err := g.genInput(blk.Inputs["INDEX"])
		if err != nil {
			return err
		}
		g.line(sb, depth, "listDelete(%s.value, %s);", list, idx)

	case ir.LIST_DELETE_ALL:
		list := g.bindSetup(g.listCellExprStack(blk))
		g.line(sb, depth, "%s.value.length = 0;", list)

	case ir.LIST_SHOW, ir.LIST_HIDE:
		list := g.bindSetup(g.listCellExprStack(blk))
		visible := blk.Opcode == ir.LIST_SHOW
		g.line(sb, depth, "%s.visible = %t;", list, visible)

	case ir.MOTION_XY_SET, ir.MOTION_X_SET, ir.MOTION_Y_SET:
		return g.genMotionSet(blk, depth, sb)

	case ir.LOOKS_SAY:
		msg, err := g.genInput(blk.Inputs["MESSAGE"])
		if err != nil {
			return err
		}
		g.line(sb, depth, "runtime.ext_looks.say(target, %s);", msg)

	case ir.SOUND_PLAY:
		name, err := g.genInput(blk.Inputs["SOUND"])
		if err != nil {
			return err
		}
		g.line(sb, depth, "runtime.ext_sound.play(target, %s);", name)

	case ir.PEN_DOWN:
		g.line(sb, depth, "runtime.ext_pen.penDown(target);")

	case ir.IF_ELSE:
		return g.genIfElse(blk, depth, sb)

	case ir.WHILE:
		return g.genWhile(blk, depth, sb)
	case ir.FOR:
		return g.genFor(blk, depth, sb)
	case ir.REPEAT:
		return g.genRepeat(blk, depth, sb)

	case ir.WAIT:
		return g.genWait(blk, depth, sb)
	case ir.WAIT_UNTIL:
		return g.genWaitUntil(blk, depth, sb)

	case ir.STOP_SCRIPT:
		if g.script.IsProcedure {
			g.line(sb, depth, "return;")
		} else {
			g.line(sb, depth, "retire();")
			g.line(sb, depth, "return;")
		}

	case ir.STOP_ALL:
		g.line(sb, depth, "runtime.stopAll();")
		g.line(sb, depth, "retire();")
		g.line(sb, depth, "return;")

	case ir.CLONE_DELETE:
		g.line(sb, depth, "runtime.disposeTarget(target);")
		g.line(sb, depth, "retire();")
		g.line(sb, depth, "return;")

	case ir.EVENT_BROADCAST:
		name, err := g.genInput(blk.Inputs["BROADCAST_INPUT"])
		if err != nil {
			return err
		}
		g.line(sb, depth, "startHats(\"event_whenbroadcastreceived\", { BROADCAST_OPTION: %s });", name)

	case ir.EVENT_BROADCAST_AND_WAIT:
		name, err := g.genInput(blk.Inputs["BROADCAST_INPUT"])
		if err != nil {
			return err
		}
		g.needsYieldFlag = true
		g.line(sb, depth, "yield* waitThreads(startHats(\"event_whenbroadcastreceived\", { BROADCAST_OPTION: %s }));", name)

	case ir.PROCEDURE_CALL:
		return g.genProcedureCall(blk, depth, sb)

	case ir.COMPATIBILITY_LAYER, ir.ADDON_CALL:
		return g.genCompatibilityLayer(blk, depth, sb)

	case ir.DEBUGGER:
		g.line(sb, depth, "debugger;")

	case ir.VISUAL_REPORT:
		value, err := g.genInput(blk.Inputs["VALUE"])
		if err != nil {
			return err
		}
		local := g.nextLocal()
		g.line(sb, depth, "const %s = %s;", local, value)
		g.line(sb, depth, "if (%s !== undefined) {", local)
		g.line(sb, depth+1, "runtime.visualReport(%s, %s);", jsStringLiteral(blk.Fields["TOPBLOCKID"]), local)
		g.line(sb, depth, "}")

	case ir.NOP:
		// Intentionally emits nothing.

	default:
		return fmt.Errorf("codegen: no lowering rule for statement opcode %s", blk.Opcode)
	}
	return nil
}

func (g *generator) listCellExprStack(blk *ir.Stack) string {
	return fmt.Sprintf("%s.variables[%s]", scopeExpr(blk.Scope()), jsStringLiteral(blk.Fields["LIST"]))
}

// exprUsesModulo reports whether n's tree lowers through OP_MOD anywhere,
// used to decide whether a following MOTION_*_SET must clear the target's
// interpolation cache (spec.md §4.6 test 8). This walks the already-typed
// tree directly rather than relying on a side effect recorded during
// genInput, so it is safe to call speculatively before lowering VALUE.
func exprUsesModulo(n *ir.Input) bool {
	if n == nil {
		return false
	}
	if n.Opcode == ir.OP_MOD {
		return true
	}
	for _, child := range n.Inputs {
		if exprUsesModulo(child) {
			return true
		}
	}
	return false
}

func (g *generator) genMotionSet(blk *ir.Stack, depth int, sb *strings.Builder) error {
	switch blk.Opcode {
	case ir.MOTION_XY_SET:
		x, err := g.genInput(blk.Inputs["X"])
		if err != nil {
			return err
		}
		y, err := g.genInput(blk.Inputs["Y"])
		if err != nil {
			return err
		}
		g.line(sb, depth, "runtime.ext_motion.setXY(target, +(%s), +(%s));", x, y)
	case ir.MOTION_X_SET:
		x, err := g.genInput(blk.Inputs["X"])
		if err != nil {
			return err
		}
		g.line(sb, depth, "runtime.ext_motion.setXY(target, +(%s), target.y);", x)
	case ir.MOTION_Y_SET:
		y, err := g.genInput(blk.Inputs["Y"])
		if err != nil {
			return err
		}
		g.line(sb, depth, "runtime.ext_motion.setXY(target, target.x, +(%s));", y)
	}
	if g.descendedIntoModulo {
		g.line(sb, depth, "target.interpolationData = null;")
		g.descendedIntoModulo = false
	}
	return nil
}

func (g *generator) genIfElse(blk *ir.Stack, depth int, sb *strings.Builder) error {
	cond, err := g.genInput(blk.Inputs["CONDITION"])
	if err != nil {
		return err
	}
	thenSrc, err := g.genStacks(blk.Stacks["THEN"], depth+1)
	if err != nil {
		return err
	}
	g.line(sb, depth, "if (%s) {", cond)
	sb.WriteString(thenSrc)
	elseStacks := blk.Stacks["ELSE"]
	if len(elseStacks) == 0 {
		g.line(sb, depth, "}")
		return nil
	}
	elseSrc, err := g.genStacks(elseStacks, depth+1)
	if err != nil {
		return err
	}
	g.line(sb, depth, "} else {")
	sb.WriteString(elseSrc)
	g.line(sb, depth, "}")
	return nil
}

func (g *generator) genWhile(blk *ir.Stack, depth int, sb *strings.Builder) error {
	cond, err := g.genInput(blk.Inputs["CONDITION"])
	if err != nil {
		return err
	}
	g.loopDepth++
	body, err := g.genStacks(blk.Stacks["BODY"], depth+1)
	g.loopDepth--
	if err != nil {
		return err
	}
	g.line(sb, depth, "while (%s) {", cond)
	sb.WriteString(body)
	g.maybeLoopYield(depth+1, sb)
	g.line(sb, depth, "}")
	return nil
}

// genFor lowers a FOR loop as a local-counter for-loop that writes the
// current count into the host-visible loop variable on each iteration
// (spec.md §4.6 "local init to 0, < count loop").
func (g *generator) genFor(blk *ir.Stack, depth int, sb *strings.Builder) error {
	count, err := g.genInput(blk.Inputs["CONDITION"])
	if err != nil {
		return err
	}
	ref := g.variableCellRef(blk.VarName(), blk.Scope())
	i := g.nextLocal()

	g.loopDepth++
	body, err := g.genStacks(blk.Stacks["BODY"], depth+1)
	g.loopDepth--
	if err != nil {
		return err
	}

	g.line(sb, depth, "for (let %s = 0; %s < +(%s); %s++) {", i, i, count, i)
	g.line(sb, depth+1, "%s.value = %s + 1;", ref, i)
	sb.WriteString(body)
	g.maybeLoopYield(depth+1, sb)
	g.line(sb, depth, "}")
	return nil
}

// genRepeat lowers REPEAT as the teacher-independent, spec-mandated
// countdown loop (spec.md §4.6): "for (i = N; i >= 0.5; i--)" — the 0.5
// threshold matches the host runtime's own REPEAT lowering, tolerating a
// fractional repeat count without an extra floor() call.
func (g *generator) genRepeat(blk *ir.Stack, depth int, sb *strings.Builder) error {
	times, err := g.genInput(blk.Inputs["CONDITION"])
	if err != nil {
		return err
	}
	i := g.nextLocal()

	g.loopDepth++
	body, err := g.genStacks(blk.Stacks["BODY"], depth+1)
	g.loopDepth--
	if err != nil {
		return err
	}

	g.line(sb, depth, "for (let %s = +(%s); %s >= 0.5; %s--) {", i, times, i, i)
	sb.WriteString(body)
	g.maybeLoopYield(depth+1, sb)
	g.line(sb, depth, "}")
	return nil
}

func (g *generator) genWait(blk *ir.Stack, depth int, sb *strings.Builder) error {
	dur, err := g.genInput(blk.Inputs["DURATION"])
	if err != nil {
		return err
	}
	i := g.nextLocal()
	g.line(sb, depth, "const %s = thread.timer();", i)
	g.line(sb, depth, "runtime.requestRedraw();")
	g.emitYield(depth, sb)
	g.line(sb, depth, "while (!%s.elapsed(+(%s))) {", i, dur)
	g.maybeLoopYield(depth+1, sb)
	g.line(sb, depth, "}")
	return nil
}

func (g *generator) genWaitUntil(blk *ir.Stack, depth int, sb *strings.Builder) error {
	cond, err := g.genInput(blk.Inputs["CONDITION"])
	if err != nil {
		return err
	}
	g.line(sb, depth, "while (!(%s)) {", cond)
	g.maybeLoopYield(depth+1, sb)
	g.line(sb, depth, "}")
	return nil
}

// genProcedureCall implements spec.md §4.6's PROCEDURE_CALL lowering: a
// direct-recursion (same procedure, non-warp) call yields before
// descending further to avoid starving the scheduler, a yielding callee
// is invoked with `yield*`, and a callee with an empty body compiles away
// entirely.
func (g *generator) genProcedureCall(blk *ir.Stack, depth int, sb *strings.Builder) error {
	variant := blk.Fields["PROCEDURE"]
	callee, ok := g.bundle.Procedures[variant]
	if !ok || callee == nil {
		return diagnostics.NewMissingDependencyError(variant)
	}
	if len(callee.Body) == 0 {
		return nil
	}

	argsObj, err := g.genFieldObjectLiteral(blk.Inputs)
	if err != nil {
		return err
	}

	directRecursion := variant == g.script.ProcedureCode && !g.script.IsWarp
	if directRecursion {
		g.emitYield(depth, sb)
	}

	name := g.ctx.funcNameFor(variant, callee.ProcedureCode, callee.Yields)
	if callee.Yields {
		g.needsYieldFlag = true
		g.line(sb, depth, "yield* %s(thread, %s);", name, argsObj)
	} else {
		g.line(sb, depth, "%s(thread, %s);", name, argsObj)
	}
	return nil
}

// genCompatibilityLayer lowers COMPATIBILITY_LAYER/ADDON_CALL: the
// argument bag is handed to the extension dispatch helper, and — inside a
// loop — thread.reuseStackForTarget is checked after the call so an
// iteration that resumed from a promise skips the rest of its body and
// continues with the next iteration (spec.md §4.6).
func (g *generator) genCompatibilityLayer(blk *ir.Stack, depth int, sb *strings.Builder) error {
	argsObj, err := g.genFieldObjectLiteral(blk.Inputs)
	if err != nil {
		return err
	}
	g.needsYieldFlag = true
	g.line(sb, depth, "yield* executeInCompatibilityLayer(%s, %s);", argsObj, jsStringLiteral(blk.Fields["OPCODE"]))
	if g.loopDepth > 0 {
		g.line(sb, depth, "if (thread.reuseStackForTarget) { continue; }")
	}
	return nil
}
