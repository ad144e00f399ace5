package codegen

import (
	"fmt"
	"sort"
	"strings"

	"github.com/funvibe/blockc/internal/ir"
)

// genInput lowers one Input expression to a host-language expression
// string (spec.md §4.6). It never itself mutates g.sb: expressions are
// pure text, statement-level side effects (yields, setup bindings) are
// the only stateful part of lowering.
func (g *generator) genInput(n *ir.Input) (string, error) {
	if n == nil {
		return "undefined", nil
	}

	switch n.Opcode {
	case ir.CONSTANT:
		return g.genConstant(n)
	case ir.VAR_GET:
		ref := g.variableCellRef(n.VarName(), n.Scope())
		return ref + ".value", nil

	case ir.CAST_BOOLEAN:
		inner, err := g.genInput(n.Inputs["TARGET"])
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("toBoolean(%s)", inner), nil
	case ir.CAST_STRING:
		inner, err := g.genInput(n.Inputs["TARGET"])
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("(\"\" + (%s))", inner), nil
	case ir.CAST_NUMBER_OR_NAN:
		inner, err := g.genInput(n.Inputs["TARGET"])
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("(+(%s))", inner), nil
	case ir.CAST_NUMBER:
		inner, err := g.genInput(n.Inputs["TARGET"])
		if err != nil {
			return "", err
		}
		// Only NaN is replaced by 0 (spec.md §4.2 "preserves -0"); `|| 0`
		// would be wrong here since -0 is falsy in the host language and
		// would be replaced too.
		return fmt.Sprintf("((n => Number.isNaN(n) ? 0 : n)(+(%s)))", inner), nil
	case ir.CAST_NUMBER_INDEX:
		inner, err := g.genInput(n.Inputs["TARGET"])
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("(Math.trunc(+(%s)) || 0)", inner), nil

	case ir.OP_ADD, ir.OP_SUB, ir.OP_MUL, ir.OP_DIV:
		return g.genArith(n)
	case ir.OP_MOD:
		left, right, err := g.genLeftRight(n)
		if err != nil {
			return "", err
		}
		g.descendedIntoModulo = true
		return fmt.Sprintf("mod(%s, %s)", left, right), nil
	case ir.OP_EQ:
		return g.genCompare(n, "===", "compareEqual")
	case ir.OP_LT:
		return g.genCompare(n, "<", "compareLessThan")
	case ir.OP_GT:
		return g.genCompare(n, ">", "compareGreaterThan")

	case ir.OP_AND:
		left, right, err := g.genLeftRight(n)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("(%s && %s)", left, right), nil
	case ir.OP_OR:
		left, right, err := g.genLeftRight(n)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("(%s || %s)", left, right), nil
	case ir.OP_NOT:
		inner, err := g.genInput(n.Inputs["OPERAND"])
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("(!(%s))", inner), nil
	case ir.OP_CONTAINS:
		left, right, err := g.genLeftRight(n)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("(String(%s).toLowerCase().includes(String(%s).toLowerCase()))", left, right), nil

	case ir.OP_JOIN:
		left, right, err := g.genLeftRight(n)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("(\"\" + (%s) + (%s))", left, right), nil
	case ir.OP_LETTER_OF:
		idx, err := g.genInput(n.Inputs["INDEX"])
		if err != nil {
			return "", err
		}
		s, err := g.genInput(n.Inputs["TARGET"])
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("letterOf(%s, %s)", s, idx), nil
	case ir.OP_LEN:
		inner, err := g.genInput(n.Inputs["TARGET"])
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("(\"\" + (%s)).length", inner), nil

	case ir.OP_ABS, ir.OP_FLOOR, ir.OP_CEIL, ir.OP_ROUND, ir.OP_SQRT,
		ir.OP_SIN, ir.OP_COS, ir.OP_TAN, ir.OP_ASIN, ir.OP_ACOS, ir.OP_ATAN,
		ir.OP_LN, ir.OP_LOG10, ir.OP_POW_E, ir.OP_POW_10:
		return g.genMathUnary(n)
	case ir.OP_RANDOM:
		left, right, err := g.genLeftRight(n)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("randomFloat(%s, %s)", left, right), nil

	case ir.LIST_GET:
		return g.genListGet(n)
	case ir.LIST_LENGTH:
		list := g.bindSetup(g.listCellExpr(n))
		return list + ".value.length", nil
	case ir.LIST_CONTAINS:
		list := g.bindSetup(g.listCellExpr(n))
		item, err := g.genInput(n.Inputs["ITEM"])
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("listContains(%s.value, %s)", list, item), nil
	case ir.LIST_INDEX_OF:
		list := g.bindSetup(g.listCellExpr(n))
		item, err := g.genInput(n.Inputs["ITEM"])
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("listIndexOf(%s.value, %s)", list, item), nil
	case ir.LIST_CONTENTS:
		list := g.bindSetup(g.listCellExpr(n))
		return fmt.Sprintf("listContents(%s.value)", list), nil

	case ir.PROCEDURE_ARG_NUM, ir.PROCEDURE_ARG_STRING, ir.PROCEDURE_ARG_BOOL:
		return fmt.Sprintf("p.%s", n.Fields["ARG"]), nil

	case ir.MOTION_X_POSITION:
		return "target.x", nil
	case ir.MOTION_Y_POSITION:
		return "target.y", nil
	case ir.MOTION_DIRECTION:
		return "target.direction", nil
	case ir.LOOKS_COSTUME_NUM:
		return "(target.currentCostume + 1)", nil
	case ir.LOOKS_SIZE:
		return "target.size", nil

	case ir.SENSING_OF:
		return g.genSensingOf(n)
	case ir.COMPATIBILITY_LAYER_INPUT:
		g.needsYieldFlag = true
		args, err := g.genFieldObjectLiteral(n.Inputs)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("(yield* executeInCompatibilityLayer(%s, %s))", args, jsStringLiteral(n.Fields["OPCODE"])), nil

	default:
		return "", fmt.Errorf("codegen: no lowering rule for input opcode %s", n.Opcode)
	}
}

func (g *generator) genConstant(n *ir.Input) (string, error) {
	switch v := n.Literal.(type) {
	case float64:
		return jsNumberLiteral(v), nil
	case bool:
		if v {
			return "true", nil
		}
		return "false", nil
	case string:
		if g.unsafeStringName(v) {
			return fmt.Sprintf("String(%s)", jsStringLiteral(v)), nil
		}
		return jsStringLiteral(v), nil
	default:
		return "undefined", nil
	}
}

// unsafeStringName reports whether v collides with a costume/sound name
// the target carries, in which case it must stay a guaranteed string
// rather than ever being folded into a numeric comparison (spec.md §4.6
// "unsafe name" handling).
func (g *generator) unsafeStringName(v string) bool {
	return g.script.UnsafeConstantNames != nil && g.script.UnsafeConstantNames[v]
}

func (g *generator) genLeftRight(n *ir.Input) (string, string, error) {
	left, err := g.genInput(n.Inputs["LEFT"])
	if err != nil {
		return "", "", err
	}
	right, err := g.genInput(n.Inputs["RIGHT"])
	if err != nil {
		return "", "", err
	}
	return left, right, nil
}

func (g *generator) genArith(n *ir.Input) (string, error) {
	left, right, err := g.genLeftRight(n)
	if err != nil {
		return "", err
	}
	var op string
	switch n.Opcode {
	case ir.OP_ADD:
		op = "+"
	case ir.OP_SUB:
		op = "-"
	case ir.OP_MUL:
		op = "*"
	case ir.OP_DIV:
		op = "/"
	}
	return fmt.Sprintf("(%s %s %s)", left, op, right), nil
}

// genCompare implements spec.md §4.6's EQ/LT/GT lowering rules: a numeric
// operator when both sides are provably numeric (or a "safe" numeric
// constant), a case-insensitive string compare when either side can never
// be numeric, and a helper call for everything in between.
func (g *generator) genCompare(n *ir.Input, numericOp, helper string) (string, error) {
	leftNode, rightNode := n.Inputs["LEFT"], n.Inputs["RIGHT"]
	left, right, err := g.genLeftRight(n)
	if err != nil {
		return "", err
	}

	leftNumeric := isAlwaysNumeric(leftNode.Type) || isSafeNumericConstant(leftNode)
	rightNumeric := isAlwaysNumeric(rightNode.Type) || isSafeNumericConstant(rightNode)
	if leftNumeric && rightNumeric {
		return fmt.Sprintf("(+(%s) %s +(%s))", left, numericOp, right), nil
	}
	if isNeverNumeric(leftNode.Type) || isNeverNumeric(rightNode.Type) {
		return fmt.Sprintf("(String(%s).toLowerCase() %s String(%s).toLowerCase())", left, numericOp, right), nil
	}
	return fmt.Sprintf("%s(%s, %s)", helper, left, right), nil
}

var mathUnary = map[ir.Opcode]string{
	ir.OP_ABS: "Math.abs", ir.OP_FLOOR: "Math.floor", ir.OP_CEIL: "Math.ceil",
	ir.OP_ROUND: "Math.round", ir.OP_SQRT: "Math.sqrt",
	ir.OP_SIN: "Math.sin", ir.OP_COS: "Math.cos", ir.OP_TAN: "tan",
	ir.OP_ASIN: "Math.asin", ir.OP_ACOS: "Math.acos", ir.OP_ATAN: "Math.atan",
	ir.OP_LN: "Math.log", ir.OP_LOG10: "Math.log10",
	ir.OP_POW_E: "Math.exp", ir.OP_POW_10: "(x => Math.pow(10, x))",
}

func (g *generator) genMathUnary(n *ir.Input) (string, error) {
	inner, err := g.genInput(n.Inputs["OPERAND"])
	if err != nil {
		return "", err
	}
	fn := mathUnary[n.Opcode]
	return fmt.Sprintf("%s(+(%s))", fn, inner), nil
}

func (g *generator) listCellExpr(n *ir.Input) string {
	return fmt.Sprintf("%s.variables[%s]", scopeExpr(n.Scope()), jsStringLiteral(n.Fields["LIST"]))
}

// genListGet implements spec.md §4.6 test 10: a numeric-index fast path
// with null-coalescing, a "last" constant fast path, and a helper call for
// everything else.
func (g *generator) genListGet(n *ir.Input) (string, error) {
	list := g.bindSetup(g.listCellExpr(n))
	indexNode := n.Inputs["INDEX"]

	if indexNode.IsConstant("last") {
		return fmt.Sprintf("(%s.value[%s.value.length - 1] ?? \"\")", list, list), nil
	}
	if isAlwaysNumeric(indexNode.Type) {
		idx, err := g.genInput(indexNode)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("(%s.value[(+(%s)) - 1] ?? \"\")", list, idx), nil
	}
	idx, err := g.genInput(indexNode)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("listGet(%s.value, %s)", list, idx), nil
}

// genSensingOf folds a constant "_stage_" object to the stage target
// directly; any other constant sprite name is looked up once per compile,
// deduplicated through the setup-binding pool, and a computed name is
// looked up inline each time the expression is evaluated.
func (g *generator) genSensingOf(n *ir.Input) (string, error) {
	objectNode := n.Inputs["OBJECT"]
	property := n.Fields["PROPERTY"]

	var objExpr string
	if objectNode != nil && objectNode.Opcode == ir.CONSTANT {
		if s, ok := objectNode.Literal.(string); ok {
			if s == "_stage_" {
				objExpr = "stage"
			} else {
				objExpr = g.bindSetup(fmt.Sprintf("runtime.getSpriteTargetByName(%s)", jsStringLiteral(s)))
			}
		}
	}
	if objExpr == "" {
		obj, err := g.genInput(objectNode)
		if err != nil {
			return "", err
		}
		objExpr = fmt.Sprintf("runtime.getSpriteTargetByName(%s)", obj)
	}

	switch property {
	case "x position":
		return objExpr + ".x", nil
	case "y position":
		return objExpr + ".y", nil
	case "direction":
		return objExpr + ".direction", nil
	case "costume number":
		return "(" + objExpr + ".currentCostume + 1)", nil
	case "size":
		return objExpr + ".size", nil
	case "volume":
		return objExpr + ".volume", nil
	default:
		return fmt.Sprintf("sensingOf(%s, %s)", objExpr, jsStringLiteral(property)), nil
	}
}

// genFieldObjectLiteral renders inputs as a `{key: expr, ...}` host object
// literal in sorted key order, used by COMPATIBILITY_LAYER/ADDON_CALL/
// COMPATIBILITY_LAYER_INPUT to hand an extension its argument bag.
func (g *generator) genFieldObjectLiteral(inputs map[string]*ir.Input) (string, error) {
	keys := make([]string, 0, len(inputs))
	for k := range inputs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var parts []string
	for _, k := range keys {
		expr, err := g.genInput(inputs[k])
		if err != nil {
			return "", err
		}
		parts = append(parts, fmt.Sprintf("%s: %s", jsStringLiteral(k), expr))
	}
	return "{" + strings.Join(parts, ", ") + "}", nil
}
