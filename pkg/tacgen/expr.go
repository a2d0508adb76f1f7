package tacgen

import (
	"fmt"
	"strconv"

	"github.com/compiscript/ccc/pkg/ast"
	"github.com/compiscript/ccc/pkg/tac"
)

var binOpTable = map[ast.BinaryOp]tac.BinOp{
	ast.OpAdd: tac.Add,
	ast.OpSub: tac.Sub,
	ast.OpMul: tac.Mul,
	ast.OpDiv: tac.Div,
	ast.OpMod: tac.Mod,
	ast.OpLt:  tac.Lt,
	ast.OpLe:  tac.Le,
	ast.OpGt:  tac.Gt,
	ast.OpGe:  tac.Ge,
	ast.OpEq:  tac.Eq,
	ast.OpNe:  tac.Ne,
}

// genExpr lowers an expression and returns the operand token that holds its
// value: a temp, a variable name, a parameter alias, or a literal.
func (g *Generator) genExpr(e ast.Expr) string {
	switch n := e.(type) {
	case *ast.IntLiteral:
		return strconv.FormatInt(n.Value, 10)
	case *ast.FloatLiteral:
		return strconv.FormatFloat(n.Value, 'g', -1, 64)
	case *ast.StringLiteral:
		// Value still holds the source escapes; they pass through as-is
		// so the assembler's .asciiz resolves them.
		return `"` + n.Value + `"`
	case *ast.BoolLiteral:
		if n.Value {
			return "1"
		}
		return "0"
	case *ast.NullLiteral:
		return "0"
	case *ast.ArrayLiteral:
		return g.genArrayLiteral(n)
	case *ast.Identifier:
		if g.fieldRefs[n] {
			t := g.newTemp()
			g.emit(&tac.GetProp{Dst: t, Obj: "this", Field: n.Name})
			return t
		}
		return g.resolveIdentOperand(n.Name)
	case *ast.ThisExpr:
		return "this"
	case *ast.UnaryExpr:
		return g.genUnary(n)
	case *ast.BinaryExpr:
		return g.genBinary(n)
	case *ast.LogicalExpr:
		return g.genLogical(n)
	case *ast.ConditionalExpr:
		// Never produced by the parser (Compiscript has no ?: operator);
		// handled defensively rather than omitted.
		return g.genExpr(n.Then)
	case *ast.AssignExpr:
		return g.genAssign(n)
	case *ast.CallExpr:
		return g.genCall(n)
	case *ast.NewExpr:
		return g.genNew(n)
	case *ast.FieldAccess:
		return g.genFieldAccess(n)
	case *ast.IndexExpr:
		return g.genIndex(n)
	}
	return "0"
}

func (g *Generator) genArrayLiteral(n *ast.ArrayLiteral) string {
	// Array contents beyond declaration and element access are out of
	// scope; an array literal's elements are still visited for their side
	// effects, and the literal itself lowers to a placeholder allocation.
	t := g.newTemp()
	g.emit(&tac.Raw{Text: fmt.Sprintf("# array literal with %d element(s) not materialized", len(n.Elements))})
	for _, el := range n.Elements {
		g.genExpr(el)
	}
	g.emit(&tac.Assign{Dst: t, Src: "0"})
	return t
}

func (g *Generator) genUnary(n *ast.UnaryExpr) string {
	operand := g.genExpr(n.Operand)
	t := g.newTemp()
	switch n.Op {
	case ast.OpNeg:
		g.emit(&tac.BinQuad{Op: tac.Sub, Dst: t, A: "0", B: operand})
	case ast.OpNot:
		g.emit(&tac.BinQuad{Op: tac.Eq, Dst: t, A: operand, B: "0"})
	default:
		g.emit(&tac.Assign{Dst: t, Src: operand})
	}
	return t
}

func (g *Generator) genBinary(n *ast.BinaryExpr) string {
	a := g.genExpr(n.Left)
	b := g.genExpr(n.Right)
	t := g.newTemp()
	op, ok := binOpTable[n.Op]
	if !ok {
		op = tac.Add
	}
	g.emit(&tac.BinQuad{Op: op, Dst: t, A: a, B: b})
	return t
}

// genLogical lowers && and || into short-circuiting control flow: the
// right operand's code is only reached when the left operand didn't
// already decide the result.
func (g *Generator) genLogical(n *ast.LogicalExpr) string {
	result := g.newTemp()
	lEnd := g.newLabel()

	if n.Op == ast.OpOr {
		lTrue := g.newLabel()
		g.emit(&tac.Assign{Dst: result, Src: "0"})
		l := g.genExpr(n.Left)
		g.jumpIfTrue(l, lTrue)
		r := g.genExpr(n.Right)
		g.jumpIfTrue(r, lTrue)
		g.emit(&tac.Goto{Target: lEnd})
		g.emit(&tac.Label{Name: lTrue})
		g.emit(&tac.Assign{Dst: result, Src: "1"})
		g.emit(&tac.Label{Name: lEnd})
		return result
	}

	// OpAnd: the dual of OR, jumping to a common false label as soon as
	// any operand is zero.
	lFalse := g.newLabel()
	g.emit(&tac.Assign{Dst: result, Src: "1"})
	l := g.genExpr(n.Left)
	g.emit(&tac.IfZ{Src: l, Target: lFalse})
	r := g.genExpr(n.Right)
	g.emit(&tac.IfZ{Src: r, Target: lFalse})
	g.emit(&tac.Goto{Target: lEnd})
	g.emit(&tac.Label{Name: lFalse})
	g.emit(&tac.Assign{Dst: result, Src: "0"})
	g.emit(&tac.Label{Name: lEnd})
	return result
}

// genFieldObject lowers the receiver of a field access, returning "this"
// directly rather than routing it through a temp assignment.
func (g *Generator) genFieldObject(obj ast.Expr) string {
	if _, ok := obj.(*ast.ThisExpr); ok {
		return "this"
	}
	return g.genExpr(obj)
}

func (g *Generator) genAssign(n *ast.AssignExpr) string {
	val := g.genExpr(n.Value)
	switch target := n.Target.(type) {
	case *ast.Identifier:
		if g.fieldRefs[target] {
			g.emit(&tac.SetProp{Obj: "this", Field: target.Name, Src: val})
			return val
		}
		name := g.resolveIdentOperand(target.Name)
		g.emit(&tac.Assign{Dst: name, Src: val})
		return name
	case *ast.FieldAccess:
		obj := g.genFieldObject(target.Object)
		g.emit(&tac.SetProp{Obj: obj, Field: target.Name, Src: val})
		return val
	case *ast.IndexExpr:
		arr := g.genExpr(target.Array)
		idx := g.genExpr(target.Index)
		g.emit(&tac.Raw{Text: fmt.Sprintf("# element assignment not supported: %s[%s] = %s", arr, idx, val)})
		return val
	}
	return val
}

func (g *Generator) genFieldAccess(n *ast.FieldAccess) string {
	obj := g.genFieldObject(n.Object)
	t := g.newTemp()
	g.emit(&tac.GetProp{Dst: t, Obj: obj, Field: n.Name})
	return t
}

func (g *Generator) genIndex(n *ast.IndexExpr) string {
	arr := g.genExpr(n.Array)
	idx := g.genExpr(n.Index)
	t := g.newTemp()
	g.emit(&tac.Raw{Text: fmt.Sprintf("# element access not supported: %s[%s] -> %s", arr, idx, t)})
	g.emit(&tac.Assign{Dst: t, Src: "0"})
	return t
}

func (g *Generator) genNew(n *ast.NewExpr) string {
	t := g.newTemp()
	g.emit(&tac.New{Dst: t, Class: n.ClassName})
	for _, arg := range n.Args {
		v := g.genExpr(arg)
		g.emit(&tac.Param{Index: -1, Src: v})
	}
	g.emit(&tac.Param{Index: -1, Src: t})
	discard := g.newTemp()
	g.emit(&tac.Call{Dst: discard, Func: "method constructor", Argc: len(n.Args) + 1})
	return t
}

func (g *Generator) genCall(n *ast.CallExpr) string {
	if fa, ok := n.Callee.(*ast.FieldAccess); ok {
		return g.genMethodCall(n, fa)
	}
	ident, ok := n.Callee.(*ast.Identifier)
	if !ok {
		return "0"
	}

	switch ident.Name {
	case "print":
		for _, arg := range n.Args {
			v := g.genExpr(arg)
			g.emit(&tac.Param{Index: -1, Src: v})
		}
		g.emit(&tac.Call{Func: "print", Argc: len(n.Args)})
		return "0"
	case "printString":
		v := g.genExpr(n.Args[0])
		g.emit(&tac.Param{Index: -1, Src: v})
		g.emit(&tac.Call{Func: "printString", Argc: 1})
		return "0"
	case "printInteger":
		v := g.genExpr(n.Args[0])
		g.emit(&tac.Param{Index: -1, Src: v})
		t := g.newTemp()
		g.emit(&tac.Call{Dst: t, Func: "printInteger", Argc: 1})
		return t
	case "toString":
		v := g.genExpr(n.Args[0])
		g.emit(&tac.Param{Index: -1, Src: v})
		t := g.newTemp()
		g.emit(&tac.Call{Dst: t, Func: "toString", Argc: 1})
		return t
	}

	args := make([]string, len(n.Args))
	for i, a := range n.Args {
		args[i] = g.genExpr(a)
	}
	for i, v := range args {
		g.emit(&tac.Param{Index: i, Src: v})
	}
	t := g.newTemp()
	g.emit(&tac.Call{Dst: t, Func: ident.Name, Argc: len(args)})
	return t
}

// genMethodCall lowers obj.name(args...): arguments in source order, then
// the receiver as the final pending Param, matching the call convention
// that reserves the last argument slot for `this`.
func (g *Generator) genMethodCall(n *ast.CallExpr, fa *ast.FieldAccess) string {
	recv := g.genFieldObject(fa.Object)
	args := make([]string, len(n.Args))
	for i, a := range n.Args {
		args[i] = g.genExpr(a)
	}
	for i, v := range args {
		g.emit(&tac.Param{Index: i, Src: v})
	}
	g.emit(&tac.Param{Index: -1, Src: recv})
	t := g.newTemp()
	g.emit(&tac.Call{Dst: t, Func: "method " + fa.Name, Argc: len(args) + 1})
	return t
}
