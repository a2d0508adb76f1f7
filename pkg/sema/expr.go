package sema

import (
	"github.com/compiscript/ccc/pkg/ast"
	"github.com/compiscript/ccc/pkg/types"
)

// analyzeExpr type-checks e and returns its type, reporting diagnostics for
// anything that doesn't check out. It always returns a non-nil Type so
// callers can keep propagating through an expression tree that already
// contains an error without a nil-pointer chain reaction; types.Null stands
// in for "unknown" in that case.
func (a *Analyzer) analyzeExpr(e ast.Expr) types.Type {
	switch n := e.(type) {
	case *ast.IntLiteral:
		return types.Int
	case *ast.FloatLiteral:
		return types.Float
	case *ast.StringLiteral:
		return types.String
	case *ast.BoolLiteral:
		return types.Bool
	case *ast.NullLiteral:
		return types.Null
	case *ast.ArrayLiteral:
		return a.analyzeArrayLiteral(n)
	case *ast.Identifier:
		return a.analyzeIdentifier(n)
	case *ast.ThisExpr:
		if a.currentClass == nil {
			a.errorf(n.Pos, "'this' usado fuera de una clase.")
			return types.Null
		}
		return a.currentClass
	case *ast.UnaryExpr:
		return a.analyzeUnary(n)
	case *ast.BinaryExpr:
		return a.analyzeBinary(n)
	case *ast.LogicalExpr:
		return a.analyzeLogical(n)
	case *ast.ConditionalExpr:
		a.analyzeExpr(n.Cond)
		t := a.analyzeExpr(n.Then)
		a.analyzeExpr(n.Else)
		return t
	case *ast.AssignExpr:
		return a.analyzeAssign(n)
	case *ast.CallExpr:
		return a.analyzeCall(n)
	case *ast.NewExpr:
		return a.analyzeNew(n)
	case *ast.FieldAccess:
		return a.analyzeFieldAccess(n)
	case *ast.IndexExpr:
		return a.analyzeIndex(n)
	}
	return types.Null
}

func (a *Analyzer) analyzeIdentifier(n *ast.Identifier) types.Type {
	sym, ok := a.scope.Lookup(n.Name)
	if ok {
		return sym.Type
	}
	// A bare name that isn't a local, parameter, or global but matches a
	// field of the enclosing class is an implicit this.<name> reference.
	if a.inClassBody && a.currentClass != nil {
		if ft, ok := a.currentClass.LookupField(n.Name); ok {
			a.fieldRefs[n] = true
			return ft
		}
	}
	a.errorf(n.Pos, "El identificador '%s' no ha sido declarado.", n.Name)
	return types.Null
}

func (a *Analyzer) analyzeArrayLiteral(n *ast.ArrayLiteral) types.Type {
	if len(n.Elements) == 0 {
		return &types.ArrayType{Elem: types.Null}
	}
	elemType := a.analyzeExpr(n.Elements[0])
	for _, el := range n.Elements[1:] {
		t := a.analyzeExpr(el)
		if !types.Compatible(elemType, t) && !types.Compatible(t, elemType) {
			a.errorf(el.Position(), "Los elementos de un arreglo deben compartir tipo: se esperaba '%s', se obtuvo '%s'.", elemType, t)
		}
	}
	return &types.ArrayType{Elem: elemType}
}

func (a *Analyzer) analyzeUnary(n *ast.UnaryExpr) types.Type {
	t := a.analyzeExpr(n.Operand)
	switch n.Op {
	case ast.OpNeg:
		if !types.IsNumeric(t) {
			a.errorf(n.Pos, "El operador unario '-' requiere un operando numérico, se obtuvo '%s'.", t)
			return types.Int
		}
		return t
	case ast.OpNot:
		if t.Kind() != types.KindBool {
			a.errorf(n.Pos, "El operador '!' requiere un operando boolean, se obtuvo '%s'.", t)
		}
		return types.Bool
	}
	return types.Null
}

// checkArithmetic type-checks a +, -, *, /, or % operand pair: numeric
// operands widen to float when either side is float, and '+' additionally
// accepts two strings (lowered to a runtime concatenation call later).
func (a *Analyzer) checkArithmetic(op string, pos ast.Pos, l, r types.Type) types.Type {
	if op == "+" && l.Kind() == types.KindString && r.Kind() == types.KindString {
		return types.String
	}
	if types.IsNumeric(l) && types.IsNumeric(r) {
		if l.Kind() == types.KindFloat || r.Kind() == types.KindFloat {
			return types.Float
		}
		return types.Int
	}
	a.errorf(pos, "El operador '%s' no admite operandos de tipo '%s' y '%s'.", op, l, r)
	return types.Int
}

func (a *Analyzer) analyzeBinary(n *ast.BinaryExpr) types.Type {
	l := a.analyzeExpr(n.Left)
	r := a.analyzeExpr(n.Right)
	switch n.Op {
	case ast.OpAdd, ast.OpSub, ast.OpMul, ast.OpDiv, ast.OpMod:
		return a.checkArithmetic(n.Op.String(), n.Pos, l, r)
	case ast.OpLt, ast.OpLe, ast.OpGt, ast.OpGe:
		if !types.IsNumeric(l) || !types.IsNumeric(r) {
			a.errorf(n.Pos, "El operador '%s' requiere operandos numéricos, se obtuvo '%s' y '%s'.", n.Op, l, r)
		}
		return types.Bool
	case ast.OpEq, ast.OpNe:
		if !types.Compatible(l, r) && !types.Compatible(r, l) {
			a.errorf(n.Pos, "No se puede comparar un valor de tipo '%s' con uno de tipo '%s'.", l, r)
		}
		return types.Bool
	}
	return types.Null
}

func (a *Analyzer) analyzeLogical(n *ast.LogicalExpr) types.Type {
	l := a.analyzeExpr(n.Left)
	r := a.analyzeExpr(n.Right)
	if l.Kind() != types.KindBool {
		a.errorf(n.Left.Position(), "El operador '%s' requiere operandos boolean, se obtuvo '%s'.", n.Op, l)
	}
	if r.Kind() != types.KindBool {
		a.errorf(n.Right.Position(), "El operador '%s' requiere operandos boolean, se obtuvo '%s'.", n.Op, r)
	}
	return types.Bool
}

func (a *Analyzer) analyzeAssign(n *ast.AssignExpr) types.Type {
	valType := a.analyzeExpr(n.Value)

	var targetType types.Type
	switch t := n.Target.(type) {
	case *ast.Identifier:
		sym, ok := a.scope.Lookup(t.Name)
		if !ok {
			if a.inClassBody && a.currentClass != nil {
				if ft, ok := a.currentClass.LookupField(t.Name); ok {
					a.fieldRefs[t] = true
					targetType = ft
					break
				}
			}
			a.errorf(t.Pos, "El identificador '%s' no ha sido declarado.", t.Name)
			return valType
		}
		if sym.IsConst {
			a.errorf(n.Pos, "No se puede asignar un nuevo valor a la constante '%s'.", t.Name)
		}
		targetType = sym.Type
	case *ast.FieldAccess, *ast.IndexExpr:
		targetType = a.analyzeExpr(t)
	default:
		a.errorf(n.Pos, "Destino de asignación inválido.")
		return valType
	}

	if !types.Compatible(targetType, valType) {
		a.errorf(n.Pos, "No se puede asignar un valor de tipo '%s' a un destino de tipo '%s'.", valType, targetType)
	}
	return targetType
}

func (a *Analyzer) analyzeFieldAccess(n *ast.FieldAccess) types.Type {
	var base types.Type
	if _, ok := n.Object.(*ast.ThisExpr); ok {
		if a.currentClass == nil {
			a.errorf(n.Pos, "'this' usado fuera de una clase.")
			return types.Null
		}
		base = a.currentClass
	} else {
		base = a.analyzeExpr(n.Object)
	}

	ct, ok := base.(*types.ClassType)
	if !ok {
		a.errorf(n.Pos, "No se puede acceder al campo '%s' de un valor de tipo '%s'.", n.Name, base)
		return types.Null
	}
	ft, ok := ct.LookupField(n.Name)
	if !ok {
		a.errorf(n.Pos, "El campo '%s' no existe en la clase '%s'.", n.Name, ct.Name)
		return types.Null
	}
	return ft
}

func (a *Analyzer) analyzeIndex(n *ast.IndexExpr) types.Type {
	arr := a.analyzeExpr(n.Array)
	idx := a.analyzeExpr(n.Index)
	if idx.Kind() != types.KindInt {
		a.errorf(n.Index.Position(), "El índice de un arreglo debe ser de tipo integer, se obtuvo '%s'.", idx)
	}
	at, ok := arr.(*types.ArrayType)
	if !ok {
		a.errorf(n.Pos, "No se puede indexar un valor de tipo '%s'.", arr)
		return types.Null
	}
	return at.Elem
}

func (a *Analyzer) analyzeNew(n *ast.NewExpr) types.Type {
	ct, ok := a.classes[n.ClassName]
	for _, arg := range n.Args {
		a.analyzeExpr(arg)
	}
	if !ok {
		a.errorf(n.Pos, "La clase '%s' no ha sido declarada.", n.ClassName)
		return types.Null
	}
	return ct
}

// checkArgs validates a call's argument count and, for each argument within
// range, its type against the callee's declared parameter type. Arguments
// are always visited, including past the declared arity, so a typo deep in
// an over-long argument list is still reported.
func (a *Analyzer) checkArgs(name string, ft *types.FunctionType, args []ast.Expr, pos ast.Pos) {
	if len(args) != len(ft.Params) {
		a.errorf(pos, "'%s' espera %d argumento(s), se recibieron %d.", name, len(ft.Params), len(args))
	}
	for i, arg := range args {
		t := a.analyzeExpr(arg)
		if i >= len(ft.Params) {
			continue
		}
		expected := ft.Params[i]
		if !types.Compatible(expected, t) {
			a.errorf(arg.Position(), "El argumento %d de '%s' debe ser de tipo '%s', se obtuvo '%s'.", i+1, name, expected, t)
		}
	}
}

func (a *Analyzer) analyzeCall(n *ast.CallExpr) types.Type {
	if fa, ok := n.Callee.(*ast.FieldAccess); ok {
		return a.analyzeMethodCall(n, fa)
	}

	ident, ok := n.Callee.(*ast.Identifier)
	if !ok {
		a.errorf(n.Pos, "La expresión no es invocable.")
		for _, arg := range n.Args {
			a.analyzeExpr(arg)
		}
		return types.Null
	}

	switch ident.Name {
	case "print", "printString":
		for _, arg := range n.Args {
			a.analyzeExpr(arg)
		}
		return types.Void
	case "printInteger":
		return a.checkSingleIntBuiltin(ident.Name, n, types.Int)
	case "toString":
		return a.checkSingleIntBuiltin(ident.Name, n, types.String)
	}

	sym, ok := a.scope.Lookup(ident.Name)
	if !ok {
		a.errorf(n.Pos, "La función '%s' no ha sido declarada.", ident.Name)
		for _, arg := range n.Args {
			a.analyzeExpr(arg)
		}
		return types.Null
	}
	ft, ok := sym.Type.(*types.FunctionType)
	if !ok {
		a.errorf(n.Pos, "'%s' no es una función y no se puede invocar.", ident.Name)
		for _, arg := range n.Args {
			a.analyzeExpr(arg)
		}
		return types.Null
	}
	a.checkArgs(ident.Name, ft, n.Args, n.Pos)
	return ft.Return
}

// checkSingleIntBuiltin type-checks printInteger/toString, the two builtins
// that take exactly one integer argument and return something other than
// void.
func (a *Analyzer) checkSingleIntBuiltin(name string, n *ast.CallExpr, ret types.Type) types.Type {
	if len(n.Args) != 1 {
		a.errorf(n.Pos, "'%s' espera 1 argumento, se recibieron %d.", name, len(n.Args))
	}
	for _, arg := range n.Args {
		t := a.analyzeExpr(arg)
		if t.Kind() != types.KindInt {
			a.errorf(arg.Position(), "'%s' espera un argumento de tipo integer, se obtuvo '%s'.", name, t)
		}
	}
	return ret
}

func (a *Analyzer) analyzeMethodCall(n *ast.CallExpr, fa *ast.FieldAccess) types.Type {
	var recv types.Type
	if _, isThis := fa.Object.(*ast.ThisExpr); isThis {
		if a.currentClass == nil {
			a.errorf(fa.Pos, "'this' usado fuera de una clase.")
		} else {
			recv = a.currentClass
		}
	} else {
		recv = a.analyzeExpr(fa.Object)
	}

	ct, ok := recv.(*types.ClassType)
	if !ok {
		if recv != nil {
			a.errorf(n.Pos, "No se puede llamar al método '%s' sobre un valor de tipo '%s'.", fa.Name, recv)
		}
		for _, arg := range n.Args {
			a.analyzeExpr(arg)
		}
		return types.Null
	}

	ft, ok := ct.LookupMethod(fa.Name)
	if !ok {
		a.errorf(n.Pos, "El método '%s' no existe en la clase '%s'.", fa.Name, ct.Name)
		for _, arg := range n.Args {
			a.analyzeExpr(arg)
		}
		return types.Null
	}
	a.checkArgs(fa.Name, ft, n.Args, n.Pos)
	return ft.Return
}
