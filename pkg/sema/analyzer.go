// Package sema implements the static semantic analysis stage: it walks a
// parsed program building a hierarchical symbol table, resolves and checks
// every type annotation and expression, and records one diagnostic per
// violation found along the way. It never stops at the first error: every
// statement is visited so a single run reports everything wrong with a
// program, matching how the analyzer being ported behaves.
package sema

import (
	"fmt"

	"github.com/compiscript/ccc/pkg/ast"
	"github.com/compiscript/ccc/pkg/diag"
	"github.com/compiscript/ccc/pkg/symtab"
	"github.com/compiscript/ccc/pkg/types"
)

// Result is everything a compiler driver needs from a completed analysis:
// the diagnostics raised, the root of the scope tree (consumed by the TAC
// generator for offsets and by --dsema for the debug dump), and the
// registered class types (consumed by the MIPS emitter for field layout).
type Result struct {
	Diags   diag.List
	Root    *symtab.Scope
	Tree    *SymbolTreeNode
	Classes map[string]*types.ClassType
	// ResolvedNames maps a local variable/constant declaration to the name
	// it actually ended up declared under: almost always decl.Name, but
	// "<name>_local", "<name>_localN", ... when it collided with an
	// earlier declaration in the same scope. The TAC generator consults
	// this instead of re-deriving the same-scope collision logic itself.
	ResolvedNames map[*ast.VariableDecl]string
	// FieldRefs marks an Identifier node that resolved to a class field
	// rather than a local, parameter, or global: a bare name inside a
	// method or constructor body that isn't shadowed by one of those but
	// matches a field of the enclosing class (or one of its bases). The
	// TAC generator consults this to lower the reference as this.<name>
	// instead of a plain variable operand.
	FieldRefs map[*ast.Identifier]bool
}

// Analyzer carries the mutable state threaded through a single analysis
// pass: the current scope, the class currently being declared (if any),
// and the expected return type of the function currently being visited.
type Analyzer struct {
	diags diag.List

	global *symtab.Scope
	scope  *symtab.Scope

	classes map[string]*types.ClassType

	currentClass  *types.ClassType
	inClassBody   bool
	inFunction    bool
	currentReturn types.Type
	loopDepth     int

	resolvedNames map[*ast.VariableDecl]string
	fieldRefs     map[*ast.Identifier]bool
}

// Analyze runs semantic analysis over prog and returns the full result.
func Analyze(prog *ast.Program) *Result {
	a := &Analyzer{
		global:        symtab.NewRoot(),
		classes:       map[string]*types.ClassType{},
		resolvedNames: map[*ast.VariableDecl]string{},
		fieldRefs:     map[*ast.Identifier]bool{},
	}
	a.scope = a.global

	// Classes are pre-registered so a field, parameter, or return type may
	// reference a class declared later in the file.
	for _, s := range prog.Stmts {
		if cd, ok := s.(*ast.ClassDecl); ok {
			a.classes[cd.Name] = types.NewClassType(cd.Name, nil)
		}
	}

	for _, s := range prog.Stmts {
		a.analyzeStmt(s)
	}

	return &Result{
		Diags:         a.diags,
		Root:          a.global,
		Tree:          BuildTree(a.global),
		Classes:       a.classes,
		ResolvedNames: a.resolvedNames,
		FieldRefs:     a.fieldRefs,
	}
}

func (a *Analyzer) errorf(pos ast.Pos, format string, args ...any) {
	a.diags.Add(diag.StageSema, pos.Line, pos.Col, format, args...)
}

func (a *Analyzer) pushScope(label string) {
	a.scope = a.scope.Child(label)
}

func (a *Analyzer) popScope() {
	a.scope = a.scope.Parent
}

// insertLocal declares a plain (non-param, non-field) local in the current
// scope. A same-scope name collision is not an error: the colliding name is
// silently renamed to "<name>_local", then "<name>_local2", and so on, so
// the shadowed declaration still gets a slot even though no later reference
// in the source can reach it by its original name. The resolved name is
// recorded against decl so the TAC generator can emit the right operand.
func (a *Analyzer) insertLocal(decl *ast.VariableDecl, t types.Type) *symtab.Symbol {
	name := decl.Name
	if sym, ok := a.scope.Insert(name, t, decl.IsConst, decl.Pos.Line, decl.Pos.Col, false); ok {
		a.resolvedNames[decl] = name
		return sym
	}
	for n := 2; ; n++ {
		candidate := name + "_local"
		if n > 2 {
			candidate = fmt.Sprintf("%s_local%d", name, n-1)
		}
		if sym, ok := a.scope.Insert(candidate, t, decl.IsConst, decl.Pos.Line, decl.Pos.Col, false); ok {
			a.resolvedNames[decl] = candidate
			return sym
		}
	}
}

func (a *Analyzer) resolveTypeRef(tr *ast.TypeRef) types.Type {
	var base types.Type
	switch tr.Name {
	case "integer":
		base = types.Int
	case "float":
		base = types.Float
	case "boolean":
		base = types.Bool
	case "string":
		base = types.String
	case "void":
		base = types.Void
	default:
		ct, ok := a.classes[tr.Name]
		if !ok {
			a.errorf(tr.Pos, "La clase '%s' no ha sido declarada.", tr.Name)
			return types.Null
		}
		base = ct
	}
	for i := 0; i < tr.Dims; i++ {
		base = &types.ArrayType{Elem: base}
	}
	return base
}

func (a *Analyzer) paramTypes(params []ast.Param) []types.Type {
	out := make([]types.Type, len(params))
	for i, p := range params {
		out[i] = a.resolveTypeRef(p.Type)
	}
	return out
}

func (a *Analyzer) analyzeStmt(s ast.Stmt) {
	switch n := s.(type) {
	case *ast.VariableDecl:
		a.analyzeVariableDecl(n)
	case *ast.FunctionDecl:
		a.analyzeFunctionDecl(n)
	case *ast.ClassDecl:
		a.analyzeClassDecl(n)
	case *ast.Block:
		a.analyzeBlockScoped(n)
	case *ast.ExprStmt:
		a.analyzeExpr(n.Expr)
	case *ast.IfStmt:
		a.analyzeIf(n)
	case *ast.WhileStmt:
		a.analyzeWhile(n)
	case *ast.DoWhileStmt:
		a.analyzeDoWhile(n)
	case *ast.ForStmt:
		a.analyzeFor(n)
	case *ast.BreakStmt:
		if a.loopDepth == 0 {
			a.errorf(n.Pos, "'break' usado fuera de un bucle.")
		}
	case *ast.ContinueStmt:
		if a.loopDepth == 0 {
			a.errorf(n.Pos, "'continue' usado fuera de un bucle.")
		}
	case *ast.ReturnStmt:
		a.analyzeReturn(n)
	case *ast.SwitchStmt:
		a.analyzeSwitch(n)
	}
}

// analyzeBranch visits a statement that is the body of an if/while/for/do:
// a braced body opens its own block scope, a bare single statement does not
// (a bare `if (c) x = 1;` has no block of its own to scope).
func (a *Analyzer) analyzeBranch(s ast.Stmt) {
	if b, ok := s.(*ast.Block); ok {
		a.analyzeBlockScoped(b)
		return
	}
	a.analyzeStmt(s)
}

func (a *Analyzer) analyzeBlockScoped(b *ast.Block) {
	a.pushScope(fmt.Sprintf("block@%d", b.Pos.Line))
	for _, s := range b.Stmts {
		a.analyzeStmt(s)
	}
	a.popScope()
}

// analyzeFunctionBody visits a function or method's top-level block without
// pushing an extra scope: the func:<name> scope pushed for its header
// already holds the body's own locals alongside its parameters.
func (a *Analyzer) analyzeFunctionBody(b *ast.Block) {
	for _, s := range b.Stmts {
		a.analyzeStmt(s)
	}
}

func (a *Analyzer) analyzeVariableDecl(decl *ast.VariableDecl) {
	if decl.IsConst {
		if decl.Type == nil || decl.Init == nil {
			a.errorf(decl.Pos, "La constante '%s' debe declarar un tipo y un valor inicial.", decl.Name)
			if decl.Init != nil {
				a.analyzeExpr(decl.Init)
			}
			return
		}
	}

	var declType types.Type
	if decl.Type != nil {
		declType = a.resolveTypeRef(decl.Type)
	}
	var initType types.Type
	if decl.Init != nil {
		initType = a.analyzeExpr(decl.Init)
	}

	switch {
	case declType != nil && initType != nil:
		if !types.Compatible(declType, initType) {
			a.errorf(decl.Pos, "No se puede asignar un valor de tipo '%s' a '%s' de tipo '%s'.", initType, decl.Name, declType)
		}
	case declType == nil:
		declType = initType
	}
	if declType == nil {
		declType = types.Null
	}

	if a.inClassBody && !a.inFunction {
		decl.IsClassProp = true
		a.currentClass.AddField(decl.Name, declType)
		return
	}
	a.insertLocal(decl, declType)
}

func (a *Analyzer) analyzeFunctionDecl(fn *ast.FunctionDecl) {
	if _, exists := a.scope.LookupLocal(fn.Name); exists {
		a.errorf(fn.Pos, "'%s' ya ha sido declarado en este ámbito.", fn.Name)
	}
	retType := types.Type(types.Void)
	if fn.ReturnType != nil {
		retType = a.resolveTypeRef(fn.ReturnType)
	}
	ft := &types.FunctionType{Return: retType, Params: a.paramTypes(fn.Params)}
	a.scope.Insert(fn.Name, ft, false, fn.Pos.Line, fn.Pos.Col, false)

	a.pushScope(fmt.Sprintf("func:%s", fn.Name))
	for _, p := range fn.Params {
		a.scope.Insert(p.Name, a.resolveTypeRef(p.Type), false, p.Pos.Line, p.Pos.Col, true)
	}
	prevRet, prevInFunc := a.currentReturn, a.inFunction
	a.currentReturn, a.inFunction = retType, true
	a.analyzeFunctionBody(fn.Body)
	a.currentReturn, a.inFunction = prevRet, prevInFunc
	a.popScope()
}

func (a *Analyzer) analyzeClassDecl(decl *ast.ClassDecl) {
	ct := a.classes[decl.Name]
	if decl.Base != "" {
		base, ok := a.classes[decl.Base]
		if !ok {
			a.errorf(decl.Pos, "La clase base '%s' no ha sido declarada.", decl.Base)
		} else {
			ct.Base = base
		}
	}

	prevClass, prevInClassBody := a.currentClass, a.inClassBody
	a.currentClass, a.inClassBody = ct, true
	a.pushScope(fmt.Sprintf("class:%s", decl.Name))

	for _, f := range decl.Fields {
		a.analyzeVariableDecl(f)
	}

	ctorSeen := false
	for _, m := range decl.Methods {
		if m.IsCtor {
			// A class may declare at most one constructor: later ones are a
			// deliberate no-overload policy, silently ignored rather than
			// flagged, so their scope and body are never visited.
			if ctorSeen {
				continue
			}
			ctorSeen = true
			a.analyzeConstructor(m)
			continue
		}
		a.analyzeMethod(m)
	}

	a.popScope()
	a.currentClass, a.inClassBody = prevClass, prevInClassBody
}

func (a *Analyzer) analyzeConstructor(fn *ast.FunctionDecl) {
	ft := &types.FunctionType{Return: types.Void, Params: a.paramTypes(fn.Params)}
	a.currentClass.AddMethod("constructor", ft)

	a.pushScope(fmt.Sprintf("func:%s", a.currentClass.Name))
	a.scope.Insert("this", a.currentClass, false, fn.Pos.Line, fn.Pos.Col, true)
	for _, p := range fn.Params {
		a.scope.Insert(p.Name, a.resolveTypeRef(p.Type), false, p.Pos.Line, p.Pos.Col, true)
	}

	prevRet, prevInFunc := a.currentReturn, a.inFunction
	a.currentReturn, a.inFunction = types.Void, true
	a.analyzeFunctionBody(fn.Body)
	a.currentReturn, a.inFunction = prevRet, prevInFunc
	a.popScope()
}

func (a *Analyzer) analyzeMethod(fn *ast.FunctionDecl) {
	if _, exists := a.currentClass.Methods[fn.Name]; exists {
		a.errorf(fn.Pos, "El método '%s' ya ha sido declarado en esta clase.", fn.Name)
	}
	retType := types.Type(types.Void)
	if fn.ReturnType != nil {
		retType = a.resolveTypeRef(fn.ReturnType)
	}
	ft := &types.FunctionType{Return: retType, Params: a.paramTypes(fn.Params)}
	a.currentClass.AddMethod(fn.Name, ft)

	a.pushScope(fmt.Sprintf("func:%s", fn.Name))
	a.scope.Insert("this", a.currentClass, false, fn.Pos.Line, fn.Pos.Col, true)
	for _, p := range fn.Params {
		a.scope.Insert(p.Name, a.resolveTypeRef(p.Type), false, p.Pos.Line, p.Pos.Col, true)
	}

	prevRet, prevInFunc := a.currentReturn, a.inFunction
	a.currentReturn, a.inFunction = retType, true
	a.analyzeFunctionBody(fn.Body)
	a.currentReturn, a.inFunction = prevRet, prevInFunc
	a.popScope()
}

func (a *Analyzer) analyzeIf(n *ast.IfStmt) {
	cond := a.analyzeExpr(n.Cond)
	if cond != nil && cond.Kind() != types.KindBool {
		a.errorf(n.Cond.Position(), "La condición del 'if' debe ser de tipo boolean, se obtuvo '%s'.", cond)
	}
	a.analyzeBranch(n.Then)
	if n.Else != nil {
		a.analyzeBranch(n.Else)
	}
}

func (a *Analyzer) analyzeWhile(n *ast.WhileStmt) {
	cond := a.analyzeExpr(n.Cond)
	if cond != nil && cond.Kind() != types.KindBool {
		a.errorf(n.Cond.Position(), "La condición del 'while' debe ser de tipo boolean, se obtuvo '%s'.", cond)
	}
	a.loopDepth++
	a.analyzeBranch(n.Body)
	a.loopDepth--
}

func (a *Analyzer) analyzeDoWhile(n *ast.DoWhileStmt) {
	a.loopDepth++
	a.analyzeBranch(n.Body)
	a.loopDepth--
	cond := a.analyzeExpr(n.Cond)
	if cond != nil && cond.Kind() != types.KindBool {
		a.errorf(n.Cond.Position(), "La condición del 'while' debe ser de tipo boolean, se obtuvo '%s'.", cond)
	}
}

func (a *Analyzer) analyzeFor(n *ast.ForStmt) {
	a.pushScope(fmt.Sprintf("block@%d", n.Pos.Line))
	if n.Init != nil {
		a.analyzeStmt(n.Init)
	}
	if n.Cond != nil {
		cond := a.analyzeExpr(n.Cond)
		if cond != nil && cond.Kind() != types.KindBool {
			a.errorf(n.Cond.Position(), "La condición del 'for' debe ser de tipo boolean, se obtuvo '%s'.", cond)
		}
	}
	if n.Post != nil {
		a.analyzeStmt(n.Post)
	}
	a.loopDepth++
	a.analyzeBranch(n.Body)
	a.loopDepth--
	a.popScope()
}

func (a *Analyzer) analyzeReturn(n *ast.ReturnStmt) {
	var actual types.Type
	if n.Value != nil {
		actual = a.analyzeExpr(n.Value)
	}
	if a.currentReturn == nil {
		return
	}
	if a.currentReturn.Kind() == types.KindVoid {
		if n.Value != nil {
			a.errorf(n.Pos, "La función es de tipo void y no puede retornar un valor.")
		}
		return
	}
	if n.Value == nil {
		a.errorf(n.Pos, "La función debe retornar un valor de tipo '%s'.", a.currentReturn)
		return
	}
	if actual != nil && !types.Compatible(a.currentReturn, actual) {
		a.errorf(n.Pos, "No se puede retornar un valor de tipo '%s' en una función de tipo '%s'.", actual, a.currentReturn)
	}
}

func (a *Analyzer) analyzeSwitch(n *ast.SwitchStmt) {
	subj := a.analyzeExpr(n.Subject)
	for _, c := range n.Cases {
		if c.Value != nil {
			vt := a.analyzeExpr(c.Value)
			if subj != nil && vt != nil && !types.Compatible(subj, vt) && !types.Compatible(vt, subj) {
				a.errorf(c.Pos, "El valor del 'case' de tipo '%s' no coincide con el tipo del 'switch' ('%s').", vt, subj)
			}
		}
		a.pushScope(fmt.Sprintf("block@%d", c.Pos.Line))
		for _, s := range c.Body {
			a.analyzeStmt(s)
		}
		a.popScope()
	}
}
