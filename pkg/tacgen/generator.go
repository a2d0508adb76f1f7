// Package tacgen lowers a type-checked AST into a flat three-address code
// quad stream: the TAC generator stage (S2) of the compiler pipeline.
package tacgen

import (
	"fmt"

	"github.com/compiscript/ccc/pkg/ast"
	"github.com/compiscript/ccc/pkg/sema"
	"github.com/compiscript/ccc/pkg/tac"
	"github.com/compiscript/ccc/pkg/types"
)

// Generator accumulates a quad stream for one compilation. A single
// instance is used for an entire program: functions, methods, and the
// synthetic top-level "main" body are all appended to the same stream,
// delimited by BeginFunc/EndFunc pairs.
type Generator struct {
	quads []tac.Quad

	tempN  int
	labelN int

	// localCount tracks the declared (non-temporary, non-param) locals of
	// the function currently being generated, so its BeginFunc can be
	// patched with a byte count once the body is fully lowered.
	localCount int

	currentParams map[string]bool

	breakStack    []string
	continueStack []string

	classes   map[string]*types.ClassType
	resolved  map[*ast.VariableDecl]string
	fieldRefs map[*ast.Identifier]bool
}

// Generate lowers prog into a quad stream. res supplies the class registry
// (for New/GetProp/SetProp's target names, which need no further lookup at
// this stage since they are taken directly from the AST) and the map from
// a variable declaration to its possibly-renamed symbol name.
func Generate(prog *ast.Program, res *sema.Result) []tac.Quad {
	g := &Generator{
		classes:   res.Classes,
		resolved:  res.ResolvedNames,
		fieldRefs: res.FieldRefs,
	}

	var topLevel []ast.Stmt
	for _, s := range prog.Stmts {
		switch n := s.(type) {
		case *ast.ClassDecl:
			g.generateClass(n)
		case *ast.FunctionDecl:
			g.generateFunctionBody(n.Name, n, false)
		default:
			topLevel = append(topLevel, s)
		}
	}

	// Statements outside any function declaration are collected into a
	// synthetic "main" body, guaranteeing the emitted program has a single
	// well-known entry point.
	main := &ast.FunctionDecl{Name: "main", Body: &ast.Block{Stmts: topLevel}}
	g.generateFunctionBody("main", main, false)

	return g.quads
}

func (g *Generator) emit(q tac.Quad) {
	g.quads = append(g.quads, q)
}

func (g *Generator) newTemp() string {
	name := fmt.Sprintf("t%d", g.tempN)
	g.tempN++
	return name
}

func (g *Generator) newLabel() string {
	g.labelN++
	return fmt.Sprintf("L%d", g.labelN)
}

// jumpIfTrue emits a conditional jump to target when cond is non-zero,
// built from IfZ (the only conditional the quad set defines) plus an
// unconditional Goto and a throwaway skip label.
func (g *Generator) jumpIfTrue(cond, target string) {
	skip := g.newLabel()
	g.emit(&tac.IfZ{Src: cond, Target: skip})
	g.emit(&tac.Goto{Target: target})
	g.emit(&tac.Label{Name: skip})
}

func (g *Generator) generateClass(decl *ast.ClassDecl) {
	var ctor *ast.FunctionDecl
	for _, m := range decl.Methods {
		if m.IsCtor {
			ctor = m
			break
		}
	}
	if ctor != nil {
		g.generateFunctionBody("constructor", ctor, true)
	} else {
		// A class with no declared constructor still needs a callable
		// "constructor" target: new C(...) always lowers to a call.
		g.emit(&tac.BeginFunc{Name: "constructor", LocalBytes: 0})
		g.emit(&tac.Return{})
		g.emit(&tac.EndFunc{})
	}

	for _, m := range decl.Methods {
		if m.IsCtor {
			continue
		}
		// TODO: method/constructor labels are bare names, matching the
		// call convention's literal "call method <name>" form; two
		// classes sharing a method name collide at the label level. A
		// real multi-class program needs class-qualified labels here.
		g.generateFunctionBody(m.Name, m, true)
	}
}

// generateFunctionBody lowers one function, method, or constructor body
// into BeginFunc ... EndFunc, resetting the per-function temp/local/param
// bookkeeping around it.
func (g *Generator) generateFunctionBody(name string, fn *ast.FunctionDecl, isMethod bool) {
	bf := &tac.BeginFunc{Name: name, LocalBytes: 0}
	g.emit(bf)

	prevTemp, prevLocal := g.tempN, g.localCount
	prevParams := g.currentParams
	g.tempN, g.localCount = 0, 0
	g.currentParams = map[string]bool{}
	for _, p := range fn.Params {
		g.currentParams[p.Name] = true
	}

	for i, p := range fn.Params {
		g.emit(&tac.LoadParam{Dst: "p_" + p.Name, Index: i})
	}
	if isMethod {
		g.emit(&tac.LoadParam{Dst: "this", Index: len(fn.Params)})
	}
	if name == "constructor" {
		// Every constructor parameter is auto-wired into a same-named
		// field; an explicit this.x = x in the body still works, just
		// writing the same value a second time.
		for _, p := range fn.Params {
			g.emit(&tac.SetProp{Obj: "this", Field: p.Name, Src: "p_" + p.Name})
		}
	}

	for _, s := range fn.Body.Stmts {
		g.genStmt(s)
	}

	if !endsInReturn(fn.Body) {
		g.emit(&tac.Return{})
	}

	bf.LocalBytes = g.localCount * 4
	g.emit(&tac.EndFunc{})

	g.tempN, g.localCount = prevTemp, prevLocal
	g.currentParams = prevParams
}

func endsInReturn(b *ast.Block) bool {
	if len(b.Stmts) == 0 {
		return false
	}
	_, ok := b.Stmts[len(b.Stmts)-1].(*ast.ReturnStmt)
	return ok
}

// resolveIdentOperand renders an identifier as the operand token the
// emitter expects: "p_<name>" for a formal parameter, the bare name
// otherwise (locals, globals, and the first of any shadowed pair, which is
// the only one reachable by name from ordinary references).
func (g *Generator) resolveIdentOperand(name string) string {
	if g.currentParams[name] {
		return "p_" + name
	}
	return name
}

func (g *Generator) genStmt(s ast.Stmt) {
	switch n := s.(type) {
	case *ast.VariableDecl:
		g.genVariableDecl(n)
	case *ast.FunctionDecl:
		// A locally-declared function is lowered as its own independent
		// BeginFunc block, out of line from the enclosing body.
		g.generateFunctionBody(n.Name, n, false)
	case *ast.ClassDecl:
		g.generateClass(n)
	case *ast.Block:
		for _, st := range n.Stmts {
			g.genStmt(st)
		}
	case *ast.ExprStmt:
		g.genExpr(n.Expr)
	case *ast.IfStmt:
		g.genIf(n)
	case *ast.WhileStmt:
		g.genWhile(n)
	case *ast.DoWhileStmt:
		g.genDoWhile(n)
	case *ast.ForStmt:
		g.genFor(n)
	case *ast.BreakStmt:
		if len(g.breakStack) > 0 {
			g.emit(&tac.Goto{Target: g.breakStack[len(g.breakStack)-1]})
		}
	case *ast.ContinueStmt:
		if len(g.continueStack) > 0 {
			g.emit(&tac.Goto{Target: g.continueStack[len(g.continueStack)-1]})
		}
	case *ast.ReturnStmt:
		if n.Value != nil {
			g.emit(&tac.Return{Src: g.genExpr(n.Value)})
		} else {
			g.emit(&tac.Return{})
		}
	case *ast.SwitchStmt:
		g.genSwitch(n)
	}
}

func (g *Generator) genVariableDecl(decl *ast.VariableDecl) {
	if decl.IsClassProp {
		// Fields carry no runtime code of their own: their storage comes
		// from the class's computed layout, consumed directly by the
		// MIPS emitter.
		return
	}
	name := decl.Name
	if resolved, ok := g.resolved[decl]; ok {
		name = resolved
	}
	g.localCount++
	if decl.Init != nil {
		src := g.genExpr(decl.Init)
		g.emit(&tac.Assign{Dst: name, Src: src})
	}
}

// genBranch lowers the body of an if/while/for/do: a braced block is
// inlined statement by statement (TAC has no block scoping of its own).
func (g *Generator) genBranch(s ast.Stmt) {
	if b, ok := s.(*ast.Block); ok {
		for _, st := range b.Stmts {
			g.genStmt(st)
		}
		return
	}
	g.genStmt(s)
}

func (g *Generator) genIf(n *ast.IfStmt) {
	cond := g.genExpr(n.Cond)
	if n.Else == nil {
		lEnd := g.newLabel()
		g.emit(&tac.IfZ{Src: cond, Target: lEnd})
		g.genBranch(n.Then)
		g.emit(&tac.Label{Name: lEnd})
		return
	}
	lElse := g.newLabel()
	lEnd := g.newLabel()
	g.emit(&tac.IfZ{Src: cond, Target: lElse})
	g.genBranch(n.Then)
	g.emit(&tac.Goto{Target: lEnd})
	g.emit(&tac.Label{Name: lElse})
	g.genBranch(n.Else)
	g.emit(&tac.Label{Name: lEnd})
}

func (g *Generator) genWhile(n *ast.WhileStmt) {
	lBegin := g.newLabel()
	lEnd := g.newLabel()
	g.emit(&tac.Label{Name: lBegin})
	cond := g.genExpr(n.Cond)
	g.emit(&tac.IfZ{Src: cond, Target: lEnd})

	g.breakStack = append(g.breakStack, lEnd)
	g.continueStack = append(g.continueStack, lBegin)
	g.genBranch(n.Body)
	g.breakStack = g.breakStack[:len(g.breakStack)-1]
	g.continueStack = g.continueStack[:len(g.continueStack)-1]

	g.emit(&tac.Goto{Target: lBegin})
	g.emit(&tac.Label{Name: lEnd})
}

func (g *Generator) genDoWhile(n *ast.DoWhileStmt) {
	lBegin := g.newLabel()
	lCond := g.newLabel()
	lEnd := g.newLabel()

	g.emit(&tac.Label{Name: lBegin})
	g.breakStack = append(g.breakStack, lEnd)
	g.continueStack = append(g.continueStack, lCond)
	g.genBranch(n.Body)
	g.breakStack = g.breakStack[:len(g.breakStack)-1]
	g.continueStack = g.continueStack[:len(g.continueStack)-1]

	g.emit(&tac.Label{Name: lCond})
	cond := g.genExpr(n.Cond)
	// "if cond != 0 goto L_begin; L_end:" expressed with the quad set's
	// only conditional (IfZ): fall through to L_begin when cond is
	// non-zero, otherwise skip straight to L_end.
	g.emit(&tac.IfZ{Src: cond, Target: lEnd})
	g.emit(&tac.Goto{Target: lBegin})
	g.emit(&tac.Label{Name: lEnd})
}

func (g *Generator) genFor(n *ast.ForStmt) {
	if n.Init != nil {
		g.genStmt(n.Init)
	}
	lBegin := g.newLabel()
	lInc := g.newLabel()
	lEnd := g.newLabel()

	g.emit(&tac.Label{Name: lBegin})
	if n.Cond != nil {
		cond := g.genExpr(n.Cond)
		g.emit(&tac.IfZ{Src: cond, Target: lEnd})
	}

	g.breakStack = append(g.breakStack, lEnd)
	g.continueStack = append(g.continueStack, lInc)
	g.genBranch(n.Body)
	g.breakStack = g.breakStack[:len(g.breakStack)-1]
	g.continueStack = g.continueStack[:len(g.continueStack)-1]

	g.emit(&tac.Label{Name: lInc})
	if n.Post != nil {
		g.genStmt(n.Post)
	}
	g.emit(&tac.Goto{Target: lBegin})
	g.emit(&tac.Label{Name: lEnd})
}

func (g *Generator) genSwitch(n *ast.SwitchStmt) {
	subj := g.genExpr(n.Subject)

	caseLabels := make([]string, len(n.Cases))
	defaultIdx := -1
	for i, c := range n.Cases {
		caseLabels[i] = g.newLabel()
		if c.Value == nil {
			defaultIdx = i
		}
	}
	lEnd := g.newLabel()

	for i, c := range n.Cases {
		if c.Value == nil {
			continue
		}
		val := g.genExpr(c.Value)
		eq := g.newTemp()
		g.emit(&tac.BinQuad{Op: tac.Eq, Dst: eq, A: subj, B: val})
		g.jumpIfTrue(eq, caseLabels[i])
	}
	if defaultIdx >= 0 {
		g.emit(&tac.Goto{Target: caseLabels[defaultIdx]})
	} else {
		g.emit(&tac.Goto{Target: lEnd})
	}

	g.breakStack = append(g.breakStack, lEnd)
	for i, c := range n.Cases {
		g.emit(&tac.Label{Name: caseLabels[i]})
		for _, s := range c.Body {
			g.genStmt(s)
		}
	}
	g.breakStack = g.breakStack[:len(g.breakStack)-1]

	g.emit(&tac.Label{Name: lEnd})
}
