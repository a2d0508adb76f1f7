// Package parser implements a recursive descent parser for Compiscript.
package parser

import (
	"fmt"

	"github.com/compiscript/ccc/pkg/ast"
	"github.com/compiscript/ccc/pkg/lexer"
)

// Parser parses Compiscript source into an ast.Program. Grammar rules are
// implemented as methods named after the rule they parse (logicalOrExpr,
// additiveExpr, primaryExpr, ...) so they line up one-to-one with the
// semantic analyzer's visit methods of the same name.
type Parser struct {
	l         *lexer.Lexer
	curToken  lexer.Token
	peekToken lexer.Token
	errors    []string
}

// New creates a Parser reading from l.
func New(l *lexer.Lexer) *Parser {
	p := &Parser{l: l}
	p.nextToken()
	p.nextToken()
	return p
}

// Errors returns the parse errors accumulated so far.
func (p *Parser) Errors() []string {
	return p.errors
}

func (p *Parser) nextToken() {
	p.curToken = p.peekToken
	p.peekToken = p.l.NextToken()
}

func (p *Parser) pos() ast.Pos {
	return ast.Pos{Line: p.curToken.Line, Col: p.curToken.Column}
}

func (p *Parser) addError(msg string) {
	p.errors = append(p.errors, fmt.Sprintf("line %d, col %d: %s", p.curToken.Line, p.curToken.Column, msg))
}

func (p *Parser) curIs(t lexer.TokenType) bool  { return p.curToken.Type == t }
func (p *Parser) peekIs(t lexer.TokenType) bool { return p.peekToken.Type == t }

// expect consumes the current token if it matches t, else records an error
// and returns false without advancing, so the caller can attempt recovery.
func (p *Parser) expect(t lexer.TokenType) bool {
	if p.curIs(t) {
		p.nextToken()
		return true
	}
	p.addError(fmt.Sprintf("expected %s, got %s %q", t, p.curToken.Type, p.curToken.Literal))
	return false
}

// syncToStmtEnd implements panic-mode recovery: skip tokens until the next
// statement boundary (';' or '}') so one malformed statement doesn't cascade
// into spurious follow-on errors.
func (p *Parser) syncToStmtEnd() {
	for !p.curIs(lexer.TokenEOF) {
		if p.curIs(lexer.TokenSemicolon) {
			p.nextToken()
			return
		}
		if p.curIs(lexer.TokenRBrace) {
			return
		}
		p.nextToken()
	}
}

// ParseProgram parses a full source file: a flat list of top-level
// statements (Compiscript has no separate "top-level declaration" grammar
// category; declarations are just statements that happen to be legal
// anywhere a statement is).
func ParseProgram(l *lexer.Lexer) (*ast.Program, []string) {
	p := New(l)
	prog := &ast.Program{Pos: p.pos()}
	for !p.curIs(lexer.TokenEOF) {
		stmt := p.statement()
		if stmt != nil {
			prog.Stmts = append(prog.Stmts, stmt)
		}
	}
	return prog, p.errors
}

// ---- Statements ----

func (p *Parser) statement() ast.Stmt {
	switch p.curToken.Type {
	case lexer.TokenLet:
		return p.variableDeclaration()
	case lexer.TokenConst:
		return p.constantDeclaration()
	case lexer.TokenFunction:
		return p.functionDeclaration(false)
	case lexer.TokenClass:
		return p.classDeclaration()
	case lexer.TokenLBrace:
		return p.block()
	case lexer.TokenIf:
		return p.ifStatement()
	case lexer.TokenWhile:
		return p.whileStatement()
	case lexer.TokenDo:
		return p.doWhileStatement()
	case lexer.TokenFor:
		return p.forStatement()
	case lexer.TokenBreak:
		return p.breakStatement()
	case lexer.TokenContinue:
		return p.continueStatement()
	case lexer.TokenReturn:
		return p.returnStatement()
	case lexer.TokenSwitch:
		return p.switchStatement()
	default:
		return p.exprStatement()
	}
}

// typeRef parses a 'type' rule: Identifier ('[' ']')*.
func (p *Parser) typeRef() *ast.TypeRef {
	pos := p.pos()
	name := p.curToken.Literal
	switch p.curToken.Type {
	case lexer.TokenIntegerType, lexer.TokenFloatType, lexer.TokenBooleanType,
		lexer.TokenStringType, lexer.TokenVoidType, lexer.TokenIdent:
		p.nextToken()
	default:
		p.addError(fmt.Sprintf("expected a type name, got %s", p.curToken.Type))
		return &ast.TypeRef{Pos: pos, Name: "void"}
	}
	dims := 0
	for p.curIs(lexer.TokenLBracket) && p.peekIs(lexer.TokenRBracket) {
		p.nextToken()
		p.nextToken()
		dims++
	}
	return &ast.TypeRef{Pos: pos, Name: name, Dims: dims}
}

func (p *Parser) variableDeclaration() ast.Stmt {
	pos := p.pos()
	p.nextToken() // 'let'
	if !p.curIs(lexer.TokenIdent) {
		p.addError("expected an identifier after 'let'")
		p.syncToStmtEnd()
		return nil
	}
	name := p.curToken.Literal
	p.nextToken()

	var typ *ast.TypeRef
	if p.curIs(lexer.TokenColon) {
		p.nextToken()
		typ = p.typeRef()
	}

	var init ast.Expr
	if p.curIs(lexer.TokenAssign) {
		p.nextToken()
		init = p.expression()
	}

	p.expect(lexer.TokenSemicolon)
	return &ast.VariableDecl{Pos: pos, Name: name, Type: typ, Init: init}
}

func (p *Parser) constantDeclaration() ast.Stmt {
	pos := p.pos()
	p.nextToken() // 'const'
	if !p.curIs(lexer.TokenIdent) {
		p.addError("expected an identifier after 'const'")
		p.syncToStmtEnd()
		return nil
	}
	name := p.curToken.Literal
	p.nextToken()

	var typ *ast.TypeRef
	if p.curIs(lexer.TokenColon) {
		p.nextToken()
		typ = p.typeRef()
	}

	var init ast.Expr
	if p.curIs(lexer.TokenAssign) {
		p.nextToken()
		init = p.expression()
	}

	p.expect(lexer.TokenSemicolon)
	return &ast.VariableDecl{Pos: pos, Name: name, Type: typ, Init: init, IsConst: true}
}

func (p *Parser) parameters() []ast.Param {
	var params []ast.Param
	if p.curIs(lexer.TokenRParen) {
		return params
	}
	for {
		pos := p.pos()
		if !p.curIs(lexer.TokenIdent) {
			p.addError("expected a parameter name")
			break
		}
		name := p.curToken.Literal
		p.nextToken()
		var typ *ast.TypeRef
		if p.expect(lexer.TokenColon) {
			typ = p.typeRef()
		}
		params = append(params, ast.Param{Pos: pos, Name: name, Type: typ})
		if !p.curIs(lexer.TokenComma) {
			break
		}
		p.nextToken()
	}
	return params
}

func (p *Parser) functionDeclaration(isMethod bool) *ast.FunctionDecl {
	pos := p.pos()
	p.nextToken() // 'function'
	if !p.curIs(lexer.TokenIdent) {
		p.addError("expected a function name")
		p.syncToStmtEnd()
		return nil
	}
	name := p.curToken.Literal
	p.nextToken()

	p.expect(lexer.TokenLParen)
	params := p.parameters()
	p.expect(lexer.TokenRParen)

	var ret *ast.TypeRef
	if p.curIs(lexer.TokenColon) {
		p.nextToken()
		ret = p.typeRef()
	}

	body := p.block()
	return &ast.FunctionDecl{Pos: pos, Name: name, Params: params, ReturnType: ret, Body: body, IsMethod: isMethod}
}

// constructorDeclaration parses a class's 'constructor(...) { ... }' member.
// Compiscript reserves a dedicated keyword for this rather than naming a
// method after its class.
func (p *Parser) constructorDeclaration() *ast.FunctionDecl {
	pos := p.pos()
	p.nextToken() // 'constructor'

	p.expect(lexer.TokenLParen)
	params := p.parameters()
	p.expect(lexer.TokenRParen)

	body := p.block()
	return &ast.FunctionDecl{Pos: pos, Name: "constructor", Params: params, Body: body, IsMethod: true, IsCtor: true}
}

func (p *Parser) classDeclaration() ast.Stmt {
	pos := p.pos()
	p.nextToken() // 'class'
	if !p.curIs(lexer.TokenIdent) {
		p.addError("expected a class name")
		p.syncToStmtEnd()
		return nil
	}
	name := p.curToken.Literal
	p.nextToken()

	base := ""
	if p.curIs(lexer.TokenColon) {
		p.nextToken()
		if p.curIs(lexer.TokenIdent) {
			base = p.curToken.Literal
			p.nextToken()
		} else {
			p.addError("expected a base class name after ':'")
		}
	}

	decl := &ast.ClassDecl{Pos: pos, Name: name, Base: base}
	p.expect(lexer.TokenLBrace)
	for !p.curIs(lexer.TokenRBrace) && !p.curIs(lexer.TokenEOF) {
		switch p.curToken.Type {
		case lexer.TokenLet:
			field := p.variableDeclaration().(*ast.VariableDecl)
			field.IsClassProp = true
			decl.Fields = append(decl.Fields, field)
		case lexer.TokenFunction:
			m := p.functionDeclaration(true)
			if m != nil {
				decl.Methods = append(decl.Methods, m)
			}
		case lexer.TokenConstructor:
			decl.Methods = append(decl.Methods, p.constructorDeclaration())
		default:
			p.addError(fmt.Sprintf("unexpected token %s in class body", p.curToken.Type))
			p.nextToken()
		}
	}
	p.expect(lexer.TokenRBrace)
	return decl
}

func (p *Parser) block() *ast.Block {
	pos := p.pos()
	b := &ast.Block{Pos: pos}
	if !p.expect(lexer.TokenLBrace) {
		return b
	}
	for !p.curIs(lexer.TokenRBrace) && !p.curIs(lexer.TokenEOF) {
		stmt := p.statement()
		if stmt != nil {
			b.Stmts = append(b.Stmts, stmt)
		}
	}
	p.expect(lexer.TokenRBrace)
	return b
}

func (p *Parser) exprStatement() ast.Stmt {
	pos := p.pos()
	e := p.expression()
	p.expect(lexer.TokenSemicolon)
	return &ast.ExprStmt{Pos: pos, Expr: e}
}

func (p *Parser) ifStatement() ast.Stmt {
	pos := p.pos()
	p.nextToken() // 'if'
	p.expect(lexer.TokenLParen)
	cond := p.expression()
	p.expect(lexer.TokenRParen)
	then := p.block()
	var els ast.Stmt
	if p.curIs(lexer.TokenElse) {
		p.nextToken()
		if p.curIs(lexer.TokenIf) {
			els = p.ifStatement()
		} else {
			els = p.block()
		}
	}
	return &ast.IfStmt{Pos: pos, Cond: cond, Then: then, Else: els}
}

func (p *Parser) whileStatement() ast.Stmt {
	pos := p.pos()
	p.nextToken() // 'while'
	p.expect(lexer.TokenLParen)
	cond := p.expression()
	p.expect(lexer.TokenRParen)
	body := p.statement()
	return &ast.WhileStmt{Pos: pos, Cond: cond, Body: body}
}

func (p *Parser) doWhileStatement() ast.Stmt {
	pos := p.pos()
	p.nextToken() // 'do'
	body := p.statement()
	p.expect(lexer.TokenWhile)
	p.expect(lexer.TokenLParen)
	cond := p.expression()
	p.expect(lexer.TokenRParen)
	p.expect(lexer.TokenSemicolon)
	return &ast.DoWhileStmt{Pos: pos, Body: body, Cond: cond}
}

func (p *Parser) forStatement() ast.Stmt {
	pos := p.pos()
	p.nextToken() // 'for'
	p.expect(lexer.TokenLParen)

	var init ast.Stmt
	switch p.curToken.Type {
	case lexer.TokenSemicolon:
		p.nextToken()
	case lexer.TokenLet:
		init = p.variableDeclaration()
	default:
		init = p.exprStatement()
	}

	var cond ast.Expr
	if !p.curIs(lexer.TokenSemicolon) {
		cond = p.expression()
	}
	p.expect(lexer.TokenSemicolon)

	var post ast.Stmt
	if !p.curIs(lexer.TokenRParen) {
		postPos := p.pos()
		post = &ast.ExprStmt{Pos: postPos, Expr: p.expression()}
	}
	p.expect(lexer.TokenRParen)

	body := p.statement()
	return &ast.ForStmt{Pos: pos, Init: init, Cond: cond, Post: post, Body: body}
}

func (p *Parser) breakStatement() ast.Stmt {
	pos := p.pos()
	p.nextToken()
	p.expect(lexer.TokenSemicolon)
	return &ast.BreakStmt{Pos: pos}
}

func (p *Parser) continueStatement() ast.Stmt {
	pos := p.pos()
	p.nextToken()
	p.expect(lexer.TokenSemicolon)
	return &ast.ContinueStmt{Pos: pos}
}

func (p *Parser) returnStatement() ast.Stmt {
	pos := p.pos()
	p.nextToken() // 'return'
	var val ast.Expr
	if !p.curIs(lexer.TokenSemicolon) {
		val = p.expression()
	}
	p.expect(lexer.TokenSemicolon)
	return &ast.ReturnStmt{Pos: pos, Value: val}
}

func (p *Parser) switchStatement() ast.Stmt {
	pos := p.pos()
	p.nextToken() // 'switch'
	p.expect(lexer.TokenLParen)
	subject := p.expression()
	p.expect(lexer.TokenRParen)
	p.expect(lexer.TokenLBrace)

	sw := &ast.SwitchStmt{Pos: pos, Subject: subject}
	for p.curIs(lexer.TokenCase) || p.curIs(lexer.TokenDefault) {
		casePos := p.pos()
		var val ast.Expr
		if p.curIs(lexer.TokenCase) {
			p.nextToken()
			val = p.expression()
		} else {
			p.nextToken()
		}
		p.expect(lexer.TokenColon)
		c := &ast.SwitchCase{Pos: casePos, Value: val}
		for !p.curIs(lexer.TokenCase) && !p.curIs(lexer.TokenDefault) &&
			!p.curIs(lexer.TokenRBrace) && !p.curIs(lexer.TokenEOF) {
			if stmt := p.statement(); stmt != nil {
				c.Body = append(c.Body, stmt)
			}
		}
		sw.Cases = append(sw.Cases, c)
	}
	p.expect(lexer.TokenRBrace)
	return sw
}

// ---- Expressions ----
// Precedence climbs through logicalOrExpr -> ... -> primaryExpr, matching
// the grammar rule names the semantic analyzer dispatches on.

func (p *Parser) expression() ast.Expr {
	return p.assignmentExpr()
}

func (p *Parser) assignmentExpr() ast.Expr {
	left := p.conditionalExpr()
	if p.curIs(lexer.TokenAssign) {
		pos := p.pos()
		p.nextToken()
		value := p.assignmentExpr()
		switch left.(type) {
		case *ast.Identifier, *ast.FieldAccess, *ast.IndexExpr:
		default:
			p.addError("left-hand side of assignment must be a variable, field, or index expression")
		}
		return &ast.AssignExpr{Pos: pos, Target: left, Value: value}
	}
	return left
}

// conditionalExpr mirrors the grammar's conditionalExpr rule, which the
// semantic analyzer treats as a pure passthrough to logicalOrExpr: there is
// no '?:' operator in Compiscript, conditional control flow is expressed
// with 'if' statements only.
func (p *Parser) conditionalExpr() ast.Expr {
	return p.logicalOrExpr()
}

func (p *Parser) logicalOrExpr() ast.Expr {
	left := p.logicalAndExpr()
	for p.curIs(lexer.TokenOr) {
		pos := p.pos()
		p.nextToken()
		right := p.logicalAndExpr()
		left = &ast.LogicalExpr{Pos: pos, Op: ast.OpOr, Left: left, Right: right}
	}
	return left
}

func (p *Parser) logicalAndExpr() ast.Expr {
	left := p.equalityExpr()
	for p.curIs(lexer.TokenAnd) {
		pos := p.pos()
		p.nextToken()
		right := p.equalityExpr()
		left = &ast.LogicalExpr{Pos: pos, Op: ast.OpAnd, Left: left, Right: right}
	}
	return left
}

func (p *Parser) equalityExpr() ast.Expr {
	left := p.relationalExpr()
	for p.curIs(lexer.TokenEq) || p.curIs(lexer.TokenNe) {
		pos := p.pos()
		op := ast.OpEq
		if p.curIs(lexer.TokenNe) {
			op = ast.OpNe
		}
		p.nextToken()
		right := p.relationalExpr()
		left = &ast.BinaryExpr{Pos: pos, Op: op, Left: left, Right: right}
	}
	return left
}

func (p *Parser) relationalExpr() ast.Expr {
	left := p.additiveExpr()
	for {
		var op ast.BinaryOp
		switch p.curToken.Type {
		case lexer.TokenLt:
			op = ast.OpLt
		case lexer.TokenLe:
			op = ast.OpLe
		case lexer.TokenGt:
			op = ast.OpGt
		case lexer.TokenGe:
			op = ast.OpGe
		default:
			return left
		}
		pos := p.pos()
		p.nextToken()
		right := p.additiveExpr()
		left = &ast.BinaryExpr{Pos: pos, Op: op, Left: left, Right: right}
	}
}

func (p *Parser) additiveExpr() ast.Expr {
	left := p.multiplicativeExpr()
	for p.curIs(lexer.TokenPlus) || p.curIs(lexer.TokenMinus) {
		pos := p.pos()
		op := ast.OpAdd
		if p.curIs(lexer.TokenMinus) {
			op = ast.OpSub
		}
		p.nextToken()
		right := p.multiplicativeExpr()
		left = &ast.BinaryExpr{Pos: pos, Op: op, Left: left, Right: right}
	}
	return left
}

func (p *Parser) multiplicativeExpr() ast.Expr {
	left := p.unaryExpr()
	for {
		var op ast.BinaryOp
		switch p.curToken.Type {
		case lexer.TokenStar:
			op = ast.OpMul
		case lexer.TokenSlash:
			op = ast.OpDiv
		case lexer.TokenPercent:
			op = ast.OpMod
		default:
			return left
		}
		pos := p.pos()
		p.nextToken()
		right := p.unaryExpr()
		left = &ast.BinaryExpr{Pos: pos, Op: op, Left: left, Right: right}
	}
}

func (p *Parser) unaryExpr() ast.Expr {
	switch p.curToken.Type {
	case lexer.TokenMinus:
		pos := p.pos()
		p.nextToken()
		return &ast.UnaryExpr{Pos: pos, Op: ast.OpNeg, Operand: p.unaryExpr()}
	case lexer.TokenNot:
		pos := p.pos()
		p.nextToken()
		return &ast.UnaryExpr{Pos: pos, Op: ast.OpNot, Operand: p.unaryExpr()}
	default:
		return p.postfixExpr()
	}
}

// postfixExpr parses a primaryExpr followed by any chain of '.', '[', '('
// suffixes: field access, indexing, and calls.
func (p *Parser) postfixExpr() ast.Expr {
	expr := p.primaryExpr()
	for {
		switch p.curToken.Type {
		case lexer.TokenDot:
			pos := p.pos()
			p.nextToken()
			if !p.curIs(lexer.TokenIdent) {
				p.addError("expected a field or method name after '.'")
				return expr
			}
			name := p.curToken.Literal
			p.nextToken()
			expr = &ast.FieldAccess{Pos: pos, Object: expr, Name: name}
		case lexer.TokenLBracket:
			pos := p.pos()
			p.nextToken()
			idx := p.expression()
			p.expect(lexer.TokenRBracket)
			expr = &ast.IndexExpr{Pos: pos, Array: expr, Index: idx}
		case lexer.TokenLParen:
			pos := p.pos()
			p.nextToken()
			args := p.arguments()
			p.expect(lexer.TokenRParen)
			expr = &ast.CallExpr{Pos: pos, Callee: expr, Args: args}
		default:
			return expr
		}
	}
}

func (p *Parser) arguments() []ast.Expr {
	var args []ast.Expr
	if p.curIs(lexer.TokenRParen) {
		return args
	}
	args = append(args, p.expression())
	for p.curIs(lexer.TokenComma) {
		p.nextToken()
		args = append(args, p.expression())
	}
	return args
}

func (p *Parser) primaryExpr() ast.Expr {
	pos := p.pos()
	switch p.curToken.Type {
	case lexer.TokenInt:
		lit := p.curToken.Literal
		p.nextToken()
		return &ast.IntLiteral{Pos: pos, Value: parseInt(lit)}
	case lexer.TokenFloat:
		lit := p.curToken.Literal
		p.nextToken()
		return &ast.FloatLiteral{Pos: pos, Value: parseFloat(lit)}
	case lexer.TokenString:
		lit := p.curToken.Literal
		p.nextToken()
		return &ast.StringLiteral{Pos: pos, Value: lit}
	case lexer.TokenTrue:
		p.nextToken()
		return &ast.BoolLiteral{Pos: pos, Value: true}
	case lexer.TokenFalse:
		p.nextToken()
		return &ast.BoolLiteral{Pos: pos, Value: false}
	case lexer.TokenNull:
		p.nextToken()
		return &ast.NullLiteral{Pos: pos}
	case lexer.TokenThis:
		p.nextToken()
		return &ast.ThisExpr{Pos: pos}
	case lexer.TokenNew:
		p.nextToken()
		if !p.curIs(lexer.TokenIdent) {
			p.addError("expected a class name after 'new'")
			return &ast.NullLiteral{Pos: pos}
		}
		name := p.curToken.Literal
		p.nextToken()
		p.expect(lexer.TokenLParen)
		args := p.arguments()
		p.expect(lexer.TokenRParen)
		return &ast.NewExpr{Pos: pos, ClassName: name, Args: args}
	case lexer.TokenLParen:
		p.nextToken()
		e := p.expression()
		p.expect(lexer.TokenRParen)
		return e
	case lexer.TokenLBracket:
		p.nextToken()
		lit := &ast.ArrayLiteral{Pos: pos}
		if !p.curIs(lexer.TokenRBracket) {
			lit.Elements = append(lit.Elements, p.expression())
			for p.curIs(lexer.TokenComma) {
				p.nextToken()
				lit.Elements = append(lit.Elements, p.expression())
			}
		}
		p.expect(lexer.TokenRBracket)
		return lit
	case lexer.TokenIdent:
		name := p.curToken.Literal
		p.nextToken()
		return &ast.Identifier{Pos: pos, Name: name}
	default:
		p.addError(fmt.Sprintf("unexpected token %s %q in expression", p.curToken.Type, p.curToken.Literal))
		p.nextToken()
		return &ast.NullLiteral{Pos: pos}
	}
}

func parseInt(s string) int64 {
	var n int64
	neg := false
	for i, ch := range s {
		if i == 0 && ch == '-' {
			neg = true
			continue
		}
		n = n*10 + int64(ch-'0')
	}
	if neg {
		n = -n
	}
	return n
}

func parseFloat(s string) float64 {
	var whole, frac int64
	var fracDigits int
	afterDot := false
	for _, ch := range s {
		if ch == '.' {
			afterDot = true
			continue
		}
		d := int64(ch - '0')
		if afterDot {
			frac = frac*10 + d
			fracDigits++
		} else {
			whole = whole*10 + d
		}
	}
	f := float64(whole)
	if fracDigits > 0 {
		div := 1.0
		for i := 0; i < fracDigits; i++ {
			div *= 10
		}
		f += float64(frac) / div
	}
	return f
}
