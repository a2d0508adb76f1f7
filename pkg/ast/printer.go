package ast

import (
	"fmt"
	"io"
	"strings"
)

// Printer reconstructs Compiscript source text from an AST. It is not a
// formatter: its output is meant for diagnostics and --dparse dumps, not
// for round-tripping exact source.
type Printer struct {
	w      io.Writer
	indent int
}

// NewPrinter creates a Printer writing to w.
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w}
}

func (p *Printer) tab() string {
	return strings.Repeat("  ", p.indent)
}

// PrintProgram prints every top-level statement.
func (p *Printer) PrintProgram(prog *Program) {
	for _, s := range prog.Stmts {
		p.printStmt(s)
	}
}

func (p *Printer) printType(t *TypeRef) string {
	if t == nil {
		return "void"
	}
	return t.Name + strings.Repeat("[]", t.Dims)
}

func (p *Printer) printStmt(s Stmt) {
	switch n := s.(type) {
	case *VariableDecl:
		kw := "let"
		if n.IsConst {
			kw = "const"
		}
		fmt.Fprintf(p.w, "%s%s %s", p.tab(), kw, n.Name)
		if n.Type != nil {
			fmt.Fprintf(p.w, ": %s", p.printType(n.Type))
		}
		if n.Init != nil {
			fmt.Fprintf(p.w, " = %s", p.exprString(n.Init))
		}
		fmt.Fprintf(p.w, ";\n")

	case *FunctionDecl:
		if n.IsCtor {
			fmt.Fprintf(p.w, "%sconstructor(", p.tab())
		} else {
			fmt.Fprintf(p.w, "%sfunction %s(", p.tab(), n.Name)
		}
		for i, param := range n.Params {
			if i > 0 {
				fmt.Fprint(p.w, ", ")
			}
			fmt.Fprintf(p.w, "%s: %s", param.Name, p.printType(param.Type))
		}
		if n.IsCtor {
			fmt.Fprint(p.w, ") ")
		} else {
			fmt.Fprintf(p.w, "): %s ", p.printType(n.ReturnType))
		}
		p.printBlock(n.Body)

	case *ClassDecl:
		fmt.Fprintf(p.w, "%sclass %s", p.tab(), n.Name)
		if n.Base != "" {
			fmt.Fprintf(p.w, " : %s", n.Base)
		}
		fmt.Fprintf(p.w, " {\n")
		p.indent++
		for _, f := range n.Fields {
			p.printStmt(f)
		}
		for _, m := range n.Methods {
			p.printStmt(m)
		}
		p.indent--
		fmt.Fprintf(p.w, "%s}\n", p.tab())

	case *Block:
		fmt.Fprint(p.w, p.tab())
		p.printBlock(n)

	case *ExprStmt:
		fmt.Fprintf(p.w, "%s%s;\n", p.tab(), p.exprString(n.Expr))

	case *IfStmt:
		fmt.Fprintf(p.w, "%sif (%s) ", p.tab(), p.exprString(n.Cond))
		p.printInlineOrBlock(n.Then)
		if n.Else != nil {
			fmt.Fprintf(p.w, "%selse ", p.tab())
			p.printInlineOrBlock(n.Else)
		}

	case *WhileStmt:
		fmt.Fprintf(p.w, "%swhile (%s) ", p.tab(), p.exprString(n.Cond))
		p.printInlineOrBlock(n.Body)

	case *DoWhileStmt:
		fmt.Fprintf(p.w, "%sdo ", p.tab())
		p.printInlineOrBlock(n.Body)
		fmt.Fprintf(p.w, "%swhile (%s);\n", p.tab(), p.exprString(n.Cond))

	case *ForStmt:
		fmt.Fprintf(p.w, "%sfor (...; %s; ...) ", p.tab(), p.exprString(n.Cond))
		p.printInlineOrBlock(n.Body)

	case *BreakStmt:
		fmt.Fprintf(p.w, "%sbreak;\n", p.tab())

	case *ContinueStmt:
		fmt.Fprintf(p.w, "%scontinue;\n", p.tab())

	case *ReturnStmt:
		if n.Value != nil {
			fmt.Fprintf(p.w, "%sreturn %s;\n", p.tab(), p.exprString(n.Value))
		} else {
			fmt.Fprintf(p.w, "%sreturn;\n", p.tab())
		}

	case *SwitchStmt:
		fmt.Fprintf(p.w, "%sswitch (%s) {\n", p.tab(), p.exprString(n.Subject))
		p.indent++
		for _, c := range n.Cases {
			if c.Value != nil {
				fmt.Fprintf(p.w, "%scase %s:\n", p.tab(), p.exprString(c.Value))
			} else {
				fmt.Fprintf(p.w, "%sdefault:\n", p.tab())
			}
			p.indent++
			for _, body := range c.Body {
				p.printStmt(body)
			}
			p.indent--
		}
		p.indent--
		fmt.Fprintf(p.w, "%s}\n", p.tab())

	default:
		fmt.Fprintf(p.w, "%s/* unknown stmt %T */\n", p.tab(), s)
	}
}

func (p *Printer) printInlineOrBlock(s Stmt) {
	if b, ok := s.(*Block); ok {
		p.printBlock(b)
		return
	}
	fmt.Fprint(p.w, "\n")
	p.indent++
	p.printStmt(s)
	p.indent--
}

func (p *Printer) printBlock(b *Block) {
	fmt.Fprintf(p.w, "{\n")
	p.indent++
	for _, s := range b.Stmts {
		p.printStmt(s)
	}
	p.indent--
	fmt.Fprintf(p.w, "%s}\n", p.tab())
}

// exprString reconstructs a single expression as a one-line string.
func (p *Printer) exprString(e Expr) string {
	switch n := e.(type) {
	case *IntLiteral:
		return fmt.Sprintf("%d", n.Value)
	case *FloatLiteral:
		return fmt.Sprintf("%g", n.Value)
	case *StringLiteral:
		return fmt.Sprintf("%q", n.Value)
	case *BoolLiteral:
		if n.Value {
			return "true"
		}
		return "false"
	case *NullLiteral:
		return "null"
	case *ArrayLiteral:
		parts := make([]string, len(n.Elements))
		for i, el := range n.Elements {
			parts[i] = p.exprString(el)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case *Identifier:
		return n.Name
	case *ThisExpr:
		return "this"
	case *UnaryExpr:
		return n.Op.String() + p.exprString(n.Operand)
	case *BinaryExpr:
		return fmt.Sprintf("(%s %s %s)", p.exprString(n.Left), n.Op.String(), p.exprString(n.Right))
	case *LogicalExpr:
		return fmt.Sprintf("(%s %s %s)", p.exprString(n.Left), n.Op.String(), p.exprString(n.Right))
	case *ConditionalExpr:
		return fmt.Sprintf("(%s ? %s : %s)", p.exprString(n.Cond), p.exprString(n.Then), p.exprString(n.Else))
	case *AssignExpr:
		return fmt.Sprintf("%s = %s", p.exprString(n.Target), p.exprString(n.Value))
	case *CallExpr:
		args := make([]string, len(n.Args))
		for i, a := range n.Args {
			args[i] = p.exprString(a)
		}
		return fmt.Sprintf("%s(%s)", p.exprString(n.Callee), strings.Join(args, ", "))
	case *NewExpr:
		args := make([]string, len(n.Args))
		for i, a := range n.Args {
			args[i] = p.exprString(a)
		}
		return fmt.Sprintf("new %s(%s)", n.ClassName, strings.Join(args, ", "))
	case *FieldAccess:
		return fmt.Sprintf("%s.%s", p.exprString(n.Object), n.Name)
	case *IndexExpr:
		return fmt.Sprintf("%s[%s]", p.exprString(n.Array), p.exprString(n.Index))
	default:
		return fmt.Sprintf("/* unknown expr %T */", e)
	}
}

// ExprString exposes single-expression reconstruction for callers (e.g. the
// semantic analyzer's error messages) that need it without a full Printer.
func ExprString(e Expr) string {
	p := &Printer{}
	return p.exprString(e)
}
