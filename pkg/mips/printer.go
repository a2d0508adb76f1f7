package mips

import (
	"fmt"
	"io"
	"strings"
)

// Printer renders a Program as MIPS assembly text.
type Printer struct {
	w io.Writer
}

// NewPrinter creates a Printer writing to w.
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w}
}

// PrintProgram writes the `.data` string pool (if any) followed by the
// `.text` section with every function in order. The data section always
// precedes .text, matching the simulator's expected line order.
func (p *Printer) PrintProgram(prog *Program) {
	if len(prog.Strings) > 0 {
		fmt.Fprintln(p.w, ".data")
		for _, s := range prog.Strings {
			fmt.Fprintf(p.w, "%s: .asciiz \"%s\"\n", s.Label, s.Text)
		}
		fmt.Fprintln(p.w)
	}
	fmt.Fprintln(p.w, ".text")
	for _, f := range prog.Functions {
		p.printFunction(f)
	}
}

func (p *Printer) printFunction(f *Function) {
	fmt.Fprintf(p.w, "\n# --- %s ---\n", f.Name)
	if f.Name == "main" {
		fmt.Fprintln(p.w, ".globl main")
	}
	fmt.Fprintf(p.w, "%s:\n", f.Name)
	for _, line := range f.Lines {
		p.printLine(line)
	}
}

func (p *Printer) printLine(line Line) {
	switch n := line.(type) {
	case *Instr:
		if len(n.Args) == 0 {
			fmt.Fprintf(p.w, "  %s\n", n.Op)
			return
		}
		fmt.Fprintf(p.w, "  %s %s\n", n.Op, strings.Join(n.Args, ", "))
	case *LabelDef:
		fmt.Fprintf(p.w, "%s:\n", n.Name)
	case *Comment:
		fmt.Fprintf(p.w, "  # %s\n", n.Text)
	case *Directive:
		fmt.Fprintln(p.w, n.Text)
	}
}
