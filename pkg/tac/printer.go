package tac

import (
	"fmt"
	"io"
)

// Printer renders a quad stream as the line-oriented text format consumed
// by pkg/tacparse, --dtac, and --dopt.
type Printer struct {
	w io.Writer
}

// NewPrinter creates a Printer writing to w.
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w}
}

// PrintQuads writes one line per quad, in order.
func (p *Printer) PrintQuads(quads []Quad) {
	for _, q := range quads {
		fmt.Fprintln(p.w, QuadString(q))
	}
}

// QuadString renders a single quad in the canonical textual form. This is
// the one place that form is defined: pkg/tacparse's line grammar is built
// to round-trip exactly what this function produces, plus a handful of
// more permissive shapes for text authored by hand.
func QuadString(q Quad) string {
	switch n := q.(type) {
	case *BeginFunc:
		return fmt.Sprintf("BeginFunc %s %d", n.Name, n.LocalBytes)
	case *EndFunc:
		return "EndFunc"
	case *ActivationRecord:
		return fmt.Sprintf("# activation_record %s", n.Name)
	case *Label:
		return n.Name + ":"
	case *Goto:
		return "Goto " + n.Target
	case *IfZ:
		return fmt.Sprintf("IfZ %s goto %s", n.Src, n.Target)
	case *Assign:
		return fmt.Sprintf("%s = %s", n.Dst, n.Src)
	case *BinQuad:
		return fmt.Sprintf("%s = %s %s %s", n.Dst, n.A, n.Op, n.B)
	case *Return:
		if n.Src == "" {
			return "return"
		}
		return "return " + n.Src
	case *Param:
		if n.Index >= 0 {
			return fmt.Sprintf("Param %d, %s", n.Index, n.Src)
		}
		return "Param " + n.Src
	case *Call:
		if n.Dst == "" {
			return fmt.Sprintf("call %s, %d", n.Func, n.Argc)
		}
		return fmt.Sprintf("%s = call %s, %d", n.Dst, n.Func, n.Argc)
	case *LoadParam:
		return fmt.Sprintf("%s = LoadParam %d", n.Dst, n.Index)
	case *GetProp:
		return fmt.Sprintf("%s = getprop %s, %s", n.Dst, n.Obj, n.Field)
	case *SetProp:
		return fmt.Sprintf("setprop %s, %s, %s", n.Obj, n.Field, n.Src)
	case *New:
		return fmt.Sprintf("%s = new %s", n.Dst, n.Class)
	case *Raw:
		return n.Text
	default:
		return fmt.Sprintf("# unknown quad %T", q)
	}
}
