// Package tacparse re-tokenizes the line-oriented TAC text produced by
// pkg/tac.Printer (or typed by hand) back into a []tac.Quad stream: the
// back half of the S3 stage, decoupling the MIPS emitter from whichever
// of direct-emitted quads or edited text fed it.
package tacparse

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/compiscript/ccc/pkg/tac"
)

var (
	reBeginFunc  = regexp.MustCompile(`(?i)^BeginFunc\s+([A-Za-z_][\w$]*)\s+(-?\d+)$`)
	reEndFunc    = regexp.MustCompile(`(?i)^EndFunc$`)
	reLabel      = regexp.MustCompile(`^([A-Za-z_]\w*):$`)
	reGoto       = regexp.MustCompile(`(?i)^Goto\s+([A-Za-z_]\w*)$`)
	reIfZ        = regexp.MustCompile(`(?i)^IfZ\s+(.+)\s+goto\s+([A-Za-z_]\w*)$`)
	reIfEqZero   = regexp.MustCompile(`(?i)^if\s+([A-Za-z_]\w*)\s*==\s*0\s*goto\s+([A-Za-z_]\w*)$`)
	reReturn     = regexp.MustCompile(`(?i)^return(?:\s+(.*))?$`)
	reParamIdx   = regexp.MustCompile(`(?i)^Param\s+(\d+)\s*,\s*(.+)$`)
	reParamBare  = regexp.MustCompile(`(?i)^Param\s+(.+)$`)
	reCallDst    = regexp.MustCompile(`(?i)^([A-Za-z_]\w*)\s*=\s*call\s+(?:(method)\s+)?([A-Za-z_][\w$]*)\s*,\s*(\d+)$`)
	reCallVoid   = regexp.MustCompile(`(?i)^call\s+(?:(method)\s+)?([A-Za-z_][\w$]*)\s*,\s*(\d+)$`)
	reLoadParam  = regexp.MustCompile(`(?i)^([A-Za-z_]\w*)\s*=\s*LoadParam\s+(\d+)$`)
	reGetProp    = regexp.MustCompile(`(?i)^([A-Za-z_]\w*)\s*=\s*getprop\s+([A-Za-z_]\w*)\s*,\s*([A-Za-z_]\w*)$`)
	reThisSugar  = regexp.MustCompile(`(?i)^([A-Za-z_]\w*)\s*=\s*this\.([A-Za-z_]\w*)$`)
	reSetProp    = regexp.MustCompile(`(?i)^setprop\s+([A-Za-z_]\w*)\s*,\s*([A-Za-z_]\w*)\s*,\s*(.+)$`)
	reAssignLine = regexp.MustCompile(`^([A-Za-z_]\w*)\s*=\s*(.+)$`)
	reNewRhs     = regexp.MustCompile(`(?i)^new\s+([A-Za-z_]\w*)$`)
)

// relOps and binOps are tried in order against an assignment's RHS; the
// first operator that splits the text into two non-empty operands wins.
// Longer operators are listed first so "<=" is never mistaken for "<".
var relOps = []struct {
	sym string
	op  tac.BinOp
}{
	{"<=", tac.Le}, {">=", tac.Ge}, {"==", tac.Eq}, {"!=", tac.Ne},
	{"<", tac.Lt}, {">", tac.Gt},
}

var arithOps = []struct {
	sym string
	op  tac.BinOp
}{
	{"+", tac.Add}, {"-", tac.Sub}, {"*", tac.Mul}, {"/", tac.Div}, {"%", tac.Mod},
}

// Parse re-tokenizes text into a quad stream. It never aborts: any line
// that matches nothing recognized becomes a Raw quad, preserved verbatim
// so the MIPS emitter can render it back out as a comment.
func Parse(text string) []tac.Quad {
	var quads []tac.Quad
	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		quads = append(quads, parseLine(line))
	}
	return quads
}

func parseLine(line string) tac.Quad {
	if m := reBeginFunc.FindStringSubmatch(line); m != nil {
		n, _ := strconv.Atoi(m[2])
		return &tac.BeginFunc{Name: m[1], LocalBytes: n}
	}
	if reEndFunc.MatchString(line) {
		return &tac.EndFunc{}
	}
	if m := reLabel.FindStringSubmatch(line); m != nil {
		return &tac.Label{Name: m[1]}
	}
	if m := reIfZ.FindStringSubmatch(line); m != nil {
		return &tac.IfZ{Src: strings.TrimSpace(m[1]), Target: m[2]}
	}
	if m := reIfEqZero.FindStringSubmatch(line); m != nil {
		return &tac.IfZ{Src: m[1], Target: m[2]}
	}
	if m := reGoto.FindStringSubmatch(line); m != nil {
		return &tac.Goto{Target: m[1]}
	}
	if m := reReturn.FindStringSubmatch(line); m != nil {
		return &tac.Return{Src: strings.TrimSpace(m[1])}
	}
	if m := reParamIdx.FindStringSubmatch(line); m != nil {
		idx, _ := strconv.Atoi(m[1])
		return &tac.Param{Index: idx, Src: strings.TrimSpace(m[2])}
	}
	if m := reParamBare.FindStringSubmatch(line); m != nil {
		return &tac.Param{Index: -1, Src: strings.TrimSpace(m[1])}
	}
	if m := reCallDst.FindStringSubmatch(line); m != nil {
		return parseCall(m[1], m[2] == "method", m[3], m[4])
	}
	if m := reCallVoid.FindStringSubmatch(line); m != nil {
		return parseCall("", m[1] == "method", m[2], m[3])
	}
	if m := reLoadParam.FindStringSubmatch(line); m != nil {
		idx, _ := strconv.Atoi(m[2])
		return &tac.LoadParam{Dst: m[1], Index: idx}
	}
	if m := reGetProp.FindStringSubmatch(line); m != nil {
		return &tac.GetProp{Dst: m[1], Obj: m[2], Field: m[3]}
	}
	if m := reThisSugar.FindStringSubmatch(line); m != nil {
		return &tac.GetProp{Dst: m[1], Obj: "this", Field: m[2]}
	}
	if m := reSetProp.FindStringSubmatch(line); m != nil {
		return &tac.SetProp{Obj: m[1], Field: m[2], Src: strings.TrimSpace(m[3])}
	}
	if m := reAssignLine.FindStringSubmatch(line); m != nil {
		return parseAssignRHS(m[1], strings.TrimSpace(m[2]))
	}
	return &tac.Raw{Text: line}
}

func parseCall(dst string, isMethod bool, fn, argcText string) *tac.Call {
	argc, _ := strconv.Atoi(argcText)
	if isMethod {
		fn = "method " + fn
	}
	return &tac.Call{Dst: dst, Func: fn, Argc: argc}
}

// parseAssignRHS handles everything of the shape "dst = rhs": new, a
// binary/relational expression, or a plain copy, in that precedence
// order, matching the grammar table exactly.
func parseAssignRHS(dst, rhs string) tac.Quad {
	if m := reNewRhs.FindStringSubmatch(rhs); m != nil {
		return &tac.New{Dst: dst, Class: m[1]}
	}
	if q := splitBinOp(dst, rhs, relOps); q != nil {
		return q
	}
	if q := splitBinOp(dst, rhs, arithOps); q != nil {
		return q
	}
	return &tac.Assign{Dst: dst, Src: rhs}
}

func splitBinOp(dst, rhs string, ops []struct {
	sym string
	op  tac.BinOp
}) tac.Quad {
	for _, o := range ops {
		if i := strings.Index(rhs, o.sym); i > 0 && i+len(o.sym) < len(rhs) {
			a := strings.TrimSpace(rhs[:i])
			b := strings.TrimSpace(rhs[i+len(o.sym):])
			if a != "" && b != "" {
				return &tac.BinQuad{Op: o.op, Dst: dst, A: a, B: b}
			}
		}
	}
	return nil
}
