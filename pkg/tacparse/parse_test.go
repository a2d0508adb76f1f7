package tacparse

import (
	"strings"
	"testing"

	"github.com/compiscript/ccc/pkg/tac"
)

func render(quads []tac.Quad) string {
	var b strings.Builder
	tac.NewPrinter(&b).PrintQuads(quads)
	return b.String()
}

// TestRoundTripsEveryShape feeds QuadString's own canonical rendering of one
// quad of each kind back through Parse and checks the re-rendering matches:
// the parser is defined to round-trip whatever the printer produces.
func TestRoundTripsEveryShape(t *testing.T) {
	cases := []tac.Quad{
		&tac.BeginFunc{Name: "main", LocalBytes: 8},
		&tac.EndFunc{},
		&tac.Label{Name: "L1"},
		&tac.Goto{Target: "L1"},
		&tac.IfZ{Src: "t0", Target: "L2"},
		&tac.Assign{Dst: "x", Src: "5"},
		&tac.BinQuad{Op: tac.Add, Dst: "t1", A: "a", B: "b"},
		&tac.BinQuad{Op: tac.Lt, Dst: "t2", A: "i", B: "n"},
		&tac.Return{},
		&tac.Return{Src: "t1"},
		&tac.Param{Index: 0, Src: "a"},
		&tac.Param{Index: -1, Src: "recv"},
		&tac.Call{Dst: "t3", Func: "method saludar", Argc: 1},
		&tac.Call{Dst: "", Func: "plain", Argc: 0},
		&tac.LoadParam{Dst: "p_a", Index: 0},
		&tac.GetProp{Dst: "t4", Obj: "this", Field: "nombre"},
		&tac.SetProp{Obj: "this", Field: "nombre", Src: "p_nombre"},
		&tac.New{Dst: "t5", Class: "Persona"},
		&tac.Raw{Text: "# activation_record main"},
	}
	for _, want := range cases {
		line := tac.QuadString(want)
		got := Parse(line)
		if len(got) != 1 {
			t.Fatalf("line %q: expected exactly one quad back, got %d", line, len(got))
		}
		if gotLine := tac.QuadString(got[0]); gotLine != line {
			t.Fatalf("round trip mismatch: in %q, out %q", line, gotLine)
		}
	}
}

func TestParseIgnoresBlankLines(t *testing.T) {
	out := Parse("BeginFunc main 0\n\n   \nEndFunc\n")
	if len(out) != 2 {
		t.Fatalf("expected blank/whitespace-only lines to be skipped, got %d quads", len(out))
	}
}

func TestParseUnrecognizedLineBecomesRaw(t *testing.T) {
	out := Parse(".frame $fp,8,$ra")
	if len(out) != 1 {
		t.Fatalf("expected one quad, got %d", len(out))
	}
	raw, ok := out[0].(*tac.Raw)
	if !ok {
		t.Fatalf("expected a Raw quad, got %T", out[0])
	}
	if raw.Text != ".frame $fp,8,$ra" {
		t.Fatalf("expected the raw text preserved verbatim, got %q", raw.Text)
	}
}

func TestParseThisFieldSugar(t *testing.T) {
	out := Parse("t0 = this.nombre")
	gp, ok := out[0].(*tac.GetProp)
	if !ok {
		t.Fatalf("expected a GetProp quad, got %T", out[0])
	}
	if gp.Obj != "this" || gp.Field != "nombre" || gp.Dst != "t0" {
		t.Fatalf("expected getprop this, nombre parsed correctly, got %+v", gp)
	}
}

func TestParseAlternateIfZeroForm(t *testing.T) {
	out := Parse("if x == 0 goto L3")
	ifz, ok := out[0].(*tac.IfZ)
	if !ok {
		t.Fatalf("expected an IfZ quad, got %T", out[0])
	}
	if ifz.Src != "x" || ifz.Target != "L3" {
		t.Fatalf("expected IfZ{x, L3}, got %+v", ifz)
	}
}

func TestParseIsCaseInsensitiveOnKeywords(t *testing.T) {
	out := Parse("beginfunc foo 0")
	if _, ok := out[0].(*tac.BeginFunc); !ok {
		t.Fatalf("expected lowercase 'beginfunc' to still parse as BeginFunc, got %T", out[0])
	}
}

func TestParseNewExpression(t *testing.T) {
	out := Parse("t0 = new Persona")
	n, ok := out[0].(*tac.New)
	if !ok {
		t.Fatalf("expected a New quad, got %T", out[0])
	}
	if n.Dst != "t0" || n.Class != "Persona" {
		t.Fatalf("expected New{t0, Persona}, got %+v", n)
	}
}

func TestParseArithmeticAndRelationalFallbacks(t *testing.T) {
	add := Parse("t0 = a + b")[0].(*tac.BinQuad)
	if add.Op != tac.Add || add.A != "a" || add.B != "b" {
		t.Fatalf("expected a + b to parse as Add, got %+v", add)
	}
	le := Parse("t1 = i <= n")[0].(*tac.BinQuad)
	if le.Op != tac.Le || le.A != "i" || le.B != "n" {
		t.Fatalf("expected i <= n to parse as Le (not mistaken for Lt), got %+v", le)
	}
}

func TestParsePipelineThroughOptimizerAndBack(t *testing.T) {
	quads := []tac.Quad{
		&tac.BeginFunc{Name: "main", LocalBytes: 0},
		&tac.BinQuad{Op: tac.Add, Dst: "t0", A: "a", B: "b"},
		&tac.Return{Src: "t0"},
		&tac.EndFunc{},
	}
	text := render(quads)
	reparsed := Parse(text)
	if render(reparsed) != text {
		t.Fatalf("expected printing then parsing to round-trip:\n%s", text)
	}
}
