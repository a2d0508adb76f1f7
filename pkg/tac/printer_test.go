package tac

import (
	"bytes"
	"strings"
	"testing"
)

func TestQuadStringCoversEveryShape(t *testing.T) {
	cases := []struct {
		q    Quad
		want string
	}{
		{&BeginFunc{Name: "suma", LocalBytes: 8}, "BeginFunc suma 8"},
		{&EndFunc{}, "EndFunc"},
		{&Label{Name: "L1"}, "L1:"},
		{&Goto{Target: "L1"}, "Goto L1"},
		{&IfZ{Src: "t0", Target: "L2"}, "IfZ t0 goto L2"},
		{&Assign{Dst: "x", Src: "3"}, "x = 3"},
		{&BinQuad{Op: Add, Dst: "t0", A: "a", B: "b"}, "t0 = a + b"},
		{&BinQuad{Op: Lt, Dst: "t1", A: "a", B: "b"}, "t1 = a < b"},
		{&Return{}, "return"},
		{&Return{Src: "t0"}, "return t0"},
		{&Param{Index: 0, Src: "t0"}, "Param 0, t0"},
		{&Param{Index: -1, Src: "t0"}, "Param t0"},
		{&Call{Dst: "t1", Func: "suma", Argc: 2}, "t1 = call suma, 2"},
		{&Call{Func: "method saludar", Argc: 1}, "call method saludar, 1"},
		{&LoadParam{Dst: "p_a", Index: 0}, "p_a = LoadParam 0"},
		{&GetProp{Dst: "t0", Obj: "this", Field: "nombre"}, "t0 = getprop this, nombre"},
		{&SetProp{Obj: "this", Field: "nombre", Src: "p_nombre"}, "setprop this, nombre, p_nombre"},
		{&New{Dst: "t0", Class: "Persona"}, "t0 = new Persona"},
		{&Raw{Text: "# note"}, "# note"},
	}
	for _, c := range cases {
		if got := QuadString(c.q); got != c.want {
			t.Errorf("QuadString(%#v) = %q, want %q", c.q, got, c.want)
		}
	}
}

func TestPrintQuadsJoinsLines(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)
	p.PrintQuads([]Quad{
		&BeginFunc{Name: "main", LocalBytes: 0},
		&Label{Name: "L1"},
		&EndFunc{},
	})
	out := buf.String()
	if !strings.Contains(out, "BeginFunc main 0\n") || !strings.Contains(out, "L1:\n") {
		t.Fatalf("unexpected output: %q", out)
	}
}
