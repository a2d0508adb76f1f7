package mipsgen

import (
	"strings"
	"testing"

	"github.com/compiscript/ccc/pkg/mips"
	"github.com/compiscript/ccc/pkg/tac"
	"github.com/compiscript/ccc/pkg/types"
)

func render(quads []tac.Quad, classes map[string]*types.ClassType) string {
	prog, _ := Generate(quads, classes)
	var b strings.Builder
	mips.NewPrinter(&b).PrintProgram(prog)
	return b.String()
}

func TestEmitMainUsesSyscallExitEpilogue(t *testing.T) {
	out := render([]tac.Quad{
		&tac.BeginFunc{Name: "main", LocalBytes: 0},
		&tac.EndFunc{},
	}, nil)
	if !strings.Contains(out, "li $v0, 10") || !strings.Contains(out, "syscall") {
		t.Fatalf("expected main's epilogue to be the simulator exit syscall, got:\n%s", out)
	}
	if strings.Contains(out, "jr $ra") {
		t.Fatalf("did not expect main to jr $ra, got:\n%s", out)
	}
}

func TestEmitOrdinaryFunctionRestoresFrameAndReturns(t *testing.T) {
	out := render([]tac.Quad{
		&tac.BeginFunc{Name: "suma", LocalBytes: 0},
		&tac.Return{},
		&tac.EndFunc{},
	}, nil)
	if !strings.Contains(out, "jr $ra") {
		t.Fatalf("expected a non-entry function to return via jr $ra, got:\n%s", out)
	}
	if !strings.Contains(out, "addiu $sp, $sp, -") {
		t.Fatalf("expected a prologue that grows the stack down, got:\n%s", out)
	}
}

func TestEmitBinaryArithmetic(t *testing.T) {
	out := render([]tac.Quad{
		&tac.BeginFunc{Name: "main", LocalBytes: 0},
		&tac.BinQuad{Op: tac.Add, Dst: "t0", A: "1", B: "2"},
		&tac.EndFunc{},
	}, nil)
	// Both literals are materialized before t0 is allocated, so they take
	// $t0 and $t1 and t0 gets $t2.
	if !strings.Contains(out, "addu $t2, $t0, $t1") {
		t.Fatalf("expected an addu into the allocated register for t0, got:\n%s", out)
	}
	if strings.Count(out, "li $t") < 2 {
		t.Fatalf("expected both integer literals materialized with li, got:\n%s", out)
	}
}

func TestEmitDivisionUsesMflo(t *testing.T) {
	out := render([]tac.Quad{
		&tac.BeginFunc{Name: "main", LocalBytes: 0},
		&tac.BinQuad{Op: tac.Div, Dst: "t0", A: "a", B: "b"},
		&tac.EndFunc{},
	}, nil)
	if !strings.Contains(out, "div ") || !strings.Contains(out, "mflo") {
		t.Fatalf("expected div followed by mflo for integer division, got:\n%s", out)
	}
}

func TestEmitModUsesMfhi(t *testing.T) {
	out := render([]tac.Quad{
		&tac.BeginFunc{Name: "main", LocalBytes: 0},
		&tac.BinQuad{Op: tac.Mod, Dst: "t0", A: "a", B: "b"},
		&tac.EndFunc{},
	}, nil)
	if !strings.Contains(out, "mfhi") {
		t.Fatalf("expected mfhi for the modulo operator, got:\n%s", out)
	}
}

func TestEmitLessEqualUsesSltAndXori(t *testing.T) {
	out := render([]tac.Quad{
		&tac.BeginFunc{Name: "main", LocalBytes: 0},
		&tac.BinQuad{Op: tac.Le, Dst: "t0", A: "a", B: "b"},
		&tac.EndFunc{},
	}, nil)
	if !strings.Contains(out, "slt ") || !strings.Contains(out, "xori") {
		t.Fatalf("expected <= to lower to slt + xori 1, got:\n%s", out)
	}
}

func TestEmitStringLiteralInternsIntoDataSection(t *testing.T) {
	out := render([]tac.Quad{
		&tac.BeginFunc{Name: "main", LocalBytes: 0},
		&tac.Assign{Dst: "t0", Src: `"hola"`},
		&tac.EndFunc{},
	}, nil)
	if !strings.Contains(out, `.asciiz "hola"`) {
		t.Fatalf("expected the string literal interned into .data, got:\n%s", out)
	}
	if !strings.Contains(out, "la $t") {
		t.Fatalf("expected the string's address materialized with la, got:\n%s", out)
	}
}

func TestEmitMethodCallReordersReceiverIntoA0(t *testing.T) {
	out := render([]tac.Quad{
		&tac.BeginFunc{Name: "main", LocalBytes: 0},
		&tac.Param{Index: -1, Src: "5"},
		&tac.Param{Index: -1, Src: "recv"},
		&tac.Call{Dst: "t0", Func: "method saludar", Argc: 2},
		&tac.EndFunc{},
	}, nil)
	if !strings.Contains(out, "jal saludar") {
		t.Fatalf("expected the 'method ' prefix stripped before jal, got:\n%s", out)
	}
	if !strings.Contains(out, "$a0, ") {
		t.Fatalf("expected the receiver loaded into $a0, got:\n%s", out)
	}
}

func TestEmitLoadParamWithinRegisterRange(t *testing.T) {
	out := render([]tac.Quad{
		&tac.BeginFunc{Name: "f", LocalBytes: 0},
		&tac.LoadParam{Dst: "p_x", Index: 0},
		&tac.EndFunc{},
	}, nil)
	if !strings.Contains(out, "$a0, $zero") {
		t.Fatalf("expected LoadParam 0 to copy from $a0, got:\n%s", out)
	}
}

func TestEmitGetSetPropUseClassLayoutOffset(t *testing.T) {
	persona := types.NewClassType("Persona", nil)
	persona.AddField("nombre", types.String)
	persona.AddField("edad", types.Int)
	classes := map[string]*types.ClassType{"Persona": persona}

	out := render([]tac.Quad{
		&tac.BeginFunc{Name: "saludar", LocalBytes: 0},
		&tac.GetProp{Dst: "t0", Obj: "this", Field: "edad"},
		&tac.SetProp{Obj: "this", Field: "edad", Src: "t0"},
		&tac.EndFunc{},
	}, classes)
	if !strings.Contains(out, "lw $t0, 4($a0)") {
		t.Fatalf("expected edad's computed offset 4 used for the read, got:\n%s", out)
	}
	if !strings.Contains(out, "sw $t0, 4($a0)") {
		t.Fatalf("expected edad's computed offset 4 used for the write, got:\n%s", out)
	}
}

func TestEmitUnknownFieldRecordsHardError(t *testing.T) {
	e := New(nil)
	e.Emit([]tac.Quad{
		&tac.BeginFunc{Name: "f", LocalBytes: 0},
		&tac.GetProp{Dst: "t0", Obj: "this", Field: "misterioso"},
		&tac.EndFunc{},
	})
	if len(e.Errors) == 0 {
		t.Fatalf("expected an unknown field to be recorded as a hard error")
	}
}

func TestEmitNewUsesClassInstanceSize(t *testing.T) {
	persona := types.NewClassType("Persona", nil)
	persona.AddField("nombre", types.String)
	persona.AddField("edad", types.Int)
	classes := map[string]*types.ClassType{"Persona": persona}

	out := render([]tac.Quad{
		&tac.BeginFunc{Name: "main", LocalBytes: 0},
		&tac.New{Dst: "t0", Class: "Persona"},
		&tac.EndFunc{},
	}, classes)
	if !strings.Contains(out, "li $v0, 9") || !strings.Contains(out, "li $a0, 8") {
		t.Fatalf("expected the allocator syscall sized for Persona's two fields (8 bytes), got:\n%s", out)
	}
}

func TestEmitPrintIntegerExpandsToStringConversionAndPrint(t *testing.T) {
	out := render([]tac.Quad{
		&tac.BeginFunc{Name: "main", LocalBytes: 0},
		&tac.Param{Index: -1, Src: "7"},
		&tac.Call{Dst: "t0", Func: "printInteger", Argc: 1},
		&tac.EndFunc{},
	}, nil)
	if !strings.Contains(out, "jal __int_to_str") {
		t.Fatalf("expected printInteger to convert via __int_to_str, got:\n%s", out)
	}
	if !strings.Contains(out, "jal print_str") {
		t.Fatalf("expected printInteger to print via print_str, got:\n%s", out)
	}
}

func TestEmitToStringRedirectsToIntToStr(t *testing.T) {
	out := render([]tac.Quad{
		&tac.BeginFunc{Name: "main", LocalBytes: 0},
		&tac.Param{Index: -1, Src: "7"},
		&tac.Call{Dst: "t0", Func: "toString", Argc: 1},
		&tac.EndFunc{},
	}, nil)
	if !strings.Contains(out, "jal __int_to_str") {
		t.Fatalf("expected toString to redirect to __int_to_str, got:\n%s", out)
	}
}

func TestEmitSpillsEvictedNameAndReloadsItOnNextUse(t *testing.T) {
	quads := []tac.Quad{&tac.BeginFunc{Name: "manyLocals", LocalBytes: 0}}
	for i := 0; i < 9; i++ {
		quads = append(quads, &tac.BinQuad{Op: tac.Add, Dst: "n" + itoa(i), A: itoa(i), B: "1"})
	}
	quads = append(quads,
		&tac.BinQuad{Op: tac.Add, Dst: "result", A: "n0", B: "n0"},
		&tac.Return{Src: "result"},
		&tac.EndFunc{},
	)

	out := render(quads, nil)
	if !strings.Contains(out, "sw $t") {
		t.Fatalf("expected n0 to be spilled to its stack slot once all ten registers are live, got:\n%s", out)
	}
	if !strings.Contains(out, "lw $t") {
		t.Fatalf("expected n0 to be reloaded from its spill slot when read again, got:\n%s", out)
	}

	swIdx := strings.Index(out, "sw $t")
	lwIdx := strings.Index(out, "lw $t")
	if swIdx < 0 || lwIdx < 0 || swIdx > lwIdx {
		t.Fatalf("expected the spill store to precede the later reload, got:\n%s", out)
	}
}

func TestEmitFunctionEpilogueAppearsExactlyOnce(t *testing.T) {
	out := render([]tac.Quad{
		&tac.BeginFunc{Name: "suma", LocalBytes: 0},
		&tac.Return{Src: "1"},
		&tac.EndFunc{},
	}, nil)
	if n := strings.Count(out, "jr $ra"); n != 1 {
		t.Fatalf("expected exactly one jr $ra epilogue, got %d in:\n%s", n, out)
	}
	if n := strings.Count(out, "addiu $sp, $sp, "+itoa(spillBytesHint+8)); n != 1 {
		t.Fatalf("expected the stack-restoring addiu to appear exactly once, got %d in:\n%s", n, out)
	}
}

func TestEmitMainEpilogueAppearsExactlyOnce(t *testing.T) {
	out := render([]tac.Quad{
		&tac.BeginFunc{Name: "main", LocalBytes: 0},
		&tac.Return{},
		&tac.EndFunc{},
	}, nil)
	if n := strings.Count(out, "syscall"); n != 1 {
		t.Fatalf("expected exactly one exit syscall, got %d in:\n%s", n, out)
	}
}

func TestEmitStringConcatenationCallsStrcatNew(t *testing.T) {
	out := render([]tac.Quad{
		&tac.BeginFunc{Name: "main", LocalBytes: 0},
		&tac.Assign{Dst: "s", Src: `"a"`},
		&tac.BinQuad{Op: tac.Add, Dst: "t0", A: "s", B: `"b"`},
		&tac.EndFunc{},
	}, nil)
	if !strings.Contains(out, "jal __strcat_new") {
		t.Fatalf("expected a + with a stringish operand to lower to __strcat_new, got:\n%s", out)
	}
}
