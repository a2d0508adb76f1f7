package mips

import (
	"strings"
	"testing"
)

func TestPrintProgramOrdersDataBeforeText(t *testing.T) {
	prog := &Program{
		Strings: []StringConst{{Label: "STR_0", Text: "hola"}},
		Functions: []*Function{
			func() *Function {
				f := NewFunction("main")
				f.Emit("li", "$v0", "10")
				f.Emit("syscall")
				return f
			}(),
		},
	}
	var b strings.Builder
	NewPrinter(&b).PrintProgram(prog)
	out := b.String()

	dataIdx := strings.Index(out, ".data")
	textIdx := strings.Index(out, ".text")
	if dataIdx == -1 || textIdx == -1 || dataIdx > textIdx {
		t.Fatalf("expected .data before .text, got:\n%s", out)
	}
	if !strings.Contains(out, `STR_0: .asciiz "hola"`) {
		t.Fatalf("expected the interned string literal, got:\n%s", out)
	}
	if !strings.Contains(out, ".globl main") {
		t.Fatalf("expected .globl main for the entry function, got:\n%s", out)
	}
	if !strings.Contains(out, "  li $v0, 10\n") {
		t.Fatalf("expected the li instruction rendered with comma-joined args, got:\n%s", out)
	}
	if !strings.Contains(out, "  syscall\n") {
		t.Fatalf("expected a zero-arg instruction rendered without trailing comma junk, got:\n%s", out)
	}
}

func TestPrintProgramOmitsDataSectionWhenNoStrings(t *testing.T) {
	prog := &Program{Functions: []*Function{NewFunction("main")}}
	var b strings.Builder
	NewPrinter(&b).PrintProgram(prog)
	if strings.Contains(b.String(), ".data") {
		t.Fatalf("did not expect a .data section with no interned strings")
	}
}

func TestPrintFunctionRendersLabelsAndComments(t *testing.T) {
	f := NewFunction("suma")
	f.EmitLabel("L1")
	f.EmitComment("opcode TAC no soportado: Foo")
	var b strings.Builder
	NewPrinter(&b).PrintProgram(&Program{Functions: []*Function{f}})
	out := b.String()
	if !strings.Contains(out, "L1:\n") {
		t.Fatalf("expected a label line, got:\n%s", out)
	}
	if !strings.Contains(out, "  # opcode TAC no soportado: Foo\n") {
		t.Fatalf("expected a comment line, got:\n%s", out)
	}
}
