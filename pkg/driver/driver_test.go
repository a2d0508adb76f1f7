package driver

import (
	"strings"
	"testing"
)

func TestCompileArithmeticAndPrinting(t *testing.T) {
	r := Compile(`let x: integer = 2 + 3 * 4; print(x);`)
	if diagErrors(r) != "" {
		t.Fatalf("unexpected diagnostics: %s", diagErrors(r))
	}
	if !strings.Contains(r.RawTACText, "* 4") {
		t.Fatalf("expected a product quad in the raw TAC, got:\n%s", r.RawTACText)
	}
	if !strings.Contains(r.RawTACText, "Param x") || !strings.Contains(r.RawTACText, "call print, 1") {
		t.Fatalf("expected x passed to print, got:\n%s", r.RawTACText)
	}
	if !strings.Contains(r.ASMText, "mul") || !strings.Contains(r.ASMText, "li $v0, 10") {
		t.Fatalf("expected mul and the exit syscall in the emitted assembly, got:\n%s", r.ASMText)
	}
}

func TestCompileReportsParseErrorsAndStops(t *testing.T) {
	r := Compile(`let x: integer = ;`)
	if len(r.Diagnostics) == 0 {
		t.Fatalf("expected a parse diagnostic")
	}
	if r.ASMText != "" {
		t.Fatalf("expected compilation to stop before assembly on a parse error")
	}
}

func TestCompileReportsSemaErrorsAndStopsBeforeTAC(t *testing.T) {
	r := Compile(`x = 1;`)
	if len(r.Diagnostics) == 0 {
		t.Fatalf("expected an undeclared-name diagnostic")
	}
	if r.TACText != "" {
		t.Fatalf("expected compilation to stop before TAC generation on a semantic error")
	}
}

func TestCompileRecordsTimingPerStage(t *testing.T) {
	r := Compile(`let x: integer = 1;`)
	if len(r.Timings) == 0 {
		t.Fatalf("expected at least one recorded stage timing")
	}
	seen := map[string]bool{}
	for _, tm := range r.Timings {
		seen[tm.Stage] = true
	}
	for _, want := range []string{"parse", "sema", "tacgen", "mipsgen"} {
		if !seen[want] {
			t.Fatalf("expected a timing entry for stage %q, got %+v", want, r.Timings)
		}
	}
}

func TestCompilePopulatesSymbolTree(t *testing.T) {
	r := Compile(`let x: integer = 1;`)
	if r.SymbolTree == nil {
		t.Fatalf("expected a populated symbol tree")
	}
}

func TestCompileRoundTripsTACThroughReparse(t *testing.T) {
	r := Compile(`let x: integer = 2 + 3 * 4; print(x);`)
	if r.QuadsText == "" {
		t.Fatalf("expected the re-parsed quad text to be non-empty")
	}
}

func diagErrors(r *Result) string {
	out := ""
	for _, d := range r.Diagnostics {
		out += d.String() + "; "
	}
	return out
}
