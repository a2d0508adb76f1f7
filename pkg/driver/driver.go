// Package driver chains parser, sema, tacgen, tacopt, tacparse, and
// mipsgen behind one compile(source) entry point, timing each stage and
// folding every stage's diagnostics into one report.
package driver

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/compiscript/ccc/pkg/ast"
	"github.com/compiscript/ccc/pkg/diag"
	"github.com/compiscript/ccc/pkg/lexer"
	"github.com/compiscript/ccc/pkg/mips"
	"github.com/compiscript/ccc/pkg/mipsgen"
	"github.com/compiscript/ccc/pkg/parser"
	"github.com/compiscript/ccc/pkg/sema"
	"github.com/compiscript/ccc/pkg/tac"
	"github.com/compiscript/ccc/pkg/tacgen"
	"github.com/compiscript/ccc/pkg/tacopt"
	"github.com/compiscript/ccc/pkg/tacparse"
)

// Timing is one named stage's wall-clock duration, reported in the order
// the stages ran.
type Timing struct {
	Stage    string
	Duration time.Duration
}

// Result is everything a caller — the CLI's debug-dump flags, or a test —
// needs from one compilation. ASTText, Diagnostics, TACText, ASMText,
// SymbolTree, and Timings are the six fields the driver's interface names;
// RawTACText and QuadsText exist only to back the CLI's --dtac/--dquads
// dumps of the pre-peephole and re-parsed intermediate forms.
type Result struct {
	ASTText     string
	Diagnostics []diag.Diagnostic
	TACText     string
	ASMText     string
	SymbolTree  *sema.SymbolTreeNode
	Timings     []Timing

	RawTACText string
	QuadsText  string
}

var parseErrorPos = regexp.MustCompile(`^line (\d+), col (\d+): (.*)$`)

func parseDiagnostic(msg string) diag.Diagnostic {
	if m := parseErrorPos.FindStringSubmatch(msg); m != nil {
		line, _ := strconv.Atoi(m[1])
		col, _ := strconv.Atoi(m[2])
		return diag.Diagnostic{Stage: diag.StageParse, Line: line, Col: col, Message: m[3]}
	}
	return diag.Diagnostic{Stage: diag.StageParse, Line: 0, Col: 0, Message: msg}
}

// Compile runs the full pipeline over source and returns a complete
// Result. It never panics: a panic raised by any stage is recovered at
// this boundary and reported as a single diagnostic, per the propagation
// policy every other stage already follows on its own terms.
func Compile(source string) (result *Result) {
	result = &Result{}
	defer func() {
		if r := recover(); r != nil {
			result.Diagnostics = append(result.Diagnostics, diag.Diagnostic{
				Stage:   diag.StageSema,
				Message: fmt.Sprintf("internal error: %v", r),
			})
		}
	}()

	var prog *ast.Program
	timed(result, "parse", func() {
		l := lexer.New(source)
		var errs []string
		prog, errs = parser.ParseProgram(l)
		for _, e := range errs {
			result.Diagnostics = append(result.Diagnostics, parseDiagnostic(e))
		}
	})
	if diag.List(result.Diagnostics).HasErrors() {
		return result
	}

	var astText string
	timed(result, "print-ast", func() {
		var b strings.Builder
		ast.NewPrinter(&b).PrintProgram(prog)
		astText = b.String()
	})
	result.ASTText = astText

	var sr *sema.Result
	timed(result, "sema", func() {
		sr = sema.Analyze(prog)
		result.Diagnostics = append(result.Diagnostics, sr.Diags...)
	})
	result.SymbolTree = sr.Tree
	if sr.Diags.HasErrors() {
		return result
	}

	var quads []tac.Quad
	timed(result, "tacgen", func() {
		quads = tacgen.Generate(prog, sr)
	})
	result.RawTACText = renderQuads(quads)

	var optimized []tac.Quad
	timed(result, "tacopt", func() {
		optimized = tacopt.Optimize(quads)
	})
	result.TACText = renderQuads(optimized)

	var reparsed []tac.Quad
	timed(result, "tacparse", func() {
		reparsed = tacparse.Parse(result.TACText)
	})
	result.QuadsText = renderQuads(reparsed)

	var prog2 *mips.Program
	var emitErrs []string
	timed(result, "mipsgen", func() {
		prog2, emitErrs = mipsgen.Generate(reparsed, sr.Classes)
	})
	for _, e := range emitErrs {
		result.Diagnostics = append(result.Diagnostics, diag.Diagnostic{Stage: diag.StageAsm, Message: e})
	}

	var asmText string
	timed(result, "print-asm", func() {
		var b strings.Builder
		mips.NewPrinter(&b).PrintProgram(prog2)
		asmText = b.String()
	})
	result.ASMText = asmText

	return result
}

func timed(result *Result, stage string, f func()) {
	start := time.Now()
	f()
	result.Timings = append(result.Timings, Timing{Stage: stage, Duration: time.Since(start)})
}

func renderQuads(quads []tac.Quad) string {
	var b strings.Builder
	tac.NewPrinter(&b).PrintQuads(quads)
	return b.String()
}
