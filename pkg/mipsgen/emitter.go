// Package mipsgen lowers a TAC quad stream into MIPS assembly text for a
// teaching simulator: the S4 stage of the compiler pipeline. It drives a
// regalloc.Allocator for register assignment and never aborts — an
// unsupported construct degrades to a comment rather than a panic.
package mipsgen

import (
	"strings"

	"github.com/compiscript/ccc/pkg/mips"
	"github.com/compiscript/ccc/pkg/regalloc"
	"github.com/compiscript/ccc/pkg/tac"
	"github.com/compiscript/ccc/pkg/types"
)

const spillBytesHint = 256

// pendingArg is one frozen argument awaiting its call: idx is the
// parameter's declared position (-1 when the generator didn't track one,
// meaning "next in source order").
type pendingArg struct {
	idx int
	reg string
}

// Emitter walks a quad stream once, in order, emitting one mips.Function
// per BeginFunc/EndFunc pair. classes backs the single merged field-offset
// table consulted by every GetProp/SetProp/field-shaped operand.
type Emitter struct {
	classes map[string]*types.ClassType
	regs    *regalloc.Allocator

	prog *mips.Program
	fn   *mips.Function

	frameSize    int
	loaded       map[string]bool
	pendingArgs  []pendingArg
	seenLocals   map[string]bool
	stringish    map[string]bool
	stringPool   map[string]string
	stringOrder  []mips.StringConst
	stringCount  int

	// Errors records hard failures — currently just an operand naming a
	// field absent from every known class's layout, per the redesigned
	// field-layout policy (see DESIGN.md): unlike every other degraded
	// construct, this is surfaced as a real error rather than silently
	// defaulting to offset 0.
	Errors []string
}

// New creates an Emitter. classes is the full set of class types the
// semantic pass produced; their computed Layout()s back every field
// access this emitter performs.
func New(classes map[string]*types.ClassType) *Emitter {
	return &Emitter{
		classes:    classes,
		regs:       regalloc.New(),
		stringish:  map[string]bool{},
		stringPool: map[string]string{},
	}
}

// Generate lowers quads into a complete Program using a fresh Emitter.
func Generate(quads []tac.Quad, classes map[string]*types.ClassType) (*mips.Program, []string) {
	e := New(classes)
	prog := e.Emit(quads)
	return prog, e.Errors
}

// Emit lowers quads into a complete Program.
func (e *Emitter) Emit(quads []tac.Quad) *mips.Program {
	e.prog = &mips.Program{}
	for _, q := range quads {
		e.dispatch(q)
	}
	e.prog.Strings = e.stringOrder
	return e.prog
}

func (e *Emitter) dispatch(q tac.Quad) {
	switch n := q.(type) {
	case *tac.BeginFunc:
		e.beginFunc(n.Name, n.LocalBytes)
	case *tac.EndFunc:
		e.endFunc()
	case *tac.ActivationRecord:
		// Debug/trace-only annotation; nothing to lower.
	case *tac.Label:
		e.fn.EmitLabel(n.Name)
	case *tac.Goto:
		e.emitGoto(n.Target)
	case *tac.IfZ:
		e.emitIfZ(n.Src, n.Target)
	case *tac.Assign:
		e.emitAssign(n.Dst, n.Src)
	case *tac.BinQuad:
		e.emitBinQuad(n)
	case *tac.Return:
		e.emitReturn(n.Src)
	case *tac.Param:
		e.emitParam(n.Index, n.Src)
	case *tac.Call:
		e.emitCall(n.Dst, n.Func, n.Argc)
	case *tac.LoadParam:
		e.emitLoadParam(n.Dst, n.Index)
	case *tac.GetProp:
		e.emitGetProp(n.Dst, n.Obj, n.Field)
	case *tac.SetProp:
		e.emitSetProp(n.Obj, n.Field, n.Src)
	case *tac.New:
		e.emitNew(n.Dst, n.Class)
	case *tac.Raw:
		e.fn.EmitComment(n.Text)
	default:
		e.fn.EmitComment("opcode TAC no soportado")
	}
}

func align(n, a int) int {
	return (n + a - 1) / a * a
}

func (e *Emitter) beginFunc(name string, localBytes int) {
	e.fn = mips.NewFunction(name)
	e.loaded = map[string]bool{}
	e.pendingArgs = nil
	e.seenLocals = map[string]bool{}

	spillHint := e.regs.StartFunction(spillBytesHint)
	e.frameSize = align(localBytes+spillHint+8, 8)

	e.fn.Emit("addiu", "$sp", "$sp", minus(e.frameSize))
	e.fn.Emit("sw", "$ra", at(e.frameSize-4, "$sp"))
	e.fn.Emit("sw", "$fp", at(e.frameSize-8, "$sp"))
	e.fn.Emit("addu", "$fp", "$sp", "$zero")

	e.prog.Functions = append(e.prog.Functions, e.fn)
}

// endFunc closes out the current function. main's epilogue is a simulator
// exit syscall instead of the usual restore-and-return sequence, since
// there is no caller frame to return into.
//
// The generator always emits a trailing Return immediately before the
// matching EndFunc, and emitReturn already runs the full epilogue through
// this method. e.fn is nil'd out below so the EndFunc quad's own call
// finds the function already closed and does nothing.
func (e *Emitter) endFunc() {
	if e.fn == nil {
		return
	}
	if e.fn.Name == "main" {
		e.fn.Emit("li", "$v0", "10")
		e.fn.Emit("syscall")
	} else {
		e.fn.Emit("lw", "$ra", at(e.frameSize-4, "$sp"))
		e.fn.Emit("lw", "$fp", at(e.frameSize-8, "$sp"))
		e.fn.Emit("addiu", "$sp", "$sp", itoa(e.frameSize))
		e.fn.Emit("jr", "$ra")
		e.fn.Emit("nop")
	}
	e.regs.EndFunction()
	e.pendingArgs = nil
	e.fn = nil
}

func (e *Emitter) emitGoto(target string) {
	e.fn.Emit("b", target)
	e.fn.Emit("nop")
}

func (e *Emitter) emitIfZ(src, target string) {
	r := e.mat(src)
	e.fn.Emit("beq", r, "$zero", target)
	e.fn.Emit("nop")
	e.releaseIfTemp(r)
}

// emitAssign lowers `dst = src`. A bare field name on the left (no dot,
// and present in the merged field table) is sugar for `this.dst = src`,
// matching the emitter-level convention `semantic_analyzer`/`ir_emitter`
// push onto the generator instead: by the time TAC reaches this stage a
// bare class-field write has already become a SetProp, but hand-authored
// or re-parsed TAC may still use the bare form, so it is honored here too.
func (e *Emitter) emitAssign(dst, src string) {
	if !strings.Contains(dst, ".") {
		if _, ok := e.fieldOffset(dst); ok {
			e.emitSetProp("this", dst, src)
			return
		}
	}
	e.seenLocals[dst] = true
	if e.isStringish(src) {
		e.stringish[dst] = true
	}
	rd := e.getReg(dst, true)
	rs := e.mat(src)
	e.fn.Emit("addu", rd, rs, "$zero")
	e.releaseIfTemp(rs)
}

func (e *Emitter) emitBinQuad(n *tac.BinQuad) {
	if n.Op == tac.Add && (e.isStringish(n.A) || e.isStringish(n.B)) {
		e.emitStringConcat(n.Dst, n.A, n.B)
		return
	}
	ra := e.mat(n.A)
	rb := e.mat(n.B)
	rd := e.getReg(n.Dst, true)
	switch n.Op {
	case tac.Add:
		e.fn.Emit("addu", rd, ra, rb)
	case tac.Sub:
		e.fn.Emit("subu", rd, ra, rb)
	case tac.Mul:
		e.fn.Emit("mul", rd, ra, rb)
	case tac.Div:
		e.fn.Emit("div", ra, rb)
		e.fn.Emit("mflo", rd)
	case tac.Mod:
		e.fn.Emit("div", ra, rb)
		e.fn.Emit("mfhi", rd)
	case tac.Eq:
		e.fn.Emit("xor", rd, ra, rb)
		e.fn.Emit("sltiu", rd, rd, "1")
	case tac.Ne:
		e.fn.Emit("xor", rd, ra, rb)
		e.fn.Emit("sltu", rd, "$zero", rd)
	case tac.Lt:
		e.fn.Emit("slt", rd, ra, rb)
	case tac.Le:
		e.fn.Emit("slt", rd, rb, ra)
		e.fn.Emit("xori", rd, rd, "1")
	case tac.Gt:
		e.fn.Emit("slt", rd, rb, ra)
	case tac.Ge:
		e.fn.Emit("slt", rd, ra, rb)
		e.fn.Emit("xori", rd, rd, "1")
	default:
		e.fn.EmitComment("op no soportado")
	}
	e.releaseIfTemp(ra)
	e.releaseIfTemp(rb)
}

// emitStringConcat rewrites a `+` whose operand is known or suspected to
// be a string into a runtime concatenation call, marking the result
// stringish so later operands chained off it keep routing here too.
func (e *Emitter) emitStringConcat(dst, a, b string) {
	e.emitParam(-1, a)
	e.emitParam(-1, b)
	e.emitCall(dst, "__strcat_new", 2)
	e.stringish[dst] = true
}

func (e *Emitter) emitReturn(src string) {
	if src != "" {
		r := e.mat(src)
		e.fn.Emit("addu", "$v0", r, "$zero")
		e.releaseIfTemp(r)
	}
	e.endFunc()
}

func minus(n int) string { return "-" + itoa(n) }
func at(off int, base string) string {
	return itoa(off) + "(" + base + ")"
}
