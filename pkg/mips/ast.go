// Package mips defines a small assembly-line representation for the
// teaching-simulator MIPS dialect the S4 emitter targets, and a Printer
// that renders it as `.s` text.
package mips

// Line is implemented by every emittable line inside a function body.
type Line interface {
	implLine()
}

// Instr is a single MIPS instruction: an opcode and its operands, rendered
// comma-separated in order (e.g. Op:"addu", Args:["$t0","$t1","$zero"]).
type Instr struct {
	Op   string
	Args []string
}

// LabelDef defines a jump target inside a function body.
type LabelDef struct {
	Name string
}

// Comment is a `#`-prefixed line, used both for human annotations and for
// degraded/unsupported constructs the emitter declines to fail on.
type Comment struct {
	Text string
}

// Directive is an assembler directive line emitted verbatim (".globl main",
// ".text", a raw function banner).
type Directive struct {
	Text string
}

func (*Instr) implLine()     {}
func (*LabelDef) implLine()  {}
func (*Comment) implLine()   {}
func (*Directive) implLine() {}

// StringConst is one entry of the program's interned string pool, emitted
// into the `.data` section ahead of `.text`.
type StringConst struct {
	Label string
	Text  string
}

// Function holds one function's assembly lines in emission order.
type Function struct {
	Name  string
	Lines []Line
}

// NewFunction creates an empty Function.
func NewFunction(name string) *Function {
	return &Function{Name: name}
}

// Emit appends an instruction.
func (f *Function) Emit(op string, args ...string) {
	f.Lines = append(f.Lines, &Instr{Op: op, Args: args})
}

// EmitLabel appends a label definition.
func (f *Function) EmitLabel(name string) {
	f.Lines = append(f.Lines, &LabelDef{Name: name})
}

// EmitComment appends a comment line.
func (f *Function) EmitComment(text string) {
	f.Lines = append(f.Lines, &Comment{Text: text})
}

// EmitDirective appends a raw directive line.
func (f *Function) EmitDirective(text string) {
	f.Lines = append(f.Lines, &Directive{Text: text})
}

// Program is the complete emitted assembly: an interned string pool
// (first-seen order) followed by every function in emission order.
type Program struct {
	Strings   []StringConst
	Functions []*Function
}
