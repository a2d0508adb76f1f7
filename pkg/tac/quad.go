// Package tac defines the three-address code intermediate representation
// produced by the TAC generator, consumed by the peephole optimizer, and
// re-derived by the text parser from printed TAC.
package tac

// BinOp identifies a two-operand arithmetic or comparison operator.
type BinOp int

const (
	Add BinOp = iota
	Sub
	Mul
	Div
	Mod
	Eq
	Ne
	Lt
	Le
	Gt
	Ge
)

var binOpNames = []string{"+", "-", "*", "/", "%", "==", "!=", "<", "<=", ">", ">="}

func (op BinOp) String() string {
	if int(op) < len(binOpNames) {
		return binOpNames[op]
	}
	return "?"
}

// Quad is implemented by every quadruple variant. A Quad's textual form
// (produced by Printer, consumed by pkg/tacparse) is the canonical
// interchange format between the generator, the optimizer, and the emitter.
type Quad interface {
	implQuad()
}

// BeginFunc marks the start of a function's code, carrying the frame's
// local byte count so the emitter can size its activation record.
type BeginFunc struct {
	Name       string
	LocalBytes int
}

// EndFunc marks the end of a function's code.
type EndFunc struct{}

// ActivationRecord annotates a function with its frame layout; emitted
// alongside BeginFunc for debug/trace output, not itself lowered.
type ActivationRecord struct {
	Name string
}

// Label defines a jump target.
type Label struct {
	Name string
}

// Goto is an unconditional jump.
type Goto struct {
	Target string
}

// IfZ jumps to Target when Src evaluates to zero/false.
type IfZ struct {
	Src    string
	Target string
}

// Assign copies Src into Dst.
type Assign struct {
	Dst string
	Src string
}

// BinQuad computes Dst = A Op B for any of the arithmetic or comparison
// operators.
type BinQuad struct {
	Op  BinOp
	Dst string
	A   string
	B   string
}

// Return returns from the enclosing function; Src is empty for a bare
// `return;`.
type Return struct {
	Src string
}

// Param accumulates one argument into the pending-argument list ahead of
// a Call. Index is -1 when the generator didn't track an explicit
// position (always filled in source order regardless).
type Param struct {
	Index int
	Src   string
}

// Call invokes Func with Argc pending arguments, storing the result in Dst
// (empty when the call's value is discarded). Func is "method <name>" for
// a dispatched method call, matching the TAC generator's convention of
// marking those calls textually so the parser can recover the distinction
// without a separate tag.
type Call struct {
	Dst  string
	Func string
	Argc int
}

// LoadParam retrieves the Index-th parameter inside the callee.
type LoadParam struct {
	Dst   string
	Index int
}

// GetProp reads Obj.Field into Dst.
type GetProp struct {
	Dst   string
	Obj   string
	Field string
}

// SetProp writes Src into Obj.Field.
type SetProp struct {
	Obj   string
	Field string
	Src   string
}

// New heap-allocates an instance of Class, storing the result in Dst.
type New struct {
	Dst   string
	Class string
}

// Raw is an unstructured passthrough line: a comment, or a quad the
// generator fell back to emitting verbatim rather than raising an error.
type Raw struct {
	Text string
}

func (*BeginFunc) implQuad()        {}
func (*EndFunc) implQuad()          {}
func (*ActivationRecord) implQuad() {}
func (*Label) implQuad()            {}
func (*Goto) implQuad()             {}
func (*IfZ) implQuad()              {}
func (*Assign) implQuad()           {}
func (*BinQuad) implQuad()          {}
func (*Return) implQuad()           {}
func (*Param) implQuad()            {}
func (*Call) implQuad()             {}
func (*LoadParam) implQuad()        {}
func (*GetProp) implQuad()          {}
func (*SetProp) implQuad()          {}
func (*New) implQuad()              {}
func (*Raw) implQuad()              {}
