// Package diag defines the diagnostic record shared by every compiler
// stage and its text formatting.
package diag

import "fmt"

// Stage identifies which pipeline stage raised a Diagnostic.
type Stage string

const (
	StageParse Stage = "parse"
	StageSema  Stage = "sema"
	StageTAC   Stage = "tac"
	StageAsm   Stage = "asm"
)

// Diagnostic is one error or warning tied to a source position.
type Diagnostic struct {
	Line    int
	Col     int
	Message string
	Stage   Stage
}

// String renders "line L:C: message"; a line or column of zero or less is
// unknown and shows as "-".
func (d Diagnostic) String() string {
	line, col := "-", "-"
	if d.Line > 0 {
		line = fmt.Sprint(d.Line)
	}
	if d.Col > 0 {
		col = fmt.Sprint(d.Col)
	}
	return fmt.Sprintf("line %s:%s: %s", line, col, d.Message)
}

// List is a collection of diagnostics with convenience constructors used
// throughout sema, tacgen, and the driver.
type List []Diagnostic

// Add appends a new diagnostic built from the given stage, position, and
// a printf-style message.
func (l *List) Add(stage Stage, line, col int, format string, args ...any) {
	*l = append(*l, Diagnostic{Line: line, Col: col, Message: fmt.Sprintf(format, args...), Stage: stage})
}

// HasErrors reports whether any diagnostics were recorded.
func (l List) HasErrors() bool {
	return len(l) > 0
}

// Strings renders each diagnostic via String, in recorded order.
func (l List) Strings() []string {
	out := make([]string, len(l))
	for i, d := range l {
		out[i] = d.String()
	}
	return out
}
