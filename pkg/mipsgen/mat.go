package mipsgen

import (
	"sort"
	"strconv"
	"strings"

	"github.com/compiscript/ccc/pkg/mips"
)

func itoa(n int) string { return strconv.Itoa(n) }

func isTemp(r string) bool { return strings.HasPrefix(r, "$t") }

func (e *Emitter) releaseIfTemp(r string) {
	if isTemp(r) {
		e.regs.TempRelease(r)
	}
}

// isStringish reports whether x is known (or provably is) a string value:
// a quoted literal, or a name this emitter has already tagged as carrying
// one — from a copy, a concatenation result, or a call to a
// string-producing built-in.
func (e *Emitter) isStringish(x string) bool {
	s := strings.TrimSpace(x)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return true
	}
	return e.stringish[s]
}

// fieldOffset looks up field across every known class's computed layout.
// The original emitter kept one flat, hand-written offset table shared by
// every class; this keeps that same flat-lookup shape (TAC carries no
// static type for an arbitrary `obj`, so there is no per-class table to
// pick between) but computes it from real declarations instead of a
// hardcoded demo table, and reports failure rather than defaulting to 0.
func (e *Emitter) fieldOffset(field string) (int, bool) {
	for _, cls := range e.classes {
		if off, ok := cls.FieldOffset(field); ok {
			return off, true
		}
	}
	return 0, false
}

func (e *Emitter) fieldOffsetOrError(field string) int {
	off, ok := e.fieldOffset(field)
	if !ok {
		e.Errors = append(e.Errors, "campo desconocido '"+field+"'")
		e.fn.EmitComment("campo desconocido '" + field + "', usando offset 0")
		return 0
	}
	return off
}

// getReg and tempAcquire are the only call sites allowed to touch e.regs's
// allocator directly: both drain any spill the allocator just recorded via
// flushPendingSpill before the caller emits the instruction that fills the
// returned register with something new, so the victim's old value reaches
// its stack slot before it's overwritten.
func (e *Emitter) getReg(name string, forWrite bool) string {
	reg := e.regs.Get(name, forWrite)
	e.flushPendingSpill()
	return reg
}

func (e *Emitter) tempAcquire() string {
	reg := e.regs.TempAcquire()
	e.flushPendingSpill()
	return reg
}

// flushPendingSpill emits the store for the most recent eviction, if any,
// and marks the evicted name as no longer loaded so a later reference
// reloads it from its spill slot instead of trusting stale loaded-bit
// bookkeeping from before the eviction.
func (e *Emitter) flushPendingSpill() {
	name, reg, ok := e.regs.TakePendingSpill()
	if !ok {
		return
	}
	off := e.regs.SpillSlotOffset(name)
	e.fn.Emit("sw", reg, at(off, "$fp"))
	delete(e.loaded, name)
}

func (e *Emitter) imm(val string) string {
	r := e.tempAcquire()
	e.fn.Emit("li", r, val)
	return r
}

func (e *Emitter) ensureLoaded(name, reg string) {
	if e.loaded[name] {
		return
	}
	if e.regs.HasSpillSlot(name) {
		off := e.regs.SpillSlotOffset(name)
		e.fn.Emit("lw", reg, at(off, "$fp"))
	}
	e.loaded[name] = true
}

func (e *Emitter) internString(text string) string {
	if lab, ok := e.stringPool[text]; ok {
		return lab
	}
	lab := "STR_" + itoa(e.stringCount)
	e.stringCount++
	e.stringPool[text] = lab
	e.stringOrder = append(e.stringOrder, mips.StringConst{Label: lab, Text: text})
	return lab
}

// mat materializes an operand token into a register, following the same
// priority order as the TAC emitter this is grounded on: quoted string
// literal, `this`, boolean/integer literal, a bare name that shadows a
// known field (preferring a live `p_<field>` parameter alias over
// `this.field`), a dotted `obj.field`, and finally a plain TAC name.
func (e *Emitter) mat(x string) string {
	s := strings.TrimSpace(x)

	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		lab := e.internString(s[1 : len(s)-1])
		r := e.tempAcquire()
		e.fn.Emit("la", r, lab)
		return r
	}

	if s == "this" {
		return "$a0"
	}

	if s == "true" {
		return e.imm("1")
	}
	if s == "false" {
		return e.imm("0")
	}
	if _, err := strconv.Atoi(s); err == nil {
		return e.imm(s)
	}

	if !strings.Contains(s, ".") {
		if _, ok := e.fieldOffset(s); ok {
			alt := "p_" + s
			if e.seenLocals[alt] {
				reg := e.getReg(alt, false)
				e.ensureLoaded(alt, reg)
				return reg
			}
			off := e.fieldOffsetOrError(s)
			r := e.tempAcquire()
			e.fn.Emit("lw", r, at(off, "$a0"))
			return r
		}
	}

	if i := strings.Index(s, "."); i >= 0 {
		left, right := s[:i], s[i+1:]
		var base string
		baseIsTemp := false
		if left == "this" {
			base = "$a0"
		} else {
			base = e.mat(left)
			baseIsTemp = isTemp(base)
		}
		off := e.fieldOffsetOrError(right)
		r := e.tempAcquire()
		e.fn.Emit("lw", r, at(off, base))
		if baseIsTemp {
			e.regs.TempRelease(base)
		}
		return r
	}

	reg := e.getReg(s, false)
	e.ensureLoaded(s, reg)
	return reg
}

func (e *Emitter) callerSavePush() {
	e.fn.Emit("addiu", "$sp", "$sp", minus(40))
	for i := 0; i < 10; i++ {
		e.fn.Emit("sw", "$t"+itoa(i), at(i*4, "$sp"))
	}
}

func (e *Emitter) callerSavePop() {
	for i := 0; i < 10; i++ {
		e.fn.Emit("lw", "$t"+itoa(i), at(i*4, "$sp"))
	}
	e.fn.Emit("addiu", "$sp", "$sp", "40")
}

func (e *Emitter) emitParam(index int, src string) {
	rVal := e.mat(src)
	rFreeze := e.tempAcquire()
	e.fn.Emit("addu", rFreeze, rVal, "$zero")
	e.releaseIfTemp(rVal)
	idx := index
	if idx < 0 {
		idx = len(e.pendingArgs)
	}
	e.pendingArgs = append(e.pendingArgs, pendingArg{idx: idx, reg: rFreeze})
}

// maybeReorderForMethod recognizes the "method <name>" call-target
// convention: the last pending argument is the receiver and must become
// argument 0, with every other argument shifted up by one.
func (e *Emitter) maybeReorderForMethod(fn string) string {
	const prefix = "method "
	if !strings.HasPrefix(fn, prefix) {
		return fn
	}
	real := strings.TrimSpace(fn[len(prefix):])
	if len(e.pendingArgs) > 0 {
		last := e.pendingArgs[len(e.pendingArgs)-1]
		others := e.pendingArgs[:len(e.pendingArgs)-1]
		reordered := make([]pendingArg, 0, len(e.pendingArgs))
		reordered = append(reordered, pendingArg{idx: 0, reg: last.reg})
		for k, p := range others {
			reordered = append(reordered, pendingArg{idx: k + 1, reg: p.reg})
		}
		e.pendingArgs = reordered
	}
	return real
}

func (e *Emitter) emitCall(dst, fn string, argc int) {
	_ = argc
	switch fn {
	case "toString":
		fn = "__int_to_str"
	case "printString":
		fn = "print_str"
	case "printInteger", "print":
		e.emitInlinePrint(dst)
		return
	}

	e.callerSavePush()
	fn = e.maybeReorderForMethod(fn)

	args := append([]pendingArg(nil), e.pendingArgs...)
	sort.Slice(args, func(i, j int) bool { return args[i].idx < args[j].idx })

	var aRegs []pendingArg
	var extraRegs []string
	for _, p := range args {
		if p.idx <= 3 {
			aRegs = append(aRegs, p)
		} else {
			extraRegs = append(extraRegs, p.reg)
		}
	}

	extraSize := 4 * len(extraRegs)
	if extraSize > 0 {
		e.fn.Emit("addiu", "$sp", "$sp", minus(extraSize))
		for k, r := range extraRegs {
			e.fn.Emit("sw", r, at(k*4, "$sp"))
		}
	}
	for _, p := range aRegs {
		e.fn.Emit("addu", "$a"+itoa(p.idx), p.reg, "$zero")
	}

	e.fn.Emit("jal", fn)
	e.fn.Emit("nop")

	if extraSize > 0 {
		e.fn.Emit("addiu", "$sp", "$sp", itoa(extraSize))
	}
	e.callerSavePop()

	for _, p := range aRegs {
		e.releaseIfTemp(p.reg)
	}
	for _, r := range extraRegs {
		e.releaseIfTemp(r)
	}

	if dst != "" {
		rd := e.getReg(dst, true)
		e.fn.Emit("addu", rd, "$v0", "$zero")
	}
	e.pendingArgs = nil
}

// emitInlinePrint expands printInteger(x)/print(x): convert x to a string
// with __int_to_str, print it with print_str, then yield x itself back as
// the expression's value (printInteger's result is the printed integer,
// not the string).
func (e *Emitter) emitInlinePrint(dst string) {
	if len(e.pendingArgs) == 0 {
		e.fn.EmitComment("print sin argumentos")
		return
	}
	arg := e.pendingArgs[len(e.pendingArgs)-1].reg
	e.pendingArgs = nil

	e.callerSavePush()
	e.fn.Emit("addu", "$a0", arg, "$zero")
	e.fn.Emit("jal", "__int_to_str")
	e.fn.Emit("nop")
	e.callerSavePop()

	strReg := e.tempAcquire()
	e.fn.Emit("addu", strReg, "$v0", "$zero")

	e.callerSavePush()
	e.fn.Emit("addu", "$a0", strReg, "$zero")
	e.fn.Emit("jal", "print_str")
	e.fn.Emit("nop")
	e.callerSavePop()
	e.regs.TempRelease(strReg)

	if dst != "" {
		rd := e.getReg(dst, true)
		e.fn.Emit("addu", rd, arg, "$zero")
	}
	e.releaseIfTemp(arg)
}

func (e *Emitter) emitLoadParam(dst string, index int) {
	e.seenLocals[dst] = true
	rd := e.getReg(dst, true)
	if index >= 0 && index <= 3 {
		e.fn.Emit("addu", rd, "$a"+itoa(index), "$zero")
		return
	}
	off := e.frameSize + 4*(index-4)
	e.fn.Emit("lw", rd, at(off, "$fp"))
}

func (e *Emitter) emitGetProp(dst, obj, field string) {
	rd := e.getReg(dst, true)
	rbase, baseIsTemp := e.matBase(obj)
	off := e.fieldOffsetOrError(field)
	e.fn.Emit("lw", rd, at(off, rbase))
	if baseIsTemp {
		e.regs.TempRelease(rbase)
	}
	if t, ok := e.classFieldType(field); ok && t == typeNameString {
		e.stringish[dst] = true
	}
}

func (e *Emitter) emitSetProp(obj, field, src string) {
	rbase, baseIsTemp := e.matBase(obj)
	rsrc := e.mat(src)
	off := e.fieldOffsetOrError(field)
	e.fn.Emit("sw", rsrc, at(off, rbase))
	if baseIsTemp {
		e.regs.TempRelease(rbase)
	}
	e.releaseIfTemp(rsrc)
}

func (e *Emitter) matBase(obj string) (string, bool) {
	if obj == "this" {
		return "$a0", false
	}
	r := e.mat(obj)
	return r, isTemp(r)
}

func (e *Emitter) emitNew(dst, class string) {
	size := 16
	if cls, ok := e.classes[class]; ok {
		size = cls.InstanceSize()
		if size == 0 {
			size = 4
		}
	}
	e.fn.Emit("li", "$v0", "9")
	e.fn.Emit("li", "$a0", itoa(size))
	e.fn.Emit("syscall")
	rd := e.getReg(dst, true)
	e.fn.Emit("addu", rd, "$v0", "$zero")
}

const typeNameString = "string"

// classFieldType reports a field's declared type name, searching every
// known class the same way fieldOffset does.
func (e *Emitter) classFieldType(field string) (string, bool) {
	for _, cls := range e.classes {
		for _, fl := range cls.Layout() {
			if fl.Name == field {
				return fl.Type.String(), true
			}
		}
	}
	return "", false
}
