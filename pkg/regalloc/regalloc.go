// Package regalloc assigns MIPS $t registers to TAC-level names on demand,
// spilling the least-recently-used register to a stack slot when all ten
// are live: the register allocator feeding the S4 MIPS emitter.
package regalloc

import "sort"

// tregs are the ten caller-save temporaries the allocator hands out.
// $t8/$t9 are included; the emitter reserves $at/$v0/$v1/$a0-$a3 for its
// own materialization and calling-convention use and never asks this
// allocator for them.
var tregs = []string{
	"$t0", "$t1", "$t2", "$t3", "$t4",
	"$t5", "$t6", "$t7", "$t8", "$t9",
}

// Allocator maps TAC names to registers with an LRU spill policy. A fresh
// Allocator is reused across functions via StartFunction, which resets all
// per-function state; the spill-slot bookkeeping and register set are
// otherwise identical across calls.
type Allocator struct {
	name2reg map[string]string
	reg2name map[string]string
	dirty    map[string]bool
	pinned   map[string]bool

	useTick int
	lastUse map[string]int // keyed by register

	spillSlot    map[string]int
	spillNextOff int

	tempInUse map[string]bool
	tregsFree []string

	frameSpillLimit int
	frameSpillUsed  int

	// pendingSpillName/Reg record the most recent eviction's victim: the
	// name that used to live in pendingSpillReg. TakePendingSpill lets the
	// emitter drain this right after a Get/TempAcquire call that triggered
	// it, so it can store the old value back to its spill slot before
	// overwriting the register with something new.
	pendingSpillName string
	pendingSpillReg  string
	pendingSpillOK   bool
}

// New creates an Allocator. Call StartFunction before allocating for a
// function's body.
func New() *Allocator {
	return &Allocator{}
}

// StartFunction resets all per-function allocator state and returns the
// spill-byte budget in effect for the function about to be emitted.
// spillBytesHint is clamped to zero if negative.
func (a *Allocator) StartFunction(spillBytesHint int) int {
	a.name2reg = map[string]string{}
	a.reg2name = map[string]string{}
	a.dirty = map[string]bool{}
	a.pinned = map[string]bool{}
	a.useTick = 0
	a.lastUse = map[string]int{}
	a.spillSlot = map[string]int{}
	a.spillNextOff = -4
	a.tempInUse = map[string]bool{}
	a.tregsFree = append([]string(nil), tregs...)
	if spillBytesHint < 0 {
		spillBytesHint = 0
	}
	a.frameSpillLimit = spillBytesHint
	a.frameSpillUsed = 0
	a.pendingSpillName = ""
	a.pendingSpillReg = ""
	a.pendingSpillOK = false
	return a.frameSpillLimit
}

// EndFunction clears live-register state at the end of a function, leaving
// the allocator ready for StartFunction to begin the next one.
func (a *Allocator) EndFunction() {
	a.name2reg = map[string]string{}
	a.reg2name = map[string]string{}
	a.dirty = map[string]bool{}
	a.pinned = map[string]bool{}
	a.tempInUse = map[string]bool{}
	a.lastUse = map[string]int{}
	a.spillSlot = map[string]int{}
	a.tregsFree = append([]string(nil), tregs...)
	a.frameSpillLimit = 0
	a.frameSpillUsed = 0
	a.pendingSpillName = ""
	a.pendingSpillReg = ""
	a.pendingSpillOK = false
}

func (a *Allocator) touch(reg string) {
	a.useTick++
	a.lastUse[reg] = a.useTick
}

// allocSpillSlot reserves a 4-byte stack slot for name if it doesn't
// already have one, returning the (negative, $fp-relative) offset either
// way.
func (a *Allocator) allocSpillSlot(name string) int {
	if off, ok := a.spillSlot[name]; ok {
		return off
	}
	off := a.spillNextOff
	a.spillNextOff -= 4
	a.frameSpillUsed += 4
	a.spillSlot[name] = off
	return off
}

// chooseVictim picks the bound, non-pinned, non-ephemeral register with
// the oldest touch, or "" if every register is pinned or in ephemeral use.
func (a *Allocator) chooseVictim() string {
	type cand struct {
		tick int
		reg  string
	}
	var cands []cand
	for reg := range a.reg2name {
		if a.pinned[reg] || a.tempInUse[reg] {
			continue
		}
		cands = append(cands, cand{a.lastUse[reg], reg})
	}
	if len(cands) == 0 {
		return ""
	}
	sort.Slice(cands, func(i, j int) bool { return cands[i].tick < cands[j].tick })
	return cands[0].reg
}

// spillReg evicts reg's current binding, freeing it for reuse by its caller.
// It reserves the victim's spill slot up front and records the eviction as
// pending: the actual store instruction is the emitter's responsibility,
// emitted after draining TakePendingSpill, but the slot must exist the
// moment the name stops holding a register so a later reload knows where to
// find it. Both callers (Get, TempAcquire) immediately rebind reg to a new
// name or ephemeral use right after this returns, so reg is deliberately
// left out of tregsFree — putting it back here would let a later free-list
// pop hand the same register to a third name while it's still claimed.
func (a *Allocator) spillReg(reg string) {
	name, ok := a.reg2name[reg]
	if !ok {
		return
	}
	a.allocSpillSlot(name)
	a.pendingSpillName = name
	a.pendingSpillReg = reg
	a.pendingSpillOK = true
	delete(a.name2reg, name)
	delete(a.reg2name, reg)
	delete(a.dirty, name)
	delete(a.lastUse, reg)
}

// TakePendingSpill returns and clears the most recent eviction recorded by
// spillReg, if one hasn't already been drained. The emitter calls this
// immediately after any Get/TempAcquire that may have spilled, so the
// store it emits lands before the register is overwritten with a new
// value.
func (a *Allocator) TakePendingSpill() (name, reg string, ok bool) {
	if !a.pendingSpillOK {
		return "", "", false
	}
	name, reg, ok = a.pendingSpillName, a.pendingSpillReg, true
	a.pendingSpillName = ""
	a.pendingSpillReg = ""
	a.pendingSpillOK = false
	return name, reg, ok
}

// Get returns the register currently or newly holding name, spilling the
// LRU victim if no register is free. forWrite marks name dirty, meaning
// the emitter must store it back before it can be safely spilled or
// dropped at the end of the function.
func (a *Allocator) Get(name string, forWrite bool) string {
	if reg, ok := a.name2reg[name]; ok {
		a.touch(reg)
		if forWrite {
			a.dirty[name] = true
		}
		return reg
	}

	var reg string
	if len(a.tregsFree) > 0 {
		reg, a.tregsFree = a.tregsFree[0], a.tregsFree[1:]
	} else {
		victim := a.chooseVictim()
		if victim == "" {
			victim = tregs[len(tregs)-1]
		}
		a.spillReg(victim)
		reg = victim
	}

	a.name2reg[name] = reg
	a.reg2name[reg] = name
	a.touch(reg)
	if forWrite {
		a.dirty[name] = true
	}
	return reg
}

// HasSpillSlot reports whether name has already been assigned a stack
// slot.
func (a *Allocator) HasSpillSlot(name string) bool {
	_, ok := a.spillSlot[name]
	return ok
}

// SpillSlotOffset returns name's $fp-relative stack offset, assigning one
// if it doesn't have one yet.
func (a *Allocator) SpillSlotOffset(name string) int {
	return a.allocSpillSlot(name)
}

// SpillBytesUsed returns the total stack bytes reserved for spill slots so
// far in the current function.
func (a *Allocator) SpillBytesUsed() int {
	return a.frameSpillUsed
}

// MarkDirty flags name as holding a value not yet written back to memory.
func (a *Allocator) MarkDirty(name string) {
	a.dirty[name] = true
}

// TempAcquire reserves a register for an ephemeral value (a materialized
// literal, an address computation) that never gets a TAC name of its own.
// The caller must TempRelease it once done.
func (a *Allocator) TempAcquire() string {
	var reg string
	if len(a.tregsFree) > 0 {
		reg, a.tregsFree = a.tregsFree[0], a.tregsFree[1:]
	} else {
		victim := a.chooseVictim()
		if victim == "" {
			victim = tregs[len(tregs)-1]
		}
		a.spillReg(victim)
		reg = victim
	}
	a.tempInUse[reg] = true
	a.touch(reg)
	return reg
}

// TempRelease returns a register acquired via TempAcquire to the free
// pool, unless it has since been bound to a name by Get.
func (a *Allocator) TempRelease(reg string) {
	if !a.tempInUse[reg] {
		return
	}
	delete(a.tempInUse, reg)
	if _, bound := a.reg2name[reg]; !bound && isTreg(reg) && !contains(a.tregsFree, reg) {
		a.tregsFree = append(a.tregsFree, reg)
	}
}

// Pin prevents reg from being chosen as a spill victim until Unpin.
func (a *Allocator) Pin(reg string) {
	if isTreg(reg) {
		a.pinned[reg] = true
	}
}

// Unpin clears a pin set by Pin.
func (a *Allocator) Unpin(reg string) {
	delete(a.pinned, reg)
}

func isTreg(reg string) bool {
	for _, r := range tregs {
		if r == reg {
			return true
		}
	}
	return false
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
