// This file is part of jsys - a toolchain for the J-system virtual machine.

package asm

import "jsys/vm"

// LabelUse distinguishes how an unresolved label reference will be
// rewritten once its target address is known, per spec §4.3.
type LabelUse int

const (
	UseRaw         LabelUse = iota // emits Constant(absolute_addr)
	UseDeref                       // emits MemPtr(absolute_addr)
	UseDerefOffset                 // emits MemPtr(absolute_addr + Offset)
)

// LabelRef is an assembler-internal operand that names a label instead of
// carrying a resolved value; the linker rewrites it once every file's base
// address is known.
type LabelRef struct {
	Name   string
	Use    LabelUse
	Offset int64 // valid when Use == UseDerefOffset
}

// UParam is one operand, either fully resolved or a pending LabelRef.
type UParam struct {
	Determined bool
	Param      vm.Param
	Ref        LabelRef
}

// Size is the operand's encoded size in words: 0 for a register, 1
// otherwise (a LabelRef always becomes a Constant or MemPtr, both size 1).
func (p UParam) Size() int {
	if p.Determined {
		return p.Param.Size()
	}
	return 1
}

// effectiveType reports the ParamType this operand will have once
// resolved, letting the parser enforce arity/type rules before linking.
func (p UParam) effectiveType() vm.ParamType {
	if p.Determined {
		return p.Param.Type
	}
	if p.Ref.Use == UseRaw {
		return vm.ParamTypeConstant
	}
	return vm.ParamTypeMemPtr
}

// UInstruction is one parsed, not-yet-linked instruction.
type UInstruction struct {
	Pos Pos
	Op  vm.Opcode
	P1  *UParam
	P2  *UParam
}

// Size is the instruction's total encoded size in words.
func (u UInstruction) Size() int {
	n := 1
	if u.P1 != nil {
		n += u.P1.Size()
	}
	if u.P2 != nil {
		n += u.P2.Size()
	}
	return n
}

// LabelKind distinguishes where a label's offset is measured from.
type LabelKind int

const (
	JumpLabel LabelKind = iota // offset into the file's code section
	RomLabelKind               // offset into the file's rom section
)

// LabelEntry locates one label within its file's code or rom section.
type LabelEntry struct {
	Kind   LabelKind
	Offset int
}

// FileAsm is one file's fully parsed (but not yet linked) record: its
// instructions, its flat rom payload, and the label-offset table both draw
// from. Per spec §3, labels are unique per file across both sections.
type FileAsm struct {
	Name         string
	Instructions []UInstruction
	RomWords     []vm.Word
	LabelOffsets map[string]LabelEntry
}
