// This file is part of jsys - a toolchain for the J-system virtual machine.

package vm

import "strings"

// AsmLine is a single decoded (or about-to-be-encoded) instruction: an
// opcode plus up to two resolved operands.
type AsmLine struct {
	Op Opcode
	P1 *Param
	P2 *Param
}

// Size returns the instruction's encoded size in 64-bit words: the
// instruction word itself plus one continuation word per non-register
// operand.
func (l AsmLine) Size() int {
	n := 1
	if l.P1 != nil {
		n += l.P1.Size()
	}
	if l.P2 != nil {
		n += l.P2.Size()
	}
	return n
}

// String renders the instruction in assembly syntax, e.g. "add a, 1".
func (l AsmLine) String() string {
	var b strings.Builder
	b.WriteString(Mnemonic(l.Op))
	if l.P1 != nil {
		b.WriteByte(' ')
		b.WriteString(l.P1.String())
	}
	if l.P2 != nil {
		b.WriteString(", ")
		b.WriteString(l.P2.String())
	}
	return b.String()
}
