// This file is part of jsys - a toolchain for the J-system virtual machine.

package vm

import "github.com/pkg/errors"

// Encode packs an AsmLine into its word stream: the instruction word
// followed by 0-2 continuation words, per spec §6.2. The arity of l.Op must
// match the number of non-nil params, or Encode returns an error.
func Encode(l AsmLine) ([]Word, error) {
	arity := Arity(l.Op)
	if arity < 0 {
		return nil, errors.Errorf("encode: unknown opcode %#x", l.Op)
	}
	got := 0
	if l.P1 != nil {
		got++
	}
	if l.P2 != nil {
		got++
	}
	if got != arity {
		return nil, errors.Errorf("encode: %s expects %d operand(s), got %d", Mnemonic(l.Op), arity, got)
	}

	var t1, t2 ParamType
	var aux1, aux2 uint16
	var cont []Word

	if l.P1 != nil {
		t1, aux1 = paramFields(*l.P1)
		if c, ok := continuation(*l.P1); ok {
			cont = append(cont, c)
		}
	}
	if l.P2 != nil {
		t2, aux2 = paramFields(*l.P2)
		if c, ok := continuation(*l.P2); ok {
			cont = append(cont, c)
		}
	}

	word := Word(l.Op)<<56 | Word(t1)<<52 | Word(t2)<<48 | Word(aux1)<<16 | Word(aux2)

	out := make([]Word, 0, 1+len(cont))
	out = append(out, word)
	out = append(out, cont...)
	return out, nil
}

// paramFields returns the 4-bit type tag and 16-bit aux field for p. The aux
// field carries the register code for both Register operands (the whole
// point of the encoding: no continuation word needed) and MemPtrOffset
// operands (whose base register has nowhere else to live).
func paramFields(p Param) (ParamType, uint16) {
	switch p.Type {
	case ParamTypeRegister, ParamTypeMemPtrOffset:
		return p.Type, uint16(p.Reg)
	default:
		return p.Type, 0
	}
}

func continuation(p Param) (Word, bool) {
	switch p.Type {
	case ParamTypeConstant, ParamTypeMemPtr:
		return p.Constant, true
	case ParamTypeMemPtrOffset:
		return OffsetToBits(p.Offset), true
	default:
		return 0, false
	}
}
