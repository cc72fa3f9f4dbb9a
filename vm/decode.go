// This file is part of jsys - a toolchain for the J-system virtual machine.

package vm

import "github.com/pkg/errors"

// Decode reads one instruction word (plus 0-2 continuation words) from mem
// starting at addr, and returns the decoded AsmLine and the address of the
// next instruction. Any out-of-range or null read surfaces as an error, per
// spec §4.6.
func Decode(mem *Memory, addr Word) (AsmLine, Word, error) {
	word, err := mem.Read(addr)
	if err != nil {
		return AsmLine{}, 0, errors.Wrapf(err, "decode at %d", addr)
	}
	op := Opcode(word >> 56)
	t1 := ParamType(word>>52) & 0xF
	t2 := ParamType(word>>48) & 0xF
	aux1 := uint16(word >> 16)
	aux2 := uint16(word)

	if Arity(op) < 0 {
		return AsmLine{}, 0, errors.Errorf("decode at %d: invalid opcode %#x", addr, op)
	}

	next := addr + 1
	var p1, p2 *Param
	if t1 != ParamTypeNone {
		p, n, err := decodeParam(mem, t1, aux1, next)
		if err != nil {
			return AsmLine{}, 0, errors.Wrapf(err, "decode at %d: param1", addr)
		}
		p1, next = p, n
	}
	if t2 != ParamTypeNone {
		p, n, err := decodeParam(mem, t2, aux2, next)
		if err != nil {
			return AsmLine{}, 0, errors.Wrapf(err, "decode at %d: param2", addr)
		}
		p2, next = p, n
	}

	return AsmLine{Op: op, P1: p1, P2: p2}, next, nil
}

func decodeParam(mem *Memory, t ParamType, aux uint16, at Word) (*Param, Word, error) {
	switch t {
	case ParamTypeRegister:
		p := RegisterParam(Register(aux))
		return &p, at, nil
	case ParamTypeConstant:
		v, err := mem.Read(at)
		if err != nil {
			return nil, 0, err
		}
		p := ConstantParam(v)
		return &p, at + 1, nil
	case ParamTypeMemPtr:
		v, err := mem.Read(at)
		if err != nil {
			return nil, 0, err
		}
		p := MemPtrParam(v)
		return &p, at + 1, nil
	case ParamTypeMemPtrOffset:
		v, err := mem.Read(at)
		if err != nil {
			return nil, 0, err
		}
		p := MemPtrOffsetParam(Register(aux), OffsetFromBits(v))
		return &p, at + 1, nil
	default:
		return nil, 0, errors.Errorf("invalid param type %#x", t)
	}
}
