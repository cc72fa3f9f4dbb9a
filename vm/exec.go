// This file is part of jsys - a toolchain for the J-system virtual machine.

package vm

import "github.com/pkg/errors"

// Run executes instructions until the program issues an "end" syscall, a
// cycle limit is hit, or an error occurs. If a debugger is attached, it is
// given a chance to intercept execution before every instruction.
func (in *Instance) Run() error {
	for !in.Ended {
		if in.Dbg != nil {
			halt, err := in.Dbg.Tick()
			if err != nil {
				return err
			}
			if halt {
				return nil
			}
		}
		if err := in.Step(); err != nil {
			return err
		}
	}
	return nil
}

// Step decodes and executes exactly one instruction.
func (in *Instance) Step() error {
	if in.CycleCount >= in.CycleLimit {
		return errors.Errorf("cycle limit of %d instructions exceeded", in.CycleLimit)
	}
	pc, err := in.Reg.Load(RegPC)
	if err != nil {
		return err
	}
	line, next, err := Decode(in.Mem, pc)
	if err != nil {
		return errors.Wrapf(err, "fetch at pc=%d", pc)
	}
	in.Reg.StorePrivileged(RegPC, next)

	if err := in.execute(pc, line); err != nil {
		return errors.Wrapf(err, "execute %s at pc=%d", line, pc)
	}
	in.CycleCount++
	return nil
}

func (in *Instance) execute(pc Word, l AsmLine) error {
	switch l.Op {
	case OpAdd, OpSub, OpXor, OpOr, OpAnd, OpShr, OpShl:
		return in.arith(l)
	case OpMov:
		v, err := in.readParam(l.P2)
		if err != nil {
			return err
		}
		return in.writeParam(l.P1, v)
	case OpCmp:
		return in.cmp(l)
	case OpJmp:
		return in.jump(l.P1)
	case OpJe:
		return in.jumpIf(l.P1, in.Reg.Status()&StatusEqual != 0)
	case OpJeg:
		return in.jumpIf(l.P1, in.Reg.Status()&(StatusEqual|StatusGreater) != 0)
	case OpJel:
		return in.jumpIf(l.P1, in.Reg.Status()&(StatusEqual|StatusLess) != 0)
	case OpJg:
		return in.jumpIf(l.P1, in.Reg.Status()&StatusGreater != 0)
	case OpJl:
		return in.jumpIf(l.P1, in.Reg.Status()&StatusLess != 0)
	case OpPush:
		v, err := in.readParam(l.P1)
		if err != nil {
			return err
		}
		return in.push(v)
	case OpPop:
		v, err := in.pop()
		if err != nil {
			return err
		}
		return in.writeParam(l.P1, v)
	case OpPusha:
		return in.pushAll()
	case OpPopa:
		return in.popAll()
	case OpCall:
		target, err := in.readParam(l.P1)
		if err != nil {
			return err
		}
		retAddr, err := in.Reg.Load(RegPC)
		if err != nil {
			return err
		}
		if err := in.push(retAddr); err != nil {
			return err
		}
		in.Reg.StorePrivileged(RegPC, target)
		return nil
	case OpRet:
		jmpAddr, err := in.pop()
		if err != nil {
			return err
		}
		n, err := in.readParam(l.P1)
		if err != nil {
			return err
		}
		for i := Word(0); i < n; i++ {
			if _, err := in.pop(); err != nil {
				return err
			}
		}
		in.Reg.StorePrivileged(RegPC, jmpAddr)
		return nil
	case OpSys:
		return in.syscall()
	default:
		return errors.Errorf("unimplemented opcode %#x", l.Op)
	}
}

func (in *Instance) arith(l AsmLine) error {
	if l.Op == OpXor || l.Op == OpOr || l.Op == OpAnd {
		if l.P1.Type != ParamTypeRegister {
			return errors.Errorf("%s requires a register destination", Mnemonic(l.Op))
		}
	}
	a, err := in.readParam(l.P1)
	if err != nil {
		return err
	}
	b, err := in.readParam(l.P2)
	if err != nil {
		return err
	}
	var r Word
	switch l.Op {
	case OpAdd:
		r = a + b // wraps mod 2^64, by design
	case OpSub:
		if a < b {
			r = 0 // underflow saturates to 0
		} else {
			r = a - b
		}
	case OpXor:
		r = a ^ b
	case OpOr:
		r = a | b
	case OpAnd:
		r = a & b
	case OpShr, OpShl:
		if b > 64 {
			return errors.Errorf("shift amount %d exceeds 64", b)
		}
		if l.Op == OpShr {
			r = a >> uint(b)
		} else {
			r = a << uint(b)
		}
	}
	return in.writeParam(l.P1, r)
}

func (in *Instance) cmp(l AsmLine) error {
	a, err := in.readParam(l.P1)
	if err != nil {
		return err
	}
	b, err := in.readParam(l.P2)
	if err != nil {
		return err
	}
	var status Word
	switch {
	case a < b:
		status = StatusLess
	case a > b:
		status = StatusGreater
	default:
		status = StatusEqual
	}
	in.Reg.SetStatus(status)
	return nil
}

func (in *Instance) jump(p *Param) error {
	target, err := in.readParam(p)
	if err != nil {
		return err
	}
	in.Reg.StorePrivileged(RegPC, target)
	return nil
}

func (in *Instance) jumpIf(p *Param, cond bool) error {
	if !cond {
		return nil
	}
	return in.jump(p)
}

// pushAll and popAll save/restore the six general-purpose registers
// (a..f), in that order, as a block. Used around calls that must not
// clobber caller state.
var saveRegisters = [...]Register{RegA, RegB, RegC, RegD, RegE, RegF}

func (in *Instance) pushAll() error {
	for _, r := range saveRegisters {
		v, err := in.Reg.Load(r)
		if err != nil {
			return err
		}
		if err := in.push(v); err != nil {
			return err
		}
	}
	return nil
}

func (in *Instance) popAll() error {
	for i := len(saveRegisters) - 1; i >= 0; i-- {
		v, err := in.pop()
		if err != nil {
			return err
		}
		if err := in.Reg.Store(saveRegisters[i], v); err != nil {
			return err
		}
	}
	return nil
}

func (in *Instance) readParam(p *Param) (Word, error) {
	if p == nil {
		return 0, errors.New("missing operand")
	}
	switch p.Type {
	case ParamTypeConstant:
		return p.Constant, nil
	case ParamTypeRegister:
		return in.Reg.Load(p.Reg)
	case ParamTypeMemPtr:
		return in.Mem.Read(p.Constant)
	case ParamTypeMemPtrOffset:
		base, err := in.Reg.Load(p.Reg)
		if err != nil {
			return 0, err
		}
		return in.Mem.Read(base + Word(p.Offset))
	default:
		return 0, errors.Errorf("invalid operand type %#x", p.Type)
	}
}

func (in *Instance) writeParam(p *Param, v Word) error {
	if p == nil {
		return errors.New("missing operand")
	}
	switch p.Type {
	case ParamTypeRegister:
		return in.Reg.Store(p.Reg, v)
	case ParamTypeMemPtr:
		return in.Mem.Write(p.Constant, v)
	case ParamTypeMemPtrOffset:
		base, err := in.Reg.Load(p.Reg)
		if err != nil {
			return err
		}
		return in.Mem.Write(base+Word(p.Offset), v)
	default:
		return errors.Errorf("operand of type %#x is not writable", p.Type)
	}
}

// push stores v at the new stack top and updates tos. tos == 0 is the
// empty-stack sentinel (address 0 is never itself used for data, since it
// is the memory's null address): the first push sets tos to mem_size-1;
// every later push just decrements it, wrapping back to the sentinel only
// via a matching pop.
func (in *Instance) push(v Word) error {
	tos, err := in.Reg.Load(RegTos)
	if err != nil {
		return err
	}
	if tos == 0 {
		tos = in.Mem.Size() - 1
	} else {
		tos--
	}
	if tos <= in.Mem.CodeEnd() {
		return errors.New("stack overflow: collided with code/heap region")
	}
	if err := in.Mem.Write(tos, v); err != nil {
		return err
	}
	in.Reg.StorePrivileged(RegTos, tos)
	return nil
}

// pop reads the current stack top and advances tos back toward the
// sentinel, wrapping to 0 once the highest address is vacated.
func (in *Instance) pop() (Word, error) {
	tos, err := in.Reg.Load(RegTos)
	if err != nil {
		return 0, err
	}
	if tos == 0 {
		return 0, errors.New("stack underflow")
	}
	v, err := in.Mem.Read(tos)
	if err != nil {
		return 0, err
	}
	if tos == in.Mem.Size()-1 {
		tos = 0
	} else {
		tos++
	}
	in.Reg.StorePrivileged(RegTos, tos)
	return v, nil
}
