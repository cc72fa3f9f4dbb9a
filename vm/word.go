// This file is part of jsys - a toolchain for the J-system virtual machine.

package vm

// Word is the raw 64-bit value stored in a memory cell and held by a
// register.
type Word uint64

// Opcode identifies an instruction. It occupies bits 63..56 of the
// instruction word.
type Opcode uint8

// J-system instruction opcodes, per spec.
const (
	OpAdd   Opcode = 0x01
	OpSub   Opcode = 0x02
	OpXor   Opcode = 0x03
	OpOr    Opcode = 0x04
	OpAnd   Opcode = 0x05
	OpShr   Opcode = 0x06
	OpShl   Opcode = 0x07
	OpJmp   Opcode = 0x08
	OpCmp   Opcode = 0x09
	OpJe    Opcode = 0x0A
	OpJeg   Opcode = 0x0B
	OpJel   Opcode = 0x0C
	OpJg    Opcode = 0x0D
	OpJl    Opcode = 0x0E
	OpMov   Opcode = 0x0F
	OpPush  Opcode = 0x10
	OpPop   Opcode = 0x11
	OpPusha Opcode = 0x12
	OpPopa  Opcode = 0x13
	OpCall  Opcode = 0x14
	OpRet   Opcode = 0x15
	OpSys   Opcode = 0x16
)

// mnemonics maps every opcode to its canonical assembly mnemonic. Used by
// the assembler's opcode table and by the debugger's disassembler.
var mnemonics = map[Opcode]string{
	OpAdd:   "add",
	OpSub:   "sub",
	OpXor:   "xor",
	OpOr:    "or",
	OpAnd:   "and",
	OpShr:   "shr",
	OpShl:   "shl",
	OpJmp:   "jmp",
	OpCmp:   "cmp",
	OpJe:    "je",
	OpJeg:   "jeg",
	OpJel:   "jel",
	OpJg:    "jg",
	OpJl:    "jl",
	OpMov:   "mov",
	OpPush:  "push",
	OpPop:   "pop",
	OpPusha: "pusha",
	OpPopa:  "popa",
	OpCall:  "call",
	OpRet:   "ret",
	OpSys:   "sys",
}

var mnemonicOpcodes = func() map[string]Opcode {
	m := make(map[string]Opcode, len(mnemonics))
	for op, name := range mnemonics {
		m[name] = op
	}
	return m
}()

// Mnemonic returns the assembly mnemonic for op, or "" if op is unknown.
func Mnemonic(op Opcode) string { return mnemonics[op] }

// OpcodeByMnemonic looks up an opcode by its mnemonic.
func OpcodeByMnemonic(name string) (Opcode, bool) {
	op, ok := mnemonicOpcodes[name]
	return op, ok
}

// Arity returns the number of parameters the given opcode takes (0, 1 or 2),
// or -1 if op is unknown.
func Arity(op Opcode) int {
	switch op {
	case OpPusha, OpPopa, OpSys:
		return 0
	case OpJmp, OpJe, OpJeg, OpJel, OpJg, OpJl, OpCall, OpPush, OpPop, OpRet:
		return 1
	case OpAdd, OpSub, OpXor, OpOr, OpAnd, OpShr, OpShl, OpMov, OpCmp:
		return 2
	default:
		return -1
	}
}

// Register identifies one of the machine's ten named registers.
type Register uint8

// Register codes, per spec §6.2.
const (
	RegA Register = iota + 1
	RegB
	RegC
	RegD
	RegE
	RegF
	RegTos
	RegBos
	RegPC
	RegS
)

var registerNames = map[Register]string{
	RegA:   "a",
	RegB:   "b",
	RegC:   "c",
	RegD:   "d",
	RegE:   "e",
	RegF:   "f",
	RegTos: "tos",
	RegBos: "bos",
	RegPC:  "pc",
	RegS:   "s",
}

var registersByName = func() map[string]Register {
	m := make(map[string]Register, len(registerNames))
	for r, name := range registerNames {
		m[name] = r
	}
	return m
}()

// String returns the register's assembly name.
func (r Register) String() string { return registerNames[r] }

// RegisterByName looks up a register by its assembly name.
func RegisterByName(name string) (Register, bool) {
	r, ok := registersByName[name]
	return r, ok
}

// ReadOnly reports whether r may only be written by the machine itself (pc,
// s), never directly by user instructions.
func (r Register) ReadOnly() bool { return r == RegPC || r == RegS }

// ParamType is the 4-bit tag identifying an operand's encoded kind.
type ParamType uint8

// Parameter type codes, per spec §6.2.
const (
	ParamTypeNone         ParamType = 0x0
	ParamTypeConstant     ParamType = 0x1
	ParamTypeRegister     ParamType = 0x2
	ParamTypeMemPtr       ParamType = 0x3
	ParamTypeMemPtrOffset ParamType = 0x4
)

// HasContinuation reports whether a parameter of this type is followed by
// an immediate continuation word.
func (t ParamType) HasContinuation() bool {
	switch t {
	case ParamTypeConstant, ParamTypeMemPtr, ParamTypeMemPtrOffset:
		return true
	default:
		return false
	}
}

// Status register bits, per spec §3.
const (
	StatusLess    Word = 1 << 1
	StatusGreater Word = 1 << 2
	StatusEqual   Word = 1 << 3
)
