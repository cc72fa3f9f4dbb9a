// This file is part of jsys - a toolchain for the J-system virtual machine.

package vm

import "github.com/pkg/errors"

// Registers holds the machine's 10 general registers. pc and s are
// privileged: Store rejects writes to them so that no decoded instruction
// can alter control flow or the status bits directly. Only the executor,
// via StorePrivileged, may write them.
type Registers struct {
	values [RegS + 1]Word
}

// NewRegisters returns a zeroed register file.
func NewRegisters() *Registers {
	return &Registers{}
}

// Load returns the current value of reg.
func (r *Registers) Load(reg Register) (Word, error) {
	if reg == 0 || int(reg) >= len(r.values) {
		return 0, errors.Errorf("invalid register %d", reg)
	}
	return r.values[reg], nil
}

// Store writes v to reg. It is an error to address pc or s this way;
// instructions must never be able to alter them directly.
func (r *Registers) Store(reg Register, v Word) error {
	if reg == 0 || int(reg) >= len(r.values) {
		return errors.Errorf("invalid register %d", reg)
	}
	if reg.ReadOnly() {
		return errors.Errorf("register %s is read-only; only the machine may write it", reg)
	}
	r.values[reg] = v
	return nil
}

// StorePrivileged writes v to reg, bypassing the read-only guard. Only the
// executor's fetch/dispatch/stack logic may call this.
func (r *Registers) StorePrivileged(reg Register, v Word) {
	r.values[reg] = v
}

// Status returns the current status register bits (StatusLess, StatusGreater,
// StatusEqual). s is readable by register code like any other register
// (spec §3); this just reads it through the same backing store.
func (r *Registers) Status() Word { return r.values[RegS] }

// SetStatus replaces the status register bits, e.g. after cmp. Goes through
// StorePrivileged since s is otherwise read-only to decoded instructions.
func (r *Registers) SetStatus(bits Word) { r.StorePrivileged(RegS, bits) }
