// This file is part of jsys - a toolchain for the J-system virtual machine.

// Package vm implements the J-system virtual machine: its 64-bit word
// memory model, register file, instruction encoding, fetch-decode-execute
// loop, best-fit heap allocator, syscall interface and interactive debugger.
//
// A vm.Instance owns all machine state (memory, registers, heap allocation
// table, debugger state) and is not safe for concurrent use; callers run one
// Instance per goroutine.
package vm
