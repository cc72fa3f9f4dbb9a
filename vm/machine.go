// This file is part of jsys - a toolchain for the J-system virtual machine.

package vm

import (
	"bufio"
	"io"
	"os"

	"github.com/pkg/errors"
)

// defaultMemSize and defaultCycleLimit mirror the CLI's own flag defaults
// (cmd/jvm's --mem-size and --cycle-limit), so an Instance built with no
// options at all still behaves sensibly in tests.
const (
	defaultMemSize    = 1024
	defaultCycleLimit = 10_000_000_000
)

// Instance owns all state for one running J-system machine: memory,
// registers, the heap allocator and the optional debugger. It is not safe
// for concurrent use.
type Instance struct {
	Mem  *Memory
	Reg  *Registers
	Heap *Heap
	Dbg  *Debugger // nil unless WithDebugger was supplied

	CycleCount Word
	CycleLimit Word

	Input  io.Reader
	Output io.Writer

	Ended    bool
	ExitCode Word

	memSize int
	rom     []Word
	code    []Word
	startPC Word
	debugOn bool
	stdin   *bufio.Reader
}

// Option configures an Instance at construction time.
type Option func(*Instance) error

// WithImage supplies the assembled ROM and code sections plus the entry
// point (the resolved address of the "start" label).
func WithImage(rom, code []Word, start Word) Option {
	return func(in *Instance) error {
		in.rom, in.code, in.startPC = rom, code, start
		return nil
	}
}

// WithMemSize sets the total addressable memory size, in words.
func WithMemSize(words int) Option {
	return func(in *Instance) error {
		if words <= 0 {
			return errors.Errorf("mem size must be positive, got %d", words)
		}
		in.memSize = words
		return nil
	}
}

// WithCycleLimit caps the number of instructions Run will execute before
// aborting with an error, guarding against runaway programs.
func WithCycleLimit(n Word) Option {
	return func(in *Instance) error {
		in.CycleLimit = n
		return nil
	}
}

// WithInput sets the reader backing the "input" syscall.
func WithInput(r io.Reader) Option {
	return func(in *Instance) error {
		in.Input = r
		return nil
	}
}

// WithOutput sets the writer backing the "print" syscall.
func WithOutput(w io.Writer) Option {
	return func(in *Instance) error {
		in.Output = w
		return nil
	}
}

// WithDebugger attaches an interactive debugger, enabling breakpoint checks
// in the fetch loop.
func WithDebugger() Option {
	return func(in *Instance) error {
		in.debugOn = true
		return nil
	}
}

// New builds an Instance from opts. WithImage must be among them.
func New(opts ...Option) (*Instance, error) {
	in := &Instance{
		memSize:    defaultMemSize,
		CycleLimit: defaultCycleLimit,
		Input:      os.Stdin,
		Output:     os.Stdout,
	}
	for _, opt := range opts {
		if err := opt(in); err != nil {
			return nil, errors.Wrap(err, "configure machine")
		}
	}
	if in.rom == nil && in.code == nil {
		return nil, errors.New("new machine: no image supplied, use WithImage")
	}

	in.Mem = NewMemory(in.memSize)
	if err := in.Mem.Load(in.rom, in.code); err != nil {
		return nil, errors.Wrap(err, "load image")
	}
	in.Reg = NewRegisters()
	in.Heap = NewHeap(in.Mem)

	// tos == 0 is the empty-stack sentinel; the first push lands at
	// Size()-1. bos records that highest stack address as a fixed
	// reference point, independent of tos's wraparound.
	in.Reg.StorePrivileged(RegPC, in.startPC)
	in.Reg.StorePrivileged(RegTos, 0)
	if err := in.Reg.Store(RegBos, in.Mem.Size()-1); err != nil {
		return nil, err
	}

	if in.debugOn {
		in.Dbg = NewDebugger(in)
	}
	return in, nil
}
