// This file is part of jsys - a toolchain for the J-system virtual machine.

package vm

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Syscall ids, per spec §4.9.
const (
	sysMalloc     Word = 1
	sysFree       Word = 2
	sysMemcopy    Word = 3
	sysSysinfo    Word = 4
	sysRand       Word = 5
	sysTime       Word = 6
	sysReadStdin  Word = 7
	sysPrintOut   Word = 8
	sysEnd        Word = 9
)

// print_stdout kinds.
const (
	printRegister Word = 1
	printString   Word = 2
)

// syscall dispatches the handler named by the id sitting at tos, with its
// arguments at tos+1, tos+2, .... It is always called with the machine's pc
// already advanced past the "sys" instruction itself.
func (in *Instance) syscall() error {
	tos, err := in.Reg.Load(RegTos)
	if err != nil {
		return err
	}
	if tos == 0 {
		in.Heap.SetCutoff(in.Mem.Size() - 1)
	} else {
		in.Heap.SetCutoff(tos - 1)
	}

	id, err := in.peekStack(tos, 0)
	if err != nil {
		return errors.Wrap(err, "read syscall id")
	}

	switch id {
	case sysMalloc:
		size, err := in.peekStack(tos, 1)
		if err != nil {
			return err
		}
		ptr, ok := in.Heap.Allocate(size)
		if !ok {
			return errors.Errorf("malloc(%d) failed: no heap space available", size)
		}
		if err := in.Reg.Store(RegF, ptr); err != nil {
			return err
		}
		return in.discardStack(2)

	case sysFree:
		ptr, err := in.peekStack(tos, 1)
		if err != nil {
			return err
		}
		in.Heap.Free(ptr)
		return in.discardStack(2)

	case sysMemcopy, sysSysinfo, sysRand, sysTime:
		// Reserved: accepted but not implemented in this core, per spec §4.9.
		return in.discardStack(1)

	case sysReadStdin:
		bufSize, err := in.peekStack(tos, 1)
		if err != nil {
			return err
		}
		bufPtr, err := in.peekStack(tos, 2)
		if err != nil {
			return err
		}
		if err := in.readStdin(bufSize, bufPtr); err != nil {
			return err
		}
		return in.discardStack(3)

	case sysPrintOut:
		kind, err := in.peekStack(tos, 1)
		if err != nil {
			return err
		}
		content, err := in.peekStack(tos, 2)
		if err != nil {
			return err
		}
		if err := in.printStdout(kind, content); err != nil {
			return err
		}
		return in.discardStack(3)

	case sysEnd:
		in.Ended = true
		return in.discardStack(1)

	default:
		return errors.Errorf("unknown syscall id %d", id)
	}
}

// peekStack reads the word at stack offset n above tos (tos+n), without
// moving tos.
func (in *Instance) peekStack(tos Word, n Word) (Word, error) {
	return in.Mem.Read(tos + n)
}

// discardStack pops and discards n words, cleaning up the syscall's own
// frame before control returns to the caller.
func (in *Instance) discardStack(n int) error {
	for i := 0; i < n; i++ {
		if _, err := in.pop(); err != nil {
			return err
		}
	}
	return nil
}

func (in *Instance) readStdin(bufSize, bufPtr Word) error {
	if bufSize == 0 {
		return errors.New("read_stdin: buffer size must be positive")
	}
	if in.stdin == nil {
		in.stdin = bufio.NewReader(in.Input)
	}
	line, err := in.stdin.ReadString('\n')
	if err != nil && line == "" {
		return errors.Wrap(err, "read_stdin")
	}
	line = strings.TrimRight(line, "\r\n")
	if Word(len(line)) > bufSize-1 {
		return errors.Errorf("read_stdin: input of %d bytes does not fit in a %d-byte buffer", len(line), bufSize)
	}
	a := bufPtr
	for i := 0; i < len(line); i++ {
		if line[i] > 127 {
			return errors.Errorf("read_stdin: non-ASCII byte at offset %d", i)
		}
		if err := in.Mem.Write(a, Word(line[i])); err != nil {
			return err
		}
		a++
	}
	return in.Mem.Write(bufPtr+bufSize-1, 0)
}

func (in *Instance) printStdout(kind, content Word) error {
	switch kind {
	case printRegister:
		reg := Register(content)
		v, err := in.Reg.Load(reg)
		if err != nil {
			return errors.Wrapf(err, "print_stdout: register content %d", content)
		}
		_, err = fmt.Fprintf(in.Output, "%d", v)
		return err
	case printString:
		s, err := in.Mem.DecodeString(content)
		if err != nil {
			return errors.Wrap(err, "print_stdout: string")
		}
		_, err = fmt.Fprint(in.Output, s)
		return err
	default:
		return errors.Errorf("print_stdout: unknown kind %d", kind)
	}
}
