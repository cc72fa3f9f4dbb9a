// This file is part of jsys - a toolchain for the J-system virtual machine.

package vm

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// debugRegisterOrder lists registers in the order printed by "ps".
var debugRegisterOrder = [...]Register{
	RegA, RegB, RegC, RegD, RegE, RegF, RegTos, RegBos, RegPC, RegS,
}

// Debugger implements the interactive REPL described in spec §4.10. It is
// consulted once per fetch by Instance.Run, before the instruction at pc is
// decoded.
type Debugger struct {
	in          *Instance
	Breakpoints map[Word]bool
	step        int // remaining instructions in an armed countdown; 0 means inactive
	stepArmed   bool

	// Labels annotates disassembly with symbol names loaded from a
	// labels.dbg file, if the CLI was given one. Nil means no annotation.
	Labels map[Word]string

	In  io.Reader
	Out io.Writer

	scanner *bufio.Scanner
}

// NewDebugger attaches a debugger to in, reading commands from stdin and
// writing to in.Output by default.
func NewDebugger(in *Instance) *Debugger {
	return &Debugger{
		in:          in,
		Breakpoints: make(map[Word]bool),
		In:          os.Stdin,
		Out:         in.Output,
	}
}

// SetBreakpoint arms a breakpoint at addr.
func (d *Debugger) SetBreakpoint(addr Word) { d.Breakpoints[addr] = true }

// ClearBreakpoint disarms the breakpoint at addr, if any.
func (d *Debugger) ClearBreakpoint(addr Word) { delete(d.Breakpoints, addr) }

// Tick is called before every instruction fetch. It decrements an armed step
// countdown or checks the breakpoint set, entering the REPL when either
// fires. It returns true if the user asked to terminate the program.
func (d *Debugger) Tick() (bool, error) {
	pc, err := d.in.Reg.Load(RegPC)
	if err != nil {
		return false, err
	}

	hit := false
	if d.stepArmed {
		d.step--
		if d.step <= 0 {
			d.stepArmed = false
			hit = true
		}
	} else if d.Breakpoints[pc] {
		hit = true
	}
	if !hit {
		return false, nil
	}
	return d.repl()
}

// repl runs the command loop until the user resumes execution ("s" or "c")
// or asks to terminate ("exit").
func (d *Debugger) repl() (bool, error) {
	if d.scanner == nil {
		d.scanner = bufio.NewScanner(d.In)
	}
	for {
		fmt.Fprint(d.Out, "(jdb) ")
		if !d.scanner.Scan() {
			return true, d.scanner.Err()
		}
		fields := strings.Fields(d.scanner.Text())
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "ps":
			d.printState()
		case "ins":
			d.printCurrent()
		case "m":
			d.printMem(fields)
		case "s":
			d.armStep(fields)
			return false, nil
		case "c":
			d.stepArmed = false
			return false, nil
		case "dump":
			fmt.Fprintln(d.Out, "dump: not implemented")
		case "exit":
			return true, nil
		default:
			fmt.Fprintf(d.Out, "unrecognized command %q\n", fields[0])
		}
	}
}

func (d *Debugger) armStep(fields []string) {
	n := 1
	if len(fields) >= 2 {
		if v, err := strconv.Atoi(fields[1]); err == nil && v > 0 {
			n = v
		}
	}
	d.step = n
	d.stepArmed = true
}

func (d *Debugger) printMem(fields []string) {
	if len(fields) < 2 {
		fmt.Fprintln(d.Out, "usage: m ADDR")
		return
	}
	addr, err := strconv.ParseUint(fields[1], 10, 64)
	if err != nil {
		fmt.Fprintf(d.Out, "bad address %q: %v\n", fields[1], err)
		return
	}
	v, err := d.in.Mem.Read(Word(addr))
	if err != nil {
		fmt.Fprintf(d.Out, "error: %v\n", err)
		return
	}
	fmt.Fprintf(d.Out, "[%d] = %d\n", addr, v)
}

// printState prints registers, up to 4 disassembled upcoming instructions
// (the current one marked "->"), and up to 4 stack cells from the top (the
// top cell marked "->").
func (d *Debugger) printState() {
	for _, r := range debugRegisterOrder {
		v, _ := d.in.Reg.Load(r)
		fmt.Fprintf(d.Out, "%-4s= %d\n", r, v)
	}

	pc, _ := d.in.Reg.Load(RegPC)
	fmt.Fprintln(d.Out, "instructions:")
	for i, line := range d.disassemble(pc, 4) {
		prefix := "  "
		if i == 0 {
			prefix = "->"
		}
		fmt.Fprintf(d.Out, "%s %s\n", prefix, line)
	}

	fmt.Fprintln(d.Out, "stack:")
	for i, v := range d.peekStack(4) {
		prefix := "  "
		if i == 0 {
			prefix = "->"
		}
		fmt.Fprintf(d.Out, "%s %d\n", prefix, v)
	}
}

func (d *Debugger) printCurrent() {
	pc, _ := d.in.Reg.Load(RegPC)
	lines := d.disassemble(pc, 1)
	if len(lines) > 0 {
		fmt.Fprintln(d.Out, lines[0])
	}
}

func (d *Debugger) disassemble(addr Word, n int) []string {
	var lines []string
	a := addr
	for i := 0; i < n; i++ {
		line, next, err := Decode(d.in.Mem, a)
		if err != nil {
			break
		}
		lines = append(lines, fmt.Sprintf("%d: %s%s", a, line, d.labelSuffix(a)))
		a = next
	}
	return lines
}

func (d *Debugger) labelSuffix(addr Word) string {
	if name, ok := d.Labels[addr]; ok {
		return fmt.Sprintf(" (%s)", name)
	}
	return ""
}

func (d *Debugger) peekStack(n int) []Word {
	tos, _ := d.in.Reg.Load(RegTos)
	if tos == 0 {
		return nil
	}
	var out []Word
	a := tos
	for i := 0; i < n; i++ {
		v, err := d.in.Mem.Read(a)
		if err != nil {
			break
		}
		out = append(out, v)
		if a == d.in.Mem.Size()-1 {
			break
		}
		a++
	}
	return out
}
