// This file is part of jsys - a toolchain for the J-system virtual machine.

// Command jvm loads a J-system binary image and runs it to completion,
// optionally under the interactive debugger, per spec §6.4.
package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	flag "github.com/ogier/pflag"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"jsys/vm"
)

var (
	debug      = flag.BoolP("debug", "d", false, "run under the interactive debugger")
	outputFile = flag.String("output-to-file", "", "write program output here instead of stdout")
	inputFile  = flag.String("input-file", "", "read input syscalls from this file instead of stdin")
	debugInfo  = flag.StringP("debug-information", "g", "", "labels.dbg symbol table to annotate debugger disassembly with")
	memSize    = flag.IntP("mem-size", "m", 1024, "total addressable memory, in words")
	cycleLimit = flag.Uint64P("cycle-limit", "c", 10_000_000_000, "abort after this many executed instructions")
	verbose    = flag.BoolP("verbose", "v", false, "enable verbose logging")
)

func main() {
	flag.Parse()
	if *verbose {
		log.SetLevel(log.DebugLevel)
	}

	imagePath := "in.bin"
	if flag.NArg() >= 1 {
		imagePath = flag.Arg(0)
	}

	in, cleanup, err := setup(imagePath)
	if err != nil {
		log.WithError(err).Fatal("setup")
	}
	defer cleanup()

	if err := in.Run(); err != nil {
		log.WithError(err).Fatal("run")
	}
	log.WithFields(log.Fields{
		"cycles": in.CycleCount,
	}).Info("halted")
}

// setup opens the image and any IO redirections the flags name, and builds
// a running Instance from them. The returned cleanup closes whatever files
// setup opened.
func setup(imagePath string) (*vm.Instance, func(), error) {
	imgFile, err := os.Open(imagePath)
	if err != nil {
		return nil, nil, errors.Wrap(err, "open image")
	}
	defer imgFile.Close()

	rom, code, start, err := vm.LoadImage(imgFile)
	if err != nil {
		return nil, nil, errors.Wrap(err, "load image")
	}

	var closers []io.Closer
	cleanup := func() {
		for _, c := range closers {
			c.Close()
		}
	}

	opts := []vm.Option{
		vm.WithImage(rom, code, start),
		vm.WithMemSize(*memSize),
		vm.WithCycleLimit(vm.Word(*cycleLimit)),
	}

	output, err := openOutput(*outputFile, &closers)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	opts = append(opts, vm.WithOutput(output))

	input, err := openInput(*inputFile, &closers)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	opts = append(opts, vm.WithInput(input))

	if *debug {
		opts = append(opts, vm.WithDebugger())
	}

	instance, err := vm.New(opts...)
	if err != nil {
		cleanup()
		return nil, nil, errors.Wrap(err, "create machine")
	}

	if instance.Dbg != nil {
		// The REPL talks to the terminal regardless of where the program's
		// own output is redirected, so its prompts stay visible even under
		// --output-to-file.
		instance.Dbg.Out = &wrapWriter{w: os.Stdout, width: consoleWidth()}
		if *debugInfo != "" {
			labels, err := readLabels(*debugInfo)
			if err != nil {
				cleanup()
				return nil, nil, errors.Wrap(err, "read debug information")
			}
			instance.Dbg.Labels = labels
		}
	}

	return instance, cleanup, nil
}

func openOutput(path string, closers *[]io.Closer) (io.Writer, error) {
	if path == "" {
		return os.Stdout, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, errors.Wrap(err, "open output file")
	}
	*closers = append(*closers, f)
	return f, nil
}

func openInput(path string, closers *[]io.Closer) (io.Reader, error) {
	if path == "" {
		return os.Stdin, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open input file")
	}
	*closers = append(*closers, f)
	return f, nil
}

// readLabels parses a TAB-separated "address\tlabel" file as written by
// jasm's --debug-information flag.
func readLabels(path string) (map[vm.Word]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	labels := make(map[vm.Word]string)
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := sc.Text()
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, "\t", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("malformed debug-information line %q", line)
		}
		addr, err := strconv.ParseUint(parts[0], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("malformed address in debug-information line %q: %w", line, err)
		}
		labels[vm.Word(addr)] = parts[1]
	}
	return labels, sc.Err()
}

// wrapWriter breaks long lines at width columns so the debugger's "ps"
// output behaves on a real terminal instead of just running off the edge.
type wrapWriter struct {
	w     io.Writer
	width int
}

func (ww *wrapWriter) Write(p []byte) (int, error) {
	if ww.width <= 0 {
		return ww.w.Write(p)
	}
	for _, line := range strings.SplitAfter(string(p), "\n") {
		for len(line) > ww.width {
			cut := ww.width
			if _, err := io.WriteString(ww.w, line[:cut]+"\n"); err != nil {
				return 0, err
			}
			line = line[cut:]
		}
		if line == "" {
			continue
		}
		if _, err := io.WriteString(ww.w, line); err != nil {
			return 0, err
		}
	}
	return len(p), nil
}
