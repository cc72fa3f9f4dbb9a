// This file is part of jsys - a toolchain for the J-system virtual machine.

// Command jasm assembles a J-system source file (and everything it
// #includes) into a linked binary image, per spec §6.3.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	flag "github.com/ogier/pflag"
	log "github.com/sirupsen/logrus"

	"jsys/asm"
	"jsys/internal/jsi"
	"jsys/vm"
)

var (
	output  = flag.StringP("output", "o", "in.bin", "path to write the assembled image to")
	labels  = flag.StringP("debug-information", "g", "", "path to write a labels.dbg symbol table to (TAB-separated address\\tlabel)")
	verbose = flag.BoolP("verbose", "v", false, "enable verbose logging")
)

func main() {
	flag.Parse()
	if *verbose {
		log.SetLevel(log.DebugLevel)
	}
	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: jasm [flags] SOURCE.asm")
		flag.PrintDefaults()
		os.Exit(2)
	}
	root := flag.Arg(0)

	result, err := assemble(root)
	if err != nil {
		log.WithError(err).Fatal("assemble")
	}

	if err := writeImage(*output, result); err != nil {
		log.WithError(err).Fatal("write image")
	}
	log.WithFields(log.Fields{
		"rom":   len(result.Rom),
		"code":  len(result.Code),
		"start": result.Start,
	}).Info("assembled")

	if *labels != "" {
		if err := writeLabels(*labels, result); err != nil {
			log.WithError(err).Fatal("write debug symbols")
		}
	}
}

func assemble(root string) (*asm.Result, error) {
	dir := filepath.Dir(root)
	read := func(name string) (string, error) {
		b, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
	return asm.Assemble(filepath.Base(root), read)
}

func writeImage(path string, result *asm.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return vm.SaveImage(f, result.Rom, result.Code, result.Start)
}

func writeLabels(path string, result *asm.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	ew := jsi.NewErrWriter(f)
	addrs := make([]vm.Word, 0, len(result.Labels))
	for addr := range result.Labels {
		addrs = append(addrs, addr)
	}
	sort.Slice(addrs, func(i, j int) bool { return addrs[i] < addrs[j] })
	for _, addr := range addrs {
		ew.Printf("%d\t%s\n", addr, result.Labels[addr])
	}
	return ew.Err()
}
