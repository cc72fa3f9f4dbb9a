// This file is part of jsys - a toolchain for the J-system virtual machine.

package asm

import "jsys/vm"

// Result is a fully linked image plus the debug-symbol table the CLI can
// write out as labels.dbg (address -> name, TAB-separated).
type Result struct {
	Rom    []vm.Word
	Code   []vm.Word
	Start  vm.Word
	Labels map[vm.Word]string
}

// Assemble runs the full pipeline over the file rooted at root: preprocess,
// parse, link. read supplies the text of root and every file it
// transitively includes.
//
// Example:
//
//	result, err := asm.Assemble("main.asm", func(name string) (string, error) {
//		b, err := os.ReadFile(filepath.Join(srcDir, name))
//		return string(b), err
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//	vm.SaveImage(out, result.Rom, result.Code, result.Start)
func Assemble(root string, read FileReader) (*Result, error) {
	files, err := Preprocess(root, read)
	if err != nil {
		return nil, err
	}
	order := stableFileOrder(root, files)

	asms := make(map[string]*FileAsm, len(files))
	for _, name := range order {
		fa, err := ParseFile(files[name])
		if err != nil {
			return nil, err
		}
		asms[name] = fa
	}

	rom, code, start, err := Link(order, files, asms)
	if err != nil {
		return nil, err
	}

	romBase, codeBase, _, _ := computeBases(order, asms)
	labels := make(map[vm.Word]string)
	for _, name := range order {
		for label, e := range asms[name].LabelOffsets {
			labels[labelAddr(name, e, romBase, codeBase)] = label
		}
	}

	return &Result{Rom: rom, Code: code, Start: start, Labels: labels}, nil
}
