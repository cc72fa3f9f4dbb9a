// This file is part of jsys - a toolchain for the J-system virtual machine.

package asm

import (
	"github.com/pkg/errors"

	"jsys/vm"
)

// Link merges the assembled records named in order into one absolute image:
// all rom words, then all code words, resolving every LabelRef to a
// concrete Param along the way. order must list every key of asms exactly
// once and is the layout order the final image uses (see
// stableFileOrder).
func Link(order []string, records map[string]*FileRecord, asms map[string]*FileAsm) (rom, code []vm.Word, start vm.Word, err error) {
	romBase, codeBase, romTotal, codeTotal := computeBases(order, asms)

	rom = make([]vm.Word, 0, romTotal)
	for _, name := range order {
		rom = append(rom, asms[name].RomWords...)
	}

	code = make([]vm.Word, 0, codeTotal)
	for _, name := range order {
		for _, inst := range asms[name].Instructions {
			line, err := linkInstruction(name, records, asms, romBase, codeBase, inst)
			if err != nil {
				return nil, nil, 0, err
			}
			words, err := vm.Encode(line)
			if err != nil {
				return nil, nil, 0, errAt(inst.Pos, "encode %s: %v", inst.Op, err)
			}
			code = append(code, words...)
		}
	}

	start, err = findStart(order, asms, codeBase)
	if err != nil {
		return nil, nil, 0, err
	}
	return rom, code, start, nil
}

// computeBases lays out every file's rom and code segments back-to-back in
// order, returning each file's base address in both segments plus the
// total size of each.
func computeBases(order []string, asms map[string]*FileAsm) (romBase, codeBase map[string]int, romTotal, codeTotal int) {
	romBase = make(map[string]int, len(order))
	codeBase = make(map[string]int, len(order))

	for _, name := range order {
		romBase[name] = romTotal
		romTotal += len(asms[name].RomWords)
	}
	codeSectionStart := romTotal
	for _, name := range order {
		codeBase[name] = codeSectionStart + codeTotal
		for _, inst := range asms[name].Instructions {
			codeTotal += inst.Size()
		}
	}
	return romBase, codeBase, romTotal, codeTotal
}

func linkInstruction(name string, records map[string]*FileRecord, asms map[string]*FileAsm, romBase, codeBase map[string]int, inst UInstruction) (vm.AsmLine, error) {
	p1, err := resolveParam(name, records, asms, romBase, codeBase, inst.P1)
	if err != nil {
		return vm.AsmLine{}, errAt(inst.Pos, "%v", err)
	}
	p2, err := resolveParam(name, records, asms, romBase, codeBase, inst.P2)
	if err != nil {
		return vm.AsmLine{}, errAt(inst.Pos, "%v", err)
	}
	return vm.AsmLine{Op: inst.Op, P1: p1, P2: p2}, nil
}

func resolveParam(fileName string, records map[string]*FileRecord, asms map[string]*FileAsm, romBase, codeBase map[string]int, p *UParam) (*vm.Param, error) {
	if p == nil {
		return nil, nil
	}
	if p.Determined {
		pp := p.Param
		return &pp, nil
	}
	addr, err := resolveLabelAddr(fileName, records, asms, romBase, codeBase, p.Ref.Name)
	if err != nil {
		return nil, err
	}
	var pp vm.Param
	switch p.Ref.Use {
	case UseRaw:
		pp = vm.ConstantParam(addr)
	case UseDeref:
		pp = vm.MemPtrParam(addr)
	case UseDerefOffset:
		pp = vm.MemPtrParam(addr + vm.Word(p.Ref.Offset))
	default:
		return nil, errors.Errorf("unknown label use %d", p.Ref.Use)
	}
	return &pp, nil
}

// resolveLabelAddr finds name's absolute address, first in fileName's own
// label table, then among the labels made visible to it by its direct
// includes.
func resolveLabelAddr(fileName string, records map[string]*FileRecord, asms map[string]*FileAsm, romBase, codeBase map[string]int, name string) (vm.Word, error) {
	if e, ok := asms[fileName].LabelOffsets[name]; ok {
		return labelAddr(fileName, e, romBase, codeBase), nil
	}
	if rec, ok := records[fileName]; ok {
		if origin, ok := rec.Visible[ExportKey{Name: name, Kind: LabelExport}]; ok {
			e, ok := asms[origin].LabelOffsets[name]
			if !ok {
				return 0, errors.Errorf("%s: label %q exported by %s but missing from its table", fileName, name, origin)
			}
			return labelAddr(origin, e, romBase, codeBase), nil
		}
	}
	return 0, errors.Errorf("%s: undefined label %q", fileName, name)
}

func labelAddr(file string, e LabelEntry, romBase, codeBase map[string]int) vm.Word {
	if e.Kind == RomLabelKind {
		return vm.Word(romBase[file] + e.Offset)
	}
	return vm.Word(codeBase[file] + e.Offset)
}

// findStart locates the distinguished "start" label. It is looked up first
// in the root file (order[0]), the conventional entry file; if absent there
// it must appear, unambiguously, in exactly one other file.
func findStart(order []string, asms map[string]*FileAsm, codeBase map[string]int) (vm.Word, error) {
	if e, ok := asms[order[0]].LabelOffsets["start"]; ok && e.Kind == JumpLabel {
		return vm.Word(codeBase[order[0]] + e.Offset), nil
	}
	var found []string
	for _, name := range order[1:] {
		if e, ok := asms[name].LabelOffsets["start"]; ok && e.Kind == JumpLabel {
			found = append(found, name)
		}
	}
	switch len(found) {
	case 0:
		return 0, errors.New("missing start label")
	case 1:
		e := asms[found[0]].LabelOffsets["start"]
		return vm.Word(codeBase[found[0]] + e.Offset), nil
	default:
		return 0, errors.Errorf("ambiguous start label defined in multiple files: %v", found)
	}
}
