// This file is part of jsys - a toolchain for the J-system virtual machine.

package asm

import (
	"testing"

	"jsys/vm"
)

func mustParse(t *testing.T, name, src string) *FileAsm {
	t.Helper()
	lines := Lex(name, src)
	fr := &FileRecord{Name: name, Flags: map[string]string{}, Content: lines}
	fa, err := ParseFile(fr)
	if err != nil {
		t.Fatalf("ParseFile(%s): %v", name, err)
	}
	return fa
}

func TestComputeBasesLaysOutRomThenCode(t *testing.T) {
	a := mustParse(t, "a.asm", "_rom\nx: i 1\n_code\n.start:\nsys\n")
	b := mustParse(t, "b.asm", "_rom\ny: i 2\n_code\nsys\n")
	asms := map[string]*FileAsm{"a.asm": a, "b.asm": b}
	order := []string{"a.asm", "b.asm"}

	romBase, codeBase, romTotal, codeTotal := computeBases(order, asms)
	if romBase["a.asm"] != 0 || romBase["b.asm"] != 1 {
		t.Errorf("romBase = %v", romBase)
	}
	if romTotal != 2 {
		t.Errorf("romTotal = %d, want 2", romTotal)
	}
	// a.asm's code (1 word, "sys") starts right after both rom segments.
	if codeBase["a.asm"] != 2 {
		t.Errorf("codeBase[a.asm] = %d, want 2 (after 2 rom words)", codeBase["a.asm"])
	}
	if codeBase["b.asm"] != 3 {
		t.Errorf("codeBase[b.asm] = %d, want 3 (after a.asm's 1-word sys)", codeBase["b.asm"])
	}
	if codeTotal != 2 {
		t.Errorf("codeTotal = %d, want 2", codeTotal)
	}
}

func TestFindStartPrefersRootFile(t *testing.T) {
	root := mustParse(t, "main.asm", "_code\n.start:\nsys\n")
	other := mustParse(t, "lib.asm", "_code\nsys\n")
	asms := map[string]*FileAsm{"main.asm": root, "lib.asm": other}
	codeBase := map[string]int{"main.asm": 0, "lib.asm": 1}

	start, err := findStart([]string{"main.asm", "lib.asm"}, asms, codeBase)
	if err != nil {
		t.Fatalf("findStart: %v", err)
	}
	if start != 0 {
		t.Errorf("start = %d, want 0 (root file's label)", start)
	}
}

func TestFindStartFallsBackToOtherFile(t *testing.T) {
	root := mustParse(t, "main.asm", "_code\nsys\n")
	other := mustParse(t, "lib.asm", "_code\n.start:\nsys\n")
	asms := map[string]*FileAsm{"main.asm": root, "lib.asm": other}
	codeBase := map[string]int{"main.asm": 0, "lib.asm": 1}

	start, err := findStart([]string{"main.asm", "lib.asm"}, asms, codeBase)
	if err != nil {
		t.Fatalf("findStart: %v", err)
	}
	if start != 1 {
		t.Errorf("start = %d, want 1 (lib.asm's label)", start)
	}
}

func TestFindStartMissingErrors(t *testing.T) {
	root := mustParse(t, "main.asm", "_code\nsys\n")
	asms := map[string]*FileAsm{"main.asm": root}
	if _, err := findStart([]string{"main.asm"}, asms, map[string]int{"main.asm": 0}); err == nil {
		t.Error("missing start label must be rejected")
	}
}

func TestFindStartAmbiguousErrors(t *testing.T) {
	root := mustParse(t, "main.asm", "_code\nsys\n")
	a := mustParse(t, "a.asm", "_code\n.start:\nsys\n")
	b := mustParse(t, "b.asm", "_code\n.start:\nsys\n")
	asms := map[string]*FileAsm{"main.asm": root, "a.asm": a, "b.asm": b}
	codeBase := map[string]int{"main.asm": 0, "a.asm": 1, "b.asm": 2}

	if _, err := findStart([]string{"main.asm", "a.asm", "b.asm"}, asms, codeBase); err == nil {
		t.Error("start defined in two non-root files must be rejected as ambiguous")
	}
}

func TestResolveLabelAddrOwnFileTakesPrecedence(t *testing.T) {
	fa := mustParse(t, "main.asm", "_code\n.x:\nsys\n")
	asms := map[string]*FileAsm{"main.asm": fa}
	codeBase := map[string]int{"main.asm": 0}

	addr, err := resolveLabelAddr("main.asm", nil, asms, map[string]int{}, codeBase, "x")
	if err != nil {
		t.Fatalf("resolveLabelAddr: %v", err)
	}
	if addr != 0 {
		t.Errorf("addr = %d, want 0", addr)
	}
}

func TestResolveLabelAddrViaVisibleExport(t *testing.T) {
	lib := mustParse(t, "lib.asm", "_code\n.helper:\nsys\n")
	main := mustParse(t, "main.asm", "_code\ncall .helper\n")
	asms := map[string]*FileAsm{"main.asm": main, "lib.asm": lib}
	records := map[string]*FileRecord{
		"main.asm": {
			Name:    "main.asm",
			Visible: map[ExportKey]string{{Name: "helper", Kind: LabelExport}: "lib.asm"},
		},
		"lib.asm": {Name: "lib.asm", Visible: map[ExportKey]string{}},
	}
	codeBase := map[string]int{"main.asm": 5, "lib.asm": 0}

	addr, err := resolveLabelAddr("main.asm", records, asms, map[string]int{}, codeBase, "helper")
	if err != nil {
		t.Fatalf("resolveLabelAddr: %v", err)
	}
	if addr != 0 {
		t.Errorf("addr = %d, want 0 (lib.asm's base)", addr)
	}
}

func TestResolveLabelAddrUndefinedErrors(t *testing.T) {
	fa := mustParse(t, "main.asm", "_code\nsys\n")
	asms := map[string]*FileAsm{"main.asm": fa}
	records := map[string]*FileRecord{"main.asm": {Name: "main.asm", Visible: map[ExportKey]string{}}}

	if _, err := resolveLabelAddr("main.asm", records, asms, map[string]int{}, map[string]int{"main.asm": 0}, "nope"); err == nil {
		t.Error("an undefined label reference must be rejected")
	}
}

func TestLinkProducesRunnableImage(t *testing.T) {
	main := mustParse(t, "main.asm", "_rom\nmsg: i 7\n_code\n.start:\nmov a, .msg\nsys\n")
	asms := map[string]*FileAsm{"main.asm": main}
	records := map[string]*FileRecord{"main.asm": {Name: "main.asm", Visible: map[ExportKey]string{}}}

	rom, code, start, err := Link([]string{"main.asm"}, records, asms)
	if err != nil {
		t.Fatalf("Link: %v", err)
	}
	if len(rom) != 1 || rom[0] != 7 {
		t.Errorf("rom = %v, want [7]", rom)
	}
	if start != vm.Word(len(rom)) {
		t.Errorf("start = %d, want %d (right after the rom segment)", start, len(rom))
	}
	if len(code) == 0 {
		t.Error("code must be non-empty")
	}
}
