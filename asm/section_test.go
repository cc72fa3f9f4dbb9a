// This file is part of jsys - a toolchain for the J-system virtual machine.

package asm

import "testing"

func rawLines(texts ...string) []RawLine {
	var out []RawLine
	for i, s := range texts {
		out = append(out, RawLine{Pos: Pos{File: "f.asm", Line: i + 1}, Text: s})
	}
	return out
}

func textsOf(lines []RawLine) []string {
	var out []string
	for _, l := range lines {
		out = append(out, l.Text)
	}
	return out
}

func TestSplitSectionsNormal(t *testing.T) {
	fr := &FileRecord{
		Name:    "f.asm",
		Flags:   map[string]string{},
		Content: rawLines("_rom", "msg: s \"hi\"", "_code", "push .msg"),
	}
	code, rom, err := SplitSections(fr)
	if err != nil {
		t.Fatalf("SplitSections: %v", err)
	}
	if got := textsOf(rom); len(got) != 1 || got[0] != `msg: s "hi"` {
		t.Errorf("rom = %v", got)
	}
	if got := textsOf(code); len(got) != 1 || got[0] != "push .msg" {
		t.Errorf("code = %v", got)
	}
}

func TestSplitSectionsMissingHeaderErrors(t *testing.T) {
	fr := &FileRecord{Name: "f.asm", Flags: map[string]string{}, Content: rawLines("push a")}
	if _, _, err := SplitSections(fr); err == nil {
		t.Error("a file with no _code/_rom header must be rejected")
	}
}

func TestSplitSectionsNocodeFlag(t *testing.T) {
	fr := &FileRecord{
		Name:    "f.asm",
		Flags:   map[string]string{"nocode": ""},
		Content: rawLines(`n: i 5`),
	}
	code, rom, err := SplitSections(fr)
	if err != nil {
		t.Fatalf("SplitSections: %v", err)
	}
	if code != nil {
		t.Errorf("nocode file must have no code section, got %v", code)
	}
	if got := textsOf(rom); len(got) != 1 || got[0] != "n: i 5" {
		t.Errorf("rom = %v", got)
	}
}

func TestSplitSectionsBothFlagsWithContentErrors(t *testing.T) {
	fr := &FileRecord{
		Name:    "f.asm",
		Flags:   map[string]string{"nocode": "", "norom": ""},
		Content: rawLines("push a"),
	}
	if _, _, err := SplitSections(fr); err == nil {
		t.Error("nocode+norom with content must be rejected")
	}
}

func TestSplitSectionsBothFlagsEmpty(t *testing.T) {
	fr := &FileRecord{Name: "f.asm", Flags: map[string]string{"nocode": "", "norom": ""}}
	code, rom, err := SplitSections(fr)
	if err != nil || code != nil || rom != nil {
		t.Errorf("code=%v rom=%v err=%v, want all empty/nil", code, rom, err)
	}
}

func TestSplitSectionsMultipleHeaderSwitches(t *testing.T) {
	fr := &FileRecord{
		Name:  "f.asm",
		Flags: map[string]string{},
		Content: rawLines(
			"_code", "push a",
			"_rom", "x: i 1",
			"_code", "pop a",
		),
	}
	code, rom, err := SplitSections(fr)
	if err != nil {
		t.Fatalf("SplitSections: %v", err)
	}
	if got := textsOf(code); len(got) != 2 || got[0] != "push a" || got[1] != "pop a" {
		t.Errorf("code = %v", got)
	}
	if got := textsOf(rom); len(got) != 1 || got[0] != "x: i 1" {
		t.Errorf("rom = %v", got)
	}
}
