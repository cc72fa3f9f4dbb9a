// This file is part of jsys - a toolchain for the J-system virtual machine.

package asm

import (
	"strings"
	"testing"

	"jsys/vm"
)

func parseOneLine(t *testing.T, text string) (UInstruction, error) {
	t.Helper()
	return parseInstruction(RawLine{Pos: Pos{File: "f.asm", Line: 1}, Text: text})
}

func TestParseInstructionBasic(t *testing.T) {
	inst, err := parseOneLine(t, "add a, 1")
	if err != nil {
		t.Fatalf("parseInstruction: %v", err)
	}
	if inst.Op != vm.OpAdd {
		t.Errorf("Op = %v, want OpAdd", inst.Op)
	}
	if inst.P1.Param.Type != vm.ParamTypeRegister || inst.P1.Param.Reg != vm.RegA {
		t.Errorf("P1 = %+v, want register a", inst.P1)
	}
	if inst.P2.Param.Type != vm.ParamTypeConstant || inst.P2.Param.Constant != 1 {
		t.Errorf("P2 = %+v, want constant 1", inst.P2)
	}
}

func TestParseInstructionUnknownMnemonic(t *testing.T) {
	if _, err := parseOneLine(t, "frobnicate a"); err == nil {
		t.Error("unknown mnemonic must fail")
	}
}

func TestParseInstructionArityMismatch(t *testing.T) {
	if _, err := parseOneLine(t, "add a"); err == nil {
		t.Error("add with one operand must fail (expects 2)")
	}
	if _, err := parseOneLine(t, "sys a"); err == nil {
		t.Error("sys takes no operands and must fail with one")
	}
}

func TestParseInstructionArithRequiresRegisterFirstOperand(t *testing.T) {
	_, err := parseOneLine(t, "add 1, 2")
	if err == nil {
		t.Fatal("add with a constant first operand must fail")
	}
	if !strings.Contains(err.Error(), "must be a register") {
		t.Errorf("error = %q, want it to mention the register requirement", err.Error())
	}
}

func TestParseInstructionShiftRequiresConstantSecondOperand(t *testing.T) {
	_, err := parseOneLine(t, "shr a, b")
	if err == nil {
		t.Fatal("shr with a register shift amount must fail")
	}
	if !strings.Contains(err.Error(), "must be a constant") {
		t.Errorf("error = %q, want it to mention the constant requirement", err.Error())
	}
}

func TestParseInstructionMovRejectsConstantDestination(t *testing.T) {
	_, err := parseOneLine(t, "mov 1, a")
	if err == nil {
		t.Fatal("mov into a constant destination must fail")
	}
	if !strings.Contains(err.Error(), "may not be a constant") {
		t.Errorf("error = %q", err.Error())
	}
}

func TestParseInstructionPushPopRequireRegister(t *testing.T) {
	if _, err := parseOneLine(t, "push 5"); err == nil {
		t.Error("push of a bare constant must fail (p1 must be a register)")
	}
	if _, err := parseOneLine(t, "pop a"); err != nil {
		t.Errorf("pop a should be valid: %v", err)
	}
}

func TestParseOperandLabelForms(t *testing.T) {
	cases := []struct {
		text string
		use  LabelUse
	}{
		{".start", UseRaw},
		{"[.start]", UseDeref},
		{"[.start+4]", UseDerefOffset},
		{"[.start-4]", UseDerefOffset},
	}
	for _, c := range cases {
		p, err := parseOperand(nopos, c.text)
		if err != nil {
			t.Fatalf("parseOperand(%q): %v", c.text, err)
		}
		if p.Determined {
			t.Fatalf("parseOperand(%q) should be an unresolved label ref", c.text)
		}
		if p.Ref.Use != c.use {
			t.Errorf("parseOperand(%q).Ref.Use = %v, want %v", c.text, p.Ref.Use, c.use)
		}
	}
}

func TestParseOperandUnbracketedLabelOffsetRejected(t *testing.T) {
	if _, err := parseOperand(nopos, ".start+4"); err == nil {
		t.Error("an unbracketed label reference may not carry an offset")
	}
}

func TestParseOperandRegisterOffset(t *testing.T) {
	p, err := parseOperand(nopos, "[a+8]")
	if err != nil {
		t.Fatalf("parseOperand: %v", err)
	}
	if !p.Determined || p.Param.Type != vm.ParamTypeMemPtrOffset || p.Param.Reg != vm.RegA || p.Param.Offset != 8 {
		t.Errorf("p = %+v", p)
	}
}

func TestParseOperandBareAddress(t *testing.T) {
	p, err := parseOperand(nopos, "[100]")
	if err != nil {
		t.Fatalf("parseOperand: %v", err)
	}
	if !p.Determined || p.Param.Type != vm.ParamTypeMemPtr || p.Param.Constant != 100 {
		t.Errorf("p = %+v", p)
	}
}

func TestParseCodeSectionLabelDeclarations(t *testing.T) {
	fa := &FileAsm{LabelOffsets: make(map[string]LabelEntry)}
	lines := rawLines(".start:", "add a, 1", ".done:", "sys")
	if err := parseCodeSection(fa, lines); err != nil {
		t.Fatalf("parseCodeSection: %v", err)
	}
	if e, ok := fa.LabelOffsets["start"]; !ok || e.Offset != 0 || e.Kind != JumpLabel {
		t.Errorf("start label = %+v", e)
	}
	if e, ok := fa.LabelOffsets["done"]; !ok || e.Offset != 2 {
		t.Errorf("done label offset = %+v, want 2 (after add's 2 words)", e)
	}
	if len(fa.Instructions) != 2 {
		t.Errorf("got %d instructions, want 2", len(fa.Instructions))
	}
}

func TestParseCodeSectionDuplicateLabelErrors(t *testing.T) {
	fa := &FileAsm{LabelOffsets: make(map[string]LabelEntry)}
	lines := rawLines(".x:", "sys", ".x:", "sys")
	if err := parseCodeSection(fa, lines); err == nil {
		t.Error("a label defined twice in one file must be rejected")
	}
}

func TestParseRomSectionDuplicateLabelErrors(t *testing.T) {
	fa := &FileAsm{LabelOffsets: make(map[string]LabelEntry)}
	lines := rawLines(`n: i 1`, `n: i 2`)
	if err := parseRomSection(fa, lines); err == nil {
		t.Error("a rom label defined twice must be rejected")
	}
}
