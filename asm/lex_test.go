// This file is part of jsys - a toolchain for the J-system virtual machine.

package asm

import "testing"

func TestLexStripsCommentsAndBlankLines(t *testing.T) {
	src := "mov a, 1 ; set a\n\n  \n; full line comment\npush a\n"
	lines := Lex("f.asm", src)
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2: %+v", len(lines), lines)
	}
	if lines[0].Text != "mov a, 1" {
		t.Errorf("lines[0].Text = %q", lines[0].Text)
	}
	if lines[0].Pos.Line != 1 {
		t.Errorf("lines[0].Pos.Line = %d, want 1", lines[0].Pos.Line)
	}
	if lines[1].Text != "push a" {
		t.Errorf("lines[1].Text = %q", lines[1].Text)
	}
	if lines[1].Pos.Line != 5 {
		t.Errorf("lines[1].Pos.Line = %d, want 5", lines[1].Pos.Line)
	}
}

func TestLexPreservesSemicolonInsideString(t *testing.T) {
	src := `msg: s "a;b"`
	lines := Lex("f.asm", src)
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1", len(lines))
	}
	if lines[0].Text != `msg: s "a;b"` {
		t.Errorf("Text = %q, want the string preserved whole", lines[0].Text)
	}
}

func TestLexTrimsSurroundingWhitespace(t *testing.T) {
	lines := Lex("f.asm", "   push a   \n")
	if len(lines) != 1 || lines[0].Text != "push a" {
		t.Errorf("got %+v", lines)
	}
}
