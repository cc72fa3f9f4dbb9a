// This file is part of jsys - a toolchain for the J-system virtual machine.

package asm

import "strings"

// RawLine is one non-blank, comment-stripped source line, tagged with the
// file and line number it came from so later stages can report errors
// against the original source.
type RawLine struct {
	Pos  Pos
	Text string
}

// Lex splits src into numbered lines, strips ";"-to-end-of-line comments
// (respecting double-quoted strings, since ROM string literals may contain
// ";") and drops blank lines.
func Lex(filename, src string) []RawLine {
	var lines []RawLine
	for i, raw := range strings.Split(src, "\n") {
		text := strings.TrimSpace(stripComment(raw))
		if text == "" {
			continue
		}
		lines = append(lines, RawLine{Pos: Pos{File: filename, Line: i + 1}, Text: text})
	}
	return lines
}

func stripComment(s string) string {
	inString := false
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '"':
			inString = !inString
		case ';':
			if !inString {
				return s[:i]
			}
		}
	}
	return s
}
