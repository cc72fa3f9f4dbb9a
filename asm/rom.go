// This file is part of jsys - a toolchain for the J-system virtual machine.

package asm

import (
	"fmt"
	"strconv"
	"strings"

	"jsys/vm"
)

// serializeRom converts one ROM data declaration's TYPE and VALUE text
// (per spec §4.4) into its flat word payload.
func serializeRom(pos Pos, typ, value string) ([]vm.Word, error) {
	switch typ {
	case "i":
		n, err := parseInt(value)
		if err != nil {
			return nil, errAt(pos, "invalid integer %q: %v", value, err)
		}
		return []vm.Word{n}, nil

	case "s":
		s, err := parseQuotedString(value)
		if err != nil {
			return nil, errAt(pos, "invalid string literal: %v", err)
		}
		return stringWords(pos, s)

	case "ai":
		items, err := splitBracketList(pos, value)
		if err != nil {
			return nil, err
		}
		words := make([]vm.Word, 0, len(items))
		for _, it := range items {
			n, err := parseInt(strings.TrimSpace(it))
			if err != nil {
				return nil, errAt(pos, "invalid integer %q in array: %v", it, err)
			}
			words = append(words, n)
		}
		return words, nil

	case "as":
		items, err := splitBracketList(pos, value)
		if err != nil {
			return nil, err
		}
		var words []vm.Word
		for _, it := range items {
			s, err := parseQuotedString(strings.TrimSpace(it))
			if err != nil {
				return nil, errAt(pos, "invalid string literal %q in array: %v", it, err)
			}
			ws, err := stringWords(pos, s)
			if err != nil {
				return nil, err
			}
			words = append(words, ws...)
		}
		return words, nil

	default:
		return nil, errAt(pos, "unknown rom type %q", typ)
	}
}

func parseInt(s string) (vm.Word, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, err
	}
	return vm.Word(uint64(n)), nil
}

// parseQuotedString strips the surrounding double quotes from a ROM string
// literal. Escape sequences are not part of this format.
func parseQuotedString(s string) (string, error) {
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return "", fmt.Errorf("expected a double-quoted string, got %s", strconv.Quote(s))
	}
	return s[1 : len(s)-1], nil
}

// stringWords emits one word per byte of s (uncompressed ASCII) followed by
// a null terminator word, rejecting any non-ASCII byte.
func stringWords(pos Pos, s string) ([]vm.Word, error) {
	words := make([]vm.Word, 0, len(s)+1)
	for i := 0; i < len(s); i++ {
		if s[i] > 127 {
			return nil, errAt(pos, "non-ASCII byte in string literal at offset %d", i)
		}
		words = append(words, vm.Word(s[i]))
	}
	return append(words, 0), nil
}

// splitBracketList parses "[a, b, c]" into its comma-separated elements.
func splitBracketList(pos Pos, s string) ([]string, error) {
	s = strings.TrimSpace(s)
	if len(s) < 2 || s[0] != '[' || s[len(s)-1] != ']' {
		return nil, errAt(pos, "expected a bracketed list, got %q", s)
	}
	inner := strings.TrimSpace(s[1 : len(s)-1])
	if inner == "" {
		return nil, nil
	}
	return splitTopLevelComma(inner), nil
}

// splitTopLevelComma splits s on commas that are not inside a quoted
// string, since string elements of an "as" array may themselves contain
// commas.
func splitTopLevelComma(s string) []string {
	var parts []string
	depth := 0
	inString := false
	last := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '"':
			inString = !inString
		case '[':
			if !inString {
				depth++
			}
		case ']':
			if !inString {
				depth--
			}
		case ',':
			if !inString && depth == 0 {
				parts = append(parts, strings.TrimSpace(s[last:i]))
				last = i + 1
			}
		}
	}
	parts = append(parts, strings.TrimSpace(s[last:]))
	return parts
}
