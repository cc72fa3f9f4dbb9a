// This file is part of jsys - a toolchain for the J-system virtual machine.

package asm

import (
	"strconv"
	"strings"

	"jsys/vm"
)

// ParseFile splits fr's content into sections and parses each into a
// FileAsm: a flat rom payload and a list of unlinked instructions, both
// sharing one label-offset table.
func ParseFile(fr *FileRecord) (*FileAsm, error) {
	code, rom, err := SplitSections(fr)
	if err != nil {
		return nil, err
	}
	fa := &FileAsm{Name: fr.Name, LabelOffsets: make(map[string]LabelEntry)}
	if err := parseRomSection(fa, rom); err != nil {
		return nil, err
	}
	if err := parseCodeSection(fa, code); err != nil {
		return nil, err
	}
	return fa, nil
}

func parseRomSection(fa *FileAsm, lines []RawLine) error {
	for _, l := range lines {
		idx := strings.Index(l.Text, ":")
		if idx < 0 {
			return errAt(l.Pos, "malformed rom line, expected NAME: TYPE VALUE")
		}
		name := strings.TrimSpace(l.Text[:idx])
		if !labelNameRE.MatchString(name) {
			return errAt(l.Pos, "invalid rom label %q", name)
		}
		if _, dup := fa.LabelOffsets[name]; dup {
			return errAt(l.Pos, "label %q already defined in this file", name)
		}
		rest := strings.TrimSpace(l.Text[idx+1:])
		typ, value, _ := strings.Cut(rest, " ")
		value = strings.TrimSpace(value)

		words, err := serializeRom(l.Pos, typ, value)
		if err != nil {
			return err
		}
		fa.LabelOffsets[name] = LabelEntry{Kind: RomLabelKind, Offset: len(fa.RomWords)}
		fa.RomWords = append(fa.RomWords, words...)
	}
	return nil
}

func parseCodeSection(fa *FileAsm, lines []RawLine) error {
	offset := 0
	for _, l := range lines {
		if name, ok := labelDecl(l.Text); ok {
			if !labelNameRE.MatchString(name) {
				return errAt(l.Pos, "invalid label %q", name)
			}
			if _, dup := fa.LabelOffsets[name]; dup {
				return errAt(l.Pos, "label %q already defined in this file", name)
			}
			fa.LabelOffsets[name] = LabelEntry{Kind: JumpLabel, Offset: offset}
			continue
		}
		inst, err := parseInstruction(l)
		if err != nil {
			return err
		}
		fa.Instructions = append(fa.Instructions, inst)
		offset += inst.Size()
	}
	return nil
}

// labelDecl reports whether text is a bare label declaration (".NAME:")
// and, if so, returns NAME.
func labelDecl(text string) (string, bool) {
	if !strings.HasPrefix(text, ".") || !strings.HasSuffix(text, ":") {
		return "", false
	}
	return text[1 : len(text)-1], true
}

// paramRule and typeRules list, per mnemonic, the constraints §4.3 enforces
// beyond plain arity (already captured by vm.Arity).
type paramRule int

const (
	ruleAny paramRule = iota
	ruleRegister
	ruleNotConstant
	ruleConstant
)

func typeRules(op vm.Opcode) (p1, p2 paramRule) {
	switch op {
	case vm.OpAdd, vm.OpSub, vm.OpXor, vm.OpOr, vm.OpAnd:
		return ruleRegister, ruleAny
	case vm.OpShr, vm.OpShl:
		return ruleRegister, ruleConstant
	case vm.OpMov:
		return ruleNotConstant, ruleAny
	case vm.OpPush, vm.OpPop:
		return ruleRegister, ruleAny
	default:
		return ruleAny, ruleAny
	}
}

func checkRule(pos Pos, mnemonic string, which string, rule paramRule, p *UParam) error {
	if p == nil {
		return nil
	}
	t := p.effectiveType()
	switch rule {
	case ruleRegister:
		if t != vm.ParamTypeRegister {
			return errAt(pos, "%s: %s must be a register", mnemonic, which)
		}
	case ruleNotConstant:
		if t == vm.ParamTypeConstant {
			return errAt(pos, "%s: %s may not be a constant", mnemonic, which)
		}
	case ruleConstant:
		if t != vm.ParamTypeConstant {
			return errAt(pos, "%s: %s must be a constant", mnemonic, which)
		}
	}
	return nil
}

func parseInstruction(l RawLine) (UInstruction, error) {
	text := l.Text
	mnemonic, rest, _ := strings.Cut(text, " ")
	rest = strings.TrimSpace(rest)

	op, ok := vm.OpcodeByMnemonic(mnemonic)
	if !ok {
		return UInstruction{}, errAt(l.Pos, "unknown mnemonic %q", mnemonic)
	}
	arity := vm.Arity(op)

	var operands []string
	if rest != "" {
		operands = splitTopLevelComma(rest)
	}
	if len(operands) != arity {
		return UInstruction{}, errAt(l.Pos, "%s expects %d operand(s), got %d", mnemonic, arity, len(operands))
	}

	inst := UInstruction{Pos: l.Pos, Op: op}
	if arity >= 1 {
		p, err := parseOperand(l.Pos, operands[0])
		if err != nil {
			return UInstruction{}, err
		}
		inst.P1 = &p
	}
	if arity >= 2 {
		p, err := parseOperand(l.Pos, operands[1])
		if err != nil {
			return UInstruction{}, err
		}
		inst.P2 = &p
	}

	r1, r2 := typeRules(op)
	if err := checkRule(l.Pos, mnemonic, "p1", r1, inst.P1); err != nil {
		return UInstruction{}, err
	}
	if err := checkRule(l.Pos, mnemonic, "p2", r2, inst.P2); err != nil {
		return UInstruction{}, err
	}
	return inst, nil
}

func parseOperand(pos Pos, s string) (UParam, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return UParam{}, errAt(pos, "empty operand")
	}
	if strings.HasPrefix(s, ".") {
		name := s[1:]
		if !labelNameRE.MatchString(name) {
			return UParam{}, errAt(pos, "invalid label reference %q (unbracketed label references may not carry an offset)", s)
		}
		return UParam{Ref: LabelRef{Name: name, Use: UseRaw}}, nil
	}
	if strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]") {
		return parseBracketOperand(pos, strings.TrimSpace(s[1:len(s)-1]))
	}
	if reg, ok := vm.RegisterByName(s); ok {
		return UParam{Determined: true, Param: vm.RegisterParam(reg)}, nil
	}
	n, err := parseInt(s)
	if err != nil {
		return UParam{}, errAt(pos, "invalid operand %q", s)
	}
	return UParam{Determined: true, Param: vm.ConstantParam(n)}, nil
}

func parseBracketOperand(pos Pos, inner string) (UParam, error) {
	if inner == "" {
		return UParam{}, errAt(pos, "empty memory operand")
	}
	if strings.HasPrefix(inner, ".") {
		name, offset, hasOffset, err := splitNameOffset(inner[1:])
		if err != nil {
			return UParam{}, errAt(pos, "invalid label offset in %q: %v", inner, err)
		}
		if !labelNameRE.MatchString(name) {
			return UParam{}, errAt(pos, "invalid label name %q", name)
		}
		if hasOffset {
			return UParam{Ref: LabelRef{Name: name, Use: UseDerefOffset, Offset: offset}}, nil
		}
		return UParam{Ref: LabelRef{Name: name, Use: UseDeref}}, nil
	}
	if n, err := strconv.ParseInt(inner, 10, 64); err == nil {
		return UParam{Determined: true, Param: vm.MemPtrParam(vm.Word(uint64(n)))}, nil
	}
	name, offset, hasOffset, err := splitNameOffset(inner)
	if err != nil {
		return UParam{}, errAt(pos, "malformed memory operand %q: %v", inner, err)
	}
	reg, ok := vm.RegisterByName(name)
	if !ok {
		return UParam{}, errAt(pos, "unknown register %q in memory operand", name)
	}
	if !hasOffset {
		offset = 0
	}
	return UParam{Determined: true, Param: vm.MemPtrOffsetParam(reg, offset)}, nil
}

// splitNameOffset splits "name+N" or "name-N" into name and signed N. If s
// has no +/- it is returned whole with hasOffset == false.
func splitNameOffset(s string) (name string, offset int64, hasOffset bool, err error) {
	idx := strings.IndexAny(s, "+-")
	if idx < 0 {
		return s, 0, false, nil
	}
	name = s[:idx]
	sign := s[idx]
	n, perr := strconv.ParseInt(s[idx+1:], 10, 64)
	if perr != nil {
		return "", 0, false, perr
	}
	if sign == '-' {
		n = -n
	}
	return name, n, true, nil
}
