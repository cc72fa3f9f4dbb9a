// This file is part of jsys - a toolchain for the J-system virtual machine.

package asm

// SplitSections divides a preprocessed file's content into its _code and
// _rom lines, per spec §4.2. A file flagged nocode contributes no code
// section (its whole content is rom); norom is the mirror image; both
// together mean the file carries only preprocessor state and must have no
// body content.
func SplitSections(fr *FileRecord) (code, rom []RawLine, err error) {
	_, nocode := fr.Flags["nocode"]
	_, norom := fr.Flags["norom"]

	switch {
	case nocode && norom:
		if len(fr.Content) > 0 {
			return nil, nil, errAt(fr.Content[0].Pos, "file has both nocode and norom set but contains content")
		}
		return nil, nil, nil
	case nocode:
		return nil, stripHeaders(fr.Content), nil
	case norom:
		return stripHeaders(fr.Content), nil, nil
	default:
		return splitByHeaders(fr)
	}
}

func stripHeaders(lines []RawLine) []RawLine {
	var out []RawLine
	for _, l := range lines {
		if l.Text == "_code" || l.Text == "_rom" {
			continue
		}
		out = append(out, l)
	}
	return out
}

func splitByHeaders(fr *FileRecord) (code, rom []RawLine, err error) {
	content := fr.Content
	if len(content) == 0 {
		return nil, nil, errAt(Pos{File: fr.Name, Line: 0}, "empty file: expected a _code or _rom section header")
	}
	first := content[0].Text
	if first != "_code" && first != "_rom" {
		return nil, nil, errAt(content[0].Pos, "first line must be _code or _rom, got %q", first)
	}
	section := first
	for _, l := range content[1:] {
		if l.Text == "_code" || l.Text == "_rom" {
			section = l.Text
			continue
		}
		if section == "_code" {
			code = append(code, l)
		} else {
			rom = append(rom, l)
		}
	}
	return code, rom, nil
}
