// This file is part of jsys - a toolchain for the J-system virtual machine.

package asm

import (
	"regexp"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/samber/lo"
)

// ExportKind distinguishes a label export from a define export in the
// #export directive ("$"-prefixed names are defines).
type ExportKind int

const (
	LabelExport ExportKind = iota
	DefineExport
)

// ExportKey names one exported symbol.
type ExportKey struct {
	Name string
	Kind ExportKind
}

// FileRecord is one file's preprocessed state: its content with includes
// and defines resolved, the names it exports, the names made visible to it
// by its direct includes, and its file-scoped flags.
type FileRecord struct {
	Name    string
	Content []RawLine
	Exports map[ExportKey]bool
	Visible map[ExportKey]string // exported symbol -> origin filename
	Defines map[string]string    // effective defines: local ∪ visible
	Flags   map[string]string
	Includes []string // direct includes, in source order
}

// FileReader loads the raw text of an included file by name.
type FileReader func(name string) (string, error)

var labelNameRE = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)
var defineNameRE = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
var forbiddenFilenameChars = `<>:"/\|?*`

// Preprocess builds the include graph rooted at root and returns every
// visited file's preprocessed record, keyed by filename.
func Preprocess(root string, read FileReader) (map[string]*FileRecord, error) {
	files := make(map[string]*FileRecord)
	loading := make(map[string]bool)

	var load func(name string) (*FileRecord, error)
	load = func(name string) (*FileRecord, error) {
		if fr, ok := files[name]; ok {
			return fr, nil
		}
		if loading[name] {
			// Cycle: treat as already included, contributing nothing further.
			return nil, nil
		}
		loading[name] = true
		defer delete(loading, name)

		src, err := read(name)
		if err != nil {
			return nil, errors.Wrapf(err, "include %q", name)
		}
		raw := Lex(name, src)

		fr := &FileRecord{
			Name:    name,
			Exports: make(map[ExportKey]bool),
			Visible: make(map[ExportKey]string),
			Defines: make(map[string]string),
			Flags:   make(map[string]string),
		}
		localDefines := make(map[string]string)
		var content []RawLine

		for _, l := range raw {
			if !strings.HasPrefix(l.Text, "#") {
				content = append(content, l)
				continue
			}
			fields := strings.Fields(l.Text)
			switch fields[0] {
			case "#include":
				if len(fields) != 2 {
					return nil, errAt(l.Pos, "#include requires exactly one filename")
				}
				inc := fields[1]
				if strings.ContainsAny(inc, forbiddenFilenameChars) {
					return nil, errAt(l.Pos, "invalid filename %q", inc)
				}
				if inc == name {
					continue // self-includes are ignored
				}
				fr.Includes = append(fr.Includes, inc)
				child, err := load(inc)
				if err != nil {
					return nil, err
				}
				if child == nil {
					continue // cyclic back-reference, already handled
				}
				for key := range child.Exports {
					origin, dup := fr.Visible[key]
					if dup && origin != inc {
						return nil, errAt(l.Pos, "%q is visible from two distinct includes (%s, %s)", key.Name, origin, inc)
					}
					fr.Visible[key] = inc
				}

			case "#define":
				if len(fields) < 2 {
					return nil, errAt(l.Pos, "#define requires a name")
				}
				dname := fields[1]
				if !defineNameRE.MatchString(dname) {
					return nil, errAt(l.Pos, "invalid define name %q", dname)
				}
				value := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(strings.TrimPrefix(l.Text, "#define")), dname))
				if _, dup := localDefines[dname]; dup {
					return nil, errAt(l.Pos, "double definition of %q", dname)
				}
				localDefines[dname] = value

			case "#export":
				rest := strings.TrimSpace(strings.TrimPrefix(l.Text, "#export"))
				if rest == "" {
					return nil, errAt(l.Pos, "#export requires at least one name")
				}
				for _, tok := range strings.Split(rest, ",") {
					tok = strings.TrimSpace(tok)
					if tok == "" {
						return nil, errAt(l.Pos, "empty export entry")
					}
					if strings.HasPrefix(tok, "$") {
						dname := tok[1:]
						if !defineNameRE.MatchString(dname) {
							return nil, errAt(l.Pos, "invalid export name %q", tok)
						}
						fr.Exports[ExportKey{Name: dname, Kind: DefineExport}] = true
					} else {
						if !labelNameRE.MatchString(tok) {
							return nil, errAt(l.Pos, "invalid export name %q", tok)
						}
						fr.Exports[ExportKey{Name: tok, Kind: LabelExport}] = true
					}
				}

			case "#set":
				if len(fields) < 2 {
					return nil, errAt(l.Pos, "#set requires a flag name")
				}
				val := ""
				if len(fields) >= 3 {
					val = strings.Join(fields[2:], " ")
				}
				fr.Flags[fields[1]] = val

			default:
				return nil, errAt(l.Pos, "unknown directive %q", fields[0])
			}
		}

		// Effective defines: local ∪ every define made visible by an include.
		for dname, val := range localDefines {
			fr.Defines[dname] = val
		}
		for key, origin := range fr.Visible {
			if key.Kind != DefineExport {
				continue
			}
			if _, dup := fr.Defines[key.Name]; dup {
				return nil, errors.Errorf("%s: double definition of %q (local and visible from %s)", name, key.Name, origin)
			}
			fr.Defines[key.Name] = files[origin].Defines[key.Name]
		}

		fr.Content, err = substituteDefines(content, fr.Defines)
		if err != nil {
			return nil, err
		}
		files[name] = fr
		return fr, nil
	}

	if _, err := load(root); err != nil {
		return nil, err
	}
	return files, nil
}

var defineTokenRE = regexp.MustCompile(`\$[A-Za-z_][A-Za-z0-9_]*`)

// substituteDefines replaces every $name token in lines with its value from
// defines, repeatedly (so a define's value may itself reference another
// define), failing if a token never resolves.
func substituteDefines(lines []RawLine, defines map[string]string) ([]RawLine, error) {
	out := make([]RawLine, len(lines))
	for i, l := range lines {
		text := l.Text
		for pass := 0; pass < 32 && strings.ContainsRune(text, '$'); pass++ {
			changed := false
			text = defineTokenRE.ReplaceAllStringFunc(text, func(tok string) string {
				name := tok[1:]
				if v, ok := defines[name]; ok {
					changed = true
					return v
				}
				return tok
			})
			if !changed {
				break
			}
		}
		if idx := strings.IndexRune(text, '$'); idx >= 0 {
			if m := defineTokenRE.FindString(text[idx:]); m != "" {
				return nil, errAt(l.Pos, "unknown define %q", m[1:])
			}
		}
		out[i] = RawLine{Pos: l.Pos, Text: text}
	}
	return out, nil
}

// stableFileOrder returns file names from files in a deterministic order
// (root first, then the rest sorted), used by the linker to lay out
// per-file ROM/code segments reproducibly.
func stableFileOrder(root string, files map[string]*FileRecord) []string {
	names := lo.Keys(files)
	names = lo.Without(names, root)
	names = lo.Uniq(names)
	sort.Strings(names)
	return append([]string{root}, names...)
}
