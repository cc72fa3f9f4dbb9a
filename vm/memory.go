// This file is part of jsys - a toolchain for the J-system virtual machine.

package vm

import "github.com/pkg/errors"

// Memory is the VM's single flat word array, addressed from 0 to
// mem_size-1. Address 0 is an immutable null sentinel: reads at 0 always
// fail, matching the reference implementation (the loader is free to place
// a ROM word there, but no instruction can ever read it back).
type Memory struct {
	words   []Word
	romEnd  Word // one past the last ROM address
	codeEnd Word // one past the last code address; start of the heap range
}

// NewMemory allocates a zeroed memory of the given size, in words. size must
// be large enough to hold the loaded ROM, code and a usable stack/heap
// region; the caller (typically the CLI's --mem-size flag) is responsible
// for sizing it.
func NewMemory(size int) *Memory {
	return &Memory{words: make([]Word, size)}
}

// Size returns the total number of addressable words.
func (m *Memory) Size() Word { return Word(len(m.words)) }

// CodeEnd returns the first address past the end of the code section. The
// heap allocator uses only addresses above it, and push refuses to move tos
// down to it.
func (m *Memory) CodeEnd() Word { return m.codeEnd }

// Load places rom at addresses [0, len(rom)) and code immediately after it,
// recording the boundary used by the heap allocator and the stack. This is
// the only path by which address 0 is ever written.
func (m *Memory) Load(rom, code []Word) error {
	if len(rom)+len(code) > len(m.words) {
		return errors.Errorf("image (%d rom + %d code words) does not fit in %d words of memory", len(rom), len(code), len(m.words))
	}
	copy(m.words, rom)
	copy(m.words[len(rom):], code)
	m.romEnd = Word(len(rom))
	m.codeEnd = Word(len(rom) + len(code))
	return nil
}

// Read returns the word at addr. Reading address 0 or an out-of-range
// address is an error.
func (m *Memory) Read(addr Word) (Word, error) {
	if addr == 0 {
		return 0, errors.New("read from null address")
	}
	if addr >= Word(len(m.words)) {
		return 0, errors.Errorf("address %d out of range (mem size %d)", addr, len(m.words))
	}
	return m.words[addr], nil
}

// Write stores v at addr. Writing address 0 is permitted only as part of
// Load; direct writes to it are rejected the same way reads are.
func (m *Memory) Write(addr Word, v Word) error {
	if addr == 0 {
		return errors.New("write to null address")
	}
	if addr >= Word(len(m.words)) {
		return errors.Errorf("address %d out of range (mem size %d)", addr, len(m.words))
	}
	m.words[addr] = v
	return nil
}

// DecodeString reads the null-terminated, uncompressed ASCII string stored
// at addr (one byte per word). The trailing 0 word is not included.
func (m *Memory) DecodeString(addr Word) (string, error) {
	var b []byte
	for a := addr; ; a++ {
		v, err := m.Read(a)
		if err != nil {
			return "", errors.Wrapf(err, "decode string at %d", addr)
		}
		if v == 0 {
			break
		}
		if v > 127 {
			return "", errors.Errorf("non-ASCII value %d at address %d", v, a)
		}
		b = append(b, byte(v))
	}
	return string(b), nil
}

// EncodeString writes s as one word per byte starting at addr, followed by
// a null terminator word. Every byte of s must be ASCII.
func (m *Memory) EncodeString(addr Word, s string) error {
	a := addr
	for i := 0; i < len(s); i++ {
		if s[i] > 127 {
			return errors.Errorf("non-ASCII byte in string at offset %d", i)
		}
		if err := m.Write(a, Word(s[i])); err != nil {
			return err
		}
		a++
	}
	return m.Write(a, 0)
}
