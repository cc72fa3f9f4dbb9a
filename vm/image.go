// This file is part of jsys - a toolchain for the J-system virtual machine.

package vm

import (
	"bufio"
	"fmt"
	"io"
	"strconv"

	"github.com/pkg/errors"
)

// LoadImage reads a binary image from r: a flat stream of 64-bit words
// stored textually as one decimal integer per line, laid out as
// rom words, then code words, then the ROM length, then the start address.
func LoadImage(r io.Reader) (rom, code []Word, start Word, err error) {
	var words []Word
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		line := sc.Text()
		if line == "" {
			continue
		}
		v, perr := strconv.ParseUint(line, 10, 64)
		if perr != nil {
			return nil, nil, 0, errors.Wrapf(perr, "parse image word %q", line)
		}
		words = append(words, Word(v))
	}
	if err := sc.Err(); err != nil {
		return nil, nil, 0, errors.Wrap(err, "read image")
	}
	if len(words) < 2 {
		return nil, nil, 0, errors.Errorf("image too short: need at least rom-length and start words, got %d", len(words))
	}

	start = words[len(words)-1]
	romLen := words[len(words)-2]
	payload := words[:len(words)-2]
	if int(romLen) > len(payload) {
		return nil, nil, 0, errors.Errorf("image declares rom length %d but only %d payload words present", romLen, len(payload))
	}
	rom = payload[:romLen]
	code = payload[romLen:]
	return rom, code, start, nil
}

// SaveImage writes rom, code and start to w in the same textual layout
// LoadImage reads.
func SaveImage(w io.Writer, rom, code []Word, start Word) error {
	bw := bufio.NewWriter(w)
	writeWord := func(v Word) error {
		_, err := fmt.Fprintln(bw, uint64(v))
		return err
	}
	for _, v := range rom {
		if err := writeWord(v); err != nil {
			return errors.Wrap(err, "write rom word")
		}
	}
	for _, v := range code {
		if err := writeWord(v); err != nil {
			return errors.Wrap(err, "write code word")
		}
	}
	if err := writeWord(Word(len(rom))); err != nil {
		return errors.Wrap(err, "write rom length")
	}
	if err := writeWord(start); err != nil {
		return errors.Wrap(err, "write start address")
	}
	return bw.Flush()
}
