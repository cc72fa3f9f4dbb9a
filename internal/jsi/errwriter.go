// This file is part of jsys - a toolchain for the J-system virtual machine.

// Package jsi holds small helpers shared by the jasm and jvm command-line
// tools.
package jsi

import (
	"fmt"
	"io"

	"github.com/pkg/errors"
)

// ErrWriter wraps an io.Writer and remembers the first error any write
// produced, so a long sequence of writes (jasm's labels.dbg symbol table)
// can be written without checking every call —
// just check Err once at the end.
type ErrWriter struct {
	w   io.Writer
	err error
}

// NewErrWriter wraps w.
func NewErrWriter(w io.Writer) *ErrWriter {
	return &ErrWriter{w: w}
}

// Write implements io.Writer, becoming a no-op once an error has occurred.
func (e *ErrWriter) Write(p []byte) (int, error) {
	if e.err != nil {
		return 0, e.err
	}
	n, err := e.w.Write(p)
	if err != nil {
		e.err = errors.Wrap(err, "write")
	}
	return n, e.err
}

// Printf writes a formatted string, recording any error the same way Write
// does.
func (e *ErrWriter) Printf(format string, args ...interface{}) {
	if e.err != nil {
		return
	}
	if _, err := fmt.Fprintf(e.w, format, args...); err != nil {
		e.err = errors.Wrap(err, "write")
	}
}

// Err returns the first error encountered, if any.
func (e *ErrWriter) Err() error { return e.err }
