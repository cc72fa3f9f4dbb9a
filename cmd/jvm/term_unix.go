// This file is part of jsys - a toolchain for the J-system virtual machine.

//go:build !windows

package main

import (
	"os"

	"golang.org/x/sys/unix"
)

// consoleWidth queries the terminal's column count via TIOCGWINSZ, the
// same ioctl the teacher's raw-tty setup uses to size its VT100 surface;
// here it only informs how wide the debugger wraps its "ps" output.
func consoleWidth() int {
	ws, err := unix.IoctlGetWinsize(int(os.Stdout.Fd()), unix.TIOCGWINSZ)
	if err != nil || ws.Col == 0 {
		return 80
	}
	return int(ws.Col)
}
