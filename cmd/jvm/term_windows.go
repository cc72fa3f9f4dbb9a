// This file is part of jsys - a toolchain for the J-system virtual machine.

//go:build windows

package main

// consoleWidth has no portable ioctl equivalent wired up for Windows
// consoles; the debugger falls back to a conventional 80-column width.
func consoleWidth() int { return 80 }
