// This file is part of jsys - a toolchain for the J-system virtual machine.

// Package asm implements the J-system assembler: a multi-file preprocessor
// (#include/#define/#export/#set), a per-file instruction and ROM-data
// parser, and a two-pass linker that resolves labels to absolute addresses
// and emits the packed word stream the vm package executes.
//
// The pipeline mirrors the source's own structure: lex splits a file into
// numbered, comment-stripped lines; preprocess resolves the include graph
// and define substitution; parse splits _code/_rom sections and produces
// per-file records of unlinked instructions and ROM data; link merges
// those records into one absolute-addressed image.
package asm
