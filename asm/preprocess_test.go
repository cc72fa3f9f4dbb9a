// This file is part of jsys - a toolchain for the J-system virtual machine.

package asm

import (
	"fmt"
	"testing"
)

func mapReader(files map[string]string) FileReader {
	return func(name string) (string, error) {
		s, ok := files[name]
		if !ok {
			return "", fmt.Errorf("no such file %q", name)
		}
		return s, nil
	}
}

func TestPreprocessIncludeGraph(t *testing.T) {
	files := map[string]string{
		"main.asm": "#include lib.asm\n_code\ncall .helper\n",
		"lib.asm":  "#export helper\n_code\n.helper:\nret 0\n",
	}
	recs, err := Preprocess("main.asm", mapReader(files))
	if err != nil {
		t.Fatalf("Preprocess: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("got %d records, want 2", len(recs))
	}
	main := recs["main.asm"]
	key := ExportKey{Name: "helper", Kind: LabelExport}
	if origin := main.Visible[key]; origin != "lib.asm" {
		t.Errorf("main.asm should see helper via lib.asm, got origin %q", origin)
	}
}

func TestPreprocessNonTransitiveVisibility(t *testing.T) {
	// main includes mid, mid includes leaf, and only leaf exports x;
	// main must NOT see leaf's exports through mid.
	files := map[string]string{
		"main.asm": "#include mid.asm\n_code\n",
		"mid.asm":  "#include leaf.asm\n_code\n",
		"leaf.asm": "#export x\n_code\n.x:\nret 0\n",
	}
	recs, err := Preprocess("main.asm", mapReader(files))
	if err != nil {
		t.Fatalf("Preprocess: %v", err)
	}
	key := ExportKey{Name: "x", Kind: LabelExport}
	if _, ok := recs["main.asm"].Visible[key]; ok {
		t.Error("main.asm must not see leaf.asm's export transitively through mid.asm")
	}
	if _, ok := recs["mid.asm"].Visible[key]; !ok {
		t.Error("mid.asm should see leaf.asm's direct export")
	}
}

func TestPreprocessCyclicIncludeDoesNotLoopForever(t *testing.T) {
	files := map[string]string{
		"a.asm": "#include b.asm\n_code\n",
		"b.asm": "#include a.asm\n_code\n",
	}
	if _, err := Preprocess("a.asm", mapReader(files)); err != nil {
		t.Fatalf("Preprocess should tolerate an include cycle, got: %v", err)
	}
}

func TestPreprocessDoubleIncludeOfSameExportErrors(t *testing.T) {
	files := map[string]string{
		"main.asm": "#include a.asm\n#include b.asm\n_code\n",
		"a.asm":    "#export shared\n_code\n.shared:\nret 0\n",
		"b.asm":    "#export shared\n_code\n.shared:\nret 0\n",
	}
	if _, err := Preprocess("main.asm", mapReader(files)); err == nil {
		t.Error("two direct includes exporting the same name must be rejected")
	}
}

func TestPreprocessDoubleDefineErrors(t *testing.T) {
	files := map[string]string{
		"main.asm": "#define N 1\n#define N 2\n_code\n",
	}
	if _, err := Preprocess("main.asm", mapReader(files)); err == nil {
		t.Error("redefining the same name in one file must be rejected")
	}
}

func TestPreprocessDefineSubstitution(t *testing.T) {
	files := map[string]string{
		"main.asm": "#define N 3\n_code\nmov a, $N\n",
	}
	recs, err := Preprocess("main.asm", mapReader(files))
	if err != nil {
		t.Fatalf("Preprocess: %v", err)
	}
	got := recs["main.asm"].Content[0].Text
	if got != "mov a, 3" {
		t.Errorf("Content[0].Text = %q, want %q", got, "mov a, 3")
	}
}

func TestPreprocessUnknownDefineErrors(t *testing.T) {
	files := map[string]string{
		"main.asm": "_code\nmov a, $NOPE\n",
	}
	if _, err := Preprocess("main.asm", mapReader(files)); err == nil {
		t.Error("referencing an undefined $token must error")
	}
}

func TestPreprocessExportDefineSyntax(t *testing.T) {
	files := map[string]string{
		"main.asm": "#include lib.asm\n_code\nmov a, $VAL\n",
		"lib.asm":  "#define VAL 9\n#export $VAL\n_code\n",
	}
	recs, err := Preprocess("main.asm", mapReader(files))
	if err != nil {
		t.Fatalf("Preprocess: %v", err)
	}
	got := recs["main.asm"].Content[0].Text
	if got != "mov a, 9" {
		t.Errorf("Content[0].Text = %q, want %q", got, "mov a, 9")
	}
}

func TestStableFileOrderPutsRootFirstThenSorted(t *testing.T) {
	files := map[string]*FileRecord{
		"main.asm": {},
		"zzz.asm":  {},
		"aaa.asm":  {},
	}
	order := stableFileOrder("main.asm", files)
	want := []string{"main.asm", "aaa.asm", "zzz.asm"}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("order[%d] = %q, want %q", i, order[i], want[i])
		}
	}
}
