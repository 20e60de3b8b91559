package main

import (
	"bytes"
	"os"
	"strings"
	"testing"
)

func TestRun(t *testing.T) {
	var out, errOut bytes.Buffer
	if code := run([]string{"-depth", "2"}, &out, &errOut); code != 0 {
		t.Fatalf("exit code = %d, stderr %q", code, errOut.String())
	}
	if !strings.HasPrefix(out.String(), "nodes 400\n") {
		t.Errorf("output = %q", out.String())
	}

	out.Reset()
	if code := run([]string{"-depth", "1", "-divide"}, &out, &errOut); code != 0 {
		t.Fatalf("divide exit code = %d", code)
	}
	if !strings.Contains(out.String(), "e2e4: 1\n") || !strings.Contains(out.String(), "nodes 20\n") {
		t.Errorf("divide output = %q", out.String())
	}
}

func TestRunBadFENWritesNoProfile(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chdir(wd) })

	var out, errOut bytes.Buffer
	if code := run([]string{"-fen", "not a position", "-profile", "cpu"}, &out, &errOut); code != 1 {
		t.Fatalf("exit code = %d, want 1", code)
	}
	if errOut.Len() == 0 {
		t.Error("expected the parse error on stderr")
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("profile files left behind: %v", entries)
	}
}

func TestRunUnknownProfileMode(t *testing.T) {
	var out, errOut bytes.Buffer
	if code := run([]string{"-profile", "block"}, &out, &errOut); code != 2 {
		t.Errorf("exit code = %d, want 2", code)
	}
}
