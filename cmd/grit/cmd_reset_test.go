package main

import (
	"strings"
	"testing"

	"github.com/odvcencio/grit/pkg/repo"
	"github.com/spf13/cobra"
)

func TestPickResetMode(t *testing.T) {
	mode, explicit, err := pickResetMode(false, false, false, false, false)
	if err != nil || explicit || mode != repo.ResetNone {
		t.Errorf("no flags: mode=%v explicit=%v err=%v", mode, explicit, err)
	}

	mode, explicit, err = pickResetMode(false, false, true, false, false)
	if err != nil || !explicit || mode != repo.ResetHard {
		t.Errorf("--hard: mode=%v explicit=%v err=%v", mode, explicit, err)
	}

	if _, _, err := pickResetMode(true, true, false, false, false); err == nil {
		t.Error("two mode flags should be rejected")
	}
}

func TestReadPathsFromStdinLines(t *testing.T) {
	cmd := &cobra.Command{}
	cmd.SetIn(strings.NewReader("a.txt\r\npkg/b.go\n\nc.txt"))

	paths, err := readPathsFromStdin(cmd, false)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	want := []string{"a.txt", "pkg/b.go", "c.txt"}
	if len(paths) != len(want) {
		t.Fatalf("paths = %v, want %v", paths, want)
	}
	for i := range want {
		if paths[i] != want[i] {
			t.Errorf("paths[%d] = %q, want %q", i, paths[i], want[i])
		}
	}
}

func TestReadPathsFromStdinUnquotesLines(t *testing.T) {
	cmd := &cobra.Command{}
	cmd.SetIn(strings.NewReader("\"with space.txt\"\n\"tab\\there\"\nplain.txt\n"))

	paths, err := readPathsFromStdin(cmd, false)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	want := []string{"with space.txt", "tab\there", "plain.txt"}
	if len(paths) != len(want) {
		t.Fatalf("paths = %q, want %q", paths, want)
	}
	for i := range want {
		if paths[i] != want[i] {
			t.Errorf("paths[%d] = %q, want %q", i, paths[i], want[i])
		}
	}

	cmd = &cobra.Command{}
	cmd.SetIn(strings.NewReader("\"unterminated\n"))
	if _, err := readPathsFromStdin(cmd, false); err == nil {
		t.Error("badly quoted line should be rejected")
	}
}

func TestReadPathsFromStdinNulSeparated(t *testing.T) {
	cmd := &cobra.Command{}
	cmd.SetIn(strings.NewReader("with\nnewline\x00plain.txt\x00"))

	paths, err := readPathsFromStdin(cmd, true)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(paths) != 2 || paths[0] != "with\nnewline" || paths[1] != "plain.txt" {
		t.Errorf("paths = %q", paths)
	}
}

func TestResetNulFlagRegistration(t *testing.T) {
	f := newResetCmd().Flags().Lookup("null")
	if f == nil {
		t.Fatal("--null flag not registered")
	}
	if f.Shorthand != "z" {
		t.Errorf("shorthand = %q, want z", f.Shorthand)
	}
}

func TestValidateRecurseSubmodules(t *testing.T) {
	for _, v := range []string{"", "on", "no", "yes"} {
		if err := validateRecurseSubmodules(v); err != nil {
			t.Errorf("value %q rejected: %v", v, err)
		}
	}
	if err := validateRecurseSubmodules("sideways"); err == nil {
		t.Error("bogus value accepted")
	}
}

func TestLooksLikeRevision(t *testing.T) {
	full := strings.Repeat("ab", 32)
	if !looksLikeRevision(full) {
		t.Errorf("%q should look like a revision", full)
	}
	for _, s := range []string{"main", "a.txt", strings.Repeat("g", 64), full[:40]} {
		if looksLikeRevision(s) {
			t.Errorf("%q should not look like a revision", s)
		}
	}
}
