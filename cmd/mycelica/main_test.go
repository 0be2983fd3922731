package main

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestTruncID(t *testing.T) {
	if got := truncID("abcdefghij"); got != "abcdefgh" {
		t.Errorf("truncID = %q, want %q", got, "abcdefgh")
	}
	if got := truncID("short"); got != "short" {
		t.Errorf("truncID = %q, want %q", got, "short")
	}
}

func TestTruncTitleUTF8Boundary(t *testing.T) {
	// "étude" repeated pushes a multi-byte rune across the cut point.
	s := strings.Repeat("étude", 10)
	got := truncTitle(s, 11)
	if !strings.HasSuffix(got, "...") {
		t.Fatalf("truncTitle = %q, want ... suffix", got)
	}
	if !utf8.ValidString(got) {
		t.Errorf("truncTitle produced invalid UTF-8: %q", got)
	}
}

func TestTruncTitleShortUnchanged(t *testing.T) {
	if got := truncTitle("ok", 40); got != "ok" {
		t.Errorf("truncTitle = %q, want %q", got, "ok")
	}
}

func TestRootCommandHasSubcommands(t *testing.T) {
	want := map[string]bool{
		"analyze": false,
		"rebuild": false,
		"serve":   false,
		"mcp":     false,
		"config":  false,
		"stats":   false,
	}
	for _, c := range rootCmd.Commands() {
		if _, ok := want[c.Name()]; ok {
			want[c.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("subcommand %q not registered", name)
		}
	}
}
