package ui

import (
	"strings"
	"testing"
)

func TestTableAlignment(t *testing.T) {
	prev := colorEnabled
	colorEnabled = false
	defer func() { colorEnabled = prev }()

	var sb strings.Builder
	Table(&sb, []string{"id", "name"}, [][]string{
		{"1", "short"},
		{"long-id-value", "x"},
	})

	want := strings.Join([]string{
		"id            | name ",
		"--------------+------",
		"1             | short",
		"long-id-value | x    ",
		"",
	}, "\n")
	if sb.String() != want {
		t.Errorf("table output:\n%q\nwant:\n%q", sb.String(), want)
	}
}

func TestTableEmpty(t *testing.T) {
	var sb strings.Builder
	Table(&sb, []string{"id"}, nil)
	if sb.String() != "(no data)\n" {
		t.Errorf("empty table = %q", sb.String())
	}
}

func TestTableShortRow(t *testing.T) {
	prev := colorEnabled
	colorEnabled = false
	defer func() { colorEnabled = prev }()

	var sb strings.Builder
	Table(&sb, []string{"a", "b"}, [][]string{{"only"}})
	lines := strings.Split(strings.TrimRight(sb.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines: %q", len(lines), sb.String())
	}
	if lines[2] != "only |  " {
		t.Errorf("short row = %q", lines[2])
	}
}
