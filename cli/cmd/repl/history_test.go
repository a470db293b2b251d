package repl

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestHistoryPersistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), baseHistory)

	h := NewHistory(path)
	if err := h.Load(); err != nil {
		t.Fatalf("unexpected error loading missing file: %v", err)
	}

	lines := []struct {
		line string
		mode inputMode
	}{
		{"if x bigger 1:", modeEval},
		{"    say x", modeEval},
		{"vars", modeCtrl},
		{"   ", modeEval},
	}

	for _, l := range lines {
		if err := h.Add(l.line, l.mode); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if h.Len() != 3 {
		t.Fatalf("expected 3 entries, got %d", h.Len())
	}

	reloaded := NewHistory(path)
	if err := reloaded.Load(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []HistoryEntry{
		{Line: "if x bigger 1:", Mode: modeEval},
		{Line: "    say x", Mode: modeEval},
		{Line: "vars", Mode: modeCtrl},
	}

	for i, w := range want {
		got, err := reloaded.Entry(i)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if got != w {
			t.Errorf("entry %d: expected %+v, got %+v", i, w, got)
		}
	}

	if _, err := reloaded.Entry(3); !errors.Is(err, ErrOutOfBounds) {
		t.Errorf("expected ErrOutOfBounds, got %v", err)
	}
}

func TestHistoryDuplicates(t *testing.T) {
	path := filepath.Join(t.TempDir(), baseHistory)
	h := NewHistory(path)

	for _, line := range []string{"a is 1", "b is 2", "a is 1", "a is 1"} {
		if err := h.Add(line, modeEval); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	// The same line in another mode is a distinct entry.
	if err := h.Add("a is 1", modeCtrl); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if want := "E:b is 2\nE:a is 1\nC:a is 1\n"; string(data) != want {
		t.Errorf("expected file %q, got %q", want, string(data))
	}
}

func TestHistoryInMemory(t *testing.T) {
	h := NewHistory("")

	if err := h.Load(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := h.Add("say 1", modeEval); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if e, _ := h.Entry(0); e.Line != "say 1" {
		t.Errorf("expected in-memory entry, got %+v", e)
	}
}

func TestDecodeEntry(t *testing.T) {
	tests := []struct {
		in   string
		want HistoryEntry
		ok   bool
	}{
		{"E:say 1", HistoryEntry{Line: "say 1", Mode: modeEval}, true},
		{"C:quit", HistoryEntry{Line: "quit", Mode: modeCtrl}, true},
		{"x is 2", HistoryEntry{Line: "x is 2", Mode: modeEval}, true},
		{"E:    out 1  ", HistoryEntry{Line: "    out 1", Mode: modeEval}, true},
		{"E:", HistoryEntry{}, false},
		{"", HistoryEntry{}, false},
	}

	for _, tt := range tests {
		got, ok := decodeEntry(tt.in)
		if ok != tt.ok || got != tt.want {
			t.Errorf("decodeEntry(%q) = (%+v, %v), want (%+v, %v)",
				tt.in, got, ok, tt.want, tt.ok)
		}
	}
}
