package repl

import (
	"bufio"
	"errors"
	"io/fs"
	"os"
	"slices"
	"strings"
	"sync"
)

const baseHistory = "history.utf8"

// HistoryEntry is one submitted line and the mode it was entered in.
type HistoryEntry struct {
	Line string
	Mode inputMode
}

// History is the line history persisted between sessions.
//
// Each line of the history file is prefixed with "E:" (eval) or "C:"
// (command). Leading indentation is preserved so block bodies can be
// recalled as typed.
type History struct {
	path    string
	entries []HistoryEntry
	mu      sync.RWMutex
}

// NewHistory returns a History backed by the file at path.
// An empty path keeps history in memory only.
func NewHistory(path string) *History {
	return &History{path: path}
}

// Load replaces the in-memory entries with the contents of the history file.
// A missing file is not an error.
func (h *History) Load() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.path == "" {
		return nil
	}

	file, err := os.Open(h.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}

	if err != nil {
		return err
	}
	defer file.Close()

	h.entries = nil

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		if e, ok := decodeEntry(scanner.Text()); ok {
			h.entries = append(h.entries, e)
		}
	}

	return scanner.Err()
}

// Add appends line to the history. An earlier identical entry is moved to
// the end rather than duplicated.
func (h *History) Add(line string, mode inputMode) error {
	line = strings.TrimRight(line, " \t\r\n")
	if strings.TrimSpace(line) == "" {
		return nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	entry := HistoryEntry{Line: line, Mode: mode}

	if n := len(h.entries); n > 0 && h.entries[n-1] == entry {
		return nil
	}

	if i := slices.Index(h.entries, entry); i >= 0 {
		h.entries = slices.Delete(h.entries, i, i+1)
		h.entries = append(h.entries, entry)

		return h.rewrite()
	}

	h.entries = append(h.entries, entry)

	if h.path == "" {
		return nil
	}

	file, err := os.OpenFile(h.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	defer file.Close()

	_, err = file.WriteString(encodeEntry(entry))

	return err
}

// Entry returns the entry at index i, where 0 is the oldest.
func (h *History) Entry(i int) (HistoryEntry, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if i < 0 || i >= len(h.entries) {
		return HistoryEntry{}, ErrOutOfBounds
	}

	return h.entries[i], nil
}

// Len returns the number of entries.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.entries)
}

// rewrite replaces the history file with the current entries.
// Must be called with h.mu held.
func (h *History) rewrite() error {
	if h.path == "" {
		return nil
	}

	var b strings.Builder
	for _, e := range h.entries {
		b.WriteString(encodeEntry(e))
	}

	return os.WriteFile(h.path, []byte(b.String()), 0o600)
}

func encodeEntry(e HistoryEntry) string {
	if e.Mode == modeCtrl {
		return "C:" + e.Line + "\n"
	}

	return "E:" + e.Line + "\n"
}

func decodeEntry(s string) (HistoryEntry, bool) {
	s = strings.TrimRight(s, " \t\r")

	mode := modeEval
	if rest, ok := strings.CutPrefix(s, "C:"); ok {
		mode, s = modeCtrl, rest
	} else if rest, ok := strings.CutPrefix(s, "E:"); ok {
		s = rest
	}

	if strings.TrimSpace(s) == "" {
		return HistoryEntry{}, false
	}

	return HistoryEntry{Line: s, Mode: mode}, true
}
