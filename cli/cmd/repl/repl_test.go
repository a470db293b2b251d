package repl

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ardnew/pebble/lang"
	"github.com/ardnew/pebble/log"
)

func newTestModel(t *testing.T) model {
	t.Helper()

	b := newBridge(t.Context().Done())
	newInterp := func() *lang.Interpreter {
		return lang.New(lang.WithInput(b), lang.WithOutput(b))
	}

	return newModel(t.Context(), newInterp, b, NewHistory(""), log.Logger{})
}

func run(t *testing.T, m model, source string) {
	t.Helper()

	if _, err := m.interp.Run(t.Context(), source); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func submit(m model, line string) (model, tea.Cmd) {
	m.input.SetValue(line)
	m.input.CursorEnd()

	return m.executeInput()
}

func TestBlockEntry(t *testing.T) {
	m := newTestModel(t)

	m, _ = submit(m, "if x bigger 1:")

	if len(m.block) != 1 || m.running {
		t.Fatalf("expected an open block, got %q (running=%v)", m.block, m.running)
	}

	if got := m.input.Value(); got != "    " {
		t.Errorf("expected body indentation, got %q", got)
	}

	m, _ = submit(m, "    go i in xs:")

	if got := m.input.Value(); got != "        " {
		t.Errorf("expected nested indentation, got %q", got)
	}

	m, _ = submit(m, "        say i")

	if got := m.input.Value(); got != "        " {
		t.Errorf("expected same indentation, got %q", got)
	}

	m, cmd := submit(m, "")

	if m.block != nil || !m.running || cmd == nil {
		t.Fatalf("expected the block to start running, got %q (running=%v)", m.block, m.running)
	}

	if m.history.Len() != 3 {
		t.Errorf("expected each block line in history, got %d entries", m.history.Len())
	}
}

func TestSubmitWhileRunning(t *testing.T) {
	m := newTestModel(t)

	m, _ = submit(m, "say 1")
	if !m.running {
		t.Fatal("expected evaluation to start")
	}

	m, cmd := submit(m, "say 2")
	if cmd != nil || m.history.Len() != 1 {
		t.Error("expected input to be ignored while running")
	}

	m, _ = m.finish(evalDoneMsg{value: lang.Int(1)})
	if m.running {
		t.Error("expected evaluation to finish")
	}
}

func TestOutputAndInput(t *testing.T) {
	m := newTestModel(t)
	m.running = true

	m, cmd := m.appendOutput("one\ntw")
	if cmd == nil || m.pending != "tw" {
		t.Fatalf("expected a printed line and pending %q, got %q", "tw", m.pending)
	}

	m, cmd = m.appendOutput("o? ")
	if cmd != nil || m.pending != "two? " {
		t.Fatalf("expected pending prompt, got %q", m.pending)
	}

	updated, _ := m.Update(inputRequestMsg{})
	m = updated.(model)

	if !m.awaiting || !strings.Contains(m.input.Prompt, "two?") {
		t.Fatalf("expected to await input with the prompt, got %q", m.input.Prompt)
	}

	m, _ = submit(m, "Ada")

	if m.awaiting || m.pending != "" {
		t.Error("expected the answer to clear the pending prompt")
	}

	select {
	case line := <-m.bridge.lines:
		if line.text != "Ada" || line.eof {
			t.Errorf("expected delivered line Ada, got %+v", line)
		}
	default:
		t.Error("expected a delivered line")
	}
}

func TestFinish(t *testing.T) {
	m := newTestModel(t)
	m.running = true
	m.pending = "partial"

	m, cmd := m.finish(evalDoneMsg{err: lang.ErrSyntax})
	if m.running || m.pending != "" || cmd == nil {
		t.Errorf("unexpected state after error: running=%v pending=%q", m.running, m.pending)
	}

	m, cmd = m.finish(evalDoneMsg{value: lang.Null()})
	if cmd == nil {
		t.Error("expected a command sequence")
	}
}

func TestCommands(t *testing.T) {
	m := newTestModel(t)
	run(t, m, "fnc add(a, b):\n    out a + b\ntotal is 3")

	if got := m.listVars(); !strings.Contains(got, "total") || !strings.Contains(got, "3") {
		t.Errorf("expected total in vars listing, got %q", got)
	}

	if got := m.listFuncs(); !strings.Contains(got, "add(a, b)") {
		t.Errorf("expected add signature in funcs listing, got %q", got)
	}

	m.mode = modeCtrl

	m, _ = submit(m, "reset")

	if len(m.interp.Vars()) != 0 || len(m.interp.Funcs()) != 0 {
		t.Error("expected reset to discard variables and functions")
	}

	if got := m.listVars(); !strings.Contains(got, "no variables") {
		t.Errorf("expected empty vars listing, got %q", got)
	}

	m, _ = submit(m, "load "+t.TempDir()+"/missing.peb")
	if m.running {
		t.Error("expected missing file not to start an evaluation")
	}

	m, _ = submit(m, "quit")
	if !m.quitting {
		t.Error("expected quit to end the session")
	}
}

func TestModeToggle(t *testing.T) {
	m := newTestModel(t)
	m.input.SetValue("x is 1")

	m, _ = m.toggleMode()
	if m.mode != modeCtrl || m.input.Value() != "" {
		t.Fatalf("expected empty command input, got %q", m.input.Value())
	}

	m.input.SetValue("he")

	m, _ = m.toggleMode()
	if m.mode != modeEval || m.input.Value() != "x is 1" {
		t.Errorf("expected eval input restored, got %q", m.input.Value())
	}

	m, _ = m.toggleMode()
	if m.input.Value() != "he" {
		t.Errorf("expected command input restored, got %q", m.input.Value())
	}
}

func TestHistoryStep(t *testing.T) {
	m := newTestModel(t)

	for _, e := range []HistoryEntry{
		{Line: "x is 1", Mode: modeEval},
		{Line: "vars", Mode: modeCtrl},
	} {
		if err := m.history.Add(e.Line, e.Mode); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	m.historyIdx = m.history.Len()

	m, _ = m.historyStep(-1)
	if m.input.Value() != "vars" || m.mode != modeCtrl {
		t.Errorf("expected command entry, got %q in mode %d", m.input.Value(), m.mode)
	}

	m, _ = m.historyStep(-1)
	if m.input.Value() != "x is 1" || m.mode != modeEval {
		t.Errorf("expected eval entry, got %q in mode %d", m.input.Value(), m.mode)
	}

	m, _ = m.historyStep(-1)
	if m.historyIdx != 0 {
		t.Errorf("expected to stay at the oldest entry, got %d", m.historyIdx)
	}

	m, _ = m.historyStep(1)
	m, _ = m.historyStep(1)

	if m.input.Value() != "" || m.historyIdx != m.history.Len() {
		t.Errorf("expected cleared input past the newest entry, got %q", m.input.Value())
	}
}

func TestCycle(t *testing.T) {
	m := newTestModel(t)
	run(t, m, "apple is 1\napricot is 2")

	m.input.SetValue("x is ap")
	m.input.CursorEnd()
	refreshMatches(&m, false)

	if len(m.matches) < 2 {
		t.Fatalf("expected several matches, got %v", m.matches)
	}

	m, _ = m.cycle(1)
	first := m.input.Value()

	m, _ = m.cycle(1)
	if m.input.Value() == first {
		t.Error("expected tab to move to the next candidate")
	}

	m, _ = m.cycle(-1)
	if m.input.Value() != first {
		t.Errorf("expected shift-tab to return to %q, got %q", first, m.input.Value())
	}

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	m = updated.(model)

	if m.input.Value() != "x is ap" || m.tabActive {
		t.Errorf("expected escape to restore the typed word, got %q", m.input.Value())
	}
}

func TestContinuation(t *testing.T) {
	tests := []struct{ line, want string }{
		{"if x:", "    "},
		{"    say 1", "    "},
		{"    until done:", "        "},
		{"say 1", ""},
	}

	for _, tt := range tests {
		if got := continuation(tt.line); got != tt.want {
			t.Errorf("continuation(%q) = %q, want %q", tt.line, got, tt.want)
		}
	}
}

func TestViewHints(t *testing.T) {
	m := newTestModel(t)
	run(t, m, "fnc area(w, h):\n    out w * h")

	if got := m.View(); !strings.Contains(got, "Esc for commands") {
		t.Errorf("expected empty-input hint, got %q", got)
	}

	m.input.SetValue("x is area(1, ")
	m.input.CursorEnd()

	if got := m.View(); !strings.Contains(got, "area") || !strings.Contains(got, "h") {
		t.Errorf("expected signature hint, got %q", got)
	}

	m.running = true

	if got := m.View(); !strings.Contains(got, "running") {
		t.Errorf("expected running hint, got %q", got)
	}
}
