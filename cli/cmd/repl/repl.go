package repl

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ardnew/pebble/lang"
	"github.com/ardnew/pebble/log"
)

// editDoneMsg is sent when the editor exits with a non-empty buffer.
type editDoneMsg struct{ source string }

// editErrorMsg is sent when the editor could not be run.
type editErrorMsg struct{ err error }

const (
	evalPrompt  = "➜ "
	blockPrompt = "… "
	ctrlPrompt  = " :"
)

func helpMessage() string {
	return `
: Commands (press Esc to toggle mode):

  help         Print this cruft
  vars         List variables and their values
  funcs        List defined functions
  load <path>  Run a source file in this session
  edit         Write a program in external $EDITOR and run it
  reset        Forget all variables and functions
  clear        Clear screen
  quit         Exit REPL

Usage:
  Type a statement to run it, or an expression to show its value
  A line ending in ':' opens a block; an empty line runs it
  Completions appear automatically as you type
  Press Tab / Shift-Tab to cycle through candidates
  Press Esc to toggle between eval and command modes
  Use Up/Down arrows for history navigation (mode switches automatically)
  Press Ctrl+C on empty line or Ctrl+D to exit
`
}

// inputMode represents the current input mode.
type inputMode int

const (
	modeEval inputMode = iota
	modeCtrl
)

// Styles.
var (
	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("6")).
			Bold(true)
	ctrlPromptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("5")).
			Bold(true)
	inputStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
	resultStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	errorStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	hintStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	suggestionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	matchStyle      = lipgloss.NewStyle().
			Foreground(lipgloss.Color("4")).
			Bold(true)
	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("4"))
	selectedMatchStyle = selectedStyle.Bold(true)
)

// formatCommand formats an echoed eval line.
func formatCommand(prompt, input string) string {
	return promptStyle.Render(prompt) + inputStyle.Render(input)
}

// formatCtrlCommand formats an echoed control command.
func formatCtrlCommand(input string) string {
	return ctrlPromptStyle.Render(ctrlPrompt) + inputStyle.Render(input)
}

// model is the Bubble Tea model for the REPL.
type model struct {
	ctxFunc      func() context.Context
	newInterp    func() *lang.Interpreter
	interp       *lang.Interpreter
	bridge       *bridge
	logger       log.Logger
	history      *History
	input        textinput.Model
	matches      fuzzy.Matches // current fuzzy match results
	block        []string      // lines of an unfinished block
	preload      string        // source run before the first prompt
	lastEdit     string        // buffer from the previous edit
	pending      string        // output not yet ended by a newline
	preTabText   string        // input text before tab-cycling began
	evalText     string
	ctrlText     string
	historyIdx   int
	wordStart    int // byte offset of current word start
	wordEnd      int // byte offset of current word end
	suggIdx      int // selected candidate index
	preTabCursor int // cursor position before tab-cycling began
	width        int // terminal width for ellipsization
	evalCursor   int
	ctrlCursor   int
	mode         inputMode
	tabActive    bool // whether user is tab-cycling
	running      bool // an evaluation is in progress
	awaiting     bool // the evaluation is blocked on inp
	quitting     bool
}

// Run starts an interactive session. If source is not nil it is run first,
// so its variables and functions are available at the prompt. History is
// kept in cacheDir unless it is empty.
func Run(
	ctx context.Context,
	source io.Reader,
	cacheDir string,
	logger log.Logger,
) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	logger.TraceContext(
		ctx,
		"repl start",
		slog.String("cache_dir", cacheDir),
		slog.Bool("has_source", source != nil),
	)

	var preload string

	if source != nil {
		data, err := io.ReadAll(source)
		if err != nil {
			return lang.ErrReadSource.Wrap(err)
		}

		preload = string(data)
	}

	var historyPath string
	if cacheDir != "" {
		historyPath = filepath.Join(cacheDir, baseHistory)
	}

	history := NewHistory(historyPath)
	if err := history.Load(); err != nil {
		logger.WarnContext(
			ctx,
			"could not load history",
			slog.String("path", historyPath),
			slog.Any("error", err),
		)
	}

	logger.TraceContext(
		ctx,
		"repl history loaded",
		slog.Int("entry_count", history.Len()),
	)

	b := newBridge(ctx.Done())
	newInterp := func() *lang.Interpreter {
		return lang.New(
			lang.WithInput(b),
			lang.WithOutput(b),
			lang.WithLogger(logger),
		)
	}

	m := newModel(ctx, newInterp, b, history, logger)
	m.preload = preload

	p := tea.NewProgram(m, tea.WithContext(ctx))
	b.send = p.Send

	_, err := p.Run()

	return err
}

const defaultWidth = 80

func newModel(
	ctx context.Context,
	newInterp func() *lang.Interpreter,
	b *bridge,
	history *History,
	logger log.Logger,
) model {
	ti := textinput.New()
	ti.Prompt = promptStyle.Render(evalPrompt)
	ti.Focus()
	ti.CharLimit = 1024
	ti.Width = defaultWidth

	return model{
		ctxFunc:    func() context.Context { return ctx },
		newInterp:  newInterp,
		interp:     newInterp(),
		bridge:     b,
		logger:     logger,
		history:    history,
		input:      ti,
		historyIdx: history.Len(),
		suggIdx:    -1,
		width:      defaultWidth,
		mode:       modeEval,
	}
}

func (m model) Init() tea.Cmd {
	if m.preload == "" {
		return textinput.Blink
	}

	return tea.Batch(textinput.Blink, func() tea.Msg { return preloadMsg{} })
}

// preloadMsg starts running the preloaded source.
type preloadMsg struct{}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.input.Width = msg.Width - len(evalPrompt) - 2

		return m, nil

	case preloadMsg:
		return m.start(m.preload)

	case outputMsg:
		return m.appendOutput(string(msg))

	case inputRequestMsg:
		m.awaiting = true
		m.input.Prompt = inputStyle.Render(m.pending)
		m.input.SetValue("")
		refreshMatches(&m, false)

		return m, nil

	case evalDoneMsg:
		return m.finish(msg)

	case editDoneMsg:
		m.lastEdit = msg.source

		return m.start(msg.source)

	case editErrorMsg:
		return m, tea.Println(errorStyle.Render("error: " + msg.err.Error()))
	}

	var cmd tea.Cmd

	m.input, cmd = m.input.Update(msg)

	return m, cmd
}

func (m model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	b.WriteString(m.input.View())
	b.WriteString("\n")

	input := m.input.Value()
	call := detectFunctionCall(input, m.input.Position())

	switch {
	case m.running && !m.awaiting:
		b.WriteString(hintStyle.Render("running..."))

	case m.historyIdx < m.history.Len():
		b.WriteString(hintStyle.Render(fmt.Sprintf("%s/%d",
			lipgloss.NewStyle().Bold(true).Render(strconv.Itoa(m.historyIdx+1)),
			m.history.Len(),
		)))

	case strings.TrimSpace(input) == "":
		b.WriteString(hintStyle.Render(m.emptyHint()))

	case call.inCall && m.mode == modeEval && !m.awaiting:
		if sig, params := getSignature(m.interp, call.name); sig != "" {
			b.WriteString(renderSignatureHint(sig, params, call.argIndex))
		} else {
			b.WriteString(m.candidateBar())
		}

	default:
		b.WriteString(m.candidateBar())
	}

	b.WriteString("\n")

	return b.String()
}

func (m model) emptyHint() string {
	switch {
	case m.awaiting:
		return "Type a line of input (Ctrl+D for end of input)"
	case len(m.block) > 0:
		return "Empty line runs the block"
	case m.mode == modeCtrl:
		return "Type: " + strings.Join(ctrlCommands, ", ") + " (press Esc to return)"
	default:
		return "Type a statement or press Esc for commands"
	}
}

func (m model) candidateBar() string {
	return renderCandidateBar(
		m.matches, m.suggIdx, m.tabActive,
		func(s string) bool { return isCallable(m.interp, s) },
		m.width,
	)
}

func (m model) handleKey(msg tea.KeyMsg) (model, tea.Cmd) {
	m.logger.TraceContext(
		m.ctxFunc(),
		"repl keypress",
		slog.String("key", msg.String()),
		slog.Int("type", int(msg.Type)),
	)

	switch msg.Type {
	case tea.KeyCtrlC:
		if m.awaiting {
			return m.answer(inputLine{eof: true})
		}

		if m.input.Value() == "" && len(m.block) == 0 {
			m.quitting = true

			return m, tea.Quit
		}

		m.input.SetValue("")
		m.block = nil
		m.tabActive = false
		m.historyIdx = m.history.Len()
		m.input.Prompt = m.prompt()
		refreshMatches(&m, false)

		return m, nil

	case tea.KeyCtrlD:
		if m.awaiting {
			return m.answer(inputLine{eof: true})
		}

		if m.input.Value() == "" {
			m.quitting = true

			return m, tea.Quit
		}

		return m, nil

	case tea.KeyEnter:
		if m.tabActive && len(m.matches) > 0 {
			// Lock in the current tab candidate without executing.
			m.tabActive = false
			refreshMatches(&m, true)

			return m, nil
		}

		return m.executeInput()

	case tea.KeyTab:
		return m.cycle(1)

	case tea.KeyShiftTab:
		return m.cycle(-1)

	case tea.KeyUp:
		return m.historyStep(-1)

	case tea.KeyDown:
		return m.historyStep(1)

	case tea.KeyEsc:
		if m.tabActive {
			m.tabActive = false
			m.input.SetValue(m.preTabText)
			m.input.SetCursor(m.preTabCursor)
			refreshMatches(&m, false)

			return m, nil
		}

		if m.awaiting || len(m.block) > 0 {
			return m, nil
		}

		return m.toggleMode()

	case tea.KeyRunes, tea.KeySpace:
		if m.tabActive && msg.String() == " " {
			m.tabActive = false
		}

		var cmd tea.Cmd

		m.historyIdx = m.history.Len()
		m.input, cmd = m.input.Update(msg)
		refreshMatches(&m, true)

		return m, cmd
	}

	// For any other key (backspace, delete, arrows, etc.),
	// update input and recompute matches without auto-confirm.
	var cmd tea.Cmd

	m.tabActive = false
	m.historyIdx = m.history.Len()
	m.input, cmd = m.input.Update(msg)
	refreshMatches(&m, false)

	return m, cmd
}

// cycle moves the tab selection by step, wrapping at either end.
func (m model) cycle(step int) (model, tea.Cmd) {
	if len(m.matches) == 0 {
		return m, nil
	}

	// Single candidate: complete and confirm immediately.
	if len(m.matches) == 1 {
		replaceCurrentWord(&m, m.matches[0].Str)
		m.tabActive = false
		m.suggIdx = -1
		m.matches = nil

		return m, nil
	}

	if m.tabActive {
		m.suggIdx = (m.suggIdx + step + len(m.matches)) % len(m.matches)
	} else {
		m.tabActive = true
		m.preTabText = m.input.Value()
		m.preTabCursor = m.input.Position()

		m.suggIdx = 0
		if step < 0 {
			m.suggIdx = len(m.matches) - 1
		}
	}

	replaceCurrentWord(&m, m.matches[m.suggIdx].Str)

	return m, nil
}

// replaceCurrentWord replaces the current word boundaries in the input with
// the given replacement text and repositions the cursor.
func replaceCurrentWord(m *model, replacement string) {
	input := m.input.Value()
	cursor := m.wordStart + len(replacement)

	m.input.SetValue(input[:m.wordStart] + replacement + input[m.wordEnd:])
	m.input.SetCursor(cursor)

	m.wordEnd = cursor
}

// refreshMatches recomputes fuzzy matches for the current input state.
// When autoConfirm is true and the typed word already equals the sole
// candidate, the completion is dismissed.
func refreshMatches(m *model, autoConfirm bool) {
	if m.awaiting {
		m.matches = nil

		return
	}

	m.matches, m.wordStart, m.wordEnd = m.computeMatches()

	if !m.tabActive {
		m.suggIdx = -1
	}

	if !autoConfirm || len(m.matches) != 1 {
		return
	}

	if m.input.Value()[m.wordStart:m.wordEnd] == m.matches[0].Str {
		m.tabActive = false
		m.suggIdx = -1
		m.matches = nil
	}
}

// prompt returns the rendered prompt for the current state.
func (m model) prompt() string {
	switch {
	case m.mode == modeCtrl:
		return ctrlPromptStyle.Render(ctrlPrompt)
	case len(m.block) > 0:
		return promptStyle.Render(blockPrompt)
	default:
		return promptStyle.Render(evalPrompt)
	}
}

func (m model) executeInput() (model, tea.Cmd) {
	raw := strings.TrimRight(m.input.Value(), " \t")

	if m.awaiting {
		return m.answer(inputLine{text: raw})
	}

	if m.running {
		return m, nil
	}

	input := strings.TrimSpace(raw)

	m.evalText, m.evalCursor = "", 0
	m.ctrlText, m.ctrlCursor = "", 0
	m.input.SetValue("")
	m.matches = nil

	if m.mode == modeCtrl {
		if input == "" {
			return m, nil
		}

		m.addHistory(input, modeCtrl)

		return m.executeCommand(input)
	}

	if len(m.block) > 0 {
		echo := tea.Println(formatCommand(blockPrompt, raw))

		if input == "" {
			src := strings.Join(m.block, "\n")
			m.block = nil
			m.input.Prompt = m.prompt()

			var cmd tea.Cmd

			m, cmd = m.start(src)

			return m, tea.Sequence(echo, cmd)
		}

		m.addHistory(raw, modeEval)
		m.block = append(m.block, raw)
		m.input.SetValue(continuation(raw))
		m.input.CursorEnd()

		return m, echo
	}

	if input == "" {
		return m, nil
	}

	m.addHistory(raw, modeEval)

	echo := tea.Println(formatCommand(evalPrompt, raw))

	if strings.HasSuffix(input, ":") {
		m.block = []string{raw}
		m.input.Prompt = m.prompt()
		m.input.SetValue(continuation(raw))
		m.input.CursorEnd()

		return m, echo
	}

	var cmd tea.Cmd

	m, cmd = m.start(raw)

	return m, tea.Sequence(echo, cmd)
}

// continuation returns the indentation for the line following line: one
// step deeper after a header, otherwise the same depth.
func continuation(line string) string {
	indent := line[:len(line)-len(strings.TrimLeft(line, " "))]
	if strings.HasSuffix(strings.TrimSpace(line), ":") {
		indent += strings.Repeat(" ", lang.IndentStep)
	}

	return indent
}

func (m *model) addHistory(line string, mode inputMode) {
	if err := m.history.Add(line, mode); err != nil {
		m.logger.WarnContext(
			m.ctxFunc(),
			"could not save history",
			slog.Any("error", err),
		)
	}

	m.historyIdx = m.history.Len()
}

// start runs src in a command goroutine.
func (m model) start(src string) (model, tea.Cmd) {
	m.logger.TraceContext(
		m.ctxFunc(),
		"repl eval",
		slog.Int("source_length", len(src)),
	)

	m.running = true

	return m, evalCmd(m.ctxFunc(), m.interp, src)
}

// answer delivers line to the evaluation blocked on inp.
func (m model) answer(line inputLine) (model, tea.Cmd) {
	echo := tea.Println(inputStyle.Render(m.pending + line.text))

	m.awaiting = false
	m.pending = ""
	m.input.SetValue("")
	m.input.Prompt = m.prompt()
	m.bridge.deliver(line)

	return m, echo
}

// appendOutput prints every completed line of interpreter output and keeps
// the remainder as pending, since it may be an inp prompt.
func (m model) appendOutput(text string) (model, tea.Cmd) {
	m.pending += text

	i := strings.LastIndexByte(m.pending, '\n')
	if i < 0 {
		return m, nil
	}

	done := m.pending[:i]
	m.pending = m.pending[i+1:]

	return m, tea.Println(done)
}

func (m model) finish(msg evalDoneMsg) (model, tea.Cmd) {
	m.running = false
	m.awaiting = false
	m.input.Prompt = m.prompt()

	var cmds []tea.Cmd

	if m.pending != "" {
		cmds = append(cmds, tea.Println(m.pending))
		m.pending = ""
	}

	switch {
	case msg.err != nil:
		m.logger.TraceContext(
			m.ctxFunc(),
			"repl eval result",
			slog.String("result_type", "error"),
			slog.Any("error", msg.err),
		)

		cmds = append(cmds, tea.Println(errorStyle.Render("error: "+msg.err.Error())))

	case !msg.value.IsNull():
		m.logger.TraceContext(
			m.ctxFunc(),
			"repl eval result",
			slog.String("result_type", msg.value.Kind().String()),
		)

		cmds = append(cmds, tea.Println(resultStyle.Render(msg.value.Literal())))
	}

	return m, tea.Sequence(cmds...)
}

func (m model) executeCommand(input string) (model, tea.Cmd) {
	cmd, arg, _ := strings.Cut(input, " ")
	arg = strings.TrimSpace(arg)

	echo := tea.Println(formatCtrlCommand(input))

	m.logger.TraceContext(
		m.ctxFunc(),
		"repl exec command",
		slog.String("command", cmd),
		slog.String("arg", arg),
	)

	switch cmd {
	case "q", "quit", "exit":
		m.quitting = true

		return m, tea.Sequence(echo, tea.Quit)

	case "h", "help":
		return m, tea.Sequence(echo, tea.Println(helpMessage()))

	case "v", "vars":
		return m, tea.Sequence(echo, tea.Println(m.listVars()))

	case "f", "funcs":
		return m, tea.Sequence(echo, tea.Println(m.listFuncs()))

	case "c", "clear":
		return m, tea.ClearScreen

	case "r", "reset":
		m.interp = m.newInterp()

		return m, tea.Sequence(echo, tea.Println(resultStyle.Render("session reset")))

	case "l", "load":
		if arg == "" {
			return m, tea.Sequence(echo, tea.Println(errorStyle.Render("usage: load <path>")))
		}

		data, err := os.ReadFile(arg)
		if err != nil {
			err = lang.ErrReadSource.With(slog.String("path", arg)).Wrap(err)

			return m, tea.Sequence(echo, tea.Println(errorStyle.Render("error: "+err.Error())))
		}

		var run tea.Cmd

		m, run = m.start(string(data))

		return m, tea.Sequence(echo, run)

	case "e", "edit":
		return m, tea.Sequence(echo, m.edit())

	default:
		return m, tea.Println(
			errorStyle.Render("Unknown command: " + cmd + " (try 'help')"),
		)
	}
}

func (m model) edit() tea.Cmd {
	cmd := &editCommand{
		ctxFunc: m.ctxFunc,
		logger:  m.logger,
		initial: m.lastEdit,
	}

	return tea.Exec(cmd, func(err error) tea.Msg {
		if err != nil {
			return editErrorMsg{err: err}
		}

		if strings.TrimSpace(cmd.source) == "" {
			return nil
		}

		return editDoneMsg{source: cmd.source}
	})
}

func (m model) listVars() string {
	var b strings.Builder

	for _, name := range m.interp.Vars() {
		v, _ := m.interp.Var(name)
		fmt.Fprintf(&b, "  %s %s\n", name, hintStyle.Render("= "+v.Literal()))
	}

	if b.Len() == 0 {
		return hintStyle.Render("  no variables")
	}

	return b.String()
}

func (m model) listFuncs() string {
	var b strings.Builder

	for _, name := range m.interp.Funcs() {
		sig, _ := getSignature(m.interp, name)
		fn, _ := m.interp.Func(name)
		fmt.Fprintf(&b, "  %s %s\n", sig, hintStyle.Render(fmt.Sprintf("line %d", fn.Line)))
	}

	if b.Len() == 0 {
		return hintStyle.Render("  no functions")
	}

	return b.String()
}

// historyStep moves through history by step, switching mode to match the
// recalled entry. Stepping past the newest entry clears the input.
func (m model) historyStep(step int) (model, tea.Cmd) {
	if m.awaiting {
		return m, nil
	}

	i := m.historyIdx + step
	if i < 0 {
		return m, nil
	}

	if i >= m.history.Len() {
		m.historyIdx = m.history.Len()
		m.input.SetValue("")
		refreshMatches(&m, false)

		return m, nil
	}

	entry, err := m.history.Entry(i)
	if err != nil {
		return m, nil
	}

	m.historyIdx = i

	if m.mode != entry.Mode && len(m.block) == 0 {
		m, _ = m.switchToMode(entry.Mode)
	}

	m.input.SetValue(entry.Line)
	m.input.CursorEnd()
	refreshMatches(&m, false)

	return m, nil
}

// toggleMode switches between eval and control modes, preserving input state.
func (m model) toggleMode() (model, tea.Cmd) {
	if m.mode == modeEval {
		return m.switchToMode(modeCtrl)
	}

	return m.switchToMode(modeEval)
}

// switchToMode switches to the specified mode, preserving input state.
func (m model) switchToMode(mode inputMode) (model, tea.Cmd) {
	if m.mode == modeEval {
		m.evalText, m.evalCursor = m.input.Value(), m.input.Position()
	} else {
		m.ctrlText, m.ctrlCursor = m.input.Value(), m.input.Position()
	}

	m.mode = mode
	m.input.Prompt = m.prompt()

	if mode == modeEval {
		m.input.SetValue(m.evalText)
		m.input.SetCursor(m.evalCursor)
	} else {
		m.input.SetValue(m.ctrlText)
		m.input.SetCursor(m.ctrlCursor)
	}

	refreshMatches(&m, false)

	return m, nil
}
