package repl

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/lipgloss"
	"github.com/goccy/go-yaml"
	"github.com/sahilm/fuzzy"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ardnew/deflang/lang"
	"github.com/ardnew/deflang/log"
)

// editDoneMsg is sent when editing replaced the program.
type editDoneMsg struct{ changed *lang.Mapping }

// editCancelledMsg is sent when the user cleared the editor content.
type editCancelledMsg struct{}

// editDeclinedMsg is sent when the user declined to re-edit after an error.
type editDeclinedMsg struct{}

// editErrorMsg is sent when the edit process encounters a non-evaluation
// error.
type editErrorMsg struct{ err error }

const prompt = "➜ "

// command is a ':' command of the REPL.
type command struct {
	name    string
	aliases []string
	args    string
	help    string
}

var commands = []command{
	{name: "help", aliases: []string{"h", "?"}, help: "Print this cruft"},
	{name: "list", aliases: []string{"l"}, help: "List definitions and output keys"},
	{name: "source", aliases: []string{"s"}, args: "FILE", help: "Append the statements of FILE"},
	{name: "reset", help: "Discard all statements"},
	{name: "edit", aliases: []string{"e"}, help: "Edit the program in external $EDITOR"},
	{name: "clear", aliases: []string{"c"}, help: "Clear screen"},
	{name: "quit", aliases: []string{"q", "exit"}, help: "Exit REPL"},
}

// commandNames returns the primary names of all commands.
func commandNames() []string {
	names := make([]string, len(commands))
	for i, c := range commands {
		names[i] = c.name
	}

	return names
}

// lookupCommand returns the primary name of the command called name.
func lookupCommand(name string) (string, bool) {
	for _, c := range commands {
		if c.name == name {
			return c.name, true
		}

		for _, alias := range c.aliases {
			if alias == name {
				return c.name, true
			}
		}
	}

	return "", false
}

func helpMessage() string {
	var b strings.Builder

	b.WriteString("\nCommands:\n\n")

	for _, c := range commands {
		usage := ":" + c.name
		if c.args != "" {
			usage += " " + c.args
		}

		fmt.Fprintf(&b, "  %-14s %s\n", usage, c.help)
	}

	b.WriteString(`
Usage:
  Enter a statement ending in ';' to add it to the program
    def base := 8000 ;
    port = $+ base 1$ ;
  The statement is kept only if the whole program still resolves
  Enter anything else to evaluate it as an expression over the output keys
    port + 1
  Completions appear automatically as you type
  Press Tab / Shift-Tab to cycle through candidates
  Press Space to accept the current candidate
  Use Up/Down arrows for history navigation
  Use Shift+Up/Shift+Down for history of the same kind of input only
  Press Ctrl+C on empty line or Ctrl+D to exit
`)

	return b.String()
}

// Styles.
var (
	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("6")).
			Bold(true)
	inputStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
	resultStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	errorStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	hintStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	suggestionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	selectedStyle   = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("4"))
)

// formatCommand formats the echo line with prompt and input styled.
func formatCommand(input string) string {
	return promptStyle.Render(prompt) + inputStyle.Render(input)
}

// model is the Bubble Tea model for the REPL.
type model struct {
	ctxFunc      func() context.Context
	input        textinput.Model
	session      *Session
	logger       log.Logger
	history      *History
	historyIdx   int
	matches      fuzzy.Matches // current fuzzy match results
	candidates   []string      // backing candidate list
	wordStart    int           // byte offset of current word start
	wordEnd      int           // byte offset of current word end
	suggIdx      int           // selected candidate index
	tabActive    bool          // whether user is tab-cycling
	preTabText   string        // input text before tab-cycling began
	preTabCursor int           // cursor position before tab-cycling began
	width        int           // terminal width for ellipsization
	quitting     bool
}

// Run starts the REPL over session. History is persisted to historyPath
// unless it is empty.
func Run(
	ctx context.Context,
	session *Session,
	historyPath string,
	logger log.Logger,
	opts ...tea.ProgramOption,
) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	logger.TraceContext(
		ctx,
		"repl start",
		slog.String("history", historyPath),
		slog.Int("key_count", session.Mapping().Len()),
	)

	history := NewHistory(historyPath)
	if err := history.Load(); err != nil {
		logger.WarnContext(ctx, "could not load history",
			slog.String("path", historyPath),
			slog.Any("error", err),
		)
	}

	logger.TraceContext(
		ctx,
		"repl history loaded",
		slog.Int("entry_count", history.Len()),
	)

	m := newModel(ctx, session, history, logger)

	p := tea.NewProgram(m, append([]tea.ProgramOption{tea.WithContext(ctx)}, opts...)...)
	_, err = p.Run()

	if errors.Is(err, tea.ErrProgramKilled) && context.Cause(ctx) == nil {
		return nil
	}

	return err
}

const defaultWidth = 80

func newModel(
	ctx context.Context,
	session *Session,
	history *History,
	logger log.Logger,
) model {
	ti := textinput.New()
	ti.Prompt = promptStyle.Render(prompt)
	ti.Focus()
	ti.CharLimit = 1024
	ti.Width = defaultWidth

	return model{
		ctxFunc:    func() context.Context { return ctx },
		input:      ti,
		session:    session,
		logger:     logger,
		history:    history,
		historyIdx: history.Len(),
		suggIdx:    -1,
		width:      defaultWidth,
	}
}

func (m model) Init() tea.Cmd {
	return textinput.Blink
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.input.Width = msg.Width - len(prompt) - 2

		return m, nil

	case editDoneMsg:
		m.logger.TraceContext(
			m.ctxFunc(),
			"repl edit complete",
			slog.Int("key_count", m.session.Mapping().Len()),
		)

		return m, tea.Sequence(
			tea.Println(hintStyle.Render("program replaced")),
			tea.Println(m.renderChanged(msg.changed)),
		)

	case editCancelledMsg:
		return m, tea.Println(hintStyle.Render("edit cancelled"))

	case editDeclinedMsg:
		return m, tea.Println(hintStyle.Render("edit discarded"))

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

	// Input line.
	b.WriteString(m.input.View())
	b.WriteString("\n")

	// Completion / hint line.
	input := m.input.Value()
	funcCall := detectFunctionCall(input, m.input.Position())
	signature, params := "", []string(nil)

	if funcCall.inCall {
		signature, params = getSignature(funcCall.name)
	}

	switch {
	case m.historyIdx < m.history.Len():
		hint := fmt.Sprintf("%s/%d",
			lipgloss.NewStyle().Bold(true).Render(strconv.Itoa(m.historyIdx+1)),
			m.history.Len())
		b.WriteString(hintStyle.Render(hint))

	case strings.TrimSpace(input) == "":
		b.WriteString(hintStyle.Render(
			"Enter a statement ending in ';', an expression, or :help"))

	case signature != "":
		b.WriteString(renderSignatureHint(signature, params, funcCall.argIndex))

	case len(m.matches) > 0:
		b.WriteString(renderCandidateBar(m.matches, m.suggIdx, m.tabActive, m.width))
	}

	b.WriteString("\n")

	return b.String()
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
		if m.input.Value() == "" {
			m.quitting = true

			return m, tea.Quit
		}

		m.input.SetValue("")
		m.tabActive = false
		m.historyIdx = m.history.Len()
		refreshMatches(&m, false)

		return m, nil

	case tea.KeyCtrlD:
		if m.input.Value() == "" {
			m.quitting = true

			return m, tea.Quit
		}

		return m, nil

	case tea.KeyEnter:
		if !m.tabActive || len(m.matches) == 0 {
			return m.executeInput()
		}
		// Lock in the current tab candidate without executing.
		m.tabActive = false
		refreshMatches(&m, true)

		return m, nil

	case tea.KeyTab:
		return m.cycle(1), nil

	case tea.KeyShiftTab:
		return m.cycle(-1), nil

	case tea.KeyUp:
		return m.historyPrev(false), nil

	case tea.KeyDown:
		return m.historyNext(false), nil

	case tea.KeyShiftUp:
		return m.historyPrev(true), nil

	case tea.KeyShiftDown:
		return m.historyNext(true), nil

	case tea.KeyEsc:
		if m.tabActive {
			m.tabActive = false
			m.input.SetValue(m.preTabText)
			m.input.SetCursor(m.preTabCursor)
			refreshMatches(&m, false)
		}

		return m, nil

	case tea.KeyRunes, tea.KeySpace:
		// Space is a "breaking" key while tab-cycling.
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

// cycle moves the tab selection by step, wrapping around. A single
// candidate is completed and confirmed immediately.
func (m model) cycle(step int) model {
	if len(m.matches) == 0 {
		return m
	}

	if len(m.matches) == 1 {
		replaceCurrentWord(&m, m.matches[0].Str)
		m.tabActive = false
		m.suggIdx = -1
		m.matches = nil

		return m
	}

	n := len(m.matches)

	switch {
	case m.tabActive:
		m.suggIdx = (m.suggIdx + step + n) % n
	case step > 0:
		m.tabActive = true
		m.preTabText = m.input.Value()
		m.preTabCursor = m.input.Position()
		m.suggIdx = 0
	default:
		m.tabActive = true
		m.preTabText = m.input.Value()
		m.preTabCursor = m.input.Position()
		m.suggIdx = n - 1
	}

	replaceCurrentWord(&m, m.matches[m.suggIdx].Str)

	return m
}

// replaceCurrentWord replaces the current word boundaries in the input with
// the given replacement text and repositions the cursor.
func replaceCurrentWord(m *model, replacement string) {
	input := m.input.Value()
	newInput := input[:m.wordStart] + replacement + input[m.wordEnd:]
	newCursor := m.wordStart + len(replacement)

	m.input.SetValue(newInput)
	m.input.SetCursor(newCursor)

	m.wordEnd = newCursor
}

// refreshMatches recomputes fuzzy matches for the current input state.
// When autoConfirm is true it also confirms the completion when exactly one
// candidate remains and the typed word already equals it. Deletions and
// cursor movement pass false so editing never completes unexpectedly.
func refreshMatches(m *model, autoConfirm bool) {
	m.matches, m.candidates, m.wordStart, m.wordEnd = m.computeMatches()

	if !m.tabActive {
		m.suggIdx = -1
	}

	if !autoConfirm || len(m.matches) != 1 {
		return
	}

	candidate := m.matches[0].Str
	word := m.input.Value()[m.wordStart:m.wordEnd]

	if word == candidate {
		m.tabActive = false
		m.suggIdx = -1
		m.matches = nil
	}
}

func (m model) executeInput() (model, tea.Cmd) {
	input := strings.TrimSpace(m.input.Value())
	if input == "" {
		return m, nil
	}

	m.input.SetValue("")
	m.matches = nil

	if _, err := m.history.Write(input); err != nil {
		m.logger.WarnContext(m.ctxFunc(), "could not write history",
			slog.Any("error", err))
	}

	m.historyIdx = m.history.Len()

	kind := Classify(input)

	m.logger.TraceContext(
		m.ctxFunc(),
		"repl input",
		slog.String("input", input),
		slog.Int("kind", int(kind)),
	)

	echoCmd := tea.Println(formatCommand(input))

	if kind == KindCommand {
		var cmd tea.Cmd

		m, cmd = m.executeCommand(input)

		return m, tea.Sequence(echoCmd, cmd)
	}

	out, err := m.evaluate(input)
	if err != nil {
		m.logger.DebugContext(m.ctxFunc(), "repl evaluate failed",
			slog.Any("error", err))

		return m, tea.Sequence(
			echoCmd,
			tea.Println(errorStyle.Render("error: "+err.Error())),
		)
	}

	return m, tea.Sequence(echoCmd, tea.Println(out))
}

// evaluate applies a statement or evaluates a query and renders the result.
func (m model) evaluate(input string) (string, error) {
	ctx := m.ctxFunc()

	if Classify(input) == KindStatement {
		changed, err := m.session.Apply(ctx, input)
		if err != nil {
			return "", err
		}

		return m.renderChanged(changed), nil
	}

	result, err := m.session.Query(ctx, input)
	if err != nil {
		return "", err
	}

	return m.renderValue(result), nil
}

// renderChanged renders the output keys a statement added or changed.
func (m model) renderChanged(changed *lang.Mapping) string {
	if changed.Len() == 0 {
		return hintStyle.Render("ok")
	}

	var buf bytes.Buffer
	if err := changed.FormatYAML(m.ctxFunc(), &buf, 2); err != nil {
		return errorStyle.Render("error: " + err.Error())
	}

	return resultStyle.Render(strings.TrimRight(buf.String(), "\n"))
}

// renderValue renders a query result as YAML.
func (m model) renderValue(value any) string {
	data, err := yaml.MarshalContext(m.ctxFunc(), lang.YAMLValue(value))
	if err != nil {
		return errorStyle.Render("error: " + err.Error())
	}

	return resultStyle.Render(strings.TrimRight(string(data), "\n"))
}

func (m model) executeCommand(input string) (model, tea.Cmd) {
	fields := strings.Fields(strings.TrimPrefix(input, ":"))
	if len(fields) == 0 {
		return m, nil
	}

	name, ok := lookupCommand(fields[0])
	args := fields[1:]

	m.logger.TraceContext(
		m.ctxFunc(),
		"repl exec command",
		slog.String("command", fields[0]),
		slog.Any("args", args),
	)

	if !ok {
		return m, tea.Println(errorStyle.Render(
			ErrUnknownCommand.Error() + ": " + fields[0] + " (try :help)"))
	}

	switch name {
	case "quit":
		m.quitting = true

		return m, tea.Quit

	case "help":
		return m, tea.Println(helpMessage())

	case "list":
		return m, tea.Println(m.listing())

	case "source":
		out, err := m.sourceFiles(args)
		if err != nil {
			return m, tea.Println(errorStyle.Render("error: " + err.Error()))
		}

		return m, tea.Println(out)

	case "reset":
		m.session.Reset()

		return m, tea.Println(hintStyle.Render("program cleared"))

	case "clear":
		return m, tea.ClearScreen

	case "edit":
		return m, m.edit()
	}

	return m, nil
}

// sourceFiles appends the contents of each file to the program, stopping at
// the first that fails to resolve.
func (m model) sourceFiles(paths []string) (string, error) {
	if len(paths) == 0 {
		return "", ErrMissingArg
	}

	changed := lang.NewMapping()

	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", err
		}

		c, err := m.session.Apply(m.ctxFunc(), string(data))
		if err != nil {
			return "", lang.WrapError(err).With(slog.String("file", path))
		}

		for key, val := range c.All() {
			changed.Set(key, val)
		}
	}

	return m.renderChanged(changed), nil
}

// listing renders every definition statement and the current output keys.
func (m model) listing() string {
	var b strings.Builder

	for def := range m.session.AST().Definitions() {
		fmt.Fprintf(&b, "  def %s := %s ;\n", def.Name, lang.Source(def.Value))
	}

	for key, val := range m.session.Mapping().All() {
		data, err := yaml.MarshalWithOptions(lang.YAMLValue(val), yaml.Flow(true))
		if err != nil {
			data = []byte(fmt.Sprint(val))
		}

		fmt.Fprintf(&b, "  %s %s\n", key, hintStyle.Render(strings.TrimSpace(string(data))))
	}

	if b.Len() == 0 {
		return hintStyle.Render("  (empty program)")
	}

	return strings.TrimRight(b.String(), "\n")
}

func (m model) edit() tea.Cmd {
	cmd := &editCommand{
		session: m.session,
		ctxFunc: m.ctxFunc,
		logger:  m.logger,
	}

	return tea.Exec(cmd, func(err error) tea.Msg {
		if errors.Is(err, ErrEditDeclined) {
			return editDeclinedMsg{}
		}

		if err != nil {
			return editErrorMsg{err: err}
		}

		if cmd.changed == nil {
			return editCancelledMsg{}
		}

		return editDoneMsg{changed: cmd.changed}
	})
}

// historyPrev moves to the previous history entry. With sameKind set, only
// entries of the same [Kind] as the current input are visited.
func (m model) historyPrev(sameKind bool) model {
	kind := Classify(m.input.Value())

	for i := m.historyIdx - 1; i >= 0; i-- {
		line, err := m.history.GetLine(i)
		if err != nil {
			break
		}

		if sameKind && kind != KindEmpty && Classify(line) != kind {
			continue
		}

		m.historyIdx = i
		m.input.SetValue(line)
		m.input.SetCursor(len(line))
		refreshMatches(&m, false)

		break
	}

	return m
}

// historyNext moves to the next history entry, clearing the input past the
// newest one.
func (m model) historyNext(sameKind bool) model {
	kind := Classify(m.input.Value())

	for i := m.historyIdx + 1; i < m.history.Len(); i++ {
		line, err := m.history.GetLine(i)
		if err != nil {
			break
		}

		if sameKind && kind != KindEmpty && Classify(line) != kind {
			continue
		}

		m.historyIdx = i
		m.input.SetValue(line)
		m.input.SetCursor(len(line))
		refreshMatches(&m, false)

		return m
	}

	if m.historyIdx < m.history.Len() {
		m.historyIdx = m.history.Len()
		m.input.SetValue("")
		refreshMatches(&m, false)
	}

	return m
}
