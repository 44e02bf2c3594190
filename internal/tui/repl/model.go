// ============================================================================
// descent - Recursive-Descent Front End
// ============================================================================
//
// Package:     repl
// Description: Bubbletea model for the interactive parse REPL
// Author:      Mike Stoffels
// Created:     2026-10-18
// License:     MIT
// ============================================================================

package repl

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/msto63/descent/internal/frontend"
	"github.com/msto63/descent/internal/render"
)

const historyPageSize = 10

// Config holds REPL configuration
type Config struct {
	Service   *frontend.Service
	Format    render.Format
	Plain     bool
	Positions bool
	Version   string
}

// Model is the Bubbletea model for the REPL
type Model struct {
	// State
	width  int
	height int
	ready  bool
	busy   bool

	// Components
	input    textinput.Model
	viewport viewport.Model

	// Transcript
	entries []Entry

	// Input history
	inputHistory []string
	historyIndex int

	// Configuration
	service    *frontend.Service
	format     render.Format
	plain      bool
	positions  bool
	showTokens bool
	version    string
}

// New creates a new REPL model
func New(cfg Config) Model {
	ti := textinput.New()
	ti.Placeholder = "{ x = 1; print(x) }  (:help for commands)"
	ti.Prompt = "› "
	ti.CharLimit = 4096
	ti.Focus()

	format := cfg.Format
	if format == "" {
		format = render.FormatTree
	}

	return Model{
		input:        ti,
		entries:      []Entry{},
		historyIndex: -1,
		service:      cfg.Service,
		format:       format,
		plain:        cfg.Plain,
		positions:    cfg.Positions,
		version:      cfg.Version,
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Entries returns the transcript
func (m Model) Entries() []Entry {
	return m.entries
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		headerHeight := 3 // Title panel
		footerHeight := 5 // Input + help
		viewportHeight := msg.Height - headerHeight - footerHeight - 2
		if viewportHeight < 1 {
			viewportHeight = 1
		}

		if !m.ready {
			m.viewport = viewport.New(msg.Width-2, viewportHeight)
			m.viewport.YPosition = headerHeight
			m.ready = true
		} else {
			m.viewport.Width = msg.Width - 2
			m.viewport.Height = viewportHeight
		}
		m.input.Width = msg.Width - 8
		m.updateViewportContent()

	case analyzedMsg:
		m.busy = false
		m.addEntry(m.renderResult(msg.result))
		return m, nil

	case historyLoadedMsg:
		m.busy = false
		m.addEntry(m.renderHistory(msg))
		return m, nil

	case statsLoadedMsg:
		m.busy = false
		m.addEntry(m.renderStats(msg))
		return m, nil
	}

	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// handleKeyPress handles keyboard input
func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		return m, tea.Quit

	case tea.KeyCtrlL:
		m.entries = []Entry{}
		m.updateViewportContent()
		return m, nil

	case tea.KeyEnter:
		line := strings.TrimSpace(m.input.Value())
		if line == "" || m.busy {
			return m, nil
		}
		m.input.Reset()
		m.pushHistory(line)
		if strings.HasPrefix(line, ":") {
			return m.runCommand(line)
		}
		m.busy = true
		return m, m.analyze(line)

	case tea.KeyUp:
		m.recall(1)
		return m, nil

	case tea.KeyDown:
		m.recall(-1)
		return m, nil

	case tea.KeyPgUp, tea.KeyPgDown:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) pushHistory(line string) {
	if n := len(m.inputHistory); n == 0 || m.inputHistory[n-1] != line {
		m.inputHistory = append(m.inputHistory, line)
	}
	m.historyIndex = -1
}

// recall walks the input history; step 1 is older, -1 is newer
func (m *Model) recall(step int) {
	if len(m.inputHistory) == 0 {
		return
	}
	idx := m.historyIndex + step
	if idx < 0 {
		m.historyIndex = -1
		m.input.Reset()
		return
	}
	if idx >= len(m.inputHistory) {
		idx = len(m.inputHistory) - 1
	}
	m.historyIndex = idx
	m.input.SetValue(m.inputHistory[len(m.inputHistory)-1-idx])
	m.input.CursorEnd()
}

// runCommand executes a ":" command
func (m Model) runCommand(line string) (tea.Model, tea.Cmd) {
	fields := strings.Fields(strings.TrimPrefix(line, ":"))
	if len(fields) == 0 {
		return m, nil
	}

	switch fields[0] {
	case "q", "quit", "exit":
		return m, tea.Quit

	case "help", "h":
		m.addEntry(Entry{Input: line, Output: helpText})

	case "clear":
		m.entries = []Entry{}
		m.updateViewportContent()

	case "format", "f":
		if len(fields) < 2 {
			m.addEntry(Entry{Input: line, Output: "format: " + string(m.format)})
			break
		}
		format, err := render.ParseFormat(fields[1])
		if err != nil {
			m.addEntry(Entry{Input: line, Output: err.Error(), Failed: true})
			break
		}
		m.format = format
		m.addEntry(Entry{Input: line, Output: "format: " + string(format)})

	case "tokens":
		m.showTokens = !m.showTokens
		m.addEntry(Entry{Input: line, Output: "tokens: " + onOff(m.showTokens)})

	case "positions":
		m.positions = !m.positions
		m.addEntry(Entry{Input: line, Output: "positions: " + onOff(m.positions)})

	case "history":
		if !m.service.HasHistory() {
			m.addEntry(Entry{Input: line, Output: "history is disabled", Failed: true})
			break
		}
		m.busy = true
		return m, m.loadHistory()

	case "stats":
		if !m.service.HasHistory() {
			m.addEntry(Entry{Input: line, Output: "history is disabled", Failed: true})
			break
		}
		m.busy = true
		return m, m.loadStats()

	default:
		m.addEntry(Entry{Input: line, Output: fmt.Sprintf("unknown command %q (try :help)", fields[0]), Failed: true})
	}
	return m, nil
}

const helpText = `:format <sexpr|tree|json|yaml>  choose tree output
:tokens                         toggle the token table
:positions                      toggle source offsets
:history                        show recorded runs
:stats                          show run statistics
:clear                          clear the transcript
:quit                           leave`

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

// Commands

func (m Model) analyze(source string) tea.Cmd {
	service := m.service
	return func() tea.Msg {
		return analyzedMsg{result: service.Analyze(context.Background(), source)}
	}
}

func (m Model) loadHistory() tea.Cmd {
	service := m.service
	return func() tea.Msg {
		records, err := service.History(context.Background(), historyPageSize, 0)
		return historyLoadedMsg{records: records, err: err}
	}
}

func (m Model) loadStats() tea.Cmd {
	service := m.service
	return func() tea.Msg {
		stats, err := service.Statistics(context.Background())
		return statsLoadedMsg{stats: stats, err: err}
	}
}

// Rendering of results

func (m Model) renderer() *render.Renderer {
	return render.New(render.Options{Plain: m.plain, Positions: m.positions})
}

func (m Model) renderResult(result *frontend.Result) Entry {
	entry := Entry{Input: result.Source}
	r := m.renderer()

	var parts []string
	if m.showTokens && len(result.Tokens) > 0 {
		parts = append(parts, r.Tokens(result.Tokens))
	}

	if !result.OK() {
		failure := frontend.Describe(result.Err)
		position := -1
		if failure.Position != nil {
			position = *failure.Position
		}
		parts = append(parts, r.Error(result.Source, failure.Code, failure.Message, position))
		entry.Failed = true
	} else {
		out, err := r.Encode(result.AST, m.format)
		if err != nil {
			out = err.Error()
			entry.Failed = true
		}
		parts = append(parts, out)
	}

	entry.Output = strings.Join(parts, "\n")
	return entry
}

func (m Model) renderHistory(msg historyLoadedMsg) Entry {
	entry := Entry{Input: ":history"}
	if msg.err != nil {
		entry.Output = msg.err.Error()
		entry.Failed = true
		return entry
	}
	if len(msg.records) == 0 {
		entry.Output = "no recorded runs"
		return entry
	}

	lines := make([]string, 0, len(msg.records))
	for _, rec := range msg.records {
		status := "ok"
		if !rec.Success {
			status = rec.ErrorCode
		}
		id := rec.ID
		if len(id) > 8 {
			id = id[:8]
		}
		lines = append(lines, fmt.Sprintf("%s  %-20s  %s", id, status, rec.Source))
	}
	entry.Output = strings.Join(lines, "\n")
	return entry
}

func (m Model) renderStats(msg statsLoadedMsg) Entry {
	entry := Entry{Input: ":stats"}
	if msg.err != nil {
		entry.Output = msg.err.Error()
		entry.Failed = true
		return entry
	}

	lines := []string{fmt.Sprintf("total %d, succeeded %d, failed %d",
		msg.stats.Total, msg.stats.Succeeded, msg.stats.Failed)}

	codes := make([]string, 0, len(msg.stats.ByCode))
	for code := range msg.stats.ByCode {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	for _, code := range codes {
		lines = append(lines, fmt.Sprintf("  %s: %d", code, msg.stats.ByCode[code]))
	}
	entry.Output = strings.Join(lines, "\n")
	return entry
}

func (m *Model) addEntry(e Entry) {
	m.entries = append(m.entries, e)
	m.updateViewportContent()
}

// Transcript renders every entry as prompt line plus output
func (m Model) Transcript() string {
	var b strings.Builder
	for i, e := range m.entries {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(m.style(PromptStyle, "› "))
		b.WriteString(e.Input)
		if e.Output != "" {
			b.WriteString("\n")
			b.WriteString(e.Output)
		}
	}
	return b.String()
}

func (m Model) style(s lipgloss.Style, text string) string {
	if m.plain {
		return text
	}
	return s.Render(text)
}

func (m *Model) updateViewportContent() {
	if !m.ready {
		return
	}
	content := m.Transcript()
	if content == "" {
		content = m.style(SystemMessageStyle, "Enter a statement to parse it.")
	}
	m.viewport.SetContent(content)
	m.viewport.GotoBottom()
}

// View renders the UI
func (m Model) View() string {
	if !m.ready {
		return "Starting REPL..."
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(TranscriptPanelStyle.Width(m.width - 2).Render(m.viewport.View()))
	b.WriteString("\n")
	b.WriteString(FocusedInputStyle.Width(m.width - 4).Render(m.input.View()))
	b.WriteString("\n")
	b.WriteString(m.renderHelpBar())
	return b.String()
}

func (m Model) renderHeader() string {
	title := TitleStyle.Render("descent")
	if m.version != "" {
		title += " " + SubtitleStyle.Render("v"+m.version)
	}

	status := StatusOKStyle.Render("ready")
	if m.busy {
		status = StatusBusyStyle.Render("parsing...")
	}
	history := SubtitleStyle.Render("history off")
	if m.service.HasHistory() {
		history = SubtitleStyle.Render("history on")
	}

	header := lipgloss.JoinHorizontal(lipgloss.Center,
		title,
		strings.Repeat(" ", 3),
		status,
		strings.Repeat(" ", 3),
		SubtitleStyle.Render("format "+string(m.format)),
		strings.Repeat(" ", 3),
		history,
	)
	return TitlePanelStyle.Width(m.width - 4).Render(header)
}

func (m Model) renderHelpBar() string {
	keys := []struct{ key, desc string }{
		{"enter", "parse"},
		{"↑/↓", "recall"},
		{"pgup/pgdn", "scroll"},
		{"ctrl+l", "clear"},
		{"esc", "quit"},
	}
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = HelpKeyStyle.Render(k.key) + " " + HelpDescStyle.Render(k.desc)
	}
	return strings.Join(parts, "  ")
}

// Run starts the REPL on the alternate screen and blocks until it exits
func Run(cfg Config) error {
	p := tea.NewProgram(New(cfg), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
