package tui

import (
	"context"
	"fmt"
	"strings"

	"cosmiq-cli/internal/answer"
	"cosmiq-cli/internal/api"
	"cosmiq-cli/internal/config"
	"cosmiq-cli/internal/notify"
	"cosmiq-cli/internal/refs"
	"cosmiq-cli/internal/service"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"
)

// ─── App mode ───────────────────────────────────────────────────────────────

type appMode int

const (
	modeIdle appMode = iota
	modeStreaming
	modeResolving
)

const (
	idlePlaceholder = "Ask a question or type /help..."
	maxHistory      = 1000
)

// ─── Slash command registry ─────────────────────────────────────────────────

type slashCmd struct {
	name string
	desc string
}

var slashCommands = []slashCmd{
	{"/ask", "Switch to ask mode, or ask a question"},
	{"/chat", "Switch to chat mode, or send a message"},
	{"/clear", "Clear the screen and conversation"},
	{"/config", "Show current configuration"},
	{"/help", "Show all commands"},
	{"/history", "Show the conversation so far"},
	{"/mode", "Show or set the answer mode"},
	{"/models", "List models or pick one for this session"},
	{"/notebook", "Show or set the active notebook"},
	{"/notebooks", "List notebooks"},
	{"/quit", "Exit CosmiQ"},
	{"/ref", "Open a reference of the last answer"},
	{"/save", "Save the last answer as a note"},
	{"/search", "Search sources and notes"},
	{"/show", "Reprint the last answer, or open a reference token"},
}

// ─── Model ──────────────────────────────────────────────────────────────────

type model struct {
	width  int
	height int

	// Bubble Tea components
	input   textinput.Model
	spinner spinner.Model

	// App state
	mode     appMode
	cfg      *config.Config
	client   api.API
	log      *zap.Logger
	notifier *notify.Notifier
	version  string
	profile  string
	style    string

	// Answer state. One conversation per mode; switching keeps both.
	ask      *answer.Conversation
	chat     *answer.Conversation
	active   answer.Mode
	models   answer.Models
	resolver *refs.Resolver
	renderer *answerRenderer
	proc     *StreamProcessor

	// gen identifies the answer in flight. Messages from older generations
	// are dropped.
	gen      int
	cancel   context.CancelFunc
	streamCh <-chan tea.Msg

	lastAnswer   string
	lastQuestion string

	toastCh <-chan notify.Toast
	cfgCh   <-chan *config.Config

	// UI state
	ready        bool
	cmdMenuIdx   int    // selected index in command menu
	cmdMenuOpen  bool   // whether the command menu is visible
	lastInputVal string // track input changes to reset menu index

	// Input history
	history      []string
	historyIdx   int    // -1 = not browsing
	historySaved string // input saved when entering history mode
}

func initialModel(opts Options) model {
	ti := textinput.New()
	ti.Placeholder = idlePlaceholder
	ti.Focus()
	ti.CharLimit = 4096
	ti.Prompt = "❯ "
	ti.PromptStyle = promptSymbol
	ti.Cursor.Style = lipgloss.NewStyle().Foreground(colorAccent)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(colorAccent)

	n := opts.Notifier
	if n == nil {
		n = &notify.Notifier{}
	}

	m := model{
		input:      ti,
		spinner:    sp,
		mode:       modeIdle,
		cfg:        opts.Config,
		client:     opts.Client,
		log:        opts.Logger,
		notifier:   n,
		version:    opts.Version,
		profile:    opts.Profile,
		style:      opts.Style,
		ask:        answer.New(answer.Ask),
		chat:       answer.New(answer.Chat),
		active:     opts.Mode,
		renderer:   newAnswerRenderer(0, opts.Style),
		proc:       NewStreamProcessor(),
		history:    make([]string, 0),
		historyIdx: -1,
	}
	if m.log == nil {
		m.log = zap.NewNop()
	}
	if m.cfg != nil {
		s, a, f := m.cfg.Models()
		m.models = answer.Models{Strategy: s, Answer: a, Final: f}
	}
	m.resolver = newResolver(m.client, m.cfg, m.log, nil)
	return m
}

// newResolver builds the reference resolver for client, reusing cache when
// it is set. It returns nil without a client.
func newResolver(client api.API, cfg *config.Config, log *zap.Logger, cache *refs.Cache) *refs.Resolver {
	if client == nil {
		return nil
	}
	opts := []refs.Option{refs.WithLogger(log.Named("refs")), refs.WithCache(cache)}
	if cfg != nil {
		opts = append(opts, refs.WithConcurrency(cfg.LookupConcurrency), refs.WithRate(cfg.LookupRate))
	}
	return refs.NewResolver(client, opts...)
}

// conv returns the conversation of the active mode.
func (m model) conv() *answer.Conversation {
	if m.active == answer.Chat {
		return m.chat
	}
	return m.ask
}

// ─── Init ───────────────────────────────────────────────────────────────────

func (m model) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		m.spinner.Tick,
		waitForToast(m.toastCh),
		waitForConfig(m.cfgCh),
		m.loadModels(),
	)
}

// ─── Update ─────────────────────────────────────────────────────────────────

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = m.width - 6
		m.renderer = newAnswerRenderer(m.width, m.style)

		if !m.ready {
			m.ready = true
			welcome := renderWelcome(m.version, serverStr(m.cfg), notebookStr(m.cfg), m.active.String(), m.width)
			cmds = append(cmds, tea.Println(welcome))
		}

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC:
			if m.mode != modeIdle {
				return m.interrupt()
			}
			return m, tea.Quit

		case tea.KeyEsc:
			if m.mode != modeIdle {
				return m.interrupt()
			}
			if m.cmdMenuOpen {
				m.cmdMenuOpen = false
				m.cmdMenuIdx = 0
				return m, nil
			}

		case tea.KeyUp:
			if m.mode == modeIdle {
				if m.cmdMenuOpen {
					matches := matchCommands(m.input.Value())
					if len(matches) > 0 {
						m.cmdMenuIdx--
						if m.cmdMenuIdx < 0 {
							m.cmdMenuIdx = len(matches) - 1
						}
						return m, nil
					}
				} else if len(m.history) > 0 {
					if m.historyIdx == -1 {
						m.historySaved = m.input.Value()
						m.historyIdx = len(m.history) - 1
					} else {
						m.historyIdx = max(m.historyIdx-1, 0)
					}
					m.input.SetValue(m.history[m.historyIdx])
					m.input.CursorEnd()
					return m, nil
				}
			}

		case tea.KeyDown:
			if m.mode == modeIdle {
				if m.cmdMenuOpen {
					matches := matchCommands(m.input.Value())
					if len(matches) > 0 {
						m.cmdMenuIdx++
						if m.cmdMenuIdx >= len(matches) {
							m.cmdMenuIdx = 0
						}
						return m, nil
					}
				} else if m.historyIdx != -1 {
					m.historyIdx++
					if m.historyIdx >= len(m.history) {
						m.historyIdx = -1
						m.input.SetValue(m.historySaved)
						m.historySaved = ""
					} else {
						m.input.SetValue(m.history[m.historyIdx])
					}
					m.input.CursorEnd()
					return m, nil
				}
			}

		case tea.KeyTab:
			if m.mode == modeIdle && m.cmdMenuOpen {
				matches := matchCommands(m.input.Value())
				if len(matches) > 0 {
					idx := m.cmdMenuIdx
					if idx < 0 || idx >= len(matches) {
						idx = 0
					}
					m.input.SetValue(matches[idx].name + " ")
					m.input.CursorEnd()
					m.cmdMenuOpen = false
					m.cmdMenuIdx = 0
				}
				return m, nil
			}

		case tea.KeyEnter:
			if m.mode != modeIdle {
				return m, nil
			}
			if m.cmdMenuOpen {
				matches := matchCommands(m.input.Value())
				// A complete command name runs as typed.
				if m.cmdMenuIdx < len(matches) && !exactCommand(m.input.Value(), matches) {
					m.input.SetValue(matches[m.cmdMenuIdx].name + " ")
					m.input.CursorEnd()
					m.cmdMenuOpen = false
					m.cmdMenuIdx = 0
					return m, nil
				}
			}

			value := strings.TrimSpace(m.input.Value())
			if value == "" {
				return m, nil
			}
			m.pushHistory(value)

			m.input.SetValue("")
			m.cmdMenuOpen = false
			m.cmdMenuIdx = 0
			return m.dispatchInput(value)
		}

	// ── Stream messages ───────────────────────────────────────────────
	case streamEventMsg:
		if msg.gen != m.gen {
			return m, nil
		}
		m.conv().Apply(msg.ev)
		if printCmd := m.printOutputs(m.proc.Process(msg.ev)); printCmd != nil {
			cmds = append(cmds, printCmd)
		}
		if m.streamCh != nil {
			cmds = append(cmds, waitForStream(m.streamCh))
		}
		return m, tea.Batch(cmds...)

	case streamDoneMsg:
		if msg.gen != m.gen {
			return m, nil
		}
		return m.handleStreamDone(msg)

	case refsResolvedMsg:
		if msg.gen != m.gen {
			return m, nil
		}
		if msg.err != nil {
			m.log.Debug("reference resolution stopped", zap.Error(msg.err))
		}
		m.mode = modeIdle
		m.cancel = nil
		return m, m.printAnswer(m.lastAnswer)

	// ── Background notifications ──────────────────────────────────────
	case toastMsg:
		return m, tea.Batch(tea.Println(renderToast(msg.toast)), waitForToast(m.toastCh))

	case configReloadedMsg:
		return m.handleConfigReloaded(msg)

	case modelsLoadedMsg:
		return m.handleModelsLoaded(msg)

	// ── Async results ─────────────────────────────────────────────────
	case refDetailMsg:
		return m.handleRefDetail(msg)

	case noteSavedMsg:
		return m.handleNoteSaved(msg)

	case modelListMsg:
		return m.handleModelList(msg)

	case notebooksLoadedMsg:
		return m.handleNotebooksLoaded(msg)

	case notebookSetMsg:
		return m.handleNotebookSet(msg)

	case searchResultMsg:
		return m.handleSearchResult(msg)
	}

	var cmd tea.Cmd

	if m.mode == modeIdle {
		m.input, cmd = m.input.Update(msg)
		cmds = append(cmds, cmd)
	}

	m.spinner, cmd = m.spinner.Update(msg)
	cmds = append(cmds, cmd)

	newVal := m.input.Value()
	if newVal != m.lastInputVal {
		m.lastInputVal = newVal
		// Editing a recalled entry leaves history mode.
		if m.historyIdx != -1 && m.historyIdx < len(m.history) && m.history[m.historyIdx] != newVal {
			m.historyIdx = -1
			m.historySaved = ""
		}
		m.cmdMenuOpen = strings.HasPrefix(newVal, "/") && !strings.Contains(newVal, " ")
		m.cmdMenuIdx = 0
	}

	return m, tea.Batch(cmds...)
}

func (m *model) pushHistory(value string) {
	if len(m.history) == 0 || m.history[len(m.history)-1] != value {
		m.history = append(m.history, value)
		if len(m.history) > maxHistory {
			m.history = m.history[len(m.history)-maxHistory:]
		}
	}
	m.historyIdx = -1
	m.historySaved = ""
}

// ─── Answer lifecycle ───────────────────────────────────────────────────────

// startAnswer submits question to the active conversation and opens the
// stream.
func (m model) startAnswer(question string) (tea.Model, tea.Cmd) {
	if m.client == nil {
		return m, tea.Println(errorMsgStyle.Render("  ✗ No server configured. Run: cosmiq config set server <url>"))
	}
	if m.mode != modeIdle {
		return m, tea.Println(warnMsgStyle.Render("  ! An answer is already in progress. Press Esc to cancel it."))
	}
	conv := m.conv()
	if err := conv.Submit(question); err != nil {
		return m, tea.Println(errorMsgStyle.Render(fmt.Sprintf("  ✗ %v", err)))
	}

	m.gen++
	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.proc = NewStreamProcessor()
	m.mode = modeStreaming
	m.lastQuestion = conv.Question()
	m.log.Info("ask started",
		zap.String("mode", m.active.String()),
		zap.Int("gen", m.gen),
		zap.String("answer_model", m.models.Answer))

	ch, streamCmd := beginStream(ctx, m.client, conv.Request(m.models), m.gen)
	m.streamCh = ch

	return m, tea.Batch(
		tea.Println(userPromptStyle.Render("❯ "+m.lastQuestion)),
		streamCmd,
	)
}

func (m model) handleStreamDone(msg streamDoneMsg) (tea.Model, tea.Cmd) {
	m.streamCh = nil
	var cmds []tea.Cmd
	if printCmd := m.printOutputs(m.proc.Flush()); printCmd != nil {
		cmds = append(cmds, printCmd)
	}

	conv := m.conv()
	if msg.err != nil {
		conv.Fail(msg.err)
		m.mode = modeIdle
		m.releaseContext()
		m.log.Warn("ask failed", zap.Int("gen", msg.gen), zap.Error(msg.err))
		m.notifier.Failure("Answer failed", msg.err)
		return m, tea.Sequence(cmds...)
	}

	entry, ok := conv.Complete()
	if !ok {
		m.mode = modeIdle
		m.releaseContext()
		cmds = append(cmds, tea.Println(warnMsgStyle.Render("  ! No answer was produced.")))
		return m, tea.Sequence(cmds...)
	}
	m.lastAnswer = entry.Content
	m.log.Info("ask completed", zap.Int("gen", msg.gen), zap.Int("chars", len(entry.Content)))

	if m.resolver == nil || len(m.resolver.Pending(entry.Content)) == 0 {
		m.mode = modeIdle
		m.releaseContext()
		cmds = append(cmds, m.printAnswer(entry.Content))
		return m, tea.Sequence(cmds...)
	}

	// Resolve labels before printing so the answer is printed once.
	m.releaseContext()
	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.mode = modeResolving
	cmds = append(cmds, resolveRefs(ctx, m.resolver, entry.Content, m.gen))
	return m, tea.Sequence(cmds...)
}

// interrupt stops the stream or the label lookups in flight. A cancelled
// stream leaves the history untouched; an interrupted lookup prints the
// answer with the labels resolved so far.
func (m model) interrupt() (tea.Model, tea.Cmd) {
	prev := m.mode
	m.releaseContext()
	m.gen++
	m.mode = modeIdle
	m.streamCh = nil

	if prev == modeResolving {
		return m, m.printAnswer(m.lastAnswer)
	}

	m.conv().Cancel()
	m.log.Info("ask cancelled", zap.Int("gen", m.gen-1))
	var cmds []tea.Cmd
	if printCmd := m.printOutputs(m.proc.Flush()); printCmd != nil {
		cmds = append(cmds, printCmd)
	}
	cmds = append(cmds, tea.Println(warnMsgStyle.Render("  ! Answer cancelled.")))
	return m, tea.Sequence(cmds...)
}

func (m *model) releaseContext() {
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
}

// printAnswer prints a completed answer with numbered references.
func (m model) printAnswer(text string) tea.Cmd {
	var labels refs.Labels
	if m.resolver != nil {
		labels = m.resolver.Cache()
	}
	var cmds []tea.Cmd
	cmds = append(cmds, tea.Println(""))
	for _, line := range answerLines(m.renderer, text, labels) {
		cmds = append(cmds, tea.Println(line))
	}
	cmds = append(cmds, tea.Println(""))
	return tea.Sequence(cmds...)
}

// printOutputs renders strategy output events as printed lines.
func (m model) printOutputs(outs []OutputEvent) tea.Cmd {
	if len(outs) == 0 {
		return nil
	}
	var cmds []tea.Cmd
	for _, o := range outs {
		switch o.Type {
		case OutputStrategyHeader:
			cmds = append(cmds, tea.Println(strategyHeaderStyle.Render("  🧭 "+o.Text)))
		case OutputReasoning:
			cmds = append(cmds, tea.Println(dimStyle.Render("     "+o.Text)))
		case OutputSearch:
			line := searchStyle.Render(fmt.Sprintf("     %d. 🔎 %s", o.Index, o.Text))
			if o.Detail != "" {
				line += dimStyle.Render("  " + service.Truncate(o.Detail, 80))
			}
			cmds = append(cmds, tea.Println(line))
		case OutputBlank:
			cmds = append(cmds, tea.Println(""))
		}
	}
	return tea.Sequence(cmds...)
}

// ─── Models ─────────────────────────────────────────────────────────────────

type modelsLoadedMsg struct {
	models answer.Models
	err    error
}

// loadModels fills the roles the config leaves empty with the backend's
// default chat model.
func (m model) loadModels() tea.Cmd {
	if m.client == nil {
		return nil
	}
	configured := m.models
	if configured.Strategy != "" && configured.Answer != "" && configured.Final != "" {
		return nil
	}
	client := m.client
	return func() tea.Msg {
		ctx := context.Background()
		list, err := client.ListModels(ctx, api.ModelLanguage)
		if err != nil {
			return modelsLoadedMsg{err: err}
		}
		defaults, err := client.GetDefaultModels(ctx)
		if err != nil {
			defaults = nil
		}
		return modelsLoadedMsg{models: service.SelectModels(configured, list, defaults)}
	}
}

func (m model) handleModelsLoaded(msg modelsLoadedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.log.Warn("loading models failed", zap.Error(msg.err))
		return m, tea.Println(warnMsgStyle.Render("  ! Could not load models: " + notify.Describe(msg.err)))
	}
	m.models = msg.models
	m.log.Debug("models selected",
		zap.String("strategy", m.models.Strategy),
		zap.String("answer", m.models.Answer),
		zap.String("final", m.models.Final))
	if m.models.Answer == "" {
		return m, tea.Println(warnMsgStyle.Render("  ! No language model configured. Use /models to pick one."))
	}
	return m, nil
}

// ─── Config reload ──────────────────────────────────────────────────────────

func (m model) handleConfigReloaded(msg configReloadedMsg) (tea.Model, tea.Cmd) {
	next := msg.cfg
	cmds := []tea.Cmd{waitForConfig(m.cfgCh)}
	if next == nil {
		return m, tea.Batch(cmds...)
	}

	prev := m.cfg
	m.cfg = next
	if prev == nil || prev.Server != next.Server || prev.Token != next.Token || prev.RequestTimeout != next.RequestTimeout {
		m.client = api.NewClient(next, api.WithLogger(m.log.Named("api")))
		var cache *refs.Cache
		if prev != nil && prev.Server == next.Server && m.resolver != nil {
			cache = m.resolver.Cache()
		}
		m.resolver = newResolver(m.client, next, m.log, cache)
	}
	s, a, f := next.Models()
	m.models = answer.Models{Strategy: s, Answer: a, Final: f}
	m.log.Info("config reloaded", zap.String("server", next.Server), zap.String("notebook", next.NotebookID))

	cmds = append(cmds, tea.Println(infoMsgStyle.Render("  ℹ Configuration reloaded")), m.loadModels())
	return m, tea.Batch(cmds...)
}

// ─── View ───────────────────────────────────────────────────────────────────
//
// Inline mode: View() only shows the input prompt, progress and hints.
// All output is printed above via tea.Println.

func (m model) View() string {
	if !m.ready {
		return ""
	}

	var s strings.Builder

	switch m.mode {
	case modeStreaming:
		status := "Thinking..."
		if st := m.proc.LastStatus(); st != "" {
			status = st
		}
		s.WriteString(m.spinner.View() + " " + statusStyle.Render(status))
		if draft := m.conv().Draft(); draft != "" {
			s.WriteString("\n" + draftStyle.Render("  "+service.Tail(service.StripHTML(draft), max(m.width-10, 20))))
		}
	case modeResolving:
		s.WriteString(m.spinner.View() + " " + statusStyle.Render("Resolving references..."))
	default:
		s.WriteString(m.input.View())
	}
	s.WriteString("\n")

	sepWidth := max(min(m.width, 80), 20)
	s.WriteString(separatorStyle.Render(strings.Repeat("─", sepWidth)))
	s.WriteString("\n")

	s.WriteString(m.renderHints())

	return s.String()
}

// ─── Hint bar ───────────────────────────────────────────────────────────────

func (m model) renderHints() string {
	badge := modeBadgeStyle.Render(m.active.String())
	switch m.mode {
	case modeStreaming:
		return badge + hintBarStyle.Render("  Esc cancel")
	case modeResolving:
		return badge + hintBarStyle.Render("  Esc skip")
	}

	if m.cmdMenuOpen {
		if matches := matchCommands(m.input.Value()); len(matches) > 0 {
			return m.renderCommandMenu(matches)
		}
	}

	return badge + hintBarStyle.Render("  ? for help")
}

// renderCommandMenu renders a vertical list of matching commands.
func (m model) renderCommandMenu(matches []slashCmd) string {
	maxLen := 0
	for _, c := range matches {
		maxLen = max(maxLen, len(c.name))
	}

	var lines []string
	for i, c := range matches {
		padded := c.name + strings.Repeat(" ", maxLen-len(c.name))
		var line string
		if i == m.cmdMenuIdx {
			line = "  " + cmdSelectedNameStyle.Render(padded) + "  " + cmdSelectedDescStyle.Render(c.desc)
		} else {
			line = "  " + cmdNameStyle.Render(padded) + "  " + cmdDescStyle.Render(c.desc)
		}
		lines = append(lines, line)
	}

	lines = append(lines, hintBarStyle.Render("  ↑↓ navigate  Tab/Enter select"))
	return strings.Join(lines, "\n")
}

// matchCommands returns all slash commands matching a prefix.
func matchCommands(prefix string) []slashCmd {
	prefix = strings.ToLower(strings.TrimSpace(prefix))
	if prefix == "/" {
		return slashCommands
	}
	var matches []slashCmd
	for _, c := range slashCommands {
		if strings.HasPrefix(c.name, prefix) {
			matches = append(matches, c)
		}
	}
	return matches
}

func exactCommand(value string, matches []slashCmd) bool {
	value = strings.ToLower(strings.TrimSpace(value))
	for _, c := range matches {
		if c.name == value {
			return true
		}
	}
	return false
}

// ─── Helpers ────────────────────────────────────────────────────────────────

func renderToast(t notify.Toast) string {
	text := t.Title
	if t.Description != "" {
		text += ": " + t.Description
	}
	switch t.Variant {
	case notify.Success:
		return successMsgStyle.Render("  ✓ " + text)
	case notify.Error:
		return errorMsgStyle.Render("  ✗ " + text)
	case notify.Warning:
		return warnMsgStyle.Render("  ! " + text)
	case notify.Info:
		return infoMsgStyle.Render("  ℹ " + text)
	default:
		return "  " + text
	}
}

func serverStr(cfg *config.Config) string {
	if cfg == nil {
		return ""
	}
	return cfg.Server
}

func notebookStr(cfg *config.Config) string {
	if cfg == nil {
		return ""
	}
	return cfg.NotebookID
}
