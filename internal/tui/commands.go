package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"cosmiq-cli/internal/answer"
	"cosmiq-cli/internal/api"
	"cosmiq-cli/internal/config"
	"cosmiq-cli/internal/notify"
	"cosmiq-cli/internal/refs"
	"cosmiq-cli/internal/service"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
)

// ─── Input dispatcher ───────────────────────────────────────────────────────

func (m model) dispatchInput(input string) (tea.Model, tea.Cmd) {
	if input == "?" {
		return m.cmdHelp()
	}
	if strings.HasPrefix(input, "/") {
		return m.dispatchCommand(input)
	}
	return m.startAnswer(input)
}

func (m model) dispatchCommand(input string) (tea.Model, tea.Cmd) {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return m, nil
	}

	cmd := strings.ToLower(parts[0])
	args := parts[1:]
	rest := strings.TrimSpace(strings.TrimPrefix(input, parts[0]))

	switch cmd {
	case "/help", "/h":
		return m.cmdHelp()
	case "/ask":
		return m.cmdSwitch(answer.Ask, rest)
	case "/chat":
		return m.cmdSwitch(answer.Chat, rest)
	case "/mode":
		return m.cmdMode(args)
	case "/ref":
		return m.cmdRef(args)
	case "/show":
		return m.cmdShow(args)
	case "/save":
		return m.cmdSave(rest)
	case "/history":
		return m.cmdHistory()
	case "/models":
		return m.cmdModels(args)
	case "/notebook":
		return m.cmdNotebook(rest)
	case "/notebooks":
		return m.cmdNotebooks()
	case "/search":
		return m.cmdSearch(rest)
	case "/config":
		return m.cmdConfig()
	case "/clear":
		return m.cmdClear()
	case "/quit", "/exit", "/q":
		return m, tea.Quit
	default:
		return m, tea.Println(errorMsgStyle.Render(fmt.Sprintf("  ✗ Unknown command: %s. Type /help", cmd)))
	}
}

func (m model) requireClient() tea.Cmd {
	if m.client == nil {
		return tea.Println(errorMsgStyle.Render("  ✗ No server configured. Run: cosmiq config set server <url>"))
	}
	return nil
}

func (m model) requireNotebook() tea.Cmd {
	if cmd := m.requireClient(); cmd != nil {
		return cmd
	}
	if m.cfg == nil || m.cfg.NotebookID == "" {
		return tea.Println(errorMsgStyle.Render("  ✗ No notebook set. Use /notebooks, then /notebook <id>"))
	}
	return nil
}

// ─── /help ──────────────────────────────────────────────────────────────────

func (m model) cmdHelp() (tea.Model, tea.Cmd) {
	pad := func(s string, w int) string {
		return s + strings.Repeat(" ", max(w-len(s), 1))
	}
	rows := [][2]string{
		{"/ask [question]", "Ask mode: single questions"},
		{"/chat [message]", "Chat mode: multi-turn conversation"},
		{"/mode [ask|chat]", "Show or set the answer mode"},
		{"/ref <n>", "Open reference n of the last answer"},
		{"/show [token]", "Reprint the last answer, or open source:id"},
		{"/save [title]", "Save the last answer as a note"},
		{"/history", "Show the conversation so far"},
		{"/models [id]", "List models or use one for this session"},
		{"/notebook [id|url]", "Show or set the active notebook"},
		{"/notebooks", "List notebooks"},
		{"/search <query>", "Search sources and notes"},
		{"/config", "Show current configuration"},
		{"/clear", "Clear the screen and conversation"},
		{"/quit", "Exit CosmiQ"},
	}

	lines := []tea.Cmd{
		tea.Println(""),
		tea.Println(dimStyle.Render("  Commands:")),
		tea.Println(""),
	}
	for _, r := range rows {
		lines = append(lines, tea.Println("  "+hintKeyStyle.Render(pad(r[0], 22))+dimStyle.Render(r[1])))
	}
	lines = append(lines,
		tea.Println(""),
		tea.Println(dimStyle.Render("  Or just type a question. Esc cancels an answer in progress.")),
		tea.Println(""),
	)
	return m, tea.Sequence(lines...)
}

// ─── /ask, /chat, /mode ─────────────────────────────────────────────────────

func (m model) cmdSwitch(mode answer.Mode, question string) (tea.Model, tea.Cmd) {
	var switched tea.Cmd
	if m.active != mode {
		m.active = mode
		switched = tea.Println(infoMsgStyle.Render(fmt.Sprintf("  ℹ Switched to %s mode", mode)))
	}
	if question == "" {
		if switched == nil {
			switched = tea.Println(dimStyle.Render(fmt.Sprintf("  Already in %s mode", mode)))
		}
		return m, switched
	}
	next, cmd := m.startAnswer(question)
	if switched == nil {
		return next, cmd
	}
	return next, tea.Sequence(switched, cmd)
}

func (m model) cmdMode(args []string) (tea.Model, tea.Cmd) {
	if len(args) == 0 {
		return m, tea.Println(dimStyle.Render(fmt.Sprintf("  Mode: %s", m.active)))
	}
	mode, ok := answer.ParseMode(args[0])
	if !ok {
		return m, tea.Println(warnMsgStyle.Render("  ! Usage: /mode ask|chat"))
	}
	return m.cmdSwitch(mode, "")
}

// ─── /ref, /show ────────────────────────────────────────────────────────────

func (m model) cmdRef(args []string) (tea.Model, tea.Cmd) {
	if cmd := m.requireClient(); cmd != nil {
		return m, cmd
	}
	if len(args) == 0 {
		return m, tea.Println(warnMsgStyle.Render("  ! Usage: /ref <n>"))
	}
	n, err := strconv.Atoi(strings.Trim(args[0], "[]"))
	if err != nil {
		return m, tea.Println(warnMsgStyle.Render("  ! Usage: /ref <n>"))
	}
	if m.lastAnswer == "" {
		return m, tea.Println(warnMsgStyle.Render("  ! No answer yet."))
	}
	tok, ok := service.ReferenceAt(m.lastAnswer, n)
	if !ok {
		return m, tea.Println(warnMsgStyle.Render(fmt.Sprintf("  ! The last answer has no reference %d.", n)))
	}
	return m, m.openToken(tok)
}

func (m model) cmdShow(args []string) (tea.Model, tea.Cmd) {
	if len(args) == 0 {
		if m.lastAnswer == "" {
			return m, tea.Println(warnMsgStyle.Render("  ! No answer yet."))
		}
		return m, m.printAnswer(m.lastAnswer)
	}
	if cmd := m.requireClient(); cmd != nil {
		return m, cmd
	}
	tok, ok := refs.ParseToken(args[0])
	if !ok {
		return m, tea.Println(warnMsgStyle.Render("  ! Usage: /show source:<id> | note:<id> | source_insight:<id>"))
	}
	return m, m.openToken(tok)
}

func (m model) openToken(tok refs.Token) tea.Cmd {
	m.log.Debug("opening reference", zap.String("token", tok.String()))
	return tea.Sequence(
		tea.Println(statusStyle.Render("  ⟳ Opening "+tok.String()+"...")),
		openRef(context.Background(), m.client, tok),
	)
}

func (m model) handleRefDetail(msg refDetailMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		if api.IsNotFound(msg.err) {
			return m, tea.Println(errorMsgStyle.Render(fmt.Sprintf("  ✗ %s was not found", msg.id)))
		}
		return m, tea.Println(errorMsgStyle.Render("  ✗ Open failed: " + notify.Describe(msg.err)))
	}

	icon := "📄"
	switch msg.kind {
	case refs.KindNote:
		icon = "📝"
	case refs.KindInsight:
		icon = "💡"
	}
	cmds := []tea.Cmd{
		tea.Println(""),
		tea.Println(refHeaderStyle.Render("  " + icon + " " + msg.title)),
		tea.Println(dimStyle.Render("    " + msg.id)),
	}
	for _, line := range msg.meta {
		cmds = append(cmds, tea.Println(dimStyle.Render("    "+line)))
	}
	body := strings.TrimSpace(service.StripHTML(msg.body))
	if body == "" {
		body = "(no content)"
	}
	cmds = append(cmds,
		tea.Println(""),
		tea.Println(strings.TrimRight(indentText(m.renderer.render(body), "  "), "\n")),
		tea.Println(""),
	)
	return m, tea.Sequence(cmds...)
}

// ─── /save ──────────────────────────────────────────────────────────────────

type noteSavedMsg struct {
	note *api.Note
	err  error
}

func (m model) cmdSave(title string) (tea.Model, tea.Cmd) {
	if cmd := m.requireNotebook(); cmd != nil {
		return m, cmd
	}
	if m.lastAnswer == "" {
		return m, tea.Println(warnMsgStyle.Render("  ! No answer to save yet."))
	}
	if title == "" {
		title = service.NoteTitle(m.lastQuestion, service.DefaultNoteTitle)
	}

	client := m.client
	req := api.CreateNoteRequest{
		Content:    m.lastAnswer,
		Title:      title,
		NoteType:   api.NoteTypeAI,
		NotebookID: m.cfg.NotebookID,
	}
	return m, func() tea.Msg {
		note, err := client.CreateNote(context.Background(), req)
		return noteSavedMsg{note: note, err: err}
	}
}

func (m model) handleNoteSaved(msg noteSavedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.log.Warn("saving note failed", zap.Error(msg.err))
		m.notifier.Failure("Failed to save note", msg.err)
		return m, nil
	}
	m.log.Info("note saved", zap.String("note", msg.note.ID))
	m.notifier.Success("Saved to notebook", msg.note.TitleText())
	return m, nil
}

// ─── /history ───────────────────────────────────────────────────────────────

func (m model) cmdHistory() (tea.Model, tea.Cmd) {
	entries := m.conv().History()
	if len(entries) == 0 {
		return m, tea.Println(dimStyle.Render(fmt.Sprintf("  No %s history yet.", m.active)))
	}

	cmds := []tea.Cmd{
		tea.Println(""),
		tea.Println(dimStyle.Render(fmt.Sprintf("  History, %s mode (%d):", m.active, len(entries)))),
	}
	for _, e := range entries {
		at := e.Timestamp.Format("15:04")
		switch {
		case e.Question != "":
			cmds = append(cmds,
				tea.Println(userPromptStyle.Render(fmt.Sprintf("  %s ❯ %s", at, e.Question))),
				tea.Println(dimStyle.Render("          "+service.Tail(e.Content, 100))),
			)
		case e.Role == answer.RoleUser:
			cmds = append(cmds, tea.Println(userPromptStyle.Render(fmt.Sprintf("  %s ❯ %s", at, e.Content))))
		default:
			cmds = append(cmds, tea.Println(dimStyle.Render(fmt.Sprintf("  %s   %s", at, service.Truncate(strings.Join(strings.Fields(e.Content), " "), 100)))))
		}
	}
	cmds = append(cmds, tea.Println(""))
	return m, tea.Sequence(cmds...)
}

// ─── /models ────────────────────────────────────────────────────────────────

type modelListMsg struct {
	rows []service.ModelDisplay
	err  error
}

func (m model) cmdModels(args []string) (tea.Model, tea.Cmd) {
	if len(args) > 0 {
		id := args[0]
		m.models = answer.Models{Strategy: id, Answer: id, Final: id}
		return m, tea.Println(successMsgStyle.Render("  ✓ Using model " + id + " for this session"))
	}
	if cmd := m.requireClient(); cmd != nil {
		return m, cmd
	}

	client := m.client
	return m, tea.Sequence(
		tea.Println(statusStyle.Render("  ⟳ Loading models...")),
		func() tea.Msg {
			ctx := context.Background()
			list, err := client.ListModels(ctx, api.ModelLanguage)
			if err != nil {
				return modelListMsg{err: err}
			}
			defaults, _ := client.GetDefaultModels(ctx)
			return modelListMsg{rows: service.FormatModels(list, defaults)}
		},
	)
}

func (m model) handleModelList(msg modelListMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		return m, tea.Println(errorMsgStyle.Render("  ✗ Failed to load models: " + notify.Describe(msg.err)))
	}
	if len(msg.rows) == 0 {
		return m, tea.Println(warnMsgStyle.Render("  ! No language models configured on the server."))
	}

	cmds := []tea.Cmd{
		tea.Println(""),
		tea.Println(dimStyle.Render(fmt.Sprintf("  Models (%d):", len(msg.rows)))),
	}
	for _, r := range msg.rows {
		marker := "  "
		if r.ID == m.models.Answer {
			marker = "▸ "
		}
		line := fmt.Sprintf("  %s%s %s", marker, r.Name, dimStyle.Render("("+r.Provider+")"))
		if r.Default {
			line += successMsgStyle.Render("  default")
		}
		cmds = append(cmds,
			tea.Println(line),
			tea.Println(dimStyle.Render("      "+r.ID)),
		)
	}
	cmds = append(cmds,
		tea.Println(""),
		tea.Println(dimStyle.Render("  Tip: /models <id> to use a model for this session")),
		tea.Println(""),
	)
	return m, tea.Sequence(cmds...)
}

// ─── /notebook, /notebooks ──────────────────────────────────────────────────

type notebooksLoadedMsg struct {
	notebooks []api.Notebook
	err       error
}

type notebookSetMsg struct {
	notebook api.Notebook
	err      error
}

func (m model) cmdNotebooks() (tea.Model, tea.Cmd) {
	if cmd := m.requireClient(); cmd != nil {
		return m, cmd
	}
	client := m.client
	return m, tea.Sequence(
		tea.Println(statusStyle.Render("  ⟳ Loading notebooks...")),
		func() tea.Msg {
			list, err := client.ListNotebooks(context.Background(), api.NotebookListOptions{OrderBy: "updated desc"})
			if err != nil {
				return notebooksLoadedMsg{err: err}
			}
			return notebooksLoadedMsg{notebooks: service.FilterArchived(list, false)}
		},
	)
}

func (m model) handleNotebooksLoaded(msg notebooksLoadedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		return m, tea.Println(errorMsgStyle.Render("  ✗ Failed to load notebooks: " + notify.Describe(msg.err)))
	}
	if len(msg.notebooks) == 0 {
		return m, tea.Println(warnMsgStyle.Render("  ! No notebooks found."))
	}

	active := notebookStr(m.cfg)
	cmds := []tea.Cmd{
		tea.Println(""),
		tea.Println(dimStyle.Render(fmt.Sprintf("  Notebooks (%d):", len(msg.notebooks)))),
		tea.Println(""),
	}
	for _, n := range msg.notebooks {
		row := service.FormatNotebookRow(n)
		marker := "  "
		if row.ID == active {
			marker = "▸ "
		}
		cmds = append(cmds, tea.Println(fmt.Sprintf("  %s📓 %s", marker, row.Name)))
		detail := row.ID
		if row.Description != "" {
			detail += "  " + row.Description
		}
		cmds = append(cmds, tea.Println(dimStyle.Render("      "+detail)))
	}
	cmds = append(cmds,
		tea.Println(""),
		tea.Println(dimStyle.Render("  Tip: /notebook <id> to make one active")),
		tea.Println(""),
	)
	return m, tea.Sequence(cmds...)
}

func (m model) cmdNotebook(ref string) (tea.Model, tea.Cmd) {
	if ref == "" {
		id := notebookStr(m.cfg)
		if id == "" {
			return m, tea.Println(dimStyle.Render("  No notebook set. Use /notebooks to list them."))
		}
		return m, tea.Sequence(
			tea.Println(dimStyle.Render("  Notebook: "+id)),
			tea.Println(dimStyle.Render("  Web: "+service.BuildNotebookURL(m.cfg.Server, id))),
		)
	}
	if cmd := m.requireClient(); cmd != nil {
		return m, cmd
	}

	id, err := service.ParseNotebookRef(ref)
	if err != nil {
		return m, tea.Println(errorMsgStyle.Render(fmt.Sprintf("  ✗ %v", err)))
	}

	client := m.client
	cfg := m.cfg
	return m, func() tea.Msg {
		ctx := context.Background()
		nb, err := client.GetNotebook(ctx, id)
		if err != nil {
			if !api.IsNotFound(err) {
				return notebookSetMsg{err: err}
			}
			// Not an id; try it as a notebook name.
			list, lerr := client.ListNotebooks(ctx, api.NotebookListOptions{})
			if lerr != nil {
				return notebookSetMsg{err: lerr}
			}
			found, ok := service.FindNotebook(list, id)
			if !ok {
				return notebookSetMsg{err: fmt.Errorf("notebook %q not found", id)}
			}
			nb = &found
		}
		if cfg != nil {
			cfg.NotebookID = nb.ID
			if err := cfg.Save(); err != nil {
				return notebookSetMsg{notebook: *nb, err: fmt.Errorf("saving config: %w", err)}
			}
		}
		return notebookSetMsg{notebook: *nb}
	}
}

func (m model) handleNotebookSet(msg notebookSetMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		return m, tea.Println(errorMsgStyle.Render("  ✗ " + notify.Describe(msg.err)))
	}
	if m.cfg != nil {
		m.cfg.NotebookID = msg.notebook.ID
	}
	row := service.FormatNotebookRow(msg.notebook)
	m.log.Info("notebook selected", zap.String("notebook", row.ID))
	return m, tea.Println(successMsgStyle.Render(fmt.Sprintf("  ✓ Notebook: %s (%s)", row.Name, row.ID)))
}

// ─── /search ────────────────────────────────────────────────────────────────

type searchResultMsg struct {
	query   string
	results []service.SearchDisplay
	err     error
}

func (m model) cmdSearch(query string) (tea.Model, tea.Cmd) {
	if cmd := m.requireClient(); cmd != nil {
		return m, cmd
	}
	if query == "" {
		return m, tea.Println(warnMsgStyle.Render("  ! Usage: /search <query>"))
	}

	return m, tea.Sequence(
		tea.Println(statusStyle.Render(fmt.Sprintf("  ⟳ Searching for %q...", query))),
		searchCmd(m.client, query, notebookStr(m.cfg)),
	)
}

func searchCmd(client api.API, query, notebookID string) tea.Cmd {
	return func() tea.Msg {
		resp, err := client.Search(context.Background(), api.NewSearchRequest(query, notebookID))
		if err != nil {
			return searchResultMsg{query: query, err: err}
		}
		return searchResultMsg{query: query, results: service.NormalizeSearchResults(resp.Results, notebookID)}
	}
}

func (m model) handleSearchResult(msg searchResultMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		return m, tea.Println(errorMsgStyle.Render("  ✗ Search failed: " + notify.Describe(msg.err)))
	}
	if len(msg.results) == 0 {
		return m, tea.Println(warnMsgStyle.Render(fmt.Sprintf("  ! No results for %q.", msg.query)))
	}

	cmds := []tea.Cmd{
		tea.Println(""),
		tea.Println(dimStyle.Render(fmt.Sprintf("  Results (%d):", len(msg.results)))),
		tea.Println(""),
	}
	for i, r := range msg.results {
		icon := "📄"
		if r.Type == "note" {
			icon = "📝"
		}
		cmds = append(cmds, tea.Println(fmt.Sprintf("  %s %s %s  %s",
			refNumberStyle.Render(fmt.Sprintf("%2d.", i+1)), icon, r.Title,
			dimStyle.Render(fmt.Sprintf("%.2f", r.Score)))))
		if r.Excerpt != "" {
			cmds = append(cmds, tea.Println(dimStyle.Render("      "+r.Excerpt)))
		}
		cmds = append(cmds, tea.Println(dimStyle.Render("      /show "+r.TargetID)))
	}
	cmds = append(cmds, tea.Println(""))
	return m, tea.Sequence(cmds...)
}

// ─── /config ────────────────────────────────────────────────────────────────

func (m model) cmdConfig() (tea.Model, tea.Cmd) {
	if m.cfg == nil {
		return m, tea.Println(warnMsgStyle.Render("  ! No configuration loaded. Run: cosmiq config set server <url>"))
	}

	val := func(s string) string {
		if s == "" {
			return dimStyle.Render("(not set)")
		}
		return s
	}
	token := dimStyle.Render("(not set)")
	if m.cfg.Token != "" {
		token = m.cfg.Token[:min(4, len(m.cfg.Token))] + "..."
	}

	return m, tea.Sequence(
		tea.Println(""),
		tea.Println(dimStyle.Render("  Configuration:")),
		tea.Println(fmt.Sprintf("    Profile:   %s", config.ProfileName(m.profile))),
		tea.Println(fmt.Sprintf("    Server:    %s", val(m.cfg.Server))),
		tea.Println(fmt.Sprintf("    Notebook:  %s", val(m.cfg.NotebookID))),
		tea.Println(fmt.Sprintf("    Token:     %s", token)),
		tea.Println(fmt.Sprintf("    Strategy:  %s", val(m.models.Strategy))),
		tea.Println(fmt.Sprintf("    Answer:    %s", val(m.models.Answer))),
		tea.Println(fmt.Sprintf("    Final:     %s", val(m.models.Final))),
		tea.Println(fmt.Sprintf("    Mode:      %s", m.active)),
		tea.Println(dimStyle.Render("    File:      "+m.cfg.Path())),
		tea.Println(""),
	)
}

// ─── /clear ─────────────────────────────────────────────────────────────────

func (m model) cmdClear() (tea.Model, tea.Cmd) {
	if err := m.conv().Clear(); err != nil {
		return m, tea.Println(warnMsgStyle.Render(fmt.Sprintf("  ! %v", err)))
	}
	m.lastAnswer = ""
	m.lastQuestion = ""
	welcome := renderWelcome(m.version, serverStr(m.cfg), notebookStr(m.cfg), m.active.String(), m.width)
	return m, tea.Sequence(tea.ClearScreen, tea.Println(welcome))
}
