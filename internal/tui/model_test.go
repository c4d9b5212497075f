package tui

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"cosmiq-cli/internal/answer"
	"cosmiq-cli/internal/api"
	"cosmiq-cli/internal/config"
	"cosmiq-cli/internal/notify"
	"cosmiq-cli/internal/refs"
	"cosmiq-cli/internal/service"

	tea "github.com/charmbracelet/bubbletea"
)

// mockAPI implements api.API for testing. Methods the tests do not exercise
// fall through to the nil embedded interface.
type mockAPI struct {
	api.API

	events   []api.StreamEvent
	models   []api.Model
	defaults *api.DefaultModels
	sources  map[string]*api.Source
	notes    map[string]*api.Note
	insights map[string]*api.SourceInsight
	books    []api.Notebook
	results  []api.SearchResult

	mu        sync.Mutex
	created   []api.CreateNoteRequest
	asked     []api.AskRequest
	searchReq []api.SearchRequest

	err error // if set, all methods return this error
}

var notFound = &api.HTTPError{Status: 404, StatusText: "Not Found", Detail: "not found"}

func (m *mockAPI) AskStream(ctx context.Context, req api.AskRequest, h api.StreamHandler) error {
	m.mu.Lock()
	m.asked = append(m.asked, req)
	m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	for _, ev := range m.events {
		if h.OnEvent != nil {
			h.OnEvent(ev)
		}
	}
	if h.OnComplete != nil {
		h.OnComplete()
	}
	return nil
}

func (m *mockAPI) GetSource(ctx context.Context, id string) (*api.Source, error) {
	if m.err != nil {
		return nil, m.err
	}
	if s, ok := m.sources[id]; ok {
		return s, nil
	}
	return nil, notFound
}

func (m *mockAPI) GetNote(ctx context.Context, id string) (*api.Note, error) {
	if m.err != nil {
		return nil, m.err
	}
	if n, ok := m.notes[id]; ok {
		return n, nil
	}
	return nil, notFound
}

func (m *mockAPI) GetInsight(ctx context.Context, id string) (*api.SourceInsight, error) {
	if m.err != nil {
		return nil, m.err
	}
	if in, ok := m.insights[id]; ok {
		return in, nil
	}
	return nil, notFound
}

func (m *mockAPI) ListModels(ctx context.Context, modelType string) ([]api.Model, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.models, nil
}

func (m *mockAPI) GetDefaultModels(ctx context.Context) (*api.DefaultModels, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.defaults, nil
}

func (m *mockAPI) CreateNote(ctx context.Context, req api.CreateNoteRequest) (*api.Note, error) {
	m.mu.Lock()
	m.created = append(m.created, req)
	m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	title, content := req.Title, req.Content
	return &api.Note{ID: "note:new1", Title: &title, Content: &content, NoteType: req.NoteType, NotebookID: req.NotebookID}, nil
}

func (m *mockAPI) ListNotebooks(ctx context.Context, opts api.NotebookListOptions) ([]api.Notebook, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.books, nil
}

func (m *mockAPI) GetNotebook(ctx context.Context, id string) (*api.Notebook, error) {
	if m.err != nil {
		return nil, m.err
	}
	for _, n := range m.books {
		if n.ID == id {
			return &n, nil
		}
	}
	return nil, notFound
}

func (m *mockAPI) Search(ctx context.Context, req api.SearchRequest) (*api.SearchResponse, error) {
	m.mu.Lock()
	m.searchReq = append(m.searchReq, req)
	m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return &api.SearchResponse{Results: m.results}, nil
}

func strPtr(s string) *string { return &s }

func newTestModel() model {
	cfg := &config.Config{
		Server:      "http://localhost:5055",
		Token:       "test-token",
		NotebookID:  "notebook:nb1",
		AnswerModel: "model:m1",
	}
	m := initialModel(Options{
		Version: "test",
		Config:  cfg,
		Client:  &mockAPI{},
		Style:   "notty",
	})
	m.ready = true
	m.width = 80
	m.height = 24
	return m
}

func mockOf(m model) *mockAPI {
	return m.client.(*mockAPI)
}

// started returns m after submitting question.
func started(t *testing.T, m model, question string) model {
	t.Helper()
	result, _ := m.startAnswer(question)
	rm := result.(model)
	if rm.mode != modeStreaming {
		t.Fatalf("mode = %d, want modeStreaming", rm.mode)
	}
	t.Cleanup(func() { rm.releaseContext() })
	return rm
}

func update(m model, msg tea.Msg) (model, tea.Cmd) {
	result, cmd := m.Update(msg)
	return result.(model), cmd
}

func TestDispatchCommand(t *testing.T) {
	tests := []struct {
		input    string
		wantMode appMode
	}{
		{"/help", modeIdle},
		{"/config", modeIdle},
		{"/clear", modeIdle},
		{"/history", modeIdle},
		{"/mode", modeIdle},
		{"/quit", modeIdle},
		{"/unknown", modeIdle},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			m := newTestModel()
			result, cmd := m.dispatchCommand(tt.input)
			rm := result.(model)
			if rm.mode != tt.wantMode {
				t.Errorf("mode = %d, want %d", rm.mode, tt.wantMode)
			}
			if cmd == nil {
				t.Errorf("%s returned no cmd", tt.input)
			}
		})
	}
}

func TestDispatchInput(t *testing.T) {
	t.Run("question mark shows help", func(t *testing.T) {
		m := newTestModel()
		result, cmd := m.dispatchInput("?")
		rm := result.(model)
		if rm.mode != modeIdle || cmd == nil {
			t.Errorf("mode = %d, cmd = %v; want idle with output", rm.mode, cmd)
		}
	})

	t.Run("plain text starts an answer", func(t *testing.T) {
		m := newTestModel()
		rm := started(t, m, "What is graphene?")
		if rm.gen != 1 {
			t.Errorf("gen = %d, want 1", rm.gen)
		}
		if rm.cancel == nil || rm.streamCh == nil {
			t.Error("stream context or channel not set")
		}
		if rm.lastQuestion != "What is graphene?" {
			t.Errorf("lastQuestion = %q", rm.lastQuestion)
		}
		if !rm.conv().Streaming() {
			t.Error("conversation should be streaming")
		}
	})

	t.Run("question without client shows error", func(t *testing.T) {
		m := newTestModel()
		m.client = nil
		result, cmd := m.dispatchInput("test question")
		rm := result.(model)
		if rm.mode != modeIdle {
			t.Errorf("mode = %d, want modeIdle", rm.mode)
		}
		if cmd == nil {
			t.Error("expected error message cmd, got nil")
		}
	})
}

func TestSubmitRejectedWhileStreaming(t *testing.T) {
	m := started(t, newTestModel(), "first")
	result, cmd := m.startAnswer("second")
	rm := result.(model)
	if rm.gen != m.gen {
		t.Errorf("gen = %d, want %d", rm.gen, m.gen)
	}
	if rm.lastQuestion != "first" {
		t.Errorf("lastQuestion = %q, want first", rm.lastQuestion)
	}
	if cmd == nil {
		t.Error("expected a warning")
	}

	// Enter is ignored while streaming.
	rm.input.SetValue("typed")
	rm, cmd = update(rm, tea.KeyMsg{Type: tea.KeyEnter})
	if cmd != nil || rm.lastQuestion != "first" {
		t.Error("Enter during streaming should do nothing")
	}
}

func TestStreamEventsFoldIntoDraft(t *testing.T) {
	m := started(t, newTestModel(), "q")

	m, cmd := update(m, streamEventMsg{gen: m.gen, ev: api.StreamEvent{Type: api.EventAnswer, Content: "Hello "}})
	if cmd == nil {
		t.Error("expected the stream to be re-armed")
	}
	m, _ = update(m, streamEventMsg{gen: m.gen, ev: api.StreamEvent{Type: api.EventAnswer, Content: "world"}})
	if got := m.conv().Draft(); got != "Hello world" {
		t.Errorf("draft = %q, want %q", got, "Hello world")
	}
	if got := m.proc.LastStatus(); got != "Writing answer..." {
		t.Errorf("status = %q", got)
	}

	m, _ = update(m, streamEventMsg{gen: m.gen, ev: api.StreamEvent{Type: api.EventFinalAnswer, FinalAnswer: "Final."}})
	if got := m.conv().Draft(); got != "Final." {
		t.Errorf("draft = %q, want final answer", got)
	}
}

func TestStaleGenerationDropped(t *testing.T) {
	m := started(t, newTestModel(), "q")

	rm, cmd := update(m, streamEventMsg{gen: m.gen - 1, ev: api.StreamEvent{Type: api.EventAnswer, Content: "late"}})
	if cmd != nil {
		t.Error("stale event should not re-arm the stream")
	}
	if rm.conv().Draft() != "" {
		t.Errorf("draft = %q, want empty", rm.conv().Draft())
	}

	rm, _ = update(rm, streamDoneMsg{gen: m.gen + 5})
	if rm.mode != modeStreaming {
		t.Error("stale done should not end the current answer")
	}
}

func TestStreamDoneWithoutReferences(t *testing.T) {
	m := started(t, newTestModel(), "What is graphene?")
	m, _ = update(m, streamEventMsg{gen: m.gen, ev: api.StreamEvent{Type: api.EventAnswer, Content: "A carbon allotrope."}})

	rm, cmd := update(m, streamDoneMsg{gen: m.gen})
	if rm.mode != modeIdle {
		t.Errorf("mode = %d, want modeIdle", rm.mode)
	}
	if cmd == nil {
		t.Error("expected the answer to be printed")
	}
	if rm.lastAnswer != "A carbon allotrope." {
		t.Errorf("lastAnswer = %q", rm.lastAnswer)
	}
	hist := rm.conv().History()
	if len(hist) != 1 || hist[0].Question != "What is graphene?" {
		t.Errorf("history = %+v", hist)
	}
	if rm.cancel != nil {
		t.Error("context should be released")
	}
}

func TestStreamDoneResolvesReferences(t *testing.T) {
	m := started(t, newTestModel(), "q")
	m, _ = update(m, streamEventMsg{gen: m.gen, ev: api.StreamEvent{Type: api.EventAnswer, Content: "See [source:abc1]."}})

	rm, cmd := update(m, streamDoneMsg{gen: m.gen})
	if rm.mode != modeResolving {
		t.Fatalf("mode = %d, want modeResolving", rm.mode)
	}
	if cmd == nil {
		t.Fatal("expected a resolve cmd")
	}

	rm, cmd = update(rm, refsResolvedMsg{gen: rm.gen})
	if rm.mode != modeIdle {
		t.Errorf("mode = %d, want modeIdle", rm.mode)
	}
	if cmd == nil {
		t.Error("expected the answer to be printed")
	}
}

func TestStreamDoneError(t *testing.T) {
	m := started(t, newTestModel(), "q")
	m, _ = update(m, streamEventMsg{gen: m.gen, ev: api.StreamEvent{Type: api.EventAnswer, Content: "partial"}})

	var toasts []notify.Toast
	unsubscribe := m.notifier.Subscribe(func(t notify.Toast) { toasts = append(toasts, t) })
	defer unsubscribe()

	rm, _ := update(m, streamDoneMsg{gen: m.gen, err: &api.StreamError{Message: "model offline"}})
	if rm.mode != modeIdle {
		t.Errorf("mode = %d, want modeIdle", rm.mode)
	}
	if len(toasts) != 1 || toasts[0].Variant != notify.Error || toasts[0].Description != "model offline" {
		t.Errorf("toasts = %+v, want one error toast", toasts)
	}
	if got := rm.conv().Failure(); got != "model offline" {
		t.Errorf("failure = %q", got)
	}
	if len(rm.conv().History()) != 0 {
		t.Error("failed answer must not be committed")
	}
	if rm.lastAnswer != "" {
		t.Errorf("lastAnswer = %q, want empty", rm.lastAnswer)
	}
}

func TestStreamDoneHTTPErrorToast(t *testing.T) {
	m := started(t, newTestModel(), "q")
	ch, unsubscribe := subscribeToasts(m.notifier)
	defer unsubscribe()
	m.toastCh = ch

	err := &api.HTTPError{Status: 503, Detail: "answer model unavailable"}
	rm, _ := update(m, streamDoneMsg{gen: m.gen, err: err})

	msg, ok := waitForToast(rm.toastCh)().(toastMsg)
	if !ok {
		t.Fatal("no toast delivered")
	}
	if msg.toast.Variant != notify.Error || msg.toast.Title != "Answer failed" {
		t.Errorf("toast = %+v", msg.toast)
	}
	if msg.toast.Description != "answer model unavailable" {
		t.Errorf("description = %q, want the server detail", msg.toast.Description)
	}
	if !strings.Contains(renderToast(msg.toast), "answer model unavailable") {
		t.Errorf("rendered toast = %q", renderToast(msg.toast))
	}
}

func TestStreamDoneEmptyAnswer(t *testing.T) {
	m := started(t, newTestModel(), "q")
	rm, cmd := update(m, streamDoneMsg{gen: m.gen})
	if rm.mode != modeIdle || cmd == nil {
		t.Errorf("mode = %d, cmd = %v; want idle with warning", rm.mode, cmd)
	}
	if len(rm.conv().History()) != 0 {
		t.Error("empty answer must not be committed")
	}
}

func TestCancelStream(t *testing.T) {
	for _, key := range []tea.KeyType{tea.KeyEsc, tea.KeyCtrlC} {
		t.Run(tea.Key{Type: key}.String(), func(t *testing.T) {
			m := started(t, newTestModel(), "q")
			gen := m.gen
			m, _ = update(m, streamEventMsg{gen: gen, ev: api.StreamEvent{Type: api.EventAnswer, Content: "partial"}})

			rm, cmd := update(m, tea.KeyMsg{Type: key})
			if rm.mode != modeIdle {
				t.Errorf("mode = %d, want modeIdle", rm.mode)
			}
			if rm.gen != gen+1 {
				t.Errorf("gen = %d, want %d", rm.gen, gen+1)
			}
			if cmd == nil {
				t.Error("expected a cancellation notice")
			}
			if rm.conv().Streaming() || rm.conv().Draft() != "" {
				t.Error("conversation should be reset")
			}
			if len(rm.conv().History()) != 0 {
				t.Error("cancel must not touch ask history")
			}

			// Events from the cancelled stream are dropped.
			rm, _ = update(rm, streamEventMsg{gen: gen, ev: api.StreamEvent{Type: api.EventAnswer, Content: "late"}})
			if rm.conv().Draft() != "" {
				t.Error("late event applied after cancel")
			}
		})
	}
}

func TestCancelChatKeepsUserMessage(t *testing.T) {
	m := newTestModel()
	m.active = answer.Chat
	m = started(t, m, "hello")

	rm, _ := update(m, tea.KeyMsg{Type: tea.KeyEsc})
	hist := rm.chat.History()
	if len(hist) != 1 || hist[0].Role != answer.RoleUser || hist[0].Content != "hello" {
		t.Errorf("chat history = %+v, want the user message only", hist)
	}
	if len(rm.ask.History()) != 0 {
		t.Error("ask history should be untouched")
	}
}

func TestSkipResolving(t *testing.T) {
	m := started(t, newTestModel(), "q")
	m, _ = update(m, streamEventMsg{gen: m.gen, ev: api.StreamEvent{Type: api.EventAnswer, Content: "See [note:n1]."}})
	m, _ = update(m, streamDoneMsg{gen: m.gen})
	if m.mode != modeResolving {
		t.Fatalf("mode = %d, want modeResolving", m.mode)
	}

	rm, cmd := update(m, tea.KeyMsg{Type: tea.KeyEsc})
	if rm.mode != modeIdle || cmd == nil {
		t.Errorf("mode = %d, cmd = %v; want idle with the answer printed", rm.mode, cmd)
	}
	if len(rm.conv().History()) != 1 {
		t.Error("skipping resolution must keep the committed answer")
	}

	// The late resolution result is dropped.
	rm, cmd = update(rm, refsResolvedMsg{gen: m.gen})
	if cmd != nil {
		t.Error("stale resolve result should be ignored")
	}
}

func TestCtrlCQuitsWhenIdle(t *testing.T) {
	m := newTestModel()
	_, cmd := update(m, tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd == nil {
		t.Fatal("expected quit cmd")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("Ctrl+C while idle should quit")
	}
}

func TestModeCommands(t *testing.T) {
	m := newTestModel()

	result, _ := m.dispatchInput("/chat")
	rm := result.(model)
	if rm.active != answer.Chat {
		t.Errorf("active = %v, want chat", rm.active)
	}

	result, _ = rm.dispatchInput("/mode ask")
	rm = result.(model)
	if rm.active != answer.Ask {
		t.Errorf("active = %v, want ask", rm.active)
	}

	result, cmd := rm.dispatchInput("/mode bogus")
	rm = result.(model)
	if rm.active != answer.Ask || cmd == nil {
		t.Error("invalid mode should warn and keep the current mode")
	}

	result, _ = rm.dispatchInput("/chat tell me more")
	rm = result.(model)
	t.Cleanup(func() { rm.releaseContext() })
	if rm.active != answer.Chat || rm.mode != modeStreaming {
		t.Errorf("active = %v, mode = %d; want chat streaming", rm.active, rm.mode)
	}
	if rm.lastQuestion != "tell me more" {
		t.Errorf("lastQuestion = %q", rm.lastQuestion)
	}
}

func TestRefCommand(t *testing.T) {
	m := newTestModel()

	t.Run("no answer yet", func(t *testing.T) {
		result, cmd := m.cmdRef([]string{"1"})
		if cmd == nil || result.(model).mode != modeIdle {
			t.Error("expected a warning")
		}
	})

	t.Run("bad number", func(t *testing.T) {
		_, cmd := m.cmdRef([]string{"one"})
		if cmd == nil {
			t.Error("expected usage")
		}
	})

	t.Run("out of range and in range", func(t *testing.T) {
		m := m
		m.lastAnswer = "A [source:abc1] B [note:n1]"
		if _, ok := service.ReferenceAt(m.lastAnswer, 3); ok {
			t.Fatal("reference 3 should not exist")
		}
		_, cmd := m.cmdRef([]string{"3"})
		if cmd == nil {
			t.Error("expected a warning for a missing reference")
		}
		_, cmd = m.cmdRef([]string{"[2]"})
		if cmd == nil {
			t.Error("expected an open cmd")
		}
	})
}

func TestOpenRef(t *testing.T) {
	mock := &mockAPI{
		sources: map[string]*api.Source{
			"source:abc1": {
				ID:       "source:abc1",
				Title:    strPtr("Graphene review"),
				FullText: strPtr("Graphene is a single layer of carbon."),
				Asset:    &api.Asset{URL: "https://example.com/graphene"},
				Topics:   []string{"materials"},
			},
		},
		notes: map[string]*api.Note{
			"note:n1": {ID: "note:n1", Content: strPtr("Remember the band gap"), NoteType: api.NoteTypeHuman},
		},
		insights: map[string]*api.SourceInsight{
			"source_insight:i1": {ID: "source_insight:i1", SourceID: "source:abc1", InsightType: "Summary", Content: "Short summary."},
		},
	}
	ctx := context.Background()

	t.Run("source", func(t *testing.T) {
		msg := openRef(ctx, mock, refs.Token{Kind: refs.KindSource, ID: "abc1"})().(refDetailMsg)
		if msg.err != nil {
			t.Fatal(msg.err)
		}
		if msg.title != "Graphene review" || msg.body != "Graphene is a single layer of carbon." {
			t.Errorf("got %+v", msg)
		}
		if !strings.Contains(strings.Join(msg.meta, "\n"), "https://example.com/graphene") {
			t.Errorf("meta = %v, want the asset URL", msg.meta)
		}
	})

	t.Run("note without title uses an excerpt", func(t *testing.T) {
		msg := openRef(ctx, mock, refs.Token{Kind: refs.KindNote, ID: "n1"})().(refDetailMsg)
		if msg.err != nil {
			t.Fatal(msg.err)
		}
		if msg.title != "Remember the band gap..." {
			t.Errorf("title = %q", msg.title)
		}
		if msg.kind != refs.KindNote || msg.id != "note:n1" {
			t.Errorf("kind/id = %s/%s", msg.kind, msg.id)
		}
	})

	t.Run("insight", func(t *testing.T) {
		msg := openRef(ctx, mock, refs.Token{Kind: refs.KindInsight, ID: "i1"})().(refDetailMsg)
		if msg.title != "Summary" || msg.body != "Short summary." {
			t.Errorf("got %+v", msg)
		}
	})

	t.Run("missing record", func(t *testing.T) {
		msg := openRef(ctx, mock, refs.Token{Kind: refs.KindSource, ID: "zzz"})().(refDetailMsg)
		if !api.IsNotFound(msg.err) {
			t.Errorf("err = %v, want not found", msg.err)
		}
		m := newTestModel()
		if _, cmd := m.handleRefDetail(msg); cmd == nil {
			t.Error("expected an error line")
		}
	})
}

func TestSaveCommand(t *testing.T) {
	t.Run("needs an answer", func(t *testing.T) {
		m := newTestModel()
		_, cmd := m.cmdSave("")
		if cmd == nil {
			t.Error("expected a warning")
		}
		if len(mockOf(m).created) != 0 {
			t.Error("nothing should be saved")
		}
	})

	t.Run("needs a notebook", func(t *testing.T) {
		m := newTestModel()
		m.cfg.NotebookID = ""
		m.lastAnswer = "answer"
		_, cmd := m.cmdSave("")
		if cmd == nil {
			t.Error("expected an error")
		}
	})

	t.Run("saves an AI note titled by the question", func(t *testing.T) {
		m := newTestModel()
		m.lastAnswer = "Graphene is carbon."
		m.lastQuestion = "What is graphene?"

		var toasts []notify.Toast
		unsubscribe := m.notifier.Subscribe(func(t notify.Toast) { toasts = append(toasts, t) })
		defer unsubscribe()

		_, cmd := m.cmdSave("")
		msg, ok := cmd().(noteSavedMsg)
		if !ok {
			t.Fatalf("cmd returned %T, want noteSavedMsg", cmd())
		}
		created := mockOf(m).created
		if len(created) == 0 {
			t.Fatal("no note created")
		}
		req := created[0]
		if req.Title != "What is graphene?" || req.NoteType != api.NoteTypeAI || req.NotebookID != "notebook:nb1" || req.Content != "Graphene is carbon." {
			t.Errorf("request = %+v", req)
		}

		m.handleNoteSaved(msg)
		if len(toasts) != 1 || toasts[0].Variant != notify.Success {
			t.Errorf("toasts = %+v, want one success", toasts)
		}
	})

	t.Run("explicit title and failure toast", func(t *testing.T) {
		m := newTestModel()
		m.lastAnswer = "x"
		mockOf(m).err = errors.New("boom")

		var toasts []notify.Toast
		unsubscribe := m.notifier.Subscribe(func(t notify.Toast) { toasts = append(toasts, t) })
		defer unsubscribe()

		_, cmd := m.cmdSave("My title")
		m.handleNoteSaved(cmd().(noteSavedMsg))
		if got := mockOf(m).created[0].Title; got != "My title" {
			t.Errorf("title = %q", got)
		}
		if len(toasts) != 1 || toasts[0].Variant != notify.Error || toasts[0].Description != "boom" {
			t.Errorf("toasts = %+v, want one error", toasts)
		}
	})
}

func TestLoadModels(t *testing.T) {
	t.Run("fully configured skips the lookup", func(t *testing.T) {
		m := newTestModel()
		m.models = answer.Models{Strategy: "a", Answer: "b", Final: "c"}
		if cmd := m.loadModels(); cmd != nil {
			t.Error("expected no lookup")
		}
	})

	t.Run("fills empty roles from the default chat model", func(t *testing.T) {
		m := newTestModel()
		m.models = answer.Models{}
		mock := mockOf(m)
		mock.models = []api.Model{{ID: "model:x", Type: api.ModelLanguage}, {ID: "model:y", Type: api.ModelLanguage}}
		mock.defaults = &api.DefaultModels{DefaultChatModel: strPtr("model:y")}

		msg := m.loadModels()().(modelsLoadedMsg)
		rm, _ := m.handleModelsLoaded(msg)
		got := rm.(model).models
		want := answer.Models{Strategy: "model:y", Answer: "model:y", Final: "model:y"}
		if got != want {
			t.Errorf("models = %+v, want %+v", got, want)
		}
	})

	t.Run("failure keeps configured models", func(t *testing.T) {
		m := newTestModel()
		before := m.models
		rm, cmd := m.handleModelsLoaded(modelsLoadedMsg{err: errors.New("down")})
		if rm.(model).models != before || cmd == nil {
			t.Error("expected a warning and unchanged models")
		}
	})
}

func TestModelsCommandOverridesSession(t *testing.T) {
	m := newTestModel()
	result, _ := m.dispatchInput("/models model:z")
	rm := result.(model)
	want := answer.Models{Strategy: "model:z", Answer: "model:z", Final: "model:z"}
	if rm.models != want {
		t.Errorf("models = %+v, want %+v", rm.models, want)
	}

	rm = started(t, rm, "q")
	// The request is built from the session models.
	req := rm.conv().Request(rm.models)
	if req.AnswerModel != "model:z" || req.StrategyModel != "model:z" {
		t.Errorf("request = %+v", req)
	}
}

func TestNotebookCommand(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	m := newTestModel()
	mockOf(m).books = []api.Notebook{
		{ID: "notebook:a1", Name: "Research"},
		{ID: "notebook:b2", Name: "Reading"},
	}

	t.Run("by name", func(t *testing.T) {
		_, cmd := m.cmdNotebook("Reading")
		msg := cmd().(notebookSetMsg)
		if msg.err != nil {
			t.Fatal(msg.err)
		}
		rm, _ := m.handleNotebookSet(msg)
		if got := rm.(model).cfg.NotebookID; got != "notebook:b2" {
			t.Errorf("NotebookID = %q", got)
		}
	})

	t.Run("by url", func(t *testing.T) {
		_, cmd := m.cmdNotebook("http://localhost:8502/notebook/notebook:a1")
		msg := cmd().(notebookSetMsg)
		if msg.err != nil || msg.notebook.ID != "notebook:a1" {
			t.Errorf("msg = %+v", msg)
		}
	})

	t.Run("unknown", func(t *testing.T) {
		_, cmd := m.cmdNotebook("nope")
		msg := cmd().(notebookSetMsg)
		if msg.err == nil {
			t.Error("expected not found")
		}
	})
}

func TestSearchCommand(t *testing.T) {
	m := newTestModel()
	mock := mockOf(m)
	mock.results = []api.SearchResult{
		{ID: "source_embedding:e1", ParentID: "source:abc1", Title: strPtr("Graphene"), Content: strPtr("carbon lattice")},
	}

	_, cmd := m.cmdSearch("")
	if cmd == nil {
		t.Error("expected usage")
	}

	msg := searchCmd(mock, "graphene", "notebook:nb1")().(searchResultMsg)
	if msg.err != nil {
		t.Fatal(msg.err)
	}
	if got := mock.searchReq[0]; got.Query != "graphene" || got.NotebookID != "notebook:nb1" {
		t.Errorf("request = %+v", got)
	}
	if msg.results[0].TargetID != "source:abc1" || msg.results[0].Type != "source" {
		t.Errorf("results = %+v", msg.results)
	}
	if _, cmd := m.handleSearchResult(msg); cmd == nil {
		t.Error("expected results output")
	}
	if _, cmd := m.handleSearchResult(searchResultMsg{query: "x"}); cmd == nil {
		t.Error("expected a no-results warning")
	}
}

func TestConfigReload(t *testing.T) {
	m := newTestModel()
	before := m.client

	t.Run("same server keeps the client", func(t *testing.T) {
		next := *m.cfg
		next.AnswerModel = "model:new"
		rm, cmd := m.handleConfigReloaded(configReloadedMsg{cfg: &next})
		got := rm.(model)
		if got.client != before {
			t.Error("client should be kept")
		}
		if got.models.Answer != "model:new" {
			t.Errorf("answer model = %q", got.models.Answer)
		}
		if cmd == nil {
			t.Error("expected a notice")
		}
	})

	t.Run("new server rebuilds the client", func(t *testing.T) {
		next := *m.cfg
		next.Server = "http://other:5055"
		rm, _ := m.handleConfigReloaded(configReloadedMsg{cfg: &next})
		got := rm.(model)
		if _, ok := got.client.(*api.Client); !ok {
			t.Errorf("client = %T, want *api.Client", got.client)
		}
		if got.resolver == nil || got.resolver == m.resolver {
			t.Error("resolver should be rebuilt")
		}
	})
}

func TestHistoryNavigation(t *testing.T) {
	m := newTestModel()
	m.history = []string{"/help", "/config"}

	m, _ = update(m, tea.KeyMsg{Type: tea.KeyUp})
	if m.input.Value() != "/config" {
		t.Errorf("input = %q, want /config", m.input.Value())
	}
	m, _ = update(m, tea.KeyMsg{Type: tea.KeyUp})
	if m.input.Value() != "/help" {
		t.Errorf("input = %q, want /help", m.input.Value())
	}
	m, _ = update(m, tea.KeyMsg{Type: tea.KeyDown})
	m, _ = update(m, tea.KeyMsg{Type: tea.KeyDown})
	if m.input.Value() != "" || m.historyIdx != -1 {
		t.Errorf("input = %q, idx = %d; want restored empty input", m.input.Value(), m.historyIdx)
	}
}

func TestPushHistory(t *testing.T) {
	m := newTestModel()
	m.pushHistory("a")
	m.pushHistory("a")
	m.pushHistory("b")
	if len(m.history) != 2 {
		t.Errorf("history = %v, want consecutive duplicates collapsed", m.history)
	}
	for i := 0; i < maxHistory+10; i++ {
		m.pushHistory(strings.Repeat("x", i%3+1) + string(rune('a'+i%26)))
	}
	if len(m.history) > maxHistory {
		t.Errorf("history length = %d, want <= %d", len(m.history), maxHistory)
	}
}

func TestView(t *testing.T) {
	m := newTestModel()
	if !strings.Contains(m.View(), "? for help") {
		t.Error("idle view should show the help hint")
	}

	m = started(t, m, "q")
	m, _ = update(m, streamEventMsg{gen: m.gen, ev: api.StreamEvent{Type: api.EventAnswer, Content: "drafting the answer"}})
	view := m.View()
	if !strings.Contains(view, "Writing answer...") || !strings.Contains(view, "drafting the answer") {
		t.Errorf("streaming view = %q", view)
	}
	if !strings.Contains(view, "Esc cancel") {
		t.Error("streaming view should offer cancel")
	}

	m.ready = false
	if m.View() != "" {
		t.Error("view before the first resize should be empty")
	}
}

func TestRenderToast(t *testing.T) {
	tests := []struct {
		toast notify.Toast
		want  string
	}{
		{notify.Toast{Title: "Saved", Variant: notify.Success}, "✓ Saved"},
		{notify.Toast{Title: "Failed", Description: "boom", Variant: notify.Error}, "✗ Failed: boom"},
		{notify.Toast{Title: "Careful", Variant: notify.Warning}, "! Careful"},
		{notify.Toast{Title: "FYI", Variant: notify.Info}, "ℹ FYI"},
		{notify.Toast{Title: "Plain"}, "Plain"},
	}
	for _, tt := range tests {
		if got := renderToast(tt.toast); !strings.Contains(got, tt.want) {
			t.Errorf("renderToast(%+v) = %q, want it to contain %q", tt.toast, got, tt.want)
		}
	}
}

func TestAnswerLines(t *testing.T) {
	r := newAnswerRenderer(80, "notty")
	cache := refs.NewCache()
	cache.Set("source:abc1", "Graphene review")

	lines := answerLines(r, "Carbon [source:abc1] and [note:n1].", cache)
	out := strings.Join(lines, "\n")
	for _, want := range []string{"📎 References", "[1]", "Graphene review", "(source:abc1)", "[2]", "Loading...", "/ref <n>"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	plain := answerLines(r, "No citations here.", cache)
	if len(plain) != 1 {
		t.Errorf("plain answer lines = %d, want 1", len(plain))
	}
}
