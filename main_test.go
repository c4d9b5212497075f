package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"cosmiq-cli/internal/answer"
	"cosmiq-cli/internal/api"
	"cosmiq-cli/internal/config"
	"cosmiq-cli/internal/display"
	"cosmiq-cli/internal/tui"
)

// fakeAPI implements the calls the commands make. Unimplemented methods
// panic through the nil embedded interface.
type fakeAPI struct {
	api.API

	mu        sync.Mutex
	events    []api.StreamEvent
	streamErr error
	simple    string
	asked     []api.AskRequest

	models   []api.Model
	defaults *api.DefaultModels

	sources map[string]*api.Source
	notes   map[string]*api.Note
	created []api.CreateNoteRequest
	added   []api.CreateSourceRequest

	books   []api.Notebook
	deleted []string

	searchReq api.SearchRequest
	results   []api.SearchResult

	transformations []api.Transformation
	executed        api.ExecuteTransformationRequest

	settings api.Settings
	updated  api.Settings

	jobs     []api.PodcastJobStatus
	polls    int
	episodes map[string]*api.PodcastEpisode

	modelAdded  api.CreateModelRequest
	defaultsSet api.DefaultModels
	tfCreated   api.CreateTransformationRequest
	tfUpdated   api.UpdateTransformationRequest
	insightFor  [3]string
	sourceEdit  api.UpdateSourceRequest
	noteEdit    api.UpdateNoteRequest
}

var errNotFound = &api.HTTPError{Status: 404, StatusText: "Not Found", Detail: "not found"}

func (f *fakeAPI) AskStream(ctx context.Context, req api.AskRequest, h api.StreamHandler) error {
	f.mu.Lock()
	f.asked = append(f.asked, req)
	f.mu.Unlock()
	if f.streamErr != nil {
		if h.OnError != nil {
			h.OnError(f.streamErr)
		}
		return f.streamErr
	}
	for _, ev := range f.events {
		h.OnEvent(ev)
	}
	if h.OnComplete != nil {
		h.OnComplete()
	}
	return nil
}

func (f *fakeAPI) AskSimple(ctx context.Context, req api.AskRequest) (*api.AskResponse, error) {
	f.asked = append(f.asked, req)
	return &api.AskResponse{Answer: f.simple, Question: req.Question}, nil
}

func (f *fakeAPI) ListModels(ctx context.Context, modelType string) ([]api.Model, error) {
	return f.models, nil
}

func (f *fakeAPI) GetDefaultModels(ctx context.Context) (*api.DefaultModels, error) {
	if f.defaults == nil {
		return &api.DefaultModels{}, nil
	}
	return f.defaults, nil
}

func (f *fakeAPI) GetSource(ctx context.Context, id string) (*api.Source, error) {
	if s, ok := f.sources[id]; ok {
		return s, nil
	}
	return nil, errNotFound
}

func (f *fakeAPI) GetNote(ctx context.Context, id string) (*api.Note, error) {
	if n, ok := f.notes[id]; ok {
		return n, nil
	}
	return nil, errNotFound
}

func (f *fakeAPI) GetInsight(ctx context.Context, id string) (*api.SourceInsight, error) {
	return nil, errNotFound
}

func (f *fakeAPI) CreateNote(ctx context.Context, req api.CreateNoteRequest) (*api.Note, error) {
	f.created = append(f.created, req)
	return &api.Note{ID: "note:new1", Title: &req.Title, Content: &req.Content, NoteType: req.NoteType}, nil
}

func (f *fakeAPI) CreateSource(ctx context.Context, req api.CreateSourceRequest) (*api.Source, error) {
	f.added = append(f.added, req)
	return &api.Source{ID: fmt.Sprintf("source:new%d", len(f.added))}, nil
}

func (f *fakeAPI) ListNotebooks(ctx context.Context, opts api.NotebookListOptions) ([]api.Notebook, error) {
	return f.books, nil
}

func (f *fakeAPI) DeleteNotebook(ctx context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeAPI) Search(ctx context.Context, req api.SearchRequest) (*api.SearchResponse, error) {
	f.searchReq = req
	return &api.SearchResponse{Results: f.results}, nil
}

func (f *fakeAPI) ListTransformations(ctx context.Context) ([]api.Transformation, error) {
	return f.transformations, nil
}

func (f *fakeAPI) ExecuteTransformation(ctx context.Context, req api.ExecuteTransformationRequest) (*api.ExecuteTransformationResponse, error) {
	f.executed = req
	return &api.ExecuteTransformationResponse{Output: "short version"}, nil
}

func (f *fakeAPI) GetSettings(ctx context.Context) (api.Settings, error) {
	return f.settings, nil
}

func (f *fakeAPI) UpdateSettings(ctx context.Context, update api.Settings) (api.Settings, error) {
	f.updated = update
	return update, nil
}

func (f *fakeAPI) GetPodcastJob(ctx context.Context, jobID string) (*api.PodcastJobStatus, error) {
	s := f.jobs[min(f.polls, len(f.jobs)-1)]
	f.polls++
	return &s, nil
}

func (f *fakeAPI) GetPodcastEpisode(ctx context.Context, id string) (*api.PodcastEpisode, error) {
	if e, ok := f.episodes[id]; ok {
		return e, nil
	}
	return nil, errNotFound
}

func (f *fakeAPI) DeletePodcastEpisode(ctx context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeAPI) DeleteEpisodeProfile(ctx context.Context, id string) error {
	f.deleted = append(f.deleted, "episode_profile "+id)
	return nil
}

func (f *fakeAPI) DeleteSpeakerProfile(ctx context.Context, id string) error {
	f.deleted = append(f.deleted, "speaker_profile "+id)
	return nil
}

func (f *fakeAPI) CreateModel(ctx context.Context, req api.CreateModelRequest) (*api.Model, error) {
	f.modelAdded = req
	return &api.Model{ID: "model:new1", Name: req.Name, Provider: req.Provider, Type: req.Type}, nil
}

func (f *fakeAPI) DeleteModel(ctx context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeAPI) UpdateDefaultModels(ctx context.Context, req api.DefaultModels) (*api.DefaultModels, error) {
	f.defaultsSet = req
	return &req, nil
}

func (f *fakeAPI) GetTransformation(ctx context.Context, id string) (*api.Transformation, error) {
	for _, tf := range f.transformations {
		if tf.ID == id {
			return &tf, nil
		}
	}
	return nil, errNotFound
}

func (f *fakeAPI) CreateTransformation(ctx context.Context, req api.CreateTransformationRequest) (*api.Transformation, error) {
	f.tfCreated = req
	return &api.Transformation{ID: "transformation:new1", Name: req.Name, Title: req.Title, Prompt: req.Prompt}, nil
}

func (f *fakeAPI) UpdateTransformation(ctx context.Context, id string, req api.UpdateTransformationRequest) (*api.Transformation, error) {
	f.tfUpdated = req
	return &api.Transformation{ID: id}, nil
}

func (f *fakeAPI) DeleteTransformation(ctx context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeAPI) CreateSourceInsight(ctx context.Context, sourceID, transformationID, modelID string) (*api.SourceInsight, error) {
	f.insightFor = [3]string{sourceID, transformationID, modelID}
	return &api.SourceInsight{ID: "source_insight:i1", SourceID: sourceID, InsightType: "Key insights", Content: "Attention is enough."}, nil
}

func (f *fakeAPI) UpdateSource(ctx context.Context, id string, req api.UpdateSourceRequest) (*api.Source, error) {
	f.sourceEdit = req
	return &api.Source{ID: id, Title: req.Title, Topics: req.Topics}, nil
}

func (f *fakeAPI) UpdateNote(ctx context.Context, id string, req api.UpdateNoteRequest) (*api.Note, error) {
	f.noteEdit = req
	return &api.Note{ID: id, Title: req.Title, Content: req.Content}, nil
}

func strPtr(s string) *string { return &s }

// cli isolates HOME and the output writers, and routes every client the
// commands build to fake.
func cli(t *testing.T, fake api.API) func(stdin string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("COSMIQ_API_URL", "http://cosmiq.test")

	origOut, origErr, origClient, origTUI := display.Out, display.ErrOut, newClient, runTUI
	t.Cleanup(func() {
		display.Out, display.ErrOut, newClient, runTUI = origOut, origErr, origClient, origTUI
	})
	display.ErrOut = io.Discard
	newClient = func(*config.Config, *zap.Logger) api.API { return fake }

	return func(stdin string, args ...string) (string, error) {
		var out bytes.Buffer
		display.Out = &out
		root := newRootCmd(&app{})
		// A nil slice would make cobra read os.Args.
		root.SetArgs(append([]string{}, args...))
		root.SetIn(strings.NewReader(stdin))
		root.SetOut(&out)
		err := root.ExecuteContext(context.Background())
		return out.String(), err
	}
}

func languageModels() []api.Model {
	return []api.Model{
		{ID: "model:emb", Type: api.ModelEmbedding},
		{ID: "model:m1", Type: api.ModelLanguage, Name: "gpt"},
	}
}

func TestAskStreamsAnswerWithReferences(t *testing.T) {
	fake := &fakeAPI{
		models: languageModels(),
		events: []api.StreamEvent{
			{Type: api.EventStrategy, Reasoning: "look it up", Searches: []api.SearchPlan{{Term: "attention"}}},
			{Type: api.EventAnswer, Content: "Attention helps "},
			{Type: api.EventAnswer, Content: "[source:abc1]."},
		},
		sources: map[string]*api.Source{"source:abc1": {ID: "source:abc1", Title: strPtr("Attention Is All You Need")}},
	}
	run := cli(t, fake)

	out, err := run("", "ask", "what", "is", "attention")
	require.NoError(t, err)

	require.Len(t, fake.asked, 1)
	assert.Equal(t, "what is attention", fake.asked[0].Question)
	assert.Equal(t, "model:m1", fake.asked[0].AnswerModel)
	assert.Equal(t, "model:m1", fake.asked[0].StrategyModel)
	assert.Equal(t, "model:m1", fake.asked[0].FinalAnswerModel)

	assert.Contains(t, out, "what is attention")
	assert.Contains(t, out, "Strategy")
	assert.Contains(t, out, "attention")
	assert.Contains(t, out, "Attention helps")
	assert.Contains(t, out, "[1] Attention Is All You Need (source:abc1)")
}

func TestAskJSON(t *testing.T) {
	fake := &fakeAPI{
		models: languageModels(),
		events: []api.StreamEvent{
			{Type: api.EventAnswer, Content: "draft"},
			{Type: api.EventFinalAnswer, FinalAnswer: "Final answer [note:n1] and [source:gone1]"},
		},
		notes: map[string]*api.Note{"note:n1": {ID: "note:n1", Title: strPtr("My note")}},
	}
	run := cli(t, fake)

	out, err := run("", "ask", "--json", "q")
	require.NoError(t, err)

	var got askResult
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "q", got.Question)
	assert.Equal(t, "Final answer [note:n1] and [source:gone1]", got.Answer)
	require.Len(t, got.References, 2)
	assert.Equal(t, askReference{N: 1, Token: "note:n1", Label: "My note"}, got.References[0])
	assert.Equal(t, askReference{N: 2, Token: "source:gone1", Label: "Source"}, got.References[1])
}

func TestAskConfiguredModelsSkipLookup(t *testing.T) {
	fake := &fakeAPI{events: []api.StreamEvent{{Type: api.EventAnswer, Content: "ok"}}}
	run := cli(t, fake)

	_, err := run("", "config", "set", "model", "model:cfg")
	require.NoError(t, err)
	_, err = run("", "-o", "json", "ask", "--no-refs", "q")
	require.NoError(t, err)

	require.Len(t, fake.asked, 1)
	assert.Equal(t, "model:cfg", fake.asked[0].AnswerModel)
	assert.Equal(t, "model:cfg", fake.asked[0].StrategyModel)
	assert.Equal(t, "model:cfg", fake.asked[0].FinalAnswerModel)
}

func TestAskStreamError(t *testing.T) {
	fake := &fakeAPI{models: languageModels(), streamErr: &api.StreamError{Message: "model overloaded"}}
	run := cli(t, fake)

	var errOut bytes.Buffer
	display.ErrOut = &errOut

	_, err := run("", "ask", "q")
	require.Error(t, err)
	assert.Equal(t, "model overloaded", err.Error())
	assert.ErrorAs(t, err, new(reportedError))
	assert.Contains(t, errOut.String(), "Answer failed")
	assert.Contains(t, errOut.String(), "model overloaded")
}

func TestAskHTTPErrorToast(t *testing.T) {
	fake := &fakeAPI{models: languageModels(), streamErr: &api.HTTPError{Status: 502, Detail: "answer model unreachable"}}
	run := cli(t, fake)
	var errOut bytes.Buffer
	display.ErrOut = &errOut

	_, err := run("", "ask", "q")
	require.Error(t, err)
	assert.Contains(t, errOut.String(), "✗")
	assert.Contains(t, errOut.String(), "Answer failed")
	assert.Contains(t, errOut.String(), "answer model unreachable")

	// Structured output keeps the plain error and prints no toast.
	errOut.Reset()
	_, err = run("", "-o", "json", "ask", "q")
	require.Error(t, err)
	assert.NotErrorAs(t, err, new(reportedError))
	assert.Empty(t, errOut.String())
}

func TestAskEmptyAnswer(t *testing.T) {
	fake := &fakeAPI{models: languageModels()}
	run := cli(t, fake)

	_, err := run("", "ask", "q")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no answer")
}

func TestAskNoLanguageModel(t *testing.T) {
	fake := &fakeAPI{models: []api.Model{{ID: "model:emb", Type: api.ModelEmbedding}}}
	run := cli(t, fake)

	_, err := run("", "ask", "q")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config set model")
	assert.Empty(t, fake.asked)
}

func TestAskSimple(t *testing.T) {
	fake := &fakeAPI{models: languageModels(), simple: "Plain answer"}
	run := cli(t, fake)

	out, err := run("", "-o", "yaml", "ask", "--simple", "--no-refs", "q")
	require.NoError(t, err)
	assert.Contains(t, out, "answer: Plain answer")
	require.Len(t, fake.asked, 1)
}

func TestAskSave(t *testing.T) {
	fake := &fakeAPI{models: languageModels(), events: []api.StreamEvent{{Type: api.EventAnswer, Content: "Saved text"}}}
	run := cli(t, fake)
	t.Setenv("COSMIQ_NOTEBOOK_ID", "notebook:nb1")

	out, err := run("", "ask", "--save", "--no-refs", "why is the sky blue")
	require.NoError(t, err)

	require.Len(t, fake.created, 1)
	note := fake.created[0]
	assert.Equal(t, "Saved text", note.Content)
	assert.Equal(t, "why is the sky blue", note.Title)
	assert.Equal(t, api.NoteTypeAI, note.NoteType)
	assert.Equal(t, "notebook:nb1", note.NotebookID)
	assert.Contains(t, out, "Saved to notebook")
}

func TestAskSaveNeedsNotebook(t *testing.T) {
	fake := &fakeAPI{models: languageModels()}
	run := cli(t, fake)

	_, err := run("", "ask", "--save", "q")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "notebook not set")
	assert.Empty(t, fake.asked)
}

func TestStrategyTap(t *testing.T) {
	fake := &fakeAPI{events: []api.StreamEvent{
		{Type: api.EventStrategy, Reasoning: "r"},
		{Type: api.EventAnswer, Content: "a"},
	}}
	var order []string
	tap := strategyTap{Asker: fake, onStrategy: func() { order = append(order, "tap") }}

	err := tap.AskStream(context.Background(), api.AskRequest{}, api.StreamHandler{
		OnEvent: func(ev api.StreamEvent) { order = append(order, ev.Type) },
	})
	require.NoError(t, err)
	assert.Equal(t, []string{api.EventStrategy, "tap", api.EventAnswer}, order)
}

func TestNotebooksList(t *testing.T) {
	fake := &fakeAPI{books: []api.Notebook{
		{ID: "notebook:a", Name: "Research"},
		{ID: "notebook:b", Name: "Old", Archived: true},
	}}
	run := cli(t, fake)

	out, err := run("", "notebooks", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Research")
	assert.NotContains(t, out, "Old")

	out, err = run("", "notebooks", "list", "--archived")
	require.NoError(t, err)
	assert.Contains(t, out, "Old")

	out, err = run("", "-o", "json", "notebooks", "list")
	require.NoError(t, err)
	var got []api.Notebook
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Len(t, got, 1)
}

func TestNotebookDeleteAcceptsURL(t *testing.T) {
	fake := &fakeAPI{}
	run := cli(t, fake)

	_, err := run("", "notebooks", "delete", "http://localhost:3000/notebook/notebook:xyz")
	require.NoError(t, err)
	assert.Equal(t, []string{"notebook:xyz"}, fake.deleted)
}

func TestSourcesListNeedsNotebook(t *testing.T) {
	run := cli(t, &fakeAPI{})

	_, err := run("", "sources", "list")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "notebook not set")
}

func TestSourcesAddRejectsUnknownType(t *testing.T) {
	run := cli(t, &fakeAPI{})

	_, err := run("", "sources", "add", "--type", "pdf", "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid source type")
}

func TestImport(t *testing.T) {
	fake := &fakeAPI{}
	run := cli(t, fake)

	path := filepath.Join(t.TempDir(), "list.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`notebook: notebook:fromfile
sources:
  - id: paper
    url: https://arxiv.org/abs/1706.03762
notes:
  - id: todo
    content: read section 3
`), 0o600))

	out, err := run("", "import", path)
	require.NoError(t, err)
	require.Len(t, fake.added, 1)
	assert.Equal(t, "notebook:fromfile", fake.added[0].NotebookID)
	require.Len(t, fake.created, 1)
	assert.Equal(t, "notebook:fromfile", fake.created[0].NotebookID)
	assert.Contains(t, out, "source paper → source:new1")
	assert.Contains(t, out, "Imported 2 entries")

	out, err = run("", "-o", "json", "import", "--count", "1", "-n", "notebook:flag", path)
	require.NoError(t, err)
	assert.Equal(t, "notebook:flag", fake.added[1].NotebookID)
	assert.Len(t, fake.created, 1)
	assert.Contains(t, out, `"id": "source:new2"`)
}

func TestSearch(t *testing.T) {
	score := 0.87
	fake := &fakeAPI{results: []api.SearchResult{
		{ID: "source_embedding:c1", ParentID: "source:abc1", Title: strPtr("Paper"), Similarity: &score},
	}}
	run := cli(t, fake)
	t.Setenv("COSMIQ_NOTEBOOK_ID", "notebook:nb1")

	out, err := run("", "search", "--vector", "-l", "5", "attention", "heads")
	require.NoError(t, err)

	assert.Equal(t, "attention heads", fake.searchReq.Query)
	assert.Equal(t, api.SearchVector, fake.searchReq.Type)
	assert.Equal(t, 5, fake.searchReq.Limit)
	assert.Equal(t, "notebook:nb1", fake.searchReq.NotebookID)
	assert.True(t, fake.searchReq.SearchSources)
	assert.True(t, fake.searchReq.SearchNotes)

	assert.Contains(t, out, "Paper")
	assert.Contains(t, out, "source:abc1")
	assert.Contains(t, out, "0.87")
}

func TestSearchAllNotebooks(t *testing.T) {
	fake := &fakeAPI{}
	run := cli(t, fake)

	out, err := run("", "search", "--all", "--no-notes", "q")
	require.NoError(t, err)
	assert.Empty(t, fake.searchReq.NotebookID)
	assert.False(t, fake.searchReq.SearchNotes)
	assert.Contains(t, out, "No matches")

	_, err = run("", "search", "--all", "--no-notes", "--no-sources", "q")
	assert.Error(t, err)
}

func TestTransformationExecuteFromStdin(t *testing.T) {
	fake := &fakeAPI{
		models:          languageModels(),
		transformations: []api.Transformation{{ID: "transformation:t1", Name: "summary"}},
	}
	run := cli(t, fake)

	out, err := run("long input text", "transformations", "execute", "SUMMARY")
	require.NoError(t, err)
	assert.Equal(t, "transformation:t1", fake.executed.TransformationID)
	assert.Equal(t, "long input text", fake.executed.InputText)
	assert.Equal(t, "model:m1", fake.executed.ModelID)
	assert.Contains(t, out, "short version")

	_, err = run("", "transformations", "execute", "missing", "text")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestModelsAddAndDelete(t *testing.T) {
	fake := &fakeAPI{}
	run := cli(t, fake)

	out, err := run("", "models", "add", "llama3", "--provider", "ollama")
	require.NoError(t, err)
	assert.Equal(t, api.CreateModelRequest{Name: "llama3", Provider: "ollama", Type: api.ModelLanguage}, fake.modelAdded)
	assert.Contains(t, out, "ollama/llama3 (model:new1)")

	_, err = run("", "models", "add", "llama3")
	assert.ErrorContains(t, err, "--provider")
	_, err = run("", "models", "add", "llama3", "-p", "ollama", "-t", "vision")
	assert.ErrorContains(t, err, "invalid model type")

	_, err = run("", "models", "delete", "model:old")
	require.NoError(t, err)
	assert.Equal(t, []string{"model:old"}, fake.deleted)
}

func TestModelsDefaultsSet(t *testing.T) {
	fake := &fakeAPI{}
	run := cli(t, fake)

	_, err := run("", "models", "defaults", "set", "text-to-speech", "model:tts")
	require.NoError(t, err)
	require.NotNil(t, fake.defaultsSet.DefaultTextToSpeechModel)
	assert.Equal(t, "model:tts", *fake.defaultsSet.DefaultTextToSpeechModel)
	assert.Nil(t, fake.defaultsSet.DefaultChatModel)

	_, err = run("", "models", "defaults", "set", "vision", "model:x")
	assert.ErrorContains(t, err, "unknown model role")
}

func TestTransformationsCRUD(t *testing.T) {
	fake := &fakeAPI{transformations: []api.Transformation{
		{ID: "transformation:t1", Name: "tldr", Title: "TL;DR", Prompt: "Summarize in three bullets."},
	}}
	run := cli(t, fake)

	out, err := run("", "transformations", "get", "tldr")
	require.NoError(t, err)
	assert.Contains(t, out, "transformation:t1")
	assert.Contains(t, out, "Summarize in three bullets.")

	_, err = run("Define every term.", "transformations", "create", "glossary", "--prompt", "-")
	require.NoError(t, err)
	assert.Equal(t, api.CreateTransformationRequest{Name: "glossary", Title: "glossary", Prompt: "Define every term."}, fake.tfCreated)

	_, err = run("", "transformations", "create", "empty")
	assert.ErrorContains(t, err, "--prompt is required")

	_, err = run("", "transformations", "update", "tldr", "--apply-default=false", "--title", "Short")
	require.NoError(t, err)
	require.NotNil(t, fake.tfUpdated.ApplyDefault)
	assert.False(t, *fake.tfUpdated.ApplyDefault)
	assert.Equal(t, "Short", *fake.tfUpdated.Title)
	assert.Nil(t, fake.tfUpdated.Prompt, "unset flags are not sent")

	_, err = run("", "transformations", "update", "tldr")
	assert.ErrorContains(t, err, "nothing to update")

	_, err = run("", "transformations", "delete", "TLDR")
	require.NoError(t, err)
	_, err = run("", "transformations", "delete", "missing")
	assert.ErrorContains(t, err, "not found")
	assert.Equal(t, []string{"transformation:t1"}, fake.deleted)
}

func TestSourcesInsight(t *testing.T) {
	fake := &fakeAPI{transformations: []api.Transformation{{ID: "transformation:k1", Name: "key_insights"}}}
	run := cli(t, fake)

	out, err := run("", "sources", "insight", "source:abc1", "key_insights", "--model", "model:m1")
	require.NoError(t, err)
	assert.Equal(t, [3]string{"source:abc1", "transformation:k1", "model:m1"}, fake.insightFor)
	assert.Contains(t, out, "Key insights")
	assert.Contains(t, out, "Attention is enough.")
}

func TestSourcesEdit(t *testing.T) {
	fake := &fakeAPI{}
	run := cli(t, fake)

	_, err := run("", "sources", "edit", "source:abc1", "--topics", "nlp,transformers")
	require.NoError(t, err)
	assert.Nil(t, fake.sourceEdit.Title)
	assert.Equal(t, []string{"nlp", "transformers"}, fake.sourceEdit.Topics)

	_, err = run("", "sources", "edit", "source:abc1")
	assert.ErrorContains(t, err, "nothing to update")
}

func TestNotesEdit(t *testing.T) {
	fake := &fakeAPI{}
	run := cli(t, fake)

	out, err := run("Revised draft", "notes", "edit", "note:n1", "--content", "-")
	require.NoError(t, err)
	require.NotNil(t, fake.noteEdit.Content)
	assert.Equal(t, "Revised draft", *fake.noteEdit.Content)
	assert.Nil(t, fake.noteEdit.Title)
	assert.Contains(t, out, "Note updated")

	_, err = run("", "notes", "edit", "note:n1", "--content", " ")
	assert.ErrorContains(t, err, "cannot be empty")
}

func TestPodcastEpisodeAndProfileDelete(t *testing.T) {
	audio := "/data/ep1.mp3"
	fake := &fakeAPI{episodes: map[string]*api.PodcastEpisode{
		"episode:e1": {ID: "episode:e1", Name: "Weekly digest", Briefing: "Cover the new papers.", AudioFile: &audio,
			EpisodeProfile: api.NamedProfile{Name: "tech_discussion"}},
	}}
	run := cli(t, fake)

	out, err := run("", "podcasts", "episode", "episode:e1")
	require.NoError(t, err)
	assert.Contains(t, out, "Weekly digest")
	assert.Contains(t, out, "tech_discussion")
	assert.Contains(t, out, "/data/ep1.mp3")

	_, err = run("", "podcasts", "episode", "episode:missing")
	assert.ErrorContains(t, err, "not found")

	_, err = run("", "podcasts", "profiles", "delete", "episode_profile:p1")
	require.NoError(t, err)
	_, err = run("", "podcasts", "profiles", "delete", "--speaker", "speaker_profile:s1")
	require.NoError(t, err)
	assert.Equal(t, []string{"episode_profile episode_profile:p1", "speaker_profile speaker_profile:s1"}, fake.deleted)
}

func TestSettings(t *testing.T) {
	fake := &fakeAPI{settings: api.Settings{"default_embedding_option": "ask", "auto_delete_files": "yes"}}
	run := cli(t, fake)

	out, err := run("", "settings")
	require.NoError(t, err)
	assert.Less(t, strings.Index(out, "auto_delete_files"), strings.Index(out, "default_embedding_option"))

	_, err = run("", "settings", "set", "max_results", "42")
	require.NoError(t, err)
	assert.Equal(t, api.Settings{"max_results": 42}, fake.updated)
}

func TestParseSettingValue(t *testing.T) {
	tests := []struct {
		raw  string
		want any
	}{
		{"true", true},
		{"3", 3},
		{"1.5", 1.5},
		{"hello", "hello"},
		{"", ""},
		{"[a, b]", []any{"a", "b"}},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := parseSettingValue(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConfigSetAndShow(t *testing.T) {
	run := cli(t, &fakeAPI{})

	_, err := run("", "config", "set", "notebook", "http://localhost:3000/notebook/notebook:abc")
	require.NoError(t, err)
	out, err := run("", "config", "set", "token", "supersecret")
	require.NoError(t, err)
	assert.NotContains(t, out, "supersecret")

	out, err = run("", "-o", "json", "config", "show")
	require.NoError(t, err)
	var v configView
	require.NoError(t, json.Unmarshal([]byte(out), &v))
	assert.Equal(t, "default", v.Profile)
	assert.Equal(t, "notebook:abc", v.NotebookID)
	assert.Equal(t, "http://cosmiq.test/notebook/notebook:abc", v.NotebookURL)
	assert.Equal(t, "supe********", v.Token)

	_, err = run("", "config", "set", "bogus", "x")
	assert.Error(t, err)
}

func TestProfiles(t *testing.T) {
	run := cli(t, &fakeAPI{})

	_, err := run("", "--profile", "staging", "config", "set", "server", "http://staging")
	require.NoError(t, err)
	_, err = run("", "config", "set", "server", "http://prod")
	require.NoError(t, err)

	out, err := run("", "--profile", "staging", "-o", "json", "profiles")
	require.NoError(t, err)
	var got []string
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.ElementsMatch(t, []string{"default", "staging"}, got)
}

func TestUnknownOutputFormat(t *testing.T) {
	run := cli(t, &fakeAPI{})

	_, err := run("", "-o", "xml", "version")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown output format")
}

func TestRootAndChatRunTUI(t *testing.T) {
	fake := &fakeAPI{}
	run := cli(t, fake)

	var got []tui.Options
	runTUI = func(opts tui.Options) error {
		got = append(got, opts)
		return nil
	}

	_, err := run("")
	require.NoError(t, err)
	_, err = run("", "chat")
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Equal(t, answer.Ask, got[0].Mode)
	assert.Equal(t, answer.Chat, got[1].Mode)
	assert.Equal(t, api.API(fake), got[1].Client)
	assert.NotNil(t, got[1].Notifier)
	assert.NotNil(t, got[1].Logger)
}

func TestFollowJob(t *testing.T) {
	var out bytes.Buffer
	origOut, origErr := display.Out, display.ErrOut
	display.Out, display.ErrOut = &out, io.Discard
	defer func() { display.Out, display.ErrOut = origOut, origErr }()

	fake := &fakeAPI{jobs: []api.PodcastJobStatus{
		{JobID: "job1", Status: "submitted"},
		{JobID: "job1", Status: "running"},
		{JobID: "job1", Status: "completed", Message: "done"},
	}}
	a := &app{log: zap.NewNop(), format: display.FormatTable}

	require.NoError(t, a.followJob(context.Background(), fake, "job1", time.Millisecond))
	assert.Equal(t, 3, fake.polls)
	assert.Contains(t, out.String(), "Job job1 completed")

	failed := &fakeAPI{jobs: []api.PodcastJobStatus{{JobID: "job2", Status: "error", Error: "tts quota"}}}
	err := a.followJob(context.Background(), failed, "job2", time.Millisecond)
	require.Error(t, err)
	assert.Contains(t, out.String(), "tts quota")
}

func TestFollowJobCancelled(t *testing.T) {
	origErr := display.ErrOut
	display.ErrOut = io.Discard
	defer func() { display.ErrOut = origErr }()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	fake := &fakeAPI{jobs: []api.PodcastJobStatus{{JobID: "job1", Status: "running"}}}
	a := &app{log: zap.NewNop(), format: display.FormatTable}

	err := a.followJob(ctx, fake, "job1", time.Hour)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestVersionString(t *testing.T) {
	tests := []struct {
		name       string
		version    string
		commit     string
		date       string
		wantPrefix string
		wantCommit bool
	}{
		{"dev build", "dev", "none", "unknown", "cosmiq dev", false},
		{"release build", "v1.2.3", "abc1234", "2026-02-25T10:00:00Z", "cosmiq v1.2.3", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			origVersion, origCommit, origDate := version, commit, date
			defer func() { version, commit, date = origVersion, origCommit, origDate }()
			version, commit, date = tt.version, tt.commit, tt.date

			got := versionString()
			assert.True(t, strings.HasPrefix(got, tt.wantPrefix), "versionString() = %q", got)
			assert.Equal(t, tt.wantCommit, strings.Contains(got, "commit:"))
			if tt.wantCommit {
				assert.Contains(t, got, tt.commit)
				assert.Contains(t, got, tt.date)
				assert.Len(t, strings.Split(got, "\n"), 3)
			}
		})
	}
}

func TestMaskToken(t *testing.T) {
	assert.Equal(t, "abcd********", maskToken("abcdefgh"))
	assert.Equal(t, "ab********", maskToken("ab"))
	assert.Contains(t, maskToken(""), "not set")
}
