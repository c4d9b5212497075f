// Package manifest loads YAML manifests of sources and notes and creates
// them in a notebook.
package manifest

import (
	"context"
	"fmt"
	"os"
	"strings"

	"cosmiq-cli/internal/api"
	"cosmiq-cli/internal/service"

	"gopkg.in/yaml.v3"
)

// ─── YAML model ─────────────────────────────────────────────────────────────

// Manifest mirrors the import file.
//
//	notebook: notebook:abc        # optional, overridden by --notebook
//	sources:
//	  - id: paper
//	    url: https://arxiv.org/abs/1706.03762
//	  - id: minutes
//	    type: text
//	    title: Meeting notes
//	    content: ...
//	notes:
//	  - title: Open questions
//	    content: ...
type Manifest struct {
	Notebook string        `yaml:"notebook"`
	Sources  []SourceEntry `yaml:"sources"`
	Notes    []NoteEntry   `yaml:"notes"`
}

// SourceEntry is one source to add. ID is a local name used in output and
// errors; the backend assigns the real id.
type SourceEntry struct {
	ID              string   `yaml:"id"`
	Type            string   `yaml:"type"`
	URL             string   `yaml:"url"`
	Path            string   `yaml:"path"`
	Content         string   `yaml:"content"`
	Title           string   `yaml:"title"`
	Transformations []string `yaml:"transformations"`
	// Embed defaults to true.
	Embed *bool `yaml:"embed"`
}

type NoteEntry struct {
	ID      string `yaml:"id"`
	Title   string `yaml:"title"`
	Content string `yaml:"content"`
	Type    string `yaml:"type"`
}

// Load parses the manifest at filename.
func Load(filename string) (*Manifest, error) {
	raw, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	return Parse(raw)
}

// Parse decodes and validates a manifest. Source types left blank are
// inferred from which of url, path and content is set.
func Parse(raw []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}
	for i := range m.Sources {
		s := &m.Sources[i]
		if s.ID == "" {
			s.ID = fmt.Sprintf("source #%d", i+1)
		}
		if s.Type == "" {
			s.Type = inferType(*s)
		}
		if err := s.validate(); err != nil {
			return nil, fmt.Errorf("%s: %w", s.ID, err)
		}
	}
	for i := range m.Notes {
		n := &m.Notes[i]
		if n.ID == "" {
			n.ID = fmt.Sprintf("note #%d", i+1)
		}
		if strings.TrimSpace(n.Content) == "" {
			return nil, fmt.Errorf("%s: content is required", n.ID)
		}
		switch n.Type {
		case "":
			n.Type = api.NoteTypeHuman
		case api.NoteTypeHuman, api.NoteTypeAI:
		default:
			return nil, fmt.Errorf("%s: note type must be human or ai, got %q", n.ID, n.Type)
		}
	}
	return &m, nil
}

// Len is the number of entries in the manifest.
func (m *Manifest) Len() int { return len(m.Sources) + len(m.Notes) }

func inferType(s SourceEntry) string {
	switch {
	case s.Path != "":
		return "file"
	case s.Content != "" && s.URL == "":
		return "text"
	}
	return "url"
}

func (s SourceEntry) validate() error {
	if !service.ValidSourceType(s.Type) {
		return fmt.Errorf("invalid source type %q (valid: %s)", s.Type, strings.Join(service.SourceTypes(), ", "))
	}
	switch s.Type {
	case "url", "youtube":
		if s.URL == "" {
			return fmt.Errorf("%s source needs a url", s.Type)
		}
	case "file":
		if s.Path == "" {
			return fmt.Errorf("file source needs a path")
		}
	case "text":
		if strings.TrimSpace(s.Content) == "" {
			return fmt.Errorf("text source needs content")
		}
	}
	return nil
}

// ─── Import ─────────────────────────────────────────────────────────────────

// Creator is the part of the backend client an import needs.
type Creator interface {
	CreateSource(ctx context.Context, req api.CreateSourceRequest) (*api.Source, error)
	CreateNote(ctx context.Context, req api.CreateNoteRequest) (*api.Note, error)
}

// Options controls which entries are created.
type Options struct {
	// Count limits the import to the first Count entries, sources before
	// notes. 0 means all.
	Count int
	// OnCreated is called after each entry is created.
	OnCreated func(Created)
}

// Created records the outcome of one create call.
type Created struct {
	Kind     string `json:"kind"`
	Name     string `json:"name"`
	RemoteID string `json:"id"`
	Title    string `json:"title"`
}

// Import creates the manifest's entries in notebookID, in file order. On the
// first error it returns what was created so far together with the error.
func Import(ctx context.Context, c Creator, m *Manifest, notebookID string, opts Options) ([]Created, error) {
	budget := m.Len()
	if opts.Count > 0 && opts.Count < budget {
		budget = opts.Count
	}

	var created []Created
	record := func(cr Created) {
		created = append(created, cr)
		if opts.OnCreated != nil {
			opts.OnCreated(cr)
		}
	}

	for _, s := range m.Sources {
		if len(created) == budget {
			return created, nil
		}
		if err := ctx.Err(); err != nil {
			return created, err
		}
		src, err := c.CreateSource(ctx, s.request(notebookID))
		if err != nil {
			return created, fmt.Errorf("source %s: %w", s.ID, err)
		}
		record(Created{Kind: "source", Name: s.ID, RemoteID: src.ID, Title: src.TitleOr(s.Title)})
	}
	for _, n := range m.Notes {
		if len(created) == budget {
			return created, nil
		}
		if err := ctx.Err(); err != nil {
			return created, err
		}
		note, err := c.CreateNote(ctx, api.CreateNoteRequest{
			Content:    n.Content,
			Title:      n.Title,
			NoteType:   n.Type,
			NotebookID: notebookID,
		})
		if err != nil {
			return created, fmt.Errorf("note %s: %w", n.ID, err)
		}
		title := n.Title
		if t := note.TitleText(); t != "" {
			title = t
		}
		record(Created{Kind: "note", Name: n.ID, RemoteID: note.ID, Title: title})
	}
	return created, nil
}

func (s SourceEntry) request(notebookID string) api.CreateSourceRequest {
	embed := true
	if s.Embed != nil {
		embed = *s.Embed
	}
	return api.CreateSourceRequest{
		NotebookID:      notebookID,
		Type:            s.Type,
		URL:             s.URL,
		FilePath:        s.Path,
		Content:         s.Content,
		Title:           s.Title,
		Transformations: s.Transformations,
		Embed:           embed,
	}
}
