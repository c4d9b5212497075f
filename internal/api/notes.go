package api

import (
	"context"
	"net/url"
)

const (
	NoteTypeHuman = "human"
	NoteTypeAI    = "ai"
)

type Note struct {
	ID         string  `json:"id"`
	Title      *string `json:"title"`
	Content    *string `json:"content"`
	NoteType   string  `json:"note_type"`
	NotebookID string  `json:"notebook_id"`
	Created    string  `json:"created"`
	Updated    string  `json:"updated"`
}

func (n *Note) TitleText() string {
	if n.Title == nil {
		return ""
	}
	return *n.Title
}

func (n *Note) ContentText() string {
	if n.Content == nil {
		return ""
	}
	return *n.Content
}

type CreateNoteRequest struct {
	Content    string `json:"content"`
	Title      string `json:"title,omitempty"`
	NoteType   string `json:"note_type,omitempty"`
	NotebookID string `json:"notebook_id,omitempty"`
}

type UpdateNoteRequest struct {
	Title    *string `json:"title,omitempty"`
	Content  *string `json:"content,omitempty"`
	NoteType *string `json:"note_type,omitempty"`
}

func (c *Client) ListNotes(ctx context.Context, notebookID string) ([]Note, error) {
	params := url.Values{}
	params.Set("notebook_id", notebookID)
	var resp []Note
	if err := c.get(ctx, withQuery("/api/notes", params), &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// GetNote fetches a note by its full record id, e.g. "note:xyz2".
func (c *Client) GetNote(ctx context.Context, id string) (*Note, error) {
	var resp Note
	if err := c.get(ctx, recordPath("/api/notes", id), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) CreateNote(ctx context.Context, req CreateNoteRequest) (*Note, error) {
	var resp Note
	if err := c.post(ctx, "/api/notes", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) UpdateNote(ctx context.Context, id string, req UpdateNoteRequest) (*Note, error) {
	var resp Note
	if err := c.put(ctx, recordPath("/api/notes", id), req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) DeleteNote(ctx context.Context, id string) error {
	return c.delete(ctx, recordPath("/api/notes", id))
}
