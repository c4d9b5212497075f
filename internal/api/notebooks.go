package api

import (
	"context"
	"net/url"
	"strconv"
)

type Notebook struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Archived    bool   `json:"archived"`
	Created     string `json:"created"`
	Updated     string `json:"updated"`
}

type CreateNotebookRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

type UpdateNotebookRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Archived    *bool   `json:"archived,omitempty"`
}

type NotebookListOptions struct {
	Archived *bool
	OrderBy  string
}

func (c *Client) ListNotebooks(ctx context.Context, opts NotebookListOptions) ([]Notebook, error) {
	params := url.Values{}
	if opts.Archived != nil {
		params.Set("archived", strconv.FormatBool(*opts.Archived))
	}
	params.Set("order_by", opts.OrderBy)

	var resp []Notebook
	if err := c.get(ctx, withQuery("/api/notebooks", params), &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) GetNotebook(ctx context.Context, id string) (*Notebook, error) {
	var resp Notebook
	if err := c.get(ctx, recordPath("/api/notebooks", id), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) CreateNotebook(ctx context.Context, req CreateNotebookRequest) (*Notebook, error) {
	var resp Notebook
	if err := c.post(ctx, "/api/notebooks", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) UpdateNotebook(ctx context.Context, id string, req UpdateNotebookRequest) (*Notebook, error) {
	var resp Notebook
	if err := c.put(ctx, recordPath("/api/notebooks", id), req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) DeleteNotebook(ctx context.Context, id string) error {
	return c.delete(ctx, recordPath("/api/notebooks", id))
}
