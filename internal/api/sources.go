package api

import (
	"context"
	"net/url"
)

type Asset struct {
	Type     string `json:"type"`
	URL      string `json:"url,omitempty"`
	FilePath string `json:"file_path,omitempty"`
}

type Source struct {
	ID         string          `json:"id"`
	Title      *string         `json:"title"`
	Topics     []string        `json:"topics"`
	Asset      *Asset          `json:"asset"`
	FullText   *string         `json:"full_text"`
	NotebookID string          `json:"notebook_id"`
	Insights   []SourceInsight `json:"insights,omitempty"`
	Created    string          `json:"created"`
	Updated    string          `json:"updated"`
}

// TitleOr returns the source title, or fallback when it is unset or blank.
func (s *Source) TitleOr(fallback string) string {
	if s.Title == nil || *s.Title == "" {
		return fallback
	}
	return *s.Title
}

type SourceInsight struct {
	ID               string `json:"id"`
	SourceID         string `json:"source_id"`
	TransformationID string `json:"transformation_id,omitempty"`
	InsightType      string `json:"insight_type"`
	Title            string `json:"title,omitempty"`
	Content          string `json:"content"`
	Created          string `json:"created"`
	Updated          string `json:"updated"`
}

type CreateSourceRequest struct {
	NotebookID      string   `json:"notebook_id"`
	Type            string   `json:"type"`
	URL             string   `json:"url,omitempty"`
	FilePath        string   `json:"file_path,omitempty"`
	Content         string   `json:"content,omitempty"`
	Title           string   `json:"title,omitempty"`
	Transformations []string `json:"transformations,omitempty"`
	Embed           bool     `json:"embed,omitempty"`
	DeleteSource    bool     `json:"delete_source,omitempty"`
}

type UpdateSourceRequest struct {
	Title    *string  `json:"title,omitempty"`
	Topics   []string `json:"topics,omitempty"`
	FullText *string  `json:"full_text,omitempty"`
}

type createInsightRequest struct {
	TransformationID string `json:"transformation_id"`
	ModelID          string `json:"model_id,omitempty"`
}

func (c *Client) ListSources(ctx context.Context, notebookID string) ([]Source, error) {
	params := url.Values{}
	params.Set("notebook_id", notebookID)
	var resp []Source
	if err := c.get(ctx, withQuery("/api/sources", params), &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// GetSource fetches a source by its full record id, e.g. "source:abc1".
func (c *Client) GetSource(ctx context.Context, id string) (*Source, error) {
	var resp Source
	if err := c.get(ctx, recordPath("/api/sources", id), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) CreateSource(ctx context.Context, req CreateSourceRequest) (*Source, error) {
	var resp Source
	if err := c.post(ctx, "/api/sources", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) UpdateSource(ctx context.Context, id string, req UpdateSourceRequest) (*Source, error) {
	var resp Source
	if err := c.put(ctx, recordPath("/api/sources", id), req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) DeleteSource(ctx context.Context, id string) error {
	return c.delete(ctx, recordPath("/api/sources", id))
}

func (c *Client) ListSourceInsights(ctx context.Context, sourceID string) ([]SourceInsight, error) {
	var resp []SourceInsight
	if err := c.get(ctx, recordPath("/api/sources", sourceID, "insights"), &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) CreateSourceInsight(ctx context.Context, sourceID, transformationID, modelID string) (*SourceInsight, error) {
	var resp SourceInsight
	body := createInsightRequest{TransformationID: transformationID, ModelID: modelID}
	if err := c.post(ctx, recordPath("/api/sources", sourceID, "insights"), body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetInsight fetches a source insight by its full record id.
func (c *Client) GetInsight(ctx context.Context, id string) (*SourceInsight, error) {
	var resp SourceInsight
	if err := c.get(ctx, recordPath("/api/insights", id), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
