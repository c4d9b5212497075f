package api

import "context"

type Transformation struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	Prompt       string `json:"prompt"`
	ApplyDefault bool   `json:"apply_default"`
	Created      string `json:"created"`
	Updated      string `json:"updated"`
}

type CreateTransformationRequest struct {
	Name         string `json:"name"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	Prompt       string `json:"prompt"`
	ApplyDefault bool   `json:"apply_default,omitempty"`
}

type UpdateTransformationRequest struct {
	Name         *string `json:"name,omitempty"`
	Title        *string `json:"title,omitempty"`
	Description  *string `json:"description,omitempty"`
	Prompt       *string `json:"prompt,omitempty"`
	ApplyDefault *bool   `json:"apply_default,omitempty"`
}

type ExecuteTransformationRequest struct {
	TransformationID string `json:"transformation_id"`
	InputText        string `json:"input_text"`
	ModelID          string `json:"model_id"`
}

type ExecuteTransformationResponse struct {
	Output string `json:"output"`
}

func (c *Client) ListTransformations(ctx context.Context) ([]Transformation, error) {
	var resp []Transformation
	if err := c.get(ctx, "/api/transformations", &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) GetTransformation(ctx context.Context, id string) (*Transformation, error) {
	var resp Transformation
	if err := c.get(ctx, recordPath("/api/transformations", id), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) CreateTransformation(ctx context.Context, req CreateTransformationRequest) (*Transformation, error) {
	var resp Transformation
	if err := c.post(ctx, "/api/transformations", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) UpdateTransformation(ctx context.Context, id string, req UpdateTransformationRequest) (*Transformation, error) {
	var resp Transformation
	if err := c.put(ctx, recordPath("/api/transformations", id), req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) DeleteTransformation(ctx context.Context, id string) error {
	return c.delete(ctx, recordPath("/api/transformations", id))
}

func (c *Client) ExecuteTransformation(ctx context.Context, req ExecuteTransformationRequest) (*ExecuteTransformationResponse, error) {
	var resp ExecuteTransformationResponse
	if err := c.post(ctx, "/api/transformations/execute", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
