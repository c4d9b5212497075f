package api

import (
	"context"
	"net/url"
)

const (
	ModelLanguage     = "language"
	ModelEmbedding    = "embedding"
	ModelTextToSpeech = "text_to_speech"
	ModelSpeechToText = "speech_to_text"
)

type Model struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Provider string `json:"provider"`
	Type     string `json:"type"`
	Created  string `json:"created"`
	Updated  string `json:"updated"`
}

type CreateModelRequest struct {
	Name     string `json:"name"`
	Provider string `json:"provider"`
	Type     string `json:"type"`
}

type DefaultModels struct {
	DefaultChatModel           *string `json:"default_chat_model,omitempty"`
	DefaultTransformationModel *string `json:"default_transformation_model,omitempty"`
	DefaultEmbeddingModel      *string `json:"default_embedding_model,omitempty"`
	DefaultTextToSpeechModel   *string `json:"default_text_to_speech_model,omitempty"`
	DefaultSpeechToTextModel   *string `json:"default_speech_to_text_model,omitempty"`
	DefaultToolsModel          *string `json:"default_tools_model,omitempty"`
	LargeContextModel          *string `json:"large_context_model,omitempty"`
}

// ListModels lists models, optionally filtered by type.
func (c *Client) ListModels(ctx context.Context, modelType string) ([]Model, error) {
	params := url.Values{}
	params.Set("type", modelType)
	var resp []Model
	if err := c.get(ctx, withQuery("/api/models", params), &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) CreateModel(ctx context.Context, req CreateModelRequest) (*Model, error) {
	var resp Model
	if err := c.post(ctx, "/api/models", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) DeleteModel(ctx context.Context, id string) error {
	return c.delete(ctx, recordPath("/api/models", id))
}

func (c *Client) GetDefaultModels(ctx context.Context) (*DefaultModels, error) {
	var resp DefaultModels
	if err := c.get(ctx, "/api/models/defaults", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) UpdateDefaultModels(ctx context.Context, req DefaultModels) (*DefaultModels, error) {
	var resp DefaultModels
	if err := c.put(ctx, "/api/models/defaults", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
