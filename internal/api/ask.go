package api

import "context"

type AskRequest struct {
	Question         string `json:"question"`
	StrategyModel    string `json:"strategy_model"`
	AnswerModel      string `json:"answer_model"`
	FinalAnswerModel string `json:"final_answer_model"`
}

type AskResponse struct {
	Answer      string         `json:"answer"`
	Question    string         `json:"question"`
	SourcesUsed []SearchResult `json:"sources_used,omitempty"`
}

// Asker is the streaming half of the API used by conversations.
type Asker interface {
	AskStream(ctx context.Context, req AskRequest, h StreamHandler) error
}

func (c *Client) AskStream(ctx context.Context, req AskRequest, h StreamHandler) error {
	return c.Stream(ctx, "/api/search/ask", req, h)
}

func (c *Client) AskSimple(ctx context.Context, req AskRequest) (*AskResponse, error) {
	var resp AskResponse
	if err := c.post(ctx, "/api/search/ask/simple", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
