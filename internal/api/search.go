package api

import "context"

const (
	SearchText   = "text"
	SearchVector = "vector"
)

type SearchRequest struct {
	Query         string  `json:"query"`
	Type          string  `json:"type"`
	Limit         int     `json:"limit"`
	SearchSources bool    `json:"search_sources"`
	SearchNotes   bool    `json:"search_notes"`
	MinimumScore  float64 `json:"minimum_score"`
	NotebookID    string  `json:"notebook_id,omitempty"`
}

// NewSearchRequest returns a request with the defaults the web client uses:
// text search over sources and notes, 100 results, minimum score 0.2.
func NewSearchRequest(query, notebookID string) SearchRequest {
	return SearchRequest{
		Query:         query,
		Type:          SearchText,
		Limit:         100,
		SearchSources: true,
		SearchNotes:   true,
		MinimumScore:  0.2,
		NotebookID:    notebookID,
	}
}

// SearchResult is a raw hit. The backend reports relevance, similarity or
// score depending on the search type.
type SearchResult struct {
	ID         string   `json:"id"`
	ParentID   string   `json:"parent_id,omitempty"`
	Title      *string  `json:"title"`
	Content    *string  `json:"content"`
	Type       string   `json:"type,omitempty"`
	Score      *float64 `json:"score,omitempty"`
	Relevance  *float64 `json:"relevance,omitempty"`
	Similarity *float64 `json:"similarity,omitempty"`
	Matches    []string `json:"matches,omitempty"`
	NotebookID string   `json:"notebook_id,omitempty"`
	Created    string   `json:"created,omitempty"`
}

type SearchResponse struct {
	Results    []SearchResult `json:"results"`
	Query      string         `json:"query,omitempty"`
	SearchType string         `json:"search_type,omitempty"`
	Total      int            `json:"total,omitempty"`
	TotalCount int            `json:"total_count,omitempty"`
}

func (c *Client) Search(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	var resp SearchResponse
	if err := c.post(ctx, "/api/search", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
