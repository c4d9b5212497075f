package service

import (
	"strings"

	"cosmiq-cli/internal/api"
)

// SearchDisplay is one normalized search hit.
type SearchDisplay struct {
	ID         string
	// TargetID is the record to open: the parent id when set, else ID.
	TargetID   string
	Title      string
	Type       string
	Score      float64
	Excerpt    string
	NotebookID string
}

// NormalizeSearchResults fills in the fields older backends leave out. The
// type is inferred from the ids ("note:" wins over "source:"); the score is
// the first non-zero of relevance, similarity and score. Every hit is
// attributed to notebookID.
func NormalizeSearchResults(results []api.SearchResult, notebookID string) []SearchDisplay {
	out := make([]SearchDisplay, 0, len(results))
	for _, r := range results {
		d := SearchDisplay{
			ID:         r.ID,
			TargetID:   r.ID,
			Title:      "Untitled",
			Type:       resultType(r),
			Score:      resultScore(r),
			NotebookID: notebookID,
		}
		if r.ParentID != "" {
			d.TargetID = r.ParentID
		}
		if r.Title != nil && *r.Title != "" {
			d.Title = *r.Title
		}
		if r.Content != nil {
			d.Excerpt = Truncate(strings.Join(strings.Fields(*r.Content), " "), 120)
		} else if len(r.Matches) > 0 {
			d.Excerpt = Truncate(strings.Join(strings.Fields(r.Matches[0]), " "), 120)
		}
		out = append(out, d)
	}
	return out
}

func resultType(r api.SearchResult) string {
	switch {
	case strings.Contains(r.ID, "note:") || strings.Contains(r.ParentID, "note:"):
		return "note"
	case strings.Contains(r.ID, "source:") || strings.Contains(r.ParentID, "source:"):
		return "source"
	case r.Type != "":
		return r.Type
	}
	return "source"
}

func resultScore(r api.SearchResult) float64 {
	for _, v := range []*float64{r.Relevance, r.Similarity, r.Score} {
		if v != nil && *v != 0 {
			return *v
		}
	}
	return 0
}
