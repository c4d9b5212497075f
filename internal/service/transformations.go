package service

import (
	"strings"

	"cosmiq-cli/internal/api"
)

// TransformationDisplay holds display-ready transformation info.
type TransformationDisplay struct {
	ID           string
	Name         string
	Title        string
	Description  string
	ApplyDefault bool
}

// FormatTransformation maps a raw Transformation to a display-ready struct.
func FormatTransformation(t api.Transformation) TransformationDisplay {
	title := t.Title
	if title == "" {
		title = t.Name
	}
	return TransformationDisplay{
		ID:           t.ID,
		Name:         t.Name,
		Title:        title,
		Description:  Truncate(strings.TrimSpace(t.Description), 60),
		ApplyDefault: t.ApplyDefault,
	}
}

// FormatTransformations maps a list of transformations.
func FormatTransformations(list []api.Transformation) []TransformationDisplay {
	out := make([]TransformationDisplay, 0, len(list))
	for _, t := range list {
		out = append(out, FormatTransformation(t))
	}
	return out
}

// FindTransformation matches by id, then by name (case-insensitive).
func FindTransformation(list []api.Transformation, ref string) (api.Transformation, bool) {
	for _, t := range list {
		if t.ID == ref {
			return t, true
		}
	}
	for _, t := range list {
		if strings.EqualFold(t.Name, ref) {
			return t, true
		}
	}
	return api.Transformation{}, false
}
