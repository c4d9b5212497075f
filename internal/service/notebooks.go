package service

import (
	"cosmiq-cli/internal/api"
)

// NotebookDisplay holds display-ready notebook info.
type NotebookDisplay struct {
	ID          string
	Name        string
	Description string
	Updated     string
	Archived    bool
}

// FormatNotebookRow maps a raw Notebook to a display-ready struct.
func FormatNotebookRow(n api.Notebook) NotebookDisplay {
	name := n.Name
	if name == "" {
		name = "(unnamed)"
	}
	return NotebookDisplay{
		ID:          n.ID,
		Name:        name,
		Description: Truncate(n.Description, 60),
		Updated:     n.Updated,
		Archived:    n.Archived,
	}
}

// FilterArchived removes archived notebooks unless includeArchived is set.
// This logic is shared between CLI and TUI.
func FilterArchived(notebooks []api.Notebook, includeArchived bool) []api.Notebook {
	if includeArchived {
		return notebooks
	}
	var filtered []api.Notebook
	for _, n := range notebooks {
		if !n.Archived {
			filtered = append(filtered, n)
		}
	}
	return filtered
}

// FindNotebook matches a notebook by exact id or case-sensitive name.
func FindNotebook(notebooks []api.Notebook, ref string) (api.Notebook, bool) {
	for _, n := range notebooks {
		if n.ID == ref {
			return n, true
		}
	}
	for _, n := range notebooks {
		if n.Name == ref {
			return n, true
		}
	}
	return api.Notebook{}, false
}
