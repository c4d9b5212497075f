package service

import (
	"fmt"
	"net/url"
	"strings"
)

// BuildNotebookURL constructs the web UI URL for a notebook.
// Format: {baseURL}/notebook/{id}
// Strips "/api" suffix if present in the server URL.
func BuildNotebookURL(serverURL, notebookID string) string {
	base := strings.TrimRight(serverURL, "/")
	base = strings.TrimSuffix(base, "/api")
	return base + "/notebook/" + url.PathEscape(notebookID)
}

// ParseNotebookRef accepts either a notebook id ("notebook:abc") or a web UI
// notebook URL and returns the id.
func ParseNotebookRef(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", fmt.Errorf("empty notebook reference")
	}
	if !strings.Contains(ref, "://") {
		return ref, nil
	}

	u, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("invalid URL: missing scheme or host")
	}
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i := 0; i+1 < len(segments); i++ {
		if segments[i] == "notebook" {
			id, err := url.PathUnescape(segments[i+1])
			if err != nil || id == "" {
				return "", fmt.Errorf("URL path has empty notebook ID")
			}
			return id, nil
		}
	}
	return "", fmt.Errorf("URL path does not match /notebook/{id}")
}
