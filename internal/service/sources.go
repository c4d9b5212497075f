package service

import (
	"strings"

	"cosmiq-cli/internal/api"
)

// SourceDisplay holds display-ready source info.
type SourceDisplay struct {
	ID       string
	Title    string
	Kind     string
	Location string
	Insights int
	Updated  string
}

// FormatSourceRow maps a raw Source to a display-ready struct.
func FormatSourceRow(s api.Source) SourceDisplay {
	d := SourceDisplay{
		ID:       s.ID,
		Title:    s.TitleOr("Untitled Source"),
		Kind:     "text",
		Insights: len(s.Insights),
		Updated:  s.Updated,
	}
	if s.Asset != nil {
		switch {
		case s.Asset.URL != "":
			d.Kind = "url"
			if isYouTube(s.Asset.URL) {
				d.Kind = "youtube"
			}
			d.Location = s.Asset.URL
		case s.Asset.FilePath != "":
			d.Kind = "file"
			d.Location = s.Asset.FilePath
		case s.Asset.Type != "":
			d.Kind = s.Asset.Type
		}
	}
	return d
}

func isYouTube(u string) bool {
	return strings.Contains(u, "youtube.com/") || strings.Contains(u, "youtu.be/")
}

// SourceTypes lists the kinds accepted when adding a source.
func SourceTypes() []string {
	return []string{"url", "file", "text", "youtube"}
}

// ValidSourceType checks if t is an accepted source kind.
func ValidSourceType(t string) bool {
	for _, v := range SourceTypes() {
		if v == t {
			return true
		}
	}
	return false
}
